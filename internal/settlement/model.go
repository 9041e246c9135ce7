package settlement

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

const (
	StatusHeld     = "held"
	StatusReleased = "released"
	StatusReversed = "reversed"

	bookingPaymentRefunded = "refunded"
)

var (
	ErrHoldNotFound    = errors.New("escrow hold not found")
	ErrAlreadyReleased = errors.New("escrow hold already released")
	ErrHoldReversed    = errors.New("escrow hold was reversed")
	ErrBookingRefunded = errors.New("booking was refunded to the customer")
)

// Hold is a provider's share of an invoice kept by the platform until an
// admin releases it to the provider's wallet.
type Hold struct {
	ID         int             `db:"id" json:"id"`
	InvoiceID  int             `db:"invoice_id" json:"invoice_id"`
	ProviderID int             `db:"provider_id" json:"provider_id"`
	Amount     decimal.Decimal `db:"amount" json:"amount" swaggertype:"string"`
	Currency   string          `db:"currency" json:"currency"`
	Status     string          `db:"status" json:"status"`
	ReleasedAt *time.Time      `db:"released_at" json:"released_at,omitempty"`
	ReleasedBy *int            `db:"released_by" json:"released_by,omitempty"`
	CreatedAt  time.Time       `db:"created_at" json:"created_at"`
}

type ListFilter struct {
	ProviderID int
	Status     string
	Limit      int
	Offset     int
}
