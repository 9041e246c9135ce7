package payment

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

const (
	PurposeBooking     = "booking"
	PurposeWalletTopUp = "wallet_topup"

	StatusInitiated  = "initiated"
	StatusAuthorized = "authorized"
	StatusCaptured   = "captured"
	StatusFailed     = "failed"
	StatusVoided     = "voided"
	StatusRefunded   = "refunded"
)

var (
	ErrTransactionNotFound = errors.New("payment transaction not found")
	ErrNotRefundable       = errors.New("payment transaction is not refundable")
	ErrInvalidAmount       = errors.New("amount must be positive")
)

type Transaction struct {
	ID              int             `db:"id" json:"id"`
	Reference       string          `db:"reference" json:"reference"`
	ChargeID        string          `db:"charge_id" json:"charge_id"`
	UserID          int             `db:"user_id" json:"user_id"`
	BookingID       *int            `db:"booking_id" json:"booking_id,omitempty"`
	OrderID         *int            `db:"order_id" json:"order_id,omitempty"`
	Purpose         string          `db:"purpose" json:"purpose"`
	Amount          decimal.Decimal `db:"amount" json:"amount" swaggertype:"string"`
	Currency        string          `db:"currency" json:"currency"`
	Status          string          `db:"status" json:"status"`
	GatewayResponse json.RawMessage `db:"gateway_response" json:"-"`
	CreatedAt       time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time       `db:"updated_at" json:"updated_at"`
}

// Customer is who the gateway shows on the hosted payment page.
type Customer struct {
	Name  string
	Email string
}

type ChargeRequest struct {
	Amount      decimal.Decimal
	Currency    string
	Description string
	Reference   string
	Customer    Customer
	Metadata    map[string]string
}

type Charge struct {
	ID             string `json:"id"`
	Status         string `json:"status"`
	TransactionURL string `json:"transaction_url"`
}

type RefundRequest struct {
	ChargeID  string
	Amount    decimal.Decimal
	Currency  string
	Reason    string
	Reference string
}

type Refund struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// InitiateRequest describes a charge the platform wants to collect.
type InitiateRequest struct {
	UserID      int
	BookingID   *int
	OrderID     *int
	Purpose     string
	Amount      decimal.Decimal
	Currency    string
	Description string
	Customer    Customer
	Metadata    map[string]string
}

type Checkout struct {
	Reference      string          `json:"reference"`
	ChargeID       string          `json:"charge_id"`
	Amount         decimal.Decimal `json:"amount" swaggertype:"string"`
	Currency       string          `json:"currency"`
	TransactionURL string          `json:"transaction_url"`
}

type RefundPaymentRequest struct {
	Amount *decimal.Decimal `json:"amount" swaggertype:"string"`
	Reason string           `json:"reason" binding:"max=255"`
}
