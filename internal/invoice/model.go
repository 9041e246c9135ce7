package invoice

import (
	"errors"
	"time"

	"marketplace/internal/auth"

	"github.com/shopspring/decimal"
)

const (
	StatusIssued  = "issued"
	StatusSettled = "settled"
)

var (
	ErrInvoiceNotFound = errors.New("invoice not found")
	ErrInvoiceExists   = errors.New("booking already has an invoice")
	ErrNoItems         = errors.New("invoice needs at least one item")
	ErrAmountsMismatch = errors.New("invoice amounts do not add up")
)

type Invoice struct {
	ID                int             `db:"id" json:"id"`
	Number            string          `db:"number" json:"number"`
	BookingID         int             `db:"booking_id" json:"booking_id"`
	OrderID           *int            `db:"order_id" json:"order_id,omitempty"`
	ProviderID        int             `db:"provider_id" json:"provider_id"`
	CustomerID        int             `db:"customer_id" json:"customer_id"`
	Subtotal          decimal.Decimal `db:"subtotal" json:"subtotal" swaggertype:"string"`
	TaxAmount         decimal.Decimal `db:"tax_amount" json:"tax_amount" swaggertype:"string"`
	DiscountAmount    decimal.Decimal `db:"discount_amount" json:"discount_amount" swaggertype:"string"`
	TotalAmount       decimal.Decimal `db:"total_amount" json:"total_amount" swaggertype:"string"`
	CommissionRuleID  *int            `db:"commission_rule_id" json:"commission_rule_id,omitempty"`
	CommissionAmount  decimal.Decimal `db:"commission_amount" json:"commission_amount" swaggertype:"string"`
	PlatformAmount    decimal.Decimal `db:"platform_amount" json:"platform_amount" swaggertype:"string"`
	ProviderAmount    decimal.Decimal `db:"provider_amount" json:"provider_amount" swaggertype:"string"`
	ProviderNetAmount decimal.Decimal `db:"provider_net_amount" json:"provider_net_amount" swaggertype:"string"`
	Currency          string          `db:"currency" json:"currency"`
	Status            string          `db:"status" json:"status"`
	IssuedAt          time.Time       `db:"issued_at" json:"issued_at"`

	Items []Item `db:"-" json:"items,omitempty"`
}

// Validate checks total == subtotal + tax - discount and that the provider
// and platform shares split the total exactly.
func (inv *Invoice) Validate() error {
	if inv.TotalAmount.IsNegative() || inv.PlatformAmount.IsNegative() || inv.ProviderAmount.IsNegative() {
		return ErrAmountsMismatch
	}
	if !inv.Subtotal.Add(inv.TaxAmount).Sub(inv.DiscountAmount).Equal(inv.TotalAmount) {
		return ErrAmountsMismatch
	}
	if !inv.ProviderAmount.Add(inv.PlatformAmount).Equal(inv.TotalAmount) {
		return ErrAmountsMismatch
	}
	if !inv.ProviderNetAmount.Add(inv.TaxAmount).Equal(inv.ProviderAmount) {
		return ErrAmountsMismatch
	}
	return nil
}

// VisibleTo reports whether the user may read the invoice.
func (inv *Invoice) VisibleTo(userID int, role string) bool {
	return role == auth.RoleAdmin || inv.CustomerID == userID || inv.ProviderID == userID
}

type Item struct {
	ID          int             `db:"id" json:"id"`
	InvoiceID   int             `db:"invoice_id" json:"invoice_id"`
	Description string          `db:"description" json:"description"`
	Quantity    int             `db:"quantity" json:"quantity"`
	UnitPrice   decimal.Decimal `db:"unit_price" json:"unit_price" swaggertype:"string"`
	Amount      decimal.Decimal `db:"amount" json:"amount" swaggertype:"string"`
}

// Source is the completed booking an invoice is generated from. Discount
// includes the redeemed points value.
type Source struct {
	BookingID   int
	OrderID     *int
	ProviderID  int
	CustomerID  int
	ServiceKind string
	Subtotal    decimal.Decimal
	Tax         decimal.Decimal
	Discount    decimal.Decimal
	Total       decimal.Decimal
	Currency    string
	CompletedAt time.Time
	Items       []Item
}

type ListFilter struct {
	ProviderID int
	Status     string
	Limit      int
	Offset     int
}
