package booking

import (
	"errors"
	"time"

	"marketplace/internal/auth"
	"marketplace/internal/payment"
	"marketplace/internal/pricing"

	"github.com/shopspring/decimal"
)

const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
	StatusFailed    = "failed"
	StatusRefunded  = "refunded"

	PaymentUnpaid     = "unpaid"
	PaymentAuthorized = "authorized"
	PaymentPaid       = "paid"
	PaymentFailed     = "failed"
	PaymentVoided     = "voided"
	PaymentRefunded   = "refunded"

	MethodWallet  = "wallet"
	MethodGateway = "gateway"

	dateLayout = "2006-01-02"
)

var (
	ErrBookingNotFound     = errors.New("booking not found")
	ErrServiceUnavailable  = errors.New("service is not available for booking")
	ErrOwnService          = errors.New("providers cannot book their own services")
	ErrStartInPast         = errors.New("start date must not be in the past")
	ErrInvalidDate         = errors.New("dates must be formatted as YYYY-MM-DD")
	ErrNotOwner            = errors.New("booking belongs to another user")
	ErrCannotCancel        = errors.New("booking can no longer be cancelled")
	ErrCannotComplete      = errors.New("only confirmed bookings can be completed")
	ErrTotalMismatch       = errors.New("booking total does not equal subtotal + tax - discount - points_value")
	ErrUnknownPaymentEvent = errors.New("unknown payment status")
)

type Booking struct {
	ID            int             `db:"id" json:"id"`
	OrderID       *int            `db:"order_id" json:"order_id,omitempty"`
	UserID        int             `db:"user_id" json:"user_id"`
	ServiceID     int             `db:"service_id" json:"service_id"`
	ProviderID    int             `db:"provider_id" json:"provider_id"`
	StartDate     time.Time       `db:"start_date" json:"start_date"`
	EndDate       time.Time       `db:"end_date" json:"end_date"`
	Quantity      int             `db:"quantity" json:"quantity"`
	Subtotal      decimal.Decimal `db:"subtotal" json:"subtotal" swaggertype:"string"`
	Tax           decimal.Decimal `db:"tax" json:"tax" swaggertype:"string"`
	Discount      decimal.Decimal `db:"discount" json:"discount" swaggertype:"string"`
	CouponCode    *string         `db:"coupon_code" json:"coupon_code,omitempty"`
	PointsUsed    int             `db:"points_used" json:"points_used"`
	PointsValue   decimal.Decimal `db:"points_value" json:"points_value" swaggertype:"string"`
	Total         decimal.Decimal `db:"total" json:"total" swaggertype:"string"`
	Currency      string          `db:"currency" json:"currency"`
	Status        string          `db:"status" json:"status"`
	PaymentMethod string          `db:"payment_method" json:"payment_method"`
	PaymentStatus string          `db:"payment_status" json:"payment_status"`
	CreatedAt     time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time       `db:"updated_at" json:"updated_at"`
}

// Validate checks total == subtotal + tax - discount - points_value.
func (b *Booking) Validate() error {
	want := b.Subtotal.Add(b.Tax).Sub(b.Discount).Sub(b.PointsValue)
	if !b.Total.Equal(want) || b.Total.IsNegative() {
		return ErrTotalMismatch
	}
	return nil
}

func (b *Booking) VisibleTo(userID int, role string) bool {
	return role == auth.RoleAdmin || b.UserID == userID || b.ProviderID == userID
}

type Order struct {
	ID          int             `db:"id" json:"id"`
	UserID      int             `db:"user_id" json:"user_id"`
	Subtotal    decimal.Decimal `db:"subtotal" json:"subtotal" swaggertype:"string"`
	Tax         decimal.Decimal `db:"tax" json:"tax" swaggertype:"string"`
	Discount    decimal.Decimal `db:"discount" json:"discount" swaggertype:"string"`
	PointsValue decimal.Decimal `db:"points_value" json:"points_value" swaggertype:"string"`
	Total       decimal.Decimal `db:"total" json:"total" swaggertype:"string"`
	Currency    string          `db:"currency" json:"currency"`
	Status      string          `db:"status" json:"status"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at" json:"updated_at"`
}

type OrderItem struct {
	ID        int             `db:"id" json:"id"`
	OrderID   int             `db:"order_id" json:"order_id"`
	BookingID int             `db:"booking_id" json:"booking_id"`
	ServiceID int             `db:"service_id" json:"service_id"`
	Subtotal  decimal.Decimal `db:"subtotal" json:"subtotal" swaggertype:"string"`
}

type CheckoutItem struct {
	ServiceID int    `json:"service_id" binding:"required,gt=0"`
	StartDate string `json:"start_date" binding:"required,datetime=2006-01-02" example:"2026-06-01"`
	EndDate   string `json:"end_date" binding:"required,datetime=2006-01-02" example:"2026-06-03"`
	Quantity  int    `json:"quantity" binding:"gte=0,lte=10000"`
}

type QuoteRequest struct {
	Items      []CheckoutItem `json:"items" binding:"required,min=1,max=20,dive"`
	CouponCode string         `json:"coupon_code" binding:"max=64"`
	Points     int            `json:"points" binding:"gte=0"`
}

type CheckoutRequest struct {
	QuoteRequest
	PaymentMethod string `json:"payment_method" binding:"required,oneof=wallet gateway"`
}

type CheckoutResult struct {
	Order    *Order            `json:"order,omitempty"`
	Bookings []Booking         `json:"bookings"`
	Quote    *pricing.Quote    `json:"quote"`
	Payment  *payment.Checkout `json:"payment,omitempty"`
}

// Actor is who performs a state change. The scheduler acts as admin.
type Actor struct {
	UserID int
	Role   string
}

var SystemActor = Actor{Role: auth.RoleAdmin}

// PaymentTarget names the bookings a gateway charge paid for.
type PaymentTarget struct {
	BookingID *int
	OrderID   *int
}

type ListFilter struct {
	UserID     int
	ProviderID int
	ServiceID  int
	Status     string
	Limit      int
	Offset     int
}
