package coupon

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

const (
	TypePercentage = "percentage"
	TypeFixed      = "fixed"
)

var (
	ErrCouponNotFound  = errors.New("coupon not found")
	ErrCouponInactive  = errors.New("coupon is not active")
	ErrCouponExpired   = errors.New("coupon is not valid at this time")
	ErrCouponExhausted = errors.New("coupon usage limit reached")
	ErrMinOrderNotMet  = errors.New("order total below coupon minimum")
	ErrCodeTaken       = errors.New("coupon code already exists")
	ErrInvalidValue    = errors.New("coupon value must be positive and a percentage at most 100")
	ErrInvalidWindow   = errors.New("valid_to must be after valid_from")
)

var hundred = decimal.NewFromInt(100)

type Coupon struct {
	ID           int                 `db:"id" json:"id"`
	Code         string              `db:"code" json:"code"`
	DiscountType string              `db:"discount_type" json:"discount_type"`
	Value        decimal.Decimal     `db:"value" json:"value" swaggertype:"string"`
	MinOrder     decimal.Decimal     `db:"min_order" json:"min_order" swaggertype:"string"`
	MaxDiscount  decimal.NullDecimal `db:"max_discount" json:"max_discount" swaggertype:"string"`
	ValidFrom    time.Time           `db:"valid_from" json:"valid_from"`
	ValidTo      *time.Time          `db:"valid_to" json:"valid_to,omitempty"`
	UsageLimit   *int                `db:"usage_limit" json:"usage_limit,omitempty"`
	UsedCount    int                 `db:"used_count" json:"used_count"`
	Active       bool                `db:"active" json:"active"`
	CreatedAt    time.Time           `db:"created_at" json:"created_at"`
}

// Usable checks everything except the order amount.
func (c *Coupon) Usable(now time.Time) error {
	if !c.Active {
		return ErrCouponInactive
	}
	if now.Before(c.ValidFrom) || (c.ValidTo != nil && now.After(*c.ValidTo)) {
		return ErrCouponExpired
	}
	if c.UsageLimit != nil && c.UsedCount >= *c.UsageLimit {
		return ErrCouponExhausted
	}
	return nil
}

// Discount returns the amount taken off subtotal, never more than subtotal.
func (c *Coupon) Discount(subtotal decimal.Decimal) (decimal.Decimal, error) {
	if subtotal.LessThan(c.MinOrder) {
		return decimal.Zero, ErrMinOrderNotMet
	}

	var d decimal.Decimal
	switch c.DiscountType {
	case TypePercentage:
		d = subtotal.Mul(c.Value).Div(hundred)
	default:
		d = c.Value
	}

	if c.MaxDiscount.Valid && d.GreaterThan(c.MaxDiscount.Decimal) {
		d = c.MaxDiscount.Decimal
	}
	if d.GreaterThan(subtotal) {
		d = subtotal
	}
	if d.IsNegative() {
		d = decimal.Zero
	}

	return d.Round(2), nil
}

type CreateCouponRequest struct {
	Code         string           `json:"code" binding:"required,alphanum,min=3,max=64"`
	DiscountType string           `json:"discount_type" binding:"required,oneof=percentage fixed"`
	Value        decimal.Decimal  `json:"value" swaggertype:"string" example:"10"`
	MinOrder     decimal.Decimal  `json:"min_order" swaggertype:"string"`
	MaxDiscount  *decimal.Decimal `json:"max_discount" swaggertype:"string"`
	ValidFrom    *time.Time       `json:"valid_from"`
	ValidTo      *time.Time       `json:"valid_to"`
	UsageLimit   *int             `json:"usage_limit" binding:"omitempty,gt=0"`
}

type ValidateRequest struct {
	Code     string          `json:"code" binding:"required"`
	Subtotal decimal.Decimal `json:"subtotal" swaggertype:"string"`
}

type ValidateResponse struct {
	Code     string          `json:"code"`
	Discount decimal.Decimal `json:"discount" swaggertype:"string"`
}
