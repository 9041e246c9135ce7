package coupon

import (
	"context"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

type Service interface {
	Create(ctx context.Context, req CreateCouponRequest) (*Coupon, error)
	List(ctx context.Context, limit, offset int) ([]Coupon, error)
	Lookup(ctx context.Context, code string, subtotal decimal.Decimal) (*Coupon, decimal.Decimal, error)
	Redeem(ctx context.Context, tx *sqlx.Tx, c *Coupon) error
}

type service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) Service {
	return &service{repo: repo, now: time.Now}
}

func (s *service) Create(ctx context.Context, req CreateCouponRequest) (*Coupon, error) {
	if !req.Value.IsPositive() {
		return nil, ErrInvalidValue
	}
	if req.DiscountType == TypePercentage && req.Value.GreaterThan(hundred) {
		return nil, ErrInvalidValue
	}

	c := &Coupon{
		Code:         strings.ToUpper(req.Code),
		DiscountType: req.DiscountType,
		Value:        req.Value,
		MinOrder:     req.MinOrder.Round(2),
		ValidTo:      req.ValidTo,
		UsageLimit:   req.UsageLimit,
		ValidFrom:    s.now(),
	}
	if req.ValidFrom != nil {
		c.ValidFrom = *req.ValidFrom
	}
	if req.MaxDiscount != nil {
		c.MaxDiscount = decimal.NewNullDecimal(req.MaxDiscount.Round(2))
	}
	if c.ValidTo != nil && c.ValidTo.Before(c.ValidFrom) {
		return nil, ErrInvalidWindow
	}

	return s.repo.Create(ctx, c)
}

func (s *service) List(ctx context.Context, limit, offset int) ([]Coupon, error) {
	coupons, err := s.repo.List(ctx, limit, offset)
	if err != nil {
		return nil, err
	}
	if coupons == nil {
		coupons = []Coupon{}
	}
	return coupons, nil
}

// Lookup loads a coupon and prices it against subtotal without consuming it.
func (s *service) Lookup(ctx context.Context, code string, subtotal decimal.Decimal) (*Coupon, decimal.Decimal, error) {
	c, err := s.repo.GetByCode(ctx, code)
	if err != nil {
		return nil, decimal.Zero, err
	}
	if err := c.Usable(s.now()); err != nil {
		return nil, decimal.Zero, err
	}

	d, err := c.Discount(subtotal)
	if err != nil {
		return nil, decimal.Zero, err
	}
	return c, d, nil
}

func (s *service) Redeem(ctx context.Context, tx *sqlx.Tx, c *Coupon) error {
	return s.repo.WithTx(tx).IncrementUsage(ctx, c.ID)
}
