package commission

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

const (
	CalcPercentage = "percentage"
	CalcFixed      = "fixed"
)

var (
	ErrRuleNotFound = errors.New("commission rule not found")
	ErrInvalidRule  = errors.New("invalid commission rule")
	ErrSplitBroken  = errors.New("commission split does not add up")
)

var hundred = decimal.NewFromInt(100)

type Rule struct {
	ID          int                 `db:"id" json:"id"`
	Name        string              `db:"name" json:"name"`
	ProviderID  *int                `db:"provider_id" json:"provider_id,omitempty"`
	ServiceKind *string             `db:"service_kind" json:"service_kind,omitempty"`
	CalcType    string              `db:"calc_type" json:"calc_type"`
	Value       decimal.Decimal     `db:"value" json:"value" swaggertype:"string"`
	MinAmount   decimal.NullDecimal `db:"min_amount" json:"min_amount" swaggertype:"string"`
	MaxAmount   decimal.NullDecimal `db:"max_amount" json:"max_amount" swaggertype:"string"`
	Priority    int                 `db:"priority" json:"priority"`
	ActiveFrom  time.Time           `db:"active_from" json:"active_from"`
	ActiveTo    *time.Time          `db:"active_to" json:"active_to,omitempty"`
	Active      bool                `db:"active" json:"active"`
	CreatedAt   time.Time           `db:"created_at" json:"created_at"`
}

// specificity ranks provider rules over kind rules over global ones.
func (r *Rule) specificity() int {
	s := 0
	if r.ProviderID != nil {
		s += 2
	}
	if r.ServiceKind != nil {
		s++
	}
	return s
}

func (r *Rule) appliesTo(providerID int, kind string, at time.Time) bool {
	if !r.Active || at.Before(r.ActiveFrom) || (r.ActiveTo != nil && at.After(*r.ActiveTo)) {
		return false
	}
	if r.ProviderID != nil && *r.ProviderID != providerID {
		return false
	}
	if r.ServiceKind != nil && *r.ServiceKind != kind {
		return false
	}
	return true
}

// Amount computes the commission on base, clamped to the rule's bounds and
// to [0, base].
func (r *Rule) Amount(base decimal.Decimal) decimal.Decimal {
	var c decimal.Decimal
	switch r.CalcType {
	case CalcFixed:
		c = r.Value
	default:
		c = base.Mul(r.Value).Div(hundred)
	}

	if r.MinAmount.Valid && c.LessThan(r.MinAmount.Decimal) {
		c = r.MinAmount.Decimal
	}
	if r.MaxAmount.Valid && c.GreaterThan(r.MaxAmount.Decimal) {
		c = r.MaxAmount.Decimal
	}
	if c.GreaterThan(base) {
		c = base
	}
	if c.IsNegative() {
		c = decimal.Zero
	}
	return c.Round(2)
}

type FeeStructure struct {
	ID                    int             `db:"id" json:"id"`
	ServiceKind           *string         `db:"service_kind" json:"service_kind,omitempty"`
	TaxRate               decimal.Decimal `db:"tax_rate" json:"tax_rate" swaggertype:"string"`
	DefaultCommissionRate decimal.Decimal `db:"default_commission_rate" json:"default_commission_rate" swaggertype:"string"`
	Priority              int             `db:"priority" json:"priority"`
	ActiveFrom            time.Time       `db:"active_from" json:"active_from"`
	ActiveTo              *time.Time      `db:"active_to" json:"active_to,omitempty"`
}

// Split is how a booking total divides between provider and platform.
type Split struct {
	RuleID            *int            `json:"rule_id,omitempty"`
	Base              decimal.Decimal `json:"base"`
	CommissionAmount  decimal.Decimal `json:"commission_amount"`
	PlatformAmount    decimal.Decimal `json:"platform_amount"`
	ProviderAmount    decimal.Decimal `json:"provider_amount"`
	ProviderNetAmount decimal.Decimal `json:"provider_net_amount"`
}

// Validate checks provider_net + platform == total - tax and
// provider + platform == total.
func (s *Split) Validate(total, tax decimal.Decimal) error {
	if !s.ProviderNetAmount.Add(s.PlatformAmount).Equal(total.Sub(tax)) {
		return ErrSplitBroken
	}
	if !s.ProviderAmount.Add(s.PlatformAmount).Equal(total) {
		return ErrSplitBroken
	}
	return nil
}

type SplitInput struct {
	ProviderID  int
	ServiceKind string
	Total       decimal.Decimal
	Tax         decimal.Decimal
	At          time.Time
}

type CreateRuleRequest struct {
	Name        string           `json:"name" binding:"required,max=255"`
	ProviderID  *int             `json:"provider_id" binding:"omitempty,gt=0"`
	ServiceKind *string          `json:"service_kind" binding:"omitempty,oneof=event catering restaurant property"`
	CalcType    string           `json:"calc_type" binding:"required,oneof=percentage fixed"`
	Value       decimal.Decimal  `json:"value" swaggertype:"string" example:"10"`
	MinAmount   *decimal.Decimal `json:"min_amount" swaggertype:"string"`
	MaxAmount   *decimal.Decimal `json:"max_amount" swaggertype:"string"`
	Priority    int              `json:"priority"`
	ActiveFrom  *time.Time       `json:"active_from"`
	ActiveTo    *time.Time       `json:"active_to"`
}
