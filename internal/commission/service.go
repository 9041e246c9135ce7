package commission

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

type Service interface {
	TaxRate(ctx context.Context, kind string) (decimal.Decimal, error)
	Split(ctx context.Context, tx *sqlx.Tx, in SplitInput) (*Split, error)
	CreateRule(ctx context.Context, req CreateRuleRequest) (*Rule, error)
	ListRules(ctx context.Context, limit, offset int) ([]Rule, error)
	DeactivateRule(ctx context.Context, id int) error
}

type service struct {
	repo           Repository
	defaultTaxRate decimal.Decimal
	now            func() time.Time
}

func NewService(repo Repository, defaultTaxRate decimal.Decimal) Service {
	return &service{repo: repo, defaultTaxRate: defaultTaxRate, now: time.Now}
}

func (s *service) TaxRate(ctx context.Context, kind string) (decimal.Decimal, error) {
	fs, err := s.repo.FeeStructureFor(ctx, kind, s.now())
	if err != nil {
		return decimal.Zero, fmt.Errorf("load fee structure: %w", err)
	}
	if fs == nil {
		return s.defaultTaxRate, nil
	}
	return fs.TaxRate, nil
}

// Split resolves the governing rule and divides total between provider and
// platform. Without any rule the fee structure's default rate applies.
func (s *service) Split(ctx context.Context, tx *sqlx.Tx, in SplitInput) (*Split, error) {
	repo := s.repo.WithTx(tx)

	rules, err := repo.CandidateRules(ctx, in.ProviderID, in.ServiceKind, in.At)
	if err != nil {
		return nil, fmt.Errorf("load commission rules: %w", err)
	}

	rule := SelectRule(rules, in.ProviderID, in.ServiceKind, in.At)
	if rule == nil {
		fs, err := repo.FeeStructureFor(ctx, in.ServiceKind, in.At)
		if err != nil {
			return nil, fmt.Errorf("load fee structure: %w", err)
		}
		rule = &Rule{CalcType: CalcPercentage}
		if fs != nil {
			rule.Value = fs.DefaultCommissionRate
		}
	}

	split := Compute(rule, in.Total, in.Tax)
	if err := split.Validate(in.Total, in.Tax); err != nil {
		return nil, err
	}
	return split, nil
}

// Compute applies rule to a booking total. The commission is charged on the
// pre-tax amount; the provider keeps everything else, tax included.
func Compute(rule *Rule, total, tax decimal.Decimal) *Split {
	base := total.Sub(tax)
	if base.IsNegative() {
		base = decimal.Zero
	}

	c := rule.Amount(base)
	split := &Split{
		Base:              base,
		CommissionAmount:  c,
		PlatformAmount:    c,
		ProviderAmount:    total.Sub(c),
		ProviderNetAmount: total.Sub(c).Sub(tax),
	}
	if rule.ID != 0 {
		id := rule.ID
		split.RuleID = &id
	}
	return split
}

func (s *service) CreateRule(ctx context.Context, req CreateRuleRequest) (*Rule, error) {
	if req.Value.IsNegative() {
		return nil, ErrInvalidRule
	}
	if req.CalcType == CalcPercentage && req.Value.GreaterThan(hundred) {
		return nil, ErrInvalidRule
	}
	if req.MinAmount != nil && req.MaxAmount != nil && req.MinAmount.GreaterThan(*req.MaxAmount) {
		return nil, ErrInvalidRule
	}

	rule := &Rule{
		Name:        req.Name,
		ProviderID:  req.ProviderID,
		ServiceKind: req.ServiceKind,
		CalcType:    req.CalcType,
		Value:       req.Value,
		Priority:    req.Priority,
		ActiveFrom:  s.now(),
		ActiveTo:    req.ActiveTo,
	}
	if req.ActiveFrom != nil {
		rule.ActiveFrom = *req.ActiveFrom
	}
	if req.MinAmount != nil {
		rule.MinAmount = decimal.NewNullDecimal(req.MinAmount.Round(2))
	}
	if req.MaxAmount != nil {
		rule.MaxAmount = decimal.NewNullDecimal(req.MaxAmount.Round(2))
	}
	if rule.ActiveTo != nil && rule.ActiveTo.Before(rule.ActiveFrom) {
		return nil, ErrInvalidRule
	}

	return s.repo.CreateRule(ctx, rule)
}

func (s *service) ListRules(ctx context.Context, limit, offset int) ([]Rule, error) {
	rules, err := s.repo.ListRules(ctx, limit, offset)
	if err != nil {
		return nil, err
	}
	if rules == nil {
		rules = []Rule{}
	}
	return rules, nil
}

func (s *service) DeactivateRule(ctx context.Context, id int) error {
	return s.repo.DeactivateRule(ctx, id)
}
