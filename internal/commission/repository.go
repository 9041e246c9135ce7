package commission

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
)

const ruleColumns = `id, name, provider_id, service_kind, calc_type, value, min_amount, max_amount, priority, active_from, active_to, active, created_at`

type repository struct {
	db sqlx.ExtContext
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *sqlx.Tx) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// CandidateRules narrows the rule table in SQL; SelectRule makes the final pick.
func (r *repository) CandidateRules(ctx context.Context, providerID int, kind string, at time.Time) ([]Rule, error) {
	query := `
		SELECT ` + ruleColumns + `
		FROM commission_rules
		WHERE active = TRUE
		  AND active_from <= $3
		  AND (active_to IS NULL OR active_to >= $3)
		  AND (provider_id IS NULL OR provider_id = $1)
		  AND (service_kind IS NULL OR service_kind = $2)
		ORDER BY priority DESC, id ASC
	`

	var rules []Rule
	if err := sqlx.SelectContext(ctx, r.db, &rules, query, providerID, kind, at); err != nil {
		return nil, err
	}
	return rules, nil
}

func (r *repository) CreateRule(ctx context.Context, rule *Rule) (*Rule, error) {
	query := `
		INSERT INTO commission_rules (name, provider_id, service_kind, calc_type, value, min_amount, max_amount, priority, active_from, active_to)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING ` + ruleColumns

	var created Rule
	err := sqlx.GetContext(ctx, r.db, &created, query,
		rule.Name, rule.ProviderID, rule.ServiceKind, rule.CalcType, rule.Value,
		rule.MinAmount, rule.MaxAmount, rule.Priority, rule.ActiveFrom, rule.ActiveTo)
	if err != nil {
		return nil, err
	}
	return &created, nil
}

func (r *repository) ListRules(ctx context.Context, limit, offset int) ([]Rule, error) {
	query := `
		SELECT ` + ruleColumns + `
		FROM commission_rules
		ORDER BY priority DESC, id ASC
		LIMIT $1 OFFSET $2
	`

	var rules []Rule
	if err := sqlx.SelectContext(ctx, r.db, &rules, query, limit, offset); err != nil {
		return nil, err
	}
	return rules, nil
}

func (r *repository) DeactivateRule(ctx context.Context, id int) error {
	res, err := r.db.ExecContext(ctx, `UPDATE commission_rules SET active = FALSE WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrRuleNotFound
	}
	return nil
}

// FeeStructureFor returns the kind-specific row when one is active, else the
// default (NULL kind) row. Returns nil, nil when neither exists.
func (r *repository) FeeStructureFor(ctx context.Context, kind string, at time.Time) (*FeeStructure, error) {
	query := `
		SELECT id, service_kind, tax_rate, default_commission_rate, priority, active_from, active_to
		FROM fee_structures
		WHERE (service_kind = $1 OR service_kind IS NULL)
		  AND active_from <= $2
		  AND (active_to IS NULL OR active_to >= $2)
		ORDER BY (service_kind IS NOT NULL) DESC, priority DESC, id ASC
		LIMIT 1
	`

	var fs FeeStructure
	err := sqlx.GetContext(ctx, r.db, &fs, query, kind, at)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &fs, nil
}
