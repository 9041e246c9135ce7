package coupon

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const couponColumns = `id, code, discount_type, value, min_order, max_discount, valid_from, valid_to, usage_limit, used_count, active, created_at`

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

func (r *repository) Create(ctx context.Context, c *Coupon) (*Coupon, error) {
	query := `
		INSERT INTO coupons (code, discount_type, value, min_order, max_discount, valid_from, valid_to, usage_limit)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + couponColumns

	var created Coupon
	err := sqlx.GetContext(ctx, r.db, &created, query,
		c.Code, c.DiscountType, c.Value, c.MinOrder, c.MaxDiscount, c.ValidFrom, c.ValidTo, c.UsageLimit)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return nil, ErrCodeTaken
		}
		return nil, err
	}

	return &created, nil
}

func (r *repository) GetByCode(ctx context.Context, code string) (*Coupon, error) {
	query := `
		SELECT ` + couponColumns + `
		FROM coupons
		WHERE UPPER(code) = UPPER($1)
	`

	var c Coupon
	err := sqlx.GetContext(ctx, r.db, &c, query, code)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCouponNotFound
	}
	if err != nil {
		return nil, err
	}

	return &c, nil
}

func (r *repository) List(ctx context.Context, limit, offset int) ([]Coupon, error) {
	query := `
		SELECT ` + couponColumns + `
		FROM coupons
		ORDER BY created_at DESC, id DESC
		LIMIT $1 OFFSET $2
	`

	var coupons []Coupon
	if err := sqlx.SelectContext(ctx, r.db, &coupons, query, limit, offset); err != nil {
		return nil, err
	}

	return coupons, nil
}

// IncrementUsage consumes one use. The guard in the WHERE clause makes
// concurrent checkouts unable to exceed usage_limit.
func (r *repository) IncrementUsage(ctx context.Context, id int) error {
	query := `
		UPDATE coupons
		SET used_count = used_count + 1
		WHERE id = $1 AND (usage_limit IS NULL OR used_count < usage_limit)
	`

	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrCouponExhausted
	}
	return nil
}
