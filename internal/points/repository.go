package points

import (
	"context"

	"github.com/jmoiron/sqlx"
)

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

// LockUser serializes balance checks for one user until the transaction ends.
func (r *repository) LockUser(ctx context.Context, userID int) error {
	var id int
	return sqlx.GetContext(ctx, r.db, &id, `SELECT id FROM users WHERE id = $1 FOR UPDATE`, userID)
}

func (r *repository) Balance(ctx context.Context, userID int) (int, error) {
	var balance int
	err := sqlx.GetContext(ctx, r.db, &balance, `SELECT COALESCE(SUM(points), 0) FROM points_ledger WHERE user_id = $1`, userID)
	return balance, err
}

func (r *repository) Add(ctx context.Context, e *Entry) error {
	query := `
		INSERT INTO points_ledger (user_id, points, reason, booking_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`
	return sqlx.GetContext(ctx, r.db, e, query, e.UserID, e.Points, e.Reason, e.BookingID)
}

// OutstandingRedemption is how many points redeemed for a booking have not
// been given back yet.
func (r *repository) OutstandingRedemption(ctx context.Context, bookingID int) (int, error) {
	query := `
		SELECT COALESCE(-SUM(points), 0)
		FROM points_ledger
		WHERE booking_id = $1 AND reason IN ('redeemed', 'restored')
	`

	var n int
	err := sqlx.GetContext(ctx, r.db, &n, query, bookingID)
	return n, err
}

func (r *repository) History(ctx context.Context, userID, limit, offset int) ([]Entry, error) {
	query := `
		SELECT id, user_id, points, reason, booking_id, created_at
		FROM points_ledger
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`

	var entries []Entry
	if err := sqlx.SelectContext(ctx, r.db, &entries, query, userID, limit, offset); err != nil {
		return nil, err
	}
	return entries, nil
}
