package points

import (
	"context"

	"github.com/jmoiron/sqlx"
)

type Repository interface {
	WithTx(tx *sqlx.Tx) Repository
	LockUser(ctx context.Context, userID int) error
	Balance(ctx context.Context, userID int) (int, error)
	Add(ctx context.Context, e *Entry) error
	OutstandingRedemption(ctx context.Context, bookingID int) (int, error)
	History(ctx context.Context, userID, limit, offset int) ([]Entry, error)
}
