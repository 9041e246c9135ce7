package invoice

import (
	"context"

	"github.com/jmoiron/sqlx"
)

type Repository interface {
	WithTx(tx *sqlx.Tx) Repository
	Create(ctx context.Context, inv *Invoice) error
	GetByID(ctx context.Context, id int) (*Invoice, error)
	GetByBooking(ctx context.Context, bookingID int) (*Invoice, error)
	ExistsForBooking(ctx context.Context, bookingID int) (bool, error)
	Items(ctx context.Context, invoiceID int) ([]Item, error)
	List(ctx context.Context, f ListFilter) ([]Invoice, error)
	MarkSettled(ctx context.Context, id int) error
}
