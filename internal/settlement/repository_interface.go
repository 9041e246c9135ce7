package settlement

import (
	"context"

	"github.com/jmoiron/sqlx"
)

type Repository interface {
	WithTx(tx *sqlx.Tx) Repository
	Create(ctx context.Context, h *Hold) error
	LockByID(ctx context.Context, id int) (*Hold, error)
	MarkReleased(ctx context.Context, id, adminID int) (*Hold, error)
	ReverseByBooking(ctx context.Context, bookingID int) (*Hold, error)
	BookingPaymentStatus(ctx context.Context, invoiceID int) (string, error)
	List(ctx context.Context, f ListFilter) ([]Hold, error)
}
