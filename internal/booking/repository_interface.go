package booking

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
)

type Repository interface {
	WithTx(tx *sqlx.Tx) Repository
	CreateOrder(ctx context.Context, o *Order) error
	UpdateOrderStatus(ctx context.Context, orderID int, status string) error
	AddOrderItem(ctx context.Context, item *OrderItem) error
	Create(ctx context.Context, b *Booking) error
	GetByID(ctx context.Context, id int) (*Booking, error)
	LockByID(ctx context.Context, id int) (*Booking, error)
	LockByOrder(ctx context.Context, orderID int) ([]Booking, error)
	UpdateStatus(ctx context.Context, id int, status, paymentStatus string) error
	List(ctx context.Context, f ListFilter) ([]Booking, error)
	DueForCompletion(ctx context.Context, before time.Time, limit int) ([]int, error)
	StalePending(ctx context.Context, createdBefore time.Time, limit int) ([]int, error)
}
