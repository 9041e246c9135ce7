package booking

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
)

const bookingColumns = `id, order_id, user_id, service_id, provider_id, start_date, end_date, quantity,
	subtotal, tax, discount, coupon_code, points_used, points_value, total, currency,
	status, payment_method, payment_status, created_at, updated_at`

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

func (r *repository) CreateOrder(ctx context.Context, o *Order) error {
	return sqlx.GetContext(ctx, r.db, o, `
		INSERT INTO orders (user_id, subtotal, tax, discount, points_value, total, currency, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at`,
		o.UserID, o.Subtotal, o.Tax, o.Discount, o.PointsValue, o.Total, o.Currency, o.Status,
	)
}

func (r *repository) UpdateOrderStatus(ctx context.Context, orderID int, status string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE orders SET status = $1, updated_at = NOW() WHERE id = $2`, status, orderID)
	return err
}

func (r *repository) AddOrderItem(ctx context.Context, item *OrderItem) error {
	return sqlx.GetContext(ctx, r.db, &item.ID, `
		INSERT INTO order_items (order_id, booking_id, service_id, subtotal)
		VALUES ($1, $2, $3, $4)
		RETURNING id`,
		item.OrderID, item.BookingID, item.ServiceID, item.Subtotal,
	)
}

func (r *repository) Create(ctx context.Context, b *Booking) error {
	return sqlx.GetContext(ctx, r.db, b, `
		INSERT INTO bookings (
			order_id, user_id, service_id, provider_id, start_date, end_date, quantity,
			subtotal, tax, discount, coupon_code, points_used, points_value, total, currency,
			status, payment_method, payment_status
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		RETURNING `+bookingColumns,
		b.OrderID, b.UserID, b.ServiceID, b.ProviderID, b.StartDate, b.EndDate, b.Quantity,
		b.Subtotal, b.Tax, b.Discount, b.CouponCode, b.PointsUsed, b.PointsValue, b.Total, b.Currency,
		b.Status, b.PaymentMethod, b.PaymentStatus,
	)
}

func (r *repository) get(ctx context.Context, query string, id int) (*Booking, error) {
	b := &Booking{}
	if err := sqlx.GetContext(ctx, r.db, b, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	return b, nil
}

func (r *repository) GetByID(ctx context.Context, id int) (*Booking, error) {
	return r.get(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1 AND deleted_at IS NULL`, id)
}

// LockByID row-locks a booking for a status change. Must run inside a
// transaction.
func (r *repository) LockByID(ctx context.Context, id int) (*Booking, error) {
	return r.get(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1 AND deleted_at IS NULL FOR UPDATE`, id)
}

func (r *repository) LockByOrder(ctx context.Context, orderID int) ([]Booking, error) {
	var bookings []Booking
	err := sqlx.SelectContext(ctx, r.db, &bookings, `
		SELECT `+bookingColumns+` FROM bookings
		WHERE order_id = $1 AND deleted_at IS NULL
		ORDER BY id
		FOR UPDATE`, orderID)
	if err != nil {
		return nil, err
	}
	if len(bookings) == 0 {
		return nil, ErrBookingNotFound
	}
	return bookings, nil
}

func (r *repository) UpdateStatus(ctx context.Context, id int, status, paymentStatus string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE bookings
		SET status = $1, payment_status = $2, updated_at = NOW()
		WHERE id = $3`,
		status, paymentStatus, id,
	)
	if err != nil {
		return err
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrBookingNotFound
	}
	return nil
}

func (r *repository) List(ctx context.Context, f ListFilter) ([]Booking, error) {
	conds := []string{"deleted_at IS NULL"}
	var args []interface{}
	add := func(col string, v interface{}) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	if f.UserID > 0 {
		add("user_id", f.UserID)
	}
	if f.ProviderID > 0 {
		add("provider_id", f.ProviderID)
	}
	if f.ServiceID > 0 {
		add("service_id", f.ServiceID)
	}
	if f.Status != "" {
		add("status", f.Status)
	}

	args = append(args, f.Limit, f.Offset)
	query := fmt.Sprintf(`SELECT %s FROM bookings WHERE %s ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d`,
		bookingColumns, strings.Join(conds, " AND "), len(args)-1, len(args))

	var bookings []Booking
	if err := sqlx.SelectContext(ctx, r.db, &bookings, query, args...); err != nil {
		return nil, err
	}
	return bookings, nil
}

// DueForCompletion lists confirmed bookings whose end date is before the
// given day.
func (r *repository) DueForCompletion(ctx context.Context, before time.Time, limit int) ([]int, error) {
	var ids []int
	err := sqlx.SelectContext(ctx, r.db, &ids, `
		SELECT id FROM bookings
		WHERE status = $1 AND end_date < $2 AND deleted_at IS NULL
		ORDER BY end_date, id
		LIMIT $3`,
		StatusConfirmed, before, limit,
	)
	return ids, err
}

// StalePending lists gateway bookings still waiting for payment that were
// created before the cutoff.
func (r *repository) StalePending(ctx context.Context, createdBefore time.Time, limit int) ([]int, error) {
	var ids []int
	err := sqlx.SelectContext(ctx, r.db, &ids, `
		SELECT id FROM bookings
		WHERE status = $1 AND payment_status = $2 AND payment_method = $3 AND created_at < $4 AND deleted_at IS NULL
		ORDER BY created_at, id
		LIMIT $5`,
		StatusPending, PaymentUnpaid, MethodGateway, createdBefore, limit,
	)
	return ids, err
}
