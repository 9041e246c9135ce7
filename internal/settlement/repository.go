package settlement

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
)

const holdColumns = `id, invoice_id, provider_id, amount, currency, status, released_at, released_by, created_at`

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

func (r *repository) Create(ctx context.Context, h *Hold) error {
	return sqlx.GetContext(ctx, r.db, h, `
		INSERT INTO escrow_holds (invoice_id, provider_id, amount, currency, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+holdColumns,
		h.InvoiceID, h.ProviderID, h.Amount, h.Currency, StatusHeld,
	)
}

func (r *repository) LockByID(ctx context.Context, id int) (*Hold, error) {
	h := &Hold{}
	err := sqlx.GetContext(ctx, r.db, h, `SELECT `+holdColumns+` FROM escrow_holds WHERE id = $1 FOR UPDATE`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrHoldNotFound
		}
		return nil, err
	}
	return h, nil
}

func (r *repository) MarkReleased(ctx context.Context, id, adminID int) (*Hold, error) {
	h := &Hold{}
	err := sqlx.GetContext(ctx, r.db, h, `
		UPDATE escrow_holds
		SET status = $1, released_at = NOW(), released_by = $2
		WHERE id = $3 AND status = $4
		RETURNING `+holdColumns,
		StatusReleased, adminID, id, StatusHeld,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAlreadyReleased
		}
		return nil, err
	}
	return h, nil
}

// ReverseByBooking cancels the still-held escrow of a booking's invoice.
func (r *repository) ReverseByBooking(ctx context.Context, bookingID int) (*Hold, error) {
	h := &Hold{}
	err := sqlx.GetContext(ctx, r.db, h, `
		UPDATE escrow_holds h
		SET status = $1
		FROM invoices i
		WHERE h.invoice_id = i.id AND i.booking_id = $2 AND h.status = $3
		RETURNING h.id, h.invoice_id, h.provider_id, h.amount, h.currency, h.status, h.released_at, h.released_by, h.created_at`,
		StatusReversed, bookingID, StatusHeld,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrHoldNotFound
		}
		return nil, err
	}
	return h, nil
}

func (r *repository) BookingPaymentStatus(ctx context.Context, invoiceID int) (string, error) {
	var status string
	err := sqlx.GetContext(ctx, r.db, &status, `
		SELECT b.payment_status
		FROM invoices i
		JOIN bookings b ON b.id = i.booking_id
		WHERE i.id = $1`,
		invoiceID,
	)
	if err != nil {
		return "", err
	}
	return status, nil
}

func (r *repository) List(ctx context.Context, f ListFilter) ([]Hold, error) {
	var (
		conds []string
		args  []interface{}
	)
	if f.ProviderID > 0 {
		args = append(args, f.ProviderID)
		conds = append(conds, fmt.Sprintf("provider_id = $%d", len(args)))
	}
	if f.Status != "" {
		args = append(args, f.Status)
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}

	query := `SELECT ` + holdColumns + ` FROM escrow_holds`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	args = append(args, f.Limit, f.Offset)
	query += fmt.Sprintf(` ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d`, len(args)-1, len(args))

	var holds []Hold
	if err := sqlx.SelectContext(ctx, r.db, &holds, query, args...); err != nil {
		return nil, err
	}
	return holds, nil
}
