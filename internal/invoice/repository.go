package invoice

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"marketplace/internal/db"

	"github.com/jmoiron/sqlx"
)

const invoiceColumns = `id, number, booking_id, order_id, provider_id, customer_id, subtotal, tax_amount,
	discount_amount, total_amount, commission_rule_id, commission_amount, platform_amount,
	provider_amount, provider_net_amount, currency, status, issued_at`

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

// Create inserts the invoice and its items. Callers pass a tx so both land
// together.
func (r *repository) Create(ctx context.Context, inv *Invoice) error {
	err := sqlx.GetContext(ctx, r.db, inv, `
		INSERT INTO invoices (
			number, booking_id, order_id, provider_id, customer_id, subtotal, tax_amount,
			discount_amount, total_amount, commission_rule_id, commission_amount, platform_amount,
			provider_amount, provider_net_amount, currency, status
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		RETURNING `+invoiceColumns,
		inv.Number, inv.BookingID, inv.OrderID, inv.ProviderID, inv.CustomerID, inv.Subtotal, inv.TaxAmount,
		inv.DiscountAmount, inv.TotalAmount, inv.CommissionRuleID, inv.CommissionAmount, inv.PlatformAmount,
		inv.ProviderAmount, inv.ProviderNetAmount, inv.Currency, inv.Status,
	)
	if err != nil {
		return fmt.Errorf("insert invoice: %w", err)
	}

	for i := range inv.Items {
		item := &inv.Items[i]
		item.InvoiceID = inv.ID
		err := sqlx.GetContext(ctx, r.db, &item.ID, `
			INSERT INTO invoice_items (invoice_id, description, quantity, unit_price, amount)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id`,
			item.InvoiceID, item.Description, item.Quantity, item.UnitPrice, item.Amount,
		)
		if err != nil {
			return fmt.Errorf("insert invoice item: %w", err)
		}
	}

	return nil
}

func (r *repository) get(ctx context.Context, where string, arg interface{}) (*Invoice, error) {
	inv := &Invoice{}
	err := sqlx.GetContext(ctx, r.db, inv, `SELECT `+invoiceColumns+` FROM invoices WHERE `+where, arg)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrInvoiceNotFound
		}
		return nil, err
	}
	return inv, nil
}

func (r *repository) GetByID(ctx context.Context, id int) (*Invoice, error) {
	return r.get(ctx, "id = $1", id)
}

func (r *repository) GetByBooking(ctx context.Context, bookingID int) (*Invoice, error) {
	return r.get(ctx, "booking_id = $1", bookingID)
}

func (r *repository) ExistsForBooking(ctx context.Context, bookingID int) (bool, error) {
	return db.Exists(ctx, r.db, `SELECT EXISTS(SELECT 1 FROM invoices WHERE booking_id = $1)`, bookingID)
}

func (r *repository) Items(ctx context.Context, invoiceID int) ([]Item, error) {
	var items []Item
	err := sqlx.SelectContext(ctx, r.db, &items, `
		SELECT id, invoice_id, description, quantity, unit_price, amount
		FROM invoice_items
		WHERE invoice_id = $1
		ORDER BY id
	`, invoiceID)
	return items, err
}

func (r *repository) List(ctx context.Context, f ListFilter) ([]Invoice, error) {
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

	query := `SELECT ` + invoiceColumns + ` FROM invoices`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	args = append(args, f.Limit, f.Offset)
	query += fmt.Sprintf(` ORDER BY issued_at DESC, id DESC LIMIT $%d OFFSET $%d`, len(args)-1, len(args))

	var invoices []Invoice
	if err := sqlx.SelectContext(ctx, r.db, &invoices, query, args...); err != nil {
		return nil, err
	}
	return invoices, nil
}

func (r *repository) MarkSettled(ctx context.Context, id int) error {
	res, err := r.db.ExecContext(ctx, `UPDATE invoices SET status = $1 WHERE id = $2 AND status = $3`,
		StatusSettled, id, StatusIssued)
	if err != nil {
		return err
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrInvoiceNotFound
	}
	return nil
}
