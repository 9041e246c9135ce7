package invoice

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var invoiceCols = []string{"id", "number", "booking_id", "order_id", "provider_id", "customer_id", "subtotal", "tax_amount",
	"discount_amount", "total_amount", "commission_rule_id", "commission_amount", "platform_amount",
	"provider_amount", "provider_net_amount", "currency", "status", "issued_at"}

func setupInvoiceMock(t *testing.T) (Repository, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	sqlxDB := sqlx.NewDb(db, "postgres")
	t.Cleanup(func() { sqlxDB.Close() })

	return NewRepository(sqlxDB), mock
}

func TestRepository_Create(t *testing.T) {
	repo, mock := setupInvoiceMock(t)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO invoices")).
		WillReturnRows(sqlmock.NewRows(invoiceCols).
			AddRow(1, "INV-20260314-ABCDEF12", 12, nil, 4, 9, "100.00", "15.00", "0.00", "115.00", 3, "10.00", "10.00", "105.00", "90.00", "SAR", "issued", now))
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO invoice_items (invoice_id, description, quantity, unit_price, amount)")).
		WithArgs(1, "Wedding hall", 1, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(41))

	inv := &Invoice{
		Number:      "INV-20260314-ABCDEF12",
		BookingID:   12,
		ProviderID:  4,
		CustomerID:  9,
		TotalAmount: decimal.NewFromInt(115),
		Currency:    "SAR",
		Status:      StatusIssued,
		Items:       []Item{{Description: "Wedding hall", Quantity: 1, UnitPrice: decimal.NewFromInt(100), Amount: decimal.NewFromInt(100)}},
	}
	require.NoError(t, repo.Create(context.Background(), inv))

	assert.Equal(t, 1, inv.ID)
	assert.Equal(t, 3, *inv.CommissionRuleID)
	assert.Equal(t, 41, inv.Items[0].ID)
	assert.Equal(t, 1, inv.Items[0].InvoiceID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_GetByBooking(t *testing.T) {
	repo, mock := setupInvoiceMock(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM invoices WHERE booking_id = $1")).
		WithArgs(99).
		WillReturnRows(sqlmock.NewRows(invoiceCols))

	_, err := repo.GetByBooking(context.Background(), 99)
	assert.ErrorIs(t, err, ErrInvoiceNotFound)
}

func TestRepository_List(t *testing.T) {
	repo, mock := setupInvoiceMock(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM invoices WHERE provider_id = $1 AND status = $2 ORDER BY issued_at DESC, id DESC LIMIT $3 OFFSET $4")).
		WithArgs(4, StatusIssued, 20, 0).
		WillReturnRows(sqlmock.NewRows(invoiceCols))

	invoices, err := repo.List(context.Background(), ListFilter{ProviderID: 4, Status: StatusIssued, Limit: 20, Offset: 0})
	require.NoError(t, err)
	assert.Empty(t, invoices)

	mock.ExpectQuery(regexp.QuoteMeta("FROM invoices ORDER BY issued_at DESC, id DESC LIMIT $1 OFFSET $2")).
		WithArgs(50, 100).
		WillReturnRows(sqlmock.NewRows(invoiceCols))

	_, err = repo.List(context.Background(), ListFilter{Limit: 50, Offset: 100})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_MarkSettled(t *testing.T) {
	repo, mock := setupInvoiceMock(t)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE invoices SET status = $1 WHERE id = $2 AND status = $3")).
		WithArgs(StatusSettled, 1, StatusIssued).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.MarkSettled(context.Background(), 1))

	mock.ExpectExec(regexp.QuoteMeta("UPDATE invoices SET status = $1")).
		WithArgs(StatusSettled, 2, StatusIssued).
		WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, repo.MarkSettled(context.Background(), 2), ErrInvoiceNotFound)
}
