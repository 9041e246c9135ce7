package payment

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/jmoiron/sqlx"
)

const transactionColumns = `id, reference, charge_id, user_id, booking_id, order_id, purpose, amount, currency, status, gateway_response, created_at, updated_at`

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

func (r *repository) Create(ctx context.Context, t *Transaction) (*Transaction, error) {
	query := `
		INSERT INTO payment_transactions (reference, charge_id, user_id, booking_id, order_id, purpose, amount, currency, status, gateway_response)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING ` + transactionColumns

	resp := t.GatewayResponse
	if len(resp) == 0 {
		resp = json.RawMessage(`{}`)
	}

	var created Transaction
	err := sqlx.GetContext(ctx, r.db, &created, query,
		t.Reference, t.ChargeID, t.UserID, t.BookingID, t.OrderID, t.Purpose, t.Amount, t.Currency, t.Status, string(resp))
	if err != nil {
		return nil, err
	}
	return &created, nil
}

func (r *repository) get(ctx context.Context, where string, arg interface{}) (*Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM payment_transactions WHERE ` + where

	var t Transaction
	err := sqlx.GetContext(ctx, r.db, &t, query, arg)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTransactionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *repository) GetByID(ctx context.Context, id int) (*Transaction, error) {
	return r.get(ctx, "id = $1", id)
}

func (r *repository) GetByChargeID(ctx context.Context, chargeID string) (*Transaction, error) {
	return r.get(ctx, "charge_id = $1", chargeID)
}

// LockByChargeID must run inside a transaction.
func (r *repository) LockByChargeID(ctx context.Context, chargeID string) (*Transaction, error) {
	return r.get(ctx, "charge_id = $1 FOR UPDATE", chargeID)
}

func (r *repository) UpdateStatus(ctx context.Context, id int, status string, gatewayResponse json.RawMessage) error {
	query := `
		UPDATE payment_transactions
		SET status = $2, gateway_response = COALESCE($3::jsonb, gateway_response), updated_at = NOW()
		WHERE id = $1
	`

	var resp interface{}
	if len(gatewayResponse) > 0 {
		resp = string(gatewayResponse)
	}

	res, err := r.db.ExecContext(ctx, query, id, status, resp)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrTransactionNotFound
	}
	return nil
}

func (r *repository) ListByUser(ctx context.Context, userID, limit, offset int) ([]Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM payment_transactions
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`

	var txs []Transaction
	if err := sqlx.SelectContext(ctx, r.db, &txs, query, userID, limit, offset); err != nil {
		return nil, err
	}
	return txs, nil
}
