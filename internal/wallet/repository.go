package wallet

import (
	"context"
	"database/sql"
	"errors"

	"marketplace/internal/db"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

const walletColumns = `id, user_id, balance, currency, created_at, updated_at`

type repository struct {
	db       sqlx.ExtContext
	currency string
}

func NewRepository(db *sqlx.DB, currency string) Repository {
	return &repository{db: db, currency: currency}
}

func (r *repository) WithTx(tx *sqlx.Tx) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx, currency: r.currency}
}

func (r *repository) UserExists(ctx context.Context, userID int) (bool, error) {
	return db.Exists(ctx, r.db, `SELECT EXISTS(SELECT 1 FROM users WHERE id = $1 AND deleted_at IS NULL)`, userID)
}

func (r *repository) GetOrCreate(ctx context.Context, userID int) (*Wallet, error) {
	w := &Wallet{}
	err := sqlx.GetContext(ctx, r.db, w, `SELECT `+walletColumns+` FROM wallets WHERE user_id = $1`, userID)
	if err == nil {
		return w, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	return r.create(ctx, userID)
}

func (r *repository) create(ctx context.Context, userID int) (*Wallet, error) {
	w := &Wallet{}
	err := sqlx.GetContext(ctx, r.db, w, `
		INSERT INTO wallets (user_id, currency)
		VALUES ($1, $2)
		ON CONFLICT (user_id) DO UPDATE SET updated_at = wallets.updated_at
		RETURNING `+walletColumns,
		userID, r.currency,
	)
	if err != nil {
		return nil, err
	}
	return w, nil
}

// LockForUpdate row-locks the user's wallet, creating it first if needed.
// Must run inside a transaction.
func (r *repository) LockForUpdate(ctx context.Context, userID int) (*Wallet, error) {
	query := `SELECT ` + walletColumns + ` FROM wallets WHERE user_id = $1 FOR UPDATE`

	w := &Wallet{}
	err := sqlx.GetContext(ctx, r.db, w, query, userID)
	if errors.Is(err, sql.ErrNoRows) {
		if _, err := r.create(ctx, userID); err != nil {
			return nil, err
		}
		err = sqlx.GetContext(ctx, r.db, w, query, userID)
	}
	if err != nil {
		return nil, err
	}
	return w, nil
}

func (r *repository) UpdateBalance(ctx context.Context, walletID int, balance decimal.Decimal) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE wallets
		SET balance = $1, updated_at = NOW()
		WHERE id = $2`,
		balance, walletID,
	)
	return err
}

func (r *repository) AddTransaction(ctx context.Context, t *Transaction) error {
	return sqlx.GetContext(ctx, r.db, t, `
		INSERT INTO wallet_transactions (wallet_id, amount, type, balance_after, reference)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`,
		t.WalletID, t.Amount, t.Type, t.BalanceAfter, t.Reference,
	)
}

func (r *repository) GetTransactions(ctx context.Context, userID, limit, offset int) ([]Transaction, error) {
	var txs []Transaction
	err := sqlx.SelectContext(ctx, r.db, &txs, `
		SELECT t.id, t.wallet_id, t.amount, t.type, t.balance_after, t.reference, t.created_at
		FROM wallet_transactions t
		JOIN wallets w ON w.id = t.wallet_id
		WHERE w.user_id = $1
		ORDER BY t.created_at DESC, t.id DESC
		LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		return nil, err
	}

	return txs, nil
}
