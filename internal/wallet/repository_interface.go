package wallet

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

type Repository interface {
	WithTx(tx *sqlx.Tx) Repository
	UserExists(ctx context.Context, userID int) (bool, error)
	GetOrCreate(ctx context.Context, userID int) (*Wallet, error)
	LockForUpdate(ctx context.Context, userID int) (*Wallet, error)
	UpdateBalance(ctx context.Context, walletID int, balance decimal.Decimal) error
	AddTransaction(ctx context.Context, t *Transaction) error
	GetTransactions(ctx context.Context, userID, limit, offset int) ([]Transaction, error)
}
