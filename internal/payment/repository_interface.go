package payment

import (
	"context"
	"encoding/json"

	"github.com/jmoiron/sqlx"
)

type Repository interface {
	WithTx(tx *sqlx.Tx) Repository
	Create(ctx context.Context, t *Transaction) (*Transaction, error)
	GetByID(ctx context.Context, id int) (*Transaction, error)
	GetByChargeID(ctx context.Context, chargeID string) (*Transaction, error)
	LockByChargeID(ctx context.Context, chargeID string) (*Transaction, error)
	UpdateStatus(ctx context.Context, id int, status string, gatewayResponse json.RawMessage) error
	ListByUser(ctx context.Context, userID, limit, offset int) ([]Transaction, error)
}
