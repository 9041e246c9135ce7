package commission

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
)

type Repository interface {
	WithTx(tx *sqlx.Tx) Repository
	CandidateRules(ctx context.Context, providerID int, kind string, at time.Time) ([]Rule, error)
	CreateRule(ctx context.Context, r *Rule) (*Rule, error)
	ListRules(ctx context.Context, limit, offset int) ([]Rule, error)
	DeactivateRule(ctx context.Context, id int) error
	FeeStructureFor(ctx context.Context, kind string, at time.Time) (*FeeStructure, error)
}
