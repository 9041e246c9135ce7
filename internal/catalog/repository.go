package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"marketplace/internal/db"

	"github.com/jmoiron/sqlx"
)

const serviceColumns = `id, provider_id, kind, title, slug, description, price, price_unit, currency, capacity, details, active, created_at, updated_at, deleted_at`

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, s *Service) (*Service, error) {
	query := `
		INSERT INTO services (provider_id, kind, title, slug, description, price, price_unit, currency, capacity, details)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING ` + serviceColumns

	var created Service
	err := r.db.GetContext(ctx, &created, query,
		s.ProviderID, s.Kind, s.Title, s.Slug, s.Description, s.Price, s.PriceUnit, s.Currency, s.Capacity, string(s.Details))
	if err != nil {
		return nil, err
	}

	return &created, nil
}

func (r *repository) GetByID(ctx context.Context, id int) (*Service, error) {
	query := `
		SELECT ` + serviceColumns + `
		FROM services
		WHERE id = $1 AND deleted_at IS NULL
	`

	var s Service
	err := r.db.GetContext(ctx, &s, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrServiceNotFound
	}
	if err != nil {
		return nil, err
	}

	return &s, nil
}

func (r *repository) GetByIDs(ctx context.Context, ids []int) ([]Service, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query, args, err := sqlx.In(`
		SELECT `+serviceColumns+`
		FROM services
		WHERE id IN (?) AND deleted_at IS NULL
	`, ids)
	if err != nil {
		return nil, err
	}

	var services []Service
	if err := r.db.SelectContext(ctx, &services, r.db.Rebind(query), args...); err != nil {
		return nil, err
	}

	return services, nil
}

func (r *repository) List(ctx context.Context, f ListFilter) ([]Service, error) {
	var (
		where = []string{"deleted_at IS NULL"}
		args  []interface{}
	)

	if f.Kind != "" {
		args = append(args, f.Kind)
		where = append(where, fmt.Sprintf("kind = $%d", len(args)))
	}
	if f.ProviderID != 0 {
		args = append(args, f.ProviderID)
		where = append(where, fmt.Sprintf("provider_id = $%d", len(args)))
	} else {
		where = append(where, "active = TRUE")
	}

	args = append(args, f.Limit, f.Offset)
	query := fmt.Sprintf(`
		SELECT %s
		FROM services
		WHERE %s
		ORDER BY created_at DESC, id DESC
		LIMIT $%d OFFSET $%d
	`, serviceColumns, strings.Join(where, " AND "), len(args)-1, len(args))

	var services []Service
	if err := r.db.SelectContext(ctx, &services, query, args...); err != nil {
		return nil, err
	}

	return services, nil
}

func (r *repository) Update(ctx context.Context, s *Service) (*Service, error) {
	query := `
		UPDATE services
		SET title = $2, description = $3, price = $4, capacity = $5, active = $6, details = $7, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING ` + serviceColumns

	var updated Service
	err := r.db.GetContext(ctx, &updated, query,
		s.ID, s.Title, s.Description, s.Price, s.Capacity, s.Active, string(s.Details))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrServiceNotFound
	}
	if err != nil {
		return nil, err
	}

	return &updated, nil
}

func (r *repository) SoftDelete(ctx context.Context, id int) error {
	res, err := r.db.ExecContext(ctx, `UPDATE services SET deleted_at = NOW(), active = FALSE WHERE id = $1 AND deleted_at IS NULL`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrServiceNotFound
	}
	return nil
}

func (r *repository) SlugExists(ctx context.Context, slug string) (bool, error) {
	return db.Exists(ctx, r.db, `SELECT EXISTS(SELECT 1 FROM services WHERE slug = $1)`, slug)
}
