package catalog

import "context"

type Repository interface {
	Create(ctx context.Context, s *Service) (*Service, error)
	GetByID(ctx context.Context, id int) (*Service, error)
	GetByIDs(ctx context.Context, ids []int) ([]Service, error)
	List(ctx context.Context, f ListFilter) ([]Service, error)
	Update(ctx context.Context, s *Service) (*Service, error)
	SoftDelete(ctx context.Context, id int) error
	SlugExists(ctx context.Context, slug string) (bool, error)
}
