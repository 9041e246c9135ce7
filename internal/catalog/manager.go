package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/tidwall/gjson"
)

var (
	ErrServiceNotFound = errors.New("service not found")
	ErrNotOwner        = errors.New("service belongs to another provider")
	ErrInvalidPrice    = errors.New("price must not be negative")
	ErrInvalidDetails  = errors.New("details must be a JSON object")
)

const maxSlugAttempts = 20

// Manager is the provider-facing catalog API.
type Manager interface {
	Create(ctx context.Context, providerID int, req CreateServiceRequest) (*Service, error)
	Get(ctx context.Context, id int) (*Service, error)
	GetMany(ctx context.Context, ids []int) (map[int]*Service, error)
	List(ctx context.Context, f ListFilter) ([]Service, error)
	Update(ctx context.Context, providerID, id int, req UpdateServiceRequest) (*Service, error)
	Delete(ctx context.Context, providerID, id int, isAdmin bool) error
}

type manager struct {
	repo     Repository
	currency string
}

func NewManager(repo Repository, currency string) Manager {
	return &manager{repo: repo, currency: currency}
}

func (s *manager) Create(ctx context.Context, providerID int, req CreateServiceRequest) (*Service, error) {
	if req.Price.IsNegative() {
		return nil, ErrInvalidPrice
	}

	details, err := normalizeDetails(req.Details)
	if err != nil {
		return nil, err
	}

	sl, err := s.uniqueSlug(ctx, req.Title)
	if err != nil {
		return nil, err
	}

	svc := &Service{
		ProviderID:  providerID,
		Kind:        req.Kind,
		Title:       strings.TrimSpace(req.Title),
		Slug:        sl,
		Description: req.Description,
		Price:       req.Price.Round(2),
		PriceUnit:   req.PriceUnit,
		Currency:    strings.ToUpper(req.Currency),
		Capacity:    req.Capacity,
		Details:     details,
	}
	if svc.PriceUnit == "" {
		svc.PriceUnit = UnitFlat
	}
	if svc.Currency == "" {
		svc.Currency = s.currency
	}

	return s.repo.Create(ctx, svc)
}

// uniqueSlug appends -2, -3, ... to the slugified title until it is free.
func (s *manager) uniqueSlug(ctx context.Context, title string) (string, error) {
	base := slug.Make(title)
	if base == "" {
		base = "service"
	}

	candidate := base
	for i := 2; i <= maxSlugAttempts; i++ {
		exists, err := s.repo.SlugExists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, i)
	}

	return base + "-" + uuid.NewString()[:8], nil
}

func normalizeDetails(raw json.RawMessage) (json.RawMessage, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return json.RawMessage(`{}`), nil
	}
	if !gjson.ValidBytes(raw) || !gjson.ParseBytes(raw).IsObject() {
		return nil, ErrInvalidDetails
	}
	return raw, nil
}

func (s *manager) Get(ctx context.Context, id int) (*Service, error) {
	return s.repo.GetByID(ctx, id)
}

// GetMany loads services keyed by id. Missing or deleted ids are absent
// from the map.
func (s *manager) GetMany(ctx context.Context, ids []int) (map[int]*Service, error) {
	services, err := s.repo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make(map[int]*Service, len(services))
	for i := range services {
		out[services[i].ID] = &services[i]
	}
	return out, nil
}

func (s *manager) List(ctx context.Context, f ListFilter) ([]Service, error) {
	services, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, err
	}
	if services == nil {
		services = []Service{}
	}
	return services, nil
}

func (s *manager) Update(ctx context.Context, providerID, id int, req UpdateServiceRequest) (*Service, error) {
	svc, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if svc.ProviderID != providerID {
		return nil, ErrNotOwner
	}

	if req.Title != nil {
		svc.Title = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		svc.Description = *req.Description
	}
	if req.Price != nil {
		if req.Price.IsNegative() {
			return nil, ErrInvalidPrice
		}
		svc.Price = req.Price.Round(2)
	}
	if req.Capacity != nil {
		svc.Capacity = *req.Capacity
	}
	if req.Active != nil {
		svc.Active = *req.Active
	}
	if len(req.Details) > 0 {
		if svc.Details, err = normalizeDetails(req.Details); err != nil {
			return nil, err
		}
	}

	return s.repo.Update(ctx, svc)
}

func (s *manager) Delete(ctx context.Context, providerID, id int, isAdmin bool) error {
	svc, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !isAdmin && svc.ProviderID != providerID {
		return ErrNotOwner
	}
	return s.repo.SoftDelete(ctx, id)
}
