package catalog

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

const (
	KindEvent      = "event"
	KindCatering   = "catering"
	KindRestaurant = "restaurant"
	KindProperty   = "property"

	UnitFlat     = "flat"
	UnitPerDay   = "per_day"
	UnitPerGuest = "per_guest"
)

type Service struct {
	ID          int             `db:"id" json:"id"`
	ProviderID  int             `db:"provider_id" json:"provider_id"`
	Kind        string          `db:"kind" json:"kind"`
	Title       string          `db:"title" json:"title"`
	Slug        string          `db:"slug" json:"slug"`
	Description string          `db:"description" json:"description"`
	Price       decimal.Decimal `db:"price" json:"price" swaggertype:"string" example:"250.00"`
	PriceUnit   string          `db:"price_unit" json:"price_unit"`
	Currency    string          `db:"currency" json:"currency"`
	Capacity    int             `db:"capacity" json:"capacity"`
	Details     json.RawMessage `db:"details" json:"details" swaggertype:"object"`
	Active      bool            `db:"active" json:"active"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at" json:"updated_at"`
	DeletedAt   *time.Time      `db:"deleted_at" json:"-"`
}

// Bookable reports whether customers can currently book the service.
func (s *Service) Bookable() bool {
	return s.Active && s.DeletedAt == nil
}

type CreateServiceRequest struct {
	Kind        string          `json:"kind" binding:"required,oneof=event catering restaurant property"`
	Title       string          `json:"title" binding:"required,min=3,max=255"`
	Description string          `json:"description" binding:"max=5000"`
	Price       decimal.Decimal `json:"price" swaggertype:"string" example:"250.00"`
	PriceUnit   string          `json:"price_unit" binding:"omitempty,oneof=flat per_day per_guest"`
	Currency    string          `json:"currency" binding:"omitempty,len=3"`
	Capacity    int             `json:"capacity" binding:"gte=0"`
	Details     json.RawMessage `json:"details" swaggertype:"object"`
}

type UpdateServiceRequest struct {
	Title       *string          `json:"title" binding:"omitempty,min=3,max=255"`
	Description *string          `json:"description" binding:"omitempty,max=5000"`
	Price       *decimal.Decimal `json:"price" swaggertype:"string"`
	Capacity    *int             `json:"capacity" binding:"omitempty,gte=0"`
	Active      *bool            `json:"active"`
	Details     json.RawMessage  `json:"details" swaggertype:"object"`
}

type ListFilter struct {
	Kind       string
	ProviderID int
	Limit      int
	Offset     int
}
