package invoice

import (
	"context"
	"fmt"
	"strings"
	"time"

	"marketplace/internal/commission"
	"marketplace/internal/logger"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type Service interface {
	Generate(ctx context.Context, tx *sqlx.Tx, src Source) (*Invoice, error)
	Get(ctx context.Context, id int) (*Invoice, error)
	GetByBooking(ctx context.Context, bookingID int) (*Invoice, error)
	List(ctx context.Context, f ListFilter) ([]Invoice, error)
	MarkSettled(ctx context.Context, tx *sqlx.Tx, id int) error
}

type service struct {
	repo       Repository
	commission commission.Service
	now        func() time.Time
}

func NewService(repo Repository, commission commission.Service) Service {
	return &service{repo: repo, commission: commission, now: time.Now}
}

// Number formats an invoice number as INV-YYYYMMDD-XXXXXXXX.
func Number(at time.Time) string {
	return fmt.Sprintf("INV-%s-%s", at.Format("20060102"), strings.ToUpper(uuid.NewString()[:8]))
}

// Generate prices the commission for a completed booking and persists the
// invoice with its items. A booking gets at most one invoice.
func (s *service) Generate(ctx context.Context, tx *sqlx.Tx, src Source) (*Invoice, error) {
	if len(src.Items) == 0 {
		return nil, ErrNoItems
	}

	repo := s.repo.WithTx(tx)
	exists, err := repo.ExistsForBooking(ctx, src.BookingID)
	if err != nil {
		return nil, fmt.Errorf("check invoice: %w", err)
	}
	if exists {
		return nil, ErrInvoiceExists
	}

	at := src.CompletedAt
	if at.IsZero() {
		at = s.now()
	}

	split, err := s.commission.Split(ctx, tx, commission.SplitInput{
		ProviderID:  src.ProviderID,
		ServiceKind: src.ServiceKind,
		Total:       src.Total,
		Tax:         src.Tax,
		At:          at,
	})
	if err != nil {
		return nil, fmt.Errorf("commission split: %w", err)
	}

	inv := &Invoice{
		Number:            Number(at),
		BookingID:         src.BookingID,
		OrderID:           src.OrderID,
		ProviderID:        src.ProviderID,
		CustomerID:        src.CustomerID,
		Subtotal:          src.Subtotal.Round(2),
		TaxAmount:         src.Tax.Round(2),
		DiscountAmount:    src.Discount.Round(2),
		TotalAmount:       src.Total.Round(2),
		CommissionRuleID:  split.RuleID,
		CommissionAmount:  split.CommissionAmount,
		PlatformAmount:    split.PlatformAmount,
		ProviderAmount:    split.ProviderAmount,
		ProviderNetAmount: split.ProviderNetAmount,
		Currency:          src.Currency,
		Status:            StatusIssued,
		Items:             src.Items,
	}
	if err := inv.Validate(); err != nil {
		return nil, err
	}
	if err := repo.Create(ctx, inv); err != nil {
		return nil, err
	}

	logger.Info("invoice generated",
		"number", inv.Number,
		"booking_id", inv.BookingID,
		"commission", inv.CommissionAmount.StringFixed(2),
		"provider_amount", inv.ProviderAmount.StringFixed(2),
	)
	return inv, nil
}

func (s *service) Get(ctx context.Context, id int) (*Invoice, error) {
	inv, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.withItems(ctx, inv)
}

func (s *service) GetByBooking(ctx context.Context, bookingID int) (*Invoice, error) {
	inv, err := s.repo.GetByBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	return s.withItems(ctx, inv)
}

func (s *service) withItems(ctx context.Context, inv *Invoice) (*Invoice, error) {
	items, err := s.repo.Items(ctx, inv.ID)
	if err != nil {
		return nil, fmt.Errorf("load invoice items: %w", err)
	}
	inv.Items = items
	return inv, nil
}

func (s *service) List(ctx context.Context, f ListFilter) ([]Invoice, error) {
	invoices, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, err
	}
	if invoices == nil {
		invoices = []Invoice{}
	}
	return invoices, nil
}

func (s *service) MarkSettled(ctx context.Context, tx *sqlx.Tx, id int) error {
	return s.repo.WithTx(tx).MarkSettled(ctx, id)
}
