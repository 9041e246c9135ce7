package settlement

import (
	"context"
	"fmt"
	"strconv"

	"marketplace/internal/db"
	"marketplace/internal/events"
	"marketplace/internal/invoice"
	"marketplace/internal/logger"
	"marketplace/internal/metrics"
	"marketplace/internal/wallet"

	"github.com/jmoiron/sqlx"
)

type Service interface {
	Hold(ctx context.Context, tx *sqlx.Tx, inv *invoice.Invoice) (*Hold, error)
	Release(ctx context.Context, adminID, holdID int) (*Hold, error)
	Reverse(ctx context.Context, tx *sqlx.Tx, bookingID int) (*Hold, error)
	List(ctx context.Context, f ListFilter) ([]Hold, error)
}

type service struct {
	repo      Repository
	txr       db.Transactor
	wallets   wallet.Service
	invoices  invoice.Service
	publisher events.Publisher
}

func NewService(repo Repository, txr db.Transactor, wallets wallet.Service, invoices invoice.Service, publisher events.Publisher) Service {
	return &service{
		repo:      repo,
		txr:       txr,
		wallets:   wallets,
		invoices:  invoices,
		publisher: publisher,
	}
}

// Hold parks the provider's gross share of the invoice in escrow.
func (s *service) Hold(ctx context.Context, tx *sqlx.Tx, inv *invoice.Invoice) (*Hold, error) {
	h := &Hold{
		InvoiceID:  inv.ID,
		ProviderID: inv.ProviderID,
		Amount:     inv.ProviderAmount,
		Currency:   inv.Currency,
	}
	if err := s.repo.WithTx(tx).Create(ctx, h); err != nil {
		return nil, fmt.Errorf("create escrow hold: %w", err)
	}
	return h, nil
}

// Release pays a held amount into the provider's wallet and settles the
// invoice, all in one transaction.
func (s *service) Release(ctx context.Context, adminID, holdID int) (*Hold, error) {
	var released *Hold
	err := s.txr.WithinTx(ctx, func(tx *sqlx.Tx) error {
		repo := s.repo.WithTx(tx)

		h, err := repo.LockByID(ctx, holdID)
		if err != nil {
			return err
		}
		switch h.Status {
		case StatusHeld:
		case StatusReversed:
			return ErrHoldReversed
		default:
			return ErrAlreadyReleased
		}

		paymentStatus, err := repo.BookingPaymentStatus(ctx, h.InvoiceID)
		if err != nil {
			return fmt.Errorf("check booking of invoice %d: %w", h.InvoiceID, err)
		}
		if paymentStatus == bookingPaymentRefunded {
			return ErrBookingRefunded
		}

		released, err = repo.MarkReleased(ctx, h.ID, adminID)
		if err != nil {
			return err
		}

		if h.Amount.IsPositive() {
			_, err = s.wallets.Post(ctx, tx, wallet.Entry{
				UserID:    h.ProviderID,
				Amount:    h.Amount,
				Type:      wallet.TypeSettlement,
				Reference: "escrow:" + strconv.Itoa(h.ID),
			})
			if err != nil {
				return fmt.Errorf("credit provider wallet: %w", err)
			}
		}

		if err := s.invoices.MarkSettled(ctx, tx, h.InvoiceID); err != nil {
			return fmt.Errorf("settle invoice %d: %w", h.InvoiceID, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.RecordSettlement()
	logger.WithFields(map[string]any{
		"hold_id":     released.ID,
		"provider_id": released.ProviderID,
		"amount":      released.Amount.StringFixed(2),
		"admin_id":    adminID,
	}).Info("escrow released")
	events.PublishAll(ctx, s.publisher, events.TopicSettlement, events.New(
		events.SettlementReleased,
		strconv.Itoa(released.ProviderID),
		released,
	))

	return released, nil
}

// Reverse cancels the held escrow of a refunded booking so it can never be
// paid out. ErrHoldNotFound means there was nothing left to hold back.
func (s *service) Reverse(ctx context.Context, tx *sqlx.Tx, bookingID int) (*Hold, error) {
	h, err := s.repo.WithTx(tx).ReverseByBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	metrics.RecordSettlement()
	logger.Info("escrow reversed", "hold_id", h.ID, "booking_id", bookingID, "provider_id", h.ProviderID, "amount", h.Amount.StringFixed(2))
	return h, nil
}

func (s *service) List(ctx context.Context, f ListFilter) ([]Hold, error) {
	holds, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, err
	}
	if holds == nil {
		holds = []Hold{}
	}
	return holds, nil
}
