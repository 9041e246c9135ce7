package webhook

import (
	"context"
	"fmt"
	"strconv"

	"marketplace/internal/booking"
	"marketplace/internal/db"
	"marketplace/internal/events"
	"marketplace/internal/logger"
	"marketplace/internal/metrics"
	"marketplace/internal/payment"
	"marketplace/internal/wallet"

	"github.com/jmoiron/sqlx"
)

type Service interface {
	Process(ctx context.Context, n Notification) (*Result, error)
}

type service struct {
	payments  payment.Repository
	txr       db.Transactor
	bookings  booking.Service
	wallets   wallet.Service
	dedupe    Deduper
	publisher events.Publisher
}

func NewService(payments payment.Repository, txr db.Transactor, bookings booking.Service, wallets wallet.Service, dedupe Deduper, publisher events.Publisher) Service {
	return &service{
		payments:  payments,
		txr:       txr,
		bookings:  bookings,
		wallets:   wallets,
		dedupe:    dedupe,
		publisher: publisher,
	}
}

// Process applies one charge notification. Deliveries already seen are
// acknowledged without touching any row; unknown event types likewise.
func (s *service) Process(ctx context.Context, n Notification) (*Result, error) {
	status, ok := chargeStatuses[n.Type]
	if !ok {
		logger.Info("webhook event ignored", "type", n.Type, "charge_id", n.ChargeID)
		return &Result{Outcome: OutcomeIgnored}, nil
	}

	if _, err := s.payments.GetByChargeID(ctx, n.ChargeID); err != nil {
		return nil, err
	}

	key := n.dedupeKey()
	claimed, err := s.dedupe.Claim(ctx, key)
	switch {
	case err != nil:
		// The status check under the row lock still stops a replay.
		logger.WithError(err).Warn("webhook dedupe unavailable", "key", key)
	case !claimed:
		logger.Info("duplicate webhook", "type", n.Type, "charge_id", n.ChargeID)
		return &Result{Outcome: OutcomeDuplicate}, nil
	}

	res, err := s.dispatch(ctx, n, status)
	if err != nil {
		if claimed {
			if rerr := s.dedupe.Release(ctx, key); rerr != nil {
				logger.WithError(rerr).Warn("release webhook key", "key", key)
			}
		}
		return nil, err
	}

	if res.Outcome == OutcomeProcessed {
		s.publish(ctx, res)
	}
	return res, nil
}

func (s *service) dispatch(ctx context.Context, n Notification, status string) (*Result, error) {
	res := &Result{Outcome: OutcomeProcessed}

	err := s.txr.WithinTx(ctx, func(tx *sqlx.Tx) error {
		repo := s.payments.WithTx(tx)

		t, err := repo.LockByChargeID(ctx, n.ChargeID)
		if err != nil {
			return err
		}
		res.Transaction = t
		if t.Status == status {
			res.Outcome = OutcomeDuplicate
			return nil
		}

		if err := repo.UpdateStatus(ctx, t.ID, status, n.Raw); err != nil {
			return fmt.Errorf("update payment status: %w", err)
		}
		t.Status = status

		purpose := n.MetadataType
		if purpose == "" {
			purpose = t.Purpose
		}

		if purpose == payment.PurposeWalletTopUp {
			if status != payment.StatusCaptured {
				return nil
			}
			charged := n.Amount
			if !charged.IsPositive() {
				charged = t.Amount
			}
			entry, err := s.wallets.Post(ctx, tx, wallet.Entry{
				UserID:    t.UserID,
				Amount:    wallet.TopUpCredit(n.TopUpAmount, charged),
				Type:      wallet.TypeTopUp,
				Reference: t.ChargeID,
			})
			if err != nil {
				return fmt.Errorf("credit top-up: %w", err)
			}
			res.TopUp = entry
			return nil
		}

		changed, err := s.bookings.ApplyCharge(ctx, tx, booking.PaymentTarget{BookingID: t.BookingID, OrderID: t.OrderID}, status)
		if err != nil {
			return fmt.Errorf("apply charge to bookings: %w", err)
		}
		res.Bookings = changed
		return nil
	})
	if err != nil {
		return nil, err
	}

	if res.Outcome == OutcomeProcessed {
		logger.Info("webhook processed",
			"type", n.Type,
			"charge_id", n.ChargeID,
			"bookings", len(res.Bookings),
			"topup", res.TopUp != nil,
		)
	}
	return res, nil
}

func (s *service) publish(ctx context.Context, res *Result) {
	t := res.Transaction
	events.PublishAll(ctx, s.publisher, events.TopicPayment, events.New(events.PaymentUpdated, t.ChargeID, t))

	evts := make([]events.Event, 0, len(res.Bookings))
	for _, b := range res.Bookings {
		metrics.RecordBookingTransition(b.Status, "gateway")
		evts = append(evts, events.New(events.BookingStatusUpdated, strconv.Itoa(b.ID), b))
	}
	events.PublishAll(ctx, s.publisher, events.TopicBooking, evts...)

	if res.TopUp != nil {
		events.PublishAll(ctx, s.publisher, events.TopicWallet, events.New(events.WalletToppedUp, strconv.Itoa(t.UserID), map[string]interface{}{
			"user_id":       t.UserID,
			"amount":        res.TopUp.Amount,
			"balance_after": res.TopUp.BalanceAfter,
			"charge_id":     t.ChargeID,
		}))
	}
}
