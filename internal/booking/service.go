package booking

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"marketplace/internal/auth"
	"marketplace/internal/catalog"
	"marketplace/internal/commission"
	"marketplace/internal/coupon"
	"marketplace/internal/db"
	"marketplace/internal/events"
	"marketplace/internal/invoice"
	"marketplace/internal/logger"
	"marketplace/internal/metrics"
	"marketplace/internal/payment"
	"marketplace/internal/points"
	"marketplace/internal/pricing"
	"marketplace/internal/settlement"
	"marketplace/internal/wallet"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

const sweepBatch = 100

type Service interface {
	Quote(ctx context.Context, userID int, req QuoteRequest) (*pricing.Quote, error)
	Checkout(ctx context.Context, userID int, customer payment.Customer, req CheckoutRequest) (*CheckoutResult, error)
	Get(ctx context.Context, actor Actor, id int) (*Booking, error)
	List(ctx context.Context, f ListFilter) ([]Booking, error)
	Cancel(ctx context.Context, userID, bookingID int) (*Booking, error)
	Complete(ctx context.Context, actor Actor, bookingID int) (*Booking, error)
	ApplyCharge(ctx context.Context, tx *sqlx.Tx, target PaymentTarget, chargeStatus string) ([]Booking, error)
	CompleteDue(ctx context.Context, now time.Time) (int, error)
	ExpireStale(ctx context.Context, cutoff time.Time) (int, error)
}

// Deps are the collaborators a booking touches during its lifecycle.
type Deps struct {
	Repo       Repository
	Tx         db.Transactor
	Catalog    catalog.Manager
	Commission commission.Service
	Coupons    coupon.Service
	Points     points.Service
	Wallets    wallet.Service
	Payments   payment.Service
	Invoices   invoice.Service
	Settlement settlement.Service
	Publisher  events.Publisher
}

type Options struct {
	Currency      string
	PointValue    decimal.Decimal
	PointsPerUnit decimal.Decimal
}

type service struct {
	Deps
	opts Options
	now  func() time.Time
}

func NewService(deps Deps, opts Options) Service {
	return &service{Deps: deps, opts: opts, now: time.Now}
}

type prepared struct {
	quote    *pricing.Quote
	coupon   *coupon.Coupon
	services map[int]*catalog.Service
}

func dateOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// prepare validates the requested items against the catalog and prices them
// with the coupon and points applied.
func (s *service) prepare(ctx context.Context, userID int, req QuoteRequest) (*prepared, error) {
	ids := make([]int, 0, len(req.Items))
	for _, it := range req.Items {
		ids = append(ids, it.ServiceID)
	}
	services, err := s.Catalog.GetMany(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load services: %w", err)
	}

	today := dateOf(s.now())
	taxRates := make(map[string]decimal.Decimal)
	lines := make([]pricing.Line, 0, len(req.Items))

	for _, it := range req.Items {
		start, err1 := time.Parse(dateLayout, it.StartDate)
		end, err2 := time.Parse(dateLayout, it.EndDate)
		if err1 != nil || err2 != nil {
			return nil, ErrInvalidDate
		}
		if start.Before(today) {
			return nil, ErrStartInPast
		}

		svc, ok := services[it.ServiceID]
		if !ok || !svc.Bookable() {
			return nil, fmt.Errorf("%w: %d", ErrServiceUnavailable, it.ServiceID)
		}
		if svc.ProviderID == userID {
			return nil, ErrOwnService
		}

		rate, ok := taxRates[svc.Kind]
		if !ok {
			rate, err = s.Commission.TaxRate(ctx, svc.Kind)
			if err != nil {
				return nil, err
			}
			taxRates[svc.Kind] = rate
		}

		price, err := wallet.Convert(svc.Price, svc.Currency, s.opts.Currency)
		if err != nil {
			return nil, fmt.Errorf("price service %d: %w", svc.ID, err)
		}

		quantity := it.Quantity
		if quantity == 0 {
			quantity = 1
		}

		lines = append(lines, pricing.Line{
			ServiceID:  svc.ID,
			ProviderID: svc.ProviderID,
			Kind:       svc.Kind,
			Title:      svc.Title,
			UnitPrice:  price,
			PriceUnit:  svc.PriceUnit,
			StartDate:  start,
			EndDate:    end,
			Quantity:   quantity,
			TaxRate:    rate,
		})
	}

	p := &prepared{services: services}
	adj := pricing.Adjustments{Points: req.Points, PointValue: s.opts.PointValue}

	if req.CouponCode != "" {
		base, err := pricing.Build(lines, pricing.Adjustments{}, s.opts.Currency)
		if err != nil {
			return nil, err
		}
		c, _, err := s.Coupons.Lookup(ctx, req.CouponCode, base.Subtotal)
		if err != nil {
			return nil, err
		}
		p.coupon = c
		adj.Coupon = c
		adj.CouponCode = c.Code
	}

	p.quote, err = pricing.Build(lines, adj, s.opts.Currency)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (s *service) Quote(ctx context.Context, userID int, req QuoteRequest) (*pricing.Quote, error) {
	p, err := s.prepare(ctx, userID, req)
	if err != nil {
		return nil, err
	}

	if p.quote.PointsUsed > 0 {
		balance, err := s.Points.Balance(ctx, userID)
		if err != nil {
			return nil, err
		}
		if balance < p.quote.PointsUsed {
			return nil, points.ErrInsufficientPoints
		}
	}

	return p.quote, nil
}

// Checkout persists the quoted bookings in one transaction. Wallet payments
// confirm them immediately; gateway payments leave them pending until the
// webhook reports the charge.
func (s *service) Checkout(ctx context.Context, userID int, customer payment.Customer, req CheckoutRequest) (*CheckoutResult, error) {
	p, err := s.prepare(ctx, userID, req.QuoteRequest)
	if err != nil {
		return nil, err
	}
	q := p.quote
	result := &CheckoutResult{Quote: q}

	err = s.Tx.WithinTx(ctx, func(tx *sqlx.Tx) error {
		repo := s.Repo.WithTx(tx)

		if q.PointsUsed > 0 {
			if err := s.Points.EnsureAvailable(ctx, tx, userID, q.PointsUsed); err != nil {
				return err
			}
		}
		if p.coupon != nil {
			if err := s.Coupons.Redeem(ctx, tx, p.coupon); err != nil {
				return err
			}
		}

		var order *Order
		if len(q.Lines) > 1 {
			order = &Order{
				UserID:      userID,
				Subtotal:    q.Subtotal,
				Tax:         q.Tax,
				Discount:    q.Discount,
				PointsValue: q.PointsValue,
				Total:       q.Total,
				Currency:    q.Currency,
				Status:      StatusPending,
			}
			if err := repo.CreateOrder(ctx, order); err != nil {
				return fmt.Errorf("create order: %w", err)
			}
		}

		bookings := make([]Booking, 0, len(q.Lines))
		for _, l := range q.Lines {
			b := Booking{
				UserID:        userID,
				ServiceID:     l.ServiceID,
				ProviderID:    l.ProviderID,
				StartDate:     l.StartDate,
				EndDate:       l.EndDate,
				Quantity:      l.Quantity,
				Subtotal:      l.Subtotal,
				Tax:           l.Tax,
				Discount:      l.Discount,
				PointsUsed:    l.PointsUsed,
				PointsValue:   l.PointsValue,
				Total:         l.Total,
				Currency:      q.Currency,
				Status:        StatusPending,
				PaymentMethod: req.PaymentMethod,
				PaymentStatus: PaymentUnpaid,
			}
			if q.CouponCode != "" {
				code := q.CouponCode
				b.CouponCode = &code
			}
			if order != nil {
				b.OrderID = &order.ID
			}
			if err := b.Validate(); err != nil {
				return err
			}

			if err := repo.Create(ctx, &b); err != nil {
				return fmt.Errorf("create booking: %w", err)
			}
			if order != nil {
				item := &OrderItem{OrderID: order.ID, BookingID: b.ID, ServiceID: b.ServiceID, Subtotal: b.Subtotal}
				if err := repo.AddOrderItem(ctx, item); err != nil {
					return fmt.Errorf("add order item: %w", err)
				}
			}
			if err := s.Points.Redeem(ctx, tx, userID, b.ID, l.PointsUsed); err != nil {
				return fmt.Errorf("redeem points: %w", err)
			}
			bookings = append(bookings, b)
		}

		target, reference := paymentTarget(bookings[0].ID, order)

		if req.PaymentMethod == MethodWallet || !q.Total.IsPositive() {
			if q.Total.IsPositive() {
				_, err := s.Wallets.Post(ctx, tx, wallet.Entry{
					UserID:    userID,
					Amount:    q.Total.Neg(),
					Type:      wallet.TypeBookingPayment,
					Reference: reference,
				})
				if err != nil {
					return err
				}
			}
			for i := range bookings {
				if err := repo.UpdateStatus(ctx, bookings[i].ID, StatusConfirmed, PaymentPaid); err != nil {
					return err
				}
				bookings[i].Status, bookings[i].PaymentStatus = StatusConfirmed, PaymentPaid
			}
			if order != nil {
				if err := repo.UpdateOrderStatus(ctx, order.ID, StatusConfirmed); err != nil {
					return err
				}
				order.Status = StatusConfirmed
			}
		} else {
			metadata := map[string]string{}
			if target.OrderID != nil {
				metadata["order_id"] = strconv.Itoa(*target.OrderID)
			} else {
				metadata["booking_id"] = strconv.Itoa(*target.BookingID)
			}

			checkout, err := s.Payments.Initiate(ctx, tx, payment.InitiateRequest{
				UserID:      userID,
				BookingID:   target.BookingID,
				OrderID:     target.OrderID,
				Purpose:     payment.PurposeBooking,
				Amount:      q.Total,
				Currency:    q.Currency,
				Description: "Booking " + reference,
				Customer:    customer,
				Metadata:    metadata,
			})
			if err != nil {
				return err
			}
			result.Payment = checkout
		}

		result.Order = order
		result.Bookings = bookings
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("checkout completed",
		"user_id", userID,
		"bookings", len(result.Bookings),
		"total", q.Total.StringFixed(2),
		"method", req.PaymentMethod,
	)
	for _, b := range result.Bookings {
		metrics.RecordBooking(b.Status, b.PaymentMethod)
	}

	s.publish(ctx, events.BookingCreated, result.Bookings...)
	if result.Bookings[0].Status == StatusConfirmed {
		s.publish(ctx, events.BookingStatusUpdated, result.Bookings...)
	}

	return result, nil
}

func paymentTarget(bookingID int, order *Order) (PaymentTarget, string) {
	if order != nil {
		id := order.ID
		return PaymentTarget{OrderID: &id}, "order:" + strconv.Itoa(id)
	}
	id := bookingID
	return PaymentTarget{BookingID: &id}, "booking:" + strconv.Itoa(id)
}

func (s *service) Get(ctx context.Context, actor Actor, id int) (*Booking, error) {
	b, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !b.VisibleTo(actor.UserID, actor.Role) {
		return nil, ErrNotOwner
	}
	return b, nil
}

func (s *service) List(ctx context.Context, f ListFilter) ([]Booking, error) {
	bookings, err := s.Repo.List(ctx, f)
	if err != nil {
		return nil, err
	}
	if bookings == nil {
		bookings = []Booking{}
	}
	return bookings, nil
}

// Cancel lets the customer drop a pending or confirmed booking. Paid
// bookings are refunded to the wallet and redeemed points come back.
func (s *service) Cancel(ctx context.Context, userID, bookingID int) (*Booking, error) {
	var cancelled *Booking
	err := s.Tx.WithinTx(ctx, func(tx *sqlx.Tx) error {
		repo := s.Repo.WithTx(tx)

		b, err := repo.LockByID(ctx, bookingID)
		if err != nil {
			return err
		}
		if b.UserID != userID {
			return ErrNotOwner
		}

		paymentStatus := b.PaymentStatus
		switch b.Status {
		case StatusPending:
		case StatusConfirmed:
			if b.PaymentStatus == PaymentPaid && b.Total.IsPositive() {
				_, err := s.Wallets.Post(ctx, tx, wallet.Entry{
					UserID:    b.UserID,
					Amount:    b.Total,
					Type:      wallet.TypeRefund,
					Reference: "booking:" + strconv.Itoa(b.ID),
				})
				if err != nil {
					return fmt.Errorf("refund booking: %w", err)
				}
				paymentStatus = PaymentRefunded
			}
		default:
			return ErrCannotCancel
		}

		if err := repo.UpdateStatus(ctx, b.ID, StatusCancelled, paymentStatus); err != nil {
			return err
		}
		if _, err := s.Points.Restore(ctx, tx, b.UserID, b.ID); err != nil {
			return fmt.Errorf("restore points: %w", err)
		}

		b.Status, b.PaymentStatus = StatusCancelled, paymentStatus
		cancelled = b
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("booking cancelled", "booking_id", cancelled.ID, "payment_status", cancelled.PaymentStatus)
	s.publish(ctx, events.BookingCancelled, *cancelled)
	return cancelled, nil
}

// Complete closes a confirmed booking: it invoices the commission split,
// parks the provider's share in escrow and awards loyalty points.
func (s *service) Complete(ctx context.Context, actor Actor, bookingID int) (*Booking, error) {
	var (
		completed *Booking
		inv       *invoice.Invoice
	)
	err := s.Tx.WithinTx(ctx, func(tx *sqlx.Tx) error {
		repo := s.Repo.WithTx(tx)

		b, err := repo.LockByID(ctx, bookingID)
		if err != nil {
			return err
		}
		if actor.Role != auth.RoleAdmin && actor.UserID != b.ProviderID {
			return ErrNotOwner
		}
		if b.Status != StatusConfirmed {
			return ErrCannotComplete
		}

		if err := repo.UpdateStatus(ctx, b.ID, StatusCompleted, b.PaymentStatus); err != nil {
			return err
		}

		services, err := s.Catalog.GetMany(ctx, []int{b.ServiceID})
		if err != nil {
			return fmt.Errorf("load service: %w", err)
		}
		description, kind := fmt.Sprintf("Service #%d", b.ServiceID), ""
		if svc, ok := services[b.ServiceID]; ok {
			description, kind = svc.Title, svc.Kind
		}

		inv, err = s.Invoices.Generate(ctx, tx, invoice.Source{
			BookingID:   b.ID,
			OrderID:     b.OrderID,
			ProviderID:  b.ProviderID,
			CustomerID:  b.UserID,
			ServiceKind: kind,
			Subtotal:    b.Subtotal,
			Tax:         b.Tax,
			Discount:    b.Discount.Add(b.PointsValue),
			Total:       b.Total,
			Currency:    b.Currency,
			CompletedAt: s.now(),
			Items: []invoice.Item{{
				Description: fmt.Sprintf("%s (%s to %s)", description, b.StartDate.Format(dateLayout), b.EndDate.Format(dateLayout)),
				Quantity:    1,
				UnitPrice:   b.Subtotal,
				Amount:      b.Subtotal,
			}},
		})
		if err != nil {
			return err
		}

		if _, err := s.Settlement.Hold(ctx, tx, inv); err != nil {
			return err
		}

		award := int(b.Subtotal.Mul(s.opts.PointsPerUnit).Floor().IntPart())
		if err := s.Points.Award(ctx, tx, b.UserID, b.ID, award); err != nil {
			return fmt.Errorf("award points: %w", err)
		}

		b.Status = StatusCompleted
		completed = b
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("booking completed", "booking_id", completed.ID, "invoice", inv.Number)
	metrics.RecordInvoice()
	s.publish(ctx, events.BookingCompleted, *completed)
	events.PublishAll(ctx, s.Publisher, events.TopicInvoice,
		events.New(events.InvoiceGenerated, strconv.Itoa(inv.ID), inv))

	return completed, nil
}

// ApplyCharge moves the bookings paid by a gateway charge to the state the
// charge status implies. Bookings the status does not apply to are left
// alone; only changed bookings are returned.
func (s *service) ApplyCharge(ctx context.Context, tx *sqlx.Tx, target PaymentTarget, chargeStatus string) ([]Booking, error) {
	repo := s.Repo.WithTx(tx)

	var bookings []Booking
	switch {
	case target.OrderID != nil:
		locked, err := repo.LockByOrder(ctx, *target.OrderID)
		if err != nil {
			return nil, err
		}
		bookings = locked
	case target.BookingID != nil:
		b, err := repo.LockByID(ctx, *target.BookingID)
		if err != nil {
			return nil, err
		}
		bookings = []Booking{*b}
	default:
		return nil, ErrBookingNotFound
	}

	changed := make([]Booking, 0, len(bookings))
	for _, b := range bookings {
		status, paymentStatus, ok, err := transition(&b, chargeStatus)
		if err != nil {
			return nil, err
		}
		if !ok {
			logger.Warn("charge status ignored", "booking_id", b.ID, "status", b.Status, "charge_status", chargeStatus)
			continue
		}

		if err := repo.UpdateStatus(ctx, b.ID, status, paymentStatus); err != nil {
			return nil, err
		}
		if b.Status == StatusCompleted && status == StatusRefunded {
			if _, err := s.Settlement.Reverse(ctx, tx, b.ID); err != nil {
				if !errors.Is(err, settlement.ErrHoldNotFound) {
					return nil, fmt.Errorf("reverse escrow: %w", err)
				}
				logger.Warn("refund of completed booking with no escrow held", "booking_id", b.ID)
			}
		}
		if status == StatusFailed || status == StatusCancelled || status == StatusRefunded {
			if _, err := s.Points.Restore(ctx, tx, b.UserID, b.ID); err != nil {
				return nil, fmt.Errorf("restore points: %w", err)
			}
		}

		b.Status, b.PaymentStatus = status, paymentStatus
		changed = append(changed, b)
	}

	if target.OrderID != nil && len(changed) > 0 {
		if err := repo.UpdateOrderStatus(ctx, *target.OrderID, changed[0].Status); err != nil {
			return nil, err
		}
	}

	return changed, nil
}

func transition(b *Booking, chargeStatus string) (status, paymentStatus string, ok bool, err error) {
	switch chargeStatus {
	case payment.StatusAuthorized:
		if b.Status == StatusPending && b.PaymentStatus == PaymentUnpaid {
			return StatusPending, PaymentAuthorized, true, nil
		}
	case payment.StatusCaptured:
		if b.Status == StatusPending {
			return StatusConfirmed, PaymentPaid, true, nil
		}
	case payment.StatusFailed:
		if b.Status == StatusPending {
			return StatusFailed, PaymentFailed, true, nil
		}
	case payment.StatusVoided:
		if b.Status == StatusPending || b.Status == StatusConfirmed {
			return StatusCancelled, PaymentVoided, true, nil
		}
	case payment.StatusRefunded:
		if (b.Status == StatusConfirmed || b.Status == StatusCompleted) && b.PaymentStatus == PaymentPaid {
			return StatusRefunded, PaymentRefunded, true, nil
		}
	default:
		return "", "", false, ErrUnknownPaymentEvent
	}
	return "", "", false, nil
}

// CompleteDue completes confirmed bookings whose end date has passed.
func (s *service) CompleteDue(ctx context.Context, now time.Time) (int, error) {
	ids, err := s.Repo.DueForCompletion(ctx, dateOf(now), sweepBatch)
	if err != nil {
		return 0, err
	}

	n := 0
	for _, id := range ids {
		if _, err := s.Complete(ctx, SystemActor, id); err != nil {
			logger.Warn("auto-complete failed", "booking_id", id, "error", err)
			continue
		}
		n++
	}
	return n, nil
}

// ExpireStale fails gateway bookings that never got paid.
func (s *service) ExpireStale(ctx context.Context, cutoff time.Time) (int, error) {
	ids, err := s.Repo.StalePending(ctx, cutoff, sweepBatch)
	if err != nil {
		return 0, err
	}

	var expired []Booking
	for _, id := range ids {
		var b *Booking
		err := s.Tx.WithinTx(ctx, func(tx *sqlx.Tx) error {
			repo := s.Repo.WithTx(tx)

			locked, err := repo.LockByID(ctx, id)
			if err != nil {
				return err
			}
			// An authorization may have landed since the scan.
			if locked.Status != StatusPending || locked.PaymentStatus != PaymentUnpaid {
				return nil
			}

			if err := repo.UpdateStatus(ctx, locked.ID, StatusFailed, PaymentFailed); err != nil {
				return err
			}
			if _, err := s.Points.Restore(ctx, tx, locked.UserID, locked.ID); err != nil {
				return err
			}

			locked.Status, locked.PaymentStatus = StatusFailed, PaymentFailed
			b = locked
			return nil
		})
		if err != nil {
			logger.Warn("expire booking failed", "booking_id", id, "error", err)
			continue
		}
		if b != nil {
			expired = append(expired, *b)
			metrics.RecordBookingTransition(StatusFailed, "expiry")
		}
	}

	s.publish(ctx, events.BookingStatusUpdated, expired...)
	return len(expired), nil
}

func (s *service) publish(ctx context.Context, eventType string, bookings ...Booking) {
	evts := make([]events.Event, 0, len(bookings))
	for _, b := range bookings {
		evts = append(evts, events.New(eventType, strconv.Itoa(b.ID), b))
	}
	events.PublishAll(ctx, s.Publisher, events.TopicBooking, evts...)
}
