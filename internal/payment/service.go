package payment

import (
	"context"
	"encoding/json"
	"fmt"

	"marketplace/internal/logger"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type Service interface {
	Initiate(ctx context.Context, tx *sqlx.Tx, req InitiateRequest) (*Checkout, error)
	Refund(ctx context.Context, id int, req RefundPaymentRequest) (*Refund, error)
	ListByUser(ctx context.Context, userID, limit, offset int) ([]Transaction, error)
}

type service struct {
	repo    Repository
	gateway Gateway
}

func NewService(repo Repository, gateway Gateway) Service {
	return &service{repo: repo, gateway: gateway}
}

// Initiate opens a hosted-page charge at the gateway and records it as
// initiated. The final status arrives later through the webhook.
func (s *service) Initiate(ctx context.Context, tx *sqlx.Tx, req InitiateRequest) (*Checkout, error) {
	if !req.Amount.IsPositive() {
		return nil, ErrInvalidAmount
	}

	reference := uuid.NewString()
	metadata := map[string]string{"type": req.Purpose, "reference": reference}
	for k, v := range req.Metadata {
		metadata[k] = v
	}

	charge, err := s.gateway.CreateCharge(ctx, ChargeRequest{
		Amount:      req.Amount.Round(2),
		Currency:    req.Currency,
		Description: req.Description,
		Reference:   reference,
		Customer:    req.Customer,
		Metadata:    metadata,
	})
	if err != nil {
		return nil, fmt.Errorf("create charge: %w", err)
	}

	raw, _ := json.Marshal(charge)
	t, err := s.repo.WithTx(tx).Create(ctx, &Transaction{
		Reference:       reference,
		ChargeID:        charge.ID,
		UserID:          req.UserID,
		BookingID:       req.BookingID,
		OrderID:         req.OrderID,
		Purpose:         req.Purpose,
		Amount:          req.Amount.Round(2),
		Currency:        req.Currency,
		Status:          StatusInitiated,
		GatewayResponse: raw,
	})
	if err != nil {
		return nil, fmt.Errorf("store payment transaction: %w", err)
	}

	logger.Info("charge initiated", "charge_id", charge.ID, "purpose", req.Purpose, "amount", t.Amount.StringFixed(2))

	return &Checkout{
		Reference:      t.Reference,
		ChargeID:       t.ChargeID,
		Amount:         t.Amount,
		Currency:       t.Currency,
		TransactionURL: charge.TransactionURL,
	}, nil
}

// Refund asks the gateway to return a captured charge. The transaction
// flips to refunded when the gateway confirms through the webhook.
func (s *service) Refund(ctx context.Context, id int, req RefundPaymentRequest) (*Refund, error) {
	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if t.Status != StatusCaptured {
		return nil, ErrNotRefundable
	}

	amount := t.Amount
	if req.Amount != nil {
		if !req.Amount.IsPositive() || req.Amount.GreaterThan(t.Amount) {
			return nil, ErrInvalidAmount
		}
		amount = req.Amount.Round(2)
	}

	refund, err := s.gateway.CreateRefund(ctx, RefundRequest{
		ChargeID:  t.ChargeID,
		Amount:    amount,
		Currency:  t.Currency,
		Reason:    req.Reason,
		Reference: t.Reference,
	})
	if err != nil {
		return nil, fmt.Errorf("create refund: %w", err)
	}

	logger.Info("refund requested", "charge_id", t.ChargeID, "refund_id", refund.ID, "amount", amount.StringFixed(2))
	return refund, nil
}

func (s *service) ListByUser(ctx context.Context, userID, limit, offset int) ([]Transaction, error) {
	txs, err := s.repo.ListByUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	if txs == nil {
		txs = []Transaction{}
	}
	return txs, nil
}
