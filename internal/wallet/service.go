package wallet

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"marketplace/internal/db"
	"marketplace/internal/events"
	"marketplace/internal/logger"
	"marketplace/internal/metrics"
	"marketplace/internal/payment"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

type Service interface {
	Get(ctx context.Context, userID int) (*Wallet, error)
	Transactions(ctx context.Context, userID, limit, offset int) ([]Transaction, error)
	Post(ctx context.Context, tx *sqlx.Tx, e Entry) (*Transaction, error)
	Transfer(ctx context.Context, fromUserID int, req TransferRequest) (*TransferResult, error)
	InitiateTopUp(ctx context.Context, userID int, customer payment.Customer, req TopUpRequest) (*payment.Checkout, error)
}

type service struct {
	repo      Repository
	txr       db.Transactor
	payments  payment.Service
	publisher events.Publisher
	currency  string
}

func NewService(repo Repository, txr db.Transactor, payments payment.Service, publisher events.Publisher, currency string) Service {
	return &service{
		repo:      repo,
		txr:       txr,
		payments:  payments,
		publisher: publisher,
		currency:  currency,
	}
}

func (s *service) Get(ctx context.Context, userID int) (*Wallet, error) {
	return s.repo.GetOrCreate(ctx, userID)
}

func (s *service) Transactions(ctx context.Context, userID, limit, offset int) ([]Transaction, error) {
	txs, err := s.repo.GetTransactions(ctx, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	if txs == nil {
		txs = []Transaction{}
	}
	return txs, nil
}

// Post applies one signed entry to the user's wallet. With a nil tx it runs
// in a transaction of its own.
func (s *service) Post(ctx context.Context, tx *sqlx.Tx, e Entry) (*Transaction, error) {
	if e.Amount.IsZero() {
		return nil, ErrInvalidAmount
	}

	if tx == nil {
		var out *Transaction
		err := s.txr.WithinTx(ctx, func(tx *sqlx.Tx) error {
			var err error
			out, err = post(ctx, s.repo.WithTx(tx), e)
			return err
		})
		return out, err
	}

	return post(ctx, s.repo.WithTx(tx), e)
}

func post(ctx context.Context, repo Repository, e Entry) (*Transaction, error) {
	w, err := repo.LockForUpdate(ctx, e.UserID)
	if err != nil {
		return nil, fmt.Errorf("lock wallet: %w", err)
	}

	return apply(ctx, repo, w, e)
}

// apply writes the balance and its ledger row for a wallet already locked
// by the caller.
func apply(ctx context.Context, repo Repository, w *Wallet, e Entry) (*Transaction, error) {
	amount := e.Amount.Round(2)
	newBalance := w.Balance.Add(amount)
	if newBalance.IsNegative() {
		return nil, ErrInsufficientBalance
	}

	if err := repo.UpdateBalance(ctx, w.ID, newBalance); err != nil {
		return nil, fmt.Errorf("update balance: %w", err)
	}

	t := &Transaction{
		WalletID:     w.ID,
		Amount:       amount,
		Type:         e.Type,
		BalanceAfter: newBalance,
		Reference:    e.Reference,
	}
	if err := repo.AddTransaction(ctx, t); err != nil {
		return nil, fmt.Errorf("add wallet transaction: %w", err)
	}

	w.Balance = newBalance
	metrics.RecordWalletPosting(e.Type)
	return t, nil
}

func (s *service) Transfer(ctx context.Context, fromUserID int, req TransferRequest) (*TransferResult, error) {
	if fromUserID == req.ToUserID {
		return nil, ErrSelfTransfer
	}
	amount := req.Amount.Round(2)
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}

	result := &TransferResult{}
	err := s.txr.WithinTx(ctx, func(tx *sqlx.Tx) error {
		repo := s.repo.WithTx(tx)

		ok, err := repo.UserExists(ctx, req.ToUserID)
		if err != nil {
			return fmt.Errorf("check recipient: %w", err)
		}
		if !ok {
			return ErrRecipientNotFound
		}

		// Lock in user id order so opposite transfers cannot deadlock.
		first, second := fromUserID, req.ToUserID
		if second < first {
			first, second = second, first
		}
		locked := make(map[int]*Wallet, 2)
		for _, id := range []int{first, second} {
			w, err := repo.LockForUpdate(ctx, id)
			if err != nil {
				return fmt.Errorf("lock wallet: %w", err)
			}
			locked[id] = w
		}

		reference := fmt.Sprintf("transfer:%d:%d", fromUserID, req.ToUserID)
		debit, err := apply(ctx, repo, locked[fromUserID], Entry{
			UserID:    fromUserID,
			Amount:    amount.Neg(),
			Type:      TypeTransferOut,
			Reference: reference,
		})
		if err != nil {
			return err
		}
		credit, err := apply(ctx, repo, locked[req.ToUserID], Entry{
			UserID:    req.ToUserID,
			Amount:    amount,
			Type:      TypeTransferIn,
			Reference: reference,
		})
		if err != nil {
			return err
		}

		result.Debit, result.Credit = debit, credit
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("wallet transfer", "from", fromUserID, "to", req.ToUserID, "amount", amount.StringFixed(2))
	events.PublishAll(ctx, s.publisher, events.TopicWallet, events.New(
		events.WalletTransferred,
		strconv.Itoa(fromUserID),
		map[string]interface{}{
			"from_user_id": fromUserID,
			"to_user_id":   req.ToUserID,
			"amount":       amount.StringFixed(2),
			"currency":     s.currency,
		},
	))

	return result, nil
}

// InitiateTopUp opens a gateway charge in the requested currency. The wallet
// is credited by the webhook once the charge is captured, for the amount
// converted into the wallet currency.
func (s *service) InitiateTopUp(ctx context.Context, userID int, customer payment.Customer, req TopUpRequest) (*payment.Checkout, error) {
	if !req.Amount.IsPositive() {
		return nil, ErrInvalidAmount
	}

	currency := strings.ToUpper(req.Currency)
	if currency == "" {
		currency = s.currency
	}

	credited, err := Convert(req.Amount, currency, s.currency)
	if err != nil {
		return nil, err
	}

	return s.payments.Initiate(ctx, nil, payment.InitiateRequest{
		UserID:      userID,
		Purpose:     payment.PurposeWalletTopUp,
		Amount:      req.Amount.Round(2),
		Currency:    currency,
		Description: "Wallet top-up",
		Customer:    customer,
		Metadata: map[string]string{
			"user_id":      strconv.Itoa(userID),
			"topup_amount": credited.StringFixed(2),
		},
	})
}

// TopUpCredit is what a captured top-up charge is worth in the wallet.
func TopUpCredit(metadataAmount string, charged decimal.Decimal) decimal.Decimal {
	if amount, err := decimal.NewFromString(metadataAmount); err == nil && amount.IsPositive() {
		return amount.Round(2)
	}
	return charged.Round(2)
}
