package wallet

import (
	"context"

	"marketplace/internal/events"
	"marketplace/internal/payment"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) WithTx(tx *sqlx.Tx) Repository { return m }

func (m *MockRepository) UserExists(ctx context.Context, userID int) (bool, error) {
	args := m.Called(ctx, userID)
	return args.Bool(0), args.Error(1)
}

func (m *MockRepository) GetOrCreate(ctx context.Context, userID int) (*Wallet, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Wallet), args.Error(1)
}

func (m *MockRepository) LockForUpdate(ctx context.Context, userID int) (*Wallet, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Wallet), args.Error(1)
}

func (m *MockRepository) UpdateBalance(ctx context.Context, walletID int, balance decimal.Decimal) error {
	return m.Called(ctx, walletID, balance).Error(0)
}

func (m *MockRepository) AddTransaction(ctx context.Context, t *Transaction) error {
	return m.Called(ctx, t).Error(0)
}

func (m *MockRepository) GetTransactions(ctx context.Context, userID, limit, offset int) ([]Transaction, error) {
	args := m.Called(ctx, userID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Transaction), args.Error(1)
}

type MockPayments struct {
	mock.Mock
}

func (m *MockPayments) Initiate(ctx context.Context, tx *sqlx.Tx, req payment.InitiateRequest) (*payment.Checkout, error) {
	args := m.Called(ctx, tx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Checkout), args.Error(1)
}

func (m *MockPayments) Refund(ctx context.Context, id int, req payment.RefundPaymentRequest) (*payment.Refund, error) {
	args := m.Called(ctx, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Refund), args.Error(1)
}

func (m *MockPayments) ListByUser(ctx context.Context, userID, limit, offset int) ([]payment.Transaction, error) {
	args := m.Called(ctx, userID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]payment.Transaction), args.Error(1)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, topic string, e events.Event) error {
	return m.Called(ctx, topic, e).Error(0)
}

// inlineTx runs the callback without a database.
type inlineTx struct{}

func (inlineTx) WithinTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	return fn(nil)
}

func amountEq(want string) interface{} {
	return mock.MatchedBy(func(d decimal.Decimal) bool {
		return d.Equal(decimal.RequireFromString(want))
	})
}
