package wallet

import (
	"context"
	"errors"
	"testing"

	"marketplace/internal/events"
	"marketplace/internal/payment"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestService(repo *MockRepository, payments *MockPayments, pub *MockPublisher) Service {
	return NewService(repo, inlineTx{}, payments, pub, "SAR")
}

func TestService_Post(t *testing.T) {
	t.Run("credit", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("LockForUpdate", mock.Anything, 5).
			Return(&Wallet{ID: 2, UserID: 5, Balance: decimal.RequireFromString("10.00")}, nil)
		repo.On("UpdateBalance", mock.Anything, 2, amountEq("60.50")).Return(nil)
		repo.On("AddTransaction", mock.Anything, mock.MatchedBy(func(tx *Transaction) bool {
			return tx.WalletID == 2 && tx.Type == TypeTopUp && tx.BalanceAfter.Equal(decimal.RequireFromString("60.50"))
		})).Return(nil)

		tx, err := newTestService(repo, nil, nil).Post(context.Background(), nil, Entry{
			UserID: 5, Amount: decimal.RequireFromString("50.50"), Type: TypeTopUp, Reference: "chg_1",
		})
		require.NoError(t, err)
		assert.Equal(t, "50.50", tx.Amount.StringFixed(2))
		assert.Equal(t, "chg_1", tx.Reference)
		repo.AssertExpectations(t)
	})

	t.Run("debit below zero", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("LockForUpdate", mock.Anything, 5).
			Return(&Wallet{ID: 2, UserID: 5, Balance: decimal.RequireFromString("10.00")}, nil)

		_, err := newTestService(repo, nil, nil).Post(context.Background(), nil, Entry{
			UserID: 5, Amount: decimal.RequireFromString("-10.01"), Type: TypeBookingPayment,
		})
		assert.ErrorIs(t, err, ErrInsufficientBalance)
		repo.AssertNotCalled(t, "UpdateBalance", mock.Anything, mock.Anything, mock.Anything)
		repo.AssertNotCalled(t, "AddTransaction", mock.Anything, mock.Anything)
	})

	t.Run("debit to exactly zero", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("LockForUpdate", mock.Anything, 5).
			Return(&Wallet{ID: 2, UserID: 5, Balance: decimal.RequireFromString("10.00")}, nil)
		repo.On("UpdateBalance", mock.Anything, 2, amountEq("0")).Return(nil)
		repo.On("AddTransaction", mock.Anything, mock.Anything).Return(nil)

		tx, err := newTestService(repo, nil, nil).Post(context.Background(), nil, Entry{
			UserID: 5, Amount: decimal.RequireFromString("-10"), Type: TypeBookingPayment,
		})
		require.NoError(t, err)
		assert.True(t, tx.BalanceAfter.IsZero())
	})

	t.Run("zero amount", func(t *testing.T) {
		_, err := newTestService(new(MockRepository), nil, nil).Post(context.Background(), nil, Entry{UserID: 5})
		assert.ErrorIs(t, err, ErrInvalidAmount)
	})

	t.Run("lock failure", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("LockForUpdate", mock.Anything, 5).Return(nil, errors.New("db down"))

		_, err := newTestService(repo, nil, nil).Post(context.Background(), nil, Entry{
			UserID: 5, Amount: decimal.NewFromInt(1), Type: TypeTopUp,
		})
		assert.ErrorContains(t, err, "lock wallet")
	})
}

func TestService_Transfer(t *testing.T) {
	t.Run("moves funds and publishes", func(t *testing.T) {
		repo := new(MockRepository)
		pub := new(MockPublisher)

		lockOrder := []int{}
		repo.On("UserExists", mock.Anything, 3).Return(true, nil)
		repo.On("LockForUpdate", mock.Anything, 3).
			Run(func(args mock.Arguments) { lockOrder = append(lockOrder, 3) }).
			Return(&Wallet{ID: 30, UserID: 3, Balance: decimal.NewFromInt(5)}, nil)
		repo.On("LockForUpdate", mock.Anything, 8).
			Run(func(args mock.Arguments) { lockOrder = append(lockOrder, 8) }).
			Return(&Wallet{ID: 80, UserID: 8, Balance: decimal.NewFromInt(100)}, nil)
		repo.On("UpdateBalance", mock.Anything, 80, amountEq("75")).Return(nil)
		repo.On("UpdateBalance", mock.Anything, 30, amountEq("30")).Return(nil)
		repo.On("AddTransaction", mock.Anything, mock.MatchedBy(func(tx *Transaction) bool {
			return tx.WalletID == 80 && tx.Type == TypeTransferOut && tx.Amount.Equal(decimal.NewFromInt(-25))
		})).Return(nil)
		repo.On("AddTransaction", mock.Anything, mock.MatchedBy(func(tx *Transaction) bool {
			return tx.WalletID == 30 && tx.Type == TypeTransferIn && tx.Amount.Equal(decimal.NewFromInt(25))
		})).Return(nil)
		pub.On("Publish", mock.Anything, events.TopicWallet, mock.MatchedBy(func(e events.Event) bool {
			return e.Type == events.WalletTransferred && e.Key == "8"
		})).Return(nil)

		res, err := newTestService(repo, nil, pub).Transfer(context.Background(), 8, TransferRequest{
			ToUserID: 3, Amount: decimal.NewFromInt(25),
		})
		require.NoError(t, err)
		assert.Equal(t, []int{3, 8}, lockOrder)
		assert.Equal(t, "75.00", res.Debit.BalanceAfter.StringFixed(2))
		assert.Equal(t, "30.00", res.Credit.BalanceAfter.StringFixed(2))
		repo.AssertExpectations(t)
		pub.AssertExpectations(t)
	})

	t.Run("insufficient funds", func(t *testing.T) {
		repo := new(MockRepository)
		pub := new(MockPublisher)
		repo.On("UserExists", mock.Anything, 2).Return(true, nil)
		repo.On("LockForUpdate", mock.Anything, 1).Return(&Wallet{ID: 10, Balance: decimal.NewFromInt(5)}, nil)
		repo.On("LockForUpdate", mock.Anything, 2).Return(&Wallet{ID: 20, Balance: decimal.Zero}, nil)

		_, err := newTestService(repo, nil, pub).Transfer(context.Background(), 1, TransferRequest{
			ToUserID: 2, Amount: decimal.NewFromInt(6),
		})
		assert.ErrorIs(t, err, ErrInsufficientBalance)
		pub.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("unknown recipient", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("UserExists", mock.Anything, 404).Return(false, nil)

		_, err := newTestService(repo, nil, nil).Transfer(context.Background(), 8, TransferRequest{
			ToUserID: 404, Amount: decimal.NewFromInt(5),
		})
		assert.ErrorIs(t, err, ErrRecipientNotFound)
		repo.AssertNotCalled(t, "LockForUpdate", mock.Anything, mock.Anything)
	})

	t.Run("self transfer", func(t *testing.T) {
		_, err := newTestService(new(MockRepository), nil, nil).Transfer(context.Background(), 4, TransferRequest{
			ToUserID: 4, Amount: decimal.NewFromInt(1),
		})
		assert.ErrorIs(t, err, ErrSelfTransfer)
	})

	t.Run("non-positive amount", func(t *testing.T) {
		_, err := newTestService(new(MockRepository), nil, nil).Transfer(context.Background(), 4, TransferRequest{
			ToUserID: 5, Amount: decimal.RequireFromString("-1"),
		})
		assert.ErrorIs(t, err, ErrInvalidAmount)
	})
}

func TestService_InitiateTopUp(t *testing.T) {
	t.Run("foreign currency converted into metadata", func(t *testing.T) {
		payments := new(MockPayments)
		payments.On("Initiate", mock.Anything, mock.Anything, mock.MatchedBy(func(req payment.InitiateRequest) bool {
			return req.Purpose == payment.PurposeWalletTopUp &&
				req.Currency == "USD" &&
				req.Amount.Equal(decimal.NewFromInt(100)) &&
				req.Metadata["topup_amount"] == "375.00" &&
				req.Metadata["user_id"] == "6"
		})).Return(&payment.Checkout{ChargeID: "chg_9", TransactionURL: "https://pay.example/chg_9"}, nil)

		checkout, err := newTestService(new(MockRepository), payments, nil).InitiateTopUp(
			context.Background(), 6, payment.Customer{Email: "a@example.com"},
			TopUpRequest{Amount: decimal.NewFromInt(100), Currency: "usd"},
		)
		require.NoError(t, err)
		assert.Equal(t, "chg_9", checkout.ChargeID)
		payments.AssertExpectations(t)
	})

	t.Run("defaults to wallet currency", func(t *testing.T) {
		payments := new(MockPayments)
		payments.On("Initiate", mock.Anything, mock.Anything, mock.MatchedBy(func(req payment.InitiateRequest) bool {
			return req.Currency == "SAR" && req.Metadata["topup_amount"] == "50.00"
		})).Return(&payment.Checkout{ChargeID: "chg_10"}, nil)

		_, err := newTestService(new(MockRepository), payments, nil).InitiateTopUp(
			context.Background(), 6, payment.Customer{}, TopUpRequest{Amount: decimal.NewFromInt(50)},
		)
		require.NoError(t, err)
	})

	t.Run("unknown currency", func(t *testing.T) {
		_, err := newTestService(new(MockRepository), new(MockPayments), nil).InitiateTopUp(
			context.Background(), 6, payment.Customer{}, TopUpRequest{Amount: decimal.NewFromInt(50), Currency: "XYZ"},
		)
		assert.ErrorIs(t, err, ErrUnsupportedCurrency)
	})

	t.Run("non-positive amount", func(t *testing.T) {
		_, err := newTestService(new(MockRepository), new(MockPayments), nil).InitiateTopUp(
			context.Background(), 6, payment.Customer{}, TopUpRequest{},
		)
		assert.ErrorIs(t, err, ErrInvalidAmount)
	})
}

func TestTopUpCredit(t *testing.T) {
	charged := decimal.RequireFromString("100.00")

	assert.Equal(t, "375.00", TopUpCredit("375", charged).StringFixed(2))
	assert.Equal(t, "100.00", TopUpCredit("", charged).StringFixed(2))
	assert.Equal(t, "100.00", TopUpCredit("abc", charged).StringFixed(2))
	assert.Equal(t, "100.00", TopUpCredit("-5", charged).StringFixed(2))
}

func TestService_TransactionsNeverNil(t *testing.T) {
	repo := new(MockRepository)
	repo.On("GetTransactions", mock.Anything, 1, 20, 0).Return(nil, nil)

	txs, err := newTestService(repo, nil, nil).Transactions(context.Background(), 1, 20, 0)
	require.NoError(t, err)
	assert.NotNil(t, txs)
	assert.Empty(t, txs)
}
