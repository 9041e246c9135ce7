package wallet

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

const (
	TypeTopUp          = "topup"
	TypeTransferIn     = "transfer_in"
	TypeTransferOut    = "transfer_out"
	TypeBookingPayment = "booking_payment"
	TypeRefund         = "refund"
	TypeSettlement     = "settlement"
)

var (
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrInvalidAmount       = errors.New("amount must be positive")
	ErrSelfTransfer        = errors.New("cannot transfer to yourself")
	ErrWalletNotFound      = errors.New("wallet not found")
	ErrRecipientNotFound   = errors.New("recipient not found")
)

type Wallet struct {
	ID        int             `db:"id" json:"id"`
	UserID    int             `db:"user_id" json:"user_id"`
	Balance   decimal.Decimal `db:"balance" json:"balance" swaggertype:"string"`
	Currency  string          `db:"currency" json:"currency"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt time.Time       `db:"updated_at" json:"updated_at"`
}

type Transaction struct {
	ID           int             `db:"id" json:"id"`
	WalletID     int             `db:"wallet_id" json:"wallet_id"`
	Amount       decimal.Decimal `db:"amount" json:"amount" swaggertype:"string"`
	Type         string          `db:"type" json:"type"`
	BalanceAfter decimal.Decimal `db:"balance_after" json:"balance_after" swaggertype:"string"`
	Reference    string          `db:"reference" json:"reference"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
}

// Entry is one signed balance change. Negative amounts debit.
type Entry struct {
	UserID    int
	Amount    decimal.Decimal
	Type      string
	Reference string
}

type TopUpRequest struct {
	Amount   decimal.Decimal `json:"amount" swaggertype:"string" example:"100.00"`
	Currency string          `json:"currency" binding:"omitempty,len=3"`
}

type TransferRequest struct {
	ToUserID int             `json:"to_user_id" binding:"required,gt=0"`
	Amount   decimal.Decimal `json:"amount" swaggertype:"string" example:"25.00"`
}

type TransferResult struct {
	Debit  *Transaction `json:"debit"`
	Credit *Transaction `json:"credit"`
}
