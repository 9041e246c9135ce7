package points

import (
	"errors"
	"time"
)

const (
	ReasonEarned   = "earned"
	ReasonRedeemed = "redeemed"
	ReasonRestored = "restored"
)

var (
	ErrInsufficientPoints = errors.New("insufficient loyalty points")
	ErrInvalidPoints      = errors.New("points must be positive")
)

type Entry struct {
	ID        int       `db:"id" json:"id"`
	UserID    int       `db:"user_id" json:"user_id"`
	Points    int       `db:"points" json:"points"`
	Reason    string    `db:"reason" json:"reason"`
	BookingID *int      `db:"booking_id" json:"booking_id,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

type BalanceResponse struct {
	Balance int `json:"balance"`
}
