package points

import (
	"context"

	"github.com/jmoiron/sqlx"
)

type Service interface {
	Balance(ctx context.Context, userID int) (int, error)
	History(ctx context.Context, userID, limit, offset int) ([]Entry, error)
	Redeem(ctx context.Context, tx *sqlx.Tx, userID, bookingID, points int) error
	Award(ctx context.Context, tx *sqlx.Tx, userID, bookingID, points int) error
	Restore(ctx context.Context, tx *sqlx.Tx, userID, bookingID int) (int, error)
	EnsureAvailable(ctx context.Context, tx *sqlx.Tx, userID, points int) error
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) Balance(ctx context.Context, userID int) (int, error) {
	return s.repo.Balance(ctx, userID)
}

func (s *service) History(ctx context.Context, userID, limit, offset int) ([]Entry, error) {
	entries, err := s.repo.History(ctx, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []Entry{}
	}
	return entries, nil
}

// EnsureAvailable locks the user's points and checks the balance covers points.
// Must run inside the transaction that later redeems them.
func (s *service) EnsureAvailable(ctx context.Context, tx *sqlx.Tx, userID, points int) error {
	if points <= 0 {
		return ErrInvalidPoints
	}

	repo := s.repo.WithTx(tx)
	if err := repo.LockUser(ctx, userID); err != nil {
		return err
	}

	balance, err := repo.Balance(ctx, userID)
	if err != nil {
		return err
	}
	if balance < points {
		return ErrInsufficientPoints
	}
	return nil
}

func (s *service) Redeem(ctx context.Context, tx *sqlx.Tx, userID, bookingID, points int) error {
	if points <= 0 {
		return nil
	}
	return s.repo.WithTx(tx).Add(ctx, &Entry{
		UserID:    userID,
		Points:    -points,
		Reason:    ReasonRedeemed,
		BookingID: &bookingID,
	})
}

func (s *service) Award(ctx context.Context, tx *sqlx.Tx, userID, bookingID, points int) error {
	if points <= 0 {
		return nil
	}
	return s.repo.WithTx(tx).Add(ctx, &Entry{
		UserID:    userID,
		Points:    points,
		Reason:    ReasonEarned,
		BookingID: &bookingID,
	})
}

// Restore gives back whatever was redeemed for the booking and returns the
// number of points restored. Calling it twice restores nothing the second time.
func (s *service) Restore(ctx context.Context, tx *sqlx.Tx, userID, bookingID int) (int, error) {
	repo := s.repo.WithTx(tx)

	outstanding, err := repo.OutstandingRedemption(ctx, bookingID)
	if err != nil {
		return 0, err
	}
	if outstanding <= 0 {
		return 0, nil
	}

	err = repo.Add(ctx, &Entry{
		UserID:    userID,
		Points:    outstanding,
		Reason:    ReasonRestored,
		BookingID: &bookingID,
	})
	if err != nil {
		return 0, err
	}
	return outstanding, nil
}
