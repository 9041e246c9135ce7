package points

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupPointsMock(t *testing.T) (Repository, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	sqlxDB := sqlx.NewDb(db, "postgres")
	t.Cleanup(func() { sqlxDB.Close() })

	return NewRepository(sqlxDB), mock
}

func TestRepository_BalanceAndAdd(t *testing.T) {
	repo, mock := setupPointsMock(t)
	ctx := context.Background()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COALESCE(SUM(points), 0) FROM points_ledger WHERE user_id = $1")).
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(320))

	balance, err := repo.Balance(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 320, balance)

	bookingID := 4
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO points_ledger (user_id, points, reason, booking_id) VALUES ($1, $2, $3, $4) RETURNING id, created_at")).
		WithArgs(1, -20, ReasonRedeemed, 4).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(11, time.Now()))

	e := &Entry{UserID: 1, Points: -20, Reason: ReasonRedeemed, BookingID: &bookingID}
	require.NoError(t, repo.Add(ctx, e))
	assert.Equal(t, 11, e.ID)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_OutstandingRedemption(t *testing.T) {
	repo, mock := setupPointsMock(t)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE booking_id = $1 AND reason IN ('redeemed', 'restored')")).
		WithArgs(4).
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(20))

	n, err := repo.OutstandingRedemption(context.Background(), 4)
	require.NoError(t, err)
	assert.Equal(t, 20, n)
}
