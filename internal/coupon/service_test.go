package coupon

import (
	"context"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) WithTx(tx *sqlx.Tx) Repository { return m }

func (m *MockRepository) Create(ctx context.Context, c *Coupon) (*Coupon, error) {
	args := m.Called(ctx, c)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Coupon), args.Error(1)
}

func (m *MockRepository) GetByCode(ctx context.Context, code string) (*Coupon, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Coupon), args.Error(1)
}

func (m *MockRepository) List(ctx context.Context, limit, offset int) ([]Coupon, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Coupon), args.Error(1)
}

func (m *MockRepository) IncrementUsage(ctx context.Context, id int) error {
	return m.Called(ctx, id).Error(0)
}

func TestService_Create(t *testing.T) {
	t.Run("uppercases code and sets max discount", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("Create", mock.Anything, mock.MatchedBy(func(c *Coupon) bool {
			return c.Code == "SUMMER10" && c.MaxDiscount.Valid && c.MaxDiscount.Decimal.Equal(d("50"))
		})).Return(&Coupon{ID: 1, Code: "SUMMER10"}, nil)

		maxDiscount := d("50")
		cp, err := NewService(repo).Create(context.Background(), CreateCouponRequest{
			Code: "summer10", DiscountType: TypePercentage, Value: d("10"), MaxDiscount: &maxDiscount,
		})
		require.NoError(t, err)
		assert.Equal(t, 1, cp.ID)
		repo.AssertExpectations(t)
	})

	t.Run("percentage over 100", func(t *testing.T) {
		_, err := NewService(new(MockRepository)).Create(context.Background(), CreateCouponRequest{
			Code: "BIG", DiscountType: TypePercentage, Value: d("150"),
		})
		assert.ErrorIs(t, err, ErrInvalidValue)
	})

	t.Run("zero value", func(t *testing.T) {
		_, err := NewService(new(MockRepository)).Create(context.Background(), CreateCouponRequest{
			Code: "ZERO", DiscountType: TypeFixed, Value: decimal.Zero,
		})
		assert.ErrorIs(t, err, ErrInvalidValue)
	})

	t.Run("inverted window", func(t *testing.T) {
		from := time.Now()
		to := from.Add(-time.Hour)
		_, err := NewService(new(MockRepository)).Create(context.Background(), CreateCouponRequest{
			Code: "LATE", DiscountType: TypeFixed, Value: d("5"), ValidFrom: &from, ValidTo: &to,
		})
		assert.ErrorIs(t, err, ErrInvalidWindow)
	})
}

func TestService_Lookup(t *testing.T) {
	repo := new(MockRepository)
	repo.On("GetByCode", mock.Anything, "save5").Return(&Coupon{
		ID: 2, Code: "SAVE5", DiscountType: TypeFixed, Value: d("5"), Active: true, ValidFrom: time.Now().Add(-time.Hour),
	}, nil)
	repo.On("GetByCode", mock.Anything, "nope").Return(nil, ErrCouponNotFound)

	svc := NewService(repo)

	cp, discount, err := svc.Lookup(context.Background(), "save5", d("100"))
	require.NoError(t, err)
	assert.Equal(t, "SAVE5", cp.Code)
	assert.Equal(t, "5.00", discount.StringFixed(2))

	_, _, err = svc.Lookup(context.Background(), "nope", d("100"))
	assert.ErrorIs(t, err, ErrCouponNotFound)
}

func TestService_Redeem(t *testing.T) {
	repo := new(MockRepository)
	repo.On("IncrementUsage", mock.Anything, 2).Return(ErrCouponExhausted)

	err := NewService(repo).Redeem(context.Background(), nil, &Coupon{ID: 2})
	assert.ErrorIs(t, err, ErrCouponExhausted)
}
