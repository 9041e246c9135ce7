package booking

import (
	"context"
	"time"

	"marketplace/internal/catalog"
	"marketplace/internal/commission"
	"marketplace/internal/coupon"
	"marketplace/internal/events"
	"marketplace/internal/invoice"
	"marketplace/internal/payment"
	"marketplace/internal/points"
	"marketplace/internal/settlement"
	"marketplace/internal/wallet"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) WithTx(tx *sqlx.Tx) Repository { return m }

func (m *MockRepository) CreateOrder(ctx context.Context, o *Order) error {
	return m.Called(ctx, o).Error(0)
}

func (m *MockRepository) UpdateOrderStatus(ctx context.Context, orderID int, status string) error {
	return m.Called(ctx, orderID, status).Error(0)
}

func (m *MockRepository) AddOrderItem(ctx context.Context, item *OrderItem) error {
	return m.Called(ctx, item).Error(0)
}

func (m *MockRepository) Create(ctx context.Context, b *Booking) error {
	return m.Called(ctx, b).Error(0)
}

func (m *MockRepository) GetByID(ctx context.Context, id int) (*Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Booking), args.Error(1)
}

func (m *MockRepository) LockByID(ctx context.Context, id int) (*Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Booking), args.Error(1)
}

func (m *MockRepository) LockByOrder(ctx context.Context, orderID int) ([]Booking, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Booking), args.Error(1)
}

func (m *MockRepository) UpdateStatus(ctx context.Context, id int, status, paymentStatus string) error {
	return m.Called(ctx, id, status, paymentStatus).Error(0)
}

func (m *MockRepository) List(ctx context.Context, f ListFilter) ([]Booking, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Booking), args.Error(1)
}

func (m *MockRepository) DueForCompletion(ctx context.Context, before time.Time, limit int) ([]int, error) {
	args := m.Called(ctx, before, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int), args.Error(1)
}

func (m *MockRepository) StalePending(ctx context.Context, createdBefore time.Time, limit int) ([]int, error) {
	args := m.Called(ctx, createdBefore, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int), args.Error(1)
}

// The collaborator mocks embed their interface so only the methods a test
// exercises need an implementation.

type MockCatalog struct {
	mock.Mock
	catalog.Manager
}

func (m *MockCatalog) GetMany(ctx context.Context, ids []int) (map[int]*catalog.Service, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[int]*catalog.Service), args.Error(1)
}

type MockCommission struct {
	mock.Mock
	commission.Service
}

func (m *MockCommission) TaxRate(ctx context.Context, kind string) (decimal.Decimal, error) {
	args := m.Called(ctx, kind)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

type MockCoupons struct {
	mock.Mock
	coupon.Service
}

func (m *MockCoupons) Lookup(ctx context.Context, code string, subtotal decimal.Decimal) (*coupon.Coupon, decimal.Decimal, error) {
	args := m.Called(ctx, code, subtotal)
	if args.Get(0) == nil {
		return nil, decimal.Zero, args.Error(2)
	}
	return args.Get(0).(*coupon.Coupon), args.Get(1).(decimal.Decimal), args.Error(2)
}

func (m *MockCoupons) Redeem(ctx context.Context, tx *sqlx.Tx, c *coupon.Coupon) error {
	return m.Called(ctx, tx, c).Error(0)
}

type MockPoints struct {
	mock.Mock
	points.Service
}

func (m *MockPoints) Balance(ctx context.Context, userID int) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}

func (m *MockPoints) EnsureAvailable(ctx context.Context, tx *sqlx.Tx, userID, pts int) error {
	return m.Called(ctx, tx, userID, pts).Error(0)
}

func (m *MockPoints) Redeem(ctx context.Context, tx *sqlx.Tx, userID, bookingID, pts int) error {
	return m.Called(ctx, tx, userID, bookingID, pts).Error(0)
}

func (m *MockPoints) Award(ctx context.Context, tx *sqlx.Tx, userID, bookingID, pts int) error {
	return m.Called(ctx, tx, userID, bookingID, pts).Error(0)
}

func (m *MockPoints) Restore(ctx context.Context, tx *sqlx.Tx, userID, bookingID int) (int, error) {
	args := m.Called(ctx, tx, userID, bookingID)
	return args.Int(0), args.Error(1)
}

type MockWallets struct {
	mock.Mock
	wallet.Service
}

func (m *MockWallets) Post(ctx context.Context, tx *sqlx.Tx, e wallet.Entry) (*wallet.Transaction, error) {
	args := m.Called(ctx, tx, e)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*wallet.Transaction), args.Error(1)
}

type MockPayments struct {
	mock.Mock
	payment.Service
}

func (m *MockPayments) Initiate(ctx context.Context, tx *sqlx.Tx, req payment.InitiateRequest) (*payment.Checkout, error) {
	args := m.Called(ctx, tx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Checkout), args.Error(1)
}

type MockInvoices struct {
	mock.Mock
	invoice.Service
}

func (m *MockInvoices) Generate(ctx context.Context, tx *sqlx.Tx, src invoice.Source) (*invoice.Invoice, error) {
	args := m.Called(ctx, tx, src)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*invoice.Invoice), args.Error(1)
}

type MockSettlement struct {
	mock.Mock
	settlement.Service
}

func (m *MockSettlement) Hold(ctx context.Context, tx *sqlx.Tx, inv *invoice.Invoice) (*settlement.Hold, error) {
	args := m.Called(ctx, tx, inv)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*settlement.Hold), args.Error(1)
}

func (m *MockSettlement) Reverse(ctx context.Context, tx *sqlx.Tx, bookingID int) (*settlement.Hold, error) {
	args := m.Called(ctx, tx, bookingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*settlement.Hold), args.Error(1)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, topic string, e events.Event) error {
	return m.Called(ctx, topic, e).Error(0)
}

type inlineTx struct{}

func (inlineTx) WithinTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	return fn(nil)
}

type fixture struct {
	repo       *MockRepository
	catalog    *MockCatalog
	commission *MockCommission
	coupons    *MockCoupons
	points     *MockPoints
	wallets    *MockWallets
	payments   *MockPayments
	invoices   *MockInvoices
	settlement *MockSettlement
	publisher  *MockPublisher
	svc        *service
}

var fixedNow = time.Date(2026, 5, 10, 9, 0, 0, 0, time.UTC)

func newFixture() *fixture {
	f := &fixture{
		repo:       new(MockRepository),
		catalog:    new(MockCatalog),
		commission: new(MockCommission),
		coupons:    new(MockCoupons),
		points:     new(MockPoints),
		wallets:    new(MockWallets),
		payments:   new(MockPayments),
		invoices:   new(MockInvoices),
		settlement: new(MockSettlement),
		publisher:  new(MockPublisher),
	}
	f.publisher.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()

	f.svc = NewService(Deps{
		Repo:       f.repo,
		Tx:         inlineTx{},
		Catalog:    f.catalog,
		Commission: f.commission,
		Coupons:    f.coupons,
		Points:     f.points,
		Wallets:    f.wallets,
		Payments:   f.payments,
		Invoices:   f.invoices,
		Settlement: f.settlement,
		Publisher:  f.publisher,
	}, Options{
		Currency:      "SAR",
		PointValue:    decimal.RequireFromString("0.10"),
		PointsPerUnit: decimal.RequireFromString("0.1"),
	}).(*service)
	f.svc.now = func() time.Time { return fixedNow }

	return f
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }
