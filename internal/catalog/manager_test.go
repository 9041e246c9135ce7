package catalog

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Create(ctx context.Context, s *Service) (*Service, error) {
	args := m.Called(ctx, s)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Service), args.Error(1)
}

func (m *MockRepository) GetByID(ctx context.Context, id int) (*Service, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Service), args.Error(1)
}

func (m *MockRepository) GetByIDs(ctx context.Context, ids []int) ([]Service, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Service), args.Error(1)
}

func (m *MockRepository) List(ctx context.Context, f ListFilter) ([]Service, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Service), args.Error(1)
}

func (m *MockRepository) Update(ctx context.Context, s *Service) (*Service, error) {
	args := m.Called(ctx, s)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Service), args.Error(1)
}

func (m *MockRepository) SoftDelete(ctx context.Context, id int) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	args := m.Called(ctx, slug)
	return args.Bool(0), args.Error(1)
}

func TestManager_Create(t *testing.T) {
	t.Run("defaults and slug suffix", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("SlugExists", mock.Anything, "grand-ballroom").Return(true, nil)
		repo.On("SlugExists", mock.Anything, "grand-ballroom-2").Return(false, nil)
		repo.On("Create", mock.Anything, mock.Anything).Return(&Service{ID: 1}, nil)

		m := NewManager(repo, "SAR")
		_, err := m.Create(context.Background(), 7, CreateServiceRequest{
			Kind:  KindEvent,
			Title: "Grand Ballroom",
			Price: decimal.RequireFromString("1000.555"),
		})
		require.NoError(t, err)

		created := repo.Calls[2].Arguments.Get(1).(*Service)
		assert.Equal(t, "grand-ballroom-2", created.Slug)
		assert.Equal(t, 7, created.ProviderID)
		assert.Equal(t, UnitFlat, created.PriceUnit)
		assert.Equal(t, "SAR", created.Currency)
		assert.Equal(t, "1000.56", created.Price.StringFixed(2))
		assert.JSONEq(t, `{}`, string(created.Details))
		repo.AssertExpectations(t)
	})

	t.Run("negative price", func(t *testing.T) {
		m := NewManager(new(MockRepository), "SAR")
		_, err := m.Create(context.Background(), 7, CreateServiceRequest{
			Kind:  KindEvent,
			Title: "Hall",
			Price: decimal.NewFromInt(-1),
		})
		assert.ErrorIs(t, err, ErrInvalidPrice)
	})

	t.Run("details must be an object", func(t *testing.T) {
		m := NewManager(new(MockRepository), "SAR")
		_, err := m.Create(context.Background(), 7, CreateServiceRequest{
			Kind:    KindCatering,
			Title:   "Buffet",
			Price:   decimal.NewFromInt(10),
			Details: json.RawMessage(`[1,2]`),
		})
		assert.ErrorIs(t, err, ErrInvalidDetails)
	})
}

func TestManager_Update(t *testing.T) {
	newPrice := decimal.RequireFromString("80")
	inactive := false

	t.Run("owner updates", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("GetByID", mock.Anything, 3).Return(&Service{ID: 3, ProviderID: 7, Price: decimal.NewFromInt(100), Active: true}, nil)
		repo.On("Update", mock.Anything, mock.MatchedBy(func(s *Service) bool {
			return s.Price.Equal(newPrice) && !s.Active
		})).Return(&Service{ID: 3, Price: newPrice}, nil)

		svc, err := NewManager(repo, "SAR").Update(context.Background(), 7, 3, UpdateServiceRequest{Price: &newPrice, Active: &inactive})
		require.NoError(t, err)
		assert.Equal(t, "80.00", svc.Price.StringFixed(2))
		repo.AssertExpectations(t)
	})

	t.Run("other provider", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("GetByID", mock.Anything, 3).Return(&Service{ID: 3, ProviderID: 8}, nil)

		_, err := NewManager(repo, "SAR").Update(context.Background(), 7, 3, UpdateServiceRequest{Price: &newPrice})
		assert.ErrorIs(t, err, ErrNotOwner)
		repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})
}

func TestManager_Delete(t *testing.T) {
	repo := new(MockRepository)
	repo.On("GetByID", mock.Anything, 3).Return(&Service{ID: 3, ProviderID: 8}, nil)
	repo.On("SoftDelete", mock.Anything, 3).Return(nil)
	m := NewManager(repo, "SAR")

	assert.ErrorIs(t, m.Delete(context.Background(), 7, 3, false), ErrNotOwner)
	assert.NoError(t, m.Delete(context.Background(), 1, 3, true))
	repo.AssertNumberOfCalls(t, "SoftDelete", 1)
}

func TestManager_ListNeverNil(t *testing.T) {
	repo := new(MockRepository)
	repo.On("List", mock.Anything, ListFilter{Kind: KindProperty, Limit: 20}).Return(nil, nil)

	services, err := NewManager(repo, "SAR").List(context.Background(), ListFilter{Kind: KindProperty, Limit: 20})
	require.NoError(t, err)
	assert.NotNil(t, services)
	assert.Empty(t, services)
}

func TestManager_GetMany(t *testing.T) {
	repo := new(MockRepository)
	repo.On("GetByIDs", mock.Anything, []int{1, 2, 3}).Return([]Service{{ID: 1, Title: "Hall"}, {ID: 3, Title: "Villa"}}, nil)

	services, err := NewManager(repo, "SAR").GetMany(context.Background(), []int{1, 2, 3})
	require.NoError(t, err)
	assert.Len(t, services, 2)
	assert.Equal(t, "Villa", services[3].Title)
	assert.NotContains(t, services, 2)
}
