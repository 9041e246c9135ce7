package user

import (
	"context"
	"errors"
	"testing"

	"marketplace/internal/auth"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var testTokens = auth.NewTokenIssuer("access-secret", "refresh-secret")

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Create(ctx context.Context, u *User) (*User, error) {
	args := m.Called(ctx, u)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*User), args.Error(1)
}

func (m *MockRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*User), args.Error(1)
}

func (m *MockRepository) FindByID(ctx context.Context, id int) (*User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*User), args.Error(1)
}

func (m *MockRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

func (m *MockRepository) SoftDelete(ctx context.Context, id int) error {
	return m.Called(ctx, id).Error(0)
}

func TestService_Register(t *testing.T) {
	tests := []struct {
		name          string
		req           RegisterRequest
		setupMock     func(*MockRepository)
		expectedType  string
		expectedError error
	}{
		{
			name: "customer by default",
			req: RegisterRequest{
				Name:     "Test User",
				Email:    "Test@Example.com ",
				Password: "password123",
			},
			setupMock: func(m *MockRepository) {
				m.On("EmailExists", mock.Anything, "test@example.com").Return(false, nil)
				m.On("Create", mock.Anything, mock.MatchedBy(func(u *User) bool {
					return u.Type == auth.RoleCustomer && u.PasswordHash != "" && u.PasswordHash != "password123"
				})).Return(&User{ID: 1, Name: "Test User", Email: "test@example.com", Type: auth.RoleCustomer}, nil)
			},
			expectedType: auth.RoleCustomer,
		},
		{
			name: "provider with company",
			req: RegisterRequest{
				Name:        "Hall Owner",
				Email:       "hall@example.com",
				Password:    "password123",
				Type:        auth.RoleProvider,
				CompanyName: "Grand Hall",
			},
			setupMock: func(m *MockRepository) {
				m.On("EmailExists", mock.Anything, "hall@example.com").Return(false, nil)
				m.On("Create", mock.Anything, mock.MatchedBy(func(u *User) bool {
					return u.Type == auth.RoleProvider && u.CompanyName != nil && *u.CompanyName == "Grand Hall"
				})).Return(&User{ID: 2, Email: "hall@example.com", Type: auth.RoleProvider}, nil)
			},
			expectedType: auth.RoleProvider,
		},
		{
			name: "email already exists",
			req: RegisterRequest{
				Name:     "Test User",
				Email:    "existing@example.com",
				Password: "password123",
			},
			setupMock: func(m *MockRepository) {
				m.On("EmailExists", mock.Anything, "existing@example.com").Return(true, nil)
			},
			expectedError: ErrEmailExists,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockRepository)
			tt.setupMock(mockRepo)

			service := NewService(mockRepo, testTokens)
			resp, err := service.Register(context.Background(), tt.req)

			if tt.expectedError != nil {
				assert.Equal(t, tt.expectedError, err)
				assert.Nil(t, resp)
			} else {
				require.NoError(t, err)
				assert.NotEmpty(t, resp.AccessToken)
				assert.NotEmpty(t, resp.RefreshToken)
				assert.Equal(t, tt.expectedType, resp.User.Type)

				claims, err := testTokens.Parse(resp.AccessToken, auth.KindAccess)
				require.NoError(t, err)
				assert.Equal(t, tt.expectedType, claims.Role)
			}

			mockRepo.AssertExpectations(t)
		})
	}
}

func TestService_Login(t *testing.T) {
	passwordHash, _ := auth.HashPassword("password123")

	tests := []struct {
		name          string
		req           LoginRequest
		setupMock     func(*MockRepository)
		expectedError error
	}{
		{
			name: "successful login",
			req:  LoginRequest{Email: "test@example.com", Password: "password123"},
			setupMock: func(m *MockRepository) {
				m.On("FindByEmail", mock.Anything, "test@example.com").Return(&User{
					ID:           1,
					Email:        "test@example.com",
					PasswordHash: passwordHash,
					Type:         auth.RoleCustomer,
				}, nil)
			},
		},
		{
			name: "wrong password",
			req:  LoginRequest{Email: "test@example.com", Password: "nope"},
			setupMock: func(m *MockRepository) {
				m.On("FindByEmail", mock.Anything, "test@example.com").Return(&User{
					ID:           1,
					PasswordHash: passwordHash,
				}, nil)
			},
			expectedError: ErrInvalidCredentials,
		},
		{
			name: "user not found",
			req:  LoginRequest{Email: "notfound@example.com", Password: "password123"},
			setupMock: func(m *MockRepository) {
				m.On("FindByEmail", mock.Anything, "notfound@example.com").Return(nil, ErrUserNotFound)
			},
			expectedError: ErrInvalidCredentials,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockRepository)
			tt.setupMock(mockRepo)

			service := NewService(mockRepo, testTokens)
			resp, err := service.Login(context.Background(), tt.req)

			if tt.expectedError != nil {
				assert.Equal(t, tt.expectedError, err)
				assert.Nil(t, resp)
			} else {
				require.NoError(t, err)
				assert.NotEmpty(t, resp.AccessToken)
				assert.Equal(t, 1, resp.User.ID)
			}

			mockRepo.AssertExpectations(t)
		})
	}
}

func TestService_RefreshToken(t *testing.T) {
	t.Run("reissues with stored type", func(t *testing.T) {
		mockRepo := new(MockRepository)
		mockRepo.On("FindByID", mock.Anything, 5).Return(&User{ID: 5, Email: "p@example.com", Type: auth.RoleProvider}, nil)

		pair, _ := testTokens.Pair(auth.Identity{UserID: 5, Email: "p@example.com", Role: auth.RoleCustomer})
		refresh := pair.RefreshToken
		service := NewService(mockRepo, testTokens)

		token, u, err := service.RefreshToken(context.Background(), refresh)
		require.NoError(t, err)
		assert.Equal(t, 5, u.ID)

		claims, err := testTokens.Parse(token, auth.KindAccess)
		require.NoError(t, err)
		assert.Equal(t, auth.RoleProvider, claims.Role)
	})

	t.Run("deleted user", func(t *testing.T) {
		mockRepo := new(MockRepository)
		mockRepo.On("FindByID", mock.Anything, 5).Return(nil, ErrUserNotFound)

		pair, _ := testTokens.Pair(auth.Identity{UserID: 5, Email: "p@example.com", Role: auth.RoleCustomer})
		refresh := pair.RefreshToken
		service := NewService(mockRepo, testTokens)

		_, _, err := service.RefreshToken(context.Background(), refresh)
		assert.ErrorIs(t, err, ErrUserNotFound)
	})

	t.Run("access token rejected", func(t *testing.T) {
		access, _ := auth.NewTokenIssuer("refresh-secret", "refresh-secret").Access(auth.Identity{UserID: 5, Role: auth.RoleCustomer})
		service := NewService(new(MockRepository), testTokens)

		_, _, err := service.RefreshToken(context.Background(), access)
		assert.ErrorIs(t, err, auth.ErrInvalidTokenType)
	})
}

func TestService_CreateAdmin(t *testing.T) {
	mockRepo := new(MockRepository)
	mockRepo.On("EmailExists", mock.Anything, "root@example.com").Return(false, nil)
	mockRepo.On("Create", mock.Anything, mock.MatchedBy(func(u *User) bool {
		return u.Type == auth.RoleAdmin
	})).Return(&User{ID: 1, Type: auth.RoleAdmin}, nil)

	service := NewService(mockRepo, testTokens)
	u, err := service.CreateAdmin(context.Background(), "Root", "root@example.com", "password123")

	require.NoError(t, err)
	assert.Equal(t, auth.RoleAdmin, u.Type)
	mockRepo.AssertExpectations(t)
}

func TestService_GetByID(t *testing.T) {
	mockRepo := new(MockRepository)
	mockRepo.On("FindByID", mock.Anything, 1).Return(&User{ID: 1, Name: "Test User"}, nil)
	mockRepo.On("FindByID", mock.Anything, 2).Return(nil, errors.New("db down"))

	service := NewService(mockRepo, testTokens)

	u, err := service.GetByID(context.Background(), 1)
	assert.NoError(t, err)
	assert.Equal(t, 1, u.ID)

	_, err = service.GetByID(context.Background(), 2)
	assert.Error(t, err)
	mockRepo.AssertExpectations(t)
}
