package booking

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"marketplace/internal/auth"
	"marketplace/internal/payment"
	"marketplace/internal/pricing"
	"marketplace/internal/wallet"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockService struct {
	mock.Mock
	Service
}

func (m *MockService) Quote(ctx context.Context, userID int, req QuoteRequest) (*pricing.Quote, error) {
	args := m.Called(ctx, userID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*pricing.Quote), args.Error(1)
}

func (m *MockService) Checkout(ctx context.Context, userID int, customer payment.Customer, req CheckoutRequest) (*CheckoutResult, error) {
	args := m.Called(ctx, userID, customer, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*CheckoutResult), args.Error(1)
}

func (m *MockService) Get(ctx context.Context, actor Actor, id int) (*Booking, error) {
	args := m.Called(ctx, actor, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Booking), args.Error(1)
}

func (m *MockService) Cancel(ctx context.Context, userID, bookingID int) (*Booking, error) {
	args := m.Called(ctx, userID, bookingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Booking), args.Error(1)
}

func (m *MockService) Complete(ctx context.Context, actor Actor, bookingID int) (*Booking, error) {
	args := m.Called(ctx, actor, bookingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Booking), args.Error(1)
}

func newBookingRouter(svc Service, userID int, role string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewHandler(svc)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		auth.SetIdentity(c, auth.Identity{UserID: userID, Email: "u@example.com", Role: role})
	})
	r.POST("/bookings/quote", h.Quote)
	r.POST("/bookings/checkout", h.Checkout)
	r.GET("/bookings/:id", h.Get)
	r.POST("/bookings/:id/cancel", h.Cancel)
	r.POST("/provider/bookings/:id/complete", h.Complete)
	return r
}

func postJSON(r *gin.Engine, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHandler_Checkout(t *testing.T) {
	body := `{"items":[{"service_id":1,"start_date":"2026-05-12","end_date":"2026-05-14"}],"payment_method":"wallet"}`

	t.Run("created", func(t *testing.T) {
		svc := new(MockService)
		svc.On("Checkout", mock.Anything, 7, payment.Customer{Email: "u@example.com"}, mock.AnythingOfType("booking.CheckoutRequest")).
			Return(&CheckoutResult{Bookings: []Booking{{ID: 31, Status: StatusConfirmed}}}, nil)

		w := postJSON(newBookingRouter(svc, 7, auth.RoleCustomer), "/bookings/checkout", body)
		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Contains(t, w.Body.String(), `"status":"confirmed"`)
	})

	t.Run("insufficient balance", func(t *testing.T) {
		svc := new(MockService)
		svc.On("Checkout", mock.Anything, 7, mock.Anything, mock.Anything).Return(nil, wallet.ErrInsufficientBalance)

		w := postJSON(newBookingRouter(svc, 7, auth.RoleCustomer), "/bookings/checkout", body)
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("validation", func(t *testing.T) {
		tests := []struct {
			name string
			body string
		}{
			{"no items", `{"items":[],"payment_method":"wallet"}`},
			{"bad method", `{"items":[{"service_id":1,"start_date":"2026-05-12","end_date":"2026-05-14"}],"payment_method":"cash"}`},
			{"bad date", `{"items":[{"service_id":1,"start_date":"12-05-2026","end_date":"2026-05-14"}],"payment_method":"wallet"}`},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				svc := new(MockService)
				w := postJSON(newBookingRouter(svc, 7, auth.RoleCustomer), "/bookings/checkout", tt.body)
				assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
				svc.AssertNotCalled(t, "Checkout", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
			})
		}
	})
}

func TestHandler_Quote(t *testing.T) {
	svc := new(MockService)
	svc.On("Quote", mock.Anything, 7, mock.Anything).Return(nil, ErrStartInPast)

	w := postJSON(newBookingRouter(svc, 7, auth.RoleCustomer), "/bookings/quote",
		`{"items":[{"service_id":1,"start_date":"2020-01-01","end_date":"2020-01-02"}]}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestHandler_ErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"not found", ErrBookingNotFound, http.StatusNotFound},
		{"not owner", ErrNotOwner, http.StatusForbidden},
		{"cannot cancel", ErrCannotCancel, http.StatusConflict},
		{"unexpected", assert.AnError, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			svc.On("Cancel", mock.Anything, 7, 31).Return(nil, tt.err)

			w := postJSON(newBookingRouter(svc, 7, auth.RoleCustomer), "/bookings/31/cancel", "")
			assert.Equal(t, tt.status, w.Code)
		})
	}
}

func TestHandler_Get(t *testing.T) {
	svc := new(MockService)
	svc.On("Get", mock.Anything, Actor{UserID: 7, Role: auth.RoleCustomer}, 31).Return(&Booking{ID: 31, UserID: 7}, nil)

	w := httptest.NewRecorder()
	newBookingRouter(svc, 7, auth.RoleCustomer).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/bookings/31", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	newBookingRouter(svc, 7, auth.RoleCustomer).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/bookings/abc", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandler_Complete(t *testing.T) {
	svc := new(MockService)
	svc.On("Complete", mock.Anything, Actor{UserID: 50, Role: auth.RoleProvider}, 31).Return(nil, ErrCannotComplete)

	w := postJSON(newBookingRouter(svc, 50, auth.RoleProvider), "/provider/bookings/31/complete", "")
	assert.Equal(t, http.StatusConflict, w.Code)
}
