package webhook

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"marketplace/internal/payment"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

const testSecret = "whsec_test"

func sendWebhook(svc Service, body, signature string) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/webhooks/tap", NewHandler(svc, testSecret).Tap)

	req := httptest.NewRequest(http.MethodPost, "/webhooks/tap", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	if signature != "" {
		req.Header.Set(SignatureHeader, signature)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHandler_Tap(t *testing.T) {
	body := `{"type":"charge.captured","data":{"id":"chg_1","amount":230,"metadata":{"type":"booking"}}}`

	t.Run("bad signature", func(t *testing.T) {
		svc := new(MockService)
		w := sendWebhook(svc, body, Sign("wrong", []byte(body)))

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.JSONEq(t, `{"success":false,"message":"invalid signature"}`, w.Body.String())
		svc.AssertNotCalled(t, "Process", mock.Anything, mock.Anything)
	})

	t.Run("missing signature", func(t *testing.T) {
		w := sendWebhook(new(MockService), body, "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("processed", func(t *testing.T) {
		svc := new(MockService)
		svc.On("Process", mock.Anything, mock.MatchedBy(func(n Notification) bool {
			return n.Type == EventCaptured && n.ChargeID == "chg_1" && n.MetadataType == "booking"
		})).Return(&Result{Outcome: OutcomeProcessed}, nil)

		w := sendWebhook(svc, body, Sign(testSecret, []byte(body)))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"success":true,"message":"processed"}`, w.Body.String())
	})

	t.Run("unknown charge", func(t *testing.T) {
		svc := new(MockService)
		svc.On("Process", mock.Anything, mock.Anything).Return(nil, payment.ErrTransactionNotFound)

		w := sendWebhook(svc, body, Sign(testSecret, []byte(body)))
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("processing error", func(t *testing.T) {
		svc := new(MockService)
		svc.On("Process", mock.Anything, mock.Anything).Return(nil, assert.AnError)

		w := sendWebhook(svc, body, Sign(testSecret, []byte(body)))
		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})

	t.Run("signed garbage", func(t *testing.T) {
		garbage := `not json`
		w := sendWebhook(new(MockService), garbage, Sign(testSecret, []byte(garbage)))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
