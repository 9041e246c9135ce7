package webhook

import (
	"errors"
	"io"
	"net/http"

	"marketplace/internal/api"
	"marketplace/internal/logger"
	"marketplace/internal/metrics"
	"marketplace/internal/payment"

	"github.com/gin-gonic/gin"
)

const maxBodyBytes = 1 << 20

type Handler struct {
	service Service
	secret  string
}

func NewHandler(service Service, secret string) *Handler {
	return &Handler{service: service, secret: secret}
}

// Tap godoc
// @Summary      Tap charge webhook
// @Description  Body must be signed with the shared webhook secret (hex HMAC-SHA256 in X-Tap-Signature).
// @Tags         webhooks
// @Accept       json
// @Produce      json
// @Param        X-Tap-Signature  header    string  true  "Hex HMAC-SHA256 of the raw body"
// @Success      200              {object}  api.Response
// @Failure      401              {object}  api.Response
// @Failure      404              {object}  api.Response
// @Failure      500              {object}  api.Response
// @Router       /webhooks/tap [post]
func (h *Handler) Tap(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxBodyBytes))
	if err != nil {
		api.Fail(c, http.StatusBadRequest, "unreadable body")
		return
	}

	if !Verify(h.secret, body, c.GetHeader(SignatureHeader)) {
		logger.Warn("webhook signature mismatch", "remote_ip", c.ClientIP())
		metrics.RecordWebhook("unverified", "rejected")
		api.Fail(c, http.StatusUnauthorized, "invalid signature")
		return
	}

	n, err := Parse(body)
	if err != nil {
		metrics.RecordWebhook("unparsed", "rejected")
		api.Fail(c, http.StatusBadRequest, err.Error())
		return
	}

	res, err := h.service.Process(c.Request.Context(), n)
	if err != nil {
		if errors.Is(err, payment.ErrTransactionNotFound) {
			metrics.RecordWebhook(n.Type, "not_found")
			api.Fail(c, http.StatusNotFound, "transaction not found")
			return
		}
		logger.Error("webhook processing failed", "type", n.Type, "charge_id", n.ChargeID, "error", err)
		metrics.RecordWebhook(n.Type, "error")
		api.Fail(c, http.StatusInternalServerError, "webhook processing failed")
		return
	}

	metrics.RecordWebhook(n.Type, res.Outcome)
	api.OK(c, res.Outcome, nil)
}
