package payment

import (
	"errors"
	"net/http"

	"marketplace/internal/api"
	"marketplace/internal/auth"
	"marketplace/internal/logger"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// ListMine godoc
// @Summary      My payment transactions
// @Tags         payments
// @Security     BearerAuth
// @Produce      json
// @Param        limit   query     int  false  "Page size"
// @Param        offset  query     int  false  "Offset"
// @Success      200     {object}  api.Response{data=[]Transaction}
// @Router       /payments [get]
func (h *Handler) ListMine(c *gin.Context) {
	userID, _ := auth.GetUserID(c)
	limit, offset := api.Page(c)

	txs, err := h.service.ListByUser(c.Request.Context(), userID, limit, offset)
	if err != nil {
		api.Fail(c, http.StatusInternalServerError, "Failed to load payments")
		return
	}

	api.OK(c, "ok", txs)
}

// Refund godoc
// @Summary      Refund a captured payment
// @Description  Sends a refund request to the gateway; the status changes when the refund webhook arrives.
// @Tags         admin
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      int                   true  "Payment transaction ID"
// @Param        request  body      RefundPaymentRequest  false "Partial amount and reason"
// @Success      202      {object}  api.Response{data=Refund}
// @Failure      404      {object}  api.Response
// @Failure      409      {object}  api.Response
// @Failure      502      {object}  api.Response
// @Router       /admin/payments/{id}/refund [post]
func (h *Handler) Refund(c *gin.Context) {
	id, ok := api.IDParam(c, "id")
	if !ok {
		return
	}

	var req RefundPaymentRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			api.BindError(c, err)
			return
		}
	}

	refund, err := h.service.Refund(c.Request.Context(), id, req)
	if err != nil {
		switch {
		case errors.Is(err, ErrTransactionNotFound):
			api.Fail(c, http.StatusNotFound, err.Error())
		case errors.Is(err, ErrNotRefundable):
			api.Fail(c, http.StatusConflict, err.Error())
		case errors.Is(err, ErrInvalidAmount):
			api.Fail(c, http.StatusUnprocessableEntity, err.Error())
		default:
			logger.Errorf("refund payment %d: %v", id, err)
			api.Fail(c, http.StatusBadGateway, "Gateway refused the refund")
		}
		return
	}

	c.JSON(http.StatusAccepted, api.Response{Success: true, Message: "refund requested", Data: refund})
}
