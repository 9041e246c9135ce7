package wallet

import (
	"errors"
	"net/http"

	"marketplace/internal/api"
	"marketplace/internal/auth"
	"marketplace/internal/logger"
	"marketplace/internal/payment"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// GetBalance godoc
// @Summary      My wallet
// @Tags         wallet
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  api.Response{data=Wallet}
// @Router       /wallet [get]
func (h *Handler) GetBalance(c *gin.Context) {
	userID, _ := auth.GetUserID(c)

	w, err := h.service.Get(c.Request.Context(), userID)
	if err != nil {
		logger.Errorf("load wallet for user %d: %v", userID, err)
		api.Fail(c, http.StatusInternalServerError, "Failed to load wallet")
		return
	}

	api.OK(c, "ok", w)
}

// GetTransactions godoc
// @Summary      My wallet ledger
// @Tags         wallet
// @Security     BearerAuth
// @Produce      json
// @Param        limit   query     int  false  "Page size"
// @Param        offset  query     int  false  "Offset"
// @Success      200     {object}  api.Response{data=[]Transaction}
// @Router       /wallet/transactions [get]
func (h *Handler) GetTransactions(c *gin.Context) {
	userID, _ := auth.GetUserID(c)
	limit, offset := api.Page(c)

	txs, err := h.service.Transactions(c.Request.Context(), userID, limit, offset)
	if err != nil {
		api.Fail(c, http.StatusInternalServerError, "Failed to load transactions")
		return
	}

	api.OK(c, "ok", txs)
}

// TopUp godoc
// @Summary      Top up the wallet through the payment gateway
// @Description  Returns the hosted payment page URL. The wallet is credited when the gateway confirms the charge.
// @Tags         wallet
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        request  body      TopUpRequest  true  "Amount and currency"
// @Success      201      {object}  api.Response{data=payment.Checkout}
// @Failure      422      {object}  api.Response
// @Failure      502      {object}  api.Response
// @Router       /wallet/topup [post]
func (h *Handler) TopUp(c *gin.Context) {
	userID, _ := auth.GetUserID(c)

	var req TopUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.BindError(c, err)
		return
	}

	checkout, err := h.service.InitiateTopUp(c.Request.Context(), userID, payment.Customer{Email: auth.GetUserEmail(c)}, req)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidAmount), errors.Is(err, ErrUnsupportedCurrency):
			api.Fail(c, http.StatusUnprocessableEntity, err.Error())
		default:
			logger.Errorf("wallet top-up for user %d: %v", userID, err)
			api.Fail(c, http.StatusBadGateway, "Failed to start payment")
		}
		return
	}

	api.Created(c, "top-up initiated", checkout)
}

// Transfer godoc
// @Summary      Send wallet funds to another user
// @Tags         wallet
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        request  body      TransferRequest  true  "Recipient and amount"
// @Success      200      {object}  api.Response{data=TransferResult}
// @Failure      409      {object}  api.Response
// @Failure      422      {object}  api.Response
// @Router       /wallet/transfer [post]
func (h *Handler) Transfer(c *gin.Context) {
	userID, _ := auth.GetUserID(c)

	var req TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.BindError(c, err)
		return
	}

	result, err := h.service.Transfer(c.Request.Context(), userID, req)
	if err != nil {
		switch {
		case errors.Is(err, ErrInsufficientBalance):
			api.Fail(c, http.StatusConflict, err.Error())
		case errors.Is(err, ErrRecipientNotFound):
			api.Fail(c, http.StatusNotFound, err.Error())
		case errors.Is(err, ErrSelfTransfer), errors.Is(err, ErrInvalidAmount):
			api.Fail(c, http.StatusUnprocessableEntity, err.Error())
		default:
			logger.Errorf("wallet transfer from user %d: %v", userID, err)
			api.Fail(c, http.StatusInternalServerError, "Transfer failed")
		}
		return
	}

	api.OK(c, "transfer completed", result)
}
