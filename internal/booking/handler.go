package booking

import (
	"errors"
	"net/http"

	"marketplace/internal/api"
	"marketplace/internal/auth"
	"marketplace/internal/coupon"
	"marketplace/internal/logger"
	"marketplace/internal/payment"
	"marketplace/internal/points"
	"marketplace/internal/pricing"
	"marketplace/internal/wallet"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func actorOf(c *gin.Context) Actor {
	id, _ := auth.GetUserID(c)
	role, _ := auth.GetUserRole(c)
	return Actor{UserID: id, Role: role}
}

func fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrBookingNotFound):
		api.Fail(c, http.StatusNotFound, err.Error())
	case errors.Is(err, ErrNotOwner):
		api.Fail(c, http.StatusForbidden, err.Error())
	case errors.Is(err, ErrCannotCancel), errors.Is(err, ErrCannotComplete),
		errors.Is(err, wallet.ErrInsufficientBalance), errors.Is(err, points.ErrInsufficientPoints),
		errors.Is(err, coupon.ErrCouponExhausted):
		api.Fail(c, http.StatusConflict, err.Error())
	case errors.Is(err, ErrServiceUnavailable), errors.Is(err, ErrOwnService), errors.Is(err, ErrStartInPast),
		errors.Is(err, ErrInvalidDate), errors.Is(err, pricing.ErrInvalidDates), errors.Is(err, pricing.ErrInvalidQuantity),
		errors.Is(err, coupon.ErrCouponNotFound), errors.Is(err, coupon.ErrCouponInactive),
		errors.Is(err, coupon.ErrCouponExpired), errors.Is(err, coupon.ErrMinOrderNotMet),
		errors.Is(err, wallet.ErrUnsupportedCurrency):
		api.Fail(c, http.StatusUnprocessableEntity, err.Error())
	default:
		logger.Errorf("booking request failed: %v", err)
		api.Fail(c, http.StatusInternalServerError, "Booking request failed")
	}
}

// Quote godoc
// @Summary      Price a cart without booking it
// @Tags         bookings
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        request  body      QuoteRequest  true  "Items, coupon and points"
// @Success      200      {object}  api.Response{data=pricing.Quote}
// @Failure      422      {object}  api.Response
// @Router       /bookings/quote [post]
func (h *Handler) Quote(c *gin.Context) {
	var req QuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.BindError(c, err)
		return
	}

	userID, _ := auth.GetUserID(c)
	q, err := h.service.Quote(c.Request.Context(), userID, req)
	if err != nil {
		fail(c, err)
		return
	}

	api.OK(c, "ok", q)
}

// Checkout godoc
// @Summary      Book one or more services
// @Description  Wallet checkouts are confirmed immediately. Gateway checkouts return a payment URL and stay pending until the gateway confirms.
// @Tags         bookings
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        request  body      CheckoutRequest  true  "Items, adjustments and payment method"
// @Success      201      {object}  api.Response{data=CheckoutResult}
// @Failure      409      {object}  api.Response
// @Failure      422      {object}  api.Response
// @Router       /bookings/checkout [post]
func (h *Handler) Checkout(c *gin.Context) {
	var req CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.BindError(c, err)
		return
	}

	userID, _ := auth.GetUserID(c)
	result, err := h.service.Checkout(c.Request.Context(), userID, payment.Customer{Email: auth.GetUserEmail(c)}, req)
	if err != nil {
		fail(c, err)
		return
	}

	api.Created(c, "checkout completed", result)
}

// ListMine godoc
// @Summary      My bookings
// @Tags         bookings
// @Security     BearerAuth
// @Produce      json
// @Param        status  query     string  false  "Status filter"
// @Param        limit   query     int     false  "Page size"
// @Param        offset  query     int     false  "Offset"
// @Success      200     {object}  api.Response{data=[]Booking}
// @Router       /bookings [get]
func (h *Handler) ListMine(c *gin.Context) {
	userID, _ := auth.GetUserID(c)
	limit, offset := api.Page(c)

	h.list(c, ListFilter{UserID: userID, Status: c.Query("status"), Limit: limit, Offset: offset})
}

// ListForProvider godoc
// @Summary      Bookings of my services
// @Tags         provider
// @Security     BearerAuth
// @Produce      json
// @Param        status  query     string  false  "Status filter"
// @Param        limit   query     int     false  "Page size"
// @Param        offset  query     int     false  "Offset"
// @Success      200     {object}  api.Response{data=[]Booking}
// @Router       /provider/bookings [get]
func (h *Handler) ListForProvider(c *gin.Context) {
	providerID, _ := auth.GetUserID(c)
	limit, offset := api.Page(c)

	h.list(c, ListFilter{ProviderID: providerID, Status: c.Query("status"), Limit: limit, Offset: offset})
}

// ListByService godoc
// @Summary      Bookings of a service
// @Tags         admin
// @Security     BearerAuth
// @Produce      json
// @Param        id      path      int     true   "Service ID"
// @Param        status  query     string  false  "Status filter"
// @Success      200     {object}  api.Response{data=[]Booking}
// @Router       /admin/services/{id}/bookings [get]
func (h *Handler) ListByService(c *gin.Context) {
	serviceID, ok := api.IDParam(c, "id")
	if !ok {
		return
	}
	limit, offset := api.Page(c)

	h.list(c, ListFilter{ServiceID: serviceID, Status: c.Query("status"), Limit: limit, Offset: offset})
}

func (h *Handler) list(c *gin.Context, f ListFilter) {
	bookings, err := h.service.List(c.Request.Context(), f)
	if err != nil {
		fail(c, err)
		return
	}

	api.OK(c, "ok", bookings)
}

// Get godoc
// @Summary      Booking by id
// @Tags         bookings
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      int  true  "Booking ID"
// @Success      200  {object}  api.Response{data=Booking}
// @Failure      403  {object}  api.Response
// @Failure      404  {object}  api.Response
// @Router       /bookings/{id} [get]
func (h *Handler) Get(c *gin.Context) {
	id, ok := api.IDParam(c, "id")
	if !ok {
		return
	}

	b, err := h.service.Get(c.Request.Context(), actorOf(c), id)
	if err != nil {
		fail(c, err)
		return
	}

	api.OK(c, "ok", b)
}

// Cancel godoc
// @Summary      Cancel my booking
// @Description  Paid bookings are refunded to the wallet.
// @Tags         bookings
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      int  true  "Booking ID"
// @Success      200  {object}  api.Response{data=Booking}
// @Failure      403  {object}  api.Response
// @Failure      404  {object}  api.Response
// @Failure      409  {object}  api.Response
// @Router       /bookings/{id}/cancel [post]
func (h *Handler) Cancel(c *gin.Context) {
	id, ok := api.IDParam(c, "id")
	if !ok {
		return
	}

	userID, _ := auth.GetUserID(c)
	b, err := h.service.Cancel(c.Request.Context(), userID, id)
	if err != nil {
		fail(c, err)
		return
	}

	api.OK(c, "booking cancelled", b)
}

// Complete godoc
// @Summary      Mark a confirmed booking completed
// @Description  Generates the invoice and places the provider share in escrow.
// @Tags         provider
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      int  true  "Booking ID"
// @Success      200  {object}  api.Response{data=Booking}
// @Failure      403  {object}  api.Response
// @Failure      404  {object}  api.Response
// @Failure      409  {object}  api.Response
// @Router       /provider/bookings/{id}/complete [post]
func (h *Handler) Complete(c *gin.Context) {
	id, ok := api.IDParam(c, "id")
	if !ok {
		return
	}

	b, err := h.service.Complete(c.Request.Context(), actorOf(c), id)
	if err != nil {
		fail(c, err)
		return
	}

	api.OK(c, "booking completed", b)
}
