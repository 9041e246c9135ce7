package coupon

import (
	"errors"
	"net/http"

	"marketplace/internal/api"
	"marketplace/internal/logger"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// Create godoc
// @Summary      Create coupon
// @Tags         admin
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        request  body      CreateCouponRequest  true  "Coupon"
// @Success      201      {object}  api.Response{data=Coupon}
// @Failure      409      {object}  api.Response
// @Failure      422      {object}  api.Response
// @Router       /admin/coupons [post]
func (h *Handler) Create(c *gin.Context) {
	var req CreateCouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.BindError(c, err)
		return
	}

	cp, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		h.fail(c, err)
		return
	}

	api.Created(c, "coupon created", cp)
}

// List godoc
// @Summary      List coupons
// @Tags         admin
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  api.Response{data=[]Coupon}
// @Router       /admin/coupons [get]
func (h *Handler) List(c *gin.Context) {
	limit, offset := api.Page(c)
	coupons, err := h.service.List(c.Request.Context(), limit, offset)
	if err != nil {
		h.fail(c, err)
		return
	}

	api.OK(c, "ok", coupons)
}

// Validate godoc
// @Summary      Check a coupon
// @Description  Prices a coupon against a subtotal without consuming it.
// @Tags         coupons
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        request  body      ValidateRequest  true  "Code and subtotal"
// @Success      200      {object}  api.Response{data=ValidateResponse}
// @Failure      404      {object}  api.Response
// @Failure      422      {object}  api.Response
// @Router       /coupons/validate [post]
func (h *Handler) Validate(c *gin.Context) {
	var req ValidateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.BindError(c, err)
		return
	}

	cp, discount, err := h.service.Lookup(c.Request.Context(), req.Code, req.Subtotal)
	if err != nil {
		h.fail(c, err)
		return
	}

	api.OK(c, "coupon applicable", ValidateResponse{Code: cp.Code, Discount: discount})
}

func (h *Handler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrCouponNotFound):
		api.Fail(c, http.StatusNotFound, err.Error())
	case errors.Is(err, ErrCodeTaken):
		api.Fail(c, http.StatusConflict, err.Error())
	case errors.Is(err, ErrCouponInactive), errors.Is(err, ErrCouponExpired),
		errors.Is(err, ErrCouponExhausted), errors.Is(err, ErrMinOrderNotMet),
		errors.Is(err, ErrInvalidValue), errors.Is(err, ErrInvalidWindow):
		api.Fail(c, http.StatusUnprocessableEntity, err.Error())
	default:
		logger.Errorf("coupon: %v", err)
		api.Fail(c, http.StatusInternalServerError, "internal error")
	}
}
