package invoice

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

// Get godoc
// @Summary      Invoice by id
// @Description  Visible to the booking's customer, its provider and admins.
// @Tags         invoices
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      int  true  "Invoice ID"
// @Success      200  {object}  api.Response{data=Invoice}
// @Failure      403  {object}  api.Response
// @Failure      404  {object}  api.Response
// @Router       /invoices/{id} [get]
func (h *Handler) Get(c *gin.Context) {
	id, ok := api.IDParam(c, "id")
	if !ok {
		return
	}

	inv, err := h.service.Get(c.Request.Context(), id)
	h.respond(c, inv, err)
}

// GetByBooking godoc
// @Summary      Invoice of a booking
// @Tags         invoices
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      int  true  "Booking ID"
// @Success      200  {object}  api.Response{data=Invoice}
// @Failure      403  {object}  api.Response
// @Failure      404  {object}  api.Response
// @Router       /bookings/{id}/invoice [get]
func (h *Handler) GetByBooking(c *gin.Context) {
	id, ok := api.IDParam(c, "id")
	if !ok {
		return
	}

	inv, err := h.service.GetByBooking(c.Request.Context(), id)
	h.respond(c, inv, err)
}

func (h *Handler) respond(c *gin.Context, inv *Invoice, err error) {
	if err != nil {
		if errors.Is(err, ErrInvoiceNotFound) {
			api.Fail(c, http.StatusNotFound, err.Error())
			return
		}
		logger.Errorf("load invoice: %v", err)
		api.Fail(c, http.StatusInternalServerError, "Failed to load invoice")
		return
	}

	userID, _ := auth.GetUserID(c)
	role, _ := auth.GetUserRole(c)
	if !inv.VisibleTo(userID, role) {
		api.Fail(c, http.StatusForbidden, "Insufficient permissions")
		return
	}

	api.OK(c, "ok", inv)
}

// ListMine godoc
// @Summary      Provider's invoices
// @Tags         provider
// @Security     BearerAuth
// @Produce      json
// @Param        status  query     string  false  "issued or settled"
// @Param        limit   query     int     false  "Page size"
// @Param        offset  query     int     false  "Offset"
// @Success      200     {object}  api.Response{data=[]Invoice}
// @Router       /provider/invoices [get]
func (h *Handler) ListMine(c *gin.Context) {
	providerID, _ := auth.GetUserID(c)
	limit, offset := api.Page(c)

	h.list(c, ListFilter{ProviderID: providerID, Status: c.Query("status"), Limit: limit, Offset: offset})
}

// List godoc
// @Summary      All invoices
// @Tags         admin
// @Security     BearerAuth
// @Produce      json
// @Param        provider_id  query     int     false  "Provider filter"
// @Param        status       query     string  false  "issued or settled"
// @Param        limit        query     int     false  "Page size"
// @Param        offset       query     int     false  "Offset"
// @Success      200          {object}  api.Response{data=[]Invoice}
// @Router       /admin/invoices [get]
func (h *Handler) List(c *gin.Context) {
	limit, offset := api.Page(c)
	f := ListFilter{Status: c.Query("status"), Limit: limit, Offset: offset}
	if c.Query("provider_id") != "" {
		id, ok := api.IDQuery(c, "provider_id")
		if !ok {
			return
		}
		f.ProviderID = id
	}

	h.list(c, f)
}

func (h *Handler) list(c *gin.Context, f ListFilter) {
	invoices, err := h.service.List(c.Request.Context(), f)
	if err != nil {
		logger.Errorf("list invoices: %v", err)
		api.Fail(c, http.StatusInternalServerError, "Failed to load invoices")
		return
	}

	api.OK(c, "ok", invoices)
}
