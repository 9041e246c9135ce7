package settlement

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

// List godoc
// @Summary      Escrow holds
// @Tags         admin
// @Security     BearerAuth
// @Produce      json
// @Param        provider_id  query     int     false  "Provider filter"
// @Param        status       query     string  false  "held or released"
// @Param        limit        query     int     false  "Page size"
// @Param        offset       query     int     false  "Offset"
// @Success      200          {object}  api.Response{data=[]Hold}
// @Router       /admin/settlements [get]
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

// ListMine godoc
// @Summary      Provider's escrow holds
// @Tags         provider
// @Security     BearerAuth
// @Produce      json
// @Param        status  query     string  false  "held or released"
// @Success      200     {object}  api.Response{data=[]Hold}
// @Router       /provider/settlements [get]
func (h *Handler) ListMine(c *gin.Context) {
	providerID, _ := auth.GetUserID(c)
	limit, offset := api.Page(c)

	h.list(c, ListFilter{ProviderID: providerID, Status: c.Query("status"), Limit: limit, Offset: offset})
}

func (h *Handler) list(c *gin.Context, f ListFilter) {
	holds, err := h.service.List(c.Request.Context(), f)
	if err != nil {
		logger.Errorf("list escrow holds: %v", err)
		api.Fail(c, http.StatusInternalServerError, "Failed to load settlements")
		return
	}

	api.OK(c, "ok", holds)
}

// Release godoc
// @Summary      Release an escrow hold to the provider's wallet
// @Tags         admin
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      int  true  "Hold ID"
// @Success      200  {object}  api.Response{data=Hold}
// @Failure      404  {object}  api.Response
// @Failure      409  {object}  api.Response
// @Router       /admin/settlements/{id}/release [post]
func (h *Handler) Release(c *gin.Context) {
	id, ok := api.IDParam(c, "id")
	if !ok {
		return
	}
	adminID, _ := auth.GetUserID(c)

	hold, err := h.service.Release(c.Request.Context(), adminID, id)
	if err != nil {
		switch {
		case errors.Is(err, ErrHoldNotFound):
			api.Fail(c, http.StatusNotFound, err.Error())
		case errors.Is(err, ErrAlreadyReleased), errors.Is(err, ErrHoldReversed), errors.Is(err, ErrBookingRefunded):
			api.Fail(c, http.StatusConflict, err.Error())
		default:
			logger.Errorf("release escrow hold %d: %v", id, err)
			api.Fail(c, http.StatusInternalServerError, "Failed to release settlement")
		}
		return
	}

	api.OK(c, "settlement released", hold)
}
