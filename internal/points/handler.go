package points

import (
	"net/http"

	"marketplace/internal/api"
	"marketplace/internal/auth"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// GetBalance godoc
// @Summary      Loyalty points balance
// @Tags         points
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  api.Response{data=BalanceResponse}
// @Router       /points [get]
func (h *Handler) GetBalance(c *gin.Context) {
	userID, _ := auth.GetUserID(c)

	balance, err := h.service.Balance(c.Request.Context(), userID)
	if err != nil {
		api.Fail(c, http.StatusInternalServerError, "Failed to load points")
		return
	}

	api.OK(c, "ok", BalanceResponse{Balance: balance})
}

// GetHistory godoc
// @Summary      Loyalty points history
// @Tags         points
// @Security     BearerAuth
// @Produce      json
// @Param        limit   query     int  false  "Page size"
// @Param        offset  query     int  false  "Offset"
// @Success      200     {object}  api.Response{data=[]Entry}
// @Router       /points/history [get]
func (h *Handler) GetHistory(c *gin.Context) {
	userID, _ := auth.GetUserID(c)
	limit, offset := api.Page(c)

	entries, err := h.service.History(c.Request.Context(), userID, limit, offset)
	if err != nil {
		api.Fail(c, http.StatusInternalServerError, "Failed to load points history")
		return
	}

	api.OK(c, "ok", entries)
}
