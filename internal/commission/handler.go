package commission

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

// CreateRule godoc
// @Summary      Create commission rule
// @Tags         admin
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        request  body      CreateRuleRequest  true  "Rule"
// @Success      201      {object}  api.Response{data=Rule}
// @Failure      422      {object}  api.Response
// @Router       /admin/commission-rules [post]
func (h *Handler) CreateRule(c *gin.Context) {
	var req CreateRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.BindError(c, err)
		return
	}

	rule, err := h.service.CreateRule(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, ErrInvalidRule) {
			api.Fail(c, http.StatusUnprocessableEntity, err.Error())
			return
		}
		logger.Errorf("create commission rule: %v", err)
		api.Fail(c, http.StatusInternalServerError, "Failed to create rule")
		return
	}

	api.Created(c, "rule created", rule)
}

// ListRules godoc
// @Summary      List commission rules
// @Tags         admin
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  api.Response{data=[]Rule}
// @Router       /admin/commission-rules [get]
func (h *Handler) ListRules(c *gin.Context) {
	limit, offset := api.Page(c)
	rules, err := h.service.ListRules(c.Request.Context(), limit, offset)
	if err != nil {
		api.Fail(c, http.StatusInternalServerError, "Failed to list rules")
		return
	}

	api.OK(c, "ok", rules)
}

// DeactivateRule godoc
// @Summary      Deactivate commission rule
// @Tags         admin
// @Security     BearerAuth
// @Param        id   path      int  true  "Rule ID"
// @Success      200  {object}  api.Response
// @Failure      404  {object}  api.Response
// @Router       /admin/commission-rules/{id} [delete]
func (h *Handler) DeactivateRule(c *gin.Context) {
	id, ok := api.IDParam(c, "id")
	if !ok {
		return
	}

	if err := h.service.DeactivateRule(c.Request.Context(), id); err != nil {
		if errors.Is(err, ErrRuleNotFound) {
			api.Fail(c, http.StatusNotFound, err.Error())
			return
		}
		api.Fail(c, http.StatusInternalServerError, "Failed to deactivate rule")
		return
	}

	api.OK(c, "rule deactivated", nil)
}
