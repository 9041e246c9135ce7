package catalog

import (
	"errors"
	"net/http"

	"marketplace/internal/api"
	"marketplace/internal/auth"
	"marketplace/internal/logger"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	manager Manager
}

func NewHandler(manager Manager) *Handler {
	return &Handler{manager: manager}
}

// List godoc
// @Summary      List services
// @Description  Public listing of active services, optionally filtered by kind.
// @Tags         catalog
// @Produce      json
// @Param        kind    query     string  false  "event | catering | restaurant | property"
// @Param        limit   query     int     false  "Page size"
// @Param        offset  query     int     false  "Offset"
// @Success      200     {object}  api.Response{data=[]Service}
// @Router       /services [get]
func (h *Handler) List(c *gin.Context) {
	limit, offset := api.Page(c)
	services, err := h.manager.List(c.Request.Context(), ListFilter{
		Kind:   c.Query("kind"),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		logger.Errorf("list services: %v", err)
		api.Fail(c, http.StatusInternalServerError, "Failed to list services")
		return
	}

	api.OK(c, "ok", services)
}

// Get godoc
// @Summary      Get service
// @Tags         catalog
// @Produce      json
// @Param        id   path      int  true  "Service ID"
// @Success      200  {object}  api.Response{data=Service}
// @Failure      404  {object}  api.Response
// @Router       /services/{id} [get]
func (h *Handler) Get(c *gin.Context) {
	id, ok := api.IDParam(c, "id")
	if !ok {
		return
	}

	svc, err := h.manager.Get(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}

	api.OK(c, "ok", svc)
}

// Mine godoc
// @Summary      List my services
// @Tags         provider
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  api.Response{data=[]Service}
// @Router       /provider/services [get]
func (h *Handler) Mine(c *gin.Context) {
	providerID, _ := auth.GetUserID(c)
	limit, offset := api.Page(c)

	services, err := h.manager.List(c.Request.Context(), ListFilter{
		ProviderID: providerID,
		Limit:      limit,
		Offset:     offset,
	})
	if err != nil {
		h.fail(c, err)
		return
	}

	api.OK(c, "ok", services)
}

// Create godoc
// @Summary      Create service
// @Tags         provider
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        request  body      CreateServiceRequest  true  "Service"
// @Success      201      {object}  api.Response{data=Service}
// @Failure      422      {object}  api.Response
// @Router       /provider/services [post]
func (h *Handler) Create(c *gin.Context) {
	var req CreateServiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.BindError(c, err)
		return
	}

	providerID, _ := auth.GetUserID(c)
	svc, err := h.manager.Create(c.Request.Context(), providerID, req)
	if err != nil {
		h.fail(c, err)
		return
	}

	api.Created(c, "service created", svc)
}

// Update godoc
// @Summary      Update service
// @Tags         provider
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      int                   true  "Service ID"
// @Param        request  body      UpdateServiceRequest  true  "Changes"
// @Success      200      {object}  api.Response{data=Service}
// @Failure      403      {object}  api.Response
// @Failure      404      {object}  api.Response
// @Router       /provider/services/{id} [patch]
func (h *Handler) Update(c *gin.Context) {
	id, ok := api.IDParam(c, "id")
	if !ok {
		return
	}

	var req UpdateServiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.BindError(c, err)
		return
	}

	providerID, _ := auth.GetUserID(c)
	svc, err := h.manager.Update(c.Request.Context(), providerID, id, req)
	if err != nil {
		h.fail(c, err)
		return
	}

	api.OK(c, "service updated", svc)
}

// Delete godoc
// @Summary      Delete service
// @Tags         provider
// @Security     BearerAuth
// @Param        id   path      int  true  "Service ID"
// @Success      200  {object}  api.Response
// @Failure      403  {object}  api.Response
// @Failure      404  {object}  api.Response
// @Router       /provider/services/{id} [delete]
func (h *Handler) Delete(c *gin.Context) {
	id, ok := api.IDParam(c, "id")
	if !ok {
		return
	}

	userID, _ := auth.GetUserID(c)
	role, _ := auth.GetUserRole(c)
	if err := h.manager.Delete(c.Request.Context(), userID, id, role == auth.RoleAdmin); err != nil {
		h.fail(c, err)
		return
	}

	api.OK(c, "service deleted", nil)
}

func (h *Handler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrServiceNotFound):
		api.Fail(c, http.StatusNotFound, err.Error())
	case errors.Is(err, ErrNotOwner):
		api.Fail(c, http.StatusForbidden, err.Error())
	case errors.Is(err, ErrInvalidPrice), errors.Is(err, ErrInvalidDetails):
		api.Fail(c, http.StatusUnprocessableEntity, err.Error())
	default:
		logger.Errorf("catalog: %v", err)
		api.Fail(c, http.StatusInternalServerError, "internal error")
	}
}
