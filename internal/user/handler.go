package user

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

// Register godoc
// @Summary      Register new user
// @Description  Creates a customer or provider account and returns access & refresh tokens.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request  body      RegisterRequest  true  "User registration data"
// @Success      201      {object}  api.Response{data=LoginResponse}
// @Failure      409      {object}  api.Response
// @Failure      422      {object}  api.Response
// @Failure      500      {object}  api.Response
// @Router       /auth/register [post]
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.BindError(c, err)
		return
	}

	resp, err := h.service.Register(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, ErrEmailExists) {
			api.Fail(c, http.StatusConflict, "Email already registered")
			return
		}
		logger.Errorf("register %s: %v", req.Email, err)
		api.Fail(c, http.StatusInternalServerError, "Failed to create user")
		return
	}

	api.Created(c, "registered", resp)
}

// Login godoc
// @Summary      Login user
// @Description  Authenticates user by email and password.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request  body      LoginRequest  true  "User credentials"
// @Success      200      {object}  api.Response{data=LoginResponse}
// @Failure      401      {object}  api.Response
// @Failure      422      {object}  api.Response
// @Router       /auth/login [post]
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.BindError(c, err)
		return
	}

	resp, err := h.service.Login(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			api.Fail(c, http.StatusUnauthorized, "Invalid email or password")
			return
		}
		api.Fail(c, http.StatusInternalServerError, "Failed to generate tokens")
		return
	}

	api.OK(c, "logged in", resp)
}

// GetMe godoc
// @Summary      Get current user
// @Description  Returns profile of the authenticated user.
// @Tags         user
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  api.Response{data=User}
// @Failure      401  {object}  api.Response
// @Failure      404  {object}  api.Response
// @Router       /me [get]
func (h *Handler) GetMe(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		api.Fail(c, http.StatusUnauthorized, "User not authenticated")
		return
	}

	u, err := h.service.GetByID(c.Request.Context(), userID)
	if err != nil {
		api.Fail(c, http.StatusNotFound, "User not found")
		return
	}

	api.OK(c, "ok", u)
}

// RefreshToken godoc
// @Summary      Refresh access token
// @Description  Returns new access token using a valid refresh token.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request  body      RefreshRequest  true  "Refresh token payload"
// @Success      200      {object}  api.Response
// @Failure      401      {object}  api.Response
// @Failure      404      {object}  api.Response
// @Failure      422      {object}  api.Response
// @Router       /auth/refresh [post]
func (h *Handler) RefreshToken(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.BindError(c, err)
		return
	}

	accessToken, u, err := h.service.RefreshToken(c.Request.Context(), req.RefreshToken)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			api.Fail(c, http.StatusNotFound, "user not found")
			return
		}
		api.Fail(c, http.StatusUnauthorized, "invalid or expired refresh token")
		return
	}

	api.OK(c, "token refreshed", gin.H{
		"access_token": accessToken,
		"user":         u,
	})
}

// Deactivate godoc
// @Summary      Deactivate user
// @Description  Soft-deletes a user account. Admin only.
// @Tags         admin
// @Security     BearerAuth
// @Param        id   path      int  true  "User ID"
// @Success      200  {object}  api.Response
// @Failure      404  {object}  api.Response
// @Router       /admin/users/{id} [delete]
func (h *Handler) Deactivate(c *gin.Context) {
	id, ok := api.IDParam(c, "id")
	if !ok {
		return
	}

	if err := h.service.Deactivate(c.Request.Context(), id); err != nil {
		if errors.Is(err, ErrUserNotFound) {
			api.Fail(c, http.StatusNotFound, "User not found")
			return
		}
		api.Fail(c, http.StatusInternalServerError, "Failed to deactivate user")
		return
	}

	api.OK(c, "user deactivated", nil)
}
