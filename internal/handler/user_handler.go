package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	apperrors "eventplanner/internal/errors"
	"eventplanner/internal/middleware"
	"eventplanner/internal/service"
)

// UserHandler serves the caller's own profile.
type UserHandler struct {
	svc service.UserService
}

// NewUserHandler creates a handler layer.
func NewUserHandler(svc service.UserService) *UserHandler {
	return &UserHandler{svc: svc}
}

// Me godoc
// @Summary Get the authenticated user
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} UserResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /users/me [get]
func (h *UserHandler) Me(c echo.Context) error {
	identity, ok := middleware.IdentityFrom(c)
	if !ok {
		return respondError(c, apperrors.ErrUnauthorized)
	}
	user, err := h.svc.GetUser(c.Request().Context(), identity.UserID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, newUserResponse(user))
}
