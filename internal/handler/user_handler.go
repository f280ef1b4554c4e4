package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"taskhub/internal/auth"
	"taskhub/internal/errors"
	"taskhub/internal/service"
)

// UserHandler handles credential endpoints.
type UserHandler struct {
	userService service.UserService
}

// NewUserHandler creates a new user handler.
func NewUserHandler(userService service.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// RegisterRequest represents a registration request.
type RegisterRequest struct {
	Email          string `json:"email" validate:"required,email"`
	Password       string `json:"password" validate:"required"`
	RepeatPassword string `json:"repeatPassword" validate:"required"`
}

// LoginRequest represents a login request.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// ChangePasswordRequest represents a password change request.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	Password        string `json:"password"`
	RepeatPassword  string `json:"repeatPassword"`
}

// TokenResponse represents a login response.
type TokenResponse struct {
	Token string `json:"token"`
}

// MessageResponse represents a generic confirmation response.
type MessageResponse struct {
	Message string `json:"message"`
}

// subjectID extracts the authenticated user id from the verified token
// claims placed in the context by the JWT middleware.
func subjectID(c echo.Context) (uint, error) {
	claims, ok := c.Get("user").(*auth.Claims)
	if !ok {
		return 0, echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
	}
	return claims.UserID, nil
}

// domainError maps a service error to an echo HTTP error.
func domainError(err error) *echo.HTTPError {
	httpErr := errors.MapErrorToHTTP(err)
	return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
}

// Register godoc
// @Summary Register a new user
// @Tags user
// @Accept json
// @Produce json
// @Param request body RegisterRequest true "Registration data"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /user/register [post]
func (h *UserHandler) Register(c echo.Context) error {
	var req RegisterRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	user, err := h.userService.Register(c.Request().Context(), req.Email, req.Password, req.RepeatPassword)
	if err != nil {
		return domainError(err)
	}

	return c.JSON(http.StatusCreated, map[string]interface{}{
		"id":    user.ID,
		"email": user.Email,
	})
}

// Login godoc
// @Summary Login and receive a session token
// @Tags user
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Login credentials"
// @Success 200 {object} TokenResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /user/login [post]
func (h *UserHandler) Login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	token, err := h.userService.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return domainError(err)
	}

	return c.JSON(http.StatusOK, TokenResponse{Token: token})
}

// RecoverPassword godoc
// @Summary Send a generated password to the user's email
// @Tags user
// @Produce json
// @Param email path string true "Account email"
// @Success 200 {object} MessageResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /user/recover/{email} [post]
func (h *UserHandler) RecoverPassword(c echo.Context) error {
	email := c.Param("email")

	message, err := h.userService.RecoverPassword(c.Request().Context(), email)
	if err != nil {
		return domainError(err)
	}

	return c.JSON(http.StatusOK, MessageResponse{Message: message})
}

// ChangePassword godoc
// @Summary Change the authenticated user's password
// @Tags user
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body ChangePasswordRequest true "Password change data"
// @Success 200 {object} MessageResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /user/change-password [patch]
func (h *UserHandler) ChangePassword(c echo.Context) error {
	userID, err := subjectID(c)
	if err != nil {
		return err
	}

	var req ChangePasswordRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	message, err := h.userService.ChangePassword(c.Request().Context(), userID, req.CurrentPassword, req.Password, req.RepeatPassword)
	if err != nil {
		return domainError(err)
	}

	return c.JSON(http.StatusOK, MessageResponse{Message: message})
}
