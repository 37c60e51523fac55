package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/taskmate/core/internal/infrastructure/logger"
	"github.com/taskmate/core/internal/ports"
)

// ProfileHandler handles registration and profile requests
type ProfileHandler struct {
	userService ports.UserService
	logger      *logger.Logger
}

// NewProfileHandler creates a new profile handler
func NewProfileHandler(userService ports.UserService, logger *logger.Logger) *ProfileHandler {
	return &ProfileHandler{
		userService: userService,
		logger:      logger.WithComponent("profile_handler"),
	}
}

// Register godoc
// @Summary Register or log in
// @Description Creates a profile for a new identity or records a login for an existing one
// @Tags auth
// @Accept json
// @Produce json
// @Param request body ports.RegisterRequest false "Optional profile data"
// @Success 200 {object} Response "Existing user"
// @Success 201 {object} Response "New user"
// @Failure 400 {object} Response
// @Failure 409 {object} Response
// @Security BearerAuth
// @Router /auth/register [post]
func (h *ProfileHandler) Register(c echo.Context) error {
	identity, err := getIdentityFromContext(c)
	if err != nil {
		return err
	}

	var req ports.RegisterRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	if err := c.Validate(&req); err != nil {
		return err
	}

	user, created, err := h.userService.Register(c.Request().Context(), *identity, req)
	if err != nil {
		h.logger.Warnw("Register failed", "error", err, "user_id", identity.ID)
		return err
	}

	if created {
		return ok(c, http.StatusCreated, "User registered successfully", Data{"user": user})
	}
	return ok(c, http.StatusOK, "User already exists", Data{"user": user})
}

// GetProfile godoc
// @Summary Get the caller's profile
// @Tags auth
// @Produce json
// @Success 200 {object} Response
// @Failure 404 {object} Response
// @Security BearerAuth
// @Router /auth/profile [get]
func (h *ProfileHandler) GetProfile(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return err
	}

	user, err := h.userService.GetProfile(c.Request().Context(), userID)
	if err != nil {
		return err
	}

	return ok(c, http.StatusOK, "", Data{"user": user})
}

// UpdateProfile godoc
// @Summary Update the caller's profile
// @Tags auth
// @Accept json
// @Produce json
// @Param request body ports.UpdateProfileRequest true "Fields to change"
// @Success 200 {object} Response
// @Failure 400 {object} Response
// @Failure 404 {object} Response
// @Security BearerAuth
// @Router /auth/profile [put]
func (h *ProfileHandler) UpdateProfile(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return err
	}

	var req ports.UpdateProfileRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	if err := c.Validate(&req); err != nil {
		return err
	}

	user, err := h.userService.UpdateProfile(c.Request().Context(), userID, req)
	if err != nil {
		return err
	}

	return ok(c, http.StatusOK, "Profile updated successfully", Data{"user": user})
}

// UpdatePushToken godoc
// @Summary Update the push notification token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body ports.PushTokenRequest true "Device token"
// @Success 200 {object} Response
// @Failure 400 {object} Response
// @Failure 404 {object} Response
// @Security BearerAuth
// @Router /auth/push-token [post]
func (h *ProfileHandler) UpdatePushToken(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return err
	}

	var req ports.PushTokenRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	if _, err := h.userService.UpdatePushToken(c.Request().Context(), userID, req.Token); err != nil {
		return err
	}

	return ok(c, http.StatusOK, "FCM token updated successfully", nil)
}

// DeleteAccount godoc
// @Summary Deactivate the caller's account
// @Tags auth
// @Produce json
// @Success 200 {object} Response
// @Failure 404 {object} Response
// @Security BearerAuth
// @Router /auth/account [delete]
func (h *ProfileHandler) DeleteAccount(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return err
	}

	if err := h.userService.Deactivate(c.Request().Context(), userID); err != nil {
		return err
	}

	h.logger.Infow("Account deactivated", "user_id", userID)
	return ok(c, http.StatusOK, "Account deactivated successfully", nil)
}
