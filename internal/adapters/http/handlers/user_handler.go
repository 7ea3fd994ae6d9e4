package handlers

import (
	"errors"

	"gymgate/internal/core/domain"
	"gymgate/internal/core/services"
	"gymgate/internal/pkg/password"
	"gymgate/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// UserHandler handles administrative user management endpoints
type UserHandler struct {
	authService *services.AuthService
}

// NewUserHandler creates a new user handler
func NewUserHandler(authService *services.AuthService) *UserHandler {
	return &UserHandler{authService: authService}
}

// SetActiveRequest represents an activation toggle body
type SetActiveRequest struct {
	Active bool `json:"active"`
}

// SetVerifiedRequest represents a verification toggle body
type SetVerifiedRequest struct {
	Verified bool `json:"verified"`
}

// ResetPasswordRequest represents an administrative password reset body
type ResetPasswordRequest struct {
	NewPassword string `json:"new_password"`
}

// Get returns a single user
// @Summary Get user
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /admin/users/{id} [get]
func (h *UserHandler) Get(c *fiber.Ctx) error {
	user, err := h.authService.GetUserByID(c.Context(), c.Params("id"))
	if err != nil {
		return response.NotFound(c, "User not found")
	}

	return response.Success(c, "User retrieved successfully", fiber.Map{
		"user": user.ToResponse(),
	})
}

// SetActive activates or deactivates a user account
// @Summary Set user active state
// @Description Deactivating a user revokes all of their sessions
// @Tags Users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Param body body SetActiveRequest true "Active flag"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /admin/users/{id}/active [put]
func (h *UserHandler) SetActive(c *fiber.Ctx) error {
	var req SetActiveRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if err := h.authService.SetActive(c.Context(), c.Params("id"), req.Active); err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return response.NotFound(c, "User not found")
		}
		return response.InternalServerError(c, "Failed to update user")
	}

	return response.Success(c, "User updated successfully", nil)
}

// SetVerified marks a user's email as verified or unverified
// @Summary Set email verification state
// @Tags Users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Param body body SetVerifiedRequest true "Verified flag"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /admin/users/{id}/verified [put]
func (h *UserHandler) SetVerified(c *fiber.Ctx) error {
	var req SetVerifiedRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if err := h.authService.SetVerified(c.Context(), c.Params("id"), req.Verified); err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return response.NotFound(c, "User not found")
		}
		return response.InternalServerError(c, "Failed to update user")
	}

	return response.Success(c, "User updated successfully", nil)
}

// ResetPassword sets a new password without the current one
// @Summary Reset user password
// @Description Store a new password for the user and revoke all of their sessions
// @Tags Users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Param body body ResetPasswordRequest true "New password"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /admin/users/{id}/password [put]
func (h *UserHandler) ResetPassword(c *fiber.Ctx) error {
	var req ResetPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if !password.ValidatePassword(req.NewPassword) {
		return response.BadRequest(c, "Password must be at least 8 characters")
	}

	if err := h.authService.ResetPassword(c.Context(), c.Params("id"), req.NewPassword); err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return response.NotFound(c, "User not found")
		}
		return response.InternalServerError(c, "Failed to reset password")
	}

	return response.Success(c, "Password reset successfully", nil)
}
