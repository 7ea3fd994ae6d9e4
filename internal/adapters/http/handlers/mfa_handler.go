package handlers

import (
	"errors"

	"gymgate/internal/adapters/http/middleware"
	"gymgate/internal/core/domain"
	"gymgate/internal/core/services"
	"gymgate/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// MFAHandler handles second-factor management endpoints
type MFAHandler struct {
	mfaService *services.MFAService
}

// NewMFAHandler creates a new MFA handler
func NewMFAHandler(mfaService *services.MFAService) *MFAHandler {
	return &MFAHandler{mfaService: mfaService}
}

// EnrollRequest represents an enrollment request body
type EnrollRequest struct {
	Method string `json:"method"`
	Phone  string `json:"phone"`
}

// ConfirmRequest represents an enrollment confirmation body
type ConfirmRequest struct {
	Code string `json:"code"`
}

// VerifyRequest represents an ad-hoc verification body
type VerifyRequest struct {
	Token      string `json:"token"`
	BackupCode string `json:"backup_code"`
}

// Enroll starts a second-factor enrollment
// @Summary Begin MFA enrollment
// @Description Generate a secret and backup codes; enrollment stays pending until confirmed
// @Tags MFA
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body EnrollRequest true "Enrollment options"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /mfa/enroll [post]
func (h *MFAHandler) Enroll(c *fiber.Ctx) error {
	userID, ok := c.Locals(middleware.LocalUserID).(string)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	var req EnrollRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if req.Method == "" {
		req.Method = string(domain.MFAMethodTOTP)
	}

	setup, err := h.mfaService.BeginEnrollment(c.Context(), userID, domain.MFAMethod(req.Method), req.Phone)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrUnsupportedMethod):
			return response.BadRequest(c, "Unsupported MFA method")
		case errors.Is(err, domain.ErrAlreadyEnrolled):
			return response.Conflict(c, "MFA is already enabled")
		case errors.Is(err, domain.ErrInvalidInput):
			return response.BadRequest(c, "A phone number is required for SMS enrollment")
		default:
			return response.InternalServerError(c, "Failed to start MFA enrollment")
		}
	}

	return response.Success(c, "MFA enrollment started", setup)
}

// Confirm activates a pending enrollment
// @Summary Confirm MFA enrollment
// @Description Validate the first code and enable the second factor
// @Tags MFA
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body ConfirmRequest true "First code"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /mfa/confirm [post]
func (h *MFAHandler) Confirm(c *fiber.Ctx) error {
	userID, ok := c.Locals(middleware.LocalUserID).(string)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	var req ConfirmRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if req.Code == "" {
		return response.BadRequest(c, "Code is required")
	}

	if err := h.mfaService.ConfirmEnrollment(c.Context(), userID, req.Code); err != nil {
		switch {
		case errors.Is(err, domain.ErrEnrollmentNotFound):
			return response.NotFound(c, "No pending enrollment")
		case errors.Is(err, domain.ErrAlreadyEnrolled):
			return response.Conflict(c, "MFA is already enabled")
		case errors.Is(err, domain.ErrInvalidMFACode):
			return response.BadRequest(c, "Invalid verification code")
		default:
			return response.InternalServerError(c, "Failed to confirm MFA enrollment")
		}
	}

	return response.Success(c, "MFA enabled", nil)
}

// Verify checks a second factor out of band
// @Summary Verify second factor
// @Description Validate a one-time code or redeem a single-use backup code
// @Tags MFA
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body VerifyRequest true "Code or backup code"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /mfa/verify [post]
func (h *MFAHandler) Verify(c *fiber.Ctx) error {
	userID, ok := c.Locals(middleware.LocalUserID).(string)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	var req VerifyRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if req.Token == "" && req.BackupCode == "" {
		return response.BadRequest(c, "A code or backup code is required")
	}

	err := h.mfaService.Verify(c.Context(), userID, &services.MFAVerifyInput{
		Token:      req.Token,
		BackupCode: req.BackupCode,
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotEnrolled):
			return response.BadRequest(c, "MFA is not enabled")
		case errors.Is(err, domain.ErrBackupCodeUsed):
			return response.BadRequest(c, "Backup code already used")
		case errors.Is(err, domain.ErrInvalidMFACode):
			return response.BadRequest(c, "Invalid verification code")
		default:
			return response.InternalServerError(c, "Failed to verify code")
		}
	}

	return response.Success(c, "Code verified", nil)
}

// Disable turns off the second factor
// @Summary Disable MFA
// @Description Remove the enrollment and all remaining backup codes
// @Tags MFA
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /mfa [delete]
func (h *MFAHandler) Disable(c *fiber.Ctx) error {
	userID, ok := c.Locals(middleware.LocalUserID).(string)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	if err := h.mfaService.Disable(c.Context(), userID); err != nil {
		if errors.Is(err, domain.ErrNotEnrolled) {
			return response.BadRequest(c, "MFA is not enabled")
		}
		return response.InternalServerError(c, "Failed to disable MFA")
	}

	return response.Success(c, "MFA disabled", nil)
}

// Status reports whether MFA is enabled and how many backup codes remain
// @Summary MFA status
// @Tags MFA
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /mfa [get]
func (h *MFAHandler) Status(c *fiber.Ctx) error {
	userID, ok := c.Locals(middleware.LocalUserID).(string)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	enabled := h.mfaService.Enabled(c.Context(), userID)
	data := fiber.Map{"enabled": enabled}
	if enabled {
		if remaining, err := h.mfaService.BackupCodesRemaining(c.Context(), userID); err == nil {
			data["backup_codes_remaining"] = remaining
		}
	}

	return response.Success(c, "MFA status", data)
}

// RegenerateBackupCodes replaces all backup codes
// @Summary Regenerate backup codes
// @Description Invalidate remaining backup codes and issue a fresh set
// @Tags MFA
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /mfa/backup-codes [post]
func (h *MFAHandler) RegenerateBackupCodes(c *fiber.Ctx) error {
	userID, ok := c.Locals(middleware.LocalUserID).(string)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	codes, err := h.mfaService.RegenerateBackupCodes(c.Context(), userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotEnrolled) {
			return response.BadRequest(c, "MFA is not enabled")
		}
		return response.InternalServerError(c, "Failed to regenerate backup codes")
	}

	return response.Success(c, "Backup codes regenerated", fiber.Map{
		"backup_codes": codes,
	})
}

// SendChallenge dispatches a fresh SMS code
// @Summary Send SMS challenge
// @Description Dispatch a fresh verification code for an SMS enrollment
// @Tags MFA
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /mfa/challenge [post]
func (h *MFAHandler) SendChallenge(c *fiber.Ctx) error {
	userID, ok := c.Locals(middleware.LocalUserID).(string)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	if err := h.mfaService.SendChallenge(c.Context(), userID); err != nil {
		switch {
		case errors.Is(err, domain.ErrNotEnrolled):
			return response.BadRequest(c, "MFA is not enabled")
		case errors.Is(err, domain.ErrUnsupportedMethod):
			return response.BadRequest(c, "Enrollment does not use SMS")
		default:
			return response.InternalServerError(c, "Failed to send verification code")
		}
	}

	return response.Success(c, "Verification code sent", nil)
}
