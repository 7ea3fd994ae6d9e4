package handlers

import (
	"errors"

	"gymgate/internal/adapters/http/middleware"
	"gymgate/internal/core/domain"
	"gymgate/internal/core/services"
	"gymgate/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// OAuthHandler handles external identity provider link endpoints
type OAuthHandler struct {
	oauthService *services.OAuthService
}

// NewOAuthHandler creates a new OAuth handler
func NewOAuthHandler(oauthService *services.OAuthService) *OAuthHandler {
	return &OAuthHandler{oauthService: oauthService}
}

// LinkTokenRequest represents a direct token link request body
type LinkTokenRequest struct {
	AccessToken string `json:"access_token"`
}

// Begin starts a provider link flow
// @Summary Begin provider link
// @Description Issue a state token and redirect the caller to the provider's consent page
// @Tags OAuth
// @Produce json
// @Security BearerAuth
// @Param provider path string true "Provider name" Enums(google, github, facebook, apple)
// @Success 302
// @Failure 400 {object} response.Response
// @Router /oauth/{provider} [get]
func (h *OAuthHandler) Begin(c *fiber.Ctx) error {
	userID, ok := c.Locals(middleware.LocalUserID).(string)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	provider := domain.OAuthProvider(c.Params("provider"))
	redirectURL, err := h.oauthService.BeginLink(c.Context(), userID, provider)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrUnknownProvider):
			return response.BadRequest(c, "Unknown provider")
		case errors.Is(err, domain.ErrUserNotFound):
			return response.NotFound(c, "User not found")
		default:
			return response.InternalServerError(c, "Failed to start provider link")
		}
	}

	return c.Redirect(redirectURL, fiber.StatusFound)
}

// Callback finishes a provider link flow
// @Summary Provider callback
// @Description Validate the state token, exchange the code and persist the link
// @Tags OAuth
// @Produce json
// @Param provider path string true "Provider name"
// @Param code query string true "Authorization code"
// @Param state query string true "State token"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /oauth/callback/{provider} [get]
func (h *OAuthHandler) Callback(c *fiber.Ctx) error {
	input := &services.CallbackInput{
		Code:  c.Query("code"),
		State: c.Query("state"),
	}

	account, err := h.oauthService.Callback(c.Context(), input)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrCSRFValidation):
			return response.BadRequest(c, "Invalid or expired state")
		case errors.Is(err, domain.ErrAlreadyLinked):
			return response.Conflict(c, "Provider account is linked to another user")
		case errors.Is(err, domain.ErrProviderVerification):
			return response.BadRequest(c, "Provider verification failed")
		default:
			return response.InternalServerError(c, "Failed to link provider account")
		}
	}

	return response.Success(c, "Provider account linked", fiber.Map{
		"account": account,
	})
}

// Link associates a provider account from an already-obtained provider token
// @Summary Link provider by token
// @Description Verify a provider access token and persist the link
// @Tags OAuth
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param provider path string true "Provider name"
// @Param body body LinkTokenRequest true "Provider access token"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /oauth/{provider}/link [post]
func (h *OAuthHandler) Link(c *fiber.Ctx) error {
	userID, ok := c.Locals(middleware.LocalUserID).(string)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	var req LinkTokenRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if req.AccessToken == "" {
		return response.BadRequest(c, "Access token is required")
	}

	provider := domain.OAuthProvider(c.Params("provider"))
	account, err := h.oauthService.Link(c.Context(), userID, provider, req.AccessToken)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrUnknownProvider):
			return response.BadRequest(c, "Unknown provider")
		case errors.Is(err, domain.ErrAlreadyLinked):
			return response.Conflict(c, "Provider account is linked to another user")
		case errors.Is(err, domain.ErrProviderVerification):
			return response.BadRequest(c, "Provider verification failed")
		default:
			return response.InternalServerError(c, "Failed to link provider account")
		}
	}

	return response.Success(c, "Provider account linked", fiber.Map{
		"account": account,
	})
}

// Unlink removes a provider link
// @Summary Unlink provider
// @Description Remove a provider link; unlinking an absent provider succeeds
// @Tags OAuth
// @Produce json
// @Security BearerAuth
// @Param provider path string true "Provider name"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /oauth/{provider} [delete]
func (h *OAuthHandler) Unlink(c *fiber.Ctx) error {
	userID, ok := c.Locals(middleware.LocalUserID).(string)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	provider := domain.OAuthProvider(c.Params("provider"))
	if err := h.oauthService.Unlink(c.Context(), userID, provider); err != nil {
		if errors.Is(err, domain.ErrUnknownProvider) {
			return response.BadRequest(c, "Unknown provider")
		}
		return response.InternalServerError(c, "Failed to unlink provider account")
	}

	return response.Success(c, "Provider account unlinked", nil)
}

// Accounts lists linked provider accounts
// @Summary List linked providers
// @Tags OAuth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /oauth [get]
func (h *OAuthHandler) Accounts(c *fiber.Ctx) error {
	userID, ok := c.Locals(middleware.LocalUserID).(string)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	accounts, err := h.oauthService.Accounts(c.Context(), userID)
	if err != nil {
		return response.InternalServerError(c, "Failed to list linked accounts")
	}

	return response.Success(c, "Linked accounts retrieved", fiber.Map{
		"accounts": accounts,
	})
}
