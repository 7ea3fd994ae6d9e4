package middleware

import (
	"net/url"
	"strings"

	"gymgate/internal/config"
	"gymgate/internal/core/domain"
	"gymgate/internal/pkg/guard"
	"gymgate/internal/pkg/jwt"
	"gymgate/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// Locals keys set by AuthMiddleware
const (
	LocalUserID = "userID"
	LocalEmail  = "email"
	LocalRole   = "role"
	LocalClaims = "claims"
)

// AuthMiddleware validates the session token and stores its claims for
// downstream handlers. It performs no I/O beyond reading the request.
func AuthMiddleware(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		accessToken := extractToken(c)

		if accessToken == "" {
			return deny(c, cfg, guard.Decision{Outcome: guard.RedirectLogin, Next: c.OriginalURL()})
		}

		claims, err := jwt.ValidateAccessToken(accessToken, cfg.JWT.Secret)
		if err != nil {
			return deny(c, cfg, guard.Decision{Outcome: guard.RedirectLogin, Next: c.OriginalURL()})
		}

		c.Locals(LocalUserID, claims.UserID)
		c.Locals(LocalEmail, claims.Email)
		c.Locals(LocalRole, claims.Role)
		c.Locals(LocalClaims, claims)

		return c.Next()
	}
}

// RoleMiddleware gates a route on an allowed-role set. An empty set admits
// any authenticated identity.
func RoleMiddleware(cfg *config.Config, allowedRoles ...domain.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		session := guard.Session{State: guard.Unauthenticated}
		if role, ok := c.Locals(LocalRole).(string); ok {
			session = guard.Session{State: guard.Authenticated, Role: domain.Role(role)}
			if claims, ok := c.Locals(LocalClaims).(*jwt.Claims); ok {
				session.BranchID = claims.BranchID
			}
		}

		decision := guard.Decide(session, c.OriginalURL(), allowedRoles...)
		if decision.Outcome == guard.Allow {
			return c.Next()
		}
		return deny(c, cfg, decision)
	}
}

// AdminOnly allows admin and super_admin roles
func AdminOnly(cfg *config.Config) fiber.Handler {
	return RoleMiddleware(cfg, domain.RoleAdmin, domain.RoleSuperAdmin)
}

// StaffOrAbove allows every role with back-office access
func StaffOrAbove(cfg *config.Config) fiber.Handler {
	return RoleMiddleware(cfg,
		domain.RoleStaff, domain.RoleTrainer, domain.RoleManager,
		domain.RoleAdmin, domain.RoleSuperAdmin)
}

// OptionalAuth doesn't require auth but sets user info if a valid token is
// present
func OptionalAuth(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if accessToken := extractToken(c); accessToken != "" {
			claims, err := jwt.ValidateAccessToken(accessToken, cfg.JWT.Secret)
			if err == nil {
				c.Locals(LocalUserID, claims.UserID)
				c.Locals(LocalEmail, claims.Email)
				c.Locals(LocalRole, claims.Role)
				c.Locals(LocalClaims, claims)
			}
		}

		return c.Next()
	}
}

// extractToken reads the access token from cookie first, then the
// Authorization header
func extractToken(c *fiber.Ctx) string {
	if token := c.Cookies("access_token"); token != "" {
		return token
	}

	authHeader := c.Get("Authorization")
	if authHeader != "" && strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	return ""
}

// deny turns a guard decision into a redirect for browsers and a JSON error
// for API clients. The originally requested destination rides along so login
// can send the caller back.
func deny(c *fiber.Ctx, cfg *config.Config, decision guard.Decision) error {
	wantsHTML := c.Accepts("application/json", "text/html") == "text/html"

	switch decision.Outcome {
	case guard.RedirectLogin:
		if wantsHTML {
			target := cfg.Guard.LoginURL
			if decision.Next != "" {
				target += "?next=" + url.QueryEscape(decision.Next)
			}
			return c.Redirect(target, fiber.StatusFound)
		}
		return response.Unauthorized(c, "Authentication required")
	case guard.RedirectUnauthorized:
		if wantsHTML {
			return c.Redirect(cfg.Guard.UnauthorizedURL, fiber.StatusFound)
		}
		return response.Forbidden(c, "You don't have permission to access this resource")
	default:
		return response.Unauthorized(c, "Authentication required")
	}
}
