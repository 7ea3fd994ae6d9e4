package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"gymgate/internal/config"
	"gymgate/internal/core/domain"
	"gymgate/internal/pkg/jwt"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "middleware-test-secret"

func testCfg() *config.Config {
	return &config.Config{
		AppMode: "dev",
		JWT:     config.JWTConfig{Secret: testSecret},
		Guard: config.GuardConfig{
			LoginURL:        "/login",
			UnauthorizedURL: "/unauthorized",
		},
	}
}

func testApp(cfg *config.Config, roles ...domain.Role) *fiber.App {
	app := fiber.New()
	protected := app.Group("/protected", AuthMiddleware(cfg))
	if len(roles) > 0 {
		protected.Use(RoleMiddleware(cfg, roles...))
	}
	protected.Get("/", func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})
	return app
}

func accessToken(t *testing.T, role string) string {
	t.Helper()
	token, err := jwt.GenerateAccessToken("user-1", "a@gym.fit", role, "", nil, testSecret, 15)
	require.NoError(t, err)
	return token
}

func TestAuthMiddlewareNoToken(t *testing.T) {
	app := testApp(testCfg())

	req := httptest.NewRequest(http.MethodGet, "/protected/", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAuthMiddlewareBearerToken(t *testing.T) {
	app := testApp(testCfg())

	req := httptest.NewRequest(http.MethodGet, "/protected/", nil)
	req.Header.Set("Authorization", "Bearer "+accessToken(t, "member"))
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAuthMiddlewareCookieToken(t *testing.T) {
	app := testApp(testCfg())

	req := httptest.NewRequest(http.MethodGet, "/protected/", nil)
	req.AddCookie(&http.Cookie{Name: "access_token", Value: accessToken(t, "member")})
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAuthMiddlewareTamperedToken(t *testing.T) {
	app := testApp(testCfg())

	req := httptest.NewRequest(http.MethodGet, "/protected/", nil)
	req.Header.Set("Authorization", "Bearer "+accessToken(t, "member")+"x")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAuthMiddlewareBrowserRedirectsToLogin(t *testing.T) {
	app := testApp(testCfg())

	req := httptest.NewRequest(http.MethodGet, "/protected/", nil)
	req.Header.Set("Accept", "text/html")
	resp, err := app.Test(req)
	require.NoError(t, err)

	assert.Equal(t, http.StatusFound, resp.StatusCode)
	location := resp.Header.Get("Location")
	assert.Contains(t, location, "/login")
	assert.Contains(t, location, "next=%2Fprotected%2F")
}

func TestRoleMiddlewareAllowed(t *testing.T) {
	app := testApp(testCfg(), domain.RoleAdmin, domain.RoleManager)

	req := httptest.NewRequest(http.MethodGet, "/protected/", nil)
	req.Header.Set("Authorization", "Bearer "+accessToken(t, "manager"))
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRoleMiddlewareDenied(t *testing.T) {
	app := testApp(testCfg(), domain.RoleAdmin, domain.RoleManager)

	req := httptest.NewRequest(http.MethodGet, "/protected/", nil)
	req.Header.Set("Authorization", "Bearer "+accessToken(t, "member"))
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestRoleMiddlewareDeniedBrowserRedirect(t *testing.T) {
	app := testApp(testCfg(), domain.RoleAdmin)

	req := httptest.NewRequest(http.MethodGet, "/protected/", nil)
	req.Header.Set("Accept", "text/html")
	req.AddCookie(&http.Cookie{Name: "access_token", Value: accessToken(t, "member")})
	resp, err := app.Test(req)
	require.NoError(t, err)

	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/unauthorized", resp.Header.Get("Location"))
}

func TestOptionalAuthWithoutToken(t *testing.T) {
	app := fiber.New()
	app.Get("/open", OptionalAuth(testCfg()), func(c *fiber.Ctx) error {
		if userID, ok := c.Locals(LocalUserID).(string); ok {
			return c.SendString(userID)
		}
		return c.SendString("anonymous")
	})

	req := httptest.NewRequest(http.MethodGet, "/open", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
