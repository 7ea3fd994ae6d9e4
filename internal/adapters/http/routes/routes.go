package routes

import (
	"gymgate/internal/adapters/http/handlers"
	"gymgate/internal/adapters/http/middleware"
	"gymgate/internal/adapters/persistence/repositories"
	"gymgate/internal/config"
	"gymgate/internal/core/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	"gorm.io/gorm"
)

// Setup configures all routes for the application
func Setup(app *fiber.App, db *gorm.DB, cfg *config.Config) {
	// Initialize repositories
	userRepo := repositories.NewUserRepository(db)
	refreshTokenRepo := repositories.NewRefreshTokenRepository(db)
	mfaRepo := repositories.NewMFARepository(db)
	oauthRepo := repositories.NewOAuthRepository(db)

	// Initialize services
	smsCodeService := services.NewSMSCodeService()
	mfaService := services.NewMFAService(mfaRepo, userRepo, smsCodeService, nil, cfg.MFA.Issuer)
	authService := services.NewAuthService(userRepo, refreshTokenRepo, mfaService, cfg)

	identityProvider := services.NewIdentityProvider(cfg.OAuth)
	stateStore := services.NewStateStore()
	oauthService := services.NewOAuthService(oauthRepo, userRepo, identityProvider, stateStore)

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler(db)
	authHandler := handlers.NewAuthHandler(authService, cfg)
	mfaHandler := handlers.NewMFAHandler(mfaService)
	oauthHandler := handlers.NewOAuthHandler(oauthService)
	userHandler := handlers.NewUserHandler(authService)

	// Health check & root routes
	app.Get("/", healthHandler.Root)
	app.Get("/health", healthHandler.HealthCheck)

	// Swagger documentation
	app.Get("/swagger/*", swagger.HandlerDefault)

	// API v1 group
	apiV1 := app.Group("/api/v1")

	// Auth routes
	authRoutes := apiV1.Group("/auth")
	setupAuthRoutes(authRoutes, authHandler, cfg)

	// MFA routes (Authenticated users)
	mfaRoutes := apiV1.Group("/mfa")
	mfaRoutes.Use(middleware.AuthMiddleware(cfg))
	setupMFARoutes(mfaRoutes, mfaHandler)

	// OAuth link routes
	oauthRoutes := apiV1.Group("/oauth")
	setupOAuthRoutes(oauthRoutes, oauthHandler, cfg)

	// User management routes (Admin only)
	userRoutes := apiV1.Group("/admin/users")
	userRoutes.Use(middleware.AuthMiddleware(cfg))
	userRoutes.Use(middleware.AdminOnly(cfg))
	setupUserRoutes(userRoutes, userHandler)
}

// setupAuthRoutes configures authentication routes
func setupAuthRoutes(router fiber.Router, handler *handlers.AuthHandler, cfg *config.Config) {
	// Public routes (5 req/min/IP on credential endpoints)
	router.Post("/register", middleware.AuthRateLimiter(), handler.Register)
	router.Post("/login", middleware.AuthRateLimiter(), handler.Login)
	router.Post("/login/mfa", middleware.AuthRateLimiter(), handler.LoginMFA)
	router.Post("/refresh", handler.RefreshToken)
	router.Post("/logout", handler.Logout)

	// Protected routes
	router.Get("/me", middleware.AuthMiddleware(cfg), handler.Me)
	router.Post("/logout-all", middleware.AuthMiddleware(cfg), handler.LogoutAll)
	router.Put("/password", middleware.AuthMiddleware(cfg), middleware.StrictRateLimiter(), handler.ChangePassword)
}

// setupMFARoutes configures second-factor routes (Authenticated)
func setupMFARoutes(router fiber.Router, handler *handlers.MFAHandler) {
	router.Get("/", handler.Status)
	router.Delete("/", handler.Disable)

	// Enrollment and code endpoints are brute-force targets (3 req/min/IP)
	router.Post("/enroll", middleware.StrictRateLimiter(), handler.Enroll)
	router.Post("/confirm", middleware.StrictRateLimiter(), handler.Confirm)
	router.Post("/verify", middleware.AuthRateLimiter(), handler.Verify)
	router.Post("/challenge", middleware.StrictRateLimiter(), handler.SendChallenge)
	router.Post("/backup-codes", middleware.StrictRateLimiter(), handler.RegenerateBackupCodes)
}

// setupOAuthRoutes configures identity provider link routes
func setupOAuthRoutes(router fiber.Router, handler *handlers.OAuthHandler, cfg *config.Config) {
	// PUBLIC - provider redirects here; the state token carries the user
	router.Get("/callback/:provider", handler.Callback)

	// PROTECTED - link management
	router.Get("/", middleware.AuthMiddleware(cfg), handler.Accounts)
	router.Get("/:provider", middleware.AuthMiddleware(cfg), handler.Begin)
	router.Post("/:provider/link", middleware.AuthMiddleware(cfg), handler.Link)
	router.Delete("/:provider", middleware.AuthMiddleware(cfg), handler.Unlink)
}

// setupUserRoutes configures user management routes (Admin only)
func setupUserRoutes(router fiber.Router, handler *handlers.UserHandler) {
	router.Get("/:id", handler.Get)
	router.Put("/:id/active", handler.SetActive)
	router.Put("/:id/verified", handler.SetVerified)
	router.Put("/:id/password", middleware.StrictRateLimiter(), handler.ResetPassword)
}
