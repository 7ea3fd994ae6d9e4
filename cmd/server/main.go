package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"gymgate/internal/adapters/http/middleware"
	"gymgate/internal/adapters/http/routes"
	"gymgate/internal/adapters/persistence/models"
	"gymgate/internal/adapters/persistence/repositories"
	"gymgate/internal/config"
	"gymgate/internal/core/services"

	"github.com/gofiber/fiber/v2"

	_ "gymgate/docs" // Swagger docs
)

// @title GymGate Auth API
// @version 1.0
// @description Authentication and authorization gate for gym management

// @contact.name API Support
// @contact.email support@gymgate.fit

// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html

// @host api.gymgate.fit
// @BasePath /api/v1
// @schemes https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Failed to load configuration: %v", err)
	}

	// Connect to database
	db, err := config.ConnectDatabase(cfg)
	if err != nil {
		log.Fatalf("❌ Failed to connect to database: %v", err)
	}
	defer config.CloseDatabase(db)

	// Auto migrate (creates tables if not exist)
	if err := models.AutoMigrate(db); err != nil {
		log.Fatalf("❌ Failed to auto migrate: %v", err)
	}
	log.Println("✅ Database migration completed")

	// Seed the bootstrap admin account on an empty users table
	if err := config.SeedBootstrapAdmin(db); err != nil {
		log.Printf("⚠️ Warning: Failed to seed bootstrap admin: %v", err)
	}

	// Nightly purge of expired refresh tokens and stale MFA enrollments
	cleanupService := services.NewCleanupService(
		repositories.NewRefreshTokenRepository(db),
		repositories.NewMFARepository(db),
	)
	cleanupService.Start()
	defer cleanupService.Stop()

	// Create Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "GymGate Auth API v1.0",
		ErrorHandler: middleware.CustomErrorHandler,
	})

	// Setup middlewares
	middleware.Setup(app, cfg)

	// Setup routes (pass db and cfg for dependency injection)
	routes.Setup(app, db, cfg)

	// Graceful shutdown
	go gracefulShutdown(app)

	// Start server
	log.Printf("🚀 Server starting on port %s [MODE: %s]", cfg.Port, cfg.AppMode)
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatalf("❌ Failed to start server: %v", err)
	}
}

// gracefulShutdown handles graceful shutdown
func gracefulShutdown(app *fiber.App) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("🛑 Shutting down server...")
	if err := app.Shutdown(); err != nil {
		log.Printf("❌ Error during shutdown: %v", err)
	}
	log.Println("✅ Server stopped gracefully")
}
