package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	AppMode  string
	Port     string
	Database DatabaseConfig
	JWT      JWTConfig
	Cookie   CookieConfig
	OAuth    OAuthConfig
	MFA      MFAConfig
	Guard    GuardConfig
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret           string
	RefreshSecret    string
	AccessTokenMins  int
	RefreshTokenDays int
	PendingMFAMins   int
}

// CookieConfig holds cookie configuration
type CookieConfig struct {
	Secure   bool
	SameSite string
	Domain   string
}

// OAuthProviderConfig holds one provider's client credentials
type OAuthProviderConfig struct {
	ClientID     string
	ClientSecret string
}

// OAuthConfig holds OAuth configuration
type OAuthConfig struct {
	CallbackBaseURL string
	Google          OAuthProviderConfig
	GitHub          OAuthProviderConfig
	Facebook        OAuthProviderConfig
	Apple           OAuthProviderConfig
}

// MFAConfig holds MFA configuration
type MFAConfig struct {
	Issuer string
}

// GuardConfig holds route guard destinations
type GuardConfig struct {
	LoginURL        string
	UnauthorizedURL string
}

// Load reads configuration from .env file and environment variables
func Load() (*Config, error) {
	// Load .env file (ignore error if file doesn't exist in production)
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using environment variables")
	}

	// Get APP_MODE (default to "dev") - trim spaces for Windows compatibility
	appMode := strings.TrimSpace(getEnv("APP_MODE", "dev"))
	if appMode != "dev" && appMode != "prod" {
		return nil, fmt.Errorf("invalid APP_MODE: '%s' (must be 'dev' or 'prod')", appMode)
	}

	config := &Config{
		AppMode:  appMode,
		Port:     getEnv("PORT", "3000"),
		Database: loadDatabaseConfig(appMode),
		JWT:      loadJWTConfig(appMode),
		Cookie:   loadCookieConfig(appMode),
		OAuth:    loadOAuthConfig(),
		MFA: MFAConfig{
			Issuer: getEnv("MFA_ISSUER", "GymGate"),
		},
		Guard: GuardConfig{
			LoginURL:        getEnv("GUARD_LOGIN_URL", "/login"),
			UnauthorizedURL: getEnv("GUARD_UNAUTHORIZED_URL", "/unauthorized"),
		},
	}

	log.Printf("✅ Configuration loaded successfully [MODE: %s]", appMode)
	return config, nil
}

// loadDatabaseConfig loads database config based on mode
func loadDatabaseConfig(mode string) DatabaseConfig {
	prefix := "DEV_"
	if mode == "prod" {
		prefix = "PROD_"
	}

	return DatabaseConfig{
		Host:     getEnv(prefix+"DB_HOST", "localhost"),
		Port:     getEnv(prefix+"DB_PORT", "3306"),
		User:     getEnv(prefix+"DB_USER", "root"),
		Password: getEnv(prefix+"DB_PASS", ""),
		DBName:   getEnv(prefix+"DB_NAME", "gymgate"),
	}
}

// loadJWTConfig loads JWT config based on mode
func loadJWTConfig(mode string) JWTConfig {
	prefix := "DEV_"
	if mode == "prod" {
		prefix = "PROD_"
	}

	accessMins, _ := strconv.Atoi(getEnv("ACCESS_TOKEN_MINUTES", "15"))
	refreshDays, _ := strconv.Atoi(getEnv("REFRESH_TOKEN_DAYS", "7"))
	pendingMins, _ := strconv.Atoi(getEnv("PENDING_MFA_MINUTES", "5"))

	return JWTConfig{
		Secret:           getEnv(prefix+"JWT_SECRET", "default_secret"),
		RefreshSecret:    getEnv(prefix+"JWT_REFRESH_SECRET", "default_refresh_secret"),
		AccessTokenMins:  accessMins,
		RefreshTokenDays: refreshDays,
		PendingMFAMins:   pendingMins,
	}
}

// loadCookieConfig loads cookie config based on mode
func loadCookieConfig(mode string) CookieConfig {
	prefix := "DEV_"
	if mode == "prod" {
		prefix = "PROD_"
	}

	secure, _ := strconv.ParseBool(getEnv(prefix+"COOKIE_SECURE", "false"))

	return CookieConfig{
		Secure:   secure,
		SameSite: getEnv("COOKIE_SAMESITE", "lax"),
		Domain:   getEnv("COOKIE_DOMAIN", ""),
	}
}

// loadOAuthConfig loads identity provider client credentials
func loadOAuthConfig() OAuthConfig {
	return OAuthConfig{
		CallbackBaseURL: getEnv("OAUTH_CALLBACK_BASE_URL", "http://localhost:3000"),
		Google: OAuthProviderConfig{
			ClientID:     getEnv("OAUTH_GOOGLE_CLIENT_ID", ""),
			ClientSecret: getEnv("OAUTH_GOOGLE_CLIENT_SECRET", ""),
		},
		GitHub: OAuthProviderConfig{
			ClientID:     getEnv("OAUTH_GITHUB_CLIENT_ID", ""),
			ClientSecret: getEnv("OAUTH_GITHUB_CLIENT_SECRET", ""),
		},
		Facebook: OAuthProviderConfig{
			ClientID:     getEnv("OAUTH_FACEBOOK_CLIENT_ID", ""),
			ClientSecret: getEnv("OAUTH_FACEBOOK_CLIENT_SECRET", ""),
		},
		Apple: OAuthProviderConfig{
			ClientID:     getEnv("OAUTH_APPLE_CLIENT_ID", ""),
			ClientSecret: getEnv("OAUTH_APPLE_CLIENT_SECRET", ""),
		},
	}
}

// getEnv gets environment variable with default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// IsDev returns true if running in development mode
func (c *Config) IsDev() bool {
	return c.AppMode == "dev"
}

// IsProd returns true if running in production mode
func (c *Config) IsProd() bool {
	return c.AppMode == "prod"
}

// GetAllowedOrigins returns allowed origins for CORS
func (c *Config) GetAllowedOrigins() string {
	origins := getEnv("ALLOWED_ORIGINS", "")
	if origins == "" {
		if c.IsDev() {
			return "*"
		}
		return "https://app.gymgate.fit"
	}
	return origins
}
