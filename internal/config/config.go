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
	Redis    RedisConfig
	Session  SessionConfig
	Reset    ResetTokenConfig
	DevLogin DevLoginConfig
}

// DatabaseConfig holds MySQL configuration
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
}

// RedisConfig holds Redis configuration for the session store
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// SessionConfig holds session token and cookie configuration
type SessionConfig struct {
	CookieName string
	TTLHours   int
	Secure     bool
	SameSite   string
	Domain     string
}

// ResetTokenConfig holds password-reset token configuration
type ResetTokenConfig struct {
	Secret        string
	ExpiryMinutes int
}

// DevLoginConfig holds the development login bypass configuration.
// The bypass is selected here at configuration time and is refused
// outside dev mode, so it cannot reach a production deployment.
type DevLoginConfig struct {
	Enabled  bool
	Password string
}

// Global config instance
var AppConfig *Config

// Load reads configuration from .env file and environment variables
func Load() (*Config, error) {
	// Load .env file (ignore error if file doesn't exist in production)
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using environment variables")
	}

	appMode := strings.TrimSpace(getEnv("APP_MODE", "dev"))
	if appMode != "dev" && appMode != "prod" {
		return nil, fmt.Errorf("invalid APP_MODE: '%s' (must be 'dev' or 'prod')", appMode)
	}

	config := &Config{
		AppMode:  appMode,
		Port:     getEnv("PORT", "5000"),
		Database: loadDatabaseConfig(appMode),
		Redis:    loadRedisConfig(appMode),
		Session:  loadSessionConfig(appMode),
		Reset:    loadResetTokenConfig(appMode),
		DevLogin: loadDevLoginConfig(appMode),
	}

	AppConfig = config

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
		DBName:   getEnv(prefix+"DB_NAME", "microfinance"),
	}
}

// loadRedisConfig loads Redis config based on mode
func loadRedisConfig(mode string) RedisConfig {
	prefix := "DEV_"
	if mode == "prod" {
		prefix = "PROD_"
	}

	db, _ := strconv.Atoi(getEnv(prefix+"REDIS_DB", "0"))

	return RedisConfig{
		Addr:     getEnv(prefix+"REDIS_ADDR", "localhost:6379"),
		Password: getEnv(prefix+"REDIS_PASS", ""),
		DB:       db,
	}
}

// loadSessionConfig loads session cookie config based on mode
func loadSessionConfig(mode string) SessionConfig {
	prefix := "DEV_"
	if mode == "prod" {
		prefix = "PROD_"
	}

	secure, _ := strconv.ParseBool(getEnv(prefix+"COOKIE_SECURE", "false"))
	ttl, _ := strconv.Atoi(getEnv("SESSION_TTL_HOURS", "24"))

	return SessionConfig{
		CookieName: getEnv("SESSION_COOKIE_NAME", "session_id"),
		TTLHours:   ttl,
		Secure:     secure,
		SameSite:   getEnv("COOKIE_SAMESITE", "lax"),
		Domain:     getEnv("COOKIE_DOMAIN", ""),
	}
}

// loadResetTokenConfig loads password-reset token config based on mode
func loadResetTokenConfig(mode string) ResetTokenConfig {
	prefix := "DEV_"
	if mode == "prod" {
		prefix = "PROD_"
	}

	expiry, _ := strconv.Atoi(getEnv("RESET_TOKEN_MINUTES", "30"))

	return ResetTokenConfig{
		Secret:        getEnv(prefix+"RESET_TOKEN_SECRET", "default_reset_secret"),
		ExpiryMinutes: expiry,
	}
}

// loadDevLoginConfig loads the dev login bypass config.
// Enabled only when APP_MODE=dev AND a password is explicitly set.
func loadDevLoginConfig(mode string) DevLoginConfig {
	if mode != "dev" {
		return DevLoginConfig{}
	}

	pass := getEnv("DEV_LOGIN_PASSWORD", "")
	return DevLoginConfig{
		Enabled:  pass != "",
		Password: pass,
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
		return "https://microfinance-solution.com"
	}
	return origins
}
