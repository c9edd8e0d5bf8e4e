package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"investorconnect/internal/docstore"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the backend
type Config struct {
	AppMode  string
	Port     string
	Database DatabaseConfig
	JWT      JWTConfig
	Cookie   CookieConfig
	DocStore DocStoreConfig
	Redis    RedisConfig
	Log      LogConfig

	// SeedSamples inserts sample listings on an empty store
	SeedSamples bool
	// CleanupSchedule is the cron spec for refresh-token cleanup
	CleanupSchedule string
	// EnvFileMissing is set when no .env file was found
	EnvFileMissing bool
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
}

// JWTConfig holds token configuration
type JWTConfig struct {
	Secret           string
	RefreshSecret    string
	AccessTokenMins  int
	RefreshTokenDays int
}

// CookieConfig holds cookie configuration
type CookieConfig struct {
	Secure   bool
	SameSite string
	Domain   string
}

// DocStoreConfig selects the document driver and declares composite indexes
type DocStoreConfig struct {
	Driver  docstore.Driver
	Indexes docstore.IndexSet
}

// RedisConfig is used when DocStore.Driver is redis
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LogConfig configures the zap logger
type LogConfig struct {
	Level  string
	Format string
}

// Load reads configuration from .env file and environment variables
func Load() (*Config, error) {
	// Load .env file (missing file is fine in production)
	envMissing := godotenv.Load() != nil

	// Get APP_MODE (default to "dev") - trim spaces for Windows compatibility
	appMode := strings.TrimSpace(getEnv("APP_MODE", "dev"))
	if appMode != "dev" && appMode != "prod" {
		return nil, fmt.Errorf("invalid APP_MODE: '%s' (must be 'dev' or 'prod')", appMode)
	}

	docStore, err := loadDocStoreConfig()
	if err != nil {
		return nil, err
	}

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	seed, _ := strconv.ParseBool(getEnv("SEED_SAMPLES", strconv.FormatBool(appMode == "dev")))

	config := &Config{
		AppMode:  appMode,
		Port:     getEnv("PORT", "3000"),
		Database: loadDatabaseConfig(appMode),
		JWT:      loadJWTConfig(appMode),
		Cookie:   loadCookieConfig(appMode),
		DocStore: docStore,
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		Log:             loadLogConfig(appMode),
		SeedSamples:     seed,
		CleanupSchedule: getEnv("CLEANUP_SCHEDULE", "0 3 * * *"),
		EnvFileMissing:  envMissing,
	}

	return config, nil
}

// loadDatabaseConfig loads database config based on mode
func loadDatabaseConfig(mode string) DatabaseConfig {
	prefix := modePrefix(mode)

	return DatabaseConfig{
		Host:     getEnv(prefix+"DB_HOST", "localhost"),
		Port:     getEnv(prefix+"DB_PORT", "3306"),
		User:     getEnv(prefix+"DB_USER", "root"),
		Password: getEnv(prefix+"DB_PASS", ""),
		DBName:   getEnv(prefix+"DB_NAME", "investorconnect"),
	}
}

// loadJWTConfig loads JWT config based on mode
func loadJWTConfig(mode string) JWTConfig {
	prefix := modePrefix(mode)

	accessMins, _ := strconv.Atoi(getEnv("ACCESS_TOKEN_MINUTES", "60"))
	refreshDays, _ := strconv.Atoi(getEnv("REFRESH_TOKEN_DAYS", "30"))

	return JWTConfig{
		Secret:           getEnv(prefix+"JWT_SECRET", "default_secret"),
		RefreshSecret:    getEnv(prefix+"JWT_REFRESH_SECRET", "default_refresh_secret"),
		AccessTokenMins:  accessMins,
		RefreshTokenDays: refreshDays,
	}
}

// loadCookieConfig loads cookie config based on mode
func loadCookieConfig(mode string) CookieConfig {
	prefix := modePrefix(mode)

	secure, _ := strconv.ParseBool(getEnv(prefix+"COOKIE_SECURE", "false"))

	return CookieConfig{
		Secure:   secure,
		SameSite: getEnv("COOKIE_SAMESITE", "lax"),
		Domain:   getEnv("COOKIE_DOMAIN", ""),
	}
}

// loadDocStoreConfig reads DOCSTORE_DRIVER and DOCSTORE_INDEXES
func loadDocStoreConfig() (DocStoreConfig, error) {
	driver, err := docstore.ParseDriver(getEnv("DOCSTORE_DRIVER", string(docstore.DriverMySQL)))
	if err != nil {
		return DocStoreConfig{}, err
	}
	indexes, err := docstore.ParseIndexes(getEnv("DOCSTORE_INDEXES", ""))
	if err != nil {
		return DocStoreConfig{}, fmt.Errorf("invalid DOCSTORE_INDEXES: %w", err)
	}
	return DocStoreConfig{Driver: driver, Indexes: indexes}, nil
}

// loadLogConfig picks console logs in dev and json in prod unless overridden
func loadLogConfig(mode string) LogConfig {
	format := "console"
	if mode == "prod" {
		format = "json"
	}
	return LogConfig{
		Level:  getEnv("LOG_LEVEL", "info"),
		Format: getEnv("LOG_FORMAT", format),
	}
}

func modePrefix(mode string) string {
	if mode == "prod" {
		return "PROD_"
	}
	return "DEV_"
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
		return "http://localhost:3000"
	}
	return origins
}
