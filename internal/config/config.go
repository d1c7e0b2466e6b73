package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Database  DatabaseConfig
	JWT       JWTConfig
	App       AppConfig
	Storage   StorageConfig
	Ingestion IngestionConfig
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret           string
	AccessExpiration string
}

// AppConfig holds application configuration
type AppConfig struct {
	Port        int
	Env         string
	LogLevel    string
	FrontendURL string
}

type StorageConfig struct {
	Type     string
	BasePath string
}

// IngestionConfig bounds the upload endpoint and tunes the ingestion pipeline.
type IngestionConfig struct {
	MaxUploadMB              int
	MaxFiles                 int
	GridScanRows             int
	ProtectManualCorrections bool
	RequestTimeout           time.Duration
	OrphanCheckInterval      time.Duration
}

// MaxUploadBytes is the multipart body limit.
func (c IngestionConfig) MaxUploadBytes() int64 {
	return int64(c.MaxUploadMB) << 20
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	config := &Config{}

	// Database configuration
	dbPort, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}

	config.Database = DatabaseConfig{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     dbPort,
		User:     getEnv("DB_USER", "postgres"),
		Password: getEnv("DB_PASSWORD", ""),
		Name:     getEnv("DB_NAME", "attendix"),
		SSLMode:  getEnv("DB_SSL_MODE", "disable"),
	}

	// Application configuration
	appPort, err := strconv.Atoi(getEnv("APP_PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid APP_PORT: %w", err)
	}

	config.App = AppConfig{
		Port:        appPort,
		Env:         getEnv("APP_ENV", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		FrontendURL: getEnv("FRONTEND_URL", "http://localhost:3000"),
	}

	// JWT configuration
	config.JWT = JWTConfig{
		Secret:           getEnv("JWT_SECRET_KEY", ""),
		AccessExpiration: getEnv("JWT_ACCESS_EXPIRATION_TIME", "1h"),
	}

	config.Storage = StorageConfig{
		Type:     getEnv("STORAGE_TYPE", "local"),
		BasePath: getEnv("STORAGE_BASE_PATH", "./uploads"),
	}

	// Ingestion configuration
	if config.Ingestion, err = loadIngestion(); err != nil {
		return nil, err
	}

	// Validate required fields
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

func loadIngestion() (IngestionConfig, error) {
	var cfg IngestionConfig
	var err error

	if cfg.MaxUploadMB, err = strconv.Atoi(getEnv("INGEST_MAX_UPLOAD_MB", "32")); err != nil {
		return cfg, fmt.Errorf("invalid INGEST_MAX_UPLOAD_MB: %w", err)
	}
	if cfg.MaxFiles, err = strconv.Atoi(getEnv("INGEST_MAX_FILES", "20")); err != nil {
		return cfg, fmt.Errorf("invalid INGEST_MAX_FILES: %w", err)
	}
	if cfg.GridScanRows, err = strconv.Atoi(getEnv("INGEST_GRID_SCAN_ROWS", "50")); err != nil {
		return cfg, fmt.Errorf("invalid INGEST_GRID_SCAN_ROWS: %w", err)
	}
	if cfg.ProtectManualCorrections, err = strconv.ParseBool(getEnv("INGEST_PROTECT_MANUAL_CORRECTIONS", "false")); err != nil {
		return cfg, fmt.Errorf("invalid INGEST_PROTECT_MANUAL_CORRECTIONS: %w", err)
	}
	if cfg.RequestTimeout, err = time.ParseDuration(getEnv("INGEST_REQUEST_TIMEOUT", "2m")); err != nil {
		return cfg, fmt.Errorf("invalid INGEST_REQUEST_TIMEOUT: %w", err)
	}
	if cfg.OrphanCheckInterval, err = time.ParseDuration(getEnv("INGEST_ORPHAN_CHECK_INTERVAL", "0")); err != nil {
		return cfg, fmt.Errorf("invalid INGEST_ORPHAN_CHECK_INTERVAL: %w", err)
	}

	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Database.Password == "" {
		return fmt.Errorf("DB_PASSWORD is required")
	}
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET_KEY is required")
	}
	if c.Storage.Type != "local" {
		return fmt.Errorf("unsupported STORAGE_TYPE: %s", c.Storage.Type)
	}
	if c.Ingestion.MaxUploadMB <= 0 {
		return fmt.Errorf("INGEST_MAX_UPLOAD_MB must be positive")
	}
	if c.Ingestion.MaxFiles <= 0 {
		return fmt.Errorf("INGEST_MAX_FILES must be positive")
	}
	if c.Ingestion.GridScanRows <= 0 {
		return fmt.Errorf("INGEST_GRID_SCAN_ROWS must be positive")
	}
	return nil
}

// DatabaseURL returns the PostgreSQL connection string
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// SlogLevel maps LOG_LEVEL to a slog level, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.App.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
