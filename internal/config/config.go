package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Logger   LoggerConfig
	Auth     AuthConfig
	Storage  StorageConfig
	Orders   OrdersConfig
}

// ServerConfig holds server-related configuration.
type ServerConfig struct {
	Host string
	Port int
}

// DatabaseConfig holds database-related configuration.
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	Database        string
	MaxConnections  int
	MinConnections  int
	MaxConnLifetime int // seconds
}

// LoggerConfig holds logger-related configuration.
type LoggerConfig struct {
	Level  string
	Format string // "json" or "console"
}

// AuthConfig holds the shared secret expected from the gateway.
type AuthConfig struct {
	APIKey string
}

// StorageConfig holds where uploaded design images are kept.
type StorageConfig struct {
	S3Enabled      bool
	Bucket         string
	Region         string
	Prefix         string // Path prefix within bucket (e.g., "designs/")
	LocalDir       string
	PublicBaseURL  string
	MaxUploadBytes int64
}

// OrdersConfig holds order numbering configuration.
type OrdersConfig struct {
	CodePrefix string
}

// maxCodePrefix leaves room for "-" and a 26 character ULID in orders.code
// VARCHAR(40).
const maxCodePrefix = 40 - 1 - 26

var logLevels = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}

// Load reads configuration from environment variables and validates it.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
			Port: getEnvAsInt("SERVER_PORT", 8080),
		},
		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnvAsInt("DB_PORT", 5432),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", ""),
			Database:        getEnv("DB_NAME", "luxbag"),
			MaxConnections:  getEnvAsInt("DB_MAX_CONNECTIONS", 25),
			MinConnections:  getEnvAsInt("DB_MIN_CONNECTIONS", 5),
			MaxConnLifetime: getEnvAsInt("DB_MAX_CONN_LIFETIME", 300),
		},
		Logger: LoggerConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Auth: AuthConfig{
			APIKey: getEnv("API_KEY", ""),
		},
		Storage: StorageConfig{
			S3Enabled:      getEnvAsBool("S3_ENABLED", false),
			Bucket:         getEnv("S3_BUCKET", ""),
			Region:         getEnv("S3_REGION", "us-east-1"),
			Prefix:         getEnv("S3_PREFIX", "designs/"),
			LocalDir:       getEnv("DESIGN_DIR", "data/designs"),
			PublicBaseURL:  getEnv("DESIGN_BASE_URL", "/files"),
			MaxUploadBytes: int64(getEnvAsInt("DESIGN_MAX_UPLOAD_BYTES", 5<<20)),
		},
		Orders: OrdersConfig{
			CodePrefix: getEnv("ORDER_CODE_PREFIX", "LXB"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks every section and returns the first problem found.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if err := c.Database.validate(); err != nil {
		return err
	}
	if c.Auth.APIKey == "" {
		return errors.New("API key is required")
	}
	if !logLevels[c.Logger.Level] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}
	if c.Logger.Format != "json" && c.Logger.Format != "console" {
		return fmt.Errorf("invalid log format: %s (must be json or console)", c.Logger.Format)
	}
	if err := c.Storage.validate(); err != nil {
		return err
	}
	if c.Orders.CodePrefix == "" {
		return errors.New("order code prefix is required")
	}
	if len(c.Orders.CodePrefix) > maxCodePrefix {
		return fmt.Errorf("order code prefix must be at most %d characters", maxCodePrefix)
	}
	return nil
}

func (c *DatabaseConfig) validate() error {
	switch {
	case c.Host == "":
		return errors.New("database host is required")
	case c.Port < 1 || c.Port > 65535:
		return fmt.Errorf("invalid database port: %d", c.Port)
	case c.User == "":
		return errors.New("database user is required")
	case c.Database == "":
		return errors.New("database name is required")
	case c.MaxConnections < 1:
		return errors.New("database max connections must be at least 1")
	case c.MinConnections < 1:
		return errors.New("database min connections must be at least 1")
	case c.MinConnections > c.MaxConnections:
		return errors.New("database min connections cannot exceed max connections")
	}
	return nil
}

func (c *StorageConfig) validate() error {
	if c.S3Enabled {
		if c.Bucket == "" {
			return errors.New("S3 bucket is required when S3 is enabled")
		}
		if c.Region == "" {
			return errors.New("S3 region is required when S3 is enabled")
		}
	}
	// The local directory is needed even with S3 as the fallback target.
	if c.LocalDir == "" {
		return errors.New("design directory is required")
	}
	if c.MaxUploadBytes < 1 {
		return errors.New("design max upload bytes must be positive")
	}
	return nil
}

// ConnectionString returns the PostgreSQL connection string.
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.User, c.Password, c.Host, c.Port, c.Database)
}

// Address returns the server address.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func getEnv(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt falls back to defaultValue when the variable is unset or not a number.
func getEnvAsInt(key string, defaultValue int) int {
	if n, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return n
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if b, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return b
	}
	return defaultValue
}
