package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the application configuration
type Config struct {
	// GitHub
	GitHubToken   string
	GraphQLURL    string // empty means github.com
	RESTURL       string // empty means github.com
	EcosystemUser string // empty means the authenticated user

	// Snapshot
	DataDir          string
	FullScan         bool
	RequestTimeout   time.Duration
	MaxRetries       int
	FetchConcurrency int

	// Run history
	StorageType string // "none", "sqlite" or "postgres"
	SQLitePath  string
	PostgresURL string

	// API Server
	APIPort string
	APIHost string

	// CLI
	APIEndpoint string
	LogLevel    string
}

// Load loads the configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	return fromEnv(), nil
}

// LoadFile loads the configuration from an explicit env file, then the environment
func LoadFile(path string) (*Config, error) {
	if err := godotenv.Load(path); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return fromEnv(), nil
}

func fromEnv() *Config {
	return &Config{
		GitHubToken:      getEnv("GITHUB_TOKEN", ""),
		GraphQLURL:       getEnv("GITHUB_GRAPHQL_URL", ""),
		RESTURL:          getEnv("GITHUB_API_URL", ""),
		EcosystemUser:    getEnv("ECOSYSTEM_USER", ""),
		DataDir:          getEnv("DATA_DIR", "data"),
		FullScan:         getEnvBool("FULL_SCAN", false),
		RequestTimeout:   getEnvDuration("REQUEST_TIMEOUT", 30*time.Second),
		MaxRetries:       getEnvInt("MAX_RETRIES", 3),
		FetchConcurrency: getEnvInt("FETCH_CONCURRENCY", 3),
		StorageType:      getEnv("STORAGE_TYPE", "none"),
		SQLitePath:       getEnv("SQLITE_PATH", "./snapshots.db"),
		PostgresURL:      getEnv("POSTGRES_URL", ""),
		APIPort:          getEnv("API_PORT", "8080"),
		APIHost:          getEnv("API_HOST", "localhost"),
		APIEndpoint:      getEnv("API_ENDPOINT", "http://localhost:8080"),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
	}
}

// getEnv returns the value of an environment variable or a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if v, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return v
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if v, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return v
	}
	return defaultValue
}

// Validate validates the configuration needed to run a snapshot
func (c *Config) Validate() error {
	if c.GitHubToken == "" {
		return &ConfigError{Field: "GITHUB_TOKEN", Message: "GitHub token is required"}
	}
	if c.DataDir == "" {
		return &ConfigError{Field: "DATA_DIR", Message: "output directory is required"}
	}
	if c.RequestTimeout <= 0 {
		return &ConfigError{Field: "REQUEST_TIMEOUT", Message: "must be positive"}
	}
	if c.MaxRetries < 0 {
		return &ConfigError{Field: "MAX_RETRIES", Message: "must not be negative"}
	}
	if c.FetchConcurrency < 1 {
		return &ConfigError{Field: "FETCH_CONCURRENCY", Message: "must be at least 1"}
	}
	return c.ValidateStorage()
}

// ValidateStorage validates the run history settings
func (c *Config) ValidateStorage() error {
	switch c.StorageType {
	case "none", "sqlite":
	case "postgres":
		if c.PostgresURL == "" {
			return &ConfigError{Field: "POSTGRES_URL", Message: "PostgreSQL URL is required when STORAGE_TYPE is 'postgres'"}
		}
	default:
		return &ConfigError{Field: "STORAGE_TYPE", Message: "must be 'none', 'sqlite' or 'postgres'"}
	}
	return nil
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return e.Field + ": " + e.Message
}
