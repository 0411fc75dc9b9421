// pkg/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config represents the application configuration
type Config struct {
	// Audit store, nil when no database is configured
	Postgres *PostgresConfig

	// Inputs and outputs
	SourcesFile  string
	OutDir       string
	GeocodeTable string
	WriteBack    bool

	// Fallback geocoder
	ArcGISURL       string
	GeocodeTimeout  time.Duration
	FallbackEnabled bool

	// I/O retry settings
	RetryAttempts int
	RetryDelay    time.Duration
	RetryMaxDelay time.Duration

	// Output repository
	Git GitConfig

	// Metrics
	PushgatewayURL string

	// Logging
	LogLevel  string
	LogFormat string
}

// GitConfig holds the output repository push settings
type GitConfig struct {
	Enabled     bool
	Remote      string
	Branch      string
	AuthorName  string
	AuthorEmail string
	Token       string
}

// LoadConfig loads configuration from environment variables. A non-empty
// envFile is loaded first; a missing file is not an error.
func LoadConfig(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to load env file %s: %w", envFile, err)
		}
	}

	cfg := &Config{
		SourcesFile:  getEnv("SOURCES_FILE", "sources.yaml"),
		OutDir:       getEnv("OUTPUT_DIR", "output"),
		GeocodeTable: getEnv("GEOCODE_TABLE", "geo_admin.tsv"),
		WriteBack:    getEnvAsBool("WRITE_BACK", false),

		ArcGISURL:       getEnv("ARCGIS_URL", ""),
		GeocodeTimeout:  getEnvAsDuration("GEOCODE_TIMEOUT", 10*time.Second),
		FallbackEnabled: getEnvAsBool("GEOCODE_FALLBACK", true),

		RetryAttempts: getEnvAsInt("RETRY_ATTEMPTS", 4),
		RetryDelay:    getEnvAsDuration("RETRY_DELAY", 10*time.Second),
		RetryMaxDelay: getEnvAsDuration("RETRY_MAX_DELAY", time.Minute),

		Git: GitConfig{
			Enabled:     getEnvAsBool("GIT_PUSH", false),
			Remote:      getEnv("GIT_REMOTE", "origin"),
			Branch:      getEnv("GIT_BRANCH", "master"),
			AuthorName:  getEnv("GIT_AUTHOR_NAME", "linelist"),
			AuthorEmail: getEnv("GIT_AUTHOR_EMAIL", "linelist@localhost"),
			Token:       getEnv("GIT_TOKEN", ""),
		},

		PushgatewayURL: getEnv("PUSHGATEWAY_URL", ""),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
	}

	pgConfig, err := LoadPostgresConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load PostgreSQL configuration: %w", err)
	}
	cfg.Postgres = pgConfig

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate ensures all required configuration is present and valid
func (c *Config) Validate() error {
	if c.SourcesFile == "" {
		return errors.New("sources file is required")
	}

	if c.OutDir == "" {
		return errors.New("output directory is required")
	}

	if c.RetryAttempts < 0 {
		return errors.New("retry attempts cannot be negative")
	}

	if c.RetryDelay <= 0 {
		return errors.New("retry delay must be positive")
	}

	if c.FallbackEnabled && c.GeocodeTimeout <= 0 {
		return errors.New("geocode timeout must be positive")
	}

	if c.Git.Enabled && c.Git.Branch == "" {
		return errors.New("git branch is required when pushing")
	}

	switch c.LogFormat {
	case "json", "console":
	default:
		return fmt.Errorf("unsupported log format %q", c.LogFormat)
	}

	return nil
}

// Helper functions for environment variables
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := strings.TrimSpace(getEnv(key, ""))
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsDuration accepts Go durations ("90s") or plain seconds ("90")
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := strings.TrimSpace(getEnv(key, ""))
	if valueStr == "" {
		return defaultValue
	}

	if d, err := time.ParseDuration(valueStr); err == nil {
		return d
	}
	if seconds, err := strconv.Atoi(valueStr); err == nil {
		return time.Duration(seconds) * time.Second
	}
	return defaultValue
}
