// Package config provides application configuration.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Port           string
	DBPath         string
	GRPCPort       string // empty disables the gRPC health service
	AllowedOrigins []string
	Dialogue       DialogueConfig
	Retry          RetryConfig
	RateLimit      RateLimitConfig
	Timeout        TimeoutConfig
}

// DialogueConfig controls cleanup of abandoned create-task dialogues.
type DialogueConfig struct {
	IdleTTL       time.Duration
	SweepInterval time.Duration
}

// RetryConfig controls retries of writes that hit a busy database.
type RetryConfig struct {
	DatabaseMaxRetries     int
	DatabaseRetryBaseDelay time.Duration
}

// RateLimitConfig bounds inbound events per client. Events <= 0 disables it.
type RateLimitConfig struct {
	Events int
	Window time.Duration
}

// TimeoutConfig holds operation timeouts.
type TimeoutConfig struct {
	HealthCheck time.Duration
	Shutdown    time.Duration
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		Port:           getEnv("PORT", "8080"),
		DBPath:         getEnv("DB_PATH", "./data/tasks.db"),
		GRPCPort:       getEnv("GRPC_PORT", ""),
		AllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS", []string{"*"}),
		Dialogue: DialogueConfig{
			IdleTTL:       getEnvDuration("DIALOGUE_IDLE_TTL", 30*time.Minute),
			SweepInterval: getEnvDuration("DIALOGUE_SWEEP_INTERVAL", 5*time.Minute),
		},
		Retry: RetryConfig{
			DatabaseMaxRetries:     getEnvInt("DB_MAX_RETRIES", 3),
			DatabaseRetryBaseDelay: getEnvDuration("DB_RETRY_BASE_DELAY", 50*time.Millisecond),
		},
		RateLimit: RateLimitConfig{
			Events: getEnvInt("RATE_LIMIT_EVENTS", 60),
			Window: getEnvDuration("RATE_LIMIT_WINDOW", time.Minute),
		},
		Timeout: TimeoutConfig{
			HealthCheck: getEnvDuration("HEALTH_CHECK_TIMEOUT", 5*time.Second),
			Shutdown:    getEnvDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required configuration fields are set.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}
	if c.DBPath == "" {
		return fmt.Errorf("DB_PATH cannot be empty")
	}
	if c.GRPCPort != "" && c.GRPCPort == c.Port {
		return fmt.Errorf("GRPC_PORT must differ from PORT")
	}
	if len(c.AllowedOrigins) == 0 {
		return fmt.Errorf("CORS_ALLOWED_ORIGINS cannot be empty")
	}
	if c.Dialogue.IdleTTL <= 0 {
		return fmt.Errorf("DIALOGUE_IDLE_TTL must be > 0")
	}
	if c.Dialogue.SweepInterval <= 0 {
		return fmt.Errorf("DIALOGUE_SWEEP_INTERVAL must be > 0")
	}
	if c.Retry.DatabaseMaxRetries < 1 {
		return fmt.Errorf("DB_MAX_RETRIES must be >= 1")
	}
	if c.Retry.DatabaseRetryBaseDelay < 0 {
		return fmt.Errorf("DB_RETRY_BASE_DELAY cannot be negative")
	}
	if c.RateLimit.Events > 0 && c.RateLimit.Window <= 0 {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be > 0")
	}
	if c.Timeout.HealthCheck <= 0 || c.Timeout.Shutdown <= 0 {
		return fmt.Errorf("timeouts must be > 0")
	}
	return nil
}

// AllowsAnyOrigin reports whether CORS is open to every origin.
func (c *Config) AllowsAnyOrigin() bool {
	for _, o := range c.AllowedOrigins {
		if o == "*" {
			return true
		}
	}
	return false
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func getEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return n
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return d
}

// getEnvList splits a comma separated value, dropping blank items.
func getEnvList(key string, fallback []string) []string {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// IsContainer returns true if running inside a container.
func IsContainer() bool {
	if getEnvBool("CONTAINER", false) {
		return true
	}
	if _, err := os.Stat("/.dockerenv"); err == nil {
		return true
	}
	return false
}
