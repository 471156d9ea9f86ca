package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/csg33k/jpk-vat/internal/adapters/jpk/schema"
	"github.com/csg33k/jpk-vat/internal/logger"
)

type Config struct {
	// Storage
	DBPath string
	Tenant string

	// HTTP
	Port string

	// Authority
	AuthorityBaseURL string
	AuthorityToken   string
	WebhookSecret    string
	CallTimeout      time.Duration
	SigningCertPath  string
	SigningKeyPath   string

	// Submission schedule
	PollInterval        time.Duration
	WebhookPollInterval time.Duration
	MaxPollDuration     time.Duration
	RetrySchedule       []time.Duration
	MaxAttempts         int
	RunTick             time.Duration

	// Declarations
	BatchWorkers  int
	SchemaVersion string
	SystemName    string

	// Logging
	LogLevel      string
	LogFormat     string
	LogTimeFormat string
	LogOutput     string
}

// Load reads the environment, first merging a .env file when one exists.
// Variables already set in the environment win over the file.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if _, err := os.Stat(f); err == nil {
			if err := godotenv.Load(f); err != nil {
				return nil, fmt.Errorf("load %s: %w", f, err)
			}
		}
	}

	var errs []error
	config := &Config{
		DBPath:              getEnv("DB_PATH", "jpkvat.db"),
		Tenant:              getEnv("TENANT", "default"),
		Port:                getEnv("PORT", "8080"),
		AuthorityBaseURL:    getEnv("AUTHORITY_BASE_URL", ""),
		AuthorityToken:      getEnv("AUTHORITY_TOKEN", ""),
		WebhookSecret:       getEnv("WEBHOOK_SECRET", ""),
		CallTimeout:         getDuration("AUTHORITY_CALL_TIMEOUT", 30*time.Second, &errs),
		SigningCertPath:     getEnv("SIGNING_CERT", ""),
		SigningKeyPath:      getEnv("SIGNING_KEY", ""),
		PollInterval:        getDuration("POLL_INTERVAL", time.Minute, &errs),
		WebhookPollInterval: getDuration("WEBHOOK_POLL_INTERVAL", 10*time.Minute, &errs),
		MaxPollDuration:     getDuration("MAX_POLL_DURATION", 72*time.Hour, &errs),
		RetrySchedule:       getDurations("RETRY_SCHEDULE", []time.Duration{0, time.Minute, 5 * time.Minute, 15 * time.Minute, time.Hour}, &errs),
		MaxAttempts:         getInt("MAX_ATTEMPTS", 5, &errs),
		RunTick:             getDuration("RUN_TICK", 15*time.Second, &errs),
		BatchWorkers:        getInt("BATCH_WORKERS", 5, &errs),
		SchemaVersion:       getEnv("SCHEMA_VERSION", schema.V7M2),
		SystemName:          getEnv("SYSTEM_NAME", "jpk-vat"),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		LogFormat:           getEnv("LOG_FORMAT", "console"),
		LogTimeFormat:       getEnv("LOG_TIME_FORMAT", time.RFC3339),
		LogOutput:           getEnv("LOG_OUTPUT", "stdout"),
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("config parse failed: %w", errors.Join(errs...))
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return config, nil
}

// Validate reports every invalid value at once.
func (c *Config) Validate() error {
	var errs []error
	if c.DBPath == "" {
		errs = append(errs, fmt.Errorf("DB_PATH is required"))
	}
	if c.Tenant == "" {
		errs = append(errs, fmt.Errorf("TENANT is required"))
	}
	if (c.SigningCertPath == "") != (c.SigningKeyPath == "") {
		errs = append(errs, fmt.Errorf("SIGNING_CERT and SIGNING_KEY must be set together"))
	}
	if c.CallTimeout <= 0 {
		errs = append(errs, fmt.Errorf("AUTHORITY_CALL_TIMEOUT must be positive"))
	}
	if c.PollInterval <= 0 {
		errs = append(errs, fmt.Errorf("POLL_INTERVAL must be positive"))
	}
	if c.WebhookPollInterval < c.PollInterval {
		errs = append(errs, fmt.Errorf("WEBHOOK_POLL_INTERVAL must not be shorter than POLL_INTERVAL"))
	}
	if c.MaxPollDuration < c.PollInterval {
		errs = append(errs, fmt.Errorf("MAX_POLL_DURATION must not be shorter than POLL_INTERVAL"))
	}
	if len(c.RetrySchedule) == 0 {
		errs = append(errs, fmt.Errorf("RETRY_SCHEDULE must list at least one delay"))
	}
	if c.MaxAttempts < 1 {
		errs = append(errs, fmt.Errorf("MAX_ATTEMPTS must be at least 1"))
	}
	if c.BatchWorkers < 1 {
		errs = append(errs, fmt.Errorf("BATCH_WORKERS must be at least 1"))
	}
	if _, err := schema.Lookup(c.SchemaVersion); err != nil {
		errs = append(errs, fmt.Errorf("SCHEMA_VERSION: %w", err))
	}
	return errors.Join(errs...)
}

// RequireAuthority checks the settings the submission commands need.
func (c *Config) RequireAuthority() error {
	var errs []error
	if c.AuthorityBaseURL == "" {
		errs = append(errs, fmt.Errorf("AUTHORITY_BASE_URL is required"))
	}
	if c.WebhookSecret == "" {
		errs = append(errs, fmt.Errorf("WEBHOOK_SECRET is required"))
	}
	return errors.Join(errs...)
}

// GetLoggerConfig returns a logger configuration from the main config
func (c *Config) GetLoggerConfig() logger.LogConfig {
	return logger.LogConfig{
		Level:      c.LogLevel,
		Format:     c.LogFormat,
		TimeFormat: c.LogTimeFormat,
		Output:     c.LogOutput,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration, errs *[]error) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return defaultValue
	}
	return d
}

// getDurations parses a comma separated list such as "0s,1m,5m".
func getDurations(key string, defaultValue []time.Duration, errs *[]error) []time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	var out []time.Duration
	for _, part := range strings.Split(raw, ",") {
		d, err := time.ParseDuration(strings.TrimSpace(part))
		if err != nil {
			*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
			return defaultValue
		}
		out = append(out, d)
	}
	return out
}

func getInt(key string, defaultValue int, errs *[]error) int {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return defaultValue
	}
	return n
}
