package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/csg33k/jpk-vat/internal/adapters/jpk/schema"
	"github.com/csg33k/jpk-vat/internal/config"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "default", cfg.Tenant)
	assert.Equal(t, 5, cfg.MaxAttempts)
	assert.Equal(t, 5, cfg.BatchWorkers)
	assert.Equal(t, schema.V7M2, cfg.SchemaVersion)
	assert.Equal(t, []time.Duration{0, time.Minute, 5 * time.Minute, 15 * time.Minute, time.Hour}, cfg.RetrySchedule)
	assert.Error(t, cfg.RequireAuthority())
}

func TestLoad_FromEnvAndFile(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(envFile, []byte("PORT=9090\nRETRY_SCHEDULE=0s, 30s, 2m\nWEBHOOK_SECRET=from-file\n"), 0o600))
	t.Cleanup(func() {
		os.Unsetenv("RETRY_SCHEDULE")
		os.Unsetenv("WEBHOOK_SECRET")
	})
	t.Setenv("MAX_ATTEMPTS", "7")
	t.Setenv("AUTHORITY_BASE_URL", "https://authority.example")
	t.Setenv("PORT", "7070")

	cfg, err := config.Load(envFile)
	require.NoError(t, err)
	assert.Equal(t, "7070", cfg.Port, "environment wins over the file")
	assert.Equal(t, 7, cfg.MaxAttempts)
	assert.Equal(t, []time.Duration{0, 30 * time.Second, 2 * time.Minute}, cfg.RetrySchedule)
	assert.Equal(t, "from-file", cfg.WebhookSecret)
	assert.NoError(t, cfg.RequireAuthority())
}

func TestLoad_Invalid(t *testing.T) {
	t.Setenv("POLL_INTERVAL", "soon")
	_, err := config.Load(filepath.Join(t.TempDir(), "none.env"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "POLL_INTERVAL")
}

func TestValidate_ReportsEverything(t *testing.T) {
	cfg := &config.Config{SchemaVersion: "JPK_V7M(0)", SigningCertPath: "cert.pem"}
	err := cfg.Validate()
	require.Error(t, err)
	for _, want := range []string{"DB_PATH", "TENANT", "SIGNING_KEY", "AUTHORITY_CALL_TIMEOUT", "POLL_INTERVAL", "RETRY_SCHEDULE", "MAX_ATTEMPTS", "BATCH_WORKERS", "SCHEMA_VERSION"} {
		assert.Contains(t, err.Error(), want)
	}
}
