package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsWhenNoFile(t *testing.T) {
	// when
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))

	// then
	require.NoError(t, err)
	assert.Equal(t, 8181, cfg.Port)
	assert.Equal(t, "financy", cfg.Database.Schema)
	assert.Equal(t, int32(25), cfg.Database.MaxConns)
	assert.Equal(t, 100, cfg.RateLimit.RequestsPerMinute)
	assert.False(t, cfg.RateLimit.TrustProxy)
	assert.Equal(t, 30*time.Minute, cfg.Wizard.SessionTtl)
	assert.Equal(t, 3, cfg.Wizard.LookbackMonths)
	assert.InDelta(t, 0.8, cfg.Notifications.WarnThreshold, 0.0001)
}

func TestLoad_FileThenEnvironment(t *testing.T) {
	// given
	path := filepath.Join(t.TempDir(), "application.yaml")
	yaml := `
port: 9090
db:
  host: db.internal
  name: finance
ratelimit:
  burst: 5
wizard:
  sessionttl: 1h
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))
	t.Setenv("FINANCY_DB_NAME", "finance_override")
	t.Setenv("FINANCY_AUTH_JWTSECRET", "s3cret")
	t.Setenv("FINANCY_CORS_ALLOWEDORIGINS", "https://app.example.com,https://admin.example.com")

	// when
	cfg, err := Load(path)

	// then
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, "finance_override", cfg.Database.Name)
	assert.Equal(t, 5, cfg.RateLimit.Burst)
	assert.Equal(t, time.Hour, cfg.Wizard.SessionTtl)
	assert.Equal(t, "s3cret", cfg.Auth.JwtSecret)
	assert.Equal(t, []string{"https://app.example.com", "https://admin.example.com"}, cfg.Cors.AllowedOrigins)
}
