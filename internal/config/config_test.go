package config_test

import (
	"bytes"
	"testing"

	"easylist/internal/config"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("DELETE_REQUIRES_OWNER", "false")

	cfg := config.Load()

	assert.Equal(t, "9090", cfg.ServerPort)
	assert.False(t, cfg.DeleteRequiresOwner)
	assert.False(t, cfg.TrustClientTimestamps)
	assert.Equal(t, uint(3), cfg.NotifyAttempts)
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("NOTIFY_WORKERS", "many")
	t.Setenv("TRUST_CLIENT_TIMESTAMPS", "perhaps")
	t.Setenv("SMTP_PORT", "-1")

	cfg := config.Load()

	assert.Equal(t, 2, cfg.NotifyWorkers)
	assert.False(t, cfg.TrustClientTimestamps)
	assert.Equal(t, 587, cfg.SMTPPort)
}

func TestConfig_DSNs(t *testing.T) {
	cfg := &config.Config{
		DBHost:     "db",
		DBPort:     "5432",
		DBUser:     "u",
		DBPassword: "p",
		DBName:     "lists",
		DBSSLMode:  "disable",
	}

	assert.Equal(t, "host=db port=5432 user=u password=p dbname=lists sslmode=disable", cfg.PostgresDSN())
	assert.Equal(t, "pgx5://u:p@db:5432/lists?sslmode=disable", cfg.PostgresURL())
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	cfg := &config.Config{LogLevel: "warn", LogFormat: "json"}

	logger := cfg.NewLogger(&buf)
	logger.Info("hidden")
	logger.Warn("shown", "key", "value")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"msg":"shown"`)
	assert.Contains(t, out, `"key":"value"`)
}

func TestNewLogger_FallsBackToInfoText(t *testing.T) {
	var buf bytes.Buffer
	cfg := &config.Config{LogLevel: "loud", LogFormat: "yaml"}

	cfg.NewLogger(&buf).Info("hello")

	assert.Contains(t, buf.String(), "level=INFO msg=hello")
}
