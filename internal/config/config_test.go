package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_RequiresSecrets(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("OPENAI_API_KEY", "")

	_, err := Load()
	require.Error(t, err)
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("OPENAI_API_KEY", "sk-test")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "0.0.0.0:8080", cfg.Addr())
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.AllowedOrigins)
	assert.Equal(t, 30*time.Second, cfg.ChatTimeout)
	assert.Equal(t, 50, cfg.MinWithdrawalPoints)
	assert.Equal(t, 500, cfg.MaxWithdrawalPoints)
	assert.Equal(t, 500, cfg.DailyPointCap)
	assert.False(t, cfg.TrustProxy)
	assert.Equal(t, slog.LevelInfo, cfg.SlogLevel())
}

func TestLoad_InconsistentLimits(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("MIN_WITHDRAWAL_POINTS", "100")
	t.Setenv("MAX_WITHDRAWAL_POINTS", "50")

	_, err := Load()
	require.Error(t, err)
}

func TestSlogLevel(t *testing.T) {
	cfg := &Config{LogLevel: "DEBUG"}
	assert.Equal(t, slog.LevelDebug, cfg.SlogLevel())
	cfg.LogLevel = "warning"
	assert.Equal(t, slog.LevelWarn, cfg.SlogLevel())
}
