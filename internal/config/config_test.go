package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFromEnv_Defaults(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("OPENAI_API_KEY_PARAM", "")
	t.Setenv("OPENAI_BASE_URL", "")
	t.Setenv("OPENAI_MODEL", "")
	t.Setenv("MODEL_TIMEOUT", "")
	t.Setenv("MAX_INPUT_LENGTH", "")
	t.Setenv("SESSION_IDLE_TTL", "")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("HTTP_ADDR", "")

	cfg, err := FromEnv()
	require.NoError(t, err)
	require.Equal(t, Config{
		APIKey:         "sk-test",
		BaseURL:        "https://api.openai.com/v1",
		Model:          "gpt-5",
		ModelTimeout:   90 * time.Second,
		MaxInputLength: 4000,
		SessionIdleTTL: 2 * time.Hour,
		LogLevel:       slog.LevelInfo,
		HTTPAddr:       ":8080",
	}, cfg)
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("OPENAI_API_KEY_PARAM", "/triage/openai")
	t.Setenv("OPENAI_BASE_URL", "http://localhost:9999/v1")
	t.Setenv("OPENAI_MODEL", "gpt-4o-mini")
	t.Setenv("MODEL_TIMEOUT", "15s")
	t.Setenv("MAX_INPUT_LENGTH", "500")
	t.Setenv("SESSION_IDLE_TTL", "10m")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("HTTP_ADDR", "127.0.0.1:9000")

	cfg, err := FromEnv()
	require.NoError(t, err)
	require.Empty(t, cfg.APIKey)
	require.Equal(t, "/triage/openai", cfg.APIKeyParam)
	require.Equal(t, "http://localhost:9999/v1", cfg.BaseURL)
	require.Equal(t, "gpt-4o-mini", cfg.Model)
	require.Equal(t, 15*time.Second, cfg.ModelTimeout)
	require.Equal(t, 500, cfg.MaxInputLength)
	require.Equal(t, 10*time.Minute, cfg.SessionIdleTTL)
	require.Equal(t, slog.LevelDebug, cfg.LogLevel)
	require.Equal(t, "127.0.0.1:9000", cfg.HTTPAddr)
}

func TestFromEnv_RequiresCredential(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("OPENAI_API_KEY_PARAM", "  ")

	_, err := FromEnv()
	require.Error(t, err)
}

func TestFromEnv_InvalidNumbersFallBack(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("MODEL_TIMEOUT", "soon")
	t.Setenv("MAX_INPUT_LENGTH", "-3")
	t.Setenv("SESSION_IDLE_TTL", "0s")
	t.Setenv("LOG_LEVEL", "")

	cfg, err := FromEnv()
	require.NoError(t, err)
	require.Equal(t, 90*time.Second, cfg.ModelTimeout)
	require.Equal(t, 4000, cfg.MaxInputLength)
	require.Equal(t, 2*time.Hour, cfg.SessionIdleTTL)
}

func TestFromEnv_InvalidLogLevel(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("LOG_LEVEL", "chatty")

	_, err := FromEnv()
	require.Error(t, err)
}
