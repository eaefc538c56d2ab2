// Package config reads process configuration from the environment. It is read
// once at startup; nothing else in the module looks at environment variables.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultBaseURL      = "https://api.openai.com/v1"
	defaultModel        = "gpt-5"
	defaultModelTimeout = 90 * time.Second
	defaultMaxInput     = 4000
	defaultIdleTTL      = 2 * time.Hour
	defaultHTTPAddr     = ":8080"
)

type Config struct {
	// Exactly one of APIKey and APIKeyParam is used. APIKey wins when both
	// are set.
	APIKey      string
	APIKeyParam string

	BaseURL        string
	Model          string
	ModelTimeout   time.Duration
	MaxInputLength int
	SessionIdleTTL time.Duration
	LogLevel       slog.Level
	HTTPAddr       string
}

// FromEnv builds a Config from the process environment.
func FromEnv() (Config, error) {
	return fromLookup(os.LookupEnv)
}

func fromLookup(lookup func(string) (string, bool)) (Config, error) {
	env := func(key string) string {
		v, _ := lookup(key)
		return strings.TrimSpace(v)
	}

	cfg := Config{
		APIKey:         env("OPENAI_API_KEY"),
		APIKeyParam:    env("OPENAI_API_KEY_PARAM"),
		BaseURL:        envString(env, "OPENAI_BASE_URL", defaultBaseURL),
		Model:          envString(env, "OPENAI_MODEL", defaultModel),
		ModelTimeout:   envDuration(env, "MODEL_TIMEOUT", defaultModelTimeout),
		MaxInputLength: envInt(env, "MAX_INPUT_LENGTH", defaultMaxInput),
		SessionIdleTTL: envDuration(env, "SESSION_IDLE_TTL", defaultIdleTTL),
		HTTPAddr:       envString(env, "HTTP_ADDR", defaultHTTPAddr),
	}
	if cfg.APIKey == "" && cfg.APIKeyParam == "" {
		return Config{}, errors.New("config: OPENAI_API_KEY or OPENAI_API_KEY_PARAM must be set")
	}

	level, err := parseLevel(env("LOG_LEVEL"))
	if err != nil {
		return Config{}, err
	}
	cfg.LogLevel = level
	return cfg, nil
}

func envString(env func(string) string, key, def string) string {
	if v := env(key); v != "" {
		return v
	}
	return def
}

func envInt(env func(string) string, key string, def int) int {
	v := env(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func envDuration(env func(string) string, key string, def time.Duration) time.Duration {
	v := env(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return def
	}
	return d
}

func parseLevel(v string) (slog.Level, error) {
	if v == "" {
		return slog.LevelInfo, nil
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(v)); err != nil {
		return 0, fmt.Errorf("config: invalid LOG_LEVEL %q: %w", v, err)
	}
	return level, nil
}
