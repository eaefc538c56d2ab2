// Package credentials resolves the model provider's API key once at process
// start, either from the environment or from an SSM SecureString.
package credentials

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
)

// Source looks up a secret value by name.
type Source interface {
	Lookup(ctx context.Context, name string) (string, error)
}

// EnvSource reads secrets from environment variables.
type EnvSource struct{}

func (EnvSource) Lookup(_ context.Context, name string) (string, error) {
	v, ok := os.LookupEnv(name)
	if !ok || strings.TrimSpace(v) == "" {
		return "", fmt.Errorf("credentials: environment variable %s is not set", name)
	}
	return v, nil
}

// tokenPayload is the JSON shape stored in SSM for the API token.
type tokenPayload struct {
	Token string `json:"token"`
}

// ResolveAPIKey fetches name from src. The value may be a bare key or a JSON
// object of the form {"token": "..."}.
func ResolveAPIKey(ctx context.Context, src Source, name string) (string, error) {
	if src == nil {
		return "", errors.New("credentials: source is nil")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return "", errors.New("credentials: secret name is empty")
	}

	raw, err := src.Lookup(ctx, name)
	if err != nil {
		return "", fmt.Errorf("credentials: fetch api key: %w", err)
	}
	raw = strings.TrimSpace(raw)
	if !strings.HasPrefix(raw, "{") {
		if raw == "" {
			return "", errors.New("credentials: API token is empty")
		}
		return raw, nil
	}

	var tp tokenPayload
	if err := json.Unmarshal([]byte(raw), &tp); err != nil {
		return "", fmt.Errorf("credentials: unmarshal token value as JSON: %w", err)
	}
	if strings.TrimSpace(tp.Token) == "" {
		return "", errors.New("credentials: API token is empty")
	}
	return strings.TrimSpace(tp.Token), nil
}
