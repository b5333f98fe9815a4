package config

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/dmorgan81/imagegen/internal/log"
)

const (
	DefaultGatewayURL     = "https://ai.gateway.lovable.dev/v1/chat/completions"
	DefaultGatewayModel   = "google/gemini-2.5-flash-image-preview"
	DefaultGatewayTimeout = 120 * time.Second
	DefaultKeyEnv         = "AI_GATEWAY_API_KEY"
	DefaultRelayURL       = "http://localhost:8080/"
)

// Config is read from the environment. The credential itself is not part
// of it: the relay resolves it on every invocation.
type Config struct {
	GatewayURL     string
	GatewayModel   string
	GatewayTimeout time.Duration
	// KeyEnv names the environment variable holding the credential.
	KeyEnv string
	// KeyParam, when set, is an SSM parameter path used instead of KeyEnv.
	KeyParam string
	RelayURL string
	LogLevel slog.Level
}

func Load() (*Config, error) {
	return load(os.Getenv)
}

func load(getenv func(string) string) (*Config, error) {
	get := func(key, def string) string {
		if v := getenv(key); v != "" {
			return v
		}
		return def
	}

	cfg := &Config{
		GatewayURL:     get("AI_GATEWAY_URL", DefaultGatewayURL),
		GatewayModel:   get("AI_GATEWAY_MODEL", DefaultGatewayModel),
		GatewayTimeout: DefaultGatewayTimeout,
		KeyEnv:         DefaultKeyEnv,
		KeyParam:       getenv("AI_GATEWAY_API_KEY_PARAM"),
		RelayURL:       get("RELAY_URL", DefaultRelayURL),
		LogLevel:       log.ParseLevel(getenv("LOG_LEVEL")),
	}

	if v := getenv("AI_GATEWAY_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("AI_GATEWAY_TIMEOUT: %w", err)
		}
		if d < 0 {
			return nil, fmt.Errorf("AI_GATEWAY_TIMEOUT must not be negative, got %s", v)
		}
		cfg.GatewayTimeout = d
	}

	return cfg, nil
}
