package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/mstoykov/envconfig"
)

// ServerConfig holds the API server configuration. Values load in three
// layers: defaults, then an optional JSON config file, then HTTPOBS_*
// environment variables.
type ServerConfig struct {
	Listen              string `json:"listen" envconfig:"HTTPOBS_LISTEN"`
	Database            string `json:"database" envconfig:"HTTPOBS_DATABASE"`
	BaseURL             string `json:"base_url" envconfig:"HTTPOBS_BASE_URL"`
	CooldownSeconds     int    `json:"cooldown_seconds" envconfig:"HTTPOBS_COOLDOWN_SECONDS"`
	AllowPrivateTargets bool   `json:"allow_private_targets" envconfig:"HTTPOBS_ALLOW_PRIVATE_TARGETS"`
	TechDetect          bool   `json:"tech_detect" envconfig:"HTTPOBS_TECH_DETECT"`
	UserAgent           string `json:"user_agent" envconfig:"HTTPOBS_USER_AGENT"`
	ScanTimeoutSeconds  int    `json:"scan_timeout_seconds" envconfig:"HTTPOBS_SCAN_TIMEOUT_SECONDS"`
	RateLimit           int    `json:"rate_limit" envconfig:"HTTPOBS_RATE_LIMIT"`
	Debug               bool   `json:"debug" envconfig:"HTTPOBS_DEBUG"`
}

// DefaultServerConfig returns the server defaults.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Listen:             ":57001",
		Database:           "httpobs.sqlite",
		CooldownSeconds:    60,
		ScanTimeoutSeconds: 45,
		RateLimit:          10,
	}
}

// LoadServer builds the server configuration. path may be empty to skip
// the config file layer.
func LoadServer(path string) (ServerConfig, error) {
	cfg := DefaultServerConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("reading config file: %w", err)
		}
		if err := json.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}

	if err := envconfig.Process("", &cfg, func(key string) (string, bool) {
		return os.LookupEnv(key)
	}); err != nil {
		return cfg, fmt.Errorf("reading environment: %w", err)
	}

	return cfg, nil
}
