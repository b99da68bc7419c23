// Package config defines process configuration and its loading order.
package config

import (
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/avasquez/catador/internal/errors"
)

// Config contains process configuration.
type Config struct {
	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// DBPath is the SQLite database file, or ":memory:".
	DBPath string `koanf:"db_path"`

	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogHTTP enables per-request logging.
	LogHTTP bool `koanf:"log_http"`

	// SessionPassword protects the admin and director login.
	SessionPassword string `koanf:"session_password"`

	// PaymentsBaseURL points at the external payment gateway.
	PaymentsBaseURL string `koanf:"payments_base_url"`

	// DefaultTopN is the ranking cutoff used when a contest does not set one.
	DefaultTopN int `koanf:"default_top_n"`

	// DefaultMaxAssignments is the per-judge capacity used when a judge is
	// registered without an explicit limit.
	DefaultMaxAssignments int `koanf:"default_max_assignments"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		Addr:                  ":8080",
		DBPath:                "catador.db",
		LogLevel:              "info",
		LogHTTP:               false,
		SessionPassword:       "",
		PaymentsBaseURL:       "http://localhost:9090",
		DefaultTopN:           10,
		DefaultMaxAssignments: 5,
	}
}

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if CATADOR_CONFIG is set
//  3. env (prefix CATADOR_)
func Load() (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv("CATADOR_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, err
		}
	}

	// Environment variables: CATADOR_ADDR, CATADOR_DB_PATH, ...
	// Underscores are preserved to match the koanf tags on the struct.
	envProvider := env.Provider("CATADOR_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "catador_")
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, err
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, err
	}

	if cfg.Addr == "" {
		return nil, errors.Validation("addr must not be empty")
	}
	if cfg.DBPath == "" {
		return nil, errors.Validation("db_path must not be empty")
	}
	if cfg.DefaultTopN < 1 {
		return nil, errors.Validation("default_top_n must be positive")
	}
	return &cfg, nil
}
