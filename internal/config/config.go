// Package config loads dpipe settings by layering defaults, an optional YAML
// file named by DPIPE_CONFIG, and DPIPE_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/pable/go-data-pipelines/internal/categories"
)

const (
	// EnvPrefix prefixes every environment override, e.g. DPIPE_ADDR.
	EnvPrefix = "DPIPE_"
	// EnvFile names the optional YAML config file.
	EnvFile = "DPIPE_CONFIG"
)

var (
	ErrInvalidConfig = errors.New("invalid config")
	ErrNoAPIKey      = errors.New("PUBG API key not found: set DPIPE_PUBG_API_KEY or create ~/.dpipe/pubg_api_key")
)

// Config holds process configuration. Cobra flags override these when set.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`
	// LogFormat is "console" or "json".
	LogFormat string `koanf:"log_format"`

	// DBPath is the SQLite file holding the messages table and the scrape ledger.
	DBPath    string `koanf:"db"`
	ModelPath string `koanf:"model"`
	// Addr is the dashboard listen address.
	Addr string `koanf:"addr"`

	PUBGAPIKey  string `koanf:"pubg_api_key"`
	PUBGBaseURL string `koanf:"pubg_base_url"`
	Shard       string `koanf:"shard"`
	OutDir      string `koanf:"out_dir"`

	CategoryPolicy string  `koanf:"category_policy"`
	Seed           uint64  `koanf:"seed"`
	CVFolds        int     `koanf:"cv_folds"`
	TestSize       float64 `koanf:"test_size"`
	Jobs           int     `koanf:"jobs"`
	// Lemmas is an optional dictionary file replacing the embedded one.
	Lemmas string `koanf:"lemmas"`
}

// New returns the defaults.
func New() *Config {
	return &Config{
		LogLevel:       "info",
		LogFormat:      "console",
		DBPath:         "disaster_response.db",
		ModelPath:      "classifier.model",
		Addr:           ":3001",
		PUBGBaseURL:    "https://api.pubg.com",
		Shard:          "pc-sea",
		OutDir:         "data",
		CategoryPolicy: categories.CoerceToOne.String(),
		Seed:           42,
		CVFolds:        5,
		TestSize:       0.2,
		Jobs:           1,
	}
}

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if DPIPE_CONFIG is set
//  3. env (prefix DPIPE_)
func Load() (*Config, error) {
	k := koanf.New(".")

	if path := os.Getenv(EnvFile); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	// DPIPE_PUBG_API_KEY -> pubg_api_key (flat keys, underscores kept).
	envProvider := env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.TrimPrefix(strings.ToLower(s), strings.ToLower(EnvPrefix))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cfg := New()
	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks ranges and enumerations.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	if _, err := categories.ParsePolicy(c.CategoryPolicy); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if c.TestSize <= 0 || c.TestSize >= 1 {
		return fmt.Errorf("%w: test_size must be in (0, 1), got %v", ErrInvalidConfig, c.TestSize)
	}
	if c.CVFolds < 2 {
		return fmt.Errorf("%w: cv_folds must be at least 2, got %d", ErrInvalidConfig, c.CVFolds)
	}
	if c.Jobs < 0 {
		return fmt.Errorf("%w: jobs must not be negative, got %d", ErrInvalidConfig, c.Jobs)
	}
	switch c.LogFormat {
	case "console", "json":
	default:
		return fmt.Errorf("%w: log_format must be console or json, got %q", ErrInvalidConfig, c.LogFormat)
	}
	return nil
}

// APIKey returns the configured PUBG API key, falling back to the
// ~/.dpipe/pubg_api_key file.
func (c *Config) APIKey() (string, error) {
	if c.PUBGAPIKey != "" {
		return c.PUBGAPIKey, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(filepath.Join(home, ".dpipe", "pubg_api_key"))
	if err != nil {
		return "", ErrNoAPIKey
	}
	key := strings.TrimSpace(string(data))
	if key == "" {
		return "", ErrNoAPIKey
	}
	return key, nil
}
