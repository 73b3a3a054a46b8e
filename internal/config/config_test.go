package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv(EnvFile, "")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Addr != ":3001" || cfg.Shard != "pc-sea" || cfg.Seed != 42 || cfg.CVFolds != 5 || cfg.TestSize != 0.2 {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if cfg.CategoryPolicy != "coerce-to-one" {
		t.Errorf("category policy default: %q", cfg.CategoryPolicy)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv(EnvFile, "")
	t.Setenv("DPIPE_ADDR", ":8080")
	t.Setenv("DPIPE_JOBS", "4")
	t.Setenv("DPIPE_PUBG_API_KEY", "secret")
	t.Setenv("DPIPE_TEST_SIZE", "0.25")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Addr != ":8080" || cfg.Jobs != 4 || cfg.PUBGAPIKey != "secret" || cfg.TestSize != 0.25 {
		t.Errorf("env overrides not applied: %+v", cfg)
	}
	if cfg.Shard != "pc-sea" {
		t.Errorf("untouched keys should keep defaults, shard=%q", cfg.Shard)
	}
}

func TestLoadFileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dpipe.yaml")
	yaml := "addr: \":9000\"\nshard: pc-na\nmodel: /tmp/m.model\n"
	if err := os.WriteFile(path, []byte(yaml), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv(EnvFile, path)
	t.Setenv("DPIPE_SHARD", "steam")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Addr != ":9000" || cfg.ModelPath != "/tmp/m.model" {
		t.Errorf("file values not applied: %+v", cfg)
	}
	if cfg.Shard != "steam" {
		t.Errorf("env should win over file, shard=%q", cfg.Shard)
	}
}

func TestLoadMissingFile(t *testing.T) {
	t.Setenv(EnvFile, filepath.Join(t.TempDir(), "nope.yaml"))
	if _, err := Load(); err == nil {
		t.Fatal("expected error for a missing config file")
	}
}

func TestValidate(t *testing.T) {
	cases := map[string]func(c *Config){
		"empty addr":   func(c *Config) { c.Addr = "" },
		"bad policy":   func(c *Config) { c.CategoryPolicy = "maybe" },
		"test size":    func(c *Config) { c.TestSize = 1 },
		"folds":        func(c *Config) { c.CVFolds = 1 },
		"negative job": func(c *Config) { c.Jobs = -1 },
		"log format":   func(c *Config) { c.LogFormat = "xml" },
	}
	for name, mutate := range cases {
		c := New()
		mutate(c)
		if err := c.Validate(); !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("%s: expected ErrInvalidConfig, got %v", name, err)
		}
	}
	if err := New().Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestAPIKeyFallsBackToFile(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	c := New()
	if _, err := c.APIKey(); !errors.Is(err, ErrNoAPIKey) {
		t.Fatalf("expected ErrNoAPIKey, got %v", err)
	}

	if err := os.MkdirAll(filepath.Join(home, ".dpipe"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(home, ".dpipe", "pubg_api_key"), []byte("  from-file\n"), 0600); err != nil {
		t.Fatal(err)
	}
	key, err := c.APIKey()
	if err != nil || key != "from-file" {
		t.Errorf("APIKey: got %q, %v", key, err)
	}

	c.PUBGAPIKey = "from-env"
	if key, _ := c.APIKey(); key != "from-env" {
		t.Errorf("configured key should win, got %q", key)
	}
}
