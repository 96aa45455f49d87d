package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("ATTRITION_CONFIG", "")
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Address != ":50051" || cfg.Server.HTTPAddress != ":2112" {
		t.Fatalf("unexpected server defaults: %+v", cfg.Server)
	}
	if !cfg.Cache.Enabled || cfg.Cache.Size != 256 || cfg.Cache.TTL != 10*time.Minute {
		t.Fatalf("unexpected cache defaults: %+v", cfg.Cache)
	}
	if d, _ := cfg.Dataset.DelimiterRune(); d != ',' {
		t.Fatalf("expected comma delimiter, got %q", d)
	}
}

func TestLoadFileAndEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(`server:
  address: ":6000"
dataset:
  path: /data/hr.csv
  delimiter: ";"
logging:
  level: debug
cache:
  size: 32
`), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("ATTRITION_CONFIG", path)
	t.Setenv("ATTRITION_CACHE_TTL", "90s")
	t.Setenv("ATTRITION_LOG_FORMAT", "json")
	t.Setenv("ATTRITION_CACHE_ENABLED", "false")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Address != ":6000" || cfg.Dataset.Path != "/data/hr.csv" || cfg.Logging.Level != "debug" {
		t.Fatalf("file values not applied: %+v", cfg)
	}
	if cfg.Server.HTTPAddress != ":2112" {
		t.Fatalf("unset keys must keep defaults, got %q", cfg.Server.HTTPAddress)
	}
	if cfg.Cache.Size != 32 || cfg.Cache.TTL != 90*time.Second || cfg.Cache.Enabled {
		t.Fatalf("unexpected cache config: %+v", cfg.Cache)
	}
	if !cfg.Logging.JSON {
		t.Fatalf("expected JSON logging from env")
	}
	if d, _ := cfg.Dataset.DelimiterRune(); d != ';' {
		t.Fatalf("expected semicolon delimiter, got %q", d)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatalf("expected error for missing config file")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"long delimiter", func(c *Config) { c.Dataset.Delimiter = ";;" }},
		{"quote delimiter", func(c *Config) { c.Dataset.Delimiter = `"` }},
		{"sqlite without table", func(c *Config) { c.Dataset.SQLitePath = "hr.db"; c.Dataset.SQLiteTable = "" }},
		{"negative cache size", func(c *Config) { c.Cache.Size = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}

	cfg := defaultConfig()
	cfg.Dataset.Delimiter = `\t`
	if d, err := cfg.Dataset.DelimiterRune(); err != nil || d != '\t' {
		t.Fatalf("expected tab delimiter, got %q %v", d, err)
	}
}
