package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"gopkg.in/yaml.v3"
)

// Config captures the settings required to boot the attrition engine.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Dataset  DatasetConfig  `yaml:"dataset"`
	Logging  LoggingConfig  `yaml:"logging"`
	Insights InsightsConfig `yaml:"insights"`
	Cache    CacheConfig    `yaml:"cache"`
}

// ServerConfig controls the gRPC and HTTP listeners.
type ServerConfig struct {
	Address         string        `yaml:"address"`
	HTTPAddress     string        `yaml:"httpAddress"`
	GracefulTimeout time.Duration `yaml:"gracefulTimeout"`
}

// DatasetConfig selects where the employee dataset is loaded from. Exactly
// one of Path, URL and SQLitePath should be set; Path wins, then URL.
type DatasetConfig struct {
	Path        string        `yaml:"path"`
	URL         string        `yaml:"url"`
	SQLitePath  string        `yaml:"sqlitePath"`
	SQLiteTable string        `yaml:"sqliteTable"`
	Delimiter   string        `yaml:"delimiter"`
	Timeout     time.Duration `yaml:"timeout"`
}

// LoggingConfig controls structured logging.
type LoggingConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// InsightsConfig points at the optional threshold pack.
type InsightsConfig struct {
	ThresholdsPath string `yaml:"thresholdsPath"`
}

// CacheConfig controls the in-process analysis cache.
type CacheConfig struct {
	Enabled bool          `yaml:"enabled"`
	Size    int           `yaml:"size"`
	TTL     time.Duration `yaml:"ttl"`
}

// Load initialises Config from a YAML file and optional environment overrides.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv("ATTRITION_CONFIG")
	}

	cfg := defaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("config file %s not found: %w", path, err)
			}
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnvOverrides(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports settings that cannot work together.
func (c *Config) Validate() error {
	if _, err := c.Dataset.DelimiterRune(); err != nil {
		return err
	}
	if c.Dataset.SQLitePath != "" && c.Dataset.SQLiteTable == "" {
		return errors.New("dataset.sqliteTable is required with dataset.sqlitePath")
	}
	if c.Cache.Size < 0 {
		return fmt.Errorf("cache.size must not be negative, got %d", c.Cache.Size)
	}
	return nil
}

// DelimiterRune returns the single-character field delimiter.
func (d DatasetConfig) DelimiterRune() (rune, error) {
	if d.Delimiter == "" {
		return ',', nil
	}
	if d.Delimiter == `\t` {
		return '\t', nil
	}
	r, size := utf8.DecodeRuneInString(d.Delimiter)
	if size != len(d.Delimiter) || r == '"' || r == '\n' || r == '\r' {
		return 0, fmt.Errorf("dataset.delimiter %q must be a single character", d.Delimiter)
	}
	return r, nil
}

func defaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Address:         ":50051",
			HTTPAddress:     ":2112",
			GracefulTimeout: 10 * time.Second,
		},
		Dataset: DatasetConfig{
			SQLiteTable: "employees",
			Delimiter:   ",",
			Timeout:     30 * time.Second,
		},
		Logging:  LoggingConfig{Level: "info", JSON: false},
		Insights: InsightsConfig{ThresholdsPath: "configs/insights/default.yaml"},
		Cache: CacheConfig{
			Enabled: true,
			Size:    256,
			TTL:     10 * time.Minute,
		},
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("ATTRITION_SERVER_ADDRESS"); v != "" {
		cfg.Server.Address = v
	}
	if v := os.Getenv("ATTRITION_HTTP_ADDRESS"); v != "" {
		cfg.Server.HTTPAddress = v
	}
	if v := os.Getenv("ATTRITION_GRACEFUL_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Server.GracefulTimeout = d
		}
	}
	if v := os.Getenv("ATTRITION_DATASET_PATH"); v != "" {
		cfg.Dataset.Path = v
	}
	if v := os.Getenv("ATTRITION_DATASET_URL"); v != "" {
		cfg.Dataset.URL = v
	}
	if v := os.Getenv("ATTRITION_DATASET_SQLITE_PATH"); v != "" {
		cfg.Dataset.SQLitePath = v
	}
	if v := os.Getenv("ATTRITION_DATASET_SQLITE_TABLE"); v != "" {
		cfg.Dataset.SQLiteTable = v
	}
	if v := os.Getenv("ATTRITION_DATASET_DELIMITER"); v != "" {
		cfg.Dataset.Delimiter = v
	}
	if v := os.Getenv("ATTRITION_DATASET_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Dataset.Timeout = d
		}
	}
	if v := os.Getenv("ATTRITION_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("ATTRITION_LOG_FORMAT"); v != "" {
		cfg.Logging.JSON = strings.EqualFold(v, "json")
	}
	if v := os.Getenv("ATTRITION_THRESHOLDS_PATH"); v != "" {
		cfg.Insights.ThresholdsPath = v
	}
	if v := os.Getenv("ATTRITION_CACHE_ENABLED"); v != "" {
		cfg.Cache.Enabled = strings.EqualFold(v, "true") || v == "1"
	}
	if v := os.Getenv("ATTRITION_CACHE_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Cache.Size = n
		}
	}
	if v := os.Getenv("ATTRITION_CACHE_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Cache.TTL = d
		}
	}
}
