// Package config loads pipeline configuration from YAML with environment
// overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/catherinevee/boardmgr/internal/enrichment"
	"github.com/catherinevee/boardmgr/internal/logger"
)

// Config is the root configuration.
type Config struct {
	Archive    ArchiveConfig    `yaml:"archive"`
	Batch      BatchConfig      `yaml:"batch"`
	Database   DatabaseConfig   `yaml:"database"`
	Server     ServerConfig     `yaml:"server"`
	Sync       SyncConfig       `yaml:"sync"`
	Enrichment EnrichmentConfig `yaml:"enrichment"`
	Logging    logger.LogConfig `yaml:"logging"`
}

// ArchiveConfig configures the Common Crawl index client.
type ArchiveConfig struct {
	BaseURL            string  `yaml:"base_url" validate:"required,url"`
	FallbackCollection string  `yaml:"fallback_collection" validate:"required"`
	RequestsPerSecond  float64 `yaml:"requests_per_second" validate:"gt=0"`
	TimeoutSeconds     int     `yaml:"timeout_seconds" validate:"gt=0"`
}

// BatchConfig bounds one orchestrator invocation.
type BatchConfig struct {
	PagesPerProvider  int `yaml:"pages_per_provider" validate:"gt=0"`
	BoardsPerProvider int `yaml:"boards_per_provider" validate:"gt=0"`
	SyncConcurrency   int `yaml:"sync_concurrency" validate:"gt=0"`
}

// DatabaseConfig locates the SQLite database.
type DatabaseConfig struct {
	Path string `yaml:"path" validate:"required"`
}

// ServerConfig configures the HTTP surface.
type ServerConfig struct {
	Addr string `yaml:"addr" validate:"required"`
}

// EnrichmentConfig overrides the enrichment keyword dictionaries. An empty
// list keeps the built-in one; entries are ordered, most specific first.
type EnrichmentConfig struct {
	Industries  []enrichment.DictEntry `yaml:"industries"`
	TechSignals []enrichment.DictEntry `yaml:"tech_signals"`
}

// Extractor builds the slug extractor the configured dictionaries imply.
func (c EnrichmentConfig) Extractor() *enrichment.SlugExtractor {
	var industries, tech []enrichment.DictEntry
	if len(c.Industries) > 0 {
		industries = c.Industries
	}
	if len(c.TechSignals) > 0 {
		tech = c.TechSignals
	}
	return enrichment.NewSlugExtractor(industries, tech)
}

// SyncConfig configures the scheduled batch loop.
type SyncConfig struct {
	Interval time.Duration `yaml:"interval" validate:"gt=0"`
}

// UnmarshalYAML accepts Go duration strings ("6h", "30m") for the
// interval.
func (c *SyncConfig) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		Interval string `yaml:"interval"`
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}
	if raw.Interval != "" {
		d, err := time.ParseDuration(raw.Interval)
		if err != nil {
			return fmt.Errorf("parsing sync.interval: %w", err)
		}
		c.Interval = d
	}
	return nil
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Archive: ArchiveConfig{
			BaseURL:            "https://index.commoncrawl.org",
			FallbackCollection: "CC-MAIN-2025-26",
			RequestsPerSecond:  4,
			TimeoutSeconds:     30,
		},
		Batch: BatchConfig{
			PagesPerProvider:  10,
			BoardsPerProvider: 20,
			SyncConcurrency:   4,
		},
		Database: DatabaseConfig{
			Path: "./data/boardmgr.db",
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
		Sync: SyncConfig{
			Interval: 6 * time.Hour,
		},
		Logging: logger.LogConfig{
			Level:      "info",
			Format:     "json",
			Output:     "stdout",
			TimeFormat: time.RFC3339,
		},
	}
}

// Load reads path (when non-empty) over the defaults, applies environment
// overrides, and validates the result.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}

	applyEnvOverrides(cfg)

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("BOARDMGR_DB_PATH"); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv("BOARDMGR_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("BOARDMGR_ARCHIVE_BASE_URL"); v != "" {
		cfg.Archive.BaseURL = v
	}
	if v := os.Getenv("BOARDMGR_FALLBACK_COLLECTION"); v != "" {
		cfg.Archive.FallbackCollection = v
	}
	if v := os.Getenv("BOARDMGR_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("BOARDMGR_PAGES_PER_PROVIDER"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Batch.PagesPerProvider = n
		}
	}
	if v := os.Getenv("BOARDMGR_BOARDS_PER_PROVIDER"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Batch.BoardsPerProvider = n
		}
	}
	if v := os.Getenv("BOARDMGR_SYNC_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Sync.Interval = d
		}
	}
}
