// Package config provides configuration loading and structs for the Po-You server.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Storage backend names accepted in config.
const (
	BackendSQLite = "sqlite"
	BackendDisk   = "disk"
)

// Config holds all configuration for the application. Environment variables
// override file values.
type Config struct {
	Debug      bool             `yaml:"debug" env:"POYOU_DEBUG"`
	Server     ServerConfig     `yaml:"server"`
	Storage    StorageConfig    `yaml:"storage"`
	Classifier ClassifierConfig `yaml:"classifier"`
	Search     SearchConfig     `yaml:"search"`
	Watch      WatchConfig      `yaml:"watch"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host" env:"POYOU_HOST"`
	Port int    `yaml:"port" env:"POYOU_PORT"`
}

// StorageConfig selects the poster backend and its paths. DatabasePath and
// AssetDir serve the sqlite backend; DataDir serves the disk backend.
type StorageConfig struct {
	Backend      string `yaml:"backend" env:"POYOU_STORAGE_BACKEND"`
	DatabasePath string `yaml:"database_path" env:"POYOU_DATABASE_PATH"`
	AssetDir     string `yaml:"asset_dir" env:"POYOU_ASSET_DIR"`
	DataDir      string `yaml:"data_dir" env:"POYOU_DATA_DIR"`
}

// ClassifierConfig holds the category model artifact location.
type ClassifierConfig struct {
	ArtifactDir string `yaml:"artifact_dir" env:"POSTER_REC_DIR"`
}

// SearchConfig holds ranking and paging settings.
type SearchConfig struct {
	DefaultLimit  int     `yaml:"default_limit"`
	MaxLimit      int     `yaml:"max_limit"`
	MinSimilarity float64 `yaml:"min_similarity"`
	SimilarLimit  int     `yaml:"similar_limit"`
}

// WatchConfig holds disk-backend watch settings.
type WatchConfig struct {
	Enabled    *bool `yaml:"enabled"`
	DebounceMS int   `yaml:"debounce_ms"`
}

// EnabledOrDefault reports whether watching is on; defaults to true when unset.
func (w *WatchConfig) EnabledOrDefault() bool {
	if w.Enabled != nil {
		return *w.Enabled
	}
	return true
}

// Load reads and parses the config file at path, applies environment
// overrides and defaults, and expands paths relative to the config directory.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to apply environment overrides: %w", err)
	}

	ApplyDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	configDir := filepath.Dir(path)
	cfg.Storage.DatabasePath = expandPath(cfg.Storage.DatabasePath, configDir)
	cfg.Storage.AssetDir = expandPath(cfg.Storage.AssetDir, configDir)
	cfg.Storage.DataDir = expandPath(cfg.Storage.DataDir, configDir)
	cfg.Classifier.ArtifactDir = expandPath(cfg.Classifier.ArtifactDir, configDir)

	return &cfg, nil
}

// FromEnv builds a config without a file, from environment variables and
// defaults only. Paths stay relative to the working directory.
func FromEnv() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}
	ApplyDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects values defaults cannot repair.
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case BackendSQLite, BackendDisk:
	default:
		return fmt.Errorf("unknown storage backend %q (want %q or %q)", c.Storage.Backend, BackendSQLite, BackendDisk)
	}
	if c.Search.MinSimilarity < 0 || c.Search.MinSimilarity >= 1 {
		return fmt.Errorf("search min_similarity %f out of range [0, 1)", c.Search.MinSimilarity)
	}
	return nil
}

// expandPath converts a path to absolute. Paths starting with "./" are
// relative to configDir; other relative paths are relative to the home
// directory.
func expandPath(path string, configDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
