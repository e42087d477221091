// Package config loads the songbook configuration from YAML with
// environment-variable overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete songbook configuration.
type Config struct {
	Storage StorageConfig `yaml:"storage"`
	Corpus  CorpusConfig  `yaml:"corpus"`
	Search  SearchConfig  `yaml:"search"`
	Logging LoggingConfig `yaml:"logging"`
}

// StorageConfig configures the SQLite catalog location.
type StorageConfig struct {
	// Path is the catalog database file. Defaults to ~/.songbook/songbook.db.
	Path string `yaml:"path"`
}

// CorpusConfig configures where the song corpus asset comes from.
type CorpusConfig struct {
	// File is a local corpus JSON path. Takes precedence over URL when both
	// are set.
	File string `yaml:"file"`
	// URL is an HTTP(S) location of the corpus JSON.
	URL string `yaml:"url"`
	// FetchTimeout bounds a corpus download (e.g. "30s").
	FetchTimeout string `yaml:"fetch_timeout"`
	// WatchDebounce is the settle window for reloads when watching the
	// corpus file (e.g. "500ms").
	WatchDebounce string `yaml:"watch_debounce"`
}

// SearchConfig configures the query engine defaults.
type SearchConfig struct {
	// MaxResults caps search output. 0 means unlimited.
	MaxResults int `yaml:"max_results"`
	// TitleCacheSize is the number of resolved display titles the CLI keeps
	// in memory.
	TitleCacheSize int `yaml:"title_cache_size"`
}

// LoggingConfig configures structured logging.
type LoggingConfig struct {
	Level string `yaml:"level"`
	// File is the log file path. Empty means the default location.
	File string `yaml:"file"`
}

// NewConfig creates a Config with sensible defaults.
func NewConfig() *Config {
	return &Config{
		Storage: StorageConfig{
			Path: defaultStoragePath(),
		},
		Corpus: CorpusConfig{
			FetchTimeout:  "30s",
			WatchDebounce: "500ms",
		},
		Search: SearchConfig{
			MaxResults:     0,
			TitleCacheSize: 256,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

func defaultStoragePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".songbook", "songbook.db")
	}
	return filepath.Join(home, ".songbook", "songbook.db")
}

// Load builds the effective configuration for dir:
// defaults, then .songbook.yaml in dir, then environment overrides.
func Load(dir string) (*Config, error) {
	cfg := NewConfig()

	if err := cfg.loadFromFile(dir); err != nil {
		return nil, err
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// loadFromFile attempts to load configuration from .songbook.yaml or
// .songbook.yml. A missing file is fine; defaults apply.
func (c *Config) loadFromFile(dir string) error {
	yamlPath := filepath.Join(dir, ".songbook.yaml")
	if _, err := os.Stat(yamlPath); err == nil {
		return c.loadYAML(yamlPath)
	}

	ymlPath := filepath.Join(dir, ".songbook.yml")
	if _, err := os.Stat(ymlPath); err == nil {
		return c.loadYAML(ymlPath)
	}

	return nil
}

// loadYAML loads and merges configuration from a YAML file.
func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var parsed Config
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	c.mergeWith(&parsed)
	return nil
}

// mergeWith merges non-zero values from other into c.
func (c *Config) mergeWith(other *Config) {
	if other.Storage.Path != "" {
		c.Storage.Path = other.Storage.Path
	}
	if other.Corpus.File != "" {
		c.Corpus.File = other.Corpus.File
	}
	if other.Corpus.URL != "" {
		c.Corpus.URL = other.Corpus.URL
	}
	if other.Corpus.FetchTimeout != "" {
		c.Corpus.FetchTimeout = other.Corpus.FetchTimeout
	}
	if other.Corpus.WatchDebounce != "" {
		c.Corpus.WatchDebounce = other.Corpus.WatchDebounce
	}
	if other.Search.MaxResults != 0 {
		c.Search.MaxResults = other.Search.MaxResults
	}
	if other.Search.TitleCacheSize != 0 {
		c.Search.TitleCacheSize = other.Search.TitleCacheSize
	}
	if other.Logging.Level != "" {
		c.Logging.Level = other.Logging.Level
	}
	if other.Logging.File != "" {
		c.Logging.File = other.Logging.File
	}
}

// applyEnvOverrides applies SONGBOOK_* environment variables, the highest
// precedence layer.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("SONGBOOK_DB"); v != "" {
		c.Storage.Path = v
	}
	if v := os.Getenv("SONGBOOK_CORPUS_FILE"); v != "" {
		c.Corpus.File = v
	}
	if v := os.Getenv("SONGBOOK_CORPUS_URL"); v != "" {
		c.Corpus.URL = v
	}
	if v := os.Getenv("SONGBOOK_MAX_RESULTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Search.MaxResults = n
		}
	}
	if v := os.Getenv("SONGBOOK_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
}

// Validate checks the final configuration.
func (c *Config) Validate() error {
	if c.Storage.Path == "" {
		return fmt.Errorf("storage.path must not be empty")
	}
	if c.Search.MaxResults < 0 {
		return fmt.Errorf("search.max_results must be non-negative, got %d", c.Search.MaxResults)
	}
	if c.Search.TitleCacheSize < 0 {
		return fmt.Errorf("search.title_cache_size must be non-negative, got %d", c.Search.TitleCacheSize)
	}

	if _, err := c.FetchTimeout(); err != nil {
		return fmt.Errorf("corpus.fetch_timeout: %w", err)
	}
	if _, err := c.WatchDebounce(); err != nil {
		return fmt.Errorf("corpus.watch_debounce: %w", err)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("logging.level must be 'debug', 'info', 'warn', or 'error', got %s", c.Logging.Level)
	}

	return nil
}

// FetchTimeout parses the corpus fetch timeout.
func (c *Config) FetchTimeout() (time.Duration, error) {
	return time.ParseDuration(c.Corpus.FetchTimeout)
}

// WatchDebounce parses the corpus watch debounce window.
func (c *Config) WatchDebounce() (time.Duration, error) {
	return time.ParseDuration(c.Corpus.WatchDebounce)
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
