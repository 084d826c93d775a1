// Package config loads titlesearch configuration from defaults, an
// optional YAML or TOML file, and TITLESEARCH_* environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	serrors "github.com/Aman-CERP/titlesearch/internal/errors"
)

// ConfigPathEnv names the environment variable that points at a config file
// when no --config flag is given.
const ConfigPathEnv = "CONFIG_PATH"

// Config represents the complete titlesearch configuration.
type Config struct {
	Database DatabaseConfig `yaml:"database" toml:"database" json:"database"`
	Server   ServerConfig   `yaml:"server" toml:"server" json:"server"`
	Indexer  IndexerConfig  `yaml:"indexer" toml:"indexer" json:"indexer"`
	Search   SearchConfig   `yaml:"search" toml:"search" json:"search"`
	Logging  LoggingConfig  `yaml:"logging" toml:"logging" json:"logging"`
}

// DatabaseConfig configures the title catalog.
type DatabaseConfig struct {
	// Driver is "sqlite" (pure Go, default) or "sqlite3" (cgo).
	Driver        string `yaml:"driver" toml:"driver" json:"driver"`
	Path          string `yaml:"path" toml:"path" json:"path"`
	MaxOpenConns  int    `yaml:"max_open_conns" toml:"max_open_conns" json:"max_open_conns"`
	BusyTimeoutMS int    `yaml:"busy_timeout_ms" toml:"busy_timeout_ms" json:"busy_timeout_ms"`
}

// ServerConfig configures the HTTP transport.
type ServerConfig struct {
	Host            string  `yaml:"host" toml:"host" json:"host"`
	Port            int     `yaml:"port" toml:"port" json:"port"`
	ReadTimeout     string  `yaml:"read_timeout" toml:"read_timeout" json:"read_timeout"`
	WriteTimeout    string  `yaml:"write_timeout" toml:"write_timeout" json:"write_timeout"`
	ShutdownTimeout string  `yaml:"shutdown_timeout" toml:"shutdown_timeout" json:"shutdown_timeout"`
	RateLimit       float64 `yaml:"rate_limit" toml:"rate_limit" json:"rate_limit"` // requests/second, 0 disables
	RateBurst       int     `yaml:"rate_burst" toml:"rate_burst" json:"rate_burst"`
	PIDFile         string  `yaml:"pid_file" toml:"pid_file" json:"pid_file"`
}

// IndexerConfig configures the rebuild scheduler.
type IndexerConfig struct {
	BatchSize    int    `yaml:"batch_size" toml:"batch_size" json:"batch_size"`
	Interval     string `yaml:"interval" toml:"interval" json:"interval"`
	InitialDelay string `yaml:"initial_delay" toml:"initial_delay" json:"initial_delay"`
	// WaitUntilIndexed blocks serving until the first pass completes.
	WaitUntilIndexed bool `yaml:"wait_until_indexed" toml:"wait_until_indexed" json:"wait_until_indexed"`
}

// SearchConfig configures the search service.
type SearchConfig struct {
	CacheSize int `yaml:"cache_size" toml:"cache_size" json:"cache_size"`
}

// LoggingConfig configures structured logging.
type LoggingConfig struct {
	Enabled   bool   `yaml:"enabled" toml:"enabled" json:"enabled"`
	Level     string `yaml:"level" toml:"level" json:"level"`
	Format    string `yaml:"format" toml:"format" json:"format"` // json, text or auto
	FilePath  string `yaml:"file_path" toml:"file_path" json:"file_path"`
	MaxSizeMB int    `yaml:"max_size_mb" toml:"max_size_mb" json:"max_size_mb"`
	MaxFiles  int    `yaml:"max_files" toml:"max_files" json:"max_files"`
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Driver:        "sqlite",
			Path:          "titlesearch.db",
			MaxOpenConns:  4,
			BusyTimeoutMS: 5000,
		},
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     "10s",
			WriteTimeout:    "10s",
			ShutdownTimeout: "15s",
			RateLimit:       0,
			RateBurst:       20,
		},
		Indexer: IndexerConfig{
			BatchSize:        1000,
			Interval:         "10m",
			InitialDelay:     "0s",
			WaitUntilIndexed: true,
		},
		Search: SearchConfig{
			CacheSize: 1024,
		},
		Logging: LoggingConfig{
			Enabled:   true,
			Level:     "info",
			Format:    "auto",
			MaxSizeMB: 10,
			MaxFiles:  5,
		},
	}
}

// Load builds the effective configuration with precedence (lowest to highest):
//  1. Hardcoded defaults
//  2. Config file at path, or at $CONFIG_PATH when path is empty
//  3. Environment variables (TITLESEARCH_*)
func Load(path string) (*Config, error) {
	cfg := NewConfig()

	if path == "" {
		path = os.Getenv(ConfigPathEnv)
	}
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, serrors.ConfigError("invalid configuration", err)
	}

	return cfg, nil
}

// loadFile parses path by extension and merges it over the defaults.
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return serrors.New(serrors.ErrCodeConfigNotFound,
				fmt.Sprintf("config file %s not found", path), err)
		}
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	// Parse into a fresh struct so only keys present in the file override.
	var parsed Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		err = toml.Unmarshal(data, &parsed)
	case ".yaml", ".yml", "":
		err = yaml.Unmarshal(data, &parsed)
	default:
		return serrors.ConfigError(fmt.Sprintf("unsupported config format %q (use .yaml or .toml)", filepath.Ext(path)), nil)
	}
	if err != nil {
		return serrors.ConfigError(fmt.Sprintf("failed to parse config file %s", path), err)
	}

	c.mergeWith(&parsed, data)
	return nil
}

// mergeWith merges non-zero values from other into c. Booleans default to
// true, so they are only taken from the file when their key is present.
func (c *Config) mergeWith(other *Config, raw []byte) {
	// Database
	if other.Database.Driver != "" {
		c.Database.Driver = other.Database.Driver
	}
	if other.Database.Path != "" {
		c.Database.Path = other.Database.Path
	}
	if other.Database.MaxOpenConns != 0 {
		c.Database.MaxOpenConns = other.Database.MaxOpenConns
	}
	if other.Database.BusyTimeoutMS != 0 {
		c.Database.BusyTimeoutMS = other.Database.BusyTimeoutMS
	}

	// Server
	if other.Server.Host != "" {
		c.Server.Host = other.Server.Host
	}
	if other.Server.Port != 0 {
		c.Server.Port = other.Server.Port
	}
	if other.Server.ReadTimeout != "" {
		c.Server.ReadTimeout = other.Server.ReadTimeout
	}
	if other.Server.WriteTimeout != "" {
		c.Server.WriteTimeout = other.Server.WriteTimeout
	}
	if other.Server.ShutdownTimeout != "" {
		c.Server.ShutdownTimeout = other.Server.ShutdownTimeout
	}
	if other.Server.RateLimit != 0 {
		c.Server.RateLimit = other.Server.RateLimit
	}
	if other.Server.RateBurst != 0 {
		c.Server.RateBurst = other.Server.RateBurst
	}
	if other.Server.PIDFile != "" {
		c.Server.PIDFile = other.Server.PIDFile
	}

	// Indexer
	if other.Indexer.BatchSize != 0 {
		c.Indexer.BatchSize = other.Indexer.BatchSize
	}
	if other.Indexer.Interval != "" {
		c.Indexer.Interval = other.Indexer.Interval
	}
	if other.Indexer.InitialDelay != "" {
		c.Indexer.InitialDelay = other.Indexer.InitialDelay
	}
	if hasKey(raw, "wait_until_indexed") {
		c.Indexer.WaitUntilIndexed = other.Indexer.WaitUntilIndexed
	}

	// Search: zero is meaningful (disables the cache).
	if hasKey(raw, "cache_size") {
		c.Search.CacheSize = other.Search.CacheSize
	}

	// Logging
	if hasKey(raw, "enabled") {
		c.Logging.Enabled = other.Logging.Enabled
	}
	if other.Logging.Level != "" {
		c.Logging.Level = other.Logging.Level
	}
	if other.Logging.Format != "" {
		c.Logging.Format = other.Logging.Format
	}
	if other.Logging.FilePath != "" {
		c.Logging.FilePath = other.Logging.FilePath
	}
	if other.Logging.MaxSizeMB != 0 {
		c.Logging.MaxSizeMB = other.Logging.MaxSizeMB
	}
	if other.Logging.MaxFiles != 0 {
		c.Logging.MaxFiles = other.Logging.MaxFiles
	}
}

// hasKey reports whether a key appears in a YAML or TOML document.
// Keys are unique across sections, so a plain scan is enough.
func hasKey(raw []byte, key string) bool {
	for _, line := range strings.Split(string(raw), "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, key+":") || strings.HasPrefix(line, key+" =") || strings.HasPrefix(line, key+"=") {
			return true
		}
	}
	return false
}

// applyEnvOverrides applies TITLESEARCH_* environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("TITLESEARCH_DB_PATH"); v != "" {
		c.Database.Path = v
	}
	if v := os.Getenv("TITLESEARCH_DB_DRIVER"); v != "" {
		c.Database.Driver = v
	}
	if v := os.Getenv("TITLESEARCH_HOST"); v != "" {
		c.Server.Host = v
	}
	if v := os.Getenv("TITLESEARCH_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			c.Server.Port = p
		}
	}
	if v := os.Getenv("TITLESEARCH_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("TITLESEARCH_INDEX_INTERVAL"); v != "" {
		c.Indexer.Interval = v
	}
	if v := os.Getenv("TITLESEARCH_BATCH_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Indexer.BatchSize = n
		}
	}
	if v := os.Getenv("TITLESEARCH_WAIT_UNTIL_INDEXED"); v != "" {
		c.Indexer.WaitUntilIndexed = strings.ToLower(v) == "true" || v == "1"
	}
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	validDrivers := map[string]bool{"sqlite": true, "sqlite3": true}
	if !validDrivers[c.Database.Driver] {
		return fmt.Errorf("database.driver must be 'sqlite' or 'sqlite3', got %s", c.Database.Driver)
	}
	if c.Database.MaxOpenConns < 0 {
		return fmt.Errorf("database.max_open_conns must be non-negative, got %d", c.Database.MaxOpenConns)
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.RateLimit < 0 {
		return fmt.Errorf("server.rate_limit must be non-negative, got %f", c.Server.RateLimit)
	}
	if c.Server.RateLimit > 0 && c.Server.RateBurst < 1 {
		return fmt.Errorf("server.rate_burst must be positive when rate_limit is set, got %d", c.Server.RateBurst)
	}
	for name, v := range map[string]string{
		"server.read_timeout":     c.Server.ReadTimeout,
		"server.write_timeout":    c.Server.WriteTimeout,
		"server.shutdown_timeout": c.Server.ShutdownTimeout,
		"indexer.initial_delay":   c.Indexer.InitialDelay,
	} {
		if d, err := time.ParseDuration(v); err != nil || d < 0 {
			return fmt.Errorf("%s must be a non-negative duration, got %q", name, v)
		}
	}

	if c.Indexer.BatchSize < 1 {
		return fmt.Errorf("indexer.batch_size must be positive, got %d", c.Indexer.BatchSize)
	}
	if d, err := time.ParseDuration(c.Indexer.Interval); err != nil || d <= 0 {
		return fmt.Errorf("indexer.interval must be a positive duration, got %q", c.Indexer.Interval)
	}

	if c.Search.CacheSize < 0 {
		return fmt.Errorf("search.cache_size must be non-negative, got %d", c.Search.CacheSize)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("logging.level must be 'debug', 'info', 'warn', or 'error', got %s", c.Logging.Level)
	}
	validFormats := map[string]bool{"json": true, "text": true, "auto": true}
	if !validFormats[strings.ToLower(c.Logging.Format)] {
		return fmt.Errorf("logging.format must be 'json', 'text', or 'auto', got %s", c.Logging.Format)
	}

	return nil
}

// Addr returns the HTTP listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// Timeouts returns the parsed read, write and shutdown timeouts.
// Call only on a validated config.
func (s ServerConfig) Timeouts() (read, write, shutdown time.Duration) {
	read, _ = time.ParseDuration(s.ReadTimeout)
	write, _ = time.ParseDuration(s.WriteTimeout)
	shutdown, _ = time.ParseDuration(s.ShutdownTimeout)
	return read, write, shutdown
}

// IntervalDuration returns the parsed rebuild interval.
func (i IndexerConfig) IntervalDuration() time.Duration {
	d, _ := time.ParseDuration(i.Interval)
	return d
}

// InitialDelayDuration returns the parsed delay before the first pass.
func (i IndexerConfig) InitialDelayDuration() time.Duration {
	d, _ := time.ParseDuration(i.InitialDelay)
	return d
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	return writeFile(path, data)
}

// WriteTOML writes the configuration to a TOML file.
func (c *Config) WriteTOML(path string) error {
	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	return writeFile(path, data)
}

// Write picks YAML or TOML from the file extension.
func (c *Config) Write(path string) error {
	if strings.ToLower(filepath.Ext(path)) == ".toml" {
		return c.WriteTOML(path)
	}
	return c.WriteYAML(path)
}

func writeFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
