// Package config provides configuration for stateberry stores.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Backend names for the state store.
const (
	// BackendBadgerDB selects the BadgerDB storage engine.
	BackendBadgerDB = "badgerdb"

	// BackendLevelDB selects the LevelDB storage engine.
	BackendLevelDB = "leveldb"

	// BackendMemory selects the in-memory engine. Test-only: nothing
	// is persisted.
	BackendMemory = "memory"
)

// ValidBackends contains all valid backend names.
var ValidBackends = []string{BackendBadgerDB, BackendLevelDB, BackendMemory}

// Config is the main configuration for a stateberry store.
type Config struct {
	StateDB StateDBConfig `toml:"statedb"`
	Metrics MetricsConfig `toml:"metrics"`
	Logging LoggingConfig `toml:"logging"`
}

// StateDBConfig contains state storage configuration.
type StateDBConfig struct {
	// Backend is the storage backend to use ("badgerdb", "leveldb" or
	// "memory").
	Backend string `toml:"backend"`

	// Path is the directory path for state storage.
	// Ignored by the memory backend.
	Path string `toml:"path"`

	// CacheSize is the number of entries per read cache.
	// 0 disables caching.
	CacheSize int `toml:"cache_size"`

	// Badger contains BadgerDB-specific tuning, used when Backend is
	// "badgerdb".
	Badger BadgerConfig `toml:"badger"`
}

// BadgerConfig contains BadgerDB tuning options.
type BadgerConfig struct {
	// SyncWrites ensures durability by syncing writes to disk.
	SyncWrites bool `toml:"sync_writes"`

	// Compression enables Snappy compression for values.
	Compression bool `toml:"compression"`

	// ValueLogFileSize is the maximum size of a single value log file.
	ValueLogFileSize int64 `toml:"value_log_file_size"`

	// MemTableSize is the size of the memtable.
	MemTableSize int64 `toml:"mem_table_size"`

	// NumMemtables is the number of memtables to keep in memory.
	NumMemtables int `toml:"num_memtables"`
}

// MetricsConfig contains metrics configuration.
type MetricsConfig struct {
	// Enabled determines whether metrics collection is active.
	Enabled bool `toml:"enabled"`

	// Namespace is the Prometheus metrics namespace prefix.
	Namespace string `toml:"namespace"`

	// ListenAddr is the address to serve metrics on (e.g., ":9090").
	ListenAddr string `toml:"listen_addr"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level ("debug", "info", "warn", "error").
	Level string `toml:"level"`

	// Format is the log output format ("text" or "json").
	Format string `toml:"format"`

	// Output is the log output destination ("stdout", "stderr", or a file path).
	Output string `toml:"output"`
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() *Config {
	return &Config{
		StateDB: StateDBConfig{
			Backend:   BackendBadgerDB,
			Path:      "data/state",
			CacheSize: 10000,
			Badger: BadgerConfig{
				SyncWrites:       true,
				Compression:      true,
				ValueLogFileSize: 1 << 30,
				MemTableSize:     64 << 20,
				NumMemtables:     5,
			},
		},
		Metrics: MetricsConfig{
			Enabled:    false,
			Namespace:  "stateberry",
			ListenAddr: ":9090",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
	}
}

// LoadConfig loads configuration from a TOML file.
// Missing values are filled with defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// SaveConfig writes the configuration to a TOML file, creating parent
// directories as needed.
func SaveConfig(cfg *Config, path string) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("validating config: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	return nil
}

// Validation errors.
var (
	ErrInvalidBackend      = errors.New("statedb backend must be one of: badgerdb, leveldb, memory")
	ErrEmptyStateDBPath    = errors.New("statedb path cannot be empty")
	ErrInvalidCacheSize    = errors.New("statedb cache_size must be non-negative")
	ErrInvalidValueLogSize = errors.New("badger value_log_file_size must be positive")
	ErrInvalidMemTableSize = errors.New("badger mem_table_size must be positive")
	ErrInvalidNumMemtables = errors.New("badger num_memtables must be positive")
	ErrEmptyMetricsNS      = errors.New("metrics namespace cannot be empty when enabled")
	ErrEmptyMetricsAddr    = errors.New("metrics listen_addr cannot be empty when enabled")
	ErrInvalidLogLevel     = errors.New("log level must be one of: debug, info, warn, error")
	ErrInvalidLogFormat    = errors.New("log format must be 'text' or 'json'")
	ErrEmptyLogOutput      = errors.New("log output cannot be empty")
)

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if err := c.StateDB.Validate(); err != nil {
		return err
	}
	if err := c.Metrics.Validate(); err != nil {
		return err
	}
	return c.Logging.Validate()
}

// Validate checks the state store configuration.
func (c *StateDBConfig) Validate() error {
	valid := false
	for _, b := range ValidBackends {
		if c.Backend == b {
			valid = true
			break
		}
	}
	if !valid {
		return ErrInvalidBackend
	}

	if c.Backend != BackendMemory && c.Path == "" {
		return ErrEmptyStateDBPath
	}
	if c.CacheSize < 0 {
		return ErrInvalidCacheSize
	}
	if c.Backend == BackendBadgerDB {
		return c.Badger.Validate()
	}
	return nil
}

// Validate checks the BadgerDB tuning options.
func (c *BadgerConfig) Validate() error {
	if c.ValueLogFileSize <= 0 {
		return ErrInvalidValueLogSize
	}
	if c.MemTableSize <= 0 {
		return ErrInvalidMemTableSize
	}
	if c.NumMemtables <= 0 {
		return ErrInvalidNumMemtables
	}
	return nil
}

// Validate checks the metrics configuration.
func (c *MetricsConfig) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.Namespace == "" {
		return ErrEmptyMetricsNS
	}
	if c.ListenAddr == "" {
		return ErrEmptyMetricsAddr
	}
	return nil
}

// Validate checks the logging configuration.
func (c *LoggingConfig) Validate() error {
	switch c.Level {
	case "debug", "info", "warn", "error":
		// Valid levels
	default:
		return ErrInvalidLogLevel
	}

	switch c.Format {
	case "text", "json":
		// Valid formats
	default:
		return ErrInvalidLogFormat
	}

	if c.Output == "" {
		return ErrEmptyLogOutput
	}
	return nil
}
