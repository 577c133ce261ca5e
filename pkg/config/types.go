// Package config provides configuration management for wincsv.
//
// Configuration is loaded from multiple sources with the following precedence:
// 1. Command-line flags (highest priority, applied by the CLI)
// 2. Environment variables (WINCSV_*)
// 3. Configuration file
// 4. Default values (lowest priority)
//
// Example usage:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	rcfg, err := cfg.Reader.Options()
package config

import (
	"fmt"
	"time"

	"github.com/0xmhha/wincsv/pkg/logger"
	"github.com/0xmhha/wincsv/pkg/reader"
)

// Config represents the complete application configuration.
//
// Invariants:
// - Reader delimiter, quote and escape are single bytes and not newlines
// - WindowSize and MaxRecordSize are >= 0 (0 selects the reader default)
// - WorkerPoolSize must be > 0
// - DebounceInterval must be > 0, PollInterval >= 0
// - MaxColumnWidth must be >= 0.
type Config struct {
	// Reader settings
	Reader ReaderConfig `yaml:"reader"`

	// Performance settings
	Performance PerformanceConfig `yaml:"performance"`

	// Follow mode settings
	Follow FollowConfig `yaml:"follow"`

	// Display settings
	Display DisplayConfig `yaml:"display"`

	// Storage settings
	Storage StorageConfig `yaml:"storage"`

	// Logging settings
	Logging logger.Config `yaml:"logging"`
}

// ReaderConfig contains the record reader and tokenizer settings.
type ReaderConfig struct {
	// Field delimiter. Accepts a single byte or "tab".
	Delimiter string `yaml:"delimiter"`

	// Quote character
	Quote string `yaml:"quote"`

	// Escape character; equal to quote disables backslash-style escapes
	Escape string `yaml:"escape"`

	// Bytes mapped per window (0 = 40MiB rounded to the page size)
	WindowSize int64 `yaml:"window_size"`

	// Largest record that may straddle windows (0 = 1GiB)
	MaxRecordSize int64 `yaml:"max_record_size"`
}

// PerformanceConfig contains performance tuning settings.
type PerformanceConfig struct {
	// Number of files processed concurrently by multi-file commands
	WorkerPoolSize int `yaml:"worker_pool_size"`
}

// FollowConfig contains settings for tailing growing files.
type FollowConfig struct {
	// Quiet period after a write event before reading
	DebounceInterval time.Duration `yaml:"debounce_interval"`

	// Fallback polling interval (0 disables polling)
	PollInterval time.Duration `yaml:"poll_interval"`
}

// DisplayConfig contains display-related settings.
type DisplayConfig struct {
	// Default output format (table, json, simple)
	DefaultFormat string `yaml:"default_format"`

	// Disable colored output
	NoColor bool `yaml:"no_color"`

	// Maximum table column width in characters (0 = unlimited)
	MaxColumnWidth int `yaml:"max_column_width"`
}

// StorageConfig contains storage-related settings.
type StorageConfig struct {
	// Path to BoltDB database file holding read positions
	DBPath string `yaml:"db_path"`
}

// Validate checks if the configuration satisfies all invariants.
//
// Thread-safety: This method is read-only and thread-safe.
func (c *Config) Validate() error {
	if _, err := c.Reader.Options(); err != nil {
		return err
	}

	if c.Performance.WorkerPoolSize <= 0 {
		return ErrInvalidWorkerPoolSize
	}

	if c.Follow.DebounceInterval <= 0 {
		return ErrInvalidDebounceInterval
	}
	if c.Follow.PollInterval < 0 {
		return ErrInvalidPollInterval
	}

	switch c.Display.DefaultFormat {
	case "table", "json", "simple":
	default:
		return ErrInvalidDisplayFormat
	}
	if c.Display.MaxColumnWidth < 0 {
		return ErrInvalidColumnWidth
	}

	if !logger.ValidLevel(c.Logging.Level) {
		return ErrInvalidLogLevel
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		return ErrInvalidLogFormat
	}

	return nil
}

// Options converts the reader section to a reader.Config.
//
// Empty delimiter, quote and escape select the reader defaults.
func (r ReaderConfig) Options() (reader.Config, error) {
	delimiter, err := parseByte("delimiter", r.Delimiter)
	if err != nil {
		return reader.Config{}, err
	}
	quote, err := parseByte("quote", r.Quote)
	if err != nil {
		return reader.Config{}, err
	}
	escape, err := parseByte("escape", r.Escape)
	if err != nil {
		return reader.Config{}, err
	}

	if r.WindowSize < 0 || r.MaxRecordSize < 0 {
		return reader.Config{}, ErrInvalidSize
	}

	return reader.Config{
		Delimiter:     delimiter,
		Quote:         quote,
		Escape:        escape,
		WindowSize:    r.WindowSize,
		MaxRecordSize: r.MaxRecordSize,
	}, nil
}

// parseByte accepts "", a single byte, or one of the names tab, space, pipe
// and semicolon.
func parseByte(field, s string) (byte, error) {
	switch s {
	case "":
		return 0, nil
	case "tab", `\t`:
		return '\t', nil
	case "space":
		return ' ', nil
	case "pipe":
		return '|', nil
	case "semicolon":
		return ';', nil
	}

	if len(s) != 1 || s[0] == '\n' || s[0] == '\r' {
		return 0, fmt.Errorf("%w: %s %q", ErrInvalidSpecialByte, field, s)
	}
	return s[0], nil
}

// Default returns a configuration with sensible default values.
func Default() *Config {
	return &Config{
		Reader: ReaderConfig{
			Delimiter: ",",
			Quote:     `"`,
			Escape:    `\`,
		},
		Performance: PerformanceConfig{
			WorkerPoolSize: 4,
		},
		Follow: FollowConfig{
			DebounceInterval: 100 * time.Millisecond,
			PollInterval:     5 * time.Second,
		},
		Display: DisplayConfig{
			DefaultFormat:  "table",
			MaxColumnWidth: 40,
		},
		Storage: StorageConfig{
			DBPath: defaultDBPath(),
		},
		Logging: logger.Config{
			Level:  "info",
			Output: "stderr",
			Format: "text",
		},
	}
}
