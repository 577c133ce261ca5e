package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override (WINCSV_LOG_LEVEL, ...).
const EnvPrefix = "WINCSV"

// Loader provides methods for loading configuration from various sources.
type Loader interface {
	// Load loads configuration with the following precedence:
	// 1. Environment variables
	// 2. Configuration file
	// 3. Default values
	//
	// Returns the merged configuration or an error if validation fails.
	Load() (*Config, error)

	// LoadFromFile loads configuration from a specific file.
	LoadFromFile(path string) (*Config, error)

	// Source returns the config file used by the last Load, or "" when only
	// defaults and environment were applied.
	Source() string
}

// envOverrides lists the variables read by applyEnvVars. Zero values mean
// unset. Field names map to WINCSV_<SPLIT_WORDS>.
type envOverrides struct {
	Config        string
	DB            string
	LogLevel      string `split_words:"true"`
	LogFormat     string `split_words:"true"`
	Delimiter     string
	Quote         string
	Escape        string
	WindowSize    int64 `split_words:"true"`
	MaxRecordSize int64 `split_words:"true"`
	Workers       int
	NoColor       bool `split_words:"true"`
}

type loader struct {
	configPath string
	source     string
}

// NewLoader creates a new configuration loader.
//
// If configPath is empty, WINCSV_CONFIG is consulted and then SearchPaths.
func NewLoader(configPath string) Loader {
	return &loader{
		configPath: configPath,
	}
}

// Load implements Loader.Load.
func (l *loader) Load() (*Config, error) {
	var env envOverrides
	if err := envconfig.Process(EnvPrefix, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEnv, err)
	}

	cfg := Default()

	explicit := l.configPath
	if explicit == "" {
		explicit = env.Config
	}

	configPath := explicit
	if configPath == "" {
		configPath = l.findConfigFile()
	}

	l.source = ""
	if configPath != "" {
		fileCfg, err := l.LoadFromFile(configPath)
		if err != nil {
			// Only an explicitly requested file must load.
			if explicit != "" {
				return nil, fmt.Errorf("failed to load config from %s: %w", configPath, err)
			}
		} else {
			cfg = mergeConfigs(cfg, fileCfg)
			l.source = configPath
		}
	}

	cfg = applyEnvVars(cfg, env)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// LoadFromFile implements Loader.LoadFromFile.
func (l *loader) LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path) // nolint:gosec
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidYAML, err)
	}

	return &cfg, nil
}

// Source implements Loader.Source.
func (l *loader) Source() string {
	return l.source
}

func (l *loader) findConfigFile() string {
	for _, path := range SearchPaths() {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// mergeConfigs overlays the non-zero values of override onto base.
func mergeConfigs(base, override *Config) *Config {
	result := *base

	if override.Reader.Delimiter != "" {
		result.Reader.Delimiter = override.Reader.Delimiter
	}
	if override.Reader.Quote != "" {
		result.Reader.Quote = override.Reader.Quote
	}
	if override.Reader.Escape != "" {
		result.Reader.Escape = override.Reader.Escape
	}
	if override.Reader.WindowSize != 0 {
		result.Reader.WindowSize = override.Reader.WindowSize
	}
	if override.Reader.MaxRecordSize != 0 {
		result.Reader.MaxRecordSize = override.Reader.MaxRecordSize
	}

	if override.Performance.WorkerPoolSize != 0 {
		result.Performance.WorkerPoolSize = override.Performance.WorkerPoolSize
	}

	if override.Follow.DebounceInterval != 0 {
		result.Follow.DebounceInterval = override.Follow.DebounceInterval
	}
	if override.Follow.PollInterval != 0 {
		result.Follow.PollInterval = override.Follow.PollInterval
	}

	if override.Display.DefaultFormat != "" {
		result.Display.DefaultFormat = override.Display.DefaultFormat
	}
	if override.Display.NoColor {
		result.Display.NoColor = true
	}
	if override.Display.MaxColumnWidth != 0 {
		result.Display.MaxColumnWidth = override.Display.MaxColumnWidth
	}

	if override.Storage.DBPath != "" {
		result.Storage.DBPath = override.Storage.DBPath
	}

	if override.Logging.Level != "" {
		result.Logging.Level = override.Logging.Level
	}
	if override.Logging.Output != "" {
		result.Logging.Output = override.Logging.Output
	}
	if override.Logging.Format != "" {
		result.Logging.Format = override.Logging.Format
	}

	return &result
}

// applyEnvVars applies WINCSV_* overrides to the configuration.
//
// Supported environment variables:
//   - WINCSV_CONFIG: Path to config file
//   - WINCSV_DB: Path to position database
//   - WINCSV_LOG_LEVEL, WINCSV_LOG_FORMAT: Logging
//   - WINCSV_DELIMITER, WINCSV_QUOTE, WINCSV_ESCAPE: Special characters
//   - WINCSV_WINDOW_SIZE, WINCSV_MAX_RECORD_SIZE: Reader sizes in bytes
//   - WINCSV_WORKERS: Worker pool size
//   - WINCSV_NO_COLOR: Disable colored output
func applyEnvVars(cfg *Config, env envOverrides) *Config {
	result := *cfg

	if env.DB != "" {
		result.Storage.DBPath = env.DB
	}
	if env.LogLevel != "" {
		result.Logging.Level = strings.ToLower(env.LogLevel)
	}
	if env.LogFormat != "" {
		result.Logging.Format = strings.ToLower(env.LogFormat)
	}
	if env.Delimiter != "" {
		result.Reader.Delimiter = env.Delimiter
	}
	if env.Quote != "" {
		result.Reader.Quote = env.Quote
	}
	if env.Escape != "" {
		result.Reader.Escape = env.Escape
	}
	if env.WindowSize != 0 {
		result.Reader.WindowSize = env.WindowSize
	}
	if env.MaxRecordSize != 0 {
		result.Reader.MaxRecordSize = env.MaxRecordSize
	}
	if env.Workers != 0 {
		result.Performance.WorkerPoolSize = env.Workers
	}
	if env.NoColor {
		result.Display.NoColor = true
	}

	return &result
}

// Load is a convenience function that creates a loader and loads configuration.
func Load() (*Config, error) {
	return NewLoader("").Load()
}

// LoadFromFile loads configuration with path as the required config file.
func LoadFromFile(path string) (*Config, error) {
	return NewLoader(path).Load()
}

// Save writes the configuration to a YAML file.
//
// Creates parent directories if they don't exist.
// File is created with 0600 permissions (read/write for owner only).
func Save(cfg *Config, path string) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
