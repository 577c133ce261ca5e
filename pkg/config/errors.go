package config

import "errors"

// Common errors returned by the config package.
var (
	// ErrInvalidSpecialByte is returned when a delimiter, quote or escape is
	// not a single non-newline byte.
	ErrInvalidSpecialByte = errors.New("invalid special character: must be a single byte")

	// ErrInvalidSize is returned when window or record size is negative.
	ErrInvalidSize = errors.New("invalid size: must be >= 0")

	// ErrInvalidWorkerPoolSize is returned when worker pool size is <= 0.
	ErrInvalidWorkerPoolSize = errors.New("invalid worker pool size: must be > 0")

	// ErrInvalidDebounceInterval is returned when debounce interval is <= 0.
	ErrInvalidDebounceInterval = errors.New("invalid debounce interval: must be > 0")

	// ErrInvalidPollInterval is returned when poll interval is < 0.
	ErrInvalidPollInterval = errors.New("invalid poll interval: must be >= 0")

	// ErrInvalidDisplayFormat is returned when display format is not recognized.
	ErrInvalidDisplayFormat = errors.New("invalid display format: must be table, json, or simple")

	// ErrInvalidColumnWidth is returned when max column width is < 0.
	ErrInvalidColumnWidth = errors.New("invalid column width: must be >= 0")

	// ErrInvalidLogLevel is returned when log level is not recognized.
	ErrInvalidLogLevel = errors.New("invalid log level: must be debug, info, warn, or error")

	// ErrInvalidLogFormat is returned when log format is not recognized.
	ErrInvalidLogFormat = errors.New("invalid log format: must be text or json")

	// ErrInvalidEnv is returned when a WINCSV_* variable cannot be parsed.
	ErrInvalidEnv = errors.New("invalid environment variable")

	// ErrConfigNotFound is returned when config file is not found.
	ErrConfigNotFound = errors.New("config file not found")

	// ErrInvalidYAML is returned when config file has invalid YAML syntax.
	ErrInvalidYAML = errors.New("invalid YAML syntax in config file")
)
