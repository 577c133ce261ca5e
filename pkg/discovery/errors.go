package discovery

import "errors"

// Common errors returned by the discovery package.
var (
	// ErrDirectoryNotFound is returned when a directory does not exist.
	ErrDirectoryNotFound = errors.New("directory not found")

	// ErrNoFilesFound is returned when no data files are discovered.
	ErrNoFilesFound = errors.New("no data files found")

	// ErrInvalidPath is returned when a path is invalid or inaccessible.
	ErrInvalidPath = errors.New("invalid or inaccessible path")
)
