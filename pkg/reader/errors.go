package reader

import "errors"

// Common errors returned by the reader.
var (
	// ErrFileNotFound is returned when a file does not exist.
	ErrFileNotFound = errors.New("file not found")

	// ErrPermissionDenied is returned when file access is denied.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrNotRegularFile is returned when the path is a directory or device.
	ErrNotRegularFile = errors.New("not a regular file")

	// ErrInvalidOffset is returned when a start offset is outside the file.
	ErrInvalidOffset = errors.New("invalid offset")

	// ErrInvalidConfig is returned when delimiter, quote and escape conflict.
	ErrInvalidConfig = errors.New("invalid reader configuration")

	// ErrRecordTooLarge is returned when a record outgrows MaxRecordSize.
	// The reader is unusable afterwards.
	ErrRecordTooLarge = errors.New("record exceeds maximum size")

	// ErrMapFailed is returned when a window cannot be mapped or released.
	// The reader is unusable afterwards.
	ErrMapFailed = errors.New("failed to map window")

	// ErrReaderClosed is returned when using a closed reader.
	ErrReaderClosed = errors.New("reader is closed")
)

// errEndOfFile signals that no further window can be mapped.
var errEndOfFile = errors.New("end of file")
