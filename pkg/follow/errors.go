package follow

import "errors"

var (
	// ErrFollowerClosed is returned when operations are attempted on a closed follower.
	ErrFollowerClosed = errors.New("follower is closed")

	// ErrFollowerRunning is returned when trying to start a running follower.
	ErrFollowerRunning = errors.New("follower is already running")

	// ErrFollowerNotRunning is returned when trying to stop a follower that is not running.
	ErrFollowerNotRunning = errors.New("follower is not running")

	// ErrNoPaths is returned when there is nothing to follow.
	ErrNoPaths = errors.New("no files to follow")

	// ErrInvalidConfig is returned when the configuration is invalid.
	ErrInvalidConfig = errors.New("invalid follow configuration")
)
