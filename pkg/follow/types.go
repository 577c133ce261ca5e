// Package follow tails growing delimited files.
//
// A Follower reads each file from its saved position, emits complete records
// in batches and saves the position after every batch. It reads again when
// the watcher reports a change and, as a fallback, on a polling interval.
// A trailing record without a newline is left for a later read.
package follow

import (
	"context"
	"time"

	"github.com/0xmhha/wincsv/pkg/reader"
)

// Config holds the configuration for a Follower.
type Config struct {
	// Paths are the files to follow.
	Paths []string

	// Reader configures each read of a followed file. StartOffset is ignored.
	Reader reader.Config

	// PollInterval re-reads every file periodically (0 disables polling).
	PollInterval time.Duration

	// MaxBatchRecords caps the records per Batch. Default: 1000.
	MaxBatchRecords int

	// SkipExisting starts files without a saved position at their last
	// complete record instead of at the beginning.
	SkipExisting bool
}

// Batch is a group of new records from one file.
type Batch struct {
	// Path is the file the records came from.
	Path string

	// Records are owned copies; they stay valid after the next batch.
	Records []reader.Record

	// Offset is the saved position after this batch.
	Offset int64

	// Timestamp is when the batch was read.
	Timestamp time.Time
}

// Follower tails files and delivers new records.
type Follower interface {
	// Start performs an initial read of every file and begins following.
	// It returns once the watcher is running.
	Start(ctx context.Context) error

	// Stop stops following and waits for the read loop to exit.
	Stop() error

	// Batches returns the channel of new records. It is closed by Close.
	Batches() <-chan Batch

	// Records returns the number of records delivered so far.
	Records() int64

	// Close stops the follower if needed and closes the batch channel.
	Close() error
}
