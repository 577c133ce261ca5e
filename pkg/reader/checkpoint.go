package reader

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/0xmhha/wincsv/pkg/logger"
	bolt "go.etcd.io/bbolt"
)

// OpenPositionDB opens (creating if needed) the BoltDB file that backs a
// position store.
//
// The caller owns the returned database and must close it.
func OpenPositionDB(path string, timeout time.Duration) (*bolt.DB, error) {
	if timeout == 0 {
		timeout = time.Second
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := bolt.Open(path, 0600, &bolt.Options{
		Timeout: timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	return db, nil
}

// Resume opens path at the offset saved in store.
//
// If the file is now smaller than the saved offset or the saved size, it was
// truncated or replaced and reading restarts at offset 0.
//
// cfg.StartOffset is ignored.
func Resume(path string, store PositionStore, cfg Config, log logger.Logger) (*Reader, error) {
	saved, err := store.GetPosition(path)
	if err != nil {
		return nil, fmt.Errorf("failed to get position: %w", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, classifyOpenError(path, err)
	}

	offset := saved.Offset
	if offset > info.Size() || saved.Size > info.Size() {
		log.Warn("file was truncated, resetting offset",
			"path", path,
			"old_offset", saved.Offset,
			"file_size", info.Size())
		offset = 0
	}

	cfg.StartOffset = offset
	return Open(path, cfg, log)
}

// Checkpoint saves the reader's current Offset to store.
func (r *Reader) Checkpoint(store PositionStore) error {
	if err := store.SetPosition(r.path, Position{
		Offset:  r.offset,
		Size:    r.length,
		ModTime: r.modTime,
	}); err != nil {
		return fmt.Errorf("failed to save position for %s: %w", r.path, err)
	}
	return nil
}

// IsNotFound reports whether err means the file does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrFileNotFound) || errors.Is(err, fs.ErrNotExist)
}
