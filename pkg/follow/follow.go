package follow

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/0xmhha/wincsv/pkg/logger"
	"github.com/0xmhha/wincsv/pkg/reader"
	"github.com/0xmhha/wincsv/pkg/watcher"
)

// errStopped ends a read whose batch can no longer be delivered.
var errStopped = errors.New("follower stopped")

// follower implements the Follower interface.
type follower struct {
	config  Config
	logger  logger.Logger
	watcher watcher.Watcher
	store   reader.PositionStore

	mu       sync.Mutex
	running  bool
	stopped  bool
	closed   bool
	stopChan chan struct{}
	done     sync.WaitGroup

	// readMu serialises reads; a Reader is never shared.
	readMu  sync.Mutex
	paths   map[string]struct{}
	batches chan Batch
	records atomic.Int64
}

// New creates a new follower.
//
// Parameters:
//   - cfg: Follow configuration
//   - w: File watcher, started and stopped by the follower
//   - store: Position store for checkpoints
//   - log: Logger instance
//
// Returns:
//   - Configured Follower
//   - Error if configuration is invalid
func New(cfg Config, w watcher.Watcher, store reader.PositionStore, log logger.Logger) (Follower, error) {
	if len(cfg.Paths) == 0 {
		return nil, ErrNoPaths
	}
	if w == nil || store == nil {
		return nil, fmt.Errorf("%w: watcher and position store are required", ErrInvalidConfig)
	}
	if cfg.PollInterval < 0 || cfg.MaxBatchRecords < 0 {
		return nil, fmt.Errorf("%w: negative interval or batch size", ErrInvalidConfig)
	}
	if cfg.MaxBatchRecords == 0 {
		cfg.MaxBatchRecords = 1000
	}

	paths := make(map[string]struct{}, len(cfg.Paths))
	absPaths := make([]string, 0, len(cfg.Paths))
	for _, p := range cfg.Paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidConfig, p, err)
		}
		if _, dup := paths[abs]; dup {
			continue
		}
		paths[abs] = struct{}{}
		absPaths = append(absPaths, abs)
	}
	cfg.Paths = absPaths

	f := &follower{
		config:   cfg,
		logger:   log.With("component", "follow"),
		watcher:  w,
		store:    store,
		stopChan: make(chan struct{}),
		paths:    paths,
		batches:  make(chan Batch, 16),
	}

	f.logger.Debug("follower created",
		"files", len(absPaths),
		"poll_interval", cfg.PollInterval,
		"max_batch_records", cfg.MaxBatchRecords)

	return f, nil
}

// Start implements Follower.Start.
func (f *follower) Start(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed || f.stopped {
		return ErrFollowerClosed
	}
	if f.running {
		return ErrFollowerRunning
	}

	if err := f.watcher.Start(ctx, f.config.Paths); err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}
	f.running = true

	f.done.Add(1)
	go f.run(ctx)

	f.logger.Info("follower started", "files", len(f.config.Paths))
	return nil
}

// Stop implements Follower.Stop.
func (f *follower) Stop() error {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return ErrFollowerClosed
	}
	if !f.running {
		f.mu.Unlock()
		return ErrFollowerNotRunning
	}
	f.halt()
	f.mu.Unlock()

	f.done.Wait()
	f.logger.Info("follower stopped", "records", f.records.Load())
	return nil
}

// halt signals the read loop and stops the watcher. Callers hold f.mu.
func (f *follower) halt() {
	close(f.stopChan)
	f.running = false
	f.stopped = true

	if err := f.watcher.Stop(); err != nil {
		f.logger.Warn("failed to stop watcher", "error", err)
	}
}

// Batches implements Follower.Batches.
func (f *follower) Batches() <-chan Batch {
	return f.batches
}

// Records implements Follower.Records.
func (f *follower) Records() int64 {
	return f.records.Load()
}

// Close implements Follower.Close.
func (f *follower) Close() error {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return nil
	}
	f.closed = true
	if f.running {
		f.halt()
	}
	f.mu.Unlock()

	f.done.Wait()
	close(f.batches)

	f.logger.Debug("follower closed")
	return nil
}

func (f *follower) run(ctx context.Context) {
	defer f.done.Done()

	for _, path := range f.config.Paths {
		emit := true
		if f.config.SkipExisting {
			pos, err := f.store.GetPosition(path)
			emit = err == nil && (pos.Offset != 0 || pos.Size != 0)
		}
		if !f.drainAndLog(ctx, path, emit) {
			return
		}
	}

	var tick <-chan time.Time
	if f.config.PollInterval > 0 {
		ticker := time.NewTicker(f.config.PollInterval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			return

		case <-f.stopChan:
			return

		case event, ok := <-f.watcher.Events():
			if !ok {
				f.logger.Debug("watcher events channel closed")
				return
			}
			if !f.handleEvent(ctx, event) {
				return
			}

		case err, ok := <-f.watcher.Errors():
			if !ok {
				f.logger.Debug("watcher errors channel closed")
				return
			}
			f.logger.Error("watcher error", "error", err)

		case <-tick:
			for _, path := range f.config.Paths {
				if !f.drainAndLog(ctx, path, true) {
					return
				}
			}
		}
	}
}

// handleEvent reacts to one watcher event. It returns false once the
// follower is stopping.
func (f *follower) handleEvent(ctx context.Context, event watcher.Event) bool {
	if _, ok := f.paths[event.Path]; !ok {
		return true
	}

	f.logger.Debug("file change detected",
		"path", event.Path,
		"op", event.Op)

	switch event.Op {
	case watcher.OpRemove, watcher.OpRename:
		// A file created later under this name starts from the beginning.
		if err := f.store.DeletePosition(event.Path); err != nil {
			f.logger.Warn("failed to delete position", "path", event.Path, "error", err)
		}
		f.logger.Info("followed file removed", "path", event.Path)
		return true
	case watcher.OpChmod:
		return true
	}

	return f.drainAndLog(ctx, event.Path, true)
}

// drainAndLog drains path, logging read errors. It returns false once the
// follower is stopping.
func (f *follower) drainAndLog(ctx context.Context, path string, emit bool) bool {
	err := f.drain(ctx, path, emit)
	switch {
	case err == nil:
		return true
	case errors.Is(err, errStopped), errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return false
	default:
		f.logger.Error("failed to read followed file", "path", path, "error", err)
		return true
	}
}

// drain reads path from its saved position to the last complete record.
//
// With emit set, records are delivered in batches of at most
// MaxBatchRecords and the position is saved after each batch. Otherwise the
// records are skipped and only the final position is saved.
func (f *follower) drain(ctx context.Context, path string, emit bool) error {
	f.readMu.Lock()
	defer f.readMu.Unlock()

	r, err := reader.Resume(path, f.store, f.config.Reader, f.logger)
	if err != nil {
		if reader.IsNotFound(err) {
			f.logger.Debug("followed file missing", "path", path)
			return nil
		}
		return err
	}
	defer func() {
		if closeErr := r.Close(); closeErr != nil {
			f.logger.Warn("failed to close reader", "path", path, "error", closeErr)
		}
	}()

	start := r.Offset()
	offset := start
	var batch []reader.Record

	for {
		rec, ok := r.Next()
		if !ok || !rec.Terminated {
			break
		}
		offset = r.Offset()

		if !emit {
			continue
		}
		batch = append(batch, rec.Clone())
		if len(batch) >= f.config.MaxBatchRecords {
			if err := f.deliver(ctx, r, batch, offset); err != nil {
				return err
			}
			batch = nil
		}
	}
	if err := r.Err(); err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	if len(batch) > 0 {
		return f.deliver(ctx, r, batch, offset)
	}
	if offset != start || !emit {
		return f.save(r, offset)
	}
	return nil
}

// deliver sends one batch and then saves its position.
func (f *follower) deliver(ctx context.Context, r *reader.Reader, records []reader.Record, offset int64) error {
	b := Batch{
		Path:      r.Path(),
		Records:   records,
		Offset:    offset,
		Timestamp: time.Now(),
	}

	select {
	case f.batches <- b:
	case <-ctx.Done():
		return ctx.Err()
	case <-f.stopChan:
		return errStopped
	}

	f.records.Add(int64(len(records)))
	f.logger.Debug("batch delivered",
		"path", b.Path,
		"records", len(records),
		"offset", offset)

	return f.save(r, offset)
}

func (f *follower) save(r *reader.Reader, offset int64) error {
	return f.store.SetPosition(r.Path(), reader.Position{
		Offset:  offset,
		Size:    r.Size(),
		ModTime: r.ModTime(),
	})
}
