package watcher

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/0xmhha/wincsv/pkg/logger"
)

// watcher implements the Watcher interface using fsnotify.
type watcher struct {
	fsw    *fsnotify.Watcher
	logger logger.Logger
	config Config

	events chan Event
	errors chan error

	mu       sync.RWMutex
	running  bool
	stopped  bool
	closed   bool
	stopChan chan struct{}

	// files holds explicitly watched files; dirs holds watched directories.
	files map[string]struct{}
	dirs  map[string]struct{}

	debounceTimers map[string]*time.Timer
	debounceMu     sync.Mutex

	failureCount int
}

// New creates a new file system watcher.
//
// Parameters:
//   - cfg: Watcher configuration
//   - log: Logger instance
//
// Returns:
//   - Configured Watcher
//   - Error if watcher cannot be created
func New(cfg Config, log logger.Logger) (Watcher, error) {
	if cfg.DebounceInterval <= 0 {
		cfg.DebounceInterval = 100 * time.Millisecond
	}
	if len(cfg.Extensions) == 0 {
		cfg.Extensions = DefaultExtensions
	}
	if cfg.CircuitBreakerThreshold <= 0 {
		cfg.CircuitBreakerThreshold = 5
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	w := &watcher{
		fsw:            fsw,
		logger:         log,
		config:         cfg,
		events:         make(chan Event, 100),
		errors:         make(chan error, 10),
		stopChan:       make(chan struct{}),
		files:          make(map[string]struct{}),
		dirs:           make(map[string]struct{}),
		debounceTimers: make(map[string]*time.Timer),
	}

	log.Debug("file watcher created",
		"debounce_interval", cfg.DebounceInterval,
		"extensions", cfg.Extensions,
		"recursive", cfg.Recursive)

	return w, nil
}

// Start implements Watcher.Start.
func (w *watcher) Start(ctx context.Context, paths []string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return ErrWatcherClosed
	}
	if w.running || w.stopped {
		return ErrAlreadyStarted
	}

	added := 0
	for _, path := range paths {
		abs, err := filepath.Abs(expandHome(path))
		if err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalidPath, path, err)
		}

		info, err := os.Stat(abs)
		if err != nil {
			if os.IsNotExist(err) {
				w.logger.Warn("watch path does not exist, skipping", "path", abs)
				continue
			}
			return fmt.Errorf("failed to stat path %s: %w", abs, err)
		}

		if info.IsDir() {
			err = w.addDir(abs)
		} else {
			err = w.addFile(abs)
		}
		if err != nil {
			return fmt.Errorf("failed to add path %s: %w", abs, err)
		}
		added++
	}

	if added == 0 {
		return ErrInvalidPath
	}

	w.running = true
	w.logger.Info("watcher started",
		"files", len(w.files),
		"dirs", len(w.dirs))

	go w.processEvents(ctx)

	return nil
}

// addFile tracks path and watches its parent directory.
func (w *watcher) addFile(path string) error {
	dir := filepath.Dir(path)
	if err := w.fsw.Add(dir); err != nil {
		return err
	}
	w.files[path] = struct{}{}
	w.logger.Debug("added watch file", "path", path)
	return nil
}

// addDir watches path, and its subdirectories when Recursive is set.
func (w *watcher) addDir(path string) error {
	if err := w.fsw.Add(path); err != nil {
		return err
	}
	w.dirs[path] = struct{}{}
	w.logger.Debug("added watch directory", "path", path)

	if !w.config.Recursive {
		return nil
	}

	return filepath.WalkDir(path, func(sub string, d fs.DirEntry, err error) error {
		if err != nil {
			w.logger.Warn("error walking path", "path", sub, "error", err)
			return nil
		}
		if !d.IsDir() || sub == path {
			return nil
		}
		if addErr := w.fsw.Add(sub); addErr != nil {
			w.logger.Warn("failed to add subdirectory", "path", sub, "error", addErr)
			return nil
		}
		w.dirs[sub] = struct{}{}
		return nil
	})
}

// Stop implements Watcher.Stop.
func (w *watcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return ErrWatcherClosed
	}
	if !w.running {
		return ErrNotStarted
	}

	close(w.stopChan)
	w.running = false
	w.stopped = true

	w.logger.Info("watcher stopped")
	return nil
}

// Events implements Watcher.Events.
func (w *watcher) Events() <-chan Event {
	return w.events
}

// Errors implements Watcher.Errors.
func (w *watcher) Errors() <-chan error {
	return w.errors
}

// Close implements Watcher.Close.
func (w *watcher) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true

	if w.running {
		close(w.stopChan)
		w.running = false
	}

	w.debounceMu.Lock()
	for _, timer := range w.debounceTimers {
		timer.Stop()
	}
	w.debounceTimers = nil
	w.debounceMu.Unlock()

	// Timer callbacks send under the read lock and check closed first, so
	// the channels can be closed here.
	close(w.events)
	close(w.errors)

	if err := w.fsw.Close(); err != nil {
		w.logger.Error("failed to close fsnotify watcher", "error", err)
		return fmt.Errorf("failed to close watcher: %w", err)
	}

	w.logger.Debug("watcher closed")
	return nil
}

func (w *watcher) processEvents(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			w.logger.Debug("event processing stopped", "reason", "context cancelled")
			return

		case <-w.stopChan:
			w.logger.Debug("event processing stopped", "reason", "stop signal")
			return

		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.handleError(err)
		}
	}
}

// handleEvent converts and debounces one fsnotify event.
func (w *watcher) handleEvent(event fsnotify.Event) {
	if !w.relevant(event.Name) {
		return
	}

	var op Op
	switch {
	case event.Op.Has(fsnotify.Create):
		op = OpCreate
	case event.Op.Has(fsnotify.Write):
		op = OpWrite
	case event.Op.Has(fsnotify.Remove):
		op = OpRemove
	case event.Op.Has(fsnotify.Rename):
		op = OpRename
	case event.Op.Has(fsnotify.Chmod):
		op = OpChmod
	default:
		return
	}

	w.mu.Lock()
	w.failureCount = 0
	w.mu.Unlock()

	w.debounceEvent(Event{
		Path:      event.Name,
		Op:        op,
		Timestamp: time.Now(),
	})
}

// relevant reports whether path is a tracked file or, inside a watched
// directory, has a watched extension.
func (w *watcher) relevant(path string) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()

	if _, ok := w.files[path]; ok {
		return true
	}
	if _, ok := w.dirs[filepath.Dir(path)]; !ok {
		return false
	}
	return hasExtension(path, w.config.Extensions)
}

func hasExtension(path string, exts []string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range exts {
		if strings.EqualFold(ext, e) {
			return true
		}
	}
	return false
}

func (w *watcher) debounceEvent(event Event) {
	w.debounceMu.Lock()
	defer w.debounceMu.Unlock()

	if w.debounceTimers == nil {
		return
	}
	if timer, exists := w.debounceTimers[event.Path]; exists {
		timer.Stop()
	}

	w.debounceTimers[event.Path] = time.AfterFunc(w.config.DebounceInterval, func() {
		w.debounceMu.Lock()
		if w.debounceTimers != nil {
			delete(w.debounceTimers, event.Path)
		}
		w.debounceMu.Unlock()

		w.mu.RLock()
		defer w.mu.RUnlock()
		if w.closed {
			return
		}

		select {
		case w.events <- event:
		default:
			w.logger.Warn("event channel full, dropping event", "path", event.Path)
		}
	})
}

// handleError forwards fsnotify errors and opens the circuit breaker after
// too many consecutive failures.
func (w *watcher) handleError(err error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return
	}

	w.failureCount++
	w.logger.Error("fsnotify error",
		"error", err,
		"failure_count", w.failureCount)

	if w.failureCount >= w.config.CircuitBreakerThreshold {
		w.logger.Error("circuit breaker opened",
			"threshold", w.config.CircuitBreakerThreshold)
		err = ErrCircuitBreakerOpen
	}

	select {
	case w.errors <- err:
	default:
		w.logger.Warn("error channel full, dropping error")
	}
}

// expandHome expands a leading ~ to the user's home directory.
func expandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return path
	}

	if path == "~" {
		return homeDir
	}

	return filepath.Join(homeDir, path[2:])
}
