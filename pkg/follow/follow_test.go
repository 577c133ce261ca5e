package follow

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xmhha/wincsv/pkg/logger"
	"github.com/0xmhha/wincsv/pkg/reader"
	"github.com/0xmhha/wincsv/pkg/watcher"
)

// mockWatcher implements the watcher.Watcher interface for testing.
type mockWatcher struct {
	mu      sync.Mutex
	started bool
	stopped bool
	paths   []string
	events  chan watcher.Event
	errors  chan error
}

func newMockWatcher() *mockWatcher {
	return &mockWatcher{
		events: make(chan watcher.Event, 10),
		errors: make(chan error, 10),
	}
}

func (m *mockWatcher) Start(ctx context.Context, paths []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.started = true
	m.paths = paths
	return nil
}

func (m *mockWatcher) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopped = true
	return nil
}

func (m *mockWatcher) Close() error { return nil }

func (m *mockWatcher) Events() <-chan watcher.Event { return m.events }

func (m *mockWatcher) Errors() <-chan error { return m.errors }

func (m *mockWatcher) send(path string, op watcher.Op) {
	m.events <- watcher.Event{Path: path, Op: op, Timestamp: time.Now()}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
}

func appendFile(t *testing.T, path, content string) {
	t.Helper()
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0600) // nolint:gosec
	require.NoError(t, err)
	_, err = f.WriteString(content)
	require.NoError(t, err)
	require.NoError(t, f.Close())
}

func recvBatch(t *testing.T, f Follower) Batch {
	t.Helper()
	select {
	case b, ok := <-f.Batches():
		require.True(t, ok, "batches channel closed")
		return b
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for batch")
		return Batch{}
	}
}

func expectNoBatch(t *testing.T, f Follower, d time.Duration) {
	t.Helper()
	select {
	case b := <-f.Batches():
		t.Fatalf("unexpected batch with %d records from %s", len(b.Records), b.Path)
	case <-time.After(d):
	}
}

func batchStrings(b Batch) []string {
	out := make([]string, 0, len(b.Records))
	for _, rec := range b.Records {
		out = append(out, rec.String())
	}
	return out
}

func startFollower(t *testing.T, cfg Config, w watcher.Watcher, store reader.PositionStore) Follower {
	t.Helper()

	f, err := New(cfg, w, store, logger.Noop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	require.NoError(t, f.Start(ctx))
	return f
}

func TestNewValidation(t *testing.T) {
	store := reader.NewMemoryPositionStore()
	w := newMockWatcher()

	_, err := New(Config{}, w, store, logger.Noop())
	assert.ErrorIs(t, err, ErrNoPaths)

	_, err = New(Config{Paths: []string{"a.csv"}}, nil, store, logger.Noop())
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = New(Config{Paths: []string{"a.csv"}}, w, nil, logger.Noop())
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = New(Config{Paths: []string{"a.csv"}, PollInterval: -time.Second}, w, store, logger.Noop())
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestInitialReadAndAppend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rows.csv")
	writeFile(t, path, "a,b\nc,d\npart")

	store := reader.NewMemoryPositionStore()
	w := newMockWatcher()
	f := startFollower(t, Config{Paths: []string{path}}, w, store)

	b := recvBatch(t, f)
	assert.Equal(t, path, b.Path)
	assert.Equal(t, []string{"a,b", "c,d"}, batchStrings(b))
	assert.Equal(t, int64(8), b.Offset)
	for _, rec := range b.Records {
		assert.True(t, rec.Terminated)
	}

	w.mu.Lock()
	assert.True(t, w.started)
	assert.Equal(t, []string{path}, w.paths)
	w.mu.Unlock()

	// The partial record completes.
	appendFile(t, path, ",x\ne\n")
	w.send(path, watcher.OpWrite)

	b = recvBatch(t, f)
	assert.Equal(t, []string{"part,x", "e"}, batchStrings(b))
	assert.Equal(t, int64(17), b.Offset)

	require.Eventually(t, func() bool {
		pos, err := store.GetPosition(path)
		return err == nil && pos.Offset == 17 && pos.Size == 17
	}, time.Second, 10*time.Millisecond)

	assert.Equal(t, int64(4), f.Records())
}

func TestResumesFromSavedPosition(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rows.csv")
	writeFile(t, path, "old\nnew\n")

	store := reader.NewMemoryPositionStore()
	require.NoError(t, store.SetPosition(path, reader.Position{Offset: 4, Size: 4}))

	f := startFollower(t, Config{Paths: []string{path}}, newMockWatcher(), store)

	b := recvBatch(t, f)
	assert.Equal(t, []string{"new"}, batchStrings(b))
}

func TestBatchSizeLimit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rows.csv")
	writeFile(t, path, "1\n2\n3\n4\n5\n")

	store := reader.NewMemoryPositionStore()
	f := startFollower(t, Config{Paths: []string{path}, MaxBatchRecords: 2}, newMockWatcher(), store)

	assert.Equal(t, []string{"1", "2"}, batchStrings(recvBatch(t, f)))
	assert.Equal(t, []string{"3", "4"}, batchStrings(recvBatch(t, f)))
	b := recvBatch(t, f)
	assert.Equal(t, []string{"5"}, batchStrings(b))
	assert.Equal(t, int64(10), b.Offset)
}

func TestSkipExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rows.csv")
	writeFile(t, path, "seen\nseen too\n")

	store := reader.NewMemoryPositionStore()
	w := newMockWatcher()
	f := startFollower(t, Config{Paths: []string{path}, SkipExisting: true}, w, store)

	require.Eventually(t, func() bool {
		pos, err := store.GetPosition(path)
		return err == nil && pos.Offset == 14
	}, time.Second, 10*time.Millisecond)
	expectNoBatch(t, f, 50*time.Millisecond)

	appendFile(t, path, "fresh\n")
	w.send(path, watcher.OpWrite)

	assert.Equal(t, []string{"fresh"}, batchStrings(recvBatch(t, f)))
}

func TestTruncationRestarts(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rows.csv")
	writeFile(t, path, "first line\nsecond line\n")

	store := reader.NewMemoryPositionStore()
	w := newMockWatcher()
	f := startFollower(t, Config{Paths: []string{path}}, w, store)

	assert.Len(t, recvBatch(t, f).Records, 2)

	writeFile(t, path, "z\n")
	w.send(path, watcher.OpWrite)

	b := recvBatch(t, f)
	assert.Equal(t, []string{"z"}, batchStrings(b))
	assert.Equal(t, int64(2), b.Offset)
}

func TestRemoveForgetsPosition(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rows.csv")
	writeFile(t, path, "a\n")

	store := reader.NewMemoryPositionStore()
	w := newMockWatcher()
	f := startFollower(t, Config{Paths: []string{path}}, w, store)

	recvBatch(t, f)

	require.NoError(t, os.Remove(path))
	w.send(path, watcher.OpRemove)

	require.Eventually(t, func() bool {
		pos, err := store.GetPosition(path)
		return err == nil && pos.Offset == 0
	}, time.Second, 10*time.Millisecond)
}

func TestIgnoresUntrackedEvents(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rows.csv")
	other := filepath.Join(dir, "other.csv")
	writeFile(t, path, "")
	writeFile(t, other, "x\n")

	w := newMockWatcher()
	f := startFollower(t, Config{Paths: []string{path}}, w, reader.NewMemoryPositionStore())

	w.send(other, watcher.OpWrite)
	expectNoBatch(t, f, 100*time.Millisecond)
}

func TestPolling(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rows.csv")
	writeFile(t, path, "")

	f := startFollower(t, Config{
		Paths:        []string{path},
		PollInterval: 20 * time.Millisecond,
	}, newMockWatcher(), reader.NewMemoryPositionStore())

	appendFile(t, path, "polled\n")
	assert.Equal(t, []string{"polled"}, batchStrings(recvBatch(t, f)))
}

func TestWithFileWatcher(t *testing.T) {
	path := filepath.Join(t.TempDir(), "live.csv")
	writeFile(t, path, "h1,h2\n")

	w, err := watcher.New(watcher.Config{DebounceInterval: 20 * time.Millisecond}, logger.Noop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Close() })

	f := startFollower(t, Config{Paths: []string{path}}, w, reader.NewMemoryPositionStore())
	assert.Equal(t, []string{"h1,h2"}, batchStrings(recvBatch(t, f)))

	appendFile(t, path, "1,\"two\nlines\"\n")
	b := recvBatch(t, f)
	assert.Equal(t, []string{"1,\"two\nlines\""}, batchStrings(b))
}

func TestLifecycle(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rows.csv")
	writeFile(t, path, "")

	w := newMockWatcher()
	f, err := New(Config{Paths: []string{path}}, w, reader.NewMemoryPositionStore(), logger.Noop())
	require.NoError(t, err)

	assert.ErrorIs(t, f.Stop(), ErrFollowerNotRunning)

	ctx := context.Background()
	require.NoError(t, f.Start(ctx))
	assert.ErrorIs(t, f.Start(ctx), ErrFollowerRunning)

	require.NoError(t, f.Stop())
	w.mu.Lock()
	assert.True(t, w.stopped)
	w.mu.Unlock()
	assert.ErrorIs(t, f.Start(ctx), ErrFollowerClosed)

	require.NoError(t, f.Close())
	require.NoError(t, f.Close())
	assert.ErrorIs(t, f.Stop(), ErrFollowerClosed)

	_, ok := <-f.Batches()
	assert.False(t, ok)
}
