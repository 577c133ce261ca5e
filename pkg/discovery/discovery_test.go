package discovery

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"testing"

	"github.com/0xmhha/wincsv/pkg/logger"
)

// mockLogger implements logger.Logger for testing.
type mockLogger struct {
	mu         sync.Mutex
	debugCalls []string
	infoCalls  []string
	warnCalls  []string
	errorCalls []string
}

func (m *mockLogger) Debug(msg string, keysAndValues ...any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.debugCalls = append(m.debugCalls, msg)
}

func (m *mockLogger) Info(msg string, keysAndValues ...any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.infoCalls = append(m.infoCalls, msg)
}

func (m *mockLogger) Warn(msg string, keysAndValues ...any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.warnCalls = append(m.warnCalls, msg)
}

func (m *mockLogger) Error(msg string, keysAndValues ...any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errorCalls = append(m.errorCalls, msg)
}

func (m *mockLogger) With(keysAndValues ...any) logger.Logger {
	return m
}

func createFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
}

func paths(files []File) []string {
	out := make([]string, len(files))
	for i, f := range files {
		out[i] = f.Path
	}
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// layout creates:
//
//	dir/
//	  a.csv
//	  b.TSV
//	  notes.md (ignored)
//	  .hidden.csv (ignored unless IncludeHidden)
//	  nested/
//	    c.psv
//	    deeper/
//	      d.txt
func layout(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	createFile(t, filepath.Join(dir, "a.csv"), "a,b\n")
	createFile(t, filepath.Join(dir, "b.TSV"), "a\tb\n")
	createFile(t, filepath.Join(dir, "notes.md"), "# notes\n")
	createFile(t, filepath.Join(dir, ".hidden.csv"), "x\n")
	createFile(t, filepath.Join(dir, "nested", "c.psv"), "a|b\n")
	createFile(t, filepath.Join(dir, "nested", "deeper", "d.txt"), "line\n")
	return dir
}

func TestNew(t *testing.T) {
	d := New(Config{Roots: []string{"/path1", "/path2"}}, &mockLogger{})
	if d == nil {
		t.Fatal("New() returned nil")
	}
}

func TestDiscoverFlat(t *testing.T) {
	dir := layout(t)
	log := &mockLogger{}

	files, err := New(Config{Roots: []string{dir}}, log).Discover()
	if err != nil {
		t.Fatalf("Discover() error = %v", err)
	}

	want := []string{
		filepath.Join(dir, "a.csv"),
		filepath.Join(dir, "b.TSV"),
	}
	if got := paths(files); !equalStrings(got, want) {
		t.Errorf("Discover() = %v, want %v", got, want)
	}

	if files[0].Size != 4 {
		t.Errorf("Size = %d, want 4", files[0].Size)
	}
	if files[0].Dir != dir {
		t.Errorf("Dir = %s, want %s", files[0].Dir, dir)
	}
	if files[0].ModTime == 0 {
		t.Error("ModTime not set")
	}
	if len(log.infoCalls) != 1 {
		t.Errorf("expected 1 info log, got %d", len(log.infoCalls))
	}
}

func TestDiscoverRecursive(t *testing.T) {
	dir := layout(t)

	files, err := New(Config{Roots: []string{dir}, Recursive: true}, &mockLogger{}).Discover()
	if err != nil {
		t.Fatalf("Discover() error = %v", err)
	}

	want := []string{
		filepath.Join(dir, "a.csv"),
		filepath.Join(dir, "b.TSV"),
		filepath.Join(dir, "nested", "c.psv"),
		filepath.Join(dir, "nested", "deeper", "d.txt"),
	}
	if got := paths(files); !equalStrings(got, want) {
		t.Errorf("Discover() = %v, want %v", got, want)
	}
}

func TestDiscoverHidden(t *testing.T) {
	dir := layout(t)

	files, err := New(Config{Roots: []string{dir}, IncludeHidden: true}, &mockLogger{}).Discover()
	if err != nil {
		t.Fatalf("Discover() error = %v", err)
	}

	want := []string{
		filepath.Join(dir, ".hidden.csv"),
		filepath.Join(dir, "a.csv"),
		filepath.Join(dir, "b.TSV"),
	}
	if got := paths(files); !equalStrings(got, want) {
		t.Errorf("Discover() = %v, want %v", got, want)
	}
}

func TestDiscoverCustomExtensions(t *testing.T) {
	dir := layout(t)

	files, err := New(Config{
		Roots:      []string{dir},
		Extensions: []string{"md", ".PSV"},
		Recursive:  true,
	}, &mockLogger{}).Discover()
	if err != nil {
		t.Fatalf("Discover() error = %v", err)
	}

	want := []string{
		filepath.Join(dir, "nested", "c.psv"),
		filepath.Join(dir, "notes.md"),
	}
	if got := paths(files); !equalStrings(got, want) {
		t.Errorf("Discover() = %v, want %v", got, want)
	}
}

func TestDiscoverFileRoots(t *testing.T) {
	dir := layout(t)
	notes := filepath.Join(dir, "notes.md")
	csv := filepath.Join(dir, "a.csv")

	// Named files are kept whatever their extension, and only once.
	files, err := New(Config{Roots: []string{notes, csv, dir}}, &mockLogger{}).Discover()
	if err != nil {
		t.Fatalf("Discover() error = %v", err)
	}

	want := []string{
		csv,
		filepath.Join(dir, "b.TSV"),
		notes,
	}
	if got := paths(files); !equalStrings(got, want) {
		t.Errorf("Discover() = %v, want %v", got, want)
	}
}

func TestDiscoverMissingRoot(t *testing.T) {
	dir := layout(t)
	log := &mockLogger{}

	files, err := New(Config{Roots: []string{filepath.Join(dir, "missing"), dir}}, log).Discover()
	if err != nil {
		t.Fatalf("Discover() error = %v", err)
	}
	if len(files) != 2 {
		t.Errorf("expected 2 files, got %d", len(files))
	}
	if len(log.warnCalls) != 1 {
		t.Errorf("expected 1 warning, got %d", len(log.warnCalls))
	}
}

func TestDiscoverDir(t *testing.T) {
	dir := layout(t)
	d := New(Config{}, &mockLogger{})

	files, err := d.DiscoverDir(filepath.Join(dir, "nested"))
	if err != nil {
		t.Fatalf("DiscoverDir() error = %v", err)
	}
	if got := paths(files); !equalStrings(got, []string{filepath.Join(dir, "nested", "c.psv")}) {
		t.Errorf("DiscoverDir() = %v", got)
	}

	_, err = d.DiscoverDir(filepath.Join(dir, "missing"))
	if !errors.Is(err, ErrDirectoryNotFound) {
		t.Errorf("DiscoverDir(missing) error = %v, want ErrDirectoryNotFound", err)
	}

	_, err = d.DiscoverDir(filepath.Join(dir, "a.csv"))
	if !errors.Is(err, ErrInvalidPath) {
		t.Errorf("DiscoverDir(file) error = %v, want ErrInvalidPath", err)
	}
}

func TestExpandHome(t *testing.T) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		t.Skip("cannot determine home directory")
	}

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"no tilde", "/absolute/path", "/absolute/path"},
		{"tilde only", "~", homeDir},
		{"tilde with path", "~/data/rows.csv", filepath.Join(homeDir, "data/rows.csv")},
		{"relative", "data", "data"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := expandHome(tt.input); got != tt.want {
				t.Errorf("expandHome(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func BenchmarkDiscover(b *testing.B) {
	dir := b.TempDir()
	for i := 0; i < 10; i++ {
		sub := filepath.Join(dir, "part-"+strconv.Itoa(i))
		if err := os.MkdirAll(sub, 0700); err != nil {
			b.Fatal(err)
		}
		for j := 0; j < 10; j++ {
			path := filepath.Join(sub, "rows-"+strconv.Itoa(j)+".csv")
			if err := os.WriteFile(path, []byte("a,b\n"), 0600); err != nil {
				b.Fatal(err)
			}
		}
	}

	d := New(Config{Roots: []string{dir}, Recursive: true}, logger.Noop())

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := d.Discover(); err != nil {
			b.Fatal(err)
		}
	}
}
