// Package discovery finds delimited data files under a set of roots.
//
// A root may name a file, which is returned as long as it exists, or a
// directory, which is scanned for files with a known extension. Scanning
// descends into subdirectories only when Config.Recursive is set.
//
// Example usage:
//
//	d := discovery.New(discovery.Config{Roots: []string{"~/data"}, Recursive: true}, logger.Default())
//	files, err := d.Discover()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, f := range files {
//	    fmt.Printf("%s (%d bytes)\n", f.Path, f.Size)
//	}
package discovery

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/0xmhha/wincsv/pkg/logger"
)

// DefaultExtensions lists the file extensions matched when Config.Extensions
// is empty.
var DefaultExtensions = []string{".csv", ".tsv", ".psv", ".txt"}

// File represents a discovered data file.
type File struct {
	// Path is the absolute path to the file.
	Path string `json:"path"`

	// Dir is the directory containing the file.
	Dir string `json:"dir"`

	// Size is the file size in bytes.
	Size int64 `json:"size"`

	// ModTime is the last modification time.
	ModTime int64 `json:"mod_time"` // Unix timestamp
}

// Config contains discovery configuration.
type Config struct {
	// Roots lists the files and directories to search.
	Roots []string

	// Extensions lists the file extensions to match, case-insensitively.
	// Default: DefaultExtensions.
	Extensions []string

	// Recursive descends into subdirectories.
	Recursive bool

	// IncludeHidden includes files and directories whose name starts with
	// a dot.
	IncludeHidden bool
}

// Discoverer provides methods for discovering data files.
type Discoverer interface {
	// Discover searches every configured root and returns the files found,
	// sorted by path.
	//
	// Returns:
	//   - Slice of discovered files
	//   - Error if a root cannot be accessed
	//
	// Roots that do not exist are skipped with a warning.
	Discover() ([]File, error)

	// DiscoverDir returns the data files in a single directory.
	//
	// Parameters:
	//   - dir: Absolute or relative path to the directory
	//
	// Returns:
	//   - Slice of files in the directory, sorted by path
	//   - Error if the directory cannot be accessed
	DiscoverDir(dir string) ([]File, error)
}

// discoverer implements the Discoverer interface.
type discoverer struct {
	config Config
	logger logger.Logger
}

// New creates a new Discoverer instance.
//
// Parameters:
//   - cfg: Discovery configuration
//   - log: Logger instance for diagnostic messages
//
// Returns a configured Discoverer.
func New(cfg Config, log logger.Logger) Discoverer {
	if len(cfg.Extensions) == 0 {
		cfg.Extensions = DefaultExtensions
	}

	exts := make([]string, len(cfg.Extensions))
	for i, ext := range cfg.Extensions {
		ext = strings.ToLower(ext)
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		exts[i] = ext
	}
	cfg.Extensions = exts

	return &discoverer{
		config: cfg,
		logger: log,
	}
}

// Discover implements Discoverer.Discover.
func (d *discoverer) Discover() ([]File, error) {
	var all []File
	seen := make(map[string]struct{})

	for _, root := range d.config.Roots {
		expanded, err := filepath.Abs(expandHome(root))
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidPath, root, err)
		}

		info, err := os.Stat(expanded)
		if err != nil {
			if os.IsNotExist(err) {
				d.logger.Warn("path not found, skipping", "path", expanded)
				continue
			}
			return nil, fmt.Errorf("failed to stat %s: %w", expanded, err)
		}

		var files []File
		if info.IsDir() {
			files, err = d.scanDirectory(expanded)
			if err != nil {
				return nil, fmt.Errorf("failed to scan directory %s: %w", expanded, err)
			}
		} else {
			// An explicitly named file is taken whatever its extension.
			files = []File{newFile(expanded, info)}
		}

		for _, f := range files {
			if _, dup := seen[f.Path]; dup {
				continue
			}
			seen[f.Path] = struct{}{}
			all = append(all, f)
		}
	}

	sortFiles(all)
	d.logger.Info("discovery complete", "total_files", len(all))
	return all, nil
}

// DiscoverDir implements Discoverer.DiscoverDir.
func (d *discoverer) DiscoverDir(dir string) ([]File, error) {
	expanded, err := filepath.Abs(expandHome(dir))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidPath, dir, err)
	}

	info, err := os.Stat(expanded)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrDirectoryNotFound, expanded)
		}
		return nil, fmt.Errorf("failed to stat directory %s: %w", expanded, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrInvalidPath, expanded)
	}

	files, err := d.scanDirectory(expanded)
	if err != nil {
		return nil, err
	}
	sortFiles(files)
	return files, nil
}

// scanDirectory collects matching files in dir, descending into
// subdirectories when configured.
func (d *discoverer) scanDirectory(dir string) ([]File, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}

	files := make([]File, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if !d.config.IncludeHidden && strings.HasPrefix(name, ".") {
			continue
		}
		path := filepath.Join(dir, name)

		if entry.IsDir() {
			if !d.config.Recursive {
				continue
			}
			sub, err := d.scanDirectory(path)
			if err != nil {
				d.logger.Warn("failed to scan subdirectory",
					"path", path,
					"error", err)
				continue
			}
			files = append(files, sub...)
			continue
		}

		if !d.matches(name) {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			d.logger.Warn("failed to get file info",
				"path", path,
				"error", err)
			continue
		}
		if !info.Mode().IsRegular() {
			continue
		}

		files = append(files, newFile(path, info))
	}

	d.logger.Debug("scanned directory",
		"path", dir,
		"files_found", len(files))

	return files, nil
}

// matches reports whether name carries one of the configured extensions.
func (d *discoverer) matches(name string) bool {
	return slices.Contains(d.config.Extensions, strings.ToLower(filepath.Ext(name)))
}

func newFile(path string, info os.FileInfo) File {
	return File{
		Path:    path,
		Dir:     filepath.Dir(path),
		Size:    info.Size(),
		ModTime: info.ModTime().Unix(),
	}
}

func sortFiles(files []File) {
	slices.SortFunc(files, func(a, b File) int {
		return strings.Compare(a.Path, b.Path)
	})
}

// expandHome expands ~ in file paths to the user's home directory.
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
