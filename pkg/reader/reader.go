package reader

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/0xmhha/wincsv/pkg/logger"
	"github.com/0xmhha/wincsv/pkg/mmap"
	"github.com/0xmhha/wincsv/pkg/tokenizer"
)

// Reader reads records from a file through memory-mapped windows.
type Reader struct {
	path    string
	file    *os.File
	length  int64
	modTime time.Time
	config  Config
	logger  logger.Logger

	// Window state. base is always a multiple of windowSize.
	windowSize int64
	win        *mmap.Region
	base       int64
	next       int64 // base of the next window to map
	pos        int   // read cursor within the window
	size       int   // valid bytes in the window
	skip       int   // initial pos for the first window after StartOffset

	parity   uint64 // quotes seen since the last accepted terminator
	buf      accumBuffer
	stagedAt int64 // file offset of the first staged byte

	index  int64 // ordinal of the next record
	offset int64 // file offset just past the last returned record

	err    error
	closed bool
}

// Open opens path for windowed reading.
//
// Parameters:
//   - path: File to read
//   - cfg: Reader configuration (zero values select defaults)
//   - log: Logger instance
//
// Returns:
//   - Reader positioned at cfg.StartOffset
//   - ErrFileNotFound, ErrPermissionDenied or a wrapped I/O error
//
// No window is mapped until the first call to Next.
func Open(path string, cfg Config, log logger.Logger) (*Reader, error) {
	cfg, err := applyDefaults(cfg)
	if err != nil {
		return nil, err
	}

	// #nosec G304: path is chosen by the caller
	f, err := os.Open(path) // nolint:gosec
	if err != nil {
		return nil, classifyOpenError(path, err)
	}

	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("failed to stat file %s: %w", path, err)
	}
	if !info.Mode().IsRegular() {
		_ = f.Close()
		return nil, fmt.Errorf("%w: %s", ErrNotRegularFile, path)
	}

	length := info.Size()
	if cfg.StartOffset < 0 || cfg.StartOffset > length {
		_ = f.Close()
		return nil, fmt.Errorf("%w: %d (file size %d)", ErrInvalidOffset, cfg.StartOffset, length)
	}

	r := &Reader{
		path:       path,
		file:       f,
		length:     length,
		modTime:    info.ModTime(),
		config:     cfg,
		logger:     log,
		windowSize: cfg.WindowSize,
		buf:        accumBuffer{limit: cfg.MaxRecordSize},
		offset:     cfg.StartOffset,
	}

	// Start inside the window that contains StartOffset.
	r.next = cfg.StartOffset - cfg.StartOffset%cfg.WindowSize
	r.skip = int(cfg.StartOffset - r.next)
	r.stagedAt = cfg.StartOffset

	log.Debug("reader opened",
		"path", path,
		"size", length,
		"window_size", r.windowSize,
		"start_offset", cfg.StartOffset)

	return r, nil
}

// applyDefaults fills zero values and rejects conflicting special bytes.
func applyDefaults(cfg Config) (Config, error) {
	if cfg.Delimiter == 0 {
		cfg.Delimiter = ','
	}
	if cfg.Quote == 0 {
		cfg.Quote = '"'
	}
	if cfg.Escape == 0 {
		cfg.Escape = '\\'
	}
	if cfg.WindowSize <= 0 {
		cfg.WindowSize = DefaultWindowSize()
	}
	if cfg.MaxRecordSize <= 0 {
		cfg.MaxRecordSize = DefaultMaxRecordSize
	}

	switch {
	case cfg.Delimiter == cfg.Quote:
		return cfg, fmt.Errorf("%w: delimiter and quote are both %q", ErrInvalidConfig, cfg.Delimiter)
	case cfg.Delimiter == '\n' || cfg.Quote == '\n' || cfg.Escape == '\n':
		return cfg, fmt.Errorf("%w: newline cannot be a delimiter, quote or escape", ErrInvalidConfig)
	case cfg.Escape == cfg.Delimiter:
		return cfg, fmt.Errorf("%w: escape and delimiter are both %q", ErrInvalidConfig, cfg.Delimiter)
	}

	return cfg, nil
}

// DefaultWindowSize returns DefaultTargetWidth rounded up to the page size.
func DefaultWindowSize() int64 {
	return mmap.RoundUp(DefaultTargetWidth)
}

func classifyOpenError(path string, err error) error {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("%w: %s", ErrFileNotFound, path)
	case errors.Is(err, fs.ErrPermission):
		return fmt.Errorf("%w: %s", ErrPermissionDenied, path)
	default:
		return fmt.Errorf("failed to open file: %w", err)
	}
}

// Next returns the next record.
//
// It returns false at end of file and on fatal errors; use Err to tell them
// apart. The record is only valid until the next call to Next or Close.
func (r *Reader) Next() (Record, bool) {
	if r.closed {
		if r.err == nil {
			r.err = ErrReaderClosed
		}
		return Record{}, false
	}
	if r.err != nil {
		return Record{}, false
	}

	for {
		if err := r.ensureWindow(); err != nil {
			if errors.Is(err, errEndOfFile) {
				return r.flushStaged()
			}
			r.fail(err)
			return Record{}, false
		}

		span := r.win.Data()[r.pos:r.size]
		if len(span) == 0 {
			continue
		}

		k := scanBoundary(span, r.config.Quote, &r.parity)
		if k < 0 {
			// The record continues in the next window.
			if r.buf.used == 0 {
				r.stagedAt = r.base + int64(r.pos)
			}
			if err := r.buf.append(span); err != nil {
				r.fail(err)
				return Record{}, false
			}
			r.pos = r.size
			continue
		}

		chunk := span[:k+1]
		start := r.base + int64(r.pos)
		r.pos += k + 1
		r.parity = 0

		data := chunk
		source := SourceWindow
		if r.buf.used > 0 {
			if err := r.buf.append(chunk); err != nil {
				r.fail(err)
				return Record{}, false
			}
			start = r.stagedAt
			data = r.buf.bytes()
			source = SourceBuffer
			r.buf.reset()
		}

		return r.emit(trimTerminator(data), source, start, true), true
	}
}

// flushStaged returns bytes left in the accumulation buffer at end of file
// as the final, unterminated record.
func (r *Reader) flushStaged() (Record, bool) {
	if r.buf.used == 0 {
		return Record{}, false
	}

	data := r.buf.bytes()
	r.buf.reset()
	r.parity = 0

	return r.emit(trimCR(data), SourceBuffer, r.stagedAt, false), true
}

func (r *Reader) emit(data []byte, source Source, start int64, terminated bool) Record {
	rec := Record{
		Bytes:      data,
		Source:     source,
		Offset:     start,
		Index:      r.index,
		Terminated: terminated,
	}
	r.index++

	if terminated {
		r.offset = r.base + int64(r.pos)
	} else {
		r.offset = r.length
	}

	return rec
}

// fail records a fatal error. The reader returns no further records.
func (r *Reader) fail(err error) {
	r.err = err
	r.logger.Error("record read failed",
		"path", r.path,
		"offset", r.base+int64(r.pos),
		"error", err)
}

// trimTerminator strips the trailing newline and one carriage return.
func trimTerminator(b []byte) []byte {
	if n := len(b); n > 0 && b[n-1] == '\n' {
		b = b[:n-1]
	}
	return trimCR(b)
}

func trimCR(b []byte) []byte {
	if n := len(b); n > 0 && b[n-1] == '\r' {
		return b[:n-1]
	}
	return b
}

// Err returns the fatal error that stopped Next, or nil after a clean end of
// file.
func (r *Reader) Err() error {
	return r.err
}

// Offset returns the file offset just past the most recently returned
// record. Passing it as Config.StartOffset resumes after that record.
func (r *Reader) Offset() int64 {
	return r.offset
}

// Path returns the file path.
func (r *Reader) Path() string {
	return r.path
}

// Size returns the file length in bytes as of Open.
func (r *Reader) Size() int64 {
	return r.length
}

// ModTime returns the file modification time as of Open.
func (r *Reader) ModTime() time.Time {
	return r.modTime
}

// WindowSize returns the number of bytes mapped per window.
func (r *Reader) WindowSize() int64 {
	return r.windowSize
}

// BufferCapacity returns the accumulation buffer capacity in bytes.
func (r *Reader) BufferCapacity() int {
	return r.buf.capacity()
}

// Tokenizer returns a field tokenizer using this reader's delimiter, quote
// and escape bytes.
func (r *Reader) Tokenizer() *tokenizer.Tokenizer {
	return tokenizer.New(tokenizer.Config{
		Delimiter: r.config.Delimiter,
		Quote:     r.config.Quote,
		Escape:    r.config.Escape,
	})
}

// Close unmaps the current window, frees the accumulation buffer and closes
// the file. Closing an already closed reader is a no-op.
func (r *Reader) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true

	winErr := r.releaseWindow()
	r.buf.release()
	fileErr := r.file.Close()

	r.logger.Debug("reader closed",
		"path", r.path,
		"records", r.index)

	if winErr != nil {
		return winErr
	}
	if fileErr != nil {
		return fmt.Errorf("failed to close file: %w", fileErr)
	}
	return nil
}
