// Package reader provides a windowed, memory-mapped reader for delimited text.
//
// Files are mapped in fixed-size windows rather than loaded whole. Records
// (rows) that straddle a window boundary are stitched together in an
// accumulation buffer, and newlines inside quoted fields do not end a record.
//
// Records returned by Next are borrowed views: they point either directly into
// the mapped window or into the accumulation buffer, and are valid only until
// the next call to Next or Close. Use Record.Clone to retain one.
//
// A Reader is not safe for concurrent use. Open one Reader per goroutine.
//
// Example usage:
//
//	r, err := reader.Open("/path/to/large.csv", reader.Config{}, logger.Default())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer r.Close()
//
//	tok := r.Tokenizer()
//	for {
//	    rec, ok := r.Next()
//	    if !ok {
//	        break
//	    }
//	    for field := range tok.Fields(rec.Bytes) {
//	        fmt.Printf("%s\n", field)
//	    }
//	}
//	if err := r.Err(); err != nil {
//	    log.Fatal(err)
//	}
package reader

import (
	"time"
)

const (
	// DefaultTargetWidth is the target window width before page rounding.
	DefaultTargetWidth = 40 * 1024 * 1024

	// DefaultMaxRecordSize bounds the accumulation buffer (1GB).
	DefaultMaxRecordSize = 1 << 30
)

// Config contains reader configuration.
type Config struct {
	// Delimiter separates fields. Default: ','.
	Delimiter byte

	// Quote encloses fields that may contain delimiters or newlines.
	// Default: '"'.
	Quote byte

	// Escape makes the following byte literal inside a field.
	// Default: '\\'. Setting it equal to Quote leaves only quote doubling.
	Escape byte

	// WindowSize is the number of bytes mapped at a time.
	// Default: DefaultTargetWidth rounded up to the page size.
	// Any positive value is accepted; small sizes are useful in tests.
	WindowSize int64

	// MaxRecordSize is the largest record the accumulation buffer may hold.
	// Default: DefaultMaxRecordSize.
	MaxRecordSize int64

	// StartOffset is the file offset to start reading from. It should be a
	// record boundary, typically a previous Offset().
	StartOffset int64
}

// Source identifies the storage backing a Record.
type Source uint8

const (
	// SourceWindow means the record points directly into the mapped window.
	SourceWindow Source = iota

	// SourceBuffer means the record was reassembled in the accumulation buffer.
	SourceBuffer
)

// String returns a human-readable source name.
func (s Source) String() string {
	switch s {
	case SourceWindow:
		return "window"
	case SourceBuffer:
		return "buffer"
	default:
		return "unknown"
	}
}

// Record is one logical row of the file, without its line terminator.
type Record struct {
	// Bytes is the record content. It aliases reader-owned memory.
	Bytes []byte

	// Source tells whether Bytes points into the window or the buffer.
	Source Source

	// Offset is the file offset of the first byte of the record.
	Offset int64

	// Index is the zero-based ordinal of the record within this read.
	Index int64

	// Terminated is false only for a final record with no trailing newline.
	Terminated bool
}

// Clone returns a copy of the record that does not alias reader memory.
func (r Record) Clone() Record {
	c := r
	c.Bytes = append([]byte(nil), r.Bytes...)
	return c
}

// String returns the record content as a string (copying it).
func (r Record) String() string {
	return string(r.Bytes)
}

// Position is a persisted read position for one file.
type Position struct {
	// Offset is the byte offset just past the last consumed record.
	Offset int64 `json:"offset"`

	// Size is the file size when the position was saved.
	Size int64 `json:"size"`

	// ModTime is the file modification time when the position was saved.
	ModTime time.Time `json:"mod_time"`
}

// PositionStore provides persistence for file read positions.
type PositionStore interface {
	// GetPosition retrieves the last saved position for a file.
	//
	// Returns the zero Position if nothing is stored (start from beginning).
	GetPosition(path string) (Position, error)

	// SetPosition stores the read position for a file.
	SetPosition(path string, pos Position) error

	// DeletePosition forgets the stored position for a file.
	DeletePosition(path string) error
}
