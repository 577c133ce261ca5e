//go:build !unix

package mmap

import (
	"io"
	"os"
)

// PageSize returns the operating system page size.
func PageSize() int {
	return os.Getpagesize()
}

// Map reads [offset, offset+length) of f into a heap buffer.
//
// Platforms without unix mmap get the same Region contract: Data is
// writable and private to the caller.
func Map(f *os.File, offset int64, length int) (*Region, error) {
	if length <= 0 {
		return nil, ErrInvalidSize
	}
	if offset < 0 {
		return nil, ErrInvalidOffset
	}

	buf := make([]byte, length)
	if _, err := io.ReadFull(io.NewSectionReader(f, offset, int64(length)), buf); err != nil {
		return nil, &Error{Op: "read", Err: err}
	}

	return &Region{
		data:   buf,
		mapped: buf,
		offset: offset,
	}, nil
}

// Close releases the buffer. It is safe to call more than once.
func (r *Region) Close() error {
	r.mapped = nil
	r.data = nil
	return nil
}
