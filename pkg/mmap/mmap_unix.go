//go:build unix

package mmap

import (
	"os"

	"golang.org/x/sys/unix"
)

// PageSize returns the operating system page size.
func PageSize() int {
	return unix.Getpagesize()
}

// Map creates a private, writable (copy-on-write) mapping of
// [offset, offset+length) of f.
//
// The file may be opened read-only; writes to Data never reach the file.
func Map(f *os.File, offset int64, length int) (*Region, error) {
	if length <= 0 {
		return nil, ErrInvalidSize
	}
	if offset < 0 {
		return nil, ErrInvalidOffset
	}

	aligned := alignDown(offset, PageSize())
	delta := int(offset - aligned)

	mapped, err := unix.Mmap(int(f.Fd()), aligned, length+delta,
		unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE)
	if err != nil {
		return nil, &Error{Op: "mmap", Err: err}
	}

	// Windows are consumed front to back.
	_ = unix.Madvise(mapped, unix.MADV_SEQUENTIAL)

	return &Region{
		data:   mapped[delta : delta+length],
		mapped: mapped,
		offset: offset,
	}, nil
}

// Close releases the mapping. It is safe to call more than once.
func (r *Region) Close() error {
	if r.mapped == nil {
		return nil
	}

	err := unix.Munmap(r.mapped)
	r.mapped = nil
	r.data = nil
	if err != nil {
		return &Error{Op: "munmap", Err: err}
	}
	return nil
}
