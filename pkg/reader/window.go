package reader

import (
	"fmt"

	"github.com/0xmhha/wincsv/pkg/mmap"
)

// ensureWindow makes sure unread window bytes are available.
//
// It is a no-op while pos < size. Otherwise it releases the current window
// and maps the next aligned one, returning errEndOfFile once the previous
// window already reached the end of the file.
func (r *Reader) ensureWindow() error {
	if r.win != nil && r.pos < r.size {
		return nil
	}

	if err := r.releaseWindow(); err != nil {
		return err
	}

	if r.next >= r.length {
		return errEndOfFile
	}

	n := min(r.windowSize, r.length-r.next)
	region, err := mmap.Map(r.file, r.next, int(n))
	if err != nil {
		return fmt.Errorf("%w at offset %d: %w", ErrMapFailed, r.next, err)
	}

	r.win = region
	r.base = r.next
	r.next += r.windowSize
	r.size = int(n)
	r.pos = r.skip
	r.skip = 0

	r.logger.Debug("window mapped",
		"path", r.path,
		"base", r.base,
		"size", r.size)

	return nil
}

// releaseWindow unmaps the current window, if any.
func (r *Reader) releaseWindow() error {
	if r.win == nil {
		return nil
	}

	err := r.win.Close()
	r.win = nil
	r.pos = 0
	r.size = 0
	if err != nil {
		return fmt.Errorf("%w: %w", ErrMapFailed, err)
	}
	return nil
}
