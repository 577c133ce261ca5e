package reader

import "fmt"

// accumBuffer holds the bytes of a record whose end has not been seen yet.
//
// len(data) is the capacity. It only grows while the reader is open.
type accumBuffer struct {
	data  []byte
	used  int
	limit int64
}

// append copies p after the used bytes, growing storage to exactly
// used+len(p)+1 when it does not fit.
func (b *accumBuffer) append(p []byte) error {
	need := b.used + len(p)
	if b.limit > 0 && int64(need) > b.limit {
		return fmt.Errorf("%w: %d bytes, max=%d", ErrRecordTooLarge, need, b.limit)
	}

	if need+1 > len(b.data) {
		grown := make([]byte, need+1)
		copy(grown, b.data[:b.used])
		b.data = grown
	}

	copy(b.data[b.used:], p)
	b.used = need
	return nil
}

// bytes borrows the used part of the buffer.
func (b *accumBuffer) bytes() []byte {
	return b.data[:b.used]
}

// reset marks the buffer empty without releasing storage.
func (b *accumBuffer) reset() {
	b.used = 0
}

func (b *accumBuffer) capacity() int {
	return len(b.data)
}

func (b *accumBuffer) release() {
	b.data = nil
	b.used = 0
}
