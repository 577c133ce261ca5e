package reader

import "encoding/binary"

const (
	lsbs = 0x0101010101010101
	msbs = 0x8080808080808080
)

// hasByte reports whether any byte of w equals the byte repeated in pattern.
func hasByte(w, pattern uint64) bool {
	x := w ^ pattern
	return (x-lsbs)&^x&msbs != 0
}

// scanBoundary returns the offset of the first newline in span that is
// outside quotes, or -1.
//
// Every quote byte increments *parity; a newline counts as a terminator only
// while *parity is even. The counter is shared across calls so that quoting
// carries over window boundaries, which also means span must not be scanned
// twice.
func scanBoundary(span []byte, quote byte, parity *uint64) int {
	quotes := lsbs * uint64(quote)
	newlines := uint64(lsbs * '\n')

	n := len(span)
	i := 0
	for i < n {
		// Skip whole words holding neither a quote nor a newline.
		if n-i >= 8 {
			w := binary.LittleEndian.Uint64(span[i:])
			if !hasByte(w, quotes) && !hasByte(w, newlines) {
				i += 8
				continue
			}
		}

		switch span[i] {
		case quote:
			*parity++
		case '\n':
			if *parity&1 == 0 {
				return i
			}
		}
		i++
	}

	return -1
}
