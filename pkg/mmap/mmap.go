// Package mmap maps byte ranges of a file into memory for windowed reads.
//
// A Map covers an arbitrary [offset, offset+length) range. The operating
// system requires page-aligned mapping offsets, so the range is widened down
// to the nearest page boundary internally and Data returns only the requested
// bytes.
//
// Mappings are private and copy-on-write: callers may modify Data in place
// (the tokenizer decodes fields this way) without the changes reaching the
// file.
//
// Example usage:
//
//	f, err := os.Open("large.csv")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer f.Close()
//
//	m, err := mmap.Map(f, 0, 4096)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer m.Close()
//
//	fmt.Printf("first byte: %q\n", m.Data()[0])
package mmap

// Region is a mapped view of part of a file.
type Region struct {
	data   []byte // Requested bytes (a sub-slice of mapped)
	mapped []byte // Full OS mapping, starting at the aligned offset
	offset int64  // File offset of data[0]
}

// Data returns the mapped bytes. The slice is invalid after Close.
func (r *Region) Data() []byte {
	return r.data
}

// Offset returns the file offset of the first byte of Data.
func (r *Region) Offset() int64 {
	return r.offset
}

// Len returns the number of mapped bytes.
func (r *Region) Len() int {
	return len(r.data)
}

// Error represents an mmap error.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return "mmap: " + e.Op + ": " + e.Err.Error()
	}
	return "mmap: " + e.Op
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Common errors.
var (
	ErrInvalidSize   = &Error{Op: "invalid size"}
	ErrInvalidOffset = &Error{Op: "invalid offset"}
	ErrNotMapped     = &Error{Op: "not mapped"}
)

// alignDown returns the largest multiple of page that is <= off.
func alignDown(off int64, page int) int64 {
	p := int64(page)
	return off - off%p
}

// RoundUp rounds n up to the next multiple of the page size.
//
// Used to derive window sizes from a target width.
func RoundUp(n int64) int64 {
	p := int64(PageSize())
	if n <= 0 {
		return p
	}
	return (n + p - 1) / p * p
}
