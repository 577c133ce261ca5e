// Package tokenizer splits one delimited record into fields.
//
// Fields are decoded in place: quotes are removed, doubled quotes collapse to
// one and escaped bytes are unescaped by compacting the record buffer itself.
// The returned fields alias the record, so a record must be tokenized only
// once.
//
// The tokenizer keeps no state between calls. Progress through a record is
// carried by a Cursor value that the caller threads from one call to the next.
//
// Example usage:
//
//	tok := tokenizer.New(tokenizer.Config{Delimiter: ';'})
//	var cur tokenizer.Cursor
//	for {
//	    field, next, ok := tok.Next(record, cur)
//	    if !ok {
//	        break
//	    }
//	    fmt.Printf("%s\n", field)
//	    cur = next
//	}
package tokenizer

import "iter"

// State is the position of the field state machine.
type State uint8

// Tokenizer states.
const (
	RecordStart       State = iota // At the start of a field
	UnquotedField                  // Inside a field that did not start with a quote
	QuotedField                    // Inside a quoted field
	AfterClosingQuote              // Between a closing quote and the next delimiter
	RecordEnd                      // No fields remain
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case RecordStart:
		return "RecordStart"
	case UnquotedField:
		return "UnquotedField"
	case QuotedField:
		return "QuotedField"
	case AfterClosingQuote:
		return "AfterClosingQuote"
	case RecordEnd:
		return "RecordEnd"
	default:
		return "Unknown"
	}
}

// Cursor is a resumable position within one record.
//
// The zero Cursor is the start of a record.
type Cursor struct {
	pos   int
	state State
}

// Pos returns the byte offset in the record where the next field starts.
func (c Cursor) Pos() int {
	return c.pos
}

// State returns RecordStart when positioned at a field and RecordEnd once
// the last field has been returned.
func (c Cursor) State() State {
	return c.state
}

func endCursor(n int) Cursor {
	return Cursor{pos: n, state: RecordEnd}
}

// Config contains tokenizer configuration.
type Config struct {
	// Delimiter separates fields. Default: ','.
	Delimiter byte

	// Quote encloses fields. Default: '"'.
	Quote byte

	// Escape makes the following byte literal. Default: '\\'.
	// When equal to Quote, only quote doubling applies.
	Escape byte
}

// Tokenizer decodes fields from records.
type Tokenizer struct {
	delim  byte
	quote  byte
	escape byte
}

// New creates a Tokenizer, filling zero bytes in cfg with defaults.
func New(cfg Config) *Tokenizer {
	if cfg.Delimiter == 0 {
		cfg.Delimiter = ','
	}
	if cfg.Quote == 0 {
		cfg.Quote = '"'
	}
	if cfg.Escape == 0 {
		cfg.Escape = '\\'
	}

	return &Tokenizer{
		delim:  cfg.Delimiter,
		quote:  cfg.Quote,
		escape: cfg.Escape,
	}
}

// Next decodes the field starting at cur.
//
// It returns the decoded field, the cursor for the following field and
// ok=false when the record has no more fields. A record ending in a
// delimiter does not yield a trailing empty field.
//
// Bytes between a closing quote and the next delimiter are dropped.
func (t *Tokenizer) Next(record []byte, cur Cursor) ([]byte, Cursor, bool) {
	if cur.state == RecordEnd || cur.pos >= len(record) {
		return nil, endCursor(len(record)), false
	}

	state := UnquotedField
	r := cur.pos
	if record[r] == t.quote {
		state = QuotedField
		r++
	}

	// w trails r; decoding only ever shrinks the field.
	start, w := r, r
	for ; r < len(record); r++ {
		c := record[r]

		switch {
		case state == AfterClosingQuote:
			if c == t.delim {
				return record[start:w], Cursor{pos: r + 1}, true
			}
		case c == t.escape && t.escape != t.quote && r+1 < len(record):
			r++
			record[w] = record[r]
			w++
		case c == t.quote && r+1 < len(record) && record[r+1] == t.quote:
			r++
			record[w] = t.quote
			w++
		case c == t.quote && state == QuotedField:
			state = AfterClosingQuote
		case c == t.delim && state == UnquotedField:
			return record[start:w], Cursor{pos: r + 1}, true
		default:
			record[w] = c
			w++
		}
	}

	return record[start:w], endCursor(len(record)), true
}

// Split decodes every field of record, appending them to dst[:0].
func (t *Tokenizer) Split(record []byte, dst [][]byte) [][]byte {
	dst = dst[:0]
	var cur Cursor
	for {
		field, next, ok := t.Next(record, cur)
		if !ok {
			return dst
		}
		dst = append(dst, field)
		cur = next
	}
}

// Fields returns an iterator over the decoded fields of record.
func (t *Tokenizer) Fields(record []byte) iter.Seq[[]byte] {
	return func(yield func([]byte) bool) {
		var cur Cursor
		for {
			field, next, ok := t.Next(record, cur)
			if !ok || !yield(field) {
				return
			}
			cur = next
		}
	}
}

// Strings decodes every field of record and copies them out as strings.
func (t *Tokenizer) Strings(record []byte) []string {
	var out []string
	for field := range t.Fields(record) {
		out = append(out, string(field))
	}
	return out
}
