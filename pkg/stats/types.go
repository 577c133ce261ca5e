// Package stats summarises the shape of delimited files.
//
// An Aggregator receives tokenized records and tracks record counts, field
// count consistency, record length distribution and per-column content.
// Aggregators for different files can be merged, so files may be scanned in
// parallel.
//
// Example usage:
//
//	agg := stats.New(stats.Config{Header: true, TrackPercentiles: true})
//	tok := r.Tokenizer()
//	var fields [][]byte
//	for {
//	    rec, ok := r.Next()
//	    if !ok {
//	        break
//	    }
//	    n := len(rec.Bytes)
//	    fields = tok.Split(rec.Bytes, fields)
//	    agg.Add(n, fields)
//	}
//	agg.CountFile()
//	fmt.Printf("Records: %d\n", agg.Stats().Records)
package stats

// Aggregator computes record statistics.
type Aggregator interface {
	// Add adds one record.
	//
	// Parameters:
	//   - length: Record length in bytes, before field decoding
	//   - fields: Decoded fields of the record
	//
	// With Config.Header set, the first record only names the columns.
	Add(length int, fields [][]byte)

	// CountFile marks the end of one input file.
	CountFile()

	// Merge adds everything recorded by other. other is not modified.
	Merge(other Aggregator)

	// Stats returns the aggregated statistics.
	Stats() Statistics

	// Reset clears all aggregated data.
	Reset()
}

// Statistics contains aggregated record statistics.
type Statistics struct {
	// Files is the number of completed input files.
	Files int `json:"files"`

	// Records is the number of data records (header excluded).
	Records int64 `json:"records"`

	// Bytes is the total record length in bytes.
	Bytes int64 `json:"bytes"`

	// ExpectedFields is the field count of the first record seen.
	ExpectedFields int `json:"expected_fields"`

	// MinFields is the smallest field count in any record.
	MinFields int `json:"min_fields"`

	// MaxFields is the largest field count in any record.
	MaxFields int `json:"max_fields"`

	// Inconsistent is the number of records whose field count differs
	// from ExpectedFields.
	Inconsistent int64 `json:"inconsistent"`

	// MinLength is the shortest record in bytes.
	MinLength int `json:"min_length"`

	// MaxLength is the longest record in bytes.
	MaxLength int `json:"max_length"`

	// AvgLength is the average record length in bytes.
	AvgLength float64 `json:"avg_length"`

	// P50Length is the median record length.
	P50Length int `json:"p50_length"`

	// P95Length is the 95th percentile record length.
	P95Length int `json:"p95_length"`

	// P99Length is the 99th percentile record length.
	P99Length int `json:"p99_length"`

	// Columns holds per-column statistics, in column order.
	Columns []ColumnStats `json:"columns"`
}

// ColumnStats contains statistics for one column.
type ColumnStats struct {
	// Index is the zero-based column position.
	Index int `json:"index"`

	// Name is the header value, if a header was read.
	Name string `json:"name,omitempty"`

	// NonEmpty is the number of records with a non-empty value.
	NonEmpty int64 `json:"non_empty"`

	// Numeric is the number of values that parse as numbers.
	Numeric int64 `json:"numeric"`

	// MaxWidth is the widest value in characters.
	MaxWidth int `json:"max_width"`
}

// Config contains aggregator configuration.
type Config struct {
	// Header treats the first record as column names.
	Header bool

	// TrackPercentiles enables record length percentiles.
	//
	// Percentiles require keeping every record length in memory.
	TrackPercentiles bool

	// MaxColumns caps the number of columns tracked. Default: 256.
	MaxColumns int
}
