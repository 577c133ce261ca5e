// Package display provides output formatting for records, statistics and
// file listings.
//
// It supports multiple output formats (table, JSON, simple text). Table
// output pads columns to a common width, caps each cell at
// Config.MaxColumnWidth and optionally colours the header row.
package display

import (
	"io"

	"github.com/0xmhha/wincsv/pkg/discovery"
	"github.com/0xmhha/wincsv/pkg/stats"
)

// Format represents an output format.
type Format string

const (
	// FormatTable displays output in a formatted table.
	FormatTable Format = "table"

	// FormatJSON displays output as JSON.
	FormatJSON Format = "json"

	// FormatSimple displays output in simple text format.
	FormatSimple Format = "simple"
)

// Formatter formats tokenized records, statistics and file listings.
type Formatter interface {
	// FormatRecords formats tokenized records.
	//
	// Parameters:
	//   - w: Output writer
	//   - header: Column names, or nil when the input has no header
	//   - rows: Field values of each record
	//
	// Returns error if formatting fails.
	FormatRecords(w io.Writer, header []string, rows [][]string) error

	// FormatStats formats aggregated statistics.
	//
	// Parameters:
	//   - w: Output writer
	//   - stats: Statistics to format
	//
	// Returns error if formatting fails.
	FormatStats(w io.Writer, stats stats.Statistics) error

	// FormatFiles formats a list of discovered files.
	FormatFiles(w io.Writer, files []discovery.File) error
}

// Config contains formatter configuration.
type Config struct {
	// Format specifies the output format.
	// Default: FormatTable.
	Format Format

	// ShowPercentiles enables percentile display.
	ShowPercentiles bool

	// Compact enables compact output (less whitespace).
	// Default: false.
	Compact bool

	// Color enables ANSI colours in table headers.
	Color bool

	// MaxColumnWidth caps table and simple cells, in characters. Longer
	// values are cut and end in "...". Zero disables the cap.
	MaxColumnWidth int
}
