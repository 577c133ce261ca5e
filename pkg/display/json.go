package display

import (
	"encoding/json"
	"io"

	"github.com/0xmhha/wincsv/pkg/discovery"
	"github.com/0xmhha/wincsv/pkg/stats"
)

// jsonFormatter formats output as JSON.
type jsonFormatter struct {
	config Config
}

// recordsDocument is the JSON form of a record listing.
type recordsDocument struct {
	Header []string   `json:"header,omitempty"`
	Rows   [][]string `json:"rows"`
}

// FormatRecords implements Formatter.FormatRecords.
func (f *jsonFormatter) FormatRecords(w io.Writer, header []string, rows [][]string) error {
	if rows == nil {
		rows = [][]string{}
	}
	return f.encode(w, recordsDocument{Header: header, Rows: rows})
}

// FormatStats implements Formatter.FormatStats.
func (f *jsonFormatter) FormatStats(w io.Writer, s stats.Statistics) error {
	if s.Columns == nil {
		s.Columns = []stats.ColumnStats{}
	}
	return f.encode(w, s)
}

// FormatFiles implements Formatter.FormatFiles.
func (f *jsonFormatter) FormatFiles(w io.Writer, files []discovery.File) error {
	if files == nil {
		files = []discovery.File{}
	}
	return f.encode(w, files)
}

func (f *jsonFormatter) encode(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	if !f.config.Compact {
		encoder.SetIndent("", "  ")
	}

	return encoder.Encode(v)
}
