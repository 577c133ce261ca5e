package display

import (
	"fmt"
	"io"
	"strings"

	"github.com/0xmhha/wincsv/pkg/discovery"
	"github.com/0xmhha/wincsv/pkg/stats"
)

// simpleFormatter formats output as simple text.
type simpleFormatter struct {
	config Config
}

// FormatRecords implements Formatter.FormatRecords.
func (f *simpleFormatter) FormatRecords(w io.Writer, header []string, rows [][]string) error {
	if len(header) > 0 {
		if err := f.writeLine(w, header); err != nil {
			return err
		}
	}
	for _, row := range rows {
		if err := f.writeLine(w, row); err != nil {
			return err
		}
	}
	return nil
}

func (f *simpleFormatter) writeLine(w io.Writer, fields []string) error {
	cells := make([]string, len(fields))
	for i, v := range fields {
		cells[i] = f.config.cell(v)
	}
	_, err := fmt.Fprintln(w, strings.Join(cells, " | "))
	return err
}

// FormatStats implements Formatter.FormatStats.
func (f *simpleFormatter) FormatStats(w io.Writer, s stats.Statistics) error {
	_, err := fmt.Fprintf(w, "Files: %d | Records: %s | Fields: %d (%d-%d, %s inconsistent) | Avg: %s | Min: %s | Max: %s\n",
		s.Files,
		formatNumber(s.Records),
		s.ExpectedFields,
		s.MinFields,
		s.MaxFields,
		formatNumber(s.Inconsistent),
		formatFloat(s.AvgLength, 1),
		formatNumber(s.MinLength),
		formatNumber(s.MaxLength))
	return err
}

// FormatFiles implements Formatter.FormatFiles.
func (f *simpleFormatter) FormatFiles(w io.Writer, files []discovery.File) error {
	for _, file := range files {
		if _, err := fmt.Fprintf(w, "%s (%s bytes)\n", file.Path, formatNumber(file.Size)); err != nil {
			return err
		}
	}
	return nil
}
