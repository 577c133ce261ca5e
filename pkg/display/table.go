package display

import (
	"fmt"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/fatih/color"

	"github.com/0xmhha/wincsv/pkg/discovery"
	"github.com/0xmhha/wincsv/pkg/stats"
)

// tableFormatter formats output as tables.
type tableFormatter struct {
	config Config
}

// FormatRecords implements Formatter.FormatRecords.
func (f *tableFormatter) FormatRecords(w io.Writer, header []string, rows [][]string) error {
	names := columnNames(header, widest(rows))

	cells := make([][]string, len(rows))
	for i, row := range rows {
		cells[i] = make([]string, len(row))
		for j, v := range row {
			cells[i][j] = f.config.cell(v)
		}
	}
	for i, name := range names {
		names[i] = f.config.cell(name)
	}

	return f.writeTable(w, names, cells)
}

// FormatStats implements Formatter.FormatStats.
func (f *tableFormatter) FormatStats(w io.Writer, s stats.Statistics) error {
	if err := writeHeader(w, "Record Statistics", f.config.Compact); err != nil {
		return err
	}

	rows := [][]string{
		{"Files", formatNumber(s.Files)},
		{"Records", formatNumber(s.Records)},
		{"Bytes", formatNumber(s.Bytes)},
		{"Expected Fields", formatNumber(s.ExpectedFields)},
		{"Min/Max Fields", fmt.Sprintf("%s/%s", formatNumber(s.MinFields), formatNumber(s.MaxFields))},
		{"Inconsistent", formatNumber(s.Inconsistent)},
		{"Average Length", formatFloat(s.AvgLength, 2)},
		{"Min Length", formatNumber(s.MinLength)},
		{"Max Length", formatNumber(s.MaxLength)},
	}

	if f.config.ShowPercentiles {
		rows = append(rows,
			[]string{"P50 Length", formatNumber(s.P50Length)},
			[]string{"P95 Length", formatNumber(s.P95Length)},
			[]string{"P99 Length", formatNumber(s.P99Length)},
		)
	}

	if err := f.writeTable(w, []string{"Metric", "Value"}, rows); err != nil {
		return err
	}
	if len(s.Columns) == 0 {
		return nil
	}

	if err := writeHeader(w, "Columns", f.config.Compact); err != nil {
		return err
	}

	columns := make([][]string, len(s.Columns))
	for i, c := range s.Columns {
		columns[i] = []string{
			fmt.Sprintf("%d", c.Index+1),
			f.config.cell(c.Name),
			formatNumber(c.NonEmpty),
			formatNumber(c.Numeric),
			formatNumber(c.MaxWidth),
		}
	}

	return f.writeTable(w, []string{"#", "Name", "Non-empty", "Numeric", "Max Width"}, columns)
}

// FormatFiles implements Formatter.FormatFiles.
func (f *tableFormatter) FormatFiles(w io.Writer, files []discovery.File) error {
	rows := make([][]string, len(files))
	for i, file := range files {
		rows[i] = []string{
			f.config.cell(file.Path),
			formatNumber(file.Size),
			time.Unix(file.ModTime, 0).Format("2006-01-02 15:04:05"),
		}
	}

	return f.writeTable(w, []string{"Path", "Bytes", "Modified"}, rows)
}

// writeTable writes a formatted table.
func (f *tableFormatter) writeTable(w io.Writer, header []string, rows [][]string) error {
	if len(rows) == 0 {
		_, err := fmt.Fprintln(w, "No data")
		return err
	}

	// Calculate column widths.
	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = utf8.RuneCountInString(h)
	}

	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) {
				widths[i] = max(widths[i], utf8.RuneCountInString(cell))
			}
		}
	}

	// Write header.
	if err := f.writeRow(w, header, widths, f.headerColor()); err != nil {
		return err
	}

	// Write separator.
	if !f.config.Compact {
		separator := make([]string, len(header))
		for i, width := range widths {
			separator[i] = strings.Repeat("-", width)
		}
		if err := f.writeRow(w, separator, widths, nil); err != nil {
			return err
		}
	}

	// Write rows.
	for _, row := range rows {
		if err := f.writeRow(w, row, widths, nil); err != nil {
			return err
		}
	}

	// Add spacing.
	if !f.config.Compact {
		_, err := fmt.Fprintln(w)
		return err
	}

	return nil
}

// writeRow writes a single table row. Cells past the last column are
// dropped and the last cell is not padded.
func (f *tableFormatter) writeRow(w io.Writer, cells []string, widths []int, c *color.Color) error {
	gap := "  "
	if f.config.Compact {
		gap = " "
	}

	var b strings.Builder
	for i, cell := range cells {
		if i >= len(widths) {
			break
		}
		if i > 0 {
			b.WriteString(gap)
		}
		if i < len(cells)-1 && i < len(widths)-1 {
			cell = fmt.Sprintf("%-*s", widths[i], cell)
		}
		if c != nil {
			cell = c.Sprint(cell)
		}
		b.WriteString(cell)
	}
	b.WriteByte('\n')

	_, err := io.WriteString(w, b.String())
	return err
}

// headerColor returns the header colour, forced on or off so output does
// not depend on whether stdout is a terminal.
func (f *tableFormatter) headerColor() *color.Color {
	c := color.New(color.Bold, color.FgCyan)
	if f.config.Color {
		c.EnableColor()
	} else {
		c.DisableColor()
	}
	return c
}
