// Package export writes tokenized records to Excel workbooks.
//
// Rows are streamed through an excelize StreamWriter, so memory use does
// not grow with the number of rows. A sheet holds at most
// excelize.TotalRows rows; writing past that returns ErrSheetFull.
//
// Example usage:
//
//	w, err := export.New(export.Config{Header: []string{"id", "name"}}, logger.Default())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer w.Close()
//
//	if _, err := export.Copy(w, r); err != nil {
//	    log.Fatal(err)
//	}
//	if err := w.SaveAs("out.xlsx"); err != nil {
//	    log.Fatal(err)
//	}
package export

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/0xmhha/wincsv/pkg/logger"
	"github.com/0xmhha/wincsv/pkg/reader"
)

// DefaultSheet is the sheet name used when Config.Sheet is empty.
const DefaultSheet = "Sheet1"

var (
	// ErrSheetFull is returned when a row would exceed the sheet row limit.
	ErrSheetFull = errors.New("sheet row limit reached")

	// ErrWriterClosed is returned when writing to a closed or saved writer.
	ErrWriterClosed = errors.New("export writer closed")
)

// Config contains export configuration.
type Config struct {
	// Sheet names the worksheet. Default: DefaultSheet.
	Sheet string

	// Header is written as a bold first row when set.
	Header []string

	// DetectNumbers stores fields that parse as numbers as numeric cells.
	DetectNumbers bool
}

// Writer streams rows into a single-sheet workbook.
type Writer struct {
	config Config
	logger logger.Logger

	file   *excelize.File
	stream *excelize.StreamWriter
	row    int // next row, 1-based
	closed bool
	values []any
}

// New creates a workbook and writes the header row, if any.
//
// Parameters:
//   - cfg: Export configuration
//   - log: Logger instance
//
// Returns:
//   - Writer ready for WriteRow
//   - Error if the workbook cannot be prepared
func New(cfg Config, log logger.Logger) (*Writer, error) {
	if cfg.Sheet == "" {
		cfg.Sheet = DefaultSheet
	}

	f := excelize.NewFile()
	if cfg.Sheet != DefaultSheet {
		if err := f.SetSheetName(DefaultSheet, cfg.Sheet); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("invalid sheet name %q: %w", cfg.Sheet, err)
		}
	}

	sw, err := f.NewStreamWriter(cfg.Sheet)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("failed to create stream writer: %w", err)
	}

	w := &Writer{
		config: cfg,
		logger: log.With("component", "export"),
		file:   f,
		stream: sw,
		row:    1,
	}

	if len(cfg.Header) > 0 {
		style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
		if err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("failed to create header style: %w", err)
		}

		values := make([]any, len(cfg.Header))
		for i, h := range cfg.Header {
			values[i] = excelize.Cell{StyleID: style, Value: h}
		}
		if err := w.setRow(values); err != nil {
			_ = f.Close()
			return nil, err
		}
	}

	return w, nil
}

// WriteRow appends one row.
func (w *Writer) WriteRow(fields []string) error {
	if w.closed {
		return ErrWriterClosed
	}

	w.values = w.values[:0]
	for _, field := range fields {
		w.values = append(w.values, w.cellValue(field))
	}
	return w.setRow(w.values)
}

func (w *Writer) cellValue(field string) any {
	if !w.config.DetectNumbers || field == "" {
		return field
	}
	// Leading zeros are identifiers, not numbers.
	if len(field) > 1 && field[0] == '0' && field[1] != '.' {
		return field
	}
	// ParseFloat also accepts "NaN" and "Inf".
	if c := field[len(field)-1]; c < '0' || c > '9' {
		if c != '.' {
			return field
		}
	}
	if n, err := strconv.ParseInt(field, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(field, 64); err == nil {
		return f
	}
	return field
}

func (w *Writer) setRow(values []any) error {
	if w.row > excelize.TotalRows {
		return fmt.Errorf("%w: %d rows", ErrSheetFull, excelize.TotalRows)
	}

	cell, err := excelize.CoordinatesToCellName(1, w.row)
	if err != nil {
		return err
	}
	if err := w.stream.SetRow(cell, values); err != nil {
		return fmt.Errorf("failed to write row %d: %w", w.row, err)
	}

	w.row++
	return nil
}

// Rows returns the number of rows written, header included.
func (w *Writer) Rows() int {
	return w.row - 1
}

// SaveAs flushes the sheet and writes the workbook to path. The writer
// cannot be used afterwards.
func (w *Writer) SaveAs(path string) error {
	if w.closed {
		return ErrWriterClosed
	}
	w.closed = true

	if err := w.stream.Flush(); err != nil {
		return fmt.Errorf("failed to flush sheet: %w", err)
	}
	if err := w.file.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook %s: %w", path, err)
	}

	w.logger.Info("workbook saved", "path", path, "rows", w.Rows())
	return nil
}

// Close releases the workbook. It is safe to call after SaveAs.
func (w *Writer) Close() error {
	w.closed = true
	return w.file.Close()
}

// Copy reads every record from r, tokenizes it and writes it as a row.
// It returns the number of records copied.
func Copy(w *Writer, r *reader.Reader) (int64, error) {
	tok := r.Tokenizer()

	var n int64
	var fields []string
	for {
		rec, ok := r.Next()
		if !ok {
			break
		}

		fields = fields[:0]
		for field := range tok.Fields(rec.Bytes) {
			fields = append(fields, string(field))
		}
		if err := w.WriteRow(fields); err != nil {
			return n, fmt.Errorf("record %d at offset %d: %w", rec.Index, rec.Offset, err)
		}
		n++
	}

	if err := r.Err(); err != nil {
		return n, err
	}
	return n, nil
}
