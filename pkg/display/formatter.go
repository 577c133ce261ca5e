package display

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"
)

// ellipsis marks a truncated cell.
const ellipsis = "..."

// New creates a new formatter based on configuration.
//
// Parameters:
//   - cfg: Formatter configuration
//
// Returns a configured Formatter.
func New(cfg Config) Formatter {
	// Set defaults.
	if cfg.Format == "" {
		cfg.Format = FormatTable
	}
	if cfg.MaxColumnWidth < 0 {
		cfg.MaxColumnWidth = 0
	}

	switch cfg.Format {
	case FormatJSON:
		return &jsonFormatter{config: cfg}
	case FormatSimple:
		return &simpleFormatter{config: cfg}
	case FormatTable:
		fallthrough
	default:
		return &tableFormatter{config: cfg}
	}
}

// ParseFormat converts a format name to a Format.
func ParseFormat(name string) (Format, error) {
	switch f := Format(strings.ToLower(name)); f {
	case FormatTable, FormatJSON, FormatSimple:
		return f, nil
	case "":
		return FormatTable, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want table, json or simple)", name)
	}
}

// formatNumber formats a number with thousand separators.
func formatNumber[T ~int | ~int64](n T) string {
	s := strconv.FormatInt(int64(n), 10)

	sign := ""
	if n < 0 {
		sign, s = "-", s[1:]
	}
	if len(s) <= 3 {
		return sign + s
	}

	var b strings.Builder
	b.WriteString(sign)
	for i, c := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(c)
	}
	return b.String()
}

// formatFloat formats a float with specified precision.
func formatFloat(f float64, precision int) string {
	return strconv.FormatFloat(f, 'f', precision, 64)
}

// escapeCell makes control characters visible so a field with embedded
// line breaks stays on one output line.
func escapeCell(s string) string {
	if !strings.ContainsAny(s, "\r\n\t") {
		return s
	}
	return strings.NewReplacer("\r", `\r`, "\n", `\n`, "\t", `\t`).Replace(s)
}

// truncate cuts s to at most width characters.
func truncate(s string, width int) string {
	if width <= 0 || utf8.RuneCountInString(s) <= width {
		return s
	}
	if width <= len(ellipsis) {
		return string([]rune(s)[:width])
	}
	return string([]rune(s)[:width-len(ellipsis)]) + ellipsis
}

// cell prepares a field value for table or simple output.
func (c Config) cell(s string) string {
	return truncate(escapeCell(s), c.MaxColumnWidth)
}

// writeHeader writes a section header.
func writeHeader(w io.Writer, title string, compact bool) error {
	if compact {
		_, err := fmt.Fprintf(w, "%s\n", title)
		return err
	}

	_, err := fmt.Fprintf(w, "\n%s\n%s\n\n", title, strings.Repeat("=", len(title)))
	return err
}

// columnNames returns header, or positional names when header is empty,
// padded to n columns.
func columnNames(header []string, n int) []string {
	names := make([]string, max(n, len(header)))
	copy(names, header)
	for i := len(header); i < len(names); i++ {
		names[i] = "#" + strconv.Itoa(i+1)
	}
	return names
}

// widest returns the largest row length.
func widest(rows [][]string) int {
	n := 0
	for _, row := range rows {
		n = max(n, len(row))
	}
	return n
}
