package display

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/0xmhha/wincsv/pkg/discovery"
	"github.com/0xmhha/wincsv/pkg/stats"
)

func TestNew(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		config Config
		want   string // Type name
	}{
		{
			name:   "default format (table)",
			config: Config{},
			want:   "*display.tableFormatter",
		},
		{
			name:   "table format",
			config: Config{Format: FormatTable},
			want:   "*display.tableFormatter",
		},
		{
			name:   "json format",
			config: Config{Format: FormatJSON},
			want:   "*display.jsonFormatter",
		},
		{
			name:   "simple format",
			config: Config{Format: FormatSimple},
			want:   "*display.simpleFormatter",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			formatter := New(tt.config)
			if formatter == nil {
				t.Fatal("New() returned nil")
			}

			got := fmt.Sprintf("%T", formatter)
			if got != tt.want {
				t.Errorf("New() type = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseFormat(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input   string
		want    Format
		wantErr bool
	}{
		{"table", FormatTable, false},
		{"JSON", FormatJSON, false},
		{"simple", FormatSimple, false},
		{"", FormatTable, false},
		{"xml", "", true},
	}

	for _, tt := range tests {
		got, err := ParseFormat(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseFormat(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestTableFormatter_FormatRecords(t *testing.T) {
	t.Parallel()

	formatter := New(Config{Format: FormatTable})

	var buf bytes.Buffer
	err := formatter.FormatRecords(&buf, []string{"id", "name"}, [][]string{
		{"1", "alice"},
		{"22", "bob"},
	})
	if err != nil {
		t.Fatalf("FormatRecords() error = %v", err)
	}

	want := "id  name\n" +
		"--  -----\n" +
		"1   alice\n" +
		"22  bob\n" +
		"\n"
	if got := buf.String(); got != want {
		t.Errorf("FormatRecords() =\n%q\nwant\n%q", got, want)
	}
}

func TestTableFormatter_RaggedRows(t *testing.T) {
	t.Parallel()

	formatter := New(Config{Format: FormatTable, Compact: true})

	var buf bytes.Buffer
	err := formatter.FormatRecords(&buf, nil, [][]string{
		{"a"},
		{"b", "c", "d"},
	})
	if err != nil {
		t.Fatalf("FormatRecords() error = %v", err)
	}

	want := "#1 #2 #3\n" +
		"a\n" +
		"b  c  d\n"
	if got := buf.String(); got != want {
		t.Errorf("FormatRecords() =\n%q\nwant\n%q", got, want)
	}
}

func TestTableFormatter_CellHandling(t *testing.T) {
	t.Parallel()

	formatter := New(Config{Format: FormatTable, Compact: true, MaxColumnWidth: 8})

	var buf bytes.Buffer
	err := formatter.FormatRecords(&buf, []string{"text"}, [][]string{
		{"two\nlines"},
		{"a rather long value"},
		{"héllo"},
	})
	if err != nil {
		t.Fatalf("FormatRecords() error = %v", err)
	}

	want := "text\n" +
		`two\n...` + "\n" +
		"a rat...\n" +
		"héllo\n"
	if got := buf.String(); got != want {
		t.Errorf("FormatRecords() =\n%q\nwant\n%q", got, want)
	}
}

func TestTableFormatter_Color(t *testing.T) {
	t.Parallel()

	rows := [][]string{{"1"}}

	var plain, colored bytes.Buffer
	if err := New(Config{Compact: true}).FormatRecords(&plain, []string{"id"}, rows); err != nil {
		t.Fatal(err)
	}
	if err := New(Config{Compact: true, Color: true}).FormatRecords(&colored, []string{"id"}, rows); err != nil {
		t.Fatal(err)
	}

	if strings.Contains(plain.String(), "\x1b[") {
		t.Error("plain output contains escape codes")
	}
	if !strings.Contains(colored.String(), "\x1b[") {
		t.Error("colored output missing escape codes")
	}
	if !strings.HasSuffix(colored.String(), "\n1\n") {
		t.Errorf("data rows should not be colored: %q", colored.String())
	}
}

func TestTableFormatter_Empty(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if err := New(Config{}).FormatRecords(&buf, []string{"a"}, nil); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "No data\n" {
		t.Errorf("got %q, want %q", buf.String(), "No data\n")
	}
}

func sampleStats() stats.Statistics {
	return stats.Statistics{
		Files:          2,
		Records:        15000,
		Bytes:          1234567,
		ExpectedFields: 3,
		MinFields:      2,
		MaxFields:      3,
		Inconsistent:   4,
		MinLength:      10,
		MaxLength:      500,
		AvgLength:      82.304,
		P50Length:      80,
		P95Length:      300,
		P99Length:      450,
		Columns: []stats.ColumnStats{
			{Index: 0, Name: "id", NonEmpty: 15000, Numeric: 15000, MaxWidth: 5},
			{Index: 1, Name: "name", NonEmpty: 14990, MaxWidth: 40},
		},
	}
}

func TestTableFormatter_FormatStats(t *testing.T) {
	t.Parallel()

	formatter := New(Config{Format: FormatTable, ShowPercentiles: true})

	var buf bytes.Buffer
	if err := formatter.FormatStats(&buf, sampleStats()); err != nil {
		t.Fatalf("FormatStats() error = %v", err)
	}

	output := buf.String()

	for _, want := range []string{
		"Record Statistics",
		"15,000",
		"1,234,567",
		"2/3",
		"82.30",
		"P95 Length",
		"Columns",
		"14,990",
		"name",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("output missing %q", want)
		}
	}
}

func TestTableFormatter_FormatStatsWithoutPercentiles(t *testing.T) {
	t.Parallel()

	s := sampleStats()
	s.Columns = nil

	var buf bytes.Buffer
	if err := New(Config{}).FormatStats(&buf, s); err != nil {
		t.Fatalf("FormatStats() error = %v", err)
	}

	output := buf.String()
	if strings.Contains(output, "P50") {
		t.Error("output should not contain percentiles")
	}
	if strings.Contains(output, "Columns") {
		t.Error("output should not contain a column section")
	}
}

func TestTableFormatter_FormatFiles(t *testing.T) {
	t.Parallel()

	files := []discovery.File{
		{Path: "/data/a.csv", Size: 2048, ModTime: time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC).Unix()},
	}

	var buf bytes.Buffer
	if err := New(Config{}).FormatFiles(&buf, files); err != nil {
		t.Fatalf("FormatFiles() error = %v", err)
	}

	output := buf.String()
	if !strings.Contains(output, "/data/a.csv") || !strings.Contains(output, "2,048") {
		t.Errorf("unexpected output: %q", output)
	}
}

func TestJSONFormatter_FormatRecords(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	err := New(Config{Format: FormatJSON, Compact: true}).FormatRecords(&buf,
		[]string{"id"}, [][]string{{"1", "two\nlines"}})
	if err != nil {
		t.Fatalf("FormatRecords() error = %v", err)
	}

	want := `{"header":["id"],"rows":[["1","two\nlines"]]}` + "\n"
	if buf.String() != want {
		t.Errorf("got %q, want %q", buf.String(), want)
	}

	buf.Reset()
	if err := New(Config{Format: FormatJSON, Compact: true}).FormatRecords(&buf, nil, nil); err != nil {
		t.Fatal(err)
	}
	if buf.String() != `{"rows":[]}`+"\n" {
		t.Errorf("got %q", buf.String())
	}
}

func TestJSONFormatter_FormatStats(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if err := New(Config{Format: FormatJSON}).FormatStats(&buf, sampleStats()); err != nil {
		t.Fatalf("FormatStats() error = %v", err)
	}

	var decoded stats.Statistics
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if decoded.Records != 15000 || len(decoded.Columns) != 2 {
		t.Errorf("decoded = %+v", decoded)
	}
	if !strings.Contains(buf.String(), "\n  ") {
		t.Error("expected indented output")
	}
}

func TestJSONFormatter_FormatFiles(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if err := New(Config{Format: FormatJSON, Compact: true}).FormatFiles(&buf, nil); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "[]\n" {
		t.Errorf("got %q, want %q", buf.String(), "[]\n")
	}
}

func TestSimpleFormatter(t *testing.T) {
	t.Parallel()

	formatter := New(Config{Format: FormatSimple, MaxColumnWidth: 6})

	var buf bytes.Buffer
	if err := formatter.FormatRecords(&buf, []string{"id", "note"}, [][]string{{"1", "a\tb"}, {"2", "truncated"}}); err != nil {
		t.Fatal(err)
	}
	want := "id | note\n" +
		`1 | a\tb` + "\n" +
		"2 | tru...\n"
	if buf.String() != want {
		t.Errorf("FormatRecords() = %q, want %q", buf.String(), want)
	}

	buf.Reset()
	if err := formatter.FormatStats(&buf, sampleStats()); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "Records: 15,000") || !strings.Contains(buf.String(), "4 inconsistent") {
		t.Errorf("FormatStats() = %q", buf.String())
	}

	buf.Reset()
	if err := formatter.FormatFiles(&buf, []discovery.File{{Path: "/a.csv", Size: 12}}); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "/a.csv (12 bytes)\n" {
		t.Errorf("FormatFiles() = %q", buf.String())
	}
}

func TestFormatNumber(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input int64
		want  string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1,000"},
		{123456, "123,456"},
		{1234567, "1,234,567"},
		{-1234, "-1,234"},
	}

	for _, tt := range tests {
		if got := formatNumber(tt.input); got != tt.want {
			t.Errorf("formatNumber(%d) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestTruncate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		width int
		want  string
	}{
		{"short", 10, "short"},
		{"exactly", 7, "exactly"},
		{"too long", 7, "too ..."},
		{"abcdef", 2, "ab"},
		{"日本語テキスト", 5, "日本..."},
		{"anything", 0, "anything"},
	}

	for _, tt := range tests {
		if got := truncate(tt.input, tt.width); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.input, tt.width, got, tt.want)
		}
	}
}
