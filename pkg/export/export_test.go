package export

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/0xmhha/wincsv/pkg/logger"
	"github.com/0xmhha/wincsv/pkg/reader"
)

func readSheet(t *testing.T, path, sheet string) [][]string {
	t.Helper()

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	rows, err := f.GetRows(sheet)
	require.NoError(t, err)
	return rows
}

func TestWriteRows(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out.xlsx")

	w, err := New(Config{Header: []string{"id", "name"}}, logger.Noop())
	require.NoError(t, err)
	defer func() { _ = w.Close() }()

	require.NoError(t, w.WriteRow([]string{"1", "alice"}))
	require.NoError(t, w.WriteRow([]string{"2", "bob", "extra"}))
	assert.Equal(t, 3, w.Rows())

	require.NoError(t, w.SaveAs(out))
	assert.ErrorIs(t, w.WriteRow([]string{"late"}), ErrWriterClosed)
	assert.ErrorIs(t, w.SaveAs(out), ErrWriterClosed)

	assert.Equal(t, [][]string{
		{"id", "name"},
		{"1", "alice"},
		{"2", "bob", "extra"},
	}, readSheet(t, out, DefaultSheet))

	f, err := excelize.OpenFile(out)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()
	style, err := f.GetCellStyle(DefaultSheet, "A1")
	require.NoError(t, err)
	assert.NotZero(t, style, "header row should be styled")
}

func TestCustomSheet(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out.xlsx")

	w, err := New(Config{Sheet: "records"}, logger.Noop())
	require.NoError(t, err)
	defer func() { _ = w.Close() }()

	require.NoError(t, w.WriteRow([]string{"a"}))
	require.NoError(t, w.SaveAs(out))

	assert.Equal(t, [][]string{{"a"}}, readSheet(t, out, "records"))
}

func TestInvalidSheetName(t *testing.T) {
	_, err := New(Config{Sheet: "bad[name]"}, logger.Noop())
	assert.Error(t, err)
}

func TestCellValue(t *testing.T) {
	w := &Writer{config: Config{DetectNumbers: true}}

	tests := []struct {
		input string
		want  any
	}{
		{"42", int64(42)},
		{"-7", int64(-7)},
		{"3.5", 3.5},
		{"0", int64(0)},
		{"0.25", 0.25},
		{"1e3", 1000.0},
		{"5.", 5.0},
		{"007", "007"},
		{"NaN", "NaN"},
		{"Inf", "Inf"},
		{"12a", "12a"},
		{"", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, w.cellValue(tt.input), "cellValue(%q)", tt.input)
	}

	plain := &Writer{}
	assert.Equal(t, "42", plain.cellValue("42"))
}

func TestCopy(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "in.csv")
	out := filepath.Join(dir, "out.xlsx")
	require.NoError(t, os.WriteFile(src, []byte("1,\"two\nlines\"\n2,\"say \"\"hi\"\"\"\n3,plain"), 0600))

	r, err := reader.Open(src, reader.Config{WindowSize: 8}, logger.Noop())
	require.NoError(t, err)
	defer func() { _ = r.Close() }()

	w, err := New(Config{}, logger.Noop())
	require.NoError(t, err)
	defer func() { _ = w.Close() }()

	n, err := Copy(w, r)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	require.NoError(t, w.SaveAs(out))

	assert.Equal(t, [][]string{
		{"1", "two\nlines"},
		{"2", `say "hi"`},
		{"3", "plain"},
	}, readSheet(t, out, DefaultSheet))
}
