package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"golang.org/x/term"

	"github.com/0xmhha/wincsv/pkg/config"
	"github.com/0xmhha/wincsv/pkg/display"
	"github.com/0xmhha/wincsv/pkg/logger"
	"github.com/0xmhha/wincsv/pkg/reader"
)

// readerFlags are the reader overrides shared by the reading commands.
type readerFlags struct {
	delimiter string
	quote     string
	escape    string
	window    int64
	maxRecord int64
}

func (f *readerFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&f.delimiter, "delimiter", "", "field delimiter (single byte, tab, space, pipe, semicolon)")
	fs.StringVar(&f.quote, "quote", "", "quote character")
	fs.StringVar(&f.escape, "escape", "", "escape character")
	fs.Int64Var(&f.window, "window", 0, "bytes mapped per window (0 = configured)")
	fs.Int64Var(&f.maxRecord, "max-record", 0, "largest record that may straddle windows (0 = configured)")
}

// options applies the flags over the configured reader section.
func (f *readerFlags) options(rc config.ReaderConfig) (reader.Config, error) {
	if f.delimiter != "" {
		rc.Delimiter = f.delimiter
	}
	if f.quote != "" {
		rc.Quote = f.quote
	}
	if f.escape != "" {
		rc.Escape = f.escape
	}
	if f.window != 0 {
		rc.WindowSize = f.window
	}
	if f.maxRecord != 0 {
		rc.MaxRecordSize = f.maxRecord
	}
	return rc.Options()
}

// setup loads configuration and creates the logger.
func setup(configPath string) (*config.Config, logger.Logger, error) {
	cfg, err := config.NewLoader(configPath).Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	return cfg, logger.New(cfg.Logging), nil
}

// openPositionStore opens the checkpoint database. The returned function
// closes it.
func openPositionStore(cfg *config.Config, log logger.Logger) (reader.PositionStore, func(), error) {
	db, err := reader.OpenPositionDB(cfg.Storage.DBPath, 0)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open position database: %w", err)
	}
	closeDB := func() {
		if err := db.Close(); err != nil {
			log.Error("failed to close position database", "error", err)
		}
	}

	store, err := reader.NewBoltPositionStore(db)
	if err != nil {
		closeDB()
		return nil, nil, fmt.Errorf("failed to initialize position store: %w", err)
	}

	return store, closeDB, nil
}

// displayConfig builds the formatter configuration for out.
//
// width < 0 selects the configured maximum. When that is 0 and out is a
// terminal, cells are capped at half the terminal width.
func displayConfig(cfg *config.Config, out io.Writer, format string, compact bool, width int) (display.Config, error) {
	if format == "" {
		format = cfg.Display.DefaultFormat
	}
	f, err := display.ParseFormat(format)
	if err != nil {
		return display.Config{}, err
	}

	if width < 0 {
		width = cfg.Display.MaxColumnWidth
		if width == 0 {
			width = terminalWidth(out) / 2
		}
	}

	return display.Config{
		Format:         f,
		Compact:        compact,
		Color:          !cfg.Display.NoColor && isTerminal(out),
		MaxColumnWidth: width,
	}, nil
}

// isTerminal reports whether w is a terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// terminalWidth returns the width of the terminal behind w, or 0.
func terminalWidth(w io.Writer) int {
	f, ok := w.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return 0
	}
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil {
		return 0
	}
	return width
}

// absPaths makes every path absolute so checkpoints use stable keys.
func absPaths(paths []string) ([]string, error) {
	out := make([]string, len(paths))
	for i, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, fmt.Errorf("invalid path %s: %w", p, err)
		}
		out[i] = abs
	}
	return out, nil
}

// closeReader closes r, logging any error.
func closeReader(r *reader.Reader, log logger.Logger) {
	if err := r.Close(); err != nil {
		log.Error("failed to close reader", "path", r.Path(), "error", err)
	}
}
