package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/0xmhha/wincsv/pkg/discovery"
	"github.com/0xmhha/wincsv/pkg/display"
	"github.com/0xmhha/wincsv/pkg/export"
	"github.com/0xmhha/wincsv/pkg/logger"
	"github.com/0xmhha/wincsv/pkg/reader"
	"github.com/0xmhha/wincsv/pkg/stats"
)

// errNoInput is returned when a command needs a path and none was given.
var errNoInput = errors.New("no input file given")

// recordsCommand prints raw records.
type recordsCommand struct {
	configPath string
	out        io.Writer

	reader     readerFlags
	start      int64
	limit      int
	offsets    bool
	resume     bool
	checkpoint bool
	path       string
}

// parseRecordsCommand parses the records command flags.
func parseRecordsCommand(configPath string, out io.Writer, args []string) (*recordsCommand, error) {
	cmd := &recordsCommand{configPath: configPath, out: out}

	fs := flag.NewFlagSet("records", flag.ContinueOnError)
	cmd.reader.register(fs)
	fs.Int64Var(&cmd.start, "start", 0, "byte offset to start at")
	fs.IntVar(&cmd.limit, "limit", 0, "stop after N records (0 = all)")
	fs.BoolVar(&cmd.offsets, "offsets", false, "prefix each record with its byte offset")
	fs.BoolVar(&cmd.resume, "resume", false, "start at the saved position")
	fs.BoolVar(&cmd.checkpoint, "checkpoint", false, "save the position when done")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() != 1 {
		return nil, fmt.Errorf("%w: usage: wincsv records [flags] <file>", errNoInput)
	}
	if cmd.resume && cmd.start != 0 {
		return nil, errors.New("-resume and -start are mutually exclusive")
	}
	cmd.path = fs.Arg(0)

	return cmd, nil
}

// Execute runs the records command.
func (c *recordsCommand) Execute() error {
	cfg, log, err := setup(c.configPath)
	if err != nil {
		return err
	}

	opts, err := c.reader.options(cfg.Reader)
	if err != nil {
		return err
	}
	opts.StartOffset = c.start

	paths, err := absPaths([]string{c.path})
	if err != nil {
		return err
	}
	path := paths[0]

	var store reader.PositionStore
	if c.resume || c.checkpoint {
		var closeStore func()
		store, closeStore, err = openPositionStore(cfg, log)
		if err != nil {
			return err
		}
		defer closeStore()
	}

	var r *reader.Reader
	if c.resume {
		r, err = reader.Resume(path, store, opts, log)
	} else {
		r, err = reader.Open(path, opts, log)
	}
	if err != nil {
		return err
	}
	defer closeReader(r, log)

	w := bufio.NewWriter(c.out)
	var last reader.Record
	var n int
	for c.limit == 0 || n < c.limit {
		rec, ok := r.Next()
		if !ok {
			break
		}
		last = rec
		n++

		if c.offsets {
			fmt.Fprintf(w, "%d\t", rec.Offset)
		}
		w.Write(rec.Bytes)
		if err := w.WriteByte('\n'); err != nil {
			return err
		}
	}
	if err := r.Err(); err != nil {
		return err
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if !c.checkpoint {
		return nil
	}
	// An unterminated record may still grow; the next run starts at it.
	if n > 0 && !last.Terminated {
		return store.SetPosition(r.Path(), reader.Position{
			Offset:  last.Offset,
			Size:    r.Size(),
			ModTime: r.ModTime(),
		})
	}
	return r.Checkpoint(store)
}

// fieldsCommand prints tokenized records.
type fieldsCommand struct {
	configPath string
	out        io.Writer

	reader  readerFlags
	header  bool
	limit   int
	format  string
	compact bool
	width   int
	path    string
}

// parseFieldsCommand parses the fields command flags.
func parseFieldsCommand(configPath string, out io.Writer, args []string) (*fieldsCommand, error) {
	cmd := &fieldsCommand{configPath: configPath, out: out}

	fs := flag.NewFlagSet("fields", flag.ContinueOnError)
	cmd.reader.register(fs)
	fs.BoolVar(&cmd.header, "header", false, "treat the first record as column names")
	fs.IntVar(&cmd.limit, "limit", 0, "stop after N records (0 = all)")
	fs.StringVar(&cmd.format, "format", "", "output format (table, json, simple)")
	fs.BoolVar(&cmd.compact, "compact", false, "compact output")
	fs.IntVar(&cmd.width, "width", -1, "maximum column width (0 = unlimited)")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() != 1 {
		return nil, fmt.Errorf("%w: usage: wincsv fields [flags] <file>", errNoInput)
	}
	cmd.path = fs.Arg(0)

	return cmd, nil
}

// Execute runs the fields command.
func (c *fieldsCommand) Execute() error {
	cfg, log, err := setup(c.configPath)
	if err != nil {
		return err
	}

	dcfg, err := displayConfig(cfg, c.out, c.format, c.compact, c.width)
	if err != nil {
		return err
	}

	opts, err := c.reader.options(cfg.Reader)
	if err != nil {
		return err
	}

	r, err := reader.Open(c.path, opts, log)
	if err != nil {
		return err
	}
	defer closeReader(r, log)

	tok := r.Tokenizer()
	var header []string
	var rows [][]string
	for c.limit == 0 || len(rows) < c.limit {
		rec, ok := r.Next()
		if !ok {
			break
		}
		fields := tok.Strings(rec.Bytes)
		if c.header && header == nil && rec.Index == 0 {
			header = fields
			if header == nil {
				header = []string{}
			}
			continue
		}
		rows = append(rows, fields)
	}
	if err := r.Err(); err != nil {
		return err
	}

	return display.New(dcfg).FormatRecords(c.out, header, rows)
}

// statsCommand summarises files.
type statsCommand struct {
	configPath string
	out        io.Writer

	reader      readerFlags
	recursive   bool
	header      bool
	percentiles bool
	format      string
	compact     bool
	paths       []string
}

// parseStatsCommand parses the stats command flags.
func parseStatsCommand(configPath string, out io.Writer, args []string) (*statsCommand, error) {
	cmd := &statsCommand{configPath: configPath, out: out}

	fs := flag.NewFlagSet("stats", flag.ContinueOnError)
	cmd.reader.register(fs)
	fs.BoolVar(&cmd.recursive, "recursive", false, "descend into subdirectories")
	fs.BoolVar(&cmd.header, "header", false, "treat the first record of each file as column names")
	fs.BoolVar(&cmd.percentiles, "percentiles", true, "show record length percentiles")
	fs.StringVar(&cmd.format, "format", "", "output format (table, json, simple)")
	fs.BoolVar(&cmd.compact, "compact", false, "compact output")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	cmd.paths = fs.Args()
	if len(cmd.paths) == 0 {
		cmd.paths = []string{"."}
	}

	return cmd, nil
}

// Execute runs the stats command.
func (c *statsCommand) Execute() error {
	cfg, log, err := setup(c.configPath)
	if err != nil {
		return err
	}

	dcfg, err := displayConfig(cfg, c.out, c.format, c.compact, -1)
	if err != nil {
		return err
	}
	dcfg.ShowPercentiles = c.percentiles

	opts, err := c.reader.options(cfg.Reader)
	if err != nil {
		return err
	}

	files, err := discovery.New(discovery.Config{
		Roots:     c.paths,
		Recursive: c.recursive,
	}, log).Discover()
	if err != nil {
		return fmt.Errorf("failed to discover files: %w", err)
	}
	if len(files) == 0 {
		_, err := fmt.Fprintln(c.out, "No data files found")
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	aggCfg := stats.Config{Header: c.header, TrackPercentiles: c.percentiles}
	total, err := collectStats(ctx, files, opts, aggCfg, cfg.Performance.WorkerPoolSize, log)
	if err != nil {
		return err
	}

	return display.New(dcfg).FormatStats(c.out, total.Stats())
}

// collectStats aggregates every file on a bounded pool of workers. Files
// that cannot be read are logged and skipped. Per-file results are merged
// in file order, so the expected field count comes from the first file.
func collectStats(ctx context.Context, files []discovery.File, opts reader.Config, aggCfg stats.Config, workers int, log logger.Logger) (stats.Aggregator, error) {
	parts := make([]stats.Aggregator, len(files))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(workers, 1))

	for i, file := range files {
		g.Go(func() error {
			part, err := fileStats(ctx, file.Path, opts, aggCfg, log)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				log.Warn("failed to read file", "path", file.Path, "error", err)
				return nil
			}
			parts[i] = part
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	total := stats.New(aggCfg)
	for _, part := range parts {
		if part != nil {
			total.Merge(part)
		}
	}
	return total, nil
}

// fileStats aggregates a single file.
func fileStats(ctx context.Context, path string, opts reader.Config, aggCfg stats.Config, log logger.Logger) (stats.Aggregator, error) {
	r, err := reader.Open(path, opts, log)
	if err != nil {
		return nil, err
	}
	defer closeReader(r, log)

	agg := stats.New(aggCfg)
	tok := r.Tokenizer()
	var fields [][]byte
	for {
		rec, ok := r.Next()
		if !ok {
			break
		}
		if rec.Index%4096 == 0 && ctx.Err() != nil {
			return nil, ctx.Err()
		}
		n := len(rec.Bytes)
		fields = tok.Split(rec.Bytes, fields)
		agg.Add(n, fields)
	}
	if err := r.Err(); err != nil {
		return nil, err
	}

	agg.CountFile()
	return agg, nil
}

// listCommand lists discovered data files.
type listCommand struct {
	configPath string
	out        io.Writer

	recursive  bool
	hidden     bool
	extensions string
	format     string
	compact    bool
	paths      []string
}

// parseListCommand parses the list command flags.
func parseListCommand(configPath string, out io.Writer, args []string) (*listCommand, error) {
	cmd := &listCommand{configPath: configPath, out: out}

	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	fs.BoolVar(&cmd.recursive, "recursive", false, "descend into subdirectories")
	fs.BoolVar(&cmd.hidden, "hidden", false, "include hidden files and directories")
	fs.StringVar(&cmd.extensions, "ext", "", "comma-separated extensions (default: .csv,.tsv,.psv,.txt)")
	fs.StringVar(&cmd.format, "format", "", "output format (table, json, simple)")
	fs.BoolVar(&cmd.compact, "compact", false, "compact output")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	cmd.paths = fs.Args()
	if len(cmd.paths) == 0 {
		cmd.paths = []string{"."}
	}

	return cmd, nil
}

// Execute runs the list command.
func (c *listCommand) Execute() error {
	cfg, log, err := setup(c.configPath)
	if err != nil {
		return err
	}

	dcfg, err := displayConfig(cfg, c.out, c.format, c.compact, -1)
	if err != nil {
		return err
	}

	var exts []string
	if c.extensions != "" {
		for _, ext := range strings.Split(c.extensions, ",") {
			if ext = strings.TrimSpace(ext); ext != "" {
				exts = append(exts, ext)
			}
		}
	}

	files, err := discovery.New(discovery.Config{
		Roots:         c.paths,
		Extensions:    exts,
		Recursive:     c.recursive,
		IncludeHidden: c.hidden,
	}, log).Discover()
	if err != nil {
		return fmt.Errorf("failed to discover files: %w", err)
	}

	return display.New(dcfg).FormatFiles(c.out, files)
}

// exportCommand writes records to an Excel workbook.
type exportCommand struct {
	configPath string
	out        io.Writer

	reader  readerFlags
	output  string
	sheet   string
	header  bool
	numbers bool
	path    string
}

// parseExportCommand parses the export command flags.
func parseExportCommand(configPath string, out io.Writer, args []string) (*exportCommand, error) {
	cmd := &exportCommand{configPath: configPath, out: out}

	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	cmd.reader.register(fs)
	fs.StringVar(&cmd.output, "o", "", "output workbook (default: input name with .xlsx)")
	fs.StringVar(&cmd.sheet, "sheet", "", "sheet name")
	fs.BoolVar(&cmd.header, "header", false, "write the first record as a header row")
	fs.BoolVar(&cmd.numbers, "numbers", false, "store numeric fields as numbers")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() != 1 {
		return nil, fmt.Errorf("%w: usage: wincsv export [flags] <file>", errNoInput)
	}
	cmd.path = fs.Arg(0)
	if cmd.output == "" {
		cmd.output = strings.TrimSuffix(cmd.path, filepath.Ext(cmd.path)) + ".xlsx"
	}

	return cmd, nil
}

// Execute runs the export command.
func (c *exportCommand) Execute() error {
	cfg, log, err := setup(c.configPath)
	if err != nil {
		return err
	}

	opts, err := c.reader.options(cfg.Reader)
	if err != nil {
		return err
	}

	r, err := reader.Open(c.path, opts, log)
	if err != nil {
		return err
	}
	defer closeReader(r, log)

	var header []string
	if c.header {
		rec, ok := r.Next()
		if !ok {
			if err := r.Err(); err != nil {
				return err
			}
		} else {
			header = r.Tokenizer().Strings(rec.Bytes)
		}
	}

	w, err := export.New(export.Config{
		Sheet:         c.sheet,
		Header:        header,
		DetectNumbers: c.numbers,
	}, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := w.Close(); err != nil {
			log.Error("failed to close workbook", "error", err)
		}
	}()

	n, err := export.Copy(w, r)
	if err != nil {
		return err
	}
	if err := w.SaveAs(c.output); err != nil {
		return err
	}

	_, err = fmt.Fprintf(c.out, "Exported %d records to %s\n", n, c.output)
	return err
}
