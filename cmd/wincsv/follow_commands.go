package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/0xmhha/wincsv/pkg/config"
	"github.com/0xmhha/wincsv/pkg/discovery"
	"github.com/0xmhha/wincsv/pkg/follow"
	"github.com/0xmhha/wincsv/pkg/logger"
	"github.com/0xmhha/wincsv/pkg/reader"
	"github.com/0xmhha/wincsv/pkg/watcher"
)

// followCommand prints records appended to growing files.
type followCommand struct {
	configPath string
	out        io.Writer

	reader       readerFlags
	skipExisting bool
	poll         time.Duration
	debounce     time.Duration
	offsets      bool
	paths        []string

	// store overrides the checkpoint database.
	store reader.PositionStore
}

// parseFollowCommand parses the follow command flags.
func parseFollowCommand(configPath string, out io.Writer, args []string) (*followCommand, error) {
	cmd := &followCommand{configPath: configPath, out: out}

	fs := flag.NewFlagSet("follow", flag.ContinueOnError)
	cmd.reader.register(fs)
	fs.BoolVar(&cmd.skipExisting, "skip-existing", false, "start files without a saved position at their end")
	fs.DurationVar(&cmd.poll, "poll", -1, "polling interval in addition to file events (0 = off, default: configured)")
	fs.DurationVar(&cmd.debounce, "debounce", 0, "quiet period after a write (default: configured)")
	fs.BoolVar(&cmd.offsets, "offsets", false, "prefix each record with its byte offset")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() == 0 {
		return nil, fmt.Errorf("%w: usage: wincsv follow [flags] <paths...>", errNoInput)
	}
	cmd.paths = fs.Args()

	return cmd, nil
}

// Execute runs the follow command until interrupted.
func (c *followCommand) Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return c.follow(ctx)
}

// follow prints batches until ctx is done.
func (c *followCommand) follow(ctx context.Context) error {
	cfg, log, err := setup(c.configPath)
	if err != nil {
		return err
	}

	opts, err := c.reader.options(cfg.Reader)
	if err != nil {
		return err
	}

	paths, err := c.resolvePaths(log)
	if err != nil {
		return err
	}

	store := c.store
	if store == nil {
		var closeStore func()
		store, closeStore, err = openPositionStore(cfg, log)
		if err != nil {
			return err
		}
		defer closeStore()
	}

	w, err := watcher.New(watcher.Config{
		DebounceInterval: c.debounceInterval(cfg),
	}, log)
	if err != nil {
		return fmt.Errorf("failed to initialize watcher: %w", err)
	}
	defer func() {
		if err := w.Close(); err != nil {
			log.Error("failed to close watcher", "error", err)
		}
	}()

	f, err := follow.New(follow.Config{
		Paths:        paths,
		Reader:       opts,
		PollInterval: c.pollInterval(cfg),
		SkipExisting: c.skipExisting,
	}, w, store, log)
	if err != nil {
		return fmt.Errorf("failed to create follower: %w", err)
	}
	defer func() {
		if err := f.Close(); err != nil {
			log.Error("failed to close follower", "error", err)
		}
	}()

	if err := f.Start(ctx); err != nil {
		return err
	}

	out := bufio.NewWriter(c.out)
	for {
		select {
		case <-ctx.Done():
			log.Info("follow stopped", "records", f.Records())
			return out.Flush()

		case batch, ok := <-f.Batches():
			if !ok {
				return out.Flush()
			}
			if err := c.writeBatch(out, batch); err != nil {
				return err
			}
		}
	}
}

// resolvePaths expands directories into the data files they contain.
func (c *followCommand) resolvePaths(log logger.Logger) ([]string, error) {
	var paths []string
	var roots []string
	for _, p := range c.paths {
		info, err := os.Stat(p)
		if err == nil && info.IsDir() {
			roots = append(roots, p)
			continue
		}
		// Missing files are followed too; they may be created later.
		paths = append(paths, p)
	}

	if len(roots) > 0 {
		files, err := discovery.New(discovery.Config{Roots: roots}, log).Discover()
		if err != nil {
			return nil, fmt.Errorf("failed to discover files: %w", err)
		}
		for _, f := range files {
			paths = append(paths, f.Path)
		}
	}

	if len(paths) == 0 {
		return nil, discovery.ErrNoFilesFound
	}
	return absPaths(paths)
}

func (c *followCommand) writeBatch(w *bufio.Writer, batch follow.Batch) error {
	for _, rec := range batch.Records {
		if c.offsets {
			fmt.Fprintf(w, "%d\t", rec.Offset)
		}
		w.Write(rec.Bytes)
		if err := w.WriteByte('\n'); err != nil {
			return err
		}
	}
	return w.Flush()
}

func (c *followCommand) pollInterval(cfg *config.Config) time.Duration {
	if c.poll >= 0 {
		return c.poll
	}
	return cfg.Follow.PollInterval
}

func (c *followCommand) debounceInterval(cfg *config.Config) time.Duration {
	if c.debounce > 0 {
		return c.debounce
	}
	return cfg.Follow.DebounceInterval
}
