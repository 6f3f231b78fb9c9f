package internal

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/starford/granola-sync/internal/mcpserver"
	"github.com/starford/granola-sync/internal/settings"
	"github.com/starford/granola-sync/internal/syncer"
)

// SyncOnce runs a single pass and writes a summary to out.
func SyncOnce(ctx context.Context, out io.Writer, opts ...Option) (syncer.Result, error) {
	app := newApplication(opts)
	if app.config == nil {
		return syncer.Result{}, fmt.Errorf("config is required")
	}
	logger := newLogger(app.config, os.Stderr)

	c, err := newCore(app, logger, nil)
	if err != nil {
		return syncer.Result{}, err
	}
	defer c.Close()

	res, err := c.syncer.SyncAll(ctx)
	if err != nil {
		return res, err
	}
	fmt.Fprintf(out, "Synced %d note(s)", res.SyncedCount)
	if res.Skipped > 0 || res.Failed > 0 {
		fmt.Fprintf(out, " (%d skipped, %d failed)", res.Skipped, res.Failed)
	}
	fmt.Fprintln(out)
	for _, title := range res.SyncedTitles {
		fmt.Fprintf(out, "  %s\n", title)
	}
	return res, nil
}

// MoveDirectory moves synced notes from one vault directory to another and,
// when that succeeds, makes the new directory the configured one.
func MoveDirectory(ctx context.Context, from, to string, opts ...Option) error {
	app := newApplication(opts)
	if app.config == nil {
		return fmt.Errorf("config is required")
	}
	logger := newLogger(app.config, os.Stderr)

	c, err := newCore(app, logger, nil)
	if err != nil {
		return err
	}
	defer c.Close()

	if err := c.syncer.MoveDirectory(ctx, from, to); err != nil {
		return err
	}
	if strings.Trim(c.settings.Get().SyncDirectory, "/") != strings.Trim(from, "/") {
		return nil
	}
	// The change listener finds the old directory gone and does nothing.
	_, err = c.settings.Update(func(s *settings.Settings) error {
		s.SyncDirectory = to
		return nil
	})
	return err
}

// Preview renders a document file with the configured settings and writes
// the note that a pass would produce to out.
func Preview(path string, out io.Writer, opts ...Option) error {
	app := newApplication(opts)
	if app.config == nil {
		return fmt.Errorf("config is required")
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read document: %w", err)
	}
	logger := newLogger(app.config, os.Stderr)

	c, err := newCore(app, logger, nil)
	if err != nil {
		return err
	}
	defer c.Close()

	p, err := c.service.Preview(raw)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%s\n\n%s", p.Path, p.Content)
	return nil
}

// ServeMCP exposes the sync tools over stdio. Logs go to stderr so stdout
// stays reserved for the protocol.
func ServeMCP(_ context.Context, opts ...Option) error {
	app := newApplication(opts)
	if app.config == nil {
		return fmt.Errorf("config is required")
	}
	logger := newLogger(app.config, os.Stderr)
	slog.SetDefault(logger)

	c, err := newCore(app, logger, nil)
	if err != nil {
		return err
	}
	defer c.Close()

	logger.Info("MCP server starting", slog.String("version", app.version))
	return mcpserver.New(c.service, app.version).ServeStdio()
}
