package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"taxreview/cmd/taxreview/review"
	"taxreview/internal/ingest"
	"taxreview/internal/logging"
	"taxreview/internal/state"
	"taxreview/internal/watch"
)

func (a *app) reviewCmd() *cobra.Command {
	var watchFile bool
	cmd := &cobra.Command{
		Use:   "review [file.json]",
		Short: "Open the interactive review screen",
		Long: `Opens the review screen. With --watch the file is re-read whenever it
changes on disk; an invalid save leaves the current record on screen.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runReview(cmd, args, watchFile)
		},
	}
	cmd.Flags().BoolVarP(&watchFile, "watch", "w", false, "Reload the file when it changes")
	return cmd
}

func (a *app) runReview(cmd *cobra.Command, args []string, watchFile bool) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	exp, err := a.newExporter()
	if err != nil {
		return err
	}
	opts := review.Options{
		Config:   a.cfg,
		Exporter: exp,
		Slot:     state.NewSlot(),
		Loader:   ingest.LoadFile,
	}

	var path string
	if len(args) == 1 {
		path = args[0]
		opts.StartDir = filepath.Dir(path)
	}
	if watchFile {
		if path == "" {
			return fmt.Errorf("--watch needs a file")
		}
		w, err := startWatcher(ctx, path, opts.Loader)
		if err != nil {
			return err
		}
		defer w.Stop()
		logging.UI("watching %s", w.Path())
		opts.Watcher = w
	}

	m := review.New(opts)
	if path != "" {
		m.LoadPath(path)
	}

	logging.UI("review session started (file=%q watch=%v exports=%s)", path, watchFile, exp.Dir())
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err = p.Run()
	if err != nil && ctx.Err() != nil {
		// Interrupted by a signal.
		return nil
	}
	return err
}

// startWatcher watches path, re-ingesting it with the same loader as the
// review screen.
func startWatcher(ctx context.Context, path string, load watch.LoadFunc) (*watch.Watcher, error) {
	w, err := watch.New(path, watch.WithLoader(load))
	if err != nil {
		return nil, err
	}
	if err := w.Start(ctx); err != nil {
		return nil, err
	}
	return w, nil
}
