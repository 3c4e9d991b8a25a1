package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/danielmmetz/hn-stats/api"
	"github.com/danielmmetz/hn-stats/config"
	"github.com/danielmmetz/hn-stats/store"
	"github.com/danielmmetz/hn-stats/worker"
)

func main() {
	os.Exit(realMain())
}

func realMain() int {
	cfg, err := config.Parse("hn-stats", os.Args[1:])
	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	if err != nil {
		slog.Error("failed to parse flags", "error", err)
		return 2
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel})))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Run archive
	var runs *store.RunStore
	if cfg.DBPath != "" {
		db, err := store.Open(cfg.DBPath)
		if err != nil {
			slog.Error("failed to open database", "error", err)
			return 1
		}
		defer db.Close()
		runs = store.NewRunStore(db)
	}

	res, err := run(ctx, cfg, runs, os.Stdout, os.Stderr)
	if err != nil {
		var se *worker.StageError
		if errors.As(err, &se) {
			slog.Error("run failed", "stage", se.Stage, "item_id", se.ItemID, "error", se.Err)
		} else {
			slog.Error("run failed", "error", err)
		}
		return 1
	}

	if cfg.Serve == "" {
		return 0
	}

	var archive api.RunArchive
	if runs != nil {
		archive = runs
	}
	chart := cfg.Path(cfg.ChartHTML)
	mux := api.NewMux(os.DirFS(filepath.Dir(chart)), filepath.Base(chart), servedFiles(cfg), res, archive)
	if err := api.ListenAndServe(ctx, cfg.Serve, mux); err != nil {
		slog.Error("server error", "error", err)
		return 1
	}
	return 0
}

// servedFiles returns the run's artifacts that live next to the chart, as
// names relative to the chart's directory.
func servedFiles(cfg config.Config) []string {
	dir := filepath.Dir(cfg.Path(cfg.ChartHTML))
	var files []string
	for _, name := range cfg.Artifacts() {
		p := cfg.Path(name)
		if filepath.Dir(p) == dir {
			files = append(files, filepath.Base(p))
		}
	}
	return files
}
