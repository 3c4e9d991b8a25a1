package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/danielmmetz/hn-stats/api"
	"github.com/danielmmetz/hn-stats/config"
	"github.com/danielmmetz/hn-stats/hn"
	"github.com/danielmmetz/hn-stats/readability"
	"github.com/danielmmetz/hn-stats/report"
	"github.com/danielmmetz/hn-stats/stats"
	"github.com/danielmmetz/hn-stats/store"
	"github.com/danielmmetz/hn-stats/worker"
)

type output struct {
	name  string
	write func(io.Writer) error
}

// run performs one collection and writes its artifacts. Nothing is written
// unless collection and aggregation both succeed. runs may be nil.
func run(ctx context.Context, cfg config.Config, runs *store.RunStore, stdout, stderr io.Writer) (api.RunResult, error) {
	started := time.Now()

	var progress worker.Progress
	if cfg.Progress {
		progress = report.NewProgress(stderr)
	}
	client := hn.NewClient(cfg.Client())
	collector := worker.NewCollector(client, cfg.Concurrency, progress)

	col, err := collector.Collect(ctx, cfg.TopN)
	if err != nil {
		return api.RunResult{}, err
	}

	var summary stats.Summary
	if cfg.StrictStats {
		summary, err = stats.AggregateStrict(col.Roots)
		if err != nil {
			return api.RunResult{}, &worker.StageError{Stage: worker.StageAggregate, Err: err}
		}
	} else {
		summary = stats.Aggregate(col.Roots)
	}
	slog.Info("summary statistics",
		stats.MetricAverageScore, summary.AverageScore,
		stats.MetricAverageComments, summary.AverageComments)

	var articles []worker.Article
	if cfg.Articles {
		articles = worker.NewEnricher(readability.NewExtractor(nil)).ExtractArticles(ctx, col.Roots)
	}

	outputs := []output{
		{cfg.StoriesCSV, func(w io.Writer) error { return report.WriteItems(w, col.Roots) }},
		{cfg.CommentsCSV, func(w io.Writer) error { return report.WriteItems(w, col.Children) }},
		{cfg.StatsCSV, func(w io.Writer) error { return report.WriteStats(w, summary) }},
		{cfg.ChartHTML, func(w io.Writer) error { return report.RenderChartHTML(w, summary) }},
	}
	if cfg.Articles {
		outputs = append(outputs, output{cfg.ArticlesCSV, func(w io.Writer) error { return report.WriteArticles(w, articles) }})
	}
	for _, out := range outputs {
		path := cfg.Path(out.name)
		if err := report.WriteFile(path, out.write); err != nil {
			return api.RunResult{}, err
		}
		slog.Info("wrote output", "path", path)
	}

	fmt.Fprint(stdout, report.RenderChartTerminal(summary, 40))

	res := api.RunResult{
		Summary:     summary,
		Stories:     len(col.Roots),
		Comments:    len(col.Children),
		GeneratedAt: time.Now(),
	}

	if runs != nil {
		id, err := runs.Save(ctx, &store.Run{
			StartedAt:  started,
			FinishedAt: res.GeneratedAt,
			TopN:       cfg.TopN,
			Stories:    col.Roots,
			Comments:   col.Children,
			Summary:    summary,
		})
		if err != nil {
			return api.RunResult{}, fmt.Errorf("archive run: %w", err)
		}
		res.RunID = id
		slog.Info("archived run", "run_id", id)

		if _, err := worker.NewCleaner(runs, cfg.KeepRuns).Clean(ctx); err != nil {
			return api.RunResult{}, fmt.Errorf("prune archive: %w", err)
		}
	}

	return res, nil
}
