package worker

import (
	"context"
	"log/slog"
)

// RunArchive is the subset of *store.RunStore the cleaner needs.
type RunArchive interface {
	OldRuns(ctx context.Context, keep int) ([]string, error)
	DeleteRun(ctx context.Context, id string) error
	Vacuum(ctx context.Context) error
}

// Cleaner trims the run archive down to the most recent runs.
type Cleaner struct {
	runs RunArchive
	keep int
}

// NewCleaner returns a cleaner that keeps the keep most recent runs. keep
// <= 0 keeps everything.
func NewCleaner(runs RunArchive, keep int) *Cleaner {
	return &Cleaner{runs: runs, keep: keep}
}

// Clean deletes runs beyond the retention limit and returns how many were
// deleted. A failed delete is logged and skipped.
func (c *Cleaner) Clean(ctx context.Context) (int, error) {
	if c.keep <= 0 {
		return 0, nil
	}

	ids, err := c.runs.OldRuns(ctx, c.keep)
	if err != nil {
		return 0, err
	}

	deleted := 0
	for _, id := range ids {
		if ctx.Err() != nil {
			slog.Info("cleaner: cancelled during cleanup")
			break
		}
		if err := c.runs.DeleteRun(ctx, id); err != nil {
			slog.Error("cleaner: error deleting run", "run_id", id, "error", err)
			continue
		}
		deleted++
	}

	if deleted > 0 {
		slog.Info("cleaner: deleted old runs", "count", deleted, "kept", c.keep)
		if err := c.runs.Vacuum(ctx); err != nil {
			slog.Error("cleaner: vacuum error", "error", err)
		}
	}
	return deleted, ctx.Err()
}
