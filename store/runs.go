package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/danielmmetz/hn-stats/hn"
	"github.com/danielmmetz/hn-stats/stats"
)

// Item kinds stored in the items table.
const (
	KindStory   = "story"
	KindComment = "comment"
)

// Run is one completed collection.
type Run struct {
	ID         string
	StartedAt  time.Time
	FinishedAt time.Time
	TopN       int
	Stories    []*hn.Item
	Comments   []*hn.Item
	Summary    stats.Summary
}

// RunSummary is a run's row without its items.
type RunSummary struct {
	ID              string
	StartedAt       int64
	FinishedAt      int64
	TopN            int
	AverageScore    *float64
	AverageComments *float64
	Stories         int
	Comments        int
}

type RunStore struct {
	db *sql.DB
}

func NewRunStore(db *sql.DB) *RunStore {
	return &RunStore{db: db}
}

// Save writes a run and all of its items in one transaction. An empty ID
// is replaced by a fresh UUID; the ID used is returned.
func (s *RunStore) Save(ctx context.Context, run *Run) (string, error) {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO runs (id, started_at, finished_at, top_n, average_score, average_comments)
		VALUES (?, ?, ?, ?, ?, ?)`,
		run.ID, run.StartedAt.Unix(), run.FinishedAt.Unix(), run.TopN,
		nullFloat(run.Summary.AverageScore), nullFloat(run.Summary.AverageComments)); err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO items (run_id, kind, position, item_id, raw) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return "", err
	}
	defer stmt.Close()

	for _, batch := range []struct {
		kind  string
		items []*hn.Item
	}{{KindStory, run.Stories}, {KindComment, run.Comments}} {
		for i, it := range batch.items {
			raw, err := json.Marshal(it)
			if err != nil {
				return "", fmt.Errorf("encode %s %d: %w", batch.kind, i, err)
			}
			var itemID *int
			if id, ok := it.ID(); ok {
				itemID = &id
			}
			if _, err := stmt.ExecContext(ctx, run.ID, batch.kind, i, itemID, string(raw)); err != nil {
				return "", fmt.Errorf("insert %s %d: %w", batch.kind, i, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return "", err
	}
	return run.ID, nil
}

// Get returns a run's summary row, or nil if there is no such run.
func (s *RunStore) Get(ctx context.Context, id string) (*RunSummary, error) {
	r := &RunSummary{}
	err := s.db.QueryRowContext(ctx, `
		SELECT r.id, r.started_at, r.finished_at, r.top_n, r.average_score, r.average_comments,
			(SELECT COUNT(*) FROM items i WHERE i.run_id = r.id AND i.kind = ?),
			(SELECT COUNT(*) FROM items i WHERE i.run_id = r.id AND i.kind = ?)
		FROM runs r WHERE r.id = ?`, KindStory, KindComment, id).
		Scan(&r.ID, &r.StartedAt, &r.FinishedAt, &r.TopN, &r.AverageScore, &r.AverageComments, &r.Stories, &r.Comments)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return r, nil
}

// Items returns a run's items of one kind in their original order.
func (s *RunStore) Items(ctx context.Context, runID, kind string) ([]*hn.Item, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT raw FROM items WHERE run_id = ? AND kind = ? ORDER BY position`, runID, kind)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*hn.Item
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		it := &hn.Item{}
		if err := json.Unmarshal([]byte(raw), it); err != nil {
			return nil, fmt.Errorf("decode stored item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// Count returns the number of stored runs.
func (s *RunStore) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM runs`).Scan(&n)
	return n, err
}

func nullFloat(f float64) sql.NullFloat64 {
	if math.IsNaN(f) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: f, Valid: true}
}

// OldRuns returns the IDs of all runs except the keep most recent ones.
func (s *RunStore) OldRuns(ctx context.Context, keep int) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id FROM runs ORDER BY started_at DESC, rowid DESC LIMIT -1 OFFSET ?`, keep)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// DeleteRun removes a run; its items go with it.
func (s *RunStore) DeleteRun(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, id)
	return err
}

func (s *RunStore) Vacuum(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `VACUUM`)
	return err
}
