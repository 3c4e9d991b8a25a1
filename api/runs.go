package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/danielmmetz/hn-stats/hn"
	"github.com/danielmmetz/hn-stats/store"
)

// RunArchive is the read side of the run archive. *store.RunStore
// satisfies it.
type RunArchive interface {
	RunCounter
	Get(ctx context.Context, id string) (*store.RunSummary, error)
	Items(ctx context.Context, runID, kind string) ([]*hn.Item, error)
}

// itemKinds maps the URL segment to the stored item kind.
var itemKinds = map[string]string{
	"stories":  store.KindStory,
	"comments": store.KindComment,
}

type RunsHandler struct {
	runs RunArchive
}

func NewRunsHandler(runs RunArchive) *RunsHandler {
	return &RunsHandler{runs: runs}
}

// Run handles GET /api/runs/{id}
func (h *RunsHandler) Run(w http.ResponseWriter, r *http.Request) {
	run, ok := h.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, r, map[string]interface{}{
		"id":               run.ID,
		"started_at":       run.StartedAt,
		"finished_at":      run.FinishedAt,
		"top_n":            run.TopN,
		"average_score":    run.AverageScore,
		"average_comments": run.AverageComments,
		"stories":          run.Stories,
		"comments":         run.Comments,
	})
}

// Items handles GET /api/runs/{id}/{kind}, kind being stories or comments.
func (h *RunsHandler) Items(w http.ResponseWriter, r *http.Request) {
	kind, ok := itemKinds[r.PathValue("kind")]
	if !ok {
		http.NotFound(w, r)
		return
	}
	run, ok := h.lookup(w, r)
	if !ok {
		return
	}

	items, err := h.runs.Items(r.Context(), run.ID, kind)
	if err != nil {
		slog.Error("runs: loading items", "run_id", run.ID, "kind", kind, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if items == nil {
		items = []*hn.Item{}
	}
	writeJSON(w, r, items)
}

func (h *RunsHandler) lookup(w http.ResponseWriter, r *http.Request) (*store.RunSummary, bool) {
	id := r.PathValue("id")
	run, err := h.runs.Get(r.Context(), id)
	if err != nil {
		slog.Error("runs: loading run", "run_id", id, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return nil, false
	}
	if run == nil {
		http.Error(w, `{"error":"run not found"}`, http.StatusNotFound)
		return nil, false
	}
	return run, true
}
