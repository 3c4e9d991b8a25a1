package api

import (
	"context"
	"log/slog"
	"net/http"
)

// RunCounter reports how many runs are archived. *store.RunStore
// satisfies it.
type RunCounter interface {
	Count(ctx context.Context) (int, error)
}

type HealthHandler struct {
	result RunResult
	runs   RunCounter // nil without an archive
}

func NewHealthHandler(result RunResult, runs RunCounter) *HealthHandler {
	return &HealthHandler{result: result, runs: runs}
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	resp := map[string]interface{}{
		"status":       "ok",
		"stories":      h.result.Stories,
		"comments":     h.result.Comments,
		"generated_at": h.result.GeneratedAt.Unix(),
	}
	if h.runs != nil {
		n, err := h.runs.Count(r.Context())
		if err != nil {
			slog.Error("health: counting runs", "error", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		resp["archived_runs"] = n
	}
	writeJSON(w, r, resp)
}
