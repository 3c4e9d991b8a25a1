package api

import (
	"crypto/md5"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/danielmmetz/hn-stats/stats"
)

// RunResult is what the server knows about the run it is displaying.
type RunResult struct {
	RunID       string
	Summary     stats.Summary
	Stories     int
	Comments    int
	GeneratedAt time.Time
}

type StatsHandler struct {
	result RunResult
}

func NewStatsHandler(result RunResult) *StatsHandler {
	return &StatsHandler{result: result}
}

// ServeHTTP handles GET /api/stats
func (h *StatsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	resp := map[string]interface{}{
		"summary":      h.result.Summary,
		"stories":      h.result.Stories,
		"comments":     h.result.Comments,
		"generated_at": h.result.GeneratedAt.Unix(),
	}
	if h.result.RunID != "" {
		resp["run_id"] = h.result.RunID
	}
	writeJSON(w, r, resp)
}

func writeJSON(w http.ResponseWriter, r *http.Request, data interface{}) {
	body, err := json.Marshal(data)
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	etag := fmt.Sprintf(`"%x"`, md5.Sum(body))

	if match := r.Header.Get("If-None-Match"); match == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("ETag", etag)
	w.Write(body)
}
