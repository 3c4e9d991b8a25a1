package api

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielmmetz/hn-stats/hn"
	"github.com/danielmmetz/hn-stats/stats"
	"github.com/danielmmetz/hn-stats/store"
)

type fakeArchive struct {
	n     int
	err   error
	runs  map[string]*store.RunSummary
	items map[string][]*hn.Item // keyed by run ID + "/" + kind
}

func (f fakeArchive) Count(context.Context) (int, error) { return f.n, f.err }

func (f fakeArchive) Get(_ context.Context, id string) (*store.RunSummary, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.runs[id], nil
}

func (f fakeArchive) Items(_ context.Context, runID, kind string) ([]*hn.Item, error) {
	return f.items[runID+"/"+kind], f.err
}

func testMux(runs RunArchive) *http.ServeMux {
	outFS := fstest.MapFS{
		"summary_stats.html": {Data: []byte("<html>chart</html>")},
		"top_stories.csv":    {Data: []byte("id\n1\n")},
		"runs.db":            {Data: []byte("SQLite format 3")},
		"sub/.env":           {Data: []byte("API_KEY=secret")},
		".hidden":            {Data: []byte("x")},
	}
	result := RunResult{
		RunID:       "run-1",
		Summary:     stats.Summary{AverageScore: 12.5, AverageComments: math.NaN()},
		Stories:     3,
		Comments:    7,
		GeneratedAt: time.Unix(1700000000, 0),
	}
	return NewMux(outFS, "summary_stats.html", []string{"top_stories.csv", "comments.csv"}, result, runs)
}

func TestStaticRoutes(t *testing.T) {
	mux := testMux(nil)
	tests := []struct {
		path   string
		status int
		body   string
		ctype  string
	}{
		{"/", http.StatusOK, "<html>chart</html>", "text/html; charset=utf-8"},
		{"/top_stories.csv", http.StatusOK, "id\n1\n", ""},
		{"/summary_stats.html", http.StatusOK, "<html>chart</html>", "text/html; charset=utf-8"},
		{"/missing.csv", http.StatusNotFound, "", ""},
		{"/comments.csv", http.StatusNotFound, "", ""},
		{"/runs.db", http.StatusNotFound, "", ""},
		{"/sub/.env", http.StatusNotFound, "", ""},
		{"/.hidden", http.StatusNotFound, "", ""},
		{"/api/runs/run-1", http.StatusNotFound, "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))
			assert.Equal(t, tt.status, rec.Code)
			if tt.status == http.StatusOK {
				assert.Equal(t, tt.body, rec.Body.String())
				if tt.ctype != "" {
					assert.Equal(t, tt.ctype, rec.Header().Get("Content-Type"))
				}
			}
		})
	}
}

func TestStatsEndpoint(t *testing.T) {
	mux := testMux(nil)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/stats", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{
		"summary": {"average_score": 12.5, "average_comments": null},
		"stories": 3,
		"comments": 7,
		"generated_at": 1700000000,
		"run_id": "run-1"
	}`, rec.Body.String())

	etag := rec.Header().Get("ETag")
	require.NotEmpty(t, etag)

	req := httptest.NewRequest(http.MethodGet, "/api/stats", nil)
	req.Header.Set("If-None-Match", etag)
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotModified, rec.Code)
}

func TestHealthEndpoint(t *testing.T) {
	rec := httptest.NewRecorder()
	testMux(fakeArchive{n: 4}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, float64(4), body["archived_runs"])

	rec = httptest.NewRecorder()
	testMux(fakeArchive{err: errors.New("locked")}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	rec = httptest.NewRecorder()
	testMux(nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	assert.NotContains(t, rec.Body.String(), "archived_runs")
}

func TestRunsEndpoints(t *testing.T) {
	score := 12.5
	archive := fakeArchive{
		n: 1,
		runs: map[string]*store.RunSummary{
			"run-1": {ID: "run-1", StartedAt: 1700000000, FinishedAt: 1700000004, TopN: 3, AverageScore: &score, Stories: 1, Comments: 0},
		},
		items: map[string][]*hn.Item{
			"run-1/" + store.KindStory: {hn.NewItem("id", 7, "score", 12)},
		},
	}
	mux := testMux(archive)

	get := func(path string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		return rec
	}

	rec := get("/api/runs/run-1")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{
		"id": "run-1",
		"started_at": 1700000000,
		"finished_at": 1700000004,
		"top_n": 3,
		"average_score": 12.5,
		"average_comments": null,
		"stories": 1,
		"comments": 0
	}`, rec.Body.String())

	rec = get("/api/runs/run-1/stories")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[{"id":7,"score":12}]`, rec.Body.String())

	rec = get("/api/runs/run-1/comments")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	assert.Equal(t, http.StatusNotFound, get("/api/runs/nope").Code)
	assert.Equal(t, http.StatusNotFound, get("/api/runs/nope/stories").Code)
	assert.Equal(t, http.StatusNotFound, get("/api/runs/run-1/polls").Code)

	rec = httptest.NewRecorder()
	testMux(fakeArchive{err: errors.New("locked")}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/runs/run-1", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestListenAndServeShutsDown(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	ln.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- ListenAndServe(ctx, addr, testMux(nil)) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + addr + "/api/health")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
