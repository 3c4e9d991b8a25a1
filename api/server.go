package api

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"time"
)

// NewMux wires the display routes. files lists the run's artifacts in
// outFS besides the chart; nothing else there is served. The archive
// routes are only registered when runs is non-nil.
func NewMux(outFS fs.FS, chartFile string, files []string, result RunResult, runs RunArchive) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("GET /api/stats", NewStatsHandler(result))
	mux.Handle("GET /api/health", NewHealthHandler(result, runs))
	if runs != nil {
		rh := NewRunsHandler(runs)
		mux.HandleFunc("GET /api/runs/{id}", rh.Run)
		mux.HandleFunc("GET /api/runs/{id}/{kind}", rh.Items)
	}
	mux.HandleFunc("GET /", NewStaticHandler(outFS, chartFile, files))
	return mux
}

// ListenAndServe serves handler on addr until ctx is cancelled, then shuts
// down gracefully.
func ListenAndServe(ctx context.Context, addr string, handler http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server starting", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	slog.Info("server stopped")
	return nil
}
