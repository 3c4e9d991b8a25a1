package api

import (
	"io/fs"
	"mime"
	"net/http"
	"path"
	"strings"
)

// NewStaticHandler returns an http.HandlerFunc that serves the run's output
// files from the given FS. Only index and the names in files are served;
// everything else in outFS is a 404. The root path serves index, the chart
// page.
func NewStaticHandler(outFS fs.FS, index string, files []string) http.HandlerFunc {
	allowed := map[string]bool{index: true}
	for _, f := range files {
		allowed[f] = true
	}

	return func(w http.ResponseWriter, r *http.Request) {
		// Clean the path
		urlPath := strings.TrimPrefix(path.Clean("/"+r.URL.Path), "/")
		if urlPath == "" {
			urlPath = index
		}
		if !allowed[urlPath] {
			http.NotFound(w, r)
			return
		}

		data, err := fs.ReadFile(outFS, urlPath)
		if err != nil {
			http.NotFound(w, r)
			return
		}

		ct := mime.TypeByExtension(path.Ext(urlPath))
		if ct == "" {
			ct = "application/octet-stream"
		}
		w.Header().Set("Content-Type", ct)
		// Artifacts are rewritten by every run.
		w.Header().Set("Cache-Control", "no-cache")
		w.Write(data)
	}
}
