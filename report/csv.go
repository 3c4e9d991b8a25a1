// Package report writes a run's artifacts: CSV tables, the summary chart
// and console progress.
package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"

	"github.com/danielmmetz/hn-stats/hn"
	"github.com/danielmmetz/hn-stats/stats"
	"github.com/danielmmetz/hn-stats/worker"
)

// Columns returns the union of the items' field names, in the order each
// name is first seen.
func Columns(items []*hn.Item) []string {
	seen := make(map[string]bool)
	var cols []string
	for _, it := range items {
		for _, k := range it.Keys() {
			if !seen[k] {
				seen[k] = true
				cols = append(cols, k)
			}
		}
	}
	return cols
}

// WriteItems writes one row per item under the union of their columns.
// Fields an item lacks are left empty.
func WriteItems(w io.Writer, items []*hn.Item) error {
	cols := Columns(items)
	cw := csv.NewWriter(w)
	if err := cw.Write(cols); err != nil {
		return err
	}
	row := make([]string, len(cols))
	for _, it := range items {
		for i, col := range cols {
			v, ok := it.Get(col)
			if !ok {
				row[i] = ""
				continue
			}
			cell, err := formatCell(v)
			if err != nil {
				id, _ := it.ID()
				return fmt.Errorf("format item %d field %q: %w", id, col, err)
			}
			row[i] = cell
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatCell(v any) (string, error) {
	switch x := v.(type) {
	case nil:
		return "", nil
	case string:
		return x, nil
	case json.Number:
		return x.String(), nil
	case bool:
		return strconv.FormatBool(x), nil
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// WriteStats writes the summary as a header and a single row. Undefined
// statistics are left empty.
func WriteStats(w io.Writer, s stats.Summary) error {
	var header, row []string
	for _, m := range s.Metrics() {
		header = append(header, m.Name)
		row = append(row, formatFloat(m.Value))
	}
	cw := csv.NewWriter(w)
	cw.Write(header)
	cw.Write(row)
	cw.Flush()
	return cw.Error()
}

func formatFloat(f float64) string {
	if math.IsNaN(f) {
		return ""
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// WriteArticles writes extracted article summaries, one row per story.
func WriteArticles(w io.Writer, articles []worker.Article) error {
	cw := csv.NewWriter(w)
	cw.Write([]string{"story_id", "url", "title", "byline", "excerpt", "extraction_failed"})
	for _, a := range articles {
		cw.Write([]string{
			strconv.Itoa(a.StoryID), a.URL, a.Title, a.Byline, a.Excerpt,
			strconv.FormatBool(a.Failed),
		})
	}
	cw.Flush()
	return cw.Error()
}

// WriteFile writes path through a temporary file in the same directory,
// so the file is either complete or not there at all.
func WriteFile(path string, write func(io.Writer) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := write(tmp); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("chmod %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}
