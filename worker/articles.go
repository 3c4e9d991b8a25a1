package worker

import (
	"context"
	"log/slog"

	"github.com/danielmmetz/hn-stats/hn"
	"github.com/danielmmetz/hn-stats/readability"
)

// Article is the reader-mode summary of a story's link.
type Article struct {
	StoryID int
	URL     string
	Title   string
	Byline  string
	Excerpt string
	Failed  bool
}

// ArticleExtractor is satisfied by *readability.Extractor.
type ArticleExtractor interface {
	Extract(ctx context.Context, rawURL string) (*readability.Article, error)
}

type Enricher struct {
	extractor ArticleExtractor
}

func NewEnricher(extractor ArticleExtractor) *Enricher {
	return &Enricher{extractor: extractor}
}

// ExtractArticles runs reader-mode extraction for every story that links
// somewhere, in story order. Failed extractions are logged and kept with
// Failed set; they never abort the run.
func (e *Enricher) ExtractArticles(ctx context.Context, stories []*hn.Item) []Article {
	var articles []Article
	for _, st := range stories {
		url, ok := st.StringField(hn.FieldURL)
		if !ok || url == "" {
			continue
		}
		if ctx.Err() != nil {
			slog.Info("article extraction cancelled")
			break
		}
		id, _ := st.ID()

		a := Article{StoryID: id, URL: url}
		extracted, err := e.extractor.Extract(ctx, url)
		if err != nil {
			slog.Error("article extraction failed", "story_id", id, "error", err)
			a.Failed = true
		} else {
			a.Title = extracted.Title
			a.Byline = extracted.Byline
			a.Excerpt = extracted.Excerpt
		}
		articles = append(articles, a)
	}
	return articles
}
