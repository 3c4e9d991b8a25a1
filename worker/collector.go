package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/danielmmetz/hn-stats/hn"
)

// ItemFetcher is the subset of *hn.Client the collector needs.
type ItemFetcher interface {
	TopStories(ctx context.Context) ([]int, error)
	GetItem(ctx context.Context, id int) (*hn.Item, error)
}

// Collection holds one run's fetched items.
type Collection struct {
	// Roots are the top stories in ranked order.
	Roots []*hn.Item
	// Children are the direct replies of all roots, root-major, each root's
	// replies in the order of its kids field.
	Children []*hn.Item
}

type Collector struct {
	client      ItemFetcher
	concurrency int
	progress    Progress
	sf          singleflight.Group
}

// NewCollector returns a collector. concurrency <= 1 fetches one item at a
// time; larger values fetch in parallel but keep result order. progress may
// be nil.
func NewCollector(client ItemFetcher, concurrency int, progress Progress) *Collector {
	if concurrency < 1 {
		concurrency = 1
	}
	if progress == nil {
		progress = nopProgress{}
	}
	return &Collector{client: client, concurrency: concurrency, progress: progress}
}

// Collect fetches the first n top stories and then their direct replies.
// The first failed fetch aborts the run with a *StageError; no partial
// collection is returned.
func (c *Collector) Collect(ctx context.Context, n int) (*Collection, error) {
	start := time.Now()

	c.progress.Start(StageTopIDs, 1)
	topIDs, err := c.client.TopStories(ctx)
	if err == nil {
		c.progress.Step()
	}
	c.progress.Finish()
	if err != nil {
		return nil, &StageError{Stage: StageTopIDs, Err: err}
	}
	slog.Info("fetched top story IDs", "available", len(topIDs), "requested", n)

	if n < 0 {
		n = 0
	}
	if len(topIDs) < n {
		n = len(topIDs)
	}

	roots, err := c.fetchAll(ctx, StageRoots, topIDs[:n])
	if err != nil {
		return nil, err
	}

	childIDs := KidIDs(roots)
	slog.Info("fetched root stories", "count", len(roots), "replies", len(childIDs))

	children, err := c.fetchAll(ctx, StageChildren, childIDs)
	if err != nil {
		return nil, err
	}

	slog.Info("collection complete", "stories", len(roots), "comments", len(children), "elapsed", time.Since(start))
	return &Collection{Roots: roots, Children: children}, nil
}

// KidIDs flattens the kids of each item, in order. Items without kids
// contribute nothing; a kids field that is not a list of integers is logged
// and skipped.
func KidIDs(items []*hn.Item) []int {
	var ids []int
	for _, item := range items {
		kids, ok := item.Kids()
		if !ok {
			if raw, present := item.Get(hn.FieldKids); present {
				id, _ := item.ID()
				slog.Warn("ignoring malformed kids", "item_id", id, "kids", raw)
			}
			continue
		}
		ids = append(ids, kids...)
	}
	return ids
}

func (c *Collector) fetchAll(ctx context.Context, stage Stage, ids []int) ([]*hn.Item, error) {
	c.progress.Start(stage, len(ids))
	defer c.progress.Finish()

	if c.concurrency == 1 || len(ids) < 2 {
		return c.fetchSequential(ctx, stage, ids)
	}
	return c.fetchParallel(ctx, stage, ids)
}

func (c *Collector) fetchSequential(ctx context.Context, stage Stage, ids []int) ([]*hn.Item, error) {
	items := make([]*hn.Item, 0, len(ids))
	for _, id := range ids {
		item, err := c.client.GetItem(ctx, id)
		if err != nil {
			return nil, &StageError{Stage: stage, ItemID: id, Err: err}
		}
		items = append(items, item)
		c.progress.Step()
	}
	return items, nil
}

// fetchParallel writes each result into its input slot so order does not
// depend on completion order.
func (c *Collector) fetchParallel(ctx context.Context, stage Stage, ids []int) ([]*hn.Item, error) {
	results := make([]*hn.Item, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)

	for i, id := range ids {
		g.Go(func() error {
			v, err, _ := c.sf.Do(fmt.Sprintf("%s-%d", stage, id), func() (interface{}, error) {
				return c.client.GetItem(gctx, id)
			})
			if err != nil {
				return &StageError{Stage: stage, ItemID: id, Err: err}
			}
			results[i] = v.(*hn.Item)
			c.progress.Step()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
