package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielmmetz/hn-stats/hn"
)

// fakeFetcher serves items from a map and records every call.
type fakeFetcher struct {
	mu       sync.Mutex
	top      []int
	topErr   error
	items    map[int]*hn.Item
	failOn   map[int]error
	topCalls int
	calls    []int
}

func (f *fakeFetcher) TopStories(ctx context.Context) ([]int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.topCalls++
	return f.top, f.topErr
}

func (f *fakeFetcher) GetItem(ctx context.Context, id int) (*hn.Item, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, id)
	if err, ok := f.failOn[id]; ok {
		return nil, err
	}
	if item, ok := f.items[id]; ok {
		return item, nil
	}
	return hn.NewItem("id", id), nil
}

func ids(items []*hn.Item) []int {
	out := make([]int, len(items))
	for i, it := range items {
		out[i], _ = it.ID()
	}
	return out
}

func TestCollectRootCount(t *testing.T) {
	tests := []struct {
		name      string
		available []int
		n         int
		want      []int
	}{
		{"fewer available than requested", []int{1, 2}, 5, []int{1, 2}},
		{"exactly n", []int{1, 2, 3}, 3, []int{1, 2, 3}},
		{"more available", []int{4, 5, 6, 7}, 2, []int{4, 5}},
		{"zero requested", []int{1, 2}, 0, []int{}},
		{"negative requested", []int{1, 2}, -1, []int{}},
		{"nothing available", nil, 3, []int{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &fakeFetcher{top: tt.available}
			col, err := NewCollector(f, 1, nil).Collect(context.Background(), tt.n)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(col.Roots))
			assert.Equal(t, 1, f.topCalls)
		})
	}
}

func TestCollectChildrenOrder(t *testing.T) {
	f := &fakeFetcher{
		top: []int{100, 200, 300},
		items: map[int]*hn.Item{
			100: hn.NewItem("id", 100, "kids", []int{1, 2}),
			200: hn.NewItem("id", 200, "score", 5),
			300: hn.NewItem("id", 300, "kids", []int{3}),
		},
	}

	col, err := NewCollector(f, 1, nil).Collect(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, []int{100, 200, 300}, ids(col.Roots))
	assert.Equal(t, []int{1, 2, 3}, ids(col.Children))
	assert.Equal(t, []int{100, 200, 300, 1, 2, 3}, f.calls)
}

func TestCollectNoKids(t *testing.T) {
	f := &fakeFetcher{top: []int{1, 2, 3}}

	col, err := NewCollector(f, 1, nil).Collect(context.Background(), 3)
	require.NoError(t, err)
	assert.Len(t, col.Roots, 3)
	assert.Empty(t, col.Children)
	assert.Equal(t, []int{1, 2, 3}, f.calls, "no child fetches")
}

func TestCollectRootFailureIsFailFast(t *testing.T) {
	boom := errors.New("boom")
	f := &fakeFetcher{
		top: []int{1, 2, 3},
		items: map[int]*hn.Item{
			1: hn.NewItem("id", 1, "kids", []int{10, 11}),
		},
		failOn: map[int]error{2: boom},
	}

	col, err := NewCollector(f, 1, nil).Collect(context.Background(), 3)
	require.Error(t, err)
	assert.Nil(t, col)
	assert.ErrorIs(t, err, boom)

	var se *StageError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, StageRoots, se.Stage)
	assert.Equal(t, 2, se.ItemID)
	assert.Equal(t, []int{1, 2}, f.calls, "third root and children never fetched")
}

func TestCollectChildFailure(t *testing.T) {
	f := &fakeFetcher{
		top: []int{1},
		items: map[int]*hn.Item{
			1: hn.NewItem("id", 1, "kids", []int{10, 11, 12}),
		},
		failOn: map[int]error{11: &hn.ParseError{URL: "x", Err: errors.New("bad")}},
	}

	_, err := NewCollector(f, 1, nil).Collect(context.Background(), 1)
	var se *StageError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, StageChildren, se.Stage)
	assert.Equal(t, 11, se.ItemID)
	var pe *hn.ParseError
	assert.True(t, errors.As(err, &pe))
	assert.Equal(t, []int{1, 10, 11}, f.calls)
}

func TestCollectTopIDFailure(t *testing.T) {
	f := &fakeFetcher{topErr: &hn.TransportError{URL: "x", StatusCode: 503}}

	_, err := NewCollector(f, 1, nil).Collect(context.Background(), 3)
	var se *StageError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, StageTopIDs, se.Stage)
	assert.Zero(t, se.ItemID)
	assert.Contains(t, err.Error(), "top-ID fetch")
	assert.Empty(t, f.calls)
}

func TestCollectParallelKeepsOrder(t *testing.T) {
	items := map[int]*hn.Item{}
	var top []int
	for i := 1; i <= 20; i++ {
		top = append(top, i)
		items[i] = hn.NewItem("id", i, "kids", []int{i * 100, i*100 + 1})
	}
	f := &fakeFetcher{top: top, items: items}

	col, err := NewCollector(f, 8, nil).Collect(context.Background(), 20)
	require.NoError(t, err)
	assert.Equal(t, top, ids(col.Roots))

	var wantChildren []int
	for _, id := range top {
		wantChildren = append(wantChildren, id*100, id*100+1)
	}
	assert.Equal(t, wantChildren, ids(col.Children))
}

func TestCollectParallelFailure(t *testing.T) {
	f := &fakeFetcher{top: []int{1, 2, 3, 4}, failOn: map[int]error{3: errors.New("down")}}

	col, err := NewCollector(f, 4, nil).Collect(context.Background(), 4)
	require.Error(t, err)
	assert.Nil(t, col)
	var se *StageError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, StageRoots, se.Stage)
	assert.Equal(t, 3, se.ItemID)
}

type recordingProgress struct {
	mu     sync.Mutex
	stages []Stage
	totals []int
	steps  int
}

func (p *recordingProgress) Start(stage Stage, total int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stages = append(p.stages, stage)
	p.totals = append(p.totals, total)
}

func (p *recordingProgress) Step() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.steps++
}

func (p *recordingProgress) Finish() {}

func TestCollectReportsProgress(t *testing.T) {
	f := &fakeFetcher{
		top:   []int{1, 2},
		items: map[int]*hn.Item{2: hn.NewItem("id", 2, "kids", []int{5})},
	}
	p := &recordingProgress{}

	_, err := NewCollector(f, 1, p).Collect(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, []Stage{StageTopIDs, StageRoots, StageChildren}, p.stages)
	assert.Equal(t, []int{1, 2, 1}, p.totals)
	assert.Equal(t, 4, p.steps)
}

func TestKidIDs(t *testing.T) {
	items := []*hn.Item{
		hn.NewItem("id", 1, "kids", []int{1, 2}),
		hn.NewItem("id", 2),
		hn.NewItem("id", 3, "kids", []int{}),
		hn.NewItem("id", 4, "kids", []int{9}),
	}
	assert.Equal(t, []int{1, 2, 9}, KidIDs(items))
	assert.Empty(t, KidIDs(nil))
}

func TestKidIDsLogsMalformedKids(t *testing.T) {
	var logs bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&logs, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })

	var bad hn.Item
	require.NoError(t, json.Unmarshal([]byte(`{"id":5,"kids":[6,"x"]}`), &bad))
	items := []*hn.Item{&bad, hn.NewItem("id", 7, "kids", []int{8})}

	assert.Equal(t, []int{8}, KidIDs(items))
	assert.Contains(t, logs.String(), "ignoring malformed kids")
	assert.Contains(t, logs.String(), "item_id=5")
	assert.NotContains(t, logs.String(), "item_id=7")
}
