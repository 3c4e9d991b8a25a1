// Package stats reduces a run's root stories to summary numbers.
package stats

import (
	"encoding/json"
	"math"

	"github.com/danielmmetz/hn-stats/hn"
)

// Summary holds the averages over a set of stories. A statistic no story
// could contribute to is NaN.
type Summary struct {
	AverageScore    float64
	AverageComments float64
}

// Metric names, in display order.
const (
	MetricAverageScore    = "average_score"
	MetricAverageComments = "average_comments"
)

// Metrics returns the summary as ordered name/value pairs.
func (s Summary) Metrics() []Metric {
	return []Metric{
		{Name: MetricAverageScore, Value: s.AverageScore},
		{Name: MetricAverageComments, Value: s.AverageComments},
	}
}

type Metric struct {
	Name  string
	Value float64
}

// Defined reports whether the value is not the NaN sentinel.
func (m Metric) Defined() bool { return !math.IsNaN(m.Value) }

// MarshalJSON writes NaN as null, which encoding/json cannot do itself.
func (s Summary) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		AverageScore    *float64 `json:"average_score"`
		AverageComments *float64 `json:"average_comments"`
	}{nanToNil(s.AverageScore), nanToNil(s.AverageComments)})
}

func nanToNil(f float64) *float64 {
	if math.IsNaN(f) {
		return nil
	}
	return &f
}

// Aggregate averages score and descendants over stories. Each field is
// averaged over the stories that carry it, independently of the other.
func Aggregate(stories []*hn.Item) Summary {
	var score, comments mean
	for _, st := range stories {
		if v, ok := st.Score(); ok {
			score.add(v)
		}
		if v, ok := st.Descendants(); ok {
			comments.add(v)
		}
	}
	return Summary{AverageScore: score.value(), AverageComments: comments.value()}
}

// AggregateStrict is Aggregate for callers that treat a story without a
// score or descendants count as an error.
func AggregateStrict(stories []*hn.Item) (Summary, error) {
	for _, st := range stories {
		if _, err := st.RequireInt(hn.FieldScore); err != nil {
			return Summary{}, err
		}
		if _, err := st.RequireInt(hn.FieldDescendants); err != nil {
			return Summary{}, err
		}
	}
	return Aggregate(stories), nil
}

type mean struct {
	sum   float64
	count int
}

func (m *mean) add(v int) {
	m.sum += float64(v)
	m.count++
}

func (m *mean) value() float64 {
	if m.count == 0 {
		return math.NaN()
	}
	return m.sum / float64(m.count)
}
