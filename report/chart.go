package report

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/danielmmetz/hn-stats/stats"
)

const chartTitle = "Summary Statistics of Top Stories"

// Bar colors, one per metric in stats.Summary.Metrics order.
var barColors = []string{"#1f77b4", "#ff7f0e"} // blue, orange

// RenderChartHTML writes a standalone HTML page with a bar chart of the
// summary. Undefined statistics are drawn as empty bars.
func RenderChartHTML(w io.Writer, s stats.Summary) error {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: chartTitle,
			Width:     "1000px",
			Height:    "500px",
		}),
		charts.WithTitleOpts(opts.Title{Title: chartTitle}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Metrics"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Values"}),
	)

	var names []string
	var data []opts.BarData
	for i, m := range s.Metrics() {
		names = append(names, m.Name)
		var v interface{} = "-" // echarts' marker for a missing value
		if m.Defined() {
			v = m.Value
		}
		data = append(data, opts.BarData{
			Name:      m.Name,
			Value:     v,
			ItemStyle: &opts.ItemStyle{Color: barColors[i%len(barColors)]},
		})
	}
	bar.SetXAxis(names).AddSeries("Values", data)

	return bar.Render(w)
}

var (
	titleStyle = lipgloss.NewStyle().Bold(true)
	labelStyle = lipgloss.NewStyle().Width(18)
	mutedStyle = lipgloss.NewStyle().Faint(true)
)

// RenderChartTerminal draws the summary as horizontal bars no wider than
// width cells.
func RenderChartTerminal(s stats.Summary, width int) string {
	if width < 1 {
		width = 40
	}
	metrics := s.Metrics()

	var max float64
	for _, m := range metrics {
		if m.Defined() && math.Abs(m.Value) > max {
			max = math.Abs(m.Value)
		}
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(chartTitle))
	b.WriteString("\n")
	for i, m := range metrics {
		b.WriteString(labelStyle.Render(m.Name))
		if !m.Defined() {
			b.WriteString(mutedStyle.Render("n/a"))
			b.WriteString("\n")
			continue
		}
		n := 0
		if max > 0 {
			n = int(math.Round(math.Abs(m.Value) / max * float64(width)))
		}
		style := lipgloss.NewStyle().Foreground(lipgloss.Color(barColors[i%len(barColors)]))
		b.WriteString(style.Render(strings.Repeat("█", n)))
		fmt.Fprintf(&b, " %.2f\n", m.Value)
	}
	return b.String()
}
