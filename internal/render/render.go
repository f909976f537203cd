// Package render formats piece presence for the terminal and as HTML charts.
package render

import (
	"fmt"
	"io"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/Sumatoshi-tech/pieces/pkg/alg/interval"
)

const percentageValue = 100

// Summary prints a coloured coverage line: green when every piece is
// present, yellow when some are, red when none are.
func Summary(w io.Writer, label string, size, missing int) {
	present := size - missing

	coverage := 0.0
	if size > 0 {
		coverage = float64(present) * percentageValue / float64(size)
	}

	attr := color.FgYellow

	switch {
	case missing == 0:
		attr = color.FgGreen
	case present == 0:
		attr = color.FgRed
	}

	color.New(attr).Fprintf(w, "%s: %s/%s pieces present (%.1f%%), %s missing\n",
		label, humanize.Comma(int64(present)), humanize.Comma(int64(size)), coverage, humanize.Comma(int64(missing)))
}

// Ranges prints ranges as a table. maxRows <= 0 prints every row; otherwise
// the remainder is folded into a final "..." row. The footer totals the
// pieces over all ranges.
func Ranges(w io.Writer, title string, ranges []interval.Interval, maxRows int) {
	tbl := table.NewWriter()
	tbl.SetOutputMirror(w)
	tbl.SetStyle(table.StyleLight)
	tbl.SetTitle(title)
	tbl.AppendHeader(table.Row{"#", "Start", "End", "Pieces"})

	total := 0

	for i, r := range ranges {
		total += r.Len()

		if maxRows > 0 && i >= maxRows {
			continue
		}

		tbl.AppendRow(table.Row{i, r.Start, r.End, humanize.Comma(int64(r.Len()))})
	}

	if hidden := len(ranges) - maxRows; maxRows > 0 && hidden > 0 {
		tbl.AppendRow(table.Row{"...", "", "", fmt.Sprintf("%d more ranges", hidden)})
	}

	tbl.AppendFooter(table.Row{"", "", "Total", humanize.Comma(int64(total))})
	tbl.Render()
}

// MissingChart writes an HTML line chart of the missing count after each
// arrival. samples[i] is the count after i arrivals.
func MissingChart(w io.Writer, title string, samples []int) error {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: "500px", PageTitle: title}),
		charts.WithTitleOpts(opts.Title{Title: title}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "slider", Start: 0, End: percentageValue}),
		charts.WithXAxisOpts(opts.XAxis{Name: "arrivals"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "missing"}),
	)

	labels := make([]string, len(samples))
	data := make([]opts.LineData, len(samples))

	for i, v := range samples {
		labels[i] = strconv.Itoa(i)
		data[i] = opts.LineData{Value: v}
	}

	line.SetXAxis(labels).AddSeries("missing", data,
		charts.WithAreaStyleOpts(opts.AreaStyle{Opacity: opts.Float(0.2)}),
	)

	err := line.Render(w)
	if err != nil {
		return fmt.Errorf("render missing chart: %w", err)
	}

	return nil
}
