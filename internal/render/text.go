// Package render turns assistant answers into terminal text and PDF reports.
package render

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/decisioniq/decisioniq-api/internal/assistant"
	"github.com/decisioniq/decisioniq-api/internal/view"
)

const (
	barWidth   = 30
	plotHeight = 8
	plotStep   = 4
)

var seriesMarks = []rune{'●', '▲', '■', '◆', '✚', '★'}

// Options control how a single answer is drawn.
type Options struct {
	Charts view.ChartPrefs
	Dark   bool
}

// Text writes resp to w. Text-only answers print the intro alone; chart
// answers add every section that survived normalization.
func Text(w io.Writer, resp assistant.Response, opts Options) error {
	resp = resp.Normalize()
	p := &printer{w: w, dark: opts.Dark}

	intro := resp.IntroText
	if intro == "" && !resp.IsChartResponse {
		intro = "(no answer)"
	}
	if intro != "" {
		p.line(intro)
	}
	if !resp.IsChartResponse {
		return p.err
	}

	if len(resp.KeyInsights) > 0 {
		p.heading("Key insights")
		for _, s := range resp.KeyInsights {
			p.line("  • " + s)
		}
	}

	if resp.HasPerformance() {
		p.heading(fmt.Sprintf("Performance (%s)", opts.Charts.Performance))
		switch opts.Charts.Performance {
		case view.PerformanceLine, view.PerformanceArea:
			p.plot(resp.PerformanceData, resp.MetricKeys(), opts.Charts.Performance == view.PerformanceArea)
		default:
			p.metricBars(resp.PerformanceData, resp.MetricKeys())
		}
	}

	if resp.HasValues() {
		p.heading(fmt.Sprintf("Value (%s)", opts.Charts.Value))
		if opts.Charts.Value == view.ValueBar {
			p.valueBars(resp.PriceData)
		} else {
			p.valueShares(resp.PriceData)
		}
	}

	if t := resp.ComparisonTable; t != nil {
		p.heading("Comparison")
		p.table(t.Headers, t.Rows)
	}

	if len(resp.ProsCons) > 0 {
		p.heading("Pros & cons")
		for _, item := range resp.ProsCons {
			p.line("  " + item.Name)
			for _, s := range item.Pros {
				p.line("    + " + s)
			}
			for _, s := range item.Cons {
				p.line("    - " + s)
			}
		}
	}

	if resp.FinalRecommendation != "" {
		p.heading("Recommendation")
		p.line(resp.FinalRecommendation)
	}
	return p.err
}

type printer struct {
	w    io.Writer
	dark bool
	err  error
}

func (p *printer) line(s string) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintln(p.w, s)
}

func (p *printer) heading(s string) {
	color := "\033[1;34m"
	if p.dark {
		color = "\033[1;96m"
	}
	p.line("")
	p.line(color + s + "\033[0m")
}

func (p *printer) metricBars(rows []assistant.MetricRow, keys []string) {
	var peak float64
	for _, row := range rows {
		for _, m := range row.Metrics {
			peak = math.Max(peak, m.Value)
		}
	}
	width := labelWidth(rows)
	for _, key := range keys {
		p.line("  " + key)
		for _, row := range rows {
			v, ok := row.Value(key)
			if !ok {
				continue
			}
			p.line(fmt.Sprintf("    %-*s %s %s", width, row.Name, bar(v, peak, barWidth), formatNumber(v)))
		}
	}
}

// plot draws every metric on a shared grid, one column group per row.
// Area mode shades below each point.
func (p *printer) plot(rows []assistant.MetricRow, keys []string, fill bool) {
	lo, hi := 0.0, 0.0
	for _, row := range rows {
		for _, m := range row.Metrics {
			lo, hi = math.Min(lo, m.Value), math.Max(hi, m.Value)
		}
	}
	if hi == lo {
		hi = lo + 1
	}
	level := func(v float64) int {
		return int(math.Round((v - lo) / (hi - lo) * (plotHeight - 1)))
	}

	cols := (len(rows)-1)*plotStep + 1
	grid := make([][]rune, plotHeight)
	for i := range grid {
		grid[i] = []rune(strings.Repeat(" ", cols))
	}
	set := func(lvl, col int, r rune, overwrite bool) {
		row := plotHeight - 1 - lvl
		if overwrite || grid[row][col] == ' ' {
			grid[row][col] = r
		}
	}

	for k, key := range keys {
		mark := seriesMarks[k%len(seriesMarks)]
		prev, prevOK := 0, false
		for i, row := range rows {
			v, ok := row.Value(key)
			if !ok {
				prevOK = false
				continue
			}
			col, lvl := i*plotStep, level(v)
			if fill {
				for l := 0; l < lvl; l++ {
					set(l, col, '░', false)
				}
			}
			if prevOK {
				for s := 1; s < plotStep; s++ {
					mid := prev + int(math.Round(float64(lvl-prev)*float64(s)/plotStep))
					set(mid, col-plotStep+s, '·', false)
					if fill {
						for l := 0; l < mid; l++ {
							set(l, col-plotStep+s, '░', false)
						}
					}
				}
			}
			set(lvl, col, mark, true)
			prev, prevOK = lvl, true
		}
	}

	axis := len(formatNumber(hi))
	if n := len(formatNumber(lo)); n > axis {
		axis = n
	}
	for i, r := range grid {
		label := ""
		switch i {
		case 0:
			label = formatNumber(hi)
		case plotHeight - 1:
			label = formatNumber(lo)
		}
		p.line(fmt.Sprintf("  %*s │%s", axis, label, string(r)))
	}
	p.line(fmt.Sprintf("  %*s └%s", axis, "", strings.Repeat("─", cols)))

	ticks := []rune(strings.Repeat(" ", cols))
	for i := range rows {
		if i < 9 {
			ticks[i*plotStep] = rune('1' + i)
		}
	}
	p.line(fmt.Sprintf("  %*s  %s", axis, "", string(ticks)))

	for i, row := range rows {
		p.line(fmt.Sprintf("    %d %s", i+1, row.Name))
	}
	legend := make([]string, len(keys))
	for k, key := range keys {
		legend[k] = fmt.Sprintf("%c %s", seriesMarks[k%len(seriesMarks)], key)
	}
	p.line("    " + strings.Join(legend, "   "))
}

func (p *printer) valueBars(rows []assistant.ValueRow) {
	var peak float64
	for _, r := range rows {
		peak = math.Max(peak, r.Value)
	}
	width := 0
	for _, r := range rows {
		width = max(width, len([]rune(r.Name)))
	}
	for _, r := range rows {
		p.line(fmt.Sprintf("  %-*s %s %s", width, r.Name, bar(r.Value, peak, barWidth), formatNumber(r.Value)))
	}
}

// valueShares shows each value as a slice of the total.
func (p *printer) valueShares(rows []assistant.ValueRow) {
	shares := Shares(rows)
	width := 0
	for _, r := range rows {
		width = max(width, len([]rune(r.Name)))
	}
	for i, r := range rows {
		p.line(fmt.Sprintf("  %-*s %s %5.1f%%  (%s)", width, r.Name, bar(shares[i], 100, barWidth/2), shares[i], formatNumber(r.Value)))
	}
}

func (p *printer) table(headers []string, rows [][]string) {
	if p.err != nil {
		return
	}
	tw := tabwriter.NewWriter(p.w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "  "+strings.Join(headers, "\t"))
	rule := make([]string, len(headers))
	for i, h := range headers {
		rule[i] = strings.Repeat("-", max(len([]rune(h)), 3))
	}
	fmt.Fprintln(tw, "  "+strings.Join(rule, "\t"))
	for _, row := range rows {
		fmt.Fprintln(tw, "  "+strings.Join(row, "\t"))
	}
	p.err = tw.Flush()
}

// Shares returns each value's percentage of the positive total. Negative
// values count as zero.
func Shares(rows []assistant.ValueRow) []float64 {
	var total float64
	for _, r := range rows {
		total += math.Max(r.Value, 0)
	}
	out := make([]float64, len(rows))
	if total == 0 {
		return out
	}
	for i, r := range rows {
		out[i] = math.Max(r.Value, 0) / total * 100
	}
	return out
}

func bar(v, peak float64, width int) string {
	if peak <= 0 || v <= 0 {
		return strings.Repeat(" ", width)
	}
	n := int(math.Round(v / peak * float64(width)))
	if n > width {
		n = width
	}
	return strings.Repeat("█", n) + strings.Repeat(" ", width-n)
}

func labelWidth(rows []assistant.MetricRow) int {
	w := 0
	for _, r := range rows {
		w = max(w, len([]rune(r.Name)))
	}
	return w
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
