package render

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/decisioniq/decisioniq-api/internal/assistant"
	"github.com/phpdave11/gofpdf"
)

const (
	pageMargin  = 14.0
	contentW    = 210 - 2*pageMargin
	pageBottom  = 270.0
	barMaxWidth = 110.0
)

// Report is one answer exported as a document.
type Report struct {
	Query       string
	Category    string
	Response    assistant.Response
	GeneratedAt time.Time
}

// PDF lays out the report on A4 pages and returns the encoded file.
func PDF(r Report) ([]byte, error) {
	resp := r.Response.Normalize()
	if r.GeneratedAt.IsZero() {
		r.GeneratedAt = time.Now()
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetTitle("Decision IQ Report", true)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFont("Helvetica", "B", 18)
	pdf.SetTextColor(20, 20, 20)
	pdf.Cell(0, 10, "Decision IQ Report")
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(80, 80, 80)
	pdf.Cell(0, 6, "Generated: "+r.GeneratedAt.Format("2006-01-02 15:04"))
	pdf.Ln(5)
	if r.Category != "" {
		pdf.Cell(0, 6, tr("Category: "+r.Category))
		pdf.Ln(5)
	}
	pdf.Ln(3)

	if q := strings.TrimSpace(r.Query); q != "" {
		section(pdf, "Question")
		pdf.SetFont("Helvetica", "I", 11)
		pdf.MultiCell(0, 6, tr(q), "", "L", false)
	}

	if resp.IntroText != "" {
		section(pdf, "Answer")
		pdf.SetFont("Helvetica", "", 11)
		pdf.MultiCell(0, 6, tr(resp.IntroText), "", "L", false)
	}

	if !resp.IsChartResponse {
		return finish(pdf)
	}

	if len(resp.KeyInsights) > 0 {
		section(pdf, "Key insights")
		pdf.SetFont("Helvetica", "", 11)
		for _, s := range resp.KeyInsights {
			pdf.MultiCell(0, 6, tr("- "+s), "", "L", false)
		}
	}

	if resp.HasPerformance() {
		section(pdf, "Performance")
		keys := resp.MetricKeys()
		headers := append([]string{"Name"}, keys...)
		rows := make([][]string, 0, len(resp.PerformanceData))
		for _, row := range resp.PerformanceData {
			cells := []string{row.Name}
			for _, k := range keys {
				if v, ok := row.Value(k); ok {
					cells = append(cells, formatNumber(v))
				} else {
					cells = append(cells, "")
				}
			}
			rows = append(rows, cells)
		}
		grid(pdf, tr, headers, rows)
	}

	if resp.HasValues() {
		section(pdf, "Value")
		var peak float64
		for _, row := range resp.PriceData {
			peak = max(peak, row.Value)
		}
		shares := Shares(resp.PriceData)
		pdf.SetFont("Helvetica", "", 10)
		for i, row := range resp.PriceData {
			if pdf.GetY() > pageBottom {
				pdf.AddPage()
			}
			pdf.CellFormat(45, 7, tr(trimTo(row.Name, 28)), "", 0, "L", false, 0, "")
			x, y := pdf.GetX(), pdf.GetY()
			if peak > 0 && row.Value > 0 {
				pdf.SetFillColor(59, 130, 246)
				pdf.Rect(x, y+1.5, barMaxWidth*row.Value/peak, 4, "F")
			}
			pdf.SetX(x + barMaxWidth + 2)
			pdf.CellFormat(0, 7, fmt.Sprintf("%s (%.1f%%)", formatNumber(row.Value), shares[i]), "", 1, "L", false, 0, "")
		}
	}

	if t := resp.ComparisonTable; t != nil {
		section(pdf, "Comparison")
		grid(pdf, tr, t.Headers, t.Rows)
	}

	if len(resp.ProsCons) > 0 {
		section(pdf, "Pros & cons")
		for _, item := range resp.ProsCons {
			pdf.SetFont("Helvetica", "B", 11)
			pdf.MultiCell(0, 6, tr(item.Name), "", "L", false)
			pdf.SetFont("Helvetica", "", 10)
			for _, s := range item.Pros {
				pdf.SetTextColor(22, 128, 61)
				pdf.MultiCell(0, 5, tr("+ "+s), "", "L", false)
			}
			for _, s := range item.Cons {
				pdf.SetTextColor(185, 28, 28)
				pdf.MultiCell(0, 5, tr("- "+s), "", "L", false)
			}
			pdf.SetTextColor(20, 20, 20)
			pdf.Ln(2)
		}
	}

	if resp.FinalRecommendation != "" {
		section(pdf, "Recommendation")
		pdf.SetFont("Helvetica", "", 11)
		pdf.SetFillColor(239, 246, 255)
		pdf.MultiCell(0, 6, tr(resp.FinalRecommendation), "1", "L", true)
	}

	return finish(pdf)
}

func section(pdf *gofpdf.Fpdf, title string) {
	if pdf.GetY() > pageBottom-10 {
		pdf.AddPage()
	}
	pdf.Ln(4)
	pdf.SetFont("Helvetica", "B", 13)
	pdf.SetTextColor(20, 20, 20)
	pdf.Cell(0, 8, title)
	pdf.Ln(9)
}

func grid(pdf *gofpdf.Fpdf, tr func(string) string, headers []string, rows [][]string) {
	w := contentW / float64(len(headers))
	limit := int(w / 2.2)

	head := func() {
		pdf.SetFont("Helvetica", "B", 9)
		pdf.SetFillColor(245, 245, 245)
		pdf.SetDrawColor(200, 200, 200)
		for i, h := range headers {
			ln := 0
			if i == len(headers)-1 {
				ln = 1
			}
			pdf.CellFormat(w, 8, tr(trimTo(h, limit)), "1", ln, "C", true, 0, "")
		}
		pdf.SetFont("Helvetica", "", 9)
	}

	head()
	for _, row := range rows {
		if pdf.GetY() > pageBottom {
			pdf.AddPage()
			head()
		}
		for i := range headers {
			cell := ""
			if i < len(row) {
				cell = row[i]
			}
			ln := 0
			if i == len(headers)-1 {
				ln = 1
			}
			pdf.CellFormat(w, 7, tr(trimTo(cell, limit)), "1", ln, "L", false, 0, "")
		}
	}
}

func finish(pdf *gofpdf.Fpdf) ([]byte, error) {
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func trimTo(s string, n int) string {
	r := []rune(strings.TrimSpace(s))
	if n < 2 || len(r) <= n {
		return string(r)
	}
	return string(r[:n-1]) + "…"
}
