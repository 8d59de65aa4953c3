package assistant

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"
)

const chartReply = `{
  "isChartResponse": true,
  "introText": "Two laptops compared.",
  "keyInsights": ["A is faster", " ", "B is cheaper"],
  "performanceData": [
    {"name": "Laptop A", "CPU": 90, "GPU": "85"},
    {"name": "Laptop B", "CPU": 80, "GPU": 70, "note": "ignored"},
    {"name": "", "CPU": 1}
  ],
  "priceData": [{"name": "Laptop A", "value": 1500}, {"name": "Laptop B", "value": "1200"}],
  "comparisonTable": {"headers": ["Feature", "A", "B"], "rows": [["RAM", "16GB"], ["Weight", 1.4, 1.9, "extra"]]},
  "prosCons": [{"name": "Laptop A", "pros": ["Fast"], "cons": ["Pricey"]}, {"name": "Empty"}],
  "finalRecommendation": "Pick A. "
}`

func TestParseReplyFencedEqualsUnfenced(t *testing.T) {
	plain := ParseReply(chartReply)
	fenced := ParseReply("```json\n" + chartReply + "\n```")
	if !reflect.DeepEqual(plain, fenced) {
		t.Fatalf("fenced reply parsed differently:\n%+v\n%+v", plain, fenced)
	}
	bare := ParseReply("```\n" + chartReply + "\n```")
	if !reflect.DeepEqual(plain, bare) {
		t.Fatalf("bare fence parsed differently")
	}
}

func TestParseReplyChartShape(t *testing.T) {
	r := ParseReply(chartReply)

	if !r.IsChartResponse || r.IntroText != "Two laptops compared." {
		t.Fatalf("unexpected head: %+v", r)
	}
	if got := strings.Join(r.KeyInsights, "|"); got != "A is faster|B is cheaper" {
		t.Errorf("insights = %q", got)
	}
	if len(r.PerformanceData) != 2 {
		t.Fatalf("performance rows = %d, want 2", len(r.PerformanceData))
	}
	if v, ok := r.PerformanceData[0].Value("GPU"); !ok || v != 85 {
		t.Errorf("numeric string metric = %v %v", v, ok)
	}
	if got := strings.Join(r.MetricKeys(), ","); got != "CPU,GPU" {
		t.Errorf("metric keys = %q", got)
	}
	if r.PriceData[1].Value != 1200 {
		t.Errorf("price value = %v", r.PriceData[1].Value)
	}
	table := r.ComparisonTable
	if table == nil || len(table.Rows) != 2 {
		t.Fatalf("table = %+v", table)
	}
	if got := strings.Join(table.Rows[0], "|"); got != "RAM|16GB|" {
		t.Errorf("short row not padded: %q", got)
	}
	if got := strings.Join(table.Rows[1], "|"); got != "Weight|1.4|1.9" {
		t.Errorf("long row not trimmed: %q", got)
	}
	if len(r.ProsCons) != 1 {
		t.Errorf("pros/cons = %+v", r.ProsCons)
	}
	if r.FinalRecommendation != "Pick A." {
		t.Errorf("recommendation = %q", r.FinalRecommendation)
	}
}

func TestParseReplyInvalidJSONFallsBack(t *testing.T) {
	raw := "Sure! Laptop A is better for gaming."
	r := ParseReply(raw)
	if r.IsChartResponse {
		t.Fatal("fallback must be plain text")
	}
	if !strings.Contains(r.IntroText, raw) {
		t.Fatalf("fallback text %q does not carry the raw reply", r.IntroText)
	}
}

func TestParseReplyFallbackCases(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"empty", ""},
		{"array", `["a", "b"]`},
		{"null", "null"},
		{"truncated", `{"isChartResponse": true, "introText": "cut`},
		{"empty object", "{}"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := ParseReply(tt.in)
			if r.IsChartResponse || r.IntroText == "" {
				t.Fatalf("got %+v, want non-empty plain text", r)
			}
			if !strings.HasPrefix(r.IntroText, fallbackPreamble) {
				t.Fatalf("missing fallback preamble: %q", r.IntroText)
			}
		})
	}
}

func TestParseReplyExtractsEmbeddedObject(t *testing.T) {
	r := ParseReply(`Here you go: {"isChartResponse": false, "introText": "Hello"} Hope it helps.`)
	if r.IntroText != "Hello" {
		t.Fatalf("IntroText = %q, want Hello", r.IntroText)
	}
}

func TestParseReplyPlainTextDropsChartFields(t *testing.T) {
	r := ParseReply(`{"isChartResponse": false, "introText": "Just text", "priceData": [{"name":"x","value":1}]}`)
	if !reflect.DeepEqual(r, PlainText("Just text")) {
		t.Fatalf("got %+v", r)
	}
}

func TestParseReplyTextAlias(t *testing.T) {
	r := ParseReply(`{"text": "From the text field"}`)
	if r.IntroText != "From the text field" {
		t.Fatalf("IntroText = %q", r.IntroText)
	}
}

func TestParseReplyToleratesBadSection(t *testing.T) {
	r := ParseReply(`{"isChartResponse": true, "introText": "Intro", "performanceData": "oops", "finalRecommendation": "Go"}`)
	if r.IntroText != "Intro" || r.FinalRecommendation != "Go" || len(r.PerformanceData) != 0 {
		t.Fatalf("got %+v", r)
	}
}

func TestMetricRowJSONKeepsOrder(t *testing.T) {
	var row MetricRow
	if err := json.Unmarshal([]byte(`{"Speed": 3, "name": "X", "Reliability": 4.5}`), &row); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	out, err := json.Marshal(row)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(out) != `{"name":"X","Speed":3,"Reliability":4.5}` {
		t.Fatalf("json = %s", out)
	}
}

func TestStripFences(t *testing.T) {
	if got := StripFences("```JSON\n{}\n```  "); got != "{}" {
		t.Fatalf("StripFences = %q", got)
	}
}

func TestParseReplyDropsNonFiniteNumbers(t *testing.T) {
	reply := `{"isChartResponse":true,"introText":"x",
	  "performanceData":[{"name":"A","Speed":"NaN","Power":"Infinity"},{"name":"B","Speed":"-Inf","Power":7}],
	  "priceData":[{"name":"A","value":"Inf"},{"name":"B","value":"NaN"}]}`

	resp := ParseReply(reply)
	if len(resp.PerformanceData) != 1 || resp.PerformanceData[0].Name != "B" {
		t.Fatalf("performanceData = %+v", resp.PerformanceData)
	}
	if got := resp.MetricKeys(); !reflect.DeepEqual(got, []string{"Power"}) {
		t.Fatalf("MetricKeys = %v", got)
	}
	for _, row := range resp.PriceData {
		if row.Value != 0 {
			t.Fatalf("value row %q = %v, want 0", row.Name, row.Value)
		}
	}

	data, err := json.Marshal(resp)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if !json.Valid(data) {
		t.Fatalf("invalid JSON: %s", data)
	}
}
