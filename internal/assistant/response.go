package assistant

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Response is the structured answer shape the model is asked to produce.
// IsChartResponse selects the variant: when false only IntroText is
// meaningful; when true the optional sections below may be present.
type Response struct {
	IsChartResponse     bool             `json:"isChartResponse"`
	IntroText           string           `json:"introText"`
	KeyInsights         []string         `json:"keyInsights,omitempty"`
	PerformanceData     []MetricRow      `json:"performanceData,omitempty"`
	PriceData           []ValueRow       `json:"priceData,omitempty"`
	ComparisonTable     *ComparisonTable `json:"comparisonTable,omitempty"`
	ProsCons            []ProsCons       `json:"prosCons,omitempty"`
	FinalRecommendation string           `json:"finalRecommendation,omitempty"`
}

// Metric is one named value inside a MetricRow.
type Metric struct {
	Key   string
	Value float64
}

// MetricRow is a performance series point: {"name": "...", "<metric>": n, ...}.
// Metric order follows the order the model wrote them in.
type MetricRow struct {
	Name    string
	Metrics []Metric
}

type ValueRow struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

type ComparisonTable struct {
	Headers []string   `json:"headers"`
	Rows    [][]string `json:"rows"`
}

type ProsCons struct {
	Name string   `json:"name"`
	Pros []string `json:"pros"`
	Cons []string `json:"cons"`
}

// PlainText builds the text-only variant.
func PlainText(text string) Response {
	return Response{IntroText: text}
}

// HasPerformance reports whether a performance chart can be drawn.
func (r Response) HasPerformance() bool {
	return r.IsChartResponse && len(r.PerformanceData) > 0
}

// HasValues reports whether a value chart can be drawn.
func (r Response) HasValues() bool {
	return r.IsChartResponse && len(r.PriceData) > 0
}

// IsEmpty reports whether there is nothing to show at all.
func (r Response) IsEmpty() bool {
	return r.IntroText == "" && len(r.KeyInsights) == 0 && len(r.PerformanceData) == 0 &&
		len(r.PriceData) == 0 && r.ComparisonTable == nil && len(r.ProsCons) == 0 &&
		r.FinalRecommendation == ""
}

// MetricKeys returns the union of metric names across the performance rows,
// in first-seen order.
func (r Response) MetricKeys() []string {
	seen := make(map[string]bool)
	var keys []string
	for _, row := range r.PerformanceData {
		for _, m := range row.Metrics {
			if !seen[m.Key] {
				seen[m.Key] = true
				keys = append(keys, m.Key)
			}
		}
	}
	return keys
}

// Value returns the metric named key and whether the row has it.
func (m MetricRow) Value(key string) (float64, bool) {
	for _, metric := range m.Metrics {
		if metric.Key == key {
			return metric.Value, true
		}
	}
	return 0, false
}

// Normalize makes the response safe to render. Text-only responses lose
// every chart field; chart responses drop rows and sections that are
// incomplete instead of failing.
func (r Response) Normalize() Response {
	r.IntroText = strings.TrimSpace(r.IntroText)
	if !r.IsChartResponse {
		return PlainText(r.IntroText)
	}

	insights := r.KeyInsights[:0:0]
	for _, s := range r.KeyInsights {
		if s = strings.TrimSpace(s); s != "" {
			insights = append(insights, s)
		}
	}
	r.KeyInsights = insights

	perf := r.PerformanceData[:0:0]
	for _, row := range r.PerformanceData {
		if strings.TrimSpace(row.Name) != "" && len(row.Metrics) > 0 {
			perf = append(perf, row)
		}
	}
	r.PerformanceData = perf

	values := r.PriceData[:0:0]
	for _, row := range r.PriceData {
		if strings.TrimSpace(row.Name) != "" {
			values = append(values, row)
		}
	}
	r.PriceData = values

	if t := r.ComparisonTable; t != nil {
		if len(t.Headers) == 0 {
			r.ComparisonTable = nil
		} else {
			fixed := &ComparisonTable{Headers: t.Headers}
			for _, row := range t.Rows {
				if len(row) == 0 {
					continue
				}
				cells := make([]string, len(t.Headers))
				copy(cells, row)
				fixed.Rows = append(fixed.Rows, cells)
			}
			r.ComparisonTable = fixed
		}
	}

	pc := r.ProsCons[:0:0]
	for _, item := range r.ProsCons {
		if strings.TrimSpace(item.Name) != "" && (len(item.Pros) > 0 || len(item.Cons) > 0) {
			pc = append(pc, item)
		}
	}
	r.ProsCons = pc

	r.FinalRecommendation = strings.TrimSpace(r.FinalRecommendation)
	return r
}

// UnmarshalJSON decodes field by field so a single malformed section does
// not discard the rest of the answer.
func (r *Response) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	if fields == nil {
		return fmt.Errorf("response is null")
	}

	var out Response
	decodeField(fields, "isChartResponse", &out.IsChartResponse)
	if !decodeField(fields, "introText", &out.IntroText) {
		// Some replies put the whole answer under "text" or "response".
		if !decodeField(fields, "text", &out.IntroText) {
			decodeField(fields, "response", &out.IntroText)
		}
	}
	decodeField(fields, "keyInsights", &out.KeyInsights)
	decodeField(fields, "performanceData", &out.PerformanceData)
	decodeField(fields, "priceData", &out.PriceData)
	decodeField(fields, "comparisonTable", &out.ComparisonTable)
	decodeField(fields, "prosCons", &out.ProsCons)
	decodeField(fields, "finalRecommendation", &out.FinalRecommendation)

	*r = out
	return nil
}

func decodeField(fields map[string]json.RawMessage, key string, dst any) bool {
	raw, ok := fields[key]
	if !ok {
		return false
	}
	return json.Unmarshal(raw, dst) == nil
}

func (m MetricRow) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(`{"name":`)
	name, err := json.Marshal(m.Name)
	if err != nil {
		return nil, err
	}
	buf.Write(name)
	for _, metric := range m.Metrics {
		key, err := json.Marshal(metric.Key)
		if err != nil {
			return nil, err
		}
		buf.WriteByte(',')
		buf.Write(key)
		buf.WriteByte(':')
		buf.WriteString(strconv.FormatFloat(metric.Value, 'f', -1, 64))
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON keeps numeric members as metrics in document order. Numeric
// strings such as "90" are accepted; any other member is ignored.
func (m *MetricRow) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("metric row must be an object")
	}

	var out MetricRow
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, _ := keyTok.(string)

		var value any
		if err := dec.Decode(&value); err != nil {
			return err
		}
		if key == "name" {
			if value != nil {
				out.Name = fmt.Sprint(value)
			}
			continue
		}
		if f, ok := toFloat(value); ok {
			out.Metrics = append(out.Metrics, Metric{Key: key, Value: f})
		}
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*m = out
	return nil
}

func (v *ValueRow) UnmarshalJSON(data []byte) error {
	var raw struct {
		Name  any `json:"name"`
		Value any `json:"value"`
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	if raw.Name != nil {
		v.Name = fmt.Sprint(raw.Name)
	}
	v.Value, _ = toFloat(raw.Value)
	return nil
}

// UnmarshalJSON accepts numbers and booleans in table cells and renders
// them as text.
func (t *ComparisonTable) UnmarshalJSON(data []byte) error {
	var raw struct {
		Headers []any   `json:"headers"`
		Rows    [][]any `json:"rows"`
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	t.Headers = cellsToStrings(raw.Headers)
	t.Rows = make([][]string, 0, len(raw.Rows))
	for _, row := range raw.Rows {
		t.Rows = append(t.Rows, cellsToStrings(row))
	}
	return nil
}

func cellsToStrings(cells []any) []string {
	out := make([]string, len(cells))
	for i, c := range cells {
		if c != nil {
			out[i] = fmt.Sprint(c)
		}
	}
	return out
}

// toFloat accepts finite numbers only; NaN and infinities cannot be encoded
// as JSON.
func toFloat(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case float64:
		f = n
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
