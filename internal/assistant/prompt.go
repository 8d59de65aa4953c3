package assistant

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/decisioniq/decisioniq-api/internal/dataset"
)

// MaxDatasetRows bounds how many spreadsheet rows are sent to the model.
const MaxDatasetRows = 500

// Categories are the filters offered to users. Any other non-empty label is
// still accepted as a constraint.
var Categories = []string{"All", "Electronics", "Travel", "Software", "Finance", "Healthcare"}

const responseShape = `{
  "isChartResponse": true,
  "introText": "Brief introduction paragraph summarizing what you found.",
  "keyInsights": ["Insight 1", "Insight 2", "Insight 3"],
  "performanceData": [ { "name": "Item 1", "PerformanceMetric1": 90, "PerformanceMetric2": 80 } ],
  "priceData": [ { "name": "Item 1", "value": 1500 } ],
  "comparisonTable": {
    "headers": ["Feature", "Item 1", "Item 2"],
    "rows": [
      ["Processor", "Intel i7", "AMD Ryzen 7"],
      ["RAM", "16GB", "32GB"]
    ]
  },
  "prosCons": [
    { "name": "Item 1", "pros": ["Pro 1"], "cons": ["Con 1"] },
    { "name": "Item 2", "pros": ["Pro 1"], "cons": ["Con 1"] }
  ],
  "finalRecommendation": "Your final verdict paragraph explaining why you chose a specific option."
}`

const textShape = `{
  "isChartResponse": false,
  "introText": "Your full response here."
}`

const queryPreamble = `You are Decision IQ, an intelligent assistant.
The user will ask you questions (like laptop comparisons, software comparisons, etc).`

const datasetPreamble = `You are Decision IQ, an expert data analyst.
The user has uploaded a dataset from an Excel file. Analyze the JSON data below and provide deep insights, trends, and a prediction decision based on the data.`

// IsFiltered reports whether category narrows the permitted topics.
func IsFiltered(category string) bool {
	c := strings.TrimSpace(category)
	return c != "" && !strings.EqualFold(c, "All")
}

// BuildPrompt combines the fixed instruction with the user's query.
func BuildPrompt(query, category string) string {
	var b strings.Builder
	b.WriteString(queryPreamble)
	b.WriteString("\n")
	if IsFiltered(category) {
		b.WriteString(categoryRule(strings.TrimSpace(category)))
		b.WriteString("\n")
	}
	b.WriteString("\nIf the user asks for a comparison or graphs, you MUST return your entire response as a valid JSON object matching this exact structure:\n")
	b.WriteString(responseShape)
	b.WriteString("\nMake sure performance metrics apply to the question (e.g. CPU/GPU for laptops, Speed/Reliability for internet, etc).\n")
	b.WriteString("If the user's question does NOT require charts")
	if IsFiltered(category) {
		b.WriteString(" (or if you are refusing due to the category filter)")
	}
	b.WriteString(", just return standard text but in JSON format:\n")
	b.WriteString(textShape)
	b.WriteString("\nReturn ONLY valid raw JSON, do not wrap it in a markdown code block. Keep it strictly parseable.")
	b.WriteString("\n\nUser Query: ")
	b.WriteString(strings.TrimSpace(query))
	return b.String()
}

// BuildDatasetPrompt describes the same response shape for an uploaded
// dataset. Rows beyond MaxDatasetRows are dropped before encoding.
func BuildDatasetPrompt(rows dataset.Rows) (string, error) {
	data, err := json.Marshal(rows.Head(MaxDatasetRows))
	if err != nil {
		return "", fmt.Errorf("encode dataset: %w", err)
	}

	var b strings.Builder
	b.WriteString(datasetPreamble)
	b.WriteString("\n\nYour response MUST be a valid JSON object matching this exact structure:\n")
	b.WriteString(responseShape)
	b.WriteString("\nUse performanceData for the main numeric measures per category or item and priceData for the single most important value per category or item.\n")
	b.WriteString("finalRecommendation carries your prediction decision or strategic recommendation.\n")
	b.WriteString("If the data cannot be charted, return:\n")
	b.WriteString(textShape)
	b.WriteString("\nReturn ONLY valid raw JSON.")
	b.WriteString("\n\nDataset JSON: ")
	b.Write(data)
	return b.String(), nil
}

func categoryRule(category string) string {
	return fmt.Sprintf("CRITICAL RULE: The user has selected the %q category filter. "+
		"If the user's query is NOT related to %s, you MUST refuse to answer and return the plain text JSON shape "+
		"stating that the query falls outside the selected domain filter. DO NOT answer questions outside the %s category.",
		category, category, category)
}
