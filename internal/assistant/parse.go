package assistant

import (
	"encoding/json"
	"strings"
)

const fallbackPreamble = "I'm having trouble formatting the data. Here is my raw response:\n\n"

// StripFences removes markdown code fences (```json ... ```) wrapped around
// or embedded in a model reply.
func StripFences(text string) string {
	text = strings.ReplaceAll(text, "```json", "")
	text = strings.ReplaceAll(text, "```JSON", "")
	text = strings.ReplaceAll(text, "```", "")
	return strings.TrimSpace(text)
}

// ParseReply turns raw model text into a renderable Response. It never
// fails: text that is not a JSON object becomes a plain-text response that
// carries the raw reply.
func ParseReply(text string) Response {
	cleaned := StripFences(text)

	if resp, ok := decodeObject(cleaned); ok {
		return orFallback(resp.Normalize(), text)
	}

	// Models sometimes add a sentence before or after the object.
	start := strings.Index(cleaned, "{")
	end := strings.LastIndex(cleaned, "}")
	if start >= 0 && end > start {
		if resp, ok := decodeObject(cleaned[start : end+1]); ok {
			return orFallback(resp.Normalize(), text)
		}
	}

	return Fallback(text)
}

// Fallback wraps an unparseable reply in the plain-text variant.
func Fallback(raw string) Response {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		raw = "(the model returned an empty reply)"
	}
	return PlainText(fallbackPreamble + raw)
}

// orFallback replaces an object that carries nothing renderable.
func orFallback(resp Response, raw string) Response {
	if resp.IsEmpty() {
		return Fallback(raw)
	}
	return resp
}

func decodeObject(s string) (Response, bool) {
	if !strings.HasPrefix(s, "{") {
		return Response{}, false
	}
	var resp Response
	if err := json.Unmarshal([]byte(s), &resp); err != nil {
		return Response{}, false
	}
	return resp, true
}
