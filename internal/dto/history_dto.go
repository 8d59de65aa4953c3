package dto

import "encoding/json"

// SaveHistoryRequest carries the answer object exactly as the client
// received it; the server stores it without reshaping.
type SaveHistoryRequest struct {
	Query    string          `json:"query"`
	Response json.RawMessage `json:"response"`
	Category string          `json:"category"`
}
