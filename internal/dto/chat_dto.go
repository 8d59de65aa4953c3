package dto

type ChatRequest struct {
	Query    string `json:"query"`
	Category string `json:"category"`
	Model    string `json:"model"`
}

type ModelsResponse struct {
	Default    string   `json:"default"`
	Models     []string `json:"models"`
	Categories []string `json:"categories"`
}
