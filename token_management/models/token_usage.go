package models

// TokenUsage is the running token count of a session.
type TokenUsage struct {
	Total  int `json:"total"`
	Input  int `json:"input"`
	Output int `json:"output"`
}
