package models

// StreamResponse is one event of a provider stream: a text fragment, an
// error, or the end marker.
type StreamResponse struct {
	Content string
	Err     error
	Done    bool
}

// Message is the provider-facing form of a conversation entry.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}
