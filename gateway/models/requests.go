package models

// TurnRequest starts a generation turn.
type TurnRequest struct {
	Prompt string `json:"prompt" binding:"required"`
}

// ProjectRequest replaces the live project with a fresh starter project.
type ProjectRequest struct {
	Name string `json:"name"`
}

// FileRequest saves editor content for an existing file.
type FileRequest struct {
	Path    string `json:"path" binding:"required"`
	Content string `json:"content"`
}
