package models

// GeneratedFile is one file block of a generation, path relative to the project root.
type GeneratedFile struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

// GeneratedArtifact is the structured result of one generation turn.
// Files keep duplicates in source order; the last write to a path wins.
type GeneratedArtifact struct {
	Files       []GeneratedFile `json:"files"`
	Packages    []string        `json:"packages"`
	Commands    []string        `json:"commands"`
	Explanation *string         `json:"explanation,omitempty"`
	Structure   *string         `json:"structure,omitempty"`
}
