package models

// Diagnosis is the result of a toolchain preflight check.
type Diagnosis struct {
	OK       bool   `json:"ok"`
	NodePath string `json:"node_path,omitempty"`
	NpmPath  string `json:"npm_path,omitempty"`
	Version  string `json:"version,omitempty"`
	Message  string `json:"message"`
}
