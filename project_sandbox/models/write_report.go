package models

// FileFailure is one file Materialize could not write.
type FileFailure struct {
	Path string `json:"path"`
	Err  error  `json:"-"`
}

// WriteReport lists what happened to every file of a Materialize call.
type WriteReport struct {
	Written   []string      `json:"written"`
	Unchanged []string      `json:"unchanged"`
	Failed    []FileFailure `json:"failed"`
}

// Applied are the paths whose content on disk now matches the request.
func (r *WriteReport) Applied() []string {
	return append(append([]string{}, r.Written...), r.Unchanged...)
}

// SandboxStats describes the sandbox root.
type SandboxStats struct {
	Root      string `json:"root"`
	Projects  int    `json:"projects"`
	TotalSize int64  `json:"total_size"`
}
