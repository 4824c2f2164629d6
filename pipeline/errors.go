package pipeline

import "errors"

var (
	// ErrTurnInProgress rejects a turn submitted while another one runs.
	ErrTurnInProgress    = errors.New("a generation turn is already in progress")
	ErrEmptyRequest      = errors.New("request text is empty")
	ErrFileNotFound      = errors.New("file not found in project")
	ErrMissingDependency = errors.New("pipeline dependency not provided")
	ErrNoProject         = errors.New("no project directory to write into")
)
