package project_sandbox

import (
	"errors"
	"fmt"
	"strings"

	"github.com/openlovable/lovable/project_sandbox/models"
)

var ErrPathOutsideRoot = errors.New("path escapes project root")

// IOError wraps a filesystem failure with the operation and path involved.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// WriteError aggregates the per-file failures of one Materialize call.
type WriteError struct {
	Failures []models.FileFailure
}

func (e *WriteError) Error() string {
	paths := make([]string, 0, len(e.Failures))
	for _, failure := range e.Failures {
		paths = append(paths, failure.Path)
	}
	return fmt.Sprintf("failed to write %d file(s): %s", len(e.Failures), strings.Join(paths, ", "))
}

func (e *WriteError) Unwrap() []error {
	errs := make([]error, 0, len(e.Failures))
	for _, failure := range e.Failures {
		errs = append(errs, failure.Err)
	}
	return errs
}

func IsIOError(err error) bool {
	var ioErr *IOError
	return errors.As(err, &ioErr)
}
