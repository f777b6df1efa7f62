package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/spigell/screener/internal/state"
)

var (
	// ErrMissingInput is returned before any stage runs when the job text or the
	// candidate documents are absent.
	ErrMissingInput = errors.New("missing required input")
	// ErrNoEntry is returned by Compile when no entry stage was set.
	ErrNoEntry = errors.New("graph has no entry stage")
	errFatal   = errors.New("fatal stage error")
)

// GraphError describes an invalid graph declaration.
type GraphError struct {
	Stage  string
	Reason string
}

func (e *GraphError) Error() string {
	if e.Stage == "" {
		return "invalid graph: " + e.Reason
	}
	return fmt.Sprintf("invalid graph: stage %q: %s", e.Stage, e.Reason)
}

// StageError wraps an error that aborted the run inside a stage.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

type fatalError struct {
	err error
}

func (e *fatalError) Error() string { return e.err.Error() }

func (e *fatalError) Unwrap() []error { return []error{e.err, errFatal} }

// Fatal marks err so the executor aborts the run instead of recording it.
func Fatal(err error) error {
	if err == nil {
		return nil
	}
	return &fatalError{err: err}
}

// IsFatal reports whether err must abort the run rather than be accumulated.
func IsFatal(err error) bool {
	return errors.Is(err, errFatal) ||
		errors.Is(err, ErrMissingInput) ||
		errors.Is(err, state.ErrSchemaViolation) ||
		errors.Is(err, context.Canceled)
}
