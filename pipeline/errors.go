package pipeline

import (
	"errors"
	"fmt"
)

// Error wraps a single stage failure with the name of the stage that
// produced it. It is the one error type the pipeline surfaces to a
// caller; stage-specific error kinds (template, storage, cache, ...)
// are reachable by unwrapping.
type Error struct {
	Stage string
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("pipeline: stage %q: %v", e.Stage, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// wrapStage tags err with stage unless it is already a *Error, in
// which case it is forwarded unchanged so that provenance always
// names the stage where the failure originated, not where it was last
// passed through.
func wrapStage(stage string, err error) error {
	if err == nil {
		return nil
	}
	var pe *Error
	if errors.As(err, &pe) {
		return err
	}
	return &Error{Stage: stage, Err: err}
}
