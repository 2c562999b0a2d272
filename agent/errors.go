package agent

import "fmt"

// LanguageModelErrorKind classifies failures returned by a
// ChatCompletion backend.
type LanguageModelErrorKind int

const (
	ContextLengthExceeded LanguageModelErrorKind = iota
	TransientError
	PermanentError
)

func (k LanguageModelErrorKind) String() string {
	switch k {
	case ContextLengthExceeded:
		return "ContextLengthExceeded"
	case TransientError:
		return "TransientError"
	case PermanentError:
		return "PermanentError"
	default:
		return "Unknown"
	}
}

// LanguageModelError wraps a ChatCompletion failure with its kind, so
// that an optional backoff decorator can retry TransientError and
// surface everything else.
type LanguageModelError struct {
	Kind LanguageModelErrorKind
	Err  error
}

func (e *LanguageModelError) Error() string {
	return fmt.Sprintf("agent: language model: %s: %v", e.Kind, e.Err)
}

func (e *LanguageModelError) Unwrap() error { return e.Err }

// Retryable reports whether the error's kind is safe to retry. A
// backoff decorator wrapping a ChatCompletion uses this to tell a
// transient failure from one that should surface immediately.
func (e *LanguageModelError) Retryable() bool {
	return e.Kind == TransientError
}

// ToolErrorKind classifies a tool-dispatch failure.
type ToolErrorKind int

const (
	JSONArgsInvalid ToolErrorKind = iota
	WrongArguments
	NonZeroExit
	IOError
	OtherToolError
)

func (k ToolErrorKind) String() string {
	switch k {
	case JSONArgsInvalid:
		return "JsonArgsInvalid"
	case WrongArguments:
		return "WrongArguments"
	case NonZeroExit:
		return "NonZeroExit"
	case IOError:
		return "Io"
	case OtherToolError:
		return "Other"
	default:
		return "Unknown"
	}
}

// ToolError wraps a tool-dispatch failure with its kind.
type ToolError struct {
	Kind ToolErrorKind
	Tool string
	Err  error
}

func (e *ToolError) Error() string {
	return fmt.Sprintf("agent: tool %q: %s: %v", e.Tool, e.Kind, e.Err)
}

func (e *ToolError) Unwrap() error { return e.Err }

// Error is the agent-runtime error type: everything that is not a
// recoverable tool-argument failure (those are fed back into the
// conversation instead, see the dispatch loop) surfaces as one of
// these and drives the transition to Stopped{Error}.
type Error struct {
	Reason string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("agent: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("agent: %s", e.Reason)
}

func (e *Error) Unwrap() error { return e.Err }
