package agent

// State is the coarse lifecycle state of an Agent.
type State int

const (
	// Pending means no query is in progress.
	Pending State = iota
	// Running means a user query is being processed, see SubState for
	// which phase of the turn the agent is suspended in.
	Running
	// Stopped is terminal for the current query; a new query(q) or a
	// redrive re-enters Completing.
	Stopped
)

func (s State) String() string {
	switch s {
	case Pending:
		return "Pending"
	case Running:
		return "Running"
	case Stopped:
		return "Stopped"
	default:
		return "Unknown"
	}
}

// SubState further qualifies Running: either waiting on the language
// model, or dispatching the tool calls the model just asked for.
type SubState int

const (
	Completing SubState = iota
	InvokingTools
)

func (s SubState) String() string {
	switch s {
	case Completing:
		return "Completing"
	case InvokingTools:
		return "InvokingTools"
	default:
		return "Unknown"
	}
}

// StopReason records why an agent transitioned into Stopped.
type StopReason int

const (
	// TurnComplete: the assistant responded without any tool calls.
	TurnComplete StopReason = iota
	// Requested: the built-in stop tool was invoked.
	Requested
	// ToolError: a tool-argument retry budget was exhausted.
	ToolError
	// LanguageModelError: the chat completion backend returned a fatal error.
	LanguageModelError
	// IterationLimit: the per-query completion budget was exceeded.
	IterationLimit
	// Aborted: the run's context was cancelled.
	Aborted
	// Fatal: a fatal agent-runtime error occurred outside the language
	// model or tool-dispatch paths (a hook, setup, or templating
	// failure); see Error for the underlying error value.
	Fatal
)

func (r StopReason) String() string {
	switch r {
	case TurnComplete:
		return "TurnComplete"
	case Requested:
		return "Requested"
	case ToolError:
		return "ToolError"
	case LanguageModelError:
		return "LanguageModelError"
	case IterationLimit:
		return "IterationLimit"
	case Aborted:
		return "Aborted"
	case Fatal:
		return "Error"
	default:
		return "Unknown"
	}
}
