package agent

import "context"

// Command is a unit of work handed to a ToolExecutor. Only Shell is
// implemented by the bundled LocalExecutor; tools may define their own
// executor for richer commands.
type Command struct {
	Shell string
}

// Output is the result of running a Command.
type Output struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// ToolExecutor runs Commands on behalf of tools that need a shell (or
// equivalent) collaborator rather than talking to the outside world
// directly. A DefaultContext created without an executor returns an
// error from ExecCmd; see the tool package's LocalExecutor for a
// concrete, unsandboxed reference implementation.
type ToolExecutor interface {
	ExecCmd(ctx context.Context, cmd Command) (Output, error)
}

// AgentContext is the driving loop's view of the conversation: the
// full history for persistence and logging, the current turn's slice
// for completion, and the stop flag. Hooks receive this as an
// immutable snapshot between transitions; the driving task is its only
// writer.
type AgentContext interface {
	// History returns every message recorded so far, oldest first.
	History() []ChatMessage
	// AddMessage appends item to History.
	AddMessage(item ChatMessage)
	// RecordIteration marks the boundary of the current turn: the next
	// call to CurrentMessages starts fresh from here.
	RecordIteration()
	// CurrentMessages returns the messages appended since the last
	// RecordIteration call (or since the start, before the first one).
	CurrentMessages() []ChatMessage
	// Stop marks the context as wanting to halt after the current turn.
	Stop()
	// ShouldStop reports whether Stop has been called.
	ShouldStop() bool
	// ExecCmd runs cmd against the configured ToolExecutor, if any.
	ExecCmd(ctx context.Context, cmd Command) (Output, error)
}

// DefaultContext is the reference AgentContext: an in-memory message
// log plus iteration bookkeeping. Not safe for concurrent use — the
// driving task is its sole owner, matching the "exclusively owned by
// the driving task" requirement on agent state.
type DefaultContext struct {
	history        []ChatMessage
	shouldStop     bool
	iterationPtr   int
	thisIterPtr    int
	executor       ToolExecutor
}

// NewDefaultContext returns an empty DefaultContext with no configured
// executor; ExecCmd will fail until one is set via
// NewDefaultContextWithExecutor or FromHistory.
func NewDefaultContext() *DefaultContext {
	return &DefaultContext{}
}

// NewDefaultContextWithExecutor returns an empty DefaultContext that
// delegates ExecCmd to executor.
func NewDefaultContextWithExecutor(executor ToolExecutor) *DefaultContext {
	return &DefaultContext{executor: executor}
}

// FromHistory seeds a DefaultContext with a prior conversation, for
// resuming an agent across process boundaries. The entire seeded
// history is treated as already-iterated: CurrentMessages starts empty
// until the next message is appended.
func FromHistory(history []ChatMessage, executor ToolExecutor) *DefaultContext {
	seeded := make([]ChatMessage, len(history))
	copy(seeded, history)
	return &DefaultContext{history: seeded, iterationPtr: len(seeded), executor: executor}
}

func (c *DefaultContext) History() []ChatMessage {
	return c.history
}

func (c *DefaultContext) AddMessage(item ChatMessage) {
	c.thisIterPtr++
	c.history = append(c.history, item)
}

func (c *DefaultContext) RecordIteration() {
	c.iterationPtr += c.thisIterPtr
	c.thisIterPtr = 0
}

func (c *DefaultContext) CurrentMessages() []ChatMessage {
	return c.history[c.iterationPtr:]
}

func (c *DefaultContext) Stop() { c.shouldStop = true }

func (c *DefaultContext) ShouldStop() bool { return c.shouldStop }

func (c *DefaultContext) ExecCmd(ctx context.Context, cmd Command) (Output, error) {
	if c.executor == nil {
		return Output{}, &Error{Reason: "no tool executor configured"}
	}
	return c.executor.ExecCmd(ctx, cmd)
}

// redrive pops every message strictly newer than the last
// RecordIteration boundary, for manual retry after a transient
// failure. The popped messages are discarded; the context re-enters
// Completing against the remaining history on the caller's next
// chat-completion request.
func (c *DefaultContext) redrive() {
	c.history = c.history[:c.iterationPtr]
	c.thisIterPtr = 0
}
