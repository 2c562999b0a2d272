package agent

import "context"

// ToolOutput is what a Tool.Invoke call hands back to the dispatch
// loop: the text fed back to the model as the tool result, and
// whether invoking this tool should stop the agent (the built-in stop
// tool is the only bundled tool that sets this).
type ToolOutput struct {
	Content string
	Stop    bool
}

// Text returns a ToolOutput that continues the conversation with
// content as the tool's result.
func Text(content string) ToolOutput { return ToolOutput{Content: content} }

// StopOutput returns a ToolOutput that requests the agent stop after
// this result is appended.
func StopOutput() ToolOutput { return ToolOutput{Stop: true} }

// Tool is one capability an Agent can invoke. Implementations must be
// safe to share across concurrent dispatch of a single assistant
// turn's tool calls, and cheap to clone (a Tool is typically stored by
// value or as a small struct wrapping shared state).
//
// An error returned from Invoke is treated as a non-catastrophic tool
// failure: the dispatch loop appends an error ToolResult and the
// conversation continues. A *ToolError with Kind JSONArgsInvalid
// additionally counts against the per-call tool-retry budget; once
// that budget is exhausted the agent stops with ToolError.
type Tool interface {
	Name() string
	Spec() ToolSpec
	Invoke(ctx context.Context, actx AgentContext, call ToolCall) (ToolOutput, error)
}

// Stop is the built-in control tool: invoking it requests the agent
// transition to Stopped{Requested} once its result is appended.
type Stop struct{}

func (Stop) Name() string { return "stop" }

func (Stop) Spec() ToolSpec {
	return ToolSpec{
		Name:        "stop",
		Description: "When you have completed, or cannot complete, your task, call this.",
	}
}

func (Stop) Invoke(_ context.Context, _ AgentContext, _ ToolCall) (ToolOutput, error) {
	return StopOutput(), nil
}
