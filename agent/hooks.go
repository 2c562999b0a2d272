package agent

import "context"

// HookFunc runs at a point in the lifecycle that carries no extra
// payload: before the first query, before each completion request,
// and after each completion response.
type HookFunc func(ctx context.Context, actx AgentContext) error

// MessageHookFunc runs whenever a message is appended to the context.
type MessageHookFunc func(ctx context.Context, actx AgentContext, msg ChatMessage) error

// ToolHookFunc runs before a tool is dispatched.
type ToolHookFunc func(ctx context.Context, actx AgentContext, call ToolCall) error

// AfterToolHookFunc runs after a tool call has produced its result.
type AfterToolHookFunc func(ctx context.Context, actx AgentContext, call ToolCall, result ToolResult) error

// StartHookFunc runs once per query, before Completing is entered.
type StartHookFunc func(ctx context.Context, actx AgentContext, query string) error

// StopHookFunc runs exactly once per transition into Stopped.
type StopHookFunc func(ctx context.Context, actx AgentContext, reason StopReason) error

// Hooks collects the optional lifecycle callbacks an Agent invokes.
// Each slot runs its hooks in registration order; an error from any
// hook (other than OnStop) propagates as a fatal agent error, with one
// exception: errors from OnNewMessage hooks run for the tool-result
// messages appended during tool dispatch are ignored.
type Hooks struct {
	BeforeAll       []HookFunc
	OnNewMessage    []MessageHookFunc
	BeforeCompletion []HookFunc
	AfterCompletion []HookFunc
	BeforeTool      []ToolHookFunc
	AfterTool       []AfterToolHookFunc
	OnStart         []StartHookFunc
	OnStop          []StopHookFunc
}

func (h *Hooks) runBeforeAll(ctx context.Context, actx AgentContext) error {
	for _, f := range h.BeforeAll {
		if err := f(ctx, actx); err != nil {
			return err
		}
	}
	return nil
}

func (h *Hooks) runOnNewMessage(ctx context.Context, actx AgentContext, msg ChatMessage) error {
	for _, f := range h.OnNewMessage {
		if err := f(ctx, actx, msg); err != nil {
			return err
		}
	}
	return nil
}

func (h *Hooks) runBeforeCompletion(ctx context.Context, actx AgentContext) error {
	for _, f := range h.BeforeCompletion {
		if err := f(ctx, actx); err != nil {
			return err
		}
	}
	return nil
}

func (h *Hooks) runAfterCompletion(ctx context.Context, actx AgentContext) error {
	for _, f := range h.AfterCompletion {
		if err := f(ctx, actx); err != nil {
			return err
		}
	}
	return nil
}

func (h *Hooks) runBeforeTool(ctx context.Context, actx AgentContext, call ToolCall) error {
	for _, f := range h.BeforeTool {
		if err := f(ctx, actx, call); err != nil {
			return err
		}
	}
	return nil
}

func (h *Hooks) runAfterTool(ctx context.Context, actx AgentContext, call ToolCall, result ToolResult) error {
	for _, f := range h.AfterTool {
		if err := f(ctx, actx, call, result); err != nil {
			return err
		}
	}
	return nil
}

func (h *Hooks) runOnStart(ctx context.Context, actx AgentContext, query string) error {
	for _, f := range h.OnStart {
		if err := f(ctx, actx, query); err != nil {
			return err
		}
	}
	return nil
}

// runOnStop runs every OnStop hook, ignoring their errors: the agent
// is already terminating and a hook failure here must not mask the
// original stop reason.
func (h *Hooks) runOnStop(ctx context.Context, actx AgentContext, reason StopReason) {
	for _, f := range h.OnStop {
		_ = f(ctx, actx, reason)
	}
}
