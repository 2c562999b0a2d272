package agent

import (
	"context"
	"fmt"

	"github.com/loomctl/loom/prompt"
)

// Toolbox yields a dynamic set of Tools, resolved once at agent
// start-up — e.g. an MCP server's currently-advertised tools. See the
// tool package for the registry and executor collaborators a concrete
// Toolbox typically wraps.
type Toolbox interface {
	Name() string
	Tools(ctx context.Context) ([]Tool, error)
}

// Agent drives a chat-completion loop with tool invocation to
// termination. Its mutable state (context, history, counters) is
// exclusively owned by the goroutine calling Run; a Run in progress
// must not be called concurrently from two goroutines.
type Agent struct {
	actx AgentContext
	llm  ChatCompletion

	systemPrompt *SystemPrompt
	promptRepo   *prompt.Repository

	tools     map[string]Tool
	toolboxes []Toolbox
	toolsSet  bool

	hooks Hooks

	// iterationLimit caps the assistant completions in a single query:
	// the agent stops with IterationLimit once the count exceeds it, so
	// a limit of n allows n+1 completions; -1 means unlimited.
	iterationLimit int
	toolRetryLimit int
	retries        *retryTracker

	iterations  int
	beforeAllRan bool

	state    State
	subState SubState
}

// NewAgent returns an Agent driven by llm, using a fresh DefaultContext
// with no tool executor configured.
func NewAgent(llm ChatCompletion) *Agent {
	return &Agent{
		actx:           NewDefaultContext(),
		llm:            llm,
		tools:          make(map[string]Tool),
		iterationLimit: -1,
		toolRetryLimit: DefaultToolRetryLimit,
		state:          Pending,
	}
}

// WithContext overrides the AgentContext, e.g. to resume from a prior
// history via FromHistory.
func (a *Agent) WithContext(actx AgentContext) *Agent {
	a.actx = actx
	return a
}

// WithSystemPrompt sets the system prompt assembled on first query.
func (a *Agent) WithSystemPrompt(sp *SystemPrompt) *Agent {
	a.systemPrompt = sp
	return a
}

// WithPromptRepository overrides the repository system-prompt
// templates render against; defaults to DefaultPromptRepository.
func (a *Agent) WithPromptRepository(repo *prompt.Repository) *Agent {
	a.promptRepo = repo
	return a
}

// WithTools adds tools to the static registry, keyed by name: a tool
// whose name matches an earlier static tool replaces it, without an
// error. Duplicate detection happens later, in setup, and covers only
// names a toolbox yields.
func (a *Agent) WithTools(tools ...Tool) *Agent {
	for _, t := range tools {
		a.tools[t.Name()] = t
	}
	return a
}

// WithToolbox adds a dynamic tool source resolved on first Setup.
func (a *Agent) WithToolbox(tb Toolbox) *Agent {
	a.toolboxes = append(a.toolboxes, tb)
	return a
}

// WithIterationLimit stops a query with IterationLimit once its
// assistant completions exceed n (n = 0 still allows one completion);
// n < 0 means unlimited (the default).
func (a *Agent) WithIterationLimit(n int) *Agent {
	a.iterationLimit = n
	return a
}

// WithToolRetryLimit overrides the per-call malformed-argument retry
// budget (default DefaultToolRetryLimit).
func (a *Agent) WithToolRetryLimit(n int) *Agent {
	a.toolRetryLimit = n
	return a
}

// Hooks exposes the mutable Hooks struct for registration, e.g.
// `agent.Hooks().BeforeAll = append(...)`.
func (a *Agent) Hooks() *Hooks {
	return &a.hooks
}

// State reports the agent's current coarse state.
func (a *Agent) State() State { return a.state }

// Context returns the agent's AgentContext, e.g. for inspecting
// History after Run returns.
func (a *Agent) Context() AgentContext { return a.actx }

// setup resolves the tool registry exactly once: merges the static
// tools with every toolbox's current offering, erroring when a toolbox
// yields a name already taken by a static tool or an earlier toolbox
// tool. Duplicates among the static tools are not seen here: WithTools
// has already kept only the last of them.
func (a *Agent) setup(ctx context.Context) error {
	if a.toolsSet {
		return nil
	}
	seen := make(map[string]bool, len(a.tools))
	for name := range a.tools {
		seen[name] = true
	}
	for _, tb := range a.toolboxes {
		dynamic, err := tb.Tools(ctx)
		if err != nil {
			return &Error{Reason: fmt.Sprintf("toolbox %q failed to load", tb.Name()), Err: err}
		}
		for _, t := range dynamic {
			if seen[t.Name()] {
				return &Error{Reason: fmt.Sprintf("duplicate tool name %q from toolbox %q", t.Name(), tb.Name())}
			}
			seen[t.Name()] = true
			a.tools[t.Name()] = t
		}
	}
	a.toolsSet = true
	return nil
}

func (a *Agent) toolSpecs() []ToolSpec {
	specs := make([]ToolSpec, 0, len(a.tools))
	for _, t := range a.tools {
		specs = append(specs, t.Spec())
	}
	return specs
}

func (a *Agent) ensureSystemMessage() error {
	for _, m := range a.actx.History() {
		if m.IsSystem() {
			return nil
		}
	}
	sp := a.systemPrompt
	if sp == nil {
		sp = NewSystemPrompt()
	}
	text, err := sp.ToPrompt(a.promptRepo)
	if err != nil {
		return &Error{Reason: "failed to render system prompt", Err: err}
	}
	msg := NewSystemMessage(text)
	a.actx.AddMessage(msg)
	return a.hooks.runOnNewMessage(context.Background(), a.actx, msg)
}

// Run drives a single query to completion: it appends query as a user
// message (resuming from whatever history the AgentContext already
// holds), then loops through Completing/InvokingTools transitions
// until the agent reaches Stopped, returning the stop reason. A nil
// error means the agent stopped normally (TurnComplete, Requested, or
// IterationLimit); a non-nil error accompanies Stopped{LanguageModelError}
// or Stopped{ToolError} or Stopped{Aborted}.
func (a *Agent) Run(ctx context.Context, query string) (StopReason, error) {
	if err := a.setup(ctx); err != nil {
		return Fatal, err
	}

	if !a.beforeAllRan {
		if err := a.hooks.runBeforeAll(ctx, a.actx); err != nil {
			return a.fail(ctx, err)
		}
		a.beforeAllRan = true
	}

	if err := a.ensureSystemMessage(); err != nil {
		return a.fail(ctx, err)
	}

	if query != "" {
		msg := NewUserMessage(query)
		a.actx.AddMessage(msg)
		if err := a.hooks.runOnNewMessage(ctx, a.actx, msg); err != nil {
			return a.fail(ctx, err)
		}
		if err := a.hooks.runOnStart(ctx, a.actx, query); err != nil {
			return a.fail(ctx, err)
		}
	}

	a.state = Running
	a.subState = Completing
	a.retries = newRetryTracker(a.toolRetryLimit)
	a.iterations = 0

	for {
		if ctx.Err() != nil {
			return a.finish(ctx, Aborted, ctx.Err())
		}

		if a.actx.ShouldStop() {
			return a.finish(ctx, Requested, nil)
		}

		if a.iterationLimit >= 0 && a.iterations >= a.iterationLimit+1 {
			return a.finish(ctx, IterationLimit, nil)
		}

		if err := a.hooks.runBeforeCompletion(ctx, a.actx); err != nil {
			return a.fail(ctx, err)
		}

		resp, err := a.llm.Complete(ctx, Request{Messages: a.actx.History(), Tools: a.toolSpecs()})
		if err != nil {
			return a.finish(ctx, LanguageModelError, err)
		}
		a.iterations++

		if err := a.hooks.runAfterCompletion(ctx, a.actx); err != nil {
			return a.fail(ctx, err)
		}

		var usage *Usage
		if resp.Usage != nil {
			usage = resp.Usage
		}
		text := ""
		if resp.Message != nil {
			text = *resp.Message
		}
		assistant := NewAssistantMessage(text, resp.ToolCalls, usage)
		a.actx.AddMessage(assistant)
		if err := a.hooks.runOnNewMessage(ctx, a.actx, assistant); err != nil {
			return a.fail(ctx, err)
		}

		if len(resp.ToolCalls) == 0 {
			a.actx.RecordIteration()
			return a.finish(ctx, TurnComplete, nil)
		}

		a.subState = InvokingTools
		stopReason, stopErr, stopped := a.dispatch(ctx, resp.ToolCalls)
		if stopped {
			a.actx.RecordIteration()
			return a.finish(ctx, stopReason, stopErr)
		}
		a.subState = Completing
		a.actx.RecordIteration()
	}
}

// dispatch runs every tool call in turn, preserving the pairing
// invariant regardless of how it terminates: on cancellation or a
// tool-retry budget exhaustion it synthesizes error ToolResults for
// every call it has not yet resolved before reporting stopped=true.
func (a *Agent) dispatch(ctx context.Context, calls []ToolCall) (StopReason, error, bool) {
	for i, call := range calls {
		if ctx.Err() != nil {
			a.balance(ctx, calls[i:], "aborted: "+ctx.Err().Error())
			return Aborted, ctx.Err(), true
		}

		if err := a.hooks.runBeforeTool(ctx, a.actx, call); err != nil {
			a.balance(ctx, calls[i:], err.Error())
			return Fatal, err, true
		}

		result, toolErr := a.invoke(ctx, call)

		if toolErr != nil {
			if terr, ok := toolErr.(*ToolError); ok && terr.Kind == JSONArgsInvalid {
				key := retryKey(call.Name, preprocessArgs(call.Args))
				if _, withinBudget := a.retries.record(key); !withinBudget {
					a.appendResult(ctx, call, result)
					a.balance(ctx, calls[i+1:], "tool retry budget exhausted")
					return ToolError, terr, true
				}
			}
		}

		a.appendResult(ctx, call, result)

		if err := a.hooks.runAfterTool(ctx, a.actx, call, result.ToolResult); err != nil {
			a.balance(ctx, calls[i+1:], err.Error())
			return Fatal, err, true
		}

		if result.stop {
			a.balance(ctx, calls[i+1:], "agent stopped")
			return Requested, nil, true
		}

		// The iteration budget was already spent by the completion that
		// produced calls: re-entering Completing once every call here is
		// appended would immediately trip the same check the outer loop
		// runs before each completion. Catching it here too, rather than
		// only on the next trip through that loop, lets a dispatch that
		// is cut short balance its still-open calls instead of running
		// the whole batch for real and then discovering the budget is
		// gone only after the fact.
		if a.iterationLimit >= 0 && a.iterations >= a.iterationLimit+1 && i+1 < len(calls) {
			a.balance(ctx, calls[i+1:], "iteration limit reached")
			return IterationLimit, nil, true
		}
	}
	return 0, nil, false
}

// invoke calls the named tool, translating a missing tool into a
// ToolResult the conversation can react to rather than a fatal error —
// matching the spec's "tool's own execution fails non-catastrophically"
// clause.
func (a *Agent) invoke(ctx context.Context, call ToolCall) (toolResultWithStop, error) {
	tool, ok := a.tools[call.Name]
	if !ok {
		err := &ToolError{Kind: OtherToolError, Tool: call.Name, Err: fmt.Errorf("tool not found")}
		return toolResultWithStop{ToolResult: ToolResult{ToolCallID: call.ID, Content: err.Error(), IsError: true}}, err
	}

	normalized := call
	normalized.Args = preprocessArgs(call.Args)

	out, err := tool.Invoke(ctx, a.actx, normalized)
	if err != nil {
		return toolResultWithStop{ToolResult: ToolResult{ToolCallID: call.ID, Content: err.Error(), IsError: true}}, err
	}
	return toolResultWithStop{ToolResult: ToolResult{ToolCallID: call.ID, Content: out.Content}, stop: out.Stop}, nil
}

type toolResultWithStop struct {
	ToolResult
	stop bool
}

func (a *Agent) appendResult(ctx context.Context, call ToolCall, result toolResultWithStop) {
	msg := NewToolResultMessage(result.ToolResult)
	a.actx.AddMessage(msg)
	_ = a.hooks.runOnNewMessage(ctx, a.actx, msg)
}

// balance synthesizes an error ToolResult for every call in pending,
// preserving the "one ToolResult per tool_call" invariant when
// dispatch is cut short.
func (a *Agent) balance(ctx context.Context, pending []ToolCall, reason string) {
	for _, call := range pending {
		msg := NewToolResultMessage(ToolResult{ToolCallID: call.ID, Content: reason, IsError: true})
		a.actx.AddMessage(msg)
		_ = a.hooks.runOnNewMessage(ctx, a.actx, msg)
	}
}

func (a *Agent) finish(ctx context.Context, reason StopReason, err error) (StopReason, error) {
	a.state = Stopped
	a.hooks.runOnStop(ctx, a.actx, reason)
	return reason, err
}

func (a *Agent) fail(ctx context.Context, err error) (StopReason, error) {
	a.actx.RecordIteration()
	return a.finish(ctx, Fatal, err)
}

// Redrive pops any messages strictly newer than the last completed
// turn's boundary and re-enters Completing, for manual retry after a
// transient failure. Only meaningful when State() == Stopped, and only
// supported when the agent's AgentContext is a *DefaultContext.
func (a *Agent) Redrive(ctx context.Context) (StopReason, error) {
	dc, ok := a.actx.(*DefaultContext)
	if !ok {
		return Fatal, &Error{Reason: "redrive requires a *DefaultContext"}
	}
	dc.redrive()
	a.state = Running
	a.subState = Completing
	return a.Run(ctx, "")
}
