package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mitchellh/mapstructure"

	"github.com/loomctl/loom/agent"
)

// ShellArgs is the schema ShellTool advertises.
type ShellArgs struct {
	Command string `json:"command" jsonschema:"required,description=Shell command to execute"`
}

// ShellTool runs a shell command against the agent's configured
// executor (AgentContext.ExecCmd), rather than holding its own
// LocalExecutor, so the same tool works whether the agent is wired to
// LocalExecutor or a sandboxed alternative.
type ShellTool struct{}

func (ShellTool) Name() string { return "shell" }

func (ShellTool) Spec() agent.ToolSpec {
	params, err := paramsFromType[ShellArgs]()
	if err != nil {
		// ShellArgs is fixed and known-good; a failure here is a
		// programming error, not a runtime condition to recover from.
		panic(err)
	}
	return agent.ToolSpec{
		Name:        "shell",
		Description: "Runs a shell command and returns its stdout.",
		Parameters:  params,
	}
}

func (ShellTool) Invoke(ctx context.Context, actx agent.AgentContext, call agent.ToolCall) (agent.ToolOutput, error) {
	var raw map[string]any
	if strings.TrimSpace(call.Args) != "" {
		if err := json.Unmarshal([]byte(call.Args), &raw); err != nil {
			return agent.ToolOutput{}, &agent.ToolError{Kind: agent.JSONArgsInvalid, Tool: "shell", Err: err}
		}
	}

	var args ShellArgs
	if err := mapstructure.Decode(raw, &args); err != nil {
		return agent.ToolOutput{}, &agent.ToolError{Kind: agent.WrongArguments, Tool: "shell", Err: err}
	}
	if args.Command == "" {
		return agent.ToolOutput{}, &agent.ToolError{Kind: agent.WrongArguments, Tool: "shell", Err: fmt.Errorf("command is required")}
	}

	out, err := actx.ExecCmd(ctx, agent.Command{Shell: args.Command})
	if err != nil {
		return agent.ToolOutput{}, &agent.ToolError{Kind: agent.IOError, Tool: "shell", Err: err}
	}
	if out.ExitCode != 0 {
		return agent.ToolOutput{}, &agent.ToolError{
			Kind: agent.NonZeroExit,
			Tool: "shell",
			Err:  fmt.Errorf("exit status %d: %s", out.ExitCode, out.Stderr),
		}
	}
	return agent.Text(out.Stdout), nil
}
