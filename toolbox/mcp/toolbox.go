// Package mcp adapts an MCP server's tools into agent.Tools over the
// stdio client transport, grounded on swiftide-agents' McpToolbox:
// tools are listed once at start-up, invocation proxies straight
// through to the server, and shutdown failures after the toolbox is
// already closed are swallowed rather than logged a second time.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	mcpclient "github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/loomctl/loom/agent"
)

// Toolbox is a running connection to one MCP server, exposing its
// advertised tools as agent.Tools. It implements agent.Toolbox.
type Toolbox struct {
	name   string
	client *mcpclient.Client

	mu     sync.Mutex
	closed bool
}

// Dial starts command as a subprocess MCP server communicating over
// stdio, and completes the MCP initialize handshake before returning.
func Dial(ctx context.Context, name, command string, args, env []string) (*Toolbox, error) {
	client, err := mcpclient.NewStdioMCPClient(command, env, args...)
	if err != nil {
		return nil, &agent.Error{Reason: fmt.Sprintf("mcp toolbox %q: failed to start %q", name, command), Err: err}
	}
	if _, err := client.Initialize(ctx, mcp.InitializeRequest{}); err != nil {
		_ = client.Close()
		return nil, &agent.Error{Reason: fmt.Sprintf("mcp toolbox %q: initialize handshake failed", name), Err: err}
	}
	return &Toolbox{name: name, client: client}, nil
}

func (t *Toolbox) Name() string { return t.name }

// Tools implements agent.Toolbox: it lists every tool the server
// currently advertises and wraps each one.
func (t *Toolbox) Tools(ctx context.Context) ([]agent.Tool, error) {
	result, err := t.client.ListTools(ctx, mcp.ListToolsRequest{})
	if err != nil {
		return nil, &agent.Error{Reason: fmt.Sprintf("mcp toolbox %q: list tools failed", t.name), Err: err}
	}
	tools := make([]agent.Tool, 0, len(result.Tools))
	for _, spec := range result.Tools {
		tools = append(tools, &mcpTool{toolbox: t, spec: spec})
	}
	return tools, nil
}

// Close shuts the connection down. Safe to call more than once: a
// second call after a successful close is a no-op, and a failure on
// an already-closed toolbox is swallowed rather than logged again.
func (t *Toolbox) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil
	}
	t.closed = true
	if err := t.client.Close(); err != nil {
		slog.Warn("mcp toolbox shutdown failed", "toolbox", t.name, "error", err)
	}
	return nil
}

type mcpTool struct {
	toolbox *Toolbox
	spec    mcp.Tool
}

func (m *mcpTool) Name() string { return m.spec.Name }

func (m *mcpTool) Spec() agent.ToolSpec {
	params, err := paramsFromInputSchema(m.spec.InputSchema)
	if err != nil {
		slog.Warn("mcp tool schema outside closed parameter set, advertising no parameters",
			"tool", m.spec.Name, "error", err)
		params = nil
	}
	return agent.ToolSpec{Name: m.spec.Name, Description: m.spec.Description, Parameters: params}
}

func (m *mcpTool) Invoke(ctx context.Context, _ agent.AgentContext, call agent.ToolCall) (agent.ToolOutput, error) {
	var args map[string]any
	if strings.TrimSpace(call.Args) != "" {
		if err := json.Unmarshal([]byte(call.Args), &args); err != nil {
			return agent.ToolOutput{}, &agent.ToolError{Kind: agent.JSONArgsInvalid, Tool: m.spec.Name, Err: err}
		}
	}

	result, err := m.toolbox.client.CallTool(ctx, mcp.CallToolRequest{
		Params: mcp.CallToolParams{Name: m.spec.Name, Arguments: args},
	})
	if err != nil {
		return agent.ToolOutput{}, &agent.ToolError{Kind: agent.OtherToolError, Tool: m.spec.Name, Err: err}
	}

	var text strings.Builder
	for _, c := range result.Content {
		if tc, ok := c.(mcp.TextContent); ok {
			if text.Len() > 0 {
				text.WriteByte('\n')
			}
			text.WriteString(tc.Text)
		}
	}

	if result.IsError {
		return agent.ToolOutput{}, &agent.ToolError{Kind: agent.OtherToolError, Tool: m.spec.Name, Err: fmt.Errorf("%s", text.String())}
	}
	if text.Len() == 0 {
		return agent.Text("tool executed successfully"), nil
	}
	return agent.Text(text.String()), nil
}
