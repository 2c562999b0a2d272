package tool

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/mitchellh/mapstructure"

	"github.com/loomctl/loom/agent"
)

// Func is the shape of the typed handler a FuncTool wraps: it sees
// already-decoded arguments and returns the text fed back to the
// model as the tool result.
type Func[T any] func(ctx context.Context, args T) (string, error)

// FuncTool adapts a typed Go function into an agent.Tool, deriving
// its advertised parameter schema from T's struct tags (the same
// json/jsonschema tags hector's functiontool package reads) and
// decoding each call's raw arguments into a T via mapstructure before
// invoking fn.
type FuncTool[T any] struct {
	name        string
	description string
	fn          Func[T]
	params      []agent.ParamSpec
}

// NewFuncTool builds a FuncTool, failing if T's shape falls outside
// the closed parameter type set agent.ToolSpec can advertise.
func NewFuncTool[T any](name, description string, fn Func[T]) (*FuncTool[T], error) {
	params, err := paramsFromType[T]()
	if err != nil {
		return nil, err
	}
	return &FuncTool[T]{name: name, description: description, fn: fn, params: params}, nil
}

func (t *FuncTool[T]) Name() string { return t.name }

func (t *FuncTool[T]) Spec() agent.ToolSpec {
	return agent.ToolSpec{Name: t.name, Description: t.description, Parameters: t.params}
}

func (t *FuncTool[T]) Invoke(ctx context.Context, _ agent.AgentContext, call agent.ToolCall) (agent.ToolOutput, error) {
	var raw map[string]any
	if strings.TrimSpace(call.Args) != "" {
		if err := json.Unmarshal([]byte(call.Args), &raw); err != nil {
			return agent.ToolOutput{}, &agent.ToolError{Kind: agent.JSONArgsInvalid, Tool: t.name, Err: err}
		}
	}

	var args T
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &args,
		TagName:          "json",
		ErrorUnused:      false,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return agent.ToolOutput{}, &agent.ToolError{Kind: agent.OtherToolError, Tool: t.name, Err: err}
	}
	if err := decoder.Decode(raw); err != nil {
		return agent.ToolOutput{}, &agent.ToolError{Kind: agent.WrongArguments, Tool: t.name, Err: err}
	}

	result, err := t.fn(ctx, args)
	if err != nil {
		if terr, ok := err.(*agent.ToolError); ok {
			return agent.ToolOutput{}, terr
		}
		return agent.ToolOutput{}, &agent.ToolError{Kind: agent.OtherToolError, Tool: t.name, Err: err}
	}
	return agent.Text(result), nil
}
