package tool_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loomctl/loom/agent"
	"github.com/loomctl/loom/tool"
)

type greetArgs struct {
	Name  string `json:"name" jsonschema:"required,description=Who to greet"`
	Times int    `json:"times,omitempty" jsonschema:"description=How many times"`
}

func TestFuncToolDerivesSchemaAndDecodesArguments(t *testing.T) {
	ft, err := tool.NewFuncTool("greet", "greets someone", func(_ context.Context, args greetArgs) (string, error) {
		return args.Name, nil
	})
	require.NoError(t, err)

	spec := ft.Spec()
	assert.Equal(t, "greet", spec.Name)
	require.NotEmpty(t, spec.Parameters)

	var names []string
	for _, p := range spec.Parameters {
		names = append(names, p.Name)
	}
	assert.Contains(t, names, "name")

	out, err := ft.Invoke(context.Background(), nil, agent.ToolCall{ID: "1", Name: "greet", Args: `{"name":"ada","times":2}`})
	require.NoError(t, err)
	assert.Equal(t, "ada", out.Content)
}

func TestFuncToolRejectsMalformedJSON(t *testing.T) {
	ft, err := tool.NewFuncTool("greet", "greets someone", func(_ context.Context, args greetArgs) (string, error) {
		return args.Name, nil
	})
	require.NoError(t, err)

	_, err = ft.Invoke(context.Background(), nil, agent.ToolCall{ID: "1", Name: "greet", Args: `{not json`})
	require.Error(t, err)
	var terr *agent.ToolError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, agent.JSONArgsInvalid, terr.Kind)
}

func TestFuncToolPropagatesHandlerErrorAsOtherToolError(t *testing.T) {
	ft, err := tool.NewFuncTool("fails", "always fails", func(_ context.Context, args greetArgs) (string, error) {
		return "", errors.New("boom")
	})
	require.NoError(t, err)

	_, err = ft.Invoke(context.Background(), nil, agent.ToolCall{ID: "1", Name: "fails", Args: `{"name":"x"}`})
	require.Error(t, err)
	var terr *agent.ToolError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, agent.OtherToolError, terr.Kind)
}

func TestRegistryRejectsDuplicateNames(t *testing.T) {
	reg := tool.NewRegistry("test")
	require.NoError(t, reg.Add(agent.Stop{}))
	err := reg.Add(agent.Stop{})
	require.Error(t, err)
}

func TestRegistryToolsReturnsEverythingAdded(t *testing.T) {
	reg := tool.NewRegistry("test")
	require.NoError(t, reg.Add(agent.Stop{}))
	require.NoError(t, reg.Add(tool.ShellTool{}))

	got, err := reg.Tools(context.Background())
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestLocalExecutorRunsShellCommands(t *testing.T) {
	exe := tool.NewLocalExecutor("")
	out, err := exe.ExecCmd(context.Background(), agent.Command{Shell: "echo hello"})
	require.NoError(t, err)
	assert.Equal(t, "hello\n", out.Stdout)
	assert.Equal(t, 0, out.ExitCode)
}

func TestLocalExecutorReportsNonZeroExit(t *testing.T) {
	exe := tool.NewLocalExecutor("")
	out, err := exe.ExecCmd(context.Background(), agent.Command{Shell: "exit 3"})
	require.NoError(t, err)
	assert.Equal(t, 3, out.ExitCode)
}

func TestShellToolSurfacesNonZeroExitAsToolError(t *testing.T) {
	actx := agent.NewDefaultContextWithExecutor(tool.NewLocalExecutor(""))
	st := tool.ShellTool{}

	_, err := st.Invoke(context.Background(), actx, agent.ToolCall{ID: "1", Name: "shell", Args: `{"command":"exit 2"}`})
	require.Error(t, err)
	var terr *agent.ToolError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, agent.NonZeroExit, terr.Kind)
}

func TestShellToolRunsSuccessfully(t *testing.T) {
	actx := agent.NewDefaultContextWithExecutor(tool.NewLocalExecutor(""))
	st := tool.ShellTool{}

	out, err := st.Invoke(context.Background(), actx, agent.ToolCall{ID: "1", Name: "shell", Args: `{"command":"echo hi"}`})
	require.NoError(t, err)
	assert.Equal(t, "hi\n", out.Content)
}
