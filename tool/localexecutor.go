package tool

import (
	"bytes"
	"context"
	"errors"
	"os/exec"

	"github.com/loomctl/loom/agent"
)

// LocalExecutor runs agent.Commands on the local machine via sh -c,
// grounded on swiftide-agents' LocalExecutor: unsandboxed, current
// directory as the default working directory.
type LocalExecutor struct {
	workdir string
}

// NewLocalExecutor returns a LocalExecutor rooted at workdir; an
// empty workdir defaults to ".".
func NewLocalExecutor(workdir string) *LocalExecutor {
	if workdir == "" {
		workdir = "."
	}
	return &LocalExecutor{workdir: workdir}
}

func (e *LocalExecutor) ExecCmd(ctx context.Context, cmd agent.Command) (agent.Output, error) {
	c := exec.CommandContext(ctx, "sh", "-c", cmd.Shell)
	c.Dir = e.workdir

	var stdout, stderr bytes.Buffer
	c.Stdout = &stdout
	c.Stderr = &stderr

	exitCode := 0
	if err := c.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			exitCode = exitErr.ExitCode()
		} else {
			return agent.Output{}, &agent.ToolError{Kind: agent.IOError, Err: err}
		}
	}

	return agent.Output{Stdout: stdout.String(), Stderr: stderr.String(), ExitCode: exitCode}, nil
}
