package tool

import (
	"context"
	"fmt"
	"sync"

	"github.com/loomctl/loom/agent"
)

// Registry is a static, named collection of Tools, implementing
// agent.Toolbox so it can be handed to Agent.WithToolbox directly.
// Registration rejects duplicate names immediately rather than
// deferring the conflict to agent start-up.
type Registry struct {
	name string

	mu    sync.RWMutex
	tools map[string]agent.Tool
}

// NewRegistry returns an empty Registry identified by name (surfaced
// in error messages if a toolbox conflict occurs downstream).
func NewRegistry(name string) *Registry {
	return &Registry{name: name, tools: make(map[string]agent.Tool)}
}

// Add registers t, erroring if its name is already taken.
func (r *Registry) Add(t agent.Tool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tools[t.Name()]; exists {
		return &agent.Error{Reason: fmt.Sprintf("tool %q is already registered in %q", t.Name(), r.name)}
	}
	r.tools[t.Name()] = t
	return nil
}

// MustAdd panics if Add fails, for package-init-time registration of
// tools whose names are known not to collide.
func (r *Registry) MustAdd(t agent.Tool) *Registry {
	if err := r.Add(t); err != nil {
		panic(err)
	}
	return r
}

func (r *Registry) Name() string { return r.name }

// Tools implements agent.Toolbox.
func (r *Registry) Tools(_ context.Context) ([]agent.Tool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]agent.Tool, 0, len(r.tools))
	for _, t := range r.tools {
		out = append(out, t)
	}
	return out, nil
}
