// Package prompt implements the prompt-rendering substrate shared by
// the indexing pipeline and the agent runtime: a Jinja-compatible
// subset of templating (substitution, for/if, a handful of filters,
// and include), a process-wide repository of named compiled
// templates, and a Prompt value that is either a literal string or a
// reference into that repository plus bindings.
package prompt

import (
	"fmt"
	"regexp"
	"sync"

	"github.com/nikolalohinski/gonja"
	"github.com/nikolalohinski/gonja/exec"
)

// Repository is a process-wide, read-mostly mapping from template name
// to source. It compiles lazily on first render and caches the
// compiled form. Writers (Extend) synchronize via a mutex; reads
// (Render) take a read lock for the common case of an already-compiled
// template.
type Repository struct {
	mu      sync.RWMutex
	sources map[string]string
	compiled map[string]*exec.Template
}

// NewRepository returns an empty Repository.
func NewRepository() *Repository {
	return &Repository{
		sources:  make(map[string]string),
		compiled: make(map[string]*exec.Template),
	}
}

// Extend registers (or replaces) a named template's source. Replacing
// an existing name invalidates its compiled cache entry.
func (r *Repository) Extend(name, source string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sources[name] = source
	delete(r.compiled, name)
}

// Has reports whether name is registered.
func (r *Repository) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.sources[name]
	return ok
}

// resolveIncludes resolves {% include "name" %} directives by splicing in the
// included template's source before handing the result to gonja. This
// keeps template resolution self-contained instead of depending on
// gonja's filesystem-oriented loader, since Loom's templates live in
// the in-memory Repository, not on disk.
func (r *Repository) resolveIncludes(name string, seen map[string]bool) (string, error) {
	if seen[name] {
		return "", fmt.Errorf("prompt: include cycle detected at %q", name)
	}
	seen[name] = true

	r.mu.RLock()
	src, ok := r.sources[name]
	r.mu.RUnlock()
	if !ok {
		return "", &TemplateError{Kind: NotFound, Template: name}
	}

	var resolveErr error
	resolved := includeRe.ReplaceAllStringFunc(src, func(match string) string {
		if resolveErr != nil {
			return ""
		}
		sub := includeRe.FindStringSubmatch(match)
		included, err := r.resolveIncludes(sub[1], seen)
		if err != nil {
			resolveErr = err
			return ""
		}
		return included
	})
	if resolveErr != nil {
		return "", resolveErr
	}
	return resolved, nil
}

var includeRe = regexp.MustCompile(`{%-?\s*include\s+"([^"]+)"\s*-?%}`)

// compiledTemplate returns the compiled gonja template for name, compiling and
// caching it on first use.
func (r *Repository) compiledTemplate(name string) (*exec.Template, error) {
	r.mu.RLock()
	if t, ok := r.compiled[name]; ok {
		r.mu.RUnlock()
		return t, nil
	}
	r.mu.RUnlock()

	resolvedSrc, err := r.resolveIncludes(name, map[string]bool{})
	if err != nil {
		return nil, err
	}

	tpl, err := gonja.FromString(resolvedSrc)
	if err != nil {
		return nil, &TemplateError{Kind: Render, Template: name, Err: err}
	}

	r.mu.Lock()
	r.compiled[name] = tpl
	r.mu.Unlock()
	return tpl, nil
}

// Render renders the named template against bindings, enforcing that
// every top-level variable the template references (outside of
// locally-scoped for-loop variables) is present in bindings.
func (r *Repository) Render(name string, bindings map[string]any) (string, error) {
	r.mu.RLock()
	src, ok := r.sources[name]
	r.mu.RUnlock()
	if !ok {
		return "", &TemplateError{Kind: NotFound, Template: name}
	}

	if missing := firstMissingVariable(src, bindings); missing != "" {
		return "", &TemplateError{Kind: MissingVariable, Template: name, Variable: missing}
	}

	tpl, err := r.compiledTemplate(name)
	if err != nil {
		return "", err
	}

	out, err := tpl.Execute(gonja.Context(bindings))
	if err != nil {
		return "", &TemplateError{Kind: Render, Template: name, Err: err}
	}
	return out, nil
}

// RenderString compiles and renders an ad-hoc template source (used
// for literal Prompts that contain markers) without registering it in
// the Repository.
func RenderString(src string, bindings map[string]any) (string, error) {
	if missing := firstMissingVariable(src, bindings); missing != "" {
		return "", &TemplateError{Kind: MissingVariable, Template: "<literal>", Variable: missing}
	}
	tpl, err := gonja.FromString(src)
	if err != nil {
		return "", &TemplateError{Kind: Render, Template: "<literal>", Err: err}
	}
	out, err := tpl.Execute(gonja.Context(bindings))
	if err != nil {
		return "", &TemplateError{Kind: Render, Template: "<literal>", Err: err}
	}
	return out, nil
}
