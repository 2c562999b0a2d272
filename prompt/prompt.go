package prompt

// Prompt is either a literal string or a reference to a named compiled
// template plus a set of named bindings. It is immutable; With* methods
// return a modified copy.
type Prompt struct {
	literal  string
	name     string // empty when literal
	bindings map[string]any
}

// New returns a literal Prompt from s.
func New(s string) Prompt {
	return Prompt{literal: s}
}

// FromTemplate returns a Prompt referencing a named template in a Repository.
func FromTemplate(name string) Prompt {
	return Prompt{name: name}
}

// WithBinding returns a copy of p with key bound to value.
func (p Prompt) WithBinding(key string, value any) Prompt {
	next := p.cloneBindings()
	next.bindings[key] = value
	return next
}

// WithBindings returns a copy of p with every entry of bindings merged in.
func (p Prompt) WithBindings(bindings map[string]any) Prompt {
	next := p.cloneBindings()
	for k, v := range bindings {
		next.bindings[k] = v
	}
	return next
}

func (p Prompt) cloneBindings() Prompt {
	next := p
	merged := make(map[string]any, len(p.bindings))
	for k, v := range p.bindings {
		merged[k] = v
	}
	next.bindings = merged
	return next
}

// IsLiteral reports whether p is a literal string Prompt (as opposed
// to a named-template reference).
func (p Prompt) IsLiteral() bool { return p.name == "" }

// Render produces the final string for p. Named prompts are resolved
// against repo (which must not be nil for those). Literal prompts that
// contain no template markers and have no bindings attached
// short-circuit and return the literal string verbatim.
func (p Prompt) Render(repo *Repository) (string, error) {
	if p.IsLiteral() {
		if len(p.bindings) == 0 && !hasTemplateMarkers(p.literal) {
			return p.literal, nil
		}
		return RenderString(p.literal, p.bindings)
	}
	if repo == nil {
		return "", &TemplateError{Kind: NotFound, Template: p.name}
	}
	return repo.Render(p.name, p.bindings)
}

// Document is the minimal shape the default "documents"/"current"
// context bindings carry: enough for templates to render retrieved
// content without the prompt package depending on the query package
// (which imports prompt indirectly, through model, so the reverse
// import would cycle).
type Document struct {
	Content  string
	Metadata map[string]any
}

// WithDocuments attaches the default "documents" context binding used
// when a Prompt is rendered in the query pipeline.
func (p Prompt) WithDocuments(docs []Document) Prompt {
	return p.WithBinding("documents", docs)
}

// WithCurrent attaches the default "current" context binding: the
// document currently being rendered inside a document loop.
func (p Prompt) WithCurrent(doc Document) Prompt {
	return p.WithBinding("current", doc)
}
