package agent

import "github.com/loomctl/loom/prompt"

// DefaultPromptRepository is the process-wide prompt.Repository that
// carries the agent package's bundled templates. Callers are free to
// pass their own *prompt.Repository through SystemPrompt.ToPrompt
// instead; this one exists purely so a default agent works out of the
// box with no setup.
var DefaultPromptRepository = prompt.NewRepository()

const systemPromptTemplateName = "agent/system"

const defaultSystemPromptTemplate = `{% if role %}You are {{role}}.{% endif %}

Think step by step before acting.

Guidelines:
{% for guideline in guidelines %}- {{guideline}}
{% endfor %}
Constraints:
{% for constraint in constraints %}- {{constraint}}
{% endfor %}
{% if additional %}{{additional}}{% endif %}`

func init() {
	DefaultPromptRepository.Extend(systemPromptTemplateName, defaultSystemPromptTemplate)
}

// defaultConstraints are always present unless the caller overrides
// the whole constraints list via SystemPrompt.Constraints.
var defaultConstraints = []string{
	"Think step by step before acting; never fabricate assumptions.",
	"Call the stop tool once the goal is achieved, or feedback is required.",
}

// SystemPrompt assembles the agent's first message from role,
// guidelines, and constraints bindings rendered against a template —
// the bundled default, or an arbitrary override.
type SystemPrompt struct {
	Role        string
	Guidelines  []string
	Constraints []string
	Additional  string

	// TemplateName overrides which repository entry is rendered;
	// defaults to the bundled "agent/system" template.
	TemplateName string
}

// NewSystemPrompt returns a SystemPrompt with the default constraints
// already populated.
func NewSystemPrompt() *SystemPrompt {
	return &SystemPrompt{Constraints: append([]string{}, defaultConstraints...)}
}

// WithRole sets the role description.
func (s *SystemPrompt) WithRole(role string) *SystemPrompt {
	s.Role = role
	return s
}

// WithAddedGuideline appends one guideline.
func (s *SystemPrompt) WithAddedGuideline(guideline string) *SystemPrompt {
	s.Guidelines = append(s.Guidelines, guideline)
	return s
}

// WithAddedConstraint appends one constraint.
func (s *SystemPrompt) WithAddedConstraint(constraint string) *SystemPrompt {
	s.Constraints = append(s.Constraints, constraint)
	return s
}

// WithAdditional sets free-form markdown appended to the rendered
// prompt, e.g. the contents of an AGENTS.md file.
func (s *SystemPrompt) WithAdditional(additional string) *SystemPrompt {
	s.Additional = additional
	return s
}

// ToPrompt renders s against repo (DefaultPromptRepository if nil)
// into the literal system-message text.
func (s *SystemPrompt) ToPrompt(repo *prompt.Repository) (string, error) {
	if repo == nil {
		repo = DefaultPromptRepository
	}
	name := s.TemplateName
	if name == "" {
		name = systemPromptTemplateName
	}
	p := prompt.FromTemplate(name).WithBindings(map[string]any{
		"role":        s.Role,
		"guidelines":  s.Guidelines,
		"constraints": s.Constraints,
		"additional":  s.Additional,
	})
	return p.Render(repo)
}
