package prompt_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loomctl/loom/prompt"
)

func TestLiteralShortCircuits(t *testing.T) {
	p := prompt.New("hello world")
	out, err := p.Render(nil)
	require.NoError(t, err)
	assert.Equal(t, "hello world", out)
}

func TestLiteralWithMarkersRenders(t *testing.T) {
	p := prompt.New("hello {{ name }}").WithBinding("name", "swiftide")
	out, err := p.Render(nil)
	require.NoError(t, err)
	assert.Equal(t, "hello swiftide", out)
}

func TestNamedTemplateRenders(t *testing.T) {
	repo := prompt.NewRepository()
	repo.Extend("greeting", "hello {{ name }}!")

	p := prompt.FromTemplate("greeting").WithBinding("name", "world")
	out, err := p.Render(repo)
	require.NoError(t, err)
	assert.Equal(t, "hello world!", out)
}

func TestNamedTemplateNotFound(t *testing.T) {
	repo := prompt.NewRepository()
	p := prompt.FromTemplate("missing")

	_, err := p.Render(repo)
	require.Error(t, err)

	var tErr *prompt.TemplateError
	require.True(t, errors.As(err, &tErr))
	assert.Equal(t, prompt.NotFound, tErr.Kind)
}

func TestMissingVariableIsAnError(t *testing.T) {
	repo := prompt.NewRepository()
	repo.Extend("greeting", "hello {{ name }}!")

	p := prompt.FromTemplate("greeting")
	_, err := p.Render(repo)
	require.Error(t, err)

	var tErr *prompt.TemplateError
	require.True(t, errors.As(err, &tErr))
	assert.Equal(t, prompt.MissingVariable, tErr.Kind)
	assert.Equal(t, "name", tErr.Variable)
}

func TestForLoopTargetIsLocallyScoped(t *testing.T) {
	repo := prompt.NewRepository()
	repo.Extend("list", "{% for item in items %}{{ item }}\n{% endfor %}")

	p := prompt.FromTemplate("list").WithBinding("items", []string{"a", "b"})
	out, err := p.Render(repo)
	require.NoError(t, err)
	assert.Equal(t, "a\nb\n", out)
}

func TestIncludeSplicesRegisteredTemplate(t *testing.T) {
	repo := prompt.NewRepository()
	repo.Extend("header", "=== {{ title }} ===")
	repo.Extend("page", "{% include \"header\" %}\nbody")

	p := prompt.FromTemplate("page").WithBinding("title", "Report")
	out, err := p.Render(repo)
	require.NoError(t, err)
	assert.Equal(t, "=== Report ===\nbody", out)
}

func TestRenderingIsDeterministic(t *testing.T) {
	repo := prompt.NewRepository()
	repo.Extend("greeting", "hello {{ name }}!")
	p := prompt.FromTemplate("greeting").WithBinding("name", "world")

	out1, err := p.Render(repo)
	require.NoError(t, err)
	out2, err := p.Render(repo)
	require.NoError(t, err)
	assert.Equal(t, out1, out2)
}

func TestFilterPipeJoin(t *testing.T) {
	repo := prompt.NewRepository()
	repo.Extend("tags", "{{ tags|join(\", \") }}")
	p := prompt.FromTemplate("tags").WithBinding("tags", []string{"a", "b", "c"})

	out, err := p.Render(repo)
	require.NoError(t, err)
	assert.Equal(t, "a, b, c", out)
}

func TestDocumentsDefaultBinding(t *testing.T) {
	repo := prompt.NewRepository()
	repo.Extend("rag", "{% for d in documents %}{{ d.Content }}\n{% endfor %}")

	p := prompt.FromTemplate("rag").WithDocuments([]prompt.Document{
		{Content: "doc one"},
		{Content: "doc two"},
	})
	out, err := p.Render(repo)
	require.NoError(t, err)
	assert.Equal(t, "doc one\ndoc two\n", out)
}
