package providers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oxhq/rubric/internal/ast"
	"github.com/oxhq/rubric/internal/model"
	"github.com/oxhq/rubric/internal/source"
)

// stubProvider satisfies Provider without parsing anything.
type stubProvider struct {
	language   string
	extensions []string
	filenames  []string
	parsed     []string
}

func (s *stubProvider) Language() string     { return s.language }
func (s *stubProvider) Extensions() []string { return s.extensions }
func (s *stubProvider) Filenames() []string  { return s.filenames }
func (s *stubProvider) Stats() Stats         { return Stats{} }

func (s *stubProvider) Parse(ctx context.Context, buf *source.Buffer) (*ast.Tree, error) {
	s.parsed = append(s.parsed, buf.Name())
	return &ast.Tree{}, nil
}

func TestNewRegistry(t *testing.T) {
	r := NewRegistry()
	require.NotNil(t, r)

	_, ok := r.Get("stub")
	assert.False(t, ok)
}

func TestRegistryRegister(t *testing.T) {
	r := NewRegistry()
	p := &stubProvider{language: "stublang", extensions: []string{".stub"}, filenames: []string{"Stubfile"}}
	r.Register(p)

	got, ok := r.Get("stublang")
	require.True(t, ok)
	assert.Same(t, p, got)

	for _, path := range []string{"lib/a.stub", "Stubfile", "deep/dir/Stubfile"} {
		got, ok := r.ForPath(path)
		if assert.True(t, ok, path) {
			assert.Same(t, p, got, path)
		}
	}

	_, ok = r.ForPath("README.md")
	assert.False(t, ok)
}

func TestRegistryReplacesLanguage(t *testing.T) {
	r := NewRegistry()
	r.Register(&stubProvider{language: "twice", extensions: []string{".tw1"}})
	second := &stubProvider{language: "twice", extensions: []string{".tw2"}}
	r.Register(second)

	got, ok := r.Get("twice")
	require.True(t, ok)
	assert.Same(t, second, got)
}

func TestRegistryParseDispatchesByPath(t *testing.T) {
	r := NewRegistry()
	p := &stubProvider{language: "dispatch", extensions: []string{".dsp"}}
	r.Register(p)

	tree, err := r.Parse(context.Background(), source.NewBufferString("lib/a.dsp", "x"))
	require.NoError(t, err)
	assert.NotNil(t, tree)
	assert.Equal(t, []string{"lib/a.dsp"}, p.parsed)

	_, err = r.Parse(context.Background(), source.NewBufferString("notes.unknownext", "x"))
	assert.ErrorIs(t, err, ErrNoProvider)
	assert.ErrorIs(t, err, model.ErrParseFailure)
	assert.Equal(t, model.ECParse, model.CodeOf(err))
}
