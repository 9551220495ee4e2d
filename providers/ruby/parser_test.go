package ruby

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oxhq/rubric/internal/ast"
	"github.com/oxhq/rubric/internal/model"
	"github.com/oxhq/rubric/internal/source"
)

func parse(t *testing.T, src string) *ast.Tree {
	t.Helper()
	tree, err := New().Parse(context.Background(), source.NewBufferString("test.rb", src))
	require.NoError(t, err)
	return tree
}

func TestParseSexp(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{
			name: "brace block with receiver",
			src:  "xs.reduce { |c, d| c + d }",
			want: "(block (send (send nil :xs) :reduce) (args (arg :c) (arg :d)) (send (lvar :c) :+ (lvar :d)))",
		},
		{
			name: "symbol argument is a literal",
			src:  "call_method(:reduce) { |a, b| a + b }",
			want: "(block (send nil :call_method (sym :reduce)) (args (arg :a) (arg :b)) (send (lvar :a) :+ (lvar :b)))",
		},
		{
			name: "destructured parameter",
			src:  "test.reduce { |a, (id, _)| a + id }",
			want: "(block (send (send nil :test) :reduce) (args (arg :a) (mlhs (arg :id) (arg :_))) (send (lvar :a) :+ (lvar :id)))",
		},
		{
			name: "block without parameters",
			src:  "test.reduce { true }",
			want: "(block (send (send nil :test) :reduce) (args) (true))",
		},
		{
			name: "assignment declares a local",
			src:  "x = 1\nx + y",
			want: "(begin (lvasgn :x (int 1)) (send (lvar :x) :+ (send nil :y)))",
		},
		{
			name: "method body hides outer locals",
			src:  "x = 1\ndef m\n  x\nend",
			want: "(begin (lvasgn :x (int 1)) (def :m (args) (send nil :x)))",
		},
		{
			name: "block sees outer locals",
			src:  "x = 1\n[2].each { |y| x + y }",
			want: "(begin (lvasgn :x (int 1)) (block (send (array (int 2)) :each) (args (arg :y)) (send (lvar :x) :+ (lvar :y))))",
		},
		{
			name: "safe navigation",
			src:  "a&.b",
			want: "(csend (send nil :a) :b)",
		},
		{
			name: "string and constant",
			src:  "Foo.new(\"bar\")",
			want: "(send (const nil :Foo) :new (str \"bar\"))",
		},
		{
			name: "instance variable assignment",
			src:  "@total = 0",
			want: "(ivasgn :@total (int 0))",
		},
		{
			name: "logical operators",
			src:  "a && b",
			want: "(and (send nil :a) (send nil :b))",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree := parse(t, tt.src)
			assert.Equal(t, tt.want, tree.Sexp(tree.Root()))
		})
	}
}

func TestParseBlockLocations(t *testing.T) {
	src := "[0, 1].reduce(5) { |c, d| c + d }"
	tree := parse(t, src)

	block := tree.Root()
	require.Equal(t, ast.KindBlock, tree.Kind(block))
	assert.True(t, tree.IsBraces(block))
	assert.True(t, tree.IsSingleLine(block))
	assert.Equal(t, src, tree.Source(block))
	assert.Equal(t, "[0, 1].reduce(5)", tree.Source(tree.BlockCall(block)))
	assert.Equal(t, "reduce", tree.Buffer().Slice(tree.Loc(tree.BlockCall(block)).Selector))

	args := tree.BlockArgs(block)
	assert.Equal(t, "|c, d|", tree.Source(args))
	assert.Equal(t, "|", tree.Buffer().Slice(tree.Loc(args).Begin))
	assert.Equal(t, "|", tree.Buffer().Slice(tree.Loc(args).End))
}

func TestParseDoBlock(t *testing.T) {
	tree := parse(t, "[0, 1].reduce do |c, d|\n  c + d\nend\n")

	block := tree.Root()
	require.Equal(t, ast.KindBlock, tree.Kind(block))
	assert.False(t, tree.IsBraces(block))
	assert.False(t, tree.IsSingleLine(block))
	assert.Equal(t, "do", tree.Buffer().Slice(tree.Loc(block).Begin))
	assert.Equal(t, "end", tree.Buffer().Slice(tree.Loc(block).End))
}

func TestParseEmptyBlockArgsIsInsertionPoint(t *testing.T) {
	src := "test.reduce { true }"
	tree := parse(t, src)

	args := tree.BlockArgs(tree.Root())
	r := tree.Range(args)
	assert.True(t, r.Empty())
	assert.Equal(t, len("test.reduce {"), r.Start)
}

func TestParseEmptySource(t *testing.T) {
	tree := parse(t, "# only a comment\n")

	assert.Equal(t, ast.NoNode, tree.Root())
	assert.Equal(t, 0, tree.Len())
}

func TestParseFailure(t *testing.T) {
	p := New()
	_, err := p.Parse(context.Background(), source.NewBufferString("broken.rb", "def m(\n  [1, 2\n"))

	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrParseFailure))

	var perr *model.ParseError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "broken.rb", perr.File)
	assert.GreaterOrEqual(t, perr.Line, 1)
	assert.Equal(t, model.ECParse, model.CodeOf(err))
}

func TestProviderStats(t *testing.T) {
	p := New()
	for i := 0; i < 3; i++ {
		_, err := p.Parse(context.Background(), source.NewBufferString("a.rb", "a = 1"))
		require.NoError(t, err)
	}

	stats := p.Stats()
	assert.Equal(t, int64(3), stats.BorrowCount)
	assert.Equal(t, int64(3), stats.ReturnCount)
	assert.Equal(t, int64(0), stats.Active)
	assert.Equal(t, "ruby", p.Language())
	assert.Contains(t, p.Extensions(), ".rb")
	assert.Contains(t, p.Filenames(), "Rakefile")
}

func TestIntAtom(t *testing.T) {
	assert.Equal(t, ast.Int(1000), intAtom("1_000"))
	assert.Equal(t, ast.Int(255), intAtom("0xff"))
	assert.Equal(t, ast.Int(-3), intAtom("-3"))
	assert.Equal(t, ast.Int(12), intAtom("0d12"))
	assert.Equal(t, ast.AtomInt, intAtom("123456789012345678901234567890").Kind)
}
