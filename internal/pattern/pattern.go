// Package pattern compiles and evaluates structural node patterns.
//
// A pattern describes a node by its kind and its ordered children:
//
//	(block (send !nil {:reduce :inject}) $args _)
//
// Sequences, wildcards, literals, captures, alternation, negation,
// conjunction and named predicates are supported. Matching never fails
// with an error; a malformed pattern is rejected by Compile.
package pattern

import (
	"github.com/oxhq/rubric/internal/ast"
	"github.com/oxhq/rubric/internal/model"
)

// Value is what a predicate inspects: a child slot together with its tree.
type Value struct {
	Tree *ast.Tree
	ast.Child
}

// Kind returns the kind of the referenced node, or "" for atoms and absent nodes.
func (v Value) Kind() ast.Kind {
	if v.IsAtom() {
		return ""
	}
	return v.Tree.Kind(v.Node)
}

// Predicate decides whether a value satisfies a #name reference.
type Predicate func(Value) bool

// Option configures Compile.
type Option func(*compiler)

// WithPredicate registers fn under name for use as #name.
func WithPredicate(name string, fn Predicate) Option {
	return func(c *compiler) {
		c.preds[name] = fn
	}
}

// Pattern is a compiled matcher. It is immutable and safe for concurrent use.
type Pattern struct {
	src  string
	root matcher
}

// Result is the outcome of one match attempt.
type Result struct {
	Matched  bool
	Captures map[string]ast.Child
}

// Node returns the node bound to name, or NoNode.
func (r Result) Node(name string) ast.NodeID {
	c, ok := r.Captures[name]
	if !ok || c.IsAtom() {
		return ast.NoNode
	}
	return c.Node
}

// Atom returns the atom bound to name.
func (r Result) Atom(name string) (ast.Atom, bool) {
	c, ok := r.Captures[name]
	if !ok || !c.IsAtom() {
		return ast.Atom{}, false
	}
	return c.Atom, true
}

// Compile parses src. Errors are *SyntaxError values wrapping model.ErrConfiguration.
func Compile(src string, opts ...Option) (*Pattern, error) {
	c := &compiler{src: src, preds: make(map[string]Predicate)}
	for _, opt := range opts {
		opt(c)
	}
	toks, err := lex(src)
	if err != nil {
		return nil, err
	}
	c.toks = toks
	root, err := c.compile()
	if err != nil {
		return nil, err
	}
	return &Pattern{src: src, root: root}, nil
}

// MustCompile is like Compile but panics on error. It is meant for package-level patterns.
func MustCompile(src string, opts ...Option) *Pattern {
	p, err := Compile(src, opts...)
	if err != nil {
		panic(err)
	}
	return p
}

func (p *Pattern) String() string { return p.src }

// Match tests the pattern against node id of t.
func (p *Pattern) Match(t *ast.Tree, id ast.NodeID) Result {
	return p.MatchChild(t, ast.NodeChild(id))
}

// MatchChild tests the pattern against an arbitrary child slot, atoms included.
func (p *Pattern) MatchChild(t *ast.Tree, c ast.Child) Result {
	b := make(bindings)
	if !p.root.match(t, c, b) {
		return Result{}
	}
	return Result{Matched: true, Captures: b}
}

// Unwrap lets errors.Is classify pattern errors as configuration errors.
func (e *SyntaxError) Unwrap() error { return model.ErrConfiguration }
