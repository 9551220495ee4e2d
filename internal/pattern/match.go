package pattern

import "github.com/oxhq/rubric/internal/ast"

// bindings maps capture names to the values bound so far in one attempt.
type bindings map[string]ast.Child

func (b bindings) clone() bindings {
	out := make(bindings, len(b))
	for k, v := range b {
		out[k] = v
	}
	return out
}

// matcher tests one child slot. It may add to b only when it returns true.
type matcher interface {
	match(t *ast.Tree, c ast.Child, b bindings) bool
}

type anyMatcher struct{}

func (anyMatcher) match(*ast.Tree, ast.Child, bindings) bool { return true }

type nilMatcher struct{}

func (nilMatcher) match(_ *ast.Tree, c ast.Child, _ bindings) bool { return c.IsNil() }

type kindMatcher struct{ kind ast.Kind }

func (m kindMatcher) match(t *ast.Tree, c ast.Child, _ bindings) bool {
	return !c.IsAtom() && c.Node != ast.NoNode && t.Kind(c.Node) == m.kind
}

type atomMatcher struct{ atom ast.Atom }

func (m atomMatcher) match(_ *ast.Tree, c ast.Child, _ bindings) bool {
	return c.IsAtom() && c.Atom == m.atom
}

type captureMatcher struct {
	name  string
	inner matcher
}

func (m captureMatcher) match(t *ast.Tree, c ast.Child, b bindings) bool {
	if !m.inner.match(t, c, b) {
		return false
	}
	if prev, ok := b[m.name]; ok {
		return t.Equal(prev, c)
	}
	b[m.name] = c
	return true
}

type predicateMatcher struct {
	name string
	fn   Predicate
}

func (m predicateMatcher) match(t *ast.Tree, c ast.Child, _ bindings) bool {
	return m.fn(Value{Tree: t, Child: c})
}

type notMatcher struct{ inner matcher }

func (m notMatcher) match(t *ast.Tree, c ast.Child, b bindings) bool {
	return !m.inner.match(t, c, b.clone())
}

type altMatcher struct{ branches []matcher }

func (m altMatcher) match(t *ast.Tree, c ast.Child, b bindings) bool {
	for _, br := range m.branches {
		trial := b.clone()
		if br.match(t, c, trial) {
			for k, v := range trial {
				b[k] = v
			}
			return true
		}
	}
	return false
}

type allMatcher struct{ parts []matcher }

func (m allMatcher) match(t *ast.Tree, c ast.Child, b bindings) bool {
	trial := b.clone()
	for _, p := range m.parts {
		if !p.match(t, c, trial) {
			return false
		}
	}
	for k, v := range trial {
		b[k] = v
	}
	return true
}

// seqMatcher matches a node: head against the node itself, children slot by
// slot. ellipsis is the index in children where "..." sits, or -1.
type seqMatcher struct {
	head     matcher
	children []matcher
	ellipsis int
}

func (m seqMatcher) match(t *ast.Tree, c ast.Child, b bindings) bool {
	if c.IsAtom() || c.Node == ast.NoNode {
		return false
	}
	slots := t.Children(c.Node)
	if m.ellipsis < 0 && len(slots) != len(m.children) {
		return false
	}
	if len(slots) < len(m.children) {
		return false
	}

	trial := b.clone()
	if !m.head.match(t, c, trial) {
		return false
	}
	before, after := m.children, []matcher(nil)
	if m.ellipsis >= 0 {
		before, after = m.children[:m.ellipsis], m.children[m.ellipsis:]
	}
	for i, p := range before {
		if !p.match(t, slots[i], trial) {
			return false
		}
	}
	tail := slots[len(slots)-len(after):]
	for i, p := range after {
		if !p.match(t, tail[i], trial) {
			return false
		}
	}
	for k, v := range trial {
		b[k] = v
	}
	return true
}
