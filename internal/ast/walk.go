package ast

import (
	"strconv"
	"strings"
)

// Walk visits id and its descendants in pre-order. Returning false from fn
// skips the children of the node just visited.
func (t *Tree) Walk(id NodeID, fn func(NodeID) bool) {
	if t.Node(id) == nil {
		return
	}
	if !fn(id) {
		return
	}
	for _, c := range t.Children(id) {
		if !c.IsAtom() && c.Node != NoNode {
			t.Walk(c.Node, fn)
		}
	}
}

// Descendants returns every node below id, in pre-order, whose kind is one of
// kinds. With no kinds, all descendants are returned.
func (t *Tree) Descendants(id NodeID, kinds ...Kind) []NodeID {
	var out []NodeID
	t.Walk(id, func(n NodeID) bool {
		if n != id && (len(kinds) == 0 || t.Is(n, kinds...)) {
			out = append(out, n)
		}
		return true
	})
	return out
}

// Equal reports whether two child slots are structurally equal: same atoms,
// or nodes of the same kind with pairwise equal children. Ranges are ignored.
func (t *Tree) Equal(a, b Child) bool {
	if a.IsAtom() || b.IsAtom() {
		return a.Atom == b.Atom && a.IsAtom() == b.IsAtom()
	}
	if a.Node == b.Node {
		return true
	}
	na, nb := t.Node(a.Node), t.Node(b.Node)
	if na == nil || nb == nil {
		return na == nb
	}
	if na.Kind != nb.Kind || len(na.Children) != len(nb.Children) {
		return false
	}
	for i := range na.Children {
		if !t.Equal(na.Children[i], nb.Children[i]) {
			return false
		}
	}
	return true
}

// Sexp renders id as an S-expression in parser gem notation,
// e.g. (send (lvar :c) :+ (lvar :d)).
func (t *Tree) Sexp(id NodeID) string {
	var sb strings.Builder
	t.writeSexp(&sb, NodeChild(id))
	return sb.String()
}

func (t *Tree) writeSexp(sb *strings.Builder, c Child) {
	if c.IsAtom() {
		writeAtom(sb, c.Atom)
		return
	}
	n := t.Node(c.Node)
	if n == nil {
		sb.WriteString("nil")
		return
	}
	sb.WriteByte('(')
	sb.WriteString(string(n.Kind))
	for _, child := range n.Children {
		sb.WriteByte(' ')
		t.writeSexp(sb, child)
	}
	sb.WriteByte(')')
}

func writeAtom(sb *strings.Builder, a Atom) {
	switch a.Kind {
	case AtomSymbol:
		sb.WriteByte(':')
		sb.WriteString(a.Text)
	case AtomString:
		sb.WriteString(strconv.Quote(a.Text))
	default:
		sb.WriteString(a.Text)
	}
}
