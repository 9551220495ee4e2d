package ast

import "github.com/oxhq/rubric/internal/source"

// Builder assembles a Tree bottom-up. Children must be added before their parent.
type Builder struct {
	tree *Tree
}

func NewBuilder(buf *source.Buffer) *Builder {
	return &Builder{tree: &Tree{buf: buf, nodes: make([]Node, 1, 64)}}
}

// Add appends a node and claims its node children.
func (b *Builder) Add(kind Kind, r source.Range, loc Loc, children ...Child) NodeID {
	id := NodeID(len(b.tree.nodes))
	b.tree.nodes = append(b.tree.nodes, Node{
		Kind:     kind,
		Range:    r,
		Children: children,
		Loc:      loc,
	})
	for _, c := range children {
		if !c.IsAtom() && c.Node != NoNode {
			b.tree.nodes[c.Node].Parent = id
		}
	}
	return id
}

// Range returns the range of a node already added.
func (b *Builder) Range(id NodeID) source.Range {
	return b.tree.Range(id)
}

// Kind returns the kind of a node already added.
func (b *Builder) Kind(id NodeID) Kind {
	return b.tree.Kind(id)
}

// Finish seals the tree with the given root. The builder must not be used afterwards.
func (b *Builder) Finish(root NodeID) *Tree {
	t := b.tree
	t.root = root
	b.tree = nil
	return t
}
