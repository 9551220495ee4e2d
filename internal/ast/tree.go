package ast

import (
	"github.com/oxhq/rubric/internal/source"
)

// Tree is an immutable arena of nodes built over one Buffer. Ids are 1-based;
// index 0 is reserved for NoNode.
type Tree struct {
	buf   *source.Buffer
	nodes []Node
	root  NodeID
}

func (t *Tree) Buffer() *source.Buffer { return t.buf }
func (t *Tree) Root() NodeID           { return t.root }

// Len returns the number of nodes in the tree.
func (t *Tree) Len() int { return len(t.nodes) - 1 }

// Node returns the node for id, or nil for NoNode. The result must not be modified.
func (t *Tree) Node(id NodeID) *Node {
	if id == NoNode || int(id) >= len(t.nodes) {
		return nil
	}
	return &t.nodes[id]
}

// Kind returns the kind of id, or "" for NoNode.
func (t *Tree) Kind(id NodeID) Kind {
	if n := t.Node(id); n != nil {
		return n.Kind
	}
	return ""
}

// Is reports whether id is a node of one of the given kinds.
func (t *Tree) Is(id NodeID, kinds ...Kind) bool {
	k := t.Kind(id)
	for _, want := range kinds {
		if k == want {
			return true
		}
	}
	return false
}

func (t *Tree) Range(id NodeID) source.Range {
	if n := t.Node(id); n != nil {
		return n.Range
	}
	return source.Range{}
}

func (t *Tree) Loc(id NodeID) Loc {
	if n := t.Node(id); n != nil {
		return n.Loc
	}
	return Loc{}
}

// Source returns the text a node was parsed from.
func (t *Tree) Source(id NodeID) string {
	n := t.Node(id)
	if n == nil {
		return ""
	}
	return t.buf.Slice(n.Range)
}

func (t *Tree) Parent(id NodeID) NodeID {
	if n := t.Node(id); n != nil {
		return n.Parent
	}
	return NoNode
}

func (t *Tree) Children(id NodeID) []Child {
	if n := t.Node(id); n != nil {
		return n.Children
	}
	return nil
}

// Child returns slot i of id, or a nil child when out of range.
func (t *Tree) Child(id NodeID, i int) Child {
	children := t.Children(id)
	if i < 0 || i >= len(children) {
		return Child{}
	}
	return children[i]
}

// NodeChildren returns the present node children of id, skipping atoms and nil slots.
func (t *Tree) NodeChildren(id NodeID) []NodeID {
	var out []NodeID
	for _, c := range t.Children(id) {
		if !c.IsAtom() && c.Node != NoNode {
			out = append(out, c.Node)
		}
	}
	return out
}

// Name returns the first symbol atom of id: the variable of an lvar or arg,
// the method of a send, the value of a sym.
func (t *Tree) Name(id NodeID) string {
	for _, c := range t.Children(id) {
		if c.Atom.Kind == AtomSymbol {
			return c.Atom.Text
		}
	}
	return ""
}

// Receiver returns the receiver of a send, or NoNode.
func (t *Tree) Receiver(id NodeID) NodeID {
	if !t.Kind(id).IsCall() {
		return NoNode
	}
	return t.Child(id, 0).Node
}

// MethodName returns the selector of a send.
func (t *Tree) MethodName(id NodeID) string {
	if !t.Kind(id).IsCall() {
		return ""
	}
	return t.Child(id, 1).Atom.Text
}

// Arguments returns the argument nodes of a send.
func (t *Tree) Arguments(id NodeID) []NodeID {
	if !t.Kind(id).IsCall() {
		return nil
	}
	children := t.Children(id)
	if len(children) < 2 {
		return nil
	}
	var out []NodeID
	for _, c := range children[2:] {
		out = append(out, c.Node)
	}
	return out
}

// BlockCall returns the call a block is attached to.
func (t *Tree) BlockCall(id NodeID) NodeID {
	if t.Kind(id) != KindBlock {
		return NoNode
	}
	return t.Child(id, 0).Node
}

// BlockArgs returns the args node of a block.
func (t *Tree) BlockArgs(id NodeID) NodeID {
	if t.Kind(id) != KindBlock {
		return NoNode
	}
	return t.Child(id, 1).Node
}

// BlockBody returns the body of a block, or NoNode for an empty block.
func (t *Tree) BlockBody(id NodeID) NodeID {
	if t.Kind(id) != KindBlock {
		return NoNode
	}
	return t.Child(id, 2).Node
}

// IsBraces reports whether a block is delimited by "{" and "}".
func (t *Tree) IsBraces(id NodeID) bool {
	loc := t.Loc(id)
	return !loc.Begin.IsZero() && t.buf.Slice(loc.Begin) == "{"
}

// IsSingleLine reports whether a node starts and ends on the same line.
func (t *Tree) IsSingleLine(id NodeID) bool {
	n := t.Node(id)
	return n != nil && t.buf.SameLine(n.Range)
}

// Ancestors returns the chain of parents of id, nearest first.
func (t *Tree) Ancestors(id NodeID) []NodeID {
	var out []NodeID
	for p := t.Parent(id); p != NoNode; p = t.Parent(p) {
		out = append(out, p)
	}
	return out
}
