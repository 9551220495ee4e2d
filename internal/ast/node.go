package ast

import (
	"strconv"

	"github.com/oxhq/rubric/internal/source"
)

// NodeID indexes a node inside its Tree. NoNode marks an absent child.
type NodeID uint32

const NoNode NodeID = 0

func (id NodeID) IsValid() bool { return id != NoNode }

// AtomKind distinguishes the literal payloads a child slot may hold.
type AtomKind uint8

const (
	AtomNone AtomKind = iota
	AtomSymbol
	AtomString
	AtomInt
	AtomFloat
)

func (k AtomKind) String() string {
	switch k {
	case AtomSymbol:
		return "symbol"
	case AtomString:
		return "string"
	case AtomInt:
		return "int"
	case AtomFloat:
		return "float"
	default:
		return "none"
	}
}

// Atom is a literal child value: a method or variable name, a string, or a number.
type Atom struct {
	Kind AtomKind
	Text string
}

func Symbol(name string) Atom { return Atom{Kind: AtomSymbol, Text: name} }
func String(s string) Atom    { return Atom{Kind: AtomString, Text: s} }
func Int(v int64) Atom        { return Atom{Kind: AtomInt, Text: strconv.FormatInt(v, 10)} }

func Float(v float64) Atom {
	return Atom{Kind: AtomFloat, Text: strconv.FormatFloat(v, 'g', -1, 64)}
}

// Child is one ordered slot of a node: a node reference, or an atom when Atom.Kind is set.
type Child struct {
	Node NodeID
	Atom Atom
}

func NodeChild(id NodeID) Child { return Child{Node: id} }
func AtomChild(a Atom) Child    { return Child{Atom: a} }

// IsAtom reports whether the slot holds a literal value.
func (c Child) IsAtom() bool { return c.Atom.Kind != AtomNone }

// IsNil reports whether the slot is an absent node.
func (c Child) IsNil() bool { return !c.IsAtom() && c.Node == NoNode }

// Loc holds the named sub-ranges of a node. Absent parts are zero ranges.
type Loc struct {
	Begin    source.Range // opening delimiter: "{", "do", "|", "("
	End      source.Range // closing delimiter
	Selector source.Range // method name of a call
	Operator source.Range // "." / "&." of a call, or the operator token
}

// Node is one immutable tree element.
type Node struct {
	Kind     Kind
	Range    source.Range
	Children []Child
	Parent   NodeID
	Loc      Loc
}
