// Package cop defines the rule contract, the offense model, the cop registry
// and the commissioner that runs cops over a syntax tree.
package cop

import (
	"github.com/tliron/commonlog"

	"github.com/oxhq/rubric/internal/ast"
	"github.com/oxhq/rubric/internal/corrector"
	"github.com/oxhq/rubric/internal/model"
	"github.com/oxhq/rubric/internal/source"
)

var log = commonlog.GetLogger("rubric.cop")

// Cop inspects nodes of the kinds it declares. Visit must not keep state
// between calls; one cop value serves every file of a run.
type Cop interface {
	Name() string
	// InterestedKinds lists the node kinds offered to Visit. An empty list means every kind.
	InterestedKinds() []ast.Kind
	Visit(node ast.NodeID, ctx *Context) []Offense
}

// Describer is implemented by cops that carry a one-line description.
type Describer interface {
	Description() string
}

// Autocorrector is implemented by cops that can attach corrections.
type Autocorrector interface {
	SupportsAutocorrect() bool
}

// Offense is a single violation found by a cop.
type Offense struct {
	Cop        string
	Range      source.Range
	Severity   model.Severity
	Message    string
	Correction *corrector.Correction
}

// Correctable reports whether the offense carries a non-empty correction.
func (o Offense) Correctable() bool {
	return o.Correction != nil && !o.Correction.IsEmpty()
}

// Context is what a cop sees while visiting one file.
type Context struct {
	Tree   *ast.Tree
	Buffer *source.Buffer
	Path   string

	cop string
}

// NewContext builds a visiting context for tree.
func NewContext(path string, tree *ast.Tree) *Context {
	return &Context{Tree: tree, Buffer: tree.Buffer(), Path: path}
}

// Offense builds an offense at r. When fix is non-nil it fills a correction
// builder; a fix that fails leaves the offense uncorrectable.
func (c *Context) Offense(r source.Range, msg string, fix func(b *corrector.Builder) error) Offense {
	o := Offense{Cop: c.cop, Range: r, Message: msg}
	if fix == nil {
		return o
	}
	b := corrector.New()
	if err := fix(b); err != nil {
		log.Debugf("%s: dropping correction for %s at %s: %s", c.Path, c.cop, r, err)
		return o
	}
	corr := b.Correction()
	o.Correction = &corr
	return o
}
