package cop

import (
	"fmt"
	"runtime/debug"
	"sort"

	"github.com/oxhq/rubric/internal/ast"
	"github.com/oxhq/rubric/internal/model"
)

// Commissioner offers every node of a tree, in pre-order, to the cops
// interested in its kind.
type Commissioner struct {
	cops   []Instance
	byKind map[ast.Kind][]int
	any    []int
}

// NewCommissioner prepares the dispatch table for cops, which must be in registry order.
func NewCommissioner(cops []Instance) *Commissioner {
	c := &Commissioner{cops: cops, byKind: make(map[ast.Kind][]int)}
	for i, inst := range cops {
		kinds := inst.Cop.InterestedKinds()
		if len(kinds) == 0 {
			c.any = append(c.any, i)
			continue
		}
		for _, k := range kinds {
			c.byKind[k] = append(c.byKind[k], i)
		}
	}
	return c
}

func (c *Commissioner) Cops() []Instance { return c.cops }

// Investigate runs the cops over tree. Offenses come back grouped by cop in
// registry order, and in traversal order within one cop. A panicking cop
// yields an ErrCopFailure entry in errs; the traversal goes on.
func (c *Commissioner) Investigate(path string, tree *ast.Tree) (offenses []Offense, errs []error) {
	type found struct {
		cop int
		o   Offense
	}
	var all []found

	ctx := NewContext(path, tree)
	tree.Walk(tree.Root(), func(id ast.NodeID) bool {
		for _, i := range c.dispatch(tree.Kind(id)) {
			inst := c.cops[i]
			got, err := c.visit(inst, id, ctx)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			for _, o := range got {
				o.Cop = inst.Cop.Name()
				o.Severity = inst.Severity
				all = append(all, found{cop: i, o: o})
			}
		}
		return true
	})

	sort.SliceStable(all, func(a, b int) bool { return all[a].cop < all[b].cop })
	offenses = make([]Offense, len(all))
	for i, f := range all {
		offenses[i] = f.o
	}
	return offenses, errs
}

// dispatch lists the cop indices for kind in registry order.
func (c *Commissioner) dispatch(kind ast.Kind) []int {
	specific := c.byKind[kind]
	if len(c.any) == 0 {
		return specific
	}
	out := append(append([]int(nil), specific...), c.any...)
	sort.Ints(out)
	return out
}

func (c *Commissioner) visit(inst Instance, id ast.NodeID, ctx *Context) (offs []Offense, err error) {
	defer func() {
		if r := recover(); r != nil {
			pos := ctx.Buffer.Position(ctx.Tree.Range(id).Start)
			err = fmt.Errorf("%w: %s at %s:%s: %v", model.ErrCopFailure, inst.Cop.Name(), ctx.Path, pos, r)
			log.Warningf("%s\n%s", err, debug.Stack())
		}
	}()
	ctx.cop = inst.Cop.Name()
	return inst.Cop.Visit(id, ctx), nil
}
