// Package style holds cops that enforce naming and layout conventions.
package style

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/oxhq/rubric/internal/ast"
	"github.com/oxhq/rubric/internal/config"
	"github.com/oxhq/rubric/internal/cop"
	"github.com/oxhq/rubric/internal/corrector"
	"github.com/oxhq/rubric/internal/model"
	"github.com/oxhq/rubric/internal/pattern"
)

// SingleLineBlockParamsName is the registry name of SingleLineBlockParams.
const SingleLineBlockParamsName = "Style/SingleLineBlockParams"

const singleLineBlockParamsDescription = "Checks the parameter names of single-line blocks passed to configured methods."

func init() {
	cop.Register(cop.Entry{
		Name:            SingleLineBlockParamsName,
		Description:     singleLineBlockParamsDescription,
		DefaultSeverity: model.SeverityConvention,
		Defaults: config.CopConfig{
			Enabled:     true,
			AutoCorrect: true,
			Options: map[string]any{
				"Methods": []any{
					map[string]any{"reduce": []any{"acc", "elem"}},
					map[string]any{"inject": []any{"acc", "elem"}},
				},
			},
		},
		Validate: func(cc config.CopConfig) error {
			_, err := parseMethods(cc)
			return err
		},
		Factory: NewSingleLineBlockParams,
	})
}

// MethodParams is one entry of the Methods option.
type MethodParams struct {
	Method string
	Params []string
}

// SingleLineBlockParams checks that single-line brace blocks given to
// configured methods name their parameters as configured:
//
//	# Methods: [{reduce: [a, e]}]
//	# bad
//	foo.reduce { |c, d| c + d }
//	# good
//	foo.reduce { |a, e| a + e }
type SingleLineBlockParams struct {
	methods map[string][]string
}

// NewSingleLineBlockParams builds the cop from its configuration section.
func NewSingleLineBlockParams(cc config.CopConfig) (cop.Cop, error) {
	list, err := parseMethods(cc)
	if err != nil {
		return nil, err
	}
	c := &SingleLineBlockParams{methods: make(map[string][]string, len(list))}
	for _, m := range list {
		c.methods[m.Method] = m.Params
	}
	return c, nil
}

func (c *SingleLineBlockParams) Name() string                { return SingleLineBlockParamsName }
func (c *SingleLineBlockParams) InterestedKinds() []ast.Kind { return []ast.Kind{ast.KindBlock} }
func (c *SingleLineBlockParams) SupportsAutocorrect() bool   { return true }
func (c *SingleLineBlockParams) Description() string         { return singleLineBlockParamsDescription }

// eligibleBlock matches a block passed to a call with a receiver, with at
// least one parameter that starts as a plain arg.
var eligibleBlock = pattern.MustCompile(`
	(block
	  ({send csend} !nil $method ...)   ; receiver required
	  $params=(args arg ...)
	  _)`)

func (c *SingleLineBlockParams) Visit(id ast.NodeID, ctx *cop.Context) []cop.Offense {
	t := ctx.Tree
	if !t.IsBraces(id) || !t.IsSingleLine(id) {
		return nil
	}
	m := eligibleBlock.Match(t, id)
	if !m.Matched {
		return nil
	}
	method, _ := m.Atom("method")
	want, ok := c.methods[method.Text]
	if !ok {
		return nil
	}

	argsID := m.Node("params")
	params := t.NodeChildren(argsID)
	names := make([]string, len(params))
	for i, p := range params {
		if t.Kind(p) != ast.KindArg {
			return nil
		}
		names[i] = t.Name(p)
	}

	preferred, differs := preferredNames(names, want)
	if !differs {
		return nil
	}

	msg := fmt.Sprintf("Name `%s` block params `|%s|`.", method.Text, strings.Join(preferred, ", "))
	return []cop.Offense{ctx.Offense(t.Range(argsID), msg, func(b *corrector.Builder) error {
		return correct(b, t, id, argsID, names, preferred)
	})}
}

// preferredNames compares names with the configured list, ignoring leading
// underscores. Parameters past the end of the list keep their names.
func preferredNames(names, want []string) (preferred []string, differs bool) {
	preferred = make([]string, len(names))
	for i, name := range names {
		if i >= len(want) {
			preferred[i] = name
			continue
		}
		if stripUnderscores(name) != stripUnderscores(want[i]) {
			differs = true
		}
		p := want[i]
		if strings.HasPrefix(name, "_") && !strings.HasPrefix(p, "_") {
			p = "_" + p
		}
		preferred[i] = p
	}
	return preferred, differs
}

func stripUnderscores(s string) string { return strings.TrimLeft(s, "_") }

// correct rewrites the parameter list and every use of a renamed parameter
// in the block body.
func correct(b *corrector.Builder, t *ast.Tree, block, args ast.NodeID, names, preferred []string) error {
	if err := b.Replace(t.Range(args), "|"+strings.Join(preferred, ", ")+"|"); err != nil {
		return err
	}
	renames := make(map[string]string, len(names))
	for i, name := range names {
		if preferred[i] != name {
			renames[name] = preferred[i]
		}
	}
	var err error
	renameUses(t, t.BlockBody(block), renames, func(lvar ast.NodeID, to string) {
		if err == nil {
			err = b.Replace(t.Range(lvar), to)
		}
	})
	return err
}

// renameUses visits the lvars under id whose names are in renames. Blocks
// that declare one of the names again shadow it for their subtree.
func renameUses(t *ast.Tree, id ast.NodeID, renames map[string]string, fn func(ast.NodeID, string)) {
	if id == ast.NoNode || len(renames) == 0 {
		return
	}
	switch t.Kind(id) {
	case ast.KindLvar:
		if to, ok := renames[t.Name(id)]; ok {
			fn(id, to)
		}
		return
	case ast.KindBlock:
		renameUses(t, t.BlockCall(id), renames, fn)
		inner, cloned := renames, false
		for _, name := range declaredNames(t, t.BlockArgs(id)) {
			if _, ok := inner[name]; !ok {
				continue
			}
			if !cloned {
				inner, cloned = cloneMap(renames), true
			}
			delete(inner, name)
		}
		renameUses(t, t.BlockArgs(id), inner, fn)
		renameUses(t, t.BlockBody(id), inner, fn)
		return
	}
	for _, child := range t.NodeChildren(id) {
		renameUses(t, child, renames, fn)
	}
}

// declaredNames lists the local names a parameter list introduces.
func declaredNames(t *ast.Tree, args ast.NodeID) []string {
	var out []string
	t.Walk(args, func(n ast.NodeID) bool {
		if t.Kind(n).IsArgument() {
			if name := t.Name(n); name != "" {
				out = append(out, name)
			}
		}
		return true
	})
	return out
}

func cloneMap(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

var localName = regexp.MustCompile(`^[a-z_][A-Za-z0-9_]*$`)

// parseMethods decodes and validates the Methods option.
func parseMethods(cc config.CopConfig) ([]MethodParams, error) {
	raw, ok := cc.Option("Methods")
	if !ok {
		return nil, nil
	}
	items, ok := raw.([]any)
	if !ok {
		return nil, model.NewConfigError([]string{SingleLineBlockParamsName, "Methods"},
			"expected a list of {method: [params]} mappings")
	}

	seen := make(map[string]bool, len(items))
	out := make([]MethodParams, 0, len(items))
	for i, item := range items {
		path := []string{SingleLineBlockParamsName, fmt.Sprintf("Methods[%d]", i)}
		entry, ok := item.(map[string]any)
		if !ok || len(entry) != 1 {
			return nil, model.NewConfigError(path, "expected a single {method: [params]} mapping")
		}
		for method, v := range entry {
			if method == "" {
				return nil, model.NewConfigError(path, "method name is empty")
			}
			if seen[method] {
				return nil, model.NewConfigError(path, "method %q listed twice", method)
			}
			seen[method] = true

			list, ok := v.([]any)
			if !ok || len(list) == 0 {
				return nil, model.NewConfigError(path, "parameters of %q must be a non-empty list", method)
			}
			params := make([]string, len(list))
			for j, p := range list {
				name, ok := p.(string)
				if !ok || !localName.MatchString(name) {
					return nil, model.NewConfigError(path, "parameter %v of %q is not a local variable name", p, method)
				}
				params[j] = name
			}
			out = append(out, MethodParams{Method: method, Params: params})
		}
	}
	return out, nil
}
