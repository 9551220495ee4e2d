package ruby

import (
	"strconv"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/oxhq/rubric/internal/ast"
	"github.com/oxhq/rubric/internal/source"
)

// converter maps tree-sitter Ruby nodes onto the parser gem shaped ast.Tree.
// It tracks local variable scope so identifiers resolve to lvar or to a
// receiverless send, the way the Ruby parser decides.
type converter struct {
	buf   *source.Buffer
	src   []byte
	b     *ast.Builder
	scope *scope
}

func newConverter(buf *source.Buffer) *converter {
	return &converter{
		buf: buf,
		src: buf.Bytes(),
		b:   ast.NewBuilder(buf),
	}
}

func (c *converter) program(root *sitter.Node) ast.NodeID {
	c.push(true)
	defer c.pop()

	var stmts []*sitter.Node
	for _, n := range named(root) {
		if n.Type() == "uninterpreted" {
			continue
		}
		stmts = append(stmts, n)
	}
	return c.body(stmts)
}

// expr converts one expression node.
func (c *converter) expr(n *sitter.Node) ast.NodeID {
	if n == nil {
		return ast.NoNode
	}
	switch n.Type() {
	case "comment", "empty_statement", "heredoc_end":
		return ast.NoNode
	case "identifier":
		return c.identifier(n)
	case "constant":
		return c.add(ast.KindConst, n, ast.Loc{}, ast.Child{}, atom(ast.Symbol(c.text(n))))
	case "scope_resolution":
		ns := c.expr(field(n, "scope"))
		return c.add(ast.KindConst, n, ast.Loc{}, ast.NodeChild(ns), atom(ast.Symbol(c.text(field(n, "name")))))
	case "instance_variable":
		return c.add(ast.KindIvar, n, ast.Loc{}, atom(ast.Symbol(c.text(n))))
	case "class_variable":
		return c.add(ast.KindCvar, n, ast.Loc{}, atom(ast.Symbol(c.text(n))))
	case "global_variable":
		return c.add(ast.KindGvar, n, ast.Loc{}, atom(ast.Symbol(c.text(n))))
	case "integer":
		return c.add(ast.KindInt, n, ast.Loc{}, atom(intAtom(c.text(n))))
	case "float":
		return c.add(ast.KindFloat, n, ast.Loc{}, atom(floatAtom(c.text(n))))
	case "true":
		return c.add(ast.KindTrue, n, ast.Loc{})
	case "false":
		return c.add(ast.KindFalse, n, ast.Loc{})
	case "nil":
		return c.add(ast.KindNil, n, ast.Loc{})
	case "self":
		return c.add(ast.KindSelf, n, ast.Loc{})
	case "super":
		return c.add(ast.KindZSuper, n, ast.Loc{})
	case "string", "heredoc_beginning":
		return c.str(n, ast.KindStr, ast.KindDStr)
	case "delimited_symbol":
		return c.str(n, ast.KindSym, ast.KindDSym)
	case "subshell":
		return c.str(n, ast.KindXStr, ast.KindXStr)
	case "regex":
		return c.regexp(n)
	case "chained_string":
		return c.add(ast.KindDStr, n, ast.Loc{}, c.exprs(named(n))...)
	case "string_content", "bare_string", "escape_sequence":
		return c.add(ast.KindStr, n, ast.Loc{}, atom(ast.String(c.text(n))))
	case "simple_symbol":
		return c.add(ast.KindSym, n, ast.Loc{}, atom(ast.Symbol(strings.TrimPrefix(c.text(n), ":"))))
	case "hash_key_symbol", "bare_symbol":
		return c.add(ast.KindSym, n, ast.Loc{}, atom(ast.Symbol(c.text(n))))
	case "character":
		return c.add(ast.KindStr, n, ast.Loc{}, atom(ast.String(strings.TrimPrefix(c.text(n), "?"))))
	case "array", "string_array", "symbol_array":
		return c.add(ast.KindArray, n, c.delimiters(n), c.exprs(named(n))...)
	case "hash":
		return c.add(ast.KindHash, n, c.delimiters(n), c.exprs(named(n))...)
	case "pair":
		key := c.expr(field(n, "key"))
		value := c.expr(field(n, "value"))
		return c.add(ast.KindPair, n, ast.Loc{}, ast.NodeChild(key), ast.NodeChild(value))
	case "range":
		return c.rangeExpr(n)
	case "parenthesized_statements":
		return c.add(ast.KindBegin, n, c.delimiters(n), c.exprs(named(n))...)
	case "begin":
		return c.add(ast.KindKwBegin, n, c.delimiters(n), c.exprs(named(n))...)
	case "interpolation":
		return c.add(ast.KindBegin, n, c.delimiters(n), c.exprs(named(n))...)
	case "call":
		return c.send(n, field(n, "receiver"), field(n, "operator"), field(n, "method"), field(n, "arguments"), field(n, "block"))
	case "method_call":
		return c.methodCall(n)
	case "element_reference":
		obj := field(n, "object")
		children := []ast.Child{ast.NodeChild(c.expr(obj))}
		children = append(children, c.exprs(rest(n, obj))...)
		return c.add(ast.KindIndex, n, ast.Loc{}, children...)
	case "assignment":
		return c.assignment(n)
	case "operator_assignment":
		return c.opAssignment(n)
	case "binary":
		return c.binary(n)
	case "unary":
		return c.unary(n)
	case "if", "unless", "elsif":
		return c.conditional(n)
	case "if_modifier", "unless_modifier", "while_modifier", "until_modifier":
		return c.modifier(n)
	case "while", "until":
		cond := c.expr(field(n, "condition"))
		body := c.body(named(field(n, "body")))
		kind := ast.KindWhile
		if n.Type() == "until" {
			kind = ast.KindUntil
		}
		return c.add(kind, n, ast.Loc{}, ast.NodeChild(cond), ast.NodeChild(body))
	case "conditional":
		cond := c.expr(field(n, "condition"))
		then := c.expr(field(n, "consequence"))
		alt := c.expr(field(n, "alternative"))
		return c.add(ast.KindIf, n, ast.Loc{}, ast.NodeChild(cond), ast.NodeChild(then), ast.NodeChild(alt))
	case "case":
		return c.caseExpr(n)
	case "return", "break", "next", "yield":
		return c.add(ast.Kind(n.Type()), n, ast.Loc{}, c.arguments(firstOfType(n, "argument_list"))...)
	case "method":
		return c.def(n)
	case "singleton_method":
		return c.defs(n)
	case "class", "module", "singleton_class":
		return c.container(n)
	case "lambda":
		return c.lambda(n)
	case "splat_argument":
		return c.add(ast.KindSplat, n, ast.Loc{}, c.exprs(named(n))...)
	case "hash_splat_argument":
		return c.add(ast.KindKwSplat, n, ast.Loc{}, c.exprs(named(n))...)
	case "block_argument":
		return c.add(ast.KindBlockPass, n, ast.Loc{}, ast.NodeChild(c.expr(firstNamed(n))))
	case "exception_variable":
		nameN := firstNamed(n)
		c.scope.declare(c.text(nameN))
		return c.add(ast.KindLvasgn, nameN, ast.Loc{}, atom(ast.Symbol(c.text(nameN))))
	case "for":
		return c.forExpr(n)
	default:
		return c.generic(n)
	}
}

// generic keeps the grammar production name for kinds without a dedicated mapping.
func (c *converter) generic(n *sitter.Node) ast.NodeID {
	kids := named(n)
	if len(kids) == 0 {
		return c.add(ast.Kind(n.Type()), n, ast.Loc{}, atom(ast.String(c.text(n))))
	}
	return c.add(ast.Kind(n.Type()), n, ast.Loc{}, c.exprs(kids)...)
}

func (c *converter) identifier(n *sitter.Node) ast.NodeID {
	name := c.text(n)
	if c.scope.has(name) {
		return c.add(ast.KindLvar, n, ast.Loc{}, atom(ast.Symbol(name)))
	}
	return c.add(ast.KindSend, n, ast.Loc{Selector: c.rng(n)}, ast.Child{}, atom(ast.Symbol(name)))
}

// body converts a statement list: nothing, a single statement, or a begin.
func (c *converter) body(stmts []*sitter.Node) ast.NodeID {
	var ids []ast.NodeID
	for _, s := range stmts {
		if id := c.expr(s); id != ast.NoNode {
			ids = append(ids, id)
		}
	}
	switch len(ids) {
	case 0:
		return ast.NoNode
	case 1:
		return ids[0]
	}
	r := c.b.Range(ids[0]).Cover(c.b.Range(ids[len(ids)-1]))
	children := make([]ast.Child, len(ids))
	for i, id := range ids {
		children[i] = ast.NodeChild(id)
	}
	return c.b.Add(ast.KindBegin, r, ast.Loc{}, children...)
}

func (c *converter) exprs(nodes []*sitter.Node) []ast.Child {
	out := make([]ast.Child, 0, len(nodes))
	for _, n := range nodes {
		if id := c.expr(n); id != ast.NoNode {
			out = append(out, ast.NodeChild(id))
		}
	}
	return out
}

// send converts a method invocation, then wraps it in a block when one is attached.
func (c *converter) send(whole, recvN, opN, methN, argsN, blockN *sitter.Node) ast.NodeID {
	if methN != nil && methN.Type() == "super" {
		args := c.arguments(argsN)
		kind := ast.KindSuper
		if argsN == nil {
			kind = ast.KindZSuper
		}
		id := c.b.Add(kind, c.callRange(whole, methN, argsN), ast.Loc{Selector: c.rng(methN)}, args...)
		return c.attachBlock(whole, id, blockN)
	}

	recv := ast.NoNode
	if recvN != nil {
		recv = c.expr(recvN)
	}
	name := "call"
	loc := ast.Loc{}
	if methN != nil {
		name = c.text(methN)
		loc.Selector = c.rng(methN)
	}
	kind := ast.KindSend
	if opN != nil {
		loc.Operator = c.rng(opN)
		if c.text(opN) == "&." {
			kind = ast.KindCSend
		}
	}
	if argsN != nil && argsN.ChildCount() > 0 && argsN.Child(0).Type() == "(" {
		loc.Begin = c.rng(argsN.Child(0))
		loc.End = c.rng(argsN.Child(int(argsN.ChildCount()) - 1))
	}

	children := []ast.Child{ast.NodeChild(recv), atom(ast.Symbol(name))}
	children = append(children, c.arguments(argsN)...)
	id := c.b.Add(kind, c.callRange(whole, methN, argsN), loc, children...)
	return c.attachBlock(whole, id, blockN)
}

// methodCall handles grammars that wrap calls with arguments or blocks in method_call.
func (c *converter) methodCall(n *sitter.Node) ast.NodeID {
	methN := field(n, "method")
	if methN != nil && methN.Type() == "call" {
		return c.send(n, field(methN, "receiver"), field(methN, "operator"), field(methN, "method"),
			field(n, "arguments"), field(n, "block"))
	}
	return c.send(n, nil, nil, methN, field(n, "arguments"), field(n, "block"))
}

// callRange spans a call without its block.
func (c *converter) callRange(whole, methN, argsN *sitter.Node) source.Range {
	r := c.rng(whole)
	end := r.Start
	for _, part := range []*sitter.Node{methN, argsN} {
		if part != nil && offset(part.EndByte()) > end {
			end = offset(part.EndByte())
		}
	}
	if end == r.Start {
		end = r.End
	}
	return source.NewRange(r.Start, end)
}

// arguments converts an argument_list, folding trailing keyword pairs into a hash.
func (c *converter) arguments(argsN *sitter.Node) []ast.Child {
	if argsN == nil {
		return nil
	}
	var (
		out   []ast.Child
		pairs []ast.Child
		span  source.Range
	)
	flush := func() {
		if len(pairs) == 0 {
			return
		}
		out = append(out, ast.NodeChild(c.b.Add(ast.KindHash, span, ast.Loc{}, pairs...)))
		pairs = nil
	}
	for _, n := range named(argsN) {
		switch n.Type() {
		case "pair", "hash_splat_argument":
			if len(pairs) == 0 {
				span = c.rng(n)
			}
			span = span.Cover(c.rng(n))
			pairs = append(pairs, ast.NodeChild(c.expr(n)))
		default:
			flush()
			if id := c.expr(n); id != ast.NoNode {
				out = append(out, ast.NodeChild(id))
			}
		}
	}
	flush()
	return out
}

func (c *converter) attachBlock(whole *sitter.Node, call ast.NodeID, blockN *sitter.Node) ast.NodeID {
	if blockN == nil {
		return call
	}
	return c.block(c.rng(whole), call, blockN)
}

// block converts a brace or do/end block attached to call.
func (c *converter) block(r source.Range, call ast.NodeID, blockN *sitter.Node) ast.NodeID {
	c.push(false)
	defer c.pop()

	open := blockN.Child(0)
	last := blockN.Child(int(blockN.ChildCount()) - 1)
	loc := ast.Loc{Begin: c.rng(open), End: c.rng(last)}

	paramsN := field(blockN, "parameters")
	args := c.argsOrEmpty(paramsN, c.rng(open).End)

	var body ast.NodeID
	if bodyN := field(blockN, "body"); bodyN != nil {
		body = c.body(named(bodyN))
	} else {
		body = c.body(rest(blockN, paramsN))
	}
	return c.b.Add(ast.KindBlock, r, loc, ast.NodeChild(call), ast.NodeChild(args), ast.NodeChild(body))
}

// argsOrEmpty converts a parameter list, or returns an empty args node positioned at pos.
func (c *converter) argsOrEmpty(paramsN *sitter.Node, pos int) ast.NodeID {
	if paramsN != nil {
		return c.params(paramsN)
	}
	return c.b.Add(ast.KindArgs, source.NewRange(pos, pos), ast.Loc{})
}

// params converts block_parameters, method_parameters and lambda_parameters.
func (c *converter) params(n *sitter.Node) ast.NodeID {
	var kids []ast.Child
	for i := 0; i < int(n.ChildCount()); i++ {
		ch := n.Child(i)
		if ch == nil || !ch.IsNamed() || ch.Type() == "comment" {
			continue
		}
		if n.FieldNameForChild(i) == "locals" {
			c.scope.declare(c.text(ch))
			kids = append(kids, ast.NodeChild(c.add(ast.KindShadowArg, ch, ast.Loc{}, atom(ast.Symbol(c.text(ch))))))
			continue
		}
		if id := c.param(ch); id != ast.NoNode {
			kids = append(kids, ast.NodeChild(id))
		}
	}
	return c.add(ast.KindArgs, n, c.delimiters(n), kids...)
}

func (c *converter) param(n *sitter.Node) ast.NodeID {
	switch n.Type() {
	case "identifier":
		c.scope.declare(c.text(n))
		return c.add(ast.KindArg, n, ast.Loc{}, atom(ast.Symbol(c.text(n))))
	case "optional_parameter":
		name := c.text(field(n, "name"))
		c.scope.declare(name)
		value := c.expr(field(n, "value"))
		return c.add(ast.KindOptArg, n, ast.Loc{}, atom(ast.Symbol(name)), ast.NodeChild(value))
	case "keyword_parameter":
		name := c.text(field(n, "name"))
		c.scope.declare(name)
		if v := field(n, "value"); v != nil {
			return c.add(ast.KindKwOptArg, n, ast.Loc{}, atom(ast.Symbol(name)), ast.NodeChild(c.expr(v)))
		}
		return c.add(ast.KindKwArg, n, ast.Loc{}, atom(ast.Symbol(name)))
	case "splat_parameter":
		return c.namedParam(ast.KindRestArg, n)
	case "hash_splat_parameter":
		return c.namedParam(ast.KindKwRestArg, n)
	case "block_parameter":
		return c.namedParam(ast.KindBlockArg, n)
	case "hash_splat_nil":
		return c.add(ast.Kind("kwnilarg"), n, ast.Loc{})
	case "forward_parameter":
		return c.add(ast.Kind("forward_arg"), n, ast.Loc{})
	case "destructured_parameter":
		var kids []ast.Child
		for _, ch := range named(n) {
			if id := c.param(ch); id != ast.NoNode {
				kids = append(kids, ast.NodeChild(id))
			}
		}
		return c.add(ast.KindMlhs, n, c.delimiters(n), kids...)
	default:
		return c.generic(n)
	}
}

// namedParam converts "*rest", "**opts" and "&blk", whose name is optional.
func (c *converter) namedParam(kind ast.Kind, n *sitter.Node) ast.NodeID {
	nameN := field(n, "name")
	if nameN == nil {
		return c.add(kind, n, ast.Loc{})
	}
	c.scope.declare(c.text(nameN))
	return c.add(kind, n, ast.Loc{}, atom(ast.Symbol(c.text(nameN))))
}

func (c *converter) assignment(n *sitter.Node) ast.NodeID {
	left, right := field(n, "left"), field(n, "right")
	loc := ast.Loc{Operator: c.rng(tokenOf(n, "="))}

	switch left.Type() {
	case "identifier":
		name := c.text(left)
		c.scope.declare(name)
		return c.add(ast.KindLvasgn, n, loc, atom(ast.Symbol(name)), ast.NodeChild(c.rhs(right)))
	case "instance_variable", "class_variable", "global_variable":
		kind := map[string]ast.Kind{
			"instance_variable": ast.KindIvasgn,
			"class_variable":    ast.KindCvasgn,
			"global_variable":   ast.KindGvasgn,
		}[left.Type()]
		return c.add(kind, n, loc, atom(ast.Symbol(c.text(left))), ast.NodeChild(c.rhs(right)))
	case "constant":
		return c.add(ast.KindCasgn, n, loc, ast.Child{}, atom(ast.Symbol(c.text(left))), ast.NodeChild(c.rhs(right)))
	case "scope_resolution":
		ns := c.expr(field(left, "scope"))
		return c.add(ast.KindCasgn, n, loc, ast.NodeChild(ns), atom(ast.Symbol(c.text(field(left, "name")))),
			ast.NodeChild(c.rhs(right)))
	case "call":
		recv := c.expr(field(left, "receiver"))
		name := c.text(field(left, "method")) + "="
		return c.add(ast.KindSend, n, ast.Loc{Selector: c.rng(field(left, "method"))},
			ast.NodeChild(recv), atom(ast.Symbol(name)), ast.NodeChild(c.rhs(right)))
	case "element_reference":
		obj := field(left, "object")
		children := []ast.Child{ast.NodeChild(c.expr(obj)), atom(ast.Symbol("[]="))}
		children = append(children, c.exprs(rest(left, obj))...)
		children = append(children, ast.NodeChild(c.rhs(right)))
		return c.add(ast.KindSend, n, loc, children...)
	case "left_assignment_list":
		mlhs := c.mlhs(left)
		return c.add(ast.KindMasgn, n, loc, ast.NodeChild(mlhs), ast.NodeChild(c.rhs(right)))
	default:
		return c.generic(n)
	}
}

func (c *converter) rhs(n *sitter.Node) ast.NodeID {
	if n == nil {
		return ast.NoNode
	}
	if n.Type() == "right_assignment_list" {
		return c.add(ast.KindArray, n, ast.Loc{}, c.exprs(named(n))...)
	}
	return c.expr(n)
}

// mlhs converts the left side of a multiple assignment.
func (c *converter) mlhs(n *sitter.Node) ast.NodeID {
	var kids []ast.Child
	for _, ch := range named(n) {
		kids = append(kids, ast.NodeChild(c.target(ch)))
	}
	return c.add(ast.KindMlhs, n, ast.Loc{}, kids...)
}

// target converts an assignment target that carries no value.
func (c *converter) target(n *sitter.Node) ast.NodeID {
	switch n.Type() {
	case "identifier":
		c.scope.declare(c.text(n))
		return c.add(ast.KindLvasgn, n, ast.Loc{}, atom(ast.Symbol(c.text(n))))
	case "instance_variable":
		return c.add(ast.KindIvasgn, n, ast.Loc{}, atom(ast.Symbol(c.text(n))))
	case "class_variable":
		return c.add(ast.KindCvasgn, n, ast.Loc{}, atom(ast.Symbol(c.text(n))))
	case "global_variable":
		return c.add(ast.KindGvasgn, n, ast.Loc{}, atom(ast.Symbol(c.text(n))))
	case "constant":
		return c.add(ast.KindCasgn, n, ast.Loc{}, ast.Child{}, atom(ast.Symbol(c.text(n))))
	case "rest_assignment":
		inner := firstNamed(n)
		if inner == nil {
			return c.add(ast.KindSplat, n, ast.Loc{})
		}
		return c.add(ast.KindSplat, n, ast.Loc{}, ast.NodeChild(c.target(inner)))
	case "destructured_left_assignment", "left_assignment_list":
		return c.mlhs(n)
	case "call":
		recv := c.expr(field(n, "receiver"))
		return c.add(ast.KindSend, n, ast.Loc{Selector: c.rng(field(n, "method"))},
			ast.NodeChild(recv), atom(ast.Symbol(c.text(field(n, "method"))+"=")))
	default:
		return c.expr(n)
	}
}

func (c *converter) opAssignment(n *sitter.Node) ast.NodeID {
	left, right := field(n, "left"), field(n, "right")
	opN := field(n, "operator")
	op := strings.TrimSuffix(c.text(opN), "=")

	lhs := c.target(left)
	value := c.expr(right)
	loc := ast.Loc{Operator: c.rng(opN)}
	switch op {
	case "||":
		return c.add(ast.KindOrAsgn, n, loc, ast.NodeChild(lhs), ast.NodeChild(value))
	case "&&":
		return c.add(ast.KindAndAsgn, n, loc, ast.NodeChild(lhs), ast.NodeChild(value))
	default:
		return c.add(ast.KindOpAsgn, n, loc, ast.NodeChild(lhs), atom(ast.Symbol(op)), ast.NodeChild(value))
	}
}

func (c *converter) binary(n *sitter.Node) ast.NodeID {
	left := c.expr(field(n, "left"))
	opN := field(n, "operator")
	right := c.expr(field(n, "right"))
	op := c.text(opN)
	loc := ast.Loc{Operator: c.rng(opN)}

	switch op {
	case "and", "&&":
		return c.add(ast.KindAnd, n, loc, ast.NodeChild(left), ast.NodeChild(right))
	case "or", "||":
		return c.add(ast.KindOr, n, loc, ast.NodeChild(left), ast.NodeChild(right))
	default:
		loc.Selector = loc.Operator
		return c.add(ast.KindSend, n, loc, ast.NodeChild(left), atom(ast.Symbol(op)), ast.NodeChild(right))
	}
}

func (c *converter) unary(n *sitter.Node) ast.NodeID {
	opN := field(n, "operator")
	operandN := field(n, "operand")
	op := c.text(opN)
	loc := ast.Loc{Selector: c.rng(opN), Operator: c.rng(opN)}

	switch op {
	case "defined?":
		return c.add(ast.KindDefined, n, loc, ast.NodeChild(c.expr(operandN)))
	case "!", "not":
		return c.add(ast.KindSend, n, loc, ast.NodeChild(c.expr(operandN)), atom(ast.Symbol("!")))
	case "-":
		if operandN != nil && operandN.Type() == "integer" {
			return c.add(ast.KindInt, n, ast.Loc{}, atom(intAtom("-"+c.text(operandN))))
		}
		if operandN != nil && operandN.Type() == "float" {
			return c.add(ast.KindFloat, n, ast.Loc{}, atom(floatAtom("-"+c.text(operandN))))
		}
		return c.add(ast.KindSend, n, loc, ast.NodeChild(c.expr(operandN)), atom(ast.Symbol("-@")))
	case "+":
		return c.add(ast.KindSend, n, loc, ast.NodeChild(c.expr(operandN)), atom(ast.Symbol("+@")))
	default:
		return c.add(ast.KindSend, n, loc, ast.NodeChild(c.expr(operandN)), atom(ast.Symbol(op)))
	}
}

// conditional converts if, unless and elsif into (if cond then else).
func (c *converter) conditional(n *sitter.Node) ast.NodeID {
	cond := c.expr(field(n, "condition"))
	then := c.body(named(field(n, "consequence")))

	alt := ast.NoNode
	if altN := field(n, "alternative"); altN != nil {
		if altN.Type() == "else" {
			alt = c.body(named(altN))
		} else {
			alt = c.expr(altN)
		}
	}
	if n.Type() == "unless" {
		then, alt = alt, then
	}
	return c.add(ast.KindIf, n, ast.Loc{}, ast.NodeChild(cond), ast.NodeChild(then), ast.NodeChild(alt))
}

func (c *converter) modifier(n *sitter.Node) ast.NodeID {
	body := c.expr(field(n, "body"))
	cond := c.expr(field(n, "condition"))
	switch n.Type() {
	case "unless_modifier":
		return c.add(ast.KindIf, n, ast.Loc{}, ast.NodeChild(cond), ast.Child{}, ast.NodeChild(body))
	case "while_modifier":
		return c.add(ast.KindWhile, n, ast.Loc{}, ast.NodeChild(cond), ast.NodeChild(body))
	case "until_modifier":
		return c.add(ast.KindUntil, n, ast.Loc{}, ast.NodeChild(cond), ast.NodeChild(body))
	default:
		return c.add(ast.KindIf, n, ast.Loc{}, ast.NodeChild(cond), ast.NodeChild(body), ast.Child{})
	}
}

func (c *converter) caseExpr(n *sitter.Node) ast.NodeID {
	subject := field(n, "value")
	children := []ast.Child{ast.NodeChild(c.expr(subject))}
	elseBody := ast.NoNode
	for _, ch := range rest(n, subject) {
		switch ch.Type() {
		case "when":
			children = append(children, ast.NodeChild(c.when(ch)))
		case "else":
			elseBody = c.body(named(ch))
		default:
			children = append(children, c.exprs([]*sitter.Node{ch})...)
		}
	}
	children = append(children, ast.NodeChild(elseBody))
	return c.add(ast.KindCase, n, ast.Loc{}, children...)
}

func (c *converter) when(n *sitter.Node) ast.NodeID {
	bodyN := field(n, "body")
	var children []ast.Child
	for _, ch := range rest(n, bodyN) {
		if ch.Type() == "pattern" {
			ch = firstNamed(ch)
		}
		children = append(children, c.exprs([]*sitter.Node{ch})...)
	}
	children = append(children, ast.NodeChild(c.body(named(bodyN))))
	return c.add(ast.KindWhen, n, ast.Loc{}, children...)
}

func (c *converter) forExpr(n *sitter.Node) ast.NodeID {
	pattern := field(n, "pattern")
	value := field(n, "value")
	if value != nil && value.Type() == "in" {
		value = firstNamed(value)
	}
	iter := c.expr(value)
	variable := c.target(pattern)
	body := c.body(named(field(n, "body")))
	return c.add(ast.Kind("for"), n, ast.Loc{}, ast.NodeChild(variable), ast.NodeChild(iter), ast.NodeChild(body))
}

func (c *converter) def(n *sitter.Node) ast.NodeID {
	nameN := field(n, "name")
	paramsN := field(n, "parameters")

	c.push(true)
	defer c.pop()

	args := c.argsOrEmpty(paramsN, offset(nameN.EndByte()))
	var body ast.NodeID
	if bodyN := field(n, "body"); bodyN != nil {
		body = c.defBody(bodyN)
	} else {
		body = c.body(rest(n, nameN, paramsN))
	}
	return c.add(ast.KindDef, n, ast.Loc{Selector: c.rng(nameN)},
		atom(ast.Symbol(c.text(nameN))), ast.NodeChild(args), ast.NodeChild(body))
}

func (c *converter) defs(n *sitter.Node) ast.NodeID {
	objN := field(n, "object")
	nameN := field(n, "name")
	paramsN := field(n, "parameters")
	obj := c.expr(objN)

	c.push(true)
	defer c.pop()

	args := c.argsOrEmpty(paramsN, offset(nameN.EndByte()))
	var body ast.NodeID
	if bodyN := field(n, "body"); bodyN != nil {
		body = c.defBody(bodyN)
	} else {
		body = c.body(rest(n, objN, nameN, paramsN))
	}
	return c.add(ast.KindDefs, n, ast.Loc{Selector: c.rng(nameN)},
		ast.NodeChild(obj), atom(ast.Symbol(c.text(nameN))), ast.NodeChild(args), ast.NodeChild(body))
}

// defBody accepts both a body_statement wrapper and an endless method expression.
func (c *converter) defBody(bodyN *sitter.Node) ast.NodeID {
	if bodyN.Type() == "body_statement" {
		return c.body(named(bodyN))
	}
	return c.expr(bodyN)
}

// container converts class, module and singleton_class, each with a fresh scope.
func (c *converter) container(n *sitter.Node) ast.NodeID {
	var head []ast.Child
	var skip []*sitter.Node
	switch n.Type() {
	case "class":
		nameN, superN := field(n, "name"), field(n, "superclass")
		head = append(head, ast.NodeChild(c.expr(nameN)))
		superID := ast.NoNode
		if superN != nil {
			superID = c.expr(firstNamed(superN))
		}
		head = append(head, ast.NodeChild(superID))
		skip = []*sitter.Node{nameN, superN}
	case "module":
		nameN := field(n, "name")
		head = append(head, ast.NodeChild(c.expr(nameN)))
		skip = []*sitter.Node{nameN}
	default:
		valueN := field(n, "value")
		head = append(head, ast.NodeChild(c.expr(valueN)))
		skip = []*sitter.Node{valueN}
	}

	c.push(true)
	defer c.pop()

	var body ast.NodeID
	if bodyN := field(n, "body"); bodyN != nil {
		body = c.body(named(bodyN))
	} else {
		body = c.body(rest(n, skip...))
	}
	kind := map[string]ast.Kind{"class": ast.KindClass, "module": ast.KindModule, "singleton_class": ast.KindSClass}[n.Type()]
	return c.add(kind, n, ast.Loc{}, append(head, ast.NodeChild(body))...)
}

// lambda converts "->(x) { ... }" into (block (lambda) (args ...) body).
func (c *converter) lambda(n *sitter.Node) ast.NodeID {
	arrow := n.Child(0)
	lam := c.add(ast.KindLambda, arrow, ast.Loc{})

	c.push(false)
	defer c.pop()

	paramsN := field(n, "parameters")
	bodyN := field(n, "body")
	pos := offset(arrow.EndByte())
	if paramsN != nil {
		pos = offset(paramsN.EndByte())
	}
	args := c.argsOrEmpty(paramsN, pos)

	loc := ast.Loc{}
	body := ast.NoNode
	if bodyN != nil {
		loc.Begin = c.rng(bodyN.Child(0))
		loc.End = c.rng(bodyN.Child(int(bodyN.ChildCount()) - 1))
		if inner := field(bodyN, "body"); inner != nil {
			body = c.body(named(inner))
		} else {
			body = c.body(rest(bodyN, field(bodyN, "parameters")))
		}
	}
	return c.add(ast.KindBlock, n, loc, ast.NodeChild(lam), ast.NodeChild(args), ast.NodeChild(body))
}

func (c *converter) rangeExpr(n *sitter.Node) ast.NodeID {
	begin := c.expr(field(n, "begin"))
	end := c.expr(field(n, "end"))
	kind := ast.KindIRange
	if op := tokenOf(n, "..."); op != nil {
		kind = ast.KindERange
	}
	return c.add(kind, n, ast.Loc{}, ast.NodeChild(begin), ast.NodeChild(end))
}

// str converts string-like nodes: plain content becomes an atom, interpolation
// turns the node into its dynamic kind.
func (c *converter) str(n *sitter.Node, plain, dynamic ast.Kind) ast.NodeID {
	parts := named(n)
	loc := c.delimiters(n)
	interpolated := false
	var sb strings.Builder
	for _, p := range parts {
		switch p.Type() {
		case "string_content", "escape_sequence":
			sb.WriteString(c.text(p))
		default:
			interpolated = true
		}
	}
	if !interpolated {
		value := ast.String(sb.String())
		if plain == ast.KindSym {
			value = ast.Symbol(sb.String())
		}
		return c.add(plain, n, loc, atom(value))
	}
	return c.add(dynamic, n, loc, c.exprs(parts)...)
}

func (c *converter) regexp(n *sitter.Node) ast.NodeID {
	return c.add(ast.KindRegexp, n, c.delimiters(n), c.exprs(named(n))...)
}

// delimiters records the first and last anonymous tokens of n as Begin and End.
func (c *converter) delimiters(n *sitter.Node) ast.Loc {
	count := int(n.ChildCount())
	if count == 0 {
		return ast.Loc{}
	}
	first, last := n.Child(0), n.Child(count-1)
	loc := ast.Loc{}
	if first != nil && !first.IsNamed() {
		loc.Begin = c.rng(first)
	}
	if last != nil && !last.IsNamed() && count > 1 {
		loc.End = c.rng(last)
	}
	return loc
}

func (c *converter) add(kind ast.Kind, n *sitter.Node, loc ast.Loc, children ...ast.Child) ast.NodeID {
	return c.b.Add(kind, c.rng(n), loc, children...)
}

func (c *converter) rng(n *sitter.Node) source.Range {
	if n == nil {
		return source.Range{}
	}
	return source.NewRange(offset(n.StartByte()), offset(n.EndByte()))
}

func (c *converter) text(n *sitter.Node) string {
	if n == nil {
		return ""
	}
	return n.Content(c.src)
}

func atom(a ast.Atom) ast.Child { return ast.AtomChild(a) }

func field(n *sitter.Node, name string) *sitter.Node {
	if n == nil {
		return nil
	}
	return n.ChildByFieldName(name)
}

// named returns the named children of n, without comments.
func named(n *sitter.Node) []*sitter.Node {
	if n == nil {
		return nil
	}
	out := make([]*sitter.Node, 0, n.NamedChildCount())
	for i := 0; i < int(n.NamedChildCount()); i++ {
		ch := n.NamedChild(i)
		if ch == nil || ch.Type() == "comment" {
			continue
		}
		out = append(out, ch)
	}
	return out
}

// rest returns the named children of n except those listed.
func rest(n *sitter.Node, skip ...*sitter.Node) []*sitter.Node {
	var out []*sitter.Node
	for _, ch := range named(n) {
		if !containsNode(skip, ch) {
			out = append(out, ch)
		}
	}
	return out
}

func containsNode(list []*sitter.Node, n *sitter.Node) bool {
	for _, s := range list {
		if s != nil && s.StartByte() == n.StartByte() && s.EndByte() == n.EndByte() && s.Type() == n.Type() {
			return true
		}
	}
	return false
}

func firstNamed(n *sitter.Node) *sitter.Node {
	kids := named(n)
	if len(kids) == 0 {
		return nil
	}
	return kids[0]
}

func firstOfType(n *sitter.Node, typ string) *sitter.Node {
	for _, ch := range named(n) {
		if ch.Type() == typ {
			return ch
		}
	}
	return nil
}

// tokenOf returns the first anonymous child of n with the given text.
func tokenOf(n *sitter.Node, typ string) *sitter.Node {
	for i := 0; i < int(n.ChildCount()); i++ {
		ch := n.Child(i)
		if ch != nil && !ch.IsNamed() && ch.Type() == typ {
			return ch
		}
	}
	return nil
}

// intAtom parses Ruby integer literal syntax. Values that do not fit int64
// keep their normalized text.
func intAtom(text string) ast.Atom {
	clean := strings.ReplaceAll(text, "_", "")
	neg := strings.HasPrefix(clean, "-")
	digits := strings.TrimPrefix(clean, "-")
	if strings.HasPrefix(digits, "0d") || strings.HasPrefix(digits, "0D") {
		digits = digits[2:]
	}
	v, err := strconv.ParseInt(digits, 0, 64)
	if err != nil {
		return ast.Atom{Kind: ast.AtomInt, Text: clean}
	}
	if neg {
		v = -v
	}
	return ast.Int(v)
}

func floatAtom(text string) ast.Atom {
	clean := strings.ReplaceAll(text, "_", "")
	v, err := strconv.ParseFloat(clean, 64)
	if err != nil {
		return ast.Atom{Kind: ast.AtomFloat, Text: clean}
	}
	return ast.Float(v)
}
