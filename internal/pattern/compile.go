package pattern

import (
	"fmt"
	"strconv"

	"github.com/oxhq/rubric/internal/ast"
)

// SyntaxError reports a malformed pattern. It wraps model.ErrConfiguration.
type SyntaxError struct {
	Pattern string
	Offset  int
	Msg     string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("pattern: offset %d: %s", e.Offset, e.Msg)
}

func syntaxErr(src string, pos int, msg string) *SyntaxError {
	return &SyntaxError{Pattern: src, Offset: pos, Msg: msg}
}

type compiler struct {
	src   string
	toks  []token
	pos   int
	preds map[string]Predicate
}

func (c *compiler) peek() token { return c.toks[c.pos] }

func (c *compiler) next() token {
	tok := c.toks[c.pos]
	if tok.kind != tokEOF {
		c.pos++
	}
	return tok
}

func (c *compiler) errorf(tok token, format string, args ...any) error {
	return syntaxErr(c.src, tok.pos, fmt.Sprintf(format, args...))
}

// compile parses a single top-level matcher and requires the input to end there.
func (c *compiler) compile() (matcher, error) {
	if c.peek().kind == tokEOF {
		return nil, c.errorf(c.peek(), "empty pattern")
	}
	m, err := c.expr()
	if err != nil {
		return nil, err
	}
	if tok := c.peek(); tok.kind != tokEOF {
		return nil, c.errorf(tok, "unexpected %s after pattern", tok.kind)
	}
	return m, nil
}

func (c *compiler) expr() (matcher, error) {
	tok := c.next()
	switch tok.kind {
	case tokWildcard:
		return anyMatcher{}, nil
	case tokIdent:
		if tok.text == "nil" {
			return nilMatcher{}, nil
		}
		return kindMatcher{kind: ast.Kind(tok.text)}, nil
	case tokSymbol:
		return atomMatcher{atom: ast.Symbol(tok.text)}, nil
	case tokString:
		return atomMatcher{atom: ast.String(tok.text)}, nil
	case tokInt:
		v, err := strconv.ParseInt(tok.text, 10, 64)
		if err != nil {
			return nil, c.errorf(tok, "invalid integer %q", tok.text)
		}
		return atomMatcher{atom: ast.Int(v)}, nil
	case tokFloat:
		v, err := strconv.ParseFloat(tok.text, 64)
		if err != nil {
			return nil, c.errorf(tok, "invalid float %q", tok.text)
		}
		return atomMatcher{atom: ast.Float(v)}, nil
	case tokCapture:
		inner := matcher(anyMatcher{})
		if tok.bind {
			if next := c.peek(); next.kind == tokEOF || isCloser(next.kind) {
				return nil, c.errorf(tok, "capture $%s= needs a pattern", tok.text)
			}
			m, err := c.expr()
			if err != nil {
				return nil, err
			}
			inner = m
		}
		return captureMatcher{name: tok.text, inner: inner}, nil
	case tokPredicate:
		fn, ok := c.preds[tok.text]
		if !ok {
			return nil, c.errorf(tok, "unknown predicate #%s", tok.text)
		}
		return predicateMatcher{name: tok.text, fn: fn}, nil
	case tokBang:
		if next := c.peek(); next.kind == tokEOF || isCloser(next.kind) {
			return nil, c.errorf(tok, "'!' needs a pattern")
		}
		m, err := c.expr()
		if err != nil {
			return nil, err
		}
		return notMatcher{inner: m}, nil
	case tokLBrace:
		branches, err := c.list(tok, tokRBrace)
		if err != nil {
			return nil, err
		}
		return altMatcher{branches: branches}, nil
	case tokLBracket:
		parts, err := c.list(tok, tokRBracket)
		if err != nil {
			return nil, err
		}
		return allMatcher{parts: parts}, nil
	case tokLParen:
		return c.sequence(tok)
	case tokEllipsis:
		return nil, c.errorf(tok, "'...' is only allowed inside a sequence")
	case tokEOF:
		return nil, c.errorf(tok, "unexpected end of pattern")
	default:
		return nil, c.errorf(tok, "unexpected %s", tok.kind)
	}
}

// list reads patterns up to the closing token. It rejects empty groups.
func (c *compiler) list(open token, closer tokenKind) ([]matcher, error) {
	var out []matcher
	for {
		tok := c.peek()
		if tok.kind == closer {
			c.next()
			break
		}
		if tok.kind == tokEOF {
			return nil, c.errorf(open, "unclosed %s", open.kind)
		}
		m, err := c.expr()
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	if len(out) == 0 {
		return nil, c.errorf(open, "empty %s group", open.kind)
	}
	return out, nil
}

func (c *compiler) sequence(open token) (matcher, error) {
	if tok := c.peek(); tok.kind == tokRParen || tok.kind == tokEOF || tok.kind == tokEllipsis {
		return nil, c.errorf(tok, "sequence needs a head")
	}
	head, err := c.expr()
	if err != nil {
		return nil, err
	}

	seq := seqMatcher{head: head, ellipsis: -1}
	for {
		tok := c.peek()
		switch tok.kind {
		case tokRParen:
			c.next()
			return seq, nil
		case tokEOF:
			return nil, c.errorf(open, "unclosed '('")
		case tokEllipsis:
			c.next()
			if seq.ellipsis >= 0 {
				return nil, c.errorf(tok, "only one '...' is allowed per sequence")
			}
			seq.ellipsis = len(seq.children)
		default:
			m, err := c.expr()
			if err != nil {
				return nil, err
			}
			seq.children = append(seq.children, m)
		}
	}
}

func isCloser(k tokenKind) bool {
	return k == tokRParen || k == tokRBrace || k == tokRBracket
}
