package pattern

import (
	"fmt"
	"strings"
	"unicode"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokLParen
	tokRParen
	tokLBrace
	tokRBrace
	tokLBracket
	tokRBracket
	tokBang
	tokEllipsis
	tokWildcard
	tokIdent
	tokSymbol
	tokString
	tokInt
	tokFloat
	tokCapture
	tokPredicate
)

func (k tokenKind) String() string {
	switch k {
	case tokEOF:
		return "end of pattern"
	case tokLParen:
		return "'('"
	case tokRParen:
		return "')'"
	case tokLBrace:
		return "'{'"
	case tokRBrace:
		return "'}'"
	case tokLBracket:
		return "'['"
	case tokRBracket:
		return "']'"
	case tokBang:
		return "'!'"
	case tokEllipsis:
		return "'...'"
	case tokWildcard:
		return "'_'"
	case tokIdent:
		return "kind name"
	case tokSymbol:
		return "symbol"
	case tokString:
		return "string"
	case tokInt:
		return "integer"
	case tokFloat:
		return "float"
	case tokCapture:
		return "capture"
	case tokPredicate:
		return "predicate"
	default:
		return "token"
	}
}

type token struct {
	kind tokenKind
	text string // name for idents, captures and predicates; decoded value for literals
	pos  int
	// bind is set on a capture written as $name=p.
	bind bool
}

// lex splits src into tokens. Whitespace and ;-comments separate tokens.
func lex(src string) ([]token, error) {
	var toks []token
	i := 0
	for i < len(src) {
		ch := src[i]
		switch {
		case ch == ';':
			for i < len(src) && src[i] != '\n' {
				i++
			}
		case ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r':
			i++
		case strings.ContainsRune("(){}[]!", rune(ch)):
			toks = append(toks, token{kind: punct[ch], text: string(ch), pos: i})
			i++
		case strings.HasPrefix(src[i:], "..."):
			toks = append(toks, token{kind: tokEllipsis, text: "...", pos: i})
			i += 3
		case ch == ':':
			end := scanSymbol(src, i+1)
			if end == i+1 {
				return nil, syntaxErr(src, i, "empty symbol")
			}
			toks = append(toks, token{kind: tokSymbol, text: src[i+1 : end], pos: i})
			i = end
		case ch == '"':
			text, end, err := scanString(src, i)
			if err != nil {
				return nil, err
			}
			toks = append(toks, token{kind: tokString, text: text, pos: i})
			i = end
		case ch == '$':
			end := scanIdent(src, i+1)
			if end == i+1 {
				return nil, syntaxErr(src, i, "capture needs a name")
			}
			tok := token{kind: tokCapture, text: src[i+1 : end], pos: i}
			if end < len(src) && src[end] == '=' {
				tok.bind = true
				end++
			}
			toks = append(toks, tok)
			i = end
		case ch == '#':
			end := scanIdent(src, i+1)
			if end == i+1 {
				return nil, syntaxErr(src, i, "predicate needs a name")
			}
			toks = append(toks, token{kind: tokPredicate, text: src[i+1 : end], pos: i})
			i = end
		case isDigit(ch) || (ch == '-' && i+1 < len(src) && isDigit(src[i+1])):
			tok, end := scanNumber(src, i)
			toks = append(toks, tok)
			i = end
		case isIdentStart(ch):
			end := scanIdent(src, i)
			word := src[i:end]
			kind := tokIdent
			if word == "_" {
				kind = tokWildcard
			}
			toks = append(toks, token{kind: kind, text: word, pos: i})
			i = end
		default:
			return nil, syntaxErr(src, i, fmt.Sprintf("unexpected character %q", ch))
		}
	}
	toks = append(toks, token{kind: tokEOF, pos: len(src)})
	return toks, nil
}

var punct = map[byte]tokenKind{
	'(': tokLParen,
	')': tokRParen,
	'{': tokLBrace,
	'}': tokRBrace,
	'[': tokLBracket,
	']': tokRBracket,
	'!': tokBang,
}

func isDigit(ch byte) bool { return ch >= '0' && ch <= '9' }

func isIdentStart(ch byte) bool {
	return ch == '_' || unicode.IsLetter(rune(ch))
}

// scanIdent accepts kind and capture names, including a trailing "?" as in defined?.
func scanIdent(src string, i int) int {
	for i < len(src) && (isIdentStart(src[i]) || isDigit(src[i])) {
		i++
	}
	if i < len(src) && src[i] == '?' {
		i++
	}
	return i
}

// scanSymbol accepts method names, operators and setters: :reduce, :empty?, :+, :[]=.
func scanSymbol(src string, i int) int {
	start := i
	if i < len(src) && (isIdentStart(src[i]) || src[i] == '@' || src[i] == '$') {
		for i < len(src) && (isIdentStart(src[i]) || isDigit(src[i]) || src[i] == '@' || src[i] == '$') {
			i++
		}
		if i < len(src) && strings.ContainsRune("?!=", rune(src[i])) {
			i++
		}
		return i
	}
	for i < len(src) && strings.ContainsRune("+-*/%<>=!~^&|[]", rune(src[i])) {
		i++
	}
	if i == start {
		return start
	}
	return i
}

func scanString(src string, start int) (string, int, error) {
	var sb strings.Builder
	i := start + 1
	for i < len(src) {
		switch src[i] {
		case '"':
			return sb.String(), i + 1, nil
		case '\\':
			if i+1 >= len(src) {
				return "", 0, syntaxErr(src, i, "unterminated escape")
			}
			switch esc := src[i+1]; esc {
			case 'n':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			default:
				sb.WriteByte(esc)
			}
			i += 2
		default:
			sb.WriteByte(src[i])
			i++
		}
	}
	return "", 0, syntaxErr(src, start, "unterminated string")
}

func scanNumber(src string, start int) (token, int) {
	i := start
	if src[i] == '-' {
		i++
	}
	for i < len(src) && (isDigit(src[i]) || src[i] == '_') {
		i++
	}
	kind := tokInt
	if i+1 < len(src) && src[i] == '.' && isDigit(src[i+1]) {
		kind = tokFloat
		i++
		for i < len(src) && (isDigit(src[i]) || src[i] == '_') {
			i++
		}
	}
	return token{kind: kind, text: strings.ReplaceAll(src[start:i], "_", ""), pos: start}, i
}
