package ruby

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"fortio.org/safecast"
	sitter "github.com/smacker/go-tree-sitter"
	tsruby "github.com/smacker/go-tree-sitter/ruby"
	"github.com/tliron/commonlog"

	"github.com/oxhq/rubric/internal/ast"
	"github.com/oxhq/rubric/internal/model"
	"github.com/oxhq/rubric/internal/source"
	"github.com/oxhq/rubric/providers"
	"github.com/oxhq/rubric/providers/catalog"
)

var log = commonlog.GetLogger("rubric.ruby")

func init() {
	catalog.Register(catalog.LanguageInfo{
		ID:         "ruby",
		Extensions: extensions,
		Filenames:  filenames,
	})
}

var (
	extensions = []string{".rb", ".rake", ".gemspec", ".ru", ".rbw", ".jbuilder", ".thor"}
	filenames  = []string{"Rakefile", "Gemfile", "Guardfile", "Capfile", "Vagrantfile", "Podfile", "Brewfile"}
)

// Provider parses Ruby with tree-sitter and converts the result into an ast.Tree.
// Parsers are not safe for concurrent use, so each Parse borrows one from a pool.
type Provider struct {
	pool sync.Pool

	borrowed atomic.Int64
	returned atomic.Int64
}

var _ providers.Provider = (*Provider)(nil)

// New creates a Ruby provider.
func New() *Provider {
	p := &Provider{}
	p.pool.New = func() any {
		parser := sitter.NewParser()
		parser.SetLanguage(tsruby.GetLanguage())
		return parser
	}
	return p
}

func (p *Provider) Language() string     { return "ruby" }
func (p *Provider) Extensions() []string { return extensions }
func (p *Provider) Filenames() []string  { return filenames }

func (p *Provider) Stats() providers.Stats {
	borrowed, returned := p.borrowed.Load(), p.returned.Load()
	return providers.Stats{
		BorrowCount: borrowed,
		ReturnCount: returned,
		Active:      borrowed - returned,
	}
}

// Parse builds the syntax tree of buf.
func (p *Provider) Parse(ctx context.Context, buf *source.Buffer) (*ast.Tree, error) {
	parser := p.pool.Get().(*sitter.Parser)
	p.borrowed.Add(1)
	defer func() {
		p.pool.Put(parser)
		p.returned.Add(1)
	}()

	src := buf.Bytes()
	tsTree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %v", buf.Name(), model.ErrParseFailure, err)
	}
	if tsTree == nil {
		return nil, fmt.Errorf("%s: %w: parser returned no tree", buf.Name(), model.ErrParseFailure)
	}
	defer tsTree.Close()

	root := tsTree.RootNode()
	if root.HasError() {
		perr := firstError(root, buf)
		log.Debugf("parse failure in %s at %d:%d", buf.Name(), perr.Line, perr.Column)
		return nil, perr
	}

	conv := newConverter(buf)
	top := conv.program(root)
	return conv.b.Finish(top), nil
}

// firstError locates the first ERROR or MISSING node in document order.
func firstError(root *sitter.Node, buf *source.Buffer) *model.ParseError {
	var found *sitter.Node
	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		if found != nil || n == nil {
			return
		}
		if n.Type() == "ERROR" || n.IsMissing() {
			found = n
			return
		}
		for i := 0; i < int(n.ChildCount()); i++ {
			walk(n.Child(i))
		}
	}
	walk(root)

	perr := &model.ParseError{File: buf.Name(), Line: 1, Column: 1}
	if found == nil {
		return perr
	}
	start := offset(found.StartByte())
	pos := buf.Position(start)
	perr.Line, perr.Column = pos.Line, pos.Column
	snippet := buf.Slice(source.NewRange(start, offset(found.EndByte())))
	if len(snippet) > 20 {
		snippet = snippet[:20]
	}
	if found.IsMissing() {
		snippet = "missing " + found.Type()
	}
	perr.Snippet = snippet
	return perr
}

// offset converts a tree-sitter byte position into a buffer offset.
func offset(b uint32) int {
	n, err := safecast.Conv[int](b)
	if err != nil {
		panic(fmt.Errorf("byte offset overflow: %w", err))
	}
	return n
}
