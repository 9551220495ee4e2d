// Package lsp serves diagnostics and quick fixes over the Language Server
// Protocol.
package lsp

import (
	"context"
	"errors"
	"net/url"
	"path/filepath"
	"sync"

	"fortio.org/safecast"
	"github.com/tliron/commonlog"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	glspserver "github.com/tliron/glsp/server"

	"github.com/oxhq/rubric/internal/model"
	"github.com/oxhq/rubric/internal/runner"
	"github.com/oxhq/rubric/internal/source"
)

const (
	serverName       = "rubric"
	diagnosticSource = "rubric"
)

var log = commonlog.GetLogger("rubric.lsp")

// Server publishes offenses as diagnostics and offers their corrections as
// quick fixes.
type Server struct {
	runner *runner.Runner

	mu   sync.Mutex
	docs map[protocol.DocumentUri]*document

	handler protocol.Handler
	server  *glspserver.Server
	version string
}

// document is the last analysis of an open file.
type document struct {
	buf      *source.Buffer
	offenses []*runner.TrackedOffense
}

// New builds a server around r, which should not autocorrect.
func New(r *runner.Runner, version string) *Server {
	s := &Server{
		runner:  r,
		docs:    make(map[protocol.DocumentUri]*document),
		version: version,
	}

	s.handler = protocol.Handler{
		Initialize:  s.initialize,
		Initialized: s.initialized,
		Shutdown:    s.shutdown,
		SetTrace:    s.setTrace,

		TextDocumentDidOpen:   s.textDocumentDidOpen,
		TextDocumentDidChange: s.textDocumentDidChange,
		TextDocumentDidClose:  s.textDocumentDidClose,

		TextDocumentCodeAction: s.textDocumentCodeAction,
	}
	s.server = glspserver.NewServer(&s.handler, serverName, false)
	return s
}

// RunStdio serves on stdin and stdout until the client disconnects.
func (s *Server) RunStdio() error {
	return s.server.RunStdio()
}

func (s *Server) initialize(ctx *glsp.Context, params *protocol.InitializeParams) (any, error) {
	capabilities := s.handler.CreateServerCapabilities()

	syncKind := protocol.TextDocumentSyncKindFull
	capabilities.TextDocumentSync = &protocol.TextDocumentSyncOptions{
		OpenClose: boolPtr(true),
		Change:    &syncKind,
	}
	capabilities.CodeActionProvider = &protocol.CodeActionOptions{
		CodeActionKinds: []protocol.CodeActionKind{protocol.CodeActionKindQuickFix},
	}

	return protocol.InitializeResult{
		Capabilities: capabilities,
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    serverName,
			Version: &s.version,
		},
	}, nil
}

func (s *Server) initialized(ctx *glsp.Context, params *protocol.InitializedParams) error {
	return nil
}

func (s *Server) shutdown(ctx *glsp.Context) error {
	protocol.SetTraceValue(protocol.TraceValueOff)
	return nil
}

func (s *Server) setTrace(ctx *glsp.Context, params *protocol.SetTraceParams) error {
	protocol.SetTraceValue(params.Value)
	return nil
}

func (s *Server) textDocumentDidOpen(ctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	uri := params.TextDocument.URI
	s.publish(ctx, uri, s.update(uri, params.TextDocument.Text))
	return nil
}

func (s *Server) textDocumentDidChange(ctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	// With full sync, the last change carries the whole text.
	if len(params.ContentChanges) == 0 {
		return nil
	}
	whole, ok := params.ContentChanges[len(params.ContentChanges)-1].(protocol.TextDocumentContentChangeEventWhole)
	if !ok {
		return nil
	}
	uri := params.TextDocument.URI
	s.publish(ctx, uri, s.update(uri, whole.Text))
	return nil
}

func (s *Server) textDocumentDidClose(ctx *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	uri := params.TextDocument.URI
	s.mu.Lock()
	delete(s.docs, uri)
	s.mu.Unlock()

	s.publish(ctx, uri, []protocol.Diagnostic{})
	return nil
}

func (s *Server) textDocumentCodeAction(ctx *glsp.Context, params *protocol.CodeActionParams) (any, error) {
	return s.codeActions(params.TextDocument.URI, params.Range), nil
}

func (s *Server) publish(ctx *glsp.Context, uri protocol.DocumentUri, diagnostics []protocol.Diagnostic) {
	go ctx.Notify(protocol.ServerTextDocumentPublishDiagnostics, protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: diagnostics,
	})
}

// update analyzes text as the new content of uri and returns its diagnostics.
func (s *Server) update(uri protocol.DocumentUri, text string) []protocol.Diagnostic {
	res, err := s.runner.RunText(context.Background(), uriPath(uri), text)
	doc := &document{buf: res.Original, offenses: res.Offenses}

	s.mu.Lock()
	s.docs[uri] = doc
	s.mu.Unlock()

	diagnostics := make([]protocol.Diagnostic, 0, len(doc.offenses)+1)
	if err != nil {
		log.Debugf("%s: %s", uri, err)
		var perr *model.ParseError
		if errors.As(err, &perr) {
			diagnostics = append(diagnostics, parseDiagnostic(perr))
		}
	}
	for _, o := range doc.offenses {
		diagnostics = append(diagnostics, diagnostic(doc.buf, o))
	}
	return diagnostics
}

// codeActions returns a quick fix for every correctable offense of uri that
// touches rng.
func (s *Server) codeActions(uri protocol.DocumentUri, rng protocol.Range) []protocol.CodeAction {
	s.mu.Lock()
	doc, ok := s.docs[uri]
	s.mu.Unlock()
	if !ok {
		return nil
	}

	var actions []protocol.CodeAction
	for _, o := range doc.offenses {
		if !o.Correctable() {
			continue
		}
		orng := toRange(doc.buf, o.Range)
		if !touches(orng, rng) {
			continue
		}
		edits := make([]protocol.TextEdit, 0, o.Correction.Len())
		for _, e := range o.Correction.Edits() {
			edits = append(edits, protocol.TextEdit{
				Range:   toRange(doc.buf, e.Span()),
				NewText: e.Replacement(),
			})
		}
		kind := protocol.CodeActionKindQuickFix
		actions = append(actions, protocol.CodeAction{
			Title:       "Autocorrect " + o.Cop,
			Kind:        &kind,
			Diagnostics: []protocol.Diagnostic{diagnostic(doc.buf, o)},
			IsPreferred: boolPtr(true),
			Edit: &protocol.WorkspaceEdit{
				Changes: map[protocol.DocumentUri][]protocol.TextEdit{uri: edits},
			},
		})
	}
	return actions
}

func diagnostic(buf *source.Buffer, o *runner.TrackedOffense) protocol.Diagnostic {
	sev := severity(o.Severity)
	src := diagnosticSource
	return protocol.Diagnostic{
		Range:    toRange(buf, o.Range),
		Severity: &sev,
		Code:     &protocol.IntegerOrString{Value: o.Cop},
		Source:   &src,
		Message:  o.Cop + ": " + o.Message,
	}
}

func parseDiagnostic(perr *model.ParseError) protocol.Diagnostic {
	sev := protocol.DiagnosticSeverityError
	src := diagnosticSource
	pos := protocol.Position{Line: uinteger(perr.Line - 1), Character: uinteger(perr.Column - 1)}
	return protocol.Diagnostic{
		Range:    protocol.Range{Start: pos, End: pos},
		Severity: &sev,
		Source:   &src,
		Message:  perr.Error(),
	}
}

func severity(s model.Severity) protocol.DiagnosticSeverity {
	switch s {
	case model.SeverityFatal, model.SeverityError:
		return protocol.DiagnosticSeverityError
	case model.SeverityWarning:
		return protocol.DiagnosticSeverityWarning
	case model.SeverityInfo:
		return protocol.DiagnosticSeverityHint
	default:
		return protocol.DiagnosticSeverityInformation
	}
}

// toRange converts a byte range to 0-based lines and UTF-16 columns.
func toRange(buf *source.Buffer, r source.Range) protocol.Range {
	return protocol.Range{Start: toPosition(buf, r.Start), End: toPosition(buf, r.End)}
}

func toPosition(buf *source.Buffer, off int) protocol.Position {
	return protocol.Position{
		Line:      uinteger(buf.Position(off).Line - 1),
		Character: uinteger(buf.UTF16Column(off)),
	}
}

func uinteger(n int) protocol.UInteger {
	v, err := safecast.Conv[protocol.UInteger](n)
	if err != nil {
		return 0
	}
	return v
}

// touches reports whether a and b overlap or share an endpoint.
func touches(a, b protocol.Range) bool {
	return !before(a.End, b.Start) && !before(b.End, a.Start)
}

func before(p, q protocol.Position) bool {
	return p.Line < q.Line || (p.Line == q.Line && p.Character < q.Character)
}

// uriPath maps a file:// URI to a path; other URIs are used as is.
func uriPath(uri protocol.DocumentUri) string {
	u, err := url.Parse(string(uri))
	if err != nil || u.Scheme != "file" {
		return string(uri)
	}
	return filepath.FromSlash(u.Path)
}

func boolPtr(b bool) *bool { return &b }
