package providers

import (
	"context"
	"errors"
	"fmt"

	"github.com/oxhq/rubric/internal/ast"
	"github.com/oxhq/rubric/internal/model"
	"github.com/oxhq/rubric/internal/source"
	"github.com/oxhq/rubric/providers/catalog"
)

// Provider turns the text of one file into a syntax tree.
type Provider interface {
	// Metadata
	Language() string
	Extensions() []string
	Filenames() []string

	// Parse builds the tree for buf. Malformed input fails with an error
	// wrapping model.ErrParseFailure.
	Parse(ctx context.Context, buf *source.Buffer) (*ast.Tree, error)

	// Observability
	Stats() Stats
}

// Registry manages all providers. It is filled at startup and read-only afterwards.
type Registry struct {
	providers map[string]Provider
}

// NewRegistry creates provider registry
func NewRegistry() *Registry {
	return &Registry{
		providers: make(map[string]Provider),
	}
}

// Register adds a provider
func (r *Registry) Register(provider Provider) {
	r.providers[provider.Language()] = provider
	catalog.Register(catalog.LanguageInfo{
		ID:         provider.Language(),
		Extensions: provider.Extensions(),
		Filenames:  provider.Filenames(),
	})
}

// Get retrieves provider by language
func (r *Registry) Get(language string) (Provider, bool) {
	p, exists := r.providers[language]
	return p, exists
}

// ForPath returns the provider responsible for path, if any.
func (r *Registry) ForPath(path string) (Provider, bool) {
	info, ok := catalog.LookupByPath(path)
	if !ok {
		return nil, false
	}
	return r.Get(info.ID)
}

// ErrNoProvider marks a file no registered provider handles.
var ErrNoProvider = errors.New("no language provider")

// Parse hands buf to the provider of its name, so a Registry can serve as the
// parser of a run over files of several languages. A file without a provider
// fails as a parse failure.
func (r *Registry) Parse(ctx context.Context, buf *source.Buffer) (*ast.Tree, error) {
	p, ok := r.ForPath(buf.Name())
	if !ok {
		return nil, fmt.Errorf("%s: %w: %w", buf.Name(), ErrNoProvider, model.ErrParseFailure)
	}
	return p.Parse(ctx, buf)
}

// Stats captures parser-pool level metrics exposed by providers.
type Stats struct {
	BorrowCount int64 `json:"borrow_count"`
	ReturnCount int64 `json:"return_count"`
	Active      int64 `json:"active"`
}
