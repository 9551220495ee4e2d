// Package runner drives cops over files: parse, investigate, correct and
// reparse until the text is stable.
package runner

import (
	"context"
	"os"
	"runtime"

	"github.com/tliron/commonlog"

	"github.com/oxhq/rubric/internal/ast"
	"github.com/oxhq/rubric/internal/config"
	"github.com/oxhq/rubric/internal/cop"
	"github.com/oxhq/rubric/internal/model"
	"github.com/oxhq/rubric/internal/source"
)

var log = commonlog.GetLogger("rubric.runner")

// Parser turns a buffer into a tree. providers.Provider satisfies it.
type Parser interface {
	Parse(ctx context.Context, buf *source.Buffer) (*ast.Tree, error)
}

// Runner runs a fixed set of cops. It is safe for concurrent use by RunFiles.
type Runner struct {
	parser        Parser
	comm          *cop.Commissioner
	autocorrect   bool
	maxIterations int
	jobs          int
	sink          Sink
	readFile      func(path string) ([]byte, error)

	// fixable holds the cops whose corrections may be applied.
	fixable map[string]bool
}

// Option configures a Runner.
type Option func(*Runner)

func WithAutocorrect(on bool) Option { return func(r *Runner) { r.autocorrect = on } }
func WithMaxIterations(n int) Option { return func(r *Runner) { r.maxIterations = n } }
func WithJobs(n int) Option          { return func(r *Runner) { r.jobs = n } }
func WithSink(s Sink) Option         { return func(r *Runner) { r.sink = s } }

// WithReader replaces os.ReadFile for RunFiles.
func WithReader(fn func(path string) ([]byte, error)) Option {
	return func(r *Runner) { r.readFile = fn }
}

// New builds a runner over cops, which must be in registry order.
func New(parser Parser, cops []cop.Instance, opts ...Option) (*Runner, error) {
	r := &Runner{
		parser:        parser,
		comm:          cop.NewCommissioner(cops),
		maxIterations: config.DefaultMaxIterations,
		sink:          discard{},
		readFile:      os.ReadFile,
		fixable:       make(map[string]bool, len(cops)),
	}
	for _, inst := range cops {
		ac, ok := inst.Cop.(cop.Autocorrector)
		r.fixable[inst.Cop.Name()] = inst.AutoCorrect && ok && ac.SupportsAutocorrect()
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.maxIterations < 1 {
		return nil, model.NewConfigError([]string{"AllCops", "MaxIterations"}, "must be at least 1, got %d", r.maxIterations)
	}
	if r.jobs < 0 {
		return nil, model.NewConfigError([]string{"AllCops", "Jobs"}, "must not be negative, got %d", r.jobs)
	}
	if r.jobs == 0 {
		r.jobs = runtime.GOMAXPROCS(0)
	}
	return r, nil
}

// FromConfig builds the enabled cops of reg and a runner using cfg's limits.
// Options given here override the configuration.
func FromConfig(cfg *config.Config, reg *cop.Registry, parser Parser, only []string, opts ...Option) (*Runner, error) {
	cops, err := reg.Build(cfg, only)
	if err != nil {
		return nil, err
	}
	base := []Option{WithMaxIterations(cfg.AllCops.MaxIterations), WithJobs(cfg.AllCops.Jobs)}
	return New(parser, cops, append(base, opts...)...)
}

// Cops returns the cops the runner applies.
func (r *Runner) Cops() []cop.Instance { return r.comm.Cops() }
