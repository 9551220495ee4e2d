package runner_test

import (
	"context"
	"errors"
	"io/fs"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oxhq/rubric/internal/ast"
	"github.com/oxhq/rubric/internal/config"
	"github.com/oxhq/rubric/internal/cop"
	"github.com/oxhq/rubric/internal/corrector"
	"github.com/oxhq/rubric/internal/model"
	"github.com/oxhq/rubric/internal/runner"
	"github.com/oxhq/rubric/providers/ruby"
)

// intCop flags integer literals for which rewrite returns true, and
// corrects them to the returned text.
type intCop struct {
	name    string
	rewrite func(lit string) (string, bool)
}

func (c *intCop) Name() string                { return c.name }
func (c *intCop) InterestedKinds() []ast.Kind { return []ast.Kind{ast.KindInt} }
func (c *intCop) SupportsAutocorrect() bool   { return true }

func (c *intCop) Visit(id ast.NodeID, ctx *cop.Context) []cop.Offense {
	lit := ctx.Tree.Source(id)
	to, ok := c.rewrite(lit)
	if !ok {
		return nil
	}
	r := ctx.Tree.Range(id)
	return []cop.Offense{ctx.Offense(r, "int "+lit, func(b *corrector.Builder) error {
		return b.Replace(r, to)
	})}
}

// reportCop flags every integer and cannot correct anything.
type reportCop struct{}

func (reportCop) Name() string                { return "Test/Report" }
func (reportCop) InterestedKinds() []ast.Kind { return []ast.Kind{ast.KindInt} }
func (reportCop) Visit(id ast.NodeID, ctx *cop.Context) []cop.Offense {
	return []cop.Offense{ctx.Offense(ctx.Tree.Range(id), "report", nil)}
}

func only(want, to string) func(string) (string, bool) {
	return func(lit string) (string, bool) { return to, lit == want }
}

// upTo bumps literals below n by one.
func upTo(n int) func(string) (string, bool) {
	return func(lit string) (string, bool) {
		v, err := strconv.Atoi(lit)
		if err != nil || v >= n {
			return "", false
		}
		return strconv.Itoa(v + 1), true
	}
}

func flip(lit string) (string, bool) {
	if lit == "1" {
		return "2", true
	}
	return "1", true
}

func instances(cops ...cop.Cop) []cop.Instance {
	out := make([]cop.Instance, len(cops))
	for i, c := range cops {
		out[i] = cop.Instance{Cop: c, Severity: model.SeverityConvention, AutoCorrect: true}
	}
	return out
}

func newRunner(t *testing.T, cops []cop.Instance, opts ...runner.Option) *runner.Runner {
	t.Helper()
	r, err := runner.New(ruby.New(), cops, opts...)
	require.NoError(t, err)
	return r
}

func TestRunWithoutAutocorrect(t *testing.T) {
	r := newRunner(t, instances(&intCop{name: "Test/One", rewrite: only("1", "2")}))

	res, err := r.RunText(context.Background(), "a.rb", "x = 1\ny = 1\n")
	require.NoError(t, err)

	assert.Equal(t, runner.StatusOffenses, res.Status)
	assert.False(t, res.Changed())
	assert.Equal(t, 0, res.Passes)
	require.Len(t, res.Offenses, 2)
	for _, o := range res.Offenses {
		assert.False(t, o.Corrected)
		assert.Equal(t, runner.ReasonNone, o.Reason)
		assert.True(t, o.Correctable())
		assert.Equal(t, 1, o.Pass)
	}
	assert.Equal(t, 2, res.Offenses[1].Start.Line)
	assert.Equal(t, 5, res.Offenses[1].Start.Column)
}

func TestRunCleanFile(t *testing.T) {
	r := newRunner(t, instances(&intCop{name: "Test/One", rewrite: only("1", "2")}), runner.WithAutocorrect(true))

	res, err := r.RunText(context.Background(), "a.rb", "x = 3\n")
	require.NoError(t, err)
	assert.Equal(t, runner.StatusClean, res.Status)
	assert.Empty(t, res.Offenses)
	assert.Same(t, res.Original, res.Final)
}

func TestRunCorrectsUntilStable(t *testing.T) {
	var commits []string
	sink := runner.SinkFunc(func(path string, text []byte) error {
		assert.Equal(t, "a.rb", path)
		commits = append(commits, string(text))
		return nil
	})
	r := newRunner(t, instances(&intCop{name: "Test/UpTo", rewrite: upTo(3)}),
		runner.WithAutocorrect(true), runner.WithSink(sink))

	res, err := r.RunText(context.Background(), "a.rb", "x = 1\n")
	require.NoError(t, err)

	assert.Equal(t, runner.StatusCorrected, res.Status)
	assert.Equal(t, "x = 1\n", res.Original.Text())
	assert.Equal(t, "x = 3\n", res.Final.Text())
	assert.Equal(t, 2, res.Passes)
	assert.Equal(t, []string{"x = 2\n", "x = 3\n"}, commits)

	require.Len(t, res.Offenses, 1, "the re-found offense is the same tracked offense")
	o := res.Offenses[0]
	assert.True(t, o.Corrected)
	assert.Equal(t, runner.ReasonNone, o.Reason)
	assert.Equal(t, "int 1", o.Message)
	assert.Len(t, o.Edits, 2)
	assert.Equal(t, 1, res.CorrectedCount())
}

func TestRunNonConvergence(t *testing.T) {
	r := newRunner(t, instances(&intCop{name: "Test/Flip", rewrite: flip}),
		runner.WithAutocorrect(true), runner.WithMaxIterations(3))

	res, err := r.RunText(context.Background(), "a.rb", "x = 1\n")
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrNonConvergence)
	assert.Equal(t, model.ECNonConvergence, model.CodeOf(err))

	assert.Equal(t, runner.StatusNonConvergence, res.Status)
	assert.Equal(t, 3, res.Passes)
	assert.Equal(t, "x = 2\n", res.Final.Text())
	require.Len(t, res.Offenses, 1)
	assert.False(t, res.Offenses[0].Corrected)
	assert.Equal(t, runner.ReasonNonConvergence, res.Offenses[0].Reason)
}

func TestRunCorrectionBreaksSyntax(t *testing.T) {
	committed := false
	sink := runner.SinkFunc(func(string, []byte) error { committed = true; return nil })
	r := newRunner(t, instances(&intCop{name: "Test/Break", rewrite: only("1", "(")}),
		runner.WithAutocorrect(true), runner.WithSink(sink))

	res, err := r.RunText(context.Background(), "a.rb", "x = 1\n")
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrCorrectionSyntax)
	assert.Equal(t, model.ECCorrectionSyntax, model.CodeOf(err))

	assert.False(t, committed)
	assert.Equal(t, "x = 1\n", res.Final.Text())
	assert.Equal(t, runner.StatusOffenses, res.Status)
	require.Len(t, res.Offenses, 1)
	assert.Equal(t, runner.ReasonSyntax, res.Offenses[0].Reason)
}

func TestRunDefersConflictingCorrections(t *testing.T) {
	// Both cops rewrite the same literal; the second waits for the next pass.
	first := &intCop{name: "Test/A", rewrite: only("1", "2")}
	second := &intCop{name: "Test/B", rewrite: func(lit string) (string, bool) { return "3", lit != "3" }}
	r := newRunner(t, instances(first, second), runner.WithAutocorrect(true))

	res, err := r.RunText(context.Background(), "a.rb", "x = 1\n")
	require.NoError(t, err)

	assert.Equal(t, "x = 3\n", res.Final.Text())
	assert.Equal(t, 2, res.Passes)
	assert.Equal(t, runner.StatusCorrected, res.Status)
	require.Len(t, res.Offenses, 2)
	assert.Equal(t, "Test/A", res.Offenses[0].Cop)
	assert.Equal(t, "Test/B", res.Offenses[1].Cop)
	for _, o := range res.Offenses {
		assert.True(t, o.Corrected, o.Cop)
	}
}

func TestRunNoChange(t *testing.T) {
	r := newRunner(t, instances(&intCop{name: "Test/Same", rewrite: only("1", "1")}), runner.WithAutocorrect(true))

	res, err := r.RunText(context.Background(), "a.rb", "x = 1\n")
	require.NoError(t, err)
	assert.Equal(t, runner.StatusOffenses, res.Status)
	assert.Equal(t, 0, res.Passes)
	require.Len(t, res.Offenses, 1)
	assert.Equal(t, runner.ReasonNoChange, res.Offenses[0].Reason)
}

func TestRunNotCorrectable(t *testing.T) {
	cops := instances(reportCop{}, &intCop{name: "Test/Off", rewrite: only("1", "2")})
	cops[1].AutoCorrect = false
	r := newRunner(t, cops, runner.WithAutocorrect(true))

	res, err := r.RunText(context.Background(), "a.rb", "x = 1\n")
	require.NoError(t, err)
	assert.False(t, res.Changed())
	require.Len(t, res.Offenses, 2)
	for _, o := range res.Offenses {
		assert.Equal(t, runner.ReasonNotCorrectable, o.Reason, o.Cop)
	}
	assert.Equal(t, 2, res.Unfixed())
}

func TestRunSinkFailure(t *testing.T) {
	sink := runner.SinkFunc(func(string, []byte) error { return fs.ErrPermission })
	r := newRunner(t, instances(&intCop{name: "Test/One", rewrite: only("1", "2")}),
		runner.WithAutocorrect(true), runner.WithSink(sink))

	res, err := r.RunText(context.Background(), "a.rb", "x = 1\n")
	var werr *model.WriteError
	require.ErrorAs(t, err, &werr)
	assert.Equal(t, "a.rb", werr.Path)
	assert.ErrorIs(t, err, fs.ErrPermission)
	assert.Equal(t, "x = 1\n", res.Final.Text())
	assert.Equal(t, runner.ReasonWriteFailed, res.Offenses[0].Reason)
}

func TestRunWriteRacePassesThrough(t *testing.T) {
	sink := runner.SinkFunc(func(string, []byte) error { return model.ErrWriteRace })
	r := newRunner(t, instances(&intCop{name: "Test/One", rewrite: only("1", "2")}),
		runner.WithAutocorrect(true), runner.WithSink(sink))

	_, err := r.RunText(context.Background(), "a.rb", "x = 1\n")
	assert.Equal(t, model.ECWriteRace, model.CodeOf(err))
}

func TestRunCanceledBetweenPasses(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sink := runner.SinkFunc(func(string, []byte) error { cancel(); return nil })
	r := newRunner(t, instances(&intCop{name: "Test/UpTo", rewrite: upTo(5)}),
		runner.WithAutocorrect(true), runner.WithSink(sink))

	res, err := r.RunText(ctx, "a.rb", "x = 1\n")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, res.Passes)
	assert.Equal(t, "x = 2\n", res.Final.Text())
	require.Len(t, res.Offenses, 1)
	assert.Equal(t, runner.ReasonCanceled, res.Offenses[0].Reason)
}

func TestRunParseFailure(t *testing.T) {
	r := newRunner(t, instances(reportCop{}))

	res, err := r.RunText(context.Background(), "a.rb", "def (\n")
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrParseFailure)
	assert.Equal(t, runner.StatusFailed, res.Status)
	assert.Empty(t, res.Offenses)
}

func TestNewValidatesLimits(t *testing.T) {
	_, err := runner.New(ruby.New(), nil, runner.WithMaxIterations(0))
	assert.ErrorIs(t, err, model.ErrConfiguration)

	_, err = runner.New(ruby.New(), nil, runner.WithJobs(-1))
	assert.ErrorIs(t, err, model.ErrConfiguration)
}

func TestFromConfig(t *testing.T) {
	reg := cop.NewRegistry()
	reg.Register(cop.Entry{
		Name:     "Test/FromConfig",
		Defaults: config.CopConfig{Enabled: false, AutoCorrect: true},
		Factory: func(config.CopConfig) (cop.Cop, error) {
			return &intCop{name: "Test/FromConfig", rewrite: only("1", "2")}, nil
		},
	})
	cfg := config.Default()

	r, err := runner.FromConfig(cfg, reg, ruby.New(), nil)
	require.NoError(t, err)
	assert.Empty(t, r.Cops())

	r, err = runner.FromConfig(cfg, reg, ruby.New(), []string{"Test/FromConfig"}, runner.WithAutocorrect(true))
	require.NoError(t, err)
	require.Len(t, r.Cops(), 1)

	res, err := r.RunText(context.Background(), "a.rb", "x = 1\n")
	require.NoError(t, err)
	assert.Equal(t, "x = 2\n", res.Final.Text())

	cfg.AllCops.MaxIterations = 0
	_, err = runner.FromConfig(cfg, reg, ruby.New(), nil)
	assert.ErrorIs(t, err, model.ErrConfiguration)
}

func TestRunFiles(t *testing.T) {
	files := map[string]string{
		"a.rb": "x = 1\n",
		"b.rb": "y = 3\n",
		"c.rb": "def (\n",
	}
	read := func(path string) ([]byte, error) {
		text, ok := files[path]
		if !ok {
			return nil, fs.ErrNotExist
		}
		return []byte(text), nil
	}
	r := newRunner(t, instances(&intCop{name: "Test/One", rewrite: only("1", "2")}),
		runner.WithAutocorrect(true), runner.WithJobs(2), runner.WithReader(read))

	paths := []string{"c.rb", "missing.rb", "a.rb", "b.rb"}
	results, err := r.RunFiles(context.Background(), paths)
	require.NoError(t, err)
	require.Len(t, results, len(paths))

	for i, res := range results {
		assert.Equal(t, paths[i], res.Path)
	}
	assert.Equal(t, runner.StatusFailed, results[0].Status)
	assert.ErrorIs(t, results[0].Err, model.ErrParseFailure)

	assert.Equal(t, runner.StatusFailed, results[1].Status)
	var rerr *model.ReadError
	require.ErrorAs(t, results[1].Err, &rerr)
	assert.True(t, errors.Is(results[1].Err, fs.ErrNotExist))

	assert.Equal(t, runner.StatusCorrected, results[2].Status)
	assert.Equal(t, "x = 2\n", results[2].Final.Text())
	assert.Equal(t, runner.StatusClean, results[3].Status)
}

func TestRunFilesCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	read := func(string) ([]byte, error) { return []byte("x = 1\n"), nil }
	r := newRunner(t, instances(reportCop{}), runner.WithReader(read))

	results, err := r.RunFiles(ctx, []string{"a.rb", "b.rb"})
	assert.ErrorIs(t, err, context.Canceled)
	require.Len(t, results, 2)
	for _, res := range results {
		assert.Equal(t, runner.StatusFailed, res.Status)
		assert.ErrorIs(t, res.Err, context.Canceled)
	}
}

func TestRunFilesEmpty(t *testing.T) {
	r := newRunner(t, nil)
	results, err := r.RunFiles(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, results)
}
