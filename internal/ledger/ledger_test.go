package ledger

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oxhq/rubric/db"
	"github.com/oxhq/rubric/internal/config"
	"github.com/oxhq/rubric/internal/cop"
	"github.com/oxhq/rubric/internal/cop/style"
	"github.com/oxhq/rubric/internal/model"
	"github.com/oxhq/rubric/internal/runner"
	"github.com/oxhq/rubric/providers/ruby"
)

func openLedger(t *testing.T) *Ledger {
	t.Helper()
	l, err := Open(filepath.Join(t.TempDir(), "nested", "ledger.db"), db.Options{})
	require.NoError(t, err)
	t.Cleanup(func() { l.Close() })
	return l
}

func results(t *testing.T, files map[string]string, order ...string) []*runner.FileResult {
	t.Helper()
	c, err := style.NewSingleLineBlockParams(config.CopConfig{Options: map[string]any{
		"Methods": []any{map[string]any{"reduce": []any{"a", "e"}}},
	}})
	require.NoError(t, err)
	r, err := runner.New(ruby.New(), []cop.Instance{{Cop: c, Severity: model.SeverityConvention, AutoCorrect: true}},
		runner.WithAutocorrect(true))
	require.NoError(t, err)

	var out []*runner.FileResult
	for _, path := range order {
		res, _ := r.RunText(context.Background(), path, files[path])
		out = append(out, res)
	}
	return out
}

func TestRecordAndGet(t *testing.T) {
	l := openLedger(t)
	ctx := context.Background()
	start := time.Now().Add(-time.Second)

	res := results(t, map[string]string{
		"a.rb":   "xs.reduce { |c, d| c + d }\n",
		"bad.rb": "def (\n",
	}, "a.rb", "bad.rb")

	id, err := l.Record(ctx, Run{
		Started:     start,
		Finished:    time.Now(),
		Autocorrect: true,
		Cops:        []string{style.SingleLineBlockParamsName},
		Results:     res,
	})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	run, err := l.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "failed", run.Status)
	assert.Equal(t, 2, run.Files)
	assert.Equal(t, 1, run.Offenses)
	assert.Equal(t, 1, run.Corrected)
	assert.Equal(t, 1, run.Failed)
	assert.JSONEq(t, `["Style/SingleLineBlockParams"]`, string(run.Cops))
	require.NotNil(t, run.FinishedAt)

	require.Len(t, run.Outcomes, 2)
	a := run.Outcomes[0]
	assert.Equal(t, "a.rb", a.Path)
	assert.Equal(t, "corrected", a.Status)
	assert.Equal(t, 1, a.Passes)
	assert.NotEqual(t, a.BaseDigest, a.AfterDigest)

	require.Len(t, a.Offenses, 1)
	o := a.Offenses[0]
	assert.Equal(t, "convention", o.Severity)
	assert.True(t, o.Corrected)
	assert.Equal(t, 12, o.StartOffset)
	assert.Equal(t, 18, o.EndOffset)

	edits, err := Edits(o)
	require.NoError(t, err)
	require.Len(t, edits, 3)
	assert.Equal(t, model.Change{Operation: "replace", Start: 12, End: 18, New: "|a, e|"}, edits[0])

	bad := run.Outcomes[1]
	assert.Equal(t, "failed", bad.Status)
	assert.Equal(t, string(model.ECParse), bad.ErrorCode)
	assert.Empty(t, bad.Offenses)
}

func TestRecentNewestFirst(t *testing.T) {
	l := openLedger(t)
	ctx := context.Background()
	base := time.Now().Add(-time.Hour)

	var ids []string
	for i := range 3 {
		id, err := l.Record(ctx, Run{
			Started:  base.Add(time.Duration(i) * time.Minute),
			Finished: base.Add(time.Duration(i)*time.Minute + time.Second),
			Results:  results(t, map[string]string{"ok.rb": "x = 1\n"}, "ok.rb"),
		})
		require.NoError(t, err)
		ids = append(ids, id)
	}

	runs, err := l.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, ids[2], runs[0].ID)
	assert.Equal(t, ids[1], runs[1].ID)
	assert.Equal(t, "clean", runs[0].Status)
	assert.Empty(t, runs[0].Outcomes)
}

func TestGetUnknownRun(t *testing.T) {
	_, err := openLedger(t).Get(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrRunNotFound)
}

func TestWorst(t *testing.T) {
	mk := func(statuses ...runner.Status) []*runner.FileResult {
		var out []*runner.FileResult
		for _, s := range statuses {
			out = append(out, &runner.FileResult{Status: s})
		}
		return out
	}
	assert.Equal(t, runner.StatusClean, worst(nil))
	assert.Equal(t, runner.StatusCorrected, worst(mk(runner.StatusClean, runner.StatusCorrected)))
	assert.Equal(t, runner.StatusNonConvergence, worst(mk(runner.StatusOffenses, runner.StatusNonConvergence, runner.StatusCorrected)))
}
