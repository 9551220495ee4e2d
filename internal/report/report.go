// Package report renders run results for people (text) and machines (JSON).
package report

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"io"

	"github.com/oxhq/rubric/internal/corrector"
	"github.com/oxhq/rubric/internal/model"
	"github.com/oxhq/rubric/internal/runner"
)

// Options tune a formatter.
type Options struct {
	Color bool
	// Diff adds a unified diff of every changed file.
	Diff bool
}

// Formatter writes the results of one run.
type Formatter interface {
	Format(w io.Writer, results []*runner.FileResult) error
}

// Formats lists the names New accepts.
var Formats = []string{"text", "json"}

// New returns the formatter called name.
func New(name string, opts Options) (Formatter, error) {
	switch name {
	case "", "text":
		return NewText(opts), nil
	case "json":
		return &JSON{opts: opts}, nil
	default:
		return nil, model.NewConfigError([]string{"format"}, "unknown format %q (want one of %v)", name, Formats)
	}
}

// Build converts results to the machine-readable document.
func Build(results []*runner.FileResult, opts Options) model.Report {
	rep := model.Report{
		SchemaVersion: model.CurrentSchemaVersion,
		ToolVersion:   model.ToolVersion,
		Files:         make([]model.FileReport, 0, len(results)),
		Summary:       Summarize(results),
	}
	for _, res := range results {
		rep.Files = append(rep.Files, FileReport(res, opts.Diff))
	}
	return rep
}

// Summarize totals results.
func Summarize(results []*runner.FileResult) model.Summary {
	var s model.Summary
	for _, res := range results {
		s.InspectedFiles++
		s.Offenses += len(res.Offenses)
		s.Corrected += res.CorrectedCount()
		if res.Status == runner.StatusFailed {
			s.Failed++
		}
	}
	return s
}

// FileReport converts one result.
func FileReport(res *runner.FileResult, withDiff bool) model.FileReport {
	fr := model.FileReport{
		File:     res.Path,
		Status:   string(res.Status),
		Passes:   res.Passes,
		Changed:  res.Changed(),
		Offenses: make([]model.OffenseReport, 0, len(res.Offenses)),
	}
	if res.Err != nil {
		fr.Error = res.Err.Error()
		fr.ErrorCode = model.CodeOf(res.Err)
	}
	if res.Original != nil {
		fr.OriginalSHA1 = sha1Hex(res.Original.Bytes())
	}
	if fr.Changed {
		fr.ModifiedSHA1 = sha1Hex(res.Final.Bytes())
		if withDiff {
			fr.Diff = UnifiedDiff(res.Path, res.Original.Text(), res.Final.Text())
		}
	}
	for _, o := range res.Offenses {
		fr.Offenses = append(fr.Offenses, OffenseReport(o))
	}
	return fr
}

// OffenseReport converts one tracked offense.
func OffenseReport(o *runner.TrackedOffense) model.OffenseReport {
	return model.OffenseReport{
		Cop:         o.Cop,
		Severity:    o.Severity,
		Message:     o.Message,
		Correctable: o.Correctable(),
		Corrected:   o.Corrected,
		Reason:      string(o.Reason),
		Location: model.Location{
			StartLine:   o.Start.Line,
			StartColumn: o.Start.Column,
			LastLine:    o.End.Line,
			LastColumn:  o.End.Column,
			Start:       o.Range.Start,
			End:         o.Range.End,
		},
		Changes: Changes(o.Edits),
	}
}

// Changes converts applied edits.
func Changes(edits []corrector.Edit) []model.Change {
	if len(edits) == 0 {
		return nil
	}
	out := make([]model.Change, len(edits))
	for i, e := range edits {
		span := e.Span()
		out[i] = model.Change{Operation: string(e.Op), Start: span.Start, End: span.End, New: e.Replacement()}
	}
	return out
}

func sha1Hex(data []byte) string {
	h := sha1.Sum(data)
	return hex.EncodeToString(h[:])
}

func plural(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}
