package report

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/oxhq/rubric/internal/model"
	"github.com/oxhq/rubric/internal/runner"
)

// Text prints one line per offense, RuboCop style:
//
//	app/sum.rb:1:13: C: [Corrected] Style/SingleLineBlockParams: Name `reduce` block params `|a, e|`.
type Text struct {
	opts Options

	path, corrected, failed, summary *color.Color
	severity                         map[model.Severity]*color.Color
}

func NewText(opts Options) *Text {
	t := &Text{
		opts:      opts,
		path:      color.New(color.FgCyan),
		corrected: color.New(color.FgGreen),
		failed:    color.New(color.FgRed, color.Bold),
		summary:   color.New(color.Bold),
		severity: map[model.Severity]*color.Color{
			model.SeverityInfo:       color.New(color.FgBlue),
			model.SeverityRefactor:   color.New(color.FgYellow),
			model.SeverityConvention: color.New(color.FgYellow),
			model.SeverityWarning:    color.New(color.FgMagenta),
			model.SeverityError:      color.New(color.FgRed),
			model.SeverityFatal:      color.New(color.FgRed, color.Bold),
		},
	}
	for _, c := range t.colors() {
		if opts.Color {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return t
}

func (t *Text) colors() []*color.Color {
	out := []*color.Color{t.path, t.corrected, t.failed, t.summary}
	for _, c := range t.severity {
		out = append(out, c)
	}
	return out
}

func (t *Text) Format(w io.Writer, results []*runner.FileResult) error {
	p := &printer{w: w}
	for _, res := range results {
		t.file(p, res)
	}

	s := Summarize(results)
	line := fmt.Sprintf("%s inspected, %s detected", plural(s.InspectedFiles, "file"), plural(s.Offenses, "offense"))
	if s.Corrected > 0 {
		line += fmt.Sprintf(", %s corrected", plural(s.Corrected, "offense"))
	}
	if s.Failed > 0 {
		line += fmt.Sprintf(", %s failed", plural(s.Failed, "file"))
	}
	p.printf("\n%s\n", t.summary.Sprint(line))
	return p.err
}

func (t *Text) file(p *printer, res *runner.FileResult) {
	path := t.path.Sprint(res.Path)
	if res.Status == runner.StatusFailed {
		p.printf("%s: %s %s\n", path, t.failed.Sprint("F:"), res.Err)
		return
	}
	for _, o := range res.Offenses {
		sev := t.severity[o.Severity]
		if sev == nil {
			sev = t.summary
		}
		mark := ""
		if o.Corrected {
			mark = t.corrected.Sprint("[Corrected]") + " "
		} else if o.Correctable() {
			mark = "[Correctable] "
		}
		p.printf("%s:%d:%d: %s %s%s: %s\n", path, o.Start.Line, o.Start.Column,
			sev.Sprint(o.Severity.Code()+":"), mark, o.Cop, o.Message)
		if !o.Corrected && o.Reason != runner.ReasonNone && o.Reason != runner.ReasonNotCorrectable {
			p.printf("  not corrected: %s\n", o.Reason)
		}
	}
	if res.Err != nil {
		p.printf("%s: %s %s\n", path, t.failed.Sprint("E:"), res.Err)
	}
	if t.opts.Diff && res.Changed() {
		p.printf("%s", UnifiedDiff(res.Path, res.Original.Text(), res.Final.Text()))
	}
}

// printer keeps the first write error.
type printer struct {
	w   io.Writer
	err error
}

func (p *printer) printf(format string, args ...any) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format, args...)
}
