// Package coptest provides expectation helpers for cop tests. Offenses are
// written as caret annotations under the offending line:
//
//	xs.reduce { |c, d| c + d }
//	            ^^^^^^ Name `reduce` block params `|a, e|`.
package coptest

import (
	"context"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oxhq/rubric/internal/ast"
	"github.com/oxhq/rubric/internal/cop"
	"github.com/oxhq/rubric/internal/model"
	"github.com/oxhq/rubric/internal/runner"
	"github.com/oxhq/rubric/internal/source"
	"github.com/oxhq/rubric/providers/ruby"
)

const testFile = "example.rb"

var parser = ruby.New()

// Parse parses src or fails the test.
func Parse(t testing.TB, src string) *ast.Tree {
	t.Helper()
	tree, err := parser.Parse(context.Background(), source.NewBufferString(testFile, src))
	require.NoError(t, err, "parsing test source")
	return tree
}

// Investigate runs c alone over src.
func Investigate(t testing.TB, c cop.Cop, src string) []cop.Offense {
	t.Helper()
	comm := cop.NewCommissioner([]cop.Instance{{Cop: c, Severity: model.SeverityConvention, AutoCorrect: true}})
	offenses, errs := comm.Investigate(testFile, Parse(t, src))
	require.Empty(t, errs, "cop failures")
	return offenses
}

// ExpectOffense checks that c reports exactly the annotated offenses.
// It returns the offenses for further checks.
func ExpectOffense(t testing.TB, c cop.Cop, annotated string) []cop.Offense {
	t.Helper()
	src := StripAnnotations(annotated)
	offenses := Investigate(t, c, src)
	assert.Equal(t, annotated, Annotate(src, offenses))
	return offenses
}

// ExpectNoOffenses checks that c reports nothing for src.
func ExpectNoOffenses(t testing.TB, c cop.Cop, src string) {
	t.Helper()
	offenses := Investigate(t, c, src)
	assert.Equal(t, src, Annotate(src, offenses))
}

// ExpectCorrection autocorrects src, with annotations removed, and compares
// the result to want.
func ExpectCorrection(t testing.TB, c cop.Cop, src, want string) *runner.FileResult {
	t.Helper()
	r, err := runner.New(parser, []cop.Instance{{Cop: c, Severity: model.SeverityConvention, AutoCorrect: true}},
		runner.WithAutocorrect(true))
	require.NoError(t, err)

	res, err := r.Run(context.Background(), testFile, []byte(StripAnnotations(src)))
	require.NoError(t, err)
	assert.Equal(t, want, res.Final.Text())
	return res
}

// StripAnnotations removes caret lines from annotated source.
func StripAnnotations(annotated string) string {
	lines := strings.Split(annotated, "\n")
	out := lines[:0:0]
	for _, line := range lines {
		if isAnnotation(line) {
			continue
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}

func isAnnotation(line string) bool {
	return strings.HasPrefix(strings.TrimLeft(line, " \t"), "^")
}

// Annotate renders src with a caret line under each offense. Offenses that
// span lines are marked to the end of their first line.
func Annotate(src string, offenses []cop.Offense) string {
	buf := source.NewBufferString(testFile, src)
	byLine := make(map[int][]cop.Offense)
	for _, o := range offenses {
		line := buf.Position(o.Range.Start).Line
		byLine[line] = append(byLine[line], o)
	}

	var sb strings.Builder
	lines := strings.Split(src, "\n")
	for i, line := range lines {
		sb.WriteString(line)
		found := byLine[i+1]
		sort.SliceStable(found, func(a, b int) bool { return found[a].Range.Start < found[b].Range.Start })
		for _, o := range found {
			start := buf.Position(o.Range.Start)
			end := buf.Position(o.Range.End)
			width := end.Column - start.Column
			if end.Line != start.Line {
				width = len([]rune(line)) - (start.Column - 1)
			}
			sb.WriteString("\n")
			sb.WriteString(strings.Repeat(" ", start.Column-1))
			sb.WriteString(strings.Repeat("^", max(width, 1)))
			sb.WriteString(" ")
			sb.WriteString(o.Message)
		}
		if i < len(lines)-1 {
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

// Dedent strips the common indentation of s and a leading newline, so test
// sources can be indented with the surrounding code.
func Dedent(s string) string {
	s = strings.TrimPrefix(s, "\n")
	lines := strings.Split(s, "\n")
	indent := -1
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		n := len(line) - len(strings.TrimLeft(line, " \t"))
		if indent < 0 || n < indent {
			indent = n
		}
	}
	if indent <= 0 {
		return s
	}
	for i, line := range lines {
		if len(line) >= indent {
			lines[i] = line[indent:]
		} else {
			lines[i] = strings.TrimLeft(line, " \t")
		}
	}
	return strings.Join(lines, "\n")
}
