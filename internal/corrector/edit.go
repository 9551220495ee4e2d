// Package corrector builds, merges and applies source edits.
package corrector

import (
	"fmt"

	"github.com/oxhq/rubric/internal/model"
	"github.com/oxhq/rubric/internal/source"
)

// Operation defines the type of modification an edit performs.
type Operation string

const (
	OpReplace      Operation = "replace"
	OpInsertBefore Operation = "insert-before"
	OpInsertAfter  Operation = "insert-after"
	OpRemove       Operation = "remove"
)

// Edit is a single change to a buffer. Range is the range the edit was
// requested against; for insertions only one of its ends is touched.
type Edit struct {
	Op    Operation
	Range source.Range
	Text  string
}

// Span is the byte range the edit rewrites. Insertions have an empty span at
// their insertion point.
func (e Edit) Span() source.Range {
	switch e.Op {
	case OpInsertBefore:
		return source.NewRange(e.Range.Start, e.Range.Start)
	case OpInsertAfter:
		return source.NewRange(e.Range.End, e.Range.End)
	default:
		return e.Range
	}
}

// Replacement is the text written over Span.
func (e Edit) Replacement() string {
	if e.Op == OpRemove {
		return ""
	}
	return e.Text
}

// IsInsertion reports whether the edit leaves existing text untouched.
func (e Edit) IsInsertion() bool { return e.Span().Empty() }

// Delta is the change in buffer length the edit causes.
func (e Edit) Delta() int { return len(e.Replacement()) - e.Span().Len() }

func (e Edit) String() string {
	return fmt.Sprintf("%s %s %q", e.Op, e.Span(), e.Replacement())
}

func (e Edit) sameAs(o Edit) bool {
	return e.Span() == o.Span() && e.Replacement() == o.Replacement()
}

// overlaps reports the conflicts that hold within one correction: intersecting
// rewrites, and an insertion strictly inside a rewritten range.
func overlaps(a, b Edit) bool {
	sa, sb := a.Span(), b.Span()
	switch {
	case !sa.Empty() && !sb.Empty():
		return sa.Overlaps(sb)
	case sa.Empty() && !sb.Empty():
		return sb.Start < sa.Start && sa.Start < sb.End
	case !sa.Empty() && sb.Empty():
		return sa.Start < sb.Start && sb.Start < sa.End
	default:
		return false
	}
}

// clashes extends overlaps with the cross-correction rule: two insertions at
// the same offset have no defined order.
func clashes(a, b Edit) bool {
	if overlaps(a, b) {
		return true
	}
	return a.IsInsertion() && b.IsInsertion() && a.Span().Start == b.Span().Start
}

func conflictError(a, b Edit) error {
	return fmt.Errorf("%w: %s and %s", model.ErrConflictingEdit, a.Span(), b.Span())
}
