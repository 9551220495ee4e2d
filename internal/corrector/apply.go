package corrector

import (
	"fmt"
	"slices"

	"github.com/oxhq/rubric/internal/source"
)

// EditSet is a conflict-free collection of edits ready to apply, ordered by
// position. Insertions at one offset keep their registration order.
type EditSet struct {
	edits []Edit
}

func newEditSet(edits []Edit) *EditSet {
	sorted := append([]Edit(nil), edits...)
	slices.SortStableFunc(sorted, func(a, b Edit) int {
		sa, sb := a.Span(), b.Span()
		if sa.Start != sb.Start {
			return sa.Start - sb.Start
		}
		// An insertion lands before a rewrite that starts at the same offset.
		switch {
		case a.IsInsertion() && !b.IsInsertion():
			return -1
		case !a.IsInsertion() && b.IsInsertion():
			return 1
		}
		return 0
	})
	return &EditSet{edits: sorted}
}

func (s *EditSet) Edits() []Edit { return append([]Edit(nil), s.edits...) }
func (s *EditSet) Len() int      { return len(s.edits) }

// Apply writes the set into buf.
func (s *EditSet) Apply(buf *source.Buffer) (*source.Buffer, error) {
	return Apply(buf, s.edits)
}

// MapOffset translates an offset in the buffer the set was built against
// into the buffer Apply produces. An offset strictly inside a rewritten range
// maps to the start of its replacement.
func (s *EditSet) MapOffset(off int) int {
	delta := 0
	for _, e := range s.edits {
		span := e.Span()
		if span.Start > off || (span.Start == off && !e.IsInsertion()) {
			break
		}
		if span.Start < off && off < span.End {
			return span.Start + delta
		}
		delta += e.Delta()
	}
	return off + delta
}

// MapRange maps both ends of r with MapOffset.
func (s *EditSet) MapRange(r source.Range) source.Range {
	start, end := s.MapOffset(r.Start), s.MapOffset(r.End)
	if end < start {
		end = start
	}
	return source.NewRange(start, end)
}

// Apply rewrites buf with edits. Overlapping edits fail with ErrConflictingEdit;
// edits are never reordered to make them fit. Identical edits apply once.
func Apply(buf *source.Buffer, edits []Edit) (*source.Buffer, error) {
	var unique []Edit
	for _, e := range edits {
		if !e.Range.Valid() || e.Range.End > buf.Len() {
			return nil, fmt.Errorf("edit %s outside buffer of %d bytes", e, buf.Len())
		}
		dup := false
		for _, u := range unique {
			if u.sameAs(e) {
				dup = true
				break
			}
			if overlaps(u, e) {
				return nil, conflictError(u, e)
			}
		}
		if !dup {
			unique = append(unique, e)
		}
	}
	if len(unique) == 0 {
		return buf, nil
	}

	set := newEditSet(unique)
	b := buf.Bytes()
	// Apply from the end so earlier offsets stay valid.
	for i := len(set.edits) - 1; i >= 0; i-- {
		e := set.edits[i]
		span := e.Span()
		b = splice(b, span.Start, span.End, []byte(e.Replacement()))
	}
	return source.NewBuffer(buf.Name(), b), nil
}

func splice(b []byte, start, end int, replacement []byte) []byte {
	out := make([]byte, 0, len(b)-(end-start)+len(replacement))
	out = append(out, b[:start]...)
	out = append(out, replacement...)
	return append(out, b[end:]...)
}
