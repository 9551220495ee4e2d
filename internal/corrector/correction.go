package corrector

import (
	"fmt"

	"github.com/oxhq/rubric/internal/source"
)

// Correction is an immutable, ordered set of non-overlapping edits.
type Correction struct {
	edits []Edit
}

// Edits returns a copy of the edits in registration order.
func (c Correction) Edits() []Edit {
	return append([]Edit(nil), c.edits...)
}

func (c Correction) Len() int      { return len(c.edits) }
func (c Correction) IsEmpty() bool { return len(c.edits) == 0 }

// Builder collects the edits of one correction.
type Builder struct {
	edits []Edit
}

// New returns an empty correction builder.
func New() *Builder {
	return &Builder{}
}

func (b *Builder) Replace(r source.Range, text string) error {
	return b.add(Edit{Op: OpReplace, Range: r, Text: text})
}

func (b *Builder) InsertBefore(r source.Range, text string) error {
	return b.add(Edit{Op: OpInsertBefore, Range: r, Text: text})
}

func (b *Builder) InsertAfter(r source.Range, text string) error {
	return b.add(Edit{Op: OpInsertAfter, Range: r, Text: text})
}

func (b *Builder) Remove(r source.Range) error {
	return b.add(Edit{Op: OpRemove, Range: r})
}

func (b *Builder) add(e Edit) error {
	if !e.Range.Valid() {
		return fmt.Errorf("invalid edit range %s", e.Range)
	}
	for _, prev := range b.edits {
		if prev.sameAs(e) {
			return nil
		}
		if overlaps(prev, e) {
			return conflictError(prev, e)
		}
	}
	b.edits = append(b.edits, e)
	return nil
}

// Correction returns the edits collected so far. Later builder calls do not affect it.
func (b *Builder) Correction() Correction {
	return Correction{edits: append([]Edit(nil), b.edits...)}
}
