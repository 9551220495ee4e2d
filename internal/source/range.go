package source

import "fmt"

// Range is a half-open byte span [Start, End) into a Buffer.
type Range struct {
	Start int
	End   int
}

// NewRange returns the span between two offsets.
func NewRange(start, end int) Range {
	return Range{Start: start, End: end}
}

// Empty reports whether the range covers no bytes.
func (r Range) Empty() bool {
	return r.Start == r.End
}

// IsZero reports whether r is the zero value, used for absent delimiters.
func (r Range) IsZero() bool {
	return r.Start == 0 && r.End == 0
}

// Valid reports whether the range is well formed.
func (r Range) Valid() bool {
	return r.Start >= 0 && r.Start <= r.End
}

func (r Range) Len() int {
	return r.End - r.Start
}

// Contains reports whether off lies inside [Start, End).
func (r Range) Contains(off int) bool {
	return off >= r.Start && off < r.End
}

// Overlaps reports whether the two ranges share at least one byte.
func (r Range) Overlaps(other Range) bool {
	if r.Empty() || other.Empty() {
		return false
	}
	return r.Start < other.End && other.Start < r.End
}

// Cover returns the smallest range spanning both r and other.
func (r Range) Cover(other Range) Range {
	if other.Start < r.Start {
		r.Start = other.Start
	}
	if other.End > r.End {
		r.End = other.End
	}
	return r
}

func (r Range) String() string {
	return fmt.Sprintf("%d-%d", r.Start, r.End)
}
