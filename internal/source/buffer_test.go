package source

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBufferPosition(t *testing.T) {
	buf := NewBufferString("a.rb", "def m\n  x = 1\nend\n")

	tests := []struct {
		name string
		off  int
		want Position
	}{
		{name: "start", off: 0, want: Position{Line: 1, Column: 1}},
		{name: "newline belongs to its line", off: 5, want: Position{Line: 1, Column: 6}},
		{name: "second line", off: 8, want: Position{Line: 2, Column: 3}},
		{name: "last line", off: 14, want: Position{Line: 3, Column: 1}},
		{name: "past end clamps", off: 100, want: Position{Line: 4, Column: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, buf.Position(tt.off))
		})
	}
}

func TestBufferColumnsCountCharacters(t *testing.T) {
	buf := NewBufferString("u.rb", "é = 1 # 😀x")

	assert.Equal(t, Position{Line: 1, Column: 2}, buf.Position(2))

	off := len("é = 1 # 😀")
	assert.Equal(t, 9, buf.Position(off).Column-1)
	assert.Equal(t, 10, buf.UTF16Column(off))
}

func TestBufferLines(t *testing.T) {
	buf := NewBufferString("a.rb", "one\ntwo\nthree")

	require.Equal(t, 3, buf.LineCount())
	assert.Equal(t, "one", buf.LineText(1))
	assert.Equal(t, "two", buf.LineText(2))
	assert.Equal(t, "three", buf.LineText(3))
	assert.Equal(t, 4, buf.LineStart(2))
	assert.Equal(t, "", NewBufferString("e.rb", "").Slice(NewRange(0, 3)))
	assert.Equal(t, 0, NewBufferString("e.rb", "").LineCount())
}

func TestBufferSliceAndSameLine(t *testing.T) {
	buf := NewBufferString("a.rb", "x { |a| a }\ny do\nend\n")

	assert.Equal(t, "|a|", buf.Slice(NewRange(4, 7)))
	assert.True(t, buf.SameLine(NewRange(0, 11)))
	assert.True(t, buf.SameLine(NewRange(0, 12)), "a range ending on the newline stays on its line")
	assert.False(t, buf.SameLine(NewRange(12, 20)))
}

func TestRangeRelations(t *testing.T) {
	a := NewRange(2, 5)

	assert.True(t, a.Overlaps(NewRange(4, 8)))
	assert.False(t, a.Overlaps(NewRange(5, 8)), "half-open ranges that touch do not overlap")
	assert.False(t, a.Overlaps(NewRange(3, 3)), "empty ranges never overlap")
	assert.False(t, NewRange(3, 3).Overlaps(a))
	assert.False(t, NewRange(3, 3).Overlaps(NewRange(3, 3)))
	assert.True(t, a.Contains(2))
	assert.False(t, a.Contains(5))
	assert.Equal(t, NewRange(1, 5), a.Cover(NewRange(1, 3)))
	assert.True(t, Range{}.IsZero())
	assert.False(t, NewRange(3, 1).Valid())
}
