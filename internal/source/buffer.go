package source

import (
	"fmt"
	"unicode/utf16"
	"unicode/utf8"
)

// Position is a 1-based line and column. Columns count characters, not bytes.
type Position struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Buffer is the immutable text of one file together with its line index.
type Buffer struct {
	name    string
	text    string
	lineIdx []int // offsets of every '\n'
}

// NewBuffer builds a buffer; the text is kept byte-for-byte.
func NewBuffer(name string, text []byte) *Buffer {
	return NewBufferString(name, string(text))
}

// NewBufferString is NewBuffer for text already held as a string.
func NewBufferString(name, text string) *Buffer {
	return &Buffer{
		name:    name,
		text:    text,
		lineIdx: buildLineIndex(text),
	}
}

func (b *Buffer) Name() string  { return b.name }
func (b *Buffer) Text() string  { return b.text }
func (b *Buffer) Bytes() []byte { return []byte(b.text) }
func (b *Buffer) Len() int      { return len(b.text) }

// LineCount returns the number of lines, counting a trailing partial line.
func (b *Buffer) LineCount() int {
	if len(b.text) == 0 {
		return 0
	}
	n := len(b.lineIdx)
	if b.text[len(b.text)-1] != '\n' {
		n++
	}
	return n
}

// Slice returns the text covered by r, clamped to the buffer.
func (b *Buffer) Slice(r Range) string {
	start, end := b.clamp(r.Start), b.clamp(r.End)
	if start >= end {
		return ""
	}
	return b.text[start:end]
}

// Line returns the 1-based line number containing off.
func (b *Buffer) Line(off int) int {
	return b.lineOf(b.clamp(off)) + 1
}

// LineStart returns the offset of the first byte of the 1-based line.
func (b *Buffer) LineStart(line int) int {
	if line <= 1 {
		return 0
	}
	if line-2 >= len(b.lineIdx) {
		return len(b.text)
	}
	return b.lineIdx[line-2] + 1
}

// LineText returns the 1-based line without its newline.
func (b *Buffer) LineText(line int) string {
	start := b.LineStart(line)
	end := len(b.text)
	if line-1 < len(b.lineIdx) {
		end = b.lineIdx[line-1]
	}
	if start > end {
		return ""
	}
	return b.text[start:end]
}

// Position converts a byte offset into a line and character column.
func (b *Buffer) Position(off int) Position {
	off = b.clamp(off)
	line := b.lineOf(off)
	start := b.LineStart(line + 1)
	return Position{Line: line + 1, Column: utf8.RuneCountInString(b.text[start:off]) + 1}
}

// UTF16Column returns the 0-based UTF-16 column of off, as editors expect.
func (b *Buffer) UTF16Column(off int) int {
	off = b.clamp(off)
	start := b.LineStart(b.lineOf(off) + 1)
	n := 0
	for _, r := range b.text[start:off] {
		n += len(utf16.Encode([]rune{r}))
	}
	return n
}

// SameLine reports whether r starts and ends on one line.
func (b *Buffer) SameLine(r Range) bool {
	end := r.End
	if end > r.Start {
		end--
	}
	return b.Line(r.Start) == b.Line(end)
}

func (b *Buffer) clamp(off int) int {
	switch {
	case off < 0:
		return 0
	case off > len(b.text):
		return len(b.text)
	default:
		return off
	}
}

// lineOf returns the 0-based line index of off by binary search over the newline offsets.
func (b *Buffer) lineOf(off int) int {
	lo, hi := 0, len(b.lineIdx)-1
	for lo <= hi {
		mid := (lo + hi) >> 1
		if b.lineIdx[mid] < off {
			lo = mid + 1
		} else {
			hi = mid - 1
		}
	}
	return lo
}

func buildLineIndex(text string) []int {
	out := make([]int, 0, len(text)/32)
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			out = append(out, i)
		}
	}
	return out
}
