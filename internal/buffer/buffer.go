package buffer

import (
	"unicode/utf8"
)

// Buffer is an ordered, always-nonempty sequence of Lines with a cursor
// expressed as (lineIdx, charIdx), where charIdx is a byte offset into
// lines[lineIdx] that must fall on a UTF-8 scalar boundary.
type Buffer struct {
	lines   []Line
	lineIdx int
	charIdx int
}

// New returns a fresh buffer containing a single empty line.
func New() *Buffer {
	return &Buffer{lines: []Line{NewLine("")}}
}

// FromString loads data as a sequence of zero-copy Shared lines split on
// '\n'. Mutation promotes individual lines to Owned lazily.
func FromString(data string) *Buffer {
	return &Buffer{lines: splitShared(data)}
}

// LineIdx returns the cursor's current line index.
func (b *Buffer) LineIdx() int { return b.lineIdx }

// CharIdx returns the cursor's current byte offset within its line.
func (b *Buffer) CharIdx() int { return b.charIdx }

// NumLines returns the number of lines in the document.
func (b *Buffer) NumLines() int { return len(b.lines) }

// Lines returns the underlying line slice. Callers must not retain it
// across a mutating call, since mutation may replace the backing array.
func (b *Buffer) Lines() []Line { return b.lines }

// LineAt returns the line at idx.
func (b *Buffer) LineAt(idx int) Line { return b.lines[idx] }

// Line returns the line the cursor currently sits on.
func (b *Buffer) Line() Line { return b.lines[b.lineIdx] }

// LineLeft returns the current line's text before the cursor.
func (b *Buffer) LineLeft() string {
	return b.lines[b.lineIdx].String()[:b.charIdx]
}

// LineRight returns the current line's text from the cursor onward.
func (b *Buffer) LineRight() string {
	return b.lines[b.lineIdx].String()[b.charIdx:]
}

func (b *Buffer) lineMut() *string {
	return b.lines[b.lineIdx].makeMut()
}

// MoveTo sets the cursor directly. It panics if the position does not
// satisfy the buffer's invariants (internal invariant violation).
func (b *Buffer) MoveTo(lineIdx, charIdx int) {
	if lineIdx < 0 || lineIdx >= len(b.lines) {
		panic("buffer: line index out of range")
	}
	line := b.lines[lineIdx].String()
	if charIdx < 0 || charIdx > len(line) {
		panic("buffer: char index out of range")
	}
	if !utf8.RuneStart(byteAt(line, charIdx)) {
		panic("buffer: char index not a scalar boundary")
	}
	b.lineIdx = lineIdx
	b.charIdx = charIdx
}

// byteAt returns the byte at i, or a rune-start sentinel at end-of-string
// so a cursor positioned exactly at len(s) is always considered valid.
func byteAt(s string, i int) byte {
	if i == len(s) {
		return 0
	}
	return s[i]
}

// MoveLeft advances the cursor backward by num scalar values, crossing
// line boundaries (each boundary consumes one unit of num). Clamps at
// document start.
func (b *Buffer) MoveLeft(num int) {
	for countRunes(b.LineLeft()) < num {
		if b.lineIdx == 0 {
			b.charIdx = 0
			return
		}
		num -= countRunes(b.LineLeft()) + 1
		b.lineIdx--
		b.charIdx = b.lines[b.lineIdx].Len()
	}
	b.charIdx -= sumLastRuneBytes(b.LineLeft(), num)
}

// MoveRight advances the cursor forward by num scalar values, crossing
// line boundaries. Clamps at document end.
func (b *Buffer) MoveRight(num int) {
	for countRunes(b.LineRight()) < num {
		if b.lineIdx+1 == len(b.lines) {
			b.charIdx = b.lines[b.lineIdx].Len()
			return
		}
		num -= countRunes(b.LineRight()) + 1
		b.lineIdx++
		b.charIdx = 0
	}
	b.charIdx += sumFirstRuneBytes(b.LineRight(), num)
}

// InsertChar inserts ch at the cursor. A newline splits the current line
// in two and positions the cursor at the start of the new line;
// otherwise the scalar's UTF-8 bytes are inserted and charIdx advances by
// its length.
func (b *Buffer) InsertChar(ch rune) {
	if ch == '\n' {
		text := b.lines[b.lineIdx].String()
		charIdx := b.charIdx
		left := NewLine(text[:charIdx])
		right := NewLine(text[charIdx:])
		b.lines = append(b.lines[:b.lineIdx], append([]Line{left, right}, b.lines[b.lineIdx+1:]...)...)
		b.lineIdx++
		b.charIdx = 0
		return
	}
	charIdx := b.charIdx
	s := b.lineMut()
	*s = (*s)[:charIdx] + string(ch) + (*s)[charIdx:]
	b.charIdx += utf8.RuneLen(ch)
}

// InsertStr inserts each scalar of s in order, equivalent to repeated
// InsertChar calls.
func (b *Buffer) InsertStr(s string) {
	for _, ch := range s {
		b.InsertChar(ch)
	}
}

// DeleteCharLeft removes and returns the scalar immediately before the
// cursor. At a line boundary it joins the current line into the
// previous one and returns '\n'. Returns ok=false at document start.
func (b *Buffer) DeleteCharLeft() (ch rune, ok bool) {
	if b.charIdx > 0 {
		r, size := lastRune(b.LineLeft())
		b.charIdx -= size
		charIdx := b.charIdx
		s := b.lineMut()
		*s = (*s)[:charIdx] + (*s)[charIdx+size:]
		return r, true
	}
	if b.lineIdx > 0 {
		b.lineIdx--
		b.charIdx = b.lines[b.lineIdx].Len()
		removed := b.lines[b.lineIdx+1].String()
		b.lines = append(b.lines[:b.lineIdx+1], b.lines[b.lineIdx+2:]...)
		s := b.lineMut()
		*s += removed
		return '\n', true
	}
	return 0, false
}

// DeleteCharRight is the rightward counterpart of DeleteCharLeft.
// Returns ok=false at document end.
func (b *Buffer) DeleteCharRight() (ch rune, ok bool) {
	if b.charIdx < b.lines[b.lineIdx].Len() {
		charIdx := b.charIdx
		r, size := firstRune(b.LineRight())
		s := b.lineMut()
		*s = (*s)[:charIdx] + (*s)[charIdx+size:]
		return r, true
	}
	if b.lineIdx+1 < len(b.lines) {
		removed := b.lines[b.lineIdx+1].String()
		b.lines = append(b.lines[:b.lineIdx+1], b.lines[b.lineIdx+2:]...)
		s := b.lineMut()
		*s += removed
		return '\n', true
	}
	return 0, false
}

// CutLine removes the current line and returns it. If a following line
// exists, the whole line plus its trailing '\n' is removed and the
// cursor lands at column 0 of what is now the current line. At the last
// line, the line's contents are returned and an empty line is left in
// its place.
func (b *Buffer) CutLine() string {
	if b.lineIdx+1 < len(b.lines) {
		result := b.lines[b.lineIdx].String()
		b.lines = append(b.lines[:b.lineIdx], b.lines[b.lineIdx+1:]...)
		b.charIdx = 0
		return result + "\n"
	}
	s := b.lineMut()
	result := *s
	*s = ""
	b.charIdx = 0
	return result
}

// CutBytesRight removes exactly numBytes beginning at the cursor,
// spanning across lines via '\n' separators, and returns them. The
// caller must ensure the span ends on a scalar boundary.
func (b *Buffer) CutBytesRight(numBytes int) string {
	rest := b.LineRight()
	if numBytes <= len(rest) {
		result := rest[:numBytes]
		charIdx := b.charIdx
		s := b.lineMut()
		*s = (*s)[:charIdx] + (*s)[charIdx+numBytes:]
		return result
	}

	result := make([]byte, 0, numBytes)
	result = append(result, rest...)
	result = append(result, '\n')
	remBytes := numBytes - len(rest) - 1
	lineIdx := b.lineIdx + 1
	for b.lines[lineIdx].Len() < remBytes {
		result = append(result, b.lines[lineIdx].String()...)
		result = append(result, '\n')
		remBytes -= b.lines[lineIdx].Len() + 1
		lineIdx++
	}
	text := b.lines[lineIdx].String()
	result = append(result, text[:remBytes]...)
	tail := text[remBytes:]
	charIdx := b.charIdx
	s := b.lineMut()
	*s = (*s)[:charIdx] + tail
	b.lines = append(b.lines[:b.lineIdx+1], b.lines[lineIdx+1:]...)
	if numBytes != len(result) {
		panic("buffer: cut_bytes_right length mismatch")
	}
	return string(result)
}

// PeekLeft returns the scalar immediately before the cursor without
// moving it: '\n' at a line boundary that is not document start, the
// previous scalar otherwise, or ok=false at document start.
func (b *Buffer) PeekLeft() (ch rune, ok bool) {
	if r, size := lastRune(b.LineLeft()); size > 0 {
		return r, true
	}
	if b.lineIdx > 0 {
		return '\n', true
	}
	return 0, false
}

// PeekRight is the rightward counterpart of PeekLeft: ok=false only at
// the true document end (last line, cursor at its end). This follows
// spec.md's stated contract; the Rust source this was distilled from
// evaluates a condition that is always true here and so never actually
// returns None.
func (b *Buffer) PeekRight() (ch rune, ok bool) {
	if r, size := firstRune(b.LineRight()); size > 0 {
		return r, true
	}
	if b.lineIdx+1 < len(b.lines) {
		return '\n', true
	}
	return 0, false
}

func countRunes(s string) int {
	return utf8.RuneCountInString(s)
}

// sumLastRuneBytes returns the total byte length of the last n scalars
// of s (n may exceed the scalar count, in which case len(s) is
// returned).
func sumLastRuneBytes(s string, n int) int {
	total := 0
	for i := 0; i < n && len(s) > total; i++ {
		_, size := lastRune(s[:len(s)-total])
		if size == 0 {
			break
		}
		total += size
	}
	return total
}

// sumFirstRuneBytes returns the total byte length of the first n scalars
// of s.
func sumFirstRuneBytes(s string, n int) int {
	total := 0
	for i := 0; i < n && total < len(s); i++ {
		_, size := firstRune(s[total:])
		if size == 0 {
			break
		}
		total += size
	}
	return total
}

func firstRune(s string) (rune, int) {
	if len(s) == 0 {
		return 0, 0
	}
	r, size := utf8.DecodeRuneInString(s)
	return r, size
}

func lastRune(s string) (rune, int) {
	if len(s) == 0 {
		return 0, 0
	}
	r, size := utf8.DecodeLastRuneInString(s)
	return r, size
}
