// Package buffer implements the mutable multi-line UTF-8 text buffer at
// the core of the editor: a cursor-addressable sequence of Lines, each
// either owned or a zero-copy slice of the file's original contents.
package buffer

// sharedBlob is the immutable backing store for Lines loaded from disk.
// Every Shared Line referencing it keeps it alive via the Go garbage
// collector; there is no manual refcount to manage, unlike the Rc<String>
// this type stands in for.
type sharedBlob struct {
	data string
}

// Line is a single logical line of text: either Owned (a private mutable
// string) or Shared (a [start,end) byte slice into a blob shared with
// other lines from the same load). Neither form may contain a '\n'.
type Line struct {
	owned string
	blob  *sharedBlob
	start int
	end   int
}

// NewLine returns an Owned line initialized to s. s must not contain '\n'.
func NewLine(s string) Line {
	return Line{owned: s}
}

func newSharedLine(blob *sharedBlob, start, end int) Line {
	return Line{blob: blob, start: start, end: end}
}

// String returns the line's text. It never allocates for a Shared line.
func (l Line) String() string {
	if l.blob != nil {
		return l.blob.data[l.start:l.end]
	}
	return l.owned
}

// Len returns the line's length in bytes.
func (l Line) Len() int {
	if l.blob != nil {
		return l.end - l.start
	}
	return len(l.owned)
}

// makeMut promotes a Shared line to Owned, copying its slice exactly
// once, and returns a pointer to the owned storage for in-place edits.
func (l *Line) makeMut() *string {
	if l.blob != nil {
		l.owned = l.blob.data[l.start:l.end]
		l.blob = nil
		l.start, l.end = 0, 0
	}
	return &l.owned
}

// splitShared splits data on '\n' into a sequence of Shared Lines that
// all reference the same blob, avoiding any per-line copy.
func splitShared(data string) []Line {
	blob := &sharedBlob{data: data}
	var lines []Line
	prev := 0
	for i := 0; i < len(data); i++ {
		if data[i] == '\n' {
			lines = append(lines, newSharedLine(blob, prev, i))
			prev = i + 1
		}
	}
	lines = append(lines, newSharedLine(blob, prev, len(data)))
	return lines
}
