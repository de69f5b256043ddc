// Package textfile implements the editing layer: a File wraps a Buffer
// with undo/redo, visual-column tracking, auto-indent, and load/save,
// coalescing consecutive same-kind edits into single undo entries via an
// activity classifier.
package textfile

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/gojtx/jtx/internal/buffer"
	"github.com/gojtx/jtx/internal/terminal"
)

// activity classifies the most recent mutating operation, deciding
// whether the next mutation merges into the existing undo entry or
// starts a new one.
type activity int

const (
	activityNone activity = iota
	activityTyping
	activityDeleting
	activityBackspacing
	activityKilling
)

// actionKind distinguishes the two shapes an Action can take.
type actionKind int

const (
	actionInsert actionKind = iota
	actionDelete
)

// action is the inverse of the operation that produced it: applying it
// via perform yields the Action that reverses it, which is how undo and
// redo pump each other.
type action struct {
	kind     actionKind
	lineIdx  int
	charIdx  int
	data     string // actionInsert
	numBytes int    // actionDelete
}

// ErrNothingToUndo and ErrNothingToRedo are returned by Undo/Redo when
// the respective stack is empty. Callers in the editor's dispatch loop
// may safely ignore them; they exist so tests can assert on the
// no-op case precisely.
var (
	ErrNothingToUndo = errors.New("textfile: nothing to undo")
	ErrNothingToRedo = errors.New("textfile: nothing to redo")
)

// File wraps a Buffer with the filename, dirty flag, undo/redo stacks,
// visual-column state, viewport offset, and auto-indent/tab
// configuration.
type File struct {
	filename     string
	buf          *buffer.Buffer
	dirty        bool
	colIdx       int
	savedColIdx  int
	tabSize      int
	autoIndent   bool
	undo         []action
	redo         []action
	act          activity
	lineOffset   int
}

// New constructs a File around an existing buffer.
func New(filename string, buf *buffer.Buffer, dirty bool) *File {
	return &File{
		filename:   filename,
		buf:        buf,
		dirty:      dirty,
		tabSize:    4,
		autoIndent: true,
	}
}

// Load reads filename fully into one shared blob and splits it into
// Shared lines. A missing file yields an empty dirty buffer rather than
// an error, matching the editor's "open or create" CLI semantics.
func Load(filename string) (*File, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return New(filename, buffer.New(), true), nil
		}
		return nil, fmt.Errorf("textfile: load %s: %w", filename, err)
	}
	return New(filename, buffer.FromString(string(data)), false), nil
}

// SetTabSize overrides the default tab width (used by CLI/config
// wiring before the first keystroke is processed).
func (f *File) SetTabSize(n int) { f.tabSize = n }

// SetAutoIndent overrides the default auto-indent setting.
func (f *File) SetAutoIndent(v bool) { f.autoIndent = v }

// Name returns the file's path.
func (f *File) Name() string { return f.filename }

// Dirty reports whether the file has unsaved modifications.
func (f *File) Dirty() bool { return f.dirty }

// Buffer exposes the underlying buffer for rendering and tests.
func (f *File) Buffer() *buffer.Buffer { return f.buf }

// Save writes the buffer's lines to disk separated by '\n', with no
// trailing newline after the last line, and clears dirty/activity.
func (f *File) Save() error {
	out, err := os.Create(f.filename)
	if err != nil {
		return fmt.Errorf("textfile: save %s: %w", f.filename, err)
	}
	defer out.Close()
	first := true
	for _, line := range f.buf.Lines() {
		if !first {
			if _, err := io.WriteString(out, "\n"); err != nil {
				return fmt.Errorf("textfile: save %s: %w", f.filename, err)
			}
		} else {
			first = false
		}
		if _, err := io.WriteString(out, line.String()); err != nil {
			return fmt.Errorf("textfile: save %s: %w", f.filename, err)
		}
	}
	f.dirty = false
	f.act = activityNone
	return nil
}

// TypeChar inserts ch at the cursor, coalescing consecutive inserts of
// the same activity kind into one undo entry, auto-indenting after a
// newline when enabled, and recomputing the visual column.
func (f *File) TypeChar(ch rune) {
	if f.act == activityTyping && len(f.undo) > 0 && f.undo[len(f.undo)-1].kind == actionDelete {
		f.undo[len(f.undo)-1].numBytes += runeLen(ch)
	} else {
		f.undo = append(f.undo, action{
			kind:     actionDelete,
			lineIdx:  f.buf.LineIdx(),
			charIdx:  f.buf.CharIdx(),
			numBytes: runeLen(ch),
		})
		f.redo = nil
	}
	f.buf.InsertChar(ch)
	if ch == '\n' && f.autoIndent {
		prev := f.buf.LineAt(f.buf.LineIdx() - 1).String()
		indent := leadingWhitespace(prev)
		for _, c := range indent {
			f.buf.InsertChar(c)
		}
	}
	f.fixColIdx()
	if ch == '\n' {
		f.act = activityNone
	} else {
		f.act = activityTyping
	}
	f.dirty = true
}

// Undo pops the most recent undo action, applies its inverse, and pushes
// the result onto the redo stack.
func (f *File) Undo() error {
	if len(f.undo) == 0 {
		return ErrNothingToUndo
	}
	act := f.undo[len(f.undo)-1]
	f.undo = f.undo[:len(f.undo)-1]
	inverse := f.perform(act)
	f.redo = append(f.redo, inverse)
	f.act = activityNone
	return nil
}

// Redo pops the most recent redo action, applies its inverse, and pushes
// the result back onto the undo stack.
func (f *File) Redo() error {
	if len(f.redo) == 0 {
		return ErrNothingToRedo
	}
	act := f.redo[len(f.redo)-1]
	f.redo = f.redo[:len(f.redo)-1]
	inverse := f.perform(act)
	f.undo = append(f.undo, inverse)
	f.act = activityNone
	return nil
}

// Up moves the cursor up num lines, preserving savedColIdx.
func (f *File) Up(num int) {
	f.act = activityNone
	if num < f.buf.LineIdx() {
		f.setLineIdx(f.buf.LineIdx() - num)
	} else {
		f.setLineIdx(0)
	}
}

// Down moves the cursor down num lines, preserving savedColIdx.
func (f *File) Down(num int) {
	f.act = activityNone
	if f.buf.LineIdx()+num < f.buf.NumLines() {
		f.setLineIdx(f.buf.LineIdx() + num)
	} else {
		f.setLineIdx(f.buf.NumLines() - 1)
	}
}

// Left moves the cursor left num scalars.
func (f *File) Left(num int) {
	f.act = activityNone
	f.buf.MoveLeft(num)
	f.fixColIdx()
}

// Right moves the cursor right num scalars.
func (f *File) Right(num int) {
	f.act = activityNone
	f.buf.MoveRight(num)
	f.fixColIdx()
}

// Home moves the cursor to the start of the current line.
func (f *File) Home() {
	f.act = activityNone
	f.buf.MoveTo(f.buf.LineIdx(), 0)
	f.fixColIdx()
}

// End moves the cursor to the end of the current line.
func (f *File) End() {
	f.act = activityNone
	f.buf.MoveTo(f.buf.LineIdx(), f.buf.Line().Len())
	f.fixColIdx()
}

// Delete removes the scalar to the right of the cursor, coalescing
// consecutive forward deletes into one undo entry. A no-op at document
// end.
func (f *File) Delete() {
	ch, ok := f.buf.DeleteCharRight()
	if !ok {
		return
	}
	if ch != '\n' && f.act == activityDeleting {
		top := &f.undo[len(f.undo)-1]
		if top.kind != actionInsert {
			panic("textfile: expected undo top to be Insert")
		}
		top.data += string(ch)
	} else {
		f.undo = append(f.undo, action{
			kind:    actionInsert,
			lineIdx: f.buf.LineIdx(),
			charIdx: f.buf.CharIdx(),
			data:    string(ch),
		})
	}
	f.redo = nil
	f.act = activityDeleting
	f.dirty = true
}

// Backspace removes the scalar to the left of the cursor, coalescing
// consecutive backspaces into one undo entry (prepending to its data
// and updating its position, since the position shifts leftward with
// each backspace). A no-op at document start.
func (f *File) Backspace() {
	ch, ok := f.buf.DeleteCharLeft()
	if !ok {
		return
	}
	f.fixColIdx()
	if ch != '\n' && f.act == activityBackspacing {
		top := &f.undo[len(f.undo)-1]
		if top.kind != actionInsert {
			panic("textfile: expected undo top to be Insert")
		}
		top.charIdx = f.buf.CharIdx()
		top.lineIdx = f.buf.LineIdx()
		top.data = string(ch) + top.data
	} else {
		f.undo = append(f.undo, action{
			kind:    actionInsert,
			lineIdx: f.buf.LineIdx(),
			charIdx: f.buf.CharIdx(),
			data:    string(ch),
		})
	}
	f.redo = nil
	f.act = activityBackspacing
	f.dirty = true
}

// Kill cuts the current line into killBuf (appending to it), coalescing
// consecutive kills into one undo entry. The caller (Editor) is
// responsible for clearing killBuf when the previous input event was
// not itself a kill.
func (f *File) Kill(killBuf *string) {
	cut := f.buf.CutLine()
	*killBuf += cut
	f.fixColIdx()
	f.dirty = true
	if f.act == activityKilling {
		top := &f.undo[len(f.undo)-1]
		if top.kind != actionInsert {
			panic("textfile: expected undo top to be Insert")
		}
		top.data += cut
	} else {
		f.undo = append(f.undo, action{
			kind:    actionInsert,
			lineIdx: f.buf.LineIdx(),
			charIdx: 0,
			data:    cut,
		})
	}
	f.redo = nil
	f.act = activityKilling
}

// Unkill inserts killBuf at the cursor, pushing the Delete action that
// would remove it again onto the undo stack.
func (f *File) Unkill(killBuf string) {
	f.undo = append(f.undo, action{
		kind:     actionDelete,
		lineIdx:  f.buf.LineIdx(),
		charIdx:  f.buf.CharIdx(),
		numBytes: len(killBuf),
	})
	f.buf.InsertStr(killBuf)
	f.fixColIdx()
	f.act = activityNone
	f.dirty = true
}

// Status returns "line L/N  col C/T". All four numbers are 1-based: C is
// the cursor's visual column plus one, and T is the current line's
// tab-expanded visual width plus one (the column just past its end).
func (f *File) Status() string {
	col := 0
	for _, ch := range f.buf.Line().String() {
		if ch == '\t' {
			col += f.tabSize - col%f.tabSize
		} else {
			col++
		}
	}
	return fmt.Sprintf("line %d/%d  col %d/%d",
		f.buf.LineIdx()+1, f.buf.NumLines(), f.colIdx+1, 1+col)
}

// Draw renders the buffer into terminal rows [start, end), adjusting
// lineOffset by the minimum amount needed to keep the cursor's line
// visible, then positions the terminal cursor over the edit position.
func (f *File) Draw(term *terminal.Terminal, attrs terminal.UIAttrs, start, end int) error {
	lineNumLen := len(fmt.Sprintf("%d", f.buf.NumLines()+1))

	if f.buf.LineIdx() < f.lineOffset {
		f.lineOffset = f.buf.LineIdx()
	}
	if f.lineOffset+end-start-1 < f.buf.LineIdx() {
		f.lineOffset = f.buf.LineIdx() - (end - start - 1)
	}

	lines := f.buf.Lines()
	for row := start; row < end; row++ {
		lineIdx := f.lineOffset + (row - start)
		if err := term.MoveTo(row, 0); err != nil {
			return err
		}
		if lineIdx < len(lines) {
			if err := term.SetAttr(attrs.LineNums); err != nil {
				return err
			}
			if err := term.WriteString(fmt.Sprintf("%*d ", lineNumLen, lineIdx+1)); err != nil {
				return err
			}
			if err := term.SetAttr(attrs.Default); err != nil {
				return err
			}
			col := 0
			for _, ch := range lines[lineIdx].String() {
				if ch == '\t' {
					num := f.tabSize - col%f.tabSize
					if err := term.WriteString(spaces(num)); err != nil {
						return err
					}
					col += num
				} else {
					if err := term.WriteString(string(ch)); err != nil {
						return err
					}
					col++
				}
			}
		}
		if err := term.ClearToEnd(); err != nil {
			return err
		}
	}

	if err := term.MoveTo(start+f.buf.LineIdx()-f.lineOffset, lineNumLen+1+f.colIdx); err != nil {
		return err
	}
	return term.Flush()
}

func spaces(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = ' '
	}
	return string(b)
}

// perform applies action and returns its inverse, mirroring the Rust
// source's FileState::perform.
func (f *File) perform(a action) action {
	f.dirty = true
	switch a.kind {
	case actionDelete:
		f.buf.MoveTo(a.lineIdx, a.charIdx)
		f.fixColIdx()
		data := f.buf.CutBytesRight(a.numBytes)
		return action{kind: actionInsert, lineIdx: a.lineIdx, charIdx: a.charIdx, data: data}
	case actionInsert:
		f.buf.MoveTo(a.lineIdx, a.charIdx)
		inverse := action{kind: actionDelete, lineIdx: a.lineIdx, charIdx: a.charIdx, numBytes: len(a.data)}
		f.buf.InsertStr(a.data)
		f.fixColIdx()
		return inverse
	default:
		panic("textfile: unknown action kind")
	}
}

// setLineIdx moves the cursor to lineIdx, scanning left-to-right and
// accumulating tab-expanded visual columns, stopping at the greatest
// charIdx whose column does not exceed savedColIdx. savedColIdx itself
// is left untouched, preserving the "intent" column across vertical
// motion through shorter lines.
func (f *File) setLineIdx(lineIdx int) {
	charIdx := 0
	col := 0
	line := f.buf.LineAt(lineIdx).String()
	for _, ch := range line {
		next := col + 1
		if ch == '\t' {
			next = col - col%f.tabSize + f.tabSize
		}
		if f.savedColIdx < next {
			break
		}
		col = next
		charIdx += runeLen(ch)
	}
	f.colIdx = col
	f.buf.MoveTo(lineIdx, charIdx)
}

// fixColIdx recomputes colIdx from the line prefix before the cursor and
// writes savedColIdx := colIdx. This is the only place savedColIdx is
// updated; vertical motion (setLineIdx) deliberately leaves it alone.
func (f *File) fixColIdx() {
	col := 0
	for _, ch := range f.buf.LineLeft() {
		if ch == '\t' {
			col = col - col%f.tabSize + f.tabSize
		} else {
			col++
		}
	}
	f.colIdx = col
	f.savedColIdx = col
}

func runeLen(ch rune) int {
	return len(string(ch))
}

func leadingWhitespace(s string) string {
	i := 0
	for i < len(s) && (s[i] == ' ' || s[i] == '\t') {
		i++
	}
	return s[:i]
}
