package buffer

import "testing"

func TestNewIsSingleEmptyLine(t *testing.T) {
	b := New()
	if b.NumLines() != 1 {
		t.Fatalf("expected 1 line, got %d", b.NumLines())
	}
	if b.LineIdx() != 0 || b.CharIdx() != 0 {
		t.Fatalf("expected cursor at (0,0), got (%d,%d)", b.LineIdx(), b.CharIdx())
	}
	if b.Line().String() != "" {
		t.Fatalf("expected empty line, got %q", b.Line().String())
	}
}

func TestFromStringSplitsOnNewline(t *testing.T) {
	b := FromString("abc\n\ndef")
	if b.NumLines() != 3 {
		t.Fatalf("expected 3 lines, got %d", b.NumLines())
	}
	want := []string{"abc", "", "def"}
	for i, w := range want {
		if got := b.LineAt(i).String(); got != w {
			t.Errorf("line %d: got %q, want %q", i, got, w)
		}
	}
}

func TestInsertCharUTF8(t *testing.T) {
	b := New()
	b.InsertChar('a')
	b.InsertChar('é')
	b.InsertChar('b')
	if got := b.Line().String(); got != "aéb" {
		t.Fatalf("got %q", got)
	}
	if b.CharIdx() != 4 {
		t.Fatalf("expected char_idx 4 (a=1 + é=2 + b=1), got %d", b.CharIdx())
	}
}

func TestInsertCharNewlineSplitsLine(t *testing.T) {
	b := New()
	b.InsertStr("foobar")
	b.MoveTo(0, 3)
	b.InsertChar('\n')
	if b.NumLines() != 2 {
		t.Fatalf("expected 2 lines, got %d", b.NumLines())
	}
	if b.LineAt(0).String() != "foo" || b.LineAt(1).String() != "bar" {
		t.Fatalf("got %q / %q", b.LineAt(0).String(), b.LineAt(1).String())
	}
	if b.LineIdx() != 1 || b.CharIdx() != 0 {
		t.Fatalf("expected cursor at (1,0), got (%d,%d)", b.LineIdx(), b.CharIdx())
	}
}

func TestMoveLeftRightCrossLines(t *testing.T) {
	b := FromString("foo\nbar")
	b.MoveTo(1, 0)
	b.MoveLeft(1)
	if b.LineIdx() != 0 || b.CharIdx() != 3 {
		t.Fatalf("expected (0,3) after crossing boundary left, got (%d,%d)", b.LineIdx(), b.CharIdx())
	}
	b.MoveRight(1)
	if b.LineIdx() != 1 || b.CharIdx() != 0 {
		t.Fatalf("expected (1,0) after crossing boundary right, got (%d,%d)", b.LineIdx(), b.CharIdx())
	}
}

func TestMoveLeftClampsAtStart(t *testing.T) {
	b := FromString("foo\nbar")
	b.MoveTo(1, 1)
	b.MoveLeft(100)
	if b.LineIdx() != 0 || b.CharIdx() != 0 {
		t.Fatalf("expected clamp to (0,0), got (%d,%d)", b.LineIdx(), b.CharIdx())
	}
}

func TestMoveRightClampsAtEnd(t *testing.T) {
	b := FromString("foo\nbar")
	b.MoveTo(0, 1)
	b.MoveRight(100)
	if b.LineIdx() != 1 || b.CharIdx() != 3 {
		t.Fatalf("expected clamp to (1,3), got (%d,%d)", b.LineIdx(), b.CharIdx())
	}
}

func TestDeleteCharLeftJoinsLines(t *testing.T) {
	b := FromString("foo\nbar")
	b.MoveTo(1, 0)
	ch, ok := b.DeleteCharLeft()
	if !ok || ch != '\n' {
		t.Fatalf("expected ('\\n', true), got (%q, %v)", ch, ok)
	}
	if b.NumLines() != 1 || b.Line().String() != "foobar" {
		t.Fatalf("expected joined line %q, got %q (%d lines)", "foobar", b.Line().String(), b.NumLines())
	}
	if b.LineIdx() != 0 || b.CharIdx() != 3 {
		t.Fatalf("expected cursor at (0,3), got (%d,%d)", b.LineIdx(), b.CharIdx())
	}
}

func TestDeleteCharLeftAtDocumentStart(t *testing.T) {
	b := New()
	_, ok := b.DeleteCharLeft()
	if ok {
		t.Fatal("expected ok=false at document start")
	}
}

func TestDeleteCharRightAtDocumentEnd(t *testing.T) {
	b := New()
	_, ok := b.DeleteCharRight()
	if ok {
		t.Fatal("expected ok=false at document end")
	}
}

func TestCutLineNotLast(t *testing.T) {
	b := FromString("foo\nbar\nbaz")
	cut := b.CutLine()
	if cut != "foo\n" {
		t.Fatalf("expected %q, got %q", "foo\n", cut)
	}
	if b.NumLines() != 2 || b.LineAt(0).String() != "bar" {
		t.Fatalf("unexpected buffer state: %d lines, first=%q", b.NumLines(), b.LineAt(0).String())
	}
	if b.CharIdx() != 0 {
		t.Fatalf("expected char_idx 0 after cut, got %d", b.CharIdx())
	}
}

func TestCutLineOnLast(t *testing.T) {
	b := FromString("baz")
	cut := b.CutLine()
	if cut != "baz" {
		t.Fatalf("expected %q, got %q", "baz", cut)
	}
	if b.NumLines() != 1 || b.Line().String() != "" {
		t.Fatalf("expected single empty line left behind, got %q (%d lines)", b.Line().String(), b.NumLines())
	}
	if b.CharIdx() != 0 {
		t.Fatalf("expected char_idx 0 after cut, got %d", b.CharIdx())
	}
}

// CutLine's last-line branch must reset charIdx along with the line's
// text, or a subsequent LineLeft call on the now-empty line slices past
// its length.
func TestCutLineOnLastFromNonZeroColumn(t *testing.T) {
	b := FromString("hello")
	b.MoveTo(0, 3)
	b.CutLine()
	if b.CharIdx() != 0 {
		t.Fatalf("expected char_idx 0 after cut, got %d", b.CharIdx())
	}
	if got := b.LineLeft(); got != "" {
		t.Fatalf("expected empty LineLeft, got %q", got)
	}
}

func TestCutBytesRightSingleLine(t *testing.T) {
	b := FromString("abcdef")
	cut := b.CutBytesRight(3)
	if cut != "abc" || b.Line().String() != "def" {
		t.Fatalf("got cut=%q line=%q", cut, b.Line().String())
	}
}

func TestCutBytesRightMultiLine(t *testing.T) {
	b := FromString("foo\nbar\nbaz")
	cut := b.CutBytesRight(len("foo\nbar\n"))
	if cut != "foo\nbar\n" {
		t.Fatalf("got %q", cut)
	}
	if b.NumLines() != 1 || b.Line().String() != "baz" {
		t.Fatalf("expected single remaining line %q, got %q (%d lines)", "baz", b.Line().String(), b.NumLines())
	}
}

func TestPeekLeftRight(t *testing.T) {
	b := FromString("foo\nbar")
	if _, ok := b.PeekLeft(); ok {
		t.Fatal("expected no char left of document start")
	}
	b.MoveTo(0, 3)
	if ch, ok := b.PeekRight(); !ok || ch != '\n' {
		t.Fatalf("expected ('\\n', true) at line boundary, got (%q, %v)", ch, ok)
	}
	b.MoveTo(1, 3)
	if _, ok := b.PeekRight(); ok {
		t.Fatal("expected no char right of document end")
	}
}

func TestSharedLinePromotesToOwnedOnWrite(t *testing.T) {
	b := FromString("shared line")
	b.MoveTo(0, 0)
	b.InsertChar('X')
	if got := b.Line().String(); got != "Xshared line" {
		t.Fatalf("got %q", got)
	}
}
