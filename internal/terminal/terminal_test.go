package terminal

import (
	"bufio"
	"strings"
	"testing"
)

func input(t *testing.T, s string) InputEvent {
	t.Helper()
	term := newWithReader(strings.NewReader(s))
	ev, err := term.Input()
	if err != nil {
		t.Fatalf("Input() error: %v", err)
	}
	return ev
}

func TestInputPlainRune(t *testing.T) {
	ev := input(t, "a")
	k, ok := ev.(KeyEvent)
	if !ok {
		t.Fatalf("expected KeyEvent, got %#v", ev)
	}
	if ch, ok := k.Key.(KeyChar); !ok || rune(ch) != 'a' {
		t.Fatalf("expected KeyChar('a'), got %#v", k.Key)
	}
}

func TestInputCtrlKey(t *testing.T) {
	ev := input(t, "\x0b") // Ctrl-K = 0x0b
	k, ok := ev.(CtrlEvent)
	if !ok {
		t.Fatalf("expected CtrlEvent, got %#v", ev)
	}
	if ch, ok := k.Key.(KeyChar); !ok || rune(ch) != 'k' {
		t.Fatalf("expected KeyChar('k'), got %#v", k.Key)
	}
}

func TestInputBackspace(t *testing.T) {
	ev := input(t, "\x7f")
	if _, ok := ev.(KeyEvent); !ok {
		t.Fatalf("expected KeyEvent, got %#v", ev)
	} else if _, ok := ev.(KeyEvent).Key.(KeyBackspace); !ok {
		t.Fatalf("expected KeyBackspace, got %#v", ev.(KeyEvent).Key)
	}
}

func TestInputUTF8TwoByte(t *testing.T) {
	ev := input(t, "é") // U+00E9, 0xC3 0xA9
	k := ev.(KeyEvent)
	ch, ok := k.Key.(KeyChar)
	if !ok || rune(ch) != 'é' {
		t.Fatalf("expected KeyChar('é'), got %#v", k.Key)
	}
}

func TestInputUTF8ThreeByte(t *testing.T) {
	ev := input(t, "日") // U+65E5
	k := ev.(KeyEvent)
	ch, ok := k.Key.(KeyChar)
	if !ok || rune(ch) != '日' {
		t.Fatalf("expected KeyChar('日'), got %#v", k.Key)
	}
}

func TestInputAltKey(t *testing.T) {
	ev := input(t, "\x1bx") // Alt-X
	k, ok := ev.(AltEvent)
	if !ok {
		t.Fatalf("expected AltEvent, got %#v", ev)
	}
	if ch, ok := k.Key.(KeyChar); !ok || rune(ch) != 'x' {
		t.Fatalf("expected KeyChar('x'), got %#v", k.Key)
	}
}

func TestInputCtrlAltKey(t *testing.T) {
	ev := input(t, "\x1b\x15") // ESC + Ctrl-U (0x15)
	k, ok := ev.(CtrlAltEvent)
	if !ok {
		t.Fatalf("expected CtrlAltEvent, got %#v", ev)
	}
	if ch, ok := k.Key.(KeyChar); !ok || rune(ch) != 'u' {
		t.Fatalf("expected KeyChar('u'), got %#v", k.Key)
	}
}

// scenario 5: "ESC [ 1 ; 5 A" -> CtrlKey(Up)
func TestCSICtrlUp(t *testing.T) {
	ev := input(t, "\x1b[1;5A")
	k, ok := ev.(CtrlEvent)
	if !ok {
		t.Fatalf("expected CtrlEvent, got %#v", ev)
	}
	if _, ok := k.Key.(KeyUp); !ok {
		t.Fatalf("expected KeyUp, got %#v", k.Key)
	}
}

// scenario 5: "ESC [ 8 ; 24 ; 80 t" -> TextSize{rows:24, cols:80}
func TestCSITextSizeReport(t *testing.T) {
	ev := input(t, "\x1b[8;24;80t")
	ts, ok := ev.(TextSize)
	if !ok {
		t.Fatalf("expected TextSize, got %#v", ev)
	}
	if ts.Rows != 24 || ts.Cols != 80 {
		t.Fatalf("expected {24,80}, got %+v", ts)
	}
}

func TestCSIScreenSizeReport(t *testing.T) {
	ev := input(t, "\x1b[9;24;80t")
	ss, ok := ev.(ScreenSize)
	if !ok {
		t.Fatalf("expected ScreenSize, got %#v", ev)
	}
	if ss.Rows != 24 || ss.Cols != 80 {
		t.Fatalf("expected {24,80}, got %+v", ss)
	}
}

// scenario 5: "ESC [ 9 9 X" -> parse error
func TestCSIUnrecognizedIsError(t *testing.T) {
	term := newWithReader(strings.NewReader("\x1b[99X"))
	if _, err := term.Input(); err == nil {
		t.Fatal("expected an error for an unrecognized CSI sequence")
	}
}

func TestCSIPlainArrows(t *testing.T) {
	tests := []struct {
		seq  string
		want Key
	}{
		{"\x1b[A", KeyUp{}},
		{"\x1b[B", KeyDown{}},
		{"\x1b[C", KeyRight{}},
		{"\x1b[D", KeyLeft{}},
		{"\x1b[H", KeyHome{}},
		{"\x1b[F", KeyEnd{}},
	}
	for _, tc := range tests {
		ev := input(t, tc.seq)
		k, ok := ev.(KeyEvent)
		if !ok || k.Key != tc.want {
			t.Errorf("%q: got %#v", tc.seq, ev)
		}
	}
}

func TestCSITildeSequences(t *testing.T) {
	tests := []struct {
		seq  string
		want Key
	}{
		{"\x1b[2~", KeyInsert{}},
		{"\x1b[3~", KeyDelete{}},
		{"\x1b[5~", KeyPageUp{}},
		{"\x1b[6~", KeyPageDown{}},
	}
	for _, tc := range tests {
		ev := input(t, tc.seq)
		k, ok := ev.(KeyEvent)
		if !ok || k.Key != tc.want {
			t.Errorf("%q: got %#v", tc.seq, ev)
		}
	}
}

func TestInputInvalidLeadByte(t *testing.T) {
	term := newWithReader(strings.NewReader("\xff"))
	if _, err := term.Input(); err == nil {
		t.Fatal("expected an error for an invalid lead byte")
	}
}

func TestSetAttrEmitsSGR(t *testing.T) {
	var out strings.Builder
	term := newWithReader(strings.NewReader(""))
	term.buf = bufio.NewWriter(&out)
	if err := term.SetAttr(Attr{Fg: Colour{255, 0, 0}, Bg: Colour{0, 0, 0}, Bold: true}); err != nil {
		t.Fatalf("SetAttr: %v", err)
	}
	if err := term.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	got := out.String()
	for _, want := range []string{"\x1b[0m", "\x1b[1m", "\x1b[48;2;0;0;0m", "\x1b[38;2;255;0;0m"} {
		if !strings.Contains(got, want) {
			t.Errorf("expected output to contain %q, got %q", want, got)
		}
	}
}

func TestMoveToAndClearToEnd(t *testing.T) {
	var out strings.Builder
	term := newWithReader(strings.NewReader(""))
	term.buf = bufio.NewWriter(&out)
	term.MoveTo(2, 3)
	term.ClearToEnd()
	term.Flush()
	if got := out.String(); got != "\x1b[3;4H\x1b[K" {
		t.Fatalf("got %q", got)
	}
}
