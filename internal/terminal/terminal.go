// Package terminal owns the raw-mode TTY lifecycle, buffered output, and
// the byte-stream parser that turns stdin into typed InputEvents.
package terminal

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/term"
)

// Terminal is the single owner of the process's controlling TTY: raw
// mode and the alternate screen buffer are acquired by Start and must be
// released by Stop on every exit path.
type Terminal struct {
	in       *os.File
	inReader io.Reader // defaults to in; overridden in tests to avoid a real TTY
	out      *os.File
	oldState *term.State
	buf      *bufio.Writer
	inbuf    []byte
	inStart  int
	inEnd    int
	sigwinch chan os.Signal
}

// New wraps stdin/stdout. Start must be called before any I/O.
func New() *Terminal {
	return &Terminal{
		in:       os.Stdin,
		inReader: os.Stdin,
		out:      os.Stdout,
		buf:      bufio.NewWriter(os.Stdout),
		inbuf:    make([]byte, 1024),
	}
}

// newWithReader builds a Terminal whose input comes from r instead of a
// real file descriptor, for use by this package's own tests.
func newWithReader(r io.Reader) *Terminal {
	return &Terminal{
		inReader: r,
		out:      os.Stdout,
		buf:      bufio.NewWriter(io.Discard),
		inbuf:    make([]byte, 1024),
	}
}

// Start snapshots the current termios, installs a raw-mode termios, and
// enters the alternate screen buffer.
func (t *Terminal) Start() error {
	if t.oldState != nil {
		return fmt.Errorf("terminal: already started")
	}
	old, err := term.MakeRaw(int(t.in.Fd()))
	if err != nil {
		return fmt.Errorf("terminal: make raw: %w", err)
	}
	t.oldState = old
	if _, err := t.out.WriteString("\x1b[?1049h"); err != nil {
		return fmt.Errorf("terminal: enter alt screen: %w", err)
	}
	t.sigwinch = make(chan os.Signal, 1)
	signal.Notify(t.sigwinch, syscall.SIGWINCH)
	return nil
}

// ResizeChan returns the channel that receives a notification every time
// the controlling TTY's window size changes, letting the editor refresh
// its layout without waiting on an xterm size report. Nil before Start
// is called.
func (t *Terminal) ResizeChan() <-chan os.Signal {
	return t.sigwinch
}

// Stop leaves the alternate screen, flushes, and restores the termios
// captured by Start. It is idempotent: calling it when Start was never
// called, or was already undone, is a no-op. This makes it safe to use
// as the scoped-cleanup safety net alongside an explicit call on the
// normal exit path.
func (t *Terminal) Stop() error {
	if t.oldState == nil {
		return nil
	}
	if t.sigwinch != nil {
		signal.Stop(t.sigwinch)
		t.sigwinch = nil
	}
	_, werr := t.out.WriteString("\x1b[?1049l")
	ferr := t.buf.Flush()
	rerr := term.Restore(int(t.in.Fd()), t.oldState)
	t.oldState = nil
	if werr != nil {
		return fmt.Errorf("terminal: leave alt screen: %w", werr)
	}
	if ferr != nil {
		return fmt.Errorf("terminal: flush: %w", ferr)
	}
	if rerr != nil {
		return fmt.Errorf("terminal: restore: %w", rerr)
	}
	return nil
}

// Size returns the terminal's current (rows, cols) via the controlling
// TTY's ioctl. The editor calls it when a notification arrives on
// ResizeChan.
func (t *Terminal) Size() (rows, cols int, err error) {
	cols, rows, err = term.GetSize(int(t.out.Fd()))
	if err != nil {
		return 0, 0, fmt.Errorf("terminal: get size: %w", err)
	}
	return rows, cols, nil
}

// --- buffered output ---

// WriteString appends s to the internal output buffer; it is not
// visible to the terminal until Flush is called.
func (t *Terminal) WriteString(s string) error {
	_, err := t.buf.WriteString(s)
	return err
}

// Flush drains the output buffer to stdout.
func (t *Terminal) Flush() error {
	return t.buf.Flush()
}

// MoveTo positions the cursor at the given zero-based row/col.
func (t *Terminal) MoveTo(row, col int) error {
	return t.WriteString(fmt.Sprintf("\x1b[%d;%dH", row+1, col+1))
}

// ClearToEnd clears from the cursor to the end of the current line.
func (t *Terminal) ClearToEnd() error {
	return t.WriteString("\x1b[K")
}

// Attr describes an SGR text attribute: a foreground and background
// colour plus an optional bold flag.
type Attr struct {
	Fg   Colour
	Bg   Colour
	Bold bool
}

// Colour is a 24-bit RGB colour.
type Colour struct {
	R, G, B uint8
}

// SetAttr emits the SGR sequence for attr: a reset, then bold if set,
// then background and foreground truecolour sequences.
func (t *Terminal) SetAttr(attr Attr) error {
	if err := t.WriteString("\x1b[0m"); err != nil {
		return err
	}
	if attr.Bold {
		if err := t.WriteString("\x1b[1m"); err != nil {
			return err
		}
	}
	if err := t.WriteString(fmt.Sprintf("\x1b[48;2;%d;%d;%dm", attr.Bg.R, attr.Bg.G, attr.Bg.B)); err != nil {
		return err
	}
	return t.WriteString(fmt.Sprintf("\x1b[38;2;%d;%d;%dm", attr.Fg.R, attr.Fg.G, attr.Fg.B))
}

// UIAttrs bundles the four resolved attributes the editor draws with.
type UIAttrs struct {
	Default  Attr
	Header   Attr
	Status   Attr
	LineNums Attr
}

// --- input ---

// readByte returns the next input byte, blocking on stdin to refill the
// 1 KiB input buffer when it is empty.
func (t *Terminal) readByte() (byte, error) {
	if t.inStart >= t.inEnd {
		n, err := t.inReader.Read(t.inbuf)
		if err != nil {
			if err == io.EOF {
				return 0, io.EOF
			}
			return 0, fmt.Errorf("terminal: read: %w", err)
		}
		t.inStart = 0
		t.inEnd = n
	}
	b := t.inbuf[t.inStart]
	t.inStart++
	return b, nil
}

// Input reads exactly one InputEvent from stdin, decoding UTF-8 text,
// control characters, and ANSI CSI sequences.
func (t *Terminal) Input() (InputEvent, error) {
	b, err := t.readByte()
	if err != nil {
		return nil, err
	}
	switch {
	case b >= 0x20 && b <= 0x7e:
		return KeyEvent{Key: KeyChar(rune(b))}, nil
	case b >= 0x01 && b <= 0x1a:
		return CtrlEvent{Key: KeyChar(rune('a' + b - 0x01))}, nil
	case b == 0x1b:
		return t.readEscape()
	case b == 0x7f:
		return KeyEvent{Key: KeyBackspace{}}, nil
	case b >= 0xc0 && b <= 0xdf:
		b2, err := t.readByte()
		if err != nil {
			return nil, err
		}
		if b2 < 0x80 || b2 > 0xbf {
			return nil, fmt.Errorf("terminal: invalid UTF-8 continuation byte 0x%02x", b2)
		}
		r := rune(b&0x1f)<<6 | rune(b2&0x3f)
		return KeyEvent{Key: KeyChar(r)}, nil
	case b >= 0xe0 && b <= 0xef:
		b2, err := t.readByte()
		if err != nil {
			return nil, err
		}
		b3, err := t.readByte()
		if err != nil {
			return nil, err
		}
		if b2 < 0x80 || b2 > 0xbf || b3 < 0x80 || b3 > 0xbf {
			return nil, fmt.Errorf("terminal: invalid UTF-8 continuation bytes")
		}
		r := rune(b&0x0f)<<12 | rune(b2&0x3f)<<6 | rune(b3&0x3f)
		return KeyEvent{Key: KeyChar(r)}, nil
	default:
		return nil, fmt.Errorf("terminal: invalid input: 0x%02x", b)
	}
}

func (t *Terminal) readEscape() (InputEvent, error) {
	b, err := t.readByte()
	if err != nil {
		return nil, err
	}
	switch {
	case b >= 0x01 && b <= 0x1a:
		return CtrlAltEvent{Key: KeyChar(rune('a' + b - 0x01))}, nil
	case b == '[':
		return t.readCSI()
	case b >= 0x20 && b <= 0x7e:
		return AltEvent{Key: KeyChar(rune(b))}, nil
	default:
		return nil, fmt.Errorf("terminal: ESC + 0x%02x", b)
	}
}

// readCSI reads up to three decimal parameters separated by ';' and a
// terminating final byte, then matches the (params, final byte) pair
// against the closed CSI table.
func (t *Terminal) readCSI() (InputEvent, error) {
	var params [3]int
	nparams := 0
	cur := 0
	haveDigit := false
	for {
		b, err := t.readByte()
		if err != nil {
			return nil, err
		}
		if b >= '0' && b <= '9' {
			cur = cur*10 + int(b-'0')
			haveDigit = true
			continue
		}
		if b == ';' {
			if nparams == 2 {
				return nil, fmt.Errorf("terminal: invalid CSI: too many parameters")
			}
			params[nparams] = cur
			nparams++
			cur = 0
			haveDigit = false
			continue
		}
		if haveDigit {
			if nparams == 3 {
				return nil, fmt.Errorf("terminal: invalid CSI: too many parameters")
			}
			params[nparams] = cur
			nparams++
		}
		ev := decodeCSI(params[:nparams], b)
		if ev == nil {
			return nil, fmt.Errorf("terminal: invalid CSI: %v 0x%02x", params[:nparams], b)
		}
		return ev, nil
	}
}
