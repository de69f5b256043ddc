// Package editor ties the terminal, the open files, and the resolved
// UI palette together into the single-mode, Emacs-keybound editing
// loop described by the rest of this module.
package editor

import (
	"fmt"
	"log/slog"
	"os"
	"syscall"

	"github.com/gojtx/jtx/internal/config"
	"github.com/gojtx/jtx/internal/terminal"
	"github.com/gojtx/jtx/internal/textfile"
	"github.com/gojtx/jtx/internal/watch"
)

// Editor owns the terminal, the list of open files, and the dispatch
// loop that turns InputEvents into File operations.
type Editor struct {
	term      *terminal.Terminal
	termRows  int
	termCols  int
	killBuf   string
	prevEvent terminal.InputEvent
	files     []*textfile.File
	fileIdx   int
	uiAttrs   terminal.UIAttrs
	lastErr   string
	hasErr    bool
	log       *slog.Logger
	watcher   *watch.Watcher
}

// New constructs an Editor over files, starts raw mode, and resolves
// the UI palette from cfg. Callers must call Stop on every exit path;
// Run does not call it.
func New(files []*textfile.File, cfg *config.Config, log *slog.Logger) (*Editor, error) {
	if len(files) == 0 {
		return nil, fmt.Errorf("editor: no files to open")
	}
	attrs, err := cfg.ResolveAttrs()
	if err != nil {
		return nil, err
	}
	term := terminal.New()
	if err := term.Start(); err != nil {
		return nil, err
	}
	return &Editor{
		term:     term,
		termRows: 25,
		termCols: 80,
		files:    files,
		uiAttrs:  attrs,
		log:      log,
	}, nil
}

// WatchFiles starts an optional external-change watcher over every open
// file's path. Safe to skip entirely; the editor works without it.
func (e *Editor) WatchFiles() error {
	paths := make([]string, len(e.files))
	for i, f := range e.files {
		paths[i] = f.Name()
	}
	w, err := watch.New(paths, e.log)
	if err != nil {
		return err
	}
	e.watcher = w
	return nil
}

// Stop leaves raw mode and releases the watcher, if any. Idempotent.
func (e *Editor) Stop() error {
	if e.watcher != nil {
		e.watcher.Close()
	}
	return e.term.Stop()
}

func (e *Editor) file() *textfile.File {
	return e.files[e.fileIdx]
}

// Run enters the main dispatch loop, blocking until the user quits
// (Alt-X) or an unrecoverable terminal error occurs.
func (e *Editor) Run() error {
	if err := e.term.WriteString("\x1b[18t"); err != nil {
		return err
	}
	if err := e.term.Flush(); err != nil {
		return err
	}

	for {
		e.clearError()
		select {
		case <-e.term.ResizeChan():
			if rows, cols, err := e.term.Size(); err == nil {
				e.termRows, e.termCols = rows, cols
			}
		default:
		}
		if e.watcher != nil {
			select {
			case change, ok := <-e.watcher.Events:
				if ok {
					e.noteExternalChange(change)
				}
			default:
			}
		}

		ev, err := e.term.Input()
		if err != nil {
			e.setError(err.Error())
			if derr := e.draw(); derr != nil {
				return derr
			}
			continue
		}

		quit, dispatchErr := e.dispatch(ev)
		if dispatchErr != nil {
			e.setError(dispatchErr.Error())
		}
		e.prevEvent = ev
		if err := e.draw(); err != nil {
			return err
		}
		if quit {
			return nil
		}
	}
}

func (e *Editor) noteExternalChange(change watch.ExternalChange) {
	if change.Index < 0 || change.Index >= len(e.files) {
		return
	}
	e.setError(fmt.Sprintf("%s changed on disk", e.files[change.Index].Name()))
}

func (e *Editor) setError(msg string) {
	e.lastErr = msg
	e.hasErr = true
}

func (e *Editor) clearError() {
	e.lastErr = ""
	e.hasErr = false
}

// dispatch applies one InputEvent to the active file or to editor-level
// state (file switching, quitting, suspension), returning quit=true
// only for Alt-X.
func (e *Editor) dispatch(ev terminal.InputEvent) (quit bool, err error) {
	switch v := ev.(type) {
	case terminal.TextSize:
		e.termRows, e.termCols = v.Rows, v.Cols

	case terminal.KeyEvent:
		switch v.Key.(type) {
		case terminal.KeyUp:
			e.file().Up(1)
		case terminal.KeyDown:
			e.file().Down(1)
		case terminal.KeyLeft:
			e.file().Left(1)
		case terminal.KeyRight:
			e.file().Right(1)
		case terminal.KeyPageUp:
			e.file().Up(e.pageSize())
		case terminal.KeyPageDown:
			e.file().Down(e.pageSize())
		case terminal.KeyBackspace:
			e.file().Backspace()
		case terminal.KeyDelete:
			e.file().Delete()
		case terminal.KeyHome:
			e.file().Home()
		case terminal.KeyEnd:
			e.file().End()
		default:
			if ch, ok := v.Key.(terminal.KeyChar); ok {
				e.file().TypeChar(rune(ch))
			} else {
				return false, fmt.Errorf("EVENT: %#v", ev)
			}
		}

	case terminal.CtrlEvent:
		ch, ok := v.Key.(terminal.KeyChar)
		if !ok {
			return false, fmt.Errorf("EVENT: %#v", ev)
		}
		switch rune(ch) {
		case 'p':
			e.file().Up(1)
		case 'n':
			e.file().Down(1)
		case 'b':
			e.file().Left(1)
		case 'f':
			e.file().Right(1)
		case 'v':
			e.file().Down(e.pageSize())
		case 'd':
			e.file().Delete()
		case 'a':
			e.file().Home()
		case 'e':
			e.file().End()
		case 'i':
			e.file().TypeChar('\t')
		case 'k':
			if !e.prevWasCtrlK() {
				e.killBuf = ""
			}
			e.file().Kill(&e.killBuf)
		case 'l':
			if err := e.term.WriteString("\x1b[?1049h\x1b[18t"); err != nil {
				return false, err
			}
		case 'm':
			e.file().TypeChar('\n')
		case 's':
			if err := e.file().Save(); err != nil {
				return false, err
			}
		case 'u':
			e.file().Unkill(e.killBuf)
		case 'z':
			return false, e.suspend()
		default:
			return false, fmt.Errorf("EVENT: %#v", ev)
		}

	case terminal.AltEvent:
		switch k := v.Key.(type) {
		case terminal.KeyChar:
			switch rune(k) {
			case 'v':
				e.file().Up(e.pageSize())
			case 'e':
				_ = e.file().Redo()
			case 'u':
				_ = e.file().Undo()
			case 'x':
				return true, nil
			default:
				return false, fmt.Errorf("EVENT: %#v", ev)
			}
		case terminal.KeyLeft:
			if e.fileIdx == 0 {
				e.fileIdx = len(e.files) - 1
			} else {
				e.fileIdx--
			}
		case terminal.KeyRight:
			e.fileIdx++
			if e.fileIdx == len(e.files) {
				e.fileIdx = 0
			}
		default:
			return false, fmt.Errorf("EVENT: %#v", ev)
		}

	default:
		return false, fmt.Errorf("EVENT: %#v", ev)
	}
	return false, nil
}

func (e *Editor) prevWasCtrlK() bool {
	pe, ok := e.prevEvent.(terminal.CtrlEvent)
	if !ok {
		return false
	}
	ch, ok := pe.Key.(terminal.KeyChar)
	return ok && rune(ch) == 'k'
}

func (e *Editor) pageSize() int {
	if e.termRows > 4 {
		return e.termRows - 4
	}
	return 1
}

// suspend stops raw mode, sends the process SIGSTOP so the shell's job
// control takes over, and re-enters raw mode on resume. It then queues a
// fresh size-report request (sent by the next flush), since the terminal
// may have changed size while stopped.
func (e *Editor) suspend() error {
	pid := os.Getpid()
	if err := e.term.Stop(); err != nil {
		return err
	}
	if err := syscall.Kill(pid, syscall.SIGSTOP); err != nil {
		return fmt.Errorf("editor: suspend: %w", err)
	}
	if err := e.term.Start(); err != nil {
		return err
	}
	return e.term.WriteString("\x1b[18t")
}

// draw renders the header, status line, and the active file's viewport.
func (e *Editor) draw() error {
	if err := e.term.MoveTo(0, 0); err != nil {
		return err
	}
	if err := e.term.SetAttr(e.uiAttrs.Header); err != nil {
		return err
	}
	dirty := ""
	if e.file().Dirty() {
		dirty = " *"
	}
	if err := e.term.WriteString(fmt.Sprintf("  [%d/%d]  %s%s",
		e.fileIdx+1, len(e.files), e.file().Name(), dirty)); err != nil {
		return err
	}
	if err := e.term.ClearToEnd(); err != nil {
		return err
	}

	if err := e.term.MoveTo(e.termRows-1, 0); err != nil {
		return err
	}
	if err := e.term.SetAttr(e.uiAttrs.Status); err != nil {
		return err
	}
	if e.hasErr {
		if err := e.term.WriteString("  ERROR: " + e.lastErr); err != nil {
			return err
		}
	} else {
		if err := e.term.WriteString("  " + e.file().Status()); err != nil {
			return err
		}
	}
	if err := e.term.ClearToEnd(); err != nil {
		return err
	}

	if err := e.file().Draw(e.term, e.uiAttrs, 2, e.termRows-2); err != nil {
		return err
	}
	return e.term.Flush()
}
