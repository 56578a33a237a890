package cli

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/term"

	"github.com/seleune/glideterm"
)

// Tick interval for the render loop. The host terminal cannot present
// sub-line offsets, so a slower cadence than the GUI frontends is fine.
const tickInterval = 33 * time.Millisecond

// Options configures terminal creation.
type Options struct {
	Cols int // viewport width (default: host terminal width)
	Rows int // viewport height (default: host terminal height)

	Command   string   // editor binary (default "nvim")
	ExtraArgs []string // extra arguments before the embed flag
	File      string   // file to open after attach

	Logger *slog.Logger // diagnostics; nil discards
}

// Terminal runs one embedded editor session fullscreen in the host
// terminal.
type Terminal struct {
	view     *glideterm.View
	renderer *Renderer
	input    *InputHandler

	cols int
	rows int

	oldState *term.State
	winch    chan os.Signal
	stop     chan struct{}
	done     chan struct{}
}

// New creates a terminal sized to the host terminal (or the explicit
// dimensions in opts) and spawns the editor.
func New(opts Options) (*Terminal, error) {
	cols, rows := opts.Cols, opts.Rows
	if cols <= 0 || rows <= 0 {
		w, h, err := term.GetSize(int(os.Stdout.Fd()))
		if err != nil {
			w, h = 80, 24
		}
		if cols <= 0 {
			cols = w
		}
		if rows <= 0 {
			rows = h
		}
	}

	view, err := glideterm.NewView(cols, rows, glideterm.ViewConfig{
		Session: glideterm.SessionConfig{
			Command:   opts.Command,
			ExtraArgs: opts.ExtraArgs,
			File:      opts.File,
			Logger:    opts.Logger,
		},
		// One "pixel" per line makes the animator quantize every scroll
		// step into whole lines immediately.
		CellHeight: 1,
	})
	if err != nil {
		return nil, err
	}

	t := &Terminal{
		view: view,
		cols: cols,
		rows: rows,
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
	t.renderer = NewRenderer(t)
	t.input = NewInputHandler(t)
	return t, nil
}

// View returns the underlying editor view.
func (t *Terminal) View() *glideterm.View {
	return t.view
}

// Start enters raw mode, hides the host cursor, and launches the render
// and input loops.
func (t *Terminal) Start() error {
	state, err := term.MakeRaw(int(os.Stdin.Fd()))
	if err != nil {
		return fmt.Errorf("cli: raw mode: %w", err)
	}
	t.oldState = state

	// Alternate screen, cursor hidden while we own the display.
	os.Stdout.WriteString("\x1b[?1049h\x1b[?25l")

	t.winch = make(chan os.Signal, 1)
	signal.Notify(t.winch, syscall.SIGWINCH)

	go t.renderLoop()
	go t.input.InputLoop()
	return nil
}

// Stop restores the host terminal and terminates the editor. Safe to call
// after the editor has already exited.
func (t *Terminal) Stop() {
	select {
	case <-t.stop:
	default:
		close(t.stop)
	}
	if t.winch != nil {
		signal.Stop(t.winch)
	}
	t.view.Close()
	os.Stdout.WriteString("\x1b[?25h\x1b[?1049l")
	if t.oldState != nil {
		term.Restore(int(os.Stdin.Fd()), t.oldState)
		t.oldState = nil
	}
}

// Wait blocks until the render loop ends, either by Stop or because the
// editor exited.
func (t *Terminal) Wait() {
	<-t.done
}

func (t *Terminal) renderLoop() {
	defer close(t.done)

	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	var lastFrame int64 = -1
	for {
		select {
		case <-t.stop:
			return
		case <-t.winch:
			t.hostResize()
		case now := <-ticker.C:
			_, alive := t.view.Tick(now)
			if !alive {
				return
			}
			if frame := t.view.Frame(); frame != lastFrame {
				lastFrame = frame
				t.renderer.Render()
			}
		}
	}
}

// hostResize tracks the host terminal size.
func (t *Terminal) hostResize() {
	cols, rows, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || (cols == t.cols && rows == t.rows) {
		return
	}
	t.cols = cols
	t.rows = rows
	t.view.Resize(cols, rows)
	t.renderer.Invalidate()
}
