package glideterm

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"sync"

	"github.com/vmihailenco/msgpack/v5"
)

// Event is one item from the session's event stream. Exactly one field is
// populated: a parsed redraw batch, a response to a prior request, or an
// editor-initiated request.
type Event struct {
	Redraw   []RedrawEvent
	Response *Response
	Request  *Request
}

// SessionConfig controls how the editor subprocess is launched.
type SessionConfig struct {
	// Command is the editor binary. Defaults to "nvim".
	Command string
	// ExtraArgs are appended before the embed flag.
	ExtraArgs []string
	// File, when set, is opened once the UI has attached.
	File string
	// Capabilities announced on attach. Nil uses DefaultUICapabilities.
	Capabilities *UICapabilities
	// Logger receives session diagnostics. Nil discards them.
	Logger *slog.Logger
}

// Session owns the embedded editor subprocess. A background reader decodes
// the RPC stream into events; everything else runs on the caller's
// presentation tick. All request operations are fire-and-forget: they
// return the allocated request id, and correlating a later Response back to
// it is the caller's responsibility.
type Session struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	bw     *bufio.Writer
	enc    *msgpack.Encoder
	logger *slog.Logger
	caps   UICapabilities

	width  int
	height int

	// Monotonic request id counter. Incremented before every send, so ids
	// are strictly increasing per session and never reused.
	nextID int64
	wmu    sync.Mutex

	// Reader-to-consumer queue. The reader only appends immutable events;
	// the presentation tick drains with Poll.
	qmu    sync.Mutex
	queue  []Event
	closed bool
}

// NewSession spawns the editor with its embedding flag, starts the reader,
// configures the viewport chrome (no statusline or cmdline, line numbers on
// for boundary probing) and attaches the UI with slack rows for the scroll
// animator.
func NewSession(cols, rows int, cfg SessionConfig) (*Session, error) {
	command := cfg.Command
	if command == "" {
		command = "nvim"
	}
	args := append(append([]string{}, cfg.ExtraArgs...), "--embed")

	cmd := exec.Command(command, args...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("session: stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("session: stdout pipe: %w", err)
	}
	cmd.Stderr = os.Stderr

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("session: spawn %s: %w", command, err)
	}

	s := newSessionPipes(stdin, stdout, cfg.Logger)
	s.cmd = cmd
	s.width = cols
	s.height = rows
	if cfg.Capabilities != nil {
		s.caps = *cfg.Capabilities
	}

	if err := s.attachUI(); err != nil {
		s.Close()
		return nil, err
	}
	if cfg.File != "" {
		if _, err := s.Command("edit " + cfg.File); err != nil {
			s.Close()
			return nil, err
		}
	}

	return s, nil
}

// newSessionPipes wires a session around raw pipes and starts the reader.
// Split out from NewSession so the reader and request paths are testable
// without a real editor process.
func newSessionPipes(stdin io.WriteCloser, stdout io.Reader, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	bw := bufio.NewWriter(stdin)
	s := &Session{
		stdin:  stdin,
		bw:     bw,
		enc:    msgpack.NewEncoder(bw),
		logger: logger,
		caps:   DefaultUICapabilities(),
	}
	go s.readLoop(stdout)
	return s
}

// readLoop decodes envelopes until the stream fails, then closes the queue.
// A malformed envelope is a transport failure and terminates the loop; a
// notification that fails event-level parsing is logged and dropped.
func (s *Session) readLoop(stdout io.Reader) {
	dec := msgpack.NewDecoder(bufio.NewReader(stdout))
	for {
		msg, err := ReadMessage(dec)
		if err != nil {
			if err == io.EOF {
				s.logger.Debug("editor stream closed")
			} else {
				s.logger.Error("editor stream failed", "error", err)
			}
			s.closeQueue()
			return
		}

		switch m := msg.(type) {
		case Notification:
			if m.Method == RedrawMethod {
				events, err := ParseRedraw(m.Args, s.logger)
				if err != nil {
					s.logger.Warn("dropping malformed redraw notification", "error", err)
					continue
				}
				s.push(Event{Redraw: events})
				continue
			}
			// Unrecognized methods pass through as opaque events rather
			// than terminating the session.
			s.logger.Debug("unhandled notification", "method", m.Method)
			s.push(Event{Redraw: []RedrawEvent{OtherEvent{Name: m.Method}}})
		case Response:
			s.push(Event{Response: &m})
		case Request:
			s.push(Event{Request: &m})
		}
	}
}

func (s *Session) push(ev Event) {
	s.qmu.Lock()
	if !s.closed {
		s.queue = append(s.queue, ev)
	}
	s.qmu.Unlock()
}

func (s *Session) closeQueue() {
	s.qmu.Lock()
	s.closed = true
	s.qmu.Unlock()
}

// Poll drains all queued events without blocking. ok is false only once the
// session is dead AND the queue is fully drained; callers must treat that
// as "session dead", not "no events yet".
func (s *Session) Poll() (events []Event, ok bool) {
	s.qmu.Lock()
	events = s.queue
	s.queue = nil
	dead := s.closed && len(events) == 0
	s.qmu.Unlock()
	return events, !dead
}

// call encodes one outgoing request and returns its id.
func (s *Session) call(method string, args ...interface{}) (int64, error) {
	s.wmu.Lock()
	defer s.wmu.Unlock()

	s.nextID++
	id := s.nextID
	if err := encodeRequest(s.enc, id, method, args); err != nil {
		return 0, fmt.Errorf("session: encode %s: %w", method, err)
	}
	if err := s.bw.Flush(); err != nil {
		return 0, fmt.Errorf("session: write %s: %w", method, err)
	}
	return id, nil
}

// attachUI configures the viewport chrome and attaches the UI with
// slackRows extra grid rows below the viewport.
func (s *Session) attachUI() error {
	for _, command := range []string{
		"set laststatus=0",
		"set cmdheight=0",
		"set number",
		`set fillchars=eob:\ `,
	} {
		if _, err := s.Command(command); err != nil {
			return err
		}
	}

	_, err := s.call("nvim_ui_attach",
		s.width, s.height+slackRows, s.caps.optionMap())
	return err
}

// Input sends pre-translated input (key chords in bracketed notation).
func (s *Session) Input(keys string) (int64, error) {
	return s.call("nvim_input", keys)
}

// Eval evaluates an expression in the editor. The returned id correlates
// the eventual Response event.
func (s *Session) Eval(expr string) (int64, error) {
	return s.call("nvim_eval", expr)
}

// Command runs an ex command in the editor.
func (s *Session) Command(command string) (int64, error) {
	return s.call("nvim_command", command)
}

// Call issues an arbitrary API request.
func (s *Session) Call(method string, args ...interface{}) (int64, error) {
	return s.call(method, args...)
}

// Resize asks the editor for new grid dimensions, keeping the slack rows.
func (s *Session) Resize(cols, rows int) error {
	s.width = cols
	s.height = rows
	_, err := s.call("nvim_ui_try_resize", cols, rows+slackRows)
	return err
}

// Size returns the viewport dimensions last requested (excluding slack).
func (s *Session) Size() (cols, rows int) {
	return s.width, s.height
}

// Close forcibly terminates the subprocess. No graceful shutdown handshake
// is attempted; the reader observes the broken pipe and closes the queue.
func (s *Session) Close() error {
	s.stdin.Close()
	if s.cmd != nil && s.cmd.Process != nil {
		s.cmd.Process.Kill()
		s.cmd.Wait()
	}
	return nil
}
