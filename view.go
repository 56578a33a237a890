package glideterm

import (
	"io"
	"log/slog"
	"strings"
	"time"
)

// stuckScrollLimit is how many consecutive ticks a requested line scroll may
// go unacknowledged by the editor before the animator is snapped to rest.
const stuckScrollLimit = 30

// View drives one embedded editor session: it drains the session's event
// queue each presentation tick, applies redraw batches to the grid in order,
// runs the scroll animator, and answers the renderer's content and boundary
// queries. Everything here executes on the presentation tick; only the
// session's internal reader runs concurrently.
type View struct {
	session  *Session
	grid     *Grid
	animator *ScrollAnimator
	cache    *ChunkCache
	logger   *slog.Logger

	// Frame coherence: frame counts completed flushes; dirty is set by any
	// grid mutation since the last flush. Renderers present only flushed
	// state.
	frame int64
	dirty bool

	mode      ModeChange
	modeInfos []ModeInfo

	// Buffer-extent reconciliation. lastLineReqID correlates the pending
	// line('$') evaluation; bufferLastLine is the most recent answer, 0
	// while unknown.
	lastLineReqID  int64
	bufferLastLine int

	// Scroll acknowledgment tracking. pendingScroll counts lines requested
	// from the editor but not yet seen back as grid_scroll; stuckTicks
	// counts ticks spent waiting.
	pendingScroll int
	stuckTicks    int
	sawGridScroll bool
}

// ViewConfig configures NewView.
type ViewConfig struct {
	// Session options; Logger is shared with the view.
	Session SessionConfig
	// CellHeight in pixels, from the renderer's font metrics. May be set
	// later with SetCellHeight.
	CellHeight float64
}

// NewView spawns a session sized cols x rows and wires the view around it.
func NewView(cols, rows int, cfg ViewConfig) (*View, error) {
	session, err := NewSession(cols, rows, cfg.Session)
	if err != nil {
		return nil, err
	}
	logger := cfg.Session.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	v := &View{
		session:  session,
		grid:     NewGrid(cols, rows+slackRows),
		animator: NewScrollAnimator(),
		cache:    NewChunkCache(),
		logger:   logger,
	}
	v.animator.SetCellHeight(cfg.CellHeight)
	return v, nil
}

// Session exposes the underlying session for input and raw calls.
func (v *View) Session() *Session {
	return v.session
}

// Grid exposes the grid for rendering. Read-only by convention; all
// mutation flows through ProcessEvents.
func (v *View) Grid() *Grid {
	return v.grid
}

// Animator exposes the scroll animator for frontends feeding input deltas.
func (v *View) Animator() *ScrollAnimator {
	return v.animator
}

// Cache exposes the render chunk cache.
func (v *View) Cache() *ChunkCache {
	return v.cache
}

// Frame returns the count of completed flushes. A renderer that remembers
// the frame it last presented can skip repainting when it has not advanced.
func (v *View) Frame() int64 {
	return v.frame
}

// Mode returns the last announced editor mode.
func (v *View) Mode() ModeChange {
	return v.mode
}

// ModeCursor returns the cursor styling for the current mode, if the editor
// supplied one.
func (v *View) ModeCursor() (ModeInfo, bool) {
	if v.mode.Index < 0 || v.mode.Index >= len(v.modeInfos) {
		return ModeInfo{}, false
	}
	return v.modeInfos[v.mode.Index], true
}

// ProcessEvents drains the session queue and applies everything in arrival
// order. It returns false once the session is dead and fully drained.
func (v *View) ProcessEvents() bool {
	events, ok := v.session.Poll()
	for _, ev := range events {
		switch {
		case ev.Redraw != nil:
			v.applyRedraw(ev.Redraw)
		case ev.Response != nil:
			v.applyResponse(*ev.Response)
		case ev.Request != nil:
			// The editor never needs an answer for the API surface this
			// client drives; log and move on.
			v.logger.Debug("ignoring editor-initiated request",
				"method", ev.Request.Method, "id", ev.Request.ID)
		}
	}
	return ok
}

// applyRedraw applies one parsed redraw batch atomically and in order.
// Intermediate states are never presented; only a flush publishes a frame.
func (v *View) applyRedraw(events []RedrawEvent) {
	for _, ev := range events {
		switch e := ev.(type) {
		case GridLine:
			v.grid.UpdateLine(e.Row, e.ColStart, e.Runs)
			v.dirty = true
		case GridScroll:
			v.grid.ScrollRegion(e.Top, e.Bottom, e.Left, e.Right, e.Rows)
			v.sawGridScroll = true
			v.dirty = true
		case GridResize:
			v.grid.Resize(e.Width, e.Height)
			v.cache.Clear()
			v.animator.Stop(true)
			v.dirty = true
		case GridClear:
			v.grid.Clear()
			v.cache.Clear()
			v.dirty = true
		case GridCursorGoto:
			v.grid.SetCursor(e.Row, e.Col)
			v.dirty = true
		case DefaultColorsSet:
			v.grid.SetDefaultColors(e.Fg, e.Bg, e.Sp)
			v.dirty = true
		case HlAttrDefine:
			v.grid.DefineHlAttr(e.ID, e.Attrs)
		case ModeInfoSet:
			v.modeInfos = e.Modes
		case ModeChange:
			v.mode = e
		case Flush:
			if v.dirty {
				v.frame++
				v.dirty = false
				// Published content changed; cached renderable spans are
				// stale now. Ticks between flushes hit the cache.
				v.cache.Clear()
			}
		case OtherEvent:
			v.logger.Debug("unhandled redraw event", "event", e.Name)
		}
	}
}

// applyResponse correlates responses to in-flight evaluations. A response
// arriving after its relevance has passed still updates the line cache when
// meaningful; anything unrecognized is dropped.
func (v *View) applyResponse(resp Response) {
	if resp.ID == v.lastLineReqID && v.lastLineReqID != 0 {
		v.lastLineReqID = 0
		if resp.Err != nil {
			v.logger.Warn("buffer extent query failed", "error", resp.Err)
			return
		}
		if n, ok := asInt64(resp.Result); ok && n > 0 {
			v.bufferLastLine = int(n)
		}
		return
	}
	v.logger.Debug("uncorrelated response", "id", resp.ID)
}

// RequestBufferExtent asks the editor for the last line of the current
// buffer. The answer arrives asynchronously via ProcessEvents; at most one
// query is kept in flight.
func (v *View) RequestBufferExtent() {
	if v.lastLineReqID != 0 {
		return
	}
	id, err := v.session.Eval("line('$')")
	if err != nil {
		v.logger.Warn("buffer extent query failed to send", "error", err)
		return
	}
	v.lastLineReqID = id
}

// BufferLastLine returns the most recently learned buffer line count, 0
// while unknown.
func (v *View) BufferLastLine() int {
	return v.bufferLastLine
}

// AtBufferTop reports whether the viewport shows the first buffer line.
// Unknown boundary state counts as at-top, which conservatively stops
// upward scrolling.
func (v *View) AtBufferTop() bool {
	top, ok := v.grid.TopLineNumber()
	if !ok {
		return true
	}
	return top <= 1
}

// AtBufferBottom reports whether the viewport shows the last buffer line.
// Policy: the visible bottom line number is compared against the queried
// buffer extent; when either side is unknown the empty-last-row probe
// decides instead.
func (v *View) AtBufferBottom() bool {
	bottom, ok := v.grid.BottomLineNumber()
	if ok && v.bufferLastLine > 0 {
		return bottom >= v.bufferLastLine
	}
	return v.grid.LastRowEmpty()
}

// scrollBounds derives the animator clamp bounds from the current boundary
// state: lines of history above the viewport, lines of buffer below it.
// Unknown values fall back to zero, freezing scroll in that direction until
// the next successful probe.
func (v *View) scrollBounds() (upLines, downLines int) {
	if top, ok := v.grid.TopLineNumber(); ok && top > 1 {
		upLines = top - 1
	}
	if bottom, ok := v.grid.BottomLineNumber(); ok && v.bufferLastLine > bottom {
		downLines = v.bufferLastLine - bottom
	}
	return upLines, downLines
}

// Tick runs one presentation tick: drain events, refresh bounds, advance
// the animator, and forward any quantized whole-line scroll to the editor.
// It returns the sub-line pixel offset to render at and whether the session
// is still alive.
func (v *View) Tick(now time.Time) (pixelOffset float64, alive bool) {
	alive = v.ProcessEvents()

	if v.sawGridScroll {
		v.pendingScroll = 0
		v.stuckTicks = 0
		v.sawGridScroll = false
	}

	up, down := v.scrollBounds()
	v.animator.SetBounds(up, down)

	residual, lines := v.animator.Advance(now)
	if lines != 0 && alive {
		if err := v.scrollEditor(lines); err != nil {
			v.logger.Warn("scroll input failed", "error", err)
		} else {
			v.pendingScroll += lines
		}
		v.RequestBufferExtent()
	}

	// A scroll the editor never acknowledges (already at a boundary the
	// probes missed) would leave the residual pinned; snap out of it.
	if v.pendingScroll != 0 {
		v.stuckTicks++
		if v.stuckTicks > stuckScrollLimit {
			v.logger.Debug("scroll unacknowledged, snapping",
				"pending", v.pendingScroll)
			v.animator.Stop(true)
			v.pendingScroll = 0
			v.stuckTicks = 0
		}
	}

	return residual, alive
}

// scrollEditor asks the editor to scroll its window by whole lines.
// Positive scrolls toward history (window moves up).
func (v *View) scrollEditor(lines int) error {
	var key string
	n := lines
	if n > 0 {
		key = "<C-y>"
	} else {
		key = "<C-e>"
		n = -n
	}
	_, err := v.session.Input(strings.Repeat(key, n))
	return err
}

// ScrollPixels feeds a raw wheel or touchpad delta into the animator.
// Positive deltas scroll toward history.
func (v *View) ScrollPixels(now time.Time, delta float64) {
	v.animator.AddPixels(now, delta)
}

// ScrollLines feeds a discrete wheel step into the animator.
func (v *View) ScrollLines(now time.Time, lines float64) {
	v.animator.AddLines(now, lines)
}

// SetCellHeight updates the animator's cell metric when font metrics change.
func (v *View) SetCellHeight(px float64) {
	v.animator.SetCellHeight(px)
}

// Input forwards pre-translated key input to the editor.
func (v *View) Input(keys string) error {
	_, err := v.session.Input(keys)
	return err
}

// Resize propagates a new viewport size. The grid itself resizes when the
// editor acknowledges with a grid_resize event; until then stale content
// remains, which the resize-then-repaint protocol makes safe.
func (v *View) Resize(cols, rows int) error {
	v.animator.Stop(true)
	v.cache.Clear()
	return v.session.Resize(cols, rows)
}

// RenderableCells returns the flattened content of the current grid for the
// renderer.
func (v *View) RenderableCells() []RenderableCell {
	return v.grid.RenderableCells()
}

// ChunkFor returns the renderable span anchored at the given buffer line,
// materializing and caching it on a miss. Frames invalidate the cache, so
// the repeated reads of a sub-line scroll animation between content changes
// are served without re-flattening the grid.
func (v *View) ChunkFor(line int) *RenderChunk {
	if chunk := v.cache.Get(line); chunk != nil {
		return chunk
	}
	_, rows := v.grid.Size()
	chunk := &RenderChunk{
		StartLine: line,
		Lines:     rows,
		Cells:     v.grid.RenderableCells(),
	}
	v.cache.Insert(chunk)
	return chunk
}

// Close tears the session down.
func (v *View) Close() error {
	return v.session.Close()
}
