package glideterm

import (
	"testing"
	"time"
)

func newTestView(t *testing.T, cols, rows int) (*View, *testSession) {
	t.Helper()
	ts := newTestSession(t)
	v := &View{
		session:  ts.s,
		grid:     NewGrid(cols, rows+slackRows),
		animator: NewScrollAnimator(),
		cache:    NewChunkCache(),
		logger:   testLogger(),
	}
	return v, ts
}

// drainRequests consumes every outgoing request so view calls never block on
// the unbuffered pipe, forwarding the envelopes for inspection.
func (ts *testSession) drainRequests() <-chan Request {
	ch := make(chan Request, 16)
	go func() {
		defer close(ch)
		for {
			value, err := ts.requests.DecodeInterface()
			if err != nil {
				return
			}
			arr, ok := value.([]interface{})
			if !ok || len(arr) != 4 {
				continue
			}
			id, _ := asInt64(arr[1])
			method, _ := asString(arr[2])
			args, _ := arr[3].([]interface{})
			ch <- Request{ID: id, Method: method, Args: args}
		}
	}()
	return ch
}

func waitFor(t *testing.T, poll func(), cond func() bool, what string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		poll()
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestViewRedrawPublishesAtFlush(t *testing.T) {
	v, ts := newTestView(t, 10, 3)

	ts.emit(t, []interface{}{2, "redraw", []interface{}{
		[]interface{}{"grid_resize", []interface{}{1, 10, 3}},
		[]interface{}{"hl_attr_define",
			[]interface{}{1, map[string]interface{}{
				"foreground": 0x112233,
				"bold":       true,
			}, map[string]interface{}{}, []interface{}{}},
		},
		[]interface{}{"grid_line",
			[]interface{}{1, 0, 0, []interface{}{[]interface{}{"A", 1, 3}}},
		},
	}})

	// Mutations apply in order, but no frame is published without a flush.
	waitFor(t, func() { v.ProcessEvents() },
		func() bool { c, ok := v.grid.CellAt(0, 2); return ok && c.Char == 'A' },
		"grid content")
	if v.Frame() != 0 {
		t.Fatalf("frame = %d before flush, want 0", v.Frame())
	}
	if v.grid.width != 10 || v.grid.height != 3 {
		t.Fatalf("grid = %dx%d, want 10x3", v.grid.width, v.grid.height)
	}
	for col := 0; col < 3; col++ {
		c, _ := v.grid.CellAt(0, col)
		if c.Char != 'A' || !c.Bold || c.Fg != (Color{R: 0x11, G: 0x22, B: 0x33}) {
			t.Fatalf("col %d = %+v, want bold highlighted A", col, c)
		}
	}

	ts.emit(t, []interface{}{2, "redraw", []interface{}{
		[]interface{}{"flush", []interface{}{}},
	}})
	waitFor(t, func() { v.ProcessEvents() },
		func() bool { return v.Frame() == 1 },
		"flush frame")

	// A flush with nothing new behind it publishes no frame.
	ts.emit(t, []interface{}{2, "redraw", []interface{}{
		[]interface{}{"flush", []interface{}{}},
	}})
	ts.emit(t, []interface{}{2, "redraw", []interface{}{
		[]interface{}{"grid_cursor_goto", []interface{}{1, 0, 1}},
		[]interface{}{"flush", []interface{}{}},
	}})
	waitFor(t, func() { v.ProcessEvents() },
		func() bool { return v.Frame() == 2 },
		"second frame")
	if row, col := v.grid.Cursor(); row != 0 || col != 1 {
		t.Fatalf("cursor = (%d,%d), want (0,1)", row, col)
	}
}

func TestViewGridScrollEvent(t *testing.T) {
	v, ts := newTestView(t, 6, 4)

	ts.emit(t, []interface{}{2, "redraw", []interface{}{
		[]interface{}{"grid_line",
			[]interface{}{1, 0, 0, []interface{}{[]interface{}{"a", 0, 6}}},
			[]interface{}{1, 1, 0, []interface{}{[]interface{}{"b", 0, 6}}},
			[]interface{}{1, 2, 0, []interface{}{[]interface{}{"c", 0, 6}}},
		},
		[]interface{}{"grid_scroll", []interface{}{1, 0, 3, 0, 6, 1, 0}},
		[]interface{}{"flush", []interface{}{}},
	}})

	waitFor(t, func() { v.ProcessEvents() },
		func() bool { return v.Frame() == 1 },
		"scrolled frame")

	// Rows shifted toward the top; the vacated row is cleared.
	if c, _ := v.grid.CellAt(0, 0); c.Char != 'b' {
		t.Fatalf("row 0 = %q, want b", c.Char)
	}
	if c, _ := v.grid.CellAt(1, 0); c.Char != 'c' {
		t.Fatalf("row 1 = %q, want c", c.Char)
	}
	if c, _ := v.grid.CellAt(2, 0); c.Char != ' ' {
		t.Fatalf("row 2 = %q, want cleared", c.Char)
	}
}

func TestViewBufferExtentCorrelation(t *testing.T) {
	v, ts := newTestView(t, 10, 3)

	done := make(chan struct{})
	go func() {
		v.RequestBufferExtent()
		close(done)
	}()
	id, method, args := ts.readRequest(t)
	<-done
	if method != "nvim_eval" {
		t.Fatalf("method = %s, want nvim_eval", method)
	}
	if len(args) != 1 {
		t.Fatalf("args = %v", args)
	}
	if expr, _ := asString(args[0]); expr != "line('$')" {
		t.Fatalf("expr = %v", args[0])
	}

	// Only one query stays in flight.
	v.RequestBufferExtent()
	if v.lastLineReqID != id {
		t.Fatalf("in-flight id = %d, want %d", v.lastLineReqID, id)
	}

	ts.emit(t, []interface{}{1, id, nil, 230})
	waitFor(t, func() { v.ProcessEvents() },
		func() bool { return v.BufferLastLine() == 230 },
		"buffer extent response")
	if v.lastLineReqID != 0 {
		t.Fatal("in-flight id not cleared by the response")
	}
}

func TestViewBoundaryPolicies(t *testing.T) {
	v, _ := newTestView(t, 10, 3)

	writeMargin := func(row int, text string) {
		for i, r := range text {
			v.grid.UpdateLine(row, i, runsFor(string(r), 0, 1))
		}
	}

	// Unknown margins: conservatively at top, bottom decided by the empty
	// last-row probe.
	if !v.AtBufferTop() {
		t.Fatal("unknown top margin should count as at-top")
	}
	if !v.AtBufferBottom() {
		t.Fatal("blank last row should count as at-bottom")
	}

	writeMargin(0, "   5 ")
	writeMargin(v.grid.height-slackRows-1, "   7 ")
	writeMargin(v.grid.height-1, "   9 ")
	v.bufferLastLine = 20

	if v.AtBufferTop() {
		t.Fatal("line 5 on top should not be at-top")
	}
	if v.AtBufferBottom() {
		t.Fatal("line 7 of 20 should not be at-bottom")
	}
	up, down := v.scrollBounds()
	if up != 4 || down != 13 {
		t.Fatalf("bounds = %d,%d, want 4,13", up, down)
	}

	v.bufferLastLine = 7
	if !v.AtBufferBottom() {
		t.Fatal("line 7 of 7 should be at-bottom")
	}

	writeMargin(0, "   1 ")
	if !v.AtBufferTop() {
		t.Fatal("line 1 on top should be at-top")
	}
}

func TestViewTickForwardsWholeLines(t *testing.T) {
	v, ts := newTestView(t, 10, 3)
	requests := ts.drainRequests()
	v.animator.SetCellHeight(10)

	writeMargin := func(row int, text string) {
		for i, r := range text {
			v.grid.UpdateLine(row, i, runsFor(string(r), 0, 1))
		}
	}
	writeMargin(0, "  20 ")
	writeMargin(v.grid.height-slackRows-1, "  22 ")
	v.bufferLastLine = 100

	v.ScrollPixels(at(0), 35)
	residual, alive := v.Tick(at(16))
	if !alive {
		t.Fatal("session reported dead")
	}
	if residual != 5 {
		t.Fatalf("residual = %v, want 5 after consuming 3 lines", residual)
	}
	if v.pendingScroll != 3 {
		t.Fatalf("pendingScroll = %d, want 3", v.pendingScroll)
	}

	req := <-requests
	if req.Method != "nvim_input" {
		t.Fatalf("method = %s, want nvim_input", req.Method)
	}
	if keys, _ := asString(req.Args[0]); keys != "<C-y><C-y><C-y>" {
		t.Fatalf("keys = %v", req.Args[0])
	}
	req = <-requests
	if req.Method != "nvim_eval" {
		t.Fatalf("method = %s, want follow-up nvim_eval", req.Method)
	}

	// The editor acknowledges with a grid_scroll; the pending count clears.
	ts.emit(t, []interface{}{2, "redraw", []interface{}{
		[]interface{}{"grid_scroll", []interface{}{1, 0, 5, 0, 10, -3, 0}},
		[]interface{}{"flush", []interface{}{}},
	}})
	ms := 32
	waitFor(t, func() {
		v.Tick(at(ms))
		ms += 16
	}, func() bool { return v.pendingScroll == 0 }, "scroll acknowledgment")
}

func TestViewChunkReuseBetweenFrames(t *testing.T) {
	v, ts := newTestView(t, 6, 3)

	// Repeated reads between content changes hit the same cached span.
	first := v.ChunkFor(12)
	if first == nil || len(first.Cells) == 0 {
		t.Fatal("chunk not materialized")
	}
	if v.ChunkFor(12) != first {
		t.Fatal("resident chunk not reused")
	}
	if v.ChunkFor(13) != first {
		t.Fatal("line inside the span missed the chunk")
	}

	// A published frame invalidates cached spans.
	ts.emit(t, []interface{}{2, "redraw", []interface{}{
		[]interface{}{"grid_line",
			[]interface{}{1, 0, 0, []interface{}{[]interface{}{"x", 0, 6}}},
		},
		[]interface{}{"flush", []interface{}{}},
	}})
	waitFor(t, func() { v.ProcessEvents() },
		func() bool { return v.Frame() == 1 },
		"frame after content change")
	if v.Cache().Len() != 0 {
		t.Fatalf("cache holds %d chunks after flush, want 0", v.Cache().Len())
	}
	if v.ChunkFor(12) == first {
		t.Fatal("stale chunk survived a published frame")
	}
}

func TestViewTickSnapsStuckScroll(t *testing.T) {
	v, ts := newTestView(t, 10, 3)
	_ = ts.drainRequests()
	v.animator.SetCellHeight(10)

	writeMargin := func(row int, text string) {
		for i, r := range text {
			v.grid.UpdateLine(row, i, runsFor(string(r), 0, 1))
		}
	}
	writeMargin(0, "  20 ")
	writeMargin(v.grid.height-slackRows-1, "  22 ")
	v.bufferLastLine = 100

	v.ScrollPixels(at(0), 35)
	for i := 0; i < stuckScrollLimit+5; i++ {
		v.Tick(at(16 * (i + 1)))
	}
	if v.pendingScroll != 0 {
		t.Fatalf("pendingScroll = %d after snap, want 0", v.pendingScroll)
	}
	if v.animator.Residual() != 0 {
		t.Fatalf("residual = %v after snap, want 0", v.animator.Residual())
	}
}
