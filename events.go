package glideterm

import (
	"fmt"
	"log/slog"
)

// RedrawMethod is the notification method carrying batched UI updates.
const RedrawMethod = "redraw"

// RedrawEvent is a single typed instruction from the editor describing a
// grid mutation. The variant set is closed; unrecognized event names are
// passed through as OtherEvent for forward compatibility.
type RedrawEvent interface {
	redrawEvent()
}

// GridLine updates a span of one row with run-length encoded cells.
type GridLine struct {
	Grid     int64
	Row      int
	ColStart int
	Runs     []CellRun
}

// GridScroll shifts a rectangular region by Rows (and, per protocol shape,
// Cols, which is always zero in practice).
type GridScroll struct {
	Grid                     int64
	Top, Bottom, Left, Right int
	Rows, Cols               int
}

// GridResize announces new grid dimensions.
type GridResize struct {
	Grid          int64
	Width, Height int
}

// GridClear resets the whole grid to default cells.
type GridClear struct {
	Grid int64
}

// GridCursorGoto moves the cursor.
type GridCursorGoto struct {
	Grid     int64
	Row, Col int
}

// DefaultColorsSet updates the session default colors. Each field is
// independently optional.
type DefaultColorsSet struct {
	Fg, Bg, Sp *Color
}

// HlAttrDefine defines or redefines a highlight attribute id.
type HlAttrDefine struct {
	ID    int64
	Attrs HighlightAttrs
}

// ModeInfo describes cursor styling for one editor mode. Zero values mean
// the editor did not supply the field.
type ModeInfo struct {
	CursorShape    string
	CellPercentage int
	BlinkWait      int
	BlinkOn        int
	BlinkOff       int
}

// ModeInfoSet carries cursor styling metadata for all modes.
type ModeInfoSet struct {
	CursorStyleEnabled bool
	Modes              []ModeInfo
}

// ModeChange announces the active editor mode.
type ModeChange struct {
	Name  string
	Index int
}

// Flush marks the end of a redraw batch: accumulated state now represents
// a consistent frame and may be presented.
type Flush struct{}

// OtherEvent is the opaque fallback for event names this client does not
// interpret.
type OtherEvent struct {
	Name string
}

func (GridLine) redrawEvent()         {}
func (GridScroll) redrawEvent()       {}
func (GridResize) redrawEvent()       {}
func (GridClear) redrawEvent()        {}
func (GridCursorGoto) redrawEvent()   {}
func (DefaultColorsSet) redrawEvent() {}
func (HlAttrDefine) redrawEvent()     {}
func (ModeInfoSet) redrawEvent()      {}
func (ModeChange) redrawEvent()       {}
func (Flush) redrawEvent()            {}
func (OtherEvent) redrawEvent()       {}

// ParseRedraw decodes the payload of a redraw notification: an ordered
// sequence of batches, each [event_name, params_1, params_2, ...]. One name
// can occur multiple times per batch; every occurrence is parsed
// independently. A malformed occurrence is logged and dropped without
// aborting the rest of the batch; only a structurally broken payload
// returns an error.
func ParseRedraw(args []interface{}, logger *slog.Logger) ([]RedrawEvent, error) {
	events := make([]RedrawEvent, 0, len(args))

	for _, batch := range args {
		batchArr, ok := batch.([]interface{})
		if !ok {
			return nil, fmt.Errorf("redraw: batch is not an array")
		}
		if len(batchArr) == 0 {
			continue
		}
		name, ok := asString(batchArr[0])
		if !ok {
			return nil, fmt.Errorf("redraw: batch name is not a string")
		}

		for _, occurrence := range batchArr[1:] {
			ev, err := parseRedrawEvent(name, occurrence)
			if err != nil {
				logger.Warn("dropping malformed redraw event", "event", name, "error", err)
				continue
			}
			events = append(events, ev)
		}
	}

	return events, nil
}

func parseRedrawEvent(name string, params interface{}) (RedrawEvent, error) {
	arr, ok := params.([]interface{})
	if !ok {
		return nil, fmt.Errorf("params are not an array")
	}

	switch name {
	case "grid_line":
		grid, err := intField(arr, 0, "grid")
		if err != nil {
			return nil, err
		}
		row, err := intField(arr, 1, "row")
		if err != nil {
			return nil, err
		}
		colStart, err := intField(arr, 2, "col_start")
		if err != nil {
			return nil, err
		}
		if len(arr) < 4 {
			return nil, fmt.Errorf("missing cells")
		}
		cellsArr, ok := arr[3].([]interface{})
		if !ok {
			return nil, fmt.Errorf("cells are not an array")
		}
		runs, err := parseCellRuns(cellsArr)
		if err != nil {
			return nil, err
		}
		return GridLine{Grid: grid, Row: int(row), ColStart: int(colStart), Runs: runs}, nil

	case "grid_scroll":
		fields := make([]int64, 6)
		names := []string{"grid", "top", "bot", "left", "right", "rows"}
		for i := range fields {
			v, err := intField(arr, i, names[i])
			if err != nil {
				return nil, err
			}
			fields[i] = v
		}
		cols := int64(0)
		if len(arr) > 6 {
			cols, _ = asInt64(arr[6])
		}
		return GridScroll{
			Grid: fields[0],
			Top:  int(fields[1]), Bottom: int(fields[2]),
			Left: int(fields[3]), Right: int(fields[4]),
			Rows: int(fields[5]), Cols: int(cols),
		}, nil

	case "grid_resize":
		grid, err := intField(arr, 0, "grid")
		if err != nil {
			return nil, err
		}
		width, err := intField(arr, 1, "width")
		if err != nil {
			return nil, err
		}
		height, err := intField(arr, 2, "height")
		if err != nil {
			return nil, err
		}
		return GridResize{Grid: grid, Width: int(width), Height: int(height)}, nil

	case "grid_clear":
		grid, err := intField(arr, 0, "grid")
		if err != nil {
			return nil, err
		}
		return GridClear{Grid: grid}, nil

	case "grid_cursor_goto":
		grid, err := intField(arr, 0, "grid")
		if err != nil {
			return nil, err
		}
		row, err := intField(arr, 1, "row")
		if err != nil {
			return nil, err
		}
		col, err := intField(arr, 2, "col")
		if err != nil {
			return nil, err
		}
		return GridCursorGoto{Grid: grid, Row: int(row), Col: int(col)}, nil

	case "default_colors_set":
		// [fg, bg, sp, cterm_fg, cterm_bg]; each RGB value optional.
		ev := DefaultColorsSet{}
		ev.Fg = optionalColor(arr, 0)
		ev.Bg = optionalColor(arr, 1)
		ev.Sp = optionalColor(arr, 2)
		return ev, nil

	case "hl_attr_define":
		// [id, rgb_attrs, cterm_attrs, info]
		id, err := intField(arr, 0, "id")
		if err != nil {
			return nil, err
		}
		var attrs HighlightAttrs
		if len(arr) > 1 {
			if m, ok := asMap(arr[1]); ok {
				attrs = parseHighlightAttrs(m)
			}
		}
		return HlAttrDefine{ID: id, Attrs: attrs}, nil

	case "mode_info_set":
		ev := ModeInfoSet{}
		if len(arr) > 0 {
			ev.CursorStyleEnabled = asBool(arr[0])
		}
		if len(arr) > 1 {
			if modes, ok := arr[1].([]interface{}); ok {
				for _, m := range modes {
					if info, ok := asMap(m); ok {
						ev.Modes = append(ev.Modes, parseModeInfo(info))
					}
				}
			}
		}
		return ev, nil

	case "mode_change":
		name, err := strField(arr, 0, "mode name")
		if err != nil {
			return nil, err
		}
		idx := int64(0)
		if len(arr) > 1 {
			idx, _ = asInt64(arr[1])
		}
		return ModeChange{Name: name, Index: int(idx)}, nil

	case "flush":
		return Flush{}, nil
	}

	return OtherEvent{Name: name}, nil
}

// parseCellRuns decodes grid_line cell tuples [text, hl_id?, repeat?].
// Runs are preserved verbatim; the grid expands them.
func parseCellRuns(cells []interface{}) ([]CellRun, error) {
	runs := make([]CellRun, 0, len(cells))
	for _, c := range cells {
		tuple, ok := c.([]interface{})
		if !ok || len(tuple) == 0 {
			return nil, fmt.Errorf("cell tuple is not a non-empty array")
		}
		text, ok := asString(tuple[0])
		if !ok {
			return nil, fmt.Errorf("cell text is not a string")
		}
		run := CellRun{Text: text, Repeat: 1}
		if len(tuple) > 1 {
			if id, ok := asInt64(tuple[1]); ok {
				run.HlID = id
				run.HasHl = true
			}
		}
		if len(tuple) > 2 {
			if rep, ok := asInt64(tuple[2]); ok {
				run.Repeat = int(rep)
			}
		}
		runs = append(runs, run)
	}
	return runs, nil
}

func parseHighlightAttrs(m map[string]interface{}) HighlightAttrs {
	var attrs HighlightAttrs
	for key, value := range m {
		switch key {
		case "foreground":
			if n, ok := asInt64(value); ok {
				attrs.Foreground = UnpackRGB(uint32(n))
				attrs.HasForeground = true
			}
		case "background":
			if n, ok := asInt64(value); ok {
				attrs.Background = UnpackRGB(uint32(n))
				attrs.HasBackground = true
			}
		case "special":
			if n, ok := asInt64(value); ok {
				attrs.Special = UnpackRGB(uint32(n))
				attrs.HasSpecial = true
			}
		case "reverse":
			attrs.Reverse = asBool(value)
		case "italic":
			attrs.Italic = asBool(value)
		case "bold":
			attrs.Bold = asBool(value)
		case "strikethrough":
			attrs.Strikethrough = asBool(value)
		case "underline":
			attrs.Underline = asBool(value)
		case "undercurl":
			attrs.Undercurl = asBool(value)
		case "blend":
			if n, ok := asInt64(value); ok {
				attrs.Blend = uint8(n)
				attrs.HasBlend = true
			}
		}
	}
	return attrs
}

func parseModeInfo(m map[string]interface{}) ModeInfo {
	var info ModeInfo
	if s, ok := asString(m["cursor_shape"]); ok {
		info.CursorShape = s
	}
	if n, ok := asInt64(m["cell_percentage"]); ok {
		info.CellPercentage = int(n)
	}
	if n, ok := asInt64(m["blinkwait"]); ok {
		info.BlinkWait = int(n)
	}
	if n, ok := asInt64(m["blinkon"]); ok {
		info.BlinkOn = int(n)
	}
	if n, ok := asInt64(m["blinkoff"]); ok {
		info.BlinkOff = int(n)
	}
	return info
}

func intField(arr []interface{}, idx int, name string) (int64, error) {
	if idx >= len(arr) {
		return 0, fmt.Errorf("missing %s", name)
	}
	n, ok := asInt64(arr[idx])
	if !ok {
		return 0, fmt.Errorf("%s is not an integer", name)
	}
	return n, nil
}

func strField(arr []interface{}, idx int, name string) (string, error) {
	if idx >= len(arr) {
		return "", fmt.Errorf("missing %s", name)
	}
	s, ok := asString(arr[idx])
	if !ok {
		return "", fmt.Errorf("%s is not a string", name)
	}
	return s, nil
}

func optionalColor(arr []interface{}, idx int) *Color {
	if idx >= len(arr) {
		return nil
	}
	n, ok := asInt64(arr[idx])
	if !ok || n < 0 {
		return nil
	}
	c := UnpackRGB(uint32(n))
	return &c
}
