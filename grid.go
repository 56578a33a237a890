package glideterm

// Grid mirrors the editor's character grid. It owns the cell matrix, the
// cursor, the session default colors and the highlight attribute table.
//
// The grid is owned exclusively by the presentation tick: the session reader
// never touches it, so no locking is needed. Updates that address cells
// outside the current bounds are dropped silently; the protocol is allowed
// to race ahead of or behind acknowledged dimensions.
type Grid struct {
	width  int
	height int

	// Row-major cell storage, always exactly width*height entries.
	cells []Cell

	cursorRow int
	cursorCol int

	defaultFg Color
	defaultBg Color
	defaultSp Color

	// Highlight attribute table. Append/overwrite only; survives resize
	// and clear, replaced only by explicit redefinition.
	hlAttrs map[int64]HighlightAttrs
}

// NewGrid creates a grid with the given dimensions, default-initialized.
func NewGrid(width, height int) *Grid {
	g := &Grid{
		defaultFg: DefaultForeground,
		defaultBg: DefaultBackground,
		defaultSp: DefaultSpecial,
		hlAttrs:   make(map[int64]HighlightAttrs),
	}
	g.Resize(width, height)
	return g
}

// Size returns the current grid dimensions.
func (g *Grid) Size() (width, height int) {
	return g.width, g.height
}

// Resize reallocates the cell array for the new dimensions. Old content is
// not preserved: the protocol resizes and then repaints, so migration would
// be wasted work. Degenerate dimensions are clamped to zero.
func (g *Grid) Resize(width, height int) {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	g.width = width
	g.height = height
	g.cells = make([]Cell, width*height)
	for i := range g.cells {
		g.cells[i] = EmptyCellWithColors(g.defaultFg, g.defaultBg, g.defaultSp)
	}
}

// Clear resets every cell to the default without changing dimensions.
func (g *Grid) Clear() {
	for i := range g.cells {
		g.cells[i] = EmptyCellWithColors(g.defaultFg, g.defaultBg, g.defaultSp)
	}
}

// SetDefaultColors updates the session default colors. Each color is
// independently optional; nil leaves the previous value unchanged.
func (g *Grid) SetDefaultColors(fg, bg, sp *Color) {
	if fg != nil {
		g.defaultFg = *fg
	}
	if bg != nil {
		g.defaultBg = *bg
	}
	if sp != nil {
		g.defaultSp = *sp
	}
}

// DefaultColors returns the current session default colors.
func (g *Grid) DefaultColors() (fg, bg, sp Color) {
	return g.defaultFg, g.defaultBg, g.defaultSp
}

// DefineHlAttr inserts or overwrites a highlight attribute definition.
// Definitions are never evicted automatically.
func (g *Grid) DefineHlAttr(id int64, attrs HighlightAttrs) {
	g.hlAttrs[id] = attrs
}

// HlAttr looks up a highlight attribute definition.
func (g *Grid) HlAttr(id int64) (HighlightAttrs, bool) {
	attrs, ok := g.hlAttrs[id]
	return attrs, ok
}

// resolveRun builds the concrete cell for a run: highlight id resolved
// against the attribute table, unset fields falling back to the session
// defaults. The run's text is truncated to its first code point; the
// protocol guarantees single-glyph runs, so anything longer is a
// documented limitation rather than an error.
func (g *Grid) resolveRun(run CellRun) Cell {
	var attrs HighlightAttrs
	if run.HasHl {
		attrs = g.hlAttrs[run.HlID]
	}

	cell := Cell{
		Char:      ' ',
		Fg:        g.defaultFg,
		Bg:        g.defaultBg,
		Special:   g.defaultSp,
		Bold:      attrs.Bold,
		Italic:    attrs.Italic,
		Underline: attrs.Underline || attrs.Undercurl,
	}
	if attrs.HasForeground {
		cell.Fg = attrs.Foreground
	}
	if attrs.HasBackground {
		cell.Bg = attrs.Background
	}
	if attrs.HasSpecial {
		cell.Special = attrs.Special
	}
	for _, r := range run.Text {
		cell.Char = r
		break
	}
	return cell
}

// UpdateLine applies a grid_line event: each run is resolved and written
// Repeat times starting at colStart, advancing one column per repetition.
// Writes past the row's width are truncated, never wrapped; writes to a
// nonexistent row are ignored.
func (g *Grid) UpdateLine(row, colStart int, runs []CellRun) {
	if row < 0 || row >= g.height {
		return
	}

	col := colStart
	for _, run := range runs {
		cell := g.resolveRun(run)
		repeat := run.Repeat
		if repeat < 1 {
			repeat = 1
		}
		for i := 0; i < repeat; i++ {
			if col >= 0 && col < g.width {
				g.cells[row*g.width+col] = cell
			}
			col++
		}
	}
}

// SetCursor records the cursor position. Not bounds-checked: a position
// from before a shrink is retained verbatim until the next cursor event.
func (g *Grid) SetCursor(row, col int) {
	g.cursorRow = row
	g.cursorCol = col
}

// Cursor returns the last reported cursor position.
func (g *Grid) Cursor() (row, col int) {
	return g.cursorRow, g.cursorCol
}

// CellAt returns the cell at the given position, or false if out of bounds.
func (g *Grid) CellAt(row, col int) (Cell, bool) {
	if row < 0 || row >= g.height || col < 0 || col >= g.width {
		return Cell{}, false
	}
	return g.cells[row*g.width+col], true
}

// RenderableCells flattens the grid into positioned cells for a frontend.
func (g *Grid) RenderableCells() []RenderableCell {
	out := make([]RenderableCell, 0, len(g.cells))
	for row := 0; row < g.height; row++ {
		for col := 0; col < g.width; col++ {
			c := g.cells[row*g.width+col]
			out = append(out, RenderableCell{
				Line:      row,
				Col:       col,
				Char:      c.Char,
				Fg:        c.Fg,
				Bg:        c.Bg,
				Special:   c.Special,
				Bold:      c.Bold,
				Italic:    c.Italic,
				Underline: c.Underline,
			})
		}
	}
	return out
}
