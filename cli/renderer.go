package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/seleune/glideterm"
)

// renderedCell stores the last rendered state of a cell for diff
// comparison.
type renderedCell struct {
	char      rune
	fg        glideterm.Color
	bg        glideterm.Color
	bold      bool
	italic    bool
	underline bool
}

// Renderer draws the grid to the host terminal with ANSI sequences,
// updating only cells that changed since the previous frame.
type Renderer struct {
	term *Terminal

	lastCells [][]renderedCell
	output    strings.Builder
}

// NewRenderer creates a renderer for the terminal.
func NewRenderer(t *Terminal) *Renderer {
	return &Renderer{term: t}
}

// Invalidate drops the differential state so the next Render repaints
// everything. Called after a resize.
func (r *Renderer) Invalidate() {
	r.lastCells = nil
	os.Stdout.WriteString("\x1b[2J")
}

// Render draws the current grid state. Only the viewport rows are drawn;
// the slack rows below exist for the animator and never reach the screen.
func (r *Renderer) Render() {
	grid := r.term.view.Grid()
	width, _ := grid.Size()
	rows := r.term.rows

	if len(r.lastCells) != rows || (rows > 0 && len(r.lastCells[0]) != width) {
		r.lastCells = make([][]renderedCell, rows)
		for i := range r.lastCells {
			r.lastCells[i] = make([]renderedCell, width)
		}
	}

	r.output.Reset()
	defFg, defBg, _ := grid.DefaultColors()

	for row := 0; row < rows; row++ {
		for col := 0; col < width; col++ {
			cell, ok := grid.CellAt(row, col)
			rc := renderedCell{char: ' ', fg: defFg, bg: defBg}
			if ok {
				rc = renderedCell{
					char:      cell.Char,
					fg:        cell.Fg,
					bg:        cell.Bg,
					bold:      cell.Bold,
					italic:    cell.Italic,
					underline: cell.Underline,
				}
			}
			if rc == r.lastCells[row][col] {
				continue
			}
			r.lastCells[row][col] = rc
			r.emitCell(row, col, rc)
		}
	}

	// Park the host cursor on the editor cursor.
	curRow, curCol := grid.Cursor()
	if curRow >= 0 && curRow < rows && curCol >= 0 && curCol < width {
		fmt.Fprintf(&r.output, "\x1b[%d;%dH", curRow+1, curCol+1)
	}

	os.Stdout.WriteString(r.output.String())
}

// emitCell writes one cursor-move + SGR + glyph sequence.
func (r *Renderer) emitCell(row, col int, rc renderedCell) {
	fmt.Fprintf(&r.output, "\x1b[%d;%dH", row+1, col+1)

	r.output.WriteString("\x1b[0")
	if rc.bold {
		r.output.WriteString(";1")
	}
	if rc.italic {
		r.output.WriteString(";3")
	}
	if rc.underline {
		r.output.WriteString(";4")
	}
	fmt.Fprintf(&r.output, ";38;2;%d;%d;%d;48;2;%d;%d;%dm",
		rc.fg.R, rc.fg.G, rc.fg.B, rc.bg.R, rc.bg.G, rc.bg.B)

	ch := rc.char
	if ch == 0 {
		ch = ' '
	}
	r.output.WriteRune(ch)
}
