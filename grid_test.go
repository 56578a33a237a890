package glideterm

import "testing"

func runsFor(text string, hl int64, repeat int) []CellRun {
	return []CellRun{{Text: text, HlID: hl, HasHl: hl != 0, Repeat: repeat}}
}

func TestGridResizeDefaults(t *testing.T) {
	tests := []struct {
		name          string
		width, height int
		wantLen       int
	}{
		{"typical", 80, 24, 80 * 24},
		{"single cell", 1, 1, 1},
		{"zero width", 0, 10, 0},
		{"negative clamped", -3, -4, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewGrid(5, 5)
			g.UpdateLine(0, 0, runsFor("x", 0, 3))

			g.Resize(tt.width, tt.height)
			if len(g.cells) != tt.wantLen {
				t.Fatalf("cells len = %d, want %d", len(g.cells), tt.wantLen)
			}
			def := EmptyCellWithColors(g.defaultFg, g.defaultBg, g.defaultSp)
			for i, c := range g.cells {
				if c != def {
					t.Fatalf("cell %d = %+v, want default", i, c)
				}
			}
		})
	}
}

func TestGridUpdateLineRepeat(t *testing.T) {
	g := NewGrid(10, 3)
	g.DefineHlAttr(1, HighlightAttrs{
		Foreground: Color{R: 10, G: 20, B: 30}, HasForeground: true,
		Bold: true,
	})

	g.UpdateLine(1, 2, []CellRun{{Text: "A", HlID: 1, HasHl: true, Repeat: 3}})

	for col := 2; col < 5; col++ {
		c, _ := g.CellAt(1, col)
		if c.Char != 'A' || !c.Bold || c.Fg != (Color{R: 10, G: 20, B: 30}) {
			t.Fatalf("col %d = %+v, want bold A", col, c)
		}
	}
	// Neighbors and other rows untouched.
	for _, pos := range [][2]int{{1, 1}, {1, 5}, {0, 2}, {2, 3}} {
		c, _ := g.CellAt(pos[0], pos[1])
		if c.Char != ' ' {
			t.Fatalf("cell (%d,%d) = %q, want blank", pos[0], pos[1], c.Char)
		}
	}
}

func TestGridUpdateLineTruncation(t *testing.T) {
	g := NewGrid(4, 2)

	// Run overflows the row width; excess repetitions are dropped, never
	// wrapped to the next row.
	g.UpdateLine(0, 2, runsFor("z", 0, 5))

	for col := 2; col < 4; col++ {
		if c, _ := g.CellAt(0, col); c.Char != 'z' {
			t.Fatalf("col %d = %q, want z", col, c.Char)
		}
	}
	for col := 0; col < 4; col++ {
		if c, _ := g.CellAt(1, col); c.Char != ' ' {
			t.Fatalf("row 1 col %d = %q, want blank", col, c.Char)
		}
	}

	// Nonexistent row is ignored outright.
	g.UpdateLine(7, 0, runsFor("q", 0, 1))
	g.UpdateLine(-1, 0, runsFor("q", 0, 1))
}

func TestGridUpdateLineHighlightFallback(t *testing.T) {
	g := NewGrid(3, 1)
	fg := Color{R: 1, G: 2, B: 3}
	g.SetDefaultColors(&fg, nil, nil)

	// Unknown highlight id resolves to session defaults.
	g.UpdateLine(0, 0, []CellRun{{Text: "x", HlID: 99, HasHl: true, Repeat: 1}})
	c, _ := g.CellAt(0, 0)
	if c.Fg != fg || c.Bg != DefaultBackground {
		t.Fatalf("cell = %+v, want session defaults", c)
	}

	// Multi-glyph text truncates to the first code point.
	g.UpdateLine(0, 1, runsFor("abc", 0, 1))
	if c, _ := g.CellAt(0, 1); c.Char != 'a' {
		t.Fatalf("char = %q, want a", c.Char)
	}
}

func TestGridScrollRegionRoundTrip(t *testing.T) {
	g := NewGrid(6, 6)
	for row := 0; row < 6; row++ {
		g.UpdateLine(row, 0, runsFor(string(rune('a'+row)), 0, 6))
	}

	before := make([]Cell, len(g.cells))
	copy(before, g.cells)

	g.ScrollRegion(1, 5, 0, 6, 2)
	g.ScrollRegion(1, 5, 0, 6, -2)

	// Rows that never left the region survive the round trip; rows exposed
	// at the edges are default cells.
	for row := 3; row < 5; row++ {
		for col := 0; col < 6; col++ {
			got, _ := g.CellAt(row, col)
			if got != before[row*6+col] {
				t.Fatalf("row %d col %d changed across round trip", row, col)
			}
		}
	}
	for row := 1; row < 3; row++ {
		for col := 0; col < 6; col++ {
			if c, _ := g.CellAt(row, col); c.Char != ' ' {
				t.Fatalf("exposed row %d col %d = %q, want blank", row, col, c.Char)
			}
		}
	}
	// Rows outside the region are untouched in both directions.
	for _, row := range []int{0, 5} {
		for col := 0; col < 6; col++ {
			got, _ := g.CellAt(row, col)
			if got != before[row*6+col] {
				t.Fatalf("row %d outside region changed", row)
			}
		}
	}
}

func TestGridScrollRegionShift(t *testing.T) {
	g := NewGrid(4, 4)
	for row := 0; row < 4; row++ {
		g.UpdateLine(row, 0, runsFor(string(rune('0'+row)), 0, 4))
	}

	g.ScrollRegion(0, 4, 0, 4, 1)

	// Content moved toward row 0: row 2 now holds what row 3 held.
	if c, _ := g.CellAt(2, 0); c.Char != '3' {
		t.Fatalf("row 2 = %q, want content from row 3", c.Char)
	}
	if c, _ := g.CellAt(0, 0); c.Char != '1' {
		t.Fatalf("row 0 = %q, want content from row 1", c.Char)
	}
	if c, _ := g.CellAt(3, 0); c.Char != ' ' {
		t.Fatalf("row 3 = %q, want cleared", c.Char)
	}
}

func TestGridScrollRegionClamping(t *testing.T) {
	g := NewGrid(3, 3)
	g.UpdateLine(0, 0, runsFor("a", 0, 3))

	// Region far outside the grid is clamped into it; no panic, no change
	// outside the clamped extent.
	g.ScrollRegion(-5, 100, -2, 50, 1)
	if c, _ := g.CellAt(0, 0); c.Char != ' ' {
		t.Fatalf("row 0 = %q, want shifted away", c.Char)
	}

	// Degenerate region after clamping is a no-op.
	g.UpdateLine(1, 0, runsFor("b", 0, 3))
	g.ScrollRegion(2, 2, 0, 3, 1)
	if c, _ := g.CellAt(1, 0); c.Char != 'b' {
		t.Fatalf("degenerate region mutated the grid")
	}
}

func TestGridCursorNotBoundsChecked(t *testing.T) {
	g := NewGrid(4, 4)
	g.SetCursor(10, 20)
	if row, col := g.Cursor(); row != 10 || col != 20 {
		t.Fatalf("cursor = (%d,%d), want retained (10,20)", row, col)
	}
}

func TestGridHighlightTableSurvivesResize(t *testing.T) {
	g := NewGrid(4, 4)
	g.DefineHlAttr(7, HighlightAttrs{Bold: true})

	g.Resize(2, 2)
	g.Clear()

	if attrs, ok := g.HlAttr(7); !ok || !attrs.Bold {
		t.Fatal("highlight definition lost across resize/clear")
	}
}

func TestBoundaryProbes(t *testing.T) {
	// Viewport of 3 rows plus slack; width carries a number margin.
	g := NewGrid(10, 3+slackRows)

	writeMargin := func(row int, text string) {
		for i, r := range text {
			g.UpdateLine(row, i, runsFor(string(r), 0, 1))
		}
	}

	writeMargin(0, "  12 ")
	writeMargin(g.height-slackRows-1, "  14 ")

	if line, ok := g.TopLineNumber(); !ok || line != 12 {
		t.Fatalf("TopLineNumber = %d,%v, want 12,true", line, ok)
	}
	if line, ok := g.BottomLineNumber(); !ok || line != 14 {
		t.Fatalf("BottomLineNumber = %d,%v, want 14,true", line, ok)
	}
	if !g.LastRowEmpty() {
		t.Fatal("LastRowEmpty = false, want true for blank slack row")
	}

	// A tilde margin (past end of buffer) is unparseable, not an error.
	writeMargin(0, "~    ")
	if _, ok := g.TopLineNumber(); ok {
		t.Fatal("TopLineNumber parsed a tilde margin")
	}

	writeMargin(g.height-1, "  99 ")
	if g.LastRowEmpty() {
		t.Fatal("LastRowEmpty = true with a numbered last row")
	}
}
