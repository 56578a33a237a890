package glideterm

// ScrollRegion applies a grid_scroll event: cell content inside the
// rectangle [top,bottom) x [left,right) moves by rows. Positive rows moves
// content toward row 0 (the viewport scrolls forward through the document),
// negative the opposite. Rows exposed by the shift are reset to default
// cells. Region coordinates outside the grid are clamped.
//
// Source rows are always read before they are overwritten: the copy runs
// top-to-bottom when content moves up and bottom-to-top when content moves
// down, so overlapping source and destination rows cannot corrupt each
// other within one call.
func (g *Grid) ScrollRegion(top, bottom, left, right, rows int) {
	if rows == 0 {
		return
	}

	top = clampInt(top, 0, g.height)
	bottom = clampInt(bottom, 0, g.height)
	left = clampInt(left, 0, g.width)
	right = clampInt(right, 0, g.width)
	if top >= bottom || left >= right {
		return
	}

	if rows > 0 {
		// Content moves up. Copy descending destination rows first.
		for row := top; row < bottom-rows; row++ {
			src := row + rows
			if src >= bottom {
				break
			}
			g.copyRowSpan(src, row, left, right)
		}
		clearTop := bottom - rows
		if clearTop < top {
			clearTop = top
		}
		for row := clearTop; row < bottom; row++ {
			g.clearRowSpan(row, left, right)
		}
		return
	}

	// Content moves down. Walk upward so sources are read unshifted.
	n := -rows
	for row := bottom - 1; row >= top+n; row-- {
		g.copyRowSpan(row-n, row, left, right)
	}
	clearBottom := top + n
	if clearBottom > bottom {
		clearBottom = bottom
	}
	for row := top; row < clearBottom; row++ {
		g.clearRowSpan(row, left, right)
	}
}

func (g *Grid) copyRowSpan(srcRow, dstRow, left, right int) {
	src := g.cells[srcRow*g.width+left : srcRow*g.width+right]
	dst := g.cells[dstRow*g.width+left : dstRow*g.width+right]
	copy(dst, src)
}

func (g *Grid) clearRowSpan(row, left, right int) {
	def := EmptyCellWithColors(g.defaultFg, g.defaultBg, g.defaultSp)
	base := row * g.width
	for col := left; col < right; col++ {
		g.cells[base+col] = def
	}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
