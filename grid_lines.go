package glideterm

import "strconv"

// lineNumberScanWidth is the number of leading columns scanned for a line
// number. Matches the default 'numberwidth' margin the editor renders.
const lineNumberScanWidth = 5

// slackRows is the number of extra grid rows requested beyond the visible
// viewport when attaching the UI. They give the scroll animator pre-rendered
// content below the viewport, and shift which row holds the last visible
// line number.
const slackRows = 2

// BoundaryProbe reports scroll-boundary facts scraped from grid content.
//
// The implementations are heuristic: they assume the editor renders line
// numbers in the left margin ('number' enabled, default margin width). When
// line numbering is disabled or the margin width differs, the probes return
// unknown and callers must fall back to another policy. This is a diagnostic
// aid for scroll-boundary detection, not a general grid query.
type BoundaryProbe interface {
	// TopLineNumber returns the document line number rendered on the first
	// grid row, or ok=false when it cannot be parsed.
	TopLineNumber() (line int, ok bool)
	// BottomLineNumber returns the document line number on the last visible
	// row (above the slack rows), or ok=false when it cannot be parsed.
	BottomLineNumber() (line int, ok bool)
	// LastRowEmpty reports whether the very last grid row carries no line
	// number, meaning the view has run past the end of the document.
	LastRowEmpty() bool
}

// Grid implements BoundaryProbe by scanning the line-number margin.
var _ BoundaryProbe = (*Grid)(nil)

// scanLineNumber reads the margin prefix of a row, keeping digits and
// spaces, and parses the result as a decimal line number.
func (g *Grid) scanLineNumber(row int) (int, bool) {
	if row < 0 || row >= g.height || g.width < lineNumberScanWidth {
		return 0, false
	}

	buf := make([]rune, 0, lineNumberScanWidth)
	for col := 0; col < lineNumberScanWidth && col < g.width; col++ {
		ch := g.cells[row*g.width+col].Char
		if (ch < '0' || ch > '9') && ch != ' ' {
			return 0, false
		}
		buf = append(buf, ch)
	}

	text := trimSpaces(string(buf))
	if text == "" {
		return 0, false
	}
	n, err := strconv.Atoi(text)
	if err != nil {
		return 0, false
	}
	return n, true
}

// TopLineNumber implements BoundaryProbe.
func (g *Grid) TopLineNumber() (int, bool) {
	if g.height == 0 {
		return 0, false
	}
	return g.scanLineNumber(0)
}

// BottomLineNumber implements BoundaryProbe. The grid carries slackRows
// extra rows below the viewport, so the last visible row sits above them.
func (g *Grid) BottomLineNumber() (int, bool) {
	if g.height < slackRows+1 {
		return 0, false
	}
	return g.scanLineNumber(g.height - slackRows - 1)
}

// LastRowEmpty implements BoundaryProbe.
func (g *Grid) LastRowEmpty() bool {
	if g.height < 1 {
		return false
	}
	_, ok := g.scanLineNumber(g.height - 1)
	return !ok
}

func trimSpaces(s string) string {
	start := 0
	for start < len(s) && s[start] == ' ' {
		start++
	}
	end := len(s)
	for end > start && s[end-1] == ' ' {
		end--
	}
	return s[start:end]
}
