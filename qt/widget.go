//go:build cgo

// Package glidetermqt embeds a glideterm editor view in a Qt widget via
// miqt. A QPixmap double buffer carries the pre-rendered content; paint
// events blit it at the animator's sub-line pixel offset.
package glidetermqt

import (
	"time"

	"github.com/mappu/miqt/qt"

	"github.com/seleune/glideterm"
)

// Left padding for editor content (pixels)
const terminalLeftPadding = 8

// Qt font size scale factor to match Pango font rendering
const qtFontSizeScale = 1.333

// Tick interval in milliseconds, roughly 60fps.
const tickIntervalMs = 16

// Widget hosts one embedded editor view inside a QWidget.
type Widget struct {
	widget    *qt.QWidget
	tickTimer *qt.QTimer

	view    *glideterm.View
	surface *glideterm.OffscreenSurface

	fontFamily string
	fontSize   int
	charWidth  int
	charHeight int
	charAscent int

	pixelOffset float64
	lastFrame   int64
	alive       bool

	// Called once when the editor process exits.
	onExit func()
}

// NewWidget spawns the editor sized cols x rows and wires the widget, the
// input handlers and the presentation tick.
func NewWidget(cols, rows int, cfg glideterm.ViewConfig) (*Widget, error) {
	w := &Widget{
		widget:     qt.NewQWidget2(),
		fontFamily: "Monospace",
		fontSize:   14,
		alive:      true,
	}
	w.updateFontMetrics()

	cfg.CellHeight = float64(w.charHeight)
	view, err := glideterm.NewView(cols, rows, cfg)
	if err != nil {
		return nil, err
	}
	w.view = view
	w.surface = glideterm.NewOffscreenSurface(pixmapContext{})

	w.widget.SetFocusPolicy(qt.StrongFocus)
	w.widget.SetMinimumSize2(100, 50)

	w.widget.OnPaintEvent(func(super func(event *qt.QPaintEvent), event *qt.QPaintEvent) {
		w.paintEvent(event)
	})
	w.widget.OnKeyPressEvent(func(super func(event *qt.QKeyEvent), event *qt.QKeyEvent) {
		w.keyPressEvent(event)
	})
	w.widget.OnWheelEvent(func(super func(event *qt.QWheelEvent), event *qt.QWheelEvent) {
		w.wheelEvent(event)
	})
	w.widget.OnResizeEvent(func(super func(event *qt.QResizeEvent), event *qt.QResizeEvent) {
		w.resizeEvent(event)
	})

	w.tickTimer = qt.NewQTimer2(w.widget.QObject)
	w.tickTimer.OnTimeout(w.onTick)
	w.tickTimer.Start(tickIntervalMs)

	return w, nil
}

// QWidget returns the widget for embedding into a layout or window.
func (w *Widget) QWidget() *qt.QWidget {
	return w.widget
}

// View returns the underlying editor view.
func (w *Widget) View() *glideterm.View {
	return w.view
}

// SetExitCallback registers a callback invoked once when the editor
// process dies.
func (w *Widget) SetExitCallback(fn func()) {
	w.onExit = fn
}

// SetFont changes the font and recomputes metrics and dimensions.
func (w *Widget) SetFont(family string, size int) {
	w.fontFamily = family
	w.fontSize = size
	w.updateFontMetrics()
	w.view.SetCellHeight(float64(w.charHeight))
	w.applySize(w.widget.Width(), w.widget.Height())
	w.widget.Update()
}

// Close stops the tick, releases the double buffer and terminates the
// editor.
func (w *Widget) Close() {
	if w.tickTimer != nil {
		w.tickTimer.Stop()
	}
	w.surface.Release()
	w.view.Close()
}

func (w *Widget) onTick() {
	offset, alive := w.view.Tick(time.Now())
	if !alive {
		if w.alive {
			w.alive = false
			w.tickTimer.Stop()
			if w.onExit != nil {
				w.onExit()
			}
		}
		return
	}

	if offset != w.pixelOffset || w.view.Frame() != w.lastFrame {
		w.pixelOffset = offset
		w.lastFrame = w.view.Frame()
		w.widget.Update()
	}
}

// effectiveFontSize compensates for Qt interpreting point sizes
// differently than Pango.
func (w *Widget) effectiveFontSize() int {
	return int(float64(w.fontSize) * qtFontSizeScale)
}

func (w *Widget) updateFontMetrics() {
	font := qt.NewQFont6(w.fontFamily, w.effectiveFontSize())
	font.SetFixedPitch(true)
	metrics := qt.NewQFontMetrics(font)
	w.charWidth = metrics.AverageCharWidth()
	w.charHeight = metrics.Height()
	w.charAscent = metrics.Ascent()
	if w.charWidth < 1 {
		w.charWidth = w.fontSize * 6 / 10
	}
	if w.charHeight < 1 {
		w.charHeight = w.fontSize * 12 / 10
	}
}

func (w *Widget) paintEvent(event *qt.QPaintEvent) {
	painter := qt.NewQPainter2(w.widget.QPaintDevice)
	defer painter.End()

	_, bg, _ := w.view.Grid().DefaultColors()
	bgColor := qt.NewQColor3(int(bg.R), int(bg.G), int(bg.B))
	painter.FillRect5(0, 0, w.widget.Width(), w.widget.Height(), bgColor)

	contentLine, _ := w.view.Grid().TopLineNumber()

	target, ok := w.surface.Target().(*pixmapTarget)
	if ok && target != nil {
		if w.surface.NeedsUpdate(contentLine, w.pixelOffset) {
			w.renderToTarget(target, contentLine)
			w.surface.MarkUpdated(contentLine)
		}
		origin := w.surface.BlitOrigin(w.pixelOffset)
		painter.DrawPixmap9(0, -int(origin), target.pixmap)
	} else {
		// Direct path when the double buffer is unavailable.
		w.renderCells(painter, w.view.ChunkFor(contentLine).Cells, w.pixelOffset)
	}

	w.renderCursor(painter, w.pixelOffset)
}

// renderToTarget repaints the grid into the double buffer, with the
// viewport content starting half a viewport down.
func (w *Widget) renderToTarget(target *pixmapTarget, contentLine int) {
	painter := qt.NewQPainter2(target.pixmap.QPaintDevice)
	defer painter.End()

	_, bg, _ := w.view.Grid().DefaultColors()
	tw, th := target.Size()
	painter.FillRect5(0, 0, tw, th, qt.NewQColor3(int(bg.R), int(bg.G), int(bg.B)))

	w.renderCells(painter, w.view.ChunkFor(contentLine).Cells, float64(th)/4)
}

// renderCells paints every renderable cell offset vertically by offsetY.
func (w *Widget) renderCells(painter *qt.QPainter, cells []glideterm.RenderableCell, offsetY float64) {
	_, bg, _ := w.view.Grid().DefaultColors()

	font := qt.NewQFont6(w.fontFamily, w.effectiveFontSize())
	font.SetFixedPitch(true)
	painter.SetFont(font)

	for _, cell := range cells {
		x := terminalLeftPadding + cell.Col*w.charWidth
		y := int(float64(cell.Line*w.charHeight) + offsetY)

		if cell.Bg != bg {
			painter.FillRect5(x, y, w.charWidth, w.charHeight,
				qt.NewQColor3(int(cell.Bg.R), int(cell.Bg.G), int(cell.Bg.B)))
		}

		if cell.Char != ' ' && cell.Char != 0 {
			if cell.Bold || cell.Italic {
				cellFont := qt.NewQFont6(w.fontFamily, w.effectiveFontSize())
				cellFont.SetFixedPitch(true)
				cellFont.SetBold(cell.Bold)
				cellFont.SetItalic(cell.Italic)
				painter.SetFont(cellFont)
				painter.SetPen(qt.NewQColor3(int(cell.Fg.R), int(cell.Fg.G), int(cell.Fg.B)))
				painter.DrawText3(x, y+w.charAscent, string(cell.Char))
				painter.SetFont(font)
			} else {
				painter.SetPen(qt.NewQColor3(int(cell.Fg.R), int(cell.Fg.G), int(cell.Fg.B)))
				painter.DrawText3(x, y+w.charAscent, string(cell.Char))
			}
		}

		if cell.Underline {
			painter.FillRect5(x, y+w.charAscent+1, w.charWidth, 1,
				qt.NewQColor3(int(cell.Special.R), int(cell.Special.G), int(cell.Special.B)))
		}
	}
}

// renderCursor draws the cursor in the shape the current mode requests.
func (w *Widget) renderCursor(painter *qt.QPainter, offsetY float64) {
	row, col := w.view.Grid().Cursor()
	x := terminalLeftPadding + col*w.charWidth
	y := int(float64(row*w.charHeight) + offsetY)

	fg, _, _ := w.view.Grid().DefaultColors()
	color := qt.NewQColor3(int(fg.R), int(fg.G), int(fg.B))

	shape := "block"
	pct := 100
	if info, ok := w.view.ModeCursor(); ok && info.CursorShape != "" {
		shape = info.CursorShape
		if info.CellPercentage > 0 {
			pct = info.CellPercentage
		}
	}

	switch shape {
	case "horizontal":
		h := w.charHeight * pct / 100
		painter.FillRect5(x, y+w.charHeight-h, w.charWidth, h, color)
	case "vertical":
		painter.FillRect5(x, y, w.charWidth*pct/100, w.charHeight, color)
	default:
		painter.FillRect5(x, y, w.charWidth, w.charHeight, color)
	}
}

func (w *Widget) wheelEvent(event *qt.QWheelEvent) {
	now := time.Now()

	// Prefer pixel deltas (touchpads); fall back to angle deltas in
	// eighths of a degree, 120 per wheel notch.
	pixelY := event.PixelDelta().Y()
	if pixelY != 0 {
		w.view.ScrollPixels(now, float64(pixelY))
		return
	}

	angleY := event.AngleDelta().Y()
	if angleY != 0 {
		w.view.ScrollLines(now, float64(angleY)/120.0*3.0)
	}
}

func (w *Widget) keyPressEvent(event *qt.QKeyEvent) {
	event.Accept()

	modifiers := event.Modifiers()
	ctrl := modifiers&qt.ControlModifier != 0
	alt := modifiers&qt.AltModifier != 0

	input := translateKey(qt.Key(event.Key()), event.Text(), ctrl, alt)
	if input == "" {
		return
	}
	w.view.Input(input)
}

func (w *Widget) resizeEvent(event *qt.QResizeEvent) {
	w.applySize(w.widget.Width(), w.widget.Height())
}

// applySize recomputes the viewport dimensions from pixel size and
// propagates them to the editor and the double buffer.
func (w *Widget) applySize(width, height int) {
	newCols := (width - terminalLeftPadding) / w.charWidth
	newRows := height / w.charHeight
	if newCols < 1 {
		newCols = 1
	}
	if newRows < 1 {
		newRows = 1
	}

	oldCols, oldRows := w.view.Session().Size()
	if newCols != oldCols || newRows != oldRows {
		w.view.Resize(newCols, newRows)
	}
	w.surface.Resize(width, height)
}
