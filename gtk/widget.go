//go:build cgo

// Package glidetermgtk embeds a glideterm editor view in a GTK3 drawing
// area. Text is rendered through Pango so combining characters shape
// correctly; smooth scrolling blits a pre-rendered cairo surface at the
// animator's sub-line pixel offset.
package glidetermgtk

/*
#cgo pkg-config: gtk+-3.0 pangocairo
#include <stdlib.h>
#include <gtk/gtk.h>
#include <pango/pangocairo.h>

// Render text using Pango for proper Unicode combining character support
static void pango_render_text(cairo_t *cr, const char *text, const char *font_family,
                              int font_size, int bold, int italic, double r, double g, double b) {
    PangoLayout *layout = pango_cairo_create_layout(cr);

    PangoFontDescription *desc = pango_font_description_new();
    pango_font_description_set_family(desc, font_family);
    pango_font_description_set_size(desc, font_size * PANGO_SCALE);
    if (bold) {
        pango_font_description_set_weight(desc, PANGO_WEIGHT_BOLD);
    }
    if (italic) {
        pango_font_description_set_style(desc, PANGO_STYLE_ITALIC);
    }

    pango_layout_set_font_description(layout, desc);
    pango_layout_set_text(layout, text, -1);

    cairo_set_source_rgb(cr, r, g, b);
    pango_cairo_show_layout(cr, layout);

    pango_font_description_free(desc);
    g_object_unref(layout);
}

// Get font metrics for proper baseline positioning (creates its own temp surface)
static void pango_get_font_metrics_standalone(const char *font_family, int font_size,
                                              int *out_ascent, int *out_descent, int *out_height) {
    cairo_surface_t *surface = cairo_image_surface_create(CAIRO_FORMAT_ARGB32, 1, 1);
    cairo_t *cr = cairo_create(surface);

    PangoLayout *layout = pango_cairo_create_layout(cr);

    PangoFontDescription *desc = pango_font_description_new();
    pango_font_description_set_family(desc, font_family);
    pango_font_description_set_size(desc, font_size * PANGO_SCALE);

    pango_layout_set_font_description(layout, desc);
    pango_layout_set_text(layout, "M", -1);

    PangoContext *context = pango_layout_get_context(layout);
    PangoFontMetrics *metrics = pango_context_get_metrics(context, desc, NULL);

    *out_ascent = pango_font_metrics_get_ascent(metrics) / PANGO_SCALE;
    *out_descent = pango_font_metrics_get_descent(metrics) / PANGO_SCALE;
    *out_height = (*out_ascent) + (*out_descent);

    pango_font_metrics_unref(metrics);
    pango_font_description_free(desc);
    g_object_unref(layout);

    cairo_destroy(cr);
    cairo_surface_destroy(surface);
}

// Get text width standalone (creates its own temp surface)
static int pango_text_width_standalone(const char *text, const char *font_family, int font_size) {
    cairo_surface_t *surface = cairo_image_surface_create(CAIRO_FORMAT_ARGB32, 1, 1);
    cairo_t *cr = cairo_create(surface);

    PangoLayout *layout = pango_cairo_create_layout(cr);

    PangoFontDescription *desc = pango_font_description_new();
    pango_font_description_set_family(desc, font_family);
    pango_font_description_set_size(desc, font_size * PANGO_SCALE);

    pango_layout_set_font_description(layout, desc);
    pango_layout_set_text(layout, text, -1);

    int width, height;
    pango_layout_get_pixel_size(layout, &width, &height);

    pango_font_description_free(desc);
    g_object_unref(layout);

    cairo_destroy(cr);
    cairo_surface_destroy(surface);

    return width;
}
*/
import "C"

import (
	"time"
	"unsafe"

	"github.com/gotk3/gotk3/cairo"
	"github.com/gotk3/gotk3/gdk"
	"github.com/gotk3/gotk3/glib"
	"github.com/gotk3/gotk3/gtk"

	"github.com/seleune/glideterm"
)

// Left padding for editor content (pixels)
const terminalLeftPadding = 8

// Tick interval in milliseconds, roughly 60fps.
const tickIntervalMs = 16

// Widget hosts one embedded editor view inside a GTK drawing area.
type Widget struct {
	drawingArea *gtk.DrawingArea

	view    *glideterm.View
	surface *glideterm.OffscreenSurface

	fontFamily string
	fontSize   int
	charWidth  int
	charHeight int
	charAscent int

	pixelOffset float64
	lastFrame   int64

	tickID glib.SourceHandle
	alive  bool

	// Called once when the editor process exits.
	onExit func()
}

// NewWidget spawns the editor sized cols x rows and wires up the drawing
// area, input handlers and the presentation tick.
func NewWidget(cols, rows int, cfg glideterm.ViewConfig) (*Widget, error) {
	w := &Widget{
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
	w.surface = glideterm.NewOffscreenSurface(cairoSurfaceContext{})

	w.drawingArea, err = gtk.DrawingAreaNew()
	if err != nil {
		view.Close()
		return nil, err
	}

	w.drawingArea.AddEvents(int(gdk.SCROLL_MASK | gdk.SMOOTH_SCROLL_MASK | gdk.KEY_PRESS_MASK))
	w.drawingArea.SetCanFocus(true)

	w.drawingArea.Connect("draw", w.onDraw)
	w.drawingArea.Connect("scroll-event", w.onScroll)
	w.drawingArea.Connect("key-press-event", w.onKeyPress)
	w.drawingArea.Connect("configure-event", w.onConfigure)

	w.tickID = glib.TimeoutAdd(tickIntervalMs, w.onTick)

	return w, nil
}

// DrawingArea returns the drawing area for packing into a container.
func (w *Widget) DrawingArea() *gtk.DrawingArea {
	return w.drawingArea
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

// SetFont changes the font and recomputes metrics, viewport dimensions and
// the offscreen surface.
func (w *Widget) SetFont(family string, size int) {
	w.fontFamily = family
	w.fontSize = size
	w.onConfigure(w.drawingArea, nil)
	w.drawingArea.QueueDraw()
}

// Close stops the tick, releases the offscreen surface and terminates the
// editor.
func (w *Widget) Close() {
	if w.tickID != 0 {
		glib.SourceRemove(w.tickID)
		w.tickID = 0
	}
	w.surface.Release()
	w.view.Close()
}

// onTick runs the presentation tick: drain events, advance the animation,
// repaint when either the offset or the flushed frame changed.
func (w *Widget) onTick() bool {
	offset, alive := w.view.Tick(time.Now())
	if !alive {
		if w.alive {
			w.alive = false
			if w.onExit != nil {
				w.onExit()
			}
		}
		w.tickID = 0
		return false
	}

	if offset != w.pixelOffset || w.view.Frame() != w.lastFrame {
		w.pixelOffset = offset
		w.lastFrame = w.view.Frame()
		w.drawingArea.QueueDraw()
	}
	return true
}

func (w *Widget) onDraw(da *gtk.DrawingArea, cr *cairo.Context) bool {
	alloc := da.GetAllocation()
	width := alloc.GetWidth()
	height := alloc.GetHeight()

	_, bg, _ := w.view.Grid().DefaultColors()
	cr.SetSourceRGB(float64(bg.R)/255.0, float64(bg.G)/255.0, float64(bg.B)/255.0)
	cr.Rectangle(0, 0, float64(width), float64(height))
	cr.Fill()

	contentLine, _ := w.view.Grid().TopLineNumber()

	target, ok := w.surface.Target().(*cairoTarget)
	if ok && target != nil {
		if w.surface.NeedsUpdate(contentLine, w.pixelOffset) {
			w.renderToTarget(target, contentLine)
			w.surface.MarkUpdated(contentLine)
		}
		origin := w.surface.BlitOrigin(w.pixelOffset)
		cr.Save()
		cr.SetSourceSurface(target.surface, 0, -origin)
		cr.Paint()
		cr.Restore()
	} else {
		// Direct path: render the grid straight to the window at the
		// current sub-line offset.
		w.renderCells(cr, w.view.ChunkFor(contentLine).Cells, w.pixelOffset)
	}

	w.renderCursor(cr, w.pixelOffset)
	return true
}

// renderToTarget repaints the full grid into the offscreen surface, with
// the viewport content starting half a viewport down.
func (w *Widget) renderToTarget(target *cairoTarget, contentLine int) {
	cr := cairo.Create(target.surface)

	_, bg, _ := w.view.Grid().DefaultColors()
	tw, th := target.Size()
	cr.SetSourceRGB(float64(bg.R)/255.0, float64(bg.G)/255.0, float64(bg.B)/255.0)
	cr.Rectangle(0, 0, float64(tw), float64(th))
	cr.Fill()

	w.renderCells(cr, w.view.ChunkFor(contentLine).Cells, float64(th)/4)
}

// renderCells paints every renderable cell offset vertically by offsetY.
func (w *Widget) renderCells(cr *cairo.Context, cells []glideterm.RenderableCell, offsetY float64) {
	_, bg, _ := w.view.Grid().DefaultColors()
	cw := float64(w.charWidth)
	ch := float64(w.charHeight)

	for _, cell := range cells {
		x := float64(terminalLeftPadding) + float64(cell.Col)*cw
		y := float64(cell.Line)*ch + offsetY

		if cell.Bg != bg {
			cr.SetSourceRGB(float64(cell.Bg.R)/255.0, float64(cell.Bg.G)/255.0, float64(cell.Bg.B)/255.0)
			cr.Rectangle(x, y, cw, ch)
			cr.Fill()
		}

		if cell.Char != ' ' && cell.Char != 0 {
			cr.MoveTo(x, y)
			pangoRenderText(cr, string(cell.Char), w.fontFamily, w.fontSize,
				cell.Bold, cell.Italic,
				float64(cell.Fg.R)/255.0, float64(cell.Fg.G)/255.0, float64(cell.Fg.B)/255.0)
		}

		if cell.Underline {
			cr.SetSourceRGB(float64(cell.Special.R)/255.0, float64(cell.Special.G)/255.0, float64(cell.Special.B)/255.0)
			cr.Rectangle(x, y+float64(w.charAscent)+1, cw, 1)
			cr.Fill()
		}
	}
}

// renderCursor draws the cursor in the shape the editor's current mode
// requests: a full block, an underline, or a vertical bar.
func (w *Widget) renderCursor(cr *cairo.Context, offsetY float64) {
	row, col := w.view.Grid().Cursor()
	cw := float64(w.charWidth)
	ch := float64(w.charHeight)
	x := float64(terminalLeftPadding) + float64(col)*cw
	y := float64(row)*ch + offsetY

	fg, _, _ := w.view.Grid().DefaultColors()
	cr.SetSourceRGB(float64(fg.R)/255.0, float64(fg.G)/255.0, float64(fg.B)/255.0)

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
		h := ch * float64(pct) / 100
		cr.Rectangle(x, y+ch-h, cw, h)
	case "vertical":
		cr.Rectangle(x, y, cw*float64(pct)/100, ch)
	default:
		cr.Rectangle(x, y, cw, ch)
	}
	cr.Fill()
}

func (w *Widget) onScroll(da *gtk.DrawingArea, ev *gdk.Event) bool {
	scroll := gdk.EventScrollNewFromEvent(ev)
	now := time.Now()

	switch scroll.Direction() {
	case gdk.SCROLL_UP:
		w.view.ScrollLines(now, 3)
	case gdk.SCROLL_DOWN:
		w.view.ScrollLines(now, -3)
	case gdk.SCROLL_SMOOTH:
		// Smooth deltas are in scroll-step units; positive steps move the
		// viewport down, away from history.
		w.view.ScrollPixels(now, -scroll.DeltaY()*float64(w.charHeight))
	default:
		return false
	}
	return true
}

func (w *Widget) onKeyPress(da *gtk.DrawingArea, ev *gdk.Event) bool {
	key := gdk.EventKeyNewFromEvent(ev)
	state := key.State()
	ctrl := state&uint(gdk.CONTROL_MASK) != 0
	alt := state&uint(gdk.MOD1_MASK) != 0

	input := translateKey(key.KeyVal(), ctrl, alt)
	if input == "" {
		return false
	}
	if err := w.view.Input(input); err != nil {
		return false
	}
	return true
}

func (w *Widget) onConfigure(da *gtk.DrawingArea, ev *gdk.Event) bool {
	w.updateFontMetrics()
	w.view.SetCellHeight(float64(w.charHeight))

	alloc := da.GetAllocation()
	width := alloc.GetWidth()
	height := alloc.GetHeight()

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

	return false
}

func (w *Widget) updateFontMetrics() {
	ascent, _, height := pangoFontMetrics(w.fontFamily, w.fontSize)
	charWidth := pangoTextWidth("M", w.fontFamily, w.fontSize)

	w.charWidth = charWidth
	w.charHeight = height
	w.charAscent = ascent

	if w.charWidth < 1 {
		w.charWidth = w.fontSize * 6 / 10
		if w.charWidth < 1 {
			w.charWidth = 10
		}
	}
	if w.charHeight < 1 {
		w.charHeight = w.fontSize * 12 / 10
		if w.charHeight < 1 {
			w.charHeight = 20
		}
	}
}

// pangoRenderText renders text at the context's current point using Pango,
// which handles shaping Cairo's ShowText cannot.
func pangoRenderText(cr *cairo.Context, text, fontFamily string, fontSize int, bold, italic bool, r, g, b float64) {
	cText := C.CString(text)
	cFont := C.CString(fontFamily)
	defer C.free(unsafe.Pointer(cText))
	defer C.free(unsafe.Pointer(cFont))

	boldInt := 0
	if bold {
		boldInt = 1
	}
	italicInt := 0
	if italic {
		italicInt = 1
	}

	crNative := (*C.cairo_t)(unsafe.Pointer(cr.Native()))
	C.pango_render_text(crNative, cText, cFont, C.int(fontSize), C.int(boldInt), C.int(italicInt), C.double(r), C.double(g), C.double(b))
}

// pangoFontMetrics returns the ascent, descent and total height for a font.
func pangoFontMetrics(fontFamily string, fontSize int) (ascent, descent, height int) {
	cFont := C.CString(fontFamily)
	defer C.free(unsafe.Pointer(cFont))

	var cAscent, cDescent, cHeight C.int
	C.pango_get_font_metrics_standalone(cFont, C.int(fontSize), &cAscent, &cDescent, &cHeight)

	return int(cAscent), int(cDescent), int(cHeight)
}

// pangoTextWidth returns the pixel width of text using a temporary surface.
func pangoTextWidth(text, fontFamily string, fontSize int) int {
	cText := C.CString(text)
	defer C.free(unsafe.Pointer(cText))

	cFont := C.CString(fontFamily)
	defer C.free(unsafe.Pointer(cFont))

	return int(C.pango_text_width_standalone(cText, cFont, C.int(fontSize)))
}
