//go:build cgo

package glidetermgtk

import (
	"fmt"

	"github.com/gotk3/gotk3/cairo"

	"github.com/seleune/glideterm"
)

// cairoTarget wraps a cairo image surface as a compositor render target.
type cairoTarget struct {
	surface *cairo.Surface
	width   int
	height  int
}

func (t *cairoTarget) Size() (int, int) {
	return t.width, t.height
}

func (t *cairoTarget) Release() {
	if t.surface != nil {
		t.surface.Flush()
		t.surface = nil
	}
}

// cairoSurfaceContext allocates cairo image surfaces for the compositor.
type cairoSurfaceContext struct{}

func (cairoSurfaceContext) CreateTarget(width, height int) (glideterm.RenderTarget, error) {
	surface := cairo.CreateImageSurface(cairo.FORMAT_ARGB32, width, height)
	if surface == nil {
		return nil, fmt.Errorf("cairo: image surface %dx%d allocation failed", width, height)
	}
	return &cairoTarget{surface: surface, width: width, height: height}, nil
}
