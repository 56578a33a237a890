//go:build cgo

package glidetermqt

import (
	"fmt"

	"github.com/mappu/miqt/qt"

	"github.com/seleune/glideterm"
)

// pixmapTarget wraps a QPixmap as a compositor render target.
type pixmapTarget struct {
	pixmap *qt.QPixmap
	width  int
	height int
}

func (t *pixmapTarget) Size() (int, int) {
	return t.width, t.height
}

func (t *pixmapTarget) Release() {
	if t.pixmap != nil {
		t.pixmap.Delete()
		t.pixmap = nil
	}
}

// pixmapContext allocates QPixmap render targets for the compositor.
type pixmapContext struct{}

func (pixmapContext) CreateTarget(width, height int) (glideterm.RenderTarget, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("pixmap: degenerate size %dx%d", width, height)
	}
	pixmap := qt.NewQPixmap2(width, height)
	return &pixmapTarget{pixmap: pixmap, width: width, height: height}, nil
}
