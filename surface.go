package glideterm

import "fmt"

// contentDriftLines is how far the logical content offset may move from the
// last refresh point before the offscreen content must be re-rendered.
const contentDriftLines = 10

// RenderTarget is one allocated offscreen render target. Release must be
// safe to call exactly once; the compositor guarantees it is called before
// any reallocation and on every teardown path.
type RenderTarget interface {
	Size() (width, height int)
	Release()
}

// SurfaceContext allocates render targets. Frontends implement it over
// their toolkit's surface type (a cairo image surface, a QPixmap).
type SurfaceContext interface {
	CreateTarget(width, height int) (RenderTarget, error)
}

// OffscreenSurface manages a render target twice the viewport height so the
// presenter can blit at sub-line pixel offsets in both directions without
// re-rendering every frame. It owns only the target's lifecycle and the
// refresh bookkeeping; frontends draw into the target and blit it.
//
// The compositor path is optional. Callers must keep a direct render path
// correct for when the surface is released or was never initialized.
type OffscreenSurface struct {
	ctx    SurfaceContext
	target RenderTarget

	viewWidth  int
	viewHeight int

	// Refresh point recorded by MarkUpdated.
	refreshed   bool
	contentLine int
}

// NewOffscreenSurface returns a surface with no target allocated yet; the
// first Resize allocates it.
func NewOffscreenSurface(ctx SurfaceContext) *OffscreenSurface {
	return &OffscreenSurface{ctx: ctx}
}

// Resize reallocates the backing target for a new viewport size. The old
// target is always released before allocation so a failed allocation cannot
// leak it; on failure the surface is left uninitialized and the direct
// render path takes over.
func (s *OffscreenSurface) Resize(viewWidth, viewHeight int) error {
	s.Release()

	if viewWidth <= 0 || viewHeight <= 0 {
		return fmt.Errorf("surface: degenerate viewport %dx%d", viewWidth, viewHeight)
	}

	target, err := s.ctx.CreateTarget(viewWidth, viewHeight*2)
	if err != nil {
		return fmt.Errorf("surface: allocate %dx%d target: %w", viewWidth, viewHeight*2, err)
	}
	s.target = target
	s.viewWidth = viewWidth
	s.viewHeight = viewHeight
	return nil
}

// Ready reports whether a target is allocated and has been rendered into at
// least once.
func (s *OffscreenSurface) Ready() bool {
	return s.target != nil && s.refreshed
}

// Target returns the backing render target, nil when unallocated.
func (s *OffscreenSurface) Target() RenderTarget {
	return s.target
}

// NeedsUpdate reports whether the pre-rendered content must be refreshed
// before presenting: the target is missing or never filled, the logical
// content offset has drifted too many lines from the refresh point, or the
// pixel offset is approaching the edge of the pre-rendered slack.
func (s *OffscreenSurface) NeedsUpdate(contentLine int, pixelOffset float64) bool {
	if s.target == nil || !s.refreshed {
		return true
	}
	drift := contentLine - s.contentLine
	if drift < 0 {
		drift = -drift
	}
	if drift > contentDriftLines {
		return true
	}
	quarter := float64(s.viewHeight) / 4
	return pixelOffset > quarter || pixelOffset < -quarter
}

// MarkUpdated records that the target now holds content rendered around the
// given content offset.
func (s *OffscreenSurface) MarkUpdated(contentLine int) {
	s.refreshed = true
	s.contentLine = contentLine
}

// BlitOrigin returns the y position inside the target at which the viewport
// top lies for the given pixel offset. The target carries half a viewport
// of slack above and below, so at zero offset the origin sits a half
// viewport down.
func (s *OffscreenSurface) BlitOrigin(pixelOffset float64) float64 {
	return float64(s.viewHeight)/2 - pixelOffset
}

// NormalizedOffset returns BlitOrigin as a fraction of the target height,
// for presenters addressing the target in normalized coordinates.
func (s *OffscreenSurface) NormalizedOffset(pixelOffset float64) float64 {
	if s.viewHeight <= 0 {
		return 0
	}
	return s.BlitOrigin(pixelOffset) / float64(s.viewHeight*2)
}

// Release frees the backing target. Idempotent.
func (s *OffscreenSurface) Release() {
	if s.target != nil {
		s.target.Release()
		s.target = nil
	}
	s.refreshed = false
}
