package glideterm

import (
	"math"
	"time"
)

const (
	// momentumFriction is the per-frame decay base, normalized to 60fps:
	// velocity *= friction^(dt*60).
	momentumFriction = 0.92

	// momentumMinVelocity (px/s) is the floor below which momentum ends,
	// so negligible motion cannot loop forever.
	momentumMinVelocity = 0.5

	// momentumStartVelocity (px/s) is the input-derived velocity needed to
	// enter momentum once input ceases.
	momentumStartVelocity = 40.0

	// momentumInputGap is how long input must be absent before momentum
	// can take over from direct mode.
	momentumInputGap = 120 * time.Millisecond

	// settleDecay is the 60fps-normalized exponential factor used when
	// animating a residual offset back to zero after the editor has
	// already scrolled the content.
	settleDecay = 0.75
)

// ScrollAnimator reconciles raw pixel scroll input and discrete line
// scrolls into a continuous pixel offset. It runs in one of two modes:
//
//   - direct: a cumulative pixel accumulator driven 1:1 by input deltas,
//     clamped to the available history/scrollback bounds every tick;
//   - momentum: velocity-driven decay entered when input ceases while the
//     input cadence implies a non-negligible velocity.
//
// Each Advance quantizes whole lines out of the accumulated offset and
// returns them for the caller to apply to the content model, leaving a
// residual strictly smaller than one cell height.
//
// The animator is owned by the presentation tick and is not safe for
// concurrent use.
type ScrollAnimator struct {
	residual    float64 // sub-line pixel offset handed to the renderer
	velocity    float64 // px/s, only meaningful in momentum mode
	inMomentum  bool
	directTotal float64 // cumulative drag accumulator for direct mode

	cellHeight float64

	// Bounds in whole lines, refreshed by the caller every tick.
	maxUpLines   int // available history above
	maxDownLines int // available scrolled-back lines below

	lastTick  time.Time
	lastInput time.Time

	// Velocity estimate blended from recent input cadence; seeds momentum.
	recentVelocity float64
}

// NewScrollAnimator returns an animator starting in direct mode at rest.
func NewScrollAnimator() *ScrollAnimator {
	return &ScrollAnimator{}
}

// SetCellHeight records the cell height in pixels. Non-positive values
// make Advance a no-op.
func (a *ScrollAnimator) SetCellHeight(px float64) {
	a.cellHeight = px
}

// CellHeight returns the cached cell height in pixels.
func (a *ScrollAnimator) CellHeight() float64 {
	return a.cellHeight
}

// SetBounds refreshes the clamp bounds: up is the number of history lines
// available above the viewport, down the number of scrolled-back lines
// below. Callers recompute these every tick.
func (a *ScrollAnimator) SetBounds(upLines, downLines int) {
	if upLines < 0 {
		upLines = 0
	}
	if downLines < 0 {
		downLines = 0
	}
	a.maxUpLines = upLines
	a.maxDownLines = downLines
}

func (a *ScrollAnimator) boundsPx() (maxUp, maxDown float64) {
	return float64(a.maxUpLines) * a.cellHeight, float64(a.maxDownLines) * a.cellHeight
}

// AddPixels feeds one raw input delta (positive scrolls toward history).
// Input always drops back to direct mode; the delta is accumulated and
// immediately clamped. The input cadence feeds the velocity estimate used
// to enter momentum later.
func (a *ScrollAnimator) AddPixels(now time.Time, delta float64) {
	if a.inMomentum {
		a.inMomentum = false
		a.velocity = 0
		a.directTotal = a.residual
	}

	if !a.lastInput.IsZero() {
		dt := now.Sub(a.lastInput).Seconds()
		if dt > 0 && dt < 0.3 {
			instant := delta / dt
			a.recentVelocity = 0.7*instant + 0.3*a.recentVelocity
		} else {
			a.recentVelocity = 0
		}
	}
	a.lastInput = now

	maxUp, maxDown := a.boundsPx()
	a.directTotal = clampFloat(a.directTotal+delta, -maxDown, maxUp)
	a.residual = a.directTotal
}

// AddLines feeds an input delta expressed in lines.
func (a *ScrollAnimator) AddLines(now time.Time, lines float64) {
	a.AddPixels(now, lines*a.cellHeight)
}

// Advance runs one animation tick. It returns the sub-line pixel residual
// to render at and the number of whole lines the caller must scroll the
// content model by. After the call |residual| < cellHeight always holds.
// A non-positive cell height returns no motion.
func (a *ScrollAnimator) Advance(now time.Time) (residual float64, lines int) {
	if a.cellHeight <= 0 {
		return 0, 0
	}

	maxUp, maxDown := a.boundsPx()

	// Enter momentum when input has ceased with real velocity behind it.
	if !a.inMomentum && !a.lastInput.IsZero() &&
		now.Sub(a.lastInput) > momentumInputGap &&
		math.Abs(a.recentVelocity) > momentumStartVelocity {
		a.inMomentum = true
		a.velocity = a.recentVelocity
		a.recentVelocity = 0
	}

	if a.inMomentum {
		if !a.lastTick.IsZero() {
			dt := now.Sub(a.lastTick).Seconds()
			if dt > 0 && math.Abs(a.velocity) > 0.01 {
				potential := a.residual + a.velocity*dt
				switch {
				case potential >= maxUp && a.velocity > 0:
					// Inelastic boundary collision: clamp, kill velocity.
					a.residual = maxUp
					a.velocity = 0
					a.directTotal = maxUp
				case potential <= -maxDown && a.velocity < 0:
					a.residual = -maxDown
					a.velocity = 0
					a.directTotal = -maxDown
				default:
					a.residual = potential
					a.velocity *= math.Pow(momentumFriction, dt*60)
				}
			}
		}
		lines = int(a.residual / a.cellHeight)
		if lines != 0 {
			a.residual -= float64(lines) * a.cellHeight
		}
		if math.Abs(a.velocity) < momentumMinVelocity {
			a.inMomentum = false
			a.directTotal = a.residual
		}
	} else {
		a.directTotal = clampFloat(a.directTotal, -maxDown, maxUp)
		a.residual = a.directTotal

		lines = int(a.residual / a.cellHeight)
		if lines > a.maxUpLines {
			lines = a.maxUpLines
		} else if lines < -a.maxDownLines {
			lines = -a.maxDownLines
		}
		if lines != 0 {
			a.directTotal -= float64(lines) * a.cellHeight
			a.residual = a.directTotal
		}
	}

	a.lastTick = now
	return a.residual, lines
}

// ConsumeLines compensates for a whole-line scroll the content model has
// already applied, keeping the residual visually stable.
func (a *ScrollAnimator) ConsumeLines(lines int) {
	if lines == 0 {
		return
	}
	delta := -float64(lines) * a.cellHeight
	a.residual += delta
	a.directTotal += delta
}

// SetOffset forces the pixel offset, bypassing bounds. Used when the editor
// has already scrolled its content and the caller wants to show it at the
// old position, then settle to zero.
func (a *ScrollAnimator) SetOffset(px float64) {
	a.residual = px
	a.directTotal = px
}

// AdvanceSettle decays the residual toward zero (no line quantization) and
// returns the new residual. Used for editor-driven scroll animation.
func (a *ScrollAnimator) AdvanceSettle(dt float64) float64 {
	a.residual *= math.Pow(settleDecay, dt*60)
	if math.Abs(a.residual) < 0.1 {
		a.residual = 0
	}
	a.directTotal = a.residual
	return a.residual
}

// Stop zeroes the velocity and leaves momentum mode. With snap it also
// zeroes the residual (used on resize or explicit boundary hit). Idempotent.
func (a *ScrollAnimator) Stop(snap bool) {
	a.velocity = 0
	a.inMomentum = false
	a.recentVelocity = 0
	if snap {
		a.residual = 0
		a.directTotal = 0
	}
}

// Animating reports whether another tick would still produce motion.
func (a *ScrollAnimator) Animating() bool {
	return math.Abs(a.velocity) > 1.0 || math.Abs(a.residual) > 0.1
}

// Residual returns the current sub-line pixel offset.
func (a *ScrollAnimator) Residual() float64 {
	return a.residual
}

// InMomentum reports whether the animator is in momentum mode.
func (a *ScrollAnimator) InMomentum() bool {
	return a.inMomentum
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
