// Package glideterm embeds a full-screen editor (Neovim) as a subprocess and
// mirrors its character grid for GPU-accelerated rendering with smooth,
// pixel-level scroll animation.
//
// This package contains the toolkit-independent core:
//   - MessagePack-RPC codec for the editor's wire protocol
//   - Redraw event parsing (grid_line, grid_scroll, flush, ...)
//   - Grid state engine with highlight attributes
//   - Session client owning the editor subprocess
//   - Scroll reconciliation (pixel offsets quantized to whole lines)
//   - Render chunk cache and offscreen compositor bookkeeping
//
// GUI-specific packages (gtk, qt) provide the widget implementations; the
// cli package provides a direct terminal fallback renderer.
package glideterm

// Color is a 24-bit RGB color as used by the editor's UI protocol.
type Color struct {
	R, G, B uint8
}

// Default colors used until the editor defines its own via default_colors_set.
var (
	DefaultForeground = Color{R: 255, G: 255, B: 255}
	DefaultBackground = Color{R: 0, G: 0, B: 0}
	DefaultSpecial    = Color{R: 255, G: 0, B: 0}
)

// UnpackRGB decodes a packed 0xRRGGBB integer as sent by the editor.
func UnpackRGB(packed uint32) Color {
	return Color{
		R: uint8((packed >> 16) & 0xFF),
		G: uint8((packed >> 8) & 0xFF),
		B: uint8(packed & 0xFF),
	}
}

// Packed returns the color as a 0xRRGGBB integer.
func (c Color) Packed() uint32 {
	return uint32(c.R)<<16 | uint32(c.G)<<8 | uint32(c.B)
}
