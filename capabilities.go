package glideterm

// UICapabilities is the capability map announced to the editor when the UI
// attaches. The defaults match what this client can actually render: true
// color, the line-based grid extension, and no multigrid.
type UICapabilities struct {
	RGB          bool // 24-bit color mode
	ExtLinegrid  bool // line-based grid events (grid_line et al.)
	ExtMultigrid bool // per-window grids; unsupported, must stay false
}

// DefaultUICapabilities returns the capability set this client supports.
func DefaultUICapabilities() UICapabilities {
	return UICapabilities{
		RGB:          true,
		ExtLinegrid:  true,
		ExtMultigrid: false,
	}
}

// optionMap serializes the capabilities for the ui-attach call.
func (c UICapabilities) optionMap() map[string]interface{} {
	return map[string]interface{}{
		"rgb":           c.RGB,
		"ext_linegrid":  c.ExtLinegrid,
		"ext_multigrid": c.ExtMultigrid,
	}
}
