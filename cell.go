package glideterm

// Cell represents a single character cell in the mirrored editor grid.
type Cell struct {
	Char      rune // Single code point; multi-glyph runs are truncated
	Fg        Color
	Bg        Color
	Special   Color // Underline/undercurl color
	Bold      bool
	Italic    bool
	Underline bool
}

// EmptyCell returns an empty cell with the hard-coded default colors.
func EmptyCell() Cell {
	return Cell{
		Char:    ' ',
		Fg:      DefaultForeground,
		Bg:      DefaultBackground,
		Special: DefaultSpecial,
	}
}

// EmptyCellWithColors returns an empty cell carrying the given defaults.
func EmptyCellWithColors(fg, bg, sp Color) Cell {
	return Cell{Char: ' ', Fg: fg, Bg: bg, Special: sp}
}

// HighlightAttrs is a named style record defined by the editor through
// hl_attr_define. Optional colors use Has* flags; unset fields fall back to
// the session default colors at resolve time.
type HighlightAttrs struct {
	Foreground    Color
	HasForeground bool
	Background    Color
	HasBackground bool
	Special       Color
	HasSpecial    bool

	Reverse       bool
	Italic        bool
	Bold          bool
	Strikethrough bool
	Underline     bool
	Undercurl     bool

	Blend    uint8
	HasBlend bool
}

// CellRun is one run-length encoded tuple from a grid_line event:
// text, optional highlight id, and a repeat count (>= 1). The parser
// preserves runs verbatim; expansion into cells happens in the grid.
type CellRun struct {
	Text   string
	HlID   int64
	HasHl  bool
	Repeat int
}

// RenderableCell is one positioned, fully resolved cell handed to a
// rendering frontend.
type RenderableCell struct {
	Line      int
	Col       int
	Char      rune
	Fg        Color
	Bg        Color
	Special   Color
	Bold      bool
	Italic    bool
	Underline bool
}
