//go:build cgo

package glidetermgtk

import (
	"strings"

	"github.com/gotk3/gotk3/gdk"
)

// specialKeys maps gdk keyvals to the editor's bracketed key names.
var specialKeys = map[uint]string{
	gdk.KEY_Return:    "CR",
	gdk.KEY_KP_Enter:  "CR",
	gdk.KEY_Escape:    "Esc",
	gdk.KEY_BackSpace: "BS",
	gdk.KEY_Tab:       "Tab",
	gdk.KEY_Up:        "Up",
	gdk.KEY_Down:      "Down",
	gdk.KEY_Left:      "Left",
	gdk.KEY_Right:     "Right",
	gdk.KEY_Home:      "Home",
	gdk.KEY_End:       "End",
	gdk.KEY_Page_Up:   "PageUp",
	gdk.KEY_Page_Down: "PageDown",
	gdk.KEY_Insert:    "Insert",
	gdk.KEY_Delete:    "Del",
	gdk.KEY_F1:        "F1",
	gdk.KEY_F2:        "F2",
	gdk.KEY_F3:        "F3",
	gdk.KEY_F4:        "F4",
	gdk.KEY_F5:        "F5",
	gdk.KEY_F6:        "F6",
	gdk.KEY_F7:        "F7",
	gdk.KEY_F8:        "F8",
	gdk.KEY_F9:        "F9",
	gdk.KEY_F10:       "F10",
	gdk.KEY_F11:       "F11",
	gdk.KEY_F12:       "F12",
}

// isModifierKeyval reports whether the keyval is a bare modifier press,
// which never produces editor input on its own.
func isModifierKeyval(keyval uint) bool {
	switch keyval {
	case gdk.KEY_Shift_L, gdk.KEY_Shift_R,
		gdk.KEY_Control_L, gdk.KEY_Control_R,
		gdk.KEY_Alt_L, gdk.KEY_Alt_R,
		gdk.KEY_Meta_L, gdk.KEY_Meta_R,
		gdk.KEY_Super_L, gdk.KEY_Super_R,
		gdk.KEY_Caps_Lock:
		return true
	}
	return false
}

// translateKey converts a gdk key press into the editor's bracketed input
// notation: special keys become <Name>, modified keys become <C-x>, <M-x>
// or combinations, the literal "<" becomes <lt>. An empty string means the
// press produces no input.
func translateKey(keyval uint, ctrl, alt bool) string {
	if isModifierKeyval(keyval) {
		return ""
	}

	if name, ok := specialKeys[keyval]; ok {
		return wrapKey(name, ctrl, alt)
	}

	r := gdk.KeyvalToUnicode(keyval)
	if r == 0 {
		return ""
	}

	if ctrl || alt {
		return wrapKey(string(r), ctrl, alt)
	}
	if r == '<' {
		return "<lt>"
	}
	return string(r)
}

// wrapKey builds the bracketed form with modifier prefixes.
func wrapKey(name string, ctrl, alt bool) string {
	var b strings.Builder
	b.WriteByte('<')
	if ctrl {
		b.WriteString("C-")
	}
	if alt {
		b.WriteString("M-")
	}
	b.WriteString(name)
	b.WriteByte('>')
	return b.String()
}
