//go:build cgo

package glidetermqt

import (
	"strings"

	"github.com/mappu/miqt/qt"
)

// specialKeys maps Qt key codes to the editor's bracketed key names.
var specialKeys = map[qt.Key]string{
	qt.Key_Return:    "CR",
	qt.Key_Enter:     "CR",
	qt.Key_Escape:    "Esc",
	qt.Key_Backspace: "BS",
	qt.Key_Tab:       "Tab",
	qt.Key_Backtab:   "Tab",
	qt.Key_Up:        "Up",
	qt.Key_Down:      "Down",
	qt.Key_Left:      "Left",
	qt.Key_Right:     "Right",
	qt.Key_Home:      "Home",
	qt.Key_End:       "End",
	qt.Key_PageUp:    "PageUp",
	qt.Key_PageDown:  "PageDown",
	qt.Key_Insert:    "Insert",
	qt.Key_Delete:    "Del",
	qt.Key_F1:        "F1",
	qt.Key_F2:        "F2",
	qt.Key_F3:        "F3",
	qt.Key_F4:        "F4",
	qt.Key_F5:        "F5",
	qt.Key_F6:        "F6",
	qt.Key_F7:        "F7",
	qt.Key_F8:        "F8",
	qt.Key_F9:        "F9",
	qt.Key_F10:       "F10",
	qt.Key_F11:       "F11",
	qt.Key_F12:       "F12",
}

// isModifierKey reports whether the key is a bare modifier press.
func isModifierKey(key qt.Key) bool {
	switch key {
	case qt.Key_Shift, qt.Key_Control, qt.Key_Alt, qt.Key_Meta, qt.Key_CapsLock:
		return true
	}
	return false
}

// translateKey converts a Qt key press into the editor's bracketed input
// notation. text is the event's character payload for regular keys. An
// empty result means the press produces no input.
func translateKey(key qt.Key, text string, ctrl, alt bool) string {
	if isModifierKey(key) {
		return ""
	}

	if name, ok := specialKeys[key]; ok {
		return wrapKey(name, ctrl, alt)
	}

	if ctrl || alt {
		// Derive the base character from the key code so Ctrl+letter does
		// not arrive as a control byte.
		if key >= qt.Key_A && key <= qt.Key_Z {
			base := string(rune('a' + int(key-qt.Key_A)))
			return wrapKey(base, ctrl, alt)
		}
		if text != "" {
			return wrapKey(text, ctrl, alt)
		}
		return ""
	}

	if text == "" {
		return ""
	}
	if text == "<" {
		return "<lt>"
	}
	return text
}

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
