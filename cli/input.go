package cli

import (
	"fmt"
	"os"
	"unicode/utf8"
)

// InputHandler reads raw bytes from the host terminal and translates them
// into the editor's bracketed key notation.
type InputHandler struct {
	term *Terminal
}

// csiKeys maps the final byte of a plain CSI sequence to a key name.
var csiKeys = map[byte]string{
	'A': "Up",
	'B': "Down",
	'C': "Right",
	'D': "Left",
	'H': "Home",
	'F': "End",
}

// csiTildeKeys maps CSI <num> ~ sequences to key names.
var csiTildeKeys = map[string]string{
	"1": "Home",
	"2": "Insert",
	"3": "Del",
	"4": "End",
	"5": "PageUp",
	"6": "PageDown",
}

// NewInputHandler creates an input handler for the terminal.
func NewInputHandler(t *Terminal) *InputHandler {
	return &InputHandler{term: t}
}

// InputLoop reads stdin until the terminal stops. Escape sequences arrive
// in a single read in practice; a lone escape byte in a chunk is the Esc
// key itself.
func (h *InputHandler) InputLoop() {
	buf := make([]byte, 256)
	for {
		select {
		case <-h.term.stop:
			return
		default:
		}

		n, err := os.Stdin.Read(buf)
		if err != nil {
			return
		}
		if input := translateChunk(buf[:n]); input != "" {
			if err := h.term.view.Input(input); err != nil {
				return
			}
		}
	}
}

// translateChunk converts one read's worth of raw bytes into bracketed
// notation. Multiple keys in one chunk are concatenated.
func translateChunk(data []byte) string {
	var out []byte
	for len(data) > 0 {
		key, n := translateOne(data)
		if n == 0 {
			break
		}
		out = append(out, key...)
		data = data[n:]
	}
	return string(out)
}

// translateOne decodes a single key from the front of data, returning its
// bracketed form and how many bytes it consumed.
func translateOne(data []byte) (string, int) {
	b := data[0]

	if b == 0x1b {
		if len(data) == 1 {
			return "<Esc>", 1
		}
		if data[1] == '[' {
			return translateCSI(data)
		}
		if data[1] == 'O' && len(data) >= 3 {
			// SS3 sequences: arrows and Home/End in application mode.
			if name, ok := csiKeys[data[2]]; ok {
				return "<" + name + ">", 3
			}
			return "", 3
		}
		// ESC prefix means Alt.
		inner, n := translateOne(data[1:])
		if n == 0 {
			return "<Esc>", 1
		}
		if len(inner) > 2 && inner[0] == '<' {
			return "<M-" + inner[1:], 1 + n
		}
		return "<M-" + inner + ">", 1 + n
	}

	switch b {
	case '\r':
		return "<CR>", 1
	case '\t':
		return "<Tab>", 1
	case 0x7f:
		return "<BS>", 1
	case '<':
		return "<lt>", 1
	}
	if b < 0x20 {
		// Control characters map back to <C-letter>.
		return fmt.Sprintf("<C-%c>", b+'a'-1), 1
	}

	r, n := utf8.DecodeRune(data)
	if r == utf8.RuneError && n <= 1 {
		return "", 1
	}
	return string(r), n
}

// translateCSI decodes an ESC [ sequence from the front of data.
func translateCSI(data []byte) (string, int) {
	// Find the final byte (0x40..0x7e).
	for i := 2; i < len(data); i++ {
		final := data[i]
		if final < 0x40 || final > 0x7e {
			continue
		}
		params := string(data[2:i])
		switch {
		case final == '~':
			// Strip any modifier parameter after a semicolon.
			num := params
			for j := 0; j < len(num); j++ {
				if num[j] == ';' {
					num = num[:j]
					break
				}
			}
			if name, ok := csiTildeKeys[num]; ok {
				return "<" + name + ">", i + 1
			}
			return "", i + 1
		default:
			if name, ok := csiKeys[final]; ok {
				return "<" + name + ">", i + 1
			}
			return "", i + 1
		}
	}
	return "", len(data)
}
