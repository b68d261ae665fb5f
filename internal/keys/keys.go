// Package keys implements key-name to byte-sequence encoding for
// sending named keys (arrows, function keys, ctrl combinations) to a
// PTY (§4.9).
package keys

import (
	"fmt"
	"strings"

	"github.com/alangmartini/godly-terminal-sub001/internal/model"
)

// ToBytes encodes a key name (case-insensitive, whitespace-trimmed)
// into the byte sequence a terminal expects to receive for that key.
// Unknown names return model.ErrInvalidKey.
func ToBytes(name string) ([]byte, error) {
	n := strings.ToLower(strings.TrimSpace(name))

	if suffix, ok := strings.CutPrefix(n, "ctrl+"); ok {
		return ctrlKey(suffix)
	}

	switch n {
	case "enter", "return", "cr":
		return []byte{0x0D}, nil
	case "tab":
		return []byte{0x09}, nil
	case "escape", "esc":
		return []byte{0x1B}, nil
	case "backspace", "bs":
		return []byte{0x08}, nil
	case "delete", "del":
		return []byte("\x1b[3~"), nil
	case "insert", "ins":
		return []byte("\x1b[2~"), nil
	case "space":
		return []byte{0x20}, nil
	case "up":
		return []byte("\x1b[A"), nil
	case "down":
		return []byte("\x1b[B"), nil
	case "right":
		return []byte("\x1b[C"), nil
	case "left":
		return []byte("\x1b[D"), nil
	case "home":
		return []byte("\x1b[H"), nil
	case "end":
		return []byte("\x1b[F"), nil
	case "pageup", "pgup":
		return []byte("\x1b[5~"), nil
	case "pagedown", "pgdn":
		return []byte("\x1b[6~"), nil
	case "f1":
		return []byte("\x1bOP"), nil
	case "f2":
		return []byte("\x1bOQ"), nil
	case "f3":
		return []byte("\x1bOR"), nil
	case "f4":
		return []byte("\x1bOS"), nil
	case "f5":
		return []byte("\x1b[15~"), nil
	case "f6":
		return []byte("\x1b[17~"), nil
	case "f7":
		return []byte("\x1b[18~"), nil
	case "f8":
		return []byte("\x1b[19~"), nil
	case "f9":
		return []byte("\x1b[20~"), nil
	case "f10":
		return []byte("\x1b[21~"), nil
	case "f11":
		return []byte("\x1b[23~"), nil
	case "f12":
		return []byte("\x1b[24~"), nil
	default:
		return nil, fmt.Errorf("unrecognized key name %q: %w", name, model.ErrInvalidKey)
	}
}

func ctrlKey(suffix string) ([]byte, error) {
	if len(suffix) == 1 {
		c := suffix[0]
		switch {
		case c >= 'a' && c <= 'z':
			return []byte{c - 'a' + 1}, nil
		case c == '[':
			return []byte{0x1B}, nil
		case c == '\\':
			return []byte{0x1C}, nil
		case c == ']':
			return []byte{0x1D}, nil
		case c == '^':
			return []byte{0x1E}, nil
		case c == '_':
			return []byte{0x1F}, nil
		}
	}
	return nil, fmt.Errorf("unrecognized ctrl key %q: %w", "ctrl+"+suffix, model.ErrInvalidKey)
}
