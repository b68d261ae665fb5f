// Package vtparser implements the byte-stream-to-screen-mutation state
// machine (§4.7): C0 controls, ESC sequences, CSI, OSC, and DCS
// (Sixel accumulation only, optional). Parser errors are never raised
// to callers: malformed input is absorbed and parsing continues,
// per §7's propagation policy — the only observable effect is
// possibly-garbled screen contents.
package vtparser

import (
	"github.com/alangmartini/godly-terminal-sub001/internal/model"
	"github.com/alangmartini/godly-terminal-sub001/internal/screen"
)

type state int

const (
	stateGround state = iota
	stateEscape
	stateCSIEntry
	stateOSCString
	stateDCSString
)

// Parser is a byte-stream state machine that mutates a *screen.Screen.
// It is not safe for concurrent use; the Shim's single PTY-reader
// thread owns it exclusively (§5).
type Parser struct {
	Screen *screen.Screen

	st state

	params   []int
	curParam int
	hasParam bool
	private  byte // '?', '>', '=' or 0

	oscBuf []byte
	dcsBuf []byte

	savedAttrs model.Attributes
}

// New returns a parser writing into the given screen.
func New(s *screen.Screen) *Parser {
	return &Parser{Screen: s, st: stateGround}
}

// Feed processes a chunk of bytes from the PTY, mutating the screen.
func (p *Parser) Feed(data []byte) {
	i := 0
	for i < len(data) {
		switch p.st {
		case stateGround:
			// Bulk-copy a run of plain printable bytes using the
			// SIMD-style prefilter so long output runs (e.g. `cat` of
			// a large file) don't pay per-byte state-machine overhead.
			idx := ScanForControl(data[i:])
			if idx == -1 {
				p.writePrintable(data[i:])
				i = len(data)
				continue
			}
			if idx > 0 {
				p.writePrintable(data[i : i+idx])
				i += idx
			}
			i = p.handleControl(data, i)
		case stateEscape:
			i = p.handleEscape(data, i)
		case stateCSIEntry:
			i = p.handleCSI(data, i)
		case stateOSCString:
			i = p.handleOSC(data, i)
		case stateDCSString:
			i = p.handleDCS(data, i)
		default:
			p.st = stateGround
		}
	}
}

// writePrintable decodes and writes a run of bytes known to contain no
// control characters as UTF-8 runes.
func (p *Parser) writePrintable(b []byte) {
	for len(b) > 0 {
		r, size := decodeRune(b)
		p.Screen.PutRune(r)
		b = b[size:]
	}
}

func decodeRune(b []byte) (rune, int) {
	r, size := decodeRuneUTF8(b)
	if size == 0 {
		return rune(b[0]), 1
	}
	return r, size
}

// handleControl dispatches the single control/escape byte at data[i].
func (p *Parser) handleControl(data []byte, i int) int {
	b := data[i]
	switch b {
	case 0x07: // BEL
		p.Screen.BellPending = true
		if p.Screen.Caps.VisualBell != nil {
			p.Screen.Caps.VisualBell()
		}
	case 0x08: // BS
		p.Screen.Backspace()
	case 0x09: // HT
		p.Screen.Tab()
	case 0x0A: // LF
		p.Screen.LineFeed()
	case 0x0D: // CR
		p.Screen.CarriageReturn()
	case 0x0E, 0x0F: // SO, SI (charset shift) — no-op, charset switching
		// is not modeled beyond acknowledging the control bytes.
	case 0x1B:
		p.st = stateEscape
		return i + 1
	default:
		// Any other C0 control (including 0x7F DEL) is absorbed.
	}
	return i + 1
}

func (p *Parser) handleEscape(data []byte, i int) int {
	b := data[i]
	switch b {
	case '[':
		p.st = stateCSIEntry
		p.params = p.params[:0]
		p.curParam = 0
		p.hasParam = false
		p.private = 0
		return i + 1
	case ']':
		p.st = stateOSCString
		p.oscBuf = p.oscBuf[:0]
		return i + 1
	case 'P':
		p.st = stateDCSString
		p.dcsBuf = p.dcsBuf[:0]
		return i + 1
	case '7': // DECSC
		p.Screen.SaveCursor()
	case '8': // DECRC
		p.Screen.RestoreCursor()
	case '=': // DECPAM
		p.Screen.ApplicationKeypad = true
	case '>': // DECPNM
		p.Screen.ApplicationKeypad = false
	case 'M': // RI
		p.reverseIndex()
	case 'c': // RIS
		p.Screen.RIS()
	case 'g': // visual bell
		if p.Screen.Caps.VisualBell != nil {
			p.Screen.Caps.VisualBell()
		}
	case '(', ')', '*', '+':
		// Two-byte character-set designator: consume the next byte too.
		p.st = stateGround
		return i + 2
	default:
		// Unrecognized ESC sequence: absorb the single byte.
	}
	p.st = stateGround
	return i + 1
}

func (p *Parser) reverseIndex() {
	row, _ := p.Screen.Cursor()
	if row == 0 {
		p.Screen.ScrollDown(1)
		return
	}
	p.Screen.MoveUp(1)
}
