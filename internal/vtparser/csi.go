package vtparser

import (
	"github.com/alangmartini/godly-terminal-sub001/internal/model"
	"github.com/alangmartini/godly-terminal-sub001/internal/screen"
)

// handleCSI accumulates parameter/intermediate bytes until a final
// byte (0x40-0x7E) is seen, then dispatches.
func (p *Parser) handleCSI(data []byte, i int) int {
	for i < len(data) {
		b := data[i]
		switch {
		case b >= '0' && b <= '9':
			p.hasParam = true
			p.curParam = p.curParam*10 + int(b-'0')
			i++
		case b == ';':
			p.params = append(p.params, p.curParam)
			p.curParam = 0
			p.hasParam = false
			i++
		case b == '?' || b == '>' || b == '=':
			p.private = b
			i++
		case b >= 0x40 && b <= 0x7E:
			p.params = append(p.params, p.curParam)
			p.dispatchCSI(b)
			p.st = stateGround
			return i + 1
		default:
			// Intermediate byte (e.g. space): ignored.
			i++
		}
	}
	return i
}

func (p *Parser) param(idx, def int) int {
	if idx >= len(p.params) || p.params[idx] == 0 {
		return def
	}
	return p.params[idx]
}

func (p *Parser) rawParam(idx, def int) int {
	if idx >= len(p.params) {
		return def
	}
	return p.params[idx]
}

func (p *Parser) dispatchCSI(final byte) {
	s := p.Screen
	switch final {
	case 'A':
		s.MoveUp(p.param(0, 1))
	case 'B':
		s.MoveDown(p.param(0, 1))
	case 'C':
		s.MoveForward(p.param(0, 1))
	case 'D':
		s.MoveBackward(p.param(0, 1))
	case 'H', 'f':
		row := p.param(0, 1) - 1
		col := p.param(1, 1) - 1
		s.Goto(row, col)
	case 'J':
		s.EraseInDisplay(p.rawParam(0, 0))
	case 'K':
		s.EraseInLine(p.rawParam(0, 0))
	case '@':
		s.InsertChars(p.param(0, 1))
	case 'P':
		s.DeleteChars(p.param(0, 1))
	case 'X':
		s.EraseChars(p.param(0, 1))
	case 'L':
		s.InsertLines(p.param(0, 1))
	case 'M':
		s.DeleteLines(p.param(0, 1))
	case 'r':
		top := p.param(0, 1) - 1
		bottom := p.rawParam(1, s.Rows()) - 1
		if bottom <= 0 {
			bottom = s.Rows() - 1
		}
		s.SetScrollRegion(top, bottom)
	case 'S':
		s.ScrollUp(p.param(0, 1))
	case 'T':
		s.ScrollDown(p.param(0, 1))
	case 'm':
		p.dispatchSGR()
	case 'h':
		p.setModes(true)
	case 'l':
		p.setModes(false)
	case 'n':
		// DSR: device status report. Responding requires a write-back
		// channel the parser does not own; absorbed (see §9 — the
		// Shim's pipe writer, not the parser, owns PTY replies).
	default:
		// Unrecognized CSI final byte: absorb.
	}
}

func (p *Parser) setModes(enable bool) {
	s := p.Screen
	for _, mode := range p.params {
		if p.private == '?' {
			switch mode {
			case 1049, 47, 1047:
				s.SetAlternateScreen(enable)
			case 1048:
				if enable {
					s.SaveCursor()
				} else {
					s.RestoreCursor()
				}
			case 2004:
				s.BracketedPaste = enable
			case 1000, 1002, 1003:
				if enable {
					s.MouseReportingMode = mode
				} else {
					s.MouseReportingMode = 0
				}
			case 1005:
				if enable {
					s.MouseEncoding = screen.MouseEncodingUTF8
				}
			case 1006:
				if enable {
					s.MouseEncoding = screen.MouseEncodingSGR
				}
			case 6:
				s.OriginMode = enable
			case 25:
				s.CursorHidden = !enable
			case 1:
				s.ApplicationCursor = enable
			}
		} else {
			// Non-private mode sets are not exercised by the spec's
			// enumerated set; absorbed.
		}
	}
}

func (p *Parser) dispatchSGR() {
	s := p.Screen
	attrs := s.CurrentAttrs()
	params := p.params
	if len(params) == 0 {
		params = []int{0}
	}
	for i := 0; i < len(params); i++ {
		code := params[i]
		switch {
		case code == 0:
			attrs = model.Attributes{}
		case code == 1:
			attrs.Bold = true
		case code == 2:
			attrs.Dim = true
		case code == 3:
			attrs.Italic = true
		case code == 4:
			attrs.Underline = true
		case code == 7:
			attrs.Inverse = true
		case code == 22:
			attrs.Bold, attrs.Dim = false, false
		case code == 23:
			attrs.Italic = false
		case code == 24:
			attrs.Underline = false
		case code == 27:
			attrs.Inverse = false
		case code >= 30 && code <= 37:
			attrs.Fg = model.IndexedColor(uint8(code - 30))
		case code == 38:
			i = p.parseExtendedColor(params, i, &attrs.Fg)
		case code == 39:
			attrs.Fg = model.Color{}
		case code >= 40 && code <= 47:
			attrs.Bg = model.IndexedColor(uint8(code - 40))
		case code == 48:
			i = p.parseExtendedColor(params, i, &attrs.Bg)
		case code == 49:
			attrs.Bg = model.Color{}
		case code >= 90 && code <= 97:
			attrs.Fg = model.IndexedColor(uint8(code-90) + 8)
		case code >= 100 && code <= 107:
			attrs.Bg = model.IndexedColor(uint8(code-100) + 8)
		}
	}
	s.SetAttrs(attrs)
}

// parseExtendedColor handles SGR 38/48 (indexed or truecolor), either
// "38;5;N" or "38;2;R;G;B", returning the index of the last consumed
// parameter.
func (p *Parser) parseExtendedColor(params []int, i int, dst *model.Color) int {
	if i+1 >= len(params) {
		return i
	}
	switch params[i+1] {
	case 5:
		if i+2 < len(params) {
			*dst = model.IndexedColor(uint8(params[i+2]))
			return i + 2
		}
	case 2:
		if i+4 < len(params) {
			*dst = model.RGBColor(uint8(params[i+2]), uint8(params[i+3]), uint8(params[i+4]))
			return i + 4
		}
	}
	return i
}
