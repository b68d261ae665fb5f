package screen

import (
	"fmt"

	"github.com/alangmartini/godly-terminal-sub001/internal/model"
	"github.com/alangmartini/godly-terminal-sub001/internal/wire"
)

// ReadGrid returns the plain-text grid snapshot (§4.8).
func (s *Screen) ReadGrid() wire.GridData {
	rows := make([]string, len(s.grid))
	for i, row := range s.grid {
		rows[i] = rowText(row)
	}
	return wire.GridData{
		Rows:            rows,
		CursorRow:       s.cursorRow,
		CursorCol:       s.cursorCol,
		Cols:            s.cols,
		NumRows:         s.rows,
		AlternateScreen: s.AlternateScreen,
	}
}

func rowText(row Row) string {
	b := make([]byte, 0, len(row.Cells))
	for _, c := range row.Cells {
		if c.WideCont {
			continue
		}
		b = append(b, c.Content()...)
	}
	return string(b)
}

// ReadRichGrid returns the deep snapshot suitable for remote rendering
// (§4.8), including the rows currently in view given the scrollback
// viewport offset.
func (s *Screen) ReadRichGrid() wire.RichGridData {
	view := s.viewportRows()
	rows := make([]wire.RichGridRow, len(view))
	for i, row := range view {
		rows[i] = richRow(row)
	}
	return wire.RichGridData{
		Rows: rows,
		Cursor: wire.CursorState{
			Row: s.cursorRow,
			Col: s.cursorCol,
		},
		Dimensions:       wire.GridDimensions{Rows: s.rows, Cols: s.cols},
		AlternateScreen:  s.AlternateScreen,
		CursorHidden:     s.CursorHidden,
		Title:            s.Title,
		ScrollbackOffset: s.scrollbackOffset,
		TotalScrollback:  len(s.scrollback),
	}
}

// viewportRows assembles the rows currently visible given the
// scrollback offset: the last `offset` scrollback rows followed by
// enough of the live grid to fill the screen.
func (s *Screen) viewportRows() []Row {
	if s.scrollbackOffset == 0 {
		return s.grid
	}
	offset := s.scrollbackOffset
	if offset > len(s.scrollback) {
		offset = len(s.scrollback)
	}
	fromScrollback := s.scrollback[len(s.scrollback)-offset:]
	need := s.rows - len(fromScrollback)
	if need <= 0 {
		return fromScrollback[:s.rows]
	}
	out := make([]Row, 0, s.rows)
	out = append(out, fromScrollback...)
	out = append(out, s.grid[:need]...)
	return out
}

func richRow(row Row) wire.RichGridRow {
	cells := make([]wire.RichGridCell, len(row.Cells))
	for i, c := range row.Cells {
		cells[i] = wire.RichGridCell{
			Content:          c.Content(),
			Fg:               colorString(c.Attrs.Fg),
			Bg:               colorString(c.Attrs.Bg),
			Bold:             c.Attrs.Bold,
			Dim:              c.Attrs.Dim,
			Italic:           c.Attrs.Italic,
			Underline:        c.Attrs.Underline,
			Inverse:          c.Attrs.Inverse,
			Wide:             c.Wide,
			WideContinuation: c.WideCont,
			Link:             c.Attrs.Hyperlink,
		}
	}
	return wire.RichGridRow{Cells: cells, Wrapped: row.Wrapped}
}

// colorString renders a model.Color per §4.8: "default" or "#rrggbb",
// resolving indexed colors through the standard xterm 256-color
// palette.
func colorString(c model.Color) string {
	switch c.Kind {
	case model.ColorRGB:
		return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
	case model.ColorIndexed:
		r, g, b := paletteRGB(c.Idx)
		return fmt.Sprintf("#%02x%02x%02x", r, g, b)
	default:
		return "default"
	}
}

// paletteRGB resolves an xterm 256-color index to RGB: 0-15 the
// standard/bright ANSI colors, 16-231 the 6x6x6 color cube, 232-255 a
// 24-step grayscale ramp. This is the standard, widely documented
// xterm palette algorithm, not a behavior borrowed from any one
// terminal library.
func paletteRGB(idx uint8) (r, g, b uint8) {
	if int(idx) < len(ansi16Palette) {
		c := ansi16Palette[idx]
		return c[0], c[1], c[2]
	}
	if idx >= 16 && idx <= 231 {
		i := int(idx) - 16
		levels := [6]uint8{0, 95, 135, 175, 215, 255}
		ri := (i / 36) % 6
		gi := (i / 6) % 6
		bi := i % 6
		return levels[ri], levels[gi], levels[bi]
	}
	// 232-255: grayscale ramp.
	level := uint8(8 + (int(idx)-232)*10)
	return level, level, level
}

var ansi16Palette = [16][3]uint8{
	{0, 0, 0}, {205, 0, 0}, {0, 205, 0}, {205, 205, 0},
	{0, 0, 238}, {205, 0, 205}, {0, 205, 205}, {229, 229, 229},
	{127, 127, 127}, {255, 0, 0}, {0, 255, 0}, {255, 255, 0},
	{92, 92, 255}, {255, 0, 255}, {0, 255, 255}, {255, 255, 255},
}
