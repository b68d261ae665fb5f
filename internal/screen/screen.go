// Package screen holds the VT screen model: grid, cursor, scroll
// region, modes, scrollback, and dirty-row tracking (§3 "Screen",
// §4.7). Byte-stream mutations come from the vtparser package; the
// Daemon and Shim call Resize and SetScrollback directly. Nothing here
// parses bytes.
package screen

import (
	"strings"

	"github.com/alangmartini/godly-terminal-sub001/internal/model"
	"github.com/mattn/go-runewidth"
)

// Row is one line of the grid or scrollback.
type Row struct {
	Cells   []model.Cell
	Wrapped bool
	dirty   bool
}

// MouseEncoding selects how mouse events are reported, when mouse
// reporting is enabled.
type MouseEncoding int

const (
	MouseEncodingDefault MouseEncoding = iota
	MouseEncodingUTF8
	MouseEncodingSGR
)

// Capabilities is the explicit callback set the parser invokes
// synchronously for side-effecting escape sequences (§9 "Callbacks on
// Screen"). The zero value is a no-op capability set.
type Capabilities struct {
	VisualBell          func()
	SetWindowTitle      func(string)
	SetWindowIconName   func(string)
	CopyToClipboard     func(data string)
	PasteFromClipboard  func() string
	UnhandledOSC        func(raw []byte)
	ShellIntegrationMark func(kind string)
}

// Screen is the full VT screen model for one session.
type Screen struct {
	rows, cols int

	grid       []Row
	altGrid    []Row // used while AlternateScreen is active
	scrollback []Row
	scrollbackCap int

	cursorRow, cursorCol int
	savedCursorRow, savedCursorCol int
	savedAttrs model.Attributes

	scrollTop, scrollBottom int // inclusive, 0-based

	attrs model.Attributes

	AlternateScreen    bool
	OriginMode         bool
	ApplicationKeypad  bool
	ApplicationCursor  bool
	BracketedPaste     bool
	MouseReportingMode int // 0 = off, else 1000/1002/1003
	MouseEncoding      MouseEncoding
	CursorHidden       bool

	Title    string
	IconName string

	BellPending      bool
	scrollbackOffset int

	Caps Capabilities
}

// New returns a Screen with the given dimensions and scrollback
// capacity (may be 0).
func New(rows, cols, scrollbackCap int) *Screen {
	s := &Screen{
		rows: rows, cols: cols,
		scrollbackCap: scrollbackCap,
		scrollTop:     0,
		scrollBottom:  rows - 1,
	}
	s.grid = newGrid(rows, cols, model.Attributes{})
	return s
}

func newGrid(rows, cols int, attrs model.Attributes) []Row {
	g := make([]Row, rows)
	for i := range g {
		g[i] = Row{Cells: newBlankCells(cols, attrs)}
	}
	return g
}

func newBlankCells(cols int, attrs model.Attributes) []model.Cell {
	cells := make([]model.Cell, cols)
	for i := range cells {
		cells[i] = model.NewCell(attrs)
	}
	return cells
}

// Rows returns the number of visible rows.
func (s *Screen) Rows() int { return s.rows }

// Cols returns the number of visible columns.
func (s *Screen) Cols() int { return s.cols }

// Cursor returns the current cursor position.
func (s *Screen) Cursor() (row, col int) { return s.cursorRow, s.cursorCol }

// CurrentAttrs returns the attribute set applied to new writes.
func (s *Screen) CurrentAttrs() model.Attributes { return s.attrs }

// SetAttrs replaces the attribute set applied to new writes (SGR).
func (s *Screen) SetAttrs(a model.Attributes) { s.attrs = a }

func (s *Screen) markDirty(row int) {
	if row >= 0 && row < len(s.grid) {
		s.grid[row].dirty = true
	}
}

func (s *Screen) markAllDirty() {
	for i := range s.grid {
		s.grid[i].dirty = true
	}
}

// TakeDirtyRows returns a snapshot of which rows changed since the
// last call and atomically clears the flags.
func (s *Screen) TakeDirtyRows() []bool {
	out := make([]bool, len(s.grid))
	for i := range s.grid {
		out[i] = s.grid[i].dirty
		s.grid[i].dirty = false
	}
	return out
}

func (s *Screen) clampCursor() {
	if s.cursorRow < 0 {
		s.cursorRow = 0
	}
	if s.cursorRow >= s.rows {
		s.cursorRow = s.rows - 1
	}
	if s.cursorCol < 0 {
		s.cursorCol = 0
	}
	if s.cursorCol >= s.cols {
		s.cursorCol = s.cols - 1
	}
}

// PutRune writes one rune at the cursor, advancing it, applying
// autowrap and wide-character pairing.
func (s *Screen) PutRune(r rune) {
	width := runewidth.RuneWidth(r)
	if width == 0 {
		width = 1
	}
	if s.cursorCol+width > s.cols {
		s.grid[s.cursorRow].Wrapped = true
		s.markDirty(s.cursorRow)
		s.cursorRow0ToNextLine()
	}

	row := s.cursorRow
	col := s.cursorCol
	cell := model.NewCell(s.attrs)
	cell.Set(r, s.attrs)
	if width == 2 {
		cell.Wide = true
	}
	s.grid[row].Cells[col] = cell
	s.markDirty(row)

	if width == 2 && col+1 < s.cols {
		var cont model.Cell
		cont.SetWideContinuation(s.attrs)
		s.grid[row].Cells[col+1] = cont
	}

	s.cursorCol += width
	if s.cursorCol >= s.cols {
		// Defer the actual wrap to the next PutRune/LineFeed so a
		// write that lands exactly on the last column doesn't
		// prematurely blank-wrap.
		s.cursorCol = s.cols
	}
}

func (s *Screen) cursorRow0ToNextLine() {
	s.cursorCol = 0
	s.LineFeed()
}

// LineFeed moves the cursor down one row, scrolling the scroll region
// if already at its bottom.
func (s *Screen) LineFeed() {
	if s.cursorRow == s.scrollBottom {
		s.ScrollUp(1)
		return
	}
	s.cursorRow++
	s.clampCursor()
}

// CarriageReturn moves the cursor to column 0.
func (s *Screen) CarriageReturn() {
	s.cursorCol = 0
}

// Backspace moves the cursor left one column, stopping at column 0.
func (s *Screen) Backspace() {
	if s.cursorCol > 0 {
		s.cursorCol--
	}
}

// Tab advances the cursor to the next multiple-of-8 tab stop.
func (s *Screen) Tab() {
	next := (s.cursorCol/8 + 1) * 8
	if next >= s.cols {
		next = s.cols - 1
	}
	s.cursorCol = next
}

// Goto moves the cursor to an absolute position, subject to origin
// mode and clamping (CUP/HVP).
func (s *Screen) Goto(row, col int) {
	if s.OriginMode {
		row += s.scrollTop
	}
	s.cursorRow = row
	s.cursorCol = col
	s.clampCursor()
}

// MoveUp/Down/Forward/Backward implement CUU/CUD/CUF/CUB.
func (s *Screen) MoveUp(n int)      { s.cursorRow -= n; s.clampCursor() }
func (s *Screen) MoveDown(n int)    { s.cursorRow += n; s.clampCursor() }
func (s *Screen) MoveForward(n int) { s.cursorCol += n; s.clampCursor() }
func (s *Screen) MoveBackward(n int) { s.cursorCol -= n; s.clampCursor() }

// SaveCursor implements DECSC.
func (s *Screen) SaveCursor() {
	s.savedCursorRow, s.savedCursorCol = s.cursorRow, s.cursorCol
	s.savedAttrs = s.attrs
}

// RestoreCursor implements DECRC.
func (s *Screen) RestoreCursor() {
	s.cursorRow, s.cursorCol = s.savedCursorRow, s.savedCursorCol
	s.attrs = s.savedAttrs
	s.clampCursor()
}

// SetScrollRegion implements DECSTBM; top/bottom are 0-based inclusive.
func (s *Screen) SetScrollRegion(top, bottom int) {
	if top < 0 {
		top = 0
	}
	if bottom >= s.rows {
		bottom = s.rows - 1
	}
	if top >= bottom {
		top, bottom = 0, s.rows-1
	}
	s.scrollTop, s.scrollBottom = top, bottom
	s.Goto(0, 0)
}

// ScrollUp scrolls the scroll region up by n rows, pushing rows into
// scrollback only when the region spans the whole screen.
func (s *Screen) ScrollUp(n int) {
	wholeScreen := s.scrollTop == 0 && s.scrollBottom == s.rows-1
	for i := 0; i < n; i++ {
		if wholeScreen && !s.AlternateScreen {
			s.pushScrollback(s.grid[s.scrollTop])
		}
		copy(s.grid[s.scrollTop:s.scrollBottom+1], s.grid[s.scrollTop+1:s.scrollBottom+1])
		s.grid[s.scrollBottom] = Row{Cells: newBlankCells(s.cols, s.attrs)}
	}
	s.markRegionDirty()
}

// ScrollDown scrolls the scroll region down by n rows (SD), discarding
// rows that fall off the bottom; does not affect scrollback.
func (s *Screen) ScrollDown(n int) {
	for i := 0; i < n; i++ {
		copy(s.grid[s.scrollTop+1:s.scrollBottom+1], s.grid[s.scrollTop:s.scrollBottom])
		s.grid[s.scrollTop] = Row{Cells: newBlankCells(s.cols, s.attrs)}
	}
	s.markRegionDirty()
}

func (s *Screen) markRegionDirty() {
	for r := s.scrollTop; r <= s.scrollBottom; r++ {
		s.markDirty(r)
	}
}

func (s *Screen) pushScrollback(r Row) {
	if s.scrollbackCap <= 0 {
		return
	}
	cp := make([]model.Cell, len(r.Cells))
	copy(cp, r.Cells)
	s.scrollback = append(s.scrollback, Row{Cells: cp, Wrapped: r.Wrapped})
	if len(s.scrollback) > s.scrollbackCap {
		s.scrollback = s.scrollback[len(s.scrollback)-s.scrollbackCap:]
	}
	// Keep the viewport pinned to the same logical content when the
	// user has scrolled up and new output arrives (§4.7 scrollback
	// invariants).
	if s.scrollbackOffset > 0 {
		s.scrollbackOffset++
		if s.scrollbackOffset > len(s.scrollback) {
			s.scrollbackOffset = len(s.scrollback)
		}
	}
}

// ScrollbackCount returns the number of rows currently held in
// scrollback.
func (s *Screen) ScrollbackCount() int { return len(s.scrollback) }

// ScrollbackOffset returns the current viewport offset into
// scrollback (0 = showing the live screen).
func (s *Screen) ScrollbackOffset() int { return s.scrollbackOffset }

// SetScrollback clamps and sets the viewport offset (§4.7).
func (s *Screen) SetScrollback(n int) {
	if n < 0 {
		n = 0
	}
	if n > len(s.scrollback) {
		n = len(s.scrollback)
	}
	s.scrollbackOffset = n
}

// EraseInLine implements EL: mode 0 = cursor to end, 1 = start to
// cursor, 2 = whole line.
func (s *Screen) EraseInLine(mode int) {
	row := s.grid[s.cursorRow].Cells
	switch mode {
	case 0:
		for c := s.cursorCol; c < len(row); c++ {
			row[c].Clear(s.attrs)
		}
	case 1:
		for c := 0; c <= s.cursorCol && c < len(row); c++ {
			row[c].Clear(s.attrs)
		}
	case 2:
		for c := range row {
			row[c].Clear(s.attrs)
		}
	}
	s.markDirty(s.cursorRow)
}

// EraseInDisplay implements ED: mode 0 = cursor to end of screen,
// 1 = start of screen to cursor, 2/3 = whole screen.
func (s *Screen) EraseInDisplay(mode int) {
	switch mode {
	case 0:
		s.EraseInLine(0)
		for r := s.cursorRow + 1; r < s.rows; r++ {
			s.clearRow(r)
		}
	case 1:
		s.EraseInLine(1)
		for r := 0; r < s.cursorRow; r++ {
			s.clearRow(r)
		}
	case 2, 3:
		for r := 0; r < s.rows; r++ {
			s.clearRow(r)
		}
	}
}

func (s *Screen) clearRow(r int) {
	for c := range s.grid[r].Cells {
		s.grid[r].Cells[c].Clear(s.attrs)
	}
	s.grid[r].Wrapped = false
	s.markDirty(r)
}

// InsertChars implements ICH: insert n blanks at the cursor, shifting
// the remainder of the line right, discarding overflow.
func (s *Screen) InsertChars(n int) {
	row := s.grid[s.cursorRow].Cells
	end := len(row) - n
	if end < s.cursorCol {
		end = s.cursorCol
	}
	copy(row[s.cursorCol+n:], row[s.cursorCol:end])
	for c := s.cursorCol; c < s.cursorCol+n && c < len(row); c++ {
		row[c].Clear(s.attrs)
	}
	s.markDirty(s.cursorRow)
}

// DeleteChars implements DCH: delete n characters at the cursor,
// shifting the remainder left and blanking the vacated tail.
func (s *Screen) DeleteChars(n int) {
	row := s.grid[s.cursorRow].Cells
	copy(row[s.cursorCol:], row[min(s.cursorCol+n, len(row)):])
	for c := max(len(row)-n, s.cursorCol); c < len(row); c++ {
		row[c].Clear(s.attrs)
	}
	s.markDirty(s.cursorRow)
}

// EraseChars implements ECH: blank n characters at the cursor without
// shifting.
func (s *Screen) EraseChars(n int) {
	row := s.grid[s.cursorRow].Cells
	for c := s.cursorCol; c < s.cursorCol+n && c < len(row); c++ {
		row[c].Clear(s.attrs)
	}
	s.markDirty(s.cursorRow)
}

// InsertLines implements IL: insert n blank lines at the cursor row
// within the scroll region.
func (s *Screen) InsertLines(n int) {
	for i := 0; i < n; i++ {
		copy(s.grid[s.cursorRow+1:s.scrollBottom+1], s.grid[s.cursorRow:s.scrollBottom])
		s.grid[s.cursorRow] = Row{Cells: newBlankCells(s.cols, s.attrs)}
	}
	s.markRegionDirty()
}

// DeleteLines implements DL: delete n lines at the cursor row within
// the scroll region.
func (s *Screen) DeleteLines(n int) {
	for i := 0; i < n; i++ {
		copy(s.grid[s.cursorRow:s.scrollBottom+1], s.grid[s.cursorRow+1:s.scrollBottom+1])
		s.grid[s.scrollBottom] = Row{Cells: newBlankCells(s.cols, s.attrs)}
	}
	s.markRegionDirty()
}

// SetAlternateScreen switches to/from the alternate screen buffer
// (mode 1049), marking all rows dirty and resetting cursor.
func (s *Screen) SetAlternateScreen(enabled bool) {
	if enabled == s.AlternateScreen {
		return
	}
	if enabled {
		s.altGrid = s.grid
		s.grid = newGrid(s.rows, s.cols, s.attrs)
	} else {
		s.grid = s.altGrid
		s.altGrid = nil
	}
	s.AlternateScreen = enabled
	s.cursorRow, s.cursorCol = 0, 0
	s.markAllDirty()
}

// Resize changes the visible grid dimensions. A resize where either
// dimension becomes zero is destructive (§9 "Grid on resize"): the
// grid is cleared rather than reflowed.
func (s *Screen) Resize(rows, cols int) {
	if rows <= 0 || cols <= 0 {
		s.rows, s.cols = max(rows, 1), max(cols, 1)
		s.grid = newGrid(s.rows, s.cols, s.attrs)
		s.cursorRow, s.cursorCol = 0, 0
		s.scrollTop, s.scrollBottom = 0, s.rows-1
		s.markAllDirty()
		return
	}

	newGridRows := make([]Row, rows)
	for r := 0; r < rows; r++ {
		cells := newBlankCells(cols, s.attrs)
		if r < len(s.grid) {
			n := min(cols, len(s.grid[r].Cells))
			copy(cells[:n], s.grid[r].Cells[:n])
		}
		newGridRows[r] = Row{Cells: cells}
	}
	s.grid = newGridRows
	s.rows, s.cols = rows, cols
	s.scrollTop, s.scrollBottom = 0, rows-1
	s.clampCursor()
	s.markAllDirty()
}

// RIS implements a full reset (ESC c): clears the screen, resets
// modes, cursor, attrs, and scroll region, but leaves scrollback
// intact.
func (s *Screen) RIS() {
	s.attrs = model.Attributes{}
	s.grid = newGrid(s.rows, s.cols, s.attrs)
	s.cursorRow, s.cursorCol = 0, 0
	s.scrollTop, s.scrollBottom = 0, s.rows-1
	s.AlternateScreen = false
	s.altGrid = nil
	s.OriginMode = false
	s.ApplicationKeypad = false
	s.ApplicationCursor = false
	s.BracketedPaste = false
	s.MouseReportingMode = 0
	s.CursorHidden = false
	s.Title = ""
	s.IconName = ""
	s.markAllDirty()
}

// ReadGridText returns the joined text of the rectangular selection
// [startRow,startCol]..[endRow,endCol] inclusive, treating
// wide-continuation cells as empty and trimming trailing whitespace
// per row (§4.8).
func (s *Screen) ReadGridText(startRow, startCol, endRow, endCol int) string {
	var lines []string
	for r := startRow; r <= endRow && r < len(s.grid); r++ {
		from, to := 0, len(s.grid[r].Cells)-1
		if r == startRow {
			from = startCol
		}
		if r == endRow {
			to = endCol
		}
		var b strings.Builder
		for c := from; c <= to && c >= 0 && c < len(s.grid[r].Cells); c++ {
			cell := s.grid[r].Cells[c]
			if cell.WideCont {
				continue
			}
			b.WriteString(cell.Content())
		}
		lines = append(lines, strings.TrimRight(b.String(), " \t"))
	}
	return strings.Join(lines, "\n")
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
