package screen

import "testing"

func TestSingleWriteDirtiesOneRow(t *testing.T) {
	s := New(5, 10, 0)
	s.TakeDirtyRows() // clear initial all-dirty state from construction
	s.PutRune('a')
	dirty := s.TakeDirtyRows()
	count := 0
	for i, d := range dirty {
		if d {
			count++
			if i != 0 {
				t.Fatalf("expected row 0 dirty, got row %d", i)
			}
		}
	}
	if count != 1 {
		t.Fatalf("expected exactly one dirty row, got %d", count)
	}
}

func TestTakeDirtyRowsClearsAtomically(t *testing.T) {
	s := New(5, 10, 0)
	s.TakeDirtyRows()
	dirty := s.TakeDirtyRows()
	for i, d := range dirty {
		if d {
			t.Fatalf("expected all-false with no intervening mutation, row %d was dirty", i)
		}
	}
	if len(dirty) != 5 {
		t.Fatalf("expected 5 entries, got %d", len(dirty))
	}
}

func TestFullScreenClearDirtiesAllRows(t *testing.T) {
	s := New(5, 10, 0)
	s.TakeDirtyRows()
	s.EraseInDisplay(2)
	dirty := s.TakeDirtyRows()
	for i, d := range dirty {
		if !d {
			t.Fatalf("expected all rows dirty after full clear, row %d was not", i)
		}
	}
}

func TestAltScreenSwitchDirtiesAllRows(t *testing.T) {
	s := New(5, 10, 0)
	s.TakeDirtyRows()
	s.SetAlternateScreen(true)
	dirty := s.TakeDirtyRows()
	for i, d := range dirty {
		if !d {
			t.Fatalf("row %d not dirty after alt screen switch", i)
		}
	}
}

func TestResizeDirtiesAllRows(t *testing.T) {
	s := New(5, 10, 0)
	s.TakeDirtyRows()
	s.Resize(8, 20)
	dirty := s.TakeDirtyRows()
	for i, d := range dirty {
		if !d {
			t.Fatalf("row %d not dirty after resize", i)
		}
	}
}

func TestCursorStaysInBounds(t *testing.T) {
	s := New(5, 10, 0)
	s.MoveUp(100)
	if r, c := s.Cursor(); r != 0 || c != 0 {
		t.Fatalf("expected clamp to (0,0), got (%d,%d)", r, c)
	}
	s.MoveDown(100)
	s.MoveForward(100)
	if r, c := s.Cursor(); r != 4 || c != 9 {
		t.Fatalf("expected clamp to (4,9), got (%d,%d)", r, c)
	}
}

func TestWideCharacterPairing(t *testing.T) {
	s := New(5, 10, 0)
	s.PutRune('中') // CJK wide character
	row := s.grid[0].Cells
	if !row[0].Wide {
		t.Fatal("expected first cell wide")
	}
	if !row[1].WideCont {
		t.Fatal("expected second cell wide-continuation")
	}
}

func TestSetScrollbackClamps(t *testing.T) {
	s := New(3, 20, 10)
	s.SetScrollback(1000)
	if s.ScrollbackOffset() > s.ScrollbackCount() {
		t.Fatalf("offset %d exceeds count %d", s.ScrollbackOffset(), s.ScrollbackCount())
	}
}

func TestScrollbackScenario(t *testing.T) {
	s := New(3, 20, 10)
	write := func(text string) {
		for _, r := range text {
			switch r {
			case '\r':
				s.CarriageReturn()
			case '\n':
				s.LineFeed()
			default:
				s.PutRune(r)
			}
		}
	}
	write("aaa\r\nbbb\r\nccc\r\nddd\r\neee")

	s.SetScrollback(0)
	if got := rowText(s.grid[0])[:3]; got != "ccc" {
		t.Fatalf("row 0 at offset 0 = %q, want to start with ccc", got)
	}

	s.SetScrollback(2)
	view := s.viewportRows()
	if got := rowText(view[0])[:3]; got != "aaa" {
		t.Fatalf("row 0 at offset 2 = %q, want aaa", got)
	}

	write("\r\nfff")
	if s.ScrollbackOffset() != 3 {
		t.Fatalf("expected offset to auto-advance to 3, got %d", s.ScrollbackOffset())
	}
	view = s.viewportRows()
	if got := rowText(view[0])[:3]; got != "aaa" {
		t.Fatalf("row 0 after auto-advance = %q, want unchanged aaa", got)
	}
}

func TestReadGridTextDropsWideContinuationAndTrimsTrailing(t *testing.T) {
	s := New(2, 10, 0)
	s.PutRune('h')
	s.PutRune('i')
	got := s.ReadGridText(0, 0, 0, 9)
	if got != "hi" {
		t.Fatalf("got %q", got)
	}
}
