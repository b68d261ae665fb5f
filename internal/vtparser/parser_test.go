package vtparser

import (
	"testing"

	"github.com/alangmartini/godly-terminal-sub001/internal/model"
	"github.com/alangmartini/godly-terminal-sub001/internal/screen"
)

func newParser(rows, cols int) (*Parser, *screen.Screen) {
	s := screen.New(rows, cols, 100)
	return New(s), s
}

func TestScanForControlMatchesScalarReference(t *testing.T) {
	for _, b := range []byte{0x00, 0x19, 0x1F, 0x20, 0x41, 0x7E, 0x7F, 0x80, 0xFF} {
		data := []byte{'a', 'b', 'c', b, 'd'}
		got := ScanForControl(data)
		want := scalarScanForControl(data)
		if got != want {
			t.Fatalf("byte %x: got %d, want %d", b, got, want)
		}
	}
}

func scalarScanForControl(data []byte) int {
	for i, b := range data {
		if b < 0x20 || b == 0x7F {
			return i
		}
	}
	return -1
}

func TestScanForControlBoundarySizes(t *testing.T) {
	for _, n := range []int{0, 1, 7, 8, 9, 15, 16, 17, 31, 32, 33, 63, 64, 65} {
		data := make([]byte, n)
		for i := range data {
			data[i] = 'x'
		}
		if got := ScanForControl(data); got != -1 {
			t.Fatalf("n=%d: got %d, want -1", n, got)
		}
		if n > 0 {
			data[n-1] = 0x01
			if got := ScanForControl(data); got != n-1 {
				t.Fatalf("n=%d: got %d, want %d", n, got, n-1)
			}
		}
	}
}

func TestIsAllASCII(t *testing.T) {
	if !IsAllASCII([]byte("hello world")) {
		t.Fatal("expected all-ASCII true")
	}
	if IsAllASCII([]byte{'a', 0x80, 'b'}) {
		t.Fatal("expected all-ASCII false")
	}
}

func TestPlainTextAdvancesCursor(t *testing.T) {
	p, s := newParser(5, 10)
	p.Feed([]byte("hi"))
	if r, c := s.Cursor(); r != 0 || c != 2 {
		t.Fatalf("got (%d,%d), want (0,2)", r, c)
	}
}

func TestSGRColorParsing(t *testing.T) {
	p, s := newParser(5, 10)
	p.Feed([]byte("\x1b[31mred"))
	attrs := s.CurrentAttrs()
	if attrs.Fg.Kind != model.ColorIndexed || attrs.Fg.Idx != 1 {
		t.Fatalf("got fg %+v, want indexed 1", attrs.Fg)
	}
	p.Feed([]byte("\x1b[0m"))
	if s.CurrentAttrs().Fg.Kind != model.ColorDefault {
		t.Fatal("expected reset to default fg")
	}
}

func TestCSIMovesCursor(t *testing.T) {
	p, s := newParser(10, 10)
	p.Feed([]byte("\x1b[5;3H"))
	if r, c := s.Cursor(); r != 4 || c != 2 {
		t.Fatalf("got (%d,%d), want (4,2)", r, c)
	}
}

func TestCSIEraseDisplay(t *testing.T) {
	p, s := newParser(3, 10)
	p.Feed([]byte("hello"))
	s.TakeDirtyRows()
	p.Feed([]byte("\x1b[2J"))
	dirty := s.TakeDirtyRows()
	for i, d := range dirty {
		if !d {
			t.Fatalf("row %d expected dirty after full erase", i)
		}
	}
}

func TestAlternateScreenMode(t *testing.T) {
	p, s := newParser(5, 10)
	p.Feed([]byte("\x1b[?1049h"))
	if !s.AlternateScreen {
		t.Fatal("expected alternate screen enabled")
	}
	p.Feed([]byte("\x1b[?1049l"))
	if s.AlternateScreen {
		t.Fatal("expected alternate screen disabled")
	}
}

func TestBracketedPasteMode(t *testing.T) {
	p, s := newParser(5, 10)
	p.Feed([]byte("\x1b[?2004h"))
	if !s.BracketedPaste {
		t.Fatal("expected bracketed paste enabled")
	}
}

func TestOSCSetTitle(t *testing.T) {
	p, s := newParser(5, 10)
	p.Feed([]byte("\x1b]0;My Title\x07"))
	if s.Title != "My Title" {
		t.Fatalf("got title %q", s.Title)
	}
}

func TestOSCSetTitleViaST(t *testing.T) {
	p, s := newParser(5, 10)
	p.Feed([]byte("\x1b]2;Other Title\x1b\\"))
	if s.Title != "Other Title" {
		t.Fatalf("got title %q", s.Title)
	}
}

func TestCursorStaysInBoundsUnderArbitraryInput(t *testing.T) {
	p, s := newParser(5, 10)
	p.Feed([]byte("\x1b[999;999H"))
	r, c := s.Cursor()
	if r < 0 || r >= s.Rows() || c < 0 || c >= s.Cols() {
		t.Fatalf("cursor out of bounds: (%d,%d)", r, c)
	}
}

func TestMalformedInputDoesNotPanic(t *testing.T) {
	p, _ := newParser(5, 10)
	defer func() {
		if r := recover(); r != nil {
			t.Fatalf("parser panicked on malformed input: %v", r)
		}
	}()
	p.Feed([]byte("\x1b[\x1b]\x1bP\x1b"))
	p.Feed([]byte{0x1B})
	p.Feed([]byte{'['})
	p.Feed([]byte{0xFF, 0xFE, 0x00, 0x1B})
}

func TestResizeToZeroIsDestructive(t *testing.T) {
	p, s := newParser(5, 10)
	p.Feed([]byte("hello"))
	s.Resize(1, 1)
	if s.Rows() != 1 || s.Cols() != 1 {
		t.Fatalf("got %dx%d", s.Rows(), s.Cols())
	}
}
