package keys

import (
	"bytes"
	"errors"
	"testing"

	"github.com/alangmartini/godly-terminal-sub001/internal/model"
)

func TestToBytesTable(t *testing.T) {
	cases := []struct {
		name string
		want []byte
	}{
		{"Ctrl+C", []byte{0x03}},
		{"ctrl+a", []byte{0x01}},
		{"ctrl+z", []byte{0x1A}},
		{"ctrl+[", []byte{0x1B}},
		{`ctrl+\`, []byte{0x1C}},
		{"ctrl+]", []byte{0x1D}},
		{"ctrl+^", []byte{0x1E}},
		{"ctrl+_", []byte{0x1F}},
		{"up", []byte("\x1b[A")},
		{"DOWN", []byte("\x1b[B")},
		{"  right  ", []byte("\x1b[C")},
		{"left", []byte("\x1b[D")},
		{"f1", []byte("\x1bOP")},
		{"f4", []byte("\x1bOS")},
		{"f5", []byte("\x1b[15~")},
		{"f12", []byte("\x1b[24~")},
		{"enter", []byte{0x0D}},
		{"return", []byte{0x0D}},
		{"cr", []byte{0x0D}},
		{"tab", []byte{0x09}},
		{"escape", []byte{0x1B}},
		{"esc", []byte{0x1B}},
		{"backspace", []byte{0x08}},
		{"bs", []byte{0x08}},
		{"delete", []byte("\x1b[3~")},
		{"insert", []byte("\x1b[2~")},
		{"space", []byte{0x20}},
		{"home", []byte("\x1b[H")},
		{"end", []byte("\x1b[F")},
		{"pageup", []byte("\x1b[5~")},
		{"pgdn", []byte("\x1b[6~")},
	}
	for _, c := range cases {
		got, err := ToBytes(c.name)
		if err != nil {
			t.Fatalf("ToBytes(%q): %v", c.name, err)
		}
		if !bytes.Equal(got, c.want) {
			t.Fatalf("ToBytes(%q) = % x, want % x", c.name, got, c.want)
		}
	}
}

func TestToBytesUnknown(t *testing.T) {
	_, err := ToBytes("not-a-key")
	if !errors.Is(err, model.ErrInvalidKey) {
		t.Fatalf("expected ErrInvalidKey, got %v", err)
	}
}
