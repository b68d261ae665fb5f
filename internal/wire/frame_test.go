package wire

import (
	"bytes"
	"errors"
	"testing"

	"github.com/alangmartini/godly-terminal-sub001/internal/model"
)

func TestWriteFrameExactBytes(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteFrame(&buf, []byte("hello")); err != nil {
		t.Fatalf("WriteFrame: %v", err)
	}
	want := []byte{0x00, 0x00, 0x00, 0x05, 'h', 'e', 'l', 'l', 'o'}
	if !bytes.Equal(buf.Bytes(), want) {
		t.Fatalf("got % x, want % x", buf.Bytes(), want)
	}
}

func TestWriteFrameLength(t *testing.T) {
	var buf bytes.Buffer
	payload := []byte("hello")
	if err := WriteFrame(&buf, payload); err != nil {
		t.Fatal(err)
	}
	if buf.Len() != 4+len(payload) {
		t.Fatalf("got %d bytes, want %d", buf.Len(), 4+len(payload))
	}
}

func TestFrameRoundTrip(t *testing.T) {
	cases := [][]byte{
		[]byte("hello"),
		[]byte{},
		bytes.Repeat([]byte{0xAB}, 70000),
	}
	for _, payload := range cases {
		var buf bytes.Buffer
		if err := WriteFrame(&buf, payload); err != nil {
			t.Fatal(err)
		}
		got, err := ReadFrame(&buf)
		if err != nil {
			t.Fatalf("ReadFrame: %v", err)
		}
		if !bytes.Equal(got, payload) {
			t.Fatalf("got %v, want %v", got, payload)
		}
	}
}

func TestReadFrameCleanEOF(t *testing.T) {
	r := bytes.NewReader(nil)
	got, err := ReadFrame(r)
	if err != nil {
		t.Fatalf("expected no error on clean EOF, got %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil payload on clean EOF, got %v", got)
	}
}

func TestReadFrameTruncatedLength(t *testing.T) {
	r := bytes.NewReader([]byte{0x00, 0x00})
	_, err := ReadFrame(r)
	if !errors.Is(err, model.ErrTruncated) {
		t.Fatalf("expected ErrTruncated, got %v", err)
	}
}

func TestReadFrameTruncatedPayload(t *testing.T) {
	var buf bytes.Buffer
	buf.Write([]byte{0x00, 0x00, 0x00, 0x05})
	buf.Write([]byte("hi"))
	_, err := ReadFrame(&buf)
	if !errors.Is(err, model.ErrTruncated) {
		t.Fatalf("expected ErrTruncated, got %v", err)
	}
}

func TestReadFrameOversize(t *testing.T) {
	var hdr [4]byte
	hdr[0] = 0xFF // length way above MaxFrameSize
	_, err := ReadFrame(bytes.NewReader(hdr[:]))
	if !errors.Is(err, model.ErrMalformedFrame) {
		t.Fatalf("expected ErrMalformedFrame, got %v", err)
	}
}

func TestWriteBinaryFrame(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteBinaryFrame(&buf, TagWrite, []byte("ab")); err != nil {
		t.Fatal(err)
	}
	payload, err := ReadFrame(&buf)
	if err != nil {
		t.Fatal(err)
	}
	f, err := ParseFrame(payload)
	if err != nil {
		t.Fatal(err)
	}
	if f.IsControl {
		t.Fatal("expected binary frame")
	}
	if f.Tag != TagWrite {
		t.Fatalf("got tag %x, want %x", f.Tag, TagWrite)
	}
	if string(f.Data) != "ab" {
		t.Fatalf("got data %q", f.Data)
	}
}

func TestParseFrameControlDiscriminator(t *testing.T) {
	f, err := ParseFrame([]byte(`{"type":"status"}`))
	if err != nil {
		t.Fatal(err)
	}
	if !f.IsControl {
		t.Fatal("expected control frame")
	}
	req, err := ParseShimControlRequest(f.Control)
	if err != nil {
		t.Fatal(err)
	}
	if req.Type != "status" {
		t.Fatalf("got type %q", req.Type)
	}
}

func TestParseFrameEmptyPayload(t *testing.T) {
	_, err := ParseFrame(nil)
	if !errors.Is(err, model.ErrMalformedFrame) {
		t.Fatalf("expected ErrMalformedFrame, got %v", err)
	}
}

func TestResizeRequestJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSON(&buf, ResizeRequest(24, 80)); err != nil {
		t.Fatal(err)
	}
	payload, err := ReadFrame(&buf)
	if err != nil {
		t.Fatal(err)
	}
	f, err := ParseFrame(payload)
	if err != nil {
		t.Fatal(err)
	}
	req, err := ParseShimControlRequest(f.Control)
	if err != nil {
		t.Fatal(err)
	}
	if req.Type != "resize" || req.Rows != 24 || req.Cols != 80 {
		t.Fatalf("got %+v", req)
	}
}
