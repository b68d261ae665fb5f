// Package wire implements the length-prefixed frame codec shared by
// every pipe in the system (§4.1): a 4-byte big-endian length followed
// by exactly that many bytes of payload. It also implements the two
// payload grammars multiplexed over the Daemon<->Shim stream: tagged
// binary frames and JSON control frames.
package wire

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"

	"github.com/alangmartini/godly-terminal-sub001/internal/model"
)

// MaxFrameSize is the largest payload a frame may carry; a length
// prefix above this is rejected as malformed rather than trusted,
// since a peer reporting gigabytes is almost certainly corrupt input
// rather than a legitimate frame.
const MaxFrameSize = 16 * 1024 * 1024

// ProtocolVersion identifies the shape of the Request/Response/Event
// JSON grammars and the binary frame tags below; bump it whenever a
// breaking change is made to either, so a godlyctl/godlyd/godly-shim
// built from different revisions can at least report the mismatch
// instead of failing on a confusing JSON decode error.
const ProtocolVersion = 1

// Binary frame tags for the Daemon<->Shim stream (§4.1).
const (
	TagWrite      byte = 0x10
	TagBufferData byte = 0x11
	TagOutput     byte = 0x12
)

// WriteFrame writes the length prefix and payload. It produces exactly
// 4+len(payload) bytes.
func WriteFrame(w io.Writer, payload []byte) error {
	var hdr [4]byte
	binary.BigEndian.PutUint32(hdr[:], uint32(len(payload)))
	if _, err := w.Write(hdr[:]); err != nil {
		return err
	}
	if len(payload) == 0 {
		return nil
	}
	_, err := w.Write(payload)
	return err
}

// ReadFrame reads one frame. A clean end-of-stream before any bytes of
// the length prefix are read yields (nil, nil); a partial length
// prefix or partial payload yields model.ErrTruncated; a length above
// MaxFrameSize yields model.ErrMalformedFrame.
func ReadFrame(r io.Reader) ([]byte, error) {
	var hdr [4]byte
	n, err := io.ReadFull(r, hdr[:])
	if err != nil {
		if n == 0 && err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("read frame length: %w", model.ErrTruncated)
	}
	length := binary.BigEndian.Uint32(hdr[:])
	if length > MaxFrameSize {
		return nil, fmt.Errorf("frame length %d exceeds max %d: %w", length, MaxFrameSize, model.ErrMalformedFrame)
	}
	if length == 0 {
		return []byte{}, nil
	}
	payload := make([]byte, length)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, fmt.Errorf("read frame payload: %w", model.ErrTruncated)
	}
	return payload, nil
}

// WriteBinaryFrame writes a tagged binary frame: one tag byte followed
// by data, the whole thing length-prefixed by WriteFrame.
func WriteBinaryFrame(w io.Writer, tag byte, data []byte) error {
	payload := make([]byte, 1+len(data))
	payload[0] = tag
	copy(payload[1:], data)
	return WriteFrame(w, payload)
}

// WriteJSON marshals v and writes it as a length-prefixed frame.
func WriteJSON(w io.Writer, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return WriteFrame(w, data)
}

// Frame is the parsed shape of one inbound Daemon<->Shim payload: it is
// either a tagged binary frame or a JSON control message, discriminated
// by the first byte per ParseFrame.
type Frame struct {
	IsControl bool
	Tag       byte
	Data      []byte // binary frames only
	Control   []byte // raw JSON bytes, control frames only
}

// ParseFrame classifies a raw payload per §4.1's leading-byte
// heuristic: '{' (0x7B) means JSON control, anything else is a tagged
// binary frame whose first byte is the tag.
func ParseFrame(payload []byte) (Frame, error) {
	if len(payload) == 0 {
		return Frame{}, fmt.Errorf("empty frame payload: %w", model.ErrMalformedFrame)
	}
	if payload[0] == '{' {
		return Frame{IsControl: true, Control: payload}, nil
	}
	return Frame{Tag: payload[0], Data: payload[1:]}, nil
}

// NewBufferedReader wraps r for frame reading; callers that need to
// interleave frame reads with raw byte reads (none currently do) should
// avoid double-buffering by sharing one *bufio.Reader.
func NewBufferedReader(r io.Reader) *bufio.Reader {
	return bufio.NewReaderSize(r, 32*1024)
}
