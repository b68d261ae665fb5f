package wire

import (
	"encoding/json"
	"fmt"

	"github.com/alangmartini/godly-terminal-sub001/internal/model"
)

// Request is the client-facing request union, discriminated by Type
// (§6). Only the fields relevant to Type are meaningful; unused fields
// are omitted on the wire.
type Request struct {
	Type string `json:"type"`

	ID        string            `json:"id,omitempty"`
	SessionID string            `json:"session_id,omitempty"`
	ShellType model.ShellType   `json:"shell_type,omitempty"`
	Cwd       string            `json:"cwd,omitempty"`
	Rows      uint16            `json:"rows,omitempty"`
	Cols      uint16            `json:"cols,omitempty"`
	Env       map[string]string `json:"env,omitempty"`

	Data []byte `json:"data,omitempty"`

	Text      string `json:"text,omitempty"`
	StripANSI bool   `json:"strip_ansi,omitempty"`

	StartRow int `json:"start_row,omitempty"`
	StartCol int `json:"start_col,omitempty"`
	EndRow   int `json:"end_row,omitempty"`
	EndCol   int `json:"end_col,omitempty"`

	Offset int `json:"offset,omitempty"`
}

// Request type discriminants (§6).
const (
	ReqCreateSession      = "CreateSession"
	ReqListSessions       = "ListSessions"
	ReqAttach             = "Attach"
	ReqDetach             = "Detach"
	ReqWrite              = "Write"
	ReqResize             = "Resize"
	ReqCloseSession       = "CloseSession"
	ReqReadBuffer         = "ReadBuffer"
	ReqGetLastOutputTime  = "GetLastOutputTime"
	ReqSearchBuffer       = "SearchBuffer"
	ReqReadGrid           = "ReadGrid"
	ReqReadRichGrid       = "ReadRichGrid"
	ReqReadGridText       = "ReadGridText"
	ReqSetScrollback      = "SetScrollback"
	ReqPing               = "Ping"
)

// Response is the client-facing response union, discriminated by Type.
type Response struct {
	Type string `json:"type"`

	Message string             `json:"message,omitempty"`
	Session *model.SessionInfo `json:"session,omitempty"`
	Sessions []model.SessionInfo `json:"sessions,omitempty"`

	SessionID string `json:"session_id,omitempty"`
	Data      []byte `json:"data,omitempty"`

	EpochMS uint64 `json:"epoch_ms,omitempty"`
	Running bool   `json:"running,omitempty"`

	Found bool `json:"found,omitempty"`

	Grid     *GridData     `json:"grid,omitempty"`
	RichGrid *RichGridData `json:"rich_grid,omitempty"`
	Text     string        `json:"text,omitempty"`
}

// Response type discriminants.
const (
	RespOk             = "Ok"
	RespError          = "Error"
	RespSessionCreated = "SessionCreated"
	RespSessionList    = "SessionList"
	RespPong           = "Pong"
	RespBuffer         = "Buffer"
	RespLastOutputTime = "LastOutputTime"
	RespSearchResult   = "SearchResult"
	RespGrid           = "Grid"
	RespRichGrid       = "RichGrid"
	RespGridText       = "GridText"
)

// Event is the asynchronous, per-session push union.
type Event struct {
	Type string `json:"type"`

	SessionID   string `json:"session_id"`
	Data        []byte `json:"data,omitempty"`
	ProcessName string `json:"process_name,omitempty"`
}

const (
	EvtOutput        = "Output"
	EvtSessionClosed = "SessionClosed"
	EvtProcessChanged = "ProcessChanged"
)

// DaemonMessage is the top-level envelope multiplexing synchronous
// responses and asynchronous events over one client connection,
// discriminated by Kind (§4.1/§4.6).
type DaemonMessage struct {
	Kind     string    `json:"kind"`
	Response *Response `json:"response,omitempty"`
	Event    *Event    `json:"event,omitempty"`
}

func WrapResponse(r Response) DaemonMessage { return DaemonMessage{Kind: "Response", Response: &r} }
func WrapEvent(e Event) DaemonMessage       { return DaemonMessage{Kind: "Event", Event: &e} }

// ParseRequest decodes a raw client request frame.
func ParseRequest(raw []byte) (Request, error) {
	var req Request
	if err := json.Unmarshal(raw, &req); err != nil {
		return Request{}, fmt.Errorf("parse request: %w", err)
	}
	return req, nil
}

// GridData is the plain-text grid snapshot (§4.8).
type GridData struct {
	Rows            []string `json:"rows"`
	CursorRow       int      `json:"cursor_row"`
	CursorCol       int      `json:"cursor_col"`
	Cols            int      `json:"cols"`
	NumRows         int      `json:"num_rows"`
	AlternateScreen bool     `json:"alternate_screen"`
}

// RichGridData is the rich grid snapshot (§4.8).
type RichGridData struct {
	Rows             []RichGridRow   `json:"rows"`
	Cursor           CursorState     `json:"cursor"`
	Dimensions       GridDimensions  `json:"dimensions"`
	AlternateScreen  bool            `json:"alternate_screen"`
	CursorHidden     bool            `json:"cursor_hidden"`
	Title            string          `json:"title"`
	ScrollbackOffset int             `json:"scrollback_offset"`
	TotalScrollback  int             `json:"total_scrollback"`
}

type RichGridRow struct {
	Cells   []RichGridCell `json:"cells"`
	Wrapped bool           `json:"wrapped"`
}

type RichGridCell struct {
	Content          string `json:"content"`
	Fg               string `json:"fg"`
	Bg               string `json:"bg"`
	Bold             bool   `json:"bold"`
	Dim              bool   `json:"dim"`
	Italic           bool   `json:"italic"`
	Underline        bool   `json:"underline"`
	Inverse          bool   `json:"inverse"`
	Wide             bool   `json:"wide"`
	WideContinuation bool   `json:"wide_continuation"`
	Link             string `json:"link,omitempty"`
}

type CursorState struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

type GridDimensions struct {
	Rows int `json:"rows"`
	Cols int `json:"cols"`
}
