package router

import (
	"errors"

	"github.com/alangmartini/godly-terminal-sub001/internal/model"
	"github.com/alangmartini/godly-terminal-sub001/internal/wire"
	"github.com/google/uuid"
)

// dispatch executes one client request against the registry and
// builds its response. Called synchronously from readLoop so that
// responses are produced in request order (§4.6).
func (h *connHandler) dispatch(req wire.Request) wire.Response {
	switch req.Type {
	case wire.ReqPing:
		return wire.Response{Type: wire.RespPong}

	case wire.ReqCreateSession:
		sessionID := req.SessionID
		if sessionID == "" {
			sessionID = uuid.NewString()
		}
		info, err := h.reg.Create(sessionID, req.ShellType, req.Rows, req.Cols, req.Cwd, req.Env)
		if err != nil {
			return errResponse(err)
		}
		return wire.Response{Type: wire.RespSessionCreated, Session: &info}

	case wire.ReqListSessions:
		return wire.Response{Type: wire.RespSessionList, Sessions: h.reg.List()}

	case wire.ReqAttach:
		info, err := h.reg.Attach(req.SessionID, h)
		if err != nil {
			return errResponse(err)
		}
		h.mu.Lock()
		h.attached[req.SessionID] = true
		h.mu.Unlock()
		return wire.Response{Type: wire.RespOk, SessionID: req.SessionID, Session: &info}

	case wire.ReqDetach:
		h.reg.Detach(req.SessionID, h)
		h.mu.Lock()
		delete(h.attached, req.SessionID)
		h.mu.Unlock()
		return wire.Response{Type: wire.RespOk, SessionID: req.SessionID}

	case wire.ReqWrite:
		if err := h.reg.Write(req.SessionID, req.Data); err != nil {
			return errResponse(err)
		}
		return wire.Response{Type: wire.RespOk, SessionID: req.SessionID}

	case wire.ReqResize:
		if err := h.reg.Resize(req.SessionID, req.Rows, req.Cols); err != nil {
			return errResponse(err)
		}
		return wire.Response{Type: wire.RespOk, SessionID: req.SessionID}

	case wire.ReqCloseSession:
		if err := h.reg.Close(req.SessionID); err != nil {
			return errResponse(err)
		}
		h.mu.Lock()
		delete(h.attached, req.SessionID)
		h.mu.Unlock()
		return wire.Response{Type: wire.RespOk, SessionID: req.SessionID}

	case wire.ReqReadBuffer:
		data, err := h.reg.ReadBuffer(req.SessionID)
		if err != nil {
			return errResponse(err)
		}
		return wire.Response{Type: wire.RespBuffer, SessionID: req.SessionID, Data: data}

	case wire.ReqGetLastOutputTime:
		epochMS, running, err := h.reg.GetLastOutputTime(req.SessionID)
		if err != nil {
			return errResponse(err)
		}
		return wire.Response{Type: wire.RespLastOutputTime, SessionID: req.SessionID, EpochMS: epochMS, Running: running}

	case wire.ReqSearchBuffer:
		found, running, err := h.reg.SearchBuffer(req.SessionID, req.Text, req.StripANSI)
		if err != nil {
			return errResponse(err)
		}
		return wire.Response{Type: wire.RespSearchResult, SessionID: req.SessionID, Found: found, Running: running}

	case wire.ReqReadGrid:
		grid, err := h.reg.ReadGrid(req.SessionID)
		if err != nil {
			return errResponse(err)
		}
		return wire.Response{Type: wire.RespGrid, SessionID: req.SessionID, Grid: &grid}

	case wire.ReqReadRichGrid:
		grid, err := h.reg.ReadRichGrid(req.SessionID)
		if err != nil {
			return errResponse(err)
		}
		return wire.Response{Type: wire.RespRichGrid, SessionID: req.SessionID, RichGrid: &grid}

	case wire.ReqReadGridText:
		text, err := h.reg.ReadGridText(req.SessionID, req.StartRow, req.StartCol, req.EndRow, req.EndCol)
		if err != nil {
			return errResponse(err)
		}
		return wire.Response{Type: wire.RespGridText, SessionID: req.SessionID, Text: text}

	case wire.ReqSetScrollback:
		if err := h.reg.SetScrollback(req.SessionID, req.Offset); err != nil {
			return errResponse(err)
		}
		return wire.Response{Type: wire.RespOk, SessionID: req.SessionID}

	default:
		return wire.Response{Type: wire.RespError, Message: "unknown request type: " + req.Type}
	}
}

func errResponse(err error) wire.Response {
	var shellExited *model.ShellExitedError
	if errors.As(err, &shellExited) {
		return wire.Response{Type: wire.RespError, Message: shellExited.Error()}
	}
	return wire.Response{Type: wire.RespError, Message: err.Error()}
}
