// Package remoteapi is a thin HTTP/WebSocket façade over a subset of
// the Daemon's in-process API (§6's "Remote API glue" — ListSessions,
// CreateSession, Write, ReadGrid, ReadRichGrid, plus a per-session
// event stream), grounded on the gorilla/mux + gorilla/websocket
// pattern used throughout the example pack's own HTTP servers.
package remoteapi

import (
	"encoding/json"
	"net/http"

	"github.com/alangmartini/godly-terminal-sub001/internal/daemon"
	"github.com/alangmartini/godly-terminal-sub001/internal/model"
	"github.com/alangmartini/godly-terminal-sub001/internal/wire"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// Server adapts a *daemon.Registry to an http.Handler.
type Server struct {
	reg    *daemon.Registry
	router *mux.Router
}

// New builds the remote API's route table.
func New(reg *daemon.Registry) *Server {
	s := &Server{reg: reg, router: mux.NewRouter()}
	s.router.HandleFunc("/sessions", s.handleListSessions).Methods(http.MethodGet)
	s.router.HandleFunc("/sessions", s.handleCreateSession).Methods(http.MethodPost)
	s.router.HandleFunc("/sessions/{id}/write", s.handleWrite).Methods(http.MethodPost)
	s.router.HandleFunc("/sessions/{id}/grid", s.handleReadGrid).Methods(http.MethodGet)
	s.router.HandleFunc("/sessions/{id}/rich-grid", s.handleReadRichGrid).Methods(http.MethodGet)
	s.router.HandleFunc("/sessions/{id}/ws", s.handleWS)
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { s.router.ServeHTTP(w, r) }

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.reg.List())
}

type createSessionRequest struct {
	SessionID string            `json:"session_id"`
	ShellType string            `json:"shell_type"`
	Rows      uint16            `json:"rows"`
	Cols      uint16            `json:"cols"`
	Cwd       string            `json:"cwd"`
	Env       map[string]string `json:"env"`
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpError(w, http.StatusBadRequest, err)
		return
	}
	rows, cols := req.Rows, req.Cols
	if rows == 0 {
		rows = 24
	}
	if cols == 0 {
		cols = 80
	}
	info, err := s.reg.Create(req.SessionID, model.ParseShellType(req.ShellType), rows, cols, req.Cwd, req.Env)
	if err != nil {
		httpErrorFromRegistry(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, info)
}

func (s *Server) handleWrite(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var req struct {
		Data string `json:"data"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.reg.Write(id, []byte(req.Data)); err != nil {
		httpErrorFromRegistry(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleReadGrid(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	grid, err := s.reg.ReadGrid(id)
	if err != nil {
		httpErrorFromRegistry(w, err)
		return
	}
	writeJSON(w, http.StatusOK, grid)
}

func (s *Server) handleReadRichGrid(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	grid, err := s.reg.ReadRichGrid(id)
	if err != nil {
		httpErrorFromRegistry(w, err)
		return
	}
	writeJSON(w, http.StatusOK, grid)
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// wsSubscriber implements daemon.Subscriber, forwarding every event
// pushed to it (Output, SessionClosed, ProcessChanged) onto one
// WebSocket connection.
type wsSubscriber struct {
	conn *websocket.Conn
}

func (ws *wsSubscriber) PushEvent(sessionID, evtType string, data []byte, processName string) {
	_ = ws.conn.WriteJSON(wire.Event{Type: evtType, SessionID: sessionID, Data: data, ProcessName: processName})
}

// PushBuffer implements daemon.Subscriber: the drain_buffer reply for
// this connection's own Attach goes out as a Buffer response, not an
// Output event, matching the router's own Attach path (§9).
func (ws *wsSubscriber) PushBuffer(sessionID string, data []byte) {
	_ = ws.conn.WriteJSON(wire.Response{Type: wire.RespBuffer, SessionID: sessionID, Data: data})
}

// handleWS streams one session's events to a WebSocket client, triggering a drain_buffer catch-up the same way
// the router's Attach request path does.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	sub := &wsSubscriber{conn: conn}
	if _, err := s.reg.Attach(id, sub); err != nil {
		_ = conn.WriteJSON(map[string]string{"error": err.Error()})
		return
	}
	defer s.reg.Detach(id, sub)

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func httpError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func httpErrorFromRegistry(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch err {
	case model.ErrUnknownSession:
		status = http.StatusNotFound
	case model.ErrSessionAlreadyExists:
		status = http.StatusConflict
	}
	httpError(w, status, err)
}
