package daemon

import (
	"sync"
	"time"

	"github.com/alangmartini/godly-terminal-sub001/internal/model"
	"github.com/alangmartini/godly-terminal-sub001/internal/procname"
	"github.com/alangmartini/godly-terminal-sub001/internal/shimmeta"
	"github.com/alangmartini/godly-terminal-sub001/internal/wire"
	"github.com/sourcegraph/conc"
)

// Subscriber receives asynchronous per-session events (Output,
// SessionClosed, ProcessChanged). Implemented by internal/router's
// per-connection type; pushes must never block the caller (§5b) —
// implementations apply their own bounded, drop-oldest queue.
type Subscriber interface {
	PushEvent(sessionID string, evtType string, data []byte, processName string)

	// PushBuffer delivers a drain_buffer reply as a Buffer response to
	// this subscriber alone, not as a broadcast event (§9).
	PushBuffer(sessionID string, data []byte)
}

// Registry is the Daemon's session table, guarded by a single
// read-write lock per §5 ("writers are brief").
type Registry struct {
	cfg Config

	mu       sync.RWMutex
	sessions map[string]*sessionEntry

	store *shimmeta.Store

	// bridges tracks every session's bridge goroutine so a panic in one
	// surfaces through Wait rather than silently wedging that session
	// (§5's structured-concurrency requirement for daemon background
	// tasks).
	bridges conc.WaitGroup
}

// Wait blocks until every session bridge goroutine started through
// this registry has returned, re-panicking if any of them did.
func (r *Registry) Wait() {
	r.bridges.Wait()
}

func (r *Registry) goBridge(e *sessionEntry) {
	r.bridges.Go(func() { e.bridge(r) })
}

func newRegistry(cfg Config) *Registry {
	return &Registry{cfg: cfg, sessions: make(map[string]*sessionEntry)}
}

func (r *Registry) insert(e *sessionEntry) {
	r.mu.Lock()
	r.sessions[e.id] = e
	r.mu.Unlock()
}

func (r *Registry) get(id string) (*sessionEntry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.sessions[id]
	return e, ok
}

func (r *Registry) remove(id string) {
	r.mu.Lock()
	delete(r.sessions, id)
	r.mu.Unlock()
}

// List returns a summary of every registered session (ListSessions).
func (r *Registry) List() []model.SessionInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]model.SessionInfo, 0, len(r.sessions))
	for _, e := range r.sessions {
		out = append(out, e.info())
	}
	return out
}

// Create spawns a new Shim and registers its session (CreateSession).
func (r *Registry) Create(sessionID string, shellType model.ShellType, rows, cols uint16, cwd string, env map[string]string) (model.SessionInfo, error) {
	if _, exists := r.get(sessionID); exists {
		return model.SessionInfo{}, model.ErrSessionAlreadyExists
	}
	entry, err := spawnShim(r.cfg, sessionID, shellType, rows, cols, cwd, env)
	if err != nil {
		return model.SessionInfo{}, err
	}
	r.insert(entry)
	r.goBridge(entry)
	return entry.info(), nil
}

// Close signals shutdown to the session's Shim, waits up to 500ms for
// a clean response, then removes the registry entry regardless (§5
// "Cancellation").
func (r *Registry) Close(sessionID string) error {
	entry, ok := r.get(sessionID)
	if !ok {
		return model.ErrUnknownSession
	}
	entry.requestShutdown(500 * time.Millisecond)
	r.remove(sessionID)
	if r.store != nil {
		r.store.Remove(sessionID)
	}
	entry.closeConn()
	return nil
}

// Attach subscribes sub to a session's event stream and, on first
// attach since spawn, triggers a buffer drain so the client (and the
// Daemon's own mirrored Screen/ring) can catch up (§4.5).
func (r *Registry) Attach(sessionID string, sub Subscriber) (model.SessionInfo, error) {
	entry, ok := r.get(sessionID)
	if !ok {
		return model.SessionInfo{}, model.ErrUnknownSession
	}
	entry.addSubscriber(sub)
	entry.maybeDrain(sub)
	return entry.info(), nil
}

// Detach unsubscribes sub from one session (Detach); an unknown
// session ID is ignored. DetachAll removes sub from every session.
func (r *Registry) Detach(sessionID string, sub Subscriber) {
	if entry, ok := r.get(sessionID); ok {
		entry.removeSubscriber(sub)
	}
}

// DetachAll removes sub from every session's subscriber set; used
// when a client connection closes (§5 "Cancellation").
func (r *Registry) DetachAll(sub Subscriber) {
	r.mu.RLock()
	entries := make([]*sessionEntry, 0, len(r.sessions))
	for _, e := range r.sessions {
		entries = append(entries, e)
	}
	r.mu.RUnlock()
	for _, e := range entries {
		e.removeSubscriber(sub)
	}
}

// Write forwards bytes to the session's PTY via the Shim.
func (r *Registry) Write(sessionID string, data []byte) error {
	entry, ok := r.get(sessionID)
	if !ok {
		return model.ErrUnknownSession
	}
	return entry.write(data)
}

// Resize forwards a resize control request to the Shim and updates
// the Daemon's own Screen mirror.
func (r *Registry) Resize(sessionID string, rows, cols uint16) error {
	entry, ok := r.get(sessionID)
	if !ok {
		return model.ErrUnknownSession
	}
	return entry.resize(rows, cols)
}

// ReadBuffer returns a copy of the bytes captured so far in the
// Daemon's ring mirror. It does not ask the Shim for a drain; the
// mirror is seeded by the first Attach (maybeDrain).
func (r *Registry) ReadBuffer(sessionID string) ([]byte, error) {
	entry, ok := r.get(sessionID)
	if !ok {
		return nil, model.ErrUnknownSession
	}
	return entry.ring.Snapshot(), nil
}

// ReadGrid returns the plain-text grid (ReadGrid).
func (r *Registry) ReadGrid(sessionID string) (wire.GridData, error) {
	entry, ok := r.get(sessionID)
	if !ok {
		return wire.GridData{}, model.ErrUnknownSession
	}
	return entry.readGrid(), nil
}

// ReadRichGrid returns the rich grid snapshot (ReadRichGrid).
func (r *Registry) ReadRichGrid(sessionID string) (wire.RichGridData, error) {
	entry, ok := r.get(sessionID)
	if !ok {
		return wire.RichGridData{}, model.ErrUnknownSession
	}
	return entry.readRichGrid(), nil
}

// ReadGridText returns a selection's text (ReadGridText).
func (r *Registry) ReadGridText(sessionID string, startRow, startCol, endRow, endCol int) (string, error) {
	entry, ok := r.get(sessionID)
	if !ok {
		return "", model.ErrUnknownSession
	}
	return entry.readGridText(startRow, startCol, endRow, endCol), nil
}

// SetScrollback sets the viewport scrollback offset for the session.
func (r *Registry) SetScrollback(sessionID string, n int) error {
	entry, ok := r.get(sessionID)
	if !ok {
		return model.ErrUnknownSession
	}
	entry.setScrollback(n)
	return nil
}

// SearchBuffer scans the session's ring mirror for text (SearchBuffer).
func (r *Registry) SearchBuffer(sessionID, text string, stripANSI bool) (found bool, running bool, err error) {
	entry, ok := r.get(sessionID)
	if !ok {
		return false, false, model.ErrUnknownSession
	}
	return entry.search(text, stripANSI), entry.isRunning(), nil
}

// GetLastOutputTime returns the session's idle-detection stamp
// (GetLastOutputTime).
func (r *Registry) GetLastOutputTime(sessionID string) (epochMS uint64, running bool, err error) {
	entry, ok := r.get(sessionID)
	if !ok {
		return 0, false, model.ErrUnknownSession
	}
	return entry.lastOutputMS(), entry.isRunning(), nil
}

// tickProcessNames walks every session's process tree once and emits
// ProcessChanged to subscribers when the deepest descendant's name
// changed (§4.5).
func (r *Registry) tickProcessNames() {
	r.mu.RLock()
	entries := make([]*sessionEntry, 0, len(r.sessions))
	for _, e := range r.sessions {
		entries = append(entries, e)
	}
	r.mu.RUnlock()

	for _, e := range entries {
		e.tickProcessName()
	}
}

// processNameFor resolves the current foreground process name for a
// session, special-casing WSL sessions whose in-distro process names
// aren't reachable from the host (§4.5).
func processNameFor(e *sessionEntry) (string, error) {
	if e.shellType.Kind == model.KindWsl {
		if e.shellType.Distribution != "" {
			return e.shellType.Distribution, nil
		}
		return "wsl", nil
	}
	return procname.DeepestDescendant(e.shellPID)
}
