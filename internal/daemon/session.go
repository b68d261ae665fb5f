package daemon

import (
	"context"
	"fmt"
	"net"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/alangmartini/godly-terminal-sub001/internal/ansi"
	"github.com/alangmartini/godly-terminal-sub001/internal/model"
	"github.com/alangmartini/godly-terminal-sub001/internal/ringbuffer"
	"github.com/alangmartini/godly-terminal-sub001/internal/screen"
	"github.com/alangmartini/godly-terminal-sub001/internal/shimmeta"
	"github.com/alangmartini/godly-terminal-sub001/internal/transport"
	"github.com/alangmartini/godly-terminal-sub001/internal/vtparser"
	"github.com/alangmartini/godly-terminal-sub001/internal/wire"
	"github.com/rs/zerolog/log"
)

// sessionEntry is the Daemon's record of one Shim-owned session. It
// carries the Daemon's own mirrored Screen/Parser/ring (§4.5's
// ReadGrid/ReadRichGrid/SearchBuffer are answered here, not by asking
// the Shim), fed by the OUTPUT byte stream relayed over conn.
type sessionEntry struct {
	id        string
	shellType model.ShellType
	shimPID   int
	shellPID  int
	pipeName  string
	cwd       string
	createdAt time.Time

	connMu sync.Mutex
	conn   net.Conn

	ring   *ringbuffer.RingBuffer
	parser *vtparser.Parser
	scr    *screen.Screen

	mu           sync.Mutex
	subscribers  map[Subscriber]struct{}
	drained      bool
	drainWaiter  Subscriber
	lastProcName string

	lastOutputAtMS int64 // unix millis, atomic
	shellExited    int32 // atomic bool
}

func (e *sessionEntry) info() model.SessionInfo {
	e.mu.Lock()
	attached := len(e.subscribers) > 0
	e.mu.Unlock()
	return model.SessionInfo{
		ID:        e.id,
		ShellType: e.shellType,
		PID:       e.shellPID,
		Rows:      uint16(e.scr.Rows()),
		Cols:      uint16(e.scr.Cols()),
		Cwd:       e.cwd,
		CreatedAt: e.createdAt,
		Attached:  attached,
		Running:   e.isRunning(),
	}
}

func (e *sessionEntry) isRunning() bool {
	return atomic.LoadInt32(&e.shellExited) == 0
}

func (e *sessionEntry) lastOutputMS() uint64 {
	return uint64(atomic.LoadInt64(&e.lastOutputAtMS))
}

func (e *sessionEntry) addSubscriber(s Subscriber) {
	e.mu.Lock()
	e.subscribers[s] = struct{}{}
	e.mu.Unlock()
}

func (e *sessionEntry) removeSubscriber(s Subscriber) {
	e.mu.Lock()
	delete(e.subscribers, s)
	e.mu.Unlock()
}

func (e *sessionEntry) fanOut(evtType string, data []byte, processName string) {
	e.mu.Lock()
	subs := make([]Subscriber, 0, len(e.subscribers))
	for s := range e.subscribers {
		subs = append(subs, s)
	}
	e.mu.Unlock()
	for _, s := range subs {
		s.PushEvent(e.id, evtType, data, processName)
	}
}

func (e *sessionEntry) getConn() net.Conn {
	e.connMu.Lock()
	defer e.connMu.Unlock()
	return e.conn
}

func (e *sessionEntry) sendControl(req wire.ShimControlRequest) error {
	conn := e.getConn()
	if conn == nil {
		return model.ErrShimUnreachable
	}
	e.connMu.Lock()
	defer e.connMu.Unlock()
	return wire.WriteJSON(e.conn, req)
}

func (e *sessionEntry) write(data []byte) error {
	conn := e.getConn()
	if conn == nil {
		return model.ErrShimUnreachable
	}
	e.connMu.Lock()
	defer e.connMu.Unlock()
	return wire.WriteBinaryFrame(e.conn, wire.TagWrite, data)
}

func (e *sessionEntry) resize(rows, cols uint16) error {
	if err := e.sendControl(wire.ResizeRequest(rows, cols)); err != nil {
		return err
	}
	e.scr.Resize(int(rows), int(cols))
	return nil
}

func (e *sessionEntry) setScrollback(n int) {
	e.scr.SetScrollback(n)
}

func (e *sessionEntry) readGrid() wire.GridData {
	return e.scr.ReadGrid()
}

func (e *sessionEntry) readRichGrid() wire.RichGridData {
	return e.scr.ReadRichGrid()
}

func (e *sessionEntry) readGridText(startRow, startCol, endRow, endCol int) string {
	return e.scr.ReadGridText(startRow, startCol, endRow, endCol)
}

func (e *sessionEntry) search(text string, stripANSI bool) bool {
	hay := string(e.ring.Snapshot())
	if stripANSI {
		hay = ansi.Strip(hay)
	}
	return text == "" || strings.Contains(hay, text)
}

// maybeDrain requests the Shim's historical buffer exactly once per
// session lifetime (on the first Attach since spawn/reconnect), per
// §4.4/§4.5: subsequent attaches reuse the Daemon's already-seeded
// mirror instead of re-draining. The reply goes to sub alone (§9), so
// sub is recorded as the drain's waiter before the request is sent.
func (e *sessionEntry) maybeDrain(sub Subscriber) {
	e.mu.Lock()
	if e.drained {
		e.mu.Unlock()
		return
	}
	e.drained = true
	e.drainWaiter = sub
	e.mu.Unlock()

	if err := e.sendControl(wire.DrainBufferRequest()); err != nil {
		log.Warn().Err(err).Str("session", e.id).Msg("drain_buffer request failed")
	}
}

// takeDrainWaiter returns and clears the subscriber awaiting the next
// drain_buffer reply, or nil if none is pending.
func (e *sessionEntry) takeDrainWaiter() Subscriber {
	e.mu.Lock()
	defer e.mu.Unlock()
	sub := e.drainWaiter
	e.drainWaiter = nil
	return sub
}

// requestShutdown sends shutdown and waits at most wait for the bridge
// to observe the Shim's shell_exited reply or its pipe closing.
func (e *sessionEntry) requestShutdown(wait time.Duration) {
	if err := e.sendControl(wire.ShutdownRequest()); err != nil {
		return
	}
	deadline := time.Now().Add(wait)
	for e.isRunning() && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
}

func (e *sessionEntry) closeConn() {
	e.connMu.Lock()
	if e.conn != nil {
		e.conn.Close()
	}
	e.connMu.Unlock()
}

func (e *sessionEntry) tickProcessName() {
	name, err := processNameFor(e)
	if err != nil {
		return
	}
	e.mu.Lock()
	changed := name != "" && name != e.lastProcName
	if changed {
		e.lastProcName = name
	}
	e.mu.Unlock()
	if changed {
		e.fanOut(wire.EvtProcessChanged, nil, name)
	}
}

// bridge is the per-session reader task over the Shim connection: it
// demultiplexes OUTPUT/BUFFER_DATA binary frames and status/shell_exited
// control frames, feeding the Daemon's mirrored Parser/ring either way.
// Live OUTPUT bytes fan out to every attached subscriber as an Output
// event; a BUFFER_DATA drain reply instead goes to the one subscriber
// that triggered the drain, as a Buffer response (§4.5, §9).
func (e *sessionEntry) bridge(reg *Registry) {
	conn := e.getConn()
	if conn == nil {
		return
	}
	br := wire.NewBufferedReader(conn)
	for {
		payload, err := wire.ReadFrame(br)
		if err != nil || payload == nil {
			e.onShimGone(reg)
			return
		}
		frame, err := wire.ParseFrame(payload)
		if err != nil {
			continue
		}
		if !frame.IsControl {
			switch frame.Tag {
			case wire.TagOutput:
				e.ring.Append(frame.Data)
				e.parser.Feed(frame.Data)
				atomic.StoreInt64(&e.lastOutputAtMS, time.Now().UnixMilli())
				e.fanOut(wire.EvtOutput, frame.Data, "")
			case wire.TagBufferData:
				e.ring.Append(frame.Data)
				e.parser.Feed(frame.Data)
				atomic.StoreInt64(&e.lastOutputAtMS, time.Now().UnixMilli())
				if waiter := e.takeDrainWaiter(); waiter != nil {
					waiter.PushBuffer(e.id, frame.Data)
				}
			}
			continue
		}
		resp, err := wire.ParseShimControlResponse(frame.Control)
		if err != nil {
			continue
		}
		if resp.Type == "shell_exited" {
			atomic.StoreInt32(&e.shellExited, 1)
			e.fanOut(wire.EvtSessionClosed, nil, "")
		}
	}
}

func (e *sessionEntry) onShimGone(reg *Registry) {
	atomic.StoreInt32(&e.shellExited, 1)
	e.fanOut(wire.EvtSessionClosed, nil, "")
	reg.remove(e.id)
	if reg.store != nil {
		reg.store.Remove(e.id)
	}
}

// spawnShim execs the shim binary for a brand new session and dials
// its pipe, constructing the Daemon-side mirrored sessionEntry.
func spawnShim(cfg Config, sessionID string, shellType model.ShellType, rows, cols uint16, cwd string, env map[string]string) (*sessionEntry, error) {
	pipeName := sessionPipeName(cfg, sessionID)

	args := []string{
		"--session-id", sessionID,
		"--shell-type", shellType.String(),
		"--rows", strconv.Itoa(int(rows)),
		"--cols", strconv.Itoa(int(cols)),
		"--pipe-name", pipeName,
		"--state-dir", cfg.StateDir,
		"--ring-buffer-cap", strconv.Itoa(cfg.RingBufferCap),
		"--scrollback-cap", strconv.Itoa(cfg.ScrollbackCap),
	}
	if cwd != "" {
		args = append(args, "--cwd", cwd)
	}

	cmd := exec.Command(cfg.ShimExecutable, args...)
	cmd.Env = envSlice(env)
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrShimSpawnFailed, err)
	}
	shimPID := cmd.Process.Pid
	go cmd.Wait() // reap; the shim process is supervised via its pipe, not cmd.Wait's error

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	conn, err := transport.Connect(ctx, pipeName)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrShimUnreachable, err)
	}

	if err := wire.WriteJSON(conn, wire.StatusRequest()); err != nil {
		conn.Close()
		return nil, fmt.Errorf("%w: %v", model.ErrShimUnreachable, err)
	}
	br := wire.NewBufferedReader(conn)
	payload, err := wire.ReadFrame(br)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("%w: %v", model.ErrShimUnreachable, err)
	}
	frame, err := wire.ParseFrame(payload)
	if err != nil || !frame.IsControl {
		conn.Close()
		return nil, model.ErrShimUnreachable
	}
	status, err := wire.ParseShimControlResponse(frame.Control)
	if err != nil {
		conn.Close()
		return nil, err
	}

	scr := screen.New(int(rows), int(cols), cfg.ScrollbackCap)
	entry := &sessionEntry{
		id:          sessionID,
		shellType:   shellType,
		shimPID:     shimPID,
		shellPID:    status.ShellPID,
		pipeName:    pipeName,
		cwd:         cwd,
		createdAt:   time.Now(),
		conn:        conn,
		ring:        ringbuffer.NewWithCap(cfg.RingBufferCap),
		scr:         scr,
		subscribers: make(map[Subscriber]struct{}),
	}
	entry.parser = vtparser.New(scr)

	storeDesc := model.ShimDescriptor{
		SessionID:    sessionID,
		ShimPID:      shimPID,
		ShimPipeName: pipeName,
		ShellPID:     status.ShellPID,
		ShellType:    shellType,
		Cwd:          cwd,
		Rows:         rows,
		Cols:         cols,
		CreatedAt:    entry.createdAt,
	}
	if store, err := shimmeta.NewStore(shimMetaDirFor(cfg)); err == nil {
		_ = store.Write(storeDesc)
	}

	return entry, nil
}

func envSlice(env map[string]string) []string {
	if len(env) == 0 {
		return nil
	}
	out := make([]string, 0, len(env))
	for k, v := range env {
		out = append(out, k+"="+v)
	}
	return out
}

func sessionPipeName(cfg Config, sessionID string) string {
	return cfg.ClientPipeName + ".session-" + sessionID
}
