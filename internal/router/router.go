// Package router implements the in-process dispatcher sitting behind
// the Daemon's client listener (§4.6): one reader task decoding
// frames, one writer task serializing outgoing messages, and a
// bounded per-(connection,session) event queue with drop-oldest
// overflow.
package router

import (
	"net"
	"sync"

	"github.com/alangmartini/godly-terminal-sub001/internal/daemon"
	"github.com/alangmartini/godly-terminal-sub001/internal/wire"
	"github.com/puzpuzpuz/xsync/v3"
	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc"
)

// defaultEventQueueCap bounds how many undelivered events a session
// accumulates for one connection before the oldest are dropped, when
// the composition root hasn't set EventQueueCap; attach semantics rely
// on drain_buffer for a full catch-up, so dropped live events are an
// acceptable best-effort loss (§4.6).
const defaultEventQueueCap = 256

// EventQueueCap is the configured per-(connection,session) event queue
// depth, set once at startup by the composition root (cmd/godlyd) from
// godlyconfig.Config.EventQueueCap. Zero means defaultEventQueueCap.
var EventQueueCap int

func eventQueueCap() int {
	if EventQueueCap > 0 {
		return EventQueueCap
	}
	return defaultEventQueueCap
}

// eventQueue is a small bounded deque of pending Events for one
// (connection, session) pair.
type eventQueue struct {
	mu    sync.Mutex
	items []wire.Event
}

func (q *eventQueue) push(ev wire.Event) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) >= eventQueueCap() {
		q.items = q.items[1:]
	}
	q.items = append(q.items, ev)
}

func (q *eventQueue) drain() []wire.Event {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return nil
	}
	out := q.items
	q.items = nil
	return out
}

// connHandler is the per-connection state: a reader goroutine decoding
// requests, a writer goroutine serializing responses and events, and a
// lock-free map of per-session event queues fed by the Registry's
// Subscriber callback (§4.6).
type connHandler struct {
	conn net.Conn
	reg  *daemon.Registry

	queues     *xsync.MapOf[string, *eventQueue]
	notify     chan struct{}
	respCh     chan wire.Response
	pushRespCh chan wire.Response // out-of-band responses pushed by a Registry callback (e.g. drain_buffer replies), not readLoop
	done       chan struct{}      // closed by writeLoop on exit, unblocks readLoop's send

	mu        sync.Mutex
	attached  map[string]bool
	closeOnce sync.Once
}

// Handle serves one accepted client connection against reg until the
// client disconnects. It is the function wired as
// daemon.Config.ClientHandler by the composition root (cmd/godlyd),
// keeping internal/daemon free of an import on internal/router.
func Handle(conn net.Conn, reg *daemon.Registry) {
	h := &connHandler{
		conn:       conn,
		reg:        reg,
		queues:     xsync.NewMapOf[string, *eventQueue](),
		notify:     make(chan struct{}, 1),
		respCh:     make(chan wire.Response, 16),
		pushRespCh: make(chan wire.Response, 8),
		done:       make(chan struct{}),
		attached:   make(map[string]bool),
	}
	defer h.close()

	var wg conc.WaitGroup
	wg.Go(h.writeLoop)
	wg.Go(h.readLoop)
	wg.Wait()
}

func (h *connHandler) close() {
	h.closeOnce.Do(func() {
		h.mu.Lock()
		sessions := make([]string, 0, len(h.attached))
		for id := range h.attached {
			sessions = append(sessions, id)
		}
		h.mu.Unlock()
		for _, id := range sessions {
			h.reg.Detach(id, h)
		}
		h.conn.Close()
	})
}

// PushEvent implements daemon.Subscriber: it is called concurrently
// from any subscribed session's bridge goroutine, hence the lock-free
// per-session queue map rather than a single mutex shared across every
// session this connection is attached to.
func (h *connHandler) PushEvent(sessionID, evtType string, data []byte, processName string) {
	q, _ := h.queues.LoadOrStore(sessionID, &eventQueue{})
	q.push(wire.Event{Type: evtType, SessionID: sessionID, Data: data, ProcessName: processName})
	select {
	case h.notify <- struct{}{}:
	default:
	}
}

// PushBuffer implements daemon.Subscriber: it delivers a drain_buffer
// reply as a Buffer response to this connection alone (§9), bypassing
// the per-session event queue entirely so it can never be mistaken
// for a broadcast Output event or dropped by the queue's drop-oldest
// overflow.
func (h *connHandler) PushBuffer(sessionID string, data []byte) {
	resp := wire.Response{Type: wire.RespBuffer, SessionID: sessionID, Data: data}
	select {
	case h.pushRespCh <- resp:
	case <-h.done:
	}
}

// writeLoop is the single writer task (§4.6): it prioritizes pending
// responses (both request replies and out-of-band pushes like a
// drain_buffer reply) over queued events so Ping/other request
// responses are never held up behind a burst of Output events, then
// drains every session's event queue once notified.
func (h *connHandler) writeLoop() {
	defer close(h.done)
	for {
		select {
		case resp, ok := <-h.respCh:
			if !ok {
				return
			}
			if err := h.send(wire.WrapResponse(resp)); err != nil {
				return
			}
			continue
		case resp := <-h.pushRespCh:
			if err := h.send(wire.WrapResponse(resp)); err != nil {
				return
			}
			continue
		default:
		}

		select {
		case resp, ok := <-h.respCh:
			if !ok {
				return
			}
			if err := h.send(wire.WrapResponse(resp)); err != nil {
				return
			}
		case resp := <-h.pushRespCh:
			if err := h.send(wire.WrapResponse(resp)); err != nil {
				return
			}
		case _, ok := <-h.notify:
			if !ok {
				return
			}
			if !h.drainEvents() {
				return
			}
		}
	}
}

func (h *connHandler) drainEvents() bool {
	ok := true
	h.queues.Range(func(sessionID string, q *eventQueue) bool {
		for _, ev := range q.drain() {
			if err := h.send(wire.WrapEvent(ev)); err != nil {
				ok = false
				return false
			}
		}
		return true
	})
	return ok
}

func (h *connHandler) send(msg wire.DaemonMessage) error {
	return wire.WriteJSON(h.conn, msg)
}

// readLoop is the single reader task: it decodes one frame at a time
// and dispatches synchronously, so responses land on respCh in the
// same order their requests arrived (§4.6's ordering invariant falls
// out of single-goroutine sequential processing, no correlation ID
// needed).
func (h *connHandler) readLoop() {
	defer close(h.respCh)
	br := wire.NewBufferedReader(h.conn)
	for {
		payload, err := wire.ReadFrame(br)
		if err != nil || payload == nil {
			return
		}
		req, err := wire.ParseRequest(payload)
		if err != nil {
			log.Warn().Err(err).Msg("malformed client request")
			continue
		}
		resp := h.dispatch(req)
		// Unlike events, responses are never dropped: a full channel
		// here just means the writer is behind on a slow client, so
		// block rather than lose a reply the client is waiting on —
		// unless the writer has already exited, in which case this
		// connection is done for either way.
		select {
		case h.respCh <- resp:
		case <-h.done:
			return
		}
	}
}
