package daemon

import (
	"net"
	"testing"

	"github.com/alangmartini/godly-terminal-sub001/internal/model"
	"github.com/alangmartini/godly-terminal-sub001/internal/ringbuffer"
	"github.com/alangmartini/godly-terminal-sub001/internal/screen"
	"github.com/alangmartini/godly-terminal-sub001/internal/vtparser"
	"github.com/alangmartini/godly-terminal-sub001/internal/wire"
)

func newTestEntry(t *testing.T) (*sessionEntry, net.Conn) {
	t.Helper()
	serverSide, clientSide := net.Pipe()
	scr := screen.New(24, 80, 1000)
	e := &sessionEntry{
		id:          "s1",
		shellType:   model.ShellType{Kind: model.KindCustom, Program: "bash"},
		shimPID:     1234,
		shellPID:    5678,
		conn:        clientSide,
		ring:        ringbuffer.New(),
		scr:         scr,
		subscribers: make(map[Subscriber]struct{}),
	}
	e.parser = vtparser.New(scr)
	return e, serverSide
}

func TestRegistryUnknownSessionErrors(t *testing.T) {
	r := newRegistry(Config{})

	if _, err := r.Attach("missing", nil); err != model.ErrUnknownSession {
		t.Errorf("Attach: got %v, want ErrUnknownSession", err)
	}
	if err := r.Write("missing", []byte("x")); err != model.ErrUnknownSession {
		t.Errorf("Write: got %v, want ErrUnknownSession", err)
	}
	if err := r.Resize("missing", 10, 10); err != model.ErrUnknownSession {
		t.Errorf("Resize: got %v, want ErrUnknownSession", err)
	}
	if _, err := r.ReadBuffer("missing"); err != model.ErrUnknownSession {
		t.Errorf("ReadBuffer: got %v, want ErrUnknownSession", err)
	}
	if err := r.Close("missing"); err != model.ErrUnknownSession {
		t.Errorf("Close: got %v, want ErrUnknownSession", err)
	}
}

func TestRegistryListAndGet(t *testing.T) {
	r := newRegistry(Config{})
	e, serverSide := newTestEntry(t)
	defer serverSide.Close()
	r.insert(e)

	list := r.List()
	if len(list) != 1 || list[0].ID != "s1" {
		t.Fatalf("List() = %+v, want one session s1", list)
	}

	got, ok := r.get("s1")
	if !ok || got != e {
		t.Fatalf("get(s1) = %v,%v want the inserted entry", got, ok)
	}
}

type recordingSubscriber struct {
	events  []string
	buffers [][]byte
}

func (r *recordingSubscriber) PushEvent(sessionID, evtType string, data []byte, processName string) {
	r.events = append(r.events, evtType)
}

func (r *recordingSubscriber) PushBuffer(sessionID string, data []byte) {
	r.buffers = append(r.buffers, data)
}

func TestRegistryAttachTriggersDrainOnce(t *testing.T) {
	r := newRegistry(Config{})
	e, serverSide := newTestEntry(t)
	defer serverSide.Close()
	r.insert(e)

	sub := &recordingSubscriber{}

	done := make(chan struct{})
	go func() {
		defer close(done)
		br := wire.NewBufferedReader(serverSide)
		payload, err := wire.ReadFrame(br)
		if err != nil {
			t.Errorf("read drain_buffer request: %v", err)
			return
		}
		frame, err := wire.ParseFrame(payload)
		if err != nil || !frame.IsControl {
			t.Errorf("expected control frame, got %+v err=%v", frame, err)
			return
		}
		req, err := wire.ParseShimControlRequest(frame.Control)
		if err != nil || req.Type != "drain_buffer" {
			t.Errorf("expected drain_buffer request, got %+v err=%v", req, err)
		}
	}()

	if _, err := r.Attach("s1", sub); err != nil {
		t.Fatalf("Attach: %v", err)
	}
	<-done

	// A second attach must not re-drain: nothing reads serverSide any
	// more, so if maybeDrain fired again its write on the synchronous
	// pipe would block this second Attach forever.
	sub2 := &recordingSubscriber{}
	if _, err := r.Attach("s1", sub2); err != nil {
		t.Fatalf("second Attach: %v", err)
	}
}

func TestRegistryDetachAllRemovesFromEverySession(t *testing.T) {
	r := newRegistry(Config{})
	e1, s1 := newTestEntry(t)
	defer s1.Close()
	e1.id = "a"
	e2, s2 := newTestEntry(t)
	defer s2.Close()
	e2.id = "b"
	r.insert(e1)
	r.insert(e2)

	sub := &recordingSubscriber{}
	e1.addSubscriber(sub)
	e2.addSubscriber(sub)

	r.DetachAll(sub)

	e1.mu.Lock()
	_, stillIn1 := e1.subscribers[sub]
	e1.mu.Unlock()
	e2.mu.Lock()
	_, stillIn2 := e2.subscribers[sub]
	e2.mu.Unlock()
	if stillIn1 || stillIn2 {
		t.Fatalf("DetachAll left subscriber registered: e1=%v e2=%v", stillIn1, stillIn2)
	}
}
