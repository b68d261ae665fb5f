package daemon

import (
	"net"
	"testing"
	"time"

	"github.com/alangmartini/godly-terminal-sub001/internal/ringbuffer"
	"github.com/alangmartini/godly-terminal-sub001/internal/screen"
	"github.com/alangmartini/godly-terminal-sub001/internal/vtparser"
	"github.com/alangmartini/godly-terminal-sub001/internal/wire"
)

func TestBridgeFeedsOutputIntoMirrorAndFansOut(t *testing.T) {
	serverSide, clientSide := net.Pipe()
	scr := screen.New(24, 80, 1000)
	e := &sessionEntry{
		id:          "s1",
		conn:        clientSide,
		ring:        ringbuffer.New(),
		scr:         scr,
		subscribers: make(map[Subscriber]struct{}),
	}
	e.parser = vtparser.New(scr)

	sub := &recordingSubscriber{}
	e.addSubscriber(sub)

	r := newRegistry(Config{})
	r.insert(e)

	go e.bridge(r)

	if err := wire.WriteBinaryFrame(serverSide, wire.TagOutput, []byte("hello")); err != nil {
		t.Fatalf("write output frame: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		if string(e.ring.Snapshot()) == "hello" {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("ring never received output, got %q", e.ring.Snapshot())
		}
		time.Sleep(5 * time.Millisecond)
	}

	if !e.search("hello", false) {
		t.Errorf("search(hello) = false, want true")
	}
	if e.search("nope", false) {
		t.Errorf("search(nope) = true, want false")
	}

	serverSide.Close()
}

func TestBridgeRoutesBufferDataToDrainWaiterOnly(t *testing.T) {
	serverSide, clientSide := net.Pipe()
	scr := screen.New(24, 80, 1000)
	e := &sessionEntry{
		id:          "s1",
		conn:        clientSide,
		ring:        ringbuffer.New(),
		scr:         scr,
		subscribers: make(map[Subscriber]struct{}),
	}
	e.parser = vtparser.New(scr)

	waiter := &recordingSubscriber{}
	bystander := &recordingSubscriber{}
	e.addSubscriber(waiter)
	e.addSubscriber(bystander)
	e.drainWaiter = waiter

	r := newRegistry(Config{})
	r.insert(e)

	go e.bridge(r)

	if err := wire.WriteBinaryFrame(serverSide, wire.TagBufferData, []byte("history")); err != nil {
		t.Fatalf("write buffer_data frame: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		if len(waiter.buffers) > 0 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("drain waiter never received buffer data")
		}
		time.Sleep(5 * time.Millisecond)
	}

	if got := string(waiter.buffers[0]); got != "history" {
		t.Errorf("waiter buffer = %q, want %q", got, "history")
	}
	if len(waiter.events) != 0 {
		t.Errorf("waiter events = %v, want none — buffer data must not be fanned out as Output", waiter.events)
	}
	if len(bystander.buffers) != 0 || len(bystander.events) != 0 {
		t.Errorf("bystander got buffers=%v events=%v, want none", bystander.buffers, bystander.events)
	}
	if e.takeDrainWaiter() != nil {
		t.Errorf("drain waiter should be cleared after delivery")
	}

	serverSide.Close()
}

func TestBridgeHandlesShellExited(t *testing.T) {
	serverSide, clientSide := net.Pipe()
	scr := screen.New(24, 80, 1000)
	e := &sessionEntry{
		id:          "s1",
		conn:        clientSide,
		ring:        ringbuffer.New(),
		scr:         scr,
		subscribers: make(map[Subscriber]struct{}),
	}
	e.parser = vtparser.New(scr)
	r := newRegistry(Config{})
	r.insert(e)

	go e.bridge(r)

	code := int64(1)
	if err := wire.WriteJSON(serverSide, wire.ShellExitedResponse(&code)); err != nil {
		t.Fatalf("write shell_exited: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for e.isRunning() {
		if time.Now().After(deadline) {
			t.Fatalf("session never marked not-running after shell_exited")
		}
		time.Sleep(5 * time.Millisecond)
	}

	serverSide.Close()
}

func TestSessionEntryResizeUpdatesMirrorScreen(t *testing.T) {
	e, serverSide := newTestEntry(t)
	defer serverSide.Close()

	done := make(chan struct{})
	go func() {
		defer close(done)
		br := wire.NewBufferedReader(serverSide)
		payload, err := wire.ReadFrame(br)
		if err != nil {
			t.Errorf("read resize control: %v", err)
			return
		}
		frame, err := wire.ParseFrame(payload)
		if err != nil || !frame.IsControl {
			t.Errorf("expected control frame, got %+v", frame)
		}
	}()

	if err := e.resize(10, 30); err != nil {
		t.Fatalf("resize: %v", err)
	}
	<-done

	if e.scr.Rows() != 10 || e.scr.Cols() != 30 {
		t.Errorf("mirror screen = %dx%d, want 10x30", e.scr.Rows(), e.scr.Cols())
	}
}
