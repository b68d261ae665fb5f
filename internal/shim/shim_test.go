package shim

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alangmartini/godly-terminal-sub001/internal/model"
	"github.com/alangmartini/godly-terminal-sub001/internal/transport"
	"github.com/alangmartini/godly-terminal-sub001/internal/wire"
)

func waitForSocket(t *testing.T, path string) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if _, err := os.Stat(path); err == nil {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("socket %s never appeared", path)
}

func TestShimStatusResizeShutdown(t *testing.T) {
	if _, err := os.Stat("/bin/sleep"); err != nil {
		t.Skip("/bin/sleep not available")
	}

	dir := t.TempDir()
	pipePath := filepath.Join(dir, "shim.sock")
	cfg := Config{
		SessionID: "sess-1",
		ShellType: model.ShellType{Kind: model.KindCustom, Program: "/bin/sleep", Args: []string{"30"}},
		Rows:      10,
		Cols:      40,
		PipeName:  pipePath,
		StateDir:  dir,
	}
	sh := New(cfg)

	done := make(chan int, 1)
	go func() {
		done <- sh.Run(context.Background())
	}()

	waitForSocket(t, pipePath)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	conn, err := transport.Connect(ctx, pipePath)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer conn.Close()

	if err := wire.WriteJSON(conn, wire.StatusRequest()); err != nil {
		t.Fatalf("write status request: %v", err)
	}
	payload, err := wire.ReadFrame(conn)
	if err != nil || payload == nil {
		t.Fatalf("read status response: %v", err)
	}
	frame, err := wire.ParseFrame(payload)
	if err != nil || !frame.IsControl {
		t.Fatalf("expected control frame: %+v err=%v", frame, err)
	}
	resp, err := wire.ParseShimControlResponse(frame.Control)
	if err != nil {
		t.Fatalf("parse status response: %v", err)
	}
	if resp.Type != "status_info" || !resp.Running || resp.ShellPID <= 0 {
		t.Fatalf("got %+v", resp)
	}

	if err := wire.WriteJSON(conn, wire.ResizeRequest(5, 15)); err != nil {
		t.Fatalf("write resize request: %v", err)
	}

	// Give the resize a moment to apply, then confirm via status.
	time.Sleep(50 * time.Millisecond)
	if err := wire.WriteJSON(conn, wire.StatusRequest()); err != nil {
		t.Fatalf("write status request 2: %v", err)
	}
	payload, err = wire.ReadFrame(conn)
	if err != nil || payload == nil {
		t.Fatalf("read status response 2: %v", err)
	}
	frame, _ = wire.ParseFrame(payload)
	resp, _ = wire.ParseShimControlResponse(frame.Control)
	if resp.Rows != 5 || resp.Cols != 15 {
		t.Fatalf("expected resized rows/cols, got %+v", resp)
	}

	if err := wire.WriteJSON(conn, wire.ShutdownRequest()); err != nil {
		t.Fatalf("write shutdown request: %v", err)
	}

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("shim did not exit after shutdown")
	}

	if _, err := os.Stat(filepath.Join(cfg.StateDir, "shims", "sess-1.json")); !os.IsNotExist(err) {
		t.Fatal("expected shim descriptor removed on exit")
	}
}

func TestShimSecondAttachRejected(t *testing.T) {
	if _, err := os.Stat("/bin/sleep"); err != nil {
		t.Skip("/bin/sleep not available")
	}

	dir := t.TempDir()
	pipePath := filepath.Join(dir, "shim.sock")
	cfg := Config{
		SessionID: "sess-2",
		ShellType: model.ShellType{Kind: model.KindCustom, Program: "/bin/sleep", Args: []string{"30"}},
		Rows:      10,
		Cols:      40,
		PipeName:  pipePath,
		StateDir:  filepath.Join(dir, "shims"),
	}
	sh := New(cfg)
	go sh.Run(context.Background())
	waitForSocket(t, pipePath)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	first, err := transport.Connect(ctx, pipePath)
	if err != nil {
		t.Fatalf("connect first: %v", err)
	}
	defer first.Close()

	second, err := transport.Connect(ctx, pipePath)
	if err != nil {
		t.Fatalf("connect second: %v", err)
	}
	defer second.Close()

	// The second connection should be closed by the shim without a
	// response since only one client may be attached at a time.
	buf := make([]byte, 4)
	second.SetReadDeadline(time.Now().Add(1 * time.Second))
	_, err = second.Read(buf)
	if err == nil {
		t.Fatal("expected second attach to be rejected")
	}
}
