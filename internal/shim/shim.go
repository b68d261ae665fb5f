// Package shim implements the per-session satellite process that owns
// one PTY and serves one pipe endpoint (§4.3). It is spawned detached
// by the Daemon and survives a Daemon restart; reconnection is handled
// by the Daemon side (internal/shimmeta + internal/transport).
package shim

import (
	"context"
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"time"

	"github.com/alangmartini/godly-terminal-sub001/internal/model"
	"github.com/alangmartini/godly-terminal-sub001/internal/ringbuffer"
	"github.com/alangmartini/godly-terminal-sub001/internal/screen"
	"github.com/alangmartini/godly-terminal-sub001/internal/shimmeta"
	"github.com/alangmartini/godly-terminal-sub001/internal/transport"
	"github.com/alangmartini/godly-terminal-sub001/internal/vtparser"
)

// State is one of the shim lifecycle states (§4.3).
type State int

const (
	StateStarting State = iota
	StateReady
	StateServing
	StateDetached
	StateExiting
	StateBroken
)

func (s State) String() string {
	switch s {
	case StateStarting:
		return "STARTING"
	case StateReady:
		return "READY"
	case StateServing:
		return "SERVING"
	case StateDetached:
		return "DETACHED"
	case StateExiting:
		return "EXITING"
	case StateBroken:
		return "BROKEN"
	default:
		return "UNKNOWN"
	}
}

// Config carries the shim's startup arguments (§4.3).
type Config struct {
	SessionID     string
	ShellType     model.ShellType
	Rows          uint16
	Cols          uint16
	PipeName      string
	Cwd           string
	Env           map[string]string
	StateDir      string // directory holding shims/<session_id>.json
	RingBufferCap int    // ring buffer capacity in bytes; 0 means ringbuffer.DefaultSize
	ScrollbackCap int    // scrollback rows retained by the shim's own Screen; 0 means 10000
}

// Shim owns exactly one PTY and serves exactly one pipe endpoint.
type Shim struct {
	cfg Config

	ptyFile *os.File
	cmd     *exec.Cmd

	ring   *ringbuffer.RingBuffer
	screen *screen.Screen
	parser *vtparser.Parser

	writeMu sync.Mutex // serializes writes to the PTY
	pipeMu  sync.Mutex // serializes writes to the attached client's pipe

	mu           sync.Mutex // guards state, conn, and listener
	state        State
	conn         net.Conn // the one attached client, nil if none
	listener     net.Listener
	everAttached bool

	meta *shimmeta.Store

	shellExited bool
	exitCode    *int
}

// New constructs a Shim in state STARTING; call Run to drive its
// lifecycle to completion.
func New(cfg Config) *Shim {
	scrollbackCap := cfg.ScrollbackCap
	if scrollbackCap <= 0 {
		scrollbackCap = 10000
	}
	return &Shim{
		cfg:    cfg,
		ring:   ringbuffer.NewWithCap(cfg.RingBufferCap),
		screen: screen.New(int(cfg.Rows), int(cfg.Cols), scrollbackCap),
		state:  StateStarting,
	}
}

// Run opens the PTY, spawns the shell, writes the metadata descriptor,
// opens the pipe listener, and serves connections until the shell
// exits or a shutdown control request arrives. It returns the process
// exit code the caller should use (§7 "Exit codes").
func (s *Shim) Run(ctx context.Context) int {
	s.parser = vtparser.New(s.screen)

	if err := s.startPTY(); err != nil {
		return 1
	}
	s.setState(StateStarting)

	meta, err := shimmeta.NewStore(filepath.Join(s.cfg.StateDir, "shims"))
	if err == nil {
		s.meta = meta
		_ = s.meta.Write(model.ShimDescriptor{
			SessionID:    s.cfg.SessionID,
			ShimPID:      os.Getpid(),
			ShimPipeName: s.cfg.PipeName,
			ShellPID:     s.cmd.Process.Pid,
			ShellType:    s.cfg.ShellType,
			Cwd:          s.cfg.Cwd,
			Rows:         s.cfg.Rows,
			Cols:         s.cfg.Cols,
			CreatedAt:    time.Now(),
		})
	}

	ln, err := transport.Listen(s.cfg.PipeName)
	if err != nil {
		s.markBroken(nil)
		return 1
	}
	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()

	s.setState(StateReady)

	go s.readPTYLoop()

	var wg sync.WaitGroup
	for {
		conn, err := ln.Accept()
		if err != nil {
			// The listener is only ever closed deliberately, by
			// markBroken or a shutdown control request.
			break
		}

		s.mu.Lock()
		busy := s.conn != nil
		if !busy {
			s.conn = conn
			s.everAttached = true
			s.state = StateServing
		}
		s.mu.Unlock()
		if busy {
			// Only one client at a time (§4.3); a second concurrent
			// attach is rejected outright at accept time, the
			// portable equivalent of PIPE_BUSY since unix listeners
			// don't reject second connections at connect time.
			conn.Close()
			continue
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			s.serveConn(conn)
		}()
	}
	wg.Wait()

	if s.meta != nil {
		s.meta.Remove(s.cfg.SessionID)
	}

	if s.shellExited && s.exitCode != nil {
		return *s.exitCode
	}
	return 0
}
