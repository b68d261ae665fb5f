package shim

import (
	"errors"
	"net"
	"os/exec"

	"github.com/alangmartini/godly-terminal-sub001/internal/wire"
)

func (s *Shim) setState(st State) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}

func (s *Shim) getState() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// closeListener unblocks the accept loop in Run, used when the shim
// transitions to a terminal state.
func (s *Shim) closeListener() {
	s.mu.Lock()
	ln := s.listener
	s.mu.Unlock()
	if ln != nil {
		ln.Close()
	}
}

// markBroken transitions to BROKEN, notifying the attached client if
// any, per §4.3 "shell exited OR PTY read failed".
func (s *Shim) markBroken(exitCode *int) {
	s.mu.Lock()
	if s.state == StateBroken || s.state == StateExiting {
		s.mu.Unlock()
		return
	}
	s.state = StateBroken
	s.shellExited = true
	s.exitCode = exitCode
	conn := s.conn
	s.mu.Unlock()

	if conn != nil {
		var ec *int64
		if exitCode != nil {
			v := int64(*exitCode)
			ec = &v
		}
		s.pipeMu.Lock()
		_ = wire.WriteJSON(conn, wire.ShellExitedResponse(ec))
		s.pipeMu.Unlock()
	}
	s.closeListener()
}

// readPTYLoop is the shim's PTY-reader thread (§5): it appends every
// chunk to the ring buffer and feeds it to the VT parser, then — only
// while a client is attached — forwards the same bytes immediately as
// an OUTPUT frame, unbuffered.
func (s *Shim) readPTYLoop() {
	buf := make([]byte, 32*1024)
	for {
		n, err := s.ptyFile.Read(buf)
		if n > 0 {
			chunk := append([]byte(nil), buf[:n]...)
			s.ring.Append(chunk)
			s.parser.Feed(chunk)

			s.mu.Lock()
			conn := s.conn
			serving := s.state == StateServing
			s.mu.Unlock()
			if serving && conn != nil {
				s.pipeMu.Lock()
				werr := wire.WriteBinaryFrame(conn, wire.TagOutput, chunk)
				s.pipeMu.Unlock()
				if werr != nil {
					// A stalled/dead client pipe must never block the
					// PTY reader (§5c); drop the frame and continue.
				}
			}
		}
		if err != nil {
			exitCode := s.waitExitCode()
			s.markBroken(exitCode)
			return
		}
	}
}

// waitExitCode reaps the child process and extracts its exit code, if
// the OS can report one.
func (s *Shim) waitExitCode() *int {
	if s.cmd == nil {
		return nil
	}
	err := s.cmd.Wait()
	if err == nil {
		code := 0
		return &code
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		code := exitErr.ExitCode()
		return &code
	}
	return nil
}

// serveConn runs the SERVING state for exactly one attached client,
// moving to DETACHED when the client disconnects or issuing
// shutdown puts the shim into EXITING. The caller (Run's accept loop)
// has already claimed s.conn for this connection before spawning this
// goroutine, so a second concurrent attach is rejected before it ever
// reaches here.
func (s *Shim) serveConn(conn net.Conn) {
	defer func() {
		s.mu.Lock()
		s.conn = nil
		if s.state == StateServing {
			s.state = StateDetached
		}
		s.mu.Unlock()
		conn.Close()
	}()

	br := wire.NewBufferedReader(conn)
	for {
		payload, err := wire.ReadFrame(br)
		if err != nil || payload == nil {
			return
		}
		frame, err := wire.ParseFrame(payload)
		if err != nil {
			continue
		}
		if s.dispatchFrame(conn, frame) {
			return // shutdown requested
		}
	}
}

// dispatchFrame handles one inbound Daemon->Shim frame while SERVING
// (§4.3). It returns true when the shim should stop serving (shutdown).
func (s *Shim) dispatchFrame(conn net.Conn, f wire.Frame) bool {
	if !f.IsControl {
		if f.Tag == wire.TagWrite {
			_ = s.writePTY(f.Data)
		}
		return false
	}

	req, err := wire.ParseShimControlRequest(f.Control)
	if err != nil {
		return false
	}
	switch req.Type {
	case "resize":
		_ = s.resizePTY(req.Rows, req.Cols)
		s.screen.Resize(int(req.Rows), int(req.Cols))
	case "status":
		running := s.cmd != nil && s.cmd.ProcessState == nil
		rows, cols := s.screen.Rows(), s.screen.Cols()
		s.pipeMu.Lock()
		_ = wire.WriteJSON(conn, wire.StatusInfoResponse(s.cmd.Process.Pid, running, uint16(rows), uint16(cols)))
		s.pipeMu.Unlock()
	case "drain_buffer":
		data := s.ring.DrainAll()
		s.pipeMu.Lock()
		_ = wire.WriteBinaryFrame(conn, wire.TagBufferData, data)
		s.pipeMu.Unlock()
	case "shutdown":
		s.setState(StateExiting)
		if s.cmd != nil && s.cmd.Process != nil {
			_ = s.cmd.Process.Kill()
		}
		s.closeListener()
		return true
	}
	return false
}
