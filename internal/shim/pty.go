package shim

import (
	"os"

	"github.com/creack/pty"
)

// startPTY spawns the shell per the configured ShellType and attaches
// it to a new PTY of the requested size.
func (s *Shim) startPTY() error {
	program, args, cwd, err := resolveCommand(s.cfg.ShellType, s.cfg.Cwd)
	if err != nil {
		return err
	}

	s.cmd = newShellCmd(lookPath(program), args)
	if cwd != "" {
		s.cmd.Dir = cwd
	}
	if len(s.cfg.Env) > 0 {
		env := os.Environ()
		for k, v := range s.cfg.Env {
			env = append(env, k+"="+v)
		}
		env = append(env, "GODLY_SESSION_ID="+s.cfg.SessionID)
		s.cmd.Env = env
	}

	f, err := pty.StartWithSize(s.cmd, &pty.Winsize{
		Rows: s.cfg.Rows,
		Cols: s.cfg.Cols,
	})
	if err != nil {
		return err
	}
	s.ptyFile = f
	return nil
}

// resizePTY changes the PTY window size.
func (s *Shim) resizePTY(rows, cols uint16) error {
	return pty.Setsize(s.ptyFile, &pty.Winsize{Rows: rows, Cols: cols})
}

// writePTY serializes a write to the child shell.
func (s *Shim) writePTY(data []byte) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	_, err := s.ptyFile.Write(data)
	return err
}
