// Package godlylog wires up the daemon/shim/CLI processes' structured
// logging: a rotating file sink under the state directory plus stderr
// when attached to a terminal, and a recovered-panic hook so a crash
// leaves a trace behind instead of vanishing silently.
package godlylog

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// maxLogSize rotates the active log to a ".prev.log" sibling once
// exceeded, keeping at least two runs of history (mirrors the
// original daemon's 2 MiB debug_log.rs rotation threshold).
const maxLogSize = 2 * 1024 * 1024

// Init points the global zerolog logger at <stateDir>/<name>.log,
// rotating to <name>.prev.log first if the existing file is already
// over maxLogSize, and tees to stderr when it's a terminal.
func Init(stateDir, name string) error {
	if err := os.MkdirAll(stateDir, 0o700); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}

	path := filepath.Join(stateDir, name+".log")
	prevPath := filepath.Join(stateDir, name+".prev.log")
	rotateIfOversized(path, prevPath)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		f, err = os.OpenFile(filepath.Join(os.TempDir(), name+".log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
	}

	rw := &rotatingWriter{f: f, path: path, prevPath: prevPath}
	if st, err := f.Stat(); err == nil {
		rw.size = st.Size()
	}
	var w io.Writer = rw
	if isatty.IsTerminal(os.Stderr.Fd()) {
		w = zerolog.MultiLevelWriter(w, zerolog.ConsoleWriter{Out: os.Stderr})
	}

	log.Logger = zerolog.New(w).With().Timestamp().Str("proc", name).Logger()
	return nil
}

func rotateIfOversized(path, prevPath string) {
	info, err := os.Stat(path)
	if err != nil || info.Size() <= maxLogSize {
		return
	}
	os.Remove(prevPath)
	os.Rename(path, prevPath)
}

// rotatingWriter re-checks the size threshold on every write so a
// long-lived daemon process rotates without needing a restart.
type rotatingWriter struct {
	mu       sync.Mutex
	f        *os.File
	path     string
	prevPath string
	size     int64
}

func (w *rotatingWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.size+int64(len(p)) > maxLogSize {
		w.rotate()
	}
	n, err := w.f.Write(p)
	w.size += int64(n)
	return n, err
}

func (w *rotatingWriter) rotate() {
	w.f.Close()
	os.Remove(w.prevPath)
	os.Rename(w.path, w.prevPath)
	f, err := os.OpenFile(w.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return
	}
	w.f = f
	w.size = 0
}

// InstallPanicHook logs a recovered panic (with the goroutine's
// location) before re-panicking, so a daemon/shim crash with no
// attached console still leaves a record (mirrors debug_log.rs's
// install_panic_hook).
func InstallPanicHook() {
	if r := recover(); r != nil {
		log.Error().Interface("panic", r).Msg("recovered panic, re-panicking")
		panic(r)
	}
}
