// Package socketdir discovers running godlyd instances by scanning
// state directories for their client sockets, the same directory-glob
// approach the teacher's own internal/socketdir uses for agent/bridge
// socket discovery, adapted to this project's one-socket-per-instance
// layout (<root>/com.godly.terminal<suffix>/sockets/godlyd<suffix>.sock).
package socketdir

import (
	"os"
	"path/filepath"
	"strings"
)

const (
	stateDirPrefix = "com.godly.terminal"
	socketPrefix   = "godlyd"
	socketSuffix   = ".sock"
)

// Instance is one discovered godlyd socket.
type Instance struct {
	Suffix     string // instance suffix, "" for the default instance
	SocketPath string
}

// Format returns the client socket filename for an instance suffix,
// matching the name cmd/godlyd binds.
func Format(suffix string) string {
	return socketPrefix + suffix + socketSuffix
}

// Parse extracts the instance suffix from a socket filename, or
// reports false if it doesn't match the godlyd naming convention.
func Parse(filename string) (suffix string, ok bool) {
	if !strings.HasPrefix(filename, socketPrefix) || !strings.HasSuffix(filename, socketSuffix) {
		return "", false
	}
	return strings.TrimSuffix(strings.TrimPrefix(filename, socketPrefix), socketSuffix), true
}

// List scans root (a state-dir root, e.g. $HOME/.local/share) for every
// com.godly.terminal<suffix>/sockets/godlyd<suffix>.sock it can find.
// A missing root is not an error; it yields zero instances.
func List(root string) ([]Instance, error) {
	stateDirs, err := filepath.Glob(filepath.Join(root, stateDirPrefix+"*"))
	if err != nil {
		return nil, err
	}
	var out []Instance
	for _, dir := range stateDirs {
		sockets, err := filepath.Glob(filepath.Join(dir, "sockets", socketPrefix+"*"+socketSuffix))
		if err != nil {
			return nil, err
		}
		for _, sock := range sockets {
			suffix, ok := Parse(filepath.Base(sock))
			if !ok {
				continue
			}
			if info, err := os.Stat(sock); err != nil || info.Mode()&os.ModeSocket == 0 {
				continue
			}
			out = append(out, Instance{Suffix: suffix, SocketPath: sock})
		}
	}
	return out, nil
}
