// Package procname walks a process tree to find the name of the
// foreground-most running program for the Daemon's process-name
// tracking (§4.5).
package procname

import (
	"path/filepath"
	"strings"

	ps "github.com/mitchellh/go-ps"
)

// DeepestDescendant returns the executable name (without path or
// extension) of the deepest descendant of rootPID in the current
// process tree. If rootPID has no children, its own name is returned.
// Linux process names inside a WSL distribution are not reachable
// from the host; callers handle that case separately (§4.5).
func DeepestDescendant(rootPID int) (string, error) {
	procs, err := ps.Processes()
	if err != nil {
		return "", err
	}

	children := make(map[int][]int, len(procs))
	names := make(map[int]string, len(procs))
	for _, p := range procs {
		children[p.PPid()] = append(children[p.PPid()], p.Pid())
		names[p.Pid()] = p.Executable()
	}

	deepestPID, deepestDepth := rootPID, 0
	var walk func(pid, depth int)
	walk = func(pid, depth int) {
		if depth > deepestDepth {
			deepestDepth, deepestPID = depth, pid
		}
		for _, child := range children[pid] {
			walk(child, depth+1)
		}
	}
	walk(rootPID, 0)

	return cleanName(names[deepestPID]), nil
}

func cleanName(exe string) string {
	if exe == "" {
		return ""
	}
	base := filepath.Base(exe)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
