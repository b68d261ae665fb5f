// Package shimmeta persists and recovers shim descriptors on disk so a
// restarted Daemon can reconnect to surviving Shims (§4.4).
package shimmeta

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/alangmartini/godly-terminal-sub001/internal/model"
	"github.com/mitchellh/go-ps"
)

// Store manages the on-disk `<state_dir>/shims/*.json` descriptor
// directory.
type Store struct {
	dir string
}

// NewStore returns a Store rooted at the given shim-metadata directory,
// creating it if necessary.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create shim metadata dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

func (s *Store) path(sessionID string) string {
	return filepath.Join(s.dir, sessionID+".json")
}

// Write persists a descriptor, overwriting any existing file for the
// same session.
func (s *Store) Write(desc model.ShimDescriptor) error {
	data, err := json.MarshalIndent(desc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal shim descriptor: %w", err)
	}
	return os.WriteFile(s.path(desc.SessionID), data, 0o600)
}

// Remove deletes a session's descriptor file, if present.
func (s *Store) Remove(sessionID string) {
	_ = os.Remove(s.path(sessionID))
}

// DiscoverSurvivingShims scans the metadata directory, removing
// unparseable or stale (dead-PID) descriptors, and returns the
// descriptors of shims whose process is still alive (§4.4 steps 1-4;
// step 5's pipe reconnect is the caller's responsibility).
func (s *Store) DiscoverSurvivingShims() ([]model.ShimDescriptor, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read shim metadata dir: %w", err)
	}

	var survivors []model.ShimDescriptor
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		full := filepath.Join(s.dir, e.Name())
		data, err := os.ReadFile(full)
		if err != nil {
			continue
		}
		var desc model.ShimDescriptor
		if err := json.Unmarshal(data, &desc); err != nil {
			_ = os.Remove(full)
			continue
		}
		if !isProcessAlive(desc.ShimPID) {
			_ = os.Remove(full)
			continue
		}
		survivors = append(survivors, desc)
	}
	return survivors, nil
}

// isProcessAlive reports whether the OS still has a process with the
// given PID. ps.FindProcess is the portable equivalent of the
// original's OpenProcess/GetExitCodeProcess check.
func isProcessAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	proc, err := ps.FindProcess(pid)
	return err == nil && proc != nil
}
