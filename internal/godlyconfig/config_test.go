package godlyconfig

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/alangmartini/godly-terminal-sub001/internal/ringbuffer"
)

func TestLoadValidYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	yaml := `instance_suffix: "-dev"
scrollback_cap: 5000
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.InstanceSuffix != "-dev" {
		t.Errorf("InstanceSuffix = %q, want -dev", cfg.InstanceSuffix)
	}
	if cfg.ScrollbackCap != 5000 {
		t.Errorf("ScrollbackCap = %d, want 5000", cfg.ScrollbackCap)
	}
	if cfg.RingBufferCap != ringbuffer.DefaultSize {
		t.Errorf("RingBufferCap = %d, want default %d", cfg.RingBufferCap, ringbuffer.DefaultSize)
	}
	if cfg.EventQueueCap != defaultEventQueueCap {
		t.Errorf("EventQueueCap = %d, want default %d", cfg.EventQueueCap, defaultEventQueueCap)
	}
}

func TestLoadMissingFile(t *testing.T) {
	cfg, err := Load("/nonexistent/path/config.yaml")
	if err != nil {
		t.Fatalf("expected no error for missing file, got: %v", err)
	}
	if cfg.ScrollbackCap != defaultScrollbackCap {
		t.Errorf("ScrollbackCap = %d, want default %d", cfg.ScrollbackCap, defaultScrollbackCap)
	}
	if cfg.RingBufferCap != ringbuffer.DefaultSize {
		t.Errorf("RingBufferCap = %d, want default %d", cfg.RingBufferCap, ringbuffer.DefaultSize)
	}
}

func TestStateDirHonorsInstanceSuffix(t *testing.T) {
	cfg := &Config{InstanceSuffix: "-test2", StateDirRoot: "/tmp/godly-root"}
	want := filepath.Join("/tmp/godly-root", "com.godly.terminal-test2")
	if got := cfg.StateDir(); got != want {
		t.Errorf("StateDir() = %q, want %q", got, want)
	}
}
