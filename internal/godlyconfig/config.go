// Package godlyconfig loads the daemon's optional YAML config file, in
// the teacher's internal/config style: a defaulted, overridable struct
// loaded from disk if present, zero value otherwise.
package godlyconfig

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/alangmartini/godly-terminal-sub001/internal/ringbuffer"
	"gopkg.in/yaml.v3"
)

// Config carries the operator-overridable settings a Daemon reads at
// startup. Every field has a sensible default applied by Defaults, so
// an absent or partial config.yaml is never an error.
type Config struct {
	InstanceSuffix string `yaml:"instance_suffix"`
	StateDirRoot   string `yaml:"state_dir_root"`
	ScrollbackCap  int    `yaml:"scrollback_cap"`
	RingBufferCap  int    `yaml:"ring_buffer_cap"`
	EventQueueCap  int    `yaml:"event_queue_cap"`
}

const (
	defaultScrollbackCap = 10000
	defaultEventQueueCap = 256
)

// Defaults fills in zero-valued fields, in place.
func (c *Config) Defaults() {
	if c.ScrollbackCap <= 0 {
		c.ScrollbackCap = defaultScrollbackCap
	}
	if c.RingBufferCap <= 0 {
		c.RingBufferCap = ringbuffer.DefaultSize
	}
	if c.EventQueueCap <= 0 {
		c.EventQueueCap = defaultEventQueueCap
	}
}

// StateDir returns <APPDATA-equivalent>/com.godly.terminal<suffix>,
// honoring StateDirRoot as an override of the root directory.
func (c *Config) StateDir() string {
	root := c.StateDirRoot
	if root == "" {
		root = defaultStateDirRoot()
	}
	return filepath.Join(root, "com.godly.terminal"+c.InstanceSuffix)
}

func defaultStateDirRoot() string {
	if appData := os.Getenv("APPDATA"); appData != "" {
		return appData
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".local", "share")
}

// Load reads the YAML config at path if it exists, else returns a
// defaulted zero Config. Since StateDir depends on InstanceSuffix,
// which config.yaml itself might set, the caller derives path from CLI
// flags/env rather than from a config file that hasn't been read yet.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.Defaults()
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.Defaults()
	return cfg, nil
}
