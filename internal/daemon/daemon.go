// Package daemon implements the per-host process that multiplexes
// many Shim-owned sessions to one or more UI/remote clients (§4.5).
package daemon

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"time"

	"github.com/alangmartini/godly-terminal-sub001/internal/model"
	"github.com/alangmartini/godly-terminal-sub001/internal/ringbuffer"
	"github.com/alangmartini/godly-terminal-sub001/internal/shimmeta"
	"github.com/alangmartini/godly-terminal-sub001/internal/transport"
	"github.com/gofrs/flock"
	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc"
)

// Config carries the paths and settings a Daemon needs to start.
type Config struct {
	InstanceSuffix string // scopes pipe/lock names for parallel instances
	StateDir       string // <APPDATA-equivalent>/com.godly.terminal<suffix>
	ClientPipeName string // the well-known client-facing endpoint
	ShimExecutable string // path to the godly-shim binary
	ScrollbackCap  int    // rows retained per session's Screen scrollback
	RingBufferCap  int    // ring buffer capacity in bytes, shared by the Shim's own ring and the Daemon's mirror

	// ClientHandler serves one accepted client connection against the
	// Registry; it owns the connection until the client disconnects.
	// Set by the caller (internal/router.Handle) to avoid an import
	// cycle between this package and internal/router.
	ClientHandler func(conn net.Conn, reg *Registry)
}

// Daemon is the per-host process multiplexing sessions to clients.
type Daemon struct {
	cfg Config

	lock *flock.Flock

	registry *Registry

	listener net.Listener

	// conns tracks every accepted connection's handler goroutine so
	// Run can wait for them to drain on shutdown instead of abandoning
	// them mid-request.
	conns conc.WaitGroup
}

// New constructs a Daemon; call Run to start serving.
func New(cfg Config) *Daemon {
	if cfg.ScrollbackCap <= 0 {
		cfg.ScrollbackCap = 10000
	}
	if cfg.RingBufferCap <= 0 {
		cfg.RingBufferCap = ringbuffer.DefaultSize
	}
	return &Daemon{
		cfg:      cfg,
		registry: newRegistry(cfg),
	}
}

// Registry exposes the session registry so a caller (e.g. a CLI admin
// command) can query it directly without going through the client
// wire protocol.
func (d *Daemon) Registry() *Registry { return d.registry }

// shimMetaDir is where per-session shim descriptors live (§3/§4.4).
func (d *Daemon) shimMetaDir() string {
	return shimMetaDirFor(d.cfg)
}

func shimMetaDirFor(cfg Config) string {
	return filepath.Join(cfg.StateDir, "shims")
}

func (d *Daemon) lockPath() string {
	return filepath.Join(d.cfg.StateDir, "godlyd"+d.cfg.InstanceSuffix+".lock")
}

// Run acquires the singleton lock, recovers surviving shims, binds the
// client listener, and serves connections until the listener is
// closed via Shutdown. It returns model.ErrSingletonHeld if another
// instance already holds the lock (§4.5 "Singleton lock").
func (d *Daemon) Run() error {
	if err := os.MkdirAll(d.cfg.StateDir, 0o700); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(d.cfg.ClientPipeName), 0o700); err != nil {
		return fmt.Errorf("create client pipe dir: %w", err)
	}

	d.lock = flock.New(d.lockPath())
	locked, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire singleton lock: %w", err)
	}
	if !locked {
		return model.ErrSingletonHeld
	}
	defer d.lock.Unlock()

	d.recover()

	go d.runProcessNameTicker()

	ln, err := transport.Listen(d.cfg.ClientPipeName)
	if err != nil {
		return fmt.Errorf("listen on client pipe: %w", err)
	}
	d.listener = ln
	defer ln.Close()

	log.Info().Str("pipe", d.cfg.ClientPipeName).Msg("daemon listening")

	handler := d.cfg.ClientHandler
	if handler == nil {
		handler = func(conn net.Conn, _ *Registry) { conn.Close() }
	}

	for {
		conn, err := ln.Accept()
		if err != nil {
			// Only the client-connection handlers are drained here:
			// session bridge goroutines (Registry.Wait) deliberately
			// outlive Shutdown, since a Daemon restart must not kill
			// any Shim (§5).
			d.conns.Wait()
			return nil
		}
		d.conns.Go(func() { handler(conn, d.registry) })
	}
}

// Shutdown closes the client listener, causing Run's accept loop to
// return. It does not touch any Shim (§5 "A Daemon shutdown does NOT
// kill Shims").
func (d *Daemon) Shutdown() {
	if d.listener != nil {
		d.listener.Close()
	}
}

// recover implements §4.4: scan shim descriptors, probe liveness,
// reconnect, and re-insert surviving sessions into the registry.
func (d *Daemon) recover() {
	store, err := shimmeta.NewStore(d.shimMetaDir())
	if err != nil {
		log.Warn().Err(err).Msg("shim metadata store unavailable, skipping recovery")
		return
	}
	d.registry.store = store

	survivors, err := store.DiscoverSurvivingShims()
	if err != nil {
		log.Warn().Err(err).Msg("shim descriptor scan failed")
		return
	}

	for _, desc := range survivors {
		entry, err := d.reconnectShim(desc)
		if err != nil {
			log.Warn().Err(err).Str("session", desc.SessionID).Msg("could not reconnect to surviving shim")
			store.Remove(desc.SessionID)
			continue
		}
		d.registry.insert(entry)
		log.Info().Str("session", desc.SessionID).Msg("recovered session")
	}
}

func (d *Daemon) runProcessNameTicker() {
	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()
	for range ticker.C {
		d.registry.tickProcessNames()
	}
}
