// Command godlyd is the per-host Daemon process: it multiplexes many
// Shim-owned sessions to client connections over the well-known pipe
// (§4.5), optionally serving the remote HTTP/WebSocket façade too.
package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/alangmartini/godly-terminal-sub001/internal/daemon"
	"github.com/alangmartini/godly-terminal-sub001/internal/godlyconfig"
	"github.com/alangmartini/godly-terminal-sub001/internal/godlylog"
	"github.com/alangmartini/godly-terminal-sub001/internal/model"
	"github.com/alangmartini/godly-terminal-sub001/internal/remoteapi"
	"github.com/alangmartini/godly-terminal-sub001/internal/router"
	"github.com/alangmartini/godly-terminal-sub001/internal/version"
	"github.com/rs/zerolog/log"
)

func main() {
	var (
		instanceSuffix string
		shimExecutable string
		configPath     string
		remoteAddr     string
	)
	flag.StringVar(&instanceSuffix, "instance-suffix", "", "scopes pipe/lock/state-dir names for parallel instances")
	flag.StringVar(&shimExecutable, "shim-executable", "godly-shim", "path to the godly-shim binary")
	flag.StringVar(&configPath, "config", "", "path to config.yaml (defaults under the state dir)")
	flag.StringVar(&remoteAddr, "remote-addr", "", "if set, also serve the remote HTTP/WebSocket API on this address")
	flag.Parse()

	bootCfg := &godlyconfig.Config{InstanceSuffix: instanceSuffix}
	bootCfg.Defaults()
	if configPath == "" {
		configPath = filepath.Join(bootCfg.StateDir(), "config.yaml")
	}
	cfg, err := godlyconfig.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "godlyd: %v\n", err)
		os.Exit(1)
	}
	if cfg.InstanceSuffix == "" {
		cfg.InstanceSuffix = instanceSuffix
	}

	stateDir := cfg.StateDir()
	if err := godlylog.Init(stateDir, "godly-daemon-debug"); err != nil {
		fmt.Fprintf(os.Stderr, "godlyd: %v\n", err)
	}
	defer godlylog.InstallPanicHook()

	router.EventQueueCap = cfg.EventQueueCap

	d := daemon.New(daemon.Config{
		InstanceSuffix: cfg.InstanceSuffix,
		StateDir:       stateDir,
		ClientPipeName: filepath.Join(stateDir, "sockets", "godlyd"+cfg.InstanceSuffix+".sock"),
		ShimExecutable: shimExecutable,
		ScrollbackCap:  cfg.ScrollbackCap,
		RingBufferCap:  cfg.RingBufferCap,
		ClientHandler:  router.Handle,
	})

	if remoteAddr != "" {
		go serveRemoteAPI(remoteAddr, d.Registry())
	}

	log.Info().Str("state_dir", stateDir).Str("version", version.DisplayVersion()).Msg("godlyd starting")
	if err := d.Run(); err != nil {
		if err == model.ErrSingletonHeld {
			fmt.Fprintln(os.Stderr, "godlyd: another instance is already running")
			os.Exit(0)
		}
		log.Error().Err(err).Msg("daemon exited with error")
		os.Exit(1)
	}
}

func serveRemoteAPI(addr string, reg *daemon.Registry) {
	srv := remoteapi.New(reg)
	log.Info().Str("addr", addr).Msg("remote API listening")
	if err := http.ListenAndServe(addr, srv); err != nil {
		log.Error().Err(err).Msg("remote API server exited")
	}
}
