// Command godly-shim is the per-session satellite process the Daemon
// spawns: it owns one PTY, serves one pipe endpoint, and survives a
// Daemon restart (§4.3).
package main

import (
	"context"
	"flag"
	"os"

	"github.com/alangmartini/godly-terminal-sub001/internal/godlylog"
	"github.com/alangmartini/godly-terminal-sub001/internal/model"
	"github.com/alangmartini/godly-terminal-sub001/internal/shim"
	"github.com/rs/zerolog/log"
)

func main() {
	var (
		sessionID     string
		shellType     string
		rows          int
		cols          int
		pipeName      string
		cwd           string
		stateDir      string
		ringBufferCap int
		scrollbackCap int
	)
	flag.StringVar(&sessionID, "session-id", "", "session identifier")
	flag.StringVar(&shellType, "shell-type", "", "shell type, e.g. windows/pwsh/cmd/wsl/wsl:<distro>/<prog>[:<args>]")
	flag.IntVar(&rows, "rows", 24, "initial PTY rows")
	flag.IntVar(&cols, "cols", 80, "initial PTY cols")
	flag.StringVar(&pipeName, "pipe-name", "", "pipe endpoint to serve")
	flag.StringVar(&cwd, "cwd", "", "working directory for the shell")
	flag.StringVar(&stateDir, "state-dir", "", "daemon state directory (holds shims/<session-id>.json)")
	flag.IntVar(&ringBufferCap, "ring-buffer-cap", 0, "ring buffer capacity in bytes (0 = default)")
	flag.IntVar(&scrollbackCap, "scrollback-cap", 0, "scrollback rows retained by this shim's own Screen (0 = default)")
	flag.Parse()

	if sessionID == "" || pipeName == "" {
		os.Stderr.WriteString("godly-shim: --session-id and --pipe-name are required\n")
		os.Exit(2)
	}

	if err := godlylog.Init(stateDir, "godly-shim-"+sessionID); err != nil {
		os.Stderr.WriteString("godly-shim: " + err.Error() + "\n")
	}
	defer godlylog.InstallPanicHook()

	cfg := shim.Config{
		SessionID:     sessionID,
		ShellType:     model.ParseShellType(shellType),
		Rows:          uint16(rows),
		Cols:          uint16(cols),
		PipeName:      pipeName,
		Cwd:           cwd,
		Env:           envMap(os.Environ()),
		StateDir:      stateDir,
		RingBufferCap: ringBufferCap,
		ScrollbackCap: scrollbackCap,
	}

	log.Info().Str("session", sessionID).Str("pipe", pipeName).Msg("shim starting")
	code := shim.New(cfg).Run(context.Background())
	os.Exit(code)
}

func envMap(environ []string) map[string]string {
	out := make(map[string]string, len(environ))
	for _, kv := range environ {
		for i := 0; i < len(kv); i++ {
			if kv[i] == '=' {
				out[kv[:i]] = kv[i+1:]
				break
			}
		}
	}
	return out
}
