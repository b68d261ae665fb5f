package shim

import (
	"os/exec"
	"syscall"
)

// newShellCmd builds the child command detached into its own process
// group (§4.3 "spawned ... with no console and a new process group")
// so that the shim's own ancestry exiting does not signal the shell.
func newShellCmd(program string, args []string) *exec.Cmd {
	cmd := exec.Command(program, args...)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
	return cmd
}
