// Command godlyctl is the operator CLI for a running godlyd: list
// sessions, attach to one and stream its output, or send keystrokes,
// all by dialing the Daemon's client pipe directly and speaking the
// wire protocol (§6).
package main

import (
	"fmt"
	"os"

	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var instanceSuffix string

	root := &cobra.Command{
		Use:   "godlyctl",
		Short: "Operator CLI for the godly-terminal daemon",
	}
	root.PersistentFlags().StringVar(&instanceSuffix, "instance-suffix", "", "scopes the daemon instance to talk to")

	root.AddCommand(
		newListCmd(&instanceSuffix),
		newAttachCmd(&instanceSuffix),
		newSendKeysCmd(&instanceSuffix),
		newVersionCmd(),
		newInstancesCmd(),
	)
	return root
}

// colorProfile reports the terminal's color capability. attach uses it
// only to print a note when stdout reports no color support; the
// session's output bytes are written through unchanged either way.
func colorProfile() termenv.Profile {
	return termenv.NewOutput(os.Stdout).ColorProfile()
}
