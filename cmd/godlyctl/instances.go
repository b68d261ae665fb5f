package main

import (
	"fmt"
	"path/filepath"
	"text/tabwriter"

	"github.com/alangmartini/godly-terminal-sub001/internal/godlyconfig"
	"github.com/alangmartini/godly-terminal-sub001/internal/socketdir"
	"github.com/spf13/cobra"
)

func newInstancesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "instances",
		Short: "List running godlyd instances across all instance suffixes",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := &godlyconfig.Config{}
			cfg.Defaults()
			root := cfg.StateDirRoot
			if root == "" {
				root = filepath.Dir(cfg.StateDir())
			}

			found, err := socketdir.List(root)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "SUFFIX\tSOCKET")
			for _, inst := range found {
				suffix := inst.Suffix
				if suffix == "" {
					suffix = "(default)"
				}
				fmt.Fprintf(w, "%s\t%s\n", suffix, inst.SocketPath)
			}
			return w.Flush()
		},
	}
}
