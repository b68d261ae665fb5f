package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/alangmartini/godly-terminal-sub001/internal/wire"
	"github.com/spf13/cobra"
)

func newListCmd(instanceSuffix *string) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List sessions known to the daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			conn, err := dialDaemon(*instanceSuffix)
			if err != nil {
				return err
			}
			defer conn.Close()

			resp, err := request(conn, wire.Request{Type: wire.ReqListSessions})
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tSHELL\tPID\tSIZE\tATTACHED\tRUNNING")
			for _, s := range resp.Sessions {
				fmt.Fprintf(w, "%s\t%s\t%d\t%dx%d\t%v\t%v\n",
					s.ID, s.ShellType.String(), s.PID, s.Cols, s.Rows, s.Attached, s.Running)
			}
			return w.Flush()
		},
	}
}
