package main

import (
	"github.com/alangmartini/godly-terminal-sub001/internal/wire"
	"github.com/spf13/cobra"
)

func newSendKeysCmd(instanceSuffix *string) *cobra.Command {
	return &cobra.Command{
		Use:   "send-keys <session-id> <text>",
		Short: "Write raw bytes to a session's PTY",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			sessionID, text := args[0], args[1]
			conn, err := dialDaemon(*instanceSuffix)
			if err != nil {
				return err
			}
			defer conn.Close()

			_, err = request(conn, wire.Request{Type: wire.ReqWrite, SessionID: sessionID, Data: []byte(text)})
			return err
		},
	}
}
