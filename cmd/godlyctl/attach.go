package main

import (
	"fmt"
	"io"
	"os"

	"github.com/alangmartini/godly-terminal-sub001/internal/wire"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func newAttachCmd(instanceSuffix *string) *cobra.Command {
	return &cobra.Command{
		Use:   "attach <session-id>",
		Short: "Attach to a session and stream its output",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sessionID := args[0]
			if colorProfile() == termenv.Ascii {
				fmt.Fprintln(os.Stderr, "note: terminal reports no color support, output may render with raw escape codes")
			}
			conn, err := dialDaemon(*instanceSuffix)
			if err != nil {
				return err
			}
			defer conn.Close()

			if err := wire.WriteJSON(conn, wire.Request{Type: wire.ReqAttach, SessionID: sessionID}); err != nil {
				return fmt.Errorf("send attach request: %w", err)
			}

			restore := enterRawMode(sessionID, conn)
			defer restore()

			br := wire.NewBufferedReader(conn)
			return readMessages(br, func(msg wire.DaemonMessage) {
				switch {
				case msg.Response != nil:
					switch msg.Response.Type {
					case wire.RespError:
						fmt.Fprintln(os.Stderr, "attach failed:", msg.Response.Message)
						os.Exit(1)
					case wire.RespBuffer:
						// The drain_buffer catch-up reply, delivered to
						// this connection alone rather than fanned out
						// as an Output event (§9).
						os.Stdout.Write(msg.Response.Data)
					}
				case msg.Event != nil:
					handleAttachEvent(*msg.Event)
				}
			})
		},
	}
}

// enterRawMode puts the controlling terminal into raw mode (when stdin
// is actually a terminal), sends the session an initial resize to match
// it, and starts a goroutine forwarding raw stdin bytes as ReqWrite
// requests. The returned func restores the prior terminal state and
// must be called before the command returns.
func enterRawMode(sessionID string, conn io.Writer) func() {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return func() {}
	}

	if cols, rows, err := term.GetSize(fd); err == nil {
		_ = wire.WriteJSON(conn, wire.Request{
			Type: wire.ReqResize, SessionID: sessionID,
			Rows: uint16(rows), Cols: uint16(cols),
		})
	}

	prior, err := term.MakeRaw(fd)
	if err != nil {
		return func() {}
	}

	go func() {
		buf := make([]byte, 4096)
		for {
			n, err := os.Stdin.Read(buf)
			if n > 0 {
				if werr := wire.WriteJSON(conn, wire.Request{
					Type: wire.ReqWrite, SessionID: sessionID, Data: append([]byte(nil), buf[:n]...),
				}); werr != nil {
					return
				}
			}
			if err != nil {
				return
			}
		}
	}()

	return func() { _ = term.Restore(fd, prior) }
}

func handleAttachEvent(ev wire.Event) {
	switch ev.Type {
	case wire.EvtOutput:
		os.Stdout.Write(ev.Data)
	case wire.EvtSessionClosed:
		fmt.Fprintln(os.Stderr, "\nsession closed")
	case wire.EvtProcessChanged:
		// No-op here; a richer UI would update a status line.
	}
}
