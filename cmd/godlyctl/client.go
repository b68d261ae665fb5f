package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"

	"github.com/alangmartini/godly-terminal-sub001/internal/godlyconfig"
	"github.com/alangmartini/godly-terminal-sub001/internal/wire"
)

// dialDaemon connects to the well-known client pipe for the given
// instance suffix, the same path cmd/godlyd binds (§6 "well-known
// names").
func dialDaemon(instanceSuffix string) (net.Conn, error) {
	cfg := &godlyconfig.Config{InstanceSuffix: instanceSuffix}
	cfg.Defaults()
	sockPath := cfg.StateDir() + "/sockets/godlyd" + instanceSuffix + ".sock"
	conn, err := net.Dial("unix", sockPath)
	if err != nil {
		return nil, fmt.Errorf("connect to daemon: %w (is godlyd running?)", err)
	}
	return conn, nil
}

// request sends req and returns the first message read back, which
// must be a response: an event arriving first is returned as an error,
// since this helper is only used for one-shot request/response
// commands, never while attached. An Error response is also returned
// as an error.
func request(conn net.Conn, req wire.Request) (wire.Response, error) {
	if err := wire.WriteJSON(conn, req); err != nil {
		return wire.Response{}, fmt.Errorf("send request: %w", err)
	}
	br := wire.NewBufferedReader(conn)
	payload, err := wire.ReadFrame(br)
	if err != nil {
		return wire.Response{}, fmt.Errorf("read response: %w", err)
	}
	var msg wire.DaemonMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		return wire.Response{}, fmt.Errorf("parse response: %w", err)
	}
	if msg.Response == nil {
		return wire.Response{}, fmt.Errorf("expected a response, got %+v", msg)
	}
	if msg.Response.Type == wire.RespError {
		return wire.Response{}, fmt.Errorf("daemon error: %s", msg.Response.Message)
	}
	return *msg.Response, nil
}

// readMessages reads DaemonMessage frames from br until the connection
// closes, invoking onMsg for each.
func readMessages(br *bufio.Reader, onMsg func(wire.DaemonMessage)) error {
	for {
		payload, err := wire.ReadFrame(br)
		if err != nil {
			return err
		}
		if payload == nil {
			return nil
		}
		var msg wire.DaemonMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			continue
		}
		onMsg(msg)
	}
}
