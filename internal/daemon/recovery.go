package daemon

import (
	"context"
	"fmt"
	"time"

	"github.com/alangmartini/godly-terminal-sub001/internal/model"
	"github.com/alangmartini/godly-terminal-sub001/internal/ringbuffer"
	"github.com/alangmartini/godly-terminal-sub001/internal/screen"
	"github.com/alangmartini/godly-terminal-sub001/internal/transport"
	"github.com/alangmartini/godly-terminal-sub001/internal/vtparser"
	"github.com/alangmartini/godly-terminal-sub001/internal/wire"
)

// reconnectShim dials a surviving shim's pipe and probes it with a
// status request, rebuilding the Daemon-side mirrored sessionEntry
// from the on-disk descriptor plus the shim's live status (§4.4 step
// 5). The session's drained flag starts false so the next Attach
// triggers a drain_buffer and the mirror catches up on everything the
// Daemon missed while it was down.
func (d *Daemon) reconnectShim(desc model.ShimDescriptor) (*sessionEntry, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	conn, err := transport.Connect(ctx, desc.ShimPipeName)
	if err != nil {
		return nil, fmt.Errorf("connect to shim pipe: %w", err)
	}

	if err := wire.WriteJSON(conn, wire.StatusRequest()); err != nil {
		conn.Close()
		return nil, fmt.Errorf("send status request: %w", err)
	}
	br := wire.NewBufferedReader(conn)
	payload, err := wire.ReadFrame(br)
	if err != nil || payload == nil {
		conn.Close()
		return nil, fmt.Errorf("read status response: %w", model.ErrShimUnreachable)
	}
	frame, err := wire.ParseFrame(payload)
	if err != nil || !frame.IsControl {
		conn.Close()
		return nil, model.ErrShimUnreachable
	}
	status, err := wire.ParseShimControlResponse(frame.Control)
	if err != nil {
		conn.Close()
		return nil, err
	}
	if !status.Running {
		conn.Close()
		return nil, model.ErrShimUnreachable
	}

	rows, cols := desc.Rows, desc.Cols
	if status.Rows > 0 {
		rows = status.Rows
	}
	if status.Cols > 0 {
		cols = status.Cols
	}

	scr := screen.New(int(rows), int(cols), d.cfg.ScrollbackCap)
	entry := &sessionEntry{
		id:          desc.SessionID,
		shellType:   desc.ShellType,
		shimPID:     desc.ShimPID,
		shellPID:    status.ShellPID,
		pipeName:    desc.ShimPipeName,
		cwd:         desc.Cwd,
		createdAt:   desc.CreatedAt,
		conn:        conn,
		ring:        ringbuffer.NewWithCap(d.cfg.RingBufferCap),
		scr:         scr,
		subscribers: make(map[Subscriber]struct{}),
	}
	entry.parser = vtparser.New(scr)

	d.registry.goBridge(entry)

	return entry, nil
}
