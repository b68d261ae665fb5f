package model

import "time"

// ShimDescriptor is the on-disk, per-session recovery record written
// by the Daemon after spawning a Shim. See §3/§4.4.
type ShimDescriptor struct {
	SessionID    string    `json:"session_id"`
	ShimPID      int       `json:"shim_pid"`
	ShimPipeName string    `json:"shim_pipe_name"`
	ShellPID     int       `json:"shell_pid"`
	ShellType    ShellType `json:"shell_type"`
	Cwd          string    `json:"cwd,omitempty"`
	Rows         uint16    `json:"rows"`
	Cols         uint16    `json:"cols"`
	CreatedAt    time.Time `json:"created_at"`
}

// SessionInfo is the client-facing summary returned by ListSessions and
// embedded in SessionCreated.
type SessionInfo struct {
	ID        string    `json:"id"`
	ShellType ShellType `json:"shell_type"`
	PID       int       `json:"pid"`
	Rows      uint16    `json:"rows"`
	Cols      uint16    `json:"cols"`
	Cwd       string    `json:"cwd,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	Attached  bool      `json:"attached"`
	Running   bool      `json:"running"`
}
