// Package model holds data types and error kinds shared across the
// daemon, shim, and client-facing packages.
package model

import (
	"errors"
	"fmt"
)

// Error kinds per the wire/session contract. Callers distinguish them
// with errors.Is; call sites that need structured detail use the
// companion *Error types below.
var (
	ErrMalformedFrame      = errors.New("malformed frame")
	ErrTruncated           = errors.New("truncated frame")
	ErrPipeUnavailable     = errors.New("pipe unavailable")
	ErrPipeBusy            = errors.New("pipe busy")
	ErrConnectionReset     = errors.New("connection reset")
	ErrUnknownSession      = errors.New("unknown session")
	ErrSessionAlreadyExists = errors.New("session already exists")
	ErrShimSpawnFailed     = errors.New("shim spawn failed")
	ErrShimUnreachable     = errors.New("shim unreachable")
	ErrPtyError            = errors.New("pty error")
	ErrInvalidKey          = errors.New("invalid key name")
	ErrSingletonHeld       = errors.New("another instance is running")
)

// ShellExitedError reports the child shell's exit status, if known.
type ShellExitedError struct {
	ExitCode *int
}

func (e *ShellExitedError) Error() string {
	if e.ExitCode == nil {
		return "shell exited"
	}
	return fmt.Sprintf("shell exited with code %d", *e.ExitCode)
}

func (e *ShellExitedError) Is(target error) bool {
	_, ok := target.(*ShellExitedError)
	return ok
}
