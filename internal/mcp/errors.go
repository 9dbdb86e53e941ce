package mcp

import (
	"fmt"
	"time"
)

// StartupError reports a child process that could not be spawned.
type StartupError struct {
	Command string
	Err     error
}

func (e *StartupError) Error() string {
	return fmt.Sprintf("start mcp server %q: %v", e.Command, e.Err)
}

func (e *StartupError) Unwrap() error { return e.Err }

// HandshakeError reports a failed or rejected initialize exchange.
type HandshakeError struct {
	Err error
}

func (e *HandshakeError) Error() string {
	return fmt.Sprintf("mcp handshake: %v", e.Err)
}

func (e *HandshakeError) Unwrap() error { return e.Err }

// TimeoutError reports a tool call whose response did not arrive before
// the per-call deadline. The child process is assumed to still be healthy.
type TimeoutError struct {
	Tool    string
	Elapsed time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("tool %s timed out after %s", e.Tool, e.Elapsed.Round(time.Millisecond))
}

// RemoteError reports a JSON-RPC error response for a single tool call.
type RemoteError struct {
	Tool    string
	Code    int
	Message string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("tool %s rejected by server: %s (code %d)", e.Tool, e.Message, e.Code)
}

// ProcessExitError reports that the child process terminated. ExitCode is
// -1 when the exit status is not yet known. StderrTail carries the most
// recent stderr output, capped at 8KB.
type ProcessExitError struct {
	ExitCode   int
	StderrTail string
}

func (e *ProcessExitError) Error() string {
	if e.StderrTail == "" {
		return fmt.Sprintf("mcp server exited with code %d", e.ExitCode)
	}
	return fmt.Sprintf("mcp server exited with code %d, stderr tail: %s", e.ExitCode, e.StderrTail)
}
