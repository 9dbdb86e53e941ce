package mcp

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"
)

const (
	// maxLineBytes bounds a single JSON-RPC line from the server.
	maxLineBytes = 4 * 1024 * 1024

	// stderrTailMax caps the stderr kept for crash reports.
	stderrTailMax = 8 * 1024

	defaultShutdownGrace = 3 * time.Second

	// exitReportWait bounds how long a drained reader waits for the exit
	// status before reporting an unknown code.
	exitReportWait = 2 * time.Second
)

// TransportOptions tunes process supervision.
type TransportOptions struct {
	// ShutdownGrace is how long Close waits after SIGTERM before SIGKILL.
	ShutdownGrace time.Duration
}

// Transport owns an MCP server child process and exposes its stdio as a
// line-oriented pipe. A reader goroutine pumps stdout lines into a
// buffered channel so nothing is lost between ReadLine calls, stderr is
// drained continuously into a bounded tail, and a watcher goroutine reaps
// the process once both pipes are done.
type Transport struct {
	command []string
	grace   time.Duration
	logger  *zap.Logger

	cmd   *exec.Cmd
	stdin io.WriteCloser

	lines  chan string
	exited chan struct{}

	writeMu   sync.Mutex
	closeOnce sync.Once
	readerWg  sync.WaitGroup

	mu      sync.Mutex
	exitErr *ProcessExitError

	stderr tailBuffer
}

// NewTransport prepares a transport for the given argv. Start must be
// called before any IO.
func NewTransport(command []string, opts TransportOptions, logger *zap.Logger) *Transport {
	if logger == nil {
		logger = zap.NewNop()
	}
	grace := opts.ShutdownGrace
	if grace <= 0 {
		grace = defaultShutdownGrace
	}
	return &Transport{
		command: command,
		grace:   grace,
		logger:  logger,
		lines:   make(chan string, 256),
		exited:  make(chan struct{}),
		stderr:  tailBuffer{max: stderrTailMax},
	}
}

// CommandLine returns the child argv as one printable string.
func (t *Transport) CommandLine() string {
	return strings.Join(t.command, " ")
}

// Start spawns the child process and begins pumping its pipes.
func (t *Transport) Start() error {
	if len(t.command) == 0 {
		return &StartupError{Command: "", Err: errors.New("empty command")}
	}

	t.cmd = exec.Command(t.command[0], t.command[1:]...)

	stdin, err := t.cmd.StdinPipe()
	if err != nil {
		return &StartupError{Command: t.CommandLine(), Err: fmt.Errorf("stdin pipe: %w", err)}
	}
	stdout, err := t.cmd.StdoutPipe()
	if err != nil {
		return &StartupError{Command: t.CommandLine(), Err: fmt.Errorf("stdout pipe: %w", err)}
	}
	stderr, err := t.cmd.StderrPipe()
	if err != nil {
		return &StartupError{Command: t.CommandLine(), Err: fmt.Errorf("stderr pipe: %w", err)}
	}

	if err := t.cmd.Start(); err != nil {
		return &StartupError{Command: t.CommandLine(), Err: err}
	}
	t.stdin = stdin

	t.readerWg.Add(2)
	go t.readStdout(stdout)
	go t.readStderr(stderr)
	go t.watchExit()

	t.logger.Debug("mcp server started",
		zap.String("command", t.CommandLine()),
		zap.Int("pid", t.cmd.Process.Pid))
	return nil
}

// WriteLine sends one message, appending the newline delimiter.
func (t *Transport) WriteLine(line []byte) error {
	t.writeMu.Lock()
	defer t.writeMu.Unlock()
	if err := t.exitedNow(); err != nil {
		return err
	}
	if _, err := t.stdin.Write(append(line, '\n')); err != nil {
		// A broken pipe usually means the child died mid-run; prefer the
		// richer exit report when it is available shortly.
		if exitErr := t.awaitExit(500 * time.Millisecond); exitErr != nil {
			return exitErr
		}
		return fmt.Errorf("write to mcp server stdin: %w", err)
	}
	return nil
}

// ReadLine returns the next server line. ok is false when the deadline
// passes with nothing buffered; that is not an error, and a line arriving
// later stays queued for the next call. Once the child has exited and the
// buffer is drained, every call returns *ProcessExitError.
func (t *Transport) ReadLine(deadline time.Time) (string, bool, error) {
	// Drain buffered lines before honoring an already-expired deadline.
	select {
	case line, open := <-t.lines:
		if !open {
			return "", false, t.awaitExitReport()
		}
		return line, true, nil
	default:
	}

	timer := time.NewTimer(time.Until(deadline))
	defer timer.Stop()
	select {
	case line, open := <-t.lines:
		if !open {
			return "", false, t.awaitExitReport()
		}
		return line, true, nil
	case <-timer.C:
		return "", false, nil
	}
}

// Close shuts the child down: stdin is closed, the process receives
// SIGTERM, and after the grace period SIGKILL. Idempotent, and a no-op
// when the process never started or has already exited.
func (t *Transport) Close() error {
	if t.cmd == nil || t.cmd.Process == nil {
		return nil
	}
	t.closeOnce.Do(func() {
		if t.stdin != nil {
			_ = t.stdin.Close()
		}
		select {
		case <-t.exited:
			return
		default:
		}
		_ = t.cmd.Process.Signal(syscall.SIGTERM)
		if t.drainUntilExit(t.grace) {
			return
		}
		t.logger.Warn("mcp server ignored SIGTERM, killing",
			zap.String("command", t.CommandLine()))
		_ = t.cmd.Process.Kill()
		t.drainUntilExit(0)
	})
	return nil
}

// drainUntilExit waits for the exit watcher while discarding any stdout
// lines still arriving, so a flooding child cannot wedge shutdown on a
// full line buffer. A zero timeout waits indefinitely. Reports whether
// the child exited.
func (t *Transport) drainUntilExit(timeout time.Duration) bool {
	var timeoutC <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		timeoutC = timer.C
	}
	lines := t.lines
	for {
		select {
		case <-t.exited:
			return true
		case _, open := <-lines:
			if !open {
				lines = nil
			}
		case <-timeoutC:
			return false
		}
	}
}

// readStdout pumps server lines into the buffered channel.
func (t *Transport) readStdout(r io.Reader) {
	defer t.readerWg.Done()
	defer close(t.lines)
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)
	for scanner.Scan() {
		t.lines <- scanner.Text()
	}
	if err := scanner.Err(); err != nil {
		t.logger.Debug("stdout reader stopped", zap.Error(err))
	}
}

// readStderr keeps the most recent stderr output for crash diagnostics.
func (t *Transport) readStderr(r io.Reader) {
	defer t.readerWg.Done()
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)
	for scanner.Scan() {
		line := scanner.Text()
		t.stderr.add(line)
		t.logger.Debug("mcp server stderr", zap.String("line", line))
	}
}

// watchExit reaps the child once both pipe readers have drained, so Wait
// never races the readers for the pipe contents.
func (t *Transport) watchExit() {
	t.readerWg.Wait()
	err := t.cmd.Wait()
	code := 0
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			code = exitErr.ExitCode()
		} else {
			code = -1
		}
	}
	t.mu.Lock()
	t.exitErr = &ProcessExitError{ExitCode: code, StderrTail: t.stderr.String()}
	t.mu.Unlock()
	close(t.exited)
	t.logger.Debug("mcp server exited", zap.Int("code", code))
}

// exitedNow returns the recorded exit error without waiting, or nil while
// the child is alive.
func (t *Transport) exitedNow() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.exitErr != nil {
		return t.exitErr
	}
	return nil
}

// awaitExit waits up to d for the exit watcher. Returns nil if the child
// is still running after the wait.
func (t *Transport) awaitExit(d time.Duration) error {
	select {
	case <-t.exited:
		return t.exitedNow()
	case <-time.After(d):
		return nil
	}
}

// awaitExitReport blocks briefly for the exit status after stdout EOF and
// always produces a *ProcessExitError, falling back to code -1 when the
// child has not been reaped yet.
func (t *Transport) awaitExitReport() error {
	select {
	case <-t.exited:
		return t.exitedNow()
	case <-time.After(exitReportWait):
		return &ProcessExitError{ExitCode: -1, StderrTail: t.stderr.String()}
	}
}

// tailBuffer keeps the newest lines up to a byte budget.
type tailBuffer struct {
	mu    sync.Mutex
	max   int
	size  int
	lines []string
}

func (b *tailBuffer) add(line string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.max > 0 && len(line) > b.max {
		line = line[len(line)-b.max:]
	}
	b.lines = append(b.lines, line)
	b.size += len(line) + 1
	for b.size > b.max && len(b.lines) > 1 {
		b.size -= len(b.lines[0]) + 1
		b.lines = b.lines[1:]
	}
}

func (b *tailBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return strings.Join(b.lines, "\n")
}

// Ensure Transport satisfies the session's connection contract.
var _ Conn = (*Transport)(nil)
