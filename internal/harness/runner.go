package harness

import (
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"mcpqa/internal/mcp"
)

// DefaultCallTimeout bounds a single tools/call round trip.
const DefaultCallTimeout = 90 * time.Second

const (
	maxResultRunes    = 2000
	maxRootCauseRunes = 120

	issueLabel    = "automated acceptance check failed"
	fixActionText = "backfill missing prerequisites and retry; fix and re-test if it is a code defect"
)

// CallSession is the slice of the MCP session the runner needs. Tests
// substitute scripted fakes.
type CallSession interface {
	CallTool(name string, args map[string]interface{}, timeout time.Duration) (*mcp.ToolResult, error)
}

// RunnerOptions tunes a pass over the catalog.
type RunnerOptions struct {
	// CallTimeout bounds each tools/call; DefaultCallTimeout when zero.
	CallTimeout time.Duration

	// Context carries pre-seeded state such as login credentials. A
	// fresh context is created when nil.
	Context *Context
}

// Runner walks the catalog in order against one session. Per-call
// failures are recorded and the pass continues; only a dead server
// process aborts the remainder.
type Runner struct {
	session CallSession
	cases   []ToolCase
	ctx     *Context
	timeout time.Duration
	logger  *zap.Logger
}

// NewRunner builds a runner over the given catalog.
func NewRunner(session CallSession, cases []ToolCase, opts RunnerOptions, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx := opts.Context
	if ctx == nil {
		ctx = NewContext()
	}
	timeout := opts.CallTimeout
	if timeout <= 0 {
		timeout = DefaultCallTimeout
	}
	return &Runner{
		session: session,
		cases:   cases,
		ctx:     ctx,
		timeout: timeout,
		logger:  logger,
	}
}

// Context returns the cross-call context in use.
func (r *Runner) Context() *Context {
	return r.ctx
}

// Run executes every catalog case in order, delivering exactly one
// Outcome per case through sink as soon as it is known. A sink error
// stops the pass. When the server process dies, the outcome for the
// failing case is still delivered before the exit error is returned;
// remaining cases are skipped.
func (r *Runner) Run(runID string, round int, sink func(Outcome) error) error {
	for _, tc := range r.cases {
		outcome, fatal := r.runCase(runID, round, tc)
		if sink != nil {
			if err := sink(outcome); err != nil {
				return fmt.Errorf("record outcome for %s: %w", tc.Name, err)
			}
		}
		if fatal != nil {
			return fatal
		}
	}
	return nil
}

// runCase resolves, calls, and scores a single catalog entry. The second
// return value is non-nil only when the server process exited.
func (r *Runner) runCase(runID string, round int, tc ToolCase) (Outcome, error) {
	args := r.resolveArgs(tc)
	started := time.Now()
	o := Outcome{
		RunID:     runID,
		Round:     round,
		StartedAt: started,
		Tool:      tc.Name,
		Channel:   ChannelMCPDirect,
		Scenario:  tc.Scenario,
		Args:      args,
	}

	result, err := r.session.CallTool(tc.Name, args, r.timeout)
	o.EndedAt = time.Now()
	o.ElapsedMS = o.EndedAt.Sub(started).Milliseconds()

	var fatal error
	if err != nil {
		o.Passed = false
		o.Error = err.Error()
		o.Result = ClipRunes(o.Error, maxResultRunes)
		o.Issue = issueLabel
		o.RootCause = "tool call failed: " + ClipRunes(o.Error, maxRootCauseRunes)
		o.FixAction = fixActionText

		var exitErr *mcp.ProcessExitError
		if errors.As(err, &exitErr) {
			fatal = err
		}
	} else {
		text := result.Text()
		o.Result = ClipRunes(text, maxResultRunes)
		o.Passed = !result.IsError
		if tc.Extract != nil {
			tc.Extract(text, r.ctx)
		}
	}

	if !o.Passed {
		o.IssueID = "ISSUE-" + shortHex(8)
		r.logger.Warn("tool case failed",
			zap.String("tool", tc.Name),
			zap.String("issue_id", o.IssueID),
			zap.String("error", o.Error),
			zap.Int64("elapsed_ms", o.ElapsedMS))
	} else {
		r.logger.Debug("tool case passed",
			zap.String("tool", tc.Name),
			zap.Int64("elapsed_ms", o.ElapsedMS))
	}
	return o, fatal
}

// resolveArgs applies the case's resolver, or copies the template as-is.
func (r *Runner) resolveArgs(tc ToolCase) map[string]interface{} {
	if tc.Resolve != nil {
		return tc.Resolve(tc.Args, r.ctx)
	}
	return CloneArgs(tc.Args)
}

// NewRunID mints a sortable pass identifier like
// RUN-20250825-153012-1f2e3d4c.
func NewRunID() string {
	return fmt.Sprintf("RUN-%s-%s", time.Now().Format("20060102-150405"), shortHex(8))
}

// shortHex returns the first n hex characters of a fresh UUID.
func shortHex(n int) string {
	id := uuid.New()
	return hex.EncodeToString(id[:])[:n]
}
