package report

import (
	"fmt"
	"strings"
	"time"

	"mcpqa/internal/recorder"
)

const generatedAtLayout = "2006-01-02 15:04:05"

// recentRunCount is how many trailing runs the report covers.
const recentRunCount = 2

// Options carry the file paths stamped into the report header.
type Options struct {
	MatrixPath string
	RunLogPath string
	Now        func() time.Time
}

// Generate renders the final acceptance report as markdown.
func Generate(matrix []recorder.Row, runs []recorder.RunRow, opts Options) string {
	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}

	summary := Summarize(matrix)
	recent := RecentRuns(runs, recentRunCount)

	var b strings.Builder
	line := func(format string, args ...interface{}) {
		fmt.Fprintf(&b, format+"\n", args...)
	}

	line("# MCP Full Integration Final Acceptance Report")
	line("")
	line("- Generated at: %s", now().Format(generatedAtLayout))
	line("- Acceptance matrix: `%s`", opts.MatrixPath)
	line("- Run log: `%s`", opts.RunLogPath)
	line("")
	line("## Matrix Summary")
	line("")
	line("| Metric | Result |")
	line("|---|---|")
	line("| Total tools | %d |", summary.Total)
	line("| Client integrated | %s |", Ratio(summary.Integrated, summary.Total))
	line("| MCP call passed | %s |", Ratio(summary.CallPassed, summary.Total))
	line("| Dialogue passed | %s |", Ratio(summary.Dialogue, summary.Total))
	line("| Capsule start OK | %s |", Ratio(summary.CapsuleStart, summary.Total))
	line("| Capsule end OK | %s |", Ratio(summary.CapsuleEnd, summary.Total))
	line("| Error state visible | %s |", Ratio(summary.ErrorVisible, summary.Total))
	line("")
	line("## Last Two Full Regressions")
	line("")
	line("| Run ID | Total | Passed | Status |")
	line("|---|---:|---:|---|")
	for _, run := range recent {
		line("| %s | %d | %d | %s |", run.RunID, run.Total, run.Passed, run.Status())
	}
	line("")
	line("## Failures")
	line("")
	if len(summary.Failed) == 0 {
		line("- none (every MCP call in the matrix passed)")
	} else {
		for _, tool := range summary.Failed {
			line("- %s", tool.Name)
		}
	}

	return b.String()
}

// Ratio renders an n-of-total cell like "29/31".
func Ratio(n, total int) string {
	return fmt.Sprintf("%d/%d", n, total)
}
