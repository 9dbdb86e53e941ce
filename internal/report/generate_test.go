package report

import (
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"

	"mcpqa/internal/recorder"
)

func fixedNow() time.Time {
	return time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
}

func TestGenerate(t *testing.T) {
	matrix := []recorder.Row{
		passingRow("browse_posts"),
		failingRow("create_post", "automated acceptance check failed"),
	}
	runs := []recorder.RunRow{
		{RunID: "RUN-A", Tool: "browse_posts", Passed: true},
		{RunID: "RUN-A", Tool: "create_post", Passed: true},
		{RunID: "RUN-B", Tool: "browse_posts", Passed: true},
		{RunID: "RUN-B", Tool: "create_post", Passed: false},
	}

	got := Generate(matrix, runs, Options{
		MatrixPath: "qa/matrix.csv",
		RunLogPath: "qa/run_log.csv",
		Now:        fixedNow,
	})

	want := strings.Join([]string{
		"# MCP Full Integration Final Acceptance Report",
		"",
		"- Generated at: 2026-03-14 10:00:00",
		"- Acceptance matrix: `qa/matrix.csv`",
		"- Run log: `qa/run_log.csv`",
		"",
		"## Matrix Summary",
		"",
		"| Metric | Result |",
		"|---|---|",
		"| Total tools | 2 |",
		"| Client integrated | 2/2 |",
		"| MCP call passed | 1/2 |",
		"| Dialogue passed | 1/2 |",
		"| Capsule start OK | 1/2 |",
		"| Capsule end OK | 1/2 |",
		"| Error state visible | 2/2 |",
		"",
		"## Last Two Full Regressions",
		"",
		"| Run ID | Total | Passed | Status |",
		"|---|---:|---:|---|",
		"| RUN-A | 2 | 2 | pass |",
		"| RUN-B | 2 | 1 | fail |",
		"",
		"## Failures",
		"",
		"- create_post",
		"",
	}, "\n")

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("report mismatch (-want +got):\n%s", diff)
	}
}

func TestGenerateAllPassing(t *testing.T) {
	matrix := []recorder.Row{passingRow("browse_posts"), passingRow("create_post")}
	runs := []recorder.RunRow{
		{RunID: "RUN-A", Tool: "browse_posts", Passed: true},
		{RunID: "RUN-A", Tool: "create_post", Passed: true},
	}

	got := Generate(matrix, runs, Options{
		MatrixPath: "qa/matrix.csv",
		RunLogPath: "qa/run_log.csv",
		Now:        fixedNow,
	})

	assert.Contains(t, got, "- none (every MCP call in the matrix passed)")
	assert.Contains(t, got, "| RUN-A | 2 | 2 | pass |")
	assert.NotContains(t, got, "RUN-B")
}

func TestGenerateKeepsOnlyLastTwoRuns(t *testing.T) {
	matrix := []recorder.Row{passingRow("browse_posts")}
	runs := []recorder.RunRow{
		{RunID: "RUN-A", Tool: "browse_posts", Passed: true},
		{RunID: "RUN-B", Tool: "browse_posts", Passed: true},
		{RunID: "RUN-C", Tool: "browse_posts", Passed: true},
	}

	got := Generate(matrix, runs, Options{Now: fixedNow})

	assert.NotContains(t, got, "RUN-A")
	assert.Contains(t, got, "| RUN-B | 1 | 1 | pass |")
	assert.Contains(t, got, "| RUN-C | 1 | 1 | pass |")
}
