// Package report turns the recorded CSV state into human-readable
// acceptance summaries: a markdown report, console tables, and a watch
// mode that re-renders on change.
package report

import (
	"mcpqa/internal/recorder"
)

// Status values for a full regression pass.
const (
	StatusPass = "pass"
	StatusFail = "fail"
)

// FailedTool is one matrix row whose MCP call did not pass.
type FailedTool struct {
	Name       string
	LastResult string
	Issue      string
}

// MatrixSummary aggregates the acceptance matrix flag columns.
type MatrixSummary struct {
	Total        int
	Integrated   int
	CallPassed   int
	Dialogue     int
	CapsuleStart int
	CapsuleEnd   int
	ErrorVisible int
	Failed       []FailedTool
}

// Summarize counts the yes flags per column and collects the tools whose
// call_passed cell is anything but yes.
func Summarize(rows []recorder.Row) MatrixSummary {
	s := MatrixSummary{Total: len(rows)}
	for _, row := range rows {
		if row[recorder.ColIntegrated] == recorder.FlagYes {
			s.Integrated++
		}
		if row[recorder.ColCallPassed] == recorder.FlagYes {
			s.CallPassed++
		} else {
			s.Failed = append(s.Failed, FailedTool{
				Name:       row[recorder.ColTool],
				LastResult: row[recorder.ColLastResult],
				Issue:      row[recorder.ColIssue],
			})
		}
		if row[recorder.ColDialogue] == recorder.FlagYes {
			s.Dialogue++
		}
		if row[recorder.ColCapsuleStart] == recorder.FlagYes {
			s.CapsuleStart++
		}
		if row[recorder.ColCapsuleEnd] == recorder.FlagYes {
			s.CapsuleEnd++
		}
		if row[recorder.ColErrorVisible] == recorder.FlagYes {
			s.ErrorVisible++
		}
	}
	return s
}

// RunSummary is one full regression pass seen in the run log.
type RunSummary struct {
	RunID  string
	Total  int
	Passed int
}

// Status reports pass only when every call in the run passed and the run
// had at least one call.
func (r RunSummary) Status() string {
	if r.Total > 0 && r.Passed == r.Total {
		return StatusPass
	}
	return StatusFail
}

// RecentRuns summarizes the last n distinct runs in the log, ordered by
// each run's first appearance. Rows without a run id are ignored.
func RecentRuns(rows []recorder.RunRow, n int) []RunSummary {
	if n <= 0 {
		return nil
	}

	var order []string
	byID := make(map[string]*RunSummary)
	for _, row := range rows {
		if row.RunID == "" {
			continue
		}
		sum, ok := byID[row.RunID]
		if !ok {
			sum = &RunSummary{RunID: row.RunID}
			byID[row.RunID] = sum
			order = append(order, row.RunID)
		}
		sum.Total++
		if row.Passed {
			sum.Passed++
		}
	}

	if len(order) > n {
		order = order[len(order)-n:]
	}
	out := make([]RunSummary, 0, len(order))
	for _, rid := range order {
		out = append(out, *byID[rid])
	}
	return out
}
