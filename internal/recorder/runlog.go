package recorder

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"mcpqa/internal/harness"
)

// runLogHeader is the layout of the long-run log: one row per tool call,
// append-only.
var runLogHeader = []string{
	"run_id", "round", "started_at", "ended_at", "tool", "channel",
	"args", "scenario", "result", "elapsed_ms", "passed",
	"capsule_start", "capsule_end", "error_visible", "error",
	"issue_id", "root_cause", "fix_action", "retested", "notes",
}

const (
	// TimeLayout is the timestamp format used in both CSV files.
	TimeLayout = "2006-01-02T15:04:05"

	// FlagYes and FlagNo are the boolean cell values.
	FlagYes = "yes"
	FlagNo  = "no"

	stateOK    = "ok"
	stateError = "error"

	maxCellRunes = 500
)

// RunLog appends outcome rows to a CSV file, writing the header only
// when it creates the file.
type RunLog struct {
	path string
}

func NewRunLog(path string) *RunLog {
	return &RunLog{path: path}
}

func (l *RunLog) Path() string { return l.path }

// Append writes one outcome row. The file is opened per call, so a
// crashed pass leaves every completed row on disk.
func (l *RunLog) Append(o harness.Outcome) error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0755); err != nil {
		return fmt.Errorf("create run log directory: %w", err)
	}

	_, statErr := os.Stat(l.path)
	fresh := errors.Is(statErr, fs.ErrNotExist)

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("open run log: %w", err)
	}

	w := csv.NewWriter(f)
	if fresh {
		if err := w.Write(runLogHeader); err != nil {
			f.Close()
			return fmt.Errorf("write run log header: %w", err)
		}
	}
	if err := w.Write(outcomeRow(o)); err != nil {
		f.Close()
		return fmt.Errorf("write run log row: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return fmt.Errorf("flush run log: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close run log: %w", err)
	}
	return nil
}

// outcomeRow flattens an outcome into the run-log layout. The capsule,
// error-visible, and retested cells derive from the pass flag; results
// and errors are clipped so one verbose tool cannot bloat the log.
func outcomeRow(o harness.Outcome) []string {
	passed := yesNo(o.Passed)
	capsule := stateOK
	visible := ""
	if !o.Passed {
		capsule = stateError
		visible = FlagYes
	}
	return []string{
		o.RunID,
		strconv.Itoa(o.Round),
		o.StartedAt.Format(TimeLayout),
		o.EndedAt.Format(TimeLayout),
		o.Tool,
		o.Channel,
		argsSnapshot(o.Args),
		o.Scenario,
		strings.ReplaceAll(harness.ClipRunes(o.Result, maxCellRunes), "\n", `\n`),
		strconv.FormatInt(o.ElapsedMS, 10),
		passed,
		capsule,
		capsule,
		visible,
		harness.ClipRunes(o.Error, maxCellRunes),
		o.IssueID,
		o.RootCause,
		o.FixAction,
		passed,
		"",
	}
}

// argsSnapshot renders the masked arguments as JSON, clipped to one cell.
func argsSnapshot(args map[string]interface{}) string {
	data, err := json.Marshal(Mask(args))
	if err != nil {
		return "{}"
	}
	return harness.ClipRunes(string(data), maxCellRunes)
}

func yesNo(v bool) string {
	if v {
		return FlagYes
	}
	return FlagNo
}

// RunRow is the slice of a run-log row the reporting layer consumes.
type RunRow struct {
	RunID  string
	Tool   string
	Passed bool
}

// ReadRunLog loads run-log rows in file order.
func ReadRunLog(path string) ([]RunRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open run log: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse run log: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	idx := make(map[string]int, len(records[0]))
	for i, name := range records[0] {
		idx[name] = i
	}
	for _, required := range []string{"run_id", "tool", "passed"} {
		if _, ok := idx[required]; !ok {
			return nil, fmt.Errorf("run log missing column %q", required)
		}
	}

	rows := make([]RunRow, 0, len(records)-1)
	for i, rec := range records[1:] {
		if len(rec) <= idx["run_id"] || len(rec) <= idx["tool"] || len(rec) <= idx["passed"] {
			return nil, fmt.Errorf("run log row %d has %d fields", i+2, len(rec))
		}
		rows = append(rows, RunRow{
			RunID:  rec[idx["run_id"]],
			Tool:   rec[idx["tool"]],
			Passed: rec[idx["passed"]] == FlagYes,
		})
	}
	return rows, nil
}
