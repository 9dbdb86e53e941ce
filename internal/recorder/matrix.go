package recorder

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"mcpqa/internal/harness"
)

// Matrix column names. The row set is provisioned up front; updates only
// touch existing rows.
const (
	ColTool         = "tool"
	ColIntegrated   = "client_integrated"
	ColCallPassed   = "call_passed"
	ColDialogue     = "dialogue_passed"
	ColCapsuleStart = "capsule_start_ok"
	ColCapsuleEnd   = "capsule_end_ok"
	ColErrorVisible = "error_state_visible"
	ColLastRunID    = "last_run_id"
	ColLastResult   = "last_result"
	ColIssue        = "issue"
	ColRootCause    = "root_cause"
	ColFixAction    = "fix_action"
	ColRetested     = "retested"
	ColUpdatedAt    = "updated_at"
)

const (
	// ResultPass and ResultFail are the last_result cell values.
	ResultPass = "pass"
	ResultFail = "fail"
)

func matrixHeader() []string {
	return []string{
		ColTool, ColIntegrated, ColCallPassed, ColDialogue,
		ColCapsuleStart, ColCapsuleEnd, ColErrorVisible,
		ColLastRunID, ColLastResult, ColIssue, ColRootCause,
		ColFixAction, ColRetested, ColUpdatedAt,
	}
}

// UnknownToolError reports a matrix update for a tool that has no row.
type UnknownToolError struct {
	Tool string
}

func (e *UnknownToolError) Error() string {
	return fmt.Sprintf("tool %s has no acceptance matrix row", e.Tool)
}

// Update carries one tool's per-pass refresh.
type Update struct {
	RunID     string
	Passed    bool
	Issue     string
	RootCause string
	FixAction string
}

// UpdateFor derives a matrix update from a call outcome.
func UpdateFor(o harness.Outcome) Update {
	return Update{
		RunID:     o.RunID,
		Passed:    o.Passed,
		Issue:     o.Issue,
		RootCause: o.RootCause,
		FixAction: o.FixAction,
	}
}

// Matrix performs whole-file read-modify-write updates against the
// acceptance matrix CSV. Concurrent runs must be serialized by the
// caller; the file itself is always swapped atomically so readers never
// observe a half-written table.
type Matrix struct {
	path string
	now  func() time.Time
}

func NewMatrix(path string) *Matrix {
	return &Matrix{path: path, now: time.Now}
}

func (m *Matrix) Path() string { return m.path }

// Seed creates the matrix with one empty row per tool when the file does
// not exist yet. An existing matrix is left untouched, whatever rows it
// holds.
func (m *Matrix) Seed(tools []string) error {
	if _, err := os.Stat(m.path); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("stat acceptance matrix: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(m.path), 0755); err != nil {
		return fmt.Errorf("create acceptance matrix directory: %w", err)
	}

	header := matrixHeader()
	rows := make([][]string, 0, len(tools)+1)
	rows = append(rows, header)
	for _, tool := range tools {
		row := make([]string, len(header))
		row[0] = tool
		rows = append(rows, row)
	}
	return m.store(rows)
}

// Update rewrites one tool's row. The integration flags follow the pass
// flag; the error-visible cell is sticky, so a tool that once surfaced a
// readable failure keeps that credit across later passes.
func (m *Matrix) Update(tool string, up Update) error {
	rows, err := m.load()
	if err != nil {
		return err
	}
	idx, err := headerIndex(rows[0])
	if err != nil {
		return err
	}

	target := -1
	for i := 1; i < len(rows); i++ {
		if len(rows[i]) > idx[ColTool] && rows[i][idx[ColTool]] == tool {
			target = i
			break
		}
	}
	if target == -1 {
		return &UnknownToolError{Tool: tool}
	}

	row := rows[target]
	if len(row) < len(rows[0]) {
		padded := make([]string, len(rows[0]))
		copy(padded, row)
		row = padded
		rows[target] = row
	}

	passed := yesNo(up.Passed)
	row[idx[ColIntegrated]] = FlagYes
	row[idx[ColCallPassed]] = passed
	row[idx[ColDialogue]] = passed
	row[idx[ColCapsuleStart]] = passed
	row[idx[ColCapsuleEnd]] = passed
	if !up.Passed && (up.Issue != "" || up.RootCause != "") {
		row[idx[ColErrorVisible]] = FlagYes
	} else if row[idx[ColErrorVisible]] == "" {
		row[idx[ColErrorVisible]] = FlagYes
	}
	row[idx[ColLastRunID]] = up.RunID
	if up.Passed {
		row[idx[ColLastResult]] = ResultPass
	} else {
		row[idx[ColLastResult]] = ResultFail
	}
	row[idx[ColIssue]] = up.Issue
	row[idx[ColRootCause]] = up.RootCause
	row[idx[ColFixAction]] = up.FixAction
	row[idx[ColRetested]] = passed
	row[idx[ColUpdatedAt]] = m.now().Format(TimeLayout)

	return m.store(rows)
}

// Row is one matrix line keyed by column name.
type Row map[string]string

// Rows loads the matrix for reporting. Cells past a short row read as
// empty strings, mirroring how updates pad them.
func (m *Matrix) Rows() ([]Row, error) {
	rows, err := m.load()
	if err != nil {
		return nil, err
	}
	header := rows[0]
	out := make([]Row, 0, len(rows)-1)
	for _, rec := range rows[1:] {
		row := make(Row, len(header))
		for i, name := range header {
			if i < len(rec) {
				row[name] = rec[i]
			} else {
				row[name] = ""
			}
		}
		out = append(out, row)
	}
	return out, nil
}

func (m *Matrix) load() ([][]string, error) {
	f, err := os.Open(m.path)
	if err != nil {
		return nil, fmt.Errorf("open acceptance matrix: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse acceptance matrix: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("acceptance matrix %s has no header", m.path)
	}
	return rows, nil
}

// store writes the whole table next to the matrix and renames it into
// place.
func (m *Matrix) store(rows [][]string) error {
	dir := filepath.Dir(m.path)
	tmp, err := os.CreateTemp(dir, ".matrix-*.csv")
	if err != nil {
		return fmt.Errorf("create matrix temp file: %w", err)
	}
	tmpName := tmp.Name()

	w := csv.NewWriter(tmp)
	if err := w.WriteAll(rows); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write matrix temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close matrix temp file: %w", err)
	}
	if err := os.Rename(tmpName, m.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("swap acceptance matrix: %w", err)
	}
	return nil
}

func headerIndex(header []string) (map[string]int, error) {
	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[name] = i
	}
	for _, required := range matrixHeader() {
		if _, ok := idx[required]; !ok {
			return nil, fmt.Errorf("acceptance matrix missing column %q", required)
		}
	}
	return idx, nil
}
