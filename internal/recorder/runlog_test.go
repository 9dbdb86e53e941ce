package recorder

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mcpqa/internal/harness"
)

func sampleOutcome() harness.Outcome {
	started := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	return harness.Outcome{
		RunID:     "RUN-20260314-093000-ab12cd34",
		Round:     1,
		StartedAt: started,
		EndedAt:   started.Add(2 * time.Second),
		Tool:      "browse_posts",
		Channel:   harness.ChannelMCPDirect,
		Scenario:  "browse latest posts",
		Args: map[string]interface{}{
			"limit":    5,
			"password": "hunter2",
		},
		Result:    "line one\nline two",
		ElapsedMS: 2000,
		Passed:    true,
	}
}

func readLog(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return records
}

func TestRunLogAppend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run_log.csv")
	log := NewRunLog(path)

	require.NoError(t, log.Append(sampleOutcome()))

	failed := sampleOutcome()
	failed.Tool = "create_post"
	failed.Passed = false
	failed.Result = "call failed"
	failed.Error = "tool call failed: connection reset"
	failed.IssueID = "ISSUE-deadbeef"
	failed.Issue = "automated acceptance check failed"
	failed.RootCause = "tool call failed: connection reset"
	failed.FixAction = "backfill missing prerequisites and retry; fix and re-test if it is a code defect"
	require.NoError(t, log.Append(failed))

	records := readLog(t, path)
	require.Len(t, records, 3)
	assert.Equal(t, runLogHeader, records[0])

	first := records[1]
	assert.Equal(t, "RUN-20260314-093000-ab12cd34", first[0])
	assert.Equal(t, "1", first[1])
	assert.Equal(t, "2026-03-14T09:30:00", first[2])
	assert.Equal(t, "2026-03-14T09:30:02", first[3])
	assert.Equal(t, "browse_posts", first[4])
	assert.Equal(t, "mcp-direct", first[5])
	assert.Contains(t, first[6], `"password":"***"`)
	assert.NotContains(t, first[6], "hunter2")
	assert.Equal(t, `line one\nline two`, first[8])
	assert.Equal(t, "2000", first[9])
	assert.Equal(t, "yes", first[10])
	assert.Equal(t, "ok", first[11])
	assert.Equal(t, "ok", first[12])
	assert.Equal(t, "", first[13])
	assert.Equal(t, "yes", first[18])
	assert.Equal(t, "", first[19])

	second := records[2]
	assert.Equal(t, "no", second[10])
	assert.Equal(t, "error", second[11])
	assert.Equal(t, "error", second[12])
	assert.Equal(t, "yes", second[13])
	assert.Equal(t, "tool call failed: connection reset", second[14])
	assert.Equal(t, "ISSUE-deadbeef", second[15])
	assert.Equal(t, "no", second[18])
}

func TestRunLogHeaderWrittenOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run_log.csv")
	log := NewRunLog(path)

	require.NoError(t, log.Append(sampleOutcome()))
	require.NoError(t, log.Append(sampleOutcome()))
	require.NoError(t, NewRunLog(path).Append(sampleOutcome()))

	records := readLog(t, path)
	require.Len(t, records, 4)
	for _, rec := range records[1:] {
		assert.NotEqual(t, "run_id", rec[0])
	}
}

func TestRunLogClipsCells(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run_log.csv")
	log := NewRunLog(path)

	o := sampleOutcome()
	o.Result = strings.Repeat("r", 800)
	o.Error = strings.Repeat("e", 800)
	require.NoError(t, log.Append(o))

	records := readLog(t, path)
	assert.Len(t, records[1][8], 500)
	assert.Len(t, records[1][14], 500)
}

func TestRunLogCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "qa", "logs", "run_log.csv")
	log := NewRunLog(path)

	require.NoError(t, log.Append(sampleOutcome()))

	_, err := os.Stat(path)
	assert.NoError(t, err)
}

func TestReadRunLog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run_log.csv")
	log := NewRunLog(path)

	first := sampleOutcome()
	require.NoError(t, log.Append(first))
	failed := sampleOutcome()
	failed.RunID = "RUN-20260314-100000-ffffffff"
	failed.Tool = "create_post"
	failed.Passed = false
	require.NoError(t, log.Append(failed))

	rows, err := ReadRunLog(path)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, RunRow{RunID: first.RunID, Tool: "browse_posts", Passed: true}, rows[0])
	assert.Equal(t, RunRow{RunID: failed.RunID, Tool: "create_post", Passed: false}, rows[1])
}

func TestReadRunLogMissingColumn(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run_log.csv")
	require.NoError(t, os.WriteFile(path, []byte("run_id,tool\nRUN-1,browse_posts\n"), 0644))

	_, err := ReadRunLog(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `missing column "passed"`)
}

func TestReadRunLogMissingFile(t *testing.T) {
	_, err := ReadRunLog(filepath.Join(t.TempDir(), "absent.csv"))
	assert.Error(t, err)
}

func TestReadRunLogEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run_log.csv")
	require.NoError(t, os.WriteFile(path, nil, 0644))

	rows, err := ReadRunLog(path)
	require.NoError(t, err)
	assert.Empty(t, rows)
}
