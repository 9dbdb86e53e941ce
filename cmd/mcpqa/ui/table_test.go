package ui

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTableRender(t *testing.T) {
	table := NewTable("Acceptance Matrix", "Metric", "Result")
	table.AddRow("Total tools", "31")
	table.AddRow("MCP call passed", "30/31")

	out := table.Render(DefaultStyles())

	assert.Contains(t, out, "Acceptance Matrix")
	assert.Contains(t, out, "Metric")
	assert.Contains(t, out, "Result")
	assert.Contains(t, out, "Total tools")
	assert.Contains(t, out, "30/31")
	assert.Contains(t, out, "----")
}

func TestTableRenderEmpty(t *testing.T) {
	table := NewTable("Nothing", "A", "B")

	assert.Equal(t, "", table.Render(DefaultStyles()))
}

func TestTableRowsAlign(t *testing.T) {
	table := NewTable("", "Tool", "Status")
	table.AddRow("a", "pass")
	table.AddRow("much_longer_tool_name", "fail")

	out := table.Render(DefaultStyles())

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	// Header, divider, and two rows.
	assert.Len(t, lines, 4)
}

func TestPassFail(t *testing.T) {
	s := DefaultStyles()

	assert.Contains(t, s.PassFail("yes"), "yes")
	assert.Contains(t, s.PassFail("pass"), "pass")
	assert.Contains(t, s.PassFail("no"), "no")
	assert.Contains(t, s.PassFail("fail"), "fail")
}
