package harness

import (
	"time"
	"unicode/utf8"
)

// ChannelMCPDirect marks outcomes produced by direct MCP tool calls, as
// opposed to future dialogue-triggered channels.
const ChannelMCPDirect = "mcp-direct"

// ResolveFunc derives the argument set for one call from the static
// template plus the accumulated context. When prerequisites are missing
// it degrades to an empty set; the call is still attempted so the
// server's own validation shows up in the outcome. Resolvers must not
// mutate the shared template.
type ResolveFunc func(template map[string]interface{}, ctx *Context) map[string]interface{}

// ExtractFunc captures follow-up state from a successful call's text.
// Extraction is best-effort: anything that does not match leaves the
// context untouched.
type ExtractFunc func(text string, ctx *Context)

// ToolCase is one catalog entry: a tool name, its static argument
// template, a human-readable scenario label, and the optional
// resolve/extract capabilities.
type ToolCase struct {
	Name     string
	Scenario string
	Args     map[string]interface{}
	Resolve  ResolveFunc
	Extract  ExtractFunc
}

// Outcome is the full record of one tool invocation. Result holds the
// extracted text on success and the error text on failure, both clipped
// to 2000 runes. Issue, RootCause, and FixAction are filled only for
// transport and protocol failures; a tool-level isError failure keeps
// them empty while still getting an IssueID.
type Outcome struct {
	RunID     string
	Round     int
	StartedAt time.Time
	EndedAt   time.Time
	Tool      string
	Channel   string
	Scenario  string
	Args      map[string]interface{}
	Result    string
	ElapsedMS int64
	Passed    bool
	Error     string
	IssueID   string
	Issue     string
	RootCause string
	FixAction string
}

// CloneArgs shallow-copies an argument template so a resolver can extend
// it without touching the shared catalog entry.
func CloneArgs(args map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(args))
	for k, v := range args {
		out[k] = v
	}
	return out
}

// ClipRunes cuts s to at most max runes without splitting a character.
func ClipRunes(s string, max int) string {
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max])
}
