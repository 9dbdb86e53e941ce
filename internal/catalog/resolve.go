package catalog

import (
	"encoding/json"

	"mcpqa/internal/harness"
)

// Bodies published during acceptance passes. Kept harmless and clearly
// labeled because they land on a live service.
const (
	acceptancePostTitle   = "MCP acceptance auto post"
	acceptancePostContent = "## Background\nAutomated long-run acceptance post.\n\n## Result\nVerifies the post/edit/delete tool chain stays usable."
	acceptancePostSummary = "automated acceptance post"
	acceptanceComment     = "Automated long-run acceptance comment (safe to delete)"
	acceptanceEditTitle   = "MCP acceptance updated title"
	acceptanceEditSummary = "updated summary"
)

// resolvers binds the capability names usable in catalog files to their
// implementations.
var resolvers = map[string]harness.ResolveFunc{
	"session_args":    resolveSessionArgs,
	"session_post":    resolveSessionPost,
	"public_post":     resolvePublicPost,
	"comment":         resolveComment,
	"vote":            resolveVote,
	"edit_own_post":   resolveEditOwnPost,
	"delete_own_post": resolveDeleteOwnPost,
	"confirm_preview": resolveConfirmPreview,
	"login_setup":     resolveLoginSetup,
	"daily_report":    resolveDailyReport,
}

func emptyArgs() map[string]interface{} { return map[string]interface{}{} }

// resolveSessionArgs feeds the scanned session into read/analyze calls.
func resolveSessionArgs(template map[string]interface{}, ctx *harness.Context) map[string]interface{} {
	path, okPath := ctx.Str("session_path")
	source, okSource := ctx.Str("session_source")
	if !okPath || !okSource {
		return emptyArgs()
	}
	args := harness.CloneArgs(template)
	args["path"] = path
	args["source"] = source
	return args
}

// resolveSessionPost builds the full publish payload from the scanned
// session, replacing the template entirely.
func resolveSessionPost(template map[string]interface{}, ctx *harness.Context) map[string]interface{} {
	path, okPath := ctx.Str("session_path")
	if _, okSource := ctx.Str("session_source"); !okPath || !okSource {
		return emptyArgs()
	}
	return map[string]interface{}{
		"title":          acceptancePostTitle,
		"content":        acceptancePostContent,
		"source_session": path,
		"tags":           []string{"mcp", "qa"},
		"summary":        acceptancePostSummary,
		"category":       "tools",
		"language":       "en",
	}
}

// resolvePublicPost targets the post id captured from browse/search.
func resolvePublicPost(template map[string]interface{}, ctx *harness.Context) map[string]interface{} {
	id, ok := ctx.Str("post_id")
	if !ok {
		return emptyArgs()
	}
	args := harness.CloneArgs(template)
	args["post_id"] = id
	return args
}

func resolveComment(template map[string]interface{}, ctx *harness.Context) map[string]interface{} {
	args := resolvePublicPost(template, ctx)
	if _, ok := args["post_id"]; ok {
		args["content"] = acceptanceComment
	}
	return args
}

func resolveVote(template map[string]interface{}, ctx *harness.Context) map[string]interface{} {
	args := resolvePublicPost(template, ctx)
	if _, ok := args["post_id"]; ok {
		args["value"] = 0
	}
	return args
}

// resolveEditOwnPost only ever touches the post this pass published.
func resolveEditOwnPost(template map[string]interface{}, ctx *harness.Context) map[string]interface{} {
	id, ok := ctx.Str("own_post_id")
	if !ok {
		return emptyArgs()
	}
	args := harness.CloneArgs(template)
	args["post_id"] = id
	args["title"] = acceptanceEditTitle
	args["summary"] = acceptanceEditSummary
	return args
}

func resolveDeleteOwnPost(template map[string]interface{}, ctx *harness.Context) map[string]interface{} {
	id, ok := ctx.Str("own_post_id")
	if !ok {
		return emptyArgs()
	}
	args := harness.CloneArgs(template)
	args["post_id"] = id
	args["confirm"] = true
	return args
}

func resolveConfirmPreview(template map[string]interface{}, ctx *harness.Context) map[string]interface{} {
	id, ok := ctx.Str("preview_id")
	if !ok {
		return emptyArgs()
	}
	args := harness.CloneArgs(template)
	args["preview_id"] = id
	return args
}

// resolveLoginSetup prefers the quickstart credentials and falls back to
// the interactive browser flow when the pass has none.
func resolveLoginSetup(template map[string]interface{}, ctx *harness.Context) map[string]interface{} {
	email, okEmail := ctx.Str("qa_email")
	password, okPassword := ctx.Str("qa_password")
	if !okEmail || !okPassword {
		return map[string]interface{}{"mode": "browser"}
	}
	return map[string]interface{}{
		"mode":     "login",
		"email":    email,
		"password": password,
	}
}

// resolveDailyReport re-submits the stats captured by collect_daily_stats
// as a JSON string, the shape the server expects.
func resolveDailyReport(template map[string]interface{}, ctx *harness.Context) map[string]interface{} {
	stats, okStats := ctx.Get("raw_stats")
	date, okDate := ctx.Str("stats_date")
	tz, okTZ := ctx.Str("stats_tz")
	if !okStats || stats == nil || !okDate || !okTZ {
		return emptyArgs()
	}
	if m, ok := stats.(map[string]interface{}); ok && len(m) == 0 {
		return emptyArgs()
	}
	encoded, err := json.Marshal(stats)
	if err != nil {
		return emptyArgs()
	}
	return map[string]interface{}{
		"date":     date,
		"timezone": tz,
		"stats":    string(encoded),
	}
}
