package catalog

import (
	"encoding/json"
	"regexp"
	"strings"

	"mcpqa/internal/harness"
)

var (
	previewIDPattern = regexp.MustCompile(`\[preview_id:\s*([^\]]+)\]`)
	postURLPattern   = regexp.MustCompile(`(?i)/post/([a-z0-9]+)`)
)

// extractors binds the capability names usable in catalog files to their
// implementations.
var extractors = map[string]harness.ExtractFunc{
	"session_scan":          extractSessionScan,
	"first_post_id":         extractFirstPostID,
	"preview_id":            extractPreviewID,
	"own_post_id":           extractOwnPostID,
	"own_post_id_if_absent": extractOwnPostIDIfAbsent,
	"daily_stats":           extractDailyStats,
}

// extractSessionScan remembers the first scanned session for the
// read/analyze/post calls further down the catalog.
func extractSessionScan(text string, ctx *harness.Context) {
	var parsed []map[string]interface{}
	if err := json.Unmarshal([]byte(text), &parsed); err != nil || len(parsed) == 0 {
		return
	}
	if path, ok := parsed[0]["path"].(string); ok && path != "" {
		ctx.Set("session_path", path)
	}
	if source, ok := parsed[0]["source"].(string); ok && source != "" {
		ctx.Set("session_source", source)
	}
}

// extractFirstPostID remembers the first browsed post for the
// read/comment/vote calls.
func extractFirstPostID(text string, ctx *harness.Context) {
	var parsed struct {
		Posts []map[string]interface{} `json:"posts"`
	}
	if err := json.Unmarshal([]byte(text), &parsed); err != nil || len(parsed.Posts) == 0 {
		return
	}
	if id, ok := parsed.Posts[0]["id"].(string); ok && id != "" {
		ctx.Set("post_id", id)
	}
}

// extractPreviewID pulls the "[preview_id: ...]" marker out of the
// preview_post confirmation text.
func extractPreviewID(text string, ctx *harness.Context) {
	m := previewIDPattern.FindStringSubmatch(text)
	if m == nil {
		return
	}
	if id := strings.TrimSpace(m[1]); id != "" {
		ctx.Set("preview_id", id)
	}
}

// extractOwnPostID captures the published post id from its /post/ URL.
func extractOwnPostID(text string, ctx *harness.Context) {
	if m := postURLPattern.FindStringSubmatch(text); m != nil {
		ctx.Set("own_post_id", m[1])
	}
}

// extractOwnPostIDIfAbsent is the confirm_post variant: a post published
// directly earlier in the pass keeps priority for edit/delete.
func extractOwnPostIDIfAbsent(text string, ctx *harness.Context) {
	if m := postURLPattern.FindStringSubmatch(text); m != nil {
		ctx.SetIfAbsent("own_post_id", m[1])
	}
}

// extractDailyStats captures the raw stats bundle that save_daily_report
// echoes back to the server.
func extractDailyStats(text string, ctx *harness.Context) {
	var parsed map[string]interface{}
	if err := json.Unmarshal([]byte(text), &parsed); err != nil {
		return
	}
	if raw, ok := parsed["_rawStats"]; ok && raw != nil {
		ctx.Set("raw_stats", raw)
	}
	if date, ok := parsed["date"].(string); ok && date != "" {
		ctx.Set("stats_date", date)
	}
	if tz, ok := parsed["timezone"].(string); ok && tz != "" {
		ctx.Set("stats_tz", tz)
	}
}
