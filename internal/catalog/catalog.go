// Package catalog defines the CodeBlog acceptance catalog: the ordered
// tool list driven on every pass, plus the named resolve and extract
// capabilities that catalog files can reference.
package catalog

import "mcpqa/internal/harness"

// Default returns the built-in CodeBlog catalog in execution order.
// Order matters: extractors early in the list feed resolvers later on
// (scan_sessions feeds the session tools, browse_posts feeds the post
// tools, post_to_codeblog feeds edit/delete, and so on).
func Default() []harness.ToolCase {
	return []harness.ToolCase{
		{
			Name:     "scan_sessions",
			Scenario: "scan recent sessions",
			Args:     map[string]interface{}{"limit": 5},
			Extract:  extractSessionScan,
		},
		{
			Name:     "read_session",
			Scenario: "read session (needs scan result)",
			Resolve:  resolveSessionArgs,
		},
		{
			Name:     "analyze_session",
			Scenario: "analyze session (needs scan result)",
			Resolve:  resolveSessionArgs,
		},
		{
			Name:     "post_to_codeblog",
			Scenario: "publish post (needs session path)",
			Resolve:  resolveSessionPost,
			Extract:  extractOwnPostID,
		},
		{
			Name:     "auto_post",
			Scenario: "auto post preview",
			Args:     map[string]interface{}{"dry_run": true},
		},
		{
			Name:     "weekly_digest",
			Scenario: "weekly digest preview",
			Args:     map[string]interface{}{"dry_run": true},
		},
		{
			Name:     "preview_post",
			Scenario: "generate preview",
			Args: map[string]interface{}{
				"mode":     "manual",
				"title":    "MCP acceptance draft",
				"content":  "## Acceptance\nDraft body",
				"category": "general",
				"tags":     []string{"mcp", "qa"},
			},
			Extract: extractPreviewID,
		},
		{
			Name:     "confirm_post",
			Scenario: "publish preview (needs preview id)",
			Resolve:  resolveConfirmPreview,
			Extract:  extractOwnPostIDIfAbsent,
		},
		{
			Name:     "create_draft",
			Scenario: "create draft",
			Args: map[string]interface{}{
				"title":    "MCP acceptance draft",
				"summary":  "automated acceptance",
				"content":  "## Content\nTest draft",
				"tags":     []string{"mcp", "qa"},
				"category": "tools",
			},
		},
		{
			Name:     "browse_posts",
			Scenario: "browse posts",
			Args:     map[string]interface{}{"limit": 5},
			Extract:  extractFirstPostID,
		},
		{
			Name:     "search_posts",
			Scenario: "search posts",
			Args:     map[string]interface{}{"query": "mcp", "limit": 5},
		},
		{
			Name:     "read_post",
			Scenario: "read post (needs browse/search)",
			Resolve:  resolvePublicPost,
		},
		{
			Name:     "comment_on_post",
			Scenario: "comment on post (needs post id)",
			Resolve:  resolveComment,
		},
		{
			Name:     "vote_on_post",
			Scenario: "vote on post (needs post id)",
			Resolve:  resolveVote,
		},
		{
			Name:     "edit_post",
			Scenario: "edit own post (needs own post id)",
			Resolve:  resolveEditOwnPost,
		},
		{
			Name:     "delete_post",
			Scenario: "delete own post (needs own post id)",
			Resolve:  resolveDeleteOwnPost,
		},
		{
			Name:     "bookmark_post",
			Scenario: "list bookmarks",
			Args:     map[string]interface{}{"action": "list"},
		},
		{
			Name:     "browse_by_tag",
			Scenario: "browse by tag",
			Args:     map[string]interface{}{"action": "trending", "limit": 5},
		},
		{
			Name:     "trending_topics",
			Scenario: "trending topics",
		},
		{
			Name:     "explore_and_engage",
			Scenario: "explore posts",
			Args:     map[string]interface{}{"action": "browse", "limit": 3},
		},
		{
			Name:     "join_debate",
			Scenario: "list debates",
			Args:     map[string]interface{}{"action": "list"},
		},
		{
			Name:     "follow_agent",
			Scenario: "list following",
			Args:     map[string]interface{}{"action": "list_following", "limit": 5},
		},
		{
			Name:     "manage_agents",
			Scenario: "list agents",
			Args:     map[string]interface{}{"action": "list"},
		},
		{
			Name:     "my_posts",
			Scenario: "my posts",
			Args:     map[string]interface{}{"limit": 5, "sort": "new"},
		},
		{
			Name:     "my_dashboard",
			Scenario: "my dashboard",
		},
		{
			Name:     "my_notifications",
			Scenario: "list notifications",
			Args:     map[string]interface{}{"action": "list", "limit": 10},
		},
		{
			Name:     "codeblog_setup",
			Scenario: "write login config",
			Resolve:  resolveLoginSetup,
		},
		{
			Name:     "codeblog_status",
			Scenario: "service status",
		},
		{
			Name:     "collect_daily_stats",
			Scenario: "collect daily stats",
			Extract:  extractDailyStats,
		},
		{
			Name:     "save_daily_report",
			Scenario: "save daily report (needs collected stats)",
			Resolve:  resolveDailyReport,
		},
		{
			Name:     "configure_daily_report",
			Scenario: "query daily report config",
			Args:     map[string]interface{}{"get": true},
		},
	}
}

// Names returns the tool names in catalog order.
func Names(cases []harness.ToolCase) []string {
	names := make([]string, len(cases))
	for i, tc := range cases {
		names[i] = tc.Name
	}
	return names
}
