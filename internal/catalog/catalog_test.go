package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mcpqa/internal/harness"
)

func TestDefaultCatalogShape(t *testing.T) {
	cases := Default()
	require.Len(t, cases, 31)

	assert.Equal(t, "scan_sessions", cases[0].Name)
	assert.Equal(t, "configure_daily_report", cases[len(cases)-1].Name)

	seen := make(map[string]bool)
	for _, tc := range cases {
		assert.NotEmpty(t, tc.Name)
		assert.NotEmpty(t, tc.Scenario, "tool %s has no scenario label", tc.Name)
		assert.False(t, seen[tc.Name], "duplicate tool %s", tc.Name)
		seen[tc.Name] = true
	}
}

func TestDefaultCatalogTemplates(t *testing.T) {
	byName := make(map[string]harness.ToolCase)
	for _, tc := range Default() {
		byName[tc.Name] = tc
	}

	assert.Equal(t, map[string]interface{}{"limit": 5}, byName["scan_sessions"].Args)
	assert.Equal(t, map[string]interface{}{"dry_run": true}, byName["auto_post"].Args)
	assert.Equal(t, map[string]interface{}{"query": "mcp", "limit": 5}, byName["search_posts"].Args)
	assert.Equal(t, map[string]interface{}{"get": true}, byName["configure_daily_report"].Args)
	assert.Equal(t, map[string]interface{}{"limit": 5, "sort": "new"}, byName["my_posts"].Args)

	// Dependency order: producers come before their consumers.
	order := make(map[string]int)
	for i, tc := range Default() {
		order[tc.Name] = i
	}
	assert.Less(t, order["scan_sessions"], order["read_session"])
	assert.Less(t, order["browse_posts"], order["read_post"])
	assert.Less(t, order["preview_post"], order["confirm_post"])
	assert.Less(t, order["post_to_codeblog"], order["edit_post"])
	assert.Less(t, order["collect_daily_stats"], order["save_daily_report"])
}

func TestResolveSessionArgs(t *testing.T) {
	template := map[string]interface{}{}

	t.Run("degrades to empty without scan result", func(t *testing.T) {
		args := resolveSessionArgs(template, harness.NewContext())
		assert.Empty(t, args)
	})

	t.Run("adds path and source", func(t *testing.T) {
		ctx := harness.NewContext()
		ctx.Set("session_path", "/tmp/session.json")
		ctx.Set("session_source", "claude")

		args := resolveSessionArgs(template, ctx)
		assert.Equal(t, "/tmp/session.json", args["path"])
		assert.Equal(t, "claude", args["source"])
	})

	t.Run("needs both keys", func(t *testing.T) {
		ctx := harness.NewContext()
		ctx.Set("session_path", "/tmp/session.json")
		assert.Empty(t, resolveSessionArgs(template, ctx))
	})
}

func TestResolveSessionPost(t *testing.T) {
	ctx := harness.NewContext()
	assert.Empty(t, resolveSessionPost(nil, ctx))

	ctx.Set("session_path", "/tmp/session.json")
	ctx.Set("session_source", "claude")
	args := resolveSessionPost(nil, ctx)

	assert.Equal(t, "/tmp/session.json", args["source_session"])
	assert.Equal(t, "tools", args["category"])
	assert.Equal(t, []string{"mcp", "qa"}, args["tags"])
	assert.NotEmpty(t, args["title"])
	assert.NotEmpty(t, args["content"])
}

func TestResolvePublicPostFamily(t *testing.T) {
	ctx := harness.NewContext()
	ctx.Set("post_id", "p-7")
	template := map[string]interface{}{}

	t.Run("read", func(t *testing.T) {
		args := resolvePublicPost(template, ctx)
		assert.Equal(t, map[string]interface{}{"post_id": "p-7"}, args)
	})

	t.Run("comment adds content", func(t *testing.T) {
		args := resolveComment(template, ctx)
		assert.Equal(t, "p-7", args["post_id"])
		assert.Equal(t, acceptanceComment, args["content"])
	})

	t.Run("vote adds neutral value", func(t *testing.T) {
		args := resolveVote(template, ctx)
		assert.Equal(t, "p-7", args["post_id"])
		assert.Equal(t, 0, args["value"])
	})

	t.Run("all degrade without post id", func(t *testing.T) {
		empty := harness.NewContext()
		assert.Empty(t, resolvePublicPost(template, empty))
		assert.Empty(t, resolveComment(template, empty))
		assert.Empty(t, resolveVote(template, empty))
	})
}

func TestResolveOwnPostFamily(t *testing.T) {
	ctx := harness.NewContext()
	ctx.Set("own_post_id", "mine-1")
	template := map[string]interface{}{}

	edit := resolveEditOwnPost(template, ctx)
	assert.Equal(t, "mine-1", edit["post_id"])
	assert.Equal(t, acceptanceEditTitle, edit["title"])
	assert.Equal(t, acceptanceEditSummary, edit["summary"])

	del := resolveDeleteOwnPost(template, ctx)
	assert.Equal(t, "mine-1", del["post_id"])
	assert.Equal(t, true, del["confirm"])

	// A foreign post_id must never satisfy edit/delete.
	foreign := harness.NewContext()
	foreign.Set("post_id", "somebody-elses")
	assert.Empty(t, resolveEditOwnPost(template, foreign))
	assert.Empty(t, resolveDeleteOwnPost(template, foreign))
}

func TestResolveConfirmPreview(t *testing.T) {
	template := map[string]interface{}{}
	assert.Empty(t, resolveConfirmPreview(template, harness.NewContext()))

	ctx := harness.NewContext()
	ctx.Set("preview_id", "prev-123")
	args := resolveConfirmPreview(template, ctx)
	assert.Equal(t, map[string]interface{}{"preview_id": "prev-123"}, args)
}

func TestResolveLoginSetup(t *testing.T) {
	t.Run("browser mode without credentials", func(t *testing.T) {
		args := resolveLoginSetup(nil, harness.NewContext())
		assert.Equal(t, map[string]interface{}{"mode": "browser"}, args)
	})

	t.Run("login mode with credentials", func(t *testing.T) {
		ctx := harness.NewContext()
		ctx.Set("qa_email", "qa@example.com")
		ctx.Set("qa_password", "secret")

		args := resolveLoginSetup(nil, ctx)
		assert.Equal(t, "login", args["mode"])
		assert.Equal(t, "qa@example.com", args["email"])
		assert.Equal(t, "secret", args["password"])
	})
}

func TestResolveDailyReport(t *testing.T) {
	t.Run("degrades without collected stats", func(t *testing.T) {
		assert.Empty(t, resolveDailyReport(nil, harness.NewContext()))
	})

	t.Run("degrades on empty stats", func(t *testing.T) {
		ctx := harness.NewContext()
		ctx.Set("raw_stats", map[string]interface{}{})
		ctx.Set("stats_date", "2025-08-25")
		ctx.Set("stats_tz", "UTC")
		assert.Empty(t, resolveDailyReport(nil, ctx))
	})

	t.Run("encodes stats as a JSON string", func(t *testing.T) {
		ctx := harness.NewContext()
		ctx.Set("raw_stats", map[string]interface{}{"posts": 3})
		ctx.Set("stats_date", "2025-08-25")
		ctx.Set("stats_tz", "Asia/Shanghai")

		args := resolveDailyReport(nil, ctx)
		assert.Equal(t, "2025-08-25", args["date"])
		assert.Equal(t, "Asia/Shanghai", args["timezone"])
		assert.JSONEq(t, `{"posts":3}`, args["stats"].(string))
	})
}

func TestExtractSessionScan(t *testing.T) {
	ctx := harness.NewContext()
	extractSessionScan(`[{"path":"/tmp/s1.json","source":"claude"},{"path":"/tmp/s2.json"}]`, ctx)

	path, _ := ctx.Str("session_path")
	source, _ := ctx.Str("session_source")
	assert.Equal(t, "/tmp/s1.json", path)
	assert.Equal(t, "claude", source)

	// Non-JSON output leaves the context untouched.
	other := harness.NewContext()
	extractSessionScan("scanned 5 sessions", other)
	assert.False(t, other.Has("session_path"))
}

func TestExtractFirstPostID(t *testing.T) {
	ctx := harness.NewContext()
	extractFirstPostID(`{"posts":[{"id":"abc123","title":"x"},{"id":"def"}]}`, ctx)
	id, _ := ctx.Str("post_id")
	assert.Equal(t, "abc123", id)

	empty := harness.NewContext()
	extractFirstPostID(`{"posts":[]}`, empty)
	assert.False(t, empty.Has("post_id"))
}

func TestExtractPreviewID(t *testing.T) {
	ctx := harness.NewContext()
	extractPreviewID("Preview ready [preview_id: prev-42 ] confirm within 10 minutes", ctx)
	id, _ := ctx.Str("preview_id")
	assert.Equal(t, "prev-42", id)

	none := harness.NewContext()
	extractPreviewID("no marker here", none)
	assert.False(t, none.Has("preview_id"))
}

func TestExtractOwnPostID(t *testing.T) {
	ctx := harness.NewContext()
	extractOwnPostID("Published: https://codeblog.ai/post/abc123", ctx)
	id, _ := ctx.Str("own_post_id")
	assert.Equal(t, "abc123", id)

	// Case-insensitive match on the URL path.
	upper := harness.NewContext()
	extractOwnPostID("https://codeblog.ai/POST/ABC9", upper)
	assert.True(t, upper.Has("own_post_id"))
}

func TestExtractOwnPostIDIfAbsentKeepsFirst(t *testing.T) {
	ctx := harness.NewContext()
	ctx.Set("own_post_id", "original")
	extractOwnPostIDIfAbsent("https://codeblog.ai/post/other1", ctx)

	id, _ := ctx.Str("own_post_id")
	assert.Equal(t, "original", id)

	fresh := harness.NewContext()
	extractOwnPostIDIfAbsent("https://codeblog.ai/post/other1", fresh)
	id, _ = fresh.Str("own_post_id")
	assert.Equal(t, "other1", id)
}

func TestExtractDailyStats(t *testing.T) {
	ctx := harness.NewContext()
	extractDailyStats(`{"_rawStats":{"posts":9},"date":"2025-08-25","timezone":"UTC"}`, ctx)

	assert.True(t, ctx.Has("raw_stats", "stats_date", "stats_tz"))
	raw, _ := ctx.Get("raw_stats")
	assert.Equal(t, map[string]interface{}{"posts": float64(9)}, raw)
}
