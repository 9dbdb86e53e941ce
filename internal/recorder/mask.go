// Package recorder persists acceptance outcomes: an append-only CSV run
// log and a fixed-row acceptance matrix updated in place. Everything
// written to disk goes through Mask first.
package recorder

import (
	"strings"
	"unicode/utf8"

	"mcpqa/internal/harness"
)

// sensitiveKeys are argument names whose values never reach disk.
var sensitiveKeys = map[string]bool{
	"password": true,
	"api_key":  true,
	"apikey":   true,
	"token":    true,
}

const (
	maskedValue     = "***"
	maskedStats     = "[stats_json]"
	maxMaskedRunes  = 600
	truncatedSuffix = "...(truncated)"
)

// Mask returns a persistence-safe copy of an argument payload: sensitive
// values are replaced, the stats bundle is collapsed, and long strings
// are cut. Only snapshots are masked; the live call always receives the
// real arguments.
func Mask(payload map[string]interface{}) map[string]interface{} {
	masked, _ := maskValue(payload, "").(map[string]interface{})
	if masked == nil {
		return map[string]interface{}{}
	}
	return masked
}

// maskValue handles one value under its owning key. List elements keep
// the parent key so a sensitive list is masked element by element.
func maskValue(value interface{}, key string) interface{} {
	low := strings.ToLower(key)
	if sensitiveKeys[low] {
		return maskedValue
	}
	if low == "stats" {
		return maskedStats
	}
	switch v := value.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(v))
		for k, item := range v {
			out[k] = maskValue(item, k)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(v))
		for i, item := range v {
			out[i] = maskValue(item, key)
		}
		return out
	case []string:
		out := make([]interface{}, len(v))
		for i, item := range v {
			out[i] = maskValue(item, key)
		}
		return out
	case string:
		if utf8.RuneCountInString(v) > maxMaskedRunes {
			return harness.ClipRunes(v, maxMaskedRunes) + truncatedSuffix
		}
		return v
	default:
		return v
	}
}
