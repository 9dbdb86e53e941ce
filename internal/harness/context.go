// Package harness runs an ordered catalog of tool invocations against a
// live MCP session and turns every call into one pass/fail outcome.
package harness

// Context carries state captured from earlier tool results to later
// resolvers within a single pass. A fresh pass starts from a fresh
// context; nothing is shared across rounds.
type Context struct {
	values map[string]interface{}
}

// NewContext returns an empty cross-call context.
func NewContext() *Context {
	return &Context{values: make(map[string]interface{})}
}

// Set stores a value, replacing any previous one.
func (c *Context) Set(key string, value interface{}) {
	c.values[key] = value
}

// SetIfAbsent stores a value only when the key is still unset, so the
// first writer wins.
func (c *Context) SetIfAbsent(key string, value interface{}) {
	if _, ok := c.values[key]; !ok {
		c.values[key] = value
	}
}

// Get returns the raw value for key.
func (c *Context) Get(key string) (interface{}, bool) {
	v, ok := c.values[key]
	return v, ok
}

// Str returns the value for key when it is a non-empty string.
func (c *Context) Str(key string) (string, bool) {
	v, ok := c.values[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return "", false
	}
	return s, true
}

// Has reports whether every listed key holds a usable value: present,
// non-nil, and not an empty string.
func (c *Context) Has(keys ...string) bool {
	for _, key := range keys {
		v, ok := c.values[key]
		if !ok || v == nil {
			return false
		}
		if s, isStr := v.(string); isStr && s == "" {
			return false
		}
	}
	return true
}
