package container

import (
	"log/slog"
	"sort"
)

// Container maps string keys to Values. Keys are unique and the last Set wins.
// A Container is not safe for concurrent mutation; the runtime hands every
// consumer its own copy instead.
type Container struct {
	items map[string]Value
}

// New returns an empty container.
func New() *Container {
	return &Container{items: make(map[string]Value)}
}

// Set stores v under key, replacing any existing value.
func (c *Container) Set(key string, v Value) *Container {
	if c.items == nil {
		c.items = make(map[string]Value)
	}
	c.items[key] = v
	return c
}

// Get returns the value stored under key.
func (c *Container) Get(key string) (Value, bool) {
	if c == nil {
		return Value{}, false
	}
	v, ok := c.items[key]
	return v, ok
}

// Delete removes key from the container.
func (c *Container) Delete(key string) {
	if c == nil {
		return
	}
	delete(c.items, key)
}

// Len returns the number of entries.
func (c *Container) Len() int {
	if c == nil {
		return 0
	}
	return len(c.items)
}

// Keys returns the keys in sorted order.
func (c *Container) Keys() []string {
	if c == nil {
		return nil
	}
	keys := make([]string, 0, len(c.items))
	for k := range c.items {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Range calls fn for every entry until fn returns false. Iteration order is
// unspecified.
func (c *Container) Range(fn func(key string, v Value) bool) {
	if c == nil {
		return
	}
	for k, v := range c.items {
		if !fn(k, v) {
			return
		}
	}
}

// Clone returns an independent copy. Values are immutable, so copying the
// map is enough.
func (c *Container) Clone() *Container {
	out := &Container{items: make(map[string]Value, c.Len())}
	c.Range(func(k string, v Value) bool {
		out.items[k] = v
		return true
	})
	return out
}

// Equal reports whether both containers hold the same entries. A nil
// container equals an empty one.
func (c *Container) Equal(o *Container) bool {
	if c.Len() != o.Len() {
		return false
	}
	equal := true
	c.Range(func(k string, v Value) bool {
		ov, ok := o.Get(k)
		if !ok || !v.Equal(ov) {
			equal = false
		}
		return equal
	})
	return equal
}

// Map returns the entries as plain Go values, for encoders such as JSON.
func (c *Container) Map() map[string]any {
	out := make(map[string]any, c.Len())
	c.Range(func(k string, v Value) bool {
		out[k] = v.Any()
		return true
	})
	return out
}

// LogValue renders the container as a slog group with sorted keys.
func (c *Container) LogValue() slog.Value {
	if c == nil {
		return slog.StringValue("<none>")
	}
	attrs := make([]slog.Attr, 0, c.Len())
	for _, k := range c.Keys() {
		attrs = append(attrs, slog.Any(k, c.items[k].Any()))
	}
	return slog.GroupValue(attrs...)
}
