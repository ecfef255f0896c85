package core

import (
	"fmt"
	"strconv"
)

// Properties holds the build properties a reporter may interpolate into payloads.
type Properties map[string]any

// Get returns the named property and whether it is set.
func (p Properties) Get(name string) (any, bool) {
	if p == nil {
		return nil, false
	}
	v, ok := p[name]
	return v, ok
}

// Has reports whether the property is set.
func (p Properties) Has(name string) bool {
	_, ok := p.Get(name)
	return ok
}

// GetString returns the property rendered as a string, or def when unset.
func (p Properties) GetString(name, def string) string {
	v, ok := p.Get(name)
	if !ok || v == nil {
		return def
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// GetInt returns the property as an integer, or def when it is unset or not numeric.
// JSON-decoded numbers arrive as float64 and are truncated.
func (p Properties) GetInt(name string, def int64) int64 {
	v, ok := p.Get(name)
	if !ok {
		return def
	}
	switch n := v.(type) {
	case int:
		return int64(n)
	case int64:
		return n
	case int32:
		return int64(n)
	case float64:
		return int64(n)
	case float32:
		return int64(n)
	case string:
		if i, err := strconv.ParseInt(n, 10, 64); err == nil {
			return i
		}
	}
	return def
}

// Merge returns a copy of p overlaid with other.
func (p Properties) Merge(other Properties) Properties {
	out := make(Properties, len(p)+len(other))
	for k, v := range p {
		out[k] = v
	}
	for k, v := range other {
		out[k] = v
	}
	return out
}
