// Package wire decodes the marketplace backend's loosely shaped JSON.
//
// The backend mixes camelCase, snake_case and all-lowercase field names, and
// sends ids as either strings or numbers. Everything past this package works
// with canonical names only.
package wire

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Fields is one decoded JSON object, keyed by the backend's field names.
type Fields map[string]json.RawMessage

// Get returns the first non-empty scalar among the aliases of field.
func (f Fields) Get(field Field) string {
	return f.Pick(Aliases[field]...)
}

// GetAll returns every distinct non-empty scalar among the aliases of field,
// in alias order.
func (f Fields) GetAll(field Field) []string {
	var out []string
	seen := make(map[string]bool)
	for _, name := range Aliases[field] {
		v, ok := f.scalar(name)
		if !ok || v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}

// Flag reports whether any alias of field holds a truthy value.
func (f Fields) Flag(field Field) bool {
	for _, name := range Aliases[field] {
		v, ok := f.scalar(name)
		if !ok || v == "" {
			continue
		}
		return truthy(v)
	}
	return false
}

// Pick returns the first non-empty scalar stored under any of names.
// A name may address one nested level with a dot, e.g. "shipment.id".
func (f Fields) Pick(names ...string) string {
	for _, name := range names {
		if v, ok := f.scalar(name); ok && v != "" {
			return v
		}
	}
	return ""
}

func (f Fields) scalar(name string) (string, bool) {
	if f == nil {
		return "", false
	}
	head, rest, nested := strings.Cut(name, ".")
	raw, ok := f[head]
	if !ok {
		return "", false
	}
	if nested {
		var inner Fields
		if err := json.Unmarshal(raw, &inner); err != nil {
			return "", false
		}
		return inner.scalar(rest)
	}
	return scalarText(raw)
}

// scalarText renders a JSON scalar as text. Objects and arrays are not scalars.
func scalarText(raw json.RawMessage) (string, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return "", false
	}
	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", false
		}
		return strings.TrimSpace(s), true
	case '{', '[':
		return "", false
	case 'n':
		return "", true
	default:
		// Numbers and booleans keep their literal text.
		return string(raw), true
	}
}

func truthy(v string) bool {
	switch strings.ToLower(v) {
	case "true", "1", "yes", "evet":
		return true
	}
	return false
}
