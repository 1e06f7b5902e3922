// Package analysis turns loosely-typed analysis payloads into the canonical
// shapes the detail view renders.
//
// Each field that may arrive as a string or as an object is first classified
// into a tagged variant (Parse*) and then converted by exactly one Normalize*
// function. Nothing in this package returns an error for an unexpected shape:
// unknown values are skipped.
package analysis

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// Payload is an analysis record as received from the backend.
type Payload map[string]any

// Decode parses raw JSON into a Payload. null and empty input yield a nil
// Payload; anything other than an object is an error.
func Decode(raw []byte) (Payload, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}
	var p Payload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("decode analysis: %w", err)
	}
	return p, nil
}

// Empty reports whether p carries no fields at all.
func (p Payload) Empty() bool {
	return len(p) == 0
}

// Kind tags the shape a loosely-typed field arrived in.
type Kind int

const (
	KindNone Kind = iota
	// KindText is a bare string.
	KindText
	// KindLegacy is an object in an older field layout.
	KindLegacy
	// KindStructured is an object in the current field layout.
	KindStructured
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindLegacy:
		return "legacy"
	case KindStructured:
		return "structured"
	default:
		return "none"
	}
}

// get returns the first present, non-nil value among keys. Each key is also
// tried in snake_case.
func get(m map[string]any, keys ...string) any {
	if m == nil {
		return nil
	}
	for _, key := range keys {
		if v, ok := m[key]; ok && v != nil {
			return v
		}
		if snake := toSnake(key); snake != key {
			if v, ok := m[snake]; ok && v != nil {
				return v
			}
		}
	}
	return nil
}

// getString returns the first non-blank scalar among keys.
func getString(m map[string]any, keys ...string) string {
	for _, key := range keys {
		if s := scalar(get(m, key)); s != "" {
			return s
		}
	}
	return ""
}

func has(m map[string]any, key string) bool {
	return get(m, key) != nil
}

// scalar renders strings, numbers and booleans as trimmed text.
func scalar(v any) string {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case json.Number:
		return val.String()
	case int:
		return strconv.Itoa(val)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// list returns v as a slice; a single non-slice value becomes a one-item slice.
func list(v any) []any {
	switch val := v.(type) {
	case nil:
		return nil
	case []any:
		return val
	case []string:
		out := make([]any, len(val))
		for i, s := range val {
			out[i] = s
		}
		return out
	case []map[string]any:
		out := make([]any, len(val))
		for i, m := range val {
			out[i] = m
		}
		return out
	default:
		return []any{val}
	}
}

// stringList flattens strings and text-bearing objects into trimmed strings.
func stringList(v any, objectKeys ...string) []string {
	var out []string
	for _, item := range list(v) {
		var s string
		switch val := item.(type) {
		case map[string]any:
			s = getString(val, objectKeys...)
		default:
			s = scalar(val)
		}
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

func boolish(v any) bool {
	switch val := v.(type) {
	case bool:
		return val
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(val))
		return err == nil && b
	case float64:
		return val != 0
	default:
		return false
	}
}

func toSnake(s string) string {
	var b strings.Builder
	for i, r := range s {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func containsFold(s string, needles ...string) bool {
	lower := strings.ToLower(s)
	for _, n := range needles {
		if strings.Contains(lower, n) {
			return true
		}
	}
	return false
}
