// Package merge implements the field-resolution and deep-merge logic used to
// reconcile wizard saves and AI extraction passes against the stored record.
package merge

import (
	"strconv"
	"strings"
)

// Resolve walks the document along each dotted path in order and returns the
// first value that is present. A missing intermediate segment is treated as
// "not found" and the next path is tried; Resolve never panics on malformed
// trees. Numeric zero and boolean false count as present; only nil and the
// empty string do not.
func Resolve(doc map[string]any, paths ...string) (any, bool) {
	for _, path := range paths {
		value, ok := lookup(doc, path)
		if !ok {
			continue
		}
		if present(value) {
			return value, true
		}
	}
	return nil, false
}

// ResolveDefault is Resolve with a caller-supplied fallback.
func ResolveDefault(doc map[string]any, fallback any, paths ...string) any {
	if value, ok := Resolve(doc, paths...); ok {
		return value
	}
	return fallback
}

// ResolveString returns the first present value rendered as a string, or ""
// when no path matches.
func ResolveString(doc map[string]any, paths ...string) string {
	value, ok := Resolve(doc, paths...)
	if !ok {
		return ""
	}
	switch v := value.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case bool:
		return strconv.FormatBool(v)
	default:
		return ""
	}
}

// ResolveFloat returns the first present numeric value. Strings that parse as
// numbers count: extraction passes frequently deliver "85.5" where a number
// was meant.
func ResolveFloat(doc map[string]any, paths ...string) (float64, bool) {
	for _, path := range paths {
		value, ok := lookup(doc, path)
		if !ok || value == nil {
			continue
		}
		switch v := value.(type) {
		case float64:
			return v, true
		case float32:
			return float64(v), true
		case int:
			return float64(v), true
		case int64:
			return float64(v), true
		case string:
			trimmed := strings.TrimSpace(strings.ReplaceAll(v, ",", ""))
			if trimmed == "" {
				continue
			}
			parsed, err := strconv.ParseFloat(trimmed, 64)
			if err != nil {
				continue
			}
			return parsed, true
		}
	}
	return 0, false
}

func lookup(doc map[string]any, path string) (any, bool) {
	if doc == nil || path == "" {
		return nil, false
	}
	segments := strings.Split(path, ".")
	var current any = doc
	for _, segment := range segments {
		node, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = node[segment]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

// present reports whether a resolved value should be treated as found.
// Zero is a meaningful value for numeric fields, so only nil and the empty
// string are absent.
func present(value any) bool {
	switch v := value.(type) {
	case nil:
		return false
	case string:
		return strings.TrimSpace(v) != ""
	default:
		return true
	}
}
