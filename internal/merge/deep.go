package merge

import "strings"

// maxDepth caps recursion for malformed nested input. Real extraction trees
// stay far below this.
const maxDepth = 50

// Degradation records a lossy fallback taken during a merge: the incoming
// value replaced a stored subtree because their types disagreed. Callers log
// these as warnings; they are never surfaced as errors.
type Degradation struct {
	Path     string
	Incoming string
	Existing string
}

// Deep reconciles an incoming partial update against the previously stored
// document. The stored document always survives where the update is silent:
//
//   - nil incoming leaves are skipped, existing wins
//   - object against object recurses
//   - arrays replace wholesale, except an empty incoming array loses
//   - scalars win only when non-empty
//   - keys present only in existing are always retained
//
// Neither input is mutated. The returned degradations list the subtrees where
// a type mismatch forced incoming to replace existing.
func Deep(incoming, existing map[string]any) (map[string]any, []Degradation) {
	var notes []Degradation
	merged := deep(incoming, existing, "", 0, &notes)
	return merged, notes
}

func deep(incoming, existing map[string]any, prefix string, depth int, notes *[]Degradation) map[string]any {
	if depth >= maxDepth {
		return clone(existing)
	}

	merged := clone(existing)
	for key, value := range incoming {
		path := joinPath(prefix, key)
		if value == nil {
			continue
		}

		switch v := value.(type) {
		case map[string]any:
			if existingChild, ok := merged[key].(map[string]any); ok {
				merged[key] = deep(v, existingChild, path, depth+1, notes)
				continue
			}
			if prior, ok := merged[key]; ok && prior != nil {
				*notes = append(*notes, Degradation{Path: path, Incoming: "object", Existing: typeName(prior)})
			}
			merged[key] = deep(v, nil, path, depth+1, notes)
		case []any:
			if len(v) == 0 {
				continue
			}
			merged[key] = append([]any(nil), v...)
		case string:
			if strings.TrimSpace(v) == "" {
				continue
			}
			if prior, ok := merged[key].(map[string]any); ok && prior != nil {
				*notes = append(*notes, Degradation{Path: path, Incoming: "string", Existing: "object"})
			}
			merged[key] = v
		default:
			if prior, ok := merged[key].(map[string]any); ok && prior != nil {
				*notes = append(*notes, Degradation{Path: path, Incoming: typeName(value), Existing: "object"})
			}
			merged[key] = v
		}
	}
	return merged
}

func clone(doc map[string]any) map[string]any {
	cloned := make(map[string]any, len(doc))
	for key, value := range doc {
		cloned[key] = value
	}
	return cloned
}

func joinPath(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}

func typeName(value any) string {
	switch value.(type) {
	case map[string]any:
		return "object"
	case []any:
		return "array"
	case string:
		return "string"
	case float64, int, int64:
		return "number"
	case bool:
		return "bool"
	default:
		return "unknown"
	}
}
