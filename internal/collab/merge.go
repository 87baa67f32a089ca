package collab

import "reflect"

// Merge reconciles two change sets field by field using type-directed
// rules. Fields present on only one side are taken as-is. For shared
// fields: the longer string wins (treated as more complete), booleans keep
// the local value (the acting user's explicit intent), numbers take the
// remote value (assumed more recent), arrays union by identity, and nested
// objects recurse. Neither input is mutated.
func Merge(local, remote Change) Change {
	merged := make(Change, len(local)+len(remote))
	for k, v := range local {
		merged[k] = v
	}
	for k, rv := range remote {
		lv, ok := merged[k]
		if !ok {
			merged[k] = rv
			continue
		}
		merged[k] = mergeValue(lv, rv)
	}
	return merged
}

func mergeValue(local, remote any) any {
	switch lv := local.(type) {
	case string:
		if rv, ok := remote.(string); ok {
			if len(rv) > len(lv) {
				return rv
			}
			return lv
		}
	case bool:
		if _, ok := remote.(bool); ok {
			return lv
		}
	case map[string]any:
		if rv, ok := remote.(map[string]any); ok {
			return map[string]any(Merge(Change(lv), Change(rv)))
		}
	case []any:
		if rv, ok := remote.([]any); ok {
			return mergeArrays(lv, rv)
		}
	default:
		if isNumber(local) && isNumber(remote) {
			return remote
		}
	}

	// Type mismatch between sides: treat remote as more recent.
	return remote
}

// mergeArrays unions two arrays by identity: elements that are objects are
// deduplicated by their "id" attribute, primitives by equality. Local
// elements keep their order; remote-only elements are appended.
func mergeArrays(local, remote []any) []any {
	merged := make([]any, len(local), len(local)+len(remote))
	copy(merged, local)

	for _, rv := range remote {
		if !containsElement(merged, rv) {
			merged = append(merged, rv)
		}
	}
	return merged
}

func containsElement(arr []any, elem any) bool {
	if obj, ok := elem.(map[string]any); ok {
		id, hasID := obj["id"]
		if hasID {
			for _, v := range arr {
				existing, isObj := v.(map[string]any)
				if isObj && reflect.DeepEqual(existing["id"], id) {
					return true
				}
			}
			return false
		}
	}

	for _, v := range arr {
		if reflect.DeepEqual(v, elem) {
			return true
		}
	}
	return false
}

func isNumber(v any) bool {
	switch v.(type) {
	case int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return true
	}
	return false
}
