package docstore

import "strings"

// ParseKey splits key on its first dot into the row id and the sub-path.
// hasPath is false when key contains no dot or nothing follows the first
// dot, so "user." addresses the whole row. Every string is a valid key.
//
//	ParseKey("user")           -> "user", "", false
//	ParseKey("user.stats.hp")  -> "user", "stats.hp", true
//	ParseKey("user.")          -> "user", "", false
func ParseKey(key string) (id, path string, hasPath bool) {
	id, path, _ = strings.Cut(key, ".")
	return id, path, path != ""
}

func segments(path string) []string {
	return strings.Split(path, ".")
}

// lookup descends through objects along segs. Arrays, scalars and null all
// end the walk as absent; segments never index into arrays.
func lookup(v any, segs []string) (any, bool) {
	for _, seg := range segs {
		obj, ok := v.(map[string]any)
		if !ok {
			return nil, false
		}
		v, ok = obj[seg]
		if !ok {
			return nil, false
		}
	}
	return v, true
}

// assign sets segs to value inside root, replacing any missing or non-object
// intermediate with an empty object. root itself must be an object.
func assign(root map[string]any, segs []string, value any) {
	cur := root
	for _, seg := range segs[:len(segs)-1] {
		next, ok := cur[seg].(map[string]any)
		if !ok {
			next = map[string]any{}
			cur[seg] = next
		}
		cur = next
	}
	cur[segs[len(segs)-1]] = value
}

// remove deletes the property at segs. It reports false, leaving root
// untouched, when any intermediate is missing or not an object, or when the
// final property does not exist.
func remove(root any, segs []string) bool {
	parent, ok := lookup(root, segs[:len(segs)-1])
	if !ok {
		return false
	}
	obj, ok := parent.(map[string]any)
	if !ok {
		return false
	}
	last := segs[len(segs)-1]
	if _, ok := obj[last]; !ok {
		return false
	}
	delete(obj, last)
	return true
}
