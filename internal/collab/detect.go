// Package collab implements client-side board synchronization: conflict
// detection and resolution for concurrent edits, and the per-viewer session
// that bridges local board state to the realtime hub.
package collab

import (
	"reflect"
	"sort"
)

// Change is a field delta for a single entity: field name -> new value.
type Change map[string]any

// OverlappingFields returns the field keys present in both change sets,
// sorted for determinism.
func OverlappingFields(local, remote Change) []string {
	var fields []string
	for k := range local {
		if _, ok := remote[k]; ok {
			fields = append(fields, k)
		}
	}
	sort.Strings(fields)
	return fields
}

// Conflicts reports whether two change sets for the same entity disagree,
// without a known common baseline. Any shared changed field counts: this
// is conservative and may flag two sides that set the same field to the
// same value, but it never misses a true conflict.
func Conflicts(local, remote Change) bool {
	return len(OverlappingFields(local, remote)) > 0
}

// ConflictsWithBase reports whether two change sets genuinely disagree
// given the last state both sides agreed on. A shared field conflicts only
// when both sides diverged from the baseline and from each other; fields
// where both converged on the same new value do not.
func ConflictsWithBase(base, local, remote Change) bool {
	for _, field := range OverlappingFields(local, remote) {
		baseVal := base[field]
		localVal := local[field]
		remoteVal := remote[field]

		if !reflect.DeepEqual(localVal, baseVal) &&
			!reflect.DeepEqual(remoteVal, baseVal) &&
			!reflect.DeepEqual(localVal, remoteVal) {
			return true
		}
	}
	return false
}
