// Package strings holds small helpers for string-set fields.
package strings

import (
	"strings"
)

// AppendUnique trims each candidate and appends the ones not already in
// existing, skipping blanks and repeats within candidates. It returns the
// merged slice and the values that were added, in candidate order.
//
//	AppendUnique([]string{"n1"}, []string{" n2 ", "n1", "", "n2"})
//	// merged: [n1 n2], added: [n2]
func AppendUnique(existing, candidates []string) (merged, added []string) {
	seen := make(map[string]struct{}, len(existing)+len(candidates))
	for _, v := range existing {
		seen[v] = struct{}{}
	}
	merged = existing
	for _, v := range candidates {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		merged = append(merged, v)
		added = append(added, v)
	}
	return merged, added
}
