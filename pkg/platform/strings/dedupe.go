// Package strings holds small helpers for query and header values.
package strings

import (
	"strings"
)

// SplitList flattens repeated and comma separated values into one
// lowercase, trimmed, duplicate-free list in first-seen order.
//
//	SplitList([]string{"A,b", " a ", "c,"}) // []string{"a", "b", "c"}
func SplitList(values []string) []string {
	var parts []string
	for _, v := range values {
		parts = append(parts, strings.Split(v, ",")...)
	}
	return DedupeAndTrimLower(parts)
}

// DedupeAndTrimLower drops blanks and case-insensitive duplicates. Order is
// preserved.
func DedupeAndTrimLower(values []string) []string {
	if len(values) == 0 {
		return values
	}
	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))
	for _, v := range values {
		key := strings.ToLower(strings.TrimSpace(v))
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		result = append(result, key)
	}
	return result
}
