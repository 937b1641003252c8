package utils

import "sort"

// Duplicates returns the sorted values occurring more than once in slice.
func Duplicates(slice []string) []string {
	seen := make(map[string]int, len(slice))
	for _, item := range slice {
		seen[item]++
	}

	var dup []string
	for item, n := range seen {
		if n > 1 {
			dup = append(dup, item)
		}
	}
	sort.Strings(dup)
	return dup
}
