package ir

import (
	"slices"
	"strconv"
)

// CompareNames orders symbolic names of the form <prefix><decimal counter>.
//
// Prefixes compare bytewise; equal prefixes compare by the numeric value of
// the counter. Plain string comparison would put "obj1000" before "obj999",
// which breaks any order derived from counter assignment.
func CompareNames(a, b string) int {
	pa, na, okA := splitName(a)
	pb, nb, okB := splitName(b)
	if !okA || !okB || pa != pb {
		switch {
		case a < b:
			return -1
		case a > b:
			return 1
		}
		return 0
	}
	switch {
	case na < nb:
		return -1
	case na > nb:
		return 1
	}
	// Same number, different spelling ("x01" vs "x1"): fall back to bytes.
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// SortNames sorts names in place using CompareNames.
func SortNames(names []string) {
	slices.SortFunc(names, CompareNames)
}

// splitName separates the trailing decimal counter from the prefix.
func splitName(s string) (prefix string, n uint64, ok bool) {
	i := len(s)
	for i > 0 && s[i-1] >= '0' && s[i-1] <= '9' {
		i--
	}
	if i == len(s) {
		return s, 0, false
	}
	n, err := strconv.ParseUint(s[i:], 10, 64)
	if err != nil {
		return s, 0, false
	}
	return s[:i], n, true
}
