package evaluate

import (
	"slices"
	"strings"
)

func StringSliceContains(slice []string, contains string, caseInsensitive bool) bool {
	return slices.ContainsFunc(slice, func(s string) bool {
		if caseInsensitive {
			return strings.EqualFold(s, contains)
		}

		return s == contains
	})
}

// CategoryMatches reports whether category starts with match, or contains it
// when contains is set. An empty match or category never matches.
func CategoryMatches(category string, match string, contains bool) bool {
	if match == "" || category == "" {
		return false
	}

	if contains {
		return strings.Contains(category, match)
	}

	return strings.HasPrefix(category, match)
}
