package util

import (
	"strconv"
	"strings"

	"github.com/gosimple/slug"
)

func SlugifyTitle(title string, maxLength int) string {
	s := slug.Make(title)
	if len(s) > maxLength {
		s = s[:maxLength]
	}
	return s
}

// SafeFilename builds a filesystem-safe name from a note title plus its
// result id as a uniqueness suffix.
func SafeFilename(title, id string, maxLength int) string {
	base := SlugifyTitle(title, maxLength-20) // Reserve space for ID suffix
	if base == "" {
		base = "note"
	}

	if len(base) > maxLength-20 {
		base = base[:maxLength-20]
	}
	return base + "-" + id
}

func DedupeStrings(slice []string) []string {
	seen := make(map[string]bool)
	var result []string

	for _, item := range slice {
		item = strings.TrimSpace(item)
		if item != "" && !seen[item] {
			seen[item] = true
			result = append(result, item)
		}
	}

	return result
}

// FormatCount renders engagement counters the way the dashboard shows them
// (12500 -> 12.5k).
func FormatCount(n int) string {
	if n < 1000 {
		return strconv.Itoa(n)
	}
	if n < 1000000 {
		return strconv.FormatFloat(float64(n)/1000, 'f', 1, 64) + "k"
	}
	return strconv.FormatFloat(float64(n)/1000000, 'f', 1, 64) + "m"
}

// Truncate shortens s to at most n bytes, appending an ellipsis when cut.
func Truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	if n <= 3 {
		return s[:n]
	}
	return s[:n-3] + "..."
}
