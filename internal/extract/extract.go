// Package extract pulls candidate post links out of free-form pasted text.
package extract

import (
	"fmt"
	"regexp"
	"strings"
)

// Share text commonly mixes links with Chinese punctuation, so the full-width
// comma is excluded alongside the ASCII one. Whatever the pattern captures is
// submitted verbatim; trailing punctuation is the server's problem.
var linkPattern = regexp.MustCompile(`https?://[^\s,，"']+`)

// ErrNoLinks is returned when the input contains no recognizable links.
var ErrNoLinks = fmt.Errorf("no recognizable links in input")

// Links returns the distinct http/https URLs in text, preserving first-seen
// order. An input without any link yields ErrNoLinks and the caller must not
// submit anything.
func Links(text string) ([]string, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrNoLinks
	}

	matches := linkPattern.FindAllString(text, -1)
	if len(matches) == 0 {
		return nil, ErrNoLinks
	}

	seen := make(map[string]bool, len(matches))
	var urls []string
	for _, m := range matches {
		if seen[m] {
			continue
		}
		seen[m] = true
		urls = append(urls, m)
	}

	return urls, nil
}
