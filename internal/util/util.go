// Package util holds small string helpers shared across packages.
package util

import "unicode"

// Truncate caps s at maxLen runes, appending "..." when it cuts. It prefers
// cutting at a word boundary so report excerpts stay readable.
func Truncate(s string, maxLen int) string {
	if maxLen <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string([]rune("...")[:maxLen])
	}
	cut := maxLen - 3
	for i := cut - 1; i > 0; i-- {
		if unicode.IsSpace(runes[i]) {
			cut = i
			break
		}
	}
	return string(runes[:cut]) + "..."
}
