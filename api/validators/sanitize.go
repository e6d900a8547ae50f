package validators

import (
	"strings"
	"unicode/utf8"
)

// SanitizeString trims input, collapses inner whitespace runs to one space
// and caps the result at maxLen runes. maxLen <= 0 disables the cap.
func SanitizeString(input string, maxLen int) string {
	out := strings.Join(strings.Fields(input), " ")
	if maxLen <= 0 || utf8.RuneCountInString(out) <= maxLen {
		return out
	}
	runes := []rune(out)
	return strings.TrimSpace(string(runes[:maxLen]))
}
