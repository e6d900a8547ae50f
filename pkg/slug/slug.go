package slug

import (
	"regexp"
	"strings"
)

var (
	disallowedRe = regexp.MustCompile(`[^a-z0-9\s-]`)
	whitespaceRe = regexp.MustCompile(`\s+`)
	dashRunRe    = regexp.MustCompile(`-+`)
)

// Make derives a URL slug: lowercase, trimmed, punctuation stripped,
// whitespace runs replaced by "-" and repeated dashes collapsed.
// Leading or trailing dashes from the input are kept.
func Make(s string) string {
	out := strings.TrimSpace(strings.ToLower(s))
	out = disallowedRe.ReplaceAllString(out, "")
	out = whitespaceRe.ReplaceAllString(out, "-")
	return dashRunRe.ReplaceAllString(out, "-")
}
