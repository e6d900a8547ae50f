package db

import "strings"

// LikeEscape is the ESCAPE clause matching ContainsPattern.
const LikeEscape = `ESCAPE '\'`

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// ContainsPattern lowercases term and wraps it for a substring LIKE match.
// Wildcards in term are escaped, so callers must add LikeEscape after each
// LIKE placeholder.
func ContainsPattern(term string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(term)) + "%"
}
