package filter

import (
	"encoding/json"
	"strings"
)

// LikeEscape is the escape character declared in every LIKE clause built from a Search.
const LikeEscape = `\`

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// EscapeLike escapes the LIKE wildcards in s so it matches literally.
func EscapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// Search is a case-insensitive free-text facet, pre-escaped for LIKE.
type Search struct {
	Term string // trimmed and lowercased input
	// TextPattern matches the term anywhere in a lowercased title or content.
	TextPattern string
	// TagPattern matches the term as a whole element of a lowercased JSON tag array.
	TagPattern string
}

// NewSearch builds the patterns for term, or returns nil when term is blank.
func NewSearch(term string) *Search {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return nil
	}
	// Tags are stored as a JSON array, so an element equal to term appears as its
	// JSON encoding, quotes included.
	encoded, _ := json.Marshal(term)
	return &Search{
		Term:        term,
		TextPattern: "%" + EscapeLike(term) + "%",
		TagPattern:  "%" + EscapeLike(string(encoded)) + "%",
	}
}
