package memory

import (
	"regexp"
	"strings"
)

// scaffoldPattern matches LLM formatting artifacts that leak into
// candidate text: bold markers and boilerplate labels.
var scaffoldPattern = regexp.MustCompile(`\*\*.*?\*\*:?|Memory Entry:|Candidate Memory:|Summary:|Details:`)

// Normalize strips formatting scaffolding from candidate memory text so
// that embeddings and stored content stay label-free. Normalize is
// idempotent: applying it twice yields the same result.
func Normalize(text string) string {
	return strings.TrimSpace(scaffoldPattern.ReplaceAllString(text, ""))
}
