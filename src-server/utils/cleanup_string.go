package utils

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// CleanupString normalizes a user-supplied event title for display: trims and
// collapses whitespace runs, title-cases, drops a trailing period. Grouping
// for de-duplication does its own casefolded normalization; this one is only
// about what gets stored and shown.
func CleanupString(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	s = cases.Title(language.English).String(s)
	return strings.TrimSuffix(s, ".")
}
