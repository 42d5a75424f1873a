// Package slug derives URL-safe identifiers from display titles.
package slug

import (
	"regexp"
	"strings"
)

var (
	reDisallowed = regexp.MustCompile(`[^\w\s\p{Z}-]`)
	reSpaces     = regexp.MustCompile(`[\s\p{Z}]+`)
	reDashes     = regexp.MustCompile(`-{2,}`)
)

// Make lowercases title, drops everything but ASCII word characters,
// whitespace and hyphens, turns whitespace runs (Unicode spaces such as NBSP
// included) into a single hyphen and
// collapses repeated hyphens. Leading and trailing hyphens are trimmed.
// Make is pure; empty input gives an empty slug.
func Make(title string) string {
	s := strings.ToLower(title)
	s = reDisallowed.ReplaceAllString(s, "")
	s = reSpaces.ReplaceAllString(s, "-")
	s = reDashes.ReplaceAllString(s, "-")
	return strings.Trim(s, "- \t\r\n")
}

// Resolve prefers an authored slug and falls back to Make(title). An authored
// slug is normalized too so both paths yield the same alphabet.
func Resolve(authored, title string) string {
	if s := Make(authored); s != "" {
		return s
	}
	return Make(title)
}
