package textutil

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var whitespaceRegex = regexp.MustCompile(`\s+`)

var accentStripper = transform.Chain(
	norm.NFD,
	runes.Remove(runes.In(unicode.Mn)),
	norm.NFC,
)

// StripAccents removes combining diacritical marks,
// e.g. "Côte-des-Neiges" -> "Cote-des-Neiges".
func StripAccents(s string) string {
	out, _, err := transform.String(accentStripper, s)
	if err != nil {
		return s
	}
	return out
}

// CollapseWhitespace trims the string and replaces every
// internal whitespace run with a single space.
func CollapseWhitespace(s string) string {
	s = strings.TrimSpace(s)
	return whitespaceRegex.ReplaceAllString(s, " ")
}

// ReorderCommaName rewrites a comma-separated two part name
// ("Legault, François") into display order ("François Legault").
// Anything that is not exactly two comma-separated parts passes
// through unchanged.
func ReorderCommaName(name string) string {
	if !strings.Contains(name, ",") {
		return name
	}
	parts := strings.Split(name, ",")
	if len(parts) != 2 {
		return name
	}
	last := strings.TrimSpace(parts[0])
	first := strings.TrimSpace(parts[1])
	if last == "" || first == "" {
		return name
	}
	return first + " " + last
}

// Slugify converts a display name into the url-friendly form some
// sources use for profile paths, e.g. "Ziad Aboultaif" -> "ziad-aboultaif".
func Slugify(name string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(name), " ", "-"))
}
