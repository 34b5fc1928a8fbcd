package roster

import (
	"fmt"
	"strings"

	"civiroster/lib/textutil"
)

// Normalize enforces the canonical-schema invariants on a raw record:
// display names are reordered to "First Last", whitespace is
// collapsed, and the secondary-role collection is present even when
// empty.
func Normalize(rec Record) Record {
	rec.Name = textutil.CollapseWhitespace(textutil.ReorderCommaName(rec.Name))
	rec.Party = textutil.CollapseWhitespace(rec.Party)
	rec.District = textutil.CollapseWhitespace(rec.District)
	if rec.SecondaryRoles.Current == nil {
		rec.SecondaryRoles.Current = []string{}
	}
	return rec
}

// FallbackDistrict substitutes the next-broader administrative unit
// (borough, ward group) when no specific electoral division was found.
func FallbackDistrict(district, broader string) string {
	if district != "" {
		return district
	}
	return broader
}

// the chief-executive vocabulary is deliberately tiny and matched
// exactly: the head-of-body designation sometimes only surfaces inside
// a list of roles, and fuzzy matching there would promote lines like
// "Parliamentary Assistant to the Premier".
var chiefExecExact = map[string]bool{
	"Mayor":    true,
	"Premier":  true,
	"Maire":    true,
	"Mairesse": true,
}

var chiefExecPrefixes = []string{
	"Mayor of ",
	"Premier of ",
	"Maire de ",
	"Mairesse de ",
}

// IsChiefExecutive reports whether a role title designates the single
// head-of-body role (mayor, premier) rather than an ordinary member
// title.
func IsChiefExecutive(role string) bool {
	role = textutil.CollapseWhitespace(role)
	if chiefExecExact[role] {
		return true
	}
	for _, prefix := range chiefExecPrefixes {
		if strings.HasPrefix(role, prefix) {
			return true
		}
	}
	return false
}

// DetectChiefExecutive scans all role-bearing lines for an exact
// chief-executive designation. Some sources only expose it inside the
// role list, never in the dedicated title field.
func DetectChiefExecutive(lines []string) bool {
	for _, line := range lines {
		if IsChiefExecutive(line) {
			return true
		}
	}
	return false
}

// AmbiguousChiefExecError reports more than one chief executive
// detected within one organization scope: an extractor bug, never
// something to silently overwrite.
type AmbiguousChiefExecError struct {
	Organization string
	Names        []string
}

func (e *AmbiguousChiefExecError) Error() string {
	return fmt.Sprintf(
		"found %d chief executives for %q (%s), expected at most one",
		len(e.Names), e.Organization, strings.Join(e.Names, ", "),
	)
}

// ValidateChiefExecutive checks the one-chief-executive-per-scope
// invariant over a run's output. Secondary roles count too: some
// bodies give their head the ordinary member title and surface the
// designation only in the role list.
func ValidateChiefExecutive(records []Record) error {
	var names []string
	org := ""
	for _, rec := range records {
		if IsChiefExecutive(rec.PrimaryRoleEN) || IsChiefExecutive(rec.PrimaryRoleFR) ||
			DetectChiefExecutive(rec.SecondaryRoles.Current) {
			names = append(names, rec.Name)
			org = rec.Organization
		}
	}
	if len(names) > 1 {
		return &AmbiguousChiefExecError{Organization: org, Names: names}
	}
	return nil
}
