package extract

import (
	"regexp"
	"strings"
)

// an ended role shows a closed date range like "(2018-2022)" or an
// explicit "until <year>" note
var endDateMarker = regexp.MustCompile(`(?i)\(\s*\d{4}\s*[–—-]\s*\d{4}\s*\)\s*$|\buntil\s+\d{4}\b`)

// CurrentSecondaryRoles filters the bullet lines following a member's
// name down to currently-held auxiliary roles: the membership
// statement ("Member for <district>") and the already-captured party
// line are excluded, as is any role carrying an end-date marker.
// Returns an empty, never nil, slice.
func CurrentSecondaryRoles(lines []string, party string) []string {
	roles := []string{}
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "Member for ") {
			continue
		}
		if party != "" && line == party {
			continue
		}
		if endDateMarker.MatchString(line) {
			continue
		}
		roles = append(roles, line)
	}
	return roles
}
