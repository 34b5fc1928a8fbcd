package extract

import (
	"regexp"
	"strings"

	"civiroster/lib/textutil"
)

// markers that end address accumulation: everything from the first
// such line onwards belongs to phone/fax/email/hours content that
// shares the same text block.
var addressStopPrefixes = []string{
	"telephone",
	"telecopieur",
	"tel.",
	"tel:",
	"fax",
	"accessible",
	"questions about accessibility",
}

var addressStopSubstrings = []string{
	"@",
	"email:",
	"hours of operation",
}

// labels that appear inside address blocks without being address
// lines themselves; skipped rather than treated as terminators.
var addressLabelSubstrings = []string{
	"hotel de ville",
	"main office",
	"http",
}

// IsAddressStop reports whether a line terminates address
// accumulation.
func IsAddressStop(line string) bool {
	folded := strings.ToLower(textutil.StripAccents(line))
	for _, prefix := range addressStopPrefixes {
		if strings.HasPrefix(folded, prefix) {
			return true
		}
	}
	for _, sub := range addressStopSubstrings {
		if strings.Contains(folded, sub) {
			return true
		}
	}
	return false
}

func isAddressLabel(line string) bool {
	folded := strings.ToLower(textutil.StripAccents(line))
	for _, sub := range addressLabelSubstrings {
		if strings.Contains(folded, sub) {
			return true
		}
	}
	return false
}

// AssembleAddress joins the leading address lines of a contact block,
// stopping at the first non-address marker and dropping venue labels.
func AssembleAddress(lines []string) string {
	var parts []string
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if IsAddressStop(line) {
			break
		}
		if isAddressLabel(line) {
			continue
		}
		parts = append(parts, line)
	}
	return strings.Join(parts, ", ")
}

var phoneRegex = regexp.MustCompile(`(?i)t[ée]l(?:[ée]phone)?\.?\s*:?\s*([0-9][0-9\s\-().]*)`)

// LabeledPhone pulls the first labeled telephone number
// ("Telephone: 450-000-0000", "Tel.: 416-555-0100") out of a contact
// block's text.
func LabeledPhone(text string) string {
	groups := phoneRegex.FindStringSubmatch(text)
	if len(groups) < 2 {
		return ""
	}
	return strings.TrimSpace(groups[1])
}
