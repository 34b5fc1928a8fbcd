package extract

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"civiroster/lib/textutil"

	"github.com/PuerkitoBio/goquery"
)

// Mailto returns the address of the first mail-link inside sel,
// stripped of the mailto: scheme and any ?subject= tail.
func Mailto(sel *goquery.Selection) string {
	anchors := sel.Find("a[href^='mailto:']")
	if sel.Is("a[href^='mailto:']") {
		anchors = anchors.AddSelection(sel.Filter("a[href^='mailto:']"))
	}
	href, ok := anchors.First().Attr("href")
	if !ok {
		return ""
	}
	email := strings.TrimPrefix(href, "mailto:")
	email, _, _ = strings.Cut(email, "?")
	return strings.TrimSpace(email)
}

// ObfuscatedMarker returns the encoded payload of an obfuscated email
// marker (the data-cfemail attribute cloudflare's scrape shield
// emits), or "".
func ObfuscatedMarker(sel *goquery.Selection) string {
	marker, _ := sel.Find("[data-cfemail]").First().Attr("data-cfemail")
	return marker
}

// DecodeObfuscated reverses the XOR-style byte obfuscation used by
// email scrape shields: the payload is hex pairs, the leading byte is
// the key, every following byte is XORed with it.
func DecodeObfuscated(enc string) (string, error) {
	raw, err := hex.DecodeString(enc)
	if err != nil {
		return "", fmt.Errorf("decode obfuscated email: %w", err)
	}
	if len(raw) < 2 {
		return "", errors.New("obfuscated email payload too short")
	}

	key := raw[0]
	out := make([]byte, len(raw)-1)
	for i, b := range raw[1:] {
		out[i] = b ^ key
	}

	email := string(out)
	if !strings.Contains(email, "@") {
		return "", fmt.Errorf("obfuscated payload decoded to %q, not an email", email)
	}
	return email, nil
}

func normalizeEmailFragment(s string) string {
	s = textutil.StripAccents(s)
	s = strings.NewReplacer(" ", "", "-", "", "'", "", "’", "").Replace(s)
	return strings.ToLower(s)
}

func firstLetter(token string) string {
	stripped := normalizeEmailFragment(token)
	if stripped == "" {
		return ""
	}
	return stripped[0:1]
}

// InferLocalPart derives an email local part from a full name using
// the initials.surname convention: the last contiguous run of tokens
// forms the surname, pulling in any immediately preceding particle
// tokens of length <= 3 ("De", "Le", "Du"); the first letter of the
// first given name, plus the first letter of a second given name when
// one exists, form the initials. "Flavia Alexandra De Cotis" becomes
// "fa.decotis". Best effort only: never prefer this over an
// explicitly found address.
func InferLocalPart(fullName string) string {
	tokens := strings.Fields(fullName)
	if len(tokens) == 0 {
		return ""
	}

	surnameTokens := []string{tokens[len(tokens)-1]}
	i := len(tokens) - 2
	for i >= 0 && len(normalizeEmailFragment(tokens[i])) <= 3 {
		surnameTokens = append([]string{tokens[i]}, surnameTokens...)
		i--
	}
	givenTokens := tokens[:i+1]
	if len(givenTokens) == 0 && len(tokens) >= 2 {
		givenTokens = tokens[:1]
	}

	initials := ""
	if len(givenTokens) > 0 {
		initials += firstLetter(givenTokens[0])
		if len(givenTokens) >= 2 {
			initials += firstLetter(givenTokens[1])
		}
	}

	surname := normalizeEmailFragment(strings.Join(surnameTokens, ""))
	if initials == "" || surname == "" {
		return ""
	}
	return initials + "." + surname
}

// InferFirstDotLast derives an email local part using the
// firstname.lastname convention (first token and last token, middle
// names ignored).
func InferFirstDotLast(fullName string) string {
	tokens := strings.Fields(fullName)
	if len(tokens) < 2 {
		return ""
	}
	first := normalizeEmailFragment(tokens[0])
	last := normalizeEmailFragment(tokens[len(tokens)-1])
	if first == "" || last == "" {
		return ""
	}
	return first + "." + last
}
