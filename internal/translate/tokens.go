package translate

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// criticalTokens are short diagram identifiers (ports, valves, points)
// that must survive translation byte-for-byte and must stay inline at
// their original position.
var criticalTokens = map[string]struct{}{
	"a": {}, "b": {}, "p": {}, "v": {},
	"p1": {}, "p2": {}, "v1": {}, "v2": {},
	"pa": {}, "pb": {}, "pc": {},
	"va": {}, "vb": {}, "vc": {},
}

var (
	pureNumberRe = regexp.MustCompile(`^[\d.,\-~]+$`)
	unitTokenRe  = regexp.MustCompile(`^[a-zA-Z0-9/%]+$`)
)

// NormalizeToken canonicalizes a token for comparison: NFKC fold for
// full-width characters, then strip non-alphanumerics and lowercase.
func NormalizeToken(s string) string {
	s = norm.NFKC.String(s)
	var b strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToLower(r))
		}
	}
	return b.String()
}

// IsCriticalToken reports whether the text is a critical diagram token
// after normalization.
func IsCriticalToken(s string) bool {
	cleaned := NormalizeToken(s)
	if cleaned == "" {
		return false
	}
	_, ok := criticalTokens[cleaned]
	return ok
}

// PassThrough reports whether a label should skip translation entirely:
// pure numbers (including decimal separators and range dashes) and bare
// alphanumeric unit tokens like "kPa", "mm" or "%".
func PassThrough(s string) bool {
	t := strings.TrimSpace(norm.NFKC.String(s))
	if t == "" {
		return false
	}
	return pureNumberRe.MatchString(t) || unitTokenRe.MatchString(t)
}
