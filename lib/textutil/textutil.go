package textutil

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// NormalizeName folds a free-text label into a matching token: NFD
// decomposition, combining marks stripped, uppercased, everything
// outside [A-Z0-9] dropped. "Chiên 2", "CHIEN-2" and " chién 2 " all
// fold to "CHIEN2".
func NormalizeName(name string) string {
	decomposed := norm.NFD.String(name)

	var b strings.Builder
	b.Grow(len(decomposed))
	for _, r := range decomposed {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		// đ/Đ does not decompose into a base letter + mark
		if r == 'đ' || r == 'Đ' {
			b.WriteRune('D')
			continue
		}
		r = unicode.ToUpper(r)
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// MatchName reports whether the normalized form of name contains any of
// the given matchers. Matchers are tested in order and must already be
// normalized tokens.
func MatchName(name string, matchers []string) bool {
	name = NormalizeName(name)
	if name == "" {
		return false
	}
	for _, m := range matchers {
		if strings.Contains(name, m) {
			return true
		}
	}
	return false
}
