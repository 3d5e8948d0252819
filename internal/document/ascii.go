package document

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// replacements covers common typographic characters that have no ASCII decomposition.
var replacements = strings.NewReplacer(
	"‘", "'", "’", "'", "“", `"`, "”", `"`,
	"–", "-", "—", "-", "−", "-",
	"•", "-", "●", "-", "➤", "-",
	"…", "...",
	"\u00a0", " ",
	"₹", "INR ", "€", "EUR ", "£", "GBP ",
)

// ASCII folds text to printable ASCII. Accents are stripped from letters, known
// typographic characters are replaced, everything else outside ASCII is dropped.
// Newlines and tabs are kept.
func ASCII(s string) string {
	s = replacements.Replace(s)

	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err == nil {
		s = folded
	}

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r == '\n' || r == '\t' || (r >= ' ' && r <= '~') {
			b.WriteRune(r)
		}
	}

	return b.String()
}
