// Package normalize provides the street-name normalization used to group and
// key address rows: visually distinct encodings of the same name (accents,
// case) must collapse to one canonical form.
package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// deburr decomposes to NFD, drops combining marks, recomposes to NFC.
var deburr = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// StripDiacritics removes accents and other combining marks from s.
// On a malformed input the original string is returned unchanged.
func StripDiacritics(s string) string {
	out, _, err := transform.String(deburr, s)
	if err != nil {
		return s
	}
	return out
}

// NomKey returns the grouping key for a street or place name: lowercased and
// diacritic-stripped, so "Allée des Acacias" and "allee des acacias" collide.
func NomKey(nom string) string {
	return StripDiacritics(strings.ToLower(strings.TrimSpace(nom)))
}

// Slug reduces a name to the compact lowercase alphanumeric form usable as
// the voie segment of a cle_interop (no separator characters allowed there).
func Slug(nom string) string {
	key := NomKey(nom)
	var b strings.Builder
	b.Grow(len(key))
	for _, r := range key {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}
