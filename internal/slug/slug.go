// Package slug derives URL-safe identifiers from titles.
package slug

import (
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Make lowercases s, strips accents and apostrophes, and joins the remaining
// alphanumeric runs with single hyphens: "Schindler's List" -> "schindlers-list".
func Make(s string) string {
	s = strings.ToLower(removeAccents(s))
	s = strings.NewReplacer("'", "", "’", "", "&", " and ").Replace(s)

	var b strings.Builder
	pendingDash := false
	for _, r := range s {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingDash = false
			b.WriteRune(r)
			continue
		}
		pendingDash = true
	}
	return b.String()
}

// ForMovie returns the catalog slug for a title released in year.
func ForMovie(title string, year int) string {
	base := Make(title)
	if year <= 0 {
		return base
	}
	if base == "" {
		return strconv.Itoa(year)
	}
	return base + "-" + strconv.Itoa(year)
}

func removeAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, _ := transform.String(t, s)
	return result
}
