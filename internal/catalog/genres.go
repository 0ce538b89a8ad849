package catalog

import (
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"
)

// collectGenres trims, drops empties, deduplicates (case-sensitively) and
// sorts the given genre names in natural order.
func collectGenres(names []string) []string {
	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	slices.SortFunc(out, naturalCompare)
	return out
}

// naturalCompare compares digit runs by numeric value and everything else
// rune by rune, ignoring case. Strings equal under that rule fall back to
// byte order so the result is total.
func naturalCompare(a, b string) int {
	if c := naturalFold(a, b); c != 0 {
		return c
	}
	return strings.Compare(a, b)
}

func naturalFold(a, b string) int {
	for a != "" && b != "" {
		ra, wa := utf8.DecodeRuneInString(a)
		rb, wb := utf8.DecodeRuneInString(b)

		if isDigit(ra) && isDigit(rb) {
			na, resta := digitRun(a)
			nb, restb := digitRun(b)
			if c := compareNumeric(na, nb); c != 0 {
				return c
			}
			a, b = resta, restb
			continue
		}

		la, lb := unicode.ToLower(ra), unicode.ToLower(rb)
		if la != lb {
			if la < lb {
				return -1
			}
			return 1
		}
		a = a[wa:]
		b = b[wb:]
	}
	switch {
	case a == "" && b == "":
		return 0
	case a == "":
		return -1
	default:
		return 1
	}
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

func digitRun(s string) (string, string) {
	i := 0
	for i < len(s) && isDigit(rune(s[i])) {
		i++
	}
	return s[:i], s[i:]
}

// compareNumeric compares two digit strings by value without parsing, so
// arbitrarily long runs are fine.
func compareNumeric(a, b string) int {
	a = strings.TrimLeft(a, "0")
	b = strings.TrimLeft(b, "0")
	if len(a) != len(b) {
		if len(a) < len(b) {
			return -1
		}
		return 1
	}
	return strings.Compare(a, b)
}
