package imageset

import (
	"sort"
	"strings"
	"unicode"
)

// naturalToken is one run of a filename: either all digits or all non-digits.
type naturalToken struct {
	isNumber bool
	text     string
}

// splitRuns breaks s into alternating digit and non-digit runs, preserving
// every character. "img12_b.jpg" -> ["img", "12", "_b.jpg"].
func splitRuns(s string) []naturalToken {
	var tokens []naturalToken
	start := 0
	for i := 0; i <= len(s); i++ {
		if i == len(s) || i > start && isDigit(rune(s[i])) != isDigit(rune(s[start])) {
			if i > start {
				tokens = append(tokens, naturalToken{
					isNumber: isDigit(rune(s[start])),
					text:     s[start:i],
				})
			}
			start = i
		}
	}
	return tokens
}

func isDigit(r rune) bool {
	return unicode.IsDigit(r)
}

// compareNumeric compares two digit runs as integers of arbitrary length.
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

// NaturalCompare orders strings so digit runs compare numerically and other
// runs compare case-insensitively. "0_a" < "2_a" < "10_a".
func NaturalCompare(a, b string) int {
	at := splitRuns(a)
	bt := splitRuns(b)
	for i := 0; i < len(at) && i < len(bt); i++ {
		x, y := at[i], bt[i]
		switch {
		case x.isNumber && y.isNumber:
			if c := compareNumeric(x.text, y.text); c != 0 {
				return c
			}
		case !x.isNumber && !y.isNumber:
			if c := strings.Compare(strings.ToLower(x.text), strings.ToLower(y.text)); c != 0 {
				return c
			}
		case x.isNumber:
			// Digits sort before letters, matching byte order of "0" < "a".
			return -1
		default:
			return 1
		}
	}
	// Shorter run sequence sorts first when the common prefix ties.
	switch {
	case len(at) < len(bt):
		return -1
	case len(at) > len(bt):
		return 1
	}
	return 0
}

// SortNatural sorts names in place using NaturalCompare.
func SortNatural(names []string) {
	sort.SliceStable(names, func(i, j int) bool {
		return NaturalCompare(names[i], names[j]) < 0
	})
}
