package core

import (
	"math"
	"strconv"
	"strings"
	"unicode"
)

// ParseNumber converts user or file input to a Quantity.
//
// Both dot (12.5) and comma (12,5) decimal separators are accepted and
// surrounding whitespace is ignored. ParseNumber never fails: blank or
// unparsable input yields an undefined Quantity.
//
// Examples:
//   ParseNumber("12.5")  -> 12.5
//   ParseNumber("12,5")  -> 12.5
//   ParseNumber("abc")   -> undefined
func ParseNumber(s string) Quantity {
	s = strings.TrimSpace(s)
	if s == "" {
		return Quantity{}
	}
	s = strings.ReplaceAll(s, ",", ".")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return Quantity{}
	}
	return NewQuantity(v)
}

// SanitizeText trims a free-text value and strips control characters.
func SanitizeText(s string) string {
	s = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) && r != '\n' {
			return -1
		}
		return r
	}, s)
	return strings.TrimSpace(s)
}
