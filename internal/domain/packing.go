package domain

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// DefaultPackingCategory is used when a packing item is saved without one.
const DefaultPackingCategory = "other"

// PackingItem is one thing to bring on a trip.
// Category is free text, stored lower-cased.
type PackingItem struct {
	ID       string
	Name     string
	Category string
	Packed   bool
}

// NormalizePackingCategory lower-cases and trims s, falling back to
// DefaultPackingCategory when nothing is left.
func NormalizePackingCategory(s string) string {
	s = strings.ToLower(strings.Join(strings.Fields(s), " "))
	if s == "" {
		return DefaultPackingCategory
	}
	return s
}

// CategoryLabel capitalises the first letter of a normalized category key,
// e.g. "toiletries" -> "Toiletries".
func CategoryLabel(key string) string {
	r, size := utf8.DecodeRuneInString(key)
	if r == utf8.RuneError {
		return key
	}
	return string(unicode.ToUpper(r)) + key[size:]
}
