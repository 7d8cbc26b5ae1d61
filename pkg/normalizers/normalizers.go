// Package normalizers holds the comparison keys and size parsers shared by the alias index and the matchers
package normalizers

import (
	"strings"
	"unicode"
)

// CollapseWhitespace replaces every run of whitespace with a single space
func CollapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// DigitsOnly keeps only ASCII digit characters.
// Permit fragments are compared digit by digit, so other numeral scripts are dropped.
func DigitsOnly(s string) string {
	var result strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			result.WriteRune(r)
		}
	}
	return result.String()
}

// AliasKey is the comparison key used by the alias index.
// It lowercases the trimmed name and keeps only ASCII word characters and whitespace.
// Inner whitespace is preserved as-is, so "Marina  Wharf" and "Marina Wharf" are distinct keys.
func AliasKey(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	var result strings.Builder
	for _, r := range s {
		if isASCIIWord(r) || unicode.IsSpace(r) {
			result.WriteRune(r)
		}
	}
	return result.String()
}

// TextKey is the comparison key used by fuzzy project matching, lowercased with whitespace collapsed.
func TextKey(s string) string {
	return CollapseWhitespace(strings.ToLower(s))
}

func isASCIIWord(r rune) bool {
	return r == '_' || (r >= '0' && r <= '9') || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}
