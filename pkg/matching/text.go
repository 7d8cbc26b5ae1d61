package matching

import (
	"strings"
	"unicode"

	"github.com/Gobusters/ectolinq"

	"github.com/Ramsey-B/fern/pkg/normalizers"
)

// SignificantWords splits a normalized name into words longer than one character.
// When every word is a single character the full word list is returned instead.
func SignificantWords(name string) []string {
	words := strings.Fields(normalizers.TextKey(name))
	if significant := significantOnly(words); len(significant) > 0 {
		return significant
	}
	return words
}

func significantOnly(words []string) []string {
	return ectolinq.Filter(words, func(w string) bool { return len([]rune(w)) > 1 })
}

// Tokens splits s on whitespace and trims punctuation from either end of each token
func Tokens(s string) []string {
	var tokens []string
	for _, f := range strings.Fields(normalizers.TextKey(s)) {
		if t := strings.TrimFunc(f, unicode.IsPunct); t != "" {
			tokens = append(tokens, t)
		}
	}
	return tokens
}

// HasToken reports whether word appears in s as a whole token
func HasToken(s, word string) bool {
	return ectolinq.Contains(Tokens(s), normalizers.TextKey(word))
}

// WordsInOrder reports whether every word of needle longer than one character
// occurs in haystack, each after the previous one.
func WordsInOrder(needle, haystack string) bool {
	n := normalizers.TextKey(needle)
	h := normalizers.TextKey(haystack)
	if n == "" || h == "" {
		return false
	}
	pos := 0
	for _, w := range strings.Fields(n) {
		if len([]rune(w)) <= 1 {
			continue
		}
		i := strings.Index(h[pos:], w)
		if i < 0 {
			return false
		}
		pos += i + len(w)
	}
	return true
}

// NameMatches is the precise project check applied after the coarse store filter.
// A one-word name must appear as a whole token so that "gate" does not match "gateway".
func NameMatches(project string, fields []string) bool {
	key := normalizers.TextKey(project)
	words := significantOnly(strings.Fields(key))
	for _, field := range fields {
		fk := normalizers.TextKey(field)
		if fk == "" {
			continue
		}
		if fk == key {
			return true
		}
		switch {
		case len(words) == 0:
		case len(words) == 1:
			if HasToken(fk, words[0]) {
				return true
			}
		default:
			if WordsInOrder(key, fk) {
				return true
			}
		}
	}
	return false
}

// textContains compares free-text values such as property types.
// Multi-word needles use ordered containment, single words need a whole token.
func textContains(haystack, needle string) bool {
	n := normalizers.TextKey(needle)
	if n == "" || normalizers.TextKey(haystack) == "" {
		return false
	}
	if strings.Contains(n, " ") {
		return WordsInOrder(n, haystack)
	}
	return HasToken(haystack, n)
}
