package normalizers

import (
	"regexp"
	"strconv"
	"strings"
)

// SqmPerSqft converts square feet to square metres.
const SqmPerSqft = 0.092903

var (
	leadingFloatRe = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?`)
	firstNumberRe  = regexp.MustCompile(`\d+\.?\d*`)
	nonSizeCharRe  = regexp.MustCompile(`[^\d.]`)
)

// SqftToSqm converts an area in square feet to square metres
func SqftToSqm(sqft float64) float64 {
	return sqft * SqmPerSqft
}

// LeadingFloat parses the numeric prefix of s, ignoring anything after it.
// "112.5 sqm" yields 112.5. Returns false when s does not start with a number.
func LeadingFloat(s string) (float64, bool) {
	match := leadingFloatRe.FindString(strings.TrimSpace(s))
	if match == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// ParseSize reads a stored free-text size by dropping every character other than digits and dots.
// Zero and unparseable values report false, so they never take part in size comparisons.
func ParseSize(s string) (float64, bool) {
	v, ok := LeadingFloat(nonSizeCharRe.ReplaceAllString(s, ""))
	if !ok || v == 0 {
		return 0, false
	}
	return v, true
}

// ExtractSizeNumeric pulls the first decimal number out of a display size such as "1,200 sqft".
func ExtractSizeNumeric(s string) (float64, bool) {
	match := firstNumberRe.FindString(strings.ReplaceAll(s, ",", ""))
	if match == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
