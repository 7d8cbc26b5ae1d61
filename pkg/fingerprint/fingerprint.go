// Package fingerprint derives stable cache keys for listings.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"math"
	"sort"
	"strings"

	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/normalizers"
)

// Generate returns a SHA256 of the canonical JSON form of data.
// Keys are sorted at every level, so map iteration order never changes the result.
func Generate(data map[string]any) string {
	var b strings.Builder
	canonicalize(&b, data)
	hash := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(hash[:])
}

// Listing fingerprints only the inputs that influence resolution.
// Names are kept exactly as trimmed because contextual alias rules match the raw name.
// Two listings that differ in URL, user or surrounding whitespace share a fingerprint.
func Listing(listing models.ScrapedListing) string {
	data := map[string]any{
		"project":        listing.Project(),
		"master_project": listing.MasterProject(),
		"area":           strings.TrimSpace(listing.Area),
		"permit":         normalizers.DigitsOnly(listing.PermitNumber),
		"property_type":  normalizers.TextKey(listing.PropertyType),
	}
	if sqft, ok := listing.EffectiveSizeSqft(); ok {
		data["size_sqft"] = math.Round(sqft*100) / 100
	}
	return Generate(data)
}

func canonicalize(b *strings.Builder, data any) {
	switch v := data.(type) {
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		b.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				b.WriteByte(',')
			}
			key, _ := json.Marshal(k)
			b.Write(key)
			b.WriteByte(':')
			canonicalize(b, v[k])
		}
		b.WriteByte('}')
	case []any:
		b.WriteByte('[')
		for i, item := range v {
			if i > 0 {
				b.WriteByte(',')
			}
			canonicalize(b, item)
		}
		b.WriteByte(']')
	default:
		encoded, _ := json.Marshal(v)
		b.Write(encoded)
	}
}
