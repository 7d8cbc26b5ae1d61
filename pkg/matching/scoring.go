package matching

import (
	"math"
	"strings"

	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/normalizers"
)

// sizeEpsilon absorbs float error at the window edges
const sizeEpsilon = 1e-9

// Score is the breakdown of a fuzzy candidate's score
type Score struct {
	Name         int `json:"name"`
	Size         int `json:"size"`
	PropertyType int `json:"property_type"`
}

func (s Score) Total() int {
	return s.Name + s.Size + s.PropertyType
}

// Scorer ranks legacy records against a listing
type Scorer struct {
	config ScoringConfig
}

func NewScorer(config ScoringConfig) *Scorer {
	return &Scorer{config: config}
}

// Score rates a record. sqm is the listing size, hasSize false skips the size component.
func (s *Scorer) Score(listing models.ScrapedListing, record models.LegacyRecord, sqm float64, hasSize bool) Score {
	var score Score
	score.Name = s.nameScore(listing.Project(), record.NameFields())
	if hasSize {
		if best, ok := RecordSize(record); ok {
			score.Size = s.sizeScore(math.Abs(sqm - best))
		}
	}
	score.PropertyType = s.propertyTypeScore(listing.PropertyType, models.Deref(record.PropertyType))
	return score
}

// Tier buckets a total score
func (s *Scorer) Tier(total int) models.Tier {
	if total >= s.config.ExactTierScore {
		return models.TierExact
	}
	return models.TierPartial
}

// Passes reports whether a total score clears the threshold
func (s *Scorer) Passes(total int) bool {
	return total >= s.config.Threshold
}

func (s *Scorer) nameScore(project string, fields []string) int {
	key := normalizers.TextKey(project)
	if key == "" {
		return 0
	}
	for _, f := range fields {
		if normalizers.TextKey(f) == key {
			return s.config.ExactNamePoints
		}
	}
	for _, f := range fields {
		if WordsInOrder(key, f) {
			return s.config.OrderedNamePoints
		}
	}
	return 0
}

func (s *Scorer) sizeScore(diff float64) int {
	switch {
	case diff <= s.config.TightSizeSqm+sizeEpsilon:
		return s.config.TightSizePoints
	case diff <= s.config.LooseSizeSqm+sizeEpsilon:
		return s.config.LooseSizePoints
	}
	return 0
}

func (s *Scorer) propertyTypeScore(listingType, recordType string) int {
	lt := normalizers.TextKey(listingType)
	rt := normalizers.TextKey(recordType)
	if lt == "" || rt == "" {
		return 0
	}
	if strings.Contains(lt, "apartment") && strings.Contains(rt, "apartment") {
		return s.config.PropertyTypePoints
	}
	if textContains(rt, lt) || textContains(lt, rt) {
		return s.config.PropertyTypePoints
	}
	return 0
}

// RecordSize is the record's size, falling back to its actual size
func RecordSize(record models.LegacyRecord) (float64, bool) {
	if v, ok := normalizers.ParseSize(models.Deref(record.Size)); ok {
		return v, true
	}
	return normalizers.ParseSize(models.Deref(record.ActualSize))
}
