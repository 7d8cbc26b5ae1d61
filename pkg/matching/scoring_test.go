package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Ramsey-B/fern/pkg/models"
)

func TestScorer_Score(t *testing.T) {
	scorer := NewScorer(DefaultScoringConfig())
	listing := models.ScrapedListing{LocationDetails: models.LocationDetails{Project: "Marina Gate"}, PropertyType: "Apartment"}

	t.Run("should score an exact name and tight size", func(t *testing.T) {
		s := scorer.Score(listing, models.LegacyRecord{Project: ptr("MARINA  GATE"), Size: ptr("111.485")}, 111.48, true)
		assert.Equal(t, Score{Name: 5, Size: 4}, s)
		assert.Equal(t, 9, s.Total())
		assert.Equal(t, models.TierExact, scorer.Tier(s.Total()))
	})

	t.Run("should score ordered containment and a loose size", func(t *testing.T) {
		s := scorer.Score(listing, models.LegacyRecord{BuildingName2: ptr("Marina Gate Tower 2"), ActualSize: ptr("111.495")}, 111.48, true)
		assert.Equal(t, 7, s.Total())
	})

	t.Run("should not score words out of order", func(t *testing.T) {
		s := scorer.Score(listing, models.LegacyRecord{Project: ptr("Gate Marina")}, 111.48, true)
		assert.Equal(t, 0, s.Name)
		assert.False(t, scorer.Passes(s.Total()))
	})

	t.Run("should skip size when the listing has none", func(t *testing.T) {
		s := scorer.Score(listing, models.LegacyRecord{Project: ptr("Marina Gate"), Size: ptr("111.48")}, 0, false)
		assert.Equal(t, 0, s.Size)
	})

	t.Run("should prefer size over actual size", func(t *testing.T) {
		s := scorer.Score(listing, models.LegacyRecord{Size: ptr("111.50"), ActualSize: ptr("111.48")}, 111.48, true)
		assert.Equal(t, 3, s.Size)
	})
}

func TestScorer_PropertyType(t *testing.T) {
	scorer := NewScorer(DefaultScoringConfig())

	tests := []struct {
		listing string
		record  string
		points  int
	}{
		{listing: "Apartment", record: "Hotel Apartment", points: 2},
		{listing: "apartment", record: "Flat / Apartment", points: 2},
		{listing: "Villa", record: "villa", points: 2},
		{listing: "Town House", record: "Residential Town House Unit", points: 2},
		{listing: "Penthouse", record: "Residential Penthouse", points: 2},
		{listing: "Villa", record: "Townhouse", points: 0},
		{listing: "Office", record: "Offices", points: 0},
		{listing: "", record: "Villa", points: 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.points, scorer.propertyTypeScore(tt.listing, tt.record), "%s vs %s", tt.listing, tt.record)
	}
}

func TestScorer_Tier(t *testing.T) {
	scorer := NewScorer(DefaultScoringConfig())
	assert.Equal(t, models.TierPartial, scorer.Tier(2))
	assert.Equal(t, models.TierPartial, scorer.Tier(4))
	assert.Equal(t, models.TierExact, scorer.Tier(5))
	assert.True(t, scorer.Passes(2))
	assert.False(t, scorer.Passes(1))
}
