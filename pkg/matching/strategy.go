package matching

import (
	"context"
	"strings"

	"github.com/Ramsey-B/fern/pkg/models"
)

// Strategy is one step of the resolution cascade
type Strategy interface {
	Name() models.Strategy
	// Applicable reports whether the listing carries the inputs the strategy needs
	Applicable(listing models.ScrapedListing) bool
	Match(ctx context.Context, listing models.ScrapedListing) (models.StrategyResult, error)
}

// Dedupe keeps the first candidate for each trimmed unit label.
// Candidates without a unit are all kept; a missing unit is not a shared identity.
func Dedupe(candidates []models.MatchCandidate) []models.MatchCandidate {
	seen := make(map[string]struct{}, len(candidates))
	out := make([]models.MatchCandidate, 0, len(candidates))
	for _, c := range candidates {
		unit := strings.TrimSpace(c.Unit)
		if unit != "" && unit != models.NotAvailable {
			if _, dup := seen[unit]; dup {
				continue
			}
			seen[unit] = struct{}{}
		}
		out = append(out, c)
	}
	return out
}

func orNA(values ...*string) string {
	if v := models.FirstNonEmpty(values...); v != "" {
		return v
	}
	return models.NotAvailable
}
