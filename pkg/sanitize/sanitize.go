// Package sanitize strips internal fields before a resolution leaves the service.
package sanitize

import (
	"github.com/Gobusters/ectolinq"

	"github.com/Ramsey-B/fern/pkg/models"
)

type Options struct {
	// IncludeAttempts keeps the per-strategy trace in the response
	IncludeAttempts bool
}

// Listing removes the permit fragment and the numeric size
func Listing(listing models.ScrapedListing) models.ScrapedListing {
	listing.PermitNumber = ""
	listing.SizeNumeric = nil
	return listing
}

// Candidates removes the internal square metre size from every candidate.
// The input slice is not modified.
func Candidates(candidates []models.MatchCandidate) []models.MatchCandidate {
	out := ectolinq.Map(candidates, func(c models.MatchCandidate) models.MatchCandidate {
		c.SizeSqm = nil
		return c
	})
	if out == nil {
		return []models.MatchCandidate{}
	}
	return out
}

// Response builds the boundary payload for a resolved listing
func Response(listing models.ScrapedListing, result models.MatchResult, opts Options) models.ResolveResponse {
	result.Candidates = Candidates(result.Candidates)
	if !opts.IncludeAttempts {
		result.Attempts = nil
	}
	return models.ResolveResponse{
		Listing: Listing(listing),
		Result:  result,
	}
}
