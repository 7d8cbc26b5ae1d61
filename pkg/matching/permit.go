package matching

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/Gobusters/ectolinq"
	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/normalizers"
	"github.com/Ramsey-B/fern/pkg/store"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

const unknownBuilding = "Unknown Building"

// PermitMatcher finds units by the permit fragment printed on a listing
type PermitMatcher struct {
	logger  ectologger.Logger
	records store.PermitRecords
	config  Config
}

func NewPermitMatcher(logger ectologger.Logger, records store.PermitRecords, config Config) *PermitMatcher {
	return &PermitMatcher{logger: logger, records: records, config: config}
}

func (m *PermitMatcher) Name() models.Strategy {
	return models.StrategyPermit
}

func (m *PermitMatcher) Applicable(listing models.ScrapedListing) bool {
	return listing.HasPermit()
}

// PermitKey strips the raw permit to digits and drops the issuing prefix.
// The reason is set when no usable key can be formed.
func PermitKey(raw string, config Config) (string, models.ReasonCode) {
	if strings.TrimSpace(raw) == "" {
		return "", models.ReasonNoPermitNumber
	}
	digits := normalizers.DigitsOnly(raw)
	if len(digits) < config.PermitMinDigits {
		return "", models.ReasonPermitTooShort
	}
	return digits[config.PermitPrefixLength:], ""
}

// PartialPermitKeys returns the key with digits trimmed from its end and from its start
func PartialPermitKeys(key string, config Config) []string {
	if len(key) < config.PermitPartialMinLength || len(key) <= config.PermitPartialTrim {
		return nil
	}
	return ectolinq.Distinct([]string{
		key[:len(key)-config.PermitPartialTrim],
		key[config.PermitPartialTrim:],
	})
}

func (m *PermitMatcher) Match(ctx context.Context, listing models.ScrapedListing) (models.StrategyResult, error) {
	ctx, span := tracing.StartSpan(ctx, "matching.PermitMatcher.Match")
	defer span.End()

	key, reason := PermitKey(listing.PermitNumber, m.config)
	if reason != "" {
		return models.StrategyResult{Reason: reason}, nil
	}

	log := m.logger.WithContext(ctx).WithField("permit_key_length", len(key))

	exact, err := m.records.Find(ctx, store.Query{Conditions: []store.Condition{store.Equal(store.ColPermitNumber, key)}})
	if err != nil {
		return models.StrategyResult{}, fmt.Errorf("exact permit lookup: %w", err)
	}
	if len(exact) > 0 {
		log.Debugf("found %d exact permit records", len(exact))
		return models.StrategyResult{Candidates: permitCandidates(exact), Reason: models.ReasonExactTruncatedPermit}, nil
	}

	partialKeys := PartialPermitKeys(key, m.config)
	if len(partialKeys) == 0 {
		return models.StrategyResult{Reason: models.ReasonNoPermitMatches}, nil
	}

	partial, err := m.records.Find(ctx, store.Query{Conditions: []store.Condition{store.In([]string{store.ColPermitNumber}, partialKeys, false)}})
	if err != nil {
		return models.StrategyResult{}, fmt.Errorf("partial permit lookup: %w", err)
	}
	if len(partial) == 0 {
		return models.StrategyResult{Reason: models.ReasonNoPermitMatches}, nil
	}

	sqm, hasSize := listing.EffectiveSizeSqm()
	if !hasSize {
		log.Debugf("found %d partial permit records without size", len(partial))
		return models.StrategyResult{Candidates: permitCandidates(partial), Reason: models.ReasonPartialPermitOnly}, nil
	}

	sized := ectolinq.Filter(partial, func(r models.PermitRecord) bool {
		size, ok := normalizers.LeadingFloat(models.Deref(r.Size))
		return ok && math.Abs(size-sqm) <= m.config.PermitSizeToleranceSqm
	})
	if len(sized) == 0 {
		log.Debugf("dropped %d partial permit records outside size window", len(partial))
		return models.StrategyResult{Reason: models.ReasonNoPermitMatches}, nil
	}
	return models.StrategyResult{Candidates: permitCandidates(sized), Reason: models.ReasonPartialPermitWithSize}, nil
}

// permitCandidates drops records without a unit label
func permitCandidates(records []models.PermitRecord) []models.MatchCandidate {
	candidates := make([]models.MatchCandidate, 0, len(records))
	for _, r := range records {
		unit := strings.TrimSpace(models.Deref(r.Unit))
		if unit == "" {
			continue
		}
		building := models.FirstNonEmpty(r.Building)
		if building == "" {
			building = unknownBuilding
		}
		c := models.MatchCandidate{
			Unit:     unit,
			Building: building,
			Size:     models.Deref(r.Size),
			Owner:    models.Deref(r.OwnerName),
			Mobile:   models.Deref(r.Mobile),
			Phone:    models.Deref(r.Landline),
			Email:    models.Deref(r.OwnerEmail),
			Strategy: models.StrategyPermit,
		}
		if size, ok := normalizers.LeadingFloat(c.Size); ok {
			c.SizeSqm = &size
		}
		candidates = append(candidates, c)
	}
	return candidates
}
