package matching

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/normalizers"
	"github.com/Ramsey-B/fern/pkg/store"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

var legacyNameColumns = []string{
	store.ColProject,
	store.ColBuildingName,
	store.ColBuildingName2,
	store.ColProjectLnd,
	store.ColBuildingNameEn,
}

// FuzzyMatcher scores legacy records by name similarity, size and property type
type FuzzyMatcher struct {
	logger  ectologger.Logger
	records store.LegacyRecords
	scorer  *Scorer
	config  Config
}

func NewFuzzyMatcher(logger ectologger.Logger, records store.LegacyRecords, config Config) *FuzzyMatcher {
	return &FuzzyMatcher{logger: logger, records: records, scorer: NewScorer(config.Scoring), config: config}
}

func (m *FuzzyMatcher) Name() models.Strategy {
	return models.StrategyFuzzy
}

func (m *FuzzyMatcher) Applicable(listing models.ScrapedListing) bool {
	return listing.Project() != ""
}

type scoredRecord struct {
	record models.LegacyRecord
	score  Score
	size   *float64
}

func (m *FuzzyMatcher) Match(ctx context.Context, listing models.ScrapedListing) (models.StrategyResult, error) {
	ctx, span := tracing.StartSpan(ctx, "matching.FuzzyMatcher.Match")
	defer span.End()

	project := listing.Project()
	if project == "" {
		return models.StrategyResult{Reason: models.ReasonNoProjectData}, nil
	}
	sqm, ok := listing.EffectiveSizeSqm()
	if !ok {
		return models.StrategyResult{Reason: models.ReasonNoSizeData}, nil
	}

	log := m.logger.WithContext(ctx).WithFields(map[string]any{
		"project":  project,
		"size_sqm": sqm,
	})

	records, err := m.findCandidates(ctx, project)
	if err != nil {
		return models.StrategyResult{}, err
	}

	var scored []scoredRecord
	for _, r := range records {
		if !NameMatches(project, r.NameFields()) || !m.withinWindow(r, sqm) {
			continue
		}
		score := m.scorer.Score(listing, r, sqm, true)
		if !m.scorer.Passes(score.Total()) {
			continue
		}
		sr := scoredRecord{record: r, score: score}
		if best, ok := RecordSize(r); ok {
			sr.size = &best
		}
		scored = append(scored, sr)
	}

	log.Debugf("%d of %d legacy records passed name, size and score checks", len(scored), len(records))
	if len(scored) == 0 {
		return models.StrategyResult{Reason: models.ReasonNoProjectMatchesAboveThreshold}, nil
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].score.Total() > scored[j].score.Total()
	})

	candidates := make([]models.MatchCandidate, 0, len(scored))
	for _, s := range scored {
		candidates = append(candidates, m.candidate(s))
	}
	return models.StrategyResult{Candidates: candidates, Reason: models.ReasonFuzzyProjectAndSize}, nil
}

// findCandidates reads every legacy row passing the coarse name filter.
// With a page size set the rows are read page by page, never truncated.
func (m *FuzzyMatcher) findCandidates(ctx context.Context, project string) ([]models.LegacyRecord, error) {
	q := store.Query{
		Conditions: []store.Condition{store.ContainsAll(legacyNameColumns, SignificantWords(project))},
		Limit:      m.config.FuzzyPageSize,
	}
	var records []models.LegacyRecord
	for {
		page, err := m.records.Find(ctx, q)
		if err != nil {
			return nil, fmt.Errorf("legacy record lookup: %w", err)
		}
		records = append(records, page...)
		if q.Limit == 0 || len(page) < q.Limit {
			return records, nil
		}
		q.Offset += len(page)
	}
}

// withinWindow keeps records whose size or actual size lies within the absolute window
func (m *FuzzyMatcher) withinWindow(r models.LegacyRecord, sqm float64) bool {
	for _, raw := range []*string{r.Size, r.ActualSize} {
		if v, ok := normalizers.ParseSize(models.Deref(raw)); ok && math.Abs(v-sqm) <= m.config.FuzzySizeWindowSqm+sizeEpsilon {
			return true
		}
	}
	return false
}

func (m *FuzzyMatcher) candidate(s scoredRecord) models.MatchCandidate {
	r := s.record
	total := s.score.Total()
	return models.MatchCandidate{
		Unit:          models.Deref(r.UnitNumber),
		Building:      models.FirstNonEmpty(r.BuildingName, r.BuildingNameEn),
		Project:       models.Deref(r.Project),
		MasterProject: models.FirstNonEmpty(r.MasterProject, r.MasterLocation),
		Size:          models.FirstNonEmpty(r.Size, r.ActualSize),
		Owner:         models.Deref(r.OwnerName),
		Mobile:        models.FirstNonEmpty(r.Mobile, r.Phone),
		Email:         models.Deref(r.Email),
		PropertyType:  models.Deref(r.PropertyType),
		Score:         &total,
		Tier:          m.scorer.Tier(total),
		Strategy:      models.StrategyFuzzy,
		SizeSqm:       s.size,
	}
}
