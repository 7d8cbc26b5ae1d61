package matching

import (
	"context"
	"fmt"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/fern/pkg/alias"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/store"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

// MapperLocator searches the canonical registry using every known spelling of the listing's names
type MapperLocator struct {
	logger  ectologger.Logger
	index   *alias.Index
	records store.CanonicalRecords
	config  Config
}

func NewMapperLocator(logger ectologger.Logger, index *alias.Index, records store.CanonicalRecords, config Config) *MapperLocator {
	return &MapperLocator{logger: logger, index: index, records: records, config: config}
}

func (m *MapperLocator) Name() models.Strategy {
	return models.StrategyMapper
}

func (m *MapperLocator) Applicable(listing models.ScrapedListing) bool {
	return listing.Project() != ""
}

// BuildQuery resolves the listing's names and turns them into a store query.
// The returned reason is the one a non-empty result would carry.
func (m *MapperLocator) BuildQuery(listing models.ScrapedListing) (store.Query, models.ReasonCode) {
	res := m.index.ResolveListing(listing.Project(), listing.MasterProject(), listing.Area)

	conditions := []store.Condition{
		store.In([]string{store.ColProject, store.ColBuildingName}, m.index.Variants(res.Project, alias.ScopeProject), true),
	}
	if res.MasterProject != nil {
		if masters := m.index.Variants(*res.MasterProject, alias.ScopeMasterProject); len(masters) > 0 {
			conditions = append(conditions, store.In([]string{store.ColMasterProject, store.ColAreaName}, masters, true))
		}
	}

	reason := models.ReasonMapperProjectOnly
	if sqm, ok := listing.EffectiveSizeSqm(); ok {
		tolerance := sqm * m.config.MapperSizeToleranceRatio
		conditions = append(conditions, store.Between([]string{store.ColSize, store.ColActualSize}, sqm-tolerance, sqm+tolerance))
		reason = models.ReasonMapperProjectAndSize
	}

	return store.Query{Conditions: conditions, Limit: m.config.MapperResultLimit}, reason
}

func (m *MapperLocator) Match(ctx context.Context, listing models.ScrapedListing) (models.StrategyResult, error) {
	ctx, span := tracing.StartSpan(ctx, "matching.MapperLocator.Match")
	defer span.End()

	if listing.Project() == "" {
		return models.StrategyResult{Reason: models.ReasonNoProjectData}, nil
	}

	query, reason := m.BuildQuery(listing)
	log := m.logger.WithContext(ctx).WithFields(map[string]any{
		"project":    listing.Project(),
		"conditions": len(query.Conditions),
	})

	records, err := m.records.Find(ctx, query)
	if err != nil {
		return models.StrategyResult{}, fmt.Errorf("canonical record lookup: %w", err)
	}
	if len(records) == 0 {
		log.Debug("no canonical records matched")
		return models.StrategyResult{Reason: models.ReasonNoMapperMatches}, nil
	}

	log.Debugf("found %d canonical records", len(records))
	candidates := make([]models.MatchCandidate, 0, len(records))
	for _, r := range records {
		candidates = append(candidates, mapperCandidate(r))
	}
	return models.StrategyResult{Candidates: candidates, Reason: reason}, nil
}

func mapperCandidate(r models.CanonicalRecord) models.MatchCandidate {
	c := models.MatchCandidate{
		Unit:             orNA(r.UnitNumber),
		Building:         orNA(r.Project, r.BuildingName),
		Project:          orNA(r.Project),
		MasterProject:    orNA(r.MasterProject, r.AreaName),
		Size:             models.NotAvailable,
		Owner:            orNA(r.Owner),
		Mobile:           orNA(r.Phone),
		Phone:            orNA(r.Phone1, r.Phone2),
		Email:            orNA(r.Email),
		RegistrationDate: orNA(r.RegistrationDate),
		PropertyType:     orNA(r.PropertyType),
		ProcedureType:    orNA(r.ProcedureType),
		ProcedureName:    orNA(r.ProcedureName),
		Strategy:         models.StrategyMapper,
	}
	// only the registered size is displayed
	if r.Size != nil {
		c.Size = fmt.Sprintf("%.2f sqm", *r.Size)
	}
	size := r.Size
	if size == nil {
		size = r.ActualSize
	}
	if size != nil {
		v := *size
		c.SizeSqm = &v
	}
	return c
}
