package matching

import (
	"context"
	"fmt"
	"time"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/fern/pkg/alias"
	fernctx "github.com/Ramsey-B/fern/pkg/context"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/store"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

// Observer receives timings for every strategy run and every resolution
type Observer interface {
	ObserveStrategy(strategy models.Strategy, reason models.ReasonCode, candidates int, duration time.Duration)
	ObserveResolution(strategy models.Strategy, reason models.ReasonCode, duration time.Duration)
}

type Option func(*Orchestrator)

func WithObserver(observer Observer) Option {
	return func(o *Orchestrator) {
		o.observer = observer
	}
}

// WithStrategies replaces the default cascade
func WithStrategies(strategies ...Strategy) Option {
	return func(o *Orchestrator) {
		o.strategies = strategies
	}
}

// Orchestrator runs the strategies in order and returns the first non-empty result.
// A failing strategy is logged and treated as empty so the cascade carries on.
type Orchestrator struct {
	logger     ectologger.Logger
	strategies []Strategy
	observer   Observer
}

// NewOrchestrator builds the permit, mapper, fuzzy cascade. Strategies whose collection is nil are left out.
func NewOrchestrator(logger ectologger.Logger, index *alias.Index, st store.Store, config Config, opts ...Option) *Orchestrator {
	o := &Orchestrator{logger: logger}
	if st.Permits != nil {
		o.strategies = append(o.strategies, NewPermitMatcher(logger, st.Permits, config))
	}
	if st.Canonical != nil && index != nil {
		o.strategies = append(o.strategies, NewMapperLocator(logger, index, st.Canonical, config))
	}
	if st.Legacy != nil {
		o.strategies = append(o.strategies, NewFuzzyMatcher(logger, st.Legacy, config))
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Strategies returns the cascade in run order
func (o *Orchestrator) Strategies() []models.Strategy {
	names := make([]models.Strategy, 0, len(o.strategies))
	for _, s := range o.strategies {
		names = append(names, s.Name())
	}
	return names
}

// Resolve never fails. When nothing matches the result has strategy none and the
// reason of the last strategy that ran, or no_strategy_applicable.
func (o *Orchestrator) Resolve(ctx context.Context, listing models.ScrapedListing) models.MatchResult {
	ctx, span := tracing.StartSpan(ctx, "matching.Orchestrator.Resolve")
	defer span.End()

	start := time.Now()
	result := models.MatchResult{Strategy: models.StrategyNone, Candidates: []models.MatchCandidate{}}
	var lastReason models.ReasonCode

	for _, s := range o.strategies {
		if !s.Applicable(listing) {
			result.Attempts = append(result.Attempts, models.StrategyAttempt{Strategy: s.Name(), Skipped: true})
			continue
		}

		res, attempt := o.run(ctx, s, listing)
		result.Attempts = append(result.Attempts, attempt)
		lastReason = res.Reason
		if !res.Empty() {
			result.Strategy = s.Name()
			result.Candidates = res.Candidates
			result.Reason = res.Reason
			o.observeResolution(result, start)
			return result
		}
	}

	result.Reason = lastReason
	if result.Reason == "" {
		result.Reason = models.ReasonNoStrategyApplicable
	}
	o.observeResolution(result, start)
	return result
}

// RunStrategy runs a single named strategy, bypassing the cascade and its applicability check
func (o *Orchestrator) RunStrategy(ctx context.Context, name models.Strategy, listing models.ScrapedListing) (models.MatchResult, error) {
	for _, s := range o.strategies {
		if s.Name() != name {
			continue
		}
		res, attempt := o.run(ctx, s, listing)
		result := models.MatchResult{
			Strategy:   name,
			Candidates: res.Candidates,
			Reason:     res.Reason,
			Attempts:   []models.StrategyAttempt{attempt},
		}
		if res.Empty() {
			result.Strategy = models.StrategyNone
		}
		return result, nil
	}
	return models.MatchResult{}, fmt.Errorf("strategy %s is not configured", name)
}

// run executes one strategy, converting errors and panics into an empty strategy_error result
func (o *Orchestrator) run(ctx context.Context, s Strategy, listing models.ScrapedListing) (models.StrategyResult, models.StrategyAttempt) {
	start := time.Now()
	res, err := o.safeMatch(ctx, s, listing)
	if err != nil {
		o.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"request_id": fernctx.GetRequestID(ctx),
			"strategy":   s.Name(),
			"reason":     models.ReasonStrategyError,
		}).Error("strategy failed, continuing cascade")
		res = models.StrategyResult{Reason: models.ReasonStrategyError}
	}
	res.Candidates = Dedupe(res.Candidates)

	duration := time.Since(start)
	if o.observer != nil {
		o.observer.ObserveStrategy(s.Name(), res.Reason, len(res.Candidates), duration)
	}
	return res, models.StrategyAttempt{
		Strategy:   s.Name(),
		Reason:     res.Reason,
		Candidates: len(res.Candidates),
		Failed:     err != nil,
		DurationMs: duration.Milliseconds(),
	}
}

func (o *Orchestrator) safeMatch(ctx context.Context, s Strategy, listing models.ScrapedListing) (res models.StrategyResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("strategy %s panicked: %v", s.Name(), r)
		}
	}()
	return s.Match(ctx, listing)
}

func (o *Orchestrator) observeResolution(result models.MatchResult, start time.Time) {
	if o.observer != nil {
		o.observer.ObserveResolution(result.Strategy, result.Reason, time.Since(start))
	}
}
