package matching

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/fern/pkg/alias"
	fernctx "github.com/Ramsey-B/fern/pkg/context"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/store/memstore"
)

type stubStrategy struct {
	name       models.Strategy
	applicable bool
	result     models.StrategyResult
	err        error
	panics     bool
	calls      int
}

func (s *stubStrategy) Name() models.Strategy { return s.name }

func (s *stubStrategy) Applicable(models.ScrapedListing) bool { return s.applicable }

func (s *stubStrategy) Match(context.Context, models.ScrapedListing) (models.StrategyResult, error) {
	s.calls++
	if s.panics {
		panic("nil map write")
	}
	return s.result, s.err
}

type recordingObserver struct {
	mu          sync.Mutex
	strategies  []models.Strategy
	resolutions []models.Strategy
}

func (o *recordingObserver) ObserveStrategy(strategy models.Strategy, _ models.ReasonCode, _ int, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.strategies = append(o.strategies, strategy)
}

func (o *recordingObserver) ObserveResolution(strategy models.Strategy, _ models.ReasonCode, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.resolutions = append(o.resolutions, strategy)
}

func candidates(units ...string) []models.MatchCandidate {
	out := make([]models.MatchCandidate, 0, len(units))
	for _, u := range units {
		out = append(out, models.MatchCandidate{Unit: u})
	}
	return out
}

func TestOrchestrator_Resolve(t *testing.T) {
	ctx := context.Background()

	t.Run("should return the first non-empty result and stop", func(t *testing.T) {
		permit := &stubStrategy{name: models.StrategyPermit, applicable: true, result: models.StrategyResult{Reason: models.ReasonNoPermitMatches}}
		mapper := &stubStrategy{name: models.StrategyMapper, applicable: true, result: models.StrategyResult{Candidates: candidates("101"), Reason: models.ReasonMapperProjectOnly}}
		fuzzy := &stubStrategy{name: models.StrategyFuzzy, applicable: true, result: models.StrategyResult{Candidates: candidates("999"), Reason: models.ReasonFuzzyProjectAndSize}}
		o := NewOrchestrator(testLogger(), nil, memstore.New().Collections(), DefaultConfig(), WithStrategies(permit, mapper, fuzzy))

		res := o.Resolve(ctx, models.ScrapedListing{})
		assert.Equal(t, models.StrategyMapper, res.Strategy)
		assert.Equal(t, models.ReasonMapperProjectOnly, res.Reason)
		assert.Equal(t, candidates("101"), res.Candidates)
		assert.Equal(t, 0, fuzzy.calls)
		require.Len(t, res.Attempts, 2)
		assert.Equal(t, models.ReasonNoPermitMatches, res.Attempts[0].Reason)
	})

	t.Run("should carry the last reason when nothing matches", func(t *testing.T) {
		permit := &stubStrategy{name: models.StrategyPermit, applicable: true, result: models.StrategyResult{Reason: models.ReasonNoPermitMatches}}
		mapper := &stubStrategy{name: models.StrategyMapper, applicable: true, result: models.StrategyResult{Reason: models.ReasonNoMapperMatches}}
		fuzzy := &stubStrategy{name: models.StrategyFuzzy, applicable: false}
		o := NewOrchestrator(testLogger(), nil, memstore.New().Collections(), DefaultConfig(), WithStrategies(permit, mapper, fuzzy))

		res := o.Resolve(ctx, models.ScrapedListing{})
		assert.Equal(t, models.StrategyNone, res.Strategy)
		assert.Equal(t, models.ReasonNoMapperMatches, res.Reason)
		assert.NotNil(t, res.Candidates)
		assert.Empty(t, res.Candidates)
		require.Len(t, res.Attempts, 3)
		assert.True(t, res.Attempts[2].Skipped)
	})

	t.Run("should report no applicable strategy", func(t *testing.T) {
		o := NewOrchestrator(testLogger(), nil, memstore.New().Collections(), DefaultConfig(),
			WithStrategies(&stubStrategy{name: models.StrategyPermit}, &stubStrategy{name: models.StrategyFuzzy}))

		res := o.Resolve(ctx, models.ScrapedListing{})
		assert.Equal(t, models.StrategyNone, res.Strategy)
		assert.Equal(t, models.ReasonNoStrategyApplicable, res.Reason)
	})

	t.Run("should log failures and continue the cascade", func(t *testing.T) {
		sink := &logSink{}
		failing := &stubStrategy{name: models.StrategyPermit, applicable: true, err: errors.New("connection refused")}
		panicking := &stubStrategy{name: models.StrategyMapper, applicable: true, panics: true}
		fuzzy := &stubStrategy{name: models.StrategyFuzzy, applicable: true, result: models.StrategyResult{Candidates: candidates("A1"), Reason: models.ReasonFuzzyProjectAndSize}}
		o := NewOrchestrator(sink.logger(), nil, memstore.New().Collections(), DefaultConfig(), WithStrategies(failing, panicking, fuzzy))

		res := o.Resolve(fernctx.SetRequestID(ctx, "req-42"), models.ScrapedListing{})
		assert.Equal(t, models.StrategyFuzzy, res.Strategy)
		require.Len(t, res.Attempts, 3)
		assert.True(t, res.Attempts[0].Failed)
		assert.Equal(t, models.ReasonStrategyError, res.Attempts[0].Reason)
		assert.True(t, res.Attempts[1].Failed)

		errs := sink.byLevel("error")
		require.Len(t, errs, 2)
		assert.Equal(t, "req-42", errs[0].Fields["request_id"])
		assert.Equal(t, models.StrategyPermit, errs[0].Fields["strategy"])
		assert.EqualError(t, errs[0].Err, "connection refused")
		assert.ErrorContains(t, errs[1].Err, "panicked")
	})

	t.Run("should end with strategy_error when the last strategy fails", func(t *testing.T) {
		failing := &stubStrategy{name: models.StrategyFuzzy, applicable: true, err: errors.New("boom")}
		o := NewOrchestrator(testLogger(), nil, memstore.New().Collections(), DefaultConfig(), WithStrategies(failing))

		res := o.Resolve(ctx, models.ScrapedListing{})
		assert.Equal(t, models.StrategyNone, res.Strategy)
		assert.Equal(t, models.ReasonStrategyError, res.Reason)
	})

	t.Run("should dedupe candidates on the trimmed unit keeping the first", func(t *testing.T) {
		permit := &stubStrategy{name: models.StrategyPermit, applicable: true, result: models.StrategyResult{
			Candidates: []models.MatchCandidate{{Unit: "101", Owner: "first"}, {Unit: " 101 ", Owner: "second"}, {Unit: "102"}},
			Reason:     models.ReasonPartialPermitOnly,
		}}
		o := NewOrchestrator(testLogger(), nil, memstore.New().Collections(), DefaultConfig(), WithStrategies(permit))

		res := o.Resolve(ctx, models.ScrapedListing{})
		require.Len(t, res.Candidates, 2)
		assert.Equal(t, "first", res.Candidates[0].Owner)
		assert.Equal(t, "102", res.Candidates[1].Unit)
	})

	t.Run("should not collapse candidates without a unit", func(t *testing.T) {
		mapper := &stubStrategy{name: models.StrategyMapper, applicable: true, result: models.StrategyResult{
			Candidates: []models.MatchCandidate{{Unit: models.NotAvailable, Owner: "a"}, {Unit: models.NotAvailable, Owner: "b"}, {Owner: "c"}, {Unit: " ", Owner: "d"}},
			Reason:     models.ReasonMapperProjectOnly,
		}}
		o := NewOrchestrator(testLogger(), nil, memstore.New().Collections(), DefaultConfig(), WithStrategies(mapper))

		res := o.Resolve(ctx, models.ScrapedListing{})
		require.Len(t, res.Candidates, 4)
	})

	t.Run("should notify the observer", func(t *testing.T) {
		observer := &recordingObserver{}
		permit := &stubStrategy{name: models.StrategyPermit, applicable: true, result: models.StrategyResult{Reason: models.ReasonNoPermitMatches}}
		mapper := &stubStrategy{name: models.StrategyMapper, applicable: true, result: models.StrategyResult{Candidates: candidates("1"), Reason: models.ReasonMapperProjectOnly}}
		o := NewOrchestrator(testLogger(), nil, memstore.New().Collections(), DefaultConfig(), WithStrategies(permit, mapper), WithObserver(observer))

		o.Resolve(ctx, models.ScrapedListing{})
		assert.Equal(t, []models.Strategy{models.StrategyPermit, models.StrategyMapper}, observer.strategies)
		assert.Equal(t, []models.Strategy{models.StrategyMapper}, observer.resolutions)
	})
}

func TestOrchestrator_Cascade(t *testing.T) {
	ctx := context.Background()
	st := memstore.New()
	st.Permits.Add(models.PermitRecord{ID: "p1", PNumber: "55555", Unit: ptr("P-1")})
	st.Canonical.Add(models.CanonicalRecord{ID: "c1", UnitNumber: ptr("101"), Project: ptr("Harbour Point"), Size: ptr(100.0)})
	st.Legacy.Add(models.LegacyRecord{ID: "l1", UnitNumber: ptr("L-7"), Project: ptr("Quiet Lane"), Size: ptr("64")})

	o := NewOrchestrator(testLogger(), testIndex(t), st.Collections(), DefaultConfig())
	assert.Equal(t, []models.Strategy{models.StrategyPermit, models.StrategyMapper, models.StrategyFuzzy}, o.Strategies())

	t.Run("should win on permit", func(t *testing.T) {
		res := o.Resolve(ctx, models.ScrapedListing{PermitNumber: "7155555", LocationDetails: models.LocationDetails{Project: "Harbour Point"}})
		assert.Equal(t, models.StrategyPermit, res.Strategy)
		assert.Equal(t, models.ReasonExactTruncatedPermit, res.Reason)
	})

	t.Run("should fall through to the mapper", func(t *testing.T) {
		res := o.Resolve(ctx, models.ScrapedListing{PermitNumber: "7100000", LocationDetails: models.LocationDetails{Project: "HP Tower"}, SizeNumeric: sqft(100)})
		assert.Equal(t, models.StrategyMapper, res.Strategy)
		require.Len(t, res.Candidates, 1)
		assert.Equal(t, "101", res.Candidates[0].Unit)
		assert.Equal(t, models.ReasonNoPermitMatches, res.Attempts[0].Reason)
	})

	t.Run("should fall through to fuzzy", func(t *testing.T) {
		res := o.Resolve(ctx, models.ScrapedListing{LocationDetails: models.LocationDetails{Project: "Quiet Lane"}, SizeNumeric: sqft(64)})
		assert.Equal(t, models.StrategyFuzzy, res.Strategy)
		assert.Equal(t, "L-7", res.Candidates[0].Unit)
		assert.True(t, res.Attempts[0].Skipped)
		assert.Equal(t, models.ReasonNoMapperMatches, res.Attempts[1].Reason)
	})

	t.Run("should resolve the same listing the same way twice", func(t *testing.T) {
		listing := models.ScrapedListing{PermitNumber: "7100000", LocationDetails: models.LocationDetails{Project: "HP Tower"}, SizeNumeric: sqft(100)}

		first := o.Resolve(ctx, listing)
		second := o.Resolve(ctx, listing)
		assert.Equal(t, first.Strategy, second.Strategy)
		assert.Equal(t, first.Reason, second.Reason)
		assert.Equal(t, first.Candidates, second.Candidates)
		require.Len(t, second.Attempts, len(first.Attempts))
		for i := range first.Attempts {
			assert.Equal(t, first.Attempts[i].Reason, second.Attempts[i].Reason)
			assert.Equal(t, first.Attempts[i].Candidates, second.Attempts[i].Candidates)
		}
	})

	t.Run("should keep fuzzy candidates that have no unit", func(t *testing.T) {
		unitless := memstore.New()
		unitless.Legacy.Add(
			models.LegacyRecord{ID: "u1", Project: ptr("Quiet Lane"), Size: ptr("64"), OwnerName: ptr("Alice")},
			models.LegacyRecord{ID: "u2", Project: ptr("Quiet Lane"), Size: ptr("64"), OwnerName: ptr("Bob")},
		)
		res := NewOrchestrator(testLogger(), testIndex(t), unitless.Collections(), DefaultConfig()).
			Resolve(ctx, models.ScrapedListing{LocationDetails: models.LocationDetails{Project: "Quiet Lane"}, SizeNumeric: sqft(64)})
		assert.Equal(t, models.StrategyFuzzy, res.Strategy)
		require.Len(t, res.Candidates, 2)
		assert.Equal(t, "Alice", res.Candidates[0].Owner)
		assert.Equal(t, "Bob", res.Candidates[1].Owner)
	})

	t.Run("should find a default dataset project within two percent", func(t *testing.T) {
		index, err := alias.NewDefaultIndex()
		require.NoError(t, err)
		hillside := memstore.New()
		hillside.Canonical.Add(
			models.CanonicalRecord{ID: "h1", UnitNumber: ptr("101"), BuildingName: ptr("HILLSIDE AT JUMEIRAH GOLF ESTATES"), Size: ptr(111.5)},
			models.CanonicalRecord{ID: "h2", UnitNumber: ptr("102"), Project: ptr("Hillside"), Size: ptr(150.0)},
			models.CanonicalRecord{ID: "h3", UnitNumber: ptr("103"), Project: ptr("Hillside Park"), Size: ptr(111.5)},
		)
		size := 1200.0

		res := NewOrchestrator(testLogger(), index, hillside.Collections(), DefaultConfig()).
			Resolve(ctx, models.ScrapedListing{LocationDetails: models.LocationDetails{Project: "Hillside"}, SizeNumeric: &size})
		assert.Equal(t, models.StrategyMapper, res.Strategy)
		assert.Equal(t, models.ReasonMapperProjectAndSize, res.Reason)
		require.Len(t, res.Candidates, 1)
		assert.Equal(t, "101", res.Candidates[0].Unit)
	})

	t.Run("should skip everything without inputs", func(t *testing.T) {
		res := o.Resolve(ctx, models.ScrapedListing{Size: "900 sqft"})
		assert.Equal(t, models.ReasonNoStrategyApplicable, res.Reason)
	})

	t.Run("should run one strategy on demand", func(t *testing.T) {
		res, err := o.RunStrategy(ctx, models.StrategyFuzzy, models.ScrapedListing{LocationDetails: models.LocationDetails{Project: "Harbour Point"}})
		require.NoError(t, err)
		assert.Equal(t, models.ReasonNoSizeData, res.Reason)
		assert.Equal(t, models.StrategyNone, res.Strategy)
		require.Len(t, res.Attempts, 1)
		assert.Equal(t, models.StrategyFuzzy, res.Attempts[0].Strategy)

		res, err = o.RunStrategy(ctx, models.StrategyFuzzy, models.ScrapedListing{LocationDetails: models.LocationDetails{Project: "Quiet Lane"}, SizeNumeric: sqft(64)})
		require.NoError(t, err)
		assert.Equal(t, models.StrategyFuzzy, res.Strategy)

		_, err = NewOrchestrator(testLogger(), nil, memstore.New().Collections(), DefaultConfig(), WithStrategies()).RunStrategy(ctx, models.StrategyFuzzy, models.ScrapedListing{})
		assert.Error(t, err)
	})
}

func TestConfig_Validate(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())

	cfg := DefaultConfig()
	cfg.PermitPrefixLength = 3
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Scoring.TightSizeSqm = 1
	assert.Error(t, cfg.Validate())
}
