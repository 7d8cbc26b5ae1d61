// Package resolver wraps the matching cascade with caching, boundary sanitization and event emission.
package resolver

import (
	"context"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/fern/pkg/cache"
	"github.com/Ramsey-B/fern/pkg/events"
	"github.com/Ramsey-B/fern/pkg/matching"
	"github.com/Ramsey-B/fern/pkg/metrics"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/sanitize"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

type Option func(*Service)

// WithCache enables the result cache
func WithCache(c *cache.ResultCache) Option {
	return func(s *Service) {
		s.cache = c
	}
}

// WithEmitter publishes a listing.resolved event for every resolution
func WithEmitter(e *events.Emitter) Option {
	return func(s *Service) {
		s.emitter = e
	}
}

// WithSanitizeOptions controls what the boundary response keeps
func WithSanitizeOptions(opts sanitize.Options) Option {
	return func(s *Service) {
		s.sanitize = opts
	}
}

type Service struct {
	logger       ectologger.Logger
	orchestrator *matching.Orchestrator
	cache        *cache.ResultCache
	emitter      *events.Emitter
	sanitize     sanitize.Options
}

func NewService(logger ectologger.Logger, orchestrator *matching.Orchestrator, opts ...Option) *Service {
	s := &Service{logger: logger, orchestrator: orchestrator}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Resolve runs the cascade for one listing and returns the sanitized response.
// Cache and event failures are logged and never fail the resolution.
func (s *Service) Resolve(ctx context.Context, listing models.ScrapedListing) models.ResolveResponse {
	ctx, span := tracing.StartSpan(ctx, "resolver.Service.Resolve")
	defer span.End()

	var (
		result models.MatchResult
		cached bool
	)
	if s.cache != nil {
		result, cached = s.cache.Get(ctx, listing)
		metrics.RecordCacheLookup(cached)
	}
	if !cached {
		result = s.orchestrator.Resolve(ctx, listing)
		if s.cache != nil {
			s.cache.Put(ctx, listing, result)
		}
	}

	resp := sanitize.Response(listing, result, s.sanitize)

	s.logger.WithContext(ctx).WithFields(map[string]any{
		"strategy":   result.Strategy,
		"reason":     result.Reason,
		"candidates": len(result.Candidates),
		"cached":     cached,
	}).Debug("resolved listing")

	if s.emitter != nil {
		err := s.emitter.EmitListingResolved(ctx, events.Fingerprint(listing), resp, cached)
		metrics.RecordEventPublished(events.EventListingResolved, err)
	}
	return resp
}

// RunStrategy runs a single strategy outside the cascade. Results are neither cached nor emitted.
// ignoreSize clears the listing size before matching.
func (s *Service) RunStrategy(ctx context.Context, strategy models.Strategy, listing models.ScrapedListing, ignoreSize bool) (models.ResolveResponse, error) {
	ctx, span := tracing.StartSpan(ctx, "resolver.Service.RunStrategy")
	defer span.End()

	input := listing
	if ignoreSize {
		input.Size = ""
		input.SizeNumeric = nil
	}
	result, err := s.orchestrator.RunStrategy(ctx, strategy, input)
	if err != nil {
		return models.ResolveResponse{}, err
	}
	opts := s.sanitize
	opts.IncludeAttempts = true
	return sanitize.Response(listing, result, opts), nil
}

// Strategies lists the configured cascade
func (s *Service) Strategies() []models.Strategy {
	return s.orchestrator.Strategies()
}
