// Package events publishes resolution outcomes for downstream consumers
package events

import (
	"context"
	"time"

	"github.com/Gobusters/ectologger"

	fernctx "github.com/Ramsey-B/fern/pkg/context"
	"github.com/Ramsey-B/fern/pkg/fingerprint"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

// EventListingResolved is emitted once per resolution
const EventListingResolved = "listing.resolved"

// Publisher writes one event. *kafka.Producer satisfies it.
type Publisher interface {
	Publish(ctx context.Context, key, eventType string, payload any) error
}

// ListingResolvedEvent carries the sanitized outcome of one resolution
type ListingResolvedEvent struct {
	EventType   string                `json:"event_type"`
	RequestID   string                `json:"request_id"`
	Source      string                `json:"source,omitempty"`
	Fingerprint string                `json:"fingerprint"`
	Listing     models.ScrapedListing `json:"listing"`
	Result      models.MatchResult    `json:"result"`
	Cached      bool                  `json:"cached"`
	Timestamp   time.Time             `json:"timestamp"`
}

type Emitter struct {
	publisher Publisher
	logger    ectologger.Logger
	now       func() time.Time
}

func NewEmitter(publisher Publisher, logger ectologger.Logger) *Emitter {
	return &Emitter{
		publisher: publisher,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// EmitListingResolved publishes a listing.resolved event keyed by listing fingerprint.
// The response must already be sanitized.
func (e *Emitter) EmitListingResolved(ctx context.Context, fp string, resp models.ResolveResponse, cached bool) error {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitListingResolved")
	defer span.End()

	event := ListingResolvedEvent{
		EventType:   EventListingResolved,
		RequestID:   fernctx.GetRequestID(ctx),
		Source:      fernctx.GetSource(ctx),
		Fingerprint: fp,
		Listing:     resp.Listing,
		Result:      resp.Result,
		Cached:      cached,
		Timestamp:   e.now(),
	}

	if err := e.publisher.Publish(ctx, fp, EventListingResolved, event); err != nil {
		e.logger.WithContext(ctx).WithError(err).Error("Failed to emit listing.resolved event")
		return err
	}
	return nil
}

// Fingerprint is the event key for a listing
func Fingerprint(listing models.ScrapedListing) string {
	return fingerprint.Listing(listing)
}
