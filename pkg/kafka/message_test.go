package kafka

import (
	"context"
	"errors"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	fernctx "github.com/Ramsey-B/fern/pkg/context"
)

func TestIncomingMessage_ParseListing(t *testing.T) {
	t.Run("should parse an enveloped listing", func(t *testing.T) {
		msg := newIncomingMessage(kafka.Message{
			Topic: "listings.scraped",
			Value: []byte(`{"request_id":"r-1","source":"bayut","listing":{"location_details":{"project":"Marina Gate"},"permit_number":"7123456"}}`),
		})
		require.NoError(t, msg.ParseListing())
		assert.Equal(t, "Marina Gate", msg.Listing.Project())
		assert.Equal(t, "7123456", msg.Listing.PermitNumber)
		assert.Equal(t, "r-1", msg.RequestID)
		assert.Equal(t, "bayut", msg.GetSource())
	})

	t.Run("should parse a bare listing and read the request id header", func(t *testing.T) {
		msg := newIncomingMessage(kafka.Message{
			Value:   []byte(`{"location_details":{"project":"JVC"},"size":"900 sqft"}`),
			Headers: []kafka.Header{{Key: HeaderRequestID, Value: []byte("r-2")}},
		})
		require.NoError(t, msg.ParseListing())
		assert.Equal(t, "JVC", msg.Listing.Project())
		assert.Equal(t, "r-2", msg.RequestID)
		assert.Equal(t, "kafka", msg.GetSource())
	})

	t.Run("should reject malformed values", func(t *testing.T) {
		assert.Error(t, newIncomingMessage(kafka.Message{Value: []byte(`{"listing":`)}).ParseListing())
		assert.Error(t, newIncomingMessage(kafka.Message{Value: []byte(" ")}).ParseListing())
	})
}

func TestConsumer_processMessage(t *testing.T) {
	logger := ectologger.NewEctoLogger(func(ectologger.EctoLogMessage) {})

	t.Run("should pass the request context to the handler", func(t *testing.T) {
		var requestID, source string
		c := &Consumer{logger: logger, handler: func(ctx context.Context, msg *IncomingMessage) error {
			requestID = fernctx.GetRequestID(ctx)
			source = fernctx.GetSource(ctx)
			return nil
		}}
		commit := c.processMessage(context.Background(), kafka.Message{
			Value:   []byte(`{"location_details":{"project":"JVC"}}`),
			Headers: []kafka.Header{{Key: HeaderSource, Value: []byte("crawler")}},
		})
		assert.True(t, commit)
		assert.Len(t, requestID, 36)
		assert.Equal(t, "crawler", source)
	})

	t.Run("should commit unparseable messages without calling the handler", func(t *testing.T) {
		called := false
		c := &Consumer{logger: logger, handler: func(context.Context, *IncomingMessage) error {
			called = true
			return nil
		}}
		assert.True(t, c.processMessage(context.Background(), kafka.Message{Value: []byte("nope")}))
		assert.False(t, called)
	})

	t.Run("should not commit when the handler fails", func(t *testing.T) {
		c := &Consumer{logger: logger, handler: func(context.Context, *IncomingMessage) error {
			return errors.New("context canceled")
		}}
		assert.False(t, c.processMessage(context.Background(), kafka.Message{Value: []byte(`{}`)}))
	})
}
