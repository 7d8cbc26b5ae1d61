package kafka

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/Ramsey-B/fern/pkg/models"
)

// SchemaVersion is the current event schema version
const SchemaVersion = "1.0"

// Header keys
const (
	HeaderEventType     = "event_type"
	HeaderSchemaVersion = "schema_version"
	HeaderRequestID     = "request_id"
	HeaderSource        = "source"
	HeaderTraceParent   = "traceparent"
)

// IncomingMessage wraps a raw Kafka message with parsed headers
type IncomingMessage struct {
	Key       string
	Value     []byte
	Headers   map[string]string
	Partition int
	Offset    int64
	Timestamp time.Time
	Topic     string

	// Parsed content
	Listing   *models.ScrapedListing
	RequestID string
}

// ListingEnvelope is the wrapped form of a scraped listing message.
// A bare listing object is accepted as well.
type ListingEnvelope struct {
	RequestID string                 `json:"request_id,omitempty"`
	Source    string                 `json:"source,omitempty"`
	Listing   *models.ScrapedListing `json:"listing"`
}

func newIncomingMessage(msg kafka.Message) *IncomingMessage {
	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	return &IncomingMessage{
		Key:       string(msg.Key),
		Value:     msg.Value,
		Headers:   headers,
		Partition: msg.Partition,
		Offset:    msg.Offset,
		Timestamp: msg.Time,
		Topic:     msg.Topic,
	}
}

// ParseListing decodes the message value as an enveloped or bare listing
func (m *IncomingMessage) ParseListing() error {
	value := bytes.TrimSpace(m.Value)
	if len(value) == 0 {
		return fmt.Errorf("empty message value")
	}

	var envelope ListingEnvelope
	if err := json.Unmarshal(value, &envelope); err != nil {
		return err
	}
	if envelope.Listing != nil {
		m.Listing = envelope.Listing
		m.RequestID = envelope.RequestID
		if envelope.Source != "" && m.Headers[HeaderSource] == "" {
			m.Headers[HeaderSource] = envelope.Source
		}
	} else {
		var listing models.ScrapedListing
		if err := json.Unmarshal(value, &listing); err != nil {
			return err
		}
		m.Listing = &listing
	}

	if m.RequestID == "" {
		m.RequestID = m.Headers[HeaderRequestID]
	}
	return nil
}

// GetSource returns the producer-supplied source, defaulting to "kafka"
func (m *IncomingMessage) GetSource() string {
	if s := m.Headers[HeaderSource]; s != "" {
		return s
	}
	return "kafka"
}
