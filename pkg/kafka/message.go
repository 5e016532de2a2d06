package kafka

import (
	"time"
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
}

// GetEventType returns the event type header, if present
func (m *IncomingMessage) GetEventType() string {
	return m.Headers["event_type"]
}

// GetCorrelationID returns the correlation id header, if present
func (m *IncomingMessage) GetCorrelationID() string {
	return m.Headers["correlation_id"]
}
