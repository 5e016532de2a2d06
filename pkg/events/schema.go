package events

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jafarkuku/preqin-task/pkg/models"
)

// EventType defines the type of event
type EventType string

const (
	// Commitment events
	EventTypeCommitmentCreated EventType = "commitment.created"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventType     EventType `json:"event_type"`
	SchemaVersion string    `json:"schema_version"`
	Timestamp     time.Time `json:"timestamp"`
	CorrelationID string    `json:"correlation_id,omitempty"`
}

// CommitmentCreatedEvent is emitted when a new commitment is recorded
type CommitmentCreatedEvent struct {
	BaseEvent
	CommitmentID string          `json:"commitment_id"`
	InvestorID   string          `json:"investor_id"`
	AssetClassID string          `json:"asset_class_id"`
	Amount       decimal.Decimal `json:"amount"`
	Currency     models.Currency `json:"currency"`
}

// NewBaseEvent creates a base event with common fields
func NewBaseEvent(eventType EventType) BaseEvent {
	return BaseEvent{
		EventType:     eventType,
		SchemaVersion: SchemaVersion,
		Timestamp:     time.Now().UTC(),
		CorrelationID: uuid.New().String(),
	}
}
