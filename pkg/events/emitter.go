// Package events handles event emission for commitment lifecycle changes
package events

import (
	"context"

	"github.com/Gobusters/ectologger"

	"github.com/jafarkuku/preqin-task/pkg/metrics"
	"github.com/jafarkuku/preqin-task/pkg/models"
	"github.com/jafarkuku/preqin-task/pkg/tracing"
)

// SchemaVersion is the current event schema version
const SchemaVersion = "1.0"

// Publisher writes serialized events to a topic
type Publisher interface {
	Publish(ctx context.Context, key string, payload any, headers map[string]string) error
}

// Emitter handles event emission for commitments
type Emitter struct {
	producer Publisher
	logger   ectologger.Logger
}

// NewEmitter creates a new event emitter
func NewEmitter(producer Publisher, logger ectologger.Logger) *Emitter {
	return &Emitter{
		producer: producer,
		logger:   logger,
	}
}

// EmitCommitmentCreated emits a commitment created event. The message is keyed
// by investor id so updates for one investor stay on one partition.
func (e *Emitter) EmitCommitmentCreated(ctx context.Context, commitment *models.Commitment) error {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitCommitmentCreated")
	defer span.End()

	event := &CommitmentCreatedEvent{
		BaseEvent:    NewBaseEvent(EventTypeCommitmentCreated),
		CommitmentID: commitment.ID,
		InvestorID:   commitment.InvestorID,
		AssetClassID: commitment.AssetClassID,
		Amount:       commitment.Amount,
		Currency:     commitment.Currency,
	}

	headers := map[string]string{
		"event_type":     string(event.EventType),
		"schema_version": event.SchemaVersion,
		"correlation_id": event.CorrelationID,
	}

	if err := e.producer.Publish(ctx, commitment.InvestorID, event, headers); err != nil {
		metrics.EventsPublishedTotal.WithLabelValues(string(event.EventType), "error").Inc()
		e.logger.WithContext(ctx).WithError(err).Error("Failed to emit commitment.created event")
		return err
	}

	metrics.EventsPublishedTotal.WithLabelValues(string(event.EventType), "ok").Inc()
	return nil
}
