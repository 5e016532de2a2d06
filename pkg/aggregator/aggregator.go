// Package aggregator consumes commitment events and maintains per-investor
// commitment aggregates. Processing is at-least-once: malformed events and
// events for unknown investors are dropped, transient store errors are
// retried via redelivery.
package aggregator

import (
	"context"
	"encoding/json"

	"github.com/Gobusters/ectologger"

	"github.com/jafarkuku/preqin-task/internal/repositories/investor"
	"github.com/jafarkuku/preqin-task/pkg/events"
	"github.com/jafarkuku/preqin-task/pkg/kafka"
	"github.com/jafarkuku/preqin-task/pkg/metrics"
	"github.com/jafarkuku/preqin-task/pkg/tracing"
)

// Aggregator applies commitment events to investor aggregates
type Aggregator struct {
	investors investor.InvestorRepository
	logger    ectologger.Logger
}

// NewAggregator creates a new aggregator
func NewAggregator(investors investor.InvestorRepository, logger ectologger.Logger) *Aggregator {
	return &Aggregator{
		investors: investors,
		logger:    logger,
	}
}

// HandleMessage processes one commitment event. A nil return commits the
// message; an error leaves it uncommitted for redelivery.
func (a *Aggregator) HandleMessage(ctx context.Context, msg *kafka.IncomingMessage) error {
	ctx, span := tracing.StartSpan(ctx, "aggregator.Aggregator.HandleMessage")
	defer span.End()

	log := a.logger.WithContext(ctx).WithFields(map[string]any{
		"topic":  msg.Topic,
		"offset": msg.Offset,
	})

	var event events.CommitmentCreatedEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		log.WithError(err).Warn("dropping malformed event")
		metrics.EventsConsumedTotal.WithLabelValues("unknown", "malformed").Inc()
		return nil
	}

	if event.EventType != events.EventTypeCommitmentCreated {
		log.WithField("event_type", string(event.EventType)).Debug("ignoring event of unhandled type")
		metrics.EventsConsumedTotal.WithLabelValues(string(event.EventType), "ignored").Inc()
		return nil
	}

	if event.InvestorID == "" || event.CommitmentID == "" {
		log.Warn("dropping commitment event with missing ids")
		metrics.EventsConsumedTotal.WithLabelValues(string(event.EventType), "malformed").Inc()
		return nil
	}

	inv, err := a.investors.GetByID(ctx, event.InvestorID)
	if err != nil {
		// Transient store error, leave uncommitted so the event is redelivered
		metrics.EventsConsumedTotal.WithLabelValues(string(event.EventType), "retry").Inc()
		return err
	}
	if inv == nil {
		log.WithField("investor_id", event.InvestorID).Warn("dropping event for unknown investor")
		metrics.EventsConsumedTotal.WithLabelValues(string(event.EventType), "unknown_investor").Inc()
		return nil
	}

	newCount := inv.CommitmentCount + 1
	newTotal := inv.TotalCommitmentAmount.Add(event.Amount)

	if err := a.investors.UpdateCommitmentMetrics(ctx, inv.ID, newCount, newTotal); err != nil {
		metrics.EventsConsumedTotal.WithLabelValues(string(event.EventType), "retry").Inc()
		return err
	}

	metrics.EventsConsumedTotal.WithLabelValues(string(event.EventType), "applied").Inc()
	metrics.AggregateUpdatesTotal.Inc()

	log.WithFields(map[string]any{
		"investor_id":      inv.ID,
		"commitment_count": newCount,
	}).Debug("applied commitment aggregate update")

	return nil
}
