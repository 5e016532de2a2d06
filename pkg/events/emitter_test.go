package events

import (
	"context"
	"errors"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jafarkuku/preqin-task/pkg/models"
)

type capturingPublisher struct {
	err     error
	key     string
	payload any
	headers map[string]string
}

func (p *capturingPublisher) Publish(ctx context.Context, key string, payload any, headers map[string]string) error {
	p.key = key
	p.payload = payload
	p.headers = headers
	return p.err
}

func TestEmitCommitmentCreated(t *testing.T) {
	publisher := &capturingPublisher{}
	emitter := NewEmitter(publisher, ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {}))

	commitment := &models.Commitment{
		ID:           "c-1",
		InvestorID:   "inv-1",
		AssetClassID: "ac-1",
		Amount:       decimal.NewFromInt(1000),
		Currency:     models.CurrencyEUR,
	}
	require.NoError(t, emitter.EmitCommitmentCreated(context.Background(), commitment))

	assert.Equal(t, "inv-1", publisher.key)
	assert.Equal(t, string(EventTypeCommitmentCreated), publisher.headers["event_type"])
	assert.Equal(t, SchemaVersion, publisher.headers["schema_version"])
	assert.NotEmpty(t, publisher.headers["correlation_id"])

	event, ok := publisher.payload.(*CommitmentCreatedEvent)
	require.True(t, ok)
	assert.Equal(t, "c-1", event.CommitmentID)
	assert.Equal(t, EventTypeCommitmentCreated, event.EventType)
	assert.True(t, event.Amount.Equal(decimal.NewFromInt(1000)))
	assert.False(t, event.Timestamp.IsZero())
}

func TestEmitCommitmentCreated_PublishError(t *testing.T) {
	publisher := &capturingPublisher{err: errors.New("broker unavailable")}
	emitter := NewEmitter(publisher, ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {}))

	err := emitter.EmitCommitmentCreated(context.Background(), &models.Commitment{ID: "c-1", InvestorID: "inv-1"})
	assert.Error(t, err)
}
