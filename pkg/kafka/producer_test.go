package kafka

import (
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() ectologger.Logger {
	return ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
}

func TestNewProducer_HashesByKey(t *testing.T) {
	p := NewProducer(DefaultProducerConfig(), testLogger())
	defer p.Close()

	balancer, ok := p.writer.Balancer.(*kafka.Hash)
	require.True(t, ok, "writer must hash by key so one key stays on one partition")

	partitions := []int{0, 1, 2}
	first := balancer.Balance(kafka.Message{Key: []byte("inv-1")}, partitions...)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, balancer.Balance(kafka.Message{Key: []byte("inv-1")}, partitions...))
	}
}

func TestNewProducer_CompressionMapping(t *testing.T) {
	cfg := DefaultProducerConfig()
	cfg.Compression = "gzip"

	p := NewProducer(cfg, testLogger())
	defer p.Close()

	assert.Equal(t, kafka.Gzip, p.writer.Compression)
}
