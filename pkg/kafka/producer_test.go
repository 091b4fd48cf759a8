package kafka

import (
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProducer_RequiresBrokers(t *testing.T) {
	p, err := NewProducer()
	require.Error(t, err)
	assert.Nil(t, p)
}

func TestNewProducer_AppliesOptions(t *testing.T) {
	p, err := NewProducer(
		WithBrokers([]string{"localhost:9092"}),
		WithCompression("snappy"),
		WithHashByKey(true),
	)
	require.NoError(t, err)
	defer p.Close()

	assert.Equal(t, "snappy", p.comp)
	assert.IsType(t, &kafka.Hash{}, p.writer.Balancer)
}

func TestParseCompression(t *testing.T) {
	assert.Equal(t, kafka.Snappy, parseCompression("snappy"))
	assert.Equal(t, kafka.Zstd, parseCompression("zstd"))
	assert.Equal(t, kafka.Gzip, parseCompression("unknown"))
}
