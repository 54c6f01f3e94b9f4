package logger

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturePublisher struct {
	mu      sync.Mutex
	topic   string
	key     []byte
	batches [][]DigestEntry
}

func (p *capturePublisher) Publish(_ context.Context, topic string, key []byte, value interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topic, p.key = topic, key
	p.batches = append(p.batches, value.([]DigestEntry))
	return nil
}

func TestLogCollector_FoldsRepeats(t *testing.T) {
	pub := &capturePublisher{}
	l := Nop()
	l.AddCollector(&CollectionConfig{
		TimeInterval:   time.Hour,
		CountThreshold: 10,
		Topic:          "logs",
		Source:         "detector",
		Publisher:      pub,
	})

	for i := 0; i < 3; i++ {
		l.Error("stream failed", String("group", "0"), Error(errors.New("eof")))
	}
	l.Error("backfill failed", String("symbol", "BTCUSDT"))
	l.Info("not collected")
	l.RemoveCollector()

	pub.mu.Lock()
	defer pub.mu.Unlock()
	require.Len(t, pub.batches, 1)
	assert.Equal(t, "logs", pub.topic)
	assert.Equal(t, []byte("detector"), pub.key)

	batch := pub.batches[0]
	require.Len(t, batch, 2)
	assert.Equal(t, "stream failed", batch[0].Message)
	assert.Equal(t, 3, batch[0].Count)
	assert.Equal(t, 1, batch[1].Count)
}

func TestLogCollector_ThresholdFlushes(t *testing.T) {
	pub := &capturePublisher{}
	c := NewLogCollector(&CollectionConfig{TimeInterval: time.Hour, CountThreshold: 2, Publisher: pub})
	c.AddLog("error", "a", nil, "x.go:1")
	c.AddLog("error", "b", nil, "x.go:2")
	c.Close()
	c.Close()

	pub.mu.Lock()
	defer pub.mu.Unlock()
	require.Len(t, pub.batches, 1)
	assert.Len(t, pub.batches[0], 2)
}
