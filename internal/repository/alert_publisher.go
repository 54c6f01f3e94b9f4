package repository

import (
	"context"

	"github.com/rizkyafrinandaa-hub/CryptoPattern-Detector/internal/domain/models"
	"github.com/rizkyafrinandaa-hub/CryptoPattern-Detector/internal/domain/repository"
)

// messageWriter is the subset of pkg/kafka.Producer used here.
type messageWriter interface {
	Publish(ctx context.Context, topic string, key []byte, value interface{}) error
	Close() error
}

// KafkaAlertPublisher writes alerts as JSON keyed by symbol.
type KafkaAlertPublisher struct {
	producer messageWriter
	topic    string
}

func NewKafkaAlertPublisher(producer messageWriter, topic string) *KafkaAlertPublisher {
	return &KafkaAlertPublisher{producer: producer, topic: topic}
}

func (p *KafkaAlertPublisher) Publish(ctx context.Context, a *models.Alert) error {
	return p.producer.Publish(ctx, p.topic, []byte(a.Symbol), a)
}

func (p *KafkaAlertPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}

// NopAlertPublisher drops alerts. Used when Kafka is disabled.
type NopAlertPublisher struct{}

func (NopAlertPublisher) Publish(context.Context, *models.Alert) error { return nil }
func (NopAlertPublisher) Close() error                                 { return nil }

var (
	_ repository.AlertPublisher = (*KafkaAlertPublisher)(nil)
	_ repository.AlertPublisher = NopAlertPublisher{}
)
