package events

import (
	"context"
	"encoding/json"
	"fmt"

	"marketplace/internal/logger"

	"github.com/IBM/sarama"
)

type Producer struct {
	producer sarama.SyncProducer
	mockMode bool
}

func NewProducer(brokers []string, mockMode bool) (*Producer, error) {
	if mockMode {
		logger.Info("kafka producer running in mock mode")
		return &Producer{mockMode: true}, nil
	}

	config := sarama.NewConfig()
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 5
	config.Producer.Return.Successes = true

	producer, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create producer: %w", err)
	}

	logger.Info("kafka producer connected", "brokers", brokers)
	return NewProducerFromSync(producer), nil
}

// NewProducerFromSync wraps an existing sarama producer.
func NewProducerFromSync(p sarama.SyncProducer) *Producer {
	return &Producer{producer: p}
}

func (p *Producer) Publish(ctx context.Context, topic string, e Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if p.mockMode {
		logger.Debug("mock publish", "topic", topic, "type", e.Type, "key", e.Key, "data", string(data))
		return nil
	}

	msg := &sarama.ProducerMessage{
		Topic: topic,
		Key:   sarama.StringEncoder(e.Key),
		Value: sarama.ByteEncoder(data),
		Headers: []sarama.RecordHeader{
			{Key: []byte("event-type"), Value: []byte(e.Type)},
		},
	}

	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		logger.Error("failed to publish event", "topic", topic, "type", e.Type, "error", err)
		return fmt.Errorf("failed to send message: %w", err)
	}

	logger.Debug("event published", "topic", topic, "type", e.Type, "partition", partition, "offset", offset)
	return nil
}

func (p *Producer) Close() error {
	if p.mockMode || p.producer == nil {
		return nil
	}
	return p.producer.Close()
}
