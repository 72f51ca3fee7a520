package alerting

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
)

// KafkaSink publishes alert events as JSON to a Kafka topic, keyed by token
// address so one token's alerts land on one partition in firing order.
type KafkaSink struct {
	writer *kafka.Writer
	logger zerolog.Logger
}

// NewKafkaSink builds a Kafka-backed sink.
func NewKafkaSink(brokers []string, topic string, writeTimeout time.Duration, logger zerolog.Logger) (*KafkaSink, error) {
	if len(brokers) == 0 {
		return nil, errors.New("at least one broker is required")
	}
	if topic == "" {
		return nil, errors.New("topic is required")
	}
	if writeTimeout <= 0 {
		writeTimeout = 10 * time.Second
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		WriteTimeout: writeTimeout,
		RequiredAcks: kafka.RequireOne,
		// At-most-once: no delivery retries for alerts.
		MaxAttempts: 1,
		Async:       false,
	}

	return &KafkaSink{
		writer: writer,
		logger: logger.With().Str("component", "sink_kafka").Logger(),
	}, nil
}

// Name identifies the sink in logs and metrics.
func (k *KafkaSink) Name() string { return "kafka" }

// Deliver publishes one alert event.
func (k *KafkaSink) Deliver(ctx context.Context, event Event) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal alert event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(strings.ToLower(event.Address.Hex())),
		Value: value,
		Headers: []kafka.Header{
			{Key: "event_id", Value: []byte(event.ID)},
			{Key: "direction", Value: []byte(event.Direction)},
		},
		Time: event.FiredAt,
	}

	if err := k.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish alert event: %w", err)
	}

	k.logger.Info().Str("event_id", event.ID).Str("token", event.Token).Msg("alert published to kafka")
	return nil
}

// Close releases the underlying writer.
func (k *KafkaSink) Close() error {
	return k.writer.Close()
}

var _ Sink = (*KafkaSink)(nil)
