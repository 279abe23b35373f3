package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

// KafkaConfig contains configurable parameters for the Kafka sink.
type KafkaConfig struct {
	// Brokers is the list of Kafka broker addresses (host:port).
	Brokers []string

	// Topic is the topic audit events are written to.
	Topic string

	// MaxAttempts is how many times Emit retries a transient write error.
	// Defaults to 3 if <= 0.
	MaxAttempts int

	// WriteTimeout is the per-attempt timeout. Defaults to 10s if zero.
	WriteTimeout time.Duration
}

// KafkaSink publishes audit events to a Kafka topic. Messages are keyed by
// canonical event ID so all transitions of one event land on one partition
// and stay ordered.
type KafkaSink struct {
	writer      *kafka.Writer
	maxAttempts int
}

// NewKafkaSink constructs a KafkaSink.
func NewKafkaSink(cfg KafkaConfig) (*KafkaSink, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("kafka sink: at least one broker required")
	}
	if cfg.Topic == "" {
		return nil, fmt.Errorf("kafka sink: topic required")
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = 10 * time.Second
	}

	w := kafka.NewWriter(kafka.WriterConfig{
		Brokers:      cfg.Brokers,
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 10 * time.Millisecond,
		WriteTimeout: cfg.WriteTimeout,
		Async:        false,
	})

	return &KafkaSink{writer: w, maxAttempts: cfg.MaxAttempts}, nil
}

// Emit implements Sink with bounded retries on transient write errors.
func (s *KafkaSink) Emit(ctx context.Context, ev Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("kafka sink: marshal audit event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(ev.EventID),
		Value: payload,
		Time:  ev.At,
	}

	var lastErr error
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		if err := s.writer.WriteMessages(ctx, msg); err != nil {
			lastErr = err
			if ctx.Err() != nil {
				return ctx.Err()
			}
			continue
		}
		return nil
	}
	return fmt.Errorf("kafka sink: emit %s after %d attempts: %w", ev.Kind, s.maxAttempts, lastErr)
}

// Close implements Sink.
func (s *KafkaSink) Close() error {
	return s.writer.Close()
}
