package kafka

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"waterwatch/internal/config"
	"waterwatch/internal/logger"
	"waterwatch/internal/metrics"
	"waterwatch/internal/models"
)

// Producer errors
var (
	ErrProducerClosed = errors.New("producer is closed")
)

// Producer publishes measurement events to the shared topic. Messages are
// keyed by station ID so readings from one station stay ordered within a
// partition.
type Producer struct {
	cfg    config.ProducerConfig
	topic  string
	writer *kafka.Writer
	closed atomic.Bool

	messagesSent   atomic.Uint64
	messagesFailed atomic.Uint64
	bytesWritten   atomic.Uint64
}

// NewProducer creates a Kafka producer for the given brokers and topic
func NewProducer(brokers []string, topic string, cfg config.ProducerConfig) (*Producer, error) {
	if len(brokers) == 0 {
		return nil, errors.New("at least one broker is required")
	}

	if topic == "" {
		return nil, errors.New("topic is required")
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{}, // Partition by station
		WriteTimeout: cfg.WriteTimeout,
		RequiredAcks: kafka.RequireAll,
		MaxAttempts:  1, // Retries are handled here, with capped backoff
		Async:        false,
	}

	return &Producer{
		cfg:    cfg,
		topic:  topic,
		writer: writer,
	}, nil
}

// Publish serializes a measurement and sends it to the topic, retrying
// with exponential backoff until success or the retry budget is spent. A
// generated event is never silently dropped.
func (p *Producer) Publish(ctx context.Context, m *models.Measurement) error {
	if p.closed.Load() {
		return ErrProducerClosed
	}

	data, err := models.Encode(m)
	if err != nil {
		p.messagesFailed.Add(1)
		return err
	}

	msg := kafka.Message{
		Key:   []byte(m.StationID),
		Value: data,
		Headers: []kafka.Header{
			{Key: "event_id", Value: []byte(uuid.New().String())},
			{Key: "station_id", Value: []byte(m.StationID)},
		},
		Time: m.Timestamp,
	}

	start := time.Now()
	err = p.publishWithRetry(ctx, msg)
	metrics.PublishDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		p.messagesFailed.Add(1)
		metrics.PublishTotal.WithLabelValues("failed").Inc()
		return err
	}

	p.messagesSent.Add(1)
	p.bytesWritten.Add(uint64(len(data)))
	metrics.PublishTotal.WithLabelValues("success").Inc()
	metrics.BytesPublished.Add(float64(len(data)))
	return nil
}

// publishWithRetry writes a message with capped exponential backoff
func (p *Producer) publishWithRetry(ctx context.Context, msg kafka.Message) error {
	log := logger.WithComponent("kafka_producer")
	var lastErr error
	backoff := p.cfg.RetryBackoff

	for attempt := 0; attempt <= p.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			log.Warn().
				Int("attempt", attempt).
				Dur("backoff", backoff).
				Msg("retrying publish")

			metrics.PublishRetries.Inc()

			select {
			case <-time.After(backoff):
				backoff *= 2
				if backoff > p.cfg.MaxBackoff {
					backoff = p.cfg.MaxBackoff
				}
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		err := p.writer.WriteMessages(ctx, msg)
		if err == nil {
			return nil
		}

		lastErr = err
		log.Warn().
			Err(err).
			Int("attempt", attempt+1).
			Msg("publish attempt failed")

		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
	}

	log.Error().
		Err(lastErr).
		Int("max_retries", p.cfg.MaxRetries+1).
		Msg("publish failed after all retries")

	return fmt.Errorf("failed after %d attempts: %w", p.cfg.MaxRetries+1, lastErr)
}

// Close closes the underlying writer
func (p *Producer) Close() error {
	if p.closed.Swap(true) {
		return nil // Already closed
	}
	return p.writer.Close()
}

// Stats returns producer statistics
func (p *Producer) Stats() ProducerStats {
	return ProducerStats{
		MessagesSent:   p.messagesSent.Load(),
		MessagesFailed: p.messagesFailed.Load(),
		BytesWritten:   p.bytesWritten.Load(),
	}
}

// ProducerStats holds producer counters
type ProducerStats struct {
	MessagesSent   uint64
	MessagesFailed uint64
	BytesWritten   uint64
}

// HealthCheck verifies the producer is usable. Writer error counters are
// deltas since the previous call, so a transient failure flags one check
// and clears on the next.
func (p *Producer) HealthCheck(ctx context.Context) error {
	if p.closed.Load() {
		return ErrProducerClosed
	}

	stats := p.writer.Stats()
	if stats.Errors > 0 {
		return fmt.Errorf("writer reported %d errors since last check", stats.Errors)
	}
	return nil
}
