package kafka

import (
	"context"
	"errors"
	"io"
	"sync/atomic"

	"github.com/segmentio/kafka-go"

	"waterwatch/internal/config"
	"waterwatch/internal/logger"
	"waterwatch/internal/metrics"
)

// Handler processes one delivered message. A handler error is logged and
// never stops the consume loop; the message offset is committed either way,
// so a poison message cannot wedge the pipeline.
type Handler func(ctx context.Context, msg kafka.Message) error

// messageReader is the subset of kafka.Reader the consumer uses
type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Consumer reads measurement events from the shared topic as part of a
// consumer group. Offsets are committed only after the handler returns,
// giving at-least-once delivery: a crash mid-processing means redelivery.
type Consumer struct {
	reader  messageReader
	handler Handler
	closed  atomic.Bool

	messagesHandled atomic.Uint64
	handlerErrors   atomic.Uint64
}

// NewConsumer creates a group consumer bound to the given topic
func NewConsumer(brokers []string, topic, groupID string, cfg config.ConsumerConfig, handler Handler) (*Consumer, error) {
	if len(brokers) == 0 {
		return nil, errors.New("at least one broker is required")
	}

	if topic == "" {
		return nil, errors.New("topic is required")
	}

	if groupID == "" {
		return nil, errors.New("group ID is required")
	}

	if handler == nil {
		return nil, errors.New("handler is required")
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: cfg.MinBytes,
		MaxBytes: cfg.MaxBytes,
	})

	return &Consumer{
		reader:  reader,
		handler: handler,
	}, nil
}

// Run blocks fetching messages until the context is cancelled or the
// reader fails. FetchMessage suspends between arrivals; there is no
// polling loop to tune.
func (c *Consumer) Run(ctx context.Context) error {
	log := logger.WithComponent("kafka_consumer")

	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, io.EOF) || c.closed.Load() {
				return nil
			}
			return err
		}

		if err := c.handler(ctx, msg); err != nil {
			c.handlerErrors.Add(1)
			log.Error().
				Err(err).
				Int64("offset", msg.Offset).
				Int("partition", msg.Partition).
				Msg("message handling failed")
		}

		// Commit regardless of handler outcome: bad messages are rejected,
		// not requeued, and sink failures must not block the pipeline.
		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			metrics.CommitFailures.Inc()
			log.Error().
				Err(err).
				Int64("offset", msg.Offset).
				Msg("offset commit failed")
			continue
		}

		c.messagesHandled.Add(1)
	}
}

// Close closes the underlying reader, unblocking Run
func (c *Consumer) Close() error {
	if c.closed.Swap(true) {
		return nil // Already closed
	}
	return c.reader.Close()
}

// Stats returns consumer statistics
func (c *Consumer) Stats() ConsumerStats {
	return ConsumerStats{
		MessagesHandled: c.messagesHandled.Load(),
		HandlerErrors:   c.handlerErrors.Load(),
	}
}

// ConsumerStats holds consumer counters
type ConsumerStats struct {
	MessagesHandled uint64
	HandlerErrors   uint64
}
