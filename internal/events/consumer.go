package events

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
)

// Handler reacts to a client.updated event.
type Handler func(ctx context.Context, slug string) error

type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// readBackoff is the pause after a failed read before the next attempt.
const readBackoff = time.Second

// Consumer reads the directory topic one message at a time.
type Consumer struct {
	r       messageReader
	handler Handler
	logger  zerolog.Logger
	backoff time.Duration
}

// NewKafkaConsumer joins groupID on topic.
func NewKafkaConsumer(brokers []string, topic, groupID string, handler Handler, logger zerolog.Logger) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		GroupID:  groupID,
		Topic:    topic,
		MinBytes: 1,
		MaxBytes: 10e6, // 10MB
	})
	return &Consumer{r: reader, handler: handler, logger: logger, backoff: readBackoff}
}

// Run blocks until ctx is cancelled or the reader is closed. Read failures are
// retried after a pause; handler failures are logged and the message is not
// retried.
func (c *Consumer) Run(ctx context.Context) error {
	for {
		msg, err := c.r.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return nil
			}
			if errors.Is(err, io.EOF) {
				c.logger.Info().Msg("kafka reader closed")
				return nil
			}
			c.logger.Error().Err(err).Msg("read kafka message")
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(c.backoff):
			}
			continue
		}

		c.process(ctx, msg)
	}
}

func (c *Consumer) process(ctx context.Context, msg kafka.Message) {
	key := string(msg.Key)
	event, slug, ok := ParseKey(key)
	if !ok {
		c.logger.Warn().Str("key", key).Msg("skip message with malformed key")
		return
	}

	switch event {
	case ClientUpdated:
		if err := c.handler(ctx, slug); err != nil {
			c.logger.Error().Err(err).Str("client", slug).Msg("handle client.updated")
			return
		}
		c.logger.Debug().Str("client", slug).Int64("offset", msg.Offset).Msg("handled client.updated")
	default:
		c.logger.Warn().Str("event", event).Msg("unknown event")
	}
}

func (c *Consumer) Close() error {
	return c.r.Close()
}
