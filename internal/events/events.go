// Package events announces client profile changes on a Kafka topic so
// downstream consumers (the CMS sync) can react to imports.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
)

const (
	DefaultTopic   = "directory-clients"
	ClientUpdated  = "client.updated"
	DefaultGroupID = "directory-cms-sync"
)

// ClientUpdatedEvent is the message body of a client.updated event.
type ClientUpdatedEvent struct {
	Slug string    `json:"slug"`
	At   time.Time `json:"at"`
}

// Key builds the message key, e.g. "client.updated.acme-pest".
func Key(event, slug string) string {
	return event + "." + slug
}

// ParseKey splits a message key into its event name and client slug.
func ParseKey(key string) (event, slug string, ok bool) {
	parts := strings.SplitN(key, ".", 3)
	if len(parts) != 3 || parts[2] == "" {
		return "", "", false
	}
	return parts[0] + "." + parts[1], parts[2], true
}

// Publisher announces client changes.
type Publisher interface {
	PublishClientUpdated(ctx context.Context, slug string) error
	Close() error
}

// Nop discards events. It is used when no brokers are configured.
type Nop struct{}

func (Nop) PublishClientUpdated(context.Context, string) error { return nil }
func (Nop) Close() error                                       { return nil }

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes events with a kafka-go Writer.
type KafkaPublisher struct {
	w   messageWriter
	now func() time.Time
}

// NewKafkaPublisher creates a publisher for topic. Messages for the same
// client hash to the same partition.
func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{
		w: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireOne,
		},
		now: time.Now,
	}
}

func (p *KafkaPublisher) PublishClientUpdated(ctx context.Context, slug string) error {
	value, err := json.Marshal(ClientUpdatedEvent{Slug: slug, At: p.now().UTC()})
	if err != nil {
		return fmt.Errorf("encode client.updated event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(Key(ClientUpdated, slug)),
		Value: value,
	}
	if err := p.w.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish client.updated %s: %w", slug, err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.w.Close()
}
