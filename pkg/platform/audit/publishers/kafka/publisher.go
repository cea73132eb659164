// Package kafka publishes audit events to a Kafka topic with franz-go.
//
// Records are keyed by subject so every event for one owner lands on the same
// partition and is consumed in order.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"

	audit "evonft/pkg/platform/audit"
	"evonft/pkg/requestcontext"
)

// Publisher produces audit events synchronously; Emit returns once the
// brokers acknowledged the record.
type Publisher struct {
	client *kgo.Client
	topic  string
	logger *slog.Logger
}

type Option func(*Publisher)

func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

// NewClient builds a producer client that waits for all in-sync replicas.
func NewClient(brokers []string, opts ...kgo.Opt) (*kgo.Client, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("kafka brokers are required")
	}
	base := []kgo.Opt{
		kgo.SeedBrokers(brokers...),
		kgo.RequiredAcks(kgo.AllISRAcks()),
		kgo.ProducerLinger(5 * time.Millisecond),
	}
	client, err := kgo.NewClient(append(base, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	return client, nil
}

func New(client *kgo.Client, topic string, opts ...Option) *Publisher {
	p := &Publisher{client: client, topic: topic}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// payload is the JSON value written to Kafka.
type payload struct {
	Category  string `json:"category"`
	Timestamp string `json:"timestamp"`
	Subject   string `json:"subject"`
	Action    string `json:"action"`
	AssetID   uint64 `json:"asset_id,omitempty"`
	Stage     uint8  `json:"stage,omitempty"`
	Amount    uint64 `json:"amount,omitempty"`
	Balance   uint64 `json:"balance"`
	Sequence  uint64 `json:"sequence,omitempty"`
	Reason    string `json:"reason,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// Encode renders one event as a Kafka record.
func (p *Publisher) Encode(event audit.Event) (*kgo.Record, error) {
	category := event.Category
	if category == "" {
		category = audit.AuditEvent(event.Action).Category()
	}
	value, err := json.Marshal(payload{
		Category:  string(category),
		Timestamp: event.Timestamp.UTC().Format(time.RFC3339Nano),
		Subject:   event.Subject.String(),
		Action:    event.Action,
		AssetID:   uint64(event.AssetID),
		Stage:     event.Stage,
		Amount:    event.Amount,
		Balance:   event.Balance,
		Sequence:  event.Sequence,
		Reason:    event.Reason,
		RequestID: event.RequestID,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal audit payload: %w", err)
	}
	return &kgo.Record{
		Topic: p.topic,
		Key:   []byte(event.Subject),
		Value: value,
		Headers: []kgo.RecordHeader{
			{Key: "category", Value: []byte(category)},
		},
	}, nil
}

// Emit publishes a single event. It satisfies the engine's AuditPublisher.
func (p *Publisher) Emit(ctx context.Context, event audit.Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = requestcontext.Now(ctx)
	}
	if event.RequestID == "" {
		event.RequestID = requestcontext.RequestID(ctx)
	}
	return p.Publish(ctx, []audit.Event{event})
}

// Publish produces a batch and waits for every acknowledgement.
func (p *Publisher) Publish(ctx context.Context, events []audit.Event) error {
	if len(events) == 0 {
		return nil
	}
	records := make([]*kgo.Record, 0, len(events))
	for _, event := range events {
		record, err := p.Encode(event)
		if err != nil {
			return err
		}
		records = append(records, record)
	}
	if err := p.client.ProduceSync(ctx, records...).FirstErr(); err != nil {
		if p.logger != nil {
			p.logger.ErrorContext(ctx, "failed to publish audit events",
				"topic", p.topic,
				"count", len(records),
				"error", err,
			)
		}
		return fmt.Errorf("produce audit events: %w", err)
	}
	return nil
}

// EnsureTopic creates the audit topic if it does not exist yet.
func EnsureTopic(ctx context.Context, client *kgo.Client, topic string, partitions int32, replicationFactor int16) error {
	admin := kadm.NewClient(client)
	responses, err := admin.CreateTopics(ctx, partitions, replicationFactor, nil, topic)
	if err != nil {
		return fmt.Errorf("create topic %s: %w", topic, err)
	}
	for _, resp := range responses {
		if resp.Err != nil && !errors.Is(resp.Err, kerr.TopicAlreadyExists) {
			return fmt.Errorf("create topic %s: %w", resp.Topic, resp.Err)
		}
	}
	return nil
}
