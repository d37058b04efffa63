// Package kafka ships audit events to a Kafka topic so downstream consumers
// (indexers, the presentation layer's activity feed) can replay every
// registry transition without polling the database.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kgo"

	id "curio/pkg/domain"
	audit "curio/pkg/platform/audit"
)

const DefaultTopic = "curio.registry.transitions"

type Publisher struct {
	client *kgo.Client
	topic  string
}

type Option func(*Publisher)

func WithTopic(topic string) Option {
	return func(p *Publisher) {
		p.topic = topic
	}
}

// NewPublisher connects to the brokers and ensures the topic exists.
// Records are keyed by asset ID so one asset's transitions stay ordered
// within a partition, mirroring the ledger's per-asset ordering.
func NewPublisher(ctx context.Context, brokers []string, opts ...Option) (*Publisher, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.ProducerBatchMaxBytes(1<<20),
		kgo.ProduceRequestTimeout(10*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka client: %w", err)
	}

	p := &Publisher{client: client, topic: DefaultTopic}
	for _, opt := range opts {
		opt(p)
	}

	if err := p.ensureTopic(ctx); err != nil {
		client.Close()
		return nil, err
	}
	return p, nil
}

func (p *Publisher) ensureTopic(ctx context.Context) error {
	adm := kadm.NewClient(p.client)
	topics, err := adm.ListTopics(ctx, p.topic)
	if err != nil {
		return fmt.Errorf("list topics: %w", err)
	}
	if topics.Has(p.topic) {
		return nil
	}
	if _, err := adm.CreateTopic(ctx, 1, 1, nil, p.topic); err != nil {
		return fmt.Errorf("create topic %s: %w", p.topic, err)
	}
	return nil
}

// Emit produces the event synchronously. Failures surface to the caller; the
// outbox relay is the delivery path that retries, this path is best effort
// for live consumers.
func (p *Publisher) Emit(ctx context.Context, event audit.Event) error {
	if event.Category == "" {
		event.Category = audit.AuditEvent(event.Action).Category()
	}
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}
	record := &kgo.Record{
		Topic: p.topic,
		Key:   []byte(event.Asset.String()),
		Value: value,
	}
	if err := p.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce audit event: %w", err)
	}
	return nil
}

// ListByAsset is not supported on the Kafka sink; it exists so the publisher
// can stand in as an audit.Store in fan-out configurations where reads go to
// the database store.
func (p *Publisher) ListByAsset(context.Context, id.AssetID) ([]audit.Event, error) {
	return nil, fmt.Errorf("kafka sink does not support reads")
}

func (p *Publisher) Close() {
	p.client.Close()
}
