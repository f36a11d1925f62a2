// Package publisher ships audit events to Kafka so external compliance
// consumers can subscribe without touching the service's database.
package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"

	audit "veil/pkg/platform/audit"
)

// Kafka publishes audit events to a single topic, keyed by subject so one
// subject's trail stays ordered within a partition.
type Kafka struct {
	client *kgo.Client
	topic  string
	logger *slog.Logger
}

// NewKafka connects to the brokers and ensures the audit topic exists.
func NewKafka(ctx context.Context, brokers []string, topic string, logger *slog.Logger) (*Kafka, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}

	k := &Kafka{client: client, topic: topic, logger: logger}
	if err := k.ensureTopic(ctx); err != nil {
		client.Close()
		return nil, err
	}
	return k, nil
}

func (k *Kafka) ensureTopic(ctx context.Context) error {
	adm := kadm.NewClient(k.client)
	resp, err := adm.CreateTopic(ctx, 1, 1, nil, k.topic)
	if err != nil && !errors.Is(err, kerr.TopicAlreadyExists) {
		return fmt.Errorf("create audit topic: %w", err)
	}
	if resp.Err != nil && !errors.Is(resp.Err, kerr.TopicAlreadyExists) {
		return fmt.Errorf("create audit topic: %w", resp.Err)
	}
	return nil
}

// Publish produces one event synchronously. The worker calls this off the
// request path, so the latency cost is acceptable in exchange for knowing the
// event landed.
func (k *Kafka) Publish(ctx context.Context, event audit.Event) error {
	value, err := json.Marshal(event.Normalize())
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}
	record := &kgo.Record{
		Topic: k.topic,
		Key:   []byte(event.Subject.String()),
		Value: value,
	}
	if err := k.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce audit event: %w", err)
	}
	return nil
}

// Close flushes pending records and releases the client.
func (k *Kafka) Close() {
	k.client.Close()
}
