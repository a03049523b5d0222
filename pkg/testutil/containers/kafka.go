//go:build integration

package containers

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/testcontainers/testcontainers-go/modules/kafka"
	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kgo"
)

type KafkaContainer struct {
	Container *kafka.KafkaContainer
	Brokers   string
}

func startKafka(t *testing.T) *KafkaContainer {
	t.Helper()
	ctx := context.Background()

	container, err := kafka.Run(ctx, "redpandadata/redpanda:latest", kafka.WithClusterID("kycgate-test"))
	if err != nil {
		t.Fatalf("start kafka: %v", err)
	}
	brokers, err := container.Brokers(ctx)
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("kafka brokers: %v", err)
	}
	return &KafkaContainer{Container: container, Brokers: strings.Join(brokers, ",")}
}

func (k *KafkaContainer) client(t *testing.T, opts ...kgo.Opt) *kgo.Client {
	t.Helper()
	client, err := kgo.NewClient(append([]kgo.Opt{kgo.SeedBrokers(strings.Split(k.Brokers, ",")...)}, opts...)...)
	if err != nil {
		t.Fatalf("kafka client: %v", err)
	}
	return client
}

// AuditTopic creates a fresh audit topic with the given partition count, so
// tests sharing the broker never see each other's records.
func (k *KafkaContainer) AuditTopic(t *testing.T, partitions int32) string {
	t.Helper()
	topic := "kycgate-audit-" + uuid.NewString()[:8]

	client := k.client(t)
	defer client.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	resp, err := kadm.NewClient(client).CreateTopics(ctx, partitions, 1, nil, topic)
	for _, r := range resp {
		if r.Err != nil {
			err = r.Err
		}
	}
	if err != nil {
		t.Fatalf("create topic %s: %v", topic, err)
	}
	return topic
}

// ReadAll consumes topic from the start until want records arrive or the
// timeout passes, and returns what it got.
func (k *KafkaContainer) ReadAll(t *testing.T, topic string, want int, timeout time.Duration) []*kgo.Record {
	t.Helper()
	client := k.client(t,
		kgo.ConsumeTopics(topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	var records []*kgo.Record
	for len(records) < want && ctx.Err() == nil {
		fetches := client.PollFetches(ctx)
		fetches.EachRecord(func(r *kgo.Record) {
			records = append(records, r)
		})
	}
	return records
}
