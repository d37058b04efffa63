//go:build integration

package kafka_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"

	id "curio/pkg/domain"
	audit "curio/pkg/platform/audit"
	auditkafka "curio/pkg/platform/audit/kafka"
	"curio/pkg/testutil/containers"
)

func TestPublisherRoundTrip(t *testing.T) {
	kc := containers.NewKafkaContainer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	publisher, err := auditkafka.NewPublisher(ctx, kc.Brokers,
		auditkafka.WithTopic("curio.test.transitions"))
	require.NoError(t, err)
	defer publisher.Close()

	sent := audit.Event{
		Category:  audit.CategoryMarket,
		Timestamp: time.Now().UTC().Truncate(time.Millisecond),
		Asset:     7,
		Actor:     "alice",
		Action:    string(audit.EventAssetSold),
		Amount:    500,
	}
	require.NoError(t, publisher.Emit(ctx, sent))

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(kc.Brokers...),
		kgo.ConsumeTopics("curio.test.transitions"),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	require.NoError(t, err)
	defer consumer.Close()

	fetches := consumer.PollFetches(ctx)
	require.NoError(t, fetches.Err())

	records := fetches.Records()
	require.Len(t, records, 1)
	assert.Equal(t, "7", string(records[0].Key))

	var got audit.Event
	require.NoError(t, json.Unmarshal(records[0].Value, &got))
	assert.Equal(t, sent.Action, got.Action)
	assert.Equal(t, id.AssetID(7), got.Asset)
	assert.Equal(t, uint64(500), got.Amount)
	assert.Equal(t, audit.CategoryMarket, got.Category)
}
