//go:build integration

package kafka_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"

	"regpulse/internal/audit"
	"regpulse/internal/audit/kafka"
	"regpulse/pkg/testutil/containers"
)

func TestSinkProducesRoundTrippableEvents(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	redpanda := containers.GetManager().GetRedpanda(t)
	const topic = "regpulse.ingest.audit.test"

	sink, err := kafka.NewSink(ctx, redpanda.Brokers, topic)
	require.NoError(t, err)
	defer sink.Close()

	want := audit.Event{
		RunID:     "run-42",
		Title:     7,
		Date:      "2021-02-13",
		State:     "PERSISTED",
		Sections:  120,
		Timestamp: time.Now().UTC().Truncate(time.Millisecond),
	}
	require.NoError(t, sink.Append(ctx, want))

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(redpanda.Brokers...),
		kgo.ConsumeTopics(topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	require.NoError(t, err)
	defer consumer.Close()

	fetches := consumer.PollFetches(ctx)
	require.NoError(t, fetches.Err())
	records := fetches.Records()
	require.Len(t, records, 1)
	require.Equal(t, "run-42", string(records[0].Key))

	var got audit.Event
	require.NoError(t, json.Unmarshal(records[0].Value, &got))
	require.Equal(t, want, got)
}
