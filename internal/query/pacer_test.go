package query

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenBucketBurstThenSpacing(t *testing.T) {
	now := time.Unix(0, 0)
	bucket := NewTokenBucket(100*time.Millisecond, 2)
	bucket.now = func() time.Time { return now }

	ctx := context.Background()

	// Burst capacity drains without waiting.
	start := time.Now()
	require.NoError(t, bucket.Wait(ctx))
	require.NoError(t, bucket.Wait(ctx))
	assert.Less(t, time.Since(start), 50*time.Millisecond)

	// Dry bucket waits roughly one interval.
	start = time.Now()
	require.NoError(t, bucket.Wait(ctx))
	assert.GreaterOrEqual(t, time.Since(start), 90*time.Millisecond)
}

func TestTokenBucketRefillsOverTime(t *testing.T) {
	now := time.Unix(0, 0)
	bucket := NewTokenBucket(time.Second, 1)
	bucket.now = func() time.Time { return now }

	ctx := context.Background()
	require.NoError(t, bucket.Wait(ctx))

	// Three intervals later the bucket holds a token again, capped at burst.
	now = now.Add(3 * time.Second)
	start := time.Now()
	require.NoError(t, bucket.Wait(ctx))
	assert.Less(t, time.Since(start), 100*time.Millisecond)
}

func TestTokenBucketHonorsCancellation(t *testing.T) {
	bucket := NewTokenBucket(time.Hour, 1)
	ctx, cancel := context.WithCancel(context.Background())

	require.NoError(t, bucket.Wait(ctx))
	cancel()
	assert.ErrorIs(t, bucket.Wait(ctx), context.Canceled)
}
