package audit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryStoreGroupsByRun(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()

	require.NoError(t, store.Append(ctx, Event{RunID: "run-1", Title: 7, State: "FETCHING"}))
	require.NoError(t, store.Append(ctx, Event{RunID: "run-1", Title: 7, State: "PERSISTED", Sections: 12}))
	require.NoError(t, store.Append(ctx, Event{RunID: "run-2", Title: 40, State: "FAILED", Error: "boom"}))

	got, err := store.ListByRun(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "FETCHING", got[0].State)
	assert.Equal(t, 12, got[1].Sections)

	got, err = store.ListByRun(ctx, "run-2")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "boom", got[0].Error)

	got, err = store.ListByRun(ctx, "missing")
	require.NoError(t, err)
	assert.Empty(t, got)
}

type failingSink struct{ err error }

func (f *failingSink) Append(context.Context, Event) error { return f.err }

func TestPublisherEmitsToAllSinks(t *testing.T) {
	ctx := context.Background()
	first := NewInMemoryStore()
	second := NewInMemoryStore()
	pub := NewPublisher(first, second)

	require.NoError(t, pub.Emit(ctx, Event{RunID: "run-1", Title: 7, State: "PARSING"}))

	for _, store := range []*InMemoryStore{first, second} {
		got, err := store.ListByRun(ctx, "run-1")
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.False(t, got[0].Timestamp.IsZero(), "publisher should stamp events")
	}
}

func TestPublisherContinuesPastFailingSink(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("sink down")
	healthy := NewInMemoryStore()
	pub := NewPublisher(&failingSink{err: boom}, healthy)

	err := pub.Emit(ctx, Event{RunID: "run-1", State: "FAILED", Timestamp: time.Now()})
	assert.ErrorIs(t, err, boom)

	got, lerr := healthy.ListByRun(ctx, "run-1")
	require.NoError(t, lerr)
	assert.Len(t, got, 1)
}
