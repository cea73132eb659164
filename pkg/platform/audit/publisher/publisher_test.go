package publisher

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "evonft/pkg/domain"
	audit "evonft/pkg/platform/audit"
	"evonft/pkg/platform/audit/store/memory"
	"evonft/pkg/requestcontext"
)

func TestPublisher_SyncMode(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store)
	defer pub.Close()

	owner := id.OwnerID("alice")
	err := pub.Emit(context.Background(), audit.Event{
		Subject: owner,
		Action:  string(audit.EventAssetIssued),
		AssetID: 1,
	})
	require.NoError(t, err)

	events, err := pub.List(context.Background(), owner)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, string(audit.EventAssetIssued), events[0].Action)
	assert.Equal(t, audit.CategoryLedger, events[0].Category)
	assert.False(t, events[0].Timestamp.IsZero())
}

func TestPublisher_UsesRequestScopedValues(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store)

	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	ctx := requestcontext.WithTime(context.Background(), fixed)
	ctx = requestcontext.WithRequestID(ctx, "req-1")

	require.NoError(t, pub.Emit(ctx, audit.Event{Subject: "bob", Action: string(audit.EventRareBurned)}))

	events, err := pub.List(ctx, "bob")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, fixed, events[0].Timestamp)
	assert.Equal(t, "req-1", events[0].RequestID)
}

func TestPublisher_AsyncMode(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store, WithAsyncBuffer(10))

	owner := id.OwnerID("carol")
	err := pub.Emit(context.Background(), audit.Event{
		Subject: owner,
		Action:  string(audit.EventStageAdvanced),
	})
	require.NoError(t, err)

	// Close drains the buffer.
	require.NoError(t, pub.Close())

	events, err := pub.List(context.Background(), owner)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, string(audit.EventStageAdvanced), events[0].Action)
}

func TestPublisher_AsyncConcurrentEmit(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store, WithAsyncBuffer(4))

	const goroutines = 20
	var wg sync.WaitGroup
	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			assert.NoError(t, pub.Emit(context.Background(), audit.Event{Subject: "dave", Action: string(audit.EventActivityRecorded)}))
		}()
	}
	wg.Wait()
	require.NoError(t, pub.Close())

	events, err := pub.List(context.Background(), "dave")
	require.NoError(t, err)
	assert.Len(t, events, goroutines, "full buffer must fall back to synchronous appends, never drop")
}

func TestPublisher_EmitAfterClose(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store, WithAsyncBuffer(1))
	require.NoError(t, pub.Close())
	require.NoError(t, pub.Close())

	require.NoError(t, pub.Emit(context.Background(), audit.Event{Subject: "erin", Action: string(audit.EventRareAcquired)}))
	events, err := pub.List(context.Background(), "erin")
	require.NoError(t, err)
	assert.Len(t, events, 1)
}
