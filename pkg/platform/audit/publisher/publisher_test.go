package publisher

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "linkage/pkg/domain"
	audit "linkage/pkg/platform/audit"
	"linkage/pkg/platform/audit/store/memory"
	"linkage/pkg/platform/circuit"
	"linkage/pkg/requestcontext"
)

var quietLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// flakySink fails the first failures appends, then delegates.
type flakySink struct {
	mu       sync.Mutex
	failures int
	calls    int
	next     audit.Sink
}

func (s *flakySink) Append(ctx context.Context, event audit.HistoryEvent) error {
	s.mu.Lock()
	s.calls++
	fail := s.calls <= s.failures
	s.mu.Unlock()
	if fail {
		return errors.New("sink unavailable")
	}
	return s.next.Append(ctx, event)
}

func (s *flakySink) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func newEvent(edgeID id.EdgeID, change audit.ChangeType) audit.HistoryEvent {
	return audit.HistoryEvent{EdgeID: edgeID, EdgeKind: "organization", ChangeType: change}
}

func TestPublisher_FlushDelivers(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := New(store, WithLogger(quietLogger))
	edgeID := id.NewEdgeID()

	pub.Emit(context.Background(), newEvent(edgeID, audit.ChangeCreated))
	assert.Equal(t, 1, pub.Pending())

	require.NoError(t, pub.Flush(context.Background()))

	events, err := store.ListByEdge(context.Background(), edgeID)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, audit.ChangeCreated, events[0].ChangeType)
	assert.Equal(t, 0, pub.Pending())
}

func TestPublisher_StampsFromContext(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := New(store, WithLogger(quietLogger))
	edgeID := id.NewEdgeID()
	fixed := time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)

	ctx := requestcontext.WithTime(context.Background(), fixed)
	ctx = requestcontext.WithActor(ctx, "officer-1", nil)
	ctx = requestcontext.WithRequestID(ctx, "req-42")

	pub.Emit(ctx, newEvent(edgeID, audit.ChangeRiskUpdated))
	require.NoError(t, pub.Flush(context.Background()))

	events, err := store.ListByEdge(context.Background(), edgeID)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.False(t, events[0].ID.IsNil())
	assert.Equal(t, fixed, events[0].Timestamp)
	assert.Equal(t, id.ActorID("officer-1"), events[0].ActorID)
	assert.Equal(t, "req-42", events[0].RequestID)
}

func TestPublisher_PreservesExplicitFields(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := New(store, WithLogger(quietLogger))
	edgeID := id.NewEdgeID()
	custom := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	event := newEvent(edgeID, audit.ChangeDeleted)
	event.Timestamp = custom
	event.ActorID = "officer-2"

	ctx := requestcontext.WithActor(context.Background(), "someone-else", nil)
	pub.Emit(ctx, event)
	require.NoError(t, pub.Flush(context.Background()))

	events, _ := store.ListByEdge(context.Background(), edgeID)
	require.Len(t, events, 1)
	assert.Equal(t, custom, events[0].Timestamp)
	assert.Equal(t, id.ActorID("officer-2"), events[0].ActorID)
}

func TestPublisher_RetriesTransientFailures(t *testing.T) {
	store := memory.NewInMemoryStore()
	sink := &flakySink{failures: 2, next: store}
	pub := New(sink, WithLogger(quietLogger), WithMaxAttempts(3), WithRetryBackoff(0))
	edgeID := id.NewEdgeID()

	pub.Emit(context.Background(), newEvent(edgeID, audit.ChangeEscalated))
	require.NoError(t, pub.Flush(context.Background()))

	assert.Equal(t, 3, sink.Calls())
	events, _ := store.ListByEdge(context.Background(), edgeID)
	assert.Len(t, events, 1)
}

func TestPublisher_AbandonsAfterMaxAttempts(t *testing.T) {
	store := memory.NewInMemoryStore()
	sink := &flakySink{failures: 100, next: store}
	pub := New(sink,
		WithLogger(quietLogger),
		WithMaxAttempts(2),
		WithRetryBackoff(0),
		WithBreaker(circuit.New("test", circuit.WithFailureThreshold(1000))),
	)

	pub.Emit(context.Background(), newEvent(id.NewEdgeID(), audit.ChangeCreated))
	require.NoError(t, pub.Flush(context.Background()), "abandoned events do not fail the flush")

	assert.Equal(t, 2, sink.Calls())
	assert.Equal(t, 0, pub.Pending())
	assert.Equal(t, 0, store.Count())
}

func TestPublisher_OpenCircuitKeepsEventsBuffered(t *testing.T) {
	store := memory.NewInMemoryStore()
	sink := &flakySink{failures: 1, next: store}
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	breaker := circuit.New("test",
		circuit.WithFailureThreshold(1),
		circuit.WithCooldown(time.Minute),
		circuit.WithClock(func() time.Time { return now }),
	)
	pub := New(sink, WithLogger(quietLogger), WithMaxAttempts(3), WithRetryBackoff(0), WithBreaker(breaker))
	edgeID := id.NewEdgeID()

	pub.Emit(context.Background(), newEvent(edgeID, audit.ChangeCreated))
	pub.Emit(context.Background(), newEvent(edgeID, audit.ChangeRiskUpdated))

	err := pub.Flush(context.Background())
	require.Error(t, err)
	assert.Equal(t, 2, pub.Pending(), "events stay queued while the circuit is open")

	now = now.Add(2 * time.Minute)
	require.NoError(t, pub.Flush(context.Background()))

	events, _ := store.ListByEdge(context.Background(), edgeID)
	require.Len(t, events, 2)
	assert.Equal(t, audit.ChangeCreated, events[0].ChangeType, "order preserved across requeue")
	assert.Equal(t, audit.ChangeRiskUpdated, events[1].ChangeType)
}

func TestPublisher_FullBufferDropsOldest(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := New(store, WithLogger(quietLogger), WithBufferSize(2))
	first, second, third := id.NewEdgeID(), id.NewEdgeID(), id.NewEdgeID()

	pub.Emit(context.Background(), newEvent(first, audit.ChangeCreated))
	pub.Emit(context.Background(), newEvent(second, audit.ChangeCreated))
	pub.Emit(context.Background(), newEvent(third, audit.ChangeCreated))

	assert.Equal(t, int64(1), pub.Dropped())
	require.NoError(t, pub.Flush(context.Background()))

	evicted, _ := store.ListByEdge(context.Background(), first)
	assert.Empty(t, evicted)
	kept, _ := store.ListByEdge(context.Background(), third)
	assert.Len(t, kept, 1)
}

func TestPublisher_RunDrainsOnShutdown(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := New(store, WithLogger(quietLogger), WithFlushInterval(time.Hour))
	edgeID := id.NewEdgeID()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- pub.Run(ctx) }()

	for range 10 {
		pub.Emit(context.Background(), newEvent(edgeID, audit.ChangeDetailsUpdated))
	}
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("publisher did not stop")
	}

	events, _ := store.ListByEdge(context.Background(), edgeID)
	assert.Len(t, events, 10)
}

func TestPublisher_ConcurrentEmit(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := New(store, WithLogger(quietLogger), WithBufferSize(1000))

	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			pub.Emit(context.Background(), newEvent(id.NewEdgeID(), audit.ChangeCreated))
		}()
	}
	wg.Wait()

	require.NoError(t, pub.Flush(context.Background()))
	assert.Equal(t, 50, store.Count())
}
