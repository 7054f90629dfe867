package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "linkage/pkg/domain"
	audit "linkage/pkg/platform/audit"
)

func TestInMemoryStore_AppendIsIdempotentPerEventID(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()
	edgeID := id.NewEdgeID()
	event := audit.HistoryEvent{
		ID:         id.NewEventID(),
		EdgeID:     edgeID,
		ChangeType: audit.ChangeCreated,
		Timestamp:  time.Now(),
	}

	require.NoError(t, store.Append(ctx, event))
	require.NoError(t, store.Append(ctx, event))

	events, err := store.ListByEdge(ctx, edgeID)
	require.NoError(t, err)
	assert.Len(t, events, 1)
	assert.Equal(t, 1, store.Count())
}

func TestInMemoryStore_ListByEdgeOrdersByTimestamp(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()
	edgeID := id.NewEdgeID()
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	require.NoError(t, store.Append(ctx, audit.HistoryEvent{ID: id.NewEventID(), EdgeID: edgeID, ChangeType: audit.ChangeRiskUpdated, Timestamp: base.Add(time.Hour)}))
	require.NoError(t, store.Append(ctx, audit.HistoryEvent{ID: id.NewEventID(), EdgeID: edgeID, ChangeType: audit.ChangeCreated, Timestamp: base}))
	require.NoError(t, store.Append(ctx, audit.HistoryEvent{ID: id.NewEventID(), EdgeID: id.NewEdgeID(), ChangeType: audit.ChangeCreated, Timestamp: base}))

	events, err := store.ListByEdge(ctx, edgeID)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, audit.ChangeCreated, events[0].ChangeType)
	assert.Equal(t, audit.ChangeRiskUpdated, events[1].ChangeType)
}

func TestInMemoryStore_StoredValuesAreIsolated(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()
	edgeID := id.NewEdgeID()
	newValues := map[string]any{"risk_level": "high"}

	require.NoError(t, store.Append(ctx, audit.HistoryEvent{ID: id.NewEventID(), EdgeID: edgeID, NewValues: newValues}))
	newValues["risk_level"] = "low"

	events, err := store.ListByEdge(ctx, edgeID)
	require.NoError(t, err)
	assert.Equal(t, "high", events[0].NewValues["risk_level"])
}
