package memory

import (
	"context"
	"maps"
	"slices"
	"sync"

	id "linkage/pkg/domain"
	audit "linkage/pkg/platform/audit"
)

// InMemoryStore keeps history per edge. Appends are idempotent per event id.
type InMemoryStore struct {
	mu     sync.RWMutex
	seen   map[id.EventID]struct{}
	events map[id.EdgeID][]audit.HistoryEvent
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		seen:   make(map[id.EventID]struct{}),
		events: make(map[id.EdgeID][]audit.HistoryEvent),
	}
}

func (s *InMemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seen = make(map[id.EventID]struct{})
	s.events = make(map[id.EdgeID][]audit.HistoryEvent)
}

func (s *InMemoryStore) Append(_ context.Context, event audit.HistoryEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, dup := s.seen[event.ID]; dup {
		return nil
	}
	s.seen[event.ID] = struct{}{}
	event.OldValues = maps.Clone(event.OldValues)
	event.NewValues = maps.Clone(event.NewValues)
	s.events[event.EdgeID] = append(s.events[event.EdgeID], event)
	return nil
}

// ListByEdge returns the edge's history ordered by timestamp, oldest first.
func (s *InMemoryStore) ListByEdge(_ context.Context, edgeID id.EdgeID) ([]audit.HistoryEvent, error) {
	s.mu.RLock()
	out := slices.Clone(s.events[edgeID])
	s.mu.RUnlock()

	slices.SortStableFunc(out, func(a, b audit.HistoryEvent) int {
		return a.Timestamp.Compare(b.Timestamp)
	})
	return out, nil
}

// Count returns the number of stored events across all edges.
func (s *InMemoryStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.seen)
}
