package party

import (
	"context"
	"fmt"
	"strings"
	"sync"

	id "linkage/pkg/domain"
)

// InMemory is a seedable registry for development and tests.
type InMemory struct {
	mu      sync.RWMutex
	parties map[Ref]bool
}

// NewInMemory creates an empty registry.
func NewInMemory() *InMemory {
	return &InMemory{parties: make(map[Ref]bool)}
}

// Put registers a party with the given active flag.
func (r *InMemory) Put(ref Ref, active bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.parties[ref] = active
}

// Remove forgets a party.
func (r *InMemory) Remove(ref Ref) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.parties, ref)
}

func (r *InMemory) Resolve(_ context.Context, ref Ref) (Resolution, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	active, ok := r.parties[ref]
	return Resolution{Exists: ok, Active: ok && active}, nil
}

// Seed registers parties from "kind:id" entries; a trailing ":inactive"
// registers the party as inactive.
func (r *InMemory) Seed(entries []string) error {
	for _, entry := range entries {
		parts := strings.Split(strings.TrimSpace(entry), ":")
		if len(parts) < 2 || len(parts) > 3 {
			return fmt.Errorf("party seed %q: want kind:id[:inactive]", entry)
		}
		kind := Kind(strings.ToLower(parts[0]))
		if kind != KindIndividual && kind != KindOrganization {
			return fmt.Errorf("party seed %q: unknown kind %q", entry, parts[0])
		}
		partyID, err := id.ParsePartyID(parts[1])
		if err != nil {
			return fmt.Errorf("party seed %q: %w", entry, err)
		}
		active := true
		if len(parts) == 3 {
			if parts[2] != "inactive" {
				return fmt.Errorf("party seed %q: unknown flag %q", entry, parts[2])
			}
			active = false
		}
		r.Put(Ref{ID: partyID, Kind: kind}, active)
	}
	return nil
}
