package edge

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"linkage/internal/relationship/models"
	"linkage/internal/relationship/query"
	id "linkage/pkg/domain"
	"linkage/pkg/platform/sentinel"
)

// InMemory stores edges in process. A party index tagged with endpoint role
// narrows party lookups before the shared predicate runs, so party queries never
// scan the whole graph.
type InMemory struct {
	mu      sync.RWMutex
	edges   map[id.EdgeID]*models.Edge
	live    map[models.TupleKey]id.EdgeID
	byParty map[id.PartyID]map[id.EdgeID]models.PartyRole
}

// NewInMemory creates an empty in-memory edge store.
func NewInMemory() *InMemory {
	return &InMemory{
		edges:   make(map[id.EdgeID]*models.Edge),
		live:    make(map[models.TupleKey]id.EdgeID),
		byParty: make(map[id.PartyID]map[id.EdgeID]models.PartyRole),
	}
}

// Create stores a new edge. A live edge with the same key yields ErrConflict.
func (s *InMemory) Create(_ context.Context, e *models.Edge) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.edges[e.ID]; exists {
		return fmt.Errorf("edge %s: %w", e.ID, sentinel.ErrConflict)
	}
	key := e.Key()
	if !e.IsDeleted() {
		if _, taken := s.live[key]; taken {
			return fmt.Errorf("edge %s: %w", key, sentinel.ErrConflict)
		}
		s.live[key] = e.ID
	}
	s.edges[e.ID] = e.Clone()
	s.index(e.PrimaryPartyID, e.ID, models.RolePrimary)
	s.index(e.RelatedPartyID, e.ID, models.RoleRelated)
	return nil
}

func (s *InMemory) index(party id.PartyID, edgeID id.EdgeID, role models.PartyRole) {
	m, ok := s.byParty[party]
	if !ok {
		m = make(map[id.EdgeID]models.PartyRole)
		s.byParty[party] = m
	}
	m[edgeID] = role
}

// FindByID returns the edge, including soft-deleted ones.
func (s *InMemory) FindByID(_ context.Context, edgeID id.EdgeID) (*models.Edge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.edges[edgeID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return e.Clone(), nil
}

// List returns a page of edges matching filter, newest first, plus the total match count.
func (s *InMemory) List(_ context.Context, filter models.Filter, page models.Page, now time.Time) (*models.ListResult, error) {
	pred := query.Build(filter, now)

	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []*models.Edge
	s.each(filter, func(e *models.Edge) {
		if pred.Match(e) {
			matched = append(matched, e)
		}
	})
	slices.SortFunc(matched, compareEdges)

	result := &models.ListResult{Total: len(matched), Limit: page.Limit, Offset: page.Offset}
	start, end := window(len(matched), page)
	result.Edges = make([]*models.Edge, 0, end-start)
	for _, e := range matched[start:end] {
		result.Edges = append(result.Edges, e.Clone())
	}
	return result, nil
}

// Statistics folds counters over matching edges in one pass without copying them.
func (s *InMemory) Statistics(_ context.Context, filter models.Filter, now time.Time) (*models.Statistics, error) {
	pred := query.Build(filter, now)
	metrics := query.Metrics(now)
	stats := models.NewStatistics()

	s.mu.RLock()
	defer s.mu.RUnlock()

	s.each(filter, func(e *models.Edge) {
		if !pred.Match(e) {
			return
		}
		stats.Total++
		for _, m := range metrics {
			if m.Predicate.Match(e) {
				m.Add(stats, 1)
			}
		}
		for _, g := range query.Groups {
			key, _ := g.Field.Value(e)
			g.Add(stats, key, 1)
		}
	})
	return stats, nil
}

// each visits candidate edges: the party's index entries when the filter names
// a party, otherwise every edge. Callers hold the read lock.
func (s *InMemory) each(filter models.Filter, fn func(*models.Edge)) {
	if filter.PartyID.IsNil() {
		for _, e := range s.edges {
			fn(e)
		}
		return
	}
	for edgeID, role := range s.byParty[filter.PartyID] {
		if filter.PartyRole != models.RoleAny && filter.PartyRole != role {
			continue
		}
		fn(s.edges[edgeID])
	}
}

// Execute runs validate and mutate on one edge under the store lock and returns
// the updated copy. The field group is informational here; the whole record is
// replaced under the same lock.
func (s *InMemory) Execute(_ context.Context, edgeID id.EdgeID, _ models.FieldGroup, validate func(*models.Edge) error, mutate func(*models.Edge)) (*models.Edge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.edges[edgeID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	working := stored.Clone()
	if err := validate(working); err != nil {
		return nil, err
	}
	wasDeleted := working.IsDeleted()
	mutate(working)
	if !wasDeleted && working.IsDeleted() {
		if s.live[working.Key()] == working.ID {
			delete(s.live, working.Key())
		}
	}
	s.edges[edgeID] = working
	return working.Clone(), nil
}

func compareEdges(a, b *models.Edge) int {
	if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
		return c
	}
	switch as, bs := a.ID.String(), b.ID.String(); {
	case as < bs:
		return -1
	case as > bs:
		return 1
	}
	return 0
}

func window(n int, page models.Page) (int, int) {
	if page.IsUnbounded() {
		return 0, n
	}
	start := min(page.Offset, n)
	end := min(start+page.Limit, n)
	return start, end
}
