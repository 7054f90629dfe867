package edge

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"linkage/internal/relationship/models"
	id "linkage/pkg/domain"
	"linkage/pkg/platform/sentinel"
)

type InMemoryStoreSuite struct {
	suite.Suite
	store *InMemory
	ctx   context.Context
	now   time.Time
}

func TestInMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryStoreSuite))
}

func (s *InMemoryStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
	s.now = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
}

func (s *InMemoryStoreSuite) newEdge(primary, related, relType string) *models.Edge {
	e, err := models.NewEdge(models.NewEdgeParams{
		ID:               id.NewEdgeID(),
		Kind:             models.KindOrganization,
		PrimaryPartyID:   id.PartyID(primary),
		RelatedPartyID:   id.PartyID(related),
		RelationshipType: relType,
		EffectiveFrom:    time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
		Actor:            "analyst-1",
	}, s.now)
	s.Require().NoError(err)
	return e
}

func (s *InMemoryStoreSuite) TestCreateAndFind() {
	s.Run("creates and finds edge by id", func() {
		e := s.newEdge("org-a", "org-b", "subsidiary")
		s.Require().NoError(s.store.Create(s.ctx, e))

		found, err := s.store.FindByID(s.ctx, e.ID)
		s.Require().NoError(err)
		s.Equal(e.RelationshipType, found.RelationshipType)
	})

	s.Run("returns ErrNotFound for unknown id", func() {
		_, err := s.store.FindByID(s.ctx, id.NewEdgeID())
		s.ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("returned edges are copies", func() {
		e := s.newEdge("org-c", "org-d", "subsidiary")
		s.Require().NoError(s.store.Create(s.ctx, e))
		found, err := s.store.FindByID(s.ctx, e.ID)
		s.Require().NoError(err)
		found.Notes = "changed"

		again, err := s.store.FindByID(s.ctx, e.ID)
		s.Require().NoError(err)
		s.Empty(again.Notes)
	})
}

func (s *InMemoryStoreSuite) TestTupleUniqueness() {
	s.Run("rejects duplicate live tuple", func() {
		first := s.newEdge("org-a", "org-b", "subsidiary")
		s.Require().NoError(s.store.Create(s.ctx, first))

		err := s.store.Create(s.ctx, s.newEdge("org-a", "org-b", "subsidiary"))
		s.ErrorIs(err, sentinel.ErrConflict)
	})

	s.Run("allows a different type for the same pair", func() {
		s.NoError(s.store.Create(s.ctx, s.newEdge("org-a", "org-b", "shareholder")))
	})

	s.Run("frees the tuple after soft delete", func() {
		first := s.newEdge("org-x", "org-y", "subsidiary")
		s.Require().NoError(s.store.Create(s.ctx, first))

		_, err := s.store.Execute(s.ctx, first.ID, models.GroupDeletion,
			func(*models.Edge) error { return nil },
			func(e *models.Edge) { e.ApplySoftDelete("analyst-1", s.now) },
		)
		s.Require().NoError(err)
		s.NoError(s.store.Create(s.ctx, s.newEdge("org-x", "org-y", "subsidiary")))
	})

	s.Run("concurrent creates admit exactly one", func() {
		const goroutines = 32
		var wg sync.WaitGroup
		var ok, conflicts atomic.Int32
		for range goroutines {
			wg.Add(1)
			go func() {
				defer wg.Done()
				err := s.store.Create(s.ctx, s.newEdge("org-race", "org-target", "subsidiary"))
				switch {
				case err == nil:
					ok.Add(1)
				case errors.Is(err, sentinel.ErrConflict):
					conflicts.Add(1)
				}
			}()
		}
		wg.Wait()
		s.Equal(int32(1), ok.Load())
		s.Equal(int32(goroutines-1), conflicts.Load())
	})
}

func (s *InMemoryStoreSuite) TestList() {
	for i := range 5 {
		e := s.newEdge("org-hub", fmt.Sprintf("org-%d", i), "subsidiary")
		e.CreatedAt = s.now.Add(time.Duration(i) * time.Minute)
		s.Require().NoError(s.store.Create(s.ctx, e))
	}
	s.Require().NoError(s.store.Create(s.ctx, s.newEdge("org-0", "org-hub", "shareholder")))
	s.Require().NoError(s.store.Create(s.ctx, s.newEdge("org-other", "org-else", "subsidiary")))

	s.Run("party lookup unions both roles", func() {
		res, err := s.store.List(s.ctx, models.Filter{PartyID: "org-hub"}, models.Unbounded(), s.now)
		s.Require().NoError(err)
		s.Equal(6, res.Total)
	})

	s.Run("role narrows party lookup", func() {
		res, err := s.store.List(s.ctx, models.Filter{PartyID: "org-hub", PartyRole: models.RoleRelated}, models.Unbounded(), s.now)
		s.Require().NoError(err)
		s.Equal(1, res.Total)
		s.Equal("shareholder", res.Edges[0].RelationshipType)
	})

	s.Run("pages newest first and reports full total", func() {
		res, err := s.store.List(s.ctx, models.Filter{PartyID: "org-hub", PartyRole: models.RolePrimary}, models.Page{Limit: 2}, s.now)
		s.Require().NoError(err)
		s.Equal(5, res.Total)
		s.Require().Len(res.Edges, 2)
		s.Equal(id.PartyID("org-4"), res.Edges[0].RelatedPartyID)
		s.Equal(id.PartyID("org-3"), res.Edges[1].RelatedPartyID)
	})

	s.Run("offset past the end yields empty page", func() {
		res, err := s.store.List(s.ctx, models.Filter{}, models.Page{Limit: 10, Offset: 100}, s.now)
		s.Require().NoError(err)
		s.Equal(7, res.Total)
		s.Empty(res.Edges)
	})
}

func (s *InMemoryStoreSuite) TestStatisticsMatchList() {
	risky := s.newEdge("org-a", "org-b", "subsidiary")
	risky.ApplyRisk(models.RiskChange{RiskLevel: models.RiskCritical}, "analyst-1", s.now)
	s.Require().NoError(s.store.Create(s.ctx, risky))

	expired := s.newEdge("org-a", "org-c", "subsidiary")
	to := s.now.AddDate(0, -1, 0)
	expired.EffectiveTo = &to
	s.Require().NoError(s.store.Create(s.ctx, expired))

	verified := s.newEdge("org-a", "org-d", "director")
	verified.ApplyVerify("manual", "analyst-1", s.now)
	s.Require().NoError(s.store.Create(s.ctx, verified))

	deleted := s.newEdge("org-a", "org-e", "director")
	deleted.ApplySoftDelete("analyst-1", s.now)
	s.Require().NoError(s.store.Create(s.ctx, deleted))

	filters := []models.Filter{
		{},
		{PartyID: "org-a"},
		{RelationshipTypes: []string{"director"}},
		{CurrentOnly: true},
		{IncludeDeleted: true},
		{Search: "sub"},
	}
	for i, f := range filters {
		stats, err := s.store.Statistics(s.ctx, f, s.now)
		s.Require().NoError(err)
		list, err := s.store.List(s.ctx, f, models.Unbounded(), s.now)
		s.Require().NoError(err)
		s.Equal(len(list.Edges), stats.Total, "filter %d", i)
		s.Equal(list.Total, stats.Total, "filter %d", i)
	}

	stats, err := s.store.Statistics(s.ctx, models.Filter{}, s.now)
	s.Require().NoError(err)
	s.Equal(3, stats.Total)
	s.Equal(2, stats.Active)
	s.Equal(1, stats.Expired)
	s.Equal(1, stats.HighRisk)
	s.Equal(2, stats.Unverified)
	s.Equal(2, stats.ByType["subsidiary"])
	s.Equal(1, stats.ByRiskLevel[models.RiskCritical])
	s.Equal(1, stats.ByVerificationStatus[models.VerificationVerified])
	s.Equal(3, stats.ByKind[models.KindOrganization])
}

func (s *InMemoryStoreSuite) TestExecute() {
	e := s.newEdge("org-a", "org-b", "subsidiary")
	s.Require().NoError(s.store.Create(s.ctx, e))

	s.Run("validation failure leaves edge untouched", func() {
		boom := errors.New("nope")
		_, err := s.store.Execute(s.ctx, e.ID, models.GroupRisk,
			func(*models.Edge) error { return boom },
			func(e *models.Edge) { e.RiskLevel = models.RiskHigh },
		)
		s.ErrorIs(err, boom)
		found, _ := s.store.FindByID(s.ctx, e.ID)
		s.Equal(models.RiskLow, found.RiskLevel)
	})

	s.Run("mutation persists", func() {
		updated, err := s.store.Execute(s.ctx, e.ID, models.GroupRisk,
			func(*models.Edge) error { return nil },
			func(e *models.Edge) { e.ApplyRisk(models.RiskChange{RiskLevel: models.RiskHigh}, "analyst-2", s.now) },
		)
		s.Require().NoError(err)
		s.True(updated.IsHighRisk)
		found, _ := s.store.FindByID(s.ctx, e.ID)
		s.True(found.IsHighRisk)
	})

	s.Run("unknown id returns ErrNotFound", func() {
		_, err := s.store.Execute(s.ctx, id.NewEdgeID(), models.GroupRisk,
			func(*models.Edge) error { return nil }, func(*models.Edge) {})
		s.ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("concurrent writers on different groups keep both changes", func() {
		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, _ = s.store.Execute(s.ctx, e.ID, models.GroupEscalation, func(*models.Edge) error { return nil },
				func(e *models.Edge) { e.ApplyEscalation("team", "reason", "analyst-1", s.now) })
		}()
		go func() {
			defer wg.Done()
			next := s.now.AddDate(0, 1, 0)
			_, _ = s.store.Execute(s.ctx, e.ID, models.GroupReview, func(*models.Edge) error { return nil },
				func(e *models.Edge) { e.ApplyReview(&next, "analyst-2", s.now) })
		}()
		wg.Wait()

		found, err := s.store.FindByID(s.ctx, e.ID)
		s.Require().NoError(err)
		s.True(found.IsEscalated)
		s.NotNil(found.NextReviewDate)
	})
}
