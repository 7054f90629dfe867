package service_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"linkage/internal/party"
	"linkage/internal/relationship/lock"
	"linkage/internal/relationship/models"
	"linkage/internal/relationship/service"
	"linkage/internal/relationship/service/mocks"
	"linkage/internal/relationship/store/edge"
	id "linkage/pkg/domain"
	dErrors "linkage/pkg/domain-errors"
	"linkage/pkg/platform/audit"
	"linkage/pkg/platform/audit/publisher"
	auditmemory "linkage/pkg/platform/audit/store/memory"
	"linkage/pkg/platform/sentinel"
	"linkage/pkg/requestcontext"
)

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks Store,PartyRegistry,Locker,HistoryEmitter,HistoryReader,Authorizer
type ServiceSuite struct {
	suite.Suite
	ctx      context.Context
	now      time.Time
	ctrl     *gomock.Controller
	store    *edge.InMemory
	registry *party.InMemory
	emitter  *mocks.MockHistoryEmitter
	service  *service.Service

	mu     sync.Mutex
	events []audit.HistoryEvent
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.now = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(context.Background(), s.now)
	s.ctrl = gomock.NewController(s.T())
	s.store = edge.NewInMemory()
	s.registry = party.NewInMemory()
	for _, org := range []string{"org-1", "org-2", "org-3"} {
		s.registry.Put(party.Ref{ID: id.PartyID(org), Kind: party.KindOrganization}, true)
	}
	for _, ind := range []string{"ind-1", "ind-2", "ind-3"} {
		s.registry.Put(party.Ref{ID: id.PartyID(ind), Kind: party.KindIndividual}, true)
	}
	s.registry.Put(party.Ref{ID: "ind-dormant", Kind: party.KindIndividual}, false)

	s.events = nil
	s.emitter = mocks.NewMockHistoryEmitter(s.ctrl)
	s.emitter.EXPECT().Emit(gomock.Any(), gomock.Any()).Do(func(_ context.Context, e audit.HistoryEvent) {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.events = append(s.events, e)
	}).AnyTimes()

	s.service = service.New(s.store, s.registry,
		service.WithHistory(s.emitter),
		service.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
}

func (s *ServiceSuite) at(t time.Time) context.Context {
	return requestcontext.WithTime(context.Background(), t)
}

func (s *ServiceSuite) recorded() []audit.HistoryEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]audit.HistoryEvent(nil), s.events...)
}

func (s *ServiceSuite) resetEvents() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = nil
}

func (s *ServiceSuite) requireCode(err error, code dErrors.Code) *dErrors.Error {
	s.T().Helper()
	s.Require().Error(err)
	de, ok := dErrors.As(err)
	s.Require().True(ok, "expected domain error, got %v", err)
	s.Require().Equal(code, de.Code, de.Error())
	return de
}

func (s *ServiceSuite) createRequest(kind models.Kind, primary, related, relType string) *models.CreateRequest {
	from := s.now.AddDate(-1, 0, 0)
	return &models.CreateRequest{
		Kind:             kind,
		PrimaryPartyID:   primary,
		RelatedPartyID:   related,
		RelationshipType: relType,
		EffectiveFrom:    &from,
		Actor:            "analyst-1",
	}
}

func (s *ServiceSuite) create(kind models.Kind, primary, related, relType string) *models.Edge {
	s.T().Helper()
	e, err := s.service.Create(s.ctx, s.createRequest(kind, primary, related, relType))
	s.Require().NoError(err)
	return e
}

func (s *ServiceSuite) TestCreate() {
	s.Run("creates an unverified low-risk association and records it", func() {
		s.resetEvents()
		e := s.create(models.KindAssociation, "org-1", "ind-1", "director")

		s.Equal(models.VerificationUnverified, e.VerificationStatus)
		s.Equal(models.RiskLow, e.RiskLevel)
		s.False(e.IsHighRisk)
		s.Equal(models.StatusActive, e.Status)
		s.Equal(s.now, e.CreatedAt)
		s.Equal(id.ActorID("analyst-1"), e.CreatedBy)

		events := s.recorded()
		s.Require().Len(events, 1)
		s.Equal(audit.ChangeCreated, events[0].ChangeType)
		s.Equal(e.ID, events[0].EdgeID)
		s.Equal("association", events[0].EdgeKind)
		s.Nil(events[0].OldValues)
		s.Equal("director", events[0].NewValues["relationship_type"])
	})

	s.Run("derives high risk from flags on create", func() {
		req := s.createRequest(models.KindOrganization, "org-1", "org-2", "subsidiary")
		req.IsPEPRelated = true
		e, err := s.service.Create(s.ctx, req)
		s.Require().NoError(err)
		s.True(e.IsHighRisk)
		s.Equal(models.RiskLow, e.RiskLevel)
	})

	s.Run("keeps an initial review date", func() {
		req := s.createRequest(models.KindIndividual, "ind-1", "ind-2", "spouse")
		next := s.now.AddDate(0, 3, 0)
		req.NextReviewDate = &next
		e, err := s.service.Create(s.ctx, req)
		s.Require().NoError(err)
		s.Require().NotNil(e.NextReviewDate)
		s.Equal(next, *e.NextReviewDate)
	})

	s.Run("missing related party is not found and names the endpoint", func() {
		s.resetEvents()
		_, err := s.service.Create(s.ctx, s.createRequest(models.KindAssociation, "org-1", "ind-unknown", "director"))
		de := s.requireCode(err, dErrors.CodeNotFound)
		s.Equal("related_party_id", de.Field)
		s.Equal("ind-unknown", de.Resource)
		s.Empty(s.recorded())
	})

	s.Run("inactive party cannot anchor an edge", func() {
		_, err := s.service.Create(s.ctx, s.createRequest(models.KindAssociation, "org-1", "ind-dormant", "director"))
		de := s.requireCode(err, dErrors.CodeNotFound)
		s.Equal("related_party_id", de.Field)
	})

	s.Run("endpoint kinds follow the edge kind", func() {
		_, err := s.service.Create(s.ctx, s.createRequest(models.KindOrganization, "org-1", "ind-1", "subsidiary"))
		de := s.requireCode(err, dErrors.CodeNotFound)
		s.Equal("related_party_id", de.Field)
	})

	s.Run("self relationship is rejected", func() {
		_, err := s.service.Create(s.ctx, s.createRequest(models.KindOrganization, "org-1", "org-1", "subsidiary"))
		s.requireCode(err, dErrors.CodeValidation)
	})

	s.Run("ownership outside 0..100 is rejected", func() {
		req := s.createRequest(models.KindOrganization, "org-2", "org-3", "subsidiary")
		pct := 120.0
		req.OwnershipPercentage = &pct
		_, err := s.service.Create(s.ctx, req)
		de := s.requireCode(err, dErrors.CodeValidation)
		s.Equal("ownership_percentage", de.Field)
	})

	s.Run("missing actor is rejected", func() {
		req := s.createRequest(models.KindOrganization, "org-2", "org-3", "subsidiary")
		req.Actor = ""
		_, err := s.service.Create(s.ctx, req)
		s.requireCode(err, dErrors.CodeValidation)
	})

	s.Run("duplicate live tuple conflicts until the first is deleted", func() {
		first := s.create(models.KindOrganization, "org-2", "org-3", "parent")
		_, err := s.service.Create(s.ctx, s.createRequest(models.KindOrganization, "org-2", "org-3", "parent"))
		de := s.requireCode(err, dErrors.CodeConflict)
		s.Equal("unique_live_tuple", de.Constraint)

		_, err = s.service.SoftDelete(s.ctx, first.ID, "analyst-1")
		s.Require().NoError(err)
		second := s.create(models.KindOrganization, "org-2", "org-3", "parent")
		s.NotEqual(first.ID, second.ID)
	})
}

func (s *ServiceSuite) TestCreateConcurrentDuplicates() {
	const workers = 16
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.service.Create(s.ctx, s.createRequest(models.KindAssociation, "org-3", "ind-3", "beneficial_owner"))
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	created, conflicts := 0, 0
	for err := range errs {
		switch {
		case err == nil:
			created++
		case dErrors.HasCode(err, dErrors.CodeConflict):
			conflicts++
		default:
			s.Failf("unexpected error", "%v", err)
		}
	}
	s.Equal(1, created)
	s.Equal(workers-1, conflicts)
	s.Len(s.recorded(), 1)
}

func (s *ServiceSuite) TestCreateWhenRegistryIsDown() {
	registry := mocks.NewMockPartyRegistry(s.ctrl)
	registry.EXPECT().Resolve(gomock.Any(), gomock.Any()).
		Return(party.Resolution{}, errors.Join(sentinel.ErrUnavailable, errors.New("connection refused")))
	svc := service.New(s.store, registry, service.WithHistory(s.emitter))

	_, err := svc.Create(s.ctx, s.createRequest(models.KindOrganization, "org-1", "org-2", "subsidiary"))
	de := s.requireCode(err, dErrors.CodeTimeout)
	s.Equal("primary_party_id", de.Field)
}

func (s *ServiceSuite) TestCreateWhenLockTimesOut() {
	locker := mocks.NewMockLocker(s.ctrl)
	locker.EXPECT().Lock(gomock.Any(), "5:org-1|5:org-2|subsidiary").Return(nil, context.DeadlineExceeded)
	svc := service.New(s.store, s.registry, service.WithLocker(locker), service.WithHistory(s.emitter))

	_, err := svc.Create(s.ctx, s.createRequest(models.KindOrganization, "org-1", "org-2", "subsidiary"))
	s.requireCode(err, dErrors.CodeTimeout)
}

func (s *ServiceSuite) TestCreateWhenLockIsContended() {
	locker := mocks.NewMockLocker(s.ctrl)
	locker.EXPECT().Lock(gomock.Any(), "5:org-1|5:org-2|subsidiary").
		Return(nil, fmt.Errorf("5:org-1|5:org-2|subsidiary: %w", lock.ErrNotAcquired))
	svc := service.New(s.store, s.registry, service.WithLocker(locker), service.WithHistory(s.emitter))

	_, err := svc.Create(s.ctx, s.createRequest(models.KindOrganization, "org-1", "org-2", "subsidiary"))
	de := s.requireCode(err, dErrors.CodeConflict)
	s.Equal("creation_in_progress", de.Constraint)
}

func (s *ServiceSuite) TestGet() {
	e := s.create(models.KindOrganization, "org-1", "org-2", "subsidiary")

	s.Run("returns the edge", func() {
		got, err := s.service.Get(s.ctx, e.ID, false)
		s.Require().NoError(err)
		s.Equal(e.ID, got.ID)
	})

	s.Run("unknown id is not found", func() {
		_, err := s.service.Get(s.ctx, id.NewEdgeID(), false)
		s.requireCode(err, dErrors.CodeNotFound)
	})

	s.Run("deleted edge is hidden unless requested", func() {
		_, err := s.service.SoftDelete(s.ctx, e.ID, "analyst-1")
		s.Require().NoError(err)

		_, err = s.service.Get(s.ctx, e.ID, false)
		s.requireCode(err, dErrors.CodeNotFound)

		got, err := s.service.Get(s.ctx, e.ID, true)
		s.Require().NoError(err)
		s.NotNil(got.DeletedAt)
	})
}

func (s *ServiceSuite) TestUpdateDetails() {
	e := s.create(models.KindOrganization, "org-1", "org-2", "subsidiary")

	s.Run("updates only the given fields and records the details group", func() {
		s.resetEvents()
		pct := 51.0
		notes := "controlling stake"
		updated, err := s.service.UpdateDetails(s.ctx, e.ID, &models.UpdateDetailsRequest{
			OwnershipPercentage: &pct,
			Notes:               &notes,
			Actor:               "analyst-2",
		})
		s.Require().NoError(err)
		s.Equal(51.0, *updated.OwnershipPercentage)
		s.Equal("controlling stake", updated.Notes)
		s.Equal(id.ActorID("analyst-2"), updated.UpdatedBy)

		events := s.recorded()
		s.Require().Len(events, 1)
		s.Equal(audit.ChangeDetailsUpdated, events[0].ChangeType)
		s.Nil(events[0].OldValues["ownership_percentage"])
		s.Equal(51.0, events[0].NewValues["ownership_percentage"])
		s.NotContains(events[0].NewValues, "risk_level")
	})

	s.Run("effective_to before effective_from is rejected", func() {
		before := e.EffectiveFrom.AddDate(0, 0, -1)
		_, err := s.service.UpdateDetails(s.ctx, e.ID, &models.UpdateDetailsRequest{EffectiveTo: &before, Actor: "analyst-2"})
		s.requireCode(err, dErrors.CodeValidation)
	})

	s.Run("empty update is rejected", func() {
		_, err := s.service.UpdateDetails(s.ctx, e.ID, &models.UpdateDetailsRequest{Actor: "analyst-2"})
		s.requireCode(err, dErrors.CodeValidation)
	})
}

func (s *ServiceSuite) TestVerificationStateMachine() {
	s.Run("submit then approve stamps the verification", func() {
		e := s.create(models.KindAssociation, "org-1", "ind-1", "director")
		s.resetEvents()

		pending, err := s.service.SubmitForVerification(s.ctx, e.ID, "analyst-1")
		s.Require().NoError(err)
		s.Equal(models.VerificationPending, pending.VerificationStatus)

		verified, err := s.service.Approve(s.ctx, e.ID, "document_review", "officer-1")
		s.Require().NoError(err)
		s.Equal(models.VerificationVerified, verified.VerificationStatus)
		s.Equal(id.ActorID("officer-1"), verified.VerifiedBy)
		s.Require().NotNil(verified.VerifiedAt)
		s.Equal(s.now, *verified.VerifiedAt)
		s.Equal("document_review", verified.VerificationMethod)

		events := s.recorded()
		s.Require().Len(events, 2)
		for _, ev := range events {
			s.Equal(audit.ChangeVerificationChanged, ev.ChangeType)
		}
		s.Equal("pending", events[1].OldValues["verification_status"])
		s.Equal("verified", events[1].NewValues["verification_status"])
	})

	s.Run("revocation clears every stamp", func() {
		e := s.create(models.KindAssociation, "org-1", "ind-2", "director")
		_, err := s.service.Verify(s.ctx, e.ID, &models.VerifyRequest{Verified: true, Method: "registry_check", Actor: "officer-1"})
		s.Require().NoError(err)

		revoked, err := s.service.RevokeVerification(s.ctx, e.ID, "officer-2")
		s.Require().NoError(err)
		s.Equal(models.VerificationUnverified, revoked.VerificationStatus)
		s.Nil(revoked.VerifiedAt)
		s.Empty(revoked.VerifiedBy)
		s.Empty(revoked.VerificationMethod)
	})

	s.Run("reject requires a reason and allows resubmission", func() {
		e := s.create(models.KindAssociation, "org-2", "ind-1", "shareholder")
		_, err := s.service.SubmitForVerification(s.ctx, e.ID, "analyst-1")
		s.Require().NoError(err)

		_, err = s.service.Reject(s.ctx, e.ID, "  ", "officer-1")
		s.requireCode(err, dErrors.CodeValidation)

		rejected, err := s.service.Reject(s.ctx, e.ID, "documents expired", "officer-1")
		s.Require().NoError(err)
		s.Equal(models.VerificationRejected, rejected.VerificationStatus)
		s.Equal("documents expired", rejected.RejectionReason)

		again, err := s.service.SubmitForVerification(s.ctx, e.ID, "analyst-1")
		s.Require().NoError(err)
		s.Equal(models.VerificationPending, again.VerificationStatus)
		s.Empty(again.RejectionReason)
	})

	s.Run("invalid transitions conflict and leave the edge unchanged", func() {
		e := s.create(models.KindAssociation, "org-2", "ind-2", "shareholder")
		s.resetEvents()

		_, err := s.service.Approve(s.ctx, e.ID, "document_review", "officer-1")
		de := s.requireCode(err, dErrors.CodeConflict)
		s.Equal("invalid_transition", de.Constraint)

		_, err = s.service.RevokeVerification(s.ctx, e.ID, "officer-1")
		s.requireCode(err, dErrors.CodeConflict)

		_, err = s.service.Reject(s.ctx, e.ID, "nope", "officer-1")
		s.requireCode(err, dErrors.CodeConflict)

		got, err := s.service.Get(s.ctx, e.ID, false)
		s.Require().NoError(err)
		s.Equal(models.VerificationUnverified, got.VerificationStatus)
		s.Empty(s.recorded())
	})

	s.Run("approve requires a method", func() {
		e := s.create(models.KindAssociation, "org-3", "ind-1", "shareholder")
		_, err := s.service.SubmitForVerification(s.ctx, e.ID, "analyst-1")
		s.Require().NoError(err)
		_, err = s.service.Approve(s.ctx, e.ID, "", "officer-1")
		s.requireCode(err, dErrors.CodeValidation)
	})

	s.Run("verify walks unverified to verified in one event", func() {
		e := s.create(models.KindAssociation, "org-3", "ind-2", "shareholder")
		s.resetEvents()

		verified, err := s.service.Verify(s.ctx, e.ID, &models.VerifyRequest{Verified: true, Method: "registry_check", Actor: "officer-1"})
		s.Require().NoError(err)
		s.Equal(models.VerificationVerified, verified.VerificationStatus)
		s.Require().Len(s.recorded(), 1)
		s.Equal("unverified", s.recorded()[0].OldValues["verification_status"])

		_, err = s.service.Verify(s.ctx, e.ID, &models.VerifyRequest{Verified: true, Method: "registry_check", Actor: "officer-1"})
		s.requireCode(err, dErrors.CodeConflict)
	})

	s.Run("verify false on an unverified edge conflicts", func() {
		e := s.create(models.KindAssociation, "org-3", "ind-3", "shareholder")
		_, err := s.service.Verify(s.ctx, e.ID, &models.VerifyRequest{Verified: false, Actor: "officer-1"})
		s.requireCode(err, dErrors.CodeConflict)
	})

	s.Run("actor is required", func() {
		e := s.create(models.KindIndividual, "ind-1", "ind-3", "sibling")
		_, err := s.service.SubmitForVerification(s.ctx, e.ID, "")
		de := s.requireCode(err, dErrors.CodeValidation)
		s.Equal("actor_id", de.Field)
	})
}

func (s *ServiceSuite) TestRiskAndEscalation() {
	e := s.create(models.KindOrganization, "org-1", "org-2", "subsidiary")

	s.Run("high level marks the edge high risk", func() {
		s.resetEvents()
		updated, err := s.service.UpdateRisk(s.ctx, e.ID, &models.UpdateRiskRequest{
			RiskLevel:   "high",
			RiskFactors: []string{"cash_intensive", " cash_intensive ", "offshore"},
			Actor:       "risk-1",
		})
		s.Require().NoError(err)
		s.True(updated.IsHighRisk)
		s.Equal([]string{"cash_intensive", "offshore"}, updated.RiskFactors)

		events := s.recorded()
		s.Require().Len(events, 1)
		s.Equal(audit.ChangeRiskUpdated, events[0].ChangeType)
		s.Equal("low", events[0].OldValues["risk_level"])
		s.Equal("high", events[0].NewValues["risk_level"])
	})

	s.Run("low level with a sanctions flag stays high risk", func() {
		yes := true
		updated, err := s.service.UpdateRisk(s.ctx, e.ID, &models.UpdateRiskRequest{RiskLevel: "low", IsSanctionsRelated: &yes, Actor: "risk-1"})
		s.Require().NoError(err)
		s.True(updated.IsHighRisk)
	})

	s.Run("clearing every flag at low level clears high risk", func() {
		no := false
		updated, err := s.service.UpdateRisk(s.ctx, e.ID, &models.UpdateRiskRequest{
			RiskLevel: "low", IsPEPRelated: &no, IsSanctionsRelated: &no, RequiresEDD: &no, Actor: "risk-1",
		})
		s.Require().NoError(err)
		s.False(updated.IsHighRisk)
	})

	s.Run("unknown level is rejected", func() {
		_, err := s.service.UpdateRisk(s.ctx, e.ID, &models.UpdateRiskRequest{RiskLevel: "extreme", Actor: "risk-1"})
		s.requireCode(err, dErrors.CodeValidation)
	})

	s.Run("escalation leaves risk untouched", func() {
		s.resetEvents()
		escalated, err := s.service.Escalate(s.ctx, e.ID, &models.EscalateRequest{EscalatedTo: "mlro", Reason: "adverse media", Actor: "risk-1"})
		s.Require().NoError(err)
		s.True(escalated.IsEscalated)
		s.Equal("mlro", escalated.EscalatedTo)
		s.Equal(s.now, *escalated.EscalatedAt)
		s.Equal(models.RiskLow, escalated.RiskLevel)
		s.False(escalated.IsHighRisk)

		events := s.recorded()
		s.Require().Len(events, 1)
		s.Equal(audit.ChangeEscalated, events[0].ChangeType)
	})

	s.Run("escalation needs a target and a reason", func() {
		_, err := s.service.Escalate(s.ctx, e.ID, &models.EscalateRequest{EscalatedTo: "mlro", Actor: "risk-1"})
		s.requireCode(err, dErrors.CodeValidation)
	})

	s.Run("resolving clears the escalation once", func() {
		resolved, err := s.service.ResolveEscalation(s.ctx, e.ID, "mlro-1")
		s.Require().NoError(err)
		s.False(resolved.IsEscalated)
		s.Nil(resolved.EscalatedAt)

		_, err = s.service.ResolveEscalation(s.ctx, e.ID, "mlro-1")
		s.requireCode(err, dErrors.CodeConflict)
	})

	s.Run("high risk listing", func() {
		other := s.create(models.KindOrganization, "org-2", "org-3", "subsidiary")
		_, err := s.service.UpdateRisk(s.ctx, other.ID, &models.UpdateRiskRequest{RiskLevel: "critical", Actor: "risk-1"})
		s.Require().NoError(err)

		res, err := s.service.HighRisk(s.ctx, models.Filter{}, models.Page{})
		s.Require().NoError(err)
		s.Require().Equal(1, res.Total)
		s.Equal(other.ID, res.Edges[0].ID)
	})
}

func (s *ServiceSuite) TestReviewScheduling() {
	scheduled := s.create(models.KindOrganization, "org-1", "org-2", "subsidiary")
	unscheduled := s.create(models.KindOrganization, "org-1", "org-3", "subsidiary")

	s.Run("records the review and the next date", func() {
		s.resetEvents()
		next := s.now.AddDate(0, 0, 10)
		updated, err := s.service.SetNextReview(s.ctx, scheduled.ID, &models.ScheduleReviewRequest{NextReviewDate: &next, Actor: "analyst-1"})
		s.Require().NoError(err)
		s.Equal(next, *updated.NextReviewDate)
		s.Equal(s.now, *updated.LastReviewedDate)
		s.Equal(id.ActorID("analyst-1"), updated.ReviewedBy)

		events := s.recorded()
		s.Require().Len(events, 1)
		s.Equal(audit.ChangeReviewScheduled, events[0].ChangeType)
	})

	s.Run("overdue only after the date passes; unscheduled never", func() {
		res, err := s.service.Overdue(s.ctx, models.Filter{}, models.Page{})
		s.Require().NoError(err)
		s.Zero(res.Total)

		later := s.at(s.now.AddDate(0, 0, 11))
		res, err = s.service.Overdue(later, models.Filter{}, models.Page{})
		s.Require().NoError(err)
		s.Require().Equal(1, res.Total)
		s.Equal(scheduled.ID, res.Edges[0].ID)
		s.NotEqual(unscheduled.ID, res.Edges[0].ID)
	})

	s.Run("due within a window", func() {
		res, err := s.service.DueWithin(s.ctx, 7*24*time.Hour, models.Filter{}, models.Page{})
		s.Require().NoError(err)
		s.Zero(res.Total)

		res, err = s.service.DueWithin(s.ctx, 14*24*time.Hour, models.Filter{}, models.Page{})
		s.Require().NoError(err)
		s.Equal(1, res.Total)

		_, err = s.service.DueWithin(s.ctx, 0, models.Filter{}, models.Page{})
		s.requireCode(err, dErrors.CodeValidation)
	})
}

func (s *ServiceSuite) TestStaleVerifications() {
	e := s.create(models.KindAssociation, "org-1", "ind-1", "director")
	_, err := s.service.Verify(s.ctx, e.ID, &models.VerifyRequest{Verified: true, Method: "registry_check", Actor: "officer-1"})
	s.Require().NoError(err)
	fresh := s.create(models.KindAssociation, "org-1", "ind-2", "director")

	s.Run("fresh verifications are not stale", func() {
		res, err := s.service.StaleVerifications(s.at(s.now.AddDate(0, 5, 0)), models.Filter{}, models.Page{})
		s.Require().NoError(err)
		s.Zero(res.Total)
	})

	s.Run("verifications older than the window are listed", func() {
		res, err := s.service.StaleVerifications(s.at(s.now.AddDate(0, 7, 0)), models.Filter{}, models.Page{})
		s.Require().NoError(err)
		s.Require().Equal(1, res.Total)
		s.Equal(e.ID, res.Edges[0].ID)
		s.NotEqual(fresh.ID, res.Edges[0].ID)
	})

	s.Run("listing never changes verification state", func() {
		got, err := s.service.Get(s.ctx, e.ID, false)
		s.Require().NoError(err)
		s.Equal(models.VerificationVerified, got.VerificationStatus)
	})

	s.Run("window is configurable", func() {
		svc := service.New(s.store, s.registry, service.WithStaleVerificationWindow(3))
		res, err := svc.StaleVerifications(s.at(s.now.AddDate(0, 4, 0)), models.Filter{}, models.Page{})
		s.Require().NoError(err)
		s.Equal(1, res.Total)
	})
}

func (s *ServiceSuite) TestSoftDelete() {
	e := s.create(models.KindOrganization, "org-1", "org-2", "subsidiary")
	s.resetEvents()

	deleted, err := s.service.SoftDelete(s.ctx, e.ID, "admin-1")
	s.Require().NoError(err)
	s.Require().NotNil(deleted.DeletedAt)
	s.Equal(id.ActorID("admin-1"), deleted.DeletedBy)

	s.Run("second delete is a no-op", func() {
		again, err := s.service.SoftDelete(s.ctx, e.ID, "admin-2")
		s.Require().NoError(err)
		s.Equal(id.ActorID("admin-1"), again.DeletedBy)

		events := s.recorded()
		s.Require().Len(events, 1)
		s.Equal(audit.ChangeDeleted, events[0].ChangeType)
		s.Equal("subsidiary", events[0].OldValues["relationship_type"])
	})

	s.Run("deleted edges reject mutations", func() {
		_, err := s.service.SubmitForVerification(s.ctx, e.ID, "analyst-1")
		s.requireCode(err, dErrors.CodeNotFound)
		_, err = s.service.UpdateRisk(s.ctx, e.ID, &models.UpdateRiskRequest{RiskLevel: "high", Actor: "risk-1"})
		s.requireCode(err, dErrors.CodeNotFound)
	})

	s.Run("deleted edges are excluded from lists and statistics", func() {
		res, err := s.service.List(s.ctx, models.Filter{}, models.Page{})
		s.Require().NoError(err)
		s.Zero(res.Total)

		stats, err := s.service.Statistics(s.ctx, models.Filter{})
		s.Require().NoError(err)
		s.Zero(stats.Total)
	})

	s.Run("unknown edge is not found", func() {
		_, err := s.service.SoftDelete(s.ctx, id.NewEdgeID(), "admin-1")
		s.requireCode(err, dErrors.CodeNotFound)
	})
}

func (s *ServiceSuite) TestListByParty() {
	asPrimary := s.create(models.KindAssociation, "org-1", "ind-1", "director")
	asRelated := s.create(models.KindOrganization, "org-2", "org-1", "subsidiary")
	s.create(models.KindOrganization, "org-2", "org-3", "subsidiary")

	s.Run("any role returns the union", func() {
		res, err := s.service.ListByParty(s.ctx, "org-1", models.RoleAny, models.Filter{}, models.Page{})
		s.Require().NoError(err)
		s.Equal(2, res.Total)
	})

	s.Run("role narrows to one endpoint", func() {
		res, err := s.service.ListByParty(s.ctx, "org-1", models.RolePrimary, models.Filter{}, models.Page{})
		s.Require().NoError(err)
		s.Require().Equal(1, res.Total)
		s.Equal(asPrimary.ID, res.Edges[0].ID)

		res, err = s.service.ListByParty(s.ctx, "org-1", models.RoleRelated, models.Filter{}, models.Page{})
		s.Require().NoError(err)
		s.Require().Equal(1, res.Total)
		s.Equal(asRelated.ID, res.Edges[0].ID)
	})

	s.Run("party id is required", func() {
		_, err := s.service.ListByParty(s.ctx, "", models.RoleAny, models.Filter{}, models.Page{})
		s.requireCode(err, dErrors.CodeValidation)
	})
}

func (s *ServiceSuite) TestFindActiveRelationships() {
	current := s.create(models.KindOrganization, "org-1", "org-2", "subsidiary")
	ended := s.create(models.KindOrganization, "org-1", "org-3", "subsidiary")
	past := s.now.AddDate(0, -1, 0)
	_, err := s.service.UpdateDetails(s.ctx, ended.ID, &models.UpdateDetailsRequest{EffectiveTo: &past, Actor: "analyst-1"})
	s.Require().NoError(err)
	inactive := s.create(models.KindOrganization, "org-2", "org-3", "subsidiary")
	status := "inactive"
	_, err = s.service.UpdateDetails(s.ctx, inactive.ID, &models.UpdateDetailsRequest{Status: &status, Actor: "analyst-1"})
	s.Require().NoError(err)

	res, err := s.service.FindActiveRelationships(s.ctx, models.Filter{}, models.Page{})
	s.Require().NoError(err)
	s.Require().Equal(1, res.Total)
	s.Equal(current.ID, res.Edges[0].ID)
}

func (s *ServiceSuite) TestStatisticsMatchListing() {
	a := s.create(models.KindAssociation, "org-1", "ind-1", "director")
	b := s.create(models.KindOrganization, "org-1", "org-2", "subsidiary")
	c := s.create(models.KindIndividual, "ind-1", "ind-2", "spouse")
	s.create(models.KindIndividual, "ind-2", "ind-3", "sibling")

	_, err := s.service.UpdateRisk(s.ctx, a.ID, &models.UpdateRiskRequest{RiskLevel: "high", Actor: "risk-1"})
	s.Require().NoError(err)
	_, err = s.service.Verify(s.ctx, b.ID, &models.VerifyRequest{Verified: true, Method: "registry_check", Actor: "officer-1"})
	s.Require().NoError(err)
	_, err = s.service.Escalate(s.ctx, c.ID, &models.EscalateRequest{EscalatedTo: "mlro", Reason: "adverse media", Actor: "risk-1"})
	s.Require().NoError(err)
	past := s.now.AddDate(0, 0, -1)
	_, err = s.service.SetNextReview(s.ctx, b.ID, &models.ScheduleReviewRequest{NextReviewDate: &past, Actor: "analyst-1"})
	s.Require().NoError(err)

	stats, err := s.service.Statistics(s.ctx, models.Filter{})
	s.Require().NoError(err)
	s.Equal(4, stats.Total)
	s.Equal(4, stats.Active)
	s.Equal(1, stats.HighRisk)
	s.Equal(3, stats.Unverified)
	s.Equal(1, stats.Escalated)
	s.Equal(2, stats.NeedingReview)
	s.Equal(2, stats.ByKind[models.KindIndividual])
	s.Equal(0, stats.ByRiskLevel[models.RiskCritical])
	s.Equal(1, stats.ByVerificationStatus[models.VerificationVerified])

	for _, f := range []models.Filter{
		{},
		{Kind: models.KindIndividual},
		{PartyID: "ind-1"},
		{RiskLevels: []models.RiskLevel{models.RiskHigh}},
		{Search: "SPOUSE"},
	} {
		stats, err := s.service.Statistics(s.ctx, f)
		s.Require().NoError(err)
		list, err := s.service.List(s.ctx, f, models.Page{Limit: 500})
		s.Require().NoError(err)
		s.Equal(list.Total, stats.Total)
		s.Len(list.Edges, stats.Total)
	}
}

func (s *ServiceSuite) TestListPaging() {
	for _, org := range []string{"org-2", "org-3"} {
		s.create(models.KindOrganization, "org-1", org, "subsidiary")
	}
	s.create(models.KindAssociation, "org-1", "ind-1", "director")

	res, err := s.service.List(s.ctx, models.Filter{}, models.Page{Limit: 2})
	s.Require().NoError(err)
	s.Equal(3, res.Total)
	s.Len(res.Edges, 2)

	svc := service.New(s.store, s.registry, service.WithPageLimits(1, 2))
	res, err = svc.List(s.ctx, models.Filter{}, models.Page{Limit: 100})
	s.Require().NoError(err)
	s.Len(res.Edges, 2)
	s.Equal(2, res.Limit)

	_, err = s.service.List(s.ctx, models.Filter{RiskLevels: []models.RiskLevel{"extreme"}}, models.Page{})
	s.requireCode(err, dErrors.CodeValidation)
}

func (s *ServiceSuite) TestAuthorization() {
	authz := mocks.NewMockAuthorizer(s.ctrl)
	svc := service.New(s.store, s.registry, service.WithAuthorizer(authz), service.WithHistory(s.emitter))
	e := s.create(models.KindOrganization, "org-1", "org-2", "subsidiary")
	s.resetEvents()

	authz.EXPECT().Authorize(gomock.Any(), service.ActionVerify, id.ActorID("analyst-1")).
		Return(dErrors.New(dErrors.CodeForbidden, "actor may not verify relationships"))
	_, err := svc.SubmitForVerification(s.ctx, e.ID, "analyst-1")
	s.requireCode(err, dErrors.CodeForbidden)
	s.Empty(s.recorded())

	got, err := svc.Get(s.ctx, e.ID, false)
	s.Require().NoError(err)
	s.Equal(models.VerificationUnverified, got.VerificationStatus)
}

func (s *ServiceSuite) TestRoleAuthorizer() {
	authz := service.NewRoleAuthorizer(nil)

	s.Run("unguarded actions are open", func() {
		s.NoError(authz.Authorize(s.ctx, service.ActionCreate, "analyst-1"))
	})

	s.Run("guarded action needs a listed role", func() {
		ctx := requestcontext.WithActor(s.ctx, "analyst-1", []string{"analyst"})
		err := authz.Authorize(ctx, service.ActionVerify, "analyst-1")
		s.requireCode(err, dErrors.CodeForbidden)

		ctx = requestcontext.WithActor(s.ctx, "officer-1", []string{"compliance_officer"})
		s.NoError(authz.Authorize(ctx, service.ActionVerify, "officer-1"))
	})

	s.Run("actor must be the caller", func() {
		ctx := requestcontext.WithActor(s.ctx, "officer-1", []string{"compliance_admin"})
		err := authz.Authorize(ctx, service.ActionDelete, "someone-else")
		s.requireCode(err, dErrors.CodeForbidden)
	})
}

func (s *ServiceSuite) TestStoreFailuresAreInternal() {
	store := mocks.NewMockStore(s.ctrl)
	svc := service.New(store, s.registry, service.WithHistory(s.emitter))
	edgeID := id.NewEdgeID()

	store.EXPECT().FindByID(gomock.Any(), edgeID).Return(nil, errors.New("connection reset"))
	_, err := svc.Get(s.ctx, edgeID, false)
	s.requireCode(err, dErrors.CodeInternal)

	store.EXPECT().Execute(gomock.Any(), edgeID, models.GroupRisk, gomock.Any(), gomock.Any()).
		Return(nil, errors.New("connection reset"))
	_, err = svc.UpdateRisk(s.ctx, edgeID, &models.UpdateRiskRequest{RiskLevel: "high", Actor: "risk-1"})
	s.requireCode(err, dErrors.CodeInternal)

	store.EXPECT().List(gomock.Any(), gomock.Any(), models.Page{Limit: service.DefaultPageSize}, s.now).
		Return(nil, errors.New("connection reset"))
	_, err = svc.List(s.ctx, models.Filter{}, models.Page{})
	s.requireCode(err, dErrors.CodeInternal)
}

func (s *ServiceSuite) TestHistoryThroughPublisher() {
	sink := auditmemory.NewInMemoryStore()
	pub := publisher.New(sink)
	svc := service.New(s.store, s.registry, service.WithHistory(pub), service.WithHistoryReader(sink))

	e, err := svc.Create(s.ctx, s.createRequest(models.KindAssociation, "org-1", "ind-1", "director"))
	s.Require().NoError(err)
	_, err = svc.SubmitForVerification(s.ctx, e.ID, "analyst-1")
	s.Require().NoError(err)
	_, err = svc.Approve(s.ctx, e.ID, "document_review", "officer-1")
	s.Require().NoError(err)
	_, err = svc.SoftDelete(s.ctx, e.ID, "admin-1")
	s.Require().NoError(err)
	s.Require().NoError(pub.Flush(s.ctx))

	events, err := svc.History(s.ctx, e.ID)
	s.Require().NoError(err)
	s.Require().Len(events, 4)
	s.Equal(audit.ChangeCreated, events[0].ChangeType)
	s.Equal(audit.ChangeDeleted, events[3].ChangeType)
	s.Equal(id.ActorID("officer-1"), events[2].ActorID)

	_, err = svc.History(s.ctx, id.NewEdgeID())
	s.requireCode(err, dErrors.CodeNotFound)
}
