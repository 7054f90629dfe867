package service

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"linkage/internal/relationship/models"
	id "linkage/pkg/domain"
	dErrors "linkage/pkg/domain-errors"
	"linkage/pkg/platform/audit"
	"linkage/pkg/requestcontext"
)

// List returns a page of edges matching filter, newest first.
func (s *Service) List(ctx context.Context, filter models.Filter, page models.Page) (*models.ListResult, error) {
	return s.list(ctx, "list", filter, page)
}

// ListByParty returns edges touching partyID. RoleAny returns the union of the
// edges where the party is primary and where it is related.
func (s *Service) ListByParty(ctx context.Context, partyID id.PartyID, role models.PartyRole, filter models.Filter, page models.Page) (*models.ListResult, error) {
	if partyID.IsNil() {
		return nil, dErrors.New(dErrors.CodeValidation, "party_id is required").WithField("party_id").WithConstraint("required")
	}
	filter.PartyID = partyID
	filter.PartyRole = role
	return s.list(ctx, "by_party", filter, page)
}

// FindActiveRelationships returns active edges whose effective window contains now.
func (s *Service) FindActiveRelationships(ctx context.Context, filter models.Filter, page models.Page) (*models.ListResult, error) {
	filter.CurrentOnly = true
	return s.list(ctx, "active", filter, page)
}

// HighRisk returns edges flagged high risk.
func (s *Service) HighRisk(ctx context.Context, filter models.Filter, page models.Page) (*models.ListResult, error) {
	highRisk := true
	filter.IsHighRisk = &highRisk
	return s.list(ctx, "high_risk", filter, page)
}

// Overdue returns edges whose next review date has passed.
func (s *Service) Overdue(ctx context.Context, filter models.Filter, page models.Page) (*models.ListResult, error) {
	filter.OverdueOnly = true
	return s.list(ctx, "overdue", filter, page)
}

// StaleVerifications returns verified edges whose verification is older than the
// configured window. It never changes verification state.
func (s *Service) StaleVerifications(ctx context.Context, filter models.Filter, page models.Page) (*models.ListResult, error) {
	cutoff := requestcontext.Now(ctx).AddDate(0, -s.staleMonths, 0)
	verified := true
	filter.IsVerified = &verified
	filter.VerifiedBefore = &cutoff
	return s.list(ctx, "stale", filter, page)
}

// DueWithin returns edges whose next review falls between now and now+window.
func (s *Service) DueWithin(ctx context.Context, window time.Duration, filter models.Filter, page models.Page) (*models.ListResult, error) {
	if window <= 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "window must be positive").WithField("within").WithConstraint("positive")
	}
	now := requestcontext.Now(ctx)
	end := now.Add(window)
	filter.NextReviewAfter = &now
	filter.NextReviewBefore = &end
	return s.list(ctx, "due_within", filter, page)
}

func (s *Service) list(ctx context.Context, name string, filter models.Filter, page models.Page) (_ *models.ListResult, err error) {
	ctx, span := startSpan(ctx, "relationship.query", attribute.String("query", name))
	defer func() { endSpan(span, err) }()

	filter.Normalize()
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	page = page.Normalize(s.pageSize, s.maxPageSize)

	start := time.Now()
	res, err := s.store.List(ctx, filter, page, requestcontext.Now(ctx))
	s.metrics.ObserveQueryLatency(name, time.Since(start))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list relationships")
	}
	span.SetAttributes(attribute.Int("result.total", res.Total))
	return res, nil
}

// Statistics aggregates every edge matching filter. The store evaluates the
// same predicate as List, so counts always agree with listings.
func (s *Service) Statistics(ctx context.Context, filter models.Filter) (_ *models.Statistics, err error) {
	ctx, span := startSpan(ctx, "relationship.statistics")
	defer func() { endSpan(span, err) }()

	filter.Normalize()
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	stats, err := s.store.Statistics(ctx, filter, requestcontext.Now(ctx))
	s.metrics.ObserveStatisticsLatency(time.Since(start))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to compute relationship statistics")
	}
	span.SetAttributes(attribute.Int("result.total", stats.Total))
	return stats, nil
}

// History returns the change records of an edge, oldest first. Deleted edges
// keep their history.
func (s *Service) History(ctx context.Context, edgeID id.EdgeID) (_ []audit.HistoryEvent, err error) {
	ctx, span := startSpan(ctx, "relationship.history", edgeIDAttr(edgeID))
	defer func() { endSpan(span, err) }()

	if s.reader == nil {
		return nil, dErrors.New(dErrors.CodeInternal, "relationship history is not available")
	}
	if _, err := s.store.FindByID(ctx, edgeID); err != nil {
		return nil, translate(err, edgeID, "load relationship")
	}
	events, err := s.reader.ListByEdge(ctx, edgeID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load relationship history")
	}
	return events, nil
}
