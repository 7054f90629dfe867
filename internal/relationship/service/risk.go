package service

import (
	"context"
	"time"

	"linkage/internal/relationship/models"
	id "linkage/pkg/domain"
	"linkage/pkg/platform/audit"
)

// UpdateRisk replaces the risk classification and recomputes is_high_risk.
func (s *Service) UpdateRisk(ctx context.Context, edgeID id.EdgeID, req *models.UpdateRiskRequest) (*models.Edge, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	change := req.Change()
	return s.mutate(ctx, edgeID, mutation{
		op:     "update_risk",
		action: ActionManageRisk,
		group:  models.GroupRisk,
		change: audit.ChangeRiskUpdated,
		actor:  req.Actor,
		check:  func(e *models.Edge) error { return e.CanApplyRisk(change) },
		apply:  func(e *models.Edge, now time.Time) { e.ApplyRisk(change, req.Actor, now) },
	})
}

// Escalate flags an edge for attention. Risk fields are left as they are.
func (s *Service) Escalate(ctx context.Context, edgeID id.EdgeID, req *models.EscalateRequest) (*models.Edge, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return s.mutate(ctx, edgeID, mutation{
		op:     "escalate",
		action: ActionEscalate,
		group:  models.GroupEscalation,
		change: audit.ChangeEscalated,
		actor:  req.Actor,
		check:  func(e *models.Edge) error { return e.CanEscalate(req.EscalatedTo, req.Reason) },
		apply:  func(e *models.Edge, now time.Time) { e.ApplyEscalation(req.EscalatedTo, req.Reason, req.Actor, now) },
	})
}

// ResolveEscalation clears an open escalation.
func (s *Service) ResolveEscalation(ctx context.Context, edgeID id.EdgeID, actor id.ActorID) (*models.Edge, error) {
	return s.mutate(ctx, edgeID, mutation{
		op:     "resolve_escalation",
		action: ActionEscalate,
		group:  models.GroupEscalation,
		change: audit.ChangeEscalationResolved,
		actor:  actor,
		check:  func(e *models.Edge) error { return e.CanResolveEscalation() },
		apply:  func(e *models.Edge, now time.Time) { e.ApplyEscalationResolution(actor, now) },
	})
}

// SetNextReview records a review now and schedules the next one.
func (s *Service) SetNextReview(ctx context.Context, edgeID id.EdgeID, req *models.ScheduleReviewRequest) (*models.Edge, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return s.mutate(ctx, edgeID, mutation{
		op:     "schedule_review",
		action: ActionReview,
		group:  models.GroupReview,
		change: audit.ChangeReviewScheduled,
		actor:  req.Actor,
		apply:  func(e *models.Edge, now time.Time) { e.ApplyReview(req.NextReviewDate, req.Actor, now) },
	})
}
