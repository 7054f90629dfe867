package service

import (
	"context"
	"strings"
	"time"

	"linkage/internal/relationship/models"
	id "linkage/pkg/domain"
	dErrors "linkage/pkg/domain-errors"
	"linkage/pkg/platform/audit"
)

// SubmitForVerification moves an unverified or rejected edge to pending.
func (s *Service) SubmitForVerification(ctx context.Context, edgeID id.EdgeID, actor id.ActorID) (*models.Edge, error) {
	return s.mutate(ctx, edgeID, mutation{
		op:     "submit_verification",
		action: ActionVerify,
		group:  models.GroupVerification,
		change: audit.ChangeVerificationChanged,
		actor:  actor,
		check:  func(e *models.Edge) error { return e.CanSubmitForVerification() },
		apply:  func(e *models.Edge, now time.Time) { e.ApplySubmission(actor, now) },
	})
}

// Approve moves a pending edge to verified, stamping actor, time and method.
func (s *Service) Approve(ctx context.Context, edgeID id.EdgeID, method string, actor id.ActorID) (*models.Edge, error) {
	method = strings.TrimSpace(method)
	if len(method) > models.MaxMethodLength {
		return nil, dErrors.New(dErrors.CodeValidation, "verification_method is too long").
			WithField("verification_method").WithConstraint("max_length")
	}
	return s.mutate(ctx, edgeID, mutation{
		op:     "approve_verification",
		action: ActionVerify,
		group:  models.GroupVerification,
		change: audit.ChangeVerificationChanged,
		actor:  actor,
		check:  func(e *models.Edge) error { return e.CanApprove(method) },
		apply:  func(e *models.Edge, now time.Time) { e.ApplyApproval(method, actor, now) },
	})
}

// Reject moves a pending edge to rejected with a mandatory reason.
func (s *Service) Reject(ctx context.Context, edgeID id.EdgeID, reason string, actor id.ActorID) (*models.Edge, error) {
	reason = strings.TrimSpace(reason)
	if len(reason) > models.MaxReasonLength {
		return nil, dErrors.New(dErrors.CodeValidation, "reason is too long").WithField("reason").WithConstraint("max_length")
	}
	return s.mutate(ctx, edgeID, mutation{
		op:     "reject_verification",
		action: ActionVerify,
		group:  models.GroupVerification,
		change: audit.ChangeVerificationChanged,
		actor:  actor,
		check:  func(e *models.Edge) error { return e.CanReject(reason) },
		apply:  func(e *models.Edge, now time.Time) { e.ApplyRejection(reason, actor, now) },
	})
}

// RevokeVerification returns a verified edge to unverified and clears the stamps.
func (s *Service) RevokeVerification(ctx context.Context, edgeID id.EdgeID, actor id.ActorID) (*models.Edge, error) {
	return s.mutate(ctx, edgeID, mutation{
		op:     "revoke_verification",
		action: ActionVerify,
		group:  models.GroupVerification,
		change: audit.ChangeVerificationChanged,
		actor:  actor,
		check:  func(e *models.Edge) error { return e.CanRevoke() },
		apply:  func(e *models.Edge, now time.Time) { e.ApplyRevocation(actor, now) },
	})
}

// Verify is the single-call toggle. Verified=true walks the edge to verified in
// one atomic step (through pending when needed); Verified=false revokes.
func (s *Service) Verify(ctx context.Context, edgeID id.EdgeID, req *models.VerifyRequest) (*models.Edge, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if !req.Verified {
		return s.RevokeVerification(ctx, edgeID, req.Actor)
	}
	return s.mutate(ctx, edgeID, mutation{
		op:     "verify",
		action: ActionVerify,
		group:  models.GroupVerification,
		change: audit.ChangeVerificationChanged,
		actor:  req.Actor,
		check:  func(e *models.Edge) error { return e.CanVerify(req.Method) },
		apply:  func(e *models.Edge, now time.Time) { e.ApplyVerify(req.Method, req.Actor, now) },
	})
}
