package service

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"linkage/internal/party"
	"linkage/internal/relationship/lock"
	"linkage/internal/relationship/models"
	id "linkage/pkg/domain"
	dErrors "linkage/pkg/domain-errors"
	"linkage/pkg/platform/audit"
	"linkage/pkg/platform/sentinel"
	"linkage/pkg/requestcontext"
)

// Create validates req, checks both endpoints against the party registry and
// stores a new unverified edge. Creation is serialized per (primary, related,
// type) so concurrent duplicates resolve to exactly one winner.
func (s *Service) Create(ctx context.Context, req *models.CreateRequest) (_ *models.Edge, err error) {
	ctx, span := startSpan(ctx, "relationship.create")
	defer func() {
		s.metrics.IncrementMutation("create", outcome(err))
		endSpan(span, err)
	}()

	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	span.SetAttributes(edgeKindAttr(req.Kind), attribute.String("relationship.type", req.RelationshipType))
	if err := s.authorize(ctx, ActionCreate, req.Actor); err != nil {
		return nil, err
	}

	unlock, err := s.locker.Lock(ctx, req.Key().String())
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return nil, dErrors.Wrap(err, dErrors.CodeTimeout, "timed out waiting to create relationship")
		}
		if errors.Is(err, lock.ErrNotAcquired) {
			return nil, dErrors.Wrap(err, dErrors.CodeConflict, "another request is creating this relationship").
				WithField("relationship_type").WithConstraint("creation_in_progress")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to serialize relationship creation")
	}
	defer unlock()

	primaryKind, relatedKind := req.Kind.Endpoints()
	if err := s.resolveEndpoint(ctx, party.Ref{ID: req.PrimaryParty(), Kind: party.Kind(primaryKind)}, "primary_party_id"); err != nil {
		return nil, err
	}
	if err := s.resolveEndpoint(ctx, party.Ref{ID: req.RelatedParty(), Kind: party.Kind(relatedKind)}, "related_party_id"); err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	e, err := models.NewEdge(req.Params(id.NewEdgeID()), now)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
			de, _ := dErrors.As(err)
			return nil, dErrors.New(dErrors.CodeValidation, de.Message).WithField(de.Field).WithConstraint(de.Constraint)
		}
		return nil, err
	}
	span.SetAttributes(edgeIDAttr(e.ID))

	if err := s.store.Create(ctx, e); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "a live relationship of this type already exists between these parties").
				WithField("relationship_type").WithConstraint("unique_live_tuple")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create relationship")
	}

	s.emit(ctx, e, audit.ChangeCreated, nil, e.Snapshot(), req.Actor, now)
	s.metrics.IncrementCreated(string(e.Kind))
	s.logger.InfoContext(ctx, "relationship created",
		"edge_id", e.ID,
		"kind", e.Kind,
		"relationship_type", e.RelationshipType,
		"actor_id", req.Actor,
	)
	return e, nil
}

// resolveEndpoint requires ref to exist and be active in the party registry.
func (s *Service) resolveEndpoint(ctx context.Context, ref party.Ref, field string) error {
	res, err := s.parties.Resolve(ctx, ref)
	if err != nil {
		s.logger.WarnContext(ctx, "party registry lookup failed", "party", ref.String(), "error", err)
		if errors.Is(err, sentinel.ErrUnavailable) || errors.Is(err, context.DeadlineExceeded) {
			return dErrors.Wrap(err, dErrors.CodeTimeout, "party registry unavailable").WithField(field)
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve party").WithField(field)
	}
	if !res.Exists {
		return dErrors.New(dErrors.CodeNotFound, string(ref.Kind)+" party not found").
			WithField(field).WithResource(string(ref.ID))
	}
	if !res.Active {
		return dErrors.New(dErrors.CodeNotFound, string(ref.Kind)+" party is not active").
			WithField(field).WithResource(string(ref.ID)).WithConstraint("active_party")
	}
	return nil
}

// Get returns one edge. Soft-deleted edges are not found unless includeDeleted.
func (s *Service) Get(ctx context.Context, edgeID id.EdgeID, includeDeleted bool) (_ *models.Edge, err error) {
	ctx, span := startSpan(ctx, "relationship.get", edgeIDAttr(edgeID))
	defer func() { endSpan(span, err) }()

	e, err := s.store.FindByID(ctx, edgeID)
	if err != nil {
		return nil, translate(err, edgeID, "load relationship")
	}
	if e.IsDeleted() && !includeDeleted {
		return nil, translate(errEdgeDeleted, edgeID, "load relationship")
	}
	span.SetAttributes(edgeKindAttr(e.Kind))
	return e, nil
}

// UpdateDetails changes descriptive fields of a live edge.
func (s *Service) UpdateDetails(ctx context.Context, edgeID id.EdgeID, req *models.UpdateDetailsRequest) (*models.Edge, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	change := req.Change()
	return s.mutate(ctx, edgeID, mutation{
		op:     "update_details",
		action: ActionUpdate,
		group:  models.GroupDetails,
		change: audit.ChangeDetailsUpdated,
		actor:  req.Actor,
		check:  func(e *models.Edge) error { return e.CanApplyDetails(change) },
		apply:  func(e *models.Edge, now time.Time) { e.ApplyDetails(change, req.Actor, now) },
	})
}

// SoftDelete marks an edge deleted. Deleting an already deleted edge returns it
// unchanged and emits nothing.
func (s *Service) SoftDelete(ctx context.Context, edgeID id.EdgeID, actor id.ActorID) (_ *models.Edge, err error) {
	ctx, span := startSpan(ctx, "relationship.delete", edgeIDAttr(edgeID))
	defer func() {
		s.metrics.IncrementMutation("delete", outcome(err))
		endSpan(span, err)
	}()

	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, ActionDelete, actor); err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	var before map[string]any
	e, err := s.store.Execute(ctx, edgeID, models.GroupDeletion,
		func(e *models.Edge) error {
			if e.IsDeleted() {
				return errAlreadyDeleted
			}
			before = e.Snapshot()
			return nil
		},
		func(e *models.Edge) { e.ApplySoftDelete(actor, now) },
	)
	if errors.Is(err, errAlreadyDeleted) {
		existing, findErr := s.store.FindByID(ctx, edgeID)
		if findErr != nil {
			return nil, translate(findErr, edgeID, "delete relationship")
		}
		return existing, nil
	}
	if err != nil {
		return nil, translate(err, edgeID, "delete relationship")
	}

	span.SetAttributes(edgeKindAttr(e.Kind))
	s.emit(ctx, e, audit.ChangeDeleted, before, e.Values(models.GroupDeletion), actor, now)
	s.logger.InfoContext(ctx, "relationship deleted", "edge_id", e.ID, "actor_id", actor)
	return e, nil
}

var errAlreadyDeleted = errors.New("edge already deleted")

// mutation describes one field-group update of a live edge.
type mutation struct {
	op     string
	action Action
	group  models.FieldGroup
	change audit.ChangeType
	actor  id.ActorID
	check  func(*models.Edge) error
	apply  func(*models.Edge, time.Time)
}

// mutate runs m as one atomic store operation and emits exactly one history
// event carrying the group's values before and after.
func (s *Service) mutate(ctx context.Context, edgeID id.EdgeID, m mutation) (_ *models.Edge, err error) {
	ctx, span := startSpan(ctx, "relationship."+m.op, edgeIDAttr(edgeID))
	defer func() {
		s.metrics.IncrementMutation(m.op, outcome(err))
		endSpan(span, err)
	}()

	if err := requireActor(m.actor); err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, m.action, m.actor); err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	var before map[string]any
	e, err := s.store.Execute(ctx, edgeID, m.group,
		func(e *models.Edge) error {
			if e.IsDeleted() {
				return errEdgeDeleted
			}
			if m.check != nil {
				if err := m.check(e); err != nil {
					return err
				}
			}
			before = e.Values(m.group)
			return nil
		},
		func(e *models.Edge) { m.apply(e, now) },
	)
	if err != nil {
		return nil, translate(err, edgeID, m.op)
	}

	span.SetAttributes(edgeKindAttr(e.Kind))
	s.emit(ctx, e, m.change, before, e.Values(m.group), m.actor, now)
	s.logger.InfoContext(ctx, "relationship updated",
		"edge_id", e.ID,
		"operation", m.op,
		"actor_id", m.actor,
	)
	return e, nil
}
