package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"linkage/internal/party"
	"linkage/internal/relationship/lock"
	"linkage/internal/relationship/metrics"
	"linkage/internal/relationship/models"
	id "linkage/pkg/domain"
	dErrors "linkage/pkg/domain-errors"
	"linkage/pkg/platform/audit"
	"linkage/pkg/platform/sentinel"
	"linkage/pkg/requestcontext"
)

// Store persists edges. Execute runs validate and mutate atomically against one
// edge and persists only the columns of group.
type Store interface {
	Create(ctx context.Context, e *models.Edge) error
	FindByID(ctx context.Context, edgeID id.EdgeID) (*models.Edge, error)
	List(ctx context.Context, filter models.Filter, page models.Page, now time.Time) (*models.ListResult, error)
	Statistics(ctx context.Context, filter models.Filter, now time.Time) (*models.Statistics, error)
	Execute(ctx context.Context, edgeID id.EdgeID, group models.FieldGroup, validate func(*models.Edge) error, mutate func(*models.Edge)) (*models.Edge, error)
}

type PartyRegistry interface {
	Resolve(ctx context.Context, ref party.Ref) (party.Resolution, error)
}

// Locker serializes edge creation per tuple key.
type Locker interface {
	Lock(ctx context.Context, key string) (lock.Unlock, error)
}

// HistoryEmitter accepts history events without blocking the mutation.
type HistoryEmitter interface {
	Emit(ctx context.Context, event audit.HistoryEvent)
}

type HistoryReader interface {
	ListByEdge(ctx context.Context, edgeID id.EdgeID) ([]audit.HistoryEvent, error)
}

// Authorizer decides whether the actor in ctx may perform action. A nil
// Authorizer allows everything.
type Authorizer interface {
	Authorize(ctx context.Context, action Action, actor id.ActorID) error
}

const (
	DefaultPageSize   = 50
	MaxPageSize       = 500
	DefaultStaleAfter = 6 // months
)

// Service implements the relationship graph: edge lifecycle, verification,
// risk and escalation, review scheduling and statistics.
type Service struct {
	store      Store
	parties    PartyRegistry
	locker     Locker
	history    HistoryEmitter
	reader     HistoryReader
	authorizer Authorizer
	logger     *slog.Logger
	metrics    *metrics.Metrics

	staleMonths int
	pageSize    int
	maxPageSize int
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithLocker(l Locker) Option {
	return func(s *Service) {
		s.locker = l
	}
}

func WithHistory(emitter HistoryEmitter) Option {
	return func(s *Service) {
		s.history = emitter
	}
}

func WithHistoryReader(r HistoryReader) Option {
	return func(s *Service) {
		s.reader = r
	}
}

func WithAuthorizer(a Authorizer) Option {
	return func(s *Service) {
		s.authorizer = a
	}
}

// WithStaleVerificationWindow sets how many months a verification stays fresh.
func WithStaleVerificationWindow(months int) Option {
	return func(s *Service) {
		if months > 0 {
			s.staleMonths = months
		}
	}
}

func WithPageLimits(defaultSize, maxSize int) Option {
	return func(s *Service) {
		if defaultSize > 0 {
			s.pageSize = defaultSize
		}
		if maxSize > 0 {
			s.maxPageSize = maxSize
		}
	}
}

// New constructs a Service. Without WithLocker, creation is serialized by an
// in-process sharded lock.
func New(store Store, parties PartyRegistry, opts ...Option) *Service {
	s := &Service{
		store:       store,
		parties:     parties,
		logger:      slog.Default(),
		staleMonths: DefaultStaleAfter,
		pageSize:    DefaultPageSize,
		maxPageSize: MaxPageSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.locker == nil {
		s.locker = lock.NewSharded(0)
	}
	if s.pageSize > s.maxPageSize {
		s.pageSize = s.maxPageSize
	}
	return s
}

// errEdgeDeleted is returned from validate callbacks; deleted edges are not
// mutable and surface as not found.
var errEdgeDeleted = errors.New("edge is deleted")

// translate maps store and model errors onto the domain taxonomy.
func translate(err error, edgeID id.EdgeID, action string) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound), errors.Is(err, errEdgeDeleted):
		return dErrors.New(dErrors.CodeNotFound, "relationship not found").WithResource(edgeID.String())
	case errors.Is(err, context.DeadlineExceeded):
		return dErrors.Wrap(err, dErrors.CodeTimeout, "timed out while trying to "+action)
	}
	if de, ok := dErrors.As(err); ok {
		if de.Code == dErrors.CodeInvariantViolation {
			return &dErrors.Error{
				Code:       dErrors.CodeConflict,
				Message:    de.Message,
				Field:      de.Field,
				Constraint: de.Constraint,
				Resource:   edgeID.String(),
			}
		}
		if de.Resource == "" {
			de.Resource = edgeID.String()
		}
		return de
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "failed to "+action)
}

// outcome labels err for metrics.
func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	if de, ok := dErrors.As(err); ok {
		return string(de.Code)
	}
	return "error"
}

func requireActor(actor id.ActorID) error {
	if actor.IsNil() {
		return dErrors.New(dErrors.CodeValidation, "actor is required").WithField("actor_id").WithConstraint("required")
	}
	return nil
}

func (s *Service) authorize(ctx context.Context, action Action, actor id.ActorID) error {
	if s.authorizer == nil {
		return nil
	}
	return s.authorizer.Authorize(ctx, action, actor)
}

// emit hands a history event to the emitter. Emission never fails the mutation.
func (s *Service) emit(ctx context.Context, e *models.Edge, change audit.ChangeType, before, after map[string]any, actor id.ActorID, now time.Time) {
	if s.history == nil {
		return
	}
	s.history.Emit(ctx, audit.HistoryEvent{
		ID:         id.NewEventID(),
		EdgeID:     e.ID,
		EdgeKind:   string(e.Kind),
		ChangeType: change,
		OldValues:  before,
		NewValues:  after,
		ActorID:    actor,
		RequestID:  requestcontext.RequestID(ctx),
		Timestamp:  now,
	})
}
