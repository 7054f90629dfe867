package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"linkage/internal/relationship/models"
	id "linkage/pkg/domain"
	dErrors "linkage/pkg/domain-errors"
	"linkage/pkg/platform/audit"
	"linkage/pkg/platform/httputil"
	"linkage/pkg/requestcontext"
)

// Service defines the relationship operations exposed over HTTP.
type Service interface {
	Create(ctx context.Context, req *models.CreateRequest) (*models.Edge, error)
	Get(ctx context.Context, edgeID id.EdgeID, includeDeleted bool) (*models.Edge, error)
	List(ctx context.Context, filter models.Filter, page models.Page) (*models.ListResult, error)
	ListByParty(ctx context.Context, partyID id.PartyID, role models.PartyRole, filter models.Filter, page models.Page) (*models.ListResult, error)
	FindActiveRelationships(ctx context.Context, filter models.Filter, page models.Page) (*models.ListResult, error)
	HighRisk(ctx context.Context, filter models.Filter, page models.Page) (*models.ListResult, error)
	Overdue(ctx context.Context, filter models.Filter, page models.Page) (*models.ListResult, error)
	StaleVerifications(ctx context.Context, filter models.Filter, page models.Page) (*models.ListResult, error)
	DueWithin(ctx context.Context, window time.Duration, filter models.Filter, page models.Page) (*models.ListResult, error)
	Statistics(ctx context.Context, filter models.Filter) (*models.Statistics, error)
	UpdateDetails(ctx context.Context, edgeID id.EdgeID, req *models.UpdateDetailsRequest) (*models.Edge, error)
	SubmitForVerification(ctx context.Context, edgeID id.EdgeID, actor id.ActorID) (*models.Edge, error)
	Approve(ctx context.Context, edgeID id.EdgeID, method string, actor id.ActorID) (*models.Edge, error)
	Reject(ctx context.Context, edgeID id.EdgeID, reason string, actor id.ActorID) (*models.Edge, error)
	RevokeVerification(ctx context.Context, edgeID id.EdgeID, actor id.ActorID) (*models.Edge, error)
	Verify(ctx context.Context, edgeID id.EdgeID, req *models.VerifyRequest) (*models.Edge, error)
	UpdateRisk(ctx context.Context, edgeID id.EdgeID, req *models.UpdateRiskRequest) (*models.Edge, error)
	Escalate(ctx context.Context, edgeID id.EdgeID, req *models.EscalateRequest) (*models.Edge, error)
	ResolveEscalation(ctx context.Context, edgeID id.EdgeID, actor id.ActorID) (*models.Edge, error)
	SetNextReview(ctx context.Context, edgeID id.EdgeID, req *models.ScheduleReviewRequest) (*models.Edge, error)
	SoftDelete(ctx context.Context, edgeID id.EdgeID, actor id.ActorID) (*models.Edge, error)
	History(ctx context.Context, edgeID id.EdgeID) ([]audit.HistoryEvent, error)
}

// Handler serves the relationship endpoints.
type Handler struct {
	logger  *slog.Logger
	service Service
}

// New creates a new relationship Handler.
func New(service Service, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service}
}

// Register registers the relationship routes with the chi router. Callers
// install request id, request time and actor middleware in front.
func (h *Handler) Register(r chi.Router) {
	r.Route("/relationships/{kind}", func(r chi.Router) {
		r.Post("/", h.handleCreate)
		r.Get("/", h.handleList)
		r.Get("/stats", h.handleStatistics)
		r.Get("/active", h.handleActive)
		r.Get("/high-risk", h.handleHighRisk)
		r.Get("/overdue", h.handleOverdue)
		r.Get("/stale", h.handleStale)
		r.Get("/due", h.handleDue)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.handleGet)
			r.Patch("/", h.handleUpdateDetails)
			r.Delete("/", h.handleDelete)
			r.Post("/verification", h.handleVerification)
			r.Put("/risk", h.handleUpdateRisk)
			r.Post("/escalation", h.handleEscalate)
			r.Delete("/escalation", h.handleResolveEscalation)
			r.Put("/review", h.handleScheduleReview)
			r.Get("/history", h.handleHistory)
		})
	})
	r.Get("/parties/{partyID}/relationships", h.handleListByParty)
}

// fail logs err at a level matching its code and writes the error envelope.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, msg string, err error) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	if de, ok := dErrors.As(err); ok && de.Code != dErrors.CodeInternal {
		h.logger.WarnContext(ctx, msg,
			"request_id", requestID,
			"error", err.Error(),
		)
	} else {
		h.logger.ErrorContext(ctx, msg,
			"request_id", requestID,
			"error", err.Error(),
		)
	}
	httputil.WriteError(w, err)
}

// actor returns the authenticated actor or writes 401.
func (h *Handler) actor(w http.ResponseWriter, r *http.Request) (id.ActorID, bool) {
	actor := requestcontext.ActorID(r.Context())
	if actor.IsNil() {
		h.fail(w, r, "actor missing from request context", dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return "", false
	}
	return actor, true
}

func (h *Handler) kind(w http.ResponseWriter, r *http.Request) (models.Kind, bool) {
	kind, err := models.ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		h.fail(w, r, "invalid relationship kind", err)
		return "", false
	}
	return kind, true
}

func (h *Handler) edgeID(w http.ResponseWriter, r *http.Request) (id.EdgeID, bool) {
	edgeID, err := id.ParseEdgeID(chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, "invalid relationship id", dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid relationship id").WithField("id"))
		return id.EdgeID{}, false
	}
	return edgeID, true
}

// target resolves kind, id and actor for a mutation and checks the edge lives
// under the requested kind.
func (h *Handler) target(w http.ResponseWriter, r *http.Request) (id.EdgeID, id.ActorID, bool) {
	actor, ok := h.actor(w, r)
	if !ok {
		return id.EdgeID{}, "", false
	}
	kind, ok := h.kind(w, r)
	if !ok {
		return id.EdgeID{}, "", false
	}
	edgeID, ok := h.edgeID(w, r)
	if !ok {
		return id.EdgeID{}, "", false
	}
	if _, ok := h.load(w, r, kind, edgeID, false); !ok {
		return id.EdgeID{}, "", false
	}
	return edgeID, actor, true
}

func (h *Handler) load(w http.ResponseWriter, r *http.Request, kind models.Kind, edgeID id.EdgeID, includeDeleted bool) (*models.Edge, bool) {
	e, err := h.service.Get(r.Context(), edgeID, includeDeleted)
	if err != nil {
		h.fail(w, r, "failed to load relationship", err)
		return nil, false
	}
	if e.Kind != kind {
		h.fail(w, r, "relationship kind mismatch", dErrors.New(dErrors.CodeNotFound, "relationship not found").WithResource(edgeID.String()))
		return nil, false
	}
	return e, true
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := httputil.DecodeJSON(r, v); err != nil {
		h.fail(w, r, "failed to decode request", err)
		return false
	}
	return true
}

func (h *Handler) writeEdge(w http.ResponseWriter, r *http.Request, status int, msg string, e *models.Edge, err error) {
	if err != nil {
		h.fail(w, r, msg, err)
		return
	}
	httputil.WriteJSON(w, status, e)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	kind, ok := h.kind(w, r)
	if !ok {
		return
	}
	var req models.CreateRequest
	if !h.decode(w, r, &req) {
		return
	}
	req.Kind = kind
	req.Actor = actor

	e, err := h.service.Create(r.Context(), &req)
	h.writeEdge(w, r, http.StatusCreated, "failed to create relationship", e, err)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	kind, ok := h.kind(w, r)
	if !ok {
		return
	}
	edgeID, ok := h.edgeID(w, r)
	if !ok {
		return
	}
	includeDeleted, err := optionalFlag(r.URL.Query(), "include_deleted")
	if err != nil {
		h.fail(w, r, "invalid query", err)
		return
	}
	if e, ok := h.load(w, r, kind, edgeID, includeDeleted); ok {
		httputil.WriteJSON(w, http.StatusOK, e)
	}
}

func (h *Handler) handleUpdateDetails(w http.ResponseWriter, r *http.Request) {
	edgeID, actor, ok := h.target(w, r)
	if !ok {
		return
	}
	var req models.UpdateDetailsRequest
	if !h.decode(w, r, &req) {
		return
	}
	req.Actor = actor
	e, err := h.service.UpdateDetails(r.Context(), edgeID, &req)
	h.writeEdge(w, r, http.StatusOK, "failed to update relationship", e, err)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	kind, ok := h.kind(w, r)
	if !ok {
		return
	}
	edgeID, ok := h.edgeID(w, r)
	if !ok {
		return
	}
	// Deleted edges stay addressable so a repeated DELETE is a no-op, not a 404.
	if _, ok := h.load(w, r, kind, edgeID, true); !ok {
		return
	}
	e, err := h.service.SoftDelete(r.Context(), edgeID, actor)
	h.writeEdge(w, r, http.StatusOK, "failed to delete relationship", e, err)
}

func (h *Handler) handleVerification(w http.ResponseWriter, r *http.Request) {
	edgeID, actor, ok := h.target(w, r)
	if !ok {
		return
	}
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[verificationRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}

	var e *models.Edge
	var err error
	switch req.Action {
	case actionSubmit:
		e, err = h.service.SubmitForVerification(ctx, edgeID, actor)
	case actionApprove:
		e, err = h.service.Approve(ctx, edgeID, req.Method, actor)
	case actionReject:
		e, err = h.service.Reject(ctx, edgeID, req.Reason, actor)
	case actionRevoke:
		e, err = h.service.RevokeVerification(ctx, edgeID, actor)
	case actionVerify:
		e, err = h.service.Verify(ctx, edgeID, &models.VerifyRequest{Verified: *req.Verified, Method: req.Method, Actor: actor})
	}
	h.writeEdge(w, r, http.StatusOK, "failed to change verification", e, err)
}

func (h *Handler) handleUpdateRisk(w http.ResponseWriter, r *http.Request) {
	edgeID, actor, ok := h.target(w, r)
	if !ok {
		return
	}
	var req models.UpdateRiskRequest
	if !h.decode(w, r, &req) {
		return
	}
	req.Actor = actor
	e, err := h.service.UpdateRisk(r.Context(), edgeID, &req)
	h.writeEdge(w, r, http.StatusOK, "failed to update risk", e, err)
}

func (h *Handler) handleEscalate(w http.ResponseWriter, r *http.Request) {
	edgeID, actor, ok := h.target(w, r)
	if !ok {
		return
	}
	var req models.EscalateRequest
	if !h.decode(w, r, &req) {
		return
	}
	req.Actor = actor
	e, err := h.service.Escalate(r.Context(), edgeID, &req)
	h.writeEdge(w, r, http.StatusOK, "failed to escalate relationship", e, err)
}

func (h *Handler) handleResolveEscalation(w http.ResponseWriter, r *http.Request) {
	edgeID, actor, ok := h.target(w, r)
	if !ok {
		return
	}
	e, err := h.service.ResolveEscalation(r.Context(), edgeID, actor)
	h.writeEdge(w, r, http.StatusOK, "failed to resolve escalation", e, err)
}

func (h *Handler) handleScheduleReview(w http.ResponseWriter, r *http.Request) {
	edgeID, actor, ok := h.target(w, r)
	if !ok {
		return
	}
	var req models.ScheduleReviewRequest
	if !h.decode(w, r, &req) {
		return
	}
	req.Actor = actor
	e, err := h.service.SetNextReview(r.Context(), edgeID, &req)
	h.writeEdge(w, r, http.StatusOK, "failed to schedule review", e, err)
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	kind, ok := h.kind(w, r)
	if !ok {
		return
	}
	edgeID, ok := h.edgeID(w, r)
	if !ok {
		return
	}
	if _, ok := h.load(w, r, kind, edgeID, true); !ok {
		return
	}
	events, err := h.service.History(r.Context(), edgeID)
	if err != nil {
		h.fail(w, r, "failed to load relationship history", err)
		return
	}
	if events == nil {
		events = []audit.HistoryEvent{}
	}
	httputil.WriteJSON(w, http.StatusOK, historyResponse{EdgeID: edgeID, Events: events})
}
