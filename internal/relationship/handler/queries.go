package handler

import (
	"context"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"linkage/internal/relationship/models"
	id "linkage/pkg/domain"
	dErrors "linkage/pkg/domain-errors"
	"linkage/pkg/platform/httputil"
)

const (
	defaultDueDays = 30
	maxDueDays     = 3650
)

type listFunc func(ctx context.Context, filter models.Filter, page models.Page) (*models.ListResult, error)

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	h.serveList(w, r, h.service.List)
}

func (h *Handler) handleActive(w http.ResponseWriter, r *http.Request) {
	h.serveList(w, r, h.service.FindActiveRelationships)
}

func (h *Handler) handleHighRisk(w http.ResponseWriter, r *http.Request) {
	h.serveList(w, r, h.service.HighRisk)
}

func (h *Handler) handleOverdue(w http.ResponseWriter, r *http.Request) {
	h.serveList(w, r, h.service.Overdue)
}

func (h *Handler) handleStale(w http.ResponseWriter, r *http.Request) {
	h.serveList(w, r, h.service.StaleVerifications)
}

func (h *Handler) handleDue(w http.ResponseWriter, r *http.Request) {
	days := defaultDueDays
	if raw := r.URL.Query().Get("within_days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > maxDueDays {
			h.fail(w, r, "invalid query", invalidParam("within_days", "must be an integer between 1 and "+strconv.Itoa(maxDueDays)))
			return
		}
		days = n
	}
	window := time.Duration(days) * 24 * time.Hour
	h.serveList(w, r, func(ctx context.Context, filter models.Filter, page models.Page) (*models.ListResult, error) {
		return h.service.DueWithin(ctx, window, filter, page)
	})
}

// serveList parses the kind and query filter, then writes one page.
func (h *Handler) serveList(w http.ResponseWriter, r *http.Request, list listFunc) {
	kind, ok := h.kind(w, r)
	if !ok {
		return
	}
	filter, page, err := parseFilter(r.URL.Query())
	if err != nil {
		h.fail(w, r, "invalid query", err)
		return
	}
	filter.Kind = kind
	res, err := list(r.Context(), filter, page)
	if err != nil {
		h.fail(w, r, "failed to list relationships", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, res)
}

func (h *Handler) handleStatistics(w http.ResponseWriter, r *http.Request) {
	kind, ok := h.kind(w, r)
	if !ok {
		return
	}
	filter, _, err := parseFilter(r.URL.Query())
	if err != nil {
		h.fail(w, r, "invalid query", err)
		return
	}
	filter.Kind = kind
	stats, err := h.service.Statistics(r.Context(), filter)
	if err != nil {
		h.fail(w, r, "failed to compute statistics", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, stats)
}

// handleListByParty lists edges of every kind touching one party.
func (h *Handler) handleListByParty(w http.ResponseWriter, r *http.Request) {
	partyID, err := id.ParsePartyID(chi.URLParam(r, "partyID"))
	if err != nil {
		h.fail(w, r, "invalid party id", dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid party id").WithField("party_id"))
		return
	}
	q := r.URL.Query()
	filter, page, err := parseFilter(q)
	if err != nil {
		h.fail(w, r, "invalid query", err)
		return
	}
	if raw := q.Get("kind"); raw != "" {
		if filter.Kind, err = models.ParseKind(raw); err != nil {
			h.fail(w, r, "invalid query", err)
			return
		}
	}
	res, err := h.service.ListByParty(r.Context(), partyID, filter.PartyRole, filter, page)
	if err != nil {
		h.fail(w, r, "failed to list party relationships", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, res)
}

func invalidParam(name, msg string) error {
	return dErrors.New(dErrors.CodeBadRequest, name+" "+msg).WithField(name)
}

// parseFilter reads the shared filter and paging query parameters. Multi-valued
// parameters accept repeats and comma separated lists.
func parseFilter(q url.Values) (models.Filter, models.Page, error) {
	var f models.Filter
	var p models.Page
	var err error

	f.RelationshipTypes = multi(q, "type")
	for _, v := range multi(q, "risk_level") {
		level, err := models.ParseRiskLevel(v)
		if err != nil {
			return f, p, err
		}
		f.RiskLevels = append(f.RiskLevels, level)
	}
	for _, v := range multi(q, "verification_status") {
		status, err := models.ParseVerificationStatus(v)
		if err != nil {
			return f, p, err
		}
		f.VerificationStatuses = append(f.VerificationStatuses, status)
	}
	for _, v := range multi(q, "status") {
		f.Statuses = append(f.Statuses, models.Status(strings.ToLower(v)))
	}

	for _, b := range []struct {
		name string
		dst  **bool
	}{
		{"is_high_risk", &f.IsHighRisk},
		{"is_pep_related", &f.IsPEPRelated},
		{"is_sanctions_related", &f.IsSanctionsRelated},
		{"requires_edd", &f.RequiresEDD},
		{"is_escalated", &f.IsEscalated},
		{"is_verified", &f.IsVerified},
		{"has_review", &f.HasReview},
	} {
		if *b.dst, err = boolParam(q, b.name); err != nil {
			return f, p, err
		}
	}
	for _, b := range []struct {
		name string
		dst  *bool
	}{
		{"current_only", &f.CurrentOnly},
		{"overdue_only", &f.OverdueOnly},
		{"expired_only", &f.ExpiredOnly},
		{"include_deleted", &f.IncludeDeleted},
	} {
		if *b.dst, err = optionalFlag(q, b.name); err != nil {
			return f, p, err
		}
	}

	for _, t := range []struct {
		name string
		dst  **time.Time
	}{
		{"effective_from_after", &f.EffectiveFromAfter},
		{"effective_from_before", &f.EffectiveFromBefore},
		{"next_review_after", &f.NextReviewAfter},
		{"next_review_before", &f.NextReviewBefore},
	} {
		if *t.dst, err = timeParam(q, t.name); err != nil {
			return f, p, err
		}
	}
	if f.MinOwnership, err = floatParam(q, "min_ownership"); err != nil {
		return f, p, err
	}
	if f.MaxOwnership, err = floatParam(q, "max_ownership"); err != nil {
		return f, p, err
	}

	if raw := q.Get("party_id"); raw != "" {
		f.PartyID = id.PartyID(strings.TrimSpace(raw))
	}
	f.PartyRole = models.PartyRole(strings.ToLower(strings.TrimSpace(q.Get("role"))))
	f.Search = q.Get("q")

	if p.Limit, err = intParam(q, "limit"); err != nil {
		return f, p, err
	}
	if p.Offset, err = intParam(q, "offset"); err != nil {
		return f, p, err
	}
	return f, p, nil
}

func multi(q url.Values, name string) []string {
	var out []string
	for _, raw := range q[name] {
		for part := range strings.SplitSeq(raw, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func boolParam(q url.Values, name string) (*bool, error) {
	raw := q.Get(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, invalidParam(name, "must be true or false")
	}
	return &v, nil
}

func optionalFlag(q url.Values, name string) (bool, error) {
	v, err := boolParam(q, name)
	if err != nil || v == nil {
		return false, err
	}
	return *v, nil
}

// timeParam accepts RFC 3339 timestamps or plain dates (midnight UTC).
func timeParam(q url.Values, name string) (*time.Time, error) {
	raw := q.Get(name)
	if raw == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, time.DateOnly} {
		if t, err := time.Parse(layout, raw); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}
	return nil, invalidParam(name, "must be an RFC 3339 timestamp or YYYY-MM-DD date")
}

func floatParam(q url.Values, name string) (*float64, error) {
	raw := q.Get(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil, invalidParam(name, "must be a finite number")
	}
	return &v, nil
}

func intParam(q url.Values, name string) (int, error) {
	raw := q.Get(name)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, invalidParam(name, "must be a non-negative integer")
	}
	return v, nil
}
