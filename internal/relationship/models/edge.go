package models

import (
	"math"
	"slices"
	"strconv"
	"strings"
	"time"

	id "linkage/pkg/domain"
	dErrors "linkage/pkg/domain-errors"
	platformstrings "linkage/pkg/platform/strings"
)

// Edge is a directed compliance relationship between two parties.
//
// Invariants:
//   - PrimaryPartyID != RelatedPartyID
//   - OwnershipPercentage, if set, is within [0, 100]
//   - EffectiveTo, if set, is not before EffectiveFrom
//   - VerificationStatus == verified iff VerifiedAt and VerifiedBy are set
//   - IsHighRisk == RiskLevel in {high, critical} || IsPEPRelated || IsSanctionsRelated || RequiresEDD
//   - DeletedAt is set at most once; deleted edges are never physically removed
//
// Mutations go through Can*/Apply* pairs so stores can run validation and
// mutation under one lock (see Store.Execute).
type Edge struct {
	ID                  id.EdgeID  `json:"id"`
	Kind                Kind       `json:"kind"`
	PrimaryPartyID      id.PartyID `json:"primary_party_id"`
	RelatedPartyID      id.PartyID `json:"related_party_id"`
	RelationshipType    string     `json:"relationship_type"`
	OwnershipPercentage *float64   `json:"ownership_percentage,omitempty"`
	EffectiveFrom       time.Time  `json:"effective_from"`
	EffectiveTo         *time.Time `json:"effective_to,omitempty"`
	Status              Status     `json:"status"`
	IsPrimary           bool       `json:"is_primary"`
	IsReciprocal        bool       `json:"is_reciprocal"`
	Notes               string     `json:"notes,omitempty"`

	VerificationStatus VerificationStatus `json:"verification_status"`
	VerifiedBy         id.ActorID         `json:"verified_by,omitempty"`
	VerifiedAt         *time.Time         `json:"verified_at,omitempty"`
	VerificationMethod string             `json:"verification_method,omitempty"`
	RejectionReason    string             `json:"rejection_reason,omitempty"`

	RiskLevel          RiskLevel `json:"risk_level"`
	RiskFactors        []string  `json:"risk_factors"`
	IsHighRisk         bool      `json:"is_high_risk"`
	IsPEPRelated       bool      `json:"is_pep_related"`
	IsSanctionsRelated bool      `json:"is_sanctions_related"`
	RequiresEDD        bool      `json:"requires_enhanced_due_diligence"`

	IsEscalated      bool       `json:"is_escalated"`
	EscalatedTo      string     `json:"escalated_to,omitempty"`
	EscalationReason string     `json:"escalation_reason,omitempty"`
	EscalatedAt      *time.Time `json:"escalated_at,omitempty"`
	EscalatedBy      id.ActorID `json:"escalated_by,omitempty"`

	LastReviewedDate *time.Time `json:"last_reviewed_date,omitempty"`
	ReviewedBy       id.ActorID `json:"reviewed_by,omitempty"`
	NextReviewDate   *time.Time `json:"next_review_date,omitempty"`

	CreatedBy id.ActorID `json:"created_by"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedBy id.ActorID `json:"updated_by"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
	DeletedBy id.ActorID `json:"deleted_by,omitempty"`
}

// NewEdgeParams carries the attributes of a new edge.
type NewEdgeParams struct {
	ID                  id.EdgeID
	Kind                Kind
	PrimaryPartyID      id.PartyID
	RelatedPartyID      id.PartyID
	RelationshipType    string
	OwnershipPercentage *float64
	EffectiveFrom       time.Time
	EffectiveTo         *time.Time
	IsPrimary           bool
	IsReciprocal        bool
	Notes               string
	RiskLevel           RiskLevel
	RiskFactors         []string
	IsPEPRelated        bool
	IsSanctionsRelated  bool
	RequiresEDD         bool
	NextReviewDate      *time.Time
	Actor               id.ActorID
}

// NewEdge builds an active, unverified edge and checks structural invariants.
func NewEdge(p NewEdgeParams, now time.Time) (*Edge, error) {
	if p.ID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "edge id is required")
	}
	if !p.Kind.IsValid() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "invalid edge kind").WithField("kind")
	}
	if p.PrimaryPartyID.IsNil() || p.RelatedPartyID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "both party ids are required")
	}
	if p.PrimaryPartyID == p.RelatedPartyID {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "primary and related party must differ").
			WithField("related_party_id").WithConstraint("distinct_endpoints")
	}
	if strings.TrimSpace(p.RelationshipType) == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "relationship_type is required").WithField("relationship_type")
	}
	if p.EffectiveFrom.IsZero() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "effective_from is required").WithField("effective_from")
	}
	if err := checkOwnership(p.OwnershipPercentage); err != nil {
		return nil, err
	}
	if err := checkEffectiveWindow(p.EffectiveFrom, p.EffectiveTo); err != nil {
		return nil, err
	}
	if p.Actor.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "actor is required").WithField("actor_id")
	}
	risk := p.RiskLevel
	if risk == "" {
		risk = RiskLow
	}
	if !risk.IsValid() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "invalid risk level").WithField("risk_level")
	}

	e := &Edge{
		ID:                  p.ID,
		Kind:                p.Kind,
		PrimaryPartyID:      p.PrimaryPartyID,
		RelatedPartyID:      p.RelatedPartyID,
		RelationshipType:    p.RelationshipType,
		OwnershipPercentage: p.OwnershipPercentage,
		EffectiveFrom:       p.EffectiveFrom,
		EffectiveTo:         p.EffectiveTo,
		Status:              StatusActive,
		IsPrimary:           p.IsPrimary,
		IsReciprocal:        p.IsReciprocal,
		Notes:               p.Notes,
		VerificationStatus:  VerificationUnverified,
		RiskLevel:           risk,
		RiskFactors:         NormalizeRiskFactors(p.RiskFactors),
		IsPEPRelated:        p.IsPEPRelated,
		IsSanctionsRelated:  p.IsSanctionsRelated,
		RequiresEDD:         p.RequiresEDD,
		NextReviewDate:      p.NextReviewDate,
		CreatedBy:           p.Actor,
		CreatedAt:           now,
		UpdatedBy:           p.Actor,
		UpdatedAt:           now,
	}
	e.recomputeHighRisk()
	return e, nil
}

func checkOwnership(pct *float64) error {
	if pct != nil && (math.IsNaN(*pct) || *pct < 0 || *pct > 100) {
		return dErrors.New(dErrors.CodeValidation, "ownership_percentage must be between 0 and 100").
			WithField("ownership_percentage").WithConstraint("range_0_100")
	}
	return nil
}

func checkEffectiveWindow(from time.Time, to *time.Time) error {
	if to != nil && to.Before(from) {
		return dErrors.New(dErrors.CodeValidation, "effective_to must not be before effective_from").
			WithField("effective_to").WithConstraint("effective_to_gte_effective_from")
	}
	return nil
}

// Clone returns a deep copy so callers never share pointers with a store.
func (e *Edge) Clone() *Edge {
	if e == nil {
		return nil
	}
	c := *e
	c.OwnershipPercentage = clonePtr(e.OwnershipPercentage)
	c.EffectiveTo = clonePtr(e.EffectiveTo)
	c.VerifiedAt = clonePtr(e.VerifiedAt)
	c.EscalatedAt = clonePtr(e.EscalatedAt)
	c.LastReviewedDate = clonePtr(e.LastReviewedDate)
	c.NextReviewDate = clonePtr(e.NextReviewDate)
	c.DeletedAt = clonePtr(e.DeletedAt)
	c.RiskFactors = slices.Clone(e.RiskFactors)
	return &c
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// IsDeleted reports whether the edge has been soft-deleted.
func (e *Edge) IsDeleted() bool {
	return e.DeletedAt != nil
}

// IsCurrent reports whether the edge is active and its effective window contains now.
func (e *Edge) IsCurrent(now time.Time) bool {
	if e.Status != StatusActive || e.EffectiveFrom.After(now) {
		return false
	}
	return e.EffectiveTo == nil || !e.EffectiveTo.Before(now)
}

// IsVerified reports whether the edge is in the verified state.
func (e *Edge) IsVerified() bool {
	return e.VerificationStatus == VerificationVerified
}

// IsOverdue reports whether a scheduled review date has passed.
func (e *Edge) IsOverdue(now time.Time) bool {
	return e.NextReviewDate != nil && e.NextReviewDate.Before(now)
}

// Key is the uniqueness key among live edges.
func (e *Edge) Key() TupleKey {
	return TupleKey{Primary: e.PrimaryPartyID, Related: e.RelatedPartyID, RelationshipType: e.RelationshipType}
}

// TupleKey identifies the (primary, related, type) triple that at most one live
// edge may occupy.
type TupleKey struct {
	Primary          id.PartyID
	Related          id.PartyID
	RelationshipType string
}

// String encodes the tuple with length-prefixed party ids so distinct tuples
// never share a lock key.
func (k TupleKey) String() string {
	return strconv.Itoa(len(k.Primary)) + ":" + string(k.Primary) + "|" +
		strconv.Itoa(len(k.Related)) + ":" + string(k.Related) + "|" + k.RelationshipType
}

func (e *Edge) touch(actor id.ActorID, now time.Time) {
	e.UpdatedBy = actor
	e.UpdatedAt = now
}

// -----------------------------------------------------------------------------
// Details
// -----------------------------------------------------------------------------

// DetailsChange carries optional replacements for descriptive fields. Nil
// pointers leave the field untouched; ClearEffectiveTo and ClearOwnership reset
// the optional fields to null.
type DetailsChange struct {
	EffectiveTo         *time.Time
	ClearEffectiveTo    bool
	OwnershipPercentage *float64
	ClearOwnership      bool
	IsPrimary           *bool
	IsReciprocal        *bool
	Status              *Status
	Notes               *string
}

// CanApplyDetails checks the change against the edge's invariants.
func (e *Edge) CanApplyDetails(c DetailsChange) error {
	if c.Status != nil && !c.Status.IsValid() {
		return dErrors.New(dErrors.CodeValidation, "status must be one of active, inactive, terminated").WithField("status")
	}
	if err := checkOwnership(c.OwnershipPercentage); err != nil {
		return err
	}
	to := e.EffectiveTo
	if c.ClearEffectiveTo {
		to = nil
	} else if c.EffectiveTo != nil {
		to = c.EffectiveTo
	}
	return checkEffectiveWindow(e.EffectiveFrom, to)
}

// ApplyDetails applies a change validated by CanApplyDetails.
func (e *Edge) ApplyDetails(c DetailsChange, actor id.ActorID, now time.Time) {
	switch {
	case c.ClearEffectiveTo:
		e.EffectiveTo = nil
	case c.EffectiveTo != nil:
		e.EffectiveTo = clonePtr(c.EffectiveTo)
	}
	switch {
	case c.ClearOwnership:
		e.OwnershipPercentage = nil
	case c.OwnershipPercentage != nil:
		e.OwnershipPercentage = clonePtr(c.OwnershipPercentage)
	}
	if c.IsPrimary != nil {
		e.IsPrimary = *c.IsPrimary
	}
	if c.IsReciprocal != nil {
		e.IsReciprocal = *c.IsReciprocal
	}
	if c.Status != nil {
		e.Status = *c.Status
	}
	if c.Notes != nil {
		e.Notes = *c.Notes
	}
	e.touch(actor, now)
}

// -----------------------------------------------------------------------------
// Verification
// -----------------------------------------------------------------------------

func invalidTransition(from, to VerificationStatus) error {
	return dErrors.New(dErrors.CodeConflict, "cannot move verification from "+string(from)+" to "+string(to)).
		WithField("verification_status").WithConstraint("invalid_transition")
}

// CanSubmitForVerification checks unverified|rejected -> pending.
func (e *Edge) CanSubmitForVerification() error {
	if !e.VerificationStatus.CanTransitionTo(VerificationPending) {
		return invalidTransition(e.VerificationStatus, VerificationPending)
	}
	return nil
}

// ApplySubmission moves the edge to pending and clears any previous rejection.
func (e *Edge) ApplySubmission(actor id.ActorID, now time.Time) {
	e.VerificationStatus = VerificationPending
	e.RejectionReason = ""
	e.touch(actor, now)
}

// CanApprove checks pending -> verified. A method tag is mandatory.
func (e *Edge) CanApprove(method string) error {
	if strings.TrimSpace(method) == "" {
		return dErrors.New(dErrors.CodeValidation, "verification_method is required").WithField("verification_method")
	}
	if !e.VerificationStatus.CanTransitionTo(VerificationVerified) {
		return invalidTransition(e.VerificationStatus, VerificationVerified)
	}
	return nil
}

// ApplyApproval stamps the verification.
func (e *Edge) ApplyApproval(method string, actor id.ActorID, now time.Time) {
	e.VerificationStatus = VerificationVerified
	e.VerificationMethod = method
	e.VerifiedBy = actor
	e.VerifiedAt = &now
	e.RejectionReason = ""
	e.touch(actor, now)
}

// CanReject checks pending -> rejected. A reason is mandatory.
func (e *Edge) CanReject(reason string) error {
	if strings.TrimSpace(reason) == "" {
		return dErrors.New(dErrors.CodeValidation, "reason is required").WithField("reason")
	}
	if !e.VerificationStatus.CanTransitionTo(VerificationRejected) {
		return invalidTransition(e.VerificationStatus, VerificationRejected)
	}
	return nil
}

// ApplyRejection records the rejection reason.
func (e *Edge) ApplyRejection(reason string, actor id.ActorID, now time.Time) {
	e.VerificationStatus = VerificationRejected
	e.RejectionReason = reason
	e.touch(actor, now)
}

// CanRevoke checks verified -> unverified.
func (e *Edge) CanRevoke() error {
	if !e.VerificationStatus.CanTransitionTo(VerificationUnverified) {
		return invalidTransition(e.VerificationStatus, VerificationUnverified)
	}
	return nil
}

// ApplyRevocation clears every verification stamp.
func (e *Edge) ApplyRevocation(actor id.ActorID, now time.Time) {
	e.VerificationStatus = VerificationUnverified
	e.VerifiedBy = ""
	e.VerifiedAt = nil
	e.VerificationMethod = ""
	e.touch(actor, now)
}

// CanVerify checks that the edge can reach verified, passing through pending
// when it is unverified or rejected.
func (e *Edge) CanVerify(method string) error {
	if strings.TrimSpace(method) == "" {
		return dErrors.New(dErrors.CodeValidation, "verification_method is required").WithField("verification_method")
	}
	if e.VerificationStatus == VerificationPending {
		return nil
	}
	if !e.VerificationStatus.CanTransitionTo(VerificationPending) {
		return invalidTransition(e.VerificationStatus, VerificationVerified)
	}
	return nil
}

// ApplyVerify walks the state machine to verified.
func (e *Edge) ApplyVerify(method string, actor id.ActorID, now time.Time) {
	if e.VerificationStatus != VerificationPending {
		e.ApplySubmission(actor, now)
	}
	e.ApplyApproval(method, actor, now)
}

// -----------------------------------------------------------------------------
// Risk and escalation
// -----------------------------------------------------------------------------

// RiskChange replaces the risk classification. Nil flag pointers keep the
// current flag value.
type RiskChange struct {
	RiskLevel          RiskLevel
	RiskFactors        []string
	IsPEPRelated       *bool
	IsSanctionsRelated *bool
	RequiresEDD        *bool
}

// CanApplyRisk validates the new level.
func (e *Edge) CanApplyRisk(c RiskChange) error {
	if !c.RiskLevel.IsValid() {
		return dErrors.New(dErrors.CodeValidation, "risk_level must be one of low, medium, high, critical").
			WithField("risk_level").WithConstraint("enum")
	}
	return nil
}

// ApplyRisk stores the classification and recomputes IsHighRisk.
func (e *Edge) ApplyRisk(c RiskChange, actor id.ActorID, now time.Time) {
	e.RiskLevel = c.RiskLevel
	e.RiskFactors = NormalizeRiskFactors(c.RiskFactors)
	if c.IsPEPRelated != nil {
		e.IsPEPRelated = *c.IsPEPRelated
	}
	if c.IsSanctionsRelated != nil {
		e.IsSanctionsRelated = *c.IsSanctionsRelated
	}
	if c.RequiresEDD != nil {
		e.RequiresEDD = *c.RequiresEDD
	}
	e.recomputeHighRisk()
	e.touch(actor, now)
}

func (e *Edge) recomputeHighRisk() {
	e.IsHighRisk = ComputeHighRisk(e.RiskLevel, e.IsPEPRelated, e.IsSanctionsRelated, e.RequiresEDD)
}

// ComputeHighRisk derives the high-risk flag.
func ComputeHighRisk(level RiskLevel, pep, sanctions, edd bool) bool {
	return level.IsHigh() || pep || sanctions || edd
}

// NormalizeRiskFactors trims, drops empties and dedupes while keeping order.
func NormalizeRiskFactors(factors []string) []string {
	out := platformstrings.DedupeAndTrim(factors)
	if out == nil {
		return []string{}
	}
	return out
}

// CanEscalate requires a target and a reason.
func (e *Edge) CanEscalate(to, reason string) error {
	if strings.TrimSpace(to) == "" {
		return dErrors.New(dErrors.CodeValidation, "escalated_to is required").WithField("escalated_to")
	}
	if strings.TrimSpace(reason) == "" {
		return dErrors.New(dErrors.CodeValidation, "escalation_reason is required").WithField("escalation_reason")
	}
	return nil
}

// ApplyEscalation flags the edge for review. Risk fields are untouched.
func (e *Edge) ApplyEscalation(to, reason string, actor id.ActorID, now time.Time) {
	e.IsEscalated = true
	e.EscalatedTo = to
	e.EscalationReason = reason
	e.EscalatedAt = &now
	e.EscalatedBy = actor
	e.touch(actor, now)
}

// CanResolveEscalation requires an open escalation.
func (e *Edge) CanResolveEscalation() error {
	if !e.IsEscalated {
		return dErrors.New(dErrors.CodeConflict, "relationship is not escalated").
			WithField("is_escalated").WithConstraint("escalation_open")
	}
	return nil
}

// ApplyEscalationResolution clears the escalation stamps.
func (e *Edge) ApplyEscalationResolution(actor id.ActorID, now time.Time) {
	e.IsEscalated = false
	e.EscalatedTo = ""
	e.EscalationReason = ""
	e.EscalatedAt = nil
	e.EscalatedBy = ""
	e.touch(actor, now)
}

// -----------------------------------------------------------------------------
// Review and deletion
// -----------------------------------------------------------------------------

// ApplyReview schedules the next review and stamps this one.
func (e *Edge) ApplyReview(next *time.Time, actor id.ActorID, now time.Time) {
	e.NextReviewDate = clonePtr(next)
	e.LastReviewedDate = &now
	e.ReviewedBy = actor
	e.touch(actor, now)
}

// ApplySoftDelete marks the edge deleted. Callers check IsDeleted first; a
// second delete is a no-op at the service layer.
func (e *Edge) ApplySoftDelete(actor id.ActorID, now time.Time) {
	e.DeletedAt = &now
	e.DeletedBy = actor
	e.touch(actor, now)
}
