package models

import (
	"strings"
	"time"

	id "linkage/pkg/domain"
	dErrors "linkage/pkg/domain-errors"
)

const (
	MaxRelationshipTypeLength = 64
	MaxNotesLength            = 2000
	MaxRiskFactors            = 32
	MaxRiskFactorLength       = 128
	MaxMethodLength           = 64
	MaxReasonLength           = 500
	MaxEscalationTargetLength = 128
)

func requireActor(actor id.ActorID) error {
	if actor.IsNil() {
		return dErrors.New(dErrors.CodeValidation, "actor is required").WithField("actor_id").WithConstraint("required")
	}
	return nil
}

func tooLong(field string, max int) error {
	return dErrors.New(dErrors.CodeValidation, field+" is too long").WithField(field).WithConstraint("max_length")
}

// CreateRequest creates an edge of Kind between two parties.
type CreateRequest struct {
	Kind                Kind       `json:"-"`
	PrimaryPartyID      string     `json:"primary_party_id"`
	RelatedPartyID      string     `json:"related_party_id"`
	RelationshipType    string     `json:"relationship_type"`
	OwnershipPercentage *float64   `json:"ownership_percentage,omitempty"`
	EffectiveFrom       *time.Time `json:"effective_from"`
	EffectiveTo         *time.Time `json:"effective_to,omitempty"`
	IsPrimary           bool       `json:"is_primary"`
	IsReciprocal        bool       `json:"is_reciprocal"`
	Notes               string     `json:"notes,omitempty"`
	RiskLevel           string     `json:"risk_level,omitempty"`
	RiskFactors         []string   `json:"risk_factors,omitempty"`
	IsPEPRelated        bool       `json:"is_pep_related"`
	IsSanctionsRelated  bool       `json:"is_sanctions_related"`
	RequiresEDD         bool       `json:"requires_enhanced_due_diligence"`
	NextReviewDate      *time.Time `json:"next_review_date,omitempty"`
	Actor               id.ActorID `json:"-"`

	primary   id.PartyID
	related   id.PartyID
	riskLevel RiskLevel
}

func (r *CreateRequest) Normalize() {
	if r == nil {
		return
	}
	r.PrimaryPartyID = strings.TrimSpace(r.PrimaryPartyID)
	r.RelatedPartyID = strings.TrimSpace(r.RelatedPartyID)
	r.RelationshipType = strings.ToLower(strings.TrimSpace(r.RelationshipType))
	r.Notes = strings.TrimSpace(r.Notes)
	r.RiskLevel = strings.ToLower(strings.TrimSpace(r.RiskLevel))
	r.RiskFactors = NormalizeRiskFactors(r.RiskFactors)
}

// Follows validation order: Size -> Required -> Syntax -> Semantic.
func (r *CreateRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}

	if len(r.RelationshipType) > MaxRelationshipTypeLength {
		return tooLong("relationship_type", MaxRelationshipTypeLength)
	}
	if len(r.Notes) > MaxNotesLength {
		return tooLong("notes", MaxNotesLength)
	}
	if err := validateRiskFactors(r.RiskFactors); err != nil {
		return err
	}

	if err := requireActor(r.Actor); err != nil {
		return err
	}
	if r.PrimaryPartyID == "" {
		return dErrors.New(dErrors.CodeValidation, "primary_party_id is required").WithField("primary_party_id").WithConstraint("required")
	}
	if r.RelatedPartyID == "" {
		return dErrors.New(dErrors.CodeValidation, "related_party_id is required").WithField("related_party_id").WithConstraint("required")
	}
	if r.RelationshipType == "" {
		return dErrors.New(dErrors.CodeValidation, "relationship_type is required").WithField("relationship_type").WithConstraint("required")
	}
	if r.EffectiveFrom == nil || r.EffectiveFrom.IsZero() {
		return dErrors.New(dErrors.CodeValidation, "effective_from is required").WithField("effective_from").WithConstraint("required")
	}

	if !r.Kind.IsValid() {
		return dErrors.New(dErrors.CodeValidation, "kind must be one of individual, organization, association").WithField("kind").WithConstraint("enum")
	}
	primary, err := id.ParsePartyID(r.PrimaryPartyID)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeValidation, "invalid primary_party_id").WithField("primary_party_id")
	}
	related, err := id.ParsePartyID(r.RelatedPartyID)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeValidation, "invalid related_party_id").WithField("related_party_id")
	}
	r.riskLevel = RiskLow
	if r.RiskLevel != "" {
		if r.riskLevel, err = ParseRiskLevel(r.RiskLevel); err != nil {
			return err
		}
	}

	if primary == related {
		return dErrors.New(dErrors.CodeValidation, "primary and related party must differ").
			WithField("related_party_id").WithConstraint("distinct_endpoints")
	}
	if err := checkOwnership(r.OwnershipPercentage); err != nil {
		return err
	}
	if err := checkEffectiveWindow(*r.EffectiveFrom, r.EffectiveTo); err != nil {
		return err
	}

	r.primary = primary
	r.related = related
	return nil
}

// Params converts a validated request into constructor parameters.
func (r *CreateRequest) Params(edgeID id.EdgeID) NewEdgeParams {
	p := NewEdgeParams{
		ID:                  edgeID,
		Kind:                r.Kind,
		PrimaryPartyID:      r.primary,
		RelatedPartyID:      r.related,
		RelationshipType:    r.RelationshipType,
		OwnershipPercentage: r.OwnershipPercentage,
		EffectiveTo:         r.EffectiveTo,
		IsPrimary:           r.IsPrimary,
		IsReciprocal:        r.IsReciprocal,
		Notes:               r.Notes,
		RiskLevel:           r.riskLevel,
		RiskFactors:         r.RiskFactors,
		IsPEPRelated:        r.IsPEPRelated,
		IsSanctionsRelated:  r.IsSanctionsRelated,
		RequiresEDD:         r.RequiresEDD,
		NextReviewDate:      r.NextReviewDate,
		Actor:               r.Actor,
	}
	if r.EffectiveFrom != nil {
		p.EffectiveFrom = *r.EffectiveFrom
	}
	return p
}

// Key returns the uniqueness key of the edge this request would create.
func (r *CreateRequest) Key() TupleKey {
	return TupleKey{Primary: r.primary, Related: r.related, RelationshipType: r.RelationshipType}
}

// PrimaryParty returns the parsed primary party id (valid after Validate).
func (r *CreateRequest) PrimaryParty() id.PartyID { return r.primary }

// RelatedParty returns the parsed related party id (valid after Validate).
func (r *CreateRequest) RelatedParty() id.PartyID { return r.related }

func validateRiskFactors(factors []string) error {
	if len(factors) > MaxRiskFactors {
		return dErrors.New(dErrors.CodeValidation, "too many risk_factors").WithField("risk_factors").WithConstraint("max_items")
	}
	for _, f := range factors {
		if len(f) > MaxRiskFactorLength {
			return tooLong("risk_factors", MaxRiskFactorLength)
		}
	}
	return nil
}

// UpdateDetailsRequest changes descriptive fields. Absent fields are untouched.
type UpdateDetailsRequest struct {
	EffectiveTo         *time.Time `json:"effective_to,omitempty"`
	ClearEffectiveTo    bool       `json:"clear_effective_to,omitempty"`
	OwnershipPercentage *float64   `json:"ownership_percentage,omitempty"`
	ClearOwnership      bool       `json:"clear_ownership_percentage,omitempty"`
	IsPrimary           *bool      `json:"is_primary,omitempty"`
	IsReciprocal        *bool      `json:"is_reciprocal,omitempty"`
	Status              *string    `json:"status,omitempty"`
	Notes               *string    `json:"notes,omitempty"`
	Actor               id.ActorID `json:"-"`
}

func (r *UpdateDetailsRequest) Normalize() {
	if r == nil {
		return
	}
	if r.Status != nil {
		s := strings.ToLower(strings.TrimSpace(*r.Status))
		r.Status = &s
	}
	if r.Notes != nil {
		n := strings.TrimSpace(*r.Notes)
		r.Notes = &n
	}
}

// Follows validation order: Size -> Required -> Syntax -> Semantic.
func (r *UpdateDetailsRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	if r.Notes != nil && len(*r.Notes) > MaxNotesLength {
		return tooLong("notes", MaxNotesLength)
	}
	if err := requireActor(r.Actor); err != nil {
		return err
	}
	if r.EffectiveTo == nil && !r.ClearEffectiveTo && r.OwnershipPercentage == nil && !r.ClearOwnership &&
		r.IsPrimary == nil && r.IsReciprocal == nil && r.Status == nil && r.Notes == nil {
		return dErrors.New(dErrors.CodeValidation, "at least one field must be provided").WithConstraint("non_empty_update")
	}
	if r.Status != nil && !Status(*r.Status).IsValid() {
		return dErrors.New(dErrors.CodeValidation, "status must be one of active, inactive, terminated").WithField("status").WithConstraint("enum")
	}
	if r.EffectiveTo != nil && r.ClearEffectiveTo {
		return dErrors.New(dErrors.CodeValidation, "effective_to and clear_effective_to are mutually exclusive").WithField("effective_to")
	}
	if r.OwnershipPercentage != nil && r.ClearOwnership {
		return dErrors.New(dErrors.CodeValidation, "ownership_percentage and clear_ownership_percentage are mutually exclusive").WithField("ownership_percentage")
	}
	return checkOwnership(r.OwnershipPercentage)
}

// Change converts the request into a details change.
func (r *UpdateDetailsRequest) Change() DetailsChange {
	c := DetailsChange{
		EffectiveTo:         r.EffectiveTo,
		ClearEffectiveTo:    r.ClearEffectiveTo,
		OwnershipPercentage: r.OwnershipPercentage,
		ClearOwnership:      r.ClearOwnership,
		IsPrimary:           r.IsPrimary,
		IsReciprocal:        r.IsReciprocal,
		Notes:               r.Notes,
	}
	if r.Status != nil {
		s := Status(*r.Status)
		c.Status = &s
	}
	return c
}

// VerifyRequest is the single-call verification toggle: Verified=true walks the
// edge to verified with Method; Verified=false revokes.
type VerifyRequest struct {
	Verified bool       `json:"verified"`
	Method   string     `json:"verification_method,omitempty"`
	Actor    id.ActorID `json:"-"`
}

func (r *VerifyRequest) Normalize() {
	if r == nil {
		return
	}
	r.Method = strings.TrimSpace(r.Method)
}

func (r *VerifyRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	if len(r.Method) > MaxMethodLength {
		return tooLong("verification_method", MaxMethodLength)
	}
	if err := requireActor(r.Actor); err != nil {
		return err
	}
	if r.Verified && r.Method == "" {
		return dErrors.New(dErrors.CodeValidation, "verification_method is required").WithField("verification_method").WithConstraint("required")
	}
	return nil
}

// UpdateRiskRequest replaces an edge's risk classification.
type UpdateRiskRequest struct {
	RiskLevel          string     `json:"risk_level"`
	RiskFactors        []string   `json:"risk_factors"`
	IsPEPRelated       *bool      `json:"is_pep_related,omitempty"`
	IsSanctionsRelated *bool      `json:"is_sanctions_related,omitempty"`
	RequiresEDD        *bool      `json:"requires_enhanced_due_diligence,omitempty"`
	Actor              id.ActorID `json:"-"`

	level RiskLevel
}

func (r *UpdateRiskRequest) Normalize() {
	if r == nil {
		return
	}
	r.RiskLevel = strings.ToLower(strings.TrimSpace(r.RiskLevel))
	r.RiskFactors = NormalizeRiskFactors(r.RiskFactors)
}

// Follows validation order: Size -> Required -> Syntax -> Semantic.
func (r *UpdateRiskRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	if err := validateRiskFactors(r.RiskFactors); err != nil {
		return err
	}
	if err := requireActor(r.Actor); err != nil {
		return err
	}
	if r.RiskLevel == "" {
		return dErrors.New(dErrors.CodeValidation, "risk_level is required").WithField("risk_level").WithConstraint("required")
	}
	level, err := ParseRiskLevel(r.RiskLevel)
	if err != nil {
		return err
	}
	r.level = level
	return nil
}

// Change converts a validated request into a risk change.
func (r *UpdateRiskRequest) Change() RiskChange {
	level := r.level
	if level == "" {
		level = RiskLevel(r.RiskLevel)
	}
	return RiskChange{
		RiskLevel:          level,
		RiskFactors:        r.RiskFactors,
		IsPEPRelated:       r.IsPEPRelated,
		IsSanctionsRelated: r.IsSanctionsRelated,
		RequiresEDD:        r.RequiresEDD,
	}
}

// EscalateRequest flags an edge for attention by EscalatedTo.
type EscalateRequest struct {
	EscalatedTo string     `json:"escalated_to"`
	Reason      string     `json:"escalation_reason"`
	Actor       id.ActorID `json:"-"`
}

func (r *EscalateRequest) Normalize() {
	if r == nil {
		return
	}
	r.EscalatedTo = strings.TrimSpace(r.EscalatedTo)
	r.Reason = strings.TrimSpace(r.Reason)
}

// Follows validation order: Size -> Required -> Syntax -> Semantic.
func (r *EscalateRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	if len(r.EscalatedTo) > MaxEscalationTargetLength {
		return tooLong("escalated_to", MaxEscalationTargetLength)
	}
	if len(r.Reason) > MaxReasonLength {
		return tooLong("escalation_reason", MaxReasonLength)
	}
	if err := requireActor(r.Actor); err != nil {
		return err
	}
	if r.EscalatedTo == "" {
		return dErrors.New(dErrors.CodeValidation, "escalated_to is required").WithField("escalated_to").WithConstraint("required")
	}
	if r.Reason == "" {
		return dErrors.New(dErrors.CodeValidation, "escalation_reason is required").WithField("escalation_reason").WithConstraint("required")
	}
	return nil
}

// ScheduleReviewRequest records a review and sets the next one. A nil date
// clears the schedule.
type ScheduleReviewRequest struct {
	NextReviewDate *time.Time `json:"next_review_date"`
	Actor          id.ActorID `json:"-"`
}

func (r *ScheduleReviewRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	return requireActor(r.Actor)
}
