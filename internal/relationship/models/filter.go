package models

import (
	"strings"
	"time"

	id "linkage/pkg/domain"
	dErrors "linkage/pkg/domain-errors"
)

// Filter is the shared filter shape for listing and statistics. Zero values
// mean "no constraint"; pointer fields distinguish false from absent.
type Filter struct {
	Kind                 Kind
	PartyID              id.PartyID
	PartyRole            PartyRole
	RelationshipTypes    []string
	RiskLevels           []RiskLevel
	VerificationStatuses []VerificationStatus
	Statuses             []Status

	IsHighRisk         *bool
	IsPEPRelated       *bool
	IsSanctionsRelated *bool
	RequiresEDD        *bool
	IsEscalated        *bool
	IsVerified         *bool

	CurrentOnly    bool
	OverdueOnly    bool
	ExpiredOnly    bool
	HasReview      *bool
	IncludeDeleted bool

	EffectiveFromAfter  *time.Time
	EffectiveFromBefore *time.Time
	MinOwnership        *float64
	MaxOwnership        *float64
	NextReviewAfter     *time.Time
	NextReviewBefore    *time.Time
	VerifiedBefore      *time.Time

	Search string
}

const maxSearchLength = 200

// Normalize lowercases enum-like values and trims free text.
func (f *Filter) Normalize() {
	if f == nil {
		return
	}
	for i, t := range f.RelationshipTypes {
		f.RelationshipTypes[i] = strings.ToLower(strings.TrimSpace(t))
	}
	f.Search = strings.TrimSpace(f.Search)
}

// Validate checks enum values and ranges.
func (f *Filter) Validate() error {
	if f == nil {
		return nil
	}
	if len(f.Search) > maxSearchLength {
		return tooLong("search", maxSearchLength)
	}
	if f.Kind != "" && !f.Kind.IsValid() {
		return dErrors.New(dErrors.CodeValidation, "kind must be one of individual, organization, association").WithField("kind").WithConstraint("enum")
	}
	if !f.PartyRole.IsValid() {
		return dErrors.New(dErrors.CodeValidation, "role must be primary or related").WithField("role").WithConstraint("enum")
	}
	if f.PartyRole != RoleAny && f.PartyID.IsNil() {
		return dErrors.New(dErrors.CodeValidation, "role requires party_id").WithField("role")
	}
	for _, r := range f.RiskLevels {
		if !r.IsValid() {
			return dErrors.New(dErrors.CodeValidation, "risk_level must be one of low, medium, high, critical").WithField("risk_level").WithConstraint("enum")
		}
	}
	for _, v := range f.VerificationStatuses {
		if !v.IsValid() {
			return dErrors.New(dErrors.CodeValidation, "verification_status must be one of unverified, pending, verified, rejected").
				WithField("verification_status").WithConstraint("enum")
		}
	}
	for _, s := range f.Statuses {
		if !s.IsValid() {
			return dErrors.New(dErrors.CodeValidation, "status must be one of active, inactive, terminated").WithField("status").WithConstraint("enum")
		}
	}
	if f.MinOwnership != nil && f.MaxOwnership != nil && *f.MinOwnership > *f.MaxOwnership {
		return dErrors.New(dErrors.CodeValidation, "min_ownership must not exceed max_ownership").WithField("min_ownership").WithConstraint("range")
	}
	if err := checkOwnership(f.MinOwnership); err != nil {
		return err
	}
	if err := checkOwnership(f.MaxOwnership); err != nil {
		return err
	}
	if f.EffectiveFromAfter != nil && f.EffectiveFromBefore != nil && f.EffectiveFromAfter.After(*f.EffectiveFromBefore) {
		return dErrors.New(dErrors.CodeValidation, "effective_from_after must not be after effective_from_before").
			WithField("effective_from_after").WithConstraint("range")
	}
	if f.NextReviewAfter != nil && f.NextReviewBefore != nil && f.NextReviewAfter.After(*f.NextReviewBefore) {
		return dErrors.New(dErrors.CodeValidation, "next_review_after must not be after next_review_before").
			WithField("next_review_after").WithConstraint("range")
	}
	return nil
}

// Page selects a window of a sorted result. Limit 0 means the configured default.
type Page struct {
	Limit  int
	Offset int
}

// Normalize clamps the page to [1, max] and a non-negative offset.
func (p Page) Normalize(defaultLimit, maxLimit int) Page {
	if p.Limit <= 0 {
		p.Limit = defaultLimit
	}
	if maxLimit > 0 && p.Limit > maxLimit {
		p.Limit = maxLimit
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}

// Unbounded returns a page covering every row.
func Unbounded() Page {
	return Page{Limit: -1}
}

// IsUnbounded reports whether the page covers every row.
func (p Page) IsUnbounded() bool {
	return p.Limit < 0
}

// ListResult is a page of edges plus the count of every match.
type ListResult struct {
	Edges  []*Edge `json:"edges"`
	Total  int     `json:"total"`
	Limit  int     `json:"limit"`
	Offset int     `json:"offset"`
}
