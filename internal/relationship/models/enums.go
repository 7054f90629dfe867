package models

import (
	"strings"

	dErrors "linkage/pkg/domain-errors"
)

// PartyKind is the kind of an edge endpoint as known to the party registry.
type PartyKind string

const (
	PartyKindIndividual   PartyKind = "individual"
	PartyKindOrganization PartyKind = "organization"
)

// Kind tags an edge with the kinds of both endpoints.
type Kind string

const (
	// KindIndividual links two individuals (family, business ties).
	KindIndividual Kind = "individual"
	// KindOrganization links two organizations (ownership, control).
	KindOrganization Kind = "organization"
	// KindAssociation links an organization (primary) to an individual (related):
	// directors, shareholders, beneficial owners, employees.
	KindAssociation Kind = "association"
)

// Kinds lists every edge kind in display order.
var Kinds = []Kind{KindIndividual, KindOrganization, KindAssociation}

func (k Kind) IsValid() bool {
	switch k {
	case KindIndividual, KindOrganization, KindAssociation:
		return true
	}
	return false
}

// Endpoints returns the party kinds of the primary and related endpoint.
func (k Kind) Endpoints() (primary, related PartyKind) {
	switch k {
	case KindIndividual:
		return PartyKindIndividual, PartyKindIndividual
	case KindOrganization:
		return PartyKindOrganization, PartyKindOrganization
	default:
		return PartyKindOrganization, PartyKindIndividual
	}
}

// ParseKind parses a kind from a path segment or query parameter.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	if !k.IsValid() {
		return "", dErrors.New(dErrors.CodeValidation, "kind must be one of individual, organization, association").
			WithField("kind").WithConstraint("enum")
	}
	return k, nil
}

// Status is the business status of a relationship, independent of verification.
type Status string

const (
	StatusActive     Status = "active"
	StatusInactive   Status = "inactive"
	StatusTerminated Status = "terminated"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusActive, StatusInactive, StatusTerminated:
		return true
	}
	return false
}

// VerificationStatus is the position of an edge in the verification state machine.
type VerificationStatus string

const (
	VerificationUnverified VerificationStatus = "unverified"
	VerificationPending    VerificationStatus = "pending"
	VerificationVerified   VerificationStatus = "verified"
	VerificationRejected   VerificationStatus = "rejected"
)

// VerificationStatuses lists every verification state.
var VerificationStatuses = []VerificationStatus{
	VerificationUnverified, VerificationPending, VerificationVerified, VerificationRejected,
}

var verificationTransitions = map[VerificationStatus][]VerificationStatus{
	VerificationUnverified: {VerificationPending},
	VerificationRejected:   {VerificationPending},
	VerificationPending:    {VerificationVerified, VerificationRejected},
	VerificationVerified:   {VerificationUnverified},
}

func (v VerificationStatus) IsValid() bool {
	_, ok := verificationTransitions[v]
	return ok
}

// CanTransitionTo reports whether next is reachable from v in one step.
func (v VerificationStatus) CanTransitionTo(next VerificationStatus) bool {
	for _, allowed := range verificationTransitions[v] {
		if allowed == next {
			return true
		}
	}
	return false
}

// ParseVerificationStatus parses a verification status filter value.
func ParseVerificationStatus(s string) (VerificationStatus, error) {
	v := VerificationStatus(strings.ToLower(strings.TrimSpace(s)))
	if !v.IsValid() {
		return "", dErrors.New(dErrors.CodeValidation, "verification_status must be one of unverified, pending, verified, rejected").
			WithField("verification_status").WithConstraint("enum")
	}
	return v, nil
}

// RiskLevel is the recorded risk classification of a relationship.
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// RiskLevels lists every risk level in ascending severity.
var RiskLevels = []RiskLevel{RiskLow, RiskMedium, RiskHigh, RiskCritical}

func (r RiskLevel) IsValid() bool {
	switch r {
	case RiskLow, RiskMedium, RiskHigh, RiskCritical:
		return true
	}
	return false
}

// IsHigh reports whether the level alone makes an edge high risk.
func (r RiskLevel) IsHigh() bool {
	return r == RiskHigh || r == RiskCritical
}

// ParseRiskLevel parses a risk level.
func ParseRiskLevel(s string) (RiskLevel, error) {
	r := RiskLevel(strings.ToLower(strings.TrimSpace(s)))
	if !r.IsValid() {
		return "", dErrors.New(dErrors.CodeValidation, "risk_level must be one of low, medium, high, critical").
			WithField("risk_level").WithConstraint("enum")
	}
	return r, nil
}

// PartyRole narrows party lookups to one endpoint.
type PartyRole string

const (
	RoleAny     PartyRole = ""
	RolePrimary PartyRole = "primary"
	RoleRelated PartyRole = "related"
)

func (r PartyRole) IsValid() bool {
	switch r {
	case RoleAny, RolePrimary, RoleRelated:
		return true
	}
	return false
}

// FieldGroup names a set of edge columns that one mutation owns. Writers touching
// different groups of the same edge never overwrite each other.
type FieldGroup string

const (
	GroupDetails      FieldGroup = "details"
	GroupVerification FieldGroup = "verification"
	GroupRisk         FieldGroup = "risk"
	GroupEscalation   FieldGroup = "escalation"
	GroupReview       FieldGroup = "review"
	GroupDeletion     FieldGroup = "deletion"
)
