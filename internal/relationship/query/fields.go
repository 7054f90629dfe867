package query

import (
	"cmp"
	"time"

	"linkage/internal/relationship/models"
)

func compareBool(a, b bool) int {
	switch {
	case a == b:
		return 0
	case !a:
		return -1
	default:
		return 1
	}
}

func compareTime(a, b time.Time) int {
	return a.Compare(b)
}

func str(get func(*models.Edge) string) func(*models.Edge) (string, bool) {
	return func(e *models.Edge) (string, bool) { return get(e), true }
}

func flag(get func(*models.Edge) bool) func(*models.Edge) (bool, bool) {
	return func(e *models.Edge) (bool, bool) { return get(e), true }
}

func optTime(get func(*models.Edge) *time.Time) func(*models.Edge) (time.Time, bool) {
	return func(e *models.Edge) (time.Time, bool) {
		t := get(e)
		if t == nil {
			return time.Time{}, false
		}
		return *t, true
	}
}

// Edge columns.
var (
	KindField             = NewField("kind", str(func(e *models.Edge) string { return string(e.Kind) }), cmp.Compare[string])
	PrimaryPartyField     = NewField("primary_party_id", str(func(e *models.Edge) string { return string(e.PrimaryPartyID) }), cmp.Compare[string])
	RelatedPartyField     = NewField("related_party_id", str(func(e *models.Edge) string { return string(e.RelatedPartyID) }), cmp.Compare[string])
	RelationshipTypeField = NewField("relationship_type", str(func(e *models.Edge) string { return e.RelationshipType }), cmp.Compare[string])
	StatusField           = NewField("status", str(func(e *models.Edge) string { return string(e.Status) }), cmp.Compare[string])
	NotesField            = NewField("notes", str(func(e *models.Edge) string { return e.Notes }), cmp.Compare[string])

	VerificationStatusField = NewField("verification_status", str(func(e *models.Edge) string { return string(e.VerificationStatus) }), cmp.Compare[string])
	RiskLevelField          = NewField("risk_level", str(func(e *models.Edge) string { return string(e.RiskLevel) }), cmp.Compare[string])

	HighRiskField    = NewField("is_high_risk", flag(func(e *models.Edge) bool { return e.IsHighRisk }), compareBool)
	PEPField         = NewField("is_pep_related", flag(func(e *models.Edge) bool { return e.IsPEPRelated }), compareBool)
	SanctionsField   = NewField("is_sanctions_related", flag(func(e *models.Edge) bool { return e.IsSanctionsRelated }), compareBool)
	EDDField         = NewField("requires_edd", flag(func(e *models.Edge) bool { return e.RequiresEDD }), compareBool)
	EscalatedField   = NewField("is_escalated", flag(func(e *models.Edge) bool { return e.IsEscalated }), compareBool)
	PrimaryFlagField = NewField("is_primary", flag(func(e *models.Edge) bool { return e.IsPrimary }), compareBool)

	EffectiveFromField = NewField("effective_from", func(e *models.Edge) (time.Time, bool) { return e.EffectiveFrom, true }, compareTime)
	EffectiveToField   = NewField("effective_to", optTime(func(e *models.Edge) *time.Time { return e.EffectiveTo }), compareTime)
	NextReviewField    = NewField("next_review_date", optTime(func(e *models.Edge) *time.Time { return e.NextReviewDate }), compareTime)
	VerifiedAtField    = NewField("verified_at", optTime(func(e *models.Edge) *time.Time { return e.VerifiedAt }), compareTime)
	DeletedAtField     = NewField("deleted_at", optTime(func(e *models.Edge) *time.Time { return e.DeletedAt }), compareTime)

	OwnershipField = NewField("ownership_percentage", func(e *models.Edge) (float64, bool) {
		if e.OwnershipPercentage == nil {
			return 0, false
		}
		return *e.OwnershipPercentage, true
	}, cmp.Compare[float64])
)

// SearchFields are the columns matched by free-text search.
var SearchFields = []Field[string]{RelationshipTypeField, NotesField, PrimaryPartyField, RelatedPartyField}

// GroupField is a column statistics break down by.
type GroupField struct {
	Field Field[string]
	add   func(s *models.Statistics, key string, n int)
}

// Add adds n to the bucket for key.
func (g GroupField) Add(s *models.Statistics, key string, n int) {
	g.add(s, key, n)
}

// Groups lists the breakdowns reported by statistics.
var Groups = []GroupField{
	{Field: RelationshipTypeField, add: func(s *models.Statistics, k string, n int) { s.ByType[k] += n }},
	{Field: RiskLevelField, add: func(s *models.Statistics, k string, n int) { s.ByRiskLevel[models.RiskLevel(k)] += n }},
	{Field: VerificationStatusField, add: func(s *models.Statistics, k string, n int) {
		s.ByVerificationStatus[models.VerificationStatus(k)] += n
	}},
	{Field: KindField, add: func(s *models.Statistics, k string, n int) { s.ByKind[models.Kind(k)] += n }},
}
