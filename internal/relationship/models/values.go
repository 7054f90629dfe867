package models

import (
	"maps"
	"slices"
	"time"
)

// Values returns the fields owned by group as a flat map for history records.
// Times are RFC 3339 strings and absent optionals are nil, so the map encodes the
// same way in every sink.
func (e *Edge) Values(group FieldGroup) map[string]any {
	switch group {
	case GroupDetails:
		return map[string]any{
			"effective_to":         timeValue(e.EffectiveTo),
			"ownership_percentage": floatValue(e.OwnershipPercentage),
			"is_primary":           e.IsPrimary,
			"is_reciprocal":        e.IsReciprocal,
			"status":               string(e.Status),
			"notes":                e.Notes,
		}
	case GroupVerification:
		return map[string]any{
			"verification_status": string(e.VerificationStatus),
			"verified_by":         stringValue(string(e.VerifiedBy)),
			"verified_at":         timeValue(e.VerifiedAt),
			"verification_method": stringValue(e.VerificationMethod),
			"rejection_reason":    stringValue(e.RejectionReason),
		}
	case GroupRisk:
		return map[string]any{
			"risk_level":                      string(e.RiskLevel),
			"risk_factors":                    slices.Clone(e.RiskFactors),
			"is_high_risk":                    e.IsHighRisk,
			"is_pep_related":                  e.IsPEPRelated,
			"is_sanctions_related":            e.IsSanctionsRelated,
			"requires_enhanced_due_diligence": e.RequiresEDD,
		}
	case GroupEscalation:
		return map[string]any{
			"is_escalated":      e.IsEscalated,
			"escalated_to":      stringValue(e.EscalatedTo),
			"escalation_reason": stringValue(e.EscalationReason),
			"escalated_at":      timeValue(e.EscalatedAt),
			"escalated_by":      stringValue(string(e.EscalatedBy)),
		}
	case GroupReview:
		return map[string]any{
			"next_review_date":   timeValue(e.NextReviewDate),
			"last_reviewed_date": timeValue(e.LastReviewedDate),
			"reviewed_by":        stringValue(string(e.ReviewedBy)),
		}
	case GroupDeletion:
		return map[string]any{
			"deleted_at": timeValue(e.DeletedAt),
			"deleted_by": stringValue(string(e.DeletedBy)),
		}
	}
	return nil
}

// Snapshot returns every field of the edge, used for created and deleted records.
func (e *Edge) Snapshot() map[string]any {
	out := map[string]any{
		"id":                e.ID.String(),
		"kind":              string(e.Kind),
		"primary_party_id":  string(e.PrimaryPartyID),
		"related_party_id":  string(e.RelatedPartyID),
		"relationship_type": e.RelationshipType,
		"effective_from":    e.EffectiveFrom.UTC().Format(time.RFC3339Nano),
		"created_by":        string(e.CreatedBy),
		"created_at":        e.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
	for _, g := range []FieldGroup{GroupDetails, GroupVerification, GroupRisk, GroupEscalation, GroupReview, GroupDeletion} {
		maps.Copy(out, e.Values(g))
	}
	return out
}

func timeValue(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func floatValue(f *float64) any {
	if f == nil {
		return nil
	}
	return *f
}

func stringValue(s string) any {
	if s == "" {
		return nil
	}
	return s
}
