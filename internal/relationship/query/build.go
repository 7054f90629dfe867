package query

import (
	"time"

	"linkage/internal/relationship/models"
)

// NotDeleted is the base predicate of every query unless deleted rows are requested.
func NotDeleted() Predicate {
	return IsNull(DeletedAtField)
}

// Current matches active edges whose effective window contains now.
func Current(now time.Time) Predicate {
	return And(
		Equals(StatusField, string(models.StatusActive)),
		Cmp(EffectiveFromField, LTE, now),
		Or(IsNull(EffectiveToField), Cmp(EffectiveToField, GTE, now)),
	)
}

// Expired matches edges whose effective_to lies before now.
func Expired(now time.Time) Predicate {
	return Cmp(EffectiveToField, LT, now)
}

// HighRisk matches edges flagged high risk.
func HighRisk() Predicate {
	return Equals(HighRiskField, true)
}

// Verified matches edges in the verified state.
func Verified() Predicate {
	return Equals(VerificationStatusField, string(models.VerificationVerified))
}

// Unverified matches every edge not in the verified state.
func Unverified() Predicate {
	return Not(Verified())
}

// Escalated matches edges with an open escalation.
func Escalated() Predicate {
	return Equals(EscalatedField, true)
}

// Overdue matches edges whose next review date has passed. Unscheduled edges
// are never overdue.
func Overdue(now time.Time) Predicate {
	return Cmp(NextReviewField, LT, now)
}

// NeedingReview matches escalated or overdue edges.
func NeedingReview(now time.Time) Predicate {
	return Or(Escalated(), Overdue(now))
}

// StaleVerification matches verified edges verified before cutoff.
func StaleVerification(cutoff time.Time) Predicate {
	return And(Verified(), Cmp(VerifiedAtField, LT, cutoff))
}

// DueWithin matches edges whose next review falls in [now, now+d].
func DueWithin(now time.Time, d time.Duration) Predicate {
	end := now.Add(d)
	return Range(NextReviewField, &now, &end)
}

// Party matches edges touching party in the given role.
func Party(party string, role models.PartyRole) Predicate {
	switch role {
	case models.RolePrimary:
		return Equals(PrimaryPartyField, party)
	case models.RoleRelated:
		return Equals(RelatedPartyField, party)
	default:
		return Or(Equals(PrimaryPartyField, party), Equals(RelatedPartyField, party))
	}
}

// Metric is a derived statistics counter.
type Metric struct {
	Name      string
	Predicate Predicate
	add       func(s *models.Statistics, n int)
}

// Add adds n to the counter in s.
func (m Metric) Add(s *models.Statistics, n int) {
	m.add(s, n)
}

// Metrics returns the derived counters evaluated at now.
func Metrics(now time.Time) []Metric {
	return []Metric{
		{Name: "active", Predicate: Current(now), add: func(s *models.Statistics, n int) { s.Active += n }},
		{Name: "expired", Predicate: Expired(now), add: func(s *models.Statistics, n int) { s.Expired += n }},
		{Name: "high_risk", Predicate: HighRisk(), add: func(s *models.Statistics, n int) { s.HighRisk += n }},
		{Name: "unverified", Predicate: Unverified(), add: func(s *models.Statistics, n int) { s.Unverified += n }},
		{Name: "needing_review", Predicate: NeedingReview(now), add: func(s *models.Statistics, n int) { s.NeedingReview += n }},
		{Name: "escalated", Predicate: Escalated(), add: func(s *models.Statistics, n int) { s.Escalated += n }},
	}
}

// Build folds the filter's optional constraints onto the not-deleted base.
func Build(f models.Filter, now time.Time) Predicate {
	var preds []Predicate
	add := func(p Predicate) { preds = append(preds, p) }

	if !f.IncludeDeleted {
		add(NotDeleted())
	}
	if f.Kind != "" {
		add(Equals(KindField, string(f.Kind)))
	}
	if !f.PartyID.IsNil() {
		add(Party(string(f.PartyID), f.PartyRole))
	}
	if len(f.RelationshipTypes) > 0 {
		add(In(RelationshipTypeField, f.RelationshipTypes...))
	}
	if len(f.RiskLevels) > 0 {
		add(In(RiskLevelField, toStrings(f.RiskLevels)...))
	}
	if len(f.VerificationStatuses) > 0 {
		add(In(VerificationStatusField, toStrings(f.VerificationStatuses)...))
	}
	if len(f.Statuses) > 0 {
		add(In(StatusField, toStrings(f.Statuses)...))
	}

	for _, b := range []struct {
		v     *bool
		field Field[bool]
	}{
		{f.IsHighRisk, HighRiskField},
		{f.IsPEPRelated, PEPField},
		{f.IsSanctionsRelated, SanctionsField},
		{f.RequiresEDD, EDDField},
		{f.IsEscalated, EscalatedField},
	} {
		if b.v != nil {
			add(Equals(b.field, *b.v))
		}
	}
	if f.IsVerified != nil {
		if *f.IsVerified {
			add(Verified())
		} else {
			add(Unverified())
		}
	}

	if f.CurrentOnly {
		add(Current(now))
	}
	if f.OverdueOnly {
		add(Overdue(now))
	}
	if f.ExpiredOnly {
		add(Expired(now))
	}
	if f.HasReview != nil {
		if *f.HasReview {
			add(NotNull(NextReviewField))
		} else {
			add(IsNull(NextReviewField))
		}
	}

	if f.EffectiveFromAfter != nil || f.EffectiveFromBefore != nil {
		add(Range(EffectiveFromField, f.EffectiveFromAfter, f.EffectiveFromBefore))
	}
	if f.MinOwnership != nil || f.MaxOwnership != nil {
		add(Range(OwnershipField, f.MinOwnership, f.MaxOwnership))
	}
	if f.NextReviewAfter != nil || f.NextReviewBefore != nil {
		add(Range(NextReviewField, f.NextReviewAfter, f.NextReviewBefore))
	}
	if f.VerifiedBefore != nil {
		add(Cmp(VerifiedAtField, LT, *f.VerifiedBefore))
	}
	if f.Search != "" {
		add(Contains(f.Search, SearchFields...))
	}
	return And(preds...)
}

func toStrings[T ~string](vs []T) []string {
	out := make([]string, len(vs))
	for i, v := range vs {
		out[i] = string(v)
	}
	return out
}
