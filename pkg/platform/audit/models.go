package audit

import (
	"context"
	"time"

	id "linkage/pkg/domain"
)

// ChangeType classifies a relationship history record by the field group it touched.
type ChangeType string

const (
	ChangeCreated             ChangeType = "created"
	ChangeDetailsUpdated      ChangeType = "details_updated"
	ChangeVerificationChanged ChangeType = "verification_changed"
	ChangeRiskUpdated         ChangeType = "risk_updated"
	ChangeEscalated           ChangeType = "escalated"
	ChangeEscalationResolved  ChangeType = "escalation_resolved"
	ChangeReviewScheduled     ChangeType = "review_scheduled"
	ChangeDeleted             ChangeType = "deleted"
)

var changeTypes = map[ChangeType]struct{}{
	ChangeCreated:             {},
	ChangeDetailsUpdated:      {},
	ChangeVerificationChanged: {},
	ChangeRiskUpdated:         {},
	ChangeEscalated:           {},
	ChangeEscalationResolved:  {},
	ChangeReviewScheduled:     {},
	ChangeDeleted:             {},
}

// IsValid reports whether c is a known change type.
func (c ChangeType) IsValid() bool {
	_, ok := changeTypes[c]
	return ok
}

// HistoryEvent is an immutable change record for one edge mutation. OldValues and
// NewValues hold only the fields of the group that changed (all fields for
// created/deleted). Sinks deduplicate on ID, so redelivery is harmless.
type HistoryEvent struct {
	ID         id.EventID     `json:"id"`
	EdgeID     id.EdgeID      `json:"edge_id"`
	EdgeKind   string         `json:"edge_kind"`
	ChangeType ChangeType     `json:"change_type"`
	OldValues  map[string]any `json:"old_values,omitempty"`
	NewValues  map[string]any `json:"new_values,omitempty"`
	ActorID    id.ActorID     `json:"actor_id"`
	RequestID  string         `json:"request_id,omitempty"`
	Timestamp  time.Time      `json:"timestamp"`
}

// Sink appends history events. Implementations must be idempotent per event ID.
type Sink interface {
	Append(ctx context.Context, event HistoryEvent) error
}

// Reader reads back the history of a single edge, oldest first.
type Reader interface {
	ListByEdge(ctx context.Context, edgeID id.EdgeID) ([]HistoryEvent, error)
}

// Store is a sink that can also be read.
type Store interface {
	Sink
	Reader
}
