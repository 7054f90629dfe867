package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	id "linkage/pkg/domain"
	audit "linkage/pkg/platform/audit"
	txcontext "linkage/pkg/platform/tx"
)

// Store persists relationship history in the relationship_history table.
// It is both the direct sink (no Kafka configured) and the materialization target
// of the Kafka consumer; either way inserts are idempotent on event id.
type Store struct {
	db *sql.DB
}

// New creates a PostgreSQL history store.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

const insertHistory = `
		INSERT INTO relationship_history (
			id, edge_id, edge_kind, change_type,
			old_values, new_values, actor_id, request_id, occurred_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO NOTHING
	`

// Append inserts an event. Duplicate inserts are ignored via ON CONFLICT DO NOTHING.
func (s *Store) Append(ctx context.Context, event audit.HistoryEvent) error {
	oldValues, err := marshalValues(event.OldValues)
	if err != nil {
		return fmt.Errorf("marshal old values: %w", err)
	}
	newValues, err := marshalValues(event.NewValues)
	if err != nil {
		return fmt.Errorf("marshal new values: %w", err)
	}

	_, err = txcontext.Use(ctx, s.db).ExecContext(ctx, insertHistory,
		uuid.UUID(event.ID),
		uuid.UUID(event.EdgeID),
		event.EdgeKind,
		string(event.ChangeType),
		oldValues,
		newValues,
		string(event.ActorID),
		event.RequestID,
		event.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("insert history event: %w", err)
	}
	return nil
}

// ListByEdge returns the history of one edge, oldest first.
func (s *Store) ListByEdge(ctx context.Context, edgeID id.EdgeID) ([]audit.HistoryEvent, error) {
	query := `
		SELECT id, edge_id, edge_kind, change_type,
			   old_values, new_values, actor_id, request_id, occurred_at
		FROM relationship_history
		WHERE edge_id = $1
		ORDER BY occurred_at ASC, id ASC
	`
	rows, err := s.db.QueryContext(ctx, query, uuid.UUID(edgeID))
	if err != nil {
		return nil, fmt.Errorf("query history events: %w", err)
	}
	defer rows.Close()

	var events []audit.HistoryEvent
	for rows.Next() {
		var (
			event             audit.HistoryEvent
			eventID, edge     uuid.UUID
			changeType, actor string
			oldJSON, newJSON  []byte
		)
		if err := rows.Scan(
			&eventID,
			&edge,
			&event.EdgeKind,
			&changeType,
			&oldJSON,
			&newJSON,
			&actor,
			&event.RequestID,
			&event.Timestamp,
		); err != nil {
			return nil, fmt.Errorf("scan history event: %w", err)
		}
		event.ID = id.EventID(eventID)
		event.EdgeID = id.EdgeID(edge)
		event.ChangeType = audit.ChangeType(changeType)
		event.ActorID = id.ActorID(actor)
		if event.OldValues, err = unmarshalValues(oldJSON); err != nil {
			return nil, fmt.Errorf("decode old values: %w", err)
		}
		if event.NewValues, err = unmarshalValues(newJSON); err != nil {
			return nil, fmt.Errorf("decode new values: %w", err)
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history events: %w", err)
	}
	return events, nil
}

func marshalValues(v map[string]any) ([]byte, error) {
	if len(v) == 0 {
		return nil, nil
	}
	return json.Marshal(v)
}

func unmarshalValues(b []byte) (map[string]any, error) {
	if len(b) == 0 {
		return nil, nil
	}
	var v map[string]any
	if err := json.Unmarshal(b, &v); err != nil {
		return nil, err
	}
	return v, nil
}
