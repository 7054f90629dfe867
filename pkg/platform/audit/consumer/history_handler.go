package consumer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"linkage/internal/platform/kafka/consumer"
	id "linkage/pkg/domain"
	audit "linkage/pkg/platform/audit"
)

// HistoryHandler materializes relationship history records from Kafka into a
// queryable store.
type HistoryHandler struct {
	store  audit.Sink
	logger *slog.Logger
}

// NewHistoryHandler creates a history event handler.
func NewHistoryHandler(store audit.Sink, logger *slog.Logger) *HistoryHandler {
	return &HistoryHandler{
		store:  store,
		logger: logger,
	}
}

// Handle processes one history record. Malformed records are logged and
// committed; store failures are returned so the consumer retries.
func (h *HistoryHandler) Handle(ctx context.Context, msg *consumer.Message) error {
	eventID, err := id.ParseEventID(string(msg.Key))
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to parse history event id",
			"key", string(msg.Key),
			"offset", msg.Offset,
			"error", err,
		)
		// Return nil to commit - malformed messages should not block
		return nil
	}

	var event audit.HistoryEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		h.logger.ErrorContext(ctx, "failed to unmarshal history payload",
			"event_id", eventID,
			"error", err,
		)
		return nil
	}

	if event.ID != eventID {
		h.logger.ErrorContext(ctx, "history event id does not match record key",
			"event_id", eventID,
			"payload_id", event.ID,
		)
		return nil
	}
	if event.EdgeID.IsNil() || !event.ChangeType.IsValid() {
		h.logger.ErrorContext(ctx, "history event missing edge id or change type",
			"event_id", eventID,
			"edge_id", event.EdgeID,
			"change_type", event.ChangeType,
		)
		return nil
	}

	if err := h.store.Append(ctx, event); err != nil {
		h.logger.ErrorContext(ctx, "failed to store history event",
			"event_id", eventID,
			"edge_id", event.EdgeID,
			"change_type", event.ChangeType,
			"error", err,
		)
		return fmt.Errorf("store history event: %w", err)
	}

	h.logger.DebugContext(ctx, "stored history event",
		"event_id", eventID,
		"edge_id", event.EdgeID,
		"change_type", event.ChangeType,
	)
	return nil
}
