// Package kafka publishes relationship history to a Kafka topic. The consumer in
// pkg/platform/audit/consumer materializes the topic into Postgres.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	audit "linkage/pkg/platform/audit"
)

// HeaderChangeType carries the change type so consumers can route without decoding.
const HeaderChangeType = "change_type"

// Producer is the subset of the platform producer the sink needs.
type Producer interface {
	Publish(ctx context.Context, topic string, key, value []byte, headers map[string]string) error
}

// Sink implements audit.Sink. The record key is the event id, which both keeps
// redeliveries identifiable and lets the consumer deduplicate.
type Sink struct {
	producer Producer
	topic    string
}

// NewSink creates a sink publishing to topic.
func NewSink(producer Producer, topic string) *Sink {
	return &Sink{producer: producer, topic: topic}
}

// Append publishes one event.
func (s *Sink) Append(ctx context.Context, event audit.HistoryEvent) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal history event: %w", err)
	}
	return s.producer.Publish(ctx, s.topic, []byte(event.ID.String()), value, map[string]string{
		HeaderChangeType: string(event.ChangeType),
	})
}
