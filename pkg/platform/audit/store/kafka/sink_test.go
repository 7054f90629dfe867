package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "linkage/pkg/domain"
	audit "linkage/pkg/platform/audit"
)

type recordingProducer struct {
	topic   string
	key     []byte
	value   []byte
	headers map[string]string
	err     error
}

func (p *recordingProducer) Publish(_ context.Context, topic string, key, value []byte, headers map[string]string) error {
	p.topic, p.key, p.value, p.headers = topic, key, value, headers
	return p.err
}

func TestSink_Append(t *testing.T) {
	producer := &recordingProducer{}
	sink := NewSink(producer, "relationship.history")
	event := audit.HistoryEvent{
		ID:         id.NewEventID(),
		EdgeID:     id.NewEdgeID(),
		EdgeKind:   "individual",
		ChangeType: audit.ChangeVerificationChanged,
		NewValues:  map[string]any{"verification_status": "verified"},
		ActorID:    "officer-1",
		Timestamp:  time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}

	require.NoError(t, sink.Append(context.Background(), event))

	assert.Equal(t, "relationship.history", producer.topic)
	assert.Equal(t, event.ID.String(), string(producer.key))
	assert.Equal(t, "verification_changed", producer.headers[HeaderChangeType])

	var decoded audit.HistoryEvent
	require.NoError(t, json.Unmarshal(producer.value, &decoded))
	assert.Equal(t, event.ID, decoded.ID)
	assert.Equal(t, event.EdgeID, decoded.EdgeID)
	assert.Equal(t, "verified", decoded.NewValues["verification_status"])
}

func TestSink_AppendPropagatesProducerError(t *testing.T) {
	producer := &recordingProducer{err: errors.New("broker down")}
	sink := NewSink(producer, "relationship.history")

	err := sink.Append(context.Background(), audit.HistoryEvent{ID: id.NewEventID()})
	require.Error(t, err)
}
