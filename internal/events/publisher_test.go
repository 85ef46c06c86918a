// internal/events/publisher_test.go
package events

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Corphon/VeoPromptStudio/internal/models"
)

func TestEncode(t *testing.T) {
	data, err := Encode(HistoryEvent{ID: "abc", Type: models.HistoryTypeVeo, Timestamp: 1700000000000})
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"abc","type":"veo","timestamp":1700000000000}`, string(data))

	data, err = Encode(HistoryEvent{All: true, Timestamp: 1})
	require.NoError(t, err)
	assert.JSONEq(t, `{"all":true,"timestamp":1}`, string(data))
}

func TestNopPublisher(t *testing.T) {
	var p Publisher = NopPublisher{}
	assert.NoError(t, p.Publish(context.Background(), SubjectHistoryCreated, HistoryEvent{}))
	p.Close()
}

func TestNATSPublisherHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := &NATSPublisher{}
	assert.ErrorIs(t, p.Publish(ctx, SubjectHistoryDeleted, HistoryEvent{}), context.Canceled)
	p.Close()
}
