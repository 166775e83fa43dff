package kafka

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type aggregatePayload struct {
	ContentID     string  `json:"content_id"`
	AverageRating float64 `json:"average_rating"`
	TotalRatings  int     `json:"total_ratings"`
}

func TestTopic(t *testing.T) {
	assert.Equal(t, "marketplace.rating.submitted", Topic("rating", "submitted"))
	assert.Equal(t, "marketplace.dlq.marketplace.download.recorded", DLQTopic(Topic("download", "recorded")))
}

func TestNewEvent_RoundTripsPayload(t *testing.T) {
	ev, err := NewEvent("content.aggregate_updated", "game-1", "game", "engagement-service",
		aggregatePayload{ContentID: "game-1", AverageRating: 4.5, TotalRatings: 2})
	require.NoError(t, err)

	assert.NotEmpty(t, ev.EventID)
	assert.Equal(t, 1, ev.Version)
	assert.False(t, ev.Timestamp.IsZero())

	raw, err := ev.WithCorrelationID("corr-1").WithMetadata("content_type", "game").Marshal()
	require.NoError(t, err)

	decoded, err := UnmarshalEvent(raw)
	require.NoError(t, err)
	assert.Equal(t, ev.EventID, decoded.EventID)
	assert.Equal(t, "corr-1", decoded.CorrelationID)
	assert.Equal(t, "game", decoded.Metadata["content_type"])

	var p aggregatePayload
	require.NoError(t, decoded.UnmarshalData(&p))
	assert.Equal(t, 4.5, p.AverageRating)
	assert.Equal(t, 2, p.TotalRatings)
}

func TestNewEvent_UnmarshalablePayload(t *testing.T) {
	_, err := NewEvent("x", "1", "y", "z", make(chan int))
	require.Error(t, err)
}

func TestUnmarshalEvent_Rejects(t *testing.T) {
	_, err := UnmarshalEvent([]byte("not json"))
	require.Error(t, err)

	_, err = UnmarshalEvent([]byte(`{"event_id":"e-1"}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing event_type")
}
