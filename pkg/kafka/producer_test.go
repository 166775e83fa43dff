package kafka

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingWriter struct {
	mu     sync.Mutex
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *recordingWriter) Close() error {
	w.closed = true
	return nil
}

func discardLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestProducer_Publish(t *testing.T) {
	w := &recordingWriter{}
	p := &Producer{writer: w, source: "engagement-service", logger: discardLogger()}

	ev, err := NewEvent("report.filed", "rep-1", "content_report", p.Source(), map[string]string{"reason": "spam"})
	require.NoError(t, err)
	ev.WithCorrelationID("corr-9")

	require.NoError(t, p.Publish(context.Background(), Topic("report", "filed"), ev))

	require.Len(t, w.msgs, 1)
	msg := w.msgs[0]
	assert.Equal(t, "marketplace.report.filed", msg.Topic)
	assert.Equal(t, []byte("rep-1"), msg.Key)

	headers := NewHeaderCarrier(&msg.Headers)
	assert.Equal(t, "report.filed", headers.Get("event_type"))
	assert.Equal(t, "engagement-service", headers.Get("source"))
	assert.Equal(t, "corr-9", headers.Get("correlation_id"))

	decoded, err := UnmarshalEvent(msg.Value)
	require.NoError(t, err)
	assert.Equal(t, ev.EventID, decoded.EventID)
}

func TestProducer_PublishError(t *testing.T) {
	w := &recordingWriter{err: errors.New("leader not available")}
	p := &Producer{writer: w, source: "svc", logger: discardLogger()}

	ev, _ := NewEvent("rating.submitted", "r-1", "rating", "svc", struct{}{})
	err := p.Publish(context.Background(), "t", ev)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "leader not available")
}

func TestProducer_Close(t *testing.T) {
	w := &recordingWriter{}
	p := &Producer{writer: w, logger: discardLogger()}
	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestPingBrokers_NoBrokers(t *testing.T) {
	require.Error(t, PingBrokers(context.Background(), nil))
}

func TestDLQProducer_Publish(t *testing.T) {
	w := &recordingWriter{}
	d := &DLQProducer{writer: w, logger: discardLogger()}

	orig := kafka.Message{Topic: "marketplace.download.recorded", Partition: 2, Offset: 17, Key: []byte("g-1"), Value: []byte("{}")}
	require.NoError(t, d.Publish(context.Background(), orig, errors.New("boom"), "engagement"))

	require.Len(t, w.msgs, 1)
	out := w.msgs[0]
	assert.Equal(t, "marketplace.dlq.marketplace.download.recorded", out.Topic)
	h := NewHeaderCarrier(&out.Headers)
	assert.Equal(t, "2", h.Get("dlq.original_partition"))
	assert.Equal(t, "17", h.Get("dlq.original_offset"))
	assert.Equal(t, "engagement", h.Get("dlq.consumer_group"))
	assert.Equal(t, "boom", h.Get("dlq.error"))
}
