package kafka

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// queueReader serves queued messages, then blocks until the context ends.
type queueReader struct {
	mu        sync.Mutex
	queue     []kafka.Message
	committed []int64
	closed    bool
}

func (r *queueReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	r.mu.Lock()
	if len(r.queue) > 0 {
		m := r.queue[0]
		r.queue = r.queue[1:]
		r.mu.Unlock()
		return m, nil
	}
	r.mu.Unlock()
	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

func (r *queueReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range msgs {
		r.committed = append(r.committed, m.Offset)
	}
	return nil
}

func (r *queueReader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}

func (r *queueReader) commits() []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int64(nil), r.committed...)
}

type recordingDLQ struct {
	mu   sync.Mutex
	msgs []kafka.Message
}

func (d *recordingDLQ) Publish(_ context.Context, msg kafka.Message, _ error, _ string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.msgs = append(d.msgs, msg)
	return nil
}

func (d *recordingDLQ) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.msgs)
}

func envelope(t *testing.T, offset int64) kafka.Message {
	t.Helper()
	ev, err := NewEvent("download.recorded", "game-1", "game", "catalog", map[string]string{"content_id": "game-1"})
	require.NoError(t, err)
	b, err := ev.Marshal()
	require.NoError(t, err)
	return kafka.Message{Topic: "marketplace.download.recorded", Offset: offset, Value: b}
}

func runConsumer(t *testing.T, c *Consumer, until func() bool) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Start(ctx) }()

	require.Eventually(t, until, 2*time.Second, 5*time.Millisecond)
	cancel()
	require.NoError(t, <-done)
}

func TestConsumer_CommitsAfterSuccess(t *testing.T) {
	r := &queueReader{queue: []kafka.Message{envelope(t, 1), envelope(t, 2)}}
	var mu sync.Mutex
	var seen []string
	c := newConsumer(r, ConsumerConfig{Topic: "marketplace.download.recorded", GroupID: "g"}, func(_ context.Context, e *Event) error {
		mu.Lock()
		seen = append(seen, e.EventType)
		mu.Unlock()
		return nil
	}, discardLogger())

	runConsumer(t, c, func() bool { return len(r.commits()) == 2 })

	assert.Equal(t, []int64{1, 2}, r.commits())
	assert.Equal(t, []string{"download.recorded", "download.recorded"}, seen)
	assert.True(t, r.closed)
}

func TestConsumer_RetriesThenDeadLetters(t *testing.T) {
	r := &queueReader{queue: []kafka.Message{envelope(t, 5)}}
	dlq := &recordingDLQ{}
	attempts := 0
	c := newConsumer(r, ConsumerConfig{Topic: "t", GroupID: "g", MaxRetries: 3, RetryWait: time.Millisecond},
		func(context.Context, *Event) error {
			attempts++
			return errors.New("store down")
		}, discardLogger())
	c.dlq = dlq

	runConsumer(t, c, func() bool { return len(r.commits()) == 1 })

	assert.Equal(t, 3, attempts)
	assert.Equal(t, 1, dlq.count())
}

func TestConsumer_MalformedEnvelopeSkipsRetries(t *testing.T) {
	r := &queueReader{queue: []kafka.Message{{Topic: "t", Offset: 9, Value: []byte("garbage")}}}
	dlq := &recordingDLQ{}
	called := false
	c := newConsumer(r, ConsumerConfig{Topic: "t", GroupID: "g"}, func(context.Context, *Event) error {
		called = true
		return nil
	}, discardLogger())
	c.dlq = dlq

	runConsumer(t, c, func() bool { return len(r.commits()) == 1 })

	assert.False(t, called)
	assert.Equal(t, 1, dlq.count())
}
