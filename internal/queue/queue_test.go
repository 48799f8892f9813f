package queue

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestQueue() *InMemoryQueue {
	q := NewInMemoryQueue(zap.NewNop())
	q.backoff = time.Millisecond
	return q
}

func TestInMemoryQueue_NoSubscribers(t *testing.T) {
	q := newTestQueue()
	assert.Error(t, q.Publish("campaign_events", "x"))
}

func TestInMemoryQueue_FanOut(t *testing.T) {
	q := newTestQueue()
	var a, b atomic.Int32
	require.NoError(t, q.Subscribe("campaign_events", func(any) error { a.Add(1); return nil }))
	require.NoError(t, q.Subscribe("campaign_events", func(any) error { b.Add(1); return nil }))
	require.NoError(t, q.Subscribe("other", func(any) error { t.Error("wrong topic"); return nil }))

	require.NoError(t, q.Publish("campaign_events", 1))
	q.Wait()

	assert.Equal(t, int32(1), a.Load())
	assert.Equal(t, int32(1), b.Load())
}

func TestInMemoryQueue_RetriesUntilSuccess(t *testing.T) {
	q := newTestQueue()
	var calls atomic.Int32
	require.NoError(t, q.Subscribe("t", func(any) error {
		if calls.Add(1) < 3 {
			return errors.New("transient")
		}
		return nil
	}))

	require.NoError(t, q.Publish("t", "payload"))
	q.Wait()

	assert.Equal(t, int32(3), calls.Load())
}

func TestInMemoryQueue_GivesUpAfterMaxRetries(t *testing.T) {
	q := newTestQueue()
	var calls atomic.Int32
	require.NoError(t, q.Subscribe("t", func(any) error {
		calls.Add(1)
		return errors.New("permanent")
	}))

	require.NoError(t, q.Publish("t", "payload"))
	q.Wait()

	assert.Equal(t, int32(q.maxRetries+1), calls.Load())
}

func TestInMemoryQueue_ProcessJobHonoursDeliveryLimit(t *testing.T) {
	q := newTestQueue()
	var calls atomic.Int32
	handler := func(payload any) error {
		assert.Equal(t, "payload", payload)
		calls.Add(1)
		return errors.New("permanent")
	}

	q.wg.Add(1)
	q.processJob(handler, delivery{topic: "t", payload: "payload", maxRetries: 1})

	assert.Equal(t, int32(2), calls.Load())
}
