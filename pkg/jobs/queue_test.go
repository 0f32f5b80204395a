package jobs

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	require.Eventually(t, cond, 2*time.Second, 5*time.Millisecond)
}

func TestQueueProcessesAllJobs(t *testing.T) {
	var mu sync.Mutex
	seen := make(map[int]bool)
	q := NewQueue("test", func(_ context.Context, job Job) error {
		mu.Lock()
		seen[job.Payload.(int)] = true
		mu.Unlock()
		return nil
	}, QueueConfig{Workers: 4})
	q.Start(context.Background())
	defer q.Stop()

	for i := 0; i < 20; i++ {
		require.NoError(t, q.Enqueue(Job{ID: strconv.Itoa(i), Payload: i}))
	}
	waitFor(t, func() bool { return q.Stats().Succeeded == 20 })

	mu.Lock()
	defer mu.Unlock()
	assert.Len(t, seen, 20)
	assert.Equal(t, uint64(20), q.Stats().Enqueued)
}

func TestQueueRetriesUntilLimit(t *testing.T) {
	var mu sync.Mutex
	calls := 0
	q := NewQueue("retry", func(_ context.Context, job Job) error {
		mu.Lock()
		calls++
		mu.Unlock()
		return errors.New("boom")
	}, QueueConfig{MaxRetries: 2, RetryDelay: time.Millisecond})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{ID: "a"}))
	waitFor(t, func() bool { return q.Stats().Failed == 1 })

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 3, calls)
}

func TestQueueNegativeRetriesFailOnce(t *testing.T) {
	q := NewQueue("no-retry", func(context.Context, Job) error {
		return errors.New("boom")
	}, QueueConfig{MaxRetries: -1})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{ID: "a"}))
	waitFor(t, func() bool { return q.Stats().Failed == 1 })
	assert.Equal(t, uint64(1), q.Stats().Enqueued)
}

func TestQueueRecoversPanics(t *testing.T) {
	q := NewQueue("panic", func(_ context.Context, job Job) error {
		if job.ID == "bad" {
			panic("attempt exploded")
		}
		return nil
	}, QueueConfig{MaxRetries: -1})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{ID: "bad"}))
	require.NoError(t, q.Enqueue(Job{ID: "good"}))
	waitFor(t, func() bool {
		s := q.Stats()
		return s.Succeeded == 1 && s.Failed == 1
	})
	assert.Equal(t, uint64(1), q.Stats().Panicked)
}

func TestQueueEnqueueRequiresRunningQueue(t *testing.T) {
	q := NewQueue("idle", func(context.Context, Job) error { return nil }, QueueConfig{})
	assert.Error(t, q.Enqueue(Job{ID: "a"}))

	q.Start(context.Background())
	q.Stop()
	q.Stop()
	assert.Error(t, q.Enqueue(Job{ID: "b"}))
}
