package async

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProcessorQueue_RunsEveryJob(t *testing.T) {
	var (
		mu   sync.Mutex
		seen = map[string]bool{}
	)
	h := HandlerFunc(func(ctx context.Context, job Job) error {
		_, hasDeadline := ctx.Deadline()
		assert.True(t, hasDeadline)
		mu.Lock()
		seen[job.Path] = true
		mu.Unlock()
		return nil
	})
	q := NewProcessorQueue(h, nil, WithWorkers(3), WithQueueSize(2), WithProcessTimeout(time.Second))

	for i := 0; i < 20; i++ {
		require.NoError(t, q.Enqueue(context.Background(), Job{Path: fmt.Sprintf("f%d.pdf", i)}))
	}
	q.Shutdown(context.Background())

	assert.Len(t, seen, 20)
}

func TestProcessorQueue_HandlerErrorsDoNotStopWorkers(t *testing.T) {
	var n atomic.Int32
	h := HandlerFunc(func(context.Context, Job) error {
		n.Add(1)
		return errors.New("boom")
	})
	q := NewProcessorQueue(h, nil, WithWorkers(1))
	for i := 0; i < 5; i++ {
		require.NoError(t, q.Enqueue(context.Background(), Job{Path: "x"}))
	}
	q.Shutdown(context.Background())
	assert.Equal(t, int32(5), n.Load())
}

func TestProcessorQueue_EnqueueAfterShutdown(t *testing.T) {
	q := NewProcessorQueue(HandlerFunc(func(context.Context, Job) error { return nil }), nil)
	q.Shutdown(context.Background())
	q.Shutdown(context.Background())

	err := q.Enqueue(context.Background(), Job{Path: "late.pdf"})
	assert.ErrorIs(t, err, ErrQueueClosed)
}

func TestProcessorQueue_EnqueueHonoursContext(t *testing.T) {
	release := make(chan struct{})
	h := HandlerFunc(func(context.Context, Job) error { <-release; return nil })
	q := NewProcessorQueue(h, nil, WithWorkers(1), WithQueueSize(1))

	require.NoError(t, q.Enqueue(context.Background(), Job{Path: "a"}))
	// the worker may or may not have picked up "a" yet; fill until blocked
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	var err error
	for i := 0; i < 3 && err == nil; i++ {
		err = q.Enqueue(ctx, Job{Path: "b"})
	}
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	close(release)
	q.Shutdown(context.Background())
}
