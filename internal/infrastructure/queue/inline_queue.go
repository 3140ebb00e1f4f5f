package queue

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"bugtriage/internal/ports"
)

// InlineQueue executes handlers in-process, in the background. Used for
// local runs without a broker; retry semantics match the NATS runner.
// Handlers are registered after construction because the job handlers and
// the queue reference each other.
type InlineQueue struct {
	mu       sync.RWMutex
	handlers Registry
	policy   RetryPolicy
}

var _ ports.JobQueue = (*InlineQueue)(nil)

func NewInlineQueue(policy RetryPolicy) *InlineQueue {
	return &InlineQueue{
		handlers: Registry{},
		policy:   policy,
	}
}

func (q *InlineQueue) Register(handlers Registry) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for job, handler := range handlers {
		q.handlers[job] = handler
	}
}

func (q *InlineQueue) Enqueue(ctx context.Context, job string, reportID uint64) error {
	if ctx == nil {
		return errors.New("context is required")
	}
	if strings.TrimSpace(job) == "" {
		return errors.New("job name is required")
	}

	q.mu.RLock()
	handler, ok := q.handlers[job]
	q.mu.RUnlock()
	if !ok {
		return fmt.Errorf("unknown job %q", job)
	}

	// Detach from the request context: enqueue is fire-and-forget and the
	// job must survive the request finishing first.
	go runWithRetry(context.WithoutCancel(ctx), job, reportID, handler, q.policy)
	return nil
}
