package queue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestInlineQueueRunsRegisteredHandler(t *testing.T) {
	q := NewInlineQueue(RetryPolicy{})

	done := make(chan uint64, 1)
	q.Register(Registry{
		"publish_report": func(_ context.Context, reportID uint64) error {
			done <- reportID
			return nil
		},
	})

	if err := q.Enqueue(context.Background(), "publish_report", 17); err != nil {
		t.Fatalf("Enqueue() error = %v", err)
	}

	select {
	case got := <-done:
		if got != 17 {
			t.Fatalf("report id = %d", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("handler never ran")
	}
}

func TestInlineQueueRejectsUnknownJob(t *testing.T) {
	q := NewInlineQueue(RetryPolicy{})

	if err := q.Enqueue(context.Background(), "does_not_exist", 1); err == nil {
		t.Fatalf("Enqueue() expected error for unregistered job")
	}
	if err := q.Enqueue(context.Background(), "  ", 1); err == nil {
		t.Fatalf("Enqueue() expected error for blank job name")
	}
	if err := q.Enqueue(nil, "publish_report", 1); err == nil {
		t.Fatalf("Enqueue() expected error for nil context")
	}
}

func TestInlineQueueSurvivesCanceledRequestContext(t *testing.T) {
	q := NewInlineQueue(RetryPolicy{})

	done := make(chan struct{}, 1)
	q.Register(Registry{
		"sync_status": func(ctx context.Context, _ uint64) error {
			if ctx.Err() != nil {
				t.Errorf("job context canceled: %v", ctx.Err())
			}
			done <- struct{}{}
			return nil
		},
	})

	ctx, cancel := context.WithCancel(context.Background())
	if err := q.Enqueue(ctx, "sync_status", 3); err != nil {
		t.Fatalf("Enqueue() error = %v", err)
	}
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("handler never ran")
	}
}

func TestRunWithRetryBoundsAttempts(t *testing.T) {
	var (
		mu    sync.Mutex
		calls int
	)
	handler := func(_ context.Context, _ uint64) error {
		mu.Lock()
		calls++
		mu.Unlock()
		return errors.New("still failing")
	}

	runWithRetry(context.Background(), "publish_report", 9, handler, RetryPolicy{MaxRetries: 2, Backoff: time.Millisecond})

	mu.Lock()
	defer mu.Unlock()
	if calls != 3 {
		t.Fatalf("attempts = %d, want retries plus first try", calls)
	}
}

func TestRunWithRetryStopsOnSuccess(t *testing.T) {
	var calls int
	handler := func(_ context.Context, _ uint64) error {
		calls++
		if calls < 2 {
			return errors.New("transient")
		}
		return nil
	}

	runWithRetry(context.Background(), "send_confirmation", 9, handler, RetryPolicy{MaxRetries: 5, Backoff: time.Millisecond})

	if calls != 2 {
		t.Fatalf("attempts = %d, want stop after first success", calls)
	}
}
