package queue

import (
	"context"
	"log/slog"
	"time"

	"bugtriage/internal/bootstrap/logging"
	"bugtriage/internal/errs"
)

// Handler executes one job for one report. Handlers own their "already
// done" check; the queue only guarantees at-least-once delivery.
type Handler func(ctx context.Context, reportID uint64) error

// Registry maps job names to handlers.
type Registry map[string]Handler

// Message is the wire format shared by the NATS and inline drivers.
type Message struct {
	ID         string `json:"id"`
	Job        string `json:"job"`
	ReportID   uint64 `json:"report_id"`
	EnqueuedAt string `json:"enqueued_at"`
}

// RetryPolicy bounds automatic retries for a job execution. The bound is a
// first-class part of the job contract, not a framework default.
type RetryPolicy struct {
	MaxRetries int
	Backoff    time.Duration
}

// runWithRetry executes a handler up to 1+MaxRetries times. After the bound
// is exhausted the job is abandoned with an error log; the report keeps its
// last good status for manual intervention.
func runWithRetry(ctx context.Context, job string, reportID uint64, handler Handler, policy RetryPolicy) {
	logCtx := logging.WithAttrs(ctx,
		slog.String("component", "queue"),
		slog.String("job", job),
		slog.Uint64("report_id", reportID),
	)

	attempts := policy.MaxRetries + 1
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			logging.Warn(logCtx, "job canceled", slog.Int("attempt", attempt))
			return
		}

		lastErr = handler(ctx, reportID)
		if lastErr == nil {
			if attempt > 1 {
				logging.Info(logCtx, "job succeeded after retry", slog.Int("attempt", attempt))
			}
			return
		}

		logging.Warn(logCtx, "job attempt failed",
			slog.Int("attempt", attempt),
			slog.Any("err", errs.Loggable(lastErr)),
		)

		if attempt < attempts && policy.Backoff > 0 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(policy.Backoff * time.Duration(attempt)):
			}
		}
	}

	logging.Error(logCtx, "job abandoned after retries",
		slog.Int("attempts", attempts),
		slog.Any("err", errs.Loggable(lastErr)),
	)
}
