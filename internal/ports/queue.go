package ports

import "context"

// Job names carried on the queue.
const (
	JobPublishReport    = "publish_report"
	JobSyncStatus       = "sync_status"
	JobSendConfirmation = "send_confirmation"
)

// JobQueue enqueues background work. Fire-and-forget, at-least-once
// delivery; idempotency lives in the job handlers.
type JobQueue interface {
	Enqueue(ctx context.Context, job string, reportID uint64) error
}
