package ports

import "context"

// Notification kinds.
const (
	NotifyConfirmation = "confirmation"
	NotifyStatusUpdate = "status_update"
)

// Notifier hands submitter notifications to an external collaborator.
// Content rendering is out of this core's hands.
type Notifier interface {
	Send(ctx context.Context, kind string, reportID uint64) error
}
