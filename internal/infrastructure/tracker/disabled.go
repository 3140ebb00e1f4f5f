package tracker

import (
	"context"
	"fmt"

	"bugtriage/internal/ports"
)

// Disabled stands in when no GitHub credentials are configured. Every call
// fails with ErrTrackerUnavailable so publication jobs retry and then park
// the report in its last good status.
type Disabled struct{}

var _ ports.IssueTracker = Disabled{}

func NewDisabled() Disabled {
	return Disabled{}
}

func (Disabled) CreateIssue(_ context.Context, _ ports.IssueRequest) (ports.IssueRef, error) {
	return ports.IssueRef{}, fmt.Errorf("%w: tracker not configured", ports.ErrTrackerUnavailable)
}

func (Disabled) UpdateIssue(_ context.Context, _ int, _ ports.IssueUpdate) error {
	return fmt.Errorf("%w: tracker not configured", ports.ErrTrackerUnavailable)
}

func (Disabled) CommentIssue(_ context.Context, _ int, _ string) error {
	return fmt.Errorf("%w: tracker not configured", ports.ErrTrackerUnavailable)
}
