package ports

import (
	"context"
	"errors"
)

var ErrTrackerUnavailable = errors.New("issue tracker unavailable")

type IssueRequest struct {
	Title  string
	Body   string
	Labels []string
}

type IssueRef struct {
	Number int
	URL    string
}

type IssueUpdate struct {
	Closed bool
	Labels []string
}

// IssueTracker is the external issue-tracker boundary. The pipeline depends
// on this contract only, never on a concrete tracker.
type IssueTracker interface {
	CreateIssue(ctx context.Context, input IssueRequest) (IssueRef, error)
	UpdateIssue(ctx context.Context, number int, update IssueUpdate) error
	CommentIssue(ctx context.Context, number int, body string) error
}
