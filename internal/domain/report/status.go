package report

import "fmt"

// Status is the report lifecycle state. Transitions are validated in one
// place instead of ad-hoc field assignment scattered across jobs and
// handlers.
type Status string

const (
	StatusPending            Status = "pending"
	StatusValidated          Status = "validated"
	StatusRejected           Status = "rejected"
	StatusNeedsClarification Status = "needs_clarification"
	StatusGithubCreated      Status = "github_created"
	StatusResolved           Status = "resolved"
	StatusDuplicate          Status = "duplicate"
)

var allStatuses = map[Status]struct{}{
	StatusPending:            {},
	StatusValidated:          {},
	StatusRejected:           {},
	StatusNeedsClarification: {},
	StatusGithubCreated:      {},
	StatusResolved:           {},
	StatusDuplicate:          {},
}

// transitions holds the legal pipeline moves. Operator actions go through
// OperatorTransition instead, which may set any status.
var transitions = map[Status][]Status{
	StatusPending:       {StatusValidated, StatusRejected, StatusNeedsClarification},
	StatusValidated:     {StatusGithubCreated, StatusRejected, StatusNeedsClarification},
	StatusGithubCreated: {StatusResolved},
}

func ParseStatus(raw string) (Status, error) {
	status := Status(raw)
	if _, ok := allStatuses[status]; !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, raw)
	}
	return status, nil
}

// CanTransition reports whether the pipeline may move a report from one
// status to another. Duplicate is reachable only by operator action.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Transition validates a pipeline move.
func Transition(from, to Status) (Status, error) {
	if _, ok := allStatuses[to]; !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, string(to))
	}
	if !CanTransition(from, to) {
		return "", fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, from, to)
	}
	return to, nil
}

// OperatorTransition validates an operator-driven status change. Operators
// may set any known status; the only hard rule is that github_created is
// reserved for the publication job.
func OperatorTransition(from, to Status) (Status, error) {
	if _, ok := allStatuses[to]; !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, string(to))
	}
	if to == StatusGithubCreated && from != StatusGithubCreated {
		return "", fmt.Errorf("%w: only publication may set %s", ErrIllegalTransition, StatusGithubCreated)
	}
	return to, nil
}

// Closed reports whether the status maps to a closed tracker issue.
func (s Status) Closed() bool {
	return s == StatusResolved || s == StatusDuplicate
}
