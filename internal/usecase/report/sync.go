package report

import (
	"context"
	"errors"
	"log/slog"
	"strconv"

	"bugtriage/internal/bootstrap/logging"
	domainreport "bugtriage/internal/domain/report"
	"bugtriage/internal/errs"
	"bugtriage/internal/ports"
)

// SyncStatus pushes the local resolution state and label set to the
// tracker. One-directional: tracker failures never mutate local status.
// No-op when no issue exists yet.
func (s *Service) SyncStatus(ctx context.Context, reportID uint64) error {
	if ctx == nil {
		return errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return errs.Wrap(err, "check context")
	}
	if s.repo == nil || s.tracker == nil {
		return errors.New("report service is not fully wired")
	}

	logCtx := logging.WithAttrs(ctx,
		slog.String("component", "report.sync"),
		slog.Uint64("report_id", reportID),
	)

	rpt, err := s.repo.GetReport(ctx, reportID)
	if err != nil {
		if errors.Is(err, ports.ErrReportNotFound) {
			return nil
		}
		return errs.Wrap(err, "load report")
	}
	if rpt.GithubIssueNumber == nil {
		return nil
	}

	number, err := strconv.Atoi(*rpt.GithubIssueNumber)
	if err != nil {
		return errs.Wrapf(err, "parse issue number %q", *rpt.GithubIssueNumber)
	}

	status, err := domainreport.ParseStatus(rpt.Status)
	if err != nil {
		return err
	}

	if err := s.tracker.UpdateIssue(ctx, number, ports.IssueUpdate{
		Closed: status.Closed(),
		Labels: issueLabels(rpt),
	}); err != nil {
		return errs.Wrap(err, "push issue state")
	}

	logging.Info(logCtx, "tracker issue synced",
		slog.Int("issue_number", number),
		slog.String("status", rpt.Status),
	)
	return nil
}

// SendConfirmation notifies the submitter that their report became a public
// issue. Anonymous submissions have nobody to notify.
func (s *Service) SendConfirmation(ctx context.Context, reportID uint64) error {
	if ctx == nil {
		return errors.New("context is required")
	}
	if s.repo == nil || s.notifier == nil {
		return errors.New("report service is not fully wired")
	}

	rpt, err := s.repo.GetReport(ctx, reportID)
	if err != nil {
		if errors.Is(err, ports.ErrReportNotFound) {
			return nil
		}
		return errs.Wrap(err, "load report")
	}
	if rpt.UserID == nil {
		return nil
	}

	return s.notifier.Send(ctx, ports.NotifyConfirmation, reportID)
}
