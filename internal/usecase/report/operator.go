package report

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"

	"bugtriage/internal/bootstrap/logging"
	domainreport "bugtriage/internal/domain/report"
	"bugtriage/internal/errs"
	"bugtriage/internal/ports"
)

// Operator actions are keyed by external id: the internal sequential key
// never leaves the system.

type SetStatusInput struct {
	ExternalID string
	Status     string
}

// SetStatus applies an operator-driven status change. Any change triggers a
// tracker sync when an issue exists and a submitter notification when a
// submitter is known.
func (s *Service) SetStatus(ctx context.Context, input SetStatusInput) error {
	if ctx == nil {
		return errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return errs.Wrap(err, "check context")
	}

	logCtx := logging.WithAttrs(ctx,
		slog.String("component", "report.operator"),
		slog.String("external_id", input.ExternalID),
	)

	rpt, err := s.repo.GetReportByExternalID(ctx, input.ExternalID)
	if err != nil {
		return errs.Wrap(err, "load report")
	}

	current, err := domainreport.ParseStatus(rpt.Status)
	if err != nil {
		return err
	}
	next, err := domainreport.OperatorTransition(current, domainreport.Status(input.Status))
	if err != nil {
		return err
	}
	if next == current {
		return nil
	}

	if err := s.repo.UpdateReportStatus(ctx, rpt.ReportID, string(next), nowUTCString()); err != nil {
		return errs.Wrap(err, "update status")
	}
	s.setCacheBestEffort(ctx, cacheReportStatusKey(rpt.ExternalID), string(next))
	logging.Info(logCtx, "status changed by operator",
		slog.String("from", string(current)),
		slog.String("to", string(next)),
	)

	if rpt.GithubIssueNumber != nil && s.queue != nil {
		if err := s.queue.Enqueue(ctx, ports.JobSyncStatus, rpt.ReportID); err != nil {
			logging.Error(logCtx, "enqueue status sync failed", slog.Any("err", errs.Loggable(err)))
		}
	}
	if rpt.UserID != nil && s.notifier != nil {
		if err := s.notifier.Send(ctx, ports.NotifyStatusUpdate, rpt.ReportID); err != nil {
			logging.Error(logCtx, "status notification failed", slog.Any("err", errs.Loggable(err)))
		}
	}
	return nil
}

func (s *Service) UpdateNotes(ctx context.Context, externalID string, notes string) error {
	if ctx == nil {
		return errors.New("context is required")
	}

	rpt, err := s.repo.GetReportByExternalID(ctx, externalID)
	if err != nil {
		return errs.Wrap(err, "load report")
	}
	return s.repo.UpdateReportNotes(ctx, rpt.ReportID, notes, nowUTCString())
}

func (s *Service) SetCategory(ctx context.Context, externalID string, category string) error {
	if ctx == nil {
		return errors.New("context is required")
	}
	if strings.TrimSpace(category) == "" {
		return errors.New("category is required")
	}

	rpt, err := s.repo.GetReportByExternalID(ctx, externalID)
	if err != nil {
		return errs.Wrap(err, "load report")
	}
	return s.repo.UpdateReportCategory(ctx, rpt.ReportID, category, nowUTCString())
}

// SoftDelete flags a report as deleted. Rows are never hard-removed.
func (s *Service) SoftDelete(ctx context.Context, externalID string) error {
	if ctx == nil {
		return errors.New("context is required")
	}

	rpt, err := s.repo.GetReportByExternalID(ctx, externalID)
	if err != nil {
		return errs.Wrap(err, "load report")
	}
	return s.repo.SoftDeleteReport(ctx, rpt.ReportID, nowUTCString())
}

// AddTrackerComment posts an operator comment on the published issue.
func (s *Service) AddTrackerComment(ctx context.Context, externalID string, comment string) error {
	if ctx == nil {
		return errors.New("context is required")
	}
	if s.tracker == nil {
		return errors.New("issue tracker is required")
	}
	if strings.TrimSpace(comment) == "" {
		return errors.New("comment is required")
	}

	rpt, err := s.repo.GetReportByExternalID(ctx, externalID)
	if err != nil {
		return errs.Wrap(err, "load report")
	}
	if rpt.GithubIssueNumber == nil {
		return errors.New("report has no tracker issue")
	}

	number, err := strconv.Atoi(*rpt.GithubIssueNumber)
	if err != nil {
		return errs.Wrapf(err, "parse issue number %q", *rpt.GithubIssueNumber)
	}
	return s.tracker.CommentIssue(ctx, number, comment)
}
