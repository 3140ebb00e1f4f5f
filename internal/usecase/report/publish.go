package report

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"bugtriage/internal/bootstrap/logging"
	domainreport "bugtriage/internal/domain/report"
	"bugtriage/internal/errs"
	"bugtriage/internal/ports"
)

const (
	rejectReasonLowScore     = "Quality score too low for public GitHub issue"
	rejectReasonRevalidation = "Failed re-validation check"
)

// Publish creates the public tracker issue for a validated report.
// Idempotent: a no-op when the report is gone, soft-deleted, or already
// published. Quality and spam gates run again here because classification
// and publication are temporally separated. A returned error means the
// tracker call failed and the worker should retry; gate rejections are
// business outcomes and return nil.
func (s *Service) Publish(ctx context.Context, reportID uint64) error {
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
		slog.String("component", "report.publish"),
		slog.Uint64("report_id", reportID),
	)

	rpt, err := s.repo.GetReport(ctx, reportID)
	if err != nil {
		if errors.Is(err, ports.ErrReportNotFound) {
			return nil
		}
		return errs.Wrap(err, "load report")
	}
	if rpt.DeletedAt != nil {
		return nil
	}
	if rpt.GithubIssueNumber != nil {
		return nil
	}

	if rpt.QualityScore == nil || *rpt.QualityScore < PublishThreshold {
		score := "absent"
		if rpt.QualityScore != nil {
			score = strconv.FormatFloat(*rpt.QualityScore, 'f', -1, 64)
		}
		logging.Warn(logCtx, "publication rejected on quality gate",
			slog.String("quality_score", score),
			slog.Float64("threshold", PublishThreshold),
		)
		if err := s.repo.MarkReportRejected(ctx, reportID, rejectReasonLowScore, nowUTCString()); err != nil {
			return errs.Wrap(err, "mark rejected on quality gate")
		}
		s.setCacheBestEffort(ctx, cacheReportStatusKey(rpt.ExternalID), string(domainreport.StatusRejected))
		return nil
	}

	if !stillValidForPublication(rpt) {
		logging.Warn(logCtx, "publication rejected on re-validation gate")
		if err := s.repo.MarkReportRejected(ctx, reportID, rejectReasonRevalidation, nowUTCString()); err != nil {
			return errs.Wrap(err, "mark rejected on re-validation gate")
		}
		s.setCacheBestEffort(ctx, cacheReportStatusKey(rpt.ExternalID), string(domainreport.StatusRejected))
		return nil
	}

	body, err := s.issueBody(ctx, rpt)
	if err != nil {
		return errs.Wrap(err, "build issue body")
	}

	ref, err := s.tracker.CreateIssue(ctx, ports.IssueRequest{
		Title:  issueTitle(rpt),
		Body:   body,
		Labels: issueLabels(rpt),
	})
	if err != nil {
		return errs.Wrap(err, "create tracker issue")
	}

	if err := s.repo.SetReportPublication(ctx, reportID, strconv.Itoa(ref.Number), ref.URL, nowUTCString()); err != nil {
		return errs.Wrap(err, "store publication")
	}

	s.setCacheBestEffort(ctx, cacheReportStatusKey(rpt.ExternalID), string(domainreport.StatusGithubCreated))
	logging.Info(logCtx, "tracker issue created",
		slog.Int("issue_number", ref.Number),
		slog.String("issue_url", ref.URL),
	)

	if s.queue != nil {
		if err := s.queue.Enqueue(ctx, ports.JobSendConfirmation, reportID); err != nil {
			logging.Error(logCtx, "enqueue confirmation failed", slog.Any("err", errs.Loggable(err)))
		}
	}
	return nil
}

// stillValidForPublication re-runs the fallback classifier's spam signature
// set. The first pass may have been inconsistent, and content or thresholds
// can change between classification and publication.
func stillValidForPublication(rpt ports.Report) bool {
	description := derefString(rpt.SanitizedDescription)
	if description == "" {
		description = rpt.Description
	}

	text := domainreport.NormalizeDescription(description)
	if text == "" {
		return false
	}
	if len(text) < domainreport.MinPublishLength {
		return false
	}
	return !domainreport.LooksLikeSpam(text)
}

func issueTitle(rpt ports.Report) string {
	title := derefString(rpt.Title)
	if title == "" {
		title = "Bug Report"
	}
	if len(title) > issueTitleLimit {
		title = title[:issueTitleLimit]
	}
	return title
}

func (s *Service) issueBody(ctx context.Context, rpt ports.Report) (string, error) {
	description := derefString(rpt.SanitizedDescription)
	if description == "" {
		description = rpt.Description
	}

	var techContext domainreport.TechnicalContext
	if rpt.TechnicalContext != "" {
		if err := json.Unmarshal([]byte(rpt.TechnicalContext), &techContext); err != nil {
			return "", errs.Wrap(err, "unmarshal technical context")
		}
	}

	screenshotAttached := false
	kinds, err := s.repo.ListAttachmentKinds(ctx, rpt.ReportID)
	if err == nil {
		for _, kind := range kinds {
			if kind == ports.AttachmentScreenshotSanitized {
				screenshotAttached = true
			}
		}
	}

	lines := []string{
		description,
		"",
		"## Technical Details",
		fmt.Sprintf("- **Page URL**: %s", rpt.PageURL),
		fmt.Sprintf("- **User Type**: %s", rpt.UserKind),
		fmt.Sprintf("- **Category**: %s", valueOr(derefString(rpt.Category), "Uncategorized")),
		fmt.Sprintf("- **Severity**: %s", valueOr(derefString(rpt.Severity), "Unknown")),
	}
	if rpt.QualityScore != nil {
		lines = append(lines, fmt.Sprintf("- **Quality Score**: %s", strconv.FormatFloat(*rpt.QualityScore, 'f', -1, 64)))
	}
	if techContext.Browser != "" {
		lines = append(lines, fmt.Sprintf("- **Browser**: %s", truncate(techContext.Browser, browserTruncated)))
	}
	if techContext.OS != "" {
		lines = append(lines, fmt.Sprintf("- **OS**: %s", techContext.OS))
	}
	if techContext.Viewport != "" {
		lines = append(lines, fmt.Sprintf("- **Viewport**: %s", techContext.Viewport))
	}
	if screenshotAttached {
		lines = append(lines, "- **Screenshot**: Attached")
	}

	lines = append(lines,
		"",
		"---",
		fmt.Sprintf("*This issue was automatically created from a bug report. Internal ID: %s*", rpt.ExternalID),
	)
	return strings.Join(lines, "\n"), nil
}

func issueLabels(rpt ports.Report) []string {
	labels := []string{"bug-report"}
	if rpt.UserKind != "" {
		labels = append(labels, "user-type:"+rpt.UserKind)
	}
	if category := derefString(rpt.Category); category != "" {
		labels = append(labels, "category:"+category)
	}
	if severity := derefString(rpt.Severity); severity != "" {
		labels = append(labels, "severity:"+severity)
	}
	return labels
}

func valueOr(value string, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

func truncate(value string, limit int) string {
	if len(value) <= limit {
		return value
	}
	return value[:limit]
}
