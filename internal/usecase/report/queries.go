package report

import (
	"context"
	"errors"

	"bugtriage/internal/errs"
	"bugtriage/internal/ports"
)

type ListInput struct {
	Status string
	Limit  int
}

type ListItem struct {
	ExternalID   string
	Title        string
	Category     string
	Severity     string
	Status       string
	QualityScore *float64
	CreatedAt    string
}

// List returns active (non-deleted) reports, newest first.
func (s *Service) List(ctx context.Context, input ListInput) ([]ListItem, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}

	rows, err := s.repo.ListReports(ctx, ports.ReportFilter{
		Status: input.Status,
		Limit:  input.Limit,
	})
	if err != nil {
		return nil, errs.Wrap(err, "list reports")
	}

	items := make([]ListItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, ListItem{
			ExternalID:   row.ExternalID,
			Title:        derefString(row.Title),
			Category:     derefString(row.Category),
			Severity:     derefString(row.Severity),
			Status:       row.Status,
			QualityScore: row.QualityScore,
			CreatedAt:    row.CreatedAt,
		})
	}
	return items, nil
}

// Get returns the full detail view for one report.
func (s *Service) Get(ctx context.Context, externalID string) (ReportDetail, error) {
	if ctx == nil {
		return ReportDetail{}, errors.New("context is required")
	}

	rpt, err := s.repo.GetReportByExternalID(ctx, externalID)
	if err != nil {
		return ReportDetail{}, err
	}
	if rpt.DeletedAt != nil {
		return ReportDetail{}, ports.ErrReportNotFound
	}

	kinds, err := s.repo.ListAttachmentKinds(ctx, rpt.ReportID)
	if err != nil {
		return ReportDetail{}, errs.Wrap(err, "list attachments")
	}

	return ReportDetail{
		ExternalID:           rpt.ExternalID,
		Status:               rpt.Status,
		Title:                derefString(rpt.Title),
		Category:             derefString(rpt.Category),
		Severity:             derefString(rpt.Severity),
		QualityScore:         rpt.QualityScore,
		PageURL:              rpt.PageURL,
		Description:          rpt.Description,
		SanitizedDescription: derefString(rpt.SanitizedDescription),
		RejectionReason:      derefString(rpt.RejectionReason),
		InternalNotes:        derefString(rpt.InternalNotes),
		GithubIssueNumber:    derefString(rpt.GithubIssueNumber),
		GithubIssueURL:       derefString(rpt.GithubIssueURL),
		Attachments:          kinds,
		CreatedAt:            rpt.CreatedAt,
		UpdatedAt:            rpt.UpdatedAt,
	}, nil
}

// GetPublic narrows Get to the fields a submitter may see.
func (s *Service) GetPublic(ctx context.Context, externalID string) (PublicReportDetail, error) {
	detail, err := s.Get(ctx, externalID)
	if err != nil {
		return PublicReportDetail{}, err
	}

	description := detail.Description
	if detail.SanitizedDescription != "" {
		description = detail.SanitizedDescription
	}

	return PublicReportDetail{
		ExternalID:      detail.ExternalID,
		Status:          detail.Status,
		Title:           detail.Title,
		Category:        detail.Category,
		Severity:        detail.Severity,
		PageURL:         detail.PageURL,
		Description:     description,
		RejectionReason: detail.RejectionReason,
		GithubIssueURL:  detail.GithubIssueURL,
		Attachments:     detail.Attachments,
		CreatedAt:       detail.CreatedAt,
	}, nil
}

// JobHandlers exposes the background jobs under their queue names.
func (s *Service) JobHandlers() map[string]func(ctx context.Context, reportID uint64) error {
	return map[string]func(ctx context.Context, reportID uint64) error{
		ports.JobPublishReport:    s.Publish,
		ports.JobSyncStatus:       s.SyncStatus,
		ports.JobSendConfirmation: s.SendConfirmation,
	}
}
