package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"bugtriage/internal/errs"
	"bugtriage/internal/infrastructure/persistence/sqlite/model"
	"bugtriage/internal/ports"
)

type ReportRepository struct {
	db *gorm.DB
}

var _ ports.ReportRepository = (*ReportRepository)(nil)

func NewReportRepository(db *gorm.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

func (r *ReportRepository) dbFromContext(ctx context.Context) (*gorm.DB, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}

	tx := ports.TxFromContext(ctx)
	if tx == nil {
		return r.db.WithContext(ctx), nil
	}

	gormTx, ok := tx.(*gorm.DB)
	if !ok || gormTx == nil {
		return nil, fmt.Errorf("invalid tx in context: %T", tx)
	}
	return gormTx.WithContext(ctx), nil
}

func (r *ReportRepository) CreateReport(ctx context.Context, input ports.Report) (ports.Report, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return ports.Report{}, err
	}

	row := model.Report{
		ExternalID:           input.ExternalID,
		UserID:               input.UserID,
		UserKind:             input.UserKind,
		PageURL:              input.PageURL,
		Description:          input.Description,
		SanitizedDescription: input.SanitizedDescription,
		Title:                input.Title,
		Category:             input.Category,
		Severity:             input.Severity,
		Status:               input.Status,
		QualityScore:         input.QualityScore,
		ValidationResult:     input.ValidationResult,
		RejectionReason:      input.RejectionReason,
		TechnicalContext:     input.TechnicalContext,
		CreatedAt:            input.CreatedAt,
		UpdatedAt:            input.UpdatedAt,
	}

	if err := db.Create(&row).Error; err != nil {
		return ports.Report{}, errs.Wrap(err, "insert report")
	}
	return mapReport(row), nil
}

func (r *ReportRepository) GetReport(ctx context.Context, reportID uint64) (ports.Report, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return ports.Report{}, err
	}

	var row model.Report
	if err := db.Where("report_id = ?", reportID).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.Report{}, ports.ErrReportNotFound
		}
		return ports.Report{}, errs.Wrap(err, "query report by id")
	}
	return mapReport(row), nil
}

func (r *ReportRepository) GetReportByExternalID(ctx context.Context, externalID string) (ports.Report, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return ports.Report{}, err
	}

	var row model.Report
	if err := db.Where("external_id = ?", externalID).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.Report{}, ports.ErrReportNotFound
		}
		return ports.Report{}, errs.Wrap(err, "query report by external id")
	}
	return mapReport(row), nil
}

func (r *ReportRepository) ListReports(ctx context.Context, filter ports.ReportFilter) ([]ports.Report, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return nil, err
	}

	query := db.Model(&model.Report{})
	if !filter.IncludeDeleted {
		query = query.Where("deleted_at IS NULL")
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	query = query.Order("created_at desc")
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	var rows []model.Report
	if err := query.Find(&rows).Error; err != nil {
		return nil, errs.Wrap(err, "query reports")
	}

	items := make([]ports.Report, 0, len(rows))
	for _, row := range rows {
		items = append(items, mapReport(row))
	}
	return items, nil
}

func (r *ReportRepository) ExternalIDExists(ctx context.Context, externalID string) (bool, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return false, err
	}

	var count int64
	if err := db.Model(&model.Report{}).Where("external_id = ?", externalID).Count(&count).Error; err != nil {
		return false, errs.Wrap(err, "count external id")
	}
	return count > 0, nil
}

func (r *ReportRepository) UpdateReportStatus(ctx context.Context, reportID uint64, status string, updatedAt string) error {
	return r.updateReport(ctx, reportID, map[string]any{
		"status":     status,
		"updated_at": updatedAt,
	}, "update report status")
}

func (r *ReportRepository) MarkReportRejected(ctx context.Context, reportID uint64, reason string, updatedAt string) error {
	return r.updateReport(ctx, reportID, map[string]any{
		"status":           "rejected",
		"rejection_reason": reason,
		"updated_at":       updatedAt,
	}, "mark report rejected")
}

func (r *ReportRepository) SetReportPublication(ctx context.Context, reportID uint64, issueNumber string, issueURL string, updatedAt string) error {
	return r.updateReport(ctx, reportID, map[string]any{
		"github_issue_number": issueNumber,
		"github_issue_url":    issueURL,
		"status":              "github_created",
		"updated_at":          updatedAt,
	}, "set report publication")
}

func (r *ReportRepository) SetReportBlurMetadata(ctx context.Context, reportID uint64, blurMetadataJSON string, updatedAt string) error {
	return r.updateReport(ctx, reportID, map[string]any{
		"blur_metadata": blurMetadataJSON,
		"updated_at":    updatedAt,
	}, "set report blur metadata")
}

func (r *ReportRepository) UpdateReportNotes(ctx context.Context, reportID uint64, notes string, updatedAt string) error {
	return r.updateReport(ctx, reportID, map[string]any{
		"internal_notes": notes,
		"updated_at":     updatedAt,
	}, "update report notes")
}

func (r *ReportRepository) UpdateReportCategory(ctx context.Context, reportID uint64, category string, updatedAt string) error {
	return r.updateReport(ctx, reportID, map[string]any{
		"category":   category,
		"updated_at": updatedAt,
	}, "update report category")
}

func (r *ReportRepository) SoftDeleteReport(ctx context.Context, reportID uint64, deletedAt string) error {
	return r.updateReport(ctx, reportID, map[string]any{
		"deleted_at": deletedAt,
		"updated_at": deletedAt,
	}, "soft delete report")
}

func (r *ReportRepository) updateReport(ctx context.Context, reportID uint64, fields map[string]any, action string) error {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return err
	}

	result := db.Model(&model.Report{}).Where("report_id = ?", reportID).Updates(fields)
	if result.Error != nil {
		return errs.Wrap(result.Error, action)
	}
	if result.RowsAffected == 0 {
		return ports.ErrReportNotFound
	}
	return nil
}

func (r *ReportRepository) AddAttachment(ctx context.Context, input ports.AttachmentCreate) error {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return err
	}

	row := model.Attachment{
		ReportID:    input.ReportID,
		Kind:        input.Kind,
		Filename:    input.Filename,
		ContentType: input.ContentType,
		Data:        input.Data,
		CreatedAt:   input.CreatedAt,
	}
	if err := db.Create(&row).Error; err != nil {
		return errs.Wrap(err, "insert attachment")
	}
	return nil
}

func (r *ReportRepository) GetAttachment(ctx context.Context, reportID uint64, kind string) (ports.Attachment, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return ports.Attachment{}, err
	}

	var row model.Attachment
	if err := db.Where("report_id = ? AND kind = ?", reportID, kind).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.Attachment{}, ports.ErrAttachmentNotFound
		}
		return ports.Attachment{}, errs.Wrap(err, "query attachment")
	}

	return ports.Attachment{
		AttachmentID: row.AttachmentID,
		ReportID:     row.ReportID,
		Kind:         row.Kind,
		Filename:     row.Filename,
		ContentType:  row.ContentType,
		Data:         row.Data,
		CreatedAt:    row.CreatedAt,
	}, nil
}

func (r *ReportRepository) ListAttachmentKinds(ctx context.Context, reportID uint64) ([]string, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return nil, err
	}

	var kinds []string
	if err := db.Model(&model.Attachment{}).
		Where("report_id = ?", reportID).
		Order("kind asc").
		Pluck("kind", &kinds).Error; err != nil {
		return nil, errs.Wrap(err, "query attachment kinds")
	}
	return kinds, nil
}

func mapReport(row model.Report) ports.Report {
	return ports.Report{
		ReportID:             row.ReportID,
		ExternalID:           row.ExternalID,
		UserID:               row.UserID,
		UserKind:             row.UserKind,
		PageURL:              row.PageURL,
		Description:          row.Description,
		SanitizedDescription: row.SanitizedDescription,
		Title:                row.Title,
		Category:             row.Category,
		Severity:             row.Severity,
		Status:               row.Status,
		QualityScore:         row.QualityScore,
		ValidationResult:     row.ValidationResult,
		RejectionReason:      row.RejectionReason,
		InternalNotes:        row.InternalNotes,
		TechnicalContext:     row.TechnicalContext,
		BlurMetadata:         row.BlurMetadata,
		GithubIssueNumber:    row.GithubIssueNumber,
		GithubIssueURL:       row.GithubIssueURL,
		DeletedAt:            row.DeletedAt,
		CreatedAt:            row.CreatedAt,
		UpdatedAt:            row.UpdatedAt,
	}
}
