package ports

import (
	"context"
	"errors"
)

var (
	ErrReportNotFound     = errors.New("report not found")
	ErrAttachmentNotFound = errors.New("attachment not found")
)

// Attachment kinds.
const (
	AttachmentScreenshotOriginal  = "screenshot_original"
	AttachmentScreenshotSanitized = "screenshot_sanitized"
	AttachmentConsoleLogs         = "console_logs"
)

type ReportFilter struct {
	Status         string
	IncludeDeleted bool
	Limit          int
}

type Report struct {
	ReportID             uint64
	ExternalID           string
	UserID               *uint64
	UserKind             string
	PageURL              string
	Description          string
	SanitizedDescription *string
	Title                *string
	Category             *string
	Severity             *string
	Status               string
	QualityScore         *float64
	ValidationResult     string
	RejectionReason      *string
	InternalNotes        *string
	TechnicalContext     string
	BlurMetadata         *string
	GithubIssueNumber    *string
	GithubIssueURL       *string
	DeletedAt            *string
	CreatedAt            string
	UpdatedAt            string
}

type AttachmentCreate struct {
	ReportID    uint64
	Kind        string
	Filename    string
	ContentType string
	Data        []byte
	CreatedAt   string
}

type Attachment struct {
	AttachmentID uint64
	ReportID     uint64
	Kind         string
	Filename     string
	ContentType  string
	Data         []byte
	CreatedAt    string
}

type ReportReadRepository interface {
	GetReport(ctx context.Context, reportID uint64) (Report, error)
	GetReportByExternalID(ctx context.Context, externalID string) (Report, error)
	ListReports(ctx context.Context, filter ReportFilter) ([]Report, error)
	ExternalIDExists(ctx context.Context, externalID string) (bool, error)
	GetAttachment(ctx context.Context, reportID uint64, kind string) (Attachment, error)
	ListAttachmentKinds(ctx context.Context, reportID uint64) ([]string, error)
}

type ReportRepository interface {
	ReportReadRepository
	CreateReport(ctx context.Context, input Report) (Report, error)
	UpdateReportStatus(ctx context.Context, reportID uint64, status string, updatedAt string) error
	MarkReportRejected(ctx context.Context, reportID uint64, reason string, updatedAt string) error
	SetReportPublication(ctx context.Context, reportID uint64, issueNumber string, issueURL string, updatedAt string) error
	SetReportBlurMetadata(ctx context.Context, reportID uint64, blurMetadataJSON string, updatedAt string) error
	UpdateReportNotes(ctx context.Context, reportID uint64, notes string, updatedAt string) error
	UpdateReportCategory(ctx context.Context, reportID uint64, category string, updatedAt string) error
	SoftDeleteReport(ctx context.Context, reportID uint64, deletedAt string) error
	AddAttachment(ctx context.Context, input AttachmentCreate) error
}
