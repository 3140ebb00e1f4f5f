package model

type Report struct {
	ReportID             uint64   `gorm:"column:report_id;primaryKey;autoIncrement"`
	ExternalID           string   `gorm:"column:external_id;type:text;not null;uniqueIndex"`
	UserID               *uint64  `gorm:"column:user_id;index"`
	UserKind             string   `gorm:"column:user_kind;type:text;not null;default:anonymous"`
	PageURL              string   `gorm:"column:page_url;type:text;not null"`
	Description          string   `gorm:"column:description;type:text;not null"`
	SanitizedDescription *string  `gorm:"column:sanitized_description;type:text"`
	Title                *string  `gorm:"column:title;type:text"`
	Category             *string  `gorm:"column:category;type:text"`
	Severity             *string  `gorm:"column:severity;type:text"`
	Status               string   `gorm:"column:status;type:text;not null;index"`
	QualityScore         *float64 `gorm:"column:quality_score"`
	ValidationResult     string   `gorm:"column:validation_result;type:text;not null"`
	RejectionReason      *string  `gorm:"column:rejection_reason;type:text"`
	InternalNotes        *string  `gorm:"column:internal_notes;type:text"`
	TechnicalContext     string   `gorm:"column:technical_context;type:text;not null"`
	BlurMetadata         *string  `gorm:"column:blur_metadata;type:text"`
	GithubIssueNumber    *string  `gorm:"column:github_issue_number;type:text;index"`
	GithubIssueURL       *string  `gorm:"column:github_issue_url;type:text"`
	DeletedAt            *string  `gorm:"column:deleted_at;type:text"`
	CreatedAt            string   `gorm:"column:created_at;type:text;not null;index"`
	UpdatedAt            string   `gorm:"column:updated_at;type:text;not null"`
}

func (Report) TableName() string {
	return "reports"
}
