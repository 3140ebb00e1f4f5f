package model

type Attachment struct {
	AttachmentID uint64 `gorm:"column:attachment_id;primaryKey;autoIncrement"`
	ReportID     uint64 `gorm:"column:report_id;not null;index:idx_attachments_report_kind"`
	Kind         string `gorm:"column:kind;type:text;not null;index:idx_attachments_report_kind"`
	Filename     string `gorm:"column:filename;type:text;not null"`
	ContentType  string `gorm:"column:content_type;type:text;not null"`
	Data         []byte `gorm:"column:data;type:blob;not null"`
	CreatedAt    string `gorm:"column:created_at;type:text;not null"`
}

func (Attachment) TableName() string {
	return "attachments"
}
