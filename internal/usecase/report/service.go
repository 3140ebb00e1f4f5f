package report

import (
	"context"
	"time"

	domainreport "bugtriage/internal/domain/report"
	"bugtriage/internal/ports"
	"bugtriage/internal/usecase/redact"
)

const (
	// PublishThreshold is the minimum quality score for opening a public
	// tracker issue. Checked at publication time, not submission time.
	PublishThreshold = 70.0

	issueTitleLimit  = 256
	browserTruncated = 100
)

// screenshotRedactor is what the orchestrator needs from the redaction
// pipeline; tests substitute a fixed-result stub.
type screenshotRedactor interface {
	Process(ctx context.Context, data []byte, contentType string, pageURL string) redact.Result
}

type Service struct {
	repo       ports.ReportRepository
	uow        ports.UnitOfWork
	cache      ports.Cache
	classifier ports.Classifier
	redactor   screenshotRedactor
	queue      ports.JobQueue
	tracker    ports.IssueTracker
	notifier   ports.Notifier
}

// NewService wires the report pipeline usecases.
func NewService(
	repo ports.ReportRepository,
	uow ports.UnitOfWork,
	cache ports.Cache,
	classifier ports.Classifier,
	redactor *redact.Redactor,
	queue ports.JobQueue,
	tracker ports.IssueTracker,
	notifier ports.Notifier,
) *Service {
	return &Service{
		repo:       repo,
		uow:        uow,
		cache:      cache,
		classifier: classifier,
		redactor:   redactor,
		queue:      queue,
		tracker:    tracker,
		notifier:   notifier,
	}
}

type SubmitInput struct {
	Description string
	PageURL     string
	Referrer    string

	Browser   string
	OS        string
	UserAgent string
	Viewport  string

	Screenshot            []byte
	ScreenshotFilename    string
	ScreenshotContentType string

	ConsoleLogs string

	UserID   *uint64
	UserKind domainreport.SubmitterKind
}

type SubmitResult struct {
	Success bool
	Verdict domainreport.Verdict
	Report  *ports.Report
}

type ReportDetail struct {
	ExternalID           string   `json:"external_id"`
	Status               string   `json:"status"`
	Title                string   `json:"title,omitempty"`
	Category             string   `json:"category,omitempty"`
	Severity             string   `json:"severity,omitempty"`
	QualityScore         *float64 `json:"quality_score,omitempty"`
	PageURL              string   `json:"page_url"`
	Description          string   `json:"description"`
	SanitizedDescription string   `json:"sanitized_description,omitempty"`
	RejectionReason      string   `json:"rejection_reason,omitempty"`
	InternalNotes        string   `json:"internal_notes,omitempty"`
	GithubIssueNumber    string   `json:"github_issue_number,omitempty"`
	GithubIssueURL       string   `json:"github_issue_url,omitempty"`
	Attachments          []string `json:"attachments,omitempty"`
	CreatedAt            string   `json:"created_at"`
	UpdatedAt            string   `json:"updated_at"`
}

// PublicReportDetail is the submitter-facing view served by the API.
// Reviewer notes stay inside operator tooling, and the sanitized
// description replaces the raw one whenever the classifier produced it.
type PublicReportDetail struct {
	ExternalID      string   `json:"external_id"`
	Status          string   `json:"status"`
	Title           string   `json:"title,omitempty"`
	Category        string   `json:"category,omitempty"`
	Severity        string   `json:"severity,omitempty"`
	PageURL         string   `json:"page_url"`
	Description     string   `json:"description"`
	RejectionReason string   `json:"rejection_reason,omitempty"`
	GithubIssueURL  string   `json:"github_issue_url,omitempty"`
	Attachments     []string `json:"attachments,omitempty"`
	CreatedAt       string   `json:"created_at"`
}

func nowUTCString() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

func strPtr(s string) *string {
	return &s
}

func derefString(ptr *string) string {
	if ptr == nil {
		return ""
	}
	return *ptr
}

func cacheReportStatusKey(externalID string) string {
	return "report_status:" + externalID
}

func (s *Service) setCacheBestEffort(ctx context.Context, key string, value string) {
	if s.cache == nil {
		return
	}
	_ = s.cache.Set(ctx, key, value, 0)
}
