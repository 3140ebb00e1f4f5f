package report

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"

	"bugtriage/internal/bootstrap/logging"
	domainreport "bugtriage/internal/domain/report"
	"bugtriage/internal/errs"
	"bugtriage/internal/ports"
)

const externalIDAttempts = 5

// Submit runs the validation and persistence pipeline for one raw
// submission: classify, persist if the verdict allows it, attach and redact
// the screenshot, store console logs, set the initial status, and enqueue
// publication. Single attempt, no internal retry.
func (s *Service) Submit(ctx context.Context, input SubmitInput) (SubmitResult, error) {
	if ctx == nil {
		return SubmitResult{}, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return SubmitResult{}, errs.Wrap(err, "check context")
	}
	if s.repo == nil || s.uow == nil || s.classifier == nil {
		return SubmitResult{}, errors.New("report service is not fully wired")
	}
	if strings.TrimSpace(input.Description) == "" {
		return SubmitResult{}, domainreport.ErrDescriptionRequired
	}

	logCtx := logging.WithAttrs(ctx, slog.String("component", "report.submit"))

	pageURL := firstNonEmpty(input.PageURL, input.Referrer, "unknown")
	techContext := buildTechnicalContext(input)

	verdict, err := s.classifier.Classify(ctx, ports.ClassifyInput{
		Description: input.Description,
		PageURL:     pageURL,
		Context:     techContext,
	})
	if err != nil {
		// The chain absorbs remote failures; an error here means the
		// classifier itself is miswired. Still never surface it to the
		// submitter.
		logging.Error(logCtx, "classifier returned error", slog.Any("err", errs.Loggable(err)))
		verdict = domainreport.UnavailableVerdict()
	}

	if !verdict.Storable() {
		return SubmitResult{
			Success: false,
			Verdict: verdict,
		}, nil
	}

	externalID, err := s.uniqueExternalID(ctx)
	if err != nil {
		return SubmitResult{}, errs.Wrap(err, "assign external id")
	}

	status := domainreport.StatusValidated
	if verdict.NeedsClarification {
		status = domainreport.StatusNeedsClarification
	}

	verdictJSON, err := json.Marshal(verdict)
	if err != nil {
		return SubmitResult{}, errs.Wrap(err, "marshal verdict")
	}
	contextJSON, err := json.Marshal(techContext)
	if err != nil {
		return SubmitResult{}, errs.Wrap(err, "marshal technical context")
	}

	now := nowUTCString()
	var created ports.Report
	if err := s.uow.WithTx(ctx, func(txCtx context.Context) error {
		var txErr error
		created, txErr = s.repo.CreateReport(txCtx, ports.Report{
			ExternalID:           externalID,
			UserID:               input.UserID,
			UserKind:             string(submitterKind(input)),
			PageURL:              pageURL,
			Description:          input.Description,
			SanitizedDescription: optionalString(verdict.SanitizedDescription),
			Title:                optionalString(verdict.Title),
			Category:             optionalString(verdict.Category),
			Severity:             optionalString(verdict.Severity),
			Status:               string(status),
			QualityScore:         verdict.QualityScore,
			ValidationResult:     string(verdictJSON),
			TechnicalContext:     string(contextJSON),
			CreatedAt:            now,
			UpdatedAt:            now,
		})
		return txErr
	}); err != nil {
		return SubmitResult{}, errs.Wrap(err, "persist report")
	}

	// Attachment handling is best-effort and isolated: failures here must
	// not roll back the created report.
	if len(input.Screenshot) > 0 {
		s.attachScreenshot(logCtx, created, input)
	}
	if input.ConsoleLogs != "" {
		s.attachConsoleLogs(logCtx, created.ReportID, input.ConsoleLogs)
	}

	if status == domainreport.StatusValidated {
		if s.queue != nil {
			if err := s.queue.Enqueue(ctx, ports.JobPublishReport, created.ReportID); err != nil {
				logging.Error(logCtx, "enqueue publication failed",
					slog.Uint64("report_id", created.ReportID),
					slog.Any("err", errs.Loggable(err)),
				)
			}
		}
	}

	s.setCacheBestEffort(ctx, cacheReportStatusKey(externalID), string(status))
	logging.Info(logCtx, "report submitted",
		slog.String("external_id", externalID),
		slog.String("status", string(status)),
	)

	return SubmitResult{
		Success: true,
		Verdict: verdict,
		Report:  &created,
	}, nil
}

// uniqueExternalID assigns the externally visible identifier exactly once,
// before any further pipeline work.
func (s *Service) uniqueExternalID(ctx context.Context) (string, error) {
	for i := 0; i < externalIDAttempts; i++ {
		candidate, err := domainreport.NewExternalID()
		if err != nil {
			return "", err
		}
		exists, err := s.repo.ExternalIDExists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
	}
	return "", errors.New("could not allocate unique external id")
}

func (s *Service) attachScreenshot(ctx context.Context, created ports.Report, input SubmitInput) {
	now := nowUTCString()
	filename := firstNonEmpty(input.ScreenshotFilename, "screenshot.png")
	contentType := firstNonEmpty(input.ScreenshotContentType, "image/png")

	if err := s.repo.AddAttachment(ctx, ports.AttachmentCreate{
		ReportID:    created.ReportID,
		Kind:        ports.AttachmentScreenshotOriginal,
		Filename:    filename,
		ContentType: contentType,
		Data:        input.Screenshot,
		CreatedAt:   now,
	}); err != nil {
		logging.Error(ctx, "attach original screenshot failed", slog.Any("err", errs.Loggable(err)))
		return
	}

	sanitizedData := input.Screenshot
	sanitizedName := filename
	sanitizedType := contentType

	if s.redactor != nil {
		result := s.redactor.Process(ctx, input.Screenshot, contentType, created.PageURL)
		if len(result.Data) > 0 {
			sanitizedData = result.Data
			sanitizedType = result.ContentType
		}
		if result.Redacted {
			sanitizedName = "screenshot_sanitized.png"
		}
		if result.Metadata != nil {
			metadataJSON, err := json.Marshal(result.Metadata)
			if err == nil {
				if err := s.repo.SetReportBlurMetadata(ctx, created.ReportID, string(metadataJSON), nowUTCString()); err != nil {
					logging.Error(ctx, "store blur metadata failed", slog.Any("err", errs.Loggable(err)))
				}
			}
		}
	}

	// Downstream publication assumes a sanitized asset exists whenever a
	// screenshot exists, so the original is reused when redaction degraded.
	if err := s.repo.AddAttachment(ctx, ports.AttachmentCreate{
		ReportID:    created.ReportID,
		Kind:        ports.AttachmentScreenshotSanitized,
		Filename:    sanitizedName,
		ContentType: sanitizedType,
		Data:        sanitizedData,
		CreatedAt:   nowUTCString(),
	}); err != nil {
		logging.Error(ctx, "attach sanitized screenshot failed", slog.Any("err", errs.Loggable(err)))
	}
}

func (s *Service) attachConsoleLogs(ctx context.Context, reportID uint64, consoleLogs string) {
	if err := s.repo.AddAttachment(ctx, ports.AttachmentCreate{
		ReportID:    reportID,
		Kind:        ports.AttachmentConsoleLogs,
		Filename:    "console_logs.txt",
		ContentType: "text/plain",
		Data:        []byte(consoleLogs),
		CreatedAt:   nowUTCString(),
	}); err != nil {
		logging.Error(ctx, "attach console logs failed", slog.Any("err", errs.Loggable(err)))
	}
}

func buildTechnicalContext(input SubmitInput) domainreport.TechnicalContext {
	return domainreport.TechnicalContext{
		Browser:   strings.TrimSpace(input.Browser),
		OS:        strings.TrimSpace(input.OS),
		UserAgent: strings.TrimSpace(input.UserAgent),
		Viewport:  strings.TrimSpace(input.Viewport),
		Timestamp: nowUTCString(),
	}
}

func submitterKind(input SubmitInput) domainreport.SubmitterKind {
	if input.UserID == nil {
		return domainreport.SubmitterAnonymous
	}
	switch input.UserKind {
	case domainreport.SubmitterBuyer, domainreport.SubmitterSeller:
		return input.UserKind
	default:
		return domainreport.SubmitterBuyer
	}
}

func optionalString(value string) *string {
	if value == "" {
		return nil
	}
	return strPtr(value)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
