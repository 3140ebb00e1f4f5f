package redact

import (
	"context"
	"log/slog"
	"time"

	"bugtriage/internal/bootstrap/logging"
	"bugtriage/internal/domain/sanitize"
	"bugtriage/internal/errs"
)

const defaultBudget = 5 * time.Second

// BlurMetadata is the audit record stored next to the sanitized screenshot.
// Pattern classes are recorded even when processing degraded and no blur
// was actually applied.
type BlurMetadata struct {
	BlurredPatterns  []string `json:"blurred_patterns"`
	BlurredSelectors []string `json:"blurred_selectors"`
	Timestamp        string   `json:"timestamp"`
}

// Result of a redaction attempt. Data is always a usable image: either the
// blurred copy or, when processing degraded, the original bytes.
type Result struct {
	Data        []byte
	ContentType string
	Redacted    bool
	Metadata    *BlurMetadata
}

// Redactor blurs screenshots according to the page-type policy table.
type Redactor struct {
	store  *ConfigStore
	budget time.Duration
}

func NewRedactor(store *ConfigStore, budget time.Duration) *Redactor {
	if budget <= 0 {
		budget = defaultBudget
	}
	return &Redactor{
		store:  store,
		budget: budget,
	}
}

// Process resolves the policy for the originating page and produces a
// sanitized copy. It never fails the submission: decode errors and blown
// budgets degrade to returning the original bytes, with the would-have-been
// pattern classes still recorded for audit.
func (r *Redactor) Process(ctx context.Context, data []byte, contentType string, pageURL string) Result {
	logCtx := logging.WithAttrs(ctx, slog.String("component", "redact"))

	pageType := sanitize.DetectPageType(pageURL)
	policy := r.store.Current().Resolve(pageType)

	if !policy.RequestsRedaction() {
		return Result{
			Data:        data,
			ContentType: contentType,
			Redacted:    false,
		}
	}

	metadata := &BlurMetadata{
		BlurredPatterns:  policy.EnabledPatterns(),
		BlurredSelectors: append([]string(nil), policy.BlurSelectors...),
		Timestamp:        time.Now().UTC().Format(time.RFC3339Nano),
	}

	blurred, err := r.blurWithBudget(ctx, data)
	if err != nil {
		logging.Warn(logCtx, "blur degraded to original copy",
			slog.String("page_type", string(pageType)),
			slog.Any("err", errs.Loggable(err)),
		)
		return Result{
			Data:        data,
			ContentType: contentType,
			Redacted:    false,
			Metadata:    metadata,
		}
	}

	return Result{
		Data:        blurred,
		ContentType: "image/png",
		Redacted:    true,
		Metadata:    metadata,
	}
}

// blurWithBudget bounds the blur so a huge screenshot cannot stall the
// submission request.
func (r *Redactor) blurWithBudget(ctx context.Context, data []byte) ([]byte, error) {
	type blurResult struct {
		data []byte
		err  error
	}

	done := make(chan blurResult, 1)
	go func() {
		blurred, err := blurImage(data)
		done <- blurResult{data: blurred, err: err}
	}()

	timer := time.NewTimer(r.budget)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return nil, errs.Wrap(ctx.Err(), "redaction canceled")
	case <-timer.C:
		return nil, errs.Wrapf(context.DeadlineExceeded, "redaction budget %s exceeded", r.budget)
	case result := <-done:
		return result.data, result.err
	}
}
