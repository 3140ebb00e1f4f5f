package ports

import (
	"context"

	"bugtriage/internal/domain/report"
)

type ClassifyInput struct {
	Description string
	PageURL     string
	Context     report.TechnicalContext
}

// Classifier scores and labels a submitted description. Implementations:
// the remote model call and the deterministic fallback chain wrapping it.
type Classifier interface {
	Classify(ctx context.Context, input ClassifyInput) (report.Verdict, error)
}
