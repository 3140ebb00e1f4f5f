package classify

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"bugtriage/internal/bootstrap/logging"
	"bugtriage/internal/domain/report"
	"bugtriage/internal/errs"
	"bugtriage/internal/ports"
)

const defaultTimeout = 10 * time.Second

// Chain tries the remote classifier within a bounded timeout and falls back
// to the deterministic heuristics on any failure. Callers always get a
// verdict, never an error: rejection is a business outcome, not an
// exception.
type Chain struct {
	remote  ports.Classifier
	timeout time.Duration
}

var _ ports.Classifier = (*Chain)(nil)

func NewChain(remote ports.Classifier, timeout time.Duration) *Chain {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Chain{
		remote:  remote,
		timeout: timeout,
	}
}

func (c *Chain) Classify(ctx context.Context, input ports.ClassifyInput) (report.Verdict, error) {
	if ctx == nil {
		return report.UnavailableVerdict(), nil
	}

	logCtx := logging.WithAttrs(ctx, slog.String("component", "classify.chain"))

	if c.remote == nil {
		return report.ClassifyHeuristically(input.Description), nil
	}

	remoteCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	verdict, err := c.remote.Classify(remoteCtx, input)
	if err != nil {
		reason := "error"
		if errors.Is(err, context.DeadlineExceeded) {
			reason = "timeout"
		}
		logging.Warn(logCtx, "remote classification failed, using heuristics",
			slog.String("reason", reason),
			slog.Any("err", errs.Loggable(err)),
		)
		return report.ClassifyHeuristically(input.Description), nil
	}

	return verdict, nil
}
