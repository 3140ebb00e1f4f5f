package classify

import (
	"context"
	"errors"
	"testing"
	"time"

	"bugtriage/internal/domain/report"
	"bugtriage/internal/ports"
)

type stubClassifier struct {
	verdict report.Verdict
	err     error
	delay   time.Duration
	calls   int
}

func (s *stubClassifier) Classify(ctx context.Context, _ ports.ClassifyInput) (report.Verdict, error) {
	s.calls++
	if s.delay > 0 {
		select {
		case <-ctx.Done():
			return report.Verdict{}, ctx.Err()
		case <-time.After(s.delay):
		}
	}
	return s.verdict, s.err
}

const validDescription = "The checkout button shows a 500 error every time I try to pay for a product."

func TestChainUsesRemoteVerdict(t *testing.T) {
	remote := &stubClassifier{
		verdict: report.Verdict{
			Valid:        true,
			QualityScore: report.ScorePtr(88),
			Category:     report.CategoryPayment,
			Severity:     report.SeverityHigh,
			Title:        "Checkout 500 on pay",
		},
	}
	chain := NewChain(remote, time.Second)

	verdict, err := chain.Classify(context.Background(), ports.ClassifyInput{Description: validDescription})
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	if !verdict.Valid || verdict.QualityScore == nil || *verdict.QualityScore != 88 {
		t.Fatalf("Classify() verdict = %+v, want remote verdict", verdict)
	}
	if remote.calls != 1 {
		t.Fatalf("remote calls = %d", remote.calls)
	}
}

func TestChainFallsBackOnRemoteError(t *testing.T) {
	remote := &stubClassifier{err: errors.New("api quota exceeded")}
	chain := NewChain(remote, time.Second)

	verdict, err := chain.Classify(context.Background(), ports.ClassifyInput{Description: validDescription})
	if err != nil {
		t.Fatalf("Classify() error = %v, chain must absorb remote failures", err)
	}
	if !verdict.Valid {
		t.Fatalf("heuristic fallback should validate a real report, got %+v", verdict)
	}
	if verdict.Category != report.CategoryPayment {
		t.Fatalf("fallback category = %q", verdict.Category)
	}
}

func TestChainFallsBackOnTimeout(t *testing.T) {
	remote := &stubClassifier{
		verdict: report.Verdict{Valid: true},
		delay:   200 * time.Millisecond,
	}
	chain := NewChain(remote, 10*time.Millisecond)

	verdict, err := chain.Classify(context.Background(), ports.ClassifyInput{Description: validDescription})
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	if verdict.QualityScore == nil {
		t.Fatalf("expected heuristic verdict with score, got %+v", verdict)
	}
}

func TestChainWithoutRemoteUsesHeuristics(t *testing.T) {
	chain := NewChain(nil, 0)

	verdict, err := chain.Classify(context.Background(), ports.ClassifyInput{Description: "short one"})
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	if !verdict.NeedsClarification {
		t.Fatalf("short description should ask for clarification, got %+v", verdict)
	}
}
