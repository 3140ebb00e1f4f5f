package report

import (
	"context"
	"errors"
	"strings"
	"testing"

	domainreport "bugtriage/internal/domain/report"
	"bugtriage/internal/ports"
)

func TestPublishCreatesIssue(t *testing.T) {
	svc, deps := setupService(t)
	created := mustSubmit(t, svc, validSubmitInput())

	if err := svc.Publish(context.Background(), created.ReportID); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	if len(deps.tracker.created) != 1 {
		t.Fatalf("created issues = %d", len(deps.tracker.created))
	}
	issue := deps.tracker.created[0]
	if issue.Title != "Checkout button fails with 500" {
		t.Fatalf("issue title = %q", issue.Title)
	}
	if !strings.Contains(issue.Body, "## Technical Details") {
		t.Fatalf("issue body missing technical details:\n%s", issue.Body)
	}
	if !strings.Contains(issue.Body, "Internal ID: "+created.ExternalID) {
		t.Fatalf("issue body missing internal id:\n%s", issue.Body)
	}
	wantLabels := []string{"bug-report", "user-type:anonymous", "category:payment", "severity:high"}
	if len(issue.Labels) != len(wantLabels) {
		t.Fatalf("labels = %#v", issue.Labels)
	}
	for i, label := range wantLabels {
		if issue.Labels[i] != label {
			t.Fatalf("labels = %#v, want %#v", issue.Labels, wantLabels)
		}
	}

	stored, err := deps.repo.GetReport(context.Background(), created.ReportID)
	if err != nil {
		t.Fatalf("GetReport() error = %v", err)
	}
	if stored.Status != string(domainreport.StatusGithubCreated) {
		t.Fatalf("status = %q", stored.Status)
	}
	if stored.GithubIssueNumber == nil || *stored.GithubIssueNumber != "42" {
		t.Fatalf("issue number = %v", stored.GithubIssueNumber)
	}
	if stored.GithubIssueURL == nil || *stored.GithubIssueURL == "" {
		t.Fatalf("issue url = %v", stored.GithubIssueURL)
	}

	jobs := deps.queue.jobNames()
	if len(jobs) != 2 || jobs[1] != ports.JobSendConfirmation {
		t.Fatalf("jobs = %#v, want publish then confirmation", jobs)
	}
}

func TestPublishRejectsBelowThreshold(t *testing.T) {
	svc, deps := setupService(t)
	deps.classifier.verdict.QualityScore = domainreport.ScorePtr(65)
	created := mustSubmit(t, svc, validSubmitInput())

	if err := svc.Publish(context.Background(), created.ReportID); err != nil {
		t.Fatalf("Publish() error = %v, gate rejection is not a job failure", err)
	}

	if len(deps.tracker.created) != 0 {
		t.Fatalf("no issue may be created below threshold")
	}
	stored, err := deps.repo.GetReport(context.Background(), created.ReportID)
	if err != nil {
		t.Fatalf("GetReport() error = %v", err)
	}
	if stored.Status != string(domainreport.StatusRejected) {
		t.Fatalf("status = %q", stored.Status)
	}
	if stored.RejectionReason == nil || *stored.RejectionReason != "Quality score too low for public GitHub issue" {
		t.Fatalf("rejection reason = %v", stored.RejectionReason)
	}
}

func TestPublishExactThresholdPasses(t *testing.T) {
	svc, deps := setupService(t)
	deps.classifier.verdict.QualityScore = domainreport.ScorePtr(70)
	created := mustSubmit(t, svc, validSubmitInput())

	if err := svc.Publish(context.Background(), created.ReportID); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	if len(deps.tracker.created) != 1 {
		t.Fatalf("score exactly at threshold must publish")
	}
}

func TestPublishRejectsOnRevalidation(t *testing.T) {
	svc, deps := setupService(t)
	deps.classifier.verdict.SanitizedDescription = "buy now discount qwerty"
	created := mustSubmit(t, svc, validSubmitInput())

	if err := svc.Publish(context.Background(), created.ReportID); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	if len(deps.tracker.created) != 0 {
		t.Fatalf("spam content must not be published")
	}
	stored, err := deps.repo.GetReport(context.Background(), created.ReportID)
	if err != nil {
		t.Fatalf("GetReport() error = %v", err)
	}
	if stored.RejectionReason == nil || *stored.RejectionReason != "Failed re-validation check" {
		t.Fatalf("rejection reason = %v", stored.RejectionReason)
	}
}

func TestPublishTrackerFailureKeepsStatus(t *testing.T) {
	svc, deps := setupService(t)
	deps.tracker.createErr = ports.ErrTrackerUnavailable
	created := mustSubmit(t, svc, validSubmitInput())

	err := svc.Publish(context.Background(), created.ReportID)
	if !errors.Is(err, ports.ErrTrackerUnavailable) {
		t.Fatalf("Publish() error = %v, want tracker error surfaced for retry", err)
	}

	stored, repoErr := deps.repo.GetReport(context.Background(), created.ReportID)
	if repoErr != nil {
		t.Fatalf("GetReport() error = %v", repoErr)
	}
	if stored.Status != string(domainreport.StatusValidated) {
		t.Fatalf("status = %q, tracker failure must keep last good status", stored.Status)
	}
}

func TestPublishIdempotentNoOps(t *testing.T) {
	svc, deps := setupService(t)

	// Missing report.
	if err := svc.Publish(context.Background(), 9999); err != nil {
		t.Fatalf("Publish(missing) error = %v", err)
	}

	// Already published.
	created := mustSubmit(t, svc, validSubmitInput())
	if err := svc.Publish(context.Background(), created.ReportID); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	if err := svc.Publish(context.Background(), created.ReportID); err != nil {
		t.Fatalf("Publish(again) error = %v", err)
	}
	if len(deps.tracker.created) != 1 {
		t.Fatalf("redelivery must not create a second issue, got %d", len(deps.tracker.created))
	}

	// Soft-deleted.
	second := mustSubmit(t, svc, validSubmitInput())
	if err := deps.repo.SoftDeleteReport(context.Background(), second.ReportID, "2026-09-01T00:00:00Z"); err != nil {
		t.Fatalf("SoftDeleteReport() error = %v", err)
	}
	if err := svc.Publish(context.Background(), second.ReportID); err != nil {
		t.Fatalf("Publish(deleted) error = %v", err)
	}
	if len(deps.tracker.created) != 1 {
		t.Fatalf("deleted report must not publish")
	}
}
