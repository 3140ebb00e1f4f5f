package report

import (
	"context"
	"testing"

	domainreport "bugtriage/internal/domain/report"
	"bugtriage/internal/ports"
)

func publishReport(t *testing.T, svc *Service) ports.Report {
	t.Helper()

	created := mustSubmit(t, svc, validSubmitInput())
	if err := svc.Publish(context.Background(), created.ReportID); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	return created
}

func TestSyncStatusClosesResolvedIssue(t *testing.T) {
	svc, deps := setupService(t)
	created := publishReport(t, svc)

	if err := deps.repo.UpdateReportStatus(context.Background(), created.ReportID, string(domainreport.StatusResolved), "2026-09-01T00:00:00Z"); err != nil {
		t.Fatalf("UpdateReportStatus() error = %v", err)
	}

	if err := svc.SyncStatus(context.Background(), created.ReportID); err != nil {
		t.Fatalf("SyncStatus() error = %v", err)
	}

	update, ok := deps.tracker.updates[42]
	if !ok {
		t.Fatalf("expected issue 42 to be updated")
	}
	if !update.Closed {
		t.Fatalf("resolved report must close the issue")
	}
	if len(update.Labels) == 0 || update.Labels[0] != "bug-report" {
		t.Fatalf("labels = %#v", update.Labels)
	}
}

func TestSyncStatusNoOpWithoutIssue(t *testing.T) {
	svc, deps := setupService(t)
	created := mustSubmit(t, svc, validSubmitInput())

	if err := svc.SyncStatus(context.Background(), created.ReportID); err != nil {
		t.Fatalf("SyncStatus() error = %v", err)
	}
	if len(deps.tracker.updates) != 0 {
		t.Fatalf("no update may happen before publication")
	}

	if err := svc.SyncStatus(context.Background(), 9999); err != nil {
		t.Fatalf("SyncStatus(missing) error = %v", err)
	}
}

func TestSendConfirmationSkipsAnonymous(t *testing.T) {
	svc, deps := setupService(t)
	created := mustSubmit(t, svc, validSubmitInput())

	if err := svc.SendConfirmation(context.Background(), created.ReportID); err != nil {
		t.Fatalf("SendConfirmation() error = %v", err)
	}
	if len(deps.notifier.sends) != 0 {
		t.Fatalf("anonymous submitter must not be notified")
	}
}

func TestSendConfirmationNotifiesKnownSubmitter(t *testing.T) {
	svc, deps := setupService(t)

	userID := uint64(3)
	input := validSubmitInput()
	input.UserID = &userID
	created := mustSubmit(t, svc, input)

	if err := svc.SendConfirmation(context.Background(), created.ReportID); err != nil {
		t.Fatalf("SendConfirmation() error = %v", err)
	}
	if len(deps.notifier.sends) != 1 || deps.notifier.sends[0].Job != ports.NotifyConfirmation {
		t.Fatalf("sends = %#v", deps.notifier.sends)
	}
}
