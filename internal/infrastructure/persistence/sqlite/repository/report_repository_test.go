package repository

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	gormsqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"bugtriage/internal/infrastructure/persistence/sqlite/model"
	"bugtriage/internal/infrastructure/persistence/sqlite/uow"
	"bugtriage/internal/ports"
)

func setupRepository(t *testing.T) (*ReportRepository, *gorm.DB) {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "repo_test.sqlite")
	db, err := gorm.Open(gormsqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&model.Report{}, &model.Attachment{}); err != nil {
		t.Fatalf("auto migrate: %v", err)
	}
	return NewReportRepository(db), db
}

func sampleReport(externalID string) ports.Report {
	return ports.Report{
		ExternalID:       externalID,
		UserKind:         "anonymous",
		PageURL:          "https://gum.example/checkout",
		Description:      "The checkout button fails with a 500 error.",
		Status:           "validated",
		ValidationResult: `{"valid":true}`,
		TechnicalContext: `{"timestamp":"2026-09-01T10:00:00Z"}`,
		CreatedAt:        "2026-09-01T10:00:00Z",
		UpdatedAt:        "2026-09-01T10:00:00Z",
	}
}

func TestCreateAndGetReport(t *testing.T) {
	repo, _ := setupRepository(t)
	ctx := context.Background()

	created, err := repo.CreateReport(ctx, sampleReport("abc123def456"))
	if err != nil {
		t.Fatalf("CreateReport() error = %v", err)
	}
	if created.ReportID == 0 {
		t.Fatalf("expected assigned report id")
	}

	byID, err := repo.GetReport(ctx, created.ReportID)
	if err != nil {
		t.Fatalf("GetReport() error = %v", err)
	}
	if byID.ExternalID != "abc123def456" {
		t.Fatalf("external id = %q", byID.ExternalID)
	}

	byExternal, err := repo.GetReportByExternalID(ctx, "abc123def456")
	if err != nil {
		t.Fatalf("GetReportByExternalID() error = %v", err)
	}
	if byExternal.ReportID != created.ReportID {
		t.Fatalf("report id = %d", byExternal.ReportID)
	}

	if _, err := repo.GetReport(ctx, 9999); !errors.Is(err, ports.ErrReportNotFound) {
		t.Fatalf("GetReport(missing) error = %v, want ErrReportNotFound", err)
	}
}

func TestExternalIDUniqueness(t *testing.T) {
	repo, _ := setupRepository(t)
	ctx := context.Background()

	if _, err := repo.CreateReport(ctx, sampleReport("dupdupdupdup")); err != nil {
		t.Fatalf("CreateReport() error = %v", err)
	}

	exists, err := repo.ExternalIDExists(ctx, "dupdupdupdup")
	if err != nil {
		t.Fatalf("ExternalIDExists() error = %v", err)
	}
	if !exists {
		t.Fatalf("expected external id to exist")
	}

	if _, err := repo.CreateReport(ctx, sampleReport("dupdupdupdup")); err == nil {
		t.Fatalf("CreateReport() expected unique index violation")
	}
}

func TestListReportsFiltersAndOrder(t *testing.T) {
	repo, _ := setupRepository(t)
	ctx := context.Background()

	older := sampleReport("older0000001")
	older.CreatedAt = "2026-09-01T08:00:00Z"
	newer := sampleReport("newer0000001")
	newer.CreatedAt = "2026-09-01T09:00:00Z"
	rejected := sampleReport("rejected0001")
	rejected.Status = "rejected"
	rejected.CreatedAt = "2026-09-01T07:00:00Z"

	for _, rpt := range []ports.Report{older, newer, rejected} {
		if _, err := repo.CreateReport(ctx, rpt); err != nil {
			t.Fatalf("CreateReport() error = %v", err)
		}
	}

	all, err := repo.ListReports(ctx, ports.ReportFilter{})
	if err != nil {
		t.Fatalf("ListReports() error = %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("rows = %d", len(all))
	}
	if all[0].ExternalID != "newer0000001" {
		t.Fatalf("first row = %q, want newest", all[0].ExternalID)
	}

	validated, err := repo.ListReports(ctx, ports.ReportFilter{Status: "validated"})
	if err != nil {
		t.Fatalf("ListReports(status) error = %v", err)
	}
	if len(validated) != 2 {
		t.Fatalf("validated rows = %d", len(validated))
	}

	limited, err := repo.ListReports(ctx, ports.ReportFilter{Limit: 1})
	if err != nil {
		t.Fatalf("ListReports(limit) error = %v", err)
	}
	if len(limited) != 1 {
		t.Fatalf("limited rows = %d", len(limited))
	}
}

func TestSoftDeleteExcludedFromListing(t *testing.T) {
	repo, _ := setupRepository(t)
	ctx := context.Background()

	created, err := repo.CreateReport(ctx, sampleReport("gone00000001"))
	if err != nil {
		t.Fatalf("CreateReport() error = %v", err)
	}
	if err := repo.SoftDeleteReport(ctx, created.ReportID, "2026-09-01T11:00:00Z"); err != nil {
		t.Fatalf("SoftDeleteReport() error = %v", err)
	}

	rows, err := repo.ListReports(ctx, ports.ReportFilter{})
	if err != nil {
		t.Fatalf("ListReports() error = %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("deleted report listed")
	}

	withDeleted, err := repo.ListReports(ctx, ports.ReportFilter{IncludeDeleted: true})
	if err != nil {
		t.Fatalf("ListReports(include) error = %v", err)
	}
	if len(withDeleted) != 1 || withDeleted[0].DeletedAt == nil {
		t.Fatalf("rows = %#v", withDeleted)
	}
}

func TestUpdateHelpersReportNotFound(t *testing.T) {
	repo, _ := setupRepository(t)
	ctx := context.Background()

	if err := repo.UpdateReportStatus(ctx, 9999, "rejected", "2026-09-01T11:00:00Z"); !errors.Is(err, ports.ErrReportNotFound) {
		t.Fatalf("UpdateReportStatus(missing) error = %v", err)
	}

	created, err := repo.CreateReport(ctx, sampleReport("upd000000001"))
	if err != nil {
		t.Fatalf("CreateReport() error = %v", err)
	}

	if err := repo.MarkReportRejected(ctx, created.ReportID, "spam", "2026-09-01T11:00:00Z"); err != nil {
		t.Fatalf("MarkReportRejected() error = %v", err)
	}
	if err := repo.SetReportPublication(ctx, created.ReportID, "7", "https://github.com/acme/bugs/issues/7", "2026-09-01T11:01:00Z"); err != nil {
		t.Fatalf("SetReportPublication() error = %v", err)
	}

	stored, err := repo.GetReport(ctx, created.ReportID)
	if err != nil {
		t.Fatalf("GetReport() error = %v", err)
	}
	if stored.Status != "github_created" {
		t.Fatalf("status = %q", stored.Status)
	}
	if stored.RejectionReason == nil || *stored.RejectionReason != "spam" {
		t.Fatalf("rejection reason = %v", stored.RejectionReason)
	}
	if stored.GithubIssueNumber == nil || *stored.GithubIssueNumber != "7" {
		t.Fatalf("issue number = %v", stored.GithubIssueNumber)
	}
}

func TestAttachments(t *testing.T) {
	repo, _ := setupRepository(t)
	ctx := context.Background()

	created, err := repo.CreateReport(ctx, sampleReport("att000000001"))
	if err != nil {
		t.Fatalf("CreateReport() error = %v", err)
	}

	for _, kind := range []string{ports.AttachmentScreenshotOriginal, ports.AttachmentScreenshotSanitized} {
		if err := repo.AddAttachment(ctx, ports.AttachmentCreate{
			ReportID:    created.ReportID,
			Kind:        kind,
			Filename:    "shot.png",
			ContentType: "image/png",
			Data:        []byte(kind),
			CreatedAt:   "2026-09-01T10:00:00Z",
		}); err != nil {
			t.Fatalf("AddAttachment(%s) error = %v", kind, err)
		}
	}

	kinds, err := repo.ListAttachmentKinds(ctx, created.ReportID)
	if err != nil {
		t.Fatalf("ListAttachmentKinds() error = %v", err)
	}
	if len(kinds) != 2 {
		t.Fatalf("kinds = %#v", kinds)
	}

	attachment, err := repo.GetAttachment(ctx, created.ReportID, ports.AttachmentScreenshotSanitized)
	if err != nil {
		t.Fatalf("GetAttachment() error = %v", err)
	}
	if string(attachment.Data) != ports.AttachmentScreenshotSanitized {
		t.Fatalf("data = %q", attachment.Data)
	}

	if _, err := repo.GetAttachment(ctx, created.ReportID, ports.AttachmentConsoleLogs); !errors.Is(err, ports.ErrAttachmentNotFound) {
		t.Fatalf("GetAttachment(missing) error = %v", err)
	}
}

func TestRepositoryUsesTransactionFromContext(t *testing.T) {
	repo, db := setupRepository(t)
	unit := uow.NewUnitOfWork(db)
	ctx := context.Background()

	rollback := errors.New("force rollback")
	err := unit.WithTx(ctx, func(txCtx context.Context) error {
		if _, err := repo.CreateReport(txCtx, sampleReport("txn000000001")); err != nil {
			return err
		}
		return rollback
	})
	if !errors.Is(err, rollback) {
		t.Fatalf("WithTx() error = %v", err)
	}

	exists, err := repo.ExternalIDExists(ctx, "txn000000001")
	if err != nil {
		t.Fatalf("ExternalIDExists() error = %v", err)
	}
	if exists {
		t.Fatalf("rolled-back report must not exist")
	}

	if err := unit.WithTx(ctx, func(txCtx context.Context) error {
		_, err := repo.CreateReport(txCtx, sampleReport("txn000000002"))
		return err
	}); err != nil {
		t.Fatalf("WithTx(commit) error = %v", err)
	}

	exists, err = repo.ExternalIDExists(ctx, "txn000000002")
	if err != nil {
		t.Fatalf("ExternalIDExists() error = %v", err)
	}
	if !exists {
		t.Fatalf("committed report must exist")
	}
}
