package report

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	gormsqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"

	domainreport "bugtriage/internal/domain/report"
	cacheinfra "bugtriage/internal/infrastructure/cache"
	"bugtriage/internal/infrastructure/persistence/sqlite/model"
	sqliterepo "bugtriage/internal/infrastructure/persistence/sqlite/repository"
	sqliteuow "bugtriage/internal/infrastructure/persistence/sqlite/uow"
	"bugtriage/internal/ports"
	"bugtriage/internal/usecase/redact"
)

type stubClassifier struct {
	verdict domainreport.Verdict
	err     error
	calls   int
}

func (s *stubClassifier) Classify(_ context.Context, _ ports.ClassifyInput) (domainreport.Verdict, error) {
	s.calls++
	return s.verdict, s.err
}

type stubTracker struct {
	mu sync.Mutex

	ref       ports.IssueRef
	createErr error

	created  []ports.IssueRequest
	updates  map[int]ports.IssueUpdate
	comments map[int][]string
}

func newStubTracker() *stubTracker {
	return &stubTracker{
		ref:      ports.IssueRef{Number: 42, URL: "https://github.com/acme/bugs/issues/42"},
		updates:  map[int]ports.IssueUpdate{},
		comments: map[int][]string{},
	}
}

func (s *stubTracker) CreateIssue(_ context.Context, input ports.IssueRequest) (ports.IssueRef, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		return ports.IssueRef{}, s.createErr
	}
	s.created = append(s.created, input)
	return s.ref, nil
}

func (s *stubTracker) UpdateIssue(_ context.Context, number int, update ports.IssueUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updates[number] = update
	return nil
}

func (s *stubTracker) CommentIssue(_ context.Context, number int, body string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.comments[number] = append(s.comments[number], body)
	return nil
}

type enqueuedJob struct {
	Job      string
	ReportID uint64
}

type stubQueue struct {
	mu   sync.Mutex
	jobs []enqueuedJob
	err  error
}

func (s *stubQueue) Enqueue(_ context.Context, job string, reportID uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.jobs = append(s.jobs, enqueuedJob{Job: job, ReportID: reportID})
	return nil
}

func (s *stubQueue) jobNames() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.jobs))
	for _, job := range s.jobs {
		names = append(names, job.Job)
	}
	return names
}

type stubNotifier struct {
	mu    sync.Mutex
	sends []enqueuedJob
}

func (s *stubNotifier) Send(_ context.Context, kind string, reportID uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sends = append(s.sends, enqueuedJob{Job: kind, ReportID: reportID})
	return nil
}

type stubRedactor struct {
	result redact.Result
	calls  int
}

func (s *stubRedactor) Process(_ context.Context, data []byte, contentType string, _ string) redact.Result {
	s.calls++
	if s.result.Data == nil {
		return redact.Result{Data: data, ContentType: contentType}
	}
	return s.result
}

type serviceDeps struct {
	repo       ports.ReportRepository
	classifier *stubClassifier
	tracker    *stubTracker
	queue      *stubQueue
	notifier   *stubNotifier
	redactor   *stubRedactor
}

func setupService(t *testing.T) (*Service, *serviceDeps) {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "bugtriage_test.sqlite")
	db, err := gorm.Open(gormsqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&model.Report{}, &model.Attachment{}, &model.ReportKV{}); err != nil {
		t.Fatalf("auto migrate: %v", err)
	}

	deps := &serviceDeps{
		repo: sqliterepo.NewReportRepository(db),
		classifier: &stubClassifier{
			verdict: validVerdict(),
		},
		tracker:  newStubTracker(),
		queue:    &stubQueue{},
		notifier: &stubNotifier{},
		redactor: &stubRedactor{},
	}

	svc := &Service{
		repo:       deps.repo,
		uow:        sqliteuow.NewUnitOfWork(db),
		cache:      cacheinfra.NewSQLiteCache(db),
		classifier: deps.classifier,
		redactor:   deps.redactor,
		queue:      deps.queue,
		tracker:    deps.tracker,
		notifier:   deps.notifier,
	}
	return svc, deps
}

func validVerdict() domainreport.Verdict {
	return domainreport.Verdict{
		Valid:                true,
		QualityScore:         domainreport.ScorePtr(85),
		Category:             domainreport.CategoryPayment,
		Severity:             domainreport.SeverityHigh,
		Title:                "Checkout button fails with 500",
		SanitizedDescription: "The checkout button fails with a 500 error when paying.",
	}
}

func validSubmitInput() SubmitInput {
	return SubmitInput{
		Description: "The checkout button fails with a 500 error when paying for a product.",
		PageURL:     "https://gum.example/checkout",
		Browser:     "Firefox 142",
		OS:          "Linux",
		Viewport:    "1920x1080",
	}
}

func mustSubmit(t *testing.T, svc *Service, input SubmitInput) ports.Report {
	t.Helper()

	result, err := svc.Submit(context.Background(), input)
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if !result.Success || result.Report == nil {
		t.Fatalf("Submit() result = %+v, want stored report", result)
	}
	return *result.Report
}

func errIs(t *testing.T, err error, target error) {
	t.Helper()
	if !errors.Is(err, target) {
		t.Fatalf("error = %v, want %v", err, target)
	}
}
