package bootstrap

import (
	"context"
	"log/slog"
	"time"

	"go.uber.org/fx"
	"gorm.io/gorm"

	"bugtriage/internal/bootstrap/config"
	"bugtriage/internal/bootstrap/database"
	"bugtriage/internal/bootstrap/logging"
	cacheinfra "bugtriage/internal/infrastructure/cache"
	"bugtriage/internal/infrastructure/classifier"
	"bugtriage/internal/infrastructure/notify"
	sqliterepo "bugtriage/internal/infrastructure/persistence/sqlite/repository"
	sqliteuow "bugtriage/internal/infrastructure/persistence/sqlite/uow"
	"bugtriage/internal/infrastructure/queue"
	"bugtriage/internal/infrastructure/tracker"
	"bugtriage/internal/ports"
	"bugtriage/internal/usecase/classify"
	"bugtriage/internal/usecase/redact"
	"bugtriage/internal/usecase/report"
)

var Module = fx.Options(
	fx.Provide(provideConfig),
	fx.Provide(provideDatabase),
	fx.Provide(provideApp),
	fx.Provide(
		fx.Annotate(
			sqliterepo.NewReportRepository,
			fx.As(new(ports.ReportRepository)),
		),
	),
	fx.Provide(
		fx.Annotate(
			sqliteuow.NewUnitOfWork,
			fx.As(new(ports.UnitOfWork)),
		),
	),
	fx.Provide(
		fx.Annotate(
			cacheinfra.NewSQLiteCache,
			fx.As(new(ports.Cache)),
		),
	),
	fx.Provide(provideClassifier),
	fx.Provide(provideRedactor),
	fx.Provide(provideTracker),
	fx.Provide(provideQueue),
	fx.Provide(report.NewService),
	fx.Invoke(registerInlineHandlers),
)

type configParams struct {
	fx.In

	Ctx        context.Context
	ConfigFile string `name:"configFile"`
}

func provideConfig(p configParams) (config.Config, error) {
	ctx := logging.WithAttrs(p.Ctx, slog.String("component", "bootstrap.fx"))
	return config.Load(ctx, p.ConfigFile)
}

func provideDatabase(lc fx.Lifecycle, ctx context.Context, cfg config.Config) (*gorm.DB, error) {
	logCtx := logging.WithAttrs(ctx, slog.String("component", "bootstrap.fx"))

	db, err := database.Open(logCtx, cfg.Database)
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.Close()
		},
	})

	return db, nil
}

func provideApp(cfg config.Config, db *gorm.DB) *App {
	return &App{
		Config: cfg,
		DB:     db,
	}
}

// provideClassifier builds the remote-then-heuristic chain. Without an API
// key the chain degrades to heuristics only, so local runs never need a
// model endpoint.
func provideClassifier(ctx context.Context, cfg config.Config) ports.Classifier {
	logCtx := logging.WithAttrs(ctx, slog.String("component", "bootstrap.fx"))

	var remote ports.Classifier
	if cfg.Classifier.APIKey != "" {
		remote = classifier.NewOpenAIClassifier(cfg.Classifier.APIKey, cfg.Classifier.BaseURL, cfg.Classifier.Model)
		logging.Info(logCtx, "remote classifier enabled", slog.String("model", cfg.Classifier.Model))
	} else {
		logging.Warn(logCtx, "no classifier api key, heuristics only")
	}

	return classify.NewChain(remote, time.Duration(cfg.Classifier.TimeoutSeconds)*time.Second)
}

func provideRedactor(ctx context.Context, cfg config.Config) (*redact.Redactor, error) {
	store, err := redact.NewConfigStore(ctx, cfg.Sanitize.ConfigPath, cfg.Sanitize.Watch)
	if err != nil {
		return nil, err
	}
	return redact.NewRedactor(store, time.Duration(cfg.Sanitize.BudgetSeconds)*time.Second), nil
}

func provideTracker(ctx context.Context, cfg config.Config) (ports.IssueTracker, error) {
	logCtx := logging.WithAttrs(ctx, slog.String("component", "bootstrap.fx"))

	gh := cfg.GitHub
	if gh.Owner == "" || gh.Repo == "" || (gh.Token == "" && gh.AppID == 0) {
		logging.Warn(logCtx, "github tracker not configured, publication disabled")
		return tracker.NewDisabled(), nil
	}

	return tracker.NewGitHubTracker(ctx, tracker.Options{
		Owner:          gh.Owner,
		Repo:           gh.Repo,
		Token:          gh.Token,
		AppID:          gh.AppID,
		InstallationID: gh.InstallationID,
		PrivateKeyPath: gh.PrivateKeyPath,
	})
}

type queueResult struct {
	fx.Out

	Queue    ports.JobQueue
	Inline   *queue.InlineQueue
	Notifier ports.Notifier
}

// provideQueue selects the job transport. The nats driver publishes to a
// broker consumed by worker processes; the inline driver runs jobs
// in-process for single-binary deployments.
func provideQueue(lc fx.Lifecycle, ctx context.Context, cfg config.Config) (queueResult, error) {
	logCtx := logging.WithAttrs(ctx, slog.String("component", "bootstrap.fx"))

	policy := queue.RetryPolicy{
		MaxRetries: cfg.Jobs.MaxRetries,
		Backoff:    time.Duration(cfg.Jobs.BackoffSeconds) * time.Second,
	}

	if cfg.Queue.Driver == "nats" {
		conn, err := queue.Connect(cfg.Queue.URL)
		if err != nil {
			return queueResult{}, err
		}
		lc.Append(fx.Hook{
			OnStop: func(_ context.Context) error {
				conn.Close()
				return nil
			},
		})

		logging.Info(logCtx, "job queue ready",
			slog.String("driver", "nats"),
			slog.String("url", cfg.Queue.URL),
		)
		return queueResult{
			Queue:    queue.NewNATSQueue(conn, cfg.Queue.SubjectPrefix),
			Notifier: notify.NewNATSNotifier(conn, cfg.Queue.NotifyPrefix),
		}, nil
	}

	inline := queue.NewInlineQueue(policy)
	logging.Info(logCtx, "job queue ready", slog.String("driver", "inline"))
	return queueResult{
		Queue:    inline,
		Inline:   inline,
		Notifier: notify.NewLogNotifier(),
	}, nil
}

// registerInlineHandlers closes the service/queue cycle for the inline
// driver: the queue is built first, then learns the handlers.
func registerInlineHandlers(inline *queue.InlineQueue, svc *report.Service) {
	if inline == nil {
		return
	}

	handlers := queue.Registry{}
	for job, handler := range svc.JobHandlers() {
		handlers[job] = handler
	}
	inline.Register(handlers)
}
