package cmd

import (
	"errors"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"bugtriage/internal/bootstrap"
	"bugtriage/internal/bootstrap/logging"
	"bugtriage/internal/errs"
	"bugtriage/internal/infrastructure/queue"
	"bugtriage/internal/usecase/report"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Consume background jobs from the queue",
	RunE: withApp(func(cmd *cobra.Command, app *bootstrap.App, svc *report.Service) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		qcfg := app.Config.Queue
		if qcfg.Driver != "nats" {
			return errors.New("worker requires queue.driver=nats (inline jobs run in the serving process)")
		}

		conn, err := queue.Connect(qcfg.URL)
		if err != nil {
			logging.Error(ctx, "connect queue failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "connect queue")
		}
		defer conn.Close()

		handlers := queue.Registry{}
		for job, handler := range svc.JobHandlers() {
			handlers[job] = handler
		}

		runner := queue.NewRunner(conn, qcfg.SubjectPrefix, qcfg.Group, handlers, queue.RetryPolicy{
			MaxRetries: app.Config.Jobs.MaxRetries,
			Backoff:    time.Duration(app.Config.Jobs.BackoffSeconds) * time.Second,
		})

		runCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := runner.Run(runCtx); err != nil {
			logging.Error(ctx, "worker failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "run worker")
		}
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(workerCmd)
}
