package cmd

import (
	"log/slog"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"bugtriage/internal/bootstrap"
	"bugtriage/internal/bootstrap/logging"
	"bugtriage/internal/errs"
	"bugtriage/internal/httpapi"
	"bugtriage/internal/usecase/report"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the bug report submission API",
	RunE: withApp(func(cmd *cobra.Command, app *bootstrap.App, svc *report.Service) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		addr, _ := cmd.Flags().GetString("addr")
		addr = strings.TrimSpace(addr)
		if addr == "" {
			addr = app.Config.HTTP.Addr
		}

		runCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		server := httpapi.NewServer(addr, httpapi.NewRouter(svc))
		if err := server.Run(runCtx); err != nil {
			logging.Error(ctx, "http api failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "serve http api")
		}
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "", "Listen address (default: http.addr from config)")
}
