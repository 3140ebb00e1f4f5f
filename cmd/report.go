package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"bugtriage/internal/bootstrap"
	"bugtriage/internal/bootstrap/logging"
	"bugtriage/internal/errs"
	"bugtriage/internal/usecase/report"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Manage submitted bug reports",
}

var reportListCmd = &cobra.Command{
	Use:   "list",
	Short: "List reports, newest first",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *report.Service) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		status, _ := cmd.Flags().GetString("status")
		limit, _ := cmd.Flags().GetInt("limit")

		items, err := svc.List(ctx, report.ListInput{
			Status: status,
			Limit:  limit,
		})
		if err != nil {
			logging.Error(ctx, "list reports failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "list reports")
		}

		if len(items) == 0 {
			if _, err := fmt.Fprintln(cmd.OutOrStdout(), "no reports"); err != nil {
				return errs.Wrap(err, "write list output")
			}
			return nil
		}

		for _, item := range items {
			score := "-"
			if item.QualityScore != nil {
				score = fmt.Sprintf("%.0f", *item.QualityScore)
			}
			title := item.Title
			if title == "" {
				title = "-"
			}

			if _, err := fmt.Fprintf(
				cmd.OutOrStdout(),
				"%s [%s] score=%s category=%s severity=%s title=%s\n",
				item.ExternalID,
				item.Status,
				score,
				orDash(item.Category),
				orDash(item.Severity),
				title,
			); err != nil {
				return errs.Wrap(err, "write list item")
			}
		}
		return nil
	}),
}

var reportShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show one report with its attachments",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *report.Service) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		externalID, _ := cmd.Flags().GetString("id")
		detail, err := svc.Get(ctx, externalID)
		if err != nil {
			logging.Error(ctx, "show report failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "show report")
		}

		score := "-"
		if detail.QualityScore != nil {
			score = fmt.Sprintf("%.0f", *detail.QualityScore)
		}

		out := cmd.OutOrStdout()
		lines := []string{
			fmt.Sprintf("ExternalID: %s", detail.ExternalID),
			fmt.Sprintf("Status: %s", detail.Status),
			fmt.Sprintf("Title: %s", orDash(detail.Title)),
			fmt.Sprintf("Category: %s", orDash(detail.Category)),
			fmt.Sprintf("Severity: %s", orDash(detail.Severity)),
			fmt.Sprintf("QualityScore: %s", score),
			fmt.Sprintf("PageURL: %s", detail.PageURL),
			fmt.Sprintf("CreatedAt: %s", detail.CreatedAt),
			fmt.Sprintf("UpdatedAt: %s", detail.UpdatedAt),
		}
		if detail.GithubIssueNumber != "" {
			lines = append(lines, fmt.Sprintf("GithubIssue: #%s %s", detail.GithubIssueNumber, detail.GithubIssueURL))
		}
		if detail.RejectionReason != "" {
			lines = append(lines, fmt.Sprintf("RejectionReason: %s", detail.RejectionReason))
		}
		if detail.InternalNotes != "" {
			lines = append(lines, fmt.Sprintf("InternalNotes: %s", detail.InternalNotes))
		}
		if len(detail.Attachments) > 0 {
			lines = append(lines, fmt.Sprintf("Attachments: %s", strings.Join(detail.Attachments, ",")))
		}

		for _, line := range lines {
			if _, err := fmt.Fprintln(out, line); err != nil {
				return errs.Wrap(err, "write show output")
			}
		}
		if _, err := fmt.Fprintf(out, "\nDescription:\n%s\n", detail.Description); err != nil {
			return errs.Wrap(err, "write show description")
		}
		return nil
	}),
}

var reportSetStatusCmd = &cobra.Command{
	Use:   "set-status",
	Short: "Change a report status (triggers issue sync and notification)",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *report.Service) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		externalID, _ := cmd.Flags().GetString("id")
		status, _ := cmd.Flags().GetString("status")

		if err := svc.SetStatus(ctx, report.SetStatusInput{
			ExternalID: externalID,
			Status:     status,
		}); err != nil {
			logging.Error(ctx, "set report status failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "set report status")
		}

		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "report %s status set to %s\n", externalID, status); err != nil {
			return errs.Wrap(err, "write set-status output")
		}
		return nil
	}),
}

var reportNoteCmd = &cobra.Command{
	Use:   "note",
	Short: "Set internal operator notes on a report",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *report.Service) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		externalID, _ := cmd.Flags().GetString("id")
		body, err := resolveBody(cmd, true)
		if err != nil {
			return err
		}

		if err := svc.UpdateNotes(ctx, externalID, body); err != nil {
			logging.Error(ctx, "update report notes failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "update report notes")
		}

		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "notes updated for report: %s\n", externalID); err != nil {
			return errs.Wrap(err, "write note output")
		}
		return nil
	}),
}

var reportSetCategoryCmd = &cobra.Command{
	Use:   "set-category",
	Short: "Reclassify a report",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *report.Service) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		externalID, _ := cmd.Flags().GetString("id")
		category, _ := cmd.Flags().GetString("category")

		if err := svc.SetCategory(ctx, externalID, category); err != nil {
			logging.Error(ctx, "set report category failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "set report category")
		}

		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "report %s category set to %s\n", externalID, category); err != nil {
			return errs.Wrap(err, "write set-category output")
		}
		return nil
	}),
}

var reportDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Soft-delete a report",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *report.Service) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		externalID, _ := cmd.Flags().GetString("id")
		if err := svc.SoftDelete(ctx, externalID); err != nil {
			logging.Error(ctx, "delete report failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "delete report")
		}

		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "report deleted: %s\n", externalID); err != nil {
			return errs.Wrap(err, "write delete output")
		}
		return nil
	}),
}

var reportCommentCmd = &cobra.Command{
	Use:   "comment",
	Short: "Post an operator comment on the published GitHub issue",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *report.Service) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		externalID, _ := cmd.Flags().GetString("id")
		body, err := resolveBody(cmd, true)
		if err != nil {
			return err
		}

		if err := svc.AddTrackerComment(ctx, externalID, body); err != nil {
			logging.Error(ctx, "comment on issue failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "comment on issue")
		}

		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "comment posted for report: %s\n", externalID); err != nil {
			return errs.Wrap(err, "write comment output")
		}
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(reportCmd)
	reportCmd.AddCommand(reportListCmd)
	reportCmd.AddCommand(reportShowCmd)
	reportCmd.AddCommand(reportSetStatusCmd)
	reportCmd.AddCommand(reportNoteCmd)
	reportCmd.AddCommand(reportSetCategoryCmd)
	reportCmd.AddCommand(reportDeleteCmd)
	reportCmd.AddCommand(reportCommentCmd)

	reportListCmd.Flags().String("status", "", "Filter by status")
	reportListCmd.Flags().Int("limit", 50, "Maximum rows")

	reportShowCmd.Flags().String("id", "", "Report external id")
	_ = reportShowCmd.MarkFlagRequired("id")

	reportSetStatusCmd.Flags().String("id", "", "Report external id")
	reportSetStatusCmd.Flags().String("status", "", "Target status (validated|rejected|needs_clarification|resolved|duplicate)")
	_ = reportSetStatusCmd.MarkFlagRequired("id")
	_ = reportSetStatusCmd.MarkFlagRequired("status")

	reportNoteCmd.Flags().String("id", "", "Report external id")
	reportNoteCmd.Flags().String("body", "", "Notes content")
	reportNoteCmd.Flags().String("body-file", "", "Path to notes file")
	_ = reportNoteCmd.MarkFlagRequired("id")

	reportSetCategoryCmd.Flags().String("id", "", "Report external id")
	reportSetCategoryCmd.Flags().String("category", "", "Category (functionality|ui_ux|performance|payment|account|content|other)")
	_ = reportSetCategoryCmd.MarkFlagRequired("id")
	_ = reportSetCategoryCmd.MarkFlagRequired("category")

	reportDeleteCmd.Flags().String("id", "", "Report external id")
	_ = reportDeleteCmd.MarkFlagRequired("id")

	reportCommentCmd.Flags().String("id", "", "Report external id")
	reportCommentCmd.Flags().String("body", "", "Comment content")
	reportCommentCmd.Flags().String("body-file", "", "Path to comment file")
	_ = reportCommentCmd.MarkFlagRequired("id")
}

func resolveBody(cmd *cobra.Command, required bool) (string, error) {
	inlineBody, _ := cmd.Flags().GetString("body")
	bodyFile, _ := cmd.Flags().GetString("body-file")

	if strings.TrimSpace(inlineBody) != "" && strings.TrimSpace(bodyFile) != "" {
		return "", errors.New("body and body-file are mutually exclusive")
	}

	if strings.TrimSpace(bodyFile) != "" {
		raw, err := os.ReadFile(bodyFile)
		if err != nil {
			return "", errs.Wrapf(err, "read body file %q", bodyFile)
		}
		inlineBody = string(raw)
	}

	if required && strings.TrimSpace(inlineBody) == "" {
		return "", errors.New("body is required (set --body or --body-file)")
	}
	return inlineBody, nil
}

func orDash(value string) string {
	if value == "" {
		return "-"
	}
	return value
}
