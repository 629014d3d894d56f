package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/mailshot/internal/config"
	"github.com/dmitrymomot/mailshot/pkg/dispatch"
	"github.com/dmitrymomot/mailshot/pkg/mailer"
)

func newSendCommand(st *state) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "send",
		Short: "Send the campaign to every recipient",
		Long: `Send renders the template for every row of the recipient file and sends
one message per row, in file order, with the attachment.

Exit status is 0 when every message was sent, 1 when the run could not start
or was stopped early, and 2 when it completed with failed recipients.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			applyFlags(cmd, st.cfg, append(campaignBindings(cmd), sendBindings(cmd)...))
			dryRun, _ := cmd.Flags().GetBool("dry-run")
			return st.runSend(cmd, dryRun)
		},
	}
	addCampaignFlags(cmd)
	f := cmd.Flags()
	f.StringP("provider", "p", "", "Delivery provider: gmail, resend or smtp (default gmail)")
	f.Float64("rate", 0, "Maximum messages per second, 0 for no limit")
	f.String("report", "", "Write a CSV report of every recipient to this file")
	f.Bool("dry-run", false, "Render and build every message without sending")
	return cmd
}

func sendBindings(cmd *cobra.Command) []binding {
	return []binding{
		stringFlag(cmd, "provider", func(c *config.Config, v string) { c.Provider = v }),
		stringFlag(cmd, "report", func(c *config.Config, v string) { c.Report = v }),
		{name: "rate", apply: func(c *config.Config) {
			v, _ := cmd.Flags().GetFloat64("rate")
			c.Dispatch.Rate = v
		}},
	}
}

func (st *state) runSend(cmd *cobra.Command, dryRun bool) error {
	ctx := cmd.Context()
	cfg := st.cfg
	if err := cfg.Validate(); err != nil {
		return err
	}

	recipients, err := st.recipients()
	if err != nil {
		return err
	}
	campaign, err := mailer.LoadCampaign(cfg.Mailer)
	if err != nil {
		return err
	}
	st.logger.InfoContext(ctx, "campaign loaded",
		slog.Int("recipients", len(recipients)),
		slog.String("html_policy", string(campaign.Policy())),
	)
	store, err := st.storage()
	if err != nil {
		return err
	}
	builder := mailer.NewBuilder(store)

	// Fail on a missing attachment before asking for authorization.
	if cfg.Attachment != "" {
		if _, err := builder.CheckAttachment(ctx, cfg.Attachment); err != nil {
			return err
		}
	}

	opts := []dispatch.Option{dispatch.WithLogger(st.logger), dispatch.WithConfig(cfg.Dispatch)}
	var sender mailer.Sender
	if dryRun {
		sender = dryRunSender()
	} else {
		s, session, err := st.sender(ctx)
		if err != nil {
			return err
		}
		sender = s
		if session != nil {
			opts = append(opts, dispatch.WithReauthorizer(session))
		}
	}

	report, runErr := dispatch.New(builder, sender, opts...).SendBulk(ctx, recipients, dispatch.Campaign{
		From:       cfg.From,
		Template:   campaign,
		Attachment: cfg.Attachment,
	})

	if cfg.Report != "" && report != nil {
		if err := writeReport(cfg.Report, report); err != nil {
			st.logger.ErrorContext(ctx, "failed to write report", slog.String("path", cfg.Report), slog.Any("error", err))
			runErr = errors.Join(runErr, err)
		}
	}
	if report != nil {
		printSummary(cmd, report, dryRun)
	}

	switch {
	case runErr != nil:
		return &exitError{code: ExitFatal, err: runErr}
	case report.HasFailures():
		return &exitError{code: ExitPartial}
	default:
		return nil
	}
}

func writeReport(path string, report *dispatch.Report) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := report.WriteCSV(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func printSummary(cmd *cobra.Command, report *dispatch.Report, dryRun bool) {
	out := cmd.OutOrStdout()
	verb := "Sent"
	if dryRun {
		verb = "Built (dry run)"
	}
	_, _ = fmt.Fprintf(out, "%s %d of %d messages, %d failed", verb, report.Sent, report.Total, report.Failed)
	if report.Aborted {
		_, _ = fmt.Fprintf(out, ", stopped after %d", len(report.Results))
	}
	_, _ = fmt.Fprintf(out, " (run %s)\n", report.RunID)

	for _, res := range report.FailedResults() {
		_, _ = fmt.Fprintf(out, "  row %d %s <%s>: %v\n", res.Row, res.Name, res.Email, res.Err)
	}
}
