package cli

import (
	"fmt"
	"io"
	"net/mail"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/mailshot/pkg/mailer"
	"github.com/dmitrymomot/mailshot/pkg/recipient"
)

// Preview output formats.
const (
	formatRaw  = "raw"
	formatHTML = "html"
	formatText = "text"
)

func newPreviewCommand(st *state) *cobra.Command {
	var (
		row    int
		format string
	)
	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Print the message one recipient would receive",
		Long: `Preview renders the template for one row of the recipient file and prints
the complete MIME message (raw), the rendered HTML body (html) or its plain
text version (text). Nothing is sent and no authorization is needed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			applyFlags(cmd, st.cfg, campaignBindings(cmd))
			return st.runPreview(cmd, row, format)
		},
	}
	addCampaignFlags(cmd)
	cmd.Flags().IntVar(&row, "row", 1, "Data row to preview, starting at 1")
	cmd.Flags().StringVarP(&format, "format", "f", formatRaw, "Output: raw, html or text")
	return cmd
}

func (st *state) runPreview(cmd *cobra.Command, row int, format string) error {
	switch format {
	case formatRaw, formatHTML, formatText:
	default:
		return fmt.Errorf("unknown format %q", format)
	}
	if err := st.cfg.Validate(); err != nil {
		return err
	}

	recipients, err := st.recipients()
	if err != nil {
		return err
	}
	r, err := pickRow(recipients, row)
	if err != nil {
		return err
	}

	campaign, err := mailer.LoadCampaign(st.cfg.Mailer)
	if err != nil {
		return err
	}
	content, err := campaign.Render(mailer.Data(r.Data()))
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	switch format {
	case formatHTML:
		_, err = io.WriteString(out, content.HTML)
		return err
	case formatText:
		_, err = io.WriteString(out, content.Text)
		return err
	}

	to := r.Email
	if addr, err := mail.ParseAddress(r.Email); err == nil {
		to = addr.Address
	}
	store, err := st.storage()
	if err != nil {
		return err
	}
	msg, err := mailer.NewBuilder(store).Build(cmd.Context(), mailer.BuildParams{
		From:           st.cfg.From,
		To:             to,
		Subject:        content.Subject,
		HTML:           content.HTML,
		Text:           content.Text,
		AttachmentPath: st.cfg.Attachment,
	})
	if err != nil {
		return err
	}
	_, err = msg.WriteTo(out)
	return err
}

func pickRow(recipients []recipient.Recipient, row int) (recipient.Recipient, error) {
	if len(recipients) == 0 {
		return recipient.Recipient{}, recipient.ErrEmptyTable
	}
	if row < 1 || row > len(recipients) {
		return recipient.Recipient{}, fmt.Errorf("row %d out of range, the file has %d rows", row, len(recipients))
	}
	return recipients[row-1], nil
}
