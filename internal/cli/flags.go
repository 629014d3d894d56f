package cli

import (
	"github.com/spf13/cobra"

	"github.com/dmitrymomot/mailshot/internal/config"
)

// binding copies a flag into the configuration when it was set on the
// command line, so flags override every other source.
type binding struct {
	name  string
	apply func(*config.Config)
}

func applyFlags(cmd *cobra.Command, cfg *config.Config, bindings []binding) {
	for _, b := range bindings {
		if cmd.Flags().Changed(b.name) {
			b.apply(cfg)
		}
	}
}

func stringFlag(cmd *cobra.Command, name string, set func(*config.Config, string)) binding {
	return binding{name: name, apply: func(cfg *config.Config) {
		v, _ := cmd.Flags().GetString(name)
		set(cfg, v)
	}}
}

func boolFlag(cmd *cobra.Command, name string, set func(*config.Config, bool)) binding {
	return binding{name: name, apply: func(cfg *config.Config) {
		v, _ := cmd.Flags().GetBool(name)
		set(cfg, v)
	}}
}

func persistentBindings(cmd *cobra.Command) []binding {
	return []binding{
		stringFlag(cmd, "token-file", func(c *config.Config, v string) { c.Credential.TokenFile = v }),
		stringFlag(cmd, "client-secret", func(c *config.Config, v string) { c.OAuth.ClientSecretFile = v }),
		stringFlag(cmd, "credential-store", func(c *config.Config, v string) { c.Credential.Store = v }),
		boolFlag(cmd, "non-interactive", func(c *config.Config, v bool) { c.NonInteractive = v }),
	}
}

// addCampaignFlags registers the flags shared by send and preview.
func addCampaignFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringP("recipients", "r", "", "Recipient CSV file (default sponsors_list.csv)")
	f.StringP("template", "t", "", "Body template, .html or .md (default campaign.html)")
	f.String("layout", "", "HTML layout wrapping the body, relative to the template")
	f.StringP("subject", "s", "", "Subject template, overrides the template's frontmatter")
	f.StringP("attachment", "a", "", "File attached to every message, local path or s3:// URI (default brochure.pdf)")
	f.Bool("no-attachment", false, "Send without an attachment")
	f.String("from", "", `Sender address (default "me", the authorized account)`)
	f.String("html-policy", "", "Treatment of values substituted into the body: escape, sanitize or trusted")
	f.String("name-column", "", `Header of the name column (default "Sponsor Name")`)
	f.String("email-column", "", `Header of the email column (default "Email")`)
	f.String("encoding", "", "Recipient file encoding: utf-8, utf-16, windows-1252, iso-8859-1, iso-8859-15")
	f.String("delimiter", "", "Recipient file field delimiter (default ,)")
}

func campaignBindings(cmd *cobra.Command) []binding {
	return []binding{
		stringFlag(cmd, "recipients", func(c *config.Config, v string) { c.Recipients = v }),
		stringFlag(cmd, "template", func(c *config.Config, v string) { c.Mailer.Template = v }),
		stringFlag(cmd, "layout", func(c *config.Config, v string) { c.Mailer.Layout = v }),
		stringFlag(cmd, "subject", func(c *config.Config, v string) { c.Mailer.Subject = v }),
		stringFlag(cmd, "attachment", func(c *config.Config, v string) { c.Attachment = v }),
		boolFlag(cmd, "no-attachment", func(c *config.Config, v bool) {
			if v {
				c.Attachment = ""
			}
		}),
		stringFlag(cmd, "from", func(c *config.Config, v string) { c.From = v }),
		stringFlag(cmd, "html-policy", func(c *config.Config, v string) { c.Mailer.HTMLPolicy = v }),
		stringFlag(cmd, "name-column", func(c *config.Config, v string) { c.Columns.Name = v }),
		stringFlag(cmd, "email-column", func(c *config.Config, v string) { c.Columns.Email = v }),
		stringFlag(cmd, "encoding", func(c *config.Config, v string) { c.Encoding = v }),
		stringFlag(cmd, "delimiter", func(c *config.Config, v string) { c.Delimiter = v }),
	}
}
