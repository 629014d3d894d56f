// Package mailer builds and renders bulk email messages and defines the
// provider interface used to deliver them.
//
// # Building Messages
//
// A Builder turns rendered content into a multipart/mixed RFC 822 message
// with an HTML part and one attachment read from a storage backend:
//
//	b := mailer.NewBuilder(storage.NewLocal(""))
//	msg, err := b.Build(ctx, mailer.BuildParams{
//		From:           "me",
//		To:             "x@acme.com",
//		Subject:        "Sponsorship opportunity",
//		HTML:           "<p>Dear Acme Corp,</p>",
//		AttachmentPath: "brochure.pdf",
//	})
//
// The attachment is re-read on every Build. The multipart boundary is derived
// from the message content and no Date or Message-ID header is written, so
// identical inputs produce byte-identical messages.
//
// msg.Raw holds the serialized message, msg.Encoded() the URL-safe base64
// form the Gmail API expects.
//
// # Templates
//
// A Campaign renders one subject and body template per recipient. Bodies are
// HTML or markdown (GFM) files with optional YAML frontmatter:
//
//	---
//	Subject: Sponsorship opportunity for {{.Name}}
//	---
//	Dear {{.Name}},
//
//	Please find our brochure attached.
//
// Subject resolution: Config.Subject > frontmatter Subject > Config.FallbackSubject.
//
// Values substituted into the body pass through an HTML policy first:
// escape (default), sanitize or trusted. Missing template keys are render
// errors.
//
//	c, err := mailer.LoadCampaign(mailer.Config{Template: "campaign.html"})
//	content, err := c.Render(mailer.Data{"Name": "Acme Corp", "Email": "x@acme.com"})
//
// # Providers
//
// Implement the Sender interface to deliver messages. Implementations in
// subpackages:
//
//   - gmail: Gmail API users.messages.send with the raw message
//   - resend: Resend API with the structured email
//   - smtp: SMTP relay with the raw message
//
// Providers report rejected credentials as ErrUnauthorized so callers can
// refresh and retry once.
//
// # Errors
//
//   - ErrNoRecipient, ErrNoSubject, ErrNoContent: invalid build params
//   - ErrAttachmentNotFound: attachment missing or not a regular file
//   - ErrAttachmentRead: attachment could not be read
//   - ErrTemplateNotFound, ErrLayoutNotFound: template files missing
//   - ErrRenderFailed: template parsing or execution failed
//   - ErrInvalidFrontmatter: invalid YAML frontmatter
//   - ErrSendFailed, ErrUnauthorized: delivery failures
package mailer
