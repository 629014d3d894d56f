// Package resend delivers messages through the Resend API.
package resend

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/resend/resend-go/v3"

	"github.com/dmitrymomot/mailshot/pkg/mailer"
)

// ProviderName identifies this provider in send results and logs.
const ProviderName = "resend"

// ErrNoSender indicates neither the message nor the config names a sender.
var ErrNoSender = errors.New("resend: sender address is required")

// Sender implements mailer.Sender using the Resend API.
type Sender struct {
	client *resend.Client
	config Config
}

// New creates a new Resend sender.
func New(cfg Config) (*Sender, error) {
	client := resend.NewClient(cfg.APIKey)
	if cfg.BaseURL != "" {
		u, err := url.Parse(strings.TrimSuffix(cfg.BaseURL, "/") + "/")
		if err != nil {
			return nil, fmt.Errorf("resend: invalid base url: %w", err)
		}
		client.BaseURL = u
	}
	return &Sender{client: client, config: cfg}, nil
}

// Send implements mailer.Sender. Resend takes the structured email, so the
// raw message is not used.
func (s *Sender) Send(ctx context.Context, msg *mailer.Message) (*mailer.SendResult, error) {
	if msg == nil || msg.Email == nil {
		return nil, mailer.ErrNoContent
	}
	email := msg.Email

	from := s.from(email.From)
	if from == "" {
		return nil, ErrNoSender
	}

	req := &resend.SendEmailRequest{
		From:    from,
		To:      email.To,
		Subject: email.Subject,
		Html:    email.HTML,
		Text:    email.Text,
		Headers: email.Headers,
	}

	if len(email.Attachments) > 0 {
		req.Attachments = convertAttachments(email.Attachments)
	}

	resp, err := s.client.Emails.SendWithContext(ctx, req)
	if err != nil {
		return nil, classifyError(err)
	}

	return &mailer.SendResult{ID: resp.Id, Provider: ProviderName}, nil
}

// from picks the message sender unless it is empty or the Gmail-only "me".
func (s *Sender) from(msgFrom string) string {
	if msgFrom != "" && msgFrom != "me" {
		return msgFrom
	}
	if s.config.SenderEmail == "" {
		return ""
	}
	return mailer.Address(s.config.SenderName, s.config.SenderEmail)
}

func convertAttachments(attachments []mailer.Attachment) []*resend.Attachment {
	result := make([]*resend.Attachment, len(attachments))
	for i, a := range attachments {
		result[i] = &resend.Attachment{
			Filename:    a.Filename,
			Content:     a.Content,
			ContentType: a.ContentType,
		}
	}
	return result
}

// classifyError reports API key rejections as mailer.ErrUnauthorized.
// The client only exposes the API's message text.
func classifyError(err error) error {
	if strings.Contains(strings.ToLower(err.Error()), "api key") {
		return errors.Join(mailer.ErrUnauthorized, err)
	}
	return errors.Join(mailer.ErrSendFailed, err)
}

var _ mailer.Sender = (*Sender)(nil)
