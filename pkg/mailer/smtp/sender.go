// Package smtp delivers raw messages through an SMTP relay.
package smtp

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/mail"
	"net/textproto"

	"github.com/google/uuid"
	"gopkg.in/gomail.v2"

	"github.com/dmitrymomot/mailshot/pkg/mailer"
)

// ProviderName identifies this provider in send results and logs.
const ProviderName = "smtp"

// DefaultPort is the submission port used when Config.Port is zero.
const DefaultPort = 587

var (
	// ErrNoHost indicates the relay host is not configured.
	ErrNoHost = errors.New("smtp: host is required")

	// ErrNoSender indicates no envelope sender address is available.
	ErrNoSender = errors.New("smtp: sender address is required")
)

// Sender implements mailer.Sender over SMTP. Each message is delivered on
// its own connection.
type Sender struct {
	dialer      *gomail.Dialer
	senderEmail string
}

// New creates an SMTP sender.
func New(cfg Config) (*Sender, error) {
	if cfg.Host == "" {
		return nil, ErrNoHost
	}
	port := cfg.Port
	if port == 0 {
		port = DefaultPort
	}

	d := gomail.NewDialer(cfg.Host, port, cfg.Username, cfg.Password)
	if cfg.InsecureSkipVerify {
		d.TLSConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // opt-in for test relays
	}

	return &Sender{dialer: d, senderEmail: cfg.SenderEmail}, nil
}

// Send implements mailer.Sender. The relay assigns no id the client can
// see, so the result carries a locally generated one.
func (s *Sender) Send(ctx context.Context, msg *mailer.Message) (*mailer.SendResult, error) {
	if msg == nil || len(msg.Raw) == 0 {
		return nil, mailer.ErrNoContent
	}
	to := msg.Recipient()
	if to == "" {
		return nil, mailer.ErrNoRecipient
	}
	rcpt, err := mail.ParseAddress(to)
	if err != nil {
		return nil, errors.Join(mailer.ErrSendFailed, fmt.Errorf("invalid recipient %q: %w", to, err))
	}

	from, err := s.envelopeFrom(msg.Email.From)
	if err != nil {
		return nil, err
	}
	msg, err = s.withSender(msg)
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	conn, err := s.dialer.Dial()
	if err != nil {
		return nil, classifyError(err)
	}
	defer conn.Close()

	if err := conn.Send(from, []string{rcpt.Address}, msg); err != nil {
		return nil, classifyError(err)
	}

	return &mailer.SendResult{ID: uuid.NewString(), Provider: ProviderName}, nil
}

// envelopeFrom picks the message sender unless it is empty or the
// Gmail-only "me".
func (s *Sender) envelopeFrom(msgFrom string) (string, error) {
	candidate := msgFrom
	if candidate == "" || candidate == "me" {
		candidate = s.senderEmail
	}
	if candidate == "" {
		return "", ErrNoSender
	}
	addr, err := mail.ParseAddress(candidate)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNoSender, err)
	}
	return addr.Address, nil
}

// withSender recomposes msg with the configured sender in the From header
// when the message was built for the Gmail-only "me" or without a sender.
func (s *Sender) withSender(msg *mailer.Message) (*mailer.Message, error) {
	if msg.Email.From != "" && msg.Email.From != "me" {
		return msg, nil
	}
	email := *msg.Email
	email.From = s.senderEmail
	raw, err := mailer.Compose(&email)
	if err != nil {
		return nil, errors.Join(mailer.ErrBuildFailed, err)
	}
	return &mailer.Message{Email: &email, Raw: raw}, nil
}

// classifyError maps SMTP authentication replies to mailer.ErrUnauthorized.
func classifyError(err error) error {
	var tpErr *textproto.Error
	if errors.As(err, &tpErr) {
		switch tpErr.Code {
		case 530, 534, 535:
			return errors.Join(mailer.ErrUnauthorized, err)
		}
	}
	return errors.Join(mailer.ErrSendFailed, err)
}

var _ mailer.Sender = (*Sender)(nil)
