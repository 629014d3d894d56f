// Package gmail delivers raw messages through the Gmail API
// users.messages.send call.
package gmail

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"golang.org/x/oauth2"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/dmitrymomot/mailshot/pkg/credential"
	"github.com/dmitrymomot/mailshot/pkg/mailer"
)

const (
	// ProviderName identifies this provider in send results and logs.
	ProviderName = "gmail"

	// DefaultUserID addresses the authenticated account's own mailbox.
	DefaultUserID = "me"
)

// Sender implements mailer.Sender using the Gmail API.
type Sender struct {
	svc    *gmail.Service
	userID string
}

// Option configures a Sender.
type Option func(*options)

type options struct {
	logger *slog.Logger
}

// WithLogger logs every API round trip at debug level.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// New creates a Gmail sender. client must attach OAuth2 credentials to each
// request, for example the client of a credential.Session.
func New(ctx context.Context, client *http.Client, cfg Config, opts ...Option) (*Sender, error) {
	if client == nil {
		return nil, errors.New("gmail: http client is required")
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger != nil {
		client = &http.Client{
			Transport:     &loggingTransport{base: client.Transport, logger: o.logger},
			CheckRedirect: client.CheckRedirect,
			Jar:           client.Jar,
			Timeout:       client.Timeout,
		}
	}

	clientOpts := []option.ClientOption{option.WithHTTPClient(client)}
	if cfg.Endpoint != "" {
		clientOpts = append(clientOpts, option.WithEndpoint(cfg.Endpoint))
	}

	svc, err := gmail.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("gmail: create service: %w", err)
	}

	userID := cfg.UserID
	if userID == "" {
		userID = DefaultUserID
	}

	return &Sender{svc: svc, userID: userID}, nil
}

// Send implements mailer.Sender. The raw message is sent URL-safe base64
// encoded in the request's raw field.
func (s *Sender) Send(ctx context.Context, msg *mailer.Message) (*mailer.SendResult, error) {
	if msg == nil || len(msg.Raw) == 0 {
		return nil, mailer.ErrNoContent
	}

	sent, err := s.svc.Users.Messages.Send(s.userID, &gmail.Message{Raw: msg.Encoded()}).Context(ctx).Do()
	if err != nil {
		return nil, classifyError(err)
	}

	return &mailer.SendResult{ID: sent.Id, Provider: ProviderName}, nil
}

// classifyError maps API and token errors to mailer errors.
func classifyError(err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) && apiErr.Code == http.StatusUnauthorized {
		return errors.Join(mailer.ErrUnauthorized, err)
	}

	// Token refresh failures inside the OAuth2 transport.
	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) || errors.Is(err, credential.ErrAuth) {
		return errors.Join(mailer.ErrUnauthorized, err)
	}

	return errors.Join(mailer.ErrSendFailed, err)
}

var _ mailer.Sender = (*Sender)(nil)
