package cli

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/dmitrymomot/mailshot/internal/config"
	"github.com/dmitrymomot/mailshot/pkg/credential"
	"github.com/dmitrymomot/mailshot/pkg/mailer"
	"github.com/dmitrymomot/mailshot/pkg/mailer/gmail"
	"github.com/dmitrymomot/mailshot/pkg/mailer/resend"
	"github.com/dmitrymomot/mailshot/pkg/mailer/smtp"
	"github.com/dmitrymomot/mailshot/pkg/oauth"
	"github.com/dmitrymomot/mailshot/pkg/recipient"
	"github.com/dmitrymomot/mailshot/pkg/storage"
)

const dryRunProvider = "dry-run"

func (st *state) storage() (storage.Storage, error) {
	var s3 *storage.S3Storage
	if st.cfg.S3.Enabled() {
		var err error
		if s3, err = storage.NewS3(st.cfg.S3); err != nil {
			return nil, err
		}
	}
	return storage.NewMux(storage.NewLocal(""), s3), nil
}

func (st *state) recipients() ([]recipient.Recipient, error) {
	var opts []recipient.Option
	if st.cfg.Encoding != "" {
		opts = append(opts, recipient.WithEncoding(st.cfg.Encoding))
	}
	if r := st.cfg.DelimiterRune(); r != 0 {
		opts = append(opts, recipient.WithDelimiter(r))
	}
	return recipient.ReadFile(st.cfg.Recipients, st.cfg.Columns, opts...)
}

func (st *state) scopes() []string {
	if len(st.cfg.OAuth.Scopes) > 0 {
		return st.cfg.OAuth.Scopes
	}
	return oauth.GoogleDefaultScopes()
}

// credentialManager wires the credential store with a lazily created OAuth
// provider, so the client secret is read only when a refresh or an
// interactive grant is needed.
func (st *state) credentialManager() (*credential.Manager, error) {
	store, err := credential.NewStore(st.cfg.Credential)
	if err != nil {
		return nil, err
	}

	provider := sync.OnceValues(func() (*oauth.GoogleProvider, error) {
		cfg := st.cfg.OAuth
		cfg.Scopes = st.scopes()
		return oauth.NewGoogleProviderFromConfig(cfg)
	})

	opts := []credential.Option{
		credential.WithScopes(st.scopes()...),
		credential.WithLogger(st.logger),
		credential.WithRefresher(func() (credential.Refresher, error) {
			p, err := provider()
			if err != nil {
				return nil, err
			}
			return p, nil
		}),
	}
	if !st.cfg.NonInteractive {
		opts = append(opts, credential.WithAuthorizer(func() (credential.Authorizer, error) {
			p, err := provider()
			if err != nil {
				return nil, err
			}
			return oauth.NewLoopbackAuthorizer(p, st.cfg.Loopback,
				oauth.WithLoopbackLogger(st.logger),
				oauth.WithPrompt(st.opts.Err),
			), nil
		}))
	}
	return credential.NewManager(store, opts...), nil
}

// sender creates the configured provider. The returned session is non-nil
// for providers authenticated through the stored OAuth credential.
func (st *state) sender(ctx context.Context) (mailer.Sender, *credential.Session, error) {
	switch st.cfg.Provider {
	case config.ProviderGmail:
		manager, err := st.credentialManager()
		if err != nil {
			return nil, nil, err
		}
		session, err := manager.ObtainSession(ctx)
		if err != nil {
			return nil, nil, err
		}
		s, err := gmail.New(ctx, session.Client(ctx), st.cfg.Gmail, gmail.WithLogger(st.logger))
		if err != nil {
			return nil, nil, err
		}
		return s, session, nil
	case config.ProviderResend:
		s, err := resend.New(st.cfg.Resend)
		return s, nil, err
	case config.ProviderSMTP:
		s, err := smtp.New(st.cfg.SMTP)
		return s, nil, err
	default:
		return nil, nil, fmt.Errorf("%w: unknown provider %q", config.ErrInvalidConfig, st.cfg.Provider)
	}
}

// dryRunSender accepts every message without delivering it.
func dryRunSender() mailer.Sender {
	return mailer.SenderFunc(func(ctx context.Context, msg *mailer.Message) (*mailer.SendResult, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return &mailer.SendResult{ID: uuid.NewString(), Provider: dryRunProvider}, nil
	})
}
