package credential

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"slices"
	"sync"
	"time"

	"golang.org/x/oauth2"
)

// Refresher redeems a refresh token for a new access token.
type Refresher interface {
	Refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error)
}

// Authorizer runs the interactive grant.
type Authorizer interface {
	Authorize(ctx context.Context) (*oauth2.Token, error)
}

// Session is an authenticated handle over a credential. It implements
// oauth2.TokenSource, refreshing and persisting the credential whenever the
// access token expires. A refreshed token that cannot be persisted is still
// used for the rest of the session; the failure is logged as a warning.
type Session struct {
	ctx       context.Context
	store     Store
	refresher func() (Refresher, error)
	logger    *slog.Logger
	now       func() time.Time

	mu   sync.Mutex
	cred *Credential
}

// Token returns a valid access token, refreshing it first when expired.
func (s *Session) Token() (*oauth2.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cred.Valid(s.now()) {
		return s.cred.Token(), nil
	}
	if err := s.refreshLocked(s.ctx); err != nil {
		return nil, err
	}
	return s.cred.Token(), nil
}

// Refresh forces a refresh regardless of the access token's expiry, for
// example after the API rejected it, and persists the result when possible.
func (s *Session) Refresh(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refreshLocked(ctx)
}

// Credential returns a copy of the current credential.
func (s *Session) Credential() Credential {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *s.cred
	c.Scopes = slices.Clone(c.Scopes)
	return c
}

// Client returns an HTTP client authorizing every request with the session's
// current token. The base transport is taken from the oauth2.HTTPClient
// context value when set.
//
// Unlike oauth2.NewClient the token is not cached by the client, so a forced
// Refresh takes effect on the next request.
func (s *Session) Client(ctx context.Context) *http.Client {
	base := http.DefaultTransport
	if hc, ok := ctx.Value(oauth2.HTTPClient).(*http.Client); ok && hc != nil && hc.Transport != nil {
		base = hc.Transport
	}
	return &http.Client{Transport: &oauth2.Transport{Source: s, Base: base}}
}

func (s *Session) refreshLocked(ctx context.Context) error {
	if !s.cred.CanRefresh() {
		return errors.Join(ErrAuth, ErrNoRefreshToken)
	}
	r, err := s.refresher()
	if err != nil {
		return errors.Join(ErrAuth, err)
	}
	next, err := refresh(ctx, r, s.cred)
	if err != nil {
		return errors.Join(ErrAuth, err)
	}

	s.cred = next
	if err := s.store.Save(ctx, next); err != nil {
		s.logger.WarnContext(ctx, "refreshed credential not persisted",
			slog.Time("expiry", next.Expiry),
			slog.Any("error", errors.Join(ErrPersistFailed, err)),
		)
		return nil
	}
	s.logger.InfoContext(ctx, "credential refreshed", slog.Time("expiry", next.Expiry))
	return nil
}

// refresh redeems cred's refresh token, keeping the refresh token and scopes
// when the provider does not return new ones.
func refresh(ctx context.Context, r Refresher, cred *Credential) (*Credential, error) {
	tok, err := r.Refresh(ctx, cred.RefreshToken)
	if err != nil {
		return nil, err
	}
	next := FromToken(tok, cred.Scopes)
	if next.RefreshToken == "" {
		next.RefreshToken = cred.RefreshToken
	}
	return next, nil
}

var _ oauth2.TokenSource = (*Session)(nil)
