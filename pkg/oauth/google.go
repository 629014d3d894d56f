package oauth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"

	"golang.org/x/oauth2"
	googleOAuth "golang.org/x/oauth2/google"
)

const (
	// GoogleProviderName is the identifier for Google OAuth provider.
	GoogleProviderName = "google"

	// GmailSendScope allows sending mail on the user's behalf and nothing else.
	GmailSendScope = "https://www.googleapis.com/auth/gmail.send"
)

// GoogleDefaultScopes returns the default scopes for Google OAuth.
func GoogleDefaultScopes() []string {
	return []string{GmailSendScope}
}

// GoogleProvider implements Provider for Google OAuth.
type GoogleProvider struct {
	config     *oauth2.Config
	httpClient *http.Client
}

// NewGoogleProvider creates a new Google OAuth provider.
// Returns an error if ClientID or ClientSecret is empty.
func NewGoogleProvider(cfg GoogleConfig, opts ...Option) (*GoogleProvider, error) {
	if cfg.ClientID == "" {
		return nil, ErrMissingClientID
	}
	if cfg.ClientSecret == "" {
		return nil, ErrMissingClientSecret
	}

	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = GoogleDefaultScopes()
	}

	return newGoogleProvider(&oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURL,
		Scopes:       scopes,
		Endpoint:     googleOAuth.Endpoint,
	}, opts), nil
}

// NewGoogleProviderFromFile creates a Google provider from a client secret
// file downloaded from the Google Cloud console ("installed" or "web"
// application type).
func NewGoogleProviderFromFile(path string, scopes []string, opts ...Option) (*GoogleProvider, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Join(ErrMissingClientSecret, fmt.Errorf("read %s: %w", path, err))
	}

	if len(scopes) == 0 {
		scopes = GoogleDefaultScopes()
	}

	cfg, err := googleOAuth.ConfigFromJSON(data, scopes...)
	if err != nil {
		return nil, errors.Join(ErrInvalidClientSecret, err)
	}
	if cfg.ClientID == "" {
		return nil, errors.Join(ErrInvalidClientSecret, ErrMissingClientID)
	}

	return newGoogleProvider(cfg, opts), nil
}

// NewGoogleProviderFromConfig picks inline credentials when set and the
// client secret file otherwise.
func NewGoogleProviderFromConfig(cfg GoogleConfig, opts ...Option) (*GoogleProvider, error) {
	if cfg.HasInlineCredentials() || cfg.ClientSecretFile == "" {
		return NewGoogleProvider(cfg, opts...)
	}
	return NewGoogleProviderFromFile(cfg.ClientSecretFile, cfg.Scopes, opts...)
}

func newGoogleProvider(cfg *oauth2.Config, opts []Option) *GoogleProvider {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.endpoint != nil {
		cfg.Endpoint = *o.endpoint
	}
	return &GoogleProvider{config: cfg, httpClient: o.httpClient}
}

// Name returns the provider identifier.
func (p *GoogleProvider) Name() string {
	return GoogleProviderName
}

// Scopes returns the requested scopes.
func (p *GoogleProvider) Scopes() []string {
	return append([]string(nil), p.config.Scopes...)
}

// AuthCodeURL generates the authorization URL.
func (p *GoogleProvider) AuthCodeURL(state string, opts ...oauth2.AuthCodeOption) string {
	return p.config.AuthCodeURL(state, opts...)
}

// Exchange trades an authorization code for tokens.
func (p *GoogleProvider) Exchange(ctx context.Context, code, redirectURI string, opts ...oauth2.AuthCodeOption) (*oauth2.Token, error) {
	cfg := p.config
	if redirectURI != "" {
		cfg = p.withRedirect(redirectURI)
	}
	token, err := cfg.Exchange(p.contextWithHTTPClient(ctx), code, opts...)
	if err != nil {
		return nil, errors.Join(ErrExchangeFailed, err)
	}
	return token, nil
}

// Refresh redeems refreshToken for a new access token. The returned token
// keeps refreshToken when the provider does not rotate it.
func (p *GoogleProvider) Refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
	if refreshToken == "" {
		return nil, errors.Join(ErrRefreshFailed, ErrInvalidGrant)
	}

	src := p.config.TokenSource(p.contextWithHTTPClient(ctx), &oauth2.Token{RefreshToken: refreshToken})
	token, err := src.Token()
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) && retrieveErr.ErrorCode == "invalid_grant" {
			return nil, errors.Join(ErrRefreshFailed, ErrInvalidGrant, err)
		}
		return nil, errors.Join(ErrRefreshFailed, err)
	}
	if token.RefreshToken == "" {
		token.RefreshToken = refreshToken
	}
	return token, nil
}

func (p *GoogleProvider) withRedirect(redirectURI string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     p.config.ClientID,
		ClientSecret: p.config.ClientSecret,
		RedirectURL:  redirectURI,
		Scopes:       p.config.Scopes,
		Endpoint:     p.config.Endpoint,
	}
}

func (p *GoogleProvider) contextWithHTTPClient(ctx context.Context) context.Context {
	if p.httpClient != nil {
		return context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)
	}
	return ctx
}

var _ Provider = (*GoogleProvider)(nil)
