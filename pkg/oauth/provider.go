package oauth

import (
	"context"

	"golang.org/x/oauth2"
)

// Provider abstracts the provider-specific parts of an installed-app OAuth
// flow: building the consent URL, exchanging the code and redeeming refresh
// tokens.
type Provider interface {
	// Name returns the provider identifier (e.g., "google").
	Name() string

	// Scopes returns the scopes requested from the user.
	Scopes() []string

	// AuthCodeURL generates the authorization URL for the OAuth flow.
	AuthCodeURL(state string, opts ...oauth2.AuthCodeOption) string

	// Exchange trades an authorization code for tokens. A non-empty
	// redirectURI overrides the configured one and must match the URL used
	// for the authorization request.
	Exchange(ctx context.Context, code, redirectURI string, opts ...oauth2.AuthCodeOption) (*oauth2.Token, error)

	// Refresh redeems a refresh token for a new access token.
	Refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error)
}
