// Package oauth implements the OAuth2 authorization code grant for installed
// applications.
//
// A Provider builds the consent URL, exchanges codes and redeems refresh
// tokens. GoogleProvider requests the gmail.send scope by default and can be
// created from inline credentials or from the client secret file downloaded
// from the Google Cloud console:
//
//	provider, err := oauth.NewGoogleProviderFromFile("client_secret.json", nil)
//
// LoopbackAuthorizer runs the interactive part: it listens on a loopback
// address, prints (and optionally opens) the consent URL and exchanges the
// code that the browser delivers to the callback. PKCE (S256) and a random
// state parameter protect the exchange; the flow gives up after
// DefaultAuthorizationTimeout.
//
//	authz := oauth.NewLoopbackAuthorizer(provider, oauth.LoopbackConfig{})
//	token, err := authz.Authorize(ctx)
//
// Errors carry the "oauth:" prefix. Refresh failures wrap ErrRefreshFailed,
// and additionally ErrInvalidGrant when the provider rejected the refresh
// token itself.
package oauth
