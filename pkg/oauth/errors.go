package oauth

import "errors"

var (
	// ErrMissingClientID is returned when the OAuth client ID is not provided.
	ErrMissingClientID = errors.New("oauth: missing client ID")

	// ErrMissingClientSecret is returned when the OAuth client secret is not provided.
	ErrMissingClientSecret = errors.New("oauth: missing client secret")

	// ErrInvalidClientSecret is returned when a client secret file cannot be parsed.
	ErrInvalidClientSecret = errors.New("oauth: invalid client secret file")

	// ErrExchangeFailed is returned when an authorization code cannot be
	// exchanged for tokens.
	ErrExchangeFailed = errors.New("oauth: code exchange failed")

	// ErrRefreshFailed is returned when a refresh token cannot be redeemed.
	ErrRefreshFailed = errors.New("oauth: token refresh failed")

	// ErrInvalidGrant is returned alongside ErrRefreshFailed when the
	// provider rejects the refresh token itself (revoked or expired).
	ErrInvalidGrant = errors.New("oauth: refresh token rejected")

	// ErrStateMismatch is returned when the callback state does not match.
	ErrStateMismatch = errors.New("oauth: state mismatch in callback")

	// ErrMissingCode is returned when the callback carries no authorization code.
	ErrMissingCode = errors.New("oauth: missing code in callback")

	// ErrAccessDenied is returned when the user declines the authorization request.
	ErrAccessDenied = errors.New("oauth: access denied by user")

	// ErrAuthorizationTimeout is returned when no callback arrives in time.
	ErrAuthorizationTimeout = errors.New("oauth: authorization timed out")
)
