package credential

import "errors"

var (
	// ErrAuth wraps every failure to produce a usable session.
	ErrAuth = errors.New("credential: authentication failed")

	// ErrNotFound indicates no credential is stored.
	ErrNotFound = errors.New("credential: not found")

	// ErrCorrupt indicates the stored credential cannot be decoded.
	ErrCorrupt = errors.New("credential: stored credential is unreadable")

	// ErrInteractionRequired indicates only an interactive grant could
	// produce a credential, and interaction is disabled.
	ErrInteractionRequired = errors.New("credential: interactive authorization required")

	// ErrNoRefreshToken indicates a refresh was requested for a credential
	// without a refresh token.
	ErrNoRefreshToken = errors.New("credential: no refresh token")

	// ErrPersistFailed indicates a new credential could not be saved.
	ErrPersistFailed = errors.New("credential: failed to persist credential")

	// ErrUnknownStore indicates an unsupported store kind in Config.
	ErrUnknownStore = errors.New("credential: unknown store")
)
