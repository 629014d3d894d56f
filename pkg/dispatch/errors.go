package dispatch

import "errors"

// Dispatch errors.
var (
	// ErrNoTemplate is returned when a campaign has no template.
	ErrNoTemplate = errors.New("dispatch: no template")

	// ErrInvalidAddress is recorded for rows whose email cannot be parsed.
	ErrInvalidAddress = errors.New("dispatch: invalid recipient address")

	// ErrAborted is returned when the context was cancelled before every
	// row was processed.
	ErrAborted = errors.New("dispatch: run aborted")

	// ErrReauthFailed is returned when the forced refresh after a rejected
	// credential failed. It stops the run.
	ErrReauthFailed = errors.New("dispatch: re-authentication failed")
)
