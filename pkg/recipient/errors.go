package recipient

import "errors"

var (
	// ErrEmptyTable indicates the input has no header row.
	ErrEmptyTable = errors.New("recipient: table has no header row")

	// ErrMissingColumn indicates a required column is absent from the header.
	ErrMissingColumn = errors.New("recipient: required column missing")

	// ErrUnknownEncoding indicates an unsupported character encoding name.
	ErrUnknownEncoding = errors.New("recipient: unknown encoding")

	// ErrReadFailed indicates the table could not be read or parsed.
	ErrReadFailed = errors.New("recipient: failed to read table")
)
