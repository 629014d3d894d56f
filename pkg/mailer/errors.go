package mailer

import "errors"

var (
	// ErrNoRecipient indicates no recipient was specified.
	ErrNoRecipient = errors.New("mailer: message must have a recipient")

	// ErrNoSubject indicates no subject was provided.
	ErrNoSubject = errors.New("mailer: message must have a subject")

	// ErrNoContent indicates no HTML content was provided.
	ErrNoContent = errors.New("mailer: message must have HTML content")

	// ErrAttachmentNotFound indicates the attachment file does not exist.
	ErrAttachmentNotFound = errors.New("mailer: attachment not found")

	// ErrAttachmentRead indicates the attachment exists but could not be read.
	ErrAttachmentRead = errors.New("mailer: failed to read attachment")

	// ErrBuildFailed indicates the MIME message could not be assembled.
	ErrBuildFailed = errors.New("mailer: failed to build message")

	// ErrTemplateNotFound indicates the template file was not found.
	ErrTemplateNotFound = errors.New("mailer: template not found")

	// ErrLayoutNotFound indicates the layout file was not found.
	ErrLayoutNotFound = errors.New("mailer: layout not found")

	// ErrRenderFailed indicates template rendering failed.
	ErrRenderFailed = errors.New("mailer: failed to render template")

	// ErrInvalidFrontmatter indicates invalid YAML frontmatter.
	ErrInvalidFrontmatter = errors.New("mailer: invalid frontmatter")

	// ErrSendFailed indicates the provider rejected or failed the delivery.
	ErrSendFailed = errors.New("mailer: failed to send message")

	// ErrUnauthorized indicates the provider rejected the sender's credentials.
	// Callers may refresh credentials and retry once.
	ErrUnauthorized = errors.New("mailer: provider rejected credentials")
)
