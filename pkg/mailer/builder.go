package mailer

import (
	"context"
	"errors"
	"io"
	"path"
	"path/filepath"
	"strings"

	"github.com/dmitrymomot/mailshot/pkg/storage"
)

// sniffLen is how much of an attachment is inspected for its content type.
const sniffLen = 512

// Builder assembles per-recipient messages, reading the attachment from a
// storage backend on every build.
type Builder struct {
	store storage.Storage
}

// NewBuilder creates a Builder reading attachments from store.
func NewBuilder(store storage.Storage) *Builder {
	if store == nil {
		store = storage.NewLocal("")
	}
	return &Builder{store: store}
}

// BuildParams contains the inputs for a single message.
type BuildParams struct {
	From           string            // Sender address or the literal "me"; may be empty
	To             string            // Recipient address
	Subject        string            // Rendered subject line
	HTML           string            // Rendered HTML body, used verbatim
	Text           string            // Optional plain text alternative
	AttachmentPath string            // Storage key of the attachment; empty for none
	Headers        map[string]string // Optional extra headers
}

// Build renders params into a Message.
// Equal params and attachment bytes always produce equal Raw bytes.
func (b *Builder) Build(ctx context.Context, p BuildParams) (*Message, error) {
	to := cleanHeader(p.To)
	if to == "" {
		return nil, ErrNoRecipient
	}
	subject := cleanHeader(p.Subject)
	if subject == "" {
		return nil, ErrNoSubject
	}
	if strings.TrimSpace(p.HTML) == "" {
		return nil, ErrNoContent
	}

	email := &Email{
		Headers: p.Headers,
		From:    cleanHeader(p.From),
		To:      []string{to},
		Subject: subject,
		HTML:    p.HTML,
		Text:    p.Text,
	}

	if p.AttachmentPath != "" {
		att, err := b.loadAttachment(ctx, p.AttachmentPath)
		if err != nil {
			return nil, err
		}
		email.Attachments = []Attachment{*att}
	}

	raw, err := Compose(email)
	if err != nil {
		return nil, errors.Join(ErrBuildFailed, err)
	}
	return &Message{Email: email, Raw: raw}, nil
}

func (b *Builder) loadAttachment(ctx context.Context, key string) (*Attachment, error) {
	rc, err := b.store.Open(ctx, key)
	if err != nil {
		return nil, attachmentError(err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, errors.Join(ErrAttachmentRead, err)
	}

	name := AttachmentName(key)
	return &Attachment{
		Filename:    name,
		ContentType: storage.DetectMIME(name, data[:min(len(data), sniffLen)]),
		Content:     data,
	}, nil
}

// AttachmentName returns the base name of an attachment key, for both
// filesystem paths and s3:// URIs.
func AttachmentName(key string) string {
	if _, rest, ok := strings.Cut(key, "://"); ok {
		return path.Base(rest)
	}
	return filepath.Base(key)
}

func attachmentError(err error) error {
	if errors.Is(err, storage.ErrNotFound) || errors.Is(err, storage.ErrNotRegular) {
		return errors.Join(ErrAttachmentNotFound, err)
	}
	return errors.Join(ErrAttachmentRead, err)
}

// CheckAttachment verifies that the attachment at key exists and is a regular
// file without loading it.
func (b *Builder) CheckAttachment(ctx context.Context, key string) (*storage.FileInfo, error) {
	info, err := b.store.Stat(ctx, key)
	if err != nil {
		return nil, attachmentError(err)
	}
	return info, nil
}
