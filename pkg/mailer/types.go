package mailer

import (
	"encoding/base64"
	"fmt"
	"io"
)

// Address formats a name and email into RFC 5322 address format.
// Returns "Name <email>" if name is provided, otherwise just email.
func Address(name, email string) string {
	if name == "" {
		return email
	}
	return fmt.Sprintf("%s <%s>", name, email)
}

// Email represents a fully-prepared email message ready for sending.
type Email struct {
	Headers     map[string]string // Extra headers, written in key order
	From        string            // Sender; omitted from the envelope when empty
	To          []string          // Recipients (exactly one for bulk sends)
	Subject     string            // Subject line, already rendered
	HTML        string            // HTML body content
	Text        string            // Plain text alternative (structured providers only)
	Attachments []Attachment      // File attachments
}

// Attachment represents an email attachment.
type Attachment struct {
	Filename    string // Base name shown to the recipient
	ContentType string // MIME type (e.g., "application/pdf")
	Content     []byte // Raw file content
}

// Message pairs a structured Email with its serialized RFC 822 form.
// Raw-message providers (Gmail, SMTP) deliver Raw; structured providers
// (Resend) deliver Email.
type Message struct {
	Email *Email
	Raw   []byte
}

// Encoded returns Raw as URL-safe base64, the transport envelope expected by
// the Gmail API.
func (m *Message) Encoded() string {
	return base64.URLEncoding.EncodeToString(m.Raw)
}

// WriteTo streams Raw to w. It lets a Message be handed to writers that
// expect an io.WriterTo, such as SMTP data commands.
func (m *Message) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(m.Raw)
	return int64(n), err
}

// Recipient returns the first envelope recipient.
func (m *Message) Recipient() string {
	if m.Email == nil || len(m.Email.To) == 0 {
		return ""
	}
	return m.Email.To[0]
}

// SendResult describes an accepted delivery.
type SendResult struct {
	ID       string // Provider-assigned message id
	Provider string // Provider name, e.g. "gmail"
}
