package mailer

import (
	"bytes"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/textproto"
	"slices"
	"strings"
	"unicode/utf8"
)

const (
	crlf          = "\r\n"
	base64LineLen = 76
)

// Compose serializes email into an RFC 822 multipart/mixed message.
//
// The first part carries the HTML body as quoted-printable, each attachment
// follows as base64. The boundary is derived from the message content and no
// Date or Message-ID header is written, so equal emails compose to equal
// bytes.
func Compose(email *Email) ([]byte, error) {
	if email == nil || len(email.To) == 0 || email.To[0] == "" {
		return nil, ErrNoRecipient
	}

	var buf bytes.Buffer

	if from := cleanHeader(email.From); from != "" {
		writeHeader(&buf, "From", from)
	}
	writeHeader(&buf, "To", cleanHeader(strings.Join(email.To, ", ")))
	writeHeader(&buf, "Subject", encodeHeader(cleanHeader(email.Subject)))

	keys := make([]string, 0, len(email.Headers))
	for k := range email.Headers {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		name := textproto.CanonicalMIMEHeaderKey(cleanHeader(k))
		if name == "" || reservedHeader(name) {
			continue
		}
		writeHeader(&buf, name, encodeHeader(cleanHeader(email.Headers[k])))
	}

	boundary := boundaryFor(email)
	writeHeader(&buf, "MIME-Version", "1.0")
	writeHeader(&buf, "Content-Type", mime.FormatMediaType("multipart/mixed", map[string]string{"boundary": boundary}))
	buf.WriteString(crlf)

	mw := multipart.NewWriter(&buf)
	if err := mw.SetBoundary(boundary); err != nil {
		return nil, fmt.Errorf("set boundary: %w", err)
	}

	if err := writeHTMLPart(mw, email.HTML); err != nil {
		return nil, err
	}
	for _, a := range email.Attachments {
		if err := writeAttachmentPart(mw, a); err != nil {
			return nil, err
		}
	}

	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("close multipart: %w", err)
	}
	return buf.Bytes(), nil
}

func writeHTMLPart(mw *multipart.Writer, html string) error {
	h := textproto.MIMEHeader{}
	h.Set("Content-Type", mime.FormatMediaType("text/html", map[string]string{"charset": "utf-8"}))
	h.Set("Content-Transfer-Encoding", "quoted-printable")

	pw, err := mw.CreatePart(h)
	if err != nil {
		return fmt.Errorf("create html part: %w", err)
	}
	qw := quotedprintable.NewWriter(pw)
	if _, err := qw.Write([]byte(html)); err != nil {
		return fmt.Errorf("encode html part: %w", err)
	}
	if err := qw.Close(); err != nil {
		return fmt.Errorf("encode html part: %w", err)
	}
	return nil
}

func writeAttachmentPart(mw *multipart.Writer, a Attachment) error {
	contentType := a.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	h := textproto.MIMEHeader{}
	h.Set("Content-Type", mediaTypeWithName(contentType, a.Filename))
	h.Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": a.Filename}))
	h.Set("Content-Transfer-Encoding", "base64")

	pw, err := mw.CreatePart(h)
	if err != nil {
		return fmt.Errorf("create attachment part: %w", err)
	}
	if _, err := pw.Write(wrapBase64(a.Content)); err != nil {
		return fmt.Errorf("write attachment part: %w", err)
	}
	return nil
}

// mediaTypeWithName adds a name parameter to contentType, keeping any
// parameters it already has.
func mediaTypeWithName(contentType, filename string) string {
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return mime.FormatMediaType("application/octet-stream", map[string]string{"name": filename})
	}
	if params == nil {
		params = map[string]string{}
	}
	params["name"] = filename
	return mime.FormatMediaType(mediaType, params)
}

// wrapBase64 encodes data as base64 broken into 76 column CRLF lines.
func wrapBase64(data []byte) []byte {
	enc := base64.StdEncoding.EncodeToString(data)
	var out bytes.Buffer
	out.Grow(len(enc) + len(enc)/base64LineLen*2 + 2)
	for len(enc) > base64LineLen {
		out.WriteString(enc[:base64LineLen])
		out.WriteString(crlf)
		enc = enc[base64LineLen:]
	}
	if enc != "" {
		out.WriteString(enc)
		out.WriteString(crlf)
	}
	return out.Bytes()
}

// boundaryFor derives the multipart boundary from everything that ends up in
// the message body.
func boundaryFor(email *Email) string {
	h := sha256.New()
	for _, s := range []string{email.From, strings.Join(email.To, ","), email.Subject, email.HTML} {
		h.Write([]byte(s))
		h.Write([]byte{0})
	}
	for _, a := range email.Attachments {
		h.Write([]byte(a.Filename))
		h.Write([]byte{0})
		h.Write([]byte(a.ContentType))
		h.Write([]byte{0})
		h.Write(a.Content)
		h.Write([]byte{0})
	}
	return "mailshot_" + hex.EncodeToString(h.Sum(nil))[:40]
}

func writeHeader(buf *bytes.Buffer, name, value string) {
	buf.WriteString(name)
	buf.WriteString(": ")
	buf.WriteString(value)
	buf.WriteString(crlf)
}

// encodeHeader applies RFC 2047 Q-encoding to non-ASCII header values.
func encodeHeader(v string) string {
	for i := 0; i < len(v); i++ {
		if v[i] >= utf8.RuneSelf {
			return mime.QEncoding.Encode("utf-8", v)
		}
	}
	return v
}

// cleanHeader removes line breaks so values cannot inject headers.
func cleanHeader(v string) string {
	v = strings.NewReplacer("\r\n", " ", "\r", " ", "\n", " ").Replace(v)
	return strings.TrimSpace(v)
}

func reservedHeader(name string) bool {
	switch name {
	case "From", "To", "Subject", "Mime-Version", "Content-Type", "Content-Transfer-Encoding":
		return true
	}
	return false
}
