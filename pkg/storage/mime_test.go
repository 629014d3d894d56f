package storage

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDetectMIME(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		filename string
		head     []byte
		want     string
	}{
		{"pdf magic bytes", "brochure.pdf", []byte("%PDF-1.7\n"), "application/pdf"},
		{"pdf magic without extension", "brochure", []byte("%PDF-1.7\n"), "application/pdf"},
		{"png magic bytes", "logo.bin", []byte("\x89PNG\r\n\x1a\n"), "image/png"},
		{"csv by extension", "list.csv", []byte("a,b\n1,2\n"), "text/csv"},
		{"docx by extension", "offer.docx", []byte("PK\x03\x04"), "application/zip"},
		{"no head uses extension", "offer.pdf", nil, "application/pdf"},
		{"unknown", "blob", nil, MIMEOctetStream},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.want, DetectMIME(tt.filename, tt.head))
		})
	}
}

func TestNormalizeMIME(t *testing.T) {
	t.Parallel()

	require.Equal(t, "text/plain", normalizeMIME("text/plain; charset=utf-8"))
	require.Equal(t, "image/jpeg", normalizeMIME(" IMAGE/JPEG "))
	require.Empty(t, normalizeMIME(""))
}
