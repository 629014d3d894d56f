package storage

import (
	"mime"
	"net/http"
	"path/filepath"
	"strings"
)

// MIME type constants.
const (
	MIMEOctetStream    = "application/octet-stream"
	mimeDetectionBytes = 512 // http.DetectContentType considers at most 512 bytes
)

// extensionTypes covers common attachment types that mime.TypeByExtension
// does not know on minimal systems without /etc/mime.types.
var extensionTypes = map[string]string{
	".pdf":  "application/pdf",
	".doc":  "application/msword",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".xls":  "application/vnd.ms-excel",
	".xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	".ppt":  "application/vnd.ms-powerpoint",
	".pptx": "application/vnd.openxmlformats-officedocument.presentationml.presentation",
	".csv":  "text/csv",
	".txt":  "text/plain",
	".zip":  "application/zip",
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
}

// DetectMIME detects the MIME type of a file from its leading bytes, falling
// back to the file extension when sniffing is inconclusive.
// Returns "application/octet-stream" if both fail.
func DetectMIME(name string, head []byte) string {
	sniffed := MIMEOctetStream
	if len(head) > 0 {
		sniffed = normalizeMIME(http.DetectContentType(head))
	}
	if sniffed != MIMEOctetStream && sniffed != "text/plain" {
		return sniffed
	}

	ext := strings.ToLower(filepath.Ext(name))
	if t, ok := extensionTypes[ext]; ok {
		return t
	}
	if t := mime.TypeByExtension(ext); t != "" {
		return normalizeMIME(t)
	}
	return sniffed
}

// normalizeMIME extracts the base MIME type, removing parameters like charset.
func normalizeMIME(mimeType string) string {
	base, _, _ := strings.Cut(mimeType, ";")
	return strings.ToLower(strings.TrimSpace(base))
}
