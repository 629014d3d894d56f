package storage

import (
	"context"
	"io"
)

// Storage is the read side of a file store.
type Storage interface {
	// Open returns a reader for the file stored under key.
	// The caller is responsible for closing the returned reader.
	Open(ctx context.Context, key string) (io.ReadCloser, error)

	// Stat returns file metadata without reading the whole file.
	Stat(ctx context.Context, key string) (*FileInfo, error)
}

// FileInfo contains metadata about a stored file.
type FileInfo struct {
	// Key is the key the file was requested with.
	Key string

	// Name is the base name of the file, suitable for Content-Disposition.
	Name string

	// ContentType is the detected or stored MIME type.
	ContentType string

	// Size is the file size in bytes.
	Size int64
}
