package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"
)

const (
	schemeS3   = "s3"
	schemeFile = "file"
)

// Mux routes keys to a backend by URI scheme.
// "s3://bucket/key" goes to S3, "file:///path" and plain paths go to the
// local filesystem.
type Mux struct {
	local Storage
	s3    *S3Storage
}

// NewMux creates a router over the given backends.
// s3 may be nil when no bucket access is configured.
func NewMux(local Storage, s3 *S3Storage) *Mux {
	if local == nil {
		local = NewLocal("")
	}
	return &Mux{local: local, s3: s3}
}

// Open opens the file addressed by key.
func (m *Mux) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	backend, k, err := m.route(key)
	if err != nil {
		return nil, err
	}
	return backend.Open(ctx, k)
}

// Stat returns metadata for the file addressed by key.
// The returned FileInfo keeps the original key.
func (m *Mux) Stat(ctx context.Context, key string) (*FileInfo, error) {
	backend, k, err := m.route(key)
	if err != nil {
		return nil, err
	}
	info, err := backend.Stat(ctx, k)
	if err != nil {
		return nil, err
	}
	info.Key = key
	return info, nil
}

func (m *Mux) route(key string) (Storage, string, error) {
	scheme, rest, ok := strings.Cut(key, "://")
	if !ok {
		return m.local, key, nil
	}

	switch strings.ToLower(scheme) {
	case schemeFile:
		return m.local, rest, nil
	case schemeS3:
		if m.s3 == nil {
			return nil, "", fmt.Errorf("%w: s3", ErrNotConfigured)
		}
		u, err := url.Parse(key)
		if err != nil || u.Host == "" {
			return nil, "", fmt.Errorf("%w: %s", ErrInvalidKey, key)
		}
		objectKey := strings.TrimPrefix(u.Path, "/")
		if objectKey == "" {
			return nil, "", fmt.Errorf("%w: %s", ErrInvalidKey, key)
		}
		return m.s3.WithBucket(u.Host), objectKey, nil
	default:
		return nil, "", fmt.Errorf("%w: unsupported scheme %q", ErrInvalidKey, scheme)
	}
}

var _ Storage = (*Mux)(nil)
