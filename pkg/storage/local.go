package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// Local reads files from the local filesystem.
// Relative keys are resolved against Root; an empty Root means the
// working directory.
type Local struct {
	Root string
}

// NewLocal creates a filesystem-backed storage rooted at root.
func NewLocal(root string) *Local {
	return &Local{Root: root}
}

// Open opens the file for reading.
func (l *Local) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	f, err := l.openFile(ctx, key)
	if err != nil {
		return nil, err
	}
	return f, nil
}

func (l *Local) openFile(ctx context.Context, key string) (*os.File, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path, err := l.path(key)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, wrapFSError(err, key)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%w: %s", ErrNotRegular, key)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, wrapFSError(err, key)
	}
	return f, nil
}

// Stat returns file metadata. The content type is sniffed from the first
// bytes of the file.
func (l *Local) Stat(ctx context.Context, key string) (*FileInfo, error) {
	f, err := l.openFile(ctx, key)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, errors.Join(ErrReadFailed, err)
	}

	head := make([]byte, mimeDetectionBytes)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, errors.Join(ErrReadFailed, err)
	}

	return &FileInfo{
		Key:         key,
		Name:        filepath.Base(key),
		ContentType: DetectMIME(key, head[:n]),
		Size:        info.Size(),
	}, nil
}

func (l *Local) path(key string) (string, error) {
	if key == "" {
		return "", ErrInvalidKey
	}
	if filepath.IsAbs(key) || l.Root == "" {
		return filepath.Clean(key), nil
	}
	return filepath.Join(l.Root, key), nil
}

func wrapFSError(err error, key string) error {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("%w: %s", ErrNotFound, key)
	case errors.Is(err, fs.ErrPermission):
		return fmt.Errorf("%w: %s", ErrAccessDenied, key)
	default:
		return fmt.Errorf("%w: %s: %v", ErrReadFailed, key, err)
	}
}

var _ Storage = (*Local)(nil)
