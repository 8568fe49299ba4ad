// Package imagestore persists listing images and guards what gets stored:
// bounded size, an image MIME allowlist and downscaling of oversized
// uploads.
package imagestore

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
)

// Store saves an image under name and returns the reference to keep on the
// listing (a public URL for S3, a relative path for local disk).
type Store interface {
	Save(ctx context.Context, name, contentType string, data []byte) (string, error)
}

// LocalStore writes images under a base directory. It is the fallback when
// no S3 bucket is configured.
type LocalStore struct {
	BaseDir string
}

func NewLocalStore(baseDir string) (*LocalStore, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("create image dir %s: %w", baseDir, err)
	}
	return &LocalStore{BaseDir: baseDir}, nil
}

func (s *LocalStore) Save(_ context.Context, name, _ string, data []byte) (string, error) {
	name = filepath.Base(name)
	if err := os.WriteFile(filepath.Join(s.BaseDir, name), data, 0644); err != nil {
		return "", fmt.Errorf("write image: %w", err)
	}
	return path.Join("media", name), nil
}
