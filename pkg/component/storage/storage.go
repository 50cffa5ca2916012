// Package storage provides blob storage for uploaded course files.
package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Object describes a stored blob.
type Object struct {
	// Key identifies the blob within the store.
	Key string
	// URL is the public URL the blob can be fetched from.
	URL string
	// Size is the stored size in bytes.
	Size int64
}

// Store is the blob storage interface consumed by the upload handler.
type Store interface {
	// Save writes a blob under a fresh key derived from fileName and
	// returns its public location.
	Save(ctx context.Context, fileName string, r io.Reader) (*Object, error)

	// Remove deletes a stored blob. Removing a missing key is not an
	// error.
	Remove(ctx context.Context, key string) error
}

// LocalStore keeps blobs on the local filesystem, served under a
// public base URL.
type LocalStore struct {
	dir     string
	baseURL string
}

// NewLocalStore creates a filesystem-backed store rooted at dir. Blobs
// are addressable at baseURL/<key>.
func NewLocalStore(dir, baseURL string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage dir: %w", err)
	}
	return &LocalStore{
		dir:     dir,
		baseURL: strings.TrimRight(baseURL, "/"),
	}, nil
}

// Dir returns the root directory blobs are stored under.
func (s *LocalStore) Dir() string {
	return s.dir
}

// Save writes the blob to disk under a random key that keeps the
// original extension, so extraction can still dispatch on file type.
func (s *LocalStore) Save(ctx context.Context, fileName string, r io.Reader) (*Object, error) {
	key := uuid.NewString() + strings.ToLower(filepath.Ext(fileName))

	f, err := os.Create(filepath.Join(s.dir, key))
	if err != nil {
		return nil, fmt.Errorf("failed to create blob: %w", err)
	}
	defer f.Close()

	size, err := io.Copy(f, r)
	if err != nil {
		_ = os.Remove(f.Name())
		return nil, fmt.Errorf("failed to write blob: %w", err)
	}

	return &Object{
		Key:  key,
		URL:  s.baseURL + "/" + key,
		Size: size,
	}, nil
}

// Remove deletes a blob by key. Path separators in keys are rejected
// so callers cannot reach outside the store directory.
func (s *LocalStore) Remove(ctx context.Context, key string) error {
	if strings.ContainsAny(key, `/\`) {
		return fmt.Errorf("invalid blob key %q", key)
	}
	err := os.Remove(filepath.Join(s.dir, key))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
