// Package storage persists uploaded media and resolves public URLs for it.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Buckets accepted by the object store.
const (
	BucketAvatars  = "avatars"
	BucketListings = "listings"
)

// ErrUnknownBucket is returned for a bucket outside the fixed set.
var ErrUnknownBucket = errors.New("unknown storage bucket")

// ValidBucket reports whether name is one of the known buckets.
func ValidBucket(name string) bool {
	return name == BucketAvatars || name == BucketListings
}

// ObjectStore stores named objects in buckets and returns their public URL.
type ObjectStore interface {
	Put(ctx context.Context, bucket, name string, r io.Reader) (string, error)
	Delete(ctx context.Context, bucket, name string) error
	URL(bucket, name string) string
}

// LocalStore keeps objects on disk under root/<bucket>/<name>. The files are
// expected to be served at baseURL/<bucket>/<name>.
type LocalStore struct {
	root    string
	baseURL string
}

// NewLocalStore returns a disk-backed ObjectStore.
func NewLocalStore(root, baseURL string) *LocalStore {
	return &LocalStore{root: root, baseURL: strings.TrimRight(baseURL, "/")}
}

// Root is the directory objects are written under.
func (s *LocalStore) Root() string { return s.root }

func (s *LocalStore) path(bucket, name string) (string, error) {
	if !ValidBucket(bucket) {
		return "", fmt.Errorf("%w: %q", ErrUnknownBucket, bucket)
	}
	clean := filepath.Base(filepath.Clean("/" + name))
	if clean == "/" || clean == "." || clean != name {
		return "", fmt.Errorf("invalid object name %q", name)
	}
	return filepath.Join(s.root, bucket, clean), nil
}

// Put writes r to a temporary file and renames it into place.
func (s *LocalStore) Put(ctx context.Context, bucket, name string, r io.Reader) (string, error) {
	dst, err := s.path(bucket, name)
	if err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o750); err != nil {
		return "", fmt.Errorf("create bucket dir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dst), ".upload-*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := io.Copy(tmp, r); err != nil {
		_ = tmp.Close()
		return "", fmt.Errorf("write object: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close object: %w", err)
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		return "", fmt.Errorf("commit object: %w", err)
	}
	return s.URL(bucket, name), nil
}

// Delete removes an object. Missing objects are not an error.
func (s *LocalStore) Delete(_ context.Context, bucket, name string) error {
	p, err := s.path(bucket, name)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// URL returns the public URL of an object.
func (s *LocalStore) URL(bucket, name string) string {
	return s.baseURL + "/" + bucket + "/" + name
}
