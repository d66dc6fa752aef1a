package storage

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// LocalStore keeps image files in a flat directory served at a fixed URL
// prefix. Stored names are uuid-based so concurrent uploads never collide.
type LocalStore struct {
	dir       string
	publicURL string
}

// NewLocalStore creates the backing directory if needed. publicURL is the
// path prefix the directory is served under, e.g. "/uploads".
func NewLocalStore(dir, publicURL string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &LocalStore{dir: dir, publicURL: publicURL}, nil
}

// Dir returns the directory backing the store, for static file serving.
func (s *LocalStore) Dir() string { return s.dir }

func (s *LocalStore) Save(_ context.Context, up Upload) (string, error) {
	name := uuid.New().String() + strings.ToLower(filepath.Ext(up.Filename))

	dst, err := os.Create(filepath.Join(s.dir, name))
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(dst, up.Reader); err != nil {
		dst.Close()
		_ = os.Remove(dst.Name())
		return "", err
	}
	if err := dst.Close(); err != nil {
		_ = os.Remove(dst.Name())
		return "", err
	}
	return name, nil
}

func (s *LocalStore) Delete(_ context.Context, filename string) error {
	// Base strips any path components a stale record could smuggle in.
	err := os.Remove(filepath.Join(s.dir, filepath.Base(filename)))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

func (s *LocalStore) Resolve(filename string) string {
	return path.Join(s.publicURL, filename)
}
