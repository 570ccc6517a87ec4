package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// fileMode is the permission of saved files.
const fileMode os.FileMode = 0o644

// FileSystem stores files under Root and serves them under BaseURL.
type FileSystem struct {
	root    string
	baseURL string
}

// NewFileSystem returns a filesystem storage rooted at root.
func NewFileSystem(root, baseURL string) (*FileSystem, error) {
	if root == "" {
		return nil, errors.New("filesystem storage: empty root")
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	return &FileSystem{root: filepath.Clean(root), baseURL: baseURL}, nil
}

// Root returns the directory files are stored under.
func (s *FileSystem) Root() string {
	return s.root
}

// Save writes r to name, creating parent directories.
func (s *FileSystem) Save(ctx context.Context, name string, r io.Reader) (string, error) {
	full, err := s.path(name)
	if err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("create directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(full), ".upload-*")
	if err != nil {
		return "", fmt.Errorf("create file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return "", fmt.Errorf("write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("write %s: %w", name, err)
	}
	// CreateTemp uses 0600; media may be served by another process.
	if err := os.Chmod(tmp.Name(), fileMode); err != nil {
		return "", fmt.Errorf("chmod %s: %w", name, err)
	}
	if err := os.Rename(tmp.Name(), full); err != nil {
		return "", fmt.Errorf("store %s: %w", name, err)
	}

	return s.URL(name), nil
}

// Open opens name for reading.
func (s *FileSystem) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	full, err := s.path(name)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(full)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	return f, nil
}

// Delete removes name.
func (s *FileSystem) Delete(ctx context.Context, name string) error {
	full, err := s.path(name)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	err = os.Remove(full)
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if err != nil {
		return fmt.Errorf("delete %s: %w", name, err)
	}
	return nil
}

// URL returns the public URL of name.
func (s *FileSystem) URL(name string) string {
	return s.baseURL + strings.TrimPrefix(path.Clean("/"+filepath.ToSlash(name)), "/")
}

func (s *FileSystem) path(name string) (string, error) {
	local := filepath.FromSlash(name)
	if name == "" || !filepath.IsLocal(local) {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return filepath.Join(s.root, local), nil
}
