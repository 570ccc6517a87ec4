// Package storage stores user-uploaded files behind a single interface with a
// local filesystem implementation and a Vercel Blob implementation.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/eugenenazirov/tawala/internal/settings"
)

var (
	// ErrInvalidName indicates a name that is empty or escapes the storage root.
	ErrInvalidName = errors.New("invalid file name")
	// ErrNotFound indicates the named file does not exist.
	ErrNotFound = errors.New("file not found")
)

// Storage saves, opens and deletes named files and reports their public URL.
type Storage interface {
	Save(ctx context.Context, name string, r io.Reader) (string, error)
	Open(ctx context.Context, name string) (io.ReadCloser, error)
	Delete(ctx context.Context, name string) error
	URL(name string) string
}

// Option configures New.
type Option func(*options)

type options struct {
	httpClient *http.Client
	blobAPIURL string
}

// WithHTTPClient sets the client used by remote backends.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) {
		o.httpClient = c
	}
}

// WithBlobAPIURL overrides the Vercel Blob API endpoint (primarily for tests).
func WithBlobAPIURL(u string) Option {
	return func(o *options) {
		o.blobAPIURL = u
	}
}

// New selects the default storage backend of m.
func New(m *settings.Materialized, opts ...Option) (Storage, error) {
	o := options{httpClient: http.DefaultClient, blobAPIURL: DefaultBlobAPIURL}
	for _, opt := range opts {
		opt(&o)
	}

	backend := m.DefaultStorage()
	switch backend.Backend {
	case settings.StorageFileSystem:
		root, baseURL := backend.Options["location"], backend.Options["base_url"]
		if m.Media != nil {
			root, baseURL = m.Media.Root, m.Media.URL
		}
		return NewFileSystem(root, baseURL)
	case settings.StorageVercelBlob:
		return NewVercelBlob(m.StorageToken, BlobConfig{
			APIURL:     o.blobAPIURL,
			HTTPClient: o.httpClient,
		})
	default:
		return nil, fmt.Errorf("create storage: %w", &settings.UnsupportedBackendError{Kind: "storage", Backend: backend.Backend, Accepted: []string{settings.StorageFileSystem, settings.StorageVercelBlob}})
	}
}
