package storage

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/eugenenazirov/tawala/internal/settings"
)

const testToken = "vercel_blob_rw_AbC123_secret"

type fakeBlobStore struct {
	mu    sync.Mutex
	blobs map[string]string
	srv   *httptest.Server
}

func newFakeBlobStore(t *testing.T) *fakeBlobStore {
	t.Helper()
	f := &fakeBlobStore{blobs: map[string]string{}}
	f.srv = httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeBlobStore) serve(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	authorized := r.Header.Get("Authorization") == "Bearer "+testToken
	switch {
	case r.Method == http.MethodPut:
		if !authorized {
			w.WriteHeader(http.StatusForbidden)
			_, _ = io.WriteString(w, `{"error":{"code":"forbidden","message":"Access denied"}}`)
			return
		}
		body, _ := io.ReadAll(r.Body)
		f.blobs[r.URL.Path] = string(body)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"url":      f.srv.URL + r.URL.Path,
			"pathname": strings.TrimPrefix(r.URL.Path, "/"),
		})
	case r.Method == http.MethodPost && r.URL.Path == "/delete":
		if !authorized {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		var req deleteBlobRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		for _, u := range req.URLs {
			delete(f.blobs, strings.TrimPrefix(u, f.srv.URL))
		}
		w.WriteHeader(http.StatusOK)
	case r.Method == http.MethodGet:
		body, ok := f.blobs[r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = io.WriteString(w, body)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func TestVercelBlobRoundTrip(t *testing.T) {
	t.Parallel()

	fake := newFakeBlobStore(t)
	store, err := NewVercelBlob(testToken, BlobConfig{APIURL: fake.srv.URL, PublicURL: fake.srv.URL, HTTPClient: fake.srv.Client()})
	if err != nil {
		t.Fatalf("NewVercelBlob: %v", err)
	}
	ctx := context.Background()

	url, err := store.Save(ctx, "docs/report.txt", strings.NewReader("hello"))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if url != fake.srv.URL+"/docs/report.txt" {
		t.Fatalf("unexpected url: %s", url)
	}

	rc, err := store.Open(ctx, "docs/report.txt")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	data, _ := io.ReadAll(rc)
	rc.Close()
	if string(data) != "hello" {
		t.Fatalf("unexpected content: %q", data)
	}

	if err := store.Delete(ctx, "docs/report.txt"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := store.Open(ctx, "docs/report.txt"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestVercelBlobReportsAPIErrors(t *testing.T) {
	t.Parallel()

	fake := newFakeBlobStore(t)
	store, err := NewVercelBlob("vercel_blob_rw_Other_secret", BlobConfig{APIURL: fake.srv.URL, PublicURL: fake.srv.URL})
	if err != nil {
		t.Fatalf("NewVercelBlob: %v", err)
	}

	_, err = store.Save(context.Background(), "a.txt", strings.NewReader("x"))
	if err == nil || !strings.Contains(err.Error(), "Access denied") {
		t.Fatalf("expected access denied error, got %v", err)
	}
}

func TestVercelBlobPublicURLFromToken(t *testing.T) {
	t.Parallel()

	store, err := NewVercelBlob(testToken, BlobConfig{})
	if err != nil {
		t.Fatalf("NewVercelBlob: %v", err)
	}
	if got := store.URL("a b.txt"); got != "https://abc123.public.blob.vercel-storage.com/a%20b.txt" {
		t.Fatalf("unexpected url: %s", got)
	}

	if _, err := NewVercelBlob("not-a-token", BlobConfig{}); err == nil {
		t.Fatalf("expected malformed token error")
	}
	if _, err := store.Save(context.Background(), "../x", strings.NewReader("")); !errors.Is(err, ErrInvalidName) {
		t.Fatalf("expected ErrInvalidName, got %v", err)
	}
}

func TestNewSelectsBackend(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	fsSettings := &settings.Materialized{
		Storages: map[string]settings.StorageBackend{
			settings.DefaultStorage: {Backend: settings.StorageFileSystem},
		},
		Media: &settings.MediaSettings{URL: settings.MediaURL, Root: root},
	}
	s, err := New(fsSettings)
	if err != nil {
		t.Fatalf("New filesystem: %v", err)
	}
	if fs, ok := s.(*FileSystem); !ok || fs.Root() != root {
		t.Fatalf("expected filesystem storage at %s, got %#v", root, s)
	}

	blobSettings := &settings.Materialized{
		Storages: map[string]settings.StorageBackend{
			settings.DefaultStorage: {Backend: settings.StorageVercelBlob},
		},
		StorageToken: testToken,
	}
	if s, err := New(blobSettings); err != nil {
		t.Fatalf("New blob: %v", err)
	} else if _, ok := s.(*VercelBlob); !ok {
		t.Fatalf("expected blob storage, got %#v", s)
	}

	unknown := &settings.Materialized{Storages: map[string]settings.StorageBackend{}}
	if _, err := New(unknown); !errors.Is(err, settings.ErrUnsupportedBackend) {
		t.Fatalf("expected ErrUnsupportedBackend, got %v", err)
	}
}
