package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// DefaultBlobAPIURL is the Vercel Blob REST endpoint.
const DefaultBlobAPIURL = "https://blob.vercel-storage.com"

const blobAPIVersion = "7"

// BlobConfig configures a VercelBlob client.
type BlobConfig struct {
	APIURL string
	// PublicURL is the base URL blobs are served from. It defaults to the
	// store's public host derived from the token.
	PublicURL  string
	HTTPClient *http.Client
}

// VercelBlob stores files in a Vercel Blob store.
type VercelBlob struct {
	token     string
	apiURL    string
	publicURL string
	client    *http.Client
}

// NewVercelBlob returns a client authenticated with a read-write token of
// the form vercel_blob_rw_<store id>_<secret>.
func NewVercelBlob(token string, cfg BlobConfig) (*VercelBlob, error) {
	if token == "" {
		return nil, errors.New("vercel blob storage: empty token")
	}
	if cfg.APIURL == "" {
		cfg.APIURL = DefaultBlobAPIURL
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = http.DefaultClient
	}
	if cfg.PublicURL == "" {
		storeID, err := storeIDFromToken(token)
		if err != nil {
			return nil, err
		}
		cfg.PublicURL = "https://" + strings.ToLower(storeID) + ".public.blob.vercel-storage.com"
	}

	return &VercelBlob{
		token:     token,
		apiURL:    strings.TrimSuffix(cfg.APIURL, "/"),
		publicURL: strings.TrimSuffix(cfg.PublicURL, "/"),
		client:    cfg.HTTPClient,
	}, nil
}

func storeIDFromToken(token string) (string, error) {
	parts := strings.Split(token, "_")
	if len(parts) < 5 || parts[0] != "vercel" || parts[1] != "blob" || parts[3] == "" {
		return "", errors.New("vercel blob storage: malformed token")
	}
	return parts[3], nil
}

type putBlobResponse struct {
	URL      string `json:"url"`
	Pathname string `json:"pathname"`
}

type deleteBlobRequest struct {
	URLs []string `json:"urls"`
}

type blobErrorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Save uploads r as a public blob at name and returns its URL.
func (s *VercelBlob) Save(ctx context.Context, name string, r io.Reader) (string, error) {
	pathname, err := blobPathname(name)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, s.apiURL+"/"+pathname, r)
	if err != nil {
		return "", fmt.Errorf("build upload request: %w", err)
	}
	s.authorize(req)
	req.Header.Set("x-add-random-suffix", "0")

	var out putBlobResponse
	if err := s.do(req, http.StatusOK, &out); err != nil {
		return "", fmt.Errorf("upload %s: %w", name, err)
	}
	if out.URL == "" {
		return s.URL(name), nil
	}
	return out.URL, nil
}

// Open downloads the public blob at name.
func (s *VercelBlob) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	if _, err := blobPathname(name); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL(name), nil)
	if err != nil {
		return nil, fmt.Errorf("build download request: %w", err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", name, err)
	}
	switch resp.StatusCode {
	case http.StatusOK:
		return resp.Body, nil
	case http.StatusNotFound:
		resp.Body.Close()
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	default:
		resp.Body.Close()
		return nil, fmt.Errorf("download %s: unexpected status %d", name, resp.StatusCode)
	}
}

// Delete removes the blob at name.
func (s *VercelBlob) Delete(ctx context.Context, name string) error {
	if _, err := blobPathname(name); err != nil {
		return err
	}

	body, err := json.Marshal(deleteBlobRequest{URLs: []string{s.URL(name)}})
	if err != nil {
		return fmt.Errorf("encode delete request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.apiURL+"/delete", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build delete request: %w", err)
	}
	s.authorize(req)
	req.Header.Set("Content-Type", "application/json")

	if err := s.do(req, http.StatusOK, nil); err != nil {
		return fmt.Errorf("delete %s: %w", name, err)
	}
	return nil
}

// URL returns the public URL of name.
func (s *VercelBlob) URL(name string) string {
	pathname, err := blobPathname(name)
	if err != nil {
		return ""
	}
	return s.publicURL + "/" + pathname
}

func (s *VercelBlob) authorize(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+s.token)
	req.Header.Set("x-api-version", blobAPIVersion)
}

func (s *VercelBlob) do(req *http.Request, wantStatus int, out any) error {
	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != wantStatus {
		var apiErr blobErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err == nil && apiErr.Error.Message != "" {
			return fmt.Errorf("status %d: %s", resp.StatusCode, apiErr.Error.Message)
		}
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// blobPathname rejects names that are empty or contain dot segments and
// escapes each segment for use in a URL.
func blobPathname(name string) (string, error) {
	trimmed := strings.Trim(name, "/")
	if trimmed == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	segments := strings.Split(trimmed, "/")
	for i, seg := range segments {
		if seg == "" || seg == "." || seg == ".." {
			return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
		}
		segments[i] = url.PathEscape(seg)
	}
	return strings.Join(segments, "/"), nil
}
