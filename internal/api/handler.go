package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/eugenenazirov/tawala/internal/storage"
	"github.com/eugenenazirov/tawala/internal/ui"
)

type contextKey string

const (
	requestIDContextKey contextKey = "requestID"
	nonceContextKey     contextKey = "cspNonce"
)

// DefaultMaxUploadBytes bounds the size of a single upload request.
const DefaultMaxUploadBytes int64 = 32 << 20

// Handler serves the API and page endpoints.
type Handler struct {
	storage  storage.Storage
	renderer *ui.Renderer
	logger   *zap.Logger

	version        string
	languageCode   string
	maxUploadBytes int64
	clock          func() time.Time
}

// HandlerOption configures Handler behaviour.
type HandlerOption func(*Handler)

// WithClock overrides the time source, primarily for tests.
func WithClock(clock func() time.Time) HandlerOption {
	return func(h *Handler) {
		h.clock = clock
	}
}

// WithVersion sets the version reported by the health endpoint.
func WithVersion(version string) HandlerOption {
	return func(h *Handler) {
		h.version = version
	}
}

// WithLanguageCode sets the lang attribute of rendered pages.
func WithLanguageCode(code string) HandlerOption {
	return func(h *Handler) {
		h.languageCode = code
	}
}

// WithMaxUploadBytes bounds the request body of uploads.
func WithMaxUploadBytes(n int64) HandlerOption {
	return func(h *Handler) {
		if n > 0 {
			h.maxUploadBytes = n
		}
	}
}

// NewHandler constructs a Handler with the provided dependencies.
func NewHandler(store storage.Storage, renderer *ui.Renderer, logger *zap.Logger, opts ...HandlerOption) *Handler {
	h := &Handler{
		storage:        store,
		renderer:       renderer,
		logger:         logger,
		languageCode:   "en",
		maxUploadBytes: DefaultMaxUploadBytes,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	resp := healthResponse{
		Status:    "ok",
		Version:   h.version,
		Timestamp: h.clock(),
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleUpload(w http.ResponseWriter, r *http.Request) {
	if h.storage == nil {
		writeError(w, http.StatusServiceUnavailable, "Storage unavailable", "no storage backend is configured")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "Upload too large", "request body exceeds the upload limit")
			return
		}
		writeError(w, http.StatusBadRequest, "Invalid request", "multipart form with a file field is required")
		return
	}
	defer file.Close()

	name := uploadName(header.Filename)
	url, err := h.storage.Save(r.Context(), name, file)
	if err != nil {
		if errors.Is(err, storage.ErrInvalidName) {
			writeError(w, http.StatusBadRequest, "Invalid file name", err.Error())
			return
		}
		h.logger.Error("store upload failed",
			zap.String("name", name),
			zap.String("request_id", requestIDFromContext(r.Context())),
			zap.Error(err),
		)
		writeInternalError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, uploadResponse{
		Name:       name,
		URL:        url,
		Size:       header.Size,
		UploadedAt: h.clock(),
	})
}

func (h *Handler) handleIndex(w http.ResponseWriter, r *http.Request) {
	if h.renderer == nil {
		http.NotFound(w, r)
		return
	}

	var buf bytes.Buffer
	ctx := map[string]any{
		ui.LanguageCodeKey: h.languageCode,
		"request_path":     r.URL.Path,
	}
	if err := h.renderer.Render(&buf, "index.html", nonceFromContext(r.Context()), ctx); err != nil {
		h.logger.Error("render page failed", zap.Error(err))
		writeInternalError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

// uploadName gives every upload a unique name that keeps a short extension
// of the client file name.
func uploadName(filename string) string {
	ext := strings.ToLower(path.Ext(path.Base(strings.ReplaceAll(filename, `\`, "/"))))
	if len(ext) > 16 || strings.ContainsAny(ext, " /") {
		ext = ""
	}
	return "uploads/" + uuid.NewString() + ext
}

func requestIDFromContext(ctx context.Context) string {
	if v := ctx.Value(requestIDContextKey); v != nil {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

func nonceFromContext(ctx context.Context) string {
	nonce, _ := ctx.Value(nonceContextKey).(string)
	return nonce
}

type healthResponse struct {
	Status    string    `json:"status"`
	Version   string    `json:"version,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

type uploadResponse struct {
	Name       string    `json:"name"`
	URL        string    `json:"url"`
	Size       int64     `json:"size"`
	UploadedAt time.Time `json:"uploadedAt"`
}

type errorResponse struct {
	Error      string `json:"error"`
	Details    string `json:"details,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if status != 0 {
		w.WriteHeader(status)
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message, details string, suggestion ...string) {
	resp := errorResponse{
		Error:   message,
		Details: details,
	}
	if len(suggestion) > 0 {
		resp.Suggestion = suggestion[0]
	}
	writeJSON(w, status, resp)
}

func writeInternalError(w http.ResponseWriter, err error) {
	writeError(w, http.StatusInternalServerError, "Internal error", err.Error())
}
