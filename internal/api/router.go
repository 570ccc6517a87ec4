package api

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/eugenenazirov/tawala/internal/config"
	"github.com/eugenenazirov/tawala/internal/settings"
)

// RouterOption configures the behaviour of NewRouter.
type RouterOption func(*routerConfig)

// WithLogging controls whether access logs are emitted.
func WithLogging(enabled bool) RouterOption {
	return func(cfg *routerConfig) {
		cfg.enableLogging = enabled
	}
}

// WithRateLimiter overrides the request limiter of the rate_limit middleware.
func WithRateLimiter(limiter requestLimiter) RouterOption {
	return func(cfg *routerConfig) {
		cfg.rateLimiter = limiter
	}
}

// WithRateLimit sizes the token bucket from the server settings. A
// non-positive rate disables rate limiting.
func WithRateLimit(server config.ServerConfig) RouterOption {
	return func(cfg *routerConfig) {
		if server.RateLimitRPS <= 0 {
			cfg.rateLimiter = nil
			return
		}
		cfg.rateLimiter = newTokenBucket(server)
	}
}

// WithMiddleware sets the middleware chain by name, outermost first.
func WithMiddleware(names []string) RouterOption {
	return func(cfg *routerConfig) {
		cfg.middleware = append([]string(nil), names...)
	}
}

// WithComponents selects the handler groups to mount: settings.AppAPI for the
// JSON endpoints and settings.AppUI for the index page. Other names are left
// to the caller.
func WithComponents(names []string) RouterOption {
	return func(cfg *routerConfig) {
		cfg.components = append([]string(nil), names...)
	}
}

// WithAllowedHosts sets the Host header rules of the hosts middleware.
func WithAllowedHosts(hosts []string) RouterOption {
	return func(cfg *routerConfig) {
		cfg.allowedHosts = append([]string(nil), hosts...)
	}
}

// WithSSLRedirect makes the security middleware redirect plain HTTP to HTTPS.
func WithSSLRedirect(enabled bool) RouterOption {
	return func(cfg *routerConfig) {
		cfg.sslRedirect = enabled
	}
}

// WithCSP sets the policy of the csp middleware.
func WithCSP(policy settings.CSPPolicy) RouterOption {
	return func(cfg *routerConfig) {
		cfg.csp = policy
	}
}

// WithMount registers an extra handler under pattern, such as a file server.
func WithMount(pattern string, h http.Handler) RouterOption {
	return func(cfg *routerConfig) {
		cfg.mounts = append(cfg.mounts, mount{pattern: pattern, handler: h})
	}
}

type mount struct {
	pattern string
	handler http.Handler
}

type routerConfig struct {
	enableLogging bool
	logger        *zap.Logger
	rateLimiter   requestLimiter
	middleware    []string
	components    []string
	allowedHosts  []string
	sslRedirect   bool
	csp           settings.CSPPolicy
	mounts        []mount
}

// DefaultMiddleware is the chain used when WithMiddleware is not given.
func DefaultMiddleware() []string {
	return []string{
		settings.MiddlewareRequestID,
		settings.MiddlewareRateLimit,
		settings.MiddlewareLogging,
		settings.MiddlewareRecovery,
		settings.MiddlewareCORS,
	}
}

// NewRouter creates an HTTP router wrapped in the configured middleware. An
// unknown middleware name is an error.
func NewRouter(handler *Handler, logger *zap.Logger, opts ...RouterOption) (http.Handler, error) {
	cfg := routerConfig{
		enableLogging: true,
		logger:        logger,
		rateLimiter:   newTokenBucket(config.ServerConfig{RateLimitRPS: defaultRateLimitRPS, RateLimitBurst: defaultRateLimitBurst}),
		middleware:    DefaultMiddleware(),
		components:    []string{settings.AppAPI, settings.AppUI},
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	mux := http.NewServeMux()
	for _, component := range cfg.components {
		switch component {
		case settings.AppAPI:
			mux.Handle("GET /api/health", http.HandlerFunc(handler.handleHealth))
			mux.Handle("POST /api/uploads", http.HandlerFunc(handler.handleUpload))
		case settings.AppUI:
			mux.Handle("GET /{$}", http.HandlerFunc(handler.handleIndex))
		}
	}
	for _, m := range cfg.mounts {
		mux.Handle(m.pattern, m.handler)
	}

	var root http.Handler = mux
	for i := len(cfg.middleware) - 1; i >= 0; i-- {
		wrapped, err := cfg.wrap(cfg.middleware[i], root)
		if err != nil {
			return nil, err
		}
		root = wrapped
	}

	return root, nil
}

func (cfg *routerConfig) wrap(name string, next http.Handler) (http.Handler, error) {
	switch name {
	case settings.MiddlewareSecurity:
		return securityMiddleware(cfg.sslRedirect, cfg.allowedHosts, next), nil
	case settings.MiddlewareHosts:
		return hostsMiddleware(cfg.allowedHosts, next), nil
	case settings.MiddlewareCSP:
		return cspMiddleware(cfg.csp, next), nil
	case settings.MiddlewareRequestID:
		return requestIDMiddleware(next), nil
	case settings.MiddlewareRateLimit:
		return rateLimitMiddleware(cfg.rateLimiter, cfg.logger, next), nil
	case settings.MiddlewareLogging:
		if !cfg.enableLogging {
			return next, nil
		}
		return loggingMiddleware(cfg.logger, next), nil
	case settings.MiddlewareRecovery:
		return recoveryMiddleware(cfg.logger, next), nil
	case settings.MiddlewareCORS:
		return corsMiddleware(next), nil
	default:
		return nil, fmt.Errorf("unknown middleware %q", name)
	}
}

// securityMiddleware redirects plain HTTP to HTTPS when sslRedirect is set.
// The redirect target is built from the Host header, so the host is checked
// against allowed first whatever the position of the hosts middleware.
func securityMiddleware(sslRedirect bool, allowed []string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if sslRedirect && !isSecure(r) {
			if !hostAllowed(r.Host, allowed) {
				writeInvalidHost(w, r)
				return
			}
			target := "https://" + r.Host + r.URL.RequestURI()
			http.Redirect(w, r, target, http.StatusMovedPermanently)
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "same-origin")
		next.ServeHTTP(w, r)
	})
}

func isSecure(r *http.Request) bool {
	return r.TLS != nil || strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
}

func hostsMiddleware(allowed []string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !hostAllowed(r.Host, allowed) {
			writeInvalidHost(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeInvalidHost(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusBadRequest, "Invalid host", fmt.Sprintf("host %q is not allowed", r.Host))
}

// hostAllowed matches host (port stripped) against exact names, "*" and
// ".domain" patterns that also match every subdomain.
func hostAllowed(host string, allowed []string) bool {
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	host = strings.ToLower(strings.Trim(host, "[]"))
	if host == "" {
		return false
	}

	for _, pattern := range allowed {
		pattern = strings.ToLower(strings.Trim(strings.TrimSpace(pattern), "[]"))
		switch {
		case pattern == "*":
			return true
		case strings.HasPrefix(pattern, "."):
			if host == pattern[1:] || strings.HasSuffix(host, pattern) {
				return true
			}
		case host == pattern:
			return true
		}
	}
	return false
}

func cspMiddleware(policy settings.CSPPolicy, next http.Handler) http.Handler {
	if len(policy) == 0 {
		return next
	}
	withNonce := policy.UsesNonce()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var nonce string
		if withNonce {
			nonce = generateNonce()
		}
		w.Header().Set("Content-Security-Policy", policy.Header(nonce))
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), nonceContextKey, nonce)))
	})
}

func generateNonce() string {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return ""
	}
	return base64.RawURLEncoding.EncodeToString(buf)
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type,Authorization,X-Requested-With")
		w.Header().Set("Access-Control-Expose-Headers", "X-Request-ID")
		w.Header().Set("Access-Control-Max-Age", "86400")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func loggingMiddleware(logger *zap.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &responseRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)

		logger.Info("request completed",
			zap.String("method", r.Method),
			zap.String("host", r.Host),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", requestIDFromContext(r.Context())),
		)
	})
}

func recoveryMiddleware(logger *zap.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				logger.Error("panic recovered",
					zap.Any("error", rec),
					zap.String("request_id", requestIDFromContext(r.Context())),
				)
				writeError(w, http.StatusInternalServerError, "Internal error", "unexpected server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := strings.TrimSpace(r.Header.Get("X-Request-ID"))
		if requestID == "" {
			requestID = uuid.NewString()
		}
		ctx := contextWithRequestID(r.Context(), requestID)

		w.Header().Set("X-Request-ID", requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func contextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDContextKey, id)
}

type responseRecorder struct {
	http.ResponseWriter
	status int
}

func (r *responseRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
