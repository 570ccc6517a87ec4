package api

import (
	"math"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/eugenenazirov/tawala/internal/config"
)

const (
	defaultRateLimitRPS   = 25
	defaultRateLimitBurst = 50
)

// requestLimiter admits a request or reports how long the client should wait
// before the next one would be admitted.
type requestLimiter interface {
	Admit() (bool, time.Duration)
}

type tokenBucket struct {
	limiter *rate.Limiter
}

// newTokenBucket builds the limiter of the rate_limit middleware from the
// server.rate_limit_* settings. Zero values fall back to one request per
// second with a burst of one.
func newTokenBucket(server config.ServerConfig) *tokenBucket {
	rps, burst := server.RateLimitRPS, server.RateLimitBurst
	if rps <= 0 {
		rps = 1
	}
	if burst <= 0 {
		burst = 1
	}
	return &tokenBucket{limiter: rate.NewLimiter(rate.Limit(rps), burst)}
}

func (b *tokenBucket) Admit() (bool, time.Duration) {
	if b == nil || b.limiter == nil {
		return true, 0
	}
	now := time.Now()
	res := b.limiter.ReserveN(now, 1)
	if !res.OK() {
		return false, time.Second
	}
	if delay := res.DelayFrom(now); delay > 0 {
		// Not taking the token; the request is rejected.
		res.CancelAt(now)
		return false, delay
	}
	return true, 0
}

// retryAfter renders wait as whole seconds, never less than one.
func retryAfter(wait time.Duration) string {
	secs := int(math.Ceil(wait.Seconds()))
	if secs < 1 {
		secs = 1
	}
	return strconv.Itoa(secs)
}

func rateLimitMiddleware(limiter requestLimiter, logger *zap.Logger, next http.Handler) http.Handler {
	if limiter == nil {
		return next
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ok, wait := limiter.Admit()
		if ok {
			next.ServeHTTP(w, r)
			return
		}

		logger.Warn("request rate limited",
			zap.String("request_id", requestIDFromContext(r.Context())),
			zap.String("path", r.URL.Path),
			zap.Duration("retry_after", wait),
		)
		w.Header().Set("Retry-After", retryAfter(wait))
		writeError(w, http.StatusTooManyRequests, "Too many requests", "rate limit exceeded, please retry shortly")
	})
}
