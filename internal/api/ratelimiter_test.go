package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/eugenenazirov/tawala/internal/config"
)

type staticLimiter struct {
	allow bool
	wait  time.Duration
}

func (s *staticLimiter) Admit() (bool, time.Duration) {
	return s.allow, s.wait
}

func TestRateLimitMiddlewareRejectsAndLogsRequestID(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	limited := rateLimitMiddleware(&staticLimiter{wait: 2500 * time.Millisecond}, zap.New(core), http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
		t.Fatalf("handler should not execute when rate limited")
	}))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set("X-Request-ID", "req-42")
	requestIDMiddleware(limited).ServeHTTP(rec, req)

	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
	if got := rec.Header().Get("Retry-After"); got != "3" {
		t.Fatalf("expected Retry-After 3, got %q", got)
	}

	entries := logs.FilterMessage("request rate limited").All()
	if len(entries) != 1 {
		t.Fatalf("expected one rate limit log entry, got %d", len(entries))
	}
	if got := entries[0].ContextMap()["request_id"]; got != "req-42" {
		t.Fatalf("expected request_id req-42 in log, got %v", got)
	}
}

func TestRateLimitMiddlewarePassesWhenLimiterAllows(t *testing.T) {
	var called bool
	middleware := rateLimitMiddleware(&staticLimiter{allow: true}, nil, http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
		called = true
	}))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	middleware.ServeHTTP(rec, req)

	if !called {
		t.Fatalf("expected handler to execute when limiter allows")
	}
}

func TestTokenBucketFromServerSettings(t *testing.T) {
	bucket := newTokenBucket(config.ServerConfig{RateLimitRPS: 1, RateLimitBurst: 2})

	for i := 0; i < 2; i++ {
		if ok, _ := bucket.Admit(); !ok {
			t.Fatalf("expected request %d within burst to be admitted", i+1)
		}
	}
	ok, wait := bucket.Admit()
	if ok {
		t.Fatalf("expected request beyond burst to be rejected")
	}
	if wait <= 0 || wait > time.Second {
		t.Fatalf("expected wait in (0, 1s], got %s", wait)
	}
}

func TestTokenBucketUsesDefaults(t *testing.T) {
	bucket := newTokenBucket(config.ServerConfig{})
	if ok, _ := bucket.Admit(); !ok {
		t.Fatalf("expected first request to be admitted")
	}
	if ok, _ := bucket.Admit(); ok {
		t.Fatalf("expected burst of one")
	}
}

func TestRetryAfterRoundsUp(t *testing.T) {
	cases := map[time.Duration]string{
		0:                       "1",
		300 * time.Millisecond:  "1",
		time.Second:             "1",
		1200 * time.Millisecond: "2",
	}
	for wait, want := range cases {
		if got := retryAfter(wait); got != want {
			t.Fatalf("retryAfter(%s) = %q, want %q", wait, got, want)
		}
	}
}
