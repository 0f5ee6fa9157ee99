package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

type stubLimiter struct {
	max  int
	hits map[string]int
	err  error
}

func newStubLimiter(max int) *stubLimiter {
	return &stubLimiter{max: max, hits: make(map[string]int)}
}

func (l *stubLimiter) Allow(_ context.Context, key string) (bool, int, time.Duration, error) {
	if l.err != nil {
		return true, l.max, 0, l.err
	}
	l.hits[key]++
	remaining := l.max - l.hits[key]
	if remaining < 0 {
		remaining = 0
	}
	return l.hits[key] <= l.max, remaining, 30 * time.Second, nil
}

func (l *stubLimiter) Limit() int { return l.max }

func serveLimited(t *testing.T, l Limiter) *echo.Echo {
	t.Helper()
	e := echo.New()
	e.POST("/auth/login", func(c echo.Context) error { return c.NoContent(http.StatusOK) }, RateLimit(l, zerolog.Nop()))
	return e
}

func post(e *echo.Echo) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestRateLimit_BlocksAfterLimit(t *testing.T) {
	e := serveLimited(t, newStubLimiter(2))

	for i := 0; i < 2; i++ {
		if rec := post(e); rec.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i, rec.Code)
		}
	}
	rec := post(e)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") != "30" {
		t.Fatalf("expected Retry-After 30, got %q", rec.Header().Get("Retry-After"))
	}
	if rec.Header().Get("X-RateLimit-Remaining") != "0" {
		t.Fatalf("expected remaining 0, got %q", rec.Header().Get("X-RateLimit-Remaining"))
	}
}

func TestRateLimit_FailsOpen(t *testing.T) {
	l := newStubLimiter(1)
	l.err = errors.New("redis down")
	e := serveLimited(t, l)

	for i := 0; i < 3; i++ {
		if rec := post(e); rec.Code != http.StatusOK {
			t.Fatalf("expected 200 when limiter fails, got %d", rec.Code)
		}
	}
}

func TestRateLimit_NilLimiter(t *testing.T) {
	e := serveLimited(t, nil)
	if rec := post(e); rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}
