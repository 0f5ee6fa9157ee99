package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

func TestLiveness(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/health", nil), rec)

	if err := NewHealthHandler().Liveness(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestReadiness(t *testing.T) {
	ok := PingFunc(func(context.Context) error { return nil })
	down := PingFunc(func(context.Context) error { return errors.New("connection refused") })

	tests := []struct {
		name   string
		probes map[string]Pinger
		code   int
		status string
	}{
		{"all healthy", map[string]Pinger{"database": ok, "redis": ok}, http.StatusOK, "ok"},
		{"no probes", map[string]Pinger{}, http.StatusOK, "ok"},
		{"one down", map[string]Pinger{"database": ok, "redis": down}, http.StatusServiceUnavailable, "degraded"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			rec := httptest.NewRecorder()
			c := e.NewContext(httptest.NewRequest(http.MethodGet, "/health/ready", nil), rec)

			if err := NewHealthDependenciesHandler(tt.probes, zerolog.Nop()).Readiness(c); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if rec.Code != tt.code {
				t.Fatalf("expected %d, got %d", tt.code, rec.Code)
			}
			var body readinessResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode body: %v", err)
			}
			if body.Status != tt.status {
				t.Fatalf("expected status %q, got %q", tt.status, body.Status)
			}
			if len(body.Dependencies) != len(tt.probes) {
				t.Fatalf("expected %d dependencies, got %d", len(tt.probes), len(body.Dependencies))
			}
		})
	}
}

func TestReadiness_HidesPingErrors(t *testing.T) {
	const detail = "dial tcp db.internal:5432: connection refused"
	down := PingFunc(func(context.Context) error { return errors.New(detail) })

	var logs bytes.Buffer
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/health/ready", nil), rec)

	h := NewHealthDependenciesHandler(map[string]Pinger{"sql": down}, zerolog.New(&logs))
	if err := h.Readiness(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "db.internal") {
		t.Fatalf("response leaks dependency error: %s", rec.Body.String())
	}
	var body readinessResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Dependencies["sql"].Status != "unhealthy" {
		t.Fatalf("expected sql unhealthy, got %+v", body.Dependencies)
	}
	if !strings.Contains(logs.String(), detail) || !strings.Contains(logs.String(), `"dependency":"sql"`) {
		t.Fatalf("expected the ping error in the log, got %s", logs.String())
	}
}
