package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/hyperengineering/okrpulse/internal/store"
	"github.com/hyperengineering/okrpulse/internal/types"
)

const testAPIKey = "test-secret-key-12345"

// mockHandler is a simple handler that records if it was called
func mockHandler() (http.Handler, *bool) {
	called := false
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}), &called
}

// captureLogs swaps the default logger for a JSON logger writing to the returned buffer.
func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	old := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(old) })
	return &buf
}

func TestAuthMiddleware(t *testing.T) {
	tests := []struct {
		name       string
		header     string
		wantCalled bool
	}{
		{"valid token", "Bearer " + testAPIKey, true},
		{"missing header", "", false},
		{"invalid token", "Bearer wrong-key", false},
		{"no bearer prefix", testAPIKey, false},
		{"lowercase bearer", "bearer " + testAPIKey, false},
		{"empty token", "Bearer ", false},
		{"whitespace token", "Bearer    ", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, called := mockHandler()
			req := httptest.NewRequest(http.MethodGet, "/api/v1/okrs", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()

			AuthMiddleware(testAPIKey)(handler).ServeHTTP(w, req)

			if *called != tt.wantCalled {
				t.Errorf("handler called = %v, want %v", *called, tt.wantCalled)
			}
			if !tt.wantCalled && w.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want 401", w.Code)
			}
		})
	}
}

func TestAuthMiddleware_NoKeyLeak(t *testing.T) {
	logs := captureLogs(t)
	handler, _ := mockHandler()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/okrs", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	w := httptest.NewRecorder()

	AuthMiddleware(testAPIKey)(handler).ServeHTTP(w, req)

	if strings.Contains(w.Body.String(), testAPIKey) || strings.Contains(logs.String(), testAPIKey) {
		t.Error("expected API key leaked into response or logs")
	}
}

func TestExtractBearerToken(t *testing.T) {
	tests := map[string]string{
		"Bearer abc":      "abc",
		"Bearer  abc  ":   "abc",
		"Basic abc":       "",
		"":                "",
		"Bearerabc":       "",
	}
	for header, want := range tests {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		if got := extractBearerToken(req); got != want {
			t.Errorf("extractBearerToken(%q) = %q, want %q", header, got, want)
		}
	}
}

func TestConstantTimeEqual(t *testing.T) {
	if !constantTimeEqual("abc", "abc") {
		t.Error("equal strings reported unequal")
	}
	if constantTimeEqual("abc", "abd") || constantTimeEqual("abc", "abcd") {
		t.Error("unequal strings reported equal")
	}
}

type lookupFunc func(ctx context.Context, id string) (*types.User, error)

func (f lookupFunc) GetUser(ctx context.Context, id string) (*types.User, error) { return f(ctx, id) }

func TestUserMiddleware(t *testing.T) {
	known := &types.User{ID: "u1", Name: "Ada"}
	lookup := lookupFunc(func(ctx context.Context, id string) (*types.User, error) {
		switch id {
		case "u1":
			return known, nil
		case "boom":
			return nil, errors.New("database is locked")
		}
		return nil, store.ErrNotFound
	})

	tests := []struct {
		name   string
		userID string
		status int
	}{
		{"known user", "u1", http.StatusOK},
		{"missing header", "", http.StatusUnauthorized},
		{"unknown user", "ghost", http.StatusUnauthorized},
		{"lookup failure", "boom", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got *types.User
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = MustUserFromContext(r.Context())
			})
			req := httptest.NewRequest(http.MethodGet, "/api/v1/me", nil)
			if tt.userID != "" {
				req.Header.Set(UserHeader, tt.userID)
			}
			w := httptest.NewRecorder()

			UserMiddleware(lookup)(next).ServeHTTP(w, req)

			if w.Code != tt.status {
				t.Errorf("status = %d, want %d", w.Code, tt.status)
			}
			if tt.status == http.StatusOK && got != known {
				t.Errorf("context user = %+v, want %+v", got, known)
			}
		})
	}
}

func TestGetRequestID(t *testing.T) {
	router := chi.NewRouter()
	router.Use(chiMiddleware.RequestID)
	router.Get("/test", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(GetRequestID(r.Context())))
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))

	if w.Body.String() == "" {
		t.Error("expected non-empty request ID")
	}
	if id := GetRequestID(context.Background()); id != "" {
		t.Errorf("GetRequestID without middleware = %q, want empty", id)
	}
}

func TestLogLevelForStatus(t *testing.T) {
	tests := []struct {
		status int
		want   slog.Level
	}{
		{200, slog.LevelInfo},
		{204, slog.LevelInfo},
		{304, slog.LevelInfo},
		{400, slog.LevelWarn},
		{409, slog.LevelWarn},
		{429, slog.LevelWarn},
		{500, slog.LevelError},
		{503, slog.LevelError},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			if got := logLevelForStatus(tt.status); got != tt.want {
				t.Errorf("logLevelForStatus(%d) = %v, want %v", tt.status, got, tt.want)
			}
		})
	}
}

func TestLoggingMiddleware_Fields(t *testing.T) {
	logs := captureLogs(t)

	router := chi.NewRouter()
	router.Use(chiMiddleware.RequestID)
	router.Use(LoggingMiddleware)
	router.Get("/test", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
	})

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.RemoteAddr = "192.168.1.100:54321"
	req.Header.Set("Authorization", "Bearer "+testAPIKey)
	router.ServeHTTP(httptest.NewRecorder(), req)

	var entry map[string]any
	if err := json.Unmarshal(logs.Bytes(), &entry); err != nil {
		t.Fatalf("failed to parse log as JSON: %v", err)
	}
	if entry["msg"] != "request completed" {
		t.Errorf("msg = %v", entry["msg"])
	}
	if entry["level"] != "WARN" {
		t.Errorf("level = %v, want WARN for 422", entry["level"])
	}
	for _, field := range []string{"request_id", "method", "path", "status", "duration_ms", "remote_addr"} {
		if _, ok := entry[field]; !ok {
			t.Errorf("missing field %s", field)
		}
	}
	if entry["remote_addr"] != "192.168.1.100:54321" {
		t.Errorf("remote_addr = %v", entry["remote_addr"])
	}
	if strings.Contains(logs.String(), testAPIKey) {
		t.Error("log output contains the API key")
	}
}

func TestRecoveryMiddleware_NoPanic(t *testing.T) {
	handler, called := mockHandler()
	w := httptest.NewRecorder()

	RecoveryMiddleware(handler).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	if !*called || w.Code != http.StatusOK {
		t.Errorf("called = %v, status = %d", *called, w.Code)
	}
}

func TestRecoveryMiddleware_PanicNoLeak(t *testing.T) {
	logs := captureLogs(t)
	secret := "super-secret-database-password-12345"
	panicHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic(secret)
	})
	w := httptest.NewRecorder()

	RecoveryMiddleware(panicHandler).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/okrs", nil))

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}
	var p Problem
	if err := json.Unmarshal(w.Body.Bytes(), &p); err != nil {
		t.Fatalf("failed to unmarshal: %v", err)
	}
	if p.Type != "https://okrpulse.dev/errors/internal-error" || p.Detail != "Internal Server Error" {
		t.Errorf("problem = %+v", p)
	}
	if strings.Contains(w.Body.String(), secret) {
		t.Error("response body contains panic message")
	}
	if !strings.Contains(logs.String(), "panic recovered") || !strings.Contains(logs.String(), secret) {
		t.Error("panic should be logged with its message")
	}
}

func TestRateLimiter_PerKeyBudget(t *testing.T) {
	l := NewRateLimiter(RateLimitConfig{RequestsPerMinute: 1, Burst: 2})
	now := time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	if !l.Allow("a") || !l.Allow("a") {
		t.Fatal("burst of 2 should be allowed")
	}
	if l.Allow("a") {
		t.Error("third request inside the minute should be rejected")
	}
	if !l.Allow("b") {
		t.Error("other keys have their own budget")
	}

	now = now.Add(61 * time.Second)
	if !l.Allow("a") {
		t.Error("budget should refill after a minute")
	}
}

func TestRateLimiter_EvictsIdleEntries(t *testing.T) {
	l := NewRateLimiter(RateLimitConfig{RequestsPerMinute: 10, Burst: 1, EntryTTL: time.Minute})
	now := time.Now()
	l.now = func() time.Time { return now }

	l.Allow("a")
	now = now.Add(2 * time.Minute)
	l.Allow("b")

	if _, ok := l.entries["a"]; ok {
		t.Error("idle entry should have been evicted")
	}
}

func TestRateLimiter_Disabled(t *testing.T) {
	l := NewRateLimiter(RateLimitConfig{})
	if l != nil {
		t.Fatal("zero config should disable limiting")
	}
	if !l.Allow("anyone") {
		t.Error("nil limiter must allow")
	}
}
