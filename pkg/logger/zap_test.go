package logger

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestWithFieldsCarriesKeys(t *testing.T) {
	var buf bytes.Buffer
	l := InitializeZapLogger(ZapConfig{Level: "debug", Encoding: "json", Output: &buf})

	ctx := l.WithFields(context.Background(), "session_id", "abc123")
	l.Infof(ctx, "request appended at %d", 3)

	out := buf.String()
	if !strings.Contains(out, `"session_id":"abc123"`) {
		t.Errorf("log output = %q, want session_id field", out)
	}
	if !strings.Contains(out, "request appended at 3") {
		t.Errorf("log output = %q, want formatted message", out)
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := InitializeZapLogger(ZapConfig{Level: "warn", Encoding: "json", Output: &buf})

	l.Info(context.Background(), "hidden")
	l.Warn(context.Background(), "shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info line logged at warn level: %q", out)
	}
	if !strings.Contains(out, "shown") {
		t.Errorf("warn line missing: %q", out)
	}
}

func TestHTTPMiddleware(t *testing.T) {
	var buf bytes.Buffer
	l := InitializeZapLogger(ZapConfig{Level: "info", Encoding: "json", Output: &buf})

	h := HTTPMiddleware(l)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		l.Info(r.Context(), "inside handler")
		w.WriteHeader(http.StatusTeapot)
	}))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-Id", "req-1")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusTeapot {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusTeapot)
	}
	if got := rec.Header().Get("X-Request-Id"); got != "req-1" {
		t.Errorf("X-Request-Id = %q, want %q", got, "req-1")
	}

	out := buf.String()
	if strings.Count(out, `"request_id":"req-1"`) != 2 {
		t.Errorf("want request_id on handler and access lines, got %q", out)
	}
	if !strings.Contains(out, "status=418") {
		t.Errorf("access line missing status: %q", out)
	}
}
