package trace

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"cashflow/internal/log"
)

func TestMiddleware_AssignsRequestID(t *testing.T) {
	var buf bytes.Buffer
	logger := log.NewWriter(&buf, log.ComponentHTTP, slog.LevelInfo)

	var ctxID string
	m := NewMiddleware(func(*http.Request) string { return "203.0.113.1" })
	h := log.Middleware(logger)(m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctxID = GetRequestID(r.Context())
		w.WriteHeader(http.StatusCreated)
	})))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/transactions", nil))

	got := rr.Header().Get(HeaderRequestID)
	if !strings.HasPrefix(got, "req_") || got != ctxID {
		t.Fatalf("header id %q, context id %q", got, ctxID)
	}
	out := buf.String()
	if !strings.Contains(out, "HTTP request completed") || !strings.Contains(out, "status_code=201") {
		t.Errorf("missing completion log: %s", out)
	}
	if !strings.Contains(out, "request_id="+got) {
		t.Errorf("logs not enriched with request id: %s", out)
	}
	if mt := m.GetMetrics(); mt.TotalRequests != 1 {
		t.Errorf("TotalRequests = %d, want 1", mt.TotalRequests)
	}
}

func TestMiddleware_PropagatesIncomingID(t *testing.T) {
	m := NewMiddleware(nil)
	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	tests := []struct {
		in      string
		keepsIn bool
	}{
		{"abc-123", true},
		{"bad id with spaces", false},
		{strings.Repeat("x", 65), false},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		req.Header.Set(HeaderRequestID, tt.in)
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		if got := rr.Header().Get(HeaderRequestID) == tt.in; got != tt.keepsIn {
			t.Errorf("incoming %q kept = %v, want %v", tt.in, got, tt.keepsIn)
		}
	}
}
