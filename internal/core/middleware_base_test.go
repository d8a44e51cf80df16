package core

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"weatherpredict/internal/types"
)

func TestRecoverer_WritesErrorResponse(t *testing.T) {
	s := newTestServer(t)
	h := s.Recoverer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("scoring exploded")
	}))

	req := httptest.NewRequest(http.MethodPost, "/predict", nil)
	req = req.WithContext(types.WithRequestID(req.Context(), `id-"1"`))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decodeError(t, rec)
	assert.Equal(t, "internal_unexpected_error", body.Code)
	assert.Equal(t, `id-"1"`, body.RequestID)
	assert.NotContains(t, rec.Body.String(), "scoring exploded")
}

func TestRequestLogger_RedactsAndScopesLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	var scoped *slog.Logger
	h := RequestIDMiddleware(RequestLogger(logger, []string{"Authorization"})(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			scoped = types.LoggerFromContext(r.Context(), nil)
			w.WriteHeader(http.StatusUnprocessableEntity)
		}),
	))

	req := httptest.NewRequest(http.MethodPost, "/predict", nil)
	req.Header.Set("Authorization", "Bearer secret")
	req.Header.Set("X-Request-Id", "req-7")
	h.ServeHTTP(httptest.NewRecorder(), req)

	require.NotNil(t, scoped)
	out := buf.String()
	assert.NotContains(t, out, "Bearer secret")
	assert.Contains(t, out, "[REDACTED]")

	var line map[string]any
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(out)), &line))
	assert.Equal(t, "WARN", line["level"])
	assert.Equal(t, "req-7", line["request_id"])
	assert.Equal(t, float64(422), line["status"])
}

func TestRequestIDMiddleware(t *testing.T) {
	var seen string
	h := RequestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = types.GetRequestID(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Len(t, seen, 36)
	assert.Equal(t, seen, rec.Header().Get("X-Request-Id"))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-Id", "upstream-id")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "upstream-id", seen)
	assert.Equal(t, "upstream-id", rec.Header().Get("X-Request-Id"))
}

func TestMetricsMiddleware_UsesRoutePattern(t *testing.T) {
	s := newTestServer(t)
	m := &recordingMetrics{}
	s.Metrics = m

	r := chi.NewRouter()
	r.Use(s.MetricsMiddleware)
	r.Post("/predict", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/predict", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nope/123", nil))

	assert.Equal(t, []string{"POST /predict 200", "GET unmatched 404"}, m.calls)
}

func TestMetricsMiddleware_NilCollectorPassesThrough(t *testing.T) {
	s := newTestServer(t)
	called := false
	h := s.MetricsMiddleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { called = true }))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.True(t, called)
}

func TestSecurityHeaders(t *testing.T) {
	s := newTestServer(t)
	rec := httptest.NewRecorder()
	s.SecurityHeadersMiddleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {})).
		ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
}

func TestCORS(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })

	tests := []struct {
		name       string
		allowed    []string
		origin     string
		preflight  bool
		wantOrigin string
		wantStatus int
	}{
		{"wildcard", []string{"*"}, "https://x.example", false, "*", http.StatusOK},
		{"listed origin", []string{"https://a.example"}, "https://a.example", false, "https://a.example", http.StatusOK},
		{"unlisted origin", []string{"https://a.example"}, "https://b.example", false, "", http.StatusOK},
		{"preflight", []string{"*"}, "https://x.example", true, "*", http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			method := http.MethodPost
			if tt.preflight {
				method = http.MethodOptions
			}
			req := httptest.NewRequest(method, "/predict", nil)
			req.Header.Set("Origin", tt.origin)
			if tt.preflight {
				req.Header.Set("Access-Control-Request-Method", "POST")
			}
			rec := httptest.NewRecorder()
			NewCORSMiddleware(tt.allowed)(next).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantOrigin, rec.Header().Get("Access-Control-Allow-Origin"))
		})
	}
}

func TestEscapeJSON(t *testing.T) {
	assert.Equal(t, `a\"b\\c\nd`, escapeJSON("a\"b\\c\nd"))
}
