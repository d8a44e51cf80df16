package core

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"weatherpredict/internal/config"
)

// testLogger returns a logger that discards output.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig() *config.Config {
	return &config.Config{
		Environment: "local",
		Server:      config.ServerConfig{Port: "8000", RequestTimeout: 5 * time.Second},
		Security:    config.SecurityConfig{CorsAllowedOrigins: []string{"*"}},
		Build:       config.BuildInfo{Version: "test"},
	}
}

func newTestServer(t *testing.T, registrars ...RouteRegistrar) *Server {
	t.Helper()
	s, err := NewServer(testConfig(), testLogger())
	require.NoError(t, err)
	s.RouteRegistrars = registrars
	return s
}

// recordingMetrics captures RecordRequest calls.
type recordingMetrics struct {
	mu       sync.Mutex
	calls    []string
	flushed  bool
	flushErr error
}

func (m *recordingMetrics) RecordRequest(method, endpoint, status string, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, method+" "+endpoint+" "+status)
}

func (m *recordingMetrics) Flush(context.Context) error {
	m.flushed = true
	return m.flushErr
}

func TestNewServer_RequiresDependencies(t *testing.T) {
	_, err := NewServer(nil, testLogger())
	assert.Error(t, err)

	_, err = NewServer(testConfig(), nil)
	assert.Error(t, err)

	s, err := NewServer(testConfig(), testLogger())
	require.NoError(t, err)
	assert.NotNil(t, s.Validator)
	assert.NotNil(t, s.Handler())
	assert.Same(t, s.Router(), s.Handler())
}

func TestServer_RouteRegistrarsMounted(t *testing.T) {
	s := newTestServer(t, func(r chi.Router) {
		r.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
			JSON(w, r, http.StatusOK, map[string]string{"pong": "yes"})
		})
	})
	s.MountRoutes()

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"pong":"yes"}`, rec.Body.String())
}

func TestServer_ShutdownFlushesMetrics(t *testing.T) {
	s := newTestServer(t)
	m := &recordingMetrics{}
	s.Metrics = m

	require.NoError(t, s.Shutdown(context.Background()))
	assert.True(t, m.flushed)

	m.flushErr = errors.New("throttled")
	assert.Error(t, s.Shutdown(context.Background()))
}

func TestServer_ShutdownWithoutMetrics(t *testing.T) {
	assert.NoError(t, newTestServer(t).Shutdown(context.Background()))
}
