package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitLogger(t *testing.T) {
	logger := InitLogger("debug")
	assert.Equal(t, logrus.DebugLevel, logger.GetLevel())

	logger = InitLogger("nonsense")
	assert.Equal(t, logrus.InfoLevel, logger.GetLevel())
}

func TestErrorHandler(t *testing.T) {
	InitLogger("error")

	w := httptest.NewRecorder()
	RespondBackendError(w, errors.New("quota exceeded"), "req-1")

	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var apiErr APIError
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &apiErr))
	assert.Equal(t, ErrCodeBackend, apiErr.Error)
	assert.Equal(t, "quota exceeded", apiErr.Details)
	assert.Equal(t, "req-1", apiErr.RequestID)
	assert.NotEmpty(t, apiErr.Timestamp)
}

func TestLoggingMiddlewareRequestID(t *testing.T) {
	InitLogger("error")

	var seen string
	handler := LoggingMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = r.Header.Get(RequestIDHeader)
		w.WriteHeader(http.StatusNoContent)
	}))

	// Generated when absent
	req := httptest.NewRequest(http.MethodGet, "/jobs/outline/1", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	assert.NotEmpty(t, seen)
	assert.Equal(t, seen, w.Header().Get(RequestIDHeader))

	// Propagated when present
	req = httptest.NewRequest(http.MethodGet, "/jobs/outline/1", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", seen)
	assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))
}

func TestRedactSecrets(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{
			name: "password",
			body: `{"email":"sari@example.com","password":"hunter2"}`,
			want: `{"email":"sari@example.com","password":"[REDACTED]"}`,
		},
		{
			name: "escaped quote and spacing",
			body: `{"password" : "a\"b", "password_confirmation":"a\"b"}`,
			want: `{"password" : "[REDACTED]", "password_confirmation":"[REDACTED]"}`,
		},
		{
			name: "token",
			body: `{"data":{"token":"eyJhbGciOi"}}`,
			want: `{"data":{"token":"[REDACTED]"}}`,
		},
		{
			name: "nothing to hide",
			body: `{"ids":["3"],"model":"outline-v2"}`,
			want: `{"ids":["3"],"model":"outline-v2"}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RedactSecrets(tt.body))
		})
	}
}

func TestLoggingMiddlewareRedactsCredentials(t *testing.T) {
	logger, hook := test.NewNullLogger()
	previous := Logger
	Logger = logger
	t.Cleanup(func() { Logger = previous })

	handler := LoggingMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"UNAUTHORIZED"}`))
	}))

	body := `{"email":"sari@example.com","password":"hunter2"}`
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body)))

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	logged, ok := entry.Data["request_body"].(string)
	require.True(t, ok)
	assert.NotContains(t, logged, "hunter2")
	assert.Contains(t, logged, "sari@example.com")
	assert.Equal(t, logrus.WarnLevel, entry.Level)
}
