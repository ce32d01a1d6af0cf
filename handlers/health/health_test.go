package health

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Nexora-Open-Source/smartedu/middleware"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockPinger is a mock for the backend client
type MockPinger struct {
	mock.Mock
}

// Ping mocks the Ping method
func (m *MockPinger) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func setupHealthHandler(pingErr error) (*Handler, *MockPinger) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	middleware.Logger = logger

	pinger := &MockPinger{}
	pinger.On("Ping", mock.Anything).Return(pingErr)
	return NewHandler(pinger, func() int { return 3 }, logger), pinger
}

func TestHealthCheck(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		handler, pinger := setupHealthHandler(nil)
		w := httptest.NewRecorder()
		handler.HandleHealthCheck(w, httptest.NewRequest("GET", "/health", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		var response HealthStatus
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, "healthy", response.Status)
		assert.Equal(t, "healthy", response.Services["backend"])
		assert.Equal(t, "3 active", response.Services["watchers"])
		pinger.AssertExpectations(t)
	})

	t.Run("backend down", func(t *testing.T) {
		handler, _ := setupHealthHandler(errors.New("connection refused"))
		w := httptest.NewRecorder()
		handler.HandleHealthCheck(w, httptest.NewRequest("GET", "/health", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		var response HealthStatus
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, "degraded", response.Status)
		assert.Contains(t, response.Services["backend"], "connection refused")
	})
}

func TestLivenessCheck(t *testing.T) {
	handler, pinger := setupHealthHandler(errors.New("down"))
	w := httptest.NewRecorder()
	handler.HandleLivenessCheck(w, httptest.NewRequest("GET", "/health/live", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"alive"`)
	pinger.AssertNotCalled(t, "Ping", mock.Anything)
}

func TestReadinessCheck(t *testing.T) {
	handler, _ := setupHealthHandler(nil)
	w := httptest.NewRecorder()
	handler.HandleReadinessCheck(w, httptest.NewRequest("GET", "/health/ready", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	handler, _ = setupHealthHandler(errors.New("down"))
	w = httptest.NewRecorder()
	handler.HandleReadinessCheck(w, httptest.NewRequest("GET", "/health/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
