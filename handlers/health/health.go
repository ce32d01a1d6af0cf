// Package health provides health check handlers for the local SmartEdu server
package health

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/Nexora-Open-Source/smartedu/middleware"
	"github.com/sirupsen/logrus"
)

// HealthStatus represents the health check response structure
type HealthStatus struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Version   string            `json:"version"`
	Services  map[string]string `json:"services"`
	Uptime    string            `json:"uptime"`
}

// Pinger checks that the SmartEdu backend is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler contains dependencies for health handlers
type Handler struct {
	Backend Pinger
	Logger  *logrus.Logger
	// Number of running watchers, reported by the health check
	ActiveWatchers func() int
}

// NewHandler creates a new health handler
func NewHandler(backend Pinger, activeWatchers func() int, logger *logrus.Logger) *Handler {
	return &Handler{
		Backend:        backend,
		Logger:         logger,
		ActiveWatchers: activeWatchers,
	}
}

// HandleHealthCheck provides a health check endpoint for monitoring
func (h *Handler) HandleHealthCheck(w http.ResponseWriter, r *http.Request) {
	health := HealthStatus{
		Status:    "healthy",
		Timestamp: time.Now().Format(time.RFC3339),
		Version:   "1.0.0",
		Services:  make(map[string]string),
		Uptime:    time.Since(startTime).String(),
	}

	if err := h.checkBackend(r.Context()); err != nil {
		health.Status = "degraded"
		health.Services["backend"] = "unreachable: " + err.Error()
		h.Logger.WithFields(logrus.Fields{
			"service": "backend",
			"error":   err.Error(),
		}).Error("Health check failed for backend")
	} else {
		health.Services["backend"] = "healthy"
	}
	if h.ActiveWatchers != nil {
		health.Services["watchers"] = strconv.Itoa(h.ActiveWatchers()) + " active"
	}

	middleware.RespondJSON(w, http.StatusOK, health)
}

// HandleLivenessCheck provides a simple liveness check
func (h *Handler) HandleLivenessCheck(w http.ResponseWriter, r *http.Request) {
	middleware.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "alive",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(startTime).String(),
	})
}

// HandleReadinessCheck reports ready only when the backend answers
func (h *Handler) HandleReadinessCheck(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.RequestID(r)

	if err := h.checkBackend(r.Context()); err != nil {
		middleware.RespondServiceUnavailable(w, err, requestID)
		return
	}

	middleware.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "ready",
		"timestamp": time.Now().Format(time.RFC3339),
		"services": map[string]string{
			"backend": "ready",
		},
	})
}

func (h *Handler) checkBackend(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return h.Backend.Ping(ctx)
}

var startTime = time.Now()
