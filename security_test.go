package main

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Nexora-Open-Source/smartedu/config"
	"github.com/Nexora-Open-Source/smartedu/generation"
	"github.com/Nexora-Open-Source/smartedu/handlers"
	"github.com/Nexora-Open-Source/smartedu/handlers/health"
	"github.com/Nexora-Open-Source/smartedu/middleware"
	"github.com/Nexora-Open-Source/smartedu/types"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

// TestEnhancedRateLimiting tests rate limiting with multiple client identifiers
func TestEnhancedRateLimiting(t *testing.T) {
	limiter := NewRateLimiter(rate.Limit(10), 5)
	rateLimitedHandler := RateLimitMiddleware(limiter, okHandler)

	// Same IP but different user agents have different limits
	req1 := httptest.NewRequest("GET", "/jobs", nil)
	req1.Header.Set("User-Agent", "Mozilla/5.0")
	req1.RemoteAddr = "192.168.1.1:12345"

	req2 := httptest.NewRequest("GET", "/jobs", nil)
	req2.Header.Set("User-Agent", "Chrome/91.0")
	req2.RemoteAddr = "192.168.1.1:12345"

	w1 := httptest.NewRecorder()
	w2 := httptest.NewRecorder()
	rateLimitedHandler(w1, req1)
	rateLimitedHandler(w2, req2)

	assert.Equal(t, http.StatusOK, w1.Code)
	assert.Equal(t, http.StatusOK, w2.Code)

	// Requests with the same identifiers share the limit; req1 already used one token
	for i := 0; i < 10; i++ {
		req := httptest.NewRequest("GET", "/jobs", nil)
		req.Header.Set("User-Agent", "Mozilla/5.0")
		req.RemoteAddr = "192.168.1.1:12345"

		w := httptest.NewRecorder()
		rateLimitedHandler(w, req)

		if i < 4 {
			assert.Equal(t, http.StatusOK, w.Code, "request %d should be allowed", i)
		} else {
			assert.Equal(t, http.StatusTooManyRequests, w.Code, "request %d should be rate limited", i)
		}
	}
}

func TestRateLimitedResponse(t *testing.T) {
	limiter := NewRateLimiter(rate.Limit(0.001), 1)
	rateLimitedHandler := RateLimitMiddleware(limiter, okHandler)

	req := httptest.NewRequest("POST", "/generate/outline", nil)
	req.Header.Set("X-Request-ID", "req-42")
	rateLimitedHandler(httptest.NewRecorder(), req)

	w := httptest.NewRecorder()
	rateLimitedHandler(w, req)

	require.Equal(t, http.StatusTooManyRequests, w.Code)
	var apiErr middleware.APIError
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &apiErr))
	assert.Equal(t, middleware.ErrCodeRateLimited, apiErr.Error)
	assert.Equal(t, "req-42", apiErr.RequestID)
}

// TestCORSConfiguration tests the CORS middleware with environment configuration
func TestCORSConfiguration(t *testing.T) {
	t.Setenv("ENVIRONMENT", "development")
	t.Setenv("DEV_CORS_ORIGINS", "http://localhost:3000, http://127.0.0.1:3000")
	t.Setenv("CORS_ALLOWED_METHODS", "GET,POST,OPTIONS")
	t.Setenv("CORS_ALLOWED_HEADERS", "Content-Type,Authorization")

	cfg := config.NewConfig()
	corsHandler := CORSMiddleware(http.HandlerFunc(okHandler), cfg)

	testCases := []struct {
		name           string
		origin         string
		expectedOrigin string
	}{
		{"Allowed origin", "http://localhost:3000", "http://localhost:3000"},
		{"Trimmed list entry", "http://127.0.0.1:3000", "http://127.0.0.1:3000"},
		{"Disallowed origin", "https://evil.com", ""},
		{"No origin header", "", ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			if tc.origin != "" {
				req.Header.Set("Origin", tc.origin)
			}

			w := httptest.NewRecorder()
			corsHandler.ServeHTTP(w, req)

			assert.Equal(t, tc.expectedOrigin, w.Header().Get("Access-Control-Allow-Origin"))
			assert.Equal(t, "GET, POST, OPTIONS", w.Header().Get("Access-Control-Allow-Methods"))
			assert.Equal(t, "Content-Type, Authorization", w.Header().Get("Access-Control-Allow-Headers"))
		})
	}
}

// TestClientIdentifier tests client identification
func TestClientIdentifier(t *testing.T) {
	testCases := []struct {
		name       string
		setupReq   func(*http.Request)
		expectSame bool
	}{
		{
			name: "Same IP and user agent",
			setupReq: func(req *http.Request) {
				req.RemoteAddr = "192.168.1.1:12345"
				req.Header.Set("User-Agent", "Mozilla/5.0")
			},
			expectSame: true,
		},
		{
			name: "Different IP, same user agent",
			setupReq: func(req *http.Request) {
				req.RemoteAddr = "192.168.1.2:12345"
				req.Header.Set("User-Agent", "Mozilla/5.0")
			},
			expectSame: false,
		},
		{
			name: "Same IP, different user agent",
			setupReq: func(req *http.Request) {
				req.RemoteAddr = "192.168.1.1:12345"
				req.Header.Set("User-Agent", "Chrome/91.0")
			},
			expectSame: false,
		},
		{
			name: "With session cookie",
			setupReq: func(req *http.Request) {
				req.RemoteAddr = "192.168.1.1:12345"
				req.Header.Set("User-Agent", "Chrome/91.0")
				req.AddCookie(&http.Cookie{Name: "session_id", Value: "test-session-123"})
			},
			expectSame: false,
		},
		{
			name: "Single character language",
			setupReq: func(req *http.Request) {
				req.RemoteAddr = "192.168.1.1:12345"
				req.Header.Set("User-Agent", "Chrome/91.0")
				req.Header.Set("Accept-Language", "x")
				req.AddCookie(&http.Cookie{Name: "session_id", Value: "test-session-123"})
			},
			expectSame: true,
		},
	}

	var previousID string

	for i, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			tc.setupReq(req)

			clientID := getClientIdentifier(req)

			if i > 0 {
				if tc.expectSame {
					assert.Equal(t, previousID, clientID)
				} else {
					assert.NotEqual(t, previousID, clientID)
				}
			}
			previousID = clientID

			assert.Len(t, clientID, 16)
		})
	}

	t.Run("Forwarded chain uses first hop", func(t *testing.T) {
		direct := httptest.NewRequest("GET", "/", nil)
		direct.RemoteAddr = "10.0.0.7"
		forwarded := httptest.NewRequest("GET", "/", nil)
		forwarded.RemoteAddr = "172.16.0.1:443"
		forwarded.Header.Set("X-Forwarded-For", "10.0.0.7, 172.16.0.1")
		assert.Equal(t, getClientIdentifier(direct), getClientIdentifier(forwarded))
	})
}

// TestRateLimiterCleanup tests the rate limiter cleanup functionality
func TestRateLimiterCleanup(t *testing.T) {
	limiter := NewRateLimiter(rate.Limit(10), 5)

	limiter.Allow("client1")
	limiter.Allow("client2")
	limiter.Allow("client3")
	assert.Len(t, limiter.clients, 3)

	limiter.mutex.Lock()
	limiter.clients["client1"].lastSeen = time.Now().Add(-10 * time.Minute)
	limiter.clients["client2"].lastSeen = time.Now().Add(-10 * time.Minute)
	limiter.mutex.Unlock()

	limiter.Cleanup()

	assert.Len(t, limiter.clients, 1)
	assert.Contains(t, limiter.clients, "client3")
}

func TestRouter(t *testing.T) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	registry := generation.NewRegistry(map[generation.Kind]generation.Fetcher{
		generation.KindOutline: generation.FetcherFunc(func(ctx context.Context, id string) generation.Outcome {
			return generation.NotReadyOutcome()
		}),
	}, generation.Options{Interval: time.Hour, MaxAttempts: 3, Immediate: true}, 0, logger)
	defer registry.Shutdown()

	_, err := registry.Watch(generation.Job{Kind: generation.KindOutline, ID: "12"}, true, nil)
	require.NoError(t, err)

	handler := handlers.NewHandler(nil, registry, nil, nil, logger)
	healthHandler := health.NewHandler(nil, registry.Active, logger)
	router := newRouter(handler, healthHandler, NewRateLimiter(rate.Limit(100), 100))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/jobs", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var list types.JobList
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Equal(t, 1, list.Active)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/jobs/outline/12", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"state":"polling"`)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("DELETE", "/jobs/outline/12", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/health/live", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("PUT", "/jobs/outline/12", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "smartedu_http_requests_total")

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("POST", "/ebooks/12", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestSwaggerDocs(t *testing.T) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	registry := generation.NewRegistry(nil, generation.Options{}, 0, logger)
	defer registry.Shutdown()

	router := newRouter(handlers.NewHandler(nil, registry, nil, nil, logger), health.NewHandler(nil, registry.Active, logger), NewRateLimiter(rate.Limit(100), 100))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/swagger/index.html", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "swagger-ui")

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/swagger/doc.json", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var doc struct {
		Info struct {
			Title string `json:"title"`
		} `json:"info"`
		Paths map[string]map[string]json.RawMessage `json:"paths"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &doc))
	assert.Equal(t, "SmartEdu Local API", doc.Info.Title)
	for path, methods := range map[string][]string{
		"/generate/{kind}":      {"post"},
		"/jobs":                 {"get"},
		"/jobs/{kind}/{id}":     {"get", "delete"},
		"/modules/{id}/outline": {"get", "patch"},
		"/ebooks/{id}":          {"get", "put"},
	} {
		for _, method := range methods {
			assert.Contains(t, doc.Paths[path], method, "%s %s", method, path)
		}
	}
}
