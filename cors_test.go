package main

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Nexora-Open-Source/smartedu/config"
	"github.com/Nexora-Open-Source/smartedu/middleware"
	"github.com/stretchr/testify/assert"
)

func init() {
	// Initialize logger for tests
	middleware.InitLogger("error")
}

func okHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

// TestCORSLogic tests the CORS middleware without full app initialization
func TestCORSLogic(t *testing.T) {
	testConfig := &config.Config{
		CORSConfig: config.CORSConfig{
			Environment: "development",
			DevelopmentOrigins: []string{
				"http://localhost:5173",
				"http://127.0.0.1:5173",
			},
			StagingOrigins:    []string{"https://staging.smartedu.example"},
			ProductionOrigins: []string{"https://smartedu.example"},
			AllowedMethods:    []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:    []string{"Content-Type", "Authorization"},
			ExposedHeaders:    []string{"X-Request-ID"},
			AllowCredentials:  true,
			MaxAge:            86400,
		},
	}

	corsHandler := CORSMiddleware(http.HandlerFunc(okHandler), testConfig)

	testCases := []struct {
		name           string
		origin         string
		expectedOrigin string
	}{
		{"Allowed development origin", "http://localhost:5173", "http://localhost:5173"},
		{"Allowed 127.0.0.1 origin", "http://127.0.0.1:5173", "http://127.0.0.1:5173"},
		{"Production origin in development", "https://smartedu.example", ""},
		{"Disallowed origin", "https://evil.com", ""},
		{"No origin header", "", ""},
		{"Case sensitive check", "http://LOCALHOST:5173", ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/jobs", nil)
			if tc.origin != "" {
				req.Header.Set("Origin", tc.origin)
			}

			w := httptest.NewRecorder()
			corsHandler.ServeHTTP(w, req)

			assert.Equal(t, tc.expectedOrigin, w.Header().Get("Access-Control-Allow-Origin"))
			assert.Equal(t, "GET, POST, PATCH, DELETE, OPTIONS", w.Header().Get("Access-Control-Allow-Methods"))
			assert.Equal(t, "X-Request-ID", w.Header().Get("Access-Control-Expose-Headers"))
			assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
			assert.Equal(t, "86400", w.Header().Get("Access-Control-Max-Age"))
		})
	}

	t.Run("Preflight request", func(t *testing.T) {
		req := httptest.NewRequest("OPTIONS", "/modules/12/outline", nil)
		req.Header.Set("Origin", "http://localhost:5173")
		req.Header.Set("Access-Control-Request-Method", "PATCH")

		w := httptest.NewRecorder()
		corsHandler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, w.Body.String(), "preflight must not reach the handler")
	})
}

// TestEnvironmentBasedOrigins tests that origins are selected based on environment
func TestEnvironmentBasedOrigins(t *testing.T) {
	dev := []string{"http://localhost:5173", "http://127.0.0.1:5173"}
	testCases := []struct {
		environment     string
		expectedOrigins []string
	}{
		{"development", dev},
		{"dev", dev},
		{"staging", []string{"https://staging.smartedu.example"}},
		{"stage", []string{"https://staging.smartedu.example"}},
		{"production", []string{"https://smartedu.example"}},
		{"PROD", []string{"https://smartedu.example"}},
		{"unknown", dev}, // Falls back to development
	}

	for _, tc := range testCases {
		t.Run(tc.environment, func(t *testing.T) {
			corsConfig := config.CORSConfig{
				Environment:        tc.environment,
				DevelopmentOrigins: dev,
				StagingOrigins:     []string{"https://staging.smartedu.example"},
				ProductionOrigins:  []string{"https://smartedu.example"},
			}

			assert.Equal(t, tc.expectedOrigins, getAllowedOrigins(corsConfig))
		})
	}
}

// TestSubdomainValidation tests subdomain validation logic
func TestSubdomainValidation(t *testing.T) {
	corsConfig := config.CORSConfig{
		AllowSubdomains:    true,
		AllowedDomains:     []string{"smartedu.example", "trusted.com"},
		DevelopmentOrigins: []string{"*.campus.example"},
	}

	testCases := []struct {
		name        string
		origin      string
		shouldAllow bool
	}{
		{"Exact domain match", "https://smartedu.example", true},
		{"Subdomain match", "https://app.smartedu.example", true},
		{"Wildcard origin domain", "https://campus.example", true},
		{"Wildcard origin subdomain", "https://lab.campus.example", true},
		{"Trusted domain", "https://trusted.com", true},
		{"Trusted subdomain", "https://api.trusted.com", true},
		{"Unrelated domain", "https://evil.com", false},
		{"Similar but different", "https://smartedu.example.evil.com", false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.shouldAllow, isOriginAllowed(tc.origin, corsConfig), tc.origin)
		})
	}

	corsConfig.AllowSubdomains = false
	assert.False(t, isOriginAllowed("https://app.smartedu.example", corsConfig))
}
