/*
Package config provides configuration management for the SmartEdu client.

This package separates configuration concerns from business logic and provides
a centralized way to manage application configuration including the backend
connection, generation polling, session storage and the local BFF server.
*/
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/Nexora-Open-Source/smartedu/container"
	"github.com/Nexora-Open-Source/smartedu/middleware"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Config holds all application configuration
type Config struct {
	APIBaseURL  string
	LogLevel    string
	ServerPort  string
	SessionFile string
	// Backend client configuration
	HTTPTimeout  time.Duration
	BackendRPS   float64
	BackendBurst int
	CacheTTL     time.Duration
	// Rate limiting configuration for the local server
	RateLimitRequestsPerMinute float64
	RateLimitBurst             int
	// Enhanced CORS configuration
	CORSConfig CORSConfig
	// Cleanup intervals
	ClientCleanupInterval time.Duration
	// Generation polling settings
	PollConfig PollConfig
}

// PollConfig holds the generation watcher settings
type PollConfig struct {
	Interval    time.Duration `json:"interval"`
	MaxAttempts int           `json:"max_attempts"`
	Immediate   bool          `json:"immediate"`
	// How long finished watchers stay queryable in the registry
	Retention time.Duration `json:"retention"`
}

// CORSConfig holds CORS-related configuration
type CORSConfig struct {
	// Environment-specific settings
	Environment string
	// Allowed origins based on environment
	DevelopmentOrigins []string
	StagingOrigins     []string
	ProductionOrigins  []string
	// Additional CORS settings
	AllowedMethods   []string
	AllowedHeaders   []string
	ExposedHeaders   []string
	AllowCredentials bool
	MaxAge           int
	// Dynamic origin validation
	AllowSubdomains bool
	AllowedDomains  []string
}

// Services holds all service dependencies
type Services struct {
	Container *container.Container
	Logger    *logrus.Logger
}

// AppConfig holds both configuration and services
type AppConfig struct {
	Config   *Config
	Services *Services
}

// LoadEnvFile loads variables from a .env file if present. Variables that are
// already set in the environment win.
func LoadEnvFile(path string) error {
	if path == "" {
		path = ".env"
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// NewConfig creates a new configuration instance
func NewConfig() *Config {
	environment := getEnv("ENVIRONMENT", "development")

	return &Config{
		APIBaseURL:  strings.TrimRight(getEnv("SMARTEDU_API_URL", ""), "/"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		ServerPort:  getEnv("SERVER_PORT", "8080"),
		SessionFile: getEnv("SESSION_FILE", defaultSessionFile()),
		// Backend client defaults
		HTTPTimeout:  getEnvDuration("HTTP_TIMEOUT", 30*time.Second),
		BackendRPS:   getEnvFloat("BACKEND_RPS", 5.0),
		BackendBurst: getEnvInt("BACKEND_BURST", 10),
		CacheTTL:     getEnvDuration("CACHE_TTL", 5*time.Minute),
		// Rate limiting defaults (120 requests per minute, burst of 20)
		RateLimitRequestsPerMinute: getEnvFloat("RATE_LIMIT_RPM", 120.0),
		RateLimitBurst:             getEnvInt("RATE_LIMIT_BURST", 20),
		CORSConfig: CORSConfig{
			Environment: environment,
			DevelopmentOrigins: getEnvSlice("DEV_CORS_ORIGINS", []string{
				"http://localhost:3000",
				"http://localhost:5173",
				"http://127.0.0.1:3000",
				"http://127.0.0.1:5173",
			}),
			StagingOrigins:    getEnvSlice("STAGING_CORS_ORIGINS", []string{}),
			ProductionOrigins: getEnvSlice("PROD_CORS_ORIGINS", []string{}),
			AllowedMethods: getEnvSlice("CORS_ALLOWED_METHODS", []string{
				"GET", "POST", "PATCH", "DELETE", "OPTIONS",
			}),
			AllowedHeaders: getEnvSlice("CORS_ALLOWED_HEADERS", []string{
				"Content-Type", "Authorization", "X-Requested-With",
				"X-Request-ID", "Accept", "Origin",
			}),
			ExposedHeaders: getEnvSlice("CORS_EXPOSED_HEADERS", []string{
				"X-Request-ID",
			}),
			AllowCredentials: getEnvBool("CORS_ALLOW_CREDENTIALS", true),
			MaxAge:           getEnvInt("CORS_MAX_AGE", 86400), // 24 hours
			AllowSubdomains:  getEnvBool("CORS_ALLOW_SUBDOMAINS", false),
			AllowedDomains:   getEnvSlice("CORS_ALLOWED_DOMAINS", []string{}),
		},
		ClientCleanupInterval: getEnvDuration("CLIENT_CLEANUP_INTERVAL", 1*time.Minute),
		// 144 polls every 10s gives up after roughly 24 minutes
		PollConfig: PollConfig{
			Interval:    getEnvDuration("POLL_INTERVAL", 10*time.Second),
			MaxAttempts: getEnvInt("POLL_MAX_ATTEMPTS", 144),
			Immediate:   getEnvBool("POLL_IMMEDIATE", true),
			Retention:   getEnvDuration("WATCHER_RETENTION", 30*time.Minute),
		},
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.APIBaseURL == "" {
		return fmt.Errorf("SMARTEDU_API_URL environment variable is required")
	}
	u, err := url.Parse(c.APIBaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("SMARTEDU_API_URL must be an absolute URL, got %q", c.APIBaseURL)
	}
	if c.PollConfig.Interval <= 0 {
		return fmt.Errorf("POLL_INTERVAL must be positive")
	}
	if c.PollConfig.MaxAttempts <= 0 {
		return fmt.Errorf("POLL_MAX_ATTEMPTS must be positive")
	}
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT must be positive")
	}
	return nil
}

// NewServices creates and initializes all service dependencies using DI container
func NewServices(config *Config) (*Services, error) {
	logger := middleware.Logger
	if logger == nil {
		logger = logrus.New()
		logger.SetLevel(logrus.InfoLevel)
	}

	diContainer := container.NewContainer()
	err := diContainer.InitializeServices(container.Settings{
		APIBaseURL:    config.APIBaseURL,
		HTTPTimeout:   config.HTTPTimeout,
		BackendRPS:    config.BackendRPS,
		BackendBurst:  config.BackendBurst,
		CacheTTL:      config.CacheTTL,
		SessionFile:   config.SessionFile,
		PollInterval:  config.PollConfig.Interval,
		PollAttempts:  config.PollConfig.MaxAttempts,
		PollImmediate: config.PollConfig.Immediate,
		Retention:     config.PollConfig.Retention,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize dependency container: %w", err)
	}
	logger.WithFields(logrus.Fields{
		"api_base_url":      config.APIBaseURL,
		"poll_interval":     config.PollConfig.Interval.String(),
		"poll_max_attempts": config.PollConfig.MaxAttempts,
	}).Info("Services initialized successfully")

	return &Services{
		Container: diContainer,
		Logger:    logger,
	}, nil
}

// NewAppConfig creates a new application configuration with all dependencies
func NewAppConfig() (*AppConfig, error) {
	config := NewConfig()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	services, err := NewServices(config)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	return &AppConfig{
		Config:   config,
		Services: services,
	}, nil
}

// Close gracefully closes all service connections
func (s *Services) Close() error {
	if s.Container != nil {
		return s.Container.Close()
	}
	return nil
}

func defaultSessionFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".smartedu-session.json"
	}
	return filepath.Join(home, ".smartedu", "session.json")
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvFloat gets an environment variable as float64 with a default value
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// getEnvInt gets an environment variable as int with a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// getEnvDuration gets an environment variable as time.Duration with a default value
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// getEnvBool gets an environment variable as bool with a default value
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// getEnvSlice gets an environment variable as a string slice with a default value
func getEnvSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		return out
	}
	return defaultValue
}
