package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfig(t *testing.T) {
	tests := []struct {
		name     string
		envVars  map[string]string
		expected *Config
	}{
		{
			name: "default config",
			envVars: map[string]string{
				"SMARTEDU_API_URL": "https://api.smartedu.test/",
			},
			expected: &Config{
				APIBaseURL: "https://api.smartedu.test",
				LogLevel:   "info",
				ServerPort: "8080",
				PollConfig: PollConfig{Interval: 10 * time.Second, MaxAttempts: 144, Immediate: true},
			},
		},
		{
			name: "custom config",
			envVars: map[string]string{
				"SMARTEDU_API_URL":  "http://localhost:5000",
				"LOG_LEVEL":         "debug",
				"SERVER_PORT":       "9000",
				"POLL_INTERVAL":     "2s",
				"POLL_MAX_ATTEMPTS": "5",
				"POLL_IMMEDIATE":    "false",
			},
			expected: &Config{
				APIBaseURL: "http://localhost:5000",
				LogLevel:   "debug",
				ServerPort: "9000",
				PollConfig: PollConfig{Interval: 2 * time.Second, MaxAttempts: 5, Immediate: false},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, key := range []string{"LOG_LEVEL", "SERVER_PORT", "POLL_INTERVAL", "POLL_MAX_ATTEMPTS", "POLL_IMMEDIATE"} {
				t.Setenv(key, "")
			}
			for key, value := range tt.envVars {
				t.Setenv(key, value)
			}

			config := NewConfig()
			assert.Equal(t, tt.expected.APIBaseURL, config.APIBaseURL)
			assert.Equal(t, tt.expected.LogLevel, config.LogLevel)
			assert.Equal(t, tt.expected.ServerPort, config.ServerPort)
			assert.Equal(t, tt.expected.PollConfig.Interval, config.PollConfig.Interval)
			assert.Equal(t, tt.expected.PollConfig.MaxAttempts, config.PollConfig.MaxAttempts)
			assert.Equal(t, tt.expected.PollConfig.Immediate, config.PollConfig.Immediate)
		})
	}
}

func TestConfigValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			APIBaseURL:  "https://api.smartedu.test",
			HTTPTimeout: time.Second,
			PollConfig:  PollConfig{Interval: time.Second, MaxAttempts: 3},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "valid config", mutate: func(c *Config) {}, wantErr: false},
		{name: "missing api url", mutate: func(c *Config) { c.APIBaseURL = "" }, wantErr: true},
		{name: "relative api url", mutate: func(c *Config) { c.APIBaseURL = "api/v1" }, wantErr: true},
		{name: "zero interval", mutate: func(c *Config) { c.PollConfig.Interval = 0 }, wantErr: true},
		{name: "zero attempts", mutate: func(c *Config) { c.PollConfig.MaxAttempts = 0 }, wantErr: true},
		{name: "zero timeout", mutate: func(c *Config) { c.HTTPTimeout = 0 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := valid()
			tt.mutate(config)
			err := config.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("SMARTEDU_TEST_FROM_FILE=loaded\n"), 0o600))
	defer os.Unsetenv("SMARTEDU_TEST_FROM_FILE")

	require.NoError(t, LoadEnvFile(path))
	assert.Equal(t, "loaded", os.Getenv("SMARTEDU_TEST_FROM_FILE"))

	// Missing files are not an error
	assert.NoError(t, LoadEnvFile(filepath.Join(dir, "missing.env")))
}

func TestGetEnv(t *testing.T) {
	t.Setenv("TEST_VAR", "test_value")

	result := getEnv("TEST_VAR", "default")
	assert.Equal(t, "test_value", result)

	result = getEnv("NON_EXISTING_VAR", "default")
	assert.Equal(t, "default", result)
}

func TestGetEnvSlice(t *testing.T) {
	t.Setenv("TEST_SLICE", " a, b ,,c ")
	assert.Equal(t, []string{"a", "b", "c"}, getEnvSlice("TEST_SLICE", nil))
	assert.Equal(t, []string{"x"}, getEnvSlice("NON_EXISTING_SLICE", []string{"x"}))
}

func TestServicesClose(t *testing.T) {
	services := &Services{
		Logger: logrus.New(),
	}

	assert.NotPanics(t, func() {
		services.Close()
	}, "Close should not panic")
}
