package container

import (
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/Nexora-Open-Source/smartedu/session"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSettings(t *testing.T) Settings {
	return Settings{
		APIBaseURL:    "http://localhost:9",
		HTTPTimeout:   time.Second,
		BackendRPS:    10,
		BackendBurst:  10,
		CacheTTL:      time.Minute,
		SessionFile:   filepath.Join(t.TempDir(), "session.json"),
		PollInterval:  time.Second,
		PollAttempts:  5,
		PollImmediate: true,
	}
}

func TestInitializeServices(t *testing.T) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	c := NewContainer()
	require.NoError(t, c.InitializeServices(testSettings(t), logger))
	defer c.Close()

	client, err := c.GetClient()
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:9", client.BaseURL())

	store, err := c.GetSession()
	require.NoError(t, err)
	_, isFile := store.(*session.FileStore)
	assert.True(t, isFile)

	registry, err := c.GetRegistry()
	require.NoError(t, err)
	assert.Equal(t, 0, registry.Active())

	handler, err := c.GetHandler()
	require.NoError(t, err)
	assert.Same(t, registry, handler.Registry)

	_, err = c.GetHealthHandler()
	require.NoError(t, err)
	_, err = c.GetTrigger()
	require.NoError(t, err)
}

func TestInitializeServicesMemorySession(t *testing.T) {
	settings := testSettings(t)
	settings.SessionFile = ""

	c := NewContainer()
	require.NoError(t, c.InitializeServices(settings, logrus.New()))
	defer c.Close()

	store, err := c.GetSession()
	require.NoError(t, err)
	_, isMemory := store.(*session.MemoryStore)
	assert.True(t, isMemory)
}

func TestInitializeServicesRequiresBaseURL(t *testing.T) {
	c := NewContainer()
	assert.Error(t, c.InitializeServices(Settings{}, logrus.New()))
}

func TestGetUnknownService(t *testing.T) {
	c := NewContainer()
	_, err := c.Get("missing")
	assert.Error(t, err)

	c.Register("logger", "not a logger")
	_, err = c.GetLogger()
	assert.Error(t, err)
}

func TestCloseTwice(t *testing.T) {
	c := NewContainer()
	require.NoError(t, c.InitializeServices(testSettings(t), logrus.New()))
	assert.NoError(t, c.Close())
	assert.NoError(t, c.Close())
}
