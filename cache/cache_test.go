package cache

import (
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T, ttl time.Duration) (*CacheManager, *InMemoryCache) {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)

	c := NewInMemoryCache(ttl)
	t.Cleanup(c.Close)
	return NewCacheManager(c, logger, ttl), c
}

func TestInMemoryCacheExpiry(t *testing.T) {
	c := NewInMemoryCache(time.Minute)
	defer c.Close()

	require.NoError(t, c.Set("a", []byte("1"), 20*time.Millisecond))
	got, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, []byte("1"), got)

	time.Sleep(40 * time.Millisecond)
	_, ok = c.Get("a")
	assert.False(t, ok)

	c.cleanup()
	c.mutex.RLock()
	assert.Empty(t, c.items)
	c.mutex.RUnlock()
}

func TestCacheManagerResponses(t *testing.T) {
	cm, _ := newTestManager(t, time.Minute)

	_, found := cm.GetResponse("/materi-pokok/")
	assert.False(t, found)

	require.NoError(t, cm.SetResponse("/materi-pokok/", []byte(`{"data":[]}`)))
	body, found := cm.GetResponse("/materi-pokok/")
	assert.True(t, found)
	assert.JSONEq(t, `{"data":[]}`, string(body))
}

func TestCacheManagerInvalidateResource(t *testing.T) {
	cm, _ := newTestManager(t, time.Minute)

	require.NoError(t, cm.SetResponse("/materi-pokok/", []byte("list")))
	require.NoError(t, cm.SetResponse("/materi-pokok/7", []byte("one")))
	require.NoError(t, cm.SetResponse("/model/", []byte("models")))

	require.NoError(t, cm.InvalidateResource("/materi-pokok"))

	_, found := cm.GetResponse("/materi-pokok/")
	assert.False(t, found)
	_, found = cm.GetResponse("/materi-pokok/7")
	assert.False(t, found)
	_, found = cm.GetResponse("/model/")
	assert.True(t, found, "other resources stay cached")
}

func TestCacheManagerClearAll(t *testing.T) {
	cm, _ := newTestManager(t, time.Minute)

	require.NoError(t, cm.SetResponse("/model/", []byte("models")))
	require.NoError(t, cm.ClearAll())

	_, found := cm.GetResponse("/model/")
	assert.False(t, found)
}
