package generation

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRegistry(t *testing.T, fetcher Fetcher, retention time.Duration) *Registry {
	t.Helper()
	r := NewRegistry(map[Kind]Fetcher{KindOutline: fetcher, KindEbook: fetcher}, Options{
		Interval:    10 * time.Millisecond,
		MaxAttempts: 1000,
		Immediate:   true,
	}, retention, quietLogger())
	t.Cleanup(r.Shutdown)
	return r
}

func TestRegistryReplacesWatcherInSlot(t *testing.T) {
	r := newTestRegistry(t, newScriptedFetcher(NotReadyOutcome()), 0)

	first, err := r.Watch(Job{Kind: KindOutline, ID: "12"}, true, nil)
	require.NoError(t, err)
	second, err := r.Watch(Job{Kind: KindOutline, ID: "12"}, true, nil)
	require.NoError(t, err)

	waitDone(t, first)
	assert.False(t, second.Finished())

	got, ok := r.Get(KindOutline, "12")
	require.True(t, ok)
	assert.Same(t, second, got)
	assert.Len(t, r.List(), 1)
	assert.Equal(t, 1, r.Active())
}

func TestRegistrySlotsAreKeyedByKind(t *testing.T) {
	r := newTestRegistry(t, newScriptedFetcher(NotReadyOutcome()), 0)

	_, err := r.Watch(Job{Kind: KindOutline, ID: "12"}, true, nil)
	require.NoError(t, err)
	_, err = r.Watch(Job{Kind: KindEbook, ID: "12"}, false, nil)
	require.NoError(t, err)

	list := r.List()
	require.Len(t, list, 2)
	assert.Equal(t, "ebook/12", list[0].Job.Key())
	assert.False(t, list[0].Generating)
	assert.Equal(t, "outline/12", list[1].Job.Key())
	assert.True(t, list[1].Generating)
}

func TestRegistryStop(t *testing.T) {
	r := newTestRegistry(t, newScriptedFetcher(NotReadyOutcome()), 0)

	w, err := r.Watch(Job{Kind: KindOutline, ID: "12"}, true, nil)
	require.NoError(t, err)

	assert.True(t, r.Stop(KindOutline, "12"))
	waitDone(t, w)
	_, ok := r.Get(KindOutline, "12")
	assert.False(t, ok)
	assert.False(t, r.Stop(KindOutline, "12"))
}

func TestRegistryRejectsBadJobs(t *testing.T) {
	r := newTestRegistry(t, newScriptedFetcher(NotReadyOutcome()), 0)

	_, err := r.Watch(Job{Kind: Kind("quiz"), ID: "1"}, true, nil)
	assert.ErrorIs(t, err, ErrUnknownKind)

	w, err := r.Watch(Job{Kind: KindOutline, ID: ""}, true, nil)
	assert.ErrorIs(t, err, ErrMissingID)
	assert.Equal(t, Failed, w.Status().State)
	assert.Empty(t, r.List())
}

func TestRegistryCheckOnlyWatch(t *testing.T) {
	r := newTestRegistry(t, newScriptedFetcher(NotReadyOutcome()), 0)

	w, err := r.Watch(Job{Kind: KindEbook, ID: "7"}, false, nil)
	require.NoError(t, err)
	assert.Equal(t, NotReady, waitDone(t, w).State)
}

func TestRegistryDeliversChanges(t *testing.T) {
	r := newTestRegistry(t, newScriptedFetcher(ReadyOutcome(json.RawMessage(`{"id":12}`))), 0)

	rec := &recorder{}
	w, err := r.Watch(Job{Kind: KindOutline, ID: "12"}, true, rec.record)
	require.NoError(t, err)
	waitDone(t, w)
	assert.Equal(t, []string{"polling(0/1000)", "ready"}, rec.Strings())
}

func TestRegistryEvictsFinishedWatchers(t *testing.T) {
	r := newTestRegistry(t, newScriptedFetcher(ReadyOutcome(json.RawMessage(`{"id":12}`))), time.Hour)

	done, err := r.Watch(Job{Kind: KindOutline, ID: "12"}, true, nil)
	require.NoError(t, err)
	waitDone(t, done)

	slow := newScriptedFetcher(NotReadyOutcome())
	r.fetchers[KindEbook] = slow
	_, err = r.Watch(Job{Kind: KindEbook, ID: "7"}, true, nil)
	require.NoError(t, err)

	now := time.Now()
	assert.Equal(t, 0, r.evict(now), "first sighting only marks the finish time")
	assert.Equal(t, 0, r.evict(now.Add(30*time.Minute)))
	assert.Equal(t, 1, r.evict(now.Add(time.Hour)))

	_, ok := r.Get(KindOutline, "12")
	assert.False(t, ok)
	_, ok = r.Get(KindEbook, "7")
	assert.True(t, ok, "running watchers are never evicted")
}

func TestRegistryShutdown(t *testing.T) {
	r := newTestRegistry(t, newScriptedFetcher(NotReadyOutcome()), time.Minute)

	w, err := r.Watch(Job{Kind: KindOutline, ID: "12"}, true, nil)
	require.NoError(t, err)

	r.Shutdown()
	waitDone(t, w)
	assert.Empty(t, r.List())

	_, err = r.Watch(Job{Kind: KindOutline, ID: "13"}, true, nil)
	assert.Error(t, err)
}
