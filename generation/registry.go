package generation

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

type slot struct {
	watcher    *Watcher
	finishedAt time.Time
}

// Registry owns watchers on behalf of clients that cannot keep timers of
// their own. It holds at most one watcher per (kind, id) slot and evicts
// finished watchers after the retention period.
type Registry struct {
	fetchers  map[Kind]Fetcher
	opts      Options
	retention time.Duration
	logger    *logrus.Logger

	mu    sync.RWMutex
	slots map[string]*slot

	ctx    context.Context
	cancel context.CancelFunc
	quit   chan struct{}
	wg     sync.WaitGroup
	once   sync.Once
}

// NewRegistry creates a registry. opts.Generating is ignored; it is chosen
// per Watch call. A retention of zero keeps finished watchers until replaced.
func NewRegistry(fetchers map[Kind]Fetcher, opts Options, retention time.Duration, logger *logrus.Logger) *Registry {
	if logger == nil {
		logger = logrus.New()
	}
	ctx, cancel := context.WithCancel(context.Background())
	r := &Registry{
		fetchers:  fetchers,
		opts:      opts,
		retention: retention,
		logger:    logger,
		slots:     make(map[string]*slot),
		ctx:       ctx,
		cancel:    cancel,
		quit:      make(chan struct{}),
	}

	if retention > 0 {
		interval := retention / 4
		if interval < time.Second {
			interval = time.Second
		}
		r.wg.Add(1)
		go r.cleanupLoop(interval)
	}
	return r
}

// Watch starts a watcher for job, stopping and replacing any watcher already
// in the job's slot. onChange may be nil.
func (r *Registry) Watch(job Job, generating bool, onChange func(Status)) (*Watcher, error) {
	fetcher, ok := r.fetchers[job.Kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, string(job.Kind))
	}

	opts := r.opts
	opts.Generating = generating
	w := NewWatcher(job, fetcher, opts, r.logger)
	if onChange != nil {
		w.OnChange(onChange)
	}

	r.mu.Lock()
	select {
	case <-r.quit:
		r.mu.Unlock()
		return nil, fmt.Errorf("registry is stopped")
	default:
	}
	previous := r.slots[job.Key()]
	r.slots[job.Key()] = &slot{watcher: w}
	r.mu.Unlock()

	if previous != nil {
		previous.watcher.Stop()
		r.logger.WithField("job", job.Key()).Debug("Replaced existing watcher")
	}

	// Started outside the lock: Start delivers the first callback synchronously
	if err := w.Start(r.ctx); err != nil {
		r.mu.Lock()
		if s, ok := r.slots[job.Key()]; ok && s.watcher == w {
			delete(r.slots, job.Key())
		}
		r.mu.Unlock()
		return w, err
	}
	return w, nil
}

// Get returns the watcher in the slot for kind and id
func (r *Registry) Get(kind Kind, id string) (*Watcher, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.slots[JobKey(kind, id)]
	if !ok {
		return nil, false
	}
	return s.watcher, true
}

// Stop stops and removes the watcher for kind and id
func (r *Registry) Stop(kind Kind, id string) bool {
	r.mu.Lock()
	s, ok := r.slots[JobKey(kind, id)]
	delete(r.slots, JobKey(kind, id))
	r.mu.Unlock()

	if ok {
		s.watcher.Stop()
	}
	return ok
}

// Snapshot is the status of one registered job
type Snapshot struct {
	Job    Job
	Status Status
	// Generating is false for check-only watchers
	Generating bool
}

// List returns the status of every registered job ordered by key
func (r *Registry) List() []Snapshot {
	r.mu.RLock()
	out := make([]Snapshot, 0, len(r.slots))
	for _, s := range r.slots {
		out = append(out, Snapshot{
			Job:        s.watcher.Job(),
			Status:     s.watcher.Status(),
			Generating: s.watcher.Options().Generating,
		})
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Job.Key() < out[j].Job.Key() })
	return out
}

// Active counts watchers that are still polling
func (r *Registry) Active() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, s := range r.slots {
		if !s.watcher.Finished() {
			n++
		}
	}
	return n
}

func (r *Registry) cleanupLoop(interval time.Duration) {
	defer r.wg.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.evict(time.Now())
		case <-r.quit:
			return
		}
	}
}

// evict removes finished watchers older than the retention period. A watcher
// is timestamped the first time it is seen finished.
func (r *Registry) evict(now time.Time) int {
	r.mu.Lock()
	removed := 0
	for key, s := range r.slots {
		if !s.watcher.Finished() {
			continue
		}
		if s.finishedAt.IsZero() {
			s.finishedAt = now
			continue
		}
		if now.Sub(s.finishedAt) >= r.retention {
			delete(r.slots, key)
			removed++
		}
	}
	r.mu.Unlock()

	if removed > 0 {
		r.logger.WithField("removed_count", removed).Info("Evicted finished watchers")
	}
	return removed
}

// Shutdown stops every watcher and the cleanup loop
func (r *Registry) Shutdown() {
	r.once.Do(func() {
		r.logger.Info("Stopping generation registry")
		r.mu.Lock()
		close(r.quit)
		slots := r.slots
		r.slots = make(map[string]*slot)
		r.mu.Unlock()

		r.cancel()
		for _, s := range slots {
			s.watcher.Stop()
		}
		r.wg.Wait()
		r.logger.Info("Generation registry stopped")
	})
}
