package fontdata

import (
	"context"
	"fmt"
	"sync"
	"time"
	"weak"

	"github.com/hashicorp/golang-lru/v2/simplelru"
	platformerrors "github.com/jmgilman/go/errors"
	"github.com/jmgilman/go/fs/core"

	"github.com/jmgilman/go/fontdata/internal/logging"
	"github.com/jmgilman/go/fontdata/internal/metrics"
)

// Store deduplicates font bytes across every consumer in a process.
//
// Each distinct ResourceID is read from disk at most once while its bytes
// are alive. The resident map only holds weak pointers; the bytes stay
// alive as long as a Template or the recency cache references them.
// Concurrent requests for the same resource share a single read.
//
// All state is guarded by a single RWMutex which is never held across I/O.
type Store struct {
	mu       sync.RWMutex
	resident map[ResourceID]weak.Pointer[Data]
	loading  map[ResourceID]*loadSignal
	recent   *simplelru.LRU[ResourceID, *Data]

	// evicted collects recency evictions while mu is held so they can be
	// logged after it is released.
	evicted []evictedEntry

	fs                 core.ReadFS
	logger             *logging.Logger
	counters           *metrics.Counters
	preloadConcurrency int
}

type evictedEntry struct {
	id   ResourceID
	size int
}

// Stats is a point-in-time view of a store.
type Stats struct {
	metrics.Snapshot

	// Resident is the number of resident entries whose bytes are still alive.
	Resident int `json:"resident"`
	// Recent is the number of buffers held by the recency cache.
	Recent int `json:"recent"`
	// Loading is the number of resources with a read in flight.
	Loading int `json:"loading"`
}

var defaultStore = sync.OnceValue(func() *Store {
	return New()
})

// Default returns the process-wide store. It is created on first use and
// lives until the process exits.
func Default() *Store {
	return defaultStore()
}

// New creates an independent store. It panics if the options produce an
// invalid configuration; use NewWithConfig to get an error instead.
func New(opts ...Option) *Store {
	var cfg Config
	for _, opt := range opts {
		opt(&cfg)
	}

	s, err := NewWithConfig(cfg)
	if err != nil {
		panic(err)
	}
	return s
}

// NewWithConfig creates an independent store from an explicit configuration.
func NewWithConfig(cfg Config) (*Store, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, platformerrors.Wrap(err, platformerrors.CodeInvalidConfig, "invalid store configuration")
	}

	s := &Store{
		resident:           make(map[ResourceID]weak.Pointer[Data]),
		loading:            make(map[ResourceID]*loadSignal),
		fs:                 cfg.FS,
		logger:             logging.FromSlog(cfg.Logger),
		counters:           metrics.NewCounters(),
		preloadConcurrency: cfg.PreloadConcurrency,
	}

	recent, err := simplelru.NewLRU[ResourceID, *Data](cfg.RecencyCapacity, s.onEvict)
	if err != nil {
		return nil, platformerrors.Wrap(err, platformerrors.CodeInvalidConfig, "failed to create recency cache")
	}
	s.recent = recent

	return s, nil
}

// onEvict runs inside recent.Add, with mu held for writing.
func (s *Store) onEvict(id ResourceID, d *Data) {
	s.evicted = append(s.evicted, evictedEntry{id: id, size: d.Len()})
}

// resolveLocked returns the live bytes for id, or nil. mu must be held.
func (s *Store) resolveLocked(id ResourceID) *Data {
	ref, ok := s.resident[id]
	if !ok {
		return nil
	}
	return ref.Value()
}

// publishLocked records d as the resident bytes for id and pushes it into
// the recency cache. mu must be held for writing. The returned slice holds
// any entries the recency cache evicted.
func (s *Store) publishLocked(id ResourceID, d *Data) []evictedEntry {
	s.resident[id] = weak.Make(d)
	s.recent.Add(id, d)

	if len(s.evicted) == 0 {
		return nil
	}
	evicted := s.evicted
	s.evicted = nil
	return evicted
}

func (s *Store) logEvictions(ctx context.Context, evicted []evictedEntry) {
	for _, e := range evicted {
		s.counters.RecordEviction()
		logging.LogEviction(ctx, s.logger, e.id.String(), int64(e.size))
	}
}

// GetOrLoad returns the bytes for id, reading them from the store's
// filesystem if no live copy exists.
//
// If another goroutine is already reading id, GetOrLoad waits for it and
// then retries. If that read fails the waiter attempts the read itself.
// A waiter whose ctx is done stops waiting and gets ErrLoadAbandoned; the
// read it was waiting on still completes and is published.
//
// Only Path resources can be read. Calling GetOrLoad with a URL resource
// that was never inserted is a programming error and panics.
func (s *Store) GetOrLoad(ctx context.Context, id ResourceID) (*Data, error) {
	missed := false

	for {
		s.mu.RLock()
		d := s.resolveLocked(id)
		s.mu.RUnlock()
		if d != nil {
			if !missed {
				s.counters.RecordHit()
				logging.LogHit(ctx, s.logger, id.String(), int64(d.Len()))
			}
			return d, nil
		}

		s.mu.Lock()
		if d := s.resolveLocked(id); d != nil {
			s.mu.Unlock()
			if !missed {
				s.counters.RecordHit()
				logging.LogHit(ctx, s.logger, id.String(), int64(d.Len()))
			}
			return d, nil
		}

		if sig, ok := s.loading[id]; ok {
			s.mu.Unlock()
			if !missed {
				missed = true
				s.counters.RecordMiss()
				logging.LogMiss(ctx, s.logger, id.String(), "in flight")
			}
			s.counters.RecordWait()
			if err := sig.wait(ctx); err != nil {
				return nil, fmt.Errorf("%w: %s: %w", ErrLoadAbandoned, id, err)
			}
			if sig.err != nil {
				s.logger.Debug(ctx, "in-flight font data load failed, retrying",
					"resource", id.String(),
					"error", sig.err.Error())
			}
			continue
		}

		if id.Kind() != KindPath {
			s.mu.Unlock()
			panic(fmt.Sprintf("fontdata: cannot load %s from disk; it must be inserted first", id))
		}

		sig := newLoadSignal()
		s.loading[id] = sig
		s.mu.Unlock()

		if !missed {
			s.counters.RecordMiss()
			logging.LogMiss(ctx, s.logger, id.String(), "not resident")
		}
		return s.load(ctx, id, sig)
	}
}

// load reads id and publishes the result. The caller must have registered
// sig under id in the in-flight registry.
func (s *Store) load(ctx context.Context, id ResourceID, sig *loadSignal) (*Data, error) {
	s.counters.BeginLoad()
	start := time.Now()

	completed := false
	defer func() {
		// Unblock waiters if the filesystem panicked.
		if !completed {
			s.mu.Lock()
			delete(s.loading, id)
			s.mu.Unlock()
			sig.complete(fmt.Errorf("fontdata: read of %s did not complete", id))
			s.counters.EndLoad(0, time.Since(start), true)
		}
	}()

	b, err := s.fs.ReadFile(id.Name())
	duration := time.Since(start)

	if err != nil {
		err = wrapReadError(err, id)

		s.mu.Lock()
		delete(s.loading, id)
		s.mu.Unlock()
		sig.complete(err)
		completed = true

		s.counters.EndLoad(0, duration, true)
		logging.LogLoad(ctx, s.logger, id.String(), duration, 0, err)
		return nil, err
	}

	d := newData(b)

	s.mu.Lock()
	evicted := s.publishLocked(id, d)
	delete(s.loading, id)
	s.mu.Unlock()
	sig.complete(nil)
	completed = true

	s.counters.EndLoad(int64(d.Len()), duration, false)
	logging.LogLoad(ctx, s.logger, id.String(), duration, int64(d.Len()), nil)
	s.logEvictions(ctx, evicted)

	return d, nil
}

// Insert publishes bytes obtained outside the store, such as a downloaded
// web font, under id. If live bytes already exist for id they are returned
// and b is discarded. The store takes ownership of b.
func (s *Store) Insert(id ResourceID, b []byte) *Data {
	s.mu.Lock()
	if d := s.resolveLocked(id); d != nil {
		s.mu.Unlock()
		return d
	}

	d := newData(b)
	evicted := s.publishLocked(id, d)
	s.mu.Unlock()

	s.counters.RecordInsert(int64(d.Len()))
	s.logger.WithOperation(logging.OpInsert).Debug(context.Background(), "font data inserted",
		"resource", id.String(),
		"size", d.Len())
	s.logEvictions(context.Background(), evicted)

	return d
}

// Lookup returns the live bytes for id without loading.
func (s *Store) Lookup(id ResourceID) (*Data, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d := s.resolveLocked(id)
	return d, d != nil
}

// Stats returns a snapshot of the store's counters and sizes.
func (s *Store) Stats() Stats {
	st := Stats{Snapshot: s.counters.Snapshot()}

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, ref := range s.resident {
		if ref.Value() != nil {
			st.Resident++
		}
	}
	st.Recent = s.recent.Len()
	st.Loading = len(s.loading)

	return st
}

// loadSignal is a one-shot completion signal for an in-flight read.
// Closing done broadcasts to every waiter; err is written before the close.
type loadSignal struct {
	done chan struct{}
	err  error
}

func newLoadSignal() *loadSignal {
	return &loadSignal{done: make(chan struct{})}
}

func (l *loadSignal) complete(err error) {
	l.err = err
	close(l.done)
}

// wait blocks until the read completes or ctx is done. The read's own
// outcome is not returned; waiters retry the lookup instead.
func (l *loadSignal) wait(ctx context.Context) error {
	select {
	case <-l.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
