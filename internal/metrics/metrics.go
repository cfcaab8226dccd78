// Package metrics tracks operational counters for the font data store.
package metrics

import (
	"sync/atomic"
	"time"
)

// Counters provides lock-free counters for store operations.
// All methods are safe for concurrent use.
type Counters struct {
	// Core hit/miss statistics
	hits   atomic.Int64
	misses atomic.Int64

	// Load tracking
	loads         atomic.Int64
	loadFailures  atomic.Int64
	waits         atomic.Int64
	inserts       atomic.Int64
	bytesLoaded   atomic.Int64
	bytesInserted atomic.Int64
	loadNanos     atomic.Int64

	// Recency cache evictions
	evictions atomic.Int64

	// Peak usage tracking
	inFlight     atomic.Int64
	peakInFlight atomic.Int64

	startTime time.Time
}

// NewCounters creates a new Counters instance.
func NewCounters() *Counters {
	return &Counters{startTime: time.Now()}
}

// RecordHit records a resident-map hit.
func (c *Counters) RecordHit() { c.hits.Add(1) }

// RecordMiss records a lookup that had to enter the slow path.
func (c *Counters) RecordMiss() { c.misses.Add(1) }

// RecordWait records a caller that blocked on another goroutine's load.
func (c *Counters) RecordWait() { c.waits.Add(1) }

// RecordInsert records an out-of-band publication.
func (c *Counters) RecordInsert(size int64) {
	c.inserts.Add(1)
	c.bytesInserted.Add(size)
}

// RecordEviction records a recency cache eviction.
func (c *Counters) RecordEviction() { c.evictions.Add(1) }

// BeginLoad marks the start of a disk read and updates the in-flight peak.
func (c *Counters) BeginLoad() {
	n := c.inFlight.Add(1)
	for {
		peak := c.peakInFlight.Load()
		if n <= peak || c.peakInFlight.CompareAndSwap(peak, n) {
			return
		}
	}
}

// EndLoad marks the end of a disk read started with BeginLoad.
func (c *Counters) EndLoad(size int64, duration time.Duration, failed bool) {
	c.inFlight.Add(-1)
	c.loadNanos.Add(int64(duration))
	if failed {
		c.loadFailures.Add(1)
		return
	}
	c.loads.Add(1)
	c.bytesLoaded.Add(size)
}

// Snapshot provides a point-in-time view of the counters.
type Snapshot struct {
	Hits          int64   `json:"hits"`
	Misses        int64   `json:"misses"`
	HitRate       float64 `json:"hit_rate"`
	Loads         int64   `json:"loads"`
	LoadFailures  int64   `json:"load_failures"`
	Waits         int64   `json:"waits"`
	Inserts       int64   `json:"inserts"`
	Evictions     int64   `json:"evictions"`
	BytesLoaded   int64   `json:"bytes_loaded"`
	BytesInserted int64   `json:"bytes_inserted"`
	InFlight      int64   `json:"in_flight"`
	PeakInFlight  int64   `json:"peak_in_flight"`

	AverageLoadLatency time.Duration `json:"avg_load_latency_ns"`
	Uptime             time.Duration `json:"uptime"`
}

// Snapshot returns the current counter values.
func (c *Counters) Snapshot() Snapshot {
	s := Snapshot{
		Hits:          c.hits.Load(),
		Misses:        c.misses.Load(),
		Loads:         c.loads.Load(),
		LoadFailures:  c.loadFailures.Load(),
		Waits:         c.waits.Load(),
		Inserts:       c.inserts.Load(),
		Evictions:     c.evictions.Load(),
		BytesLoaded:   c.bytesLoaded.Load(),
		BytesInserted: c.bytesInserted.Load(),
		InFlight:      c.inFlight.Load(),
		PeakInFlight:  c.peakInFlight.Load(),
		Uptime:        time.Since(c.startTime),
	}

	if total := s.Hits + s.Misses; total > 0 {
		s.HitRate = float64(s.Hits) / float64(total)
	}
	if attempts := s.Loads + s.LoadFailures; attempts > 0 {
		s.AverageLoadLatency = time.Duration(c.loadNanos.Load() / attempts)
	}

	return s
}
