// Package promstats exports fontdata.Store statistics as Prometheus metrics.
package promstats

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/jmgilman/go/fontdata"
)

// DefaultNamespace prefixes every metric name.
const DefaultNamespace = "fontdata"

// Collector is a prometheus.Collector reading Store.Stats on every scrape.
type Collector struct {
	store *fontdata.Store

	hits         *prometheus.Desc
	misses       *prometheus.Desc
	loads        *prometheus.Desc
	loadFailures *prometheus.Desc
	waits        *prometheus.Desc
	inserts      *prometheus.Desc
	evictions    *prometheus.Desc
	bytesLoaded  *prometheus.Desc
	resident     *prometheus.Desc
	recent       *prometheus.Desc
	loading      *prometheus.Desc
	peakLoading  *prometheus.Desc
	loadLatency  *prometheus.Desc
}

// NewCollector creates a Collector for store. An empty namespace uses
// DefaultNamespace.
func NewCollector(store *fontdata.Store, namespace string) *Collector {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	desc := func(name, help string) *prometheus.Desc {
		return prometheus.NewDesc(prometheus.BuildFQName(namespace, "", name), help, nil, nil)
	}

	return &Collector{
		store:        store,
		hits:         desc("hits_total", "Lookups served from resident font data"),
		misses:       desc("misses_total", "Lookups that found no live font data"),
		loads:        desc("loads_total", "Font files read from disk"),
		loadFailures: desc("load_failures_total", "Font file reads that failed"),
		waits:        desc("waits_total", "Lookups that waited for another goroutine's read"),
		inserts:      desc("inserts_total", "Font data published without a disk read"),
		evictions:    desc("recency_evictions_total", "Buffers dropped from the recency cache"),
		bytesLoaded:  desc("loaded_bytes_total", "Bytes read from font files"),
		resident:     desc("resident_entries", "Resident entries whose bytes are alive"),
		recent:       desc("recency_entries", "Buffers held by the recency cache"),
		loading:      desc("in_flight_loads", "Reads currently in flight"),
		peakLoading:  desc("in_flight_loads_peak", "Highest number of concurrent reads observed"),
		loadLatency:  desc("load_latency_seconds_avg", "Average font file read latency"),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.hits
	ch <- c.misses
	ch <- c.loads
	ch <- c.loadFailures
	ch <- c.waits
	ch <- c.inserts
	ch <- c.evictions
	ch <- c.bytesLoaded
	ch <- c.resident
	ch <- c.recent
	ch <- c.loading
	ch <- c.peakLoading
	ch <- c.loadLatency
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	s := c.store.Stats()

	counter := func(d *prometheus.Desc, v int64) {
		ch <- prometheus.MustNewConstMetric(d, prometheus.CounterValue, float64(v))
	}
	gauge := func(d *prometheus.Desc, v float64) {
		ch <- prometheus.MustNewConstMetric(d, prometheus.GaugeValue, v)
	}

	counter(c.hits, s.Hits)
	counter(c.misses, s.Misses)
	counter(c.loads, s.Loads)
	counter(c.loadFailures, s.LoadFailures)
	counter(c.waits, s.Waits)
	counter(c.inserts, s.Inserts)
	counter(c.evictions, s.Evictions)
	counter(c.bytesLoaded, s.BytesLoaded)
	gauge(c.resident, float64(s.Resident))
	gauge(c.recent, float64(s.Recent))
	gauge(c.loading, float64(s.Loading))
	gauge(c.peakLoading, float64(s.PeakInFlight))
	gauge(c.loadLatency, s.AverageLoadLatency.Seconds())
}
