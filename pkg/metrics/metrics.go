// Package metrics exports pool statistics and tick timings to Prometheus.
//
// # Overview
//
// The metrics package provides:
//   - PoolCollector, a prometheus.Collector reading Stats snapshots on scrape
//   - TickMetrics, a histogram of tick durations plus a tick counter
//   - Timer and LatencyTracker for ad hoc measurements
//
// # Basic Usage
//
//	reg := prometheus.NewRegistry()
//	reg.MustRegister(metrics.NewPoolCollector(manager))
//
//	ticks := metrics.NewTickMetrics(reg)
//	loop, _ := tick.NewLoop(queue, 16*time.Millisecond, tick.ObserveDuration(ticks.Observe))
//
// Collectors take a Registerer so tests and embedders can use their own
// registry instead of the global default.
package metrics

import (
	"sort"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ajitpratap0/spawnpool/pkg/pool"
)

const namespace = "spawnpool"

// StatsSource is anything that can report pool statistics.
// *pool.Manager satisfies it.
type StatsSource interface {
	Name() string
	Stats() pool.Stats
}

// PoolCollector exposes the Stats of one or more pools. Values are read at
// scrape time, so nothing has to be updated on the hot path.
type PoolCollector struct {
	mu      sync.RWMutex
	sources []StatsSource

	idle          *prometheus.Desc
	live          *prometheus.Desc
	maxLive       *prometheus.Desc
	acquired      *prometheus.Desc
	released      *prometheus.Desc
	spawned       *prometheus.Desc
	spawnFailures *prometheus.Desc
	destroyed     *prometheus.Desc
}

var _ prometheus.Collector = (*PoolCollector)(nil)

// NewPoolCollector creates a collector for the given sources.
//
// Example:
//
//	prometheus.MustRegister(metrics.NewPoolCollector(characters, projectiles))
func NewPoolCollector(sources ...StatsSource) *PoolCollector {
	labels := []string{"pool"}
	desc := func(name, help string) *prometheus.Desc {
		return prometheus.NewDesc(prometheus.BuildFQName(namespace, "pool", name), help, labels, nil)
	}

	return &PoolCollector{
		sources:       sources,
		idle:          desc("idle", "Entities in the pool ready to be acquired"),
		live:          desc("live", "Entities currently acquired"),
		maxLive:       desc("max_live", "Highest number of entities acquired at once"),
		acquired:      desc("acquired_total", "Successful acquisitions"),
		released:      desc("released_total", "Accepted releases"),
		spawned:       desc("spawned_total", "Entities spawned by the pool"),
		spawnFailures: desc("spawn_failures_total", "Spawn attempts that produced no entity"),
		destroyed:     desc("destroyed_total", "Idle entities destroyed at teardown"),
	}
}

// Add registers another source.
func (c *PoolCollector) Add(src StatsSource) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sources = append(c.sources, src)
}

// Describe implements prometheus.Collector.
func (c *PoolCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.idle
	ch <- c.live
	ch <- c.maxLive
	ch <- c.acquired
	ch <- c.released
	ch <- c.spawned
	ch <- c.spawnFailures
	ch <- c.destroyed
}

// Collect implements prometheus.Collector.
func (c *PoolCollector) Collect(ch chan<- prometheus.Metric) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, src := range c.sources {
		s := src.Stats()
		name := src.Name()

		ch <- prometheus.MustNewConstMetric(c.idle, prometheus.GaugeValue, float64(s.Idle), name)
		ch <- prometheus.MustNewConstMetric(c.live, prometheus.GaugeValue, float64(s.Live), name)
		ch <- prometheus.MustNewConstMetric(c.maxLive, prometheus.GaugeValue, float64(s.MaxLive), name)
		ch <- prometheus.MustNewConstMetric(c.acquired, prometheus.CounterValue, float64(s.TotalAcquired), name)
		ch <- prometheus.MustNewConstMetric(c.released, prometheus.CounterValue, float64(s.TotalReleased), name)
		ch <- prometheus.MustNewConstMetric(c.spawned, prometheus.CounterValue, float64(s.TotalSpawned), name)
		ch <- prometheus.MustNewConstMetric(c.spawnFailures, prometheus.CounterValue, float64(s.SpawnFailures), name)
		ch <- prometheus.MustNewConstMetric(c.destroyed, prometheus.CounterValue, float64(s.Destroyed), name)
	}
}

// TickMetrics records how long host ticks take.
type TickMetrics struct {
	// Duration is the distribution of tick wall time in seconds
	Duration prometheus.Histogram
	// Ticks counts completed ticks
	Ticks prometheus.Counter
}

// NewTickMetrics creates and registers tick metrics on reg. A nil reg
// leaves them unregistered.
func NewTickMetrics(reg prometheus.Registerer) *TickMetrics {
	factory := promauto.With(reg)
	return &TickMetrics{
		Duration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "tick_duration_seconds",
			Help:      "Wall time of one host tick, including pool work",
			Buckets: []float64{
				0.0001, // 100μs
				0.0005, // 500μs
				0.001,  // 1ms
				0.004,  // 4ms
				0.008,  // 8ms
				0.016,  // 16ms - one frame at 60Hz
				0.033,  // 33ms - one frame at 30Hz
				0.1,    // 100ms - hitch
			},
		}),
		Ticks: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ticks_total",
			Help:      "Completed host ticks",
		}),
	}
}

// Observe records one tick. It matches tick.ObserveDuration.
func (m *TickMetrics) Observe(d time.Duration) {
	m.Duration.Observe(d.Seconds())
	m.Ticks.Inc()
}

// Timer provides a simple timing mechanism for measuring operation durations.
// It captures the start time on creation and calculates elapsed time on stop.
type Timer struct {
	start time.Time
	name  string
}

// NewTimer creates a new timer and starts timing immediately.
//
// Example:
//
//	timer := metrics.NewTimer("initialize_pool")
//	manager.InitializePool("character")
//	logger.Info("pool initialized", zap.Duration("duration", timer.Stop()))
func NewTimer(name string) *Timer {
	return &Timer{
		start: time.Now(),
		name:  name,
	}
}

// Name returns the label the timer was created with.
func (t *Timer) Name() string {
	return t.name
}

// Stop returns the elapsed duration since creation. It can be called
// repeatedly.
func (t *Timer) Stop() time.Duration {
	return time.Since(t.start)
}

// LatencyTracker keeps the most recent durations and reports percentiles
// over them.
type LatencyTracker struct {
	mu      sync.Mutex
	values  []time.Duration
	maxSize int
}

// NewLatencyTracker creates a tracker holding at most maxSize samples.
func NewLatencyTracker(maxSize int) *LatencyTracker {
	if maxSize <= 0 {
		maxSize = 1
	}
	return &LatencyTracker{
		values:  make([]time.Duration, 0, maxSize),
		maxSize: maxSize,
	}
}

// Record records a latency value, evicting the oldest when full.
func (l *LatencyTracker) Record(d time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.values) >= l.maxSize {
		copy(l.values, l.values[1:])
		l.values = l.values[:len(l.values)-1]
	}
	l.values = append(l.values, d)
}

// Count returns the number of samples held.
func (l *LatencyTracker) Count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.values)
}

// Percentile returns the nearest-rank percentile p (0-100) of the held
// samples, or 0 when there are none.
func (l *LatencyTracker) Percentile(p float64) time.Duration {
	l.mu.Lock()
	sorted := make([]time.Duration, len(l.values))
	copy(sorted, l.values)
	l.mu.Unlock()

	if len(sorted) == 0 {
		return 0
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	index := int(float64(len(sorted)) * p / 100)
	if index >= len(sorted) {
		index = len(sorted) - 1
	}
	if index < 0 {
		index = 0
	}
	return sorted[index]
}

// Max returns the largest held sample.
func (l *LatencyTracker) Max() time.Duration {
	return l.Percentile(100)
}
