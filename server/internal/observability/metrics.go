package observability

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	viewsMounted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "notegraph_views_mounted_total",
		Help: "Graph views mounted, by surface.",
	}, []string{"surface"})
	viewFetchFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "notegraph_view_fetch_failures_total",
		Help: "Graph views whose note fetch failed, by surface.",
	}, []string{"surface"})
	viewFetchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "notegraph_view_fetch_duration_seconds",
		Help:    "Time to fetch notes and build the graph.",
		Buckets: prometheus.DefBuckets,
	}, []string{"surface"})
	framesDrawn = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "notegraph_frames_drawn_total",
		Help: "Frames drawn, by surface.",
	}, []string{"surface"})
)

// Metrics keeps in-process counters per surface and mirrors them to prometheus.
type Metrics struct {
	mu       sync.Mutex
	surfaces map[string]*SurfaceMetrics
}

// SurfaceMetrics represents metrics for one surface (tui, http, raster).
type SurfaceMetrics struct {
	mounted       atomic.Int64
	fetchFailed   atomic.Int64
	frames        atomic.Int64
	fetchDuration atomic.Int64 // milliseconds
}

// NewMetrics creates a new metrics collector.
func NewMetrics() *Metrics {
	return &Metrics{surfaces: make(map[string]*SurfaceMetrics)}
}

var globalMetrics = NewMetrics()

// GlobalMetrics returns the global metrics instance.
func GlobalMetrics() *Metrics {
	return globalMetrics
}

// RecordMount records a mounted view.
func (m *Metrics) RecordMount(surface string) {
	m.get(surface).mounted.Add(1)
	viewsMounted.WithLabelValues(surface).Inc()
}

// RecordFetch records a completed fetch and whether it failed.
func (m *Metrics) RecordFetch(surface string, d time.Duration, failed bool) {
	sm := m.get(surface)
	sm.fetchDuration.Add(d.Milliseconds())
	viewFetchDuration.WithLabelValues(surface).Observe(d.Seconds())
	if failed {
		sm.fetchFailed.Add(1)
		viewFetchFailures.WithLabelValues(surface).Inc()
	}
}

// RecordFrame records a drawn frame.
func (m *Metrics) RecordFrame(surface string) {
	m.get(surface).frames.Add(1)
	framesDrawn.WithLabelValues(surface).Inc()
}

func (m *Metrics) get(surface string) *SurfaceMetrics {
	m.mu.Lock()
	defer m.mu.Unlock()
	sm, ok := m.surfaces[surface]
	if !ok {
		sm = &SurfaceMetrics{}
		m.surfaces[surface] = sm
	}
	return sm
}

// Snapshot returns a point-in-time copy of the counters of every surface.
func (m *Metrics) Snapshot() map[string]SurfaceSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]SurfaceSnapshot, len(m.surfaces))
	for name, sm := range m.surfaces {
		mounted := sm.mounted.Load()
		s := SurfaceSnapshot{
			Mounted:     mounted,
			FetchFailed: sm.fetchFailed.Load(),
			Frames:      sm.frames.Load(),
		}
		if mounted > 0 {
			s.AverageFetchMs = sm.fetchDuration.Load() / mounted
		}
		out[name] = s
	}
	return out
}

// Reset clears the in-process counters. Prometheus series are left alone.
func (m *Metrics) Reset() {
	m.mu.Lock()
	m.surfaces = make(map[string]*SurfaceMetrics)
	m.mu.Unlock()
}

// SurfaceSnapshot is a copy of SurfaceMetrics.
type SurfaceSnapshot struct {
	Mounted        int64 `json:"mounted"`
	FetchFailed    int64 `json:"fetch_failed"`
	Frames         int64 `json:"frames"`
	AverageFetchMs int64 `json:"average_fetch_ms"`
}
