package world

import "github.com/prometheus/client_golang/prometheus"

// Metrics instruments the scheduler and mesher with
// github.com/prometheus/client_golang collectors. A nil *Metrics is safe
// to use everywhere in this package (every method has a nil receiver
// guard), so instrumentation is entirely opt-in.
type Metrics struct {
	PendingRemeshes prometheus.Gauge
	SectionsLoaded  prometheus.Gauge
	SectionLoads    prometheus.Counter
	SectionUnloads  prometheus.Counter
	ChunksRemeshed  prometheus.Counter
	FrameBudgetUsed prometheus.Histogram
}

// NewMetrics registers a fresh set of collectors on reg and returns them
// wrapped in a Metrics. Pass a dedicated *prometheus.Registry, or
// prometheus.DefaultRegisterer wrapped via prometheus.WrapRegistererWith.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		PendingRemeshes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "voxelworld", Subsystem: "scheduler", Name: "pending_remeshes",
			Help: "Number of chunks currently queued for remeshing.",
		}),
		SectionsLoaded: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "voxelworld", Subsystem: "scheduler", Name: "sections_loaded",
			Help: "Number of sections currently resident in memory.",
		}),
		SectionLoads: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "voxelworld", Subsystem: "scheduler", Name: "section_loads_total",
			Help: "Total number of sections loaded from storage.",
		}),
		SectionUnloads: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "voxelworld", Subsystem: "scheduler", Name: "section_unloads_total",
			Help: "Total number of sections unloaded (and possibly saved).",
		}),
		ChunksRemeshed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "voxelworld", Subsystem: "mesher", Name: "chunks_remeshed_total",
			Help: "Total number of chunks that completed a mesh rebuild.",
		}),
		FrameBudgetUsed: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "voxelworld", Subsystem: "scheduler", Name: "frame_remesh_fraction",
			Help:    "Fraction of max_chunks_per_frame consumed by a single scheduler step.",
			Buckets: prometheus.LinearBuckets(0, 0.1, 11),
		}),
	}
	for _, c := range []prometheus.Collector{
		m.PendingRemeshes, m.SectionsLoaded, m.SectionLoads,
		m.SectionUnloads, m.ChunksRemeshed, m.FrameBudgetUsed,
	} {
		reg.MustRegister(c)
	}
	return m
}

func (m *Metrics) setPending(n int) {
	if m == nil {
		return
	}
	m.PendingRemeshes.Set(float64(n))
}

func (m *Metrics) setSectionsLoaded(n int) {
	if m == nil {
		return
	}
	m.SectionsLoaded.Set(float64(n))
}

func (m *Metrics) incSectionLoads() {
	if m == nil {
		return
	}
	m.SectionLoads.Inc()
}

func (m *Metrics) incSectionUnloads() {
	if m == nil {
		return
	}
	m.SectionUnloads.Inc()
}

func (m *Metrics) incChunksRemeshed(n int) {
	if m == nil {
		return
	}
	m.ChunksRemeshed.Add(float64(n))
}

func (m *Metrics) observeFrameBudget(fraction float64) {
	if m == nil {
		return
	}
	m.FrameBudgetUsed.Observe(fraction)
}
