// Package metrics exposes Prometheus counters for enrollment and recognition.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "face_registry"

// Metrics holds the service collectors. A nil *Metrics is valid and records
// nothing.
type Metrics struct {
	registry *prometheus.Registry

	enrollments  *prometheus.CounterVec
	recognitions *prometheus.CounterVec
	gallerySkips *prometheus.CounterVec
	cacheLookups *prometheus.CounterVec
	gallerySize  prometheus.Gauge
	extraction   prometheus.Histogram
}

// New creates the collectors on a fresh registry, together with the Go
// runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		enrollments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "enrollments_total",
			Help:      "Enrollment attempts by final state.",
		}, []string{"state"}),
		recognitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recognitions_total",
			Help:      "Recognition requests by outcome.",
		}, []string{"status"}),
		gallerySkips: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "gallery_skips_total",
			Help:      "Enrollees left out of a gallery, by reason.",
		}, []string{"reason"}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "vector_cache_lookups_total",
			Help:      "Vector lookups by the tier that answered (memory, persistent, miss).",
		}, []string{"tier"}),
		gallerySize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "gallery_size",
			Help:      "Number of candidates in the most recently built gallery.",
		}),
		extraction: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "extraction_duration_seconds",
			Help:      "Time spent in the feature extractor per image.",
			Buckets:   prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(
		m.enrollments,
		m.recognitions,
		m.gallerySkips,
		m.cacheLookups,
		m.gallerySize,
		m.extraction,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) Enrollment(state string) {
	if m == nil {
		return
	}
	m.enrollments.WithLabelValues(state).Inc()
}

func (m *Metrics) Recognition(status string) {
	if m == nil {
		return
	}
	m.recognitions.WithLabelValues(status).Inc()
}

func (m *Metrics) GallerySkip(reason string) {
	if m == nil {
		return
	}
	m.gallerySkips.WithLabelValues(reason).Inc()
}

func (m *Metrics) CacheLookup(tier string) {
	if m == nil {
		return
	}
	m.cacheLookups.WithLabelValues(tier).Inc()
}

func (m *Metrics) GallerySize(n int) {
	if m == nil {
		return
	}
	m.gallerySize.Set(float64(n))
}

func (m *Metrics) ObserveExtraction(d time.Duration) {
	if m == nil {
		return
	}
	m.extraction.Observe(d.Seconds())
}
