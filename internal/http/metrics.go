package http

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics records search, error and catalog API outcomes on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	SearchesTotal     *prometheus.CounterVec
	SearchDuration    *prometheus.HistogramVec
	APICallsTotal     *prometheus.CounterVec
	ErrorsTotal       *prometheus.CounterVec
	CachedItems       prometheus.Gauge
	CollectionEntries prometheus.Gauge
}

func NewMetrics() *Metrics {
	metrics := &Metrics{
		registry: prometheus.NewRegistry(),
		SearchesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "featurescout_searches_total",
				Help: "Total number of link searches by content type and outcome",
			},
			[]string{"content_type", "outcome"},
		),
		SearchDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "featurescout_search_duration_seconds",
				Help:    "Time spent resolving a link",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"content_type"},
		),
		APICallsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "featurescout_api_calls_total",
				Help: "Total number of catalog API responses by endpoint and status",
			},
			[]string{"endpoint", "status"},
		),
		ErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "featurescout_errors_total",
				Help: "Total number of classified failures",
			},
			[]string{"kind"},
		),
		CachedItems: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "featurescout_cached_items",
				Help: "Number of content items in the cache",
			},
		),
		CollectionEntries: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "featurescout_collection_entries",
				Help: "Number of seeds in the recommendation collection",
			},
		),
	}

	metrics.registry.MustRegister(
		metrics.SearchesTotal,
		metrics.SearchDuration,
		metrics.APICallsTotal,
		metrics.ErrorsTotal,
		metrics.CachedItems,
		metrics.CollectionEntries,
	)

	return metrics
}

// Registry exposes the private registry for the /metrics handler and tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) RecordSearch(contentType, outcome string, duration time.Duration) {
	m.SearchesTotal.WithLabelValues(contentType, outcome).Inc()
	m.SearchDuration.WithLabelValues(contentType).Observe(duration.Seconds())
}

func (m *Metrics) RecordError(kind string) {
	m.ErrorsTotal.WithLabelValues(kind).Inc()
}

func (m *Metrics) SetCachedItems(n int) {
	m.CachedItems.Set(float64(n))
}

func (m *Metrics) SetCollectionEntries(n int) {
	m.CollectionEntries.Set(float64(n))
}

func (m *Metrics) RecordAPICall(endpoint string, status int) {
	m.APICallsTotal.WithLabelValues(endpoint, strconv.Itoa(status)).Inc()
}
