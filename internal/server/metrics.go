package server

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/matzehuels/topostack/pkg/observability"
	"github.com/matzehuels/topostack/pkg/pipeline"
)

const metricsNamespace = "topostack"

// Metrics records pipeline, cache and HTTP events as Prometheus metrics. It
// implements the hook interfaces of package observability; call [Metrics.Install]
// to receive events.
type Metrics struct {
	gatherer prometheus.Gatherer

	loads     *prometheus.CounterVec
	loadEdges *prometheus.CounterVec
	layouts   *prometheus.HistogramVec
	layoutErr *prometheus.CounterVec
	renders   *prometheus.HistogramVec
	cache     *prometheus.CounterVec
	cacheSize prometheus.Histogram
	requests  *prometheus.CounterVec
	latency   *prometheus.HistogramVec
}

var (
	_ observability.PipelineHooks = (*Metrics)(nil)
	_ observability.CacheHooks    = (*Metrics)(nil)
	_ observability.HTTPHooks     = (*Metrics)(nil)
)

// NewMetrics registers the collectors with reg. A nil reg uses a fresh
// private registry.
func NewMetrics(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	f := promauto.With(reg)
	return &Metrics{
		gatherer: reg,
		loads: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "dataset_loads_total",
			Help:      "Relation datasets loaded, by relation and result.",
		}, []string{"relation", "result"}),
		loadEdges: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "dataset_edges_total",
			Help:      "Edge records read from datasets, by relation.",
		}, []string{"relation"}),
		layouts: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "layout_duration_seconds",
			Help:      "Time spent laying out one view.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"scope"}),
		layoutErr: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "layout_errors_total",
			Help:      "Failed view layouts.",
		}, []string{"scope"}),
		renders: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "render_duration_seconds",
			Help:      "Time spent rendering the artifacts of one view.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"formats", "result"}),
		cache: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "cache_operations_total",
			Help:      "Cache lookups and writes, by key type and operation.",
		}, []string{"key_type", "op"}),
		cacheSize: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "cache_entry_bytes",
			Help:      "Size of entries written to the cache.",
			Buckets:   prometheus.ExponentialBuckets(1024, 4, 8),
		}),
		requests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "http_requests_total",
			Help:      "HTTP responses, by method, route and status code.",
		}, []string{"method", "route", "code"}),
		latency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency, by method and route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
}

// Install registers m as the process-wide pipeline, cache and HTTP hooks.
func (m *Metrics) Install() {
	observability.SetPipelineHooks(m)
	observability.SetCacheHooks(m)
	observability.SetHTTPHooks(m)
}

// Handler serves the collected metrics.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// =============================================================================
// PipelineHooks
// =============================================================================

func (m *Metrics) OnLoadComplete(_ context.Context, relation string, edges int, _ time.Duration, err error) {
	m.loads.WithLabelValues(relation, result(err)).Inc()
	m.loadEdges.WithLabelValues(relation).Add(float64(edges))
}

func (m *Metrics) OnLayoutStart(context.Context, string, int) {}

func (m *Metrics) OnLayoutComplete(_ context.Context, view string, d time.Duration, err error) {
	scope := layoutScope(view)
	if err != nil {
		m.layoutErr.WithLabelValues(scope).Inc()
		return
	}
	m.layouts.WithLabelValues(scope).Observe(d.Seconds())
}

func (m *Metrics) OnRenderStart(context.Context, []string) {}

func (m *Metrics) OnRenderComplete(_ context.Context, formats []string, d time.Duration, err error) {
	m.renders.WithLabelValues(strings.Join(formats, ","), result(err)).Observe(d.Seconds())
}

// =============================================================================
// CacheHooks
// =============================================================================

func (m *Metrics) OnCacheHit(_ context.Context, keyType string) {
	m.cache.WithLabelValues(keyType, "hit").Inc()
}

func (m *Metrics) OnCacheMiss(_ context.Context, keyType string) {
	m.cache.WithLabelValues(keyType, "miss").Inc()
}

func (m *Metrics) OnCacheSet(_ context.Context, keyType string, size int) {
	m.cache.WithLabelValues(keyType, "set").Inc()
	m.cacheSize.Observe(float64(size))
}

// =============================================================================
// HTTPHooks
// =============================================================================

func (m *Metrics) OnResponse(_ context.Context, method, route string, statusCode int, d time.Duration) {
	m.requests.WithLabelValues(method, route, strconv.Itoa(statusCode)).Inc()
	m.latency.WithLabelValues(method, route).Observe(d.Seconds())
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// layoutScope keeps label cardinality bounded: datacenter views share one
// label.
func layoutScope(view string) string {
	if view == pipeline.ViewAll {
		return view
	}
	return "datacenter"
}
