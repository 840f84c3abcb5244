package observability

import (
	"net/http"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var _ MetricFactory = (*PrometheusFactory)(nil)

// PrometheusFactory creates Prometheus collectors on its own registry.
// Dotted metric names become underscore-separated; counters get a
// "_total" suffix.
type PrometheusFactory struct {
	registry  *prometheus.Registry
	namespace string

	mu         sync.Mutex
	counters   map[string]prometheus.Counter
	histograms map[string]prometheus.Histogram
}

// NewPrometheusFactory creates a factory with a fresh registry that also
// carries the standard Go and process collectors.
func NewPrometheusFactory(namespace string) *PrometheusFactory {
	registry := prometheus.NewRegistry()
	registry.MustRegister(prometheus.NewGoCollector())
	registry.MustRegister(prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))

	return &PrometheusFactory{
		registry:   registry,
		namespace:  namespace,
		counters:   make(map[string]prometheus.Counter),
		histograms: make(map[string]prometheus.Histogram),
	}
}

// Counter returns the counter for name, creating it on first use.
func (f *PrometheusFactory) Counter(name string) Counter {
	f.mu.Lock()
	defer f.mu.Unlock()

	if c, ok := f.counters[name]; ok {
		return c
	}
	c := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: f.namespace,
		Name:      metricName(name) + "_total",
		Help:      "Bistro " + name,
	})
	f.registry.MustRegister(c)
	f.counters[name] = c
	return c
}

// Histogram returns the histogram for name, creating it on first use.
func (f *PrometheusFactory) Histogram(name string) Histogram {
	f.mu.Lock()
	defer f.mu.Unlock()

	if h, ok := f.histograms[name]; ok {
		return h
	}
	h := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: f.namespace,
		Name:      metricName(name),
		Help:      "Bistro " + name,
		Buckets:   buckets(name),
	})
	f.registry.MustRegister(h)
	f.histograms[name] = h
	return h
}

// Registry returns the underlying registry.
func (f *PrometheusFactory) Registry() *prometheus.Registry { return f.registry }

// Handler serves the registry in the Prometheus exposition format.
func (f *PrometheusFactory) Handler() http.Handler {
	return promhttp.HandlerFor(f.registry, promhttp.HandlerOpts{})
}

func metricName(name string) string {
	name = strings.TrimPrefix(name, "bistro.")
	return strings.NewReplacer(".", "_", "-", "_").Replace(name)
}

func buckets(name string) []float64 {
	switch {
	case strings.HasSuffix(name, "_ms"):
		return []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500}
	case strings.HasSuffix(name, "_seconds"):
		return []float64{60, 300, 600, 900, 1200, 1800, 2700, 3600, 7200}
	case strings.HasSuffix(name, "_minor"):
		return prometheus.ExponentialBuckets(100, 2, 14)
	default:
		return prometheus.LinearBuckets(1, 2, 10)
	}
}
