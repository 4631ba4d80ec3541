// Package metrics holds the Prometheus collectors shared by the service,
// the worker and the console controllers.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "catering"

type Metrics struct {
	registry *prometheus.Registry

	MealsCreated  prometheus.Counter
	StaleDiscards *prometheus.CounterVec
	FetchFailures *prometheus.CounterVec
	SheetRows     prometheus.Counter
	HTTPRequests  *prometheus.CounterVec
	HTTPDuration  *prometheus.HistogramVec
}

// New registers every collector on a private registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		MealsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "meals_created_total",
			Help:      "Meals stored through the service.",
		}),
		StaleDiscards: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stale_fetches_discarded_total",
			Help:      "Fetch results dropped because a newer request superseded them.",
		}, []string{"view"}),
		FetchFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_failures_total",
			Help:      "Repository fetches that failed.",
		}, []string{"view"}),
		SheetRows: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sheet_rows_written_total",
			Help:      "Meal rows appended or rewritten in the spreadsheet by the worker.",
		}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status code.",
		}, []string{"route", "code"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
	}
	reg.MustRegister(
		m.MealsCreated, m.StaleDiscards, m.FetchFailures, m.SheetRows,
		m.HTTPRequests, m.HTTPDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// ObserveHTTP records one finished request.
func (m *Metrics) ObserveHTTP(route string, code int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(route, strconv.Itoa(code)).Inc()
	m.HTTPDuration.WithLabelValues(route).Observe(elapsed.Seconds())
}

// The helpers below accept a nil receiver so callers can run without metrics.

func (m *Metrics) MealCreated() {
	if m != nil {
		m.MealsCreated.Inc()
	}
}

func (m *Metrics) StaleDiscarded(view string) {
	if m != nil {
		m.StaleDiscards.WithLabelValues(view).Inc()
	}
}

func (m *Metrics) FetchFailed(view string) {
	if m != nil {
		m.FetchFailures.WithLabelValues(view).Inc()
	}
}

func (m *Metrics) SheetRowWritten() {
	if m != nil {
		m.SheetRows.Inc()
	}
}
