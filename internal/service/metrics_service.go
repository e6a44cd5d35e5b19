package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for the portal.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	menuCacheHits   prometheus.Counter
	menuCacheMisses prometheus.Counter
	loginTotal      *prometheus.CounterVec
	reportViews     prometheus.Counter
}

// NewMetricsService registers the portal collectors on a private registry.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	menuCacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "menu_cache_hits_total",
		Help: "Sidebar menu cache hits",
	})

	menuCacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "menu_cache_misses_total",
		Help: "Sidebar menu cache misses",
	})

	loginTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "logins_total",
		Help: "Sign-in attempts by outcome",
	}, []string{"outcome"})

	reportViews := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "report_views_total",
		Help: "Report viewer loads",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, menuCacheHits, menuCacheMisses, loginTotal, reportViews, goroutines)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		menuCacheHits:   menuCacheHits,
		menuCacheMisses: menuCacheMisses,
		loginTotal:      loginTotal,
		reportViews:     reportViews,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records one request.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// RecordMenuCache records one sidebar cache lookup.
func (m *MetricsService) RecordMenuCache(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.menuCacheHits.Inc()
	} else {
		m.menuCacheMisses.Inc()
	}
}

// RecordLogin records one sign-in attempt.
func (m *MetricsService) RecordLogin(outcome string) {
	if m == nil {
		return
	}
	m.loginTotal.WithLabelValues(outcome).Inc()
}

// RecordReportView records one viewer load.
func (m *MetricsService) RecordReportView() {
	if m == nil {
		return
	}
	m.reportViews.Inc()
}
