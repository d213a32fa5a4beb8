package service

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for the API.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	ocrDuration     *prometheus.HistogramVec
	ocrTotal        *prometheus.CounterVec
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter
}

// NewMetricsService registers the core collectors.
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

	ocrDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ocr_request_duration_seconds",
		Help:    "Duration of outbound OCR provider calls in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"outcome"})

	ocrTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ocr_requests_total",
		Help: "Total outbound OCR provider calls by outcome",
	}, []string{"outcome"})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "report_list_cache_hits_total",
		Help: "Total report list cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "report_list_cache_misses_total",
		Help: "Total report list cache misses",
	})

	registry.MustRegister(requestDuration, requestTotal, ocrDuration, ocrTotal, cacheHits, cacheMisses)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		ocrDuration:     ocrDuration,
		ocrTotal:        ocrTotal,
		cacheHits:       cacheHits,
		cacheMisses:     cacheMisses,
	}
}

// Handler exposes the registry for the /metrics endpoint.
func (s *MetricsService) Handler() http.Handler {
	return s.handler
}

// ObserveHTTPRequest records one completed HTTP request.
func (s *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	labels := []string{method, path, fmt.Sprintf("%d", status)}
	s.requestDuration.WithLabelValues(labels...).Observe(duration.Seconds())
	s.requestTotal.WithLabelValues(labels...).Inc()
}

// ObserveOCRRequest records one outbound OCR call.
func (s *MetricsService) ObserveOCRRequest(outcome string, duration time.Duration) {
	s.ocrDuration.WithLabelValues(outcome).Observe(duration.Seconds())
	s.ocrTotal.WithLabelValues(outcome).Inc()
}

// RecordCacheHit increments the list cache hit counter.
func (s *MetricsService) RecordCacheHit() {
	s.cacheHits.Inc()
}

// RecordCacheMiss increments the list cache miss counter.
func (s *MetricsService) RecordCacheMiss() {
	s.cacheMisses.Inc()
}
