package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for the ledger.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter

	seatsSold          prometheus.Counter
	seatsReclaimed     prometheus.Counter
	certificatesIssued prometheus.Counter
}

// NewMetricsService registers the ledger's Prometheus collectors.
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

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_hits_total",
		Help: "Total cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_misses_total",
		Help: "Total cache misses",
	})

	seatsSold := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ledger_seats_sold_total",
		Help: "Total seats purchased",
	})

	seatsReclaimed := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ledger_seats_reclaimed_total",
		Help: "Total seats reclaimed (unsold, failed or administrative)",
	})

	certificatesIssued := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ledger_certificates_issued_total",
		Help: "Total seats relabeled as certificates at finalization",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, cacheHits, cacheMisses, seatsSold, seatsReclaimed, certificatesIssued, goroutines)

	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	return &MetricsService{
		registry:           registry,
		handler:            handler,
		requestDuration:    requestDuration,
		requestTotal:       requestTotal,
		cacheHits:          cacheHits,
		cacheMisses:        cacheMisses,
		seatsSold:          seatsSold,
		seatsReclaimed:     seatsReclaimed,
		certificatesIssued: certificatesIssued,
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

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// RecordCacheOperation records a cache hit or miss.
func (m *MetricsService) RecordCacheOperation(hit bool, _ time.Duration) {
	if m == nil {
		return
	}
	if hit {
		m.cacheHits.Inc()
	} else {
		m.cacheMisses.Inc()
	}
}

// RecordSeatsSold bumps the sold-seat counter.
func (m *MetricsService) RecordSeatsSold(n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.seatsSold.Add(float64(n))
}

// RecordSeatsReclaimed bumps the reclaimed-seat counter.
func (m *MetricsService) RecordSeatsReclaimed(n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.seatsReclaimed.Add(float64(n))
}

// RecordCertificatesIssued bumps the certificate counter.
func (m *MetricsService) RecordCertificatesIssued(n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.certificatesIssued.Add(float64(n))
}
