package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/troop-timetable-api/internal/models"
	"github.com/noah-isme/troop-timetable-api/internal/timetable"
)

// MetricsService encapsulates Prometheus instrumentation for HTTP traffic and timetable builds.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	buildsTotal     *prometheus.CounterVec
	buildDuration   prometheus.Histogram
	lessonsTotal    *prometheus.CounterVec
	understaffed    prometheus.Gauge
	buildProgress   prometheus.Gauge
	cacheLookups    *prometheus.CounterVec
}

// NewMetricsService registers core Prometheus collectors.
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

	buildsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "timetable_builds_total",
		Help: "Timetable builds by final status",
	}, []string{"status"})

	buildDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "timetable_build_duration_seconds",
		Help:    "Wall time of timetable builds",
		Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
	})

	lessonsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "timetable_lessons_created_total",
		Help: "Lessons committed by timetable builds",
	}, []string{"kind"})

	understaffed := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "timetable_understaffed_lessons",
		Help: "Lessons of the last build committed without teachers or audiences",
	})

	buildProgress := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "timetable_build_progress_ratio",
		Help: "Committed hours over total course load of the last build",
	})

	cacheLookups := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "statistics_cache_lookups_total",
		Help: "Statistics cache lookups by result",
	}, []string{"result"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, buildsTotal, buildDuration, lessonsTotal, understaffed, buildProgress, cacheLookups, goroutines)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		buildsTotal:     buildsTotal,
		buildDuration:   buildDuration,
		lessonsTotal:    lessonsTotal,
		understaffed:    understaffed,
		buildProgress:   buildProgress,
		cacheLookups:    cacheLookups,
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

// Registry returns the underlying registry.
func (m *MetricsService) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
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

// ObserveBuild records the outcome of a finished or failed build.
func (m *MetricsService) ObserveBuild(status models.BuildStatus, duration time.Duration, result timetable.Result, progress float64) {
	if m == nil {
		return
	}
	m.buildsTotal.WithLabelValues(string(status)).Inc()
	m.buildDuration.Observe(duration.Seconds())
	m.lessonsTotal.WithLabelValues("classroom").Add(float64(result.Lessons - result.SelfStudyLessons))
	m.lessonsTotal.WithLabelValues("self_study").Add(float64(result.SelfStudyLessons))
	m.understaffed.Set(float64(result.Understaffed))
	m.buildProgress.Set(progress)
}

// RecordCacheLookup counts statistics cache hits and misses.
func (m *MetricsService) RecordCacheLookup(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.cacheLookups.WithLabelValues("hit").Inc()
		return
	}
	m.cacheLookups.WithLabelValues("miss").Inc()
}
