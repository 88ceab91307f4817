package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/campushub/campus-api/internal/models"
)

// MetricsService encapsulates Prometheus instrumentation for the portal.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	transitions     *prometheus.CounterVec
	eventsPublished *prometheus.CounterVec
	pushSent        prometheus.Counter
	pushFailed      prometheus.Counter
	sseClients      prometheus.Gauge
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

	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "classroom_transitions_total",
		Help: "Total classroom occupancy transitions",
	}, []string{"action"})

	eventsPublished := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "change_events_published_total",
		Help: "Total change events published per topic",
	}, []string{"topic"})

	pushSent := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "push_notifications_sent_total",
		Help: "Total web push notifications delivered",
	})

	pushFailed := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "push_notifications_failed_total",
		Help: "Total web push notifications that failed after retries",
	})

	sseClients := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "sse_clients_connected",
		Help: "Currently connected event stream clients",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, transitions, eventsPublished, pushSent, pushFailed, sseClients, goroutines)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		transitions:     transitions,
		eventsPublished: eventsPublished,
		pushSent:        pushSent,
		pushFailed:      pushFailed,
		sseClients:      sseClients,
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

// RecordTransition counts a committed occupancy transition.
func (m *MetricsService) RecordTransition(action models.HistoryAction) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(string(action)).Inc()
}

// RecordEventPublished counts an emitted change event.
func (m *MetricsService) RecordEventPublished(topic string) {
	if m == nil {
		return
	}
	m.eventsPublished.WithLabelValues(topic).Inc()
}

// RecordPushResult counts a finished web push delivery attempt.
func (m *MetricsService) RecordPushResult(ok bool) {
	if m == nil {
		return
	}
	if ok {
		m.pushSent.Inc()
	} else {
		m.pushFailed.Inc()
	}
}

// SSEClientConnected adjusts the connected client gauge.
func (m *MetricsService) SSEClientConnected(delta int) {
	if m == nil {
		return
	}
	m.sseClients.Add(float64(delta))
}
